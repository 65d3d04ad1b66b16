package service

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/cydxin/notify-sdk/cons"
	"github.com/cydxin/notify-sdk/pkg/logger"
	"github.com/cydxin/notify-sdk/repository"
)

// DefaultMaxAncestorDepth 评论链向上查找的最大层数
const DefaultMaxAncestorDepth = 256

// OwnershipLookup 查询实体所有者，不存在返回 ErrNotFound
type OwnershipLookup interface {
	EntityOwner(ctx context.Context, entityType cons.EntityType, entityID string) (string, error)
}

// ThreadLookup 查询评论节点，不存在返回 ErrNotFound
type ThreadLookup interface {
	CommentNode(ctx context.Context, commentID string) (repository.CommentNode, error)
}

// RecipientResolver 根据事件计算接收者。
// 结果已去重、保持首次出现的顺序，操作者由工厂剔除。
type RecipientResolver struct {
	owners   OwnershipLookup
	threads  ThreadLookup
	maxDepth int
}

func NewRecipientResolver(owners OwnershipLookup, threads ThreadLookup, maxDepth int) *RecipientResolver {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxAncestorDepth
	}
	return &RecipientResolver{owners: owners, threads: threads, maxDepth: maxDepth}
}

// FollowRecipients 被关注的人
func (r *RecipientResolver) FollowRecipients(entityID string) []string {
	if entityID == "" {
		return []string{}
	}
	return []string{entityID}
}

// LikeRecipients 被点赞实体的所有者（评论为作者）。实体不存在时返回空集合。
func (r *RecipientResolver) LikeRecipients(ctx context.Context, entityType cons.EntityType, entityID string) ([]string, error) {
	switch entityType {
	case cons.EntityPost, cons.EntityGrow, cons.EntityPlant, cons.EntityPhoto, cons.EntityComment:
		return r.owner(ctx, entityType, entityID)
	default:
		return []string{}, nil
	}
}

// CommentRecipients 评论通知的接收者。
// 顶层实体通知所有者；回复（entityType=comment）从 commentID 开始沿父评论向上，收集每一层的作者。
func (r *RecipientResolver) CommentRecipients(ctx context.Context, entityType cons.EntityType, entityID, commentID string) ([]string, error) {
	switch entityType {
	case cons.EntityPost, cons.EntityGrow, cons.EntityPlant, cons.EntityPhoto:
		return r.owner(ctx, entityType, entityID)
	case cons.EntityComment:
		authors, err := r.AncestorAuthors(ctx, commentID)
		if errors.Is(err, ErrNotFound) && entityID != commentID {
			// 新评论还查不到时，从被回复的评论开始
			authors, err = r.AncestorAuthors(ctx, entityID)
		}
		if errors.Is(err, ErrNotFound) {
			logger.Debug("comment thread not found",
				zap.String("entity_id", entityID), zap.String("comment_id", commentID))
			return []string{}, nil
		}
		return authors, err
	default:
		return []string{}, nil
	}
}

// Recipients 按事件类型分发。new_comment 缺少 commentID 时直接返回 ValidationError，不做任何查询。
func (r *RecipientResolver) Recipients(ctx context.Context, kind cons.EventKind, entityType cons.EntityType, entityID string, commentID *string) ([]string, error) {
	switch kind {
	case cons.KindFollow:
		return r.FollowRecipients(entityID), nil
	case cons.KindLike:
		return r.LikeRecipients(ctx, entityType, entityID)
	case cons.KindComment:
		if commentID == nil || *commentID == "" {
			return nil, &ValidationError{Field: "commentId", Msg: "comment id is required for comment notifications"}
		}
		return r.CommentRecipients(ctx, entityType, entityID, *commentID)
	case cons.KindPost:
		// 暂无接收规则（例如粉丝），返回空集合
		return []string{}, nil
	default:
		return []string{}, nil
	}
}

// AncestorAuthors 从 commentID 开始（包含自身）向上遍历父评论，返回去重后的作者列表。
// 每个节点最多访问一次，超过 maxDepth 或出现环时停止并返回已收集的部分。
// 起点不存在返回 ErrNotFound；中途断链视为到达根。
func (r *RecipientResolver) AncestorAuthors(ctx context.Context, commentID string) ([]string, error) {
	if commentID == "" {
		return nil, ErrNotFound
	}
	visited := make(map[string]struct{})
	set := newOrderedSet()

	cur := commentID
	for depth := 0; cur != ""; depth++ {
		if depth >= r.maxDepth {
			logger.Warn("comment ancestor walk hit depth limit",
				zap.String("comment_id", commentID), zap.Int("max_depth", r.maxDepth))
			break
		}
		if _, ok := visited[cur]; ok {
			logger.Warn("comment ancestor cycle detected",
				zap.String("comment_id", commentID), zap.String("at", cur))
			break
		}
		visited[cur] = struct{}{}

		node, err := r.threads.CommentNode(ctx, cur)
		if err != nil {
			if errors.Is(err, ErrNotFound) && depth > 0 {
				break
			}
			return nil, err
		}
		set.add(node.AuthorID)

		if node.ParentID == nil {
			break
		}
		cur = *node.ParentID
	}
	return set.list(), nil
}

func (r *RecipientResolver) owner(ctx context.Context, entityType cons.EntityType, entityID string) ([]string, error) {
	uid, err := r.owners.EntityOwner(ctx, entityType, entityID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			logger.Debug("notification entity not found",
				zap.String("entity_type", string(entityType)), zap.String("entity_id", entityID))
			return []string{}, nil
		}
		return nil, err
	}
	if uid == "" {
		return []string{}, nil
	}
	return []string{uid}, nil
}

// orderedSet 去重并保持插入顺序
type orderedSet struct {
	seen  map[string]struct{}
	items []string
}

func newOrderedSet() *orderedSet {
	return &orderedSet{seen: make(map[string]struct{})}
}

func (s *orderedSet) add(v string) {
	if v == "" {
		return
	}
	if _, ok := s.seen[v]; ok {
		return
	}
	s.seen[v] = struct{}{}
	s.items = append(s.items, v)
}

func (s *orderedSet) list() []string {
	if s.items == nil {
		return []string{}
	}
	return s.items
}
