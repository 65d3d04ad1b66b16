package service

import (
	"context"
	"net/url"

	"go.uber.org/zap"

	"github.com/cydxin/notify-sdk/cons"
	"github.com/cydxin/notify-sdk/pkg/logger"
)

// 文案 key，由前端/调用方做多语言渲染
const (
	TextNewFollow       = "new_follow"
	TextNewLike         = "new_like"
	TextNewComment      = "new_comment"
	TextNewPost         = "new_post"
	TextNewNotification = "new_notification"
	EntityKeyUnknown    = "entity_unknown"
)

// TextKey 通知文案 key，例如 new_like_photo / new_comment_comment
func TextKey(kind cons.EventKind, entityType cons.EntityType) string {
	switch kind {
	case cons.KindFollow:
		return TextNewFollow
	case cons.KindLike:
		if s := entitySuffix(entityType); s != "" && entityType != cons.EntityUser {
			return TextNewLike + "_" + s
		}
		return TextNewLike
	case cons.KindComment:
		if s := entitySuffix(entityType); s != "" && entityType != cons.EntityUser {
			return TextNewComment + "_" + s
		}
		return TextNewComment
	case cons.KindPost:
		return TextNewPost
	default:
		return TextNewNotification
	}
}

// EntityKey 实体名称 key，例如 entity_photo
func EntityKey(entityType cons.EntityType) string {
	if s := entitySuffix(entityType); s != "" {
		return "entity_" + s
	}
	return EntityKeyUnknown
}

func entitySuffix(t cons.EntityType) string {
	switch t {
	case cons.EntityUser:
		return "user"
	case cons.EntityPost:
		return "post"
	case cons.EntityGrow:
		return "grow"
	case cons.EntityPlant:
		return "plant"
	case cons.EntityPhoto:
		return "photo"
	case cons.EntityComment:
		return "comment"
	default:
		return ""
	}
}

// CommentTargetLookup 查询评论挂靠的实体
type CommentTargetLookup interface {
	CommentTarget(ctx context.Context, commentID string) (entityType, entityID string, err error)
}

// HrefBuilder 生成通知跳转链接
type HrefBuilder struct {
	comments CommentTargetLookup
}

func NewHrefBuilder(comments CommentTargetLookup) *HrefBuilder {
	return &HrefBuilder{comments: comments}
}

// Href 生成链接。评论实体需要先找到它挂靠的实体；解析失败返回 "#"。
func (b *HrefBuilder) Href(ctx context.Context, entityType cons.EntityType, entityID string, commentID *string) string {
	if entityType == cons.EntityComment {
		return b.commentHref(ctx, entityID, commentID)
	}
	return entityHref(entityType, entityID, commentID)
}

func (b *HrefBuilder) commentHref(ctx context.Context, entityID string, commentID *string) string {
	if b == nil || b.comments == nil {
		return "#"
	}
	parentType, parentID, err := b.comments.CommentTarget(ctx, entityID)
	if err != nil {
		logger.Debug("resolve comment href failed", zap.String("comment_id", entityID), zap.Error(err))
		return "#"
	}
	var target cons.EntityType
	switch parentType {
	case cons.CommentablePost:
		target = cons.EntityPost
	case cons.CommentableGrow:
		target = cons.EntityGrow
	case cons.CommentablePlant:
		target = cons.EntityPlant
	case cons.CommentablePhoto:
		target = cons.EntityPhoto
	default:
		logger.Debug("unknown commentable entity type", zap.String("entity_type", parentType))
		return "#"
	}
	return entityHref(target, parentID, commentID)
}

func entityHref(entityType cons.EntityType, entityID string, commentID *string) string {
	var base string
	switch entityType {
	case cons.EntityUser:
		return "/public/profile/" + url.PathEscape(entityID)
	case cons.EntityPost:
		base = "/public/posts/"
	case cons.EntityGrow:
		base = "/public/grows/"
	case cons.EntityPlant:
		base = "/public/plants/"
	case cons.EntityPhoto:
		base = "/public/photos/"
	default:
		return "#"
	}
	href := base + url.PathEscape(entityID)
	if commentID != nil && *commentID != "" {
		href += "?commentId=" + url.QueryEscape(*commentID)
	}
	return href
}
