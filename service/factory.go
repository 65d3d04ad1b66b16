package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cydxin/notify-sdk/bus"
	"github.com/cydxin/notify-sdk/cons"
	"github.com/cydxin/notify-sdk/message"
	"github.com/cydxin/notify-sdk/models"
	"github.com/cydxin/notify-sdk/pkg/logger"
	"github.com/cydxin/notify-sdk/repository"
)

// FactoryData 业务方触发通知时传入的数据。
// Actor* 为操作者展示信息，会随事件一起推送；都为空时从用户表补全。
type FactoryData struct {
	ActorID       string          `json:"actorId" validate:"required,max=64"`
	ActorName     *string         `json:"actorName,omitempty"`
	ActorUsername *string         `json:"actorUsername,omitempty"`
	ActorImage    *string         `json:"actorImage,omitempty"`
	EntityType    cons.EntityType `json:"entityType" validate:"required,entity_type"`
	EntityID      string          `json:"entityId" validate:"required,max=64"`
	CommentID     *string         `json:"commentId,omitempty" validate:"omitempty,min=1,max=64"`
}

// FactoryResult 创建结果
type FactoryResult struct {
	Created        []models.Notification `json:"created"`
	RecipientCount int                   `json:"recipientCount"`
}

// Factory 某一类事件的通知工厂
type Factory interface {
	Kind() cons.EventKind
	Create(ctx context.Context, data FactoryData) (FactoryResult, error)
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("entity_type", func(fl validator.FieldLevel) bool {
		return cons.EntityType(fl.Field().String()).Valid()
	})
	return v
}

// validateData 结构校验，转换成 ValidationError
func validateData(data FactoryData) error {
	err := validate.Struct(data)
	if err == nil {
		return nil
	}
	var ves validator.ValidationErrors
	if errors.As(err, &ves) && len(ves) > 0 {
		fe := ves[0]
		return &ValidationError{Field: fe.Field(), Msg: fmt.Sprintf("failed on %q", fe.Tag())}
	}
	return &ValidationError{Msg: err.Error()}
}

type recipientFunc func(ctx context.Context, data FactoryData) ([]string, error)

// fanoutFactory 通用流程：解析接收者 -> 剔除操作者 -> 逐个落库 -> 全部成功后逐条发布。
// 落库失败时中止，已写入的不回滚，也不会发布任何事件。
type fanoutFactory struct {
	kind       cons.EventKind
	recipients recipientFunc
	store      *repository.NotificationDAO
	users      *repository.UserDAO
	bus        *bus.PubSub
	now        func() time.Time
}

// FactoryDeps 工厂依赖
type FactoryDeps struct {
	Resolver *RecipientResolver
	Store    *repository.NotificationDAO
	Users    *repository.UserDAO // 可选，用于补全操作者信息
	Bus      *bus.PubSub
}

// NewFollowFactory 关注通知
func NewFollowFactory(d FactoryDeps) Factory {
	return d.build(cons.KindFollow, func(_ context.Context, data FactoryData) ([]string, error) {
		return d.Resolver.FollowRecipients(data.EntityID), nil
	})
}

// NewLikeFactory 点赞通知
func NewLikeFactory(d FactoryDeps) Factory {
	return d.build(cons.KindLike, func(ctx context.Context, data FactoryData) ([]string, error) {
		return d.Resolver.LikeRecipients(ctx, data.EntityType, data.EntityID)
	})
}

// NewCommentFactory 评论通知，commentId 必填
func NewCommentFactory(d FactoryDeps) Factory {
	return d.build(cons.KindComment, func(ctx context.Context, data FactoryData) ([]string, error) {
		if data.CommentID == nil || *data.CommentID == "" {
			return nil, &ValidationError{Field: "commentId", Msg: "comment id is required for comment notifications"}
		}
		return d.Resolver.CommentRecipients(ctx, data.EntityType, data.EntityID, *data.CommentID)
	})
}

func (d FactoryDeps) build(kind cons.EventKind, fn recipientFunc) *fanoutFactory {
	return &fanoutFactory{
		kind:       kind,
		recipients: fn,
		store:      d.Store,
		users:      d.Users,
		bus:        d.Bus,
		now:        time.Now,
	}
}

func (f *fanoutFactory) Kind() cons.EventKind { return f.kind }

func (f *fanoutFactory) Create(ctx context.Context, data FactoryData) (FactoryResult, error) {
	res := FactoryResult{Created: []models.Notification{}}

	recipients, err := f.recipients(ctx, data)
	if err != nil {
		return res, err
	}
	recipients = without(recipients, data.ActorID)
	res.RecipientCount = len(recipients)
	if len(recipients) == 0 {
		return res, nil
	}

	var commentID *string
	if f.kind == cons.KindComment {
		commentID = data.CommentID
	}

	for _, uid := range recipients {
		n := models.Notification{
			ID:         newID(),
			UserID:     uid,
			ActorID:    data.ActorID,
			Type:       f.kind,
			EntityType: data.EntityType,
			EntityID:   data.EntityID,
			CommentID:  commentID,
			CreatedAt:  f.now(),
		}
		if err := f.store.Create(ctx, &n); err != nil {
			logger.Error("persist notification failed",
				zap.String("event_kind", f.kind.String()),
				zap.String("user_id", uid),
				zap.Int("created", len(res.Created)),
				zap.Error(err))
			return res, fmt.Errorf("persist notification for %s: %w", uid, err)
		}
		res.Created = append(res.Created, n)
	}

	if f.bus != nil {
		actor := f.actor(ctx, data)
		for i := range res.Created {
			f.bus.PublishNotification(ToPayload(&res.Created[i], &actor))
		}
	}
	return res, nil
}

// actor 优先使用调用方传入的展示信息
func (f *fanoutFactory) actor(ctx context.Context, data FactoryData) message.Actor {
	a := message.Actor{
		ID:       data.ActorID,
		Name:     data.ActorName,
		Username: data.ActorUsername,
		Image:    data.ActorImage,
	}
	if a.Name != nil || a.Username != nil || a.Image != nil || f.users == nil {
		return a
	}
	u, err := f.users.GetByID(ctx, data.ActorID)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			logger.Warn("load actor failed", zap.String("actor_id", data.ActorID), zap.Error(err))
		}
		return a
	}
	return actorOf(u)
}

// newID uuid v7：按时间有序，同一毫秒内也按生成顺序递增
func newID() string {
	return uuid.Must(uuid.NewV7()).String()
}

func without(ids []string, drop string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == drop {
			continue
		}
		out = append(out, id)
	}
	return out
}

// ToPayload 数据库记录转推送结构。actor 为空时使用记录上 Preload 的 Actor。
func ToPayload(n *models.Notification, actor *message.Actor) message.Notification {
	p := message.Notification{
		ID:         n.ID,
		EventKind:  n.Type,
		EntityType: n.EntityType,
		EntityID:   n.EntityID,
		CommentID:  n.CommentID,
		UserID:     n.UserID,
		ActorID:    n.ActorID,
		Read:       n.Read,
		CreatedAt:  n.CreatedAt,
	}
	switch {
	case actor != nil:
		p.Actor = *actor
	case n.Actor != nil:
		p.Actor = actorOf(n.Actor)
	default:
		p.Actor = message.Actor{ID: n.ActorID}
	}
	return p
}

func actorOf(u *models.User) message.Actor {
	return message.Actor{
		ID:       u.ID,
		Name:     nonEmpty(u.Name),
		Username: nonEmpty(u.Username),
		Image:    nonEmpty(u.Image),
	}
}

func nonEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
