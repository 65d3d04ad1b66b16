package service

import (
	"context"
	"errors"
	"time"

	"github.com/getsentry/sentry-go"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/cydxin/notify-sdk/bus"
	"github.com/cydxin/notify-sdk/cons"
	"github.com/cydxin/notify-sdk/message"
	"github.com/cydxin/notify-sdk/models"
	"github.com/cydxin/notify-sdk/pkg/logger"
	"github.com/cydxin/notify-sdk/repository"
)

const (
	DefaultPageLimit = 50
	MaxPageLimit     = 100
)

// NotificationService 通知的创建、查询、已读和订阅。
// 约定：先落库，落库成功后再发布到总线（尽力而为）；离线/重连通过 GetUnread 补齐。
type NotificationService struct {
	*Service

	dao      *repository.NotificationDAO
	registry *Registry
	hrefs    *HrefBuilder
}

// NewNotificationService registry 为空时用默认工厂（gorm 查询归属/评论链）。
func NewNotificationService(s *Service, registry *Registry, maxAncestorDepth int) *NotificationService {
	dao := repository.NewNotificationDAO(s.DB)
	lookup := repository.NewLookupDAO(s.DB)
	if registry == nil {
		registry = NewRegistry(FactoryDeps{
			Resolver: NewRecipientResolver(lookup, lookup, maxAncestorDepth),
			Store:    dao,
			Users:    repository.NewUserDAO(s.DB),
			Bus:      s.Bus,
		})
	}
	return &NotificationService{
		Service:  s,
		dao:      dao,
		registry: registry,
		hrefs:    NewHrefBuilder(lookup),
	}
}

// Registry 当前使用的工厂表
func (s *NotificationService) Registry() *Registry { return s.registry }

// CreateNotification 为一个业务事件创建通知并推送。
// 返回的 Created 在出错时是已经写入的部分。
func (s *NotificationService) CreateNotification(ctx context.Context, kind cons.EventKind, data FactoryData) (FactoryResult, error) {
	ctx, span := s.tracer().Start(ctx, "notify.CreateNotification", trace.WithAttributes(
		attribute.String("event_kind", kind.String()),
		attribute.String("entity_type", string(data.EntityType)),
		attribute.String("entity_id", data.EntityID),
	))
	defer span.End()

	res, err := s.createNotification(ctx, kind, data)
	span.SetAttributes(
		attribute.Int("recipients", res.RecipientCount),
		attribute.Int("created", len(res.Created)),
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		if !IsValidation(err) {
			captureException(ctx, err)
		}
	}
	return res, err
}

func (s *NotificationService) createNotification(ctx context.Context, kind cons.EventKind, data FactoryData) (FactoryResult, error) {
	f, err := s.registry.Factory(kind)
	if err != nil {
		return FactoryResult{Created: []models.Notification{}}, err
	}
	if err := validateData(data); err != nil {
		return FactoryResult{Created: []models.Notification{}}, err
	}
	res, err := f.Create(ctx, data)
	if s.Debug {
		logger.Debug("create notification",
			zap.String("event_kind", kind.String()),
			zap.String("actor_id", data.ActorID),
			zap.Int("recipients", res.RecipientCount),
			zap.Int("created", len(res.Created)),
			zap.Error(err))
	}
	return res, err
}

func captureException(ctx context.Context, err error) {
	if hub := sentry.GetHubFromContext(ctx); hub != nil {
		hub.CaptureException(err)
		return
	}
	sentry.CaptureException(err)
}

// ListQuery 列表查询参数
type ListQuery struct {
	Page       int  `form:"page"`
	Limit      int  `form:"limit"`
	OnlyUnread bool `form:"onlyUnread"`
}

// NotificationItem 列表项（推送结构 + 文案 key + 跳转链接）
type NotificationItem struct {
	message.Notification
	Text      string `json:"text"`
	EntityKey string `json:"entityKey"`
	Href      string `json:"href"`
}

// NotificationPage 分页结果
type NotificationPage struct {
	Items      []NotificationItem `json:"items"`
	Page       int                `json:"page"`
	Limit      int                `json:"limit"`
	TotalCount int64              `json:"totalCount"`
	TotalPages int                `json:"totalPages"`
	NextPage   *int               `json:"nextPage"`
}

// List 分页查询，按时间倒序。limit 取值 [1,100]，默认 50；page 从 1 开始。
func (s *NotificationService) List(ctx context.Context, userID string, q ListQuery) (*NotificationPage, error) {
	if userID == "" {
		return nil, &ValidationError{Field: "userId", Msg: "user id is required"}
	}
	if q.Limit == 0 {
		q.Limit = DefaultPageLimit
	}
	if q.Limit < 1 || q.Limit > MaxPageLimit {
		return nil, &ValidationError{Field: "limit", Msg: "limit must be between 1 and 100"}
	}
	if q.Page < 1 {
		q.Page = 1
	}

	rows, total, err := s.dao.ListByUser(ctx, userID, q.OnlyUnread, (q.Page-1)*q.Limit, q.Limit)
	if err != nil {
		return nil, err
	}

	items := make([]NotificationItem, 0, len(rows))
	for i := range rows {
		n := &rows[i]
		items = append(items, NotificationItem{
			Notification: ToPayload(n, nil),
			Text:         TextKey(n.Type, n.EntityType),
			EntityKey:    EntityKey(n.EntityType),
			Href:         s.hrefs.Href(ctx, n.EntityType, n.EntityID, n.CommentID),
		})
	}

	totalPages := int((total + int64(q.Limit) - 1) / int64(q.Limit))
	page := &NotificationPage{
		Items:      items,
		Page:       q.Page,
		Limit:      q.Limit,
		TotalCount: total,
		TotalPages: totalPages,
	}
	if q.Page < totalPages {
		next := q.Page + 1
		page.NextPage = &next
	}
	return page, nil
}

// GetUnread 未读快照（按时间正序），用于重连后补齐
func (s *NotificationService) GetUnread(ctx context.Context, userID string) ([]message.Notification, error) {
	return s.unreadSince(ctx, userID, time.Time{}, "")
}

// GetUnreadAfter 只返回 lastEventID 之后的未读。lastEventID 不存在或不属于该用户时返回全部未读。
// 和 lastEventID 同一时间戳的记录也会返回（可能包含已经收到过的），调用方按 id 去重。
func (s *NotificationService) GetUnreadAfter(ctx context.Context, userID, lastEventID string) ([]message.Notification, error) {
	var (
		since   time.Time
		exclude string
	)
	if lastEventID != "" {
		n, err := s.dao.GetByID(ctx, lastEventID)
		switch {
		case err == nil && n.UserID == userID:
			since, exclude = n.CreatedAt, n.ID
		case err != nil && !errors.Is(err, ErrNotFound):
			return nil, err
		}
	}
	return s.unreadSince(ctx, userID, since, exclude)
}

func (s *NotificationService) unreadSince(ctx context.Context, userID string, since time.Time, exclude string) ([]message.Notification, error) {
	if userID == "" {
		return nil, &ValidationError{Field: "userId", Msg: "user id is required"}
	}
	rows, err := s.dao.ListUnread(ctx, userID, since, exclude)
	if err != nil {
		return nil, err
	}
	out := make([]message.Notification, 0, len(rows))
	for i := range rows {
		out = append(out, ToPayload(&rows[i], nil))
	}
	return out, nil
}

// UnreadCount 未读数
func (s *NotificationService) UnreadCount(ctx context.Context, userID string) (int64, error) {
	if userID == "" {
		return 0, &ValidationError{Field: "userId", Msg: "user id is required"}
	}
	return s.dao.CountUnread(ctx, userID)
}

// MarkAsRead 标记已读，重复调用结果相同。不是自己的通知返回 ErrForbidden。
func (s *NotificationService) MarkAsRead(ctx context.Context, userID, notificationID string) error {
	if userID == "" || notificationID == "" {
		return &ValidationError{Field: "id", Msg: "notification id is required"}
	}
	n, err := s.dao.GetByID(ctx, notificationID)
	if err != nil {
		return err
	}
	if n.UserID != userID {
		return ErrForbidden
	}
	if n.Read {
		return nil
	}
	return s.dao.MarkRead(ctx, notificationID)
}

// MarkAllAsRead 全部已读，返回更新条数
func (s *NotificationService) MarkAllAsRead(ctx context.Context, userID string) (int64, error) {
	if userID == "" {
		return 0, &ValidationError{Field: "userId", Msg: "user id is required"}
	}
	return s.dao.MarkAllRead(ctx, userID)
}

// Subscribe 订阅某个用户的实时通知。ctx 结束时自动注销。
func (s *NotificationService) Subscribe(ctx context.Context, userID string) (*bus.Subscription[message.Notification], error) {
	if userID == "" {
		return nil, &ValidationError{Field: "userId", Msg: "user id is required"}
	}
	if s.Bus == nil {
		return nil, errors.New("notification bus is not configured")
	}
	return s.Bus.SubscribeUser(ctx, userID)
}
