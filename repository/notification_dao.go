package repository

import (
	"context"
	"errors"
	"time"

	"github.com/cydxin/notify-sdk/models"
	"gorm.io/gorm"
)

// ErrNotFound 记录不存在（对 gorm.ErrRecordNotFound 的统一包装，上层不用感知 gorm）
var ErrNotFound = errors.New("record not found")

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

// NotificationDAO 通知表的数据访问
//
// 约定：
// - 只做数据访问，不做业务编排（接收者解析、推送等都在 service）。
// - 需要事务时由 service 开启，使用 WithDB(tx)。
type NotificationDAO struct {
	db *gorm.DB
}

func NewNotificationDAO(db *gorm.DB) *NotificationDAO {
	return &NotificationDAO{db: db}
}

// WithDB 用于在事务（tx）中复用 DAO
func (dao *NotificationDAO) WithDB(db *gorm.DB) *NotificationDAO {
	if db == nil {
		return dao
	}
	return &NotificationDAO{db: db}
}

// Create 插入一条通知
func (dao *NotificationDAO) Create(ctx context.Context, n *models.Notification) error {
	return dao.db.WithContext(ctx).Create(n).Error
}

// GetByID 按 ID 查询
func (dao *NotificationDAO) GetByID(ctx context.Context, id string) (*models.Notification, error) {
	var n models.Notification
	if err := dao.db.WithContext(ctx).Where("id = ?", id).First(&n).Error; err != nil {
		return nil, notFound(err)
	}
	return &n, nil
}

// ListByUser 分页查询（按创建时间倒序），带操作者信息
func (dao *NotificationDAO) ListByUser(ctx context.Context, userID string, onlyUnread bool, offset, limit int) ([]models.Notification, int64, error) {
	cond := map[string]any{"user_id": userID}
	if onlyUnread {
		cond["read"] = false
	}
	q := dao.db.WithContext(ctx).Model(&models.Notification{}).Where(cond).Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []models.Notification{}, 0, nil
	}

	var rows []models.Notification
	err := q.Preload("Actor").
		Order("created_at DESC").Order("id DESC").
		Offset(offset).Limit(limit).
		Find(&rows).Error
	return rows, total, err
}

// read 是 mysql 保留字，用 map 条件让 gorm 按方言加引号
func unreadOf(userID string) map[string]any {
	return map[string]any{"user_id": userID, "read": false}
}

// ListUnread 未读通知，按创建时间正序（推送补发用）。
// since 非零时取 created_at >= since 的记录（同一时间戳的不会漏掉），excludeID 为已经收到的那条。
// id 是 uuid v7，同一时间戳内按 id 排序即创建顺序。
func (dao *NotificationDAO) ListUnread(ctx context.Context, userID string, since time.Time, excludeID string) ([]models.Notification, error) {
	q := dao.db.WithContext(ctx).Where(unreadOf(userID))
	if !since.IsZero() {
		q = q.Where("created_at >= ?", since)
	}
	if excludeID != "" {
		q = q.Where("id <> ?", excludeID)
	}
	var rows []models.Notification
	err := q.Preload("Actor").Order("created_at ASC").Order("id ASC").Find(&rows).Error
	return rows, err
}

// CountUnread 未读数
func (dao *NotificationDAO) CountUnread(ctx context.Context, userID string) (int64, error) {
	var n int64
	err := dao.db.WithContext(ctx).Model(&models.Notification{}).
		Where(unreadOf(userID)).
		Count(&n).Error
	return n, err
}

// MarkRead 标记单条已读，已读的不再更新
func (dao *NotificationDAO) MarkRead(ctx context.Context, id string) error {
	return dao.db.WithContext(ctx).Model(&models.Notification{}).
		Where(map[string]any{"id": id, "read": false}).
		Update("read", true).Error
}

// MarkAllRead 标记用户全部已读，返回更新条数
func (dao *NotificationDAO) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	res := dao.db.WithContext(ctx).Model(&models.Notification{}).
		Where(unreadOf(userID)).
		Update("read", true)
	return res.RowsAffected, res.Error
}
