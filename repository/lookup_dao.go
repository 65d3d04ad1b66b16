package repository

import (
	"context"

	"github.com/cydxin/notify-sdk/cons"
	"github.com/cydxin/notify-sdk/models"
	"gorm.io/gorm"
)

// CommentNode 评论树上的一个节点
type CommentNode struct {
	ID       string
	AuthorID string
	ParentID *string
}

// LookupDAO 查询实体归属和评论父子关系，用于解析通知接收者。
type LookupDAO struct {
	db *gorm.DB
}

func NewLookupDAO(db *gorm.DB) *LookupDAO {
	return &LookupDAO{db: db}
}

func (dao *LookupDAO) WithDB(db *gorm.DB) *LookupDAO {
	if db == nil {
		return dao
	}
	return &LookupDAO{db: db}
}

// EntityOwner 实体的所有者；评论返回作者。不存在返回 ErrNotFound。
func (dao *LookupDAO) EntityOwner(ctx context.Context, entityType cons.EntityType, entityID string) (string, error) {
	var (
		model  any
		column = "owner_id"
	)
	switch entityType {
	case cons.EntityPost:
		model = &models.Post{}
	case cons.EntityGrow:
		model = &models.Grow{}
	case cons.EntityPlant:
		model = &models.Plant{}
	case cons.EntityPhoto:
		model = &models.Image{}
	case cons.EntityComment:
		model = &models.Comment{}
		column = "user_id"
	default:
		return "", ErrNotFound
	}

	var owners []string
	err := dao.db.WithContext(ctx).Model(model).
		Where("id = ?", entityID).
		Limit(1).
		Pluck(column, &owners).Error
	if err != nil {
		return "", err
	}
	if len(owners) == 0 {
		return "", ErrNotFound
	}
	return owners[0], nil
}

// CommentNode 查询单个评论节点
func (dao *LookupDAO) CommentNode(ctx context.Context, commentID string) (CommentNode, error) {
	var c models.Comment
	err := dao.db.WithContext(ctx).
		Select("id", "user_id", "parent_comment_id").
		Where("id = ?", commentID).
		First(&c).Error
	if err != nil {
		return CommentNode{}, notFound(err)
	}
	return CommentNode{ID: c.ID, AuthorID: c.UserID, ParentID: c.ParentCommentID}, nil
}

// CommentTarget 评论挂靠的实体（用于生成跳转链接）
func (dao *LookupDAO) CommentTarget(ctx context.Context, commentID string) (entityType, entityID string, err error) {
	var c models.Comment
	err = dao.db.WithContext(ctx).
		Select("id", "entity_type", "entity_id").
		Where("id = ?", commentID).
		First(&c).Error
	if err != nil {
		return "", "", notFound(err)
	}
	return c.EntityType, c.EntityID, nil
}
