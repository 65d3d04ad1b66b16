package repository

import (
	"context"

	"github.com/cydxin/notify-sdk/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// UserDAO 用户展示信息
type UserDAO struct {
	db *gorm.DB
}

func NewUserDAO(db *gorm.DB) *UserDAO {
	return &UserDAO{db: db}
}

func (dao *UserDAO) WithDB(db *gorm.DB) *UserDAO {
	if db == nil {
		return dao
	}
	return &UserDAO{db: db}
}

// GetByID 查询用户，不存在返回 ErrNotFound
func (dao *UserDAO) GetByID(ctx context.Context, id string) (*models.User, error) {
	var u models.User
	if err := dao.db.WithContext(ctx).Where("id = ?", id).First(&u).Error; err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}

// Upsert 同步业务方的用户展示信息（按 id 覆盖 name/username/image）
func (dao *UserDAO) Upsert(ctx context.Context, u *models.User) error {
	return dao.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "username", "image", "updated_at"}),
	}).Create(u).Error
}
