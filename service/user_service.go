package service

import (
	"context"
	"strings"

	"github.com/cydxin/notify-sdk/models"
	"github.com/cydxin/notify-sdk/repository"
)

// UserService 维护通知展示需要的用户信息（由业务方同步过来）
type UserService struct {
	*Service
	dao *repository.UserDAO
}

func NewUserService(s *Service) *UserService {
	return &UserService{Service: s, dao: repository.NewUserDAO(s.DB)}
}

// SyncUser 新增或覆盖用户的 name/username/image
func (s *UserService) SyncUser(ctx context.Context, u *models.User) error {
	if u == nil || strings.TrimSpace(u.ID) == "" {
		return &ValidationError{Field: "id", Msg: "user id is required"}
	}
	return s.dao.Upsert(ctx, u)
}

// GetUser 查询用户
func (s *UserService) GetUser(ctx context.Context, id string) (*models.User, error) {
	if id == "" {
		return nil, &ValidationError{Field: "id", Msg: "user id is required"}
	}
	return s.dao.GetByID(ctx, id)
}
