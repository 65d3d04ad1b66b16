package service

import (
	"context"

	"github.com/cydxin/notify-sdk/cons"
)

// Registry 事件类型 -> 工厂。
// 每个类型一个字段，新增 EventKind 时 Factory() 里的 switch 也要补上。
type Registry struct {
	Follow  Factory
	Like    Factory
	Comment Factory
}

// NewRegistry 用同一组依赖接好所有已支持的工厂
func NewRegistry(d FactoryDeps) *Registry {
	return &Registry{
		Follow:  NewFollowFactory(d),
		Like:    NewLikeFactory(d),
		Comment: NewCommentFactory(d),
	}
}

// Factory 取某个类型的工厂，未接线返回 ConfigurationError
func (r *Registry) Factory(kind cons.EventKind) (Factory, error) {
	var f Factory
	switch kind {
	case cons.KindFollow:
		f = r.Follow
	case cons.KindLike:
		f = r.Like
	case cons.KindComment:
		f = r.Comment
	case cons.KindPost:
		// 新帖子通知还没有工厂
	default:
	}
	if f == nil {
		return nil, &ConfigurationError{Kind: kind}
	}
	return f, nil
}

// Create 按类型分发到对应工厂
func (r *Registry) Create(ctx context.Context, kind cons.EventKind, data FactoryData) (FactoryResult, error) {
	f, err := r.Factory(kind)
	if err != nil {
		return FactoryResult{}, err
	}
	return f.Create(ctx, data)
}
