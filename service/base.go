package service

import (
	"github.com/cydxin/notify-sdk/bus"
	"github.com/go-redis/redis/v8"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"
)

const tracerName = "github.com/cydxin/notify-sdk/service"

// Service 基础服务，包含数据库、redis 和总线，由 engine 创建后注入各个服务。
type Service struct {
	DB  *gorm.DB
	RDB *redis.Client

	// Bus 进程内发布订阅（显式创建，不是全局单例）
	Bus *bus.PubSub

	// Tracer 为空时使用全局 TracerProvider
	Tracer trace.Tracer

	Debug bool
}

func (s *Service) tracer() trace.Tracer {
	if s.Tracer != nil {
		return s.Tracer
	}
	return otel.Tracer(tracerName)
}
