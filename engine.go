package notify_sdk

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/cydxin/notify-sdk/bus"
	"github.com/cydxin/notify-sdk/middleware"
	"github.com/cydxin/notify-sdk/models"
	"github.com/cydxin/notify-sdk/pkg/logger"
	"github.com/cydxin/notify-sdk/service"
)

// NotifyEngine 通知引擎：总线、服务、WS/SSE 推送和 HTTP 接口。
// 每次 NewEngine 得到一个独立实例，总线不是全局单例。
type NotifyEngine struct {
	config *Config

	Bus   *bus.PubSub
	Relay *bus.Relay // 未开启跨实例同步时为 nil

	NotificationService *service.NotificationService
	ChatService         *service.ChatService
	UserService         *service.UserService
	AuthService         *service.AuthService // 没有 RDB 时为 nil
	Authenticator       service.Authenticator

	WsServer *WsServer
	stop     context.CancelFunc
}

// NewEngine 创建实例
// 使用选项模式传入配置，Option回调
func NewEngine(opts ...Option) (*NotifyEngine, error) {
	c := &Config{
		TablePrefix: models.TablePrefix(),
		AutoMigrate: true,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.DB == nil {
		return nil, errors.New("notify_sdk: DB is required")
	}
	if c.Relay.Enabled && c.RDB == nil {
		return nil, errors.New("notify_sdk: relay requires RDB")
	}
	models.SetTablePrefix(c.TablePrefix)

	e := &NotifyEngine{config: c, Bus: bus.New(c.BusOptions...)}

	baseService := &service.Service{
		DB:     c.DB,
		RDB:    c.RDB,
		Bus:    e.Bus,
		Tracer: c.Tracer,
		Debug:  c.Service.Debug,
	}
	e.NotificationService = service.NewNotificationService(baseService, nil, c.Service.MaxAncestorDepth)
	e.ChatService = service.NewChatService(baseService)
	e.UserService = service.NewUserService(baseService)
	if c.RDB != nil {
		e.AuthService = service.NewAuthService(c.RDB)
	}
	e.Authenticator = c.Authenticator
	if e.Authenticator == nil && e.AuthService != nil {
		e.Authenticator = e.AuthService
	}
	if c.Relay.Enabled {
		e.Relay = bus.NewRelay(c.RDB, e.Bus, c.Relay.Channel, 0)
	}

	if c.LegacyTablePrefix != "" {
		if err := e.MigrateTablePrefix(c.LegacyTablePrefix); err != nil {
			return nil, fmt.Errorf("migrate table prefix: %w", err)
		}
	}
	if c.AutoMigrate {
		if err := e.AutoMigrate(); err != nil {
			return nil, fmt.Errorf("auto migrate: %w", err)
		}
	}

	e.WsServer = NewWsServer()
	e.bindWsHandlersOnMessage()
	ctx, cancel := context.WithCancel(context.Background())
	e.stop = cancel
	go e.WsServer.Run(ctx)

	return e, nil
}

// Start 启动后台任务（跨实例同步）。ctx 结束时停止。
func (e *NotifyEngine) Start(ctx context.Context) error {
	if e.Relay == nil {
		return nil
	}
	if err := e.Relay.Start(ctx); err != nil {
		return fmt.Errorf("start relay: %w", err)
	}
	logger.Info("bus relay started", zap.String("origin", e.Relay.Origin()))
	return nil
}

// Close 关闭所有 WS 连接
func (e *NotifyEngine) Close() {
	if e.stop != nil {
		e.stop()
	}
}

func (e *NotifyEngine) AutoMigrate() error {
	logger.Info("AutoMigrate...", zap.String("table_prefix", models.TablePrefix()))
	return e.config.DB.AutoMigrate(models.All()...)
}

// InternalToken 内部事件接口密钥
func (e *NotifyEngine) InternalToken() string { return e.config.InternalToken }

/*
*	提供的HTTP接口在此处，也可以直接自己写controller然后调用service
*	推荐自己写controller，因为这样更灵活
 */

// ServeWS 处理 WebSocket 通知订阅，userID 由调用方鉴权得到
func (e *NotifyEngine) ServeWS(w http.ResponseWriter, r *http.Request, userID string) {
	e.WsServer.ServeNotifications(w, r, userID, e.NotificationService)
}

// HandleWS 返回 WebSocket 的Handler
func (e *NotifyEngine) HandleWS(userID string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		e.ServeWS(w, r, userID)
	}
}

// GinAuthMiddleware 返回配置好的 Gin 鉴权中间件
//
// 使用示例:
//
//	engine, _ := notify_sdk.NewEngine(...)
//	r := gin.Default()
//	r.Use(engine.GinAuthMiddleware(nil))
func (e *NotifyEngine) GinAuthMiddleware(opt *middleware.AuthOptions) gin.HandlerFunc {
	return middleware.GinAuthMiddleware(e.Authenticator, opt)
}

// RegisterRoutes 在路由组上注册全部接口。
// limiter 可以为空；内部事件接口只在配置了 InternalToken 时注册。
func (e *NotifyEngine) RegisterRoutes(g *gin.RouterGroup, limiter *middleware.RateLimiter) {
	if token := e.config.InternalToken; token != "" {
		internal := g.Group("", internalAuth(token))
		internal.POST("/notification/events", e.GinHandleCreateEvent)
		internal.POST("/user/sync", e.GinHandleSyncUser)
		internal.POST("/user/token", e.GinHandleIssueToken)
	}

	auth := g.Group("", e.GinAuthMiddleware(nil))
	if limiter != nil {
		auth.Use(limiter.Middleware())
	}

	auth.POST("/user/logout", e.GinHandleLogout)

	n := auth.Group("/notification")
	n.GET("/list", e.GinHandleListNotifications)
	n.GET("/unread", e.GinHandleUnreadNotifications)
	n.GET("/unread/count", e.GinHandleUnreadCount)
	n.POST("/:id/read", e.GinHandleMarkNotificationRead)
	n.POST("/read-all", e.GinHandleMarkAllNotificationsRead)
	n.GET("/stream", e.GinHandleNotificationStream)
	n.GET("/ws", e.GinHandleNotificationWS)

	ch := auth.Group("/chat/:channel")
	ch.POST("/messages", e.GinHandleSendChatMessage)
	ch.GET("/messages", e.GinHandleListChatMessages)
	ch.GET("/ws", e.GinHandleChatWS)
}
