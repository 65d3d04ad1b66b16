package notify_sdk

import (
	"github.com/go-redis/redis/v8"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/cydxin/notify-sdk/bus"
	"github.com/cydxin/notify-sdk/service"
)

type ServiceConfig struct {
	Debug bool
	// MaxAncestorDepth 评论链向上查找的最大层数，0 使用默认值
	MaxAncestorDepth int
}

// RelayConfig 跨实例同步（需要 RDB）
type RelayConfig struct {
	Enabled bool
	Channel string
}

type Config struct {
	DB          *gorm.DB
	RDB         *redis.Client
	TablePrefix string
	Service     ServiceConfig

	// AutoMigrate 创建引擎时迁移表，默认开启
	AutoMigrate bool
	// LegacyTablePrefix 非空时，迁移前先把旧前缀的表改名为 TablePrefix
	LegacyTablePrefix string

	// Authenticator 为空时：有 RDB 用 redis token，否则 HTTP/WS 接口不可用
	Authenticator service.Authenticator

	// InternalToken 内部事件接口 POST /notification/events 的共享密钥，为空时不注册该接口
	InternalToken string

	BusOptions []bus.Option
	Relay      RelayConfig
	Tracer     trace.Tracer
}

type Option func(*Config)

func WithDB(db *gorm.DB) Option {
	return func(c *Config) {
		c.DB = db
	}
}

func WithTablePrefix(prefix string) Option {
	return func(c *Config) {
		c.TablePrefix = prefix
	}
}

func WithRDB(RDB *redis.Client) Option {
	return func(c *Config) {
		c.RDB = RDB
	}
}

func WithServiceDebug(debug bool) Option {
	return func(c *Config) {
		c.Service.Debug = debug
	}
}

// WithMaxAncestorDepth 评论回复链最大深度（防止环和超长链）
func WithMaxAncestorDepth(n int) Option {
	return func(c *Config) {
		c.Service.MaxAncestorDepth = n
	}
}

func WithAutoMigrate(on bool) Option {
	return func(c *Config) {
		c.AutoMigrate = on
	}
}

// WithLegacyTablePrefix 升级表前缀（旧表改名），在 AutoMigrate 之前执行
func WithLegacyTablePrefix(old string) Option {
	return func(c *Config) {
		c.LegacyTablePrefix = old
	}
}

// WithAuthenticator 自定义鉴权（例如 service.NewJWTAuthenticator）
func WithAuthenticator(a service.Authenticator) Option {
	return func(c *Config) {
		c.Authenticator = a
	}
}

func WithInternalToken(token string) Option {
	return func(c *Config) {
		c.InternalToken = token
	}
}

// WithBusOptions 总线监听者上限、订阅缓冲区大小
func WithBusOptions(opts ...bus.Option) Option {
	return func(c *Config) {
		c.BusOptions = append(c.BusOptions, opts...)
	}
}

// WithRelay 开启 redis 跨实例同步，channel 为空使用默认频道
func WithRelay(channel string) Option {
	return func(c *Config) {
		c.Relay = RelayConfig{Enabled: true, Channel: channel}
	}
}

func WithTracer(t trace.Tracer) Option {
	return func(c *Config) {
		c.Tracer = t
	}
}
