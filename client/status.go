package client

// Status 订阅连接状态
type Status int

const (
	StatusIdle       Status = iota // 未连接
	StatusConnecting               // 正在建立连接
	StatusPending                  // 已订阅，等待推送
	StatusError                    // 连接出错，等待重试
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusConnecting:
		return "connecting"
	case StatusPending:
		return "pending"
	case StatusError:
		return "error"
	default:
		return "unknown"
	}
}

// Event 驱动状态变化的事件
type Event int

const (
	EventConnect  Event = iota // 调用方发起连接
	EventOpened                // 服务端确认订阅（包括传输层自己重连成功）
	EventFailed                // 传输出错
	EventRetry                 // 调用方手动重试
	EventTeardown              // 断开 / ctx 结束
)

func (e Event) String() string {
	switch e {
	case EventConnect:
		return "connect"
	case EventOpened:
		return "opened"
	case EventFailed:
		return "failed"
	case EventRetry:
		return "retry"
	case EventTeardown:
		return "teardown"
	default:
		return "unknown"
	}
}

// Transition 状态转移。ok=false 表示该事件在当前状态下不允许。
//
//	idle -> connecting -> pending <-> error
//	error -> connecting 只能通过 Retry
//	任意状态 -> idle（teardown）
func Transition(s Status, e Event) (Status, bool) {
	if e == EventTeardown {
		return StatusIdle, true
	}
	switch s {
	case StatusIdle:
		if e == EventConnect {
			return StatusConnecting, true
		}
	case StatusConnecting:
		switch e {
		case EventOpened:
			return StatusPending, true
		case EventFailed:
			return StatusError, true
		}
	case StatusPending:
		switch e {
		case EventOpened:
			return StatusPending, true
		case EventFailed:
			return StatusError, true
		}
	case StatusError:
		switch e {
		case EventRetry:
			return StatusConnecting, true
		case EventOpened:
			return StatusPending, true
		case EventFailed:
			return StatusError, true
		}
	}
	return s, false
}
