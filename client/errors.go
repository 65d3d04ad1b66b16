package client

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strings"

	"github.com/cydxin/notify-sdk/message"
)

// TransportError 订阅传输层错误
type TransportError struct {
	Code    string
	Message string
}

func (e *TransportError) Error() string {
	if e.Code == "" {
		return e.Message
	}
	return fmt.Sprintf("%s (code %s)", e.Message, e.Code)
}

// Class 错误分类
type Class int

const (
	ClassUnknown        Class = iota
	ClassTransient            // 超时，自动重试
	ClassSessionExpired       // 会话过期，需要重新登录
	ClassServerFault          // 服务端错误
)

func (c Class) String() string {
	switch c {
	case ClassTransient:
		return "transient"
	case ClassSessionExpired:
		return "session_expired"
	case ClassServerFault:
		return "server_fault"
	default:
		return "unknown"
	}
}

// Classification 分类结果和提示文案
type Classification struct {
	Class  Class
	Banner string
}

const (
	BannerTimeout        = "Connection timed out. Retrying..."
	BannerSessionExpired = "Session expired. Please refresh the page."
	BannerServerFault    = "Server error occurred. Please try again later."
)

// Classify 按 message / code 给错误分类
func Classify(e *TransportError) Classification {
	if e == nil {
		return Classification{Class: ClassUnknown}
	}
	switch {
	case strings.Contains(e.Message, message.CodeTimeout):
		return Classification{Class: ClassTransient, Banner: BannerTimeout}
	case strings.Contains(e.Message, message.CodeUnauthorized):
		return Classification{Class: ClassSessionExpired, Banner: BannerSessionExpired}
	case e.Code == message.CodeInternalServerError:
		return Classification{Class: ClassServerFault, Banner: BannerServerFault}
	default:
		return Classification{
			Class:  ClassUnknown,
			Banner: fmt.Sprintf("Connection error: %s, Code: %s", e.Message, e.Code),
		}
	}
}

// asTransportError 把底层错误统一成 TransportError
func asTransportError(err error) *TransportError {
	if err == nil {
		return nil
	}
	var te *TransportError
	if errors.As(err, &te) {
		return te
	}
	var ne net.Error
	if errors.Is(err, os.ErrDeadlineExceeded) || (errors.As(err, &ne) && ne.Timeout()) {
		return &TransportError{Code: message.CodeTimeout, Message: message.CodeTimeout + ": " + err.Error()}
	}
	return &TransportError{Message: err.Error()}
}
