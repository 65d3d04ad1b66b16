package service

import (
	"errors"
	"fmt"

	"github.com/cydxin/notify-sdk/cons"
	"github.com/cydxin/notify-sdk/repository"
)

var (
	// ErrNotFound 记录不存在
	ErrNotFound = repository.ErrNotFound
	// ErrForbidden 操作不属于自己的数据
	ErrForbidden = errors.New("forbidden")
)

// ValidationError 入参不合法，不会触发任何查询或写入
type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Msg
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Msg)
}

// ConfigurationError 事件类型没有接线工厂
type ConfigurationError struct {
	Kind cons.EventKind
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("no notification factory configured for %q", e.Kind.String())
}

func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

func IsConfiguration(err error) bool {
	var c *ConfigurationError
	return errors.As(err, &c)
}
