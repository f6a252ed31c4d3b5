// Package apperr 定义业务错误分类，供 logic 层返回、handler 层映射为 HTTP 状态码。
package apperr

import (
	"errors"
	"fmt"
)

// Kind 错误类别
type Kind int

const (
	KindUnknown           Kind = iota
	KindValidation             // 输入不合法
	KindInvalidState           // 实体当前状态下操作不合法
	KindInvalidTransition      // 状态机迁移不合法
	KindConflict               // 并发修改导致前置条件失效
	KindForbidden              // 无权访问
	KindNotFound               // 资源不存在
	KindUpstream               // 存储或下游依赖不可用
	KindInvariant              // 内部一致性校验失败，属于程序缺陷
)

// Error 携带类别的业务错误
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is 支持 errors.Is 按类别匹配
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// 类别哨兵，仅用于 errors.Is 匹配
var (
	ErrValidation        = &Error{Kind: KindValidation}
	ErrInvalidState      = &Error{Kind: KindInvalidState}
	ErrInvalidTransition = &Error{Kind: KindInvalidTransition}
	ErrConflict          = &Error{Kind: KindConflict}
	ErrForbidden         = &Error{Kind: KindForbidden}
	ErrNotFound          = &Error{Kind: KindNotFound}
	ErrUpstream          = &Error{Kind: KindUpstream}
	ErrInvariant         = &Error{Kind: KindInvariant}
)

// Validation 创建输入校验错误
func Validation(format string, args ...interface{}) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

// InvalidState 创建状态不合法错误
func InvalidState(format string, args ...interface{}) *Error {
	return &Error{Kind: KindInvalidState, Message: fmt.Sprintf(format, args...)}
}

// InvalidTransition 创建状态机迁移错误
func InvalidTransition(format string, args ...interface{}) *Error {
	return &Error{Kind: KindInvalidTransition, Message: fmt.Sprintf(format, args...)}
}

// Conflict 创建并发冲突错误
func Conflict(format string, args ...interface{}) *Error {
	return &Error{Kind: KindConflict, Message: fmt.Sprintf(format, args...)}
}

// Forbidden 创建无权访问错误
func Forbidden(format string, args ...interface{}) *Error {
	return &Error{Kind: KindForbidden, Message: fmt.Sprintf(format, args...)}
}

// NotFound 创建资源不存在错误
func NotFound(format string, args ...interface{}) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

// Upstream 包装下游依赖错误
func Upstream(err error, format string, args ...interface{}) *Error {
	return &Error{Kind: KindUpstream, Message: fmt.Sprintf(format, args...), Err: err}
}

// Invariant 创建内部一致性错误
func Invariant(format string, args ...interface{}) *Error {
	return &Error{Kind: KindInvariant, Message: fmt.Sprintf(format, args...)}
}

// KindOf 提取错误类别，非业务错误返回 KindUnknown
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}
