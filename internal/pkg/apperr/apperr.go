// Package apperr 定义了跨服务共享的错误类别。
// 领域层的哨兵错误通过 New 绑定到某个类别上，接口层只需要用 errors.Is 判断类别即可映射 HTTP 状态码。
package apperr

import "errors"

// 错误类别
var (
	ErrUnauthorized      = errors.New("unauthorized")
	ErrForbidden         = errors.New("forbidden")
	ErrNotFound          = errors.New("not found")
	ErrInvalidTransition = errors.New("invalid transition")
	ErrValidation        = errors.New("validation error")
)

// Error 是一个带机器可读 code 的业务错误，Unwrap 返回其类别。
type Error struct {
	kind error
	code string
	msg  string
}

// New 创建一个归属于 kind 的业务错误。
func New(kind error, code, msg string) *Error {
	return &Error{kind: kind, code: code, msg: msg}
}

func (e *Error) Error() string { return e.msg }

func (e *Error) Unwrap() error { return e.kind }

// Code 返回错误码，例如 "state_changed"。
func (e *Error) Code() string { return e.code }

// Kind 返回错误类别。
func (e *Error) Kind() error { return e.kind }

// Validation 是构造一次性校验错误的快捷方式。
func Validation(code, msg string) *Error { return New(ErrValidation, code, msg) }

// CodeOf 沿错误链查找 *Error 并返回其 code；找不到时按类别给出默认值。
func CodeOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.code
	}
	switch {
	case errors.Is(err, ErrUnauthorized):
		return "unauthorized"
	case errors.Is(err, ErrForbidden):
		return "forbidden"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrInvalidTransition):
		return "invalid_transition"
	case errors.Is(err, ErrValidation):
		return "validation_error"
	}
	return "internal_error"
}
