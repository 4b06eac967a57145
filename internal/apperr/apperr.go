package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// 错误码
const (
	CodeUnauthenticated = "unauthenticated"
	CodeNotFound        = "not_found"
	CodeValidation      = "validation"
	CodeConflict        = "conflict"
	CodeUpstream        = "upstream"
)

// Error 携带 HTTP 状态的业务错误
type Error struct {
	Status  int
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Message != "" && e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return fmt.Sprintf("api error (%d)", e.Status)
}

func (e *Error) Unwrap() error { return e.Err }

// Is 按 Status+Code 比较，便于 errors.Is 匹配哨兵错误
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Status == t.Status && e.Code == t.Code && e.Message == t.Message
}

func New(status int, code, message string) *Error {
	return &Error{Status: status, Code: code, Message: message}
}

func Wrap(status int, code, message string, err error) *Error {
	return &Error{Status: status, Code: code, Message: message, Err: err}
}

func Unauthenticated(message string) *Error {
	return New(http.StatusUnauthorized, CodeUnauthenticated, message)
}

func NotFound(message string) *Error {
	return New(http.StatusNotFound, CodeNotFound, message)
}

func Validation(message string) *Error {
	return New(http.StatusBadRequest, CodeValidation, message)
}

func Validationf(format string, args ...any) *Error {
	return New(http.StatusBadRequest, CodeValidation, fmt.Sprintf(format, args...))
}

func Conflict(message string) *Error {
	return New(http.StatusConflict, CodeConflict, message)
}

// Upstream 依赖服务（LLM、存储等）不可用
func Upstream(message string, err error) *Error {
	return Wrap(http.StatusInternalServerError, CodeUpstream, message, err)
}

// StatusOf 返回错误对应的 HTTP 状态，非业务错误一律视为 500
func StatusOf(err error) int {
	var e *Error
	if errors.As(err, &e) && e.Status != 0 {
		return e.Status
	}
	return http.StatusInternalServerError
}

// MessageOf 返回可以暴露给客户端的错误信息
func MessageOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		if e.Message != "" {
			return e.Message
		}
		if e.Code != "" {
			return e.Code
		}
	}
	return "Internal server error"
}
