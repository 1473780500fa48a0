// Package errorx 带错误码的错误类型
package errorx

import (
	"errors"
	"fmt"

	"usageforecast/infra/errorx/errCode"
)

type Error struct {
	Code errCode.Code
	Msg  string
	err  error // 被包装的底层错误
}

func New(code errCode.Code, msg string) *Error {
	return &Error{Code: code, Msg: msg}
}

// Wrap 保留底层错误，errors.Is/As 可继续向下匹配
func Wrap(code errCode.Code, msg string, err error) *Error {
	return &Error{Code: code, Msg: msg, err: err}
}

func (e *Error) Error() string {
	if e.err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Msg, e.err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Msg)
}

func (e *Error) Unwrap() error {
	return e.err
}

// Is 判断错误链中是否存在指定错误码
func Is(err error, code errCode.Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// CodeOf 取错误码，非 errorx 错误返回 INTERNAL
func CodeOf(err error) errCode.Code {
	if err == nil {
		return errCode.OK
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return errCode.INTERNAL
}
