// Package errors 提供统一的错误定义
package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// ErrorCode 错误码类型
type ErrorCode string

// 预定义错误码，与 /api/data 对外契约中的 error 字段保持一致
const (
	CodeBadRequest       ErrorCode = "BAD_REQUEST"
	CodeNotFound         ErrorCode = "NOT_FOUND"
	CodeMethodNotAllowed ErrorCode = "METHOD_NOT_ALLOWED"
	CodeValidationFailed ErrorCode = "VALIDATION_FAILED"
	CodeLockHeld         ErrorCode = "LOCK_HELD"
	CodeWriteFailed      ErrorCode = "WRITE_FAILED"
	CodeReadFailed       ErrorCode = "READ_FAILED"
	CodeInternalError    ErrorCode = "INTERNAL_ERROR"
	CodeUnavailable      ErrorCode = "UNAVAILABLE"
	CodeRateLimited      ErrorCode = "RATE_LIMITED"
	CodeUnknown          ErrorCode = "UNKNOWN"
)

// AppError 应用错误
type AppError struct {
	Code       ErrorCode `json:"error"`
	Message    string    `json:"message"`
	Detail     string    `json:"details,omitempty"`
	HTTPStatus int       `json:"-"`
	Err        error     `json:"-"`
}

// Error 实现 error 接口
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	if e.Detail != "" {
		return fmt.Sprintf("[%s] %s: %s", e.Code, e.Message, e.Detail)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap 返回底层错误
func (e *AppError) Unwrap() error {
	return e.Err
}

// Is 按错误码比较，便于 errors.Is(err, ErrNotFound)
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// WithDetail 返回附带详细信息的副本
func (e *AppError) WithDetail(detail string) *AppError {
	cp := *e
	cp.Detail = detail
	return &cp
}

// WithError 返回附带底层错误的副本
func (e *AppError) WithError(err error) *AppError {
	cp := *e
	cp.Err = err
	return &cp
}

// New 创建新的应用错误
func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: codeToHTTPStatus(code),
	}
}

// Wrap 包装错误
func Wrap(err error, code ErrorCode, message string) *AppError {
	appErr := &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: codeToHTTPStatus(code),
		Err:        err,
	}
	if err != nil {
		appErr.Detail = err.Error()
	}
	return appErr
}

// codeToHTTPStatus 错误码转 HTTP 状态码
func codeToHTTPStatus(code ErrorCode) int {
	switch code {
	case CodeBadRequest, CodeValidationFailed:
		return http.StatusBadRequest
	case CodeNotFound:
		return http.StatusNotFound
	case CodeMethodNotAllowed:
		return http.StatusMethodNotAllowed
	case CodeLockHeld:
		return http.StatusConflict
	case CodeUnavailable:
		return http.StatusServiceUnavailable
	case CodeRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// 预定义错误
var (
	ErrBadRequest       = New(CodeBadRequest, "bad request")
	ErrNotFound         = New(CodeNotFound, "resource not found")
	ErrValidationFailed = New(CodeValidationFailed, "validation failed")
	ErrLockHeld         = New(CodeLockHeld, "data file is locked by another writer")
	ErrWriteFailed      = New(CodeWriteFailed, "failed to write data")
	ErrInternalError    = New(CodeInternalError, "internal server error")
	ErrUnavailable      = New(CodeUnavailable, "service unavailable")
	ErrRateLimited      = New(CodeRateLimited, "too many writes, slow down")
)

// IsAppError 检查错误链中是否含有 AppError
func IsAppError(err error) bool {
	var appErr *AppError
	return stderrors.As(err, &appErr)
}

// AsAppError 将错误转换为 AppError
func AsAppError(err error) *AppError {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr
	}
	return Wrap(err, CodeUnknown, "unknown error")
}
