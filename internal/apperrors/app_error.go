// Package apperrors описывает доменные ошибки сервиса
package apperrors

import (
	"errors"
	"fmt"
)

const (
	// CodeInvalidArgument аргумент вне допустимого диапазона
	CodeInvalidArgument = "INVALID_ARGUMENT"
	// CodeModelUnavailable модель не загружена
	CodeModelUnavailable = "MODEL_UNAVAILABLE"
)

// AppError доменная ошибка с кодом
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithCause добавляет исходную ошибку
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// NewInvalidArgument создает ошибку неверного аргумента
func NewInvalidArgument(message string) *AppError {
	return &AppError{Code: CodeInvalidArgument, Message: message}
}

// NewModelUnavailable создает ошибку отсутствующей модели
func NewModelUnavailable(message string) *AppError {
	return &AppError{Code: CodeModelUnavailable, Message: message}
}

// HasCode проверяет код ошибки в цепочке
func HasCode(err error, code string) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}

// IsInvalidArgument сообщает, что ошибка вызвана неверным аргументом
func IsInvalidArgument(err error) bool {
	return HasCode(err, CodeInvalidArgument)
}

// IsModelUnavailable сообщает, что модель недоступна
func IsModelUnavailable(err error) bool {
	return HasCode(err, CodeModelUnavailable)
}
