// Package apperr defines the error taxonomy shared by services and transports.
//
// Services return errors wrapping one of the kind sentinels below; callers classify
// them with errors.Is and never inspect storage errors directly.
package apperr

import (
	"errors"
	"fmt"
	"net/http"

	"gorm.io/gorm"
)

var (
	ErrNotFound         = errors.New("not found")
	ErrConflict         = errors.New("conflict")
	ErrForbidden        = errors.New("forbidden")
	ErrInvalidOperation = errors.New("invalid operation")
	ErrUnavailable      = errors.New("unavailable")
)

// New 构造一个归属于 kind 的领域错误
func New(kind error, msg string) error {
	return fmt.Errorf("%w: %s", kind, msg)
}

// FromStorage 将存储层错误归类到错误分类中，原始错误保留在链上用于日志
func FromStorage(err error) error {
	if err == nil {
		return nil
	}
	if IsKnown(err) {
		return err
	}
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("%w: %w", ErrConflict, err)
	default:
		// 超时、取消与驱动错误统一视为不可用
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
}

// IsKnown 判断错误是否已归类
func IsKnown(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrConflict) ||
		errors.Is(err, ErrForbidden) ||
		errors.Is(err, ErrInvalidOperation) ||
		errors.Is(err, ErrUnavailable)
}

// HTTPStatus maps an error to a status code and a stable machine-readable code.
func HTTPStatus(err error) (int, string) {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound, "NOT_FOUND"
	case errors.Is(err, ErrConflict):
		return http.StatusConflict, "CONFLICT"
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden, "FORBIDDEN"
	case errors.Is(err, ErrInvalidOperation):
		return http.StatusBadRequest, "INVALID_OPERATION"
	case errors.Is(err, ErrUnavailable):
		return http.StatusServiceUnavailable, "UNAVAILABLE"
	default:
		return http.StatusInternalServerError, "INTERNAL"
	}
}
