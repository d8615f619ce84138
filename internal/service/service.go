package service

import (
	"encoding/json"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/datatypes"

	"github.com/d60-Lab/fitsocial/internal/model"
	"github.com/d60-Lab/fitsocial/pkg/apperr"
)

var tracer = otel.Tracer("github.com/d60-Lab/fitsocial/internal/service")

var (
	ErrInvalidParent = apperr.New(apperr.ErrInvalidOperation, "invalid parent reference")
	ErrEmptyID       = apperr.New(apperr.ErrInvalidOperation, "id must not be empty")
)

// fail 归类错误并记录到 span
func fail(span trace.Span, err error) error {
	err = apperr.FromStorage(err)
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}

func jsonPayload(v any) (datatypes.JSON, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode payload: %w", err)
	}
	return datatypes.JSON(b), nil
}

func validParent(parent model.ParentRef, allowed func(model.ParentType) bool) error {
	if parent.ID == "" || !allowed(parent.Type) {
		return ErrInvalidParent
	}
	return nil
}

// notFoundAs 将 NotFound 替换为更具体的领域错误
func notFoundAs(err, target error) error {
	if errors.Is(err, apperr.ErrNotFound) {
		return target
	}
	return err
}
