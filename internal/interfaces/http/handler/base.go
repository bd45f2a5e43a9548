// Package handler holds the gin handlers of the dues API.
package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/TomasTM302/ARC-entregable-sub001/internal/domain/shared"
	"github.com/TomasTM302/ARC-entregable-sub001/internal/infrastructure/logger"
	"github.com/TomasTM302/ARC-entregable-sub001/internal/interfaces/http/dto"
	"github.com/TomasTM302/ARC-entregable-sub001/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

func init() {
	// Validation messages name fields as they appear on the wire
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterTagNameFunc(wireName)
	}
}

func wireName(f reflect.StructField) string {
	for _, tag := range []string{"json", "form"} {
		name, _, _ := strings.Cut(f.Tag.Get(tag), ",")
		if name != "" && name != "-" {
			return name
		}
	}
	return f.Name
}

// BaseHandler provides common handler utilities
type BaseHandler struct {
	// Location is where calendar dates in requests are interpreted
	Location *time.Location
}

func getRequestID(c *gin.Context) string {
	return c.GetString(middleware.RequestIDKey)
}

// Success sends a success response
func (h *BaseHandler) Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(data))
}

// Created sends a 201 created response
func (h *BaseHandler) Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, dto.NewSuccessResponse(data))
}

// Page sends one page of a listing with its pagination meta
func Page[T any](c *gin.Context, p shared.Paginated[T]) {
	c.JSON(http.StatusOK, dto.NewSuccessResponseWithMeta(p.Items, p.Total, p.Page, p.PageSize))
}

// Error sends an error response, deriving the status from the code
func (h *BaseHandler) Error(c *gin.Context, code, message string) {
	c.JSON(dto.GetHTTPStatus(code), dto.NewErrorResponse(code, message, getRequestID(c)))
}

// HandleError converts an error into a response. Domain errors keep their
// code and message, except storage failures whose cause is only logged.
func (h *BaseHandler) HandleError(c *gin.Context, err error) {
	if err == nil {
		return
	}

	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		if domainErr.Code == shared.CodeStorageFailure {
			logger.GetGinLogger(c).Error("Storage failure", zap.Error(err))
		}
		h.Error(c, domainErr.Code, domainErr.Message)
		return
	}

	logger.GetGinLogger(c).Error("Unhandled error", zap.Error(err))
	h.Error(c, dto.ErrCodeInternal, "An unexpected error occurred")
}

// BindJSON decodes and validates the body. It writes the error response and
// returns false on failure.
func (h *BaseHandler) BindJSON(c *gin.Context, obj any) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		h.Error(c, shared.CodeInvalidArgument, bindingMessage(err))
		return false
	}
	return true
}

// BindQuery decodes and validates query parameters
func (h *BaseHandler) BindQuery(c *gin.Context, obj any) bool {
	if err := c.ShouldBindQuery(obj); err != nil {
		h.Error(c, shared.CodeInvalidArgument, bindingMessage(err))
		return false
	}
	return true
}

// ParamUUID parses a uuid path parameter
func (h *BaseHandler) ParamUUID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		h.Error(c, shared.CodeInvalidArgument, fmt.Sprintf("%s must be a valid UUID", name))
		return uuid.Nil, false
	}
	return id, true
}

// ParseDate reads a YYYY-MM-DD date as midnight in the billing location.
// Empty input gives the zero time.
func (h *BaseHandler) ParseDate(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	loc := h.Location
	if loc == nil {
		loc = time.UTC
	}
	t, err := time.ParseInLocation(dto.DateLayout, value, loc)
	if err != nil {
		return time.Time{}, shared.InvalidArgument("date %q must use the YYYY-MM-DD format", value)
	}
	return t, nil
}

// parseOptionalUUID parses an optional uuid that binding already validated
func parseOptionalUUID(value string) *uuid.UUID {
	if value == "" {
		return nil
	}
	id, err := uuid.Parse(value)
	if err != nil {
		return nil
	}
	return &id
}

// callerResident resolves which resident a request acts for. Admins name the
// resident explicitly; residents act for themselves and may only name
// themselves.
func (h *BaseHandler) callerResident(c *gin.Context, requested string, required bool) (*uuid.UUID, error) {
	if middleware.IsAdmin(c) {
		id := parseOptionalUUID(requested)
		if id == nil && required {
			return nil, shared.InvalidArgument("resident_id is required")
		}
		return id, nil
	}
	self, ok := middleware.GetResidentID(c)
	if !ok {
		return nil, shared.ErrUnauthorized
	}
	if requested != "" && requested != self.String() {
		return nil, shared.NewDomainError(shared.CodeForbidden, "residents may only act on their own account")
	}
	return &self, nil
}

// ensureOwner rejects residents reading another resident's records
func ensureOwner(c *gin.Context, owner uuid.UUID) error {
	if middleware.IsAdmin(c) {
		return nil
	}
	self, ok := middleware.GetResidentID(c)
	if !ok {
		return shared.ErrUnauthorized
	}
	if self != owner {
		return shared.NewDomainError(shared.CodeForbidden, "residents may only act on their own account")
	}
	return nil
}

// bindingMessage turns decoding and validator errors into a short message
func bindingMessage(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		parts := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			parts = append(parts, fieldMessage(fe))
		}
		return strings.Join(parts, "; ")
	}
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	switch {
	case errors.Is(err, io.EOF):
		return "request body is required"
	case errors.Is(err, io.ErrUnexpectedEOF), errors.As(err, &syntaxErr):
		return "request body is not valid JSON"
	case errors.As(err, &typeErr):
		return fmt.Sprintf("field %s has the wrong type", typeErr.Field)
	}
	return "invalid request: " + err.Error()
}

func fieldMessage(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "uuid":
		return field + " must be a valid UUID"
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]", field, fe.Param())
	case "min":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "datetime":
		return field + " must use the YYYY-MM-DD format"
	default:
		return fmt.Sprintf("%s failed the %s check", field, fe.Tag())
	}
}
