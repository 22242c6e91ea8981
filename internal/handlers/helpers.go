package handlers

import (
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	apperrors "cashbook/internal/errors"
	"cashbook/internal/logger"
	"cashbook/internal/services"
)

const dateOnlyLayout = "2006-01-02"

// getUserID extracts the authenticated identity from the Gin context.
// Returns ErrUnauthorized if not present.
func getUserID(c *gin.Context) (string, error) {
	userID := c.GetString("userID")
	if userID == "" {
		return "", apperrors.ErrUnauthorized
	}
	return userID, nil
}

// respondWithError writes a consistent JSON error response. If the error is an
// *AppError it uses the error's status code, code, message and details.
// Otherwise it logs the unexpected error and returns a generic internal server error.
func respondWithError(c *gin.Context, err error) {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		if appErr.Internal != nil {
			logger.Get().Errorw("app error",
				"code", appErr.Code,
				"internal", appErr.Internal.Error(),
				"path", c.Request.URL.Path,
			)
		}
		c.JSON(appErr.StatusCode, ErrorResponse{Error: ErrorDetail{
			Code:    appErr.Code,
			Message: appErr.Message,
			Details: appErr.Details,
		}})
		return
	}

	logger.Get().Errorw("unexpected error",
		"error", err.Error(),
		"path", c.Request.URL.Path,
		"method", c.Request.Method,
	)
	c.JSON(apperrors.ErrInternalServer.StatusCode, ErrorResponse{Error: ErrorDetail{
		Code:    apperrors.ErrInternalServer.Code,
		Message: apperrors.ErrInternalServer.Message,
	}})
}

// bindJSON decodes the request body into req. Binding-tag failures become a
// VALIDATION_FAILED error listing every field; malformed JSON is INVALID_INPUT.
func bindJSON(c *gin.Context, req any) error {
	err := c.ShouldBindJSON(req)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) {
		violations := make([]apperrors.Violation, 0, len(fieldErrs))
		for _, fe := range fieldErrs {
			violations = append(violations, apperrors.Violation{
				Field:   fe.Field(),
				Message: fe.Field() + " failed the " + fe.Tag() + " rule",
			})
		}
		return apperrors.NewValidationError(violations)
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		return apperrors.NewValidationError([]apperrors.Violation{{
			Field:   typeErr.Field,
			Message: typeErr.Field + " has the wrong type",
		}})
	}
	return apperrors.WithMessage(apperrors.ErrInvalidInput, "request body is not valid JSON")
}

// bindQuery decodes query parameters into req. Out-of-range and non-numeric
// values become a VALIDATION_FAILED error naming the parameter.
func bindQuery(c *gin.Context, req any) error {
	err := c.ShouldBindQuery(req)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) {
		violations := make([]apperrors.Violation, 0, len(fieldErrs))
		for _, fe := range fieldErrs {
			violations = append(violations, apperrors.Violation{
				Field:   fe.Field(),
				Message: boundMessage(fe),
			})
		}
		return apperrors.NewValidationError(violations)
	}

	var numErr *strconv.NumError
	if errors.As(err, &numErr) {
		for name, values := range c.Request.URL.Query() {
			for _, v := range values {
				if v == numErr.Num {
					return invalidField(name, name+" must be a whole number")
				}
			}
		}
	}
	return invalidField("query", "query parameters are malformed")
}

func boundMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "min":
		return fe.Field() + " must be at least " + fe.Param()
	case "max":
		return fe.Field() + " must be at most " + fe.Param()
	}
	return fe.Field() + " failed the " + fe.Tag() + " rule"
}

// parseDate accepts YYYY-MM-DD, interpreted in loc, or RFC 3339. With
// endOfDay a date-only value covers the whole day.
func parseDate(value string, loc *time.Location, endOfDay bool) (time.Time, error) {
	value = strings.TrimSpace(value)
	if t, err := time.ParseInLocation(dateOnlyLayout, value, loc); err == nil {
		if endOfDay {
			t = t.AddDate(0, 0, 1).Add(-time.Nanosecond)
		}
		return t, nil
	}
	return time.Parse(time.RFC3339, value)
}

// fieldErrors collects request fields that could not be decoded so they can
// be reported together with the domain rule violations.
type fieldErrors []apperrors.Violation

func (f *fieldErrors) add(field, message string) {
	*f = append(*f, apperrors.Violation{Field: field, Message: message})
}

// date parses value, recording a violation on field when it is malformed. A
// blank value yields the zero time.
func (f *fieldErrors) date(field, value string, loc *time.Location) time.Time {
	if strings.TrimSpace(value) == "" {
		return time.Time{}
	}
	t, err := parseDate(value, loc, false)
	if err != nil {
		f.add(field, field+" must be YYYY-MM-DD or RFC 3339")
		return time.Time{}
	}
	return t
}

// decimal decodes a JSON number or numeric string. Absent and null values
// yield nil.
func (f *fieldErrors) decimal(field string, raw json.RawMessage) *decimal.Decimal {
	text := strings.TrimSpace(string(raw))
	if text == "" || text == "null" {
		return nil
	}
	if strings.HasPrefix(text, `"`) {
		var unquoted string
		if err := json.Unmarshal(raw, &unquoted); err == nil {
			text = strings.TrimSpace(unquoted)
		}
	}
	d, err := decimal.NewFromString(text)
	if err != nil {
		f.add(field, field+" must be a number")
		return nil
	}
	return &d
}

// invalidField builds a single-violation VALIDATION_FAILED error.
func invalidField(field, message string) error {
	return apperrors.NewValidationError([]apperrors.Violation{{Field: field, Message: message}})
}

// enumQuery reads an optional enum query parameter, rejecting unknown values.
func enumQuery[T ~string](c *gin.Context, name string, valid func(T) bool) (*T, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return nil, nil
	}
	v := T(strings.ToLower(raw))
	if !valid(v) {
		return nil, invalidField(name, name+" has an unknown value: "+raw)
	}
	return &v, nil
}

func decimalQuery(c *gin.Context, name string) (*decimal.Decimal, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return nil, invalidField(name, name+" must be a number")
	}
	return &d, nil
}

func boolQuery(c *gin.Context, name string) (bool, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return false, invalidField(name, name+" must be true or false")
	}
	return b, nil
}

func auditEvent(c *gin.Context, userID, action, resourceType, resourceID string, changes map[string]any) services.AuditEvent {
	return services.AuditEvent{
		UserID:       userID,
		Action:       action,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		IPAddress:    c.ClientIP(),
		Changes:      changes,
	}
}

// ErrorDetail represents the inner error object in an error response.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// MessageResponse represents a simple message response
type MessageResponse struct {
	Message string `json:"message"`
}
