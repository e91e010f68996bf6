package middleware

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	apierrors "salesdash/internal/errors"
)

// NewValidator returns a validator that knows the dashboard's custom tags
// and reports fields by their JSON names.
func NewValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("yearmonth", isYearMonth)
	_ = v.RegisterValidation("itemcode", isItemCode)
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// ValidationMiddleware validates decoded requests against struct tags.
type ValidationMiddleware struct {
	validator   *validator.Validate
	logger      *slog.Logger
	maxBodySize int64
}

// NewValidationMiddleware creates a new validation middleware
func NewValidationMiddleware(logger *slog.Logger) *ValidationMiddleware {
	if logger == nil {
		logger = slog.Default()
	}
	return &ValidationMiddleware{
		validator:   NewValidator(),
		logger:      logger.With(slog.String("component", "validation_middleware")),
		maxBodySize: 1 << 20,
	}
}

// LimitBody caps request bodies. Handlers see a read error past the limit.
func (m *ValidationMiddleware) LimitBody(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Body != nil {
			r.Body = http.MaxBytesReader(w, r.Body, m.maxBodySize)
		}
		next.ServeHTTP(w, r)
	})
}

// ValidateStruct validates v and returns an APIError listing every failed field.
func (m *ValidationMiddleware) ValidateStruct(v interface{}) error {
	err := m.validator.Struct(v)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return apierrors.InvalidRequestWithError(err)
	}

	out := make([]apierrors.ValidationError, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		out = append(out, apierrors.ValidationError{
			Field:   fe.Field(),
			Message: formatValidationError(fe),
		})
	}
	m.logger.Debug("request validation failed", slog.Int("fields", len(out)))
	return apierrors.NewValidationErrors(out)
}

func formatValidationError(err validator.FieldError) string {
	field := err.Field()
	param := err.Param()

	switch err.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, param)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, strings.ReplaceAll(param, " ", ", "))
	case "yearmonth":
		return fmt.Sprintf("%s must be a month in YYYY-MM form", field)
	case "itemcode":
		return fmt.Sprintf("%s must be a valid item code", field)
	case "gte":
		return fmt.Sprintf("%s must be greater than or equal to %s", field, param)
	case "lte":
		return fmt.Sprintf("%s must be less than or equal to %s", field, param)
	default:
		return fmt.Sprintf("%s failed %s validation", field, err.Tag())
	}
}

func isYearMonth(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	if len(s) != 7 {
		return false
	}
	_, err := time.Parse("2006-01", s)
	return err == nil
}

// Item codes end up in image URLs, so path separators are rejected.
func isItemCode(fl validator.FieldLevel) bool {
	code := fl.Field().String()
	if code == "" || len(code) > 128 {
		return false
	}
	return !strings.ContainsAny(code, `/\`) && !strings.Contains(code, "..")
}

// QueryParamValidator validates query parameters and writes the problem
// response itself when a value is rejected.
type QueryParamValidator struct {
	errorHandler *apierrors.ErrorHandler
}

// NewQueryParamValidator creates a new query parameter validator
func NewQueryParamValidator(errorHandler *apierrors.ErrorHandler) *QueryParamValidator {
	return &QueryParamValidator{errorHandler: errorHandler}
}

// ValidateInt validates an integer query parameter
func (v *QueryParamValidator) ValidateInt(w http.ResponseWriter, r *http.Request, param string, min, max, defaultValue int) (int, bool) {
	value := r.URL.Query().Get(param)
	if value == "" {
		return defaultValue, true
	}

	n, err := strconv.Atoi(value)
	if err != nil {
		v.errorHandler.HandleError(w, r, apierrors.InvalidParameter(param, fmt.Sprintf("%s must be a valid integer", param)))
		return 0, false
	}
	if n < min || n > max {
		v.errorHandler.HandleError(w, r, apierrors.InvalidParameter(param, fmt.Sprintf("%s must be between %d and %d", param, min, max)))
		return 0, false
	}
	return n, true
}

// ValidateBool accepts the forms understood by strconv.ParseBool.
func (v *QueryParamValidator) ValidateBool(w http.ResponseWriter, r *http.Request, param string, defaultValue bool) (bool, bool) {
	value := r.URL.Query().Get(param)
	if value == "" {
		return defaultValue, true
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		v.errorHandler.HandleError(w, r, apierrors.InvalidParameter(param, fmt.Sprintf("%s must be true or false", param)))
		return false, false
	}
	return b, true
}

// ValidateEnum validates an enum value taken from the query or a path segment.
func (v *QueryParamValidator) ValidateEnum(w http.ResponseWriter, r *http.Request, param, value string, allowed []string, defaultValue string) (string, bool) {
	if value == "" {
		return defaultValue, true
	}
	for _, a := range allowed {
		if value == a {
			return value, true
		}
	}
	v.errorHandler.HandleError(w, r, apierrors.InvalidParameter(param, fmt.Sprintf("%s must be one of: %s", param, strings.Join(allowed, ", "))))
	return "", false
}
