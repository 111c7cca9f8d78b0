package middleware

import (
	"fmt"
	"log/slog"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/render"

	apperrors "pindex/internal/errors"
)

// ContentTypeValidator rejects request bodies whose media type is not one of
// contentTypes. GET, HEAD and DELETE requests pass through.
func ContentTypeValidator(contentTypes ...string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodGet || r.Method == http.MethodHead || r.Method == http.MethodDelete {
				next.ServeHTTP(w, r)
				return
			}

			contentType := r.Header.Get("Content-Type")
			mediaType, _, err := mime.ParseMediaType(contentType)
			if contentType != "" && err == nil {
				for _, allowed := range contentTypes {
					if strings.EqualFold(mediaType, allowed) {
						next.ServeHTTP(w, r)
						return
					}
				}
			}

			problem := apperrors.NewProblemDetails(
				http.StatusUnsupportedMediaType,
				apperrors.TypeValidation,
				"Unsupported Media Type",
				fmt.Sprintf("Content-Type %q is not accepted", contentType),
				r.URL.Path,
			).WithExtension("allowed", contentTypes)
			render.Render(w, r, problem)
		})
	}
}

// QueryParamValidator parses and range-checks query parameters, answering 400 on failure
type QueryParamValidator struct {
	logger       *slog.Logger
	errorHandler *apperrors.ErrorHandler
}

// NewQueryParamValidator creates a new query parameter validator
func NewQueryParamValidator(logger *slog.Logger, errorHandler *apperrors.ErrorHandler) *QueryParamValidator {
	return &QueryParamValidator{
		logger:       logger.With(slog.String("component", "query_validator")),
		errorHandler: errorHandler,
	}
}

// ValidateInt returns the integer value of param. present is false when the parameter
// is absent; ok is false when a response has already been written.
func (v *QueryParamValidator) ValidateInt(w http.ResponseWriter, r *http.Request, param string, min, max int) (value int, present, ok bool) {
	raw := r.URL.Query().Get(param)
	if raw == "" {
		return 0, false, true
	}

	value, err := strconv.Atoi(raw)
	if err != nil {
		v.reject(w, r, param, fmt.Sprintf("%s must be a valid integer", param))
		return 0, true, false
	}
	if value < min || value > max {
		v.reject(w, r, param, fmt.Sprintf("%s must be between %d and %d", param, min, max))
		return 0, true, false
	}
	return value, true, true
}

// ValidateFloat returns the float value of param within [min, max], see ValidateInt
func (v *QueryParamValidator) ValidateFloat(w http.ResponseWriter, r *http.Request, param string, min, max float64) (value float64, present, ok bool) {
	raw := r.URL.Query().Get(param)
	if raw == "" {
		return 0, false, true
	}

	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		v.reject(w, r, param, fmt.Sprintf("%s must be a valid number", param))
		return 0, true, false
	}
	if value < min || value > max {
		v.reject(w, r, param, fmt.Sprintf("%s must be between %g and %g", param, min, max))
		return 0, true, false
	}
	return value, true, true
}

func (v *QueryParamValidator) reject(w http.ResponseWriter, r *http.Request, param, message string) {
	v.logger.DebugContext(r.Context(), "invalid query parameter",
		slog.String("param", param),
		slog.String("value", r.URL.Query().Get(param)))
	v.errorHandler.HandleError(w, r, apperrors.NewAppValidationError(message).WithContext("param", param))
}
