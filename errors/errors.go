package errors

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	ratelimit "github.com/JGLTechnologies/gin-rate-limit"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// Error is an API error carrying the HTTP status it should be rendered with
// and an optional machine-readable code.
type Error struct {
	Message string `json:"message"`
	Status  int    `json:"status"`
	Code    string `json:"code,omitempty"`
}

func (e *Error) Error() string {
	return e.Message
}

func New(message string, status int) *Error {
	return &Error{Message: message, Status: status}
}

func NewWithCode(message, code string, status int) *Error {
	return &Error{Message: message, Status: status, Code: code}
}

// Upstream wraps a failure reported by an external service, keeping its body.
func Upstream(service string, status int, body string) *Error {
	return &Error{
		Message: fmt.Sprintf("%s responded with status %d: %s", service, status, body),
		Status:  http.StatusInternalServerError,
		Code:    CodeUpstream,
	}
}

// Configuration reports a secret or setting that is absent for this invocation.
func Configuration(setting string) *Error {
	return &Error{
		Message: fmt.Sprintf("%s is not configured", setting),
		Status:  http.StatusInternalServerError,
		Code:    CodeConfiguration,
	}
}

const (
	CodeMissingPlanURL    = "MISSING_PLAN_URL"
	CodeMissingHouseID    = "MISSING_HOUSE_ID"
	CodeMissingTitle      = "MISSING_TITLE"
	CodeMissingContent    = "MISSING_CONTENT"
	CodeInvalidSlug       = "INVALID_SLUG_FORMAT"
	CodeInvalidStatus     = "INVALID_STATUS"
	CodeDuplicateSlug     = "DUPLICATE_SLUG"
	CodeDuplicateEmail    = "DUPLICATE_EMAIL"
	CodeInvalidReportType = "INVALID_REPORT_TYPE"
	CodeInvalidPeriod     = "INVALID_PERIOD"
	CodeInvalidID         = "INVALID_ID"
	CodeValidation        = "VALIDATION_ERROR"
	CodeUpstream          = "UPSTREAM_ERROR"
	CodeConfiguration     = "CONFIGURATION_ERROR"
	CodeRateLimited       = "RATE_LIMITED"
)

var (
	ErrNotFound            = New("not found", http.StatusNotFound)
	ErrInternalServerError = New("internal server error", http.StatusInternalServerError)
	ErrBadRequest          = New("bad request", http.StatusBadRequest)
	ErrUnauthorized        = New("unauthorized", http.StatusUnauthorized)
	ErrForbidden           = New("forbidden", http.StatusForbidden)
	ErrInvalidPassword     = New("invalid email or password", http.StatusUnprocessableEntity)
	InActiveUserError      = New("user is inactive", http.StatusUnauthorized)
)

// IsUniqueViolation recognises duplicate-key failures from gorm's translated
// errors, postgres (23505) and sqlite.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return true
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed") ||
		strings.Contains(err.Error(), "duplicate key value")
}

// GetUniqueContraintError maps a duplicate-key failure to a 400 with code.
// Any other error is passed through as an internal error.
func GetUniqueContraintError(err error, code string) *Error {
	if IsUniqueViolation(err) {
		return NewWithCode(strings.ToLower(strings.ReplaceAll(code, "_", " ")), code, http.StatusBadRequest)
	}
	return ErrInternalServerError
}

// ErrorHandler renders the rate limiter's rejection in the API envelope.
func ErrorHandler(c *gin.Context, info ratelimit.Info) {
	c.JSON(http.StatusTooManyRequests, gin.H{
		"message":   "too many requests, try again in " + time.Until(info.ResetTime).Round(time.Second).String(),
		"data":      nil,
		"error":     "rate limit exceeded",
		"code":      CodeRateLimited,
		"status":    http.StatusText(http.StatusTooManyRequests),
		"timestamp": time.Now().Format(time.RFC850),
	})
}
