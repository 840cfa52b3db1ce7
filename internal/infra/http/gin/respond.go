package ginserver

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	gin "github.com/gin-gonic/gin"

	"alxtravel/internal/domain/shared/daterange"
	"alxtravel/internal/domain/shared/fault"
	"alxtravel/internal/infra/obs"
)

const idempotencyHeader = "Idempotency-Key"

var errCallerRequired = fault.New(fault.Forbidden, "caller identity required")

// statusFor maps an error kind onto the HTTP status clients see.
func statusFor(err error) int {
	switch fault.KindOf(err) {
	case fault.InvalidArgument:
		return http.StatusBadRequest
	case fault.NotFound:
		return http.StatusNotFound
	case fault.Forbidden:
		return http.StatusForbidden
	case fault.ListingInactive, fault.Conflict, fault.AlreadyCancelled, fault.InvalidTransition:
		return http.StatusConflict
	case fault.Unavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func respondError(c *gin.Context, logger *slog.Logger, err error) {
	status := statusFor(err)
	kind := fault.KindOf(err)
	if status == http.StatusServiceUnavailable {
		c.Header("Retry-After", "1")
	}
	msg := err.Error()
	if status == http.StatusInternalServerError {
		if logger != nil {
			logger.ErrorContext(c.Request.Context(), "request failed", "path", c.FullPath(), "error", err)
		}
		msg = "internal error"
	}
	_ = c.Error(err)
	c.JSON(status, gin.H{"error": msg, "code": kind.String()})
}

func requireCaller(c *gin.Context) (string, bool) {
	caller := strings.TrimSpace(c.GetHeader(obs.CallerHeader))
	if caller == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": errCallerRequired.Error(), "code": fault.Forbidden.String()})
		return "", false
	}
	return caller, true
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "code": fault.InvalidArgument.String()})
}

// parseDate accepts YYYY-MM-DD only.
func parseDate(raw, field string) (time.Time, error) {
	t, err := time.Parse(daterange.DateLayout, strings.TrimSpace(raw))
	if err != nil {
		return time.Time{}, fault.New(fault.InvalidArgument, field+": expected YYYY-MM-DD")
	}
	return t, nil
}

func parsePositiveInt(raw string, fallback int) int {
	value, err := strconv.Atoi(raw)
	if err != nil || value < 0 {
		return fallback
	}
	return value
}
