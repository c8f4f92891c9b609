package ginserver

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	gin "github.com/gin-gonic/gin"

	"staybook/internal/domain/shared/apperr"
)

// userHeader carries the opaque id handed over by the identity provider.
const userHeader = "X-User-ID"

var errBadDate = errors.New("dates must be YYYY-MM-DD or RFC3339")

func requireUser(c *gin.Context) (string, bool) {
	user := strings.TrimSpace(c.GetHeader(userHeader))
	if user == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing " + userHeader + " header"})
		return "", false
	}
	return user, true
}

// statusFor maps error kinds onto HTTP statuses.
func statusFor(err error) int {
	switch apperr.KindOf(err) {
	case apperr.KindValidation:
		return http.StatusBadRequest
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindConflict:
		return http.StatusConflict
	case apperr.KindInvalidTransition:
		return http.StatusUnprocessableEntity
	case apperr.KindStorage:
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func respondError(c *gin.Context, logger *slog.Logger, err error) {
	status := statusFor(err)
	_ = c.Error(err)
	if logger != nil && status >= http.StatusInternalServerError {
		logger.Error("request failed", "status", status, "path", c.FullPath(), "error", err)
	}
	body := gin.H{"error": err.Error()}
	if kind := apperr.KindOf(err); kind != "" {
		body["kind"] = string(kind)
	}
	c.JSON(status, body)
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "kind": string(apperr.KindValidation)})
}

// parseDate accepts a calendar date or an RFC3339 timestamp. Empty input
// yields the zero time.
func parseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.DateOnly, raw); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, errBadDate
	}
	return t, nil
}

// Date is a JSON date accepting both "2025-09-28" and RFC3339.
type Date struct {
	time.Time
}

func (d *Date) UnmarshalJSON(data []byte) error {
	raw := strings.Trim(string(data), `"`)
	if raw == "null" {
		d.Time = time.Time{}
		return nil
	}
	t, err := parseDate(raw)
	if err != nil {
		return err
	}
	d.Time = t
	return nil
}
