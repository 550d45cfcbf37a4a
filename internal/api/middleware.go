package api

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/Spok95/school-supply/internal/access"
	"github.com/Spok95/school-supply/internal/apperr"
	"github.com/Spok95/school-supply/internal/infra/metrics"
)

const (
	requestIDKey = "request_id"
	claimsKey    = "auth_claims"
)

// requestLog tags each request with an id, records metrics and logs one line.
func requestLog(log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Header("X-Request-ID", id)

		start := time.Now()
		c.Next()
		elapsed := time.Since(start)

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := c.Writer.Status()
		metrics.HTTPRequests.WithLabelValues(route, c.Request.Method, strconv.Itoa(status)).Inc()
		metrics.HTTPDuration.WithLabelValues(route, c.Request.Method).Observe(elapsed.Seconds())

		level := slog.LevelInfo
		if status >= http.StatusInternalServerError {
			level = slog.LevelError
		}
		log.Log(c.Request.Context(), level, "http request",
			"request_id", id,
			"method", c.Request.Method,
			"route", route,
			"status", status,
			"latency_ms", elapsed.Milliseconds(),
		)
	}
}

// authenticate resolves the bearer token and stores the identity in the request context.
func (h *handler) authenticate(c *gin.Context) {
	header := c.GetHeader("Authorization")
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || strings.TrimSpace(token) == "" {
		h.fail(c, apperr.Unauthorized("token de acesso não fornecido"))
		return
	}

	who, claims, err := h.auth.Authenticate(c.Request.Context(), strings.TrimSpace(token))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.Request = c.Request.WithContext(access.WithIdentity(c.Request.Context(), who))
	c.Set(claimsKey, claims)
	c.Next()
}

// allow rejects callers whose role may not perform a.
func (h *handler) allow(a access.Action) gin.HandlerFunc {
	return func(c *gin.Context) {
		who, _ := access.FromContext(c.Request.Context())
		if err := access.Require(who, a); err != nil {
			h.fail(c, err)
			return
		}
		c.Next()
	}
}

func identity(c *gin.Context) access.Identity {
	who, _ := access.FromContext(c.Request.Context())
	return who
}
