package services

import (
	"strconv"
	"strings"
	"time"

	"photoedit/utils"

	"github.com/charmbracelet/log"
	"github.com/gofiber/fiber/v2"
)

const (
	reqIDKey   = "reqId"
	sessionKey = "sessionId"
)

// RequestLogger tags each request with an id (honouring a sane incoming
// X-Request-Id), logs its completion and counts it by route.
func RequestLogger(metrics *Metrics) fiber.Handler {
	base := log.With("component", "http")

	return func(c *fiber.Ctx) error {
		reqID := strings.TrimSpace(c.Get(fiber.HeaderXRequestID))
		if reqID == "" || len(reqID) > 64 {
			reqID = utils.NewRequestID()
		}
		c.Locals(reqIDKey, reqID)
		c.Set(fiber.HeaderXRequestID, reqID)

		start := time.Now()
		method := c.Method()
		path := c.Path()

		err := c.Next()
		dur := time.Since(start)

		status := c.Response().StatusCode()
		if fe, ok := err.(*fiber.Error); ok {
			status = fe.Code
		}
		metrics.request(method, c.Route().Path, strconv.Itoa(status))

		fields := []any{"reqId", reqID, "method", method, "path", path, "status", status, "dur", dur.String()}
		switch {
		case err != nil:
			base.Error("request failed", append(fields, "err", err)...)
			return err
		case strings.HasPrefix(path, "/static/"), strings.HasPrefix(path, "/preview/"), path == "/state":
			// polled or asset traffic
			base.Debug("request completed", fields...)
		default:
			base.Info("request completed", fields...)
		}
		return nil
	}
}

func ReqID(c *fiber.Ctx) string {
	if v := c.Locals(reqIDKey); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// SessionID is the editor session resolved for this request, including one
// created by it.
func SessionID(c *fiber.Ctx) string {
	if s, ok := c.Locals(sessionKey).(string); ok {
		return s
	}
	return ""
}

func HttpLogger(action string, c *fiber.Ctx) *log.Logger {
	return log.With(
		"component", "api",
		"action", action,
		"reqId", ReqID(c),
		"sessionId", SessionID(c),
	)
}
