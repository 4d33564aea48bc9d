package http

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

const (
	userHeader = "X-User-ID"
	userKey    = "userID"
)

// requireUser rejects requests without a user id header.
func requireUser(c *fiber.Ctx) error {
	id := strings.TrimSpace(c.Get(userHeader))
	if id == "" {
		return fiber.NewError(fiber.StatusUnauthorized, "missing "+userHeader+" header")
	}
	c.Locals(userKey, id)
	return c.Next()
}

func userID(c *fiber.Ctx) string {
	id, _ := c.Locals(userKey).(string)
	return id
}

// requestLogger renders handler errors itself so the logged status is final.
func (s *Server) requestLogger(c *fiber.Ctx) error {
	start := time.Now()
	err := c.Next()
	if err != nil {
		if herr := s.app.ErrorHandler(c, err); herr != nil {
			_ = c.SendStatus(fiber.StatusInternalServerError)
		}
	}

	status := c.Response().StatusCode()
	fields := []zap.Field{
		zap.String("method", c.Method()),
		zap.String("path", c.Path()),
		zap.Int("status", status),
		zap.Duration("latency", time.Since(start)),
	}
	if id := c.Get(userHeader); id != "" {
		fields = append(fields, zap.String("user_id", id))
	}
	switch {
	case status >= 500:
		s.logger.Error("request", append(fields, zap.Error(err))...)
	case status >= 400:
		s.logger.Warn("request", fields...)
	default:
		s.logger.Debug("request", fields...)
	}
	return nil
}
