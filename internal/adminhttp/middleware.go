package adminhttp

import (
	"context"
	"math"
	"time"

	"github.com/gofiber/fiber/v2"
)

const (
	sessionKeyAdminID  = "admin_id"
	sessionKeyUsername = "username"
	localsAdminID      = "admin_id"

	logMsgRequest     = "http request"
	logMsgServerError = "http request failed"
)

var errAuthenticationRequired = fiber.NewError(fiber.StatusUnauthorized, "authentication required")

// withRequestContext gives each request a bounded context and logs it when it is done.
func (s *Server) withRequestContext(c *fiber.Ctx) error {
	start := time.Now()

	ctx, cancel := context.WithTimeout(context.Background(), s.requestTimeout)
	defer cancel()

	c.SetUserContext(ctx)

	// The error is written here rather than by fiber so that the log line sees the final status.
	if err := c.Next(); err != nil {
		if handlerErr := s.handleError(c, err); handlerErr != nil {
			return handlerErr
		}
	}

	if s.logger != nil {
		s.logger.InfoContext(ctx, logMsgRequest,
			"method", c.Method(),
			"path", c.Path(),
			"status", c.Response().StatusCode(),
			"duration_ms", math.Round(float64(time.Since(start).Microseconds()))/1000,
			"request_id", requestID(c),
		)
	}

	return nil
}

// requireAdmin rejects requests without a logged-in session.
func (s *Server) requireAdmin(c *fiber.Ctx) error {
	sess, err := s.sessions.Get(c)
	if err != nil {
		return err
	}

	adminID, ok := sess.Get(sessionKeyAdminID).(int64)
	if !ok {
		return errAuthenticationRequired
	}

	c.Locals(localsAdminID, adminID)

	return c.Next()
}

func requestID(c *fiber.Ctx) string {
	id, _ := c.Locals("requestid").(string)
	return id
}
