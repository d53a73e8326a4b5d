// server/http/middleware.go
package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
)

// requestLogger logs and measures every request. Handler errors are rendered
// here so the logged status matches the response.
func (s *Server) requestLogger(c *fiber.Ctx) error {
	start := time.Now()
	if err := c.Next(); err != nil {
		if herr := s.handleError(c, err); herr != nil {
			_ = c.SendStatus(fiber.StatusInternalServerError)
		}
	}
	elapsed := time.Since(start)
	status := c.Response().StatusCode()

	route := c.Path()
	if r := c.Route(); r != nil && r.Path != "" {
		route = r.Path
	}
	s.metrics.HTTPRequest(c.Method(), route, status, elapsed.Seconds())

	ev := s.log.Info()
	if status >= fiber.StatusInternalServerError {
		ev = s.log.Error()
	}
	ev.Str("method", c.Method()).
		Str("path", c.Path()).
		Int("status", status).
		Dur("latency", elapsed).
		Msg("request")
	return nil
}
