package web

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
)

// LoggerKey is the fiber.Locals key holding the per-request logger
const LoggerKey = "logger"

// requestLogger returns the logger RequestLogger stored on c, or fallback outside that middleware
func requestLogger(c *fiber.Ctx, fallback *zerolog.Logger) *zerolog.Logger {
	if l, ok := c.Locals(LoggerKey).(*zerolog.Logger); ok {
		return l
	}
	l := fallback.With().Str("path", c.Path()).Logger()
	return &l
}

// RequestLogger attaches a request-scoped sub-logger and logs each request once it completes
func RequestLogger(logger zerolog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		requestID, _ := c.Locals("requestid").(string)
		sublogger := logger.With().
			Str("request_id", requestID).
			Str("method", c.Method()).
			Str("path", c.Path()).
			Str("remote_addr", c.IP()).
			Logger()
		c.Locals(LoggerKey, &sublogger)

		err := c.Next()
		if err != nil {
			// run the error handler now so the logged status is the one sent
			if herr := c.App().ErrorHandler(c, err); herr != nil {
				_ = c.SendStatus(fiber.StatusInternalServerError)
			}
		}

		sublogger.Info().
			Int("status_code", c.Response().StatusCode()).
			Int("bytes_out", len(c.Response().Body())).
			Dur("duration", time.Since(start)).
			Msg("Request")
		return nil
	}
}
