package server

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
	"go.uber.org/zap"

	"github.com/mrsingh-rishi/voice-instructor/config"
	"github.com/mrsingh-rishi/voice-instructor/metrics"
	"github.com/mrsingh-rishi/voice-instructor/pipeline"
	"github.com/mrsingh-rishi/voice-instructor/types"
)

// StatusClientClosedRequest renders KindCanceled. Fiber does not cancel the
// handler context when a client disconnects, so this status is only seen
// when the Processor reports a cancellation of its own.
const StatusClientClosedRequest = 499

// StatusFor maps a pipeline failure kind to an HTTP status.
func StatusFor(kind pipeline.Kind) int {
	switch kind {
	case pipeline.KindBadInput:
		return fiber.StatusBadRequest
	case pipeline.KindUpstream:
		return fiber.StatusBadGateway
	case pipeline.KindUnavailable:
		return fiber.StatusServiceUnavailable
	case pipeline.KindTimeout:
		return fiber.StatusGatewayTimeout
	case pipeline.KindCanceled:
		return StatusClientClosedRequest
	default:
		return fiber.StatusInternalServerError
	}
}

// ErrorHandler renders every failure as {"error": ...}. Pipeline failures
// keep their full cause in the log and expose only the redacted message.
// With LegacyErrorStatus set, pipeline failures answer 200.
func ErrorHandler(cfg config.HTTPConfig, logger *zap.Logger, m *metrics.Metrics) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		message := "internal error"
		errType := "internal"

		var (
			perr *pipeline.Error
			ferr *fiber.Error
		)
		switch {
		case errors.As(err, &perr):
			code = StatusFor(perr.Kind)
			message = perr.Error()
			errType = perr.Kind.String()
			logger.Error("pipeline failed",
				zap.String("request_id", requestIDFrom(c)),
				zap.String("stage", string(perr.Stage)),
				zap.String("kind", errType),
				zap.Int("upstream_status", perr.Status),
				zap.Error(perr.Err),
			)
			if cfg.LegacyErrorStatus {
				code = fiber.StatusOK
			}
		case errors.As(err, &ferr):
			code = ferr.Code
			message = ferr.Message
			errType = "request"
		default:
			logger.Error("unhandled error",
				zap.String("request_id", requestIDFrom(c)),
				zap.String("path", c.Path()),
				zap.Error(err),
			)
		}

		m.RecordHTTPError(utils.CopyString(c.Method()), c.Route().Path, errType)
		return c.Status(code).JSON(types.ErrorResponse{Error: message})
	}
}
