package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/0xcro3dile/resume-intel/internal/domain/apperr"
)

// handleError maps apperr codes and fiber errors to JSON responses.
func (s *Server) handleError(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return c.Status(fe.Code).JSON(fiber.Map{"error": fe.Message})
	}

	var ae *apperr.Error
	if !errors.As(err, &ae) {
		s.logger.Error("unhandled error", zap.String("path", c.Path()), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
	}

	body := fiber.Map{"error": ae.Message, "code": ae.Code}
	status := fiber.StatusInternalServerError
	switch ae.Code {
	case apperr.CodeNoResume:
		status = fiber.StatusNotFound
		body["needsResume"] = true
	case apperr.CodeStillProcessing:
		status = fiber.StatusConflict
		body["isProcessing"] = true
	case apperr.CodeResumeFailed:
		status = fiber.StatusConflict
		body["processingError"] = ae.Metadata["processingError"]
	case apperr.CodeExtraction:
		status = fiber.StatusUnprocessableEntity
		if _, unsupported := ae.Metadata["mimeType"]; unsupported {
			status = fiber.StatusUnsupportedMediaType
		}
	case apperr.CodeInsightsFormat:
		status = fiber.StatusBadGateway
	case apperr.CodeValidation:
		status = fiber.StatusBadRequest
	case apperr.CodeNotFound:
		status = fiber.StatusNotFound
	default:
		s.logger.Error("request failed", zap.String("path", c.Path()), zap.Error(err))
		body = fiber.Map{"error": "internal server error"}
	}
	return c.Status(status).JSON(body)
}
