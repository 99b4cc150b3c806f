package httpapi

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/aretw0/ubrain/pkg/brain"
	"github.com/aretw0/ubrain/pkg/core"
)

// handleError maps handler errors to status codes and stable error codes.
// Validation messages name the offending field and are returned verbatim;
// other failures return a code only.
func (s *Server) handleError(c *fiber.Ctx, err error) error {
	status, code := classify(err)
	switch {
	case status >= fiber.StatusInternalServerError:
		s.logger.Error("request failed", "method", c.Method(), "path", c.Path(), "status", status, "error", err)
	default:
		s.logger.Debug("request rejected", "method", c.Method(), "path", c.Path(), "status", status, "error", err)
	}
	return c.Status(status).JSON(fiber.Map{"error": code})
}

func classify(err error) (int, string) {
	var fe *fiber.Error
	switch {
	case errors.As(err, &fe):
		return fe.Code, fe.Message
	case errors.Is(err, errInvalidJSON), errors.Is(err, errMissingID), errors.Is(err, errInvalidCollection):
		return fiber.StatusBadRequest, err.Error()
	case errors.Is(err, brain.ErrOffline):
		return fiber.StatusServiceUnavailable, "offline_mode"
	case core.IsValidation(err):
		var ve *core.ValidationError
		errors.As(err, &ve)
		return fiber.StatusBadRequest, ve.Error()
	case errors.Is(err, core.ErrUnknownEntity):
		return fiber.StatusBadRequest, "unknown_entity"
	case errors.Is(err, core.ErrNotConfigured):
		return fiber.StatusBadRequest, "mapping_missing"
	case errors.Is(err, core.ErrNothingToWrite):
		return fiber.StatusBadRequest, "nothing_to_write"
	case errors.Is(err, core.ErrInvalidValue):
		return fiber.StatusBadRequest, "invalid_value"
	case errors.Is(err, core.ErrSchemaLookup):
		return fiber.StatusBadGateway, "upstream_error"
	case errors.Is(err, core.ErrNotFound):
		return fiber.StatusNotFound, "not_found"
	case errors.Is(err, core.ErrMappingNotFound):
		return fiber.StatusInternalServerError, "mapping_not_found"
	case errors.Is(err, core.ErrUnsupported):
		return fiber.StatusNotImplemented, "not_supported"
	}
	return fiber.StatusBadGateway, "upstream_error"
}
