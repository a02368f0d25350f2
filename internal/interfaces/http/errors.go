package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/facturante/facturacion-api/internal/application/dto"
	"github.com/facturante/facturacion-api/internal/domain"
)

// respondError mapea la taxonomía de errores del dominio a status HTTP:
//
//	ValidationError   → 400 (detalle por campo)
//	ErrInvalidInput   → 400
//	ErrUnauthorized   → 401
//	ErrNotFound       → 404
//	BusinessRuleError → 409
//	ErrConflict       → 409
//	ErrEmptyInvoice   → 422
//	ProviderError     → 502 (el payload del PAC viaja al cliente)
//	ErrProviderDown   → 503
func respondError(c *fiber.Ctx, err error) error {
	var vErr *domain.ValidationError
	if errors.As(err, &vErr) {
		return c.Status(fiber.StatusBadRequest).JSON(dto.NewValidationErrorResponse(vErr))
	}
	var bErr *domain.BusinessRuleError
	if errors.As(err, &bErr) {
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "BUSINESS_RULE", Message: bErr.Error()})
	}
	var pErr *domain.ProviderError
	if errors.As(err, &pErr) {
		return c.Status(fiber.StatusBadGateway).JSON(dto.ErrorResponse{Code: "PROVIDER_ERROR", Message: pErr.Error()})
	}

	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: err.Error()})
	case errors.Is(err, domain.ErrUnauthorized):
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: err.Error()})
	case errors.Is(err, domain.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: err.Error()})
	case errors.Is(err, domain.ErrConflict):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "CONFLICT", Message: err.Error()})
	case errors.Is(err, domain.ErrEmptyInvoice):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(dto.ErrorResponse{Code: "EMPTY_INVOICE", Message: err.Error()})
	case errors.Is(err, domain.ErrProviderDown):
		return c.Status(fiber.StatusServiceUnavailable).JSON(dto.ErrorResponse{Code: "PROVIDER_DOWN", Message: err.Error()})
	}
	return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
}
