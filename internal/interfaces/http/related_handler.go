package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/facturante/facturacion-api/internal/application/billing"
	"github.com/facturante/facturacion-api/internal/application/dto"
)

// RelatedHandler resuelve relaciones entre CFDIs en ambas direcciones.
type RelatedHandler struct {
	resolver *billing.RelatedResolver
}

// NewRelatedHandler construye el handler.
func NewRelatedHandler(resolver *billing.RelatedResolver) *RelatedHandler {
	return &RelatedHandler{resolver: resolver}
}

// RelatedFrom lista los CFDIs que este comprobante declara afectar.
// GET /api/invoices/:id/related
func (h *RelatedHandler) RelatedFrom(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "id requerido"})
	}
	related, err := h.resolver.RelatedFrom(c.Context(), id)
	if err != nil {
		return respondError(c, err)
	}
	out := make([]dto.RelatedCFDIResponse, 0, len(related))
	for _, r := range related {
		out = append(out, dto.RelatedCFDIResponse{UUID: r.UUID, RelationshipType: r.RelationshipType})
	}
	return c.JSON(out)
}

// RelatedTo lista los comprobantes que declaran afectar al UUID dado.
// GET /api/invoices/related-to/:uuid
func (h *RelatedHandler) RelatedTo(c *fiber.Ctx) error {
	uuid := c.Params("uuid")
	if uuid == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "uuid requerido"})
	}
	invoices, err := h.resolver.RelatedTo(c.Context(), uuid)
	if err != nil {
		return respondError(c, err)
	}
	out := make([]dto.InvoiceResponse, 0, len(invoices))
	for _, inv := range invoices {
		out = append(out, dto.NewInvoiceResponse(inv))
	}
	return c.JSON(out)
}

// RelatedAtProvider consulta ante el SAT los CFDIs relacionados registrados.
// GET /api/invoices/:id/related/provider
func (h *RelatedHandler) RelatedAtProvider(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "id requerido"})
	}
	related, err := h.resolver.RelatedAtProvider(c.Context(), id)
	if err != nil {
		return respondError(c, err)
	}
	out := make([]dto.RelatedCFDIResponse, 0, len(related))
	for _, r := range related {
		out = append(out, dto.RelatedCFDIResponse{UUID: r.UUID, RelationshipType: r.RelationshipType})
	}
	return c.JSON(out)
}
