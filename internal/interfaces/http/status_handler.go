package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/facturante/facturacion-api/internal/application/billing"
	"github.com/facturante/facturacion-api/internal/application/dto"
)

// StatusHandler maneja el ciclo de vida de los comprobantes ante el SAT.
type StatusHandler struct {
	uc *billing.StatusUseCase
}

// NewStatusHandler construye el handler.
func NewStatusHandler(uc *billing.StatusUseCase) *StatusHandler {
	return &StatusHandler{uc: uc}
}

// GetStatus consulta el estado del comprobante ante el proveedor. Con
// ?update=true aplica la tabla de transiciones sobre el estado almacenado.
// GET /api/invoices/:id/status
func (h *StatusHandler) GetStatus(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "id requerido"})
	}
	update := c.QueryBool("update")

	result, err := h.uc.GetStatus(c.Context(), id, update)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.StatusResponse{
		ID:                 result.Invoice.ID,
		UUID:               result.Invoice.UUID,
		Status:             result.Invoice.Status,
		ProviderStatus:     result.Provider.Status,
		CancellationStatus: result.Provider.CancellationStatus,
		IsItCancelable:     result.Provider.IsItCancelable,
		Updated:            result.Updated,
	})
}

// RequestCancellation solicita la cancelación del comprobante ante el SAT.
// POST /api/invoices/:id/cancellation
func (h *StatusHandler) RequestCancellation(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "id requerido"})
	}
	result, err := h.uc.RequestCancellation(c.Context(), id)
	if err != nil {
		return respondError(c, err)
	}
	resp := dto.CancellationResponse{
		Status:   result.Status,
		Message:  result.Message,
		Comments: result.Comments,
		Errors:   result.Errors,
	}
	if result.Invoice != nil {
		r := dto.NewInvoiceResponse(result.Invoice)
		resp.Invoice = &r
	}
	if result.Payment != nil {
		resp.PaymentID = result.Payment.ID
	}
	if result.Receipt != nil {
		resp.ReceiptID = result.Receipt.ID
	}
	return c.JSON(resp)
}

// Audit reconcilia por lotes los comprobantes en proceso de cancelación.
// POST /api/invoices/audit
func (h *StatusHandler) Audit(c *fiber.Ctx) error {
	result, err := h.uc.AuditInvoicesStatus(c.Context())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.AuditResponse{
		Status:  result.Status,
		Message: result.Message,
		Errors:  result.Errors,
	})
}
