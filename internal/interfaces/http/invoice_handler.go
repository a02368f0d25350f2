package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/facturante/facturacion-api/internal/application/billing"
	"github.com/facturante/facturacion-api/internal/application/dto"
)

// InvoiceHandler maneja las peticiones HTTP de facturación (protegido).
type InvoiceHandler struct {
	invoices    *billing.InvoiceUseCase
	creditNotes *billing.CreditNoteUseCase
}

// NewInvoiceHandler construye el handler.
func NewInvoiceHandler(invoices *billing.InvoiceUseCase, creditNotes *billing.CreditNoteUseCase) *InvoiceHandler {
	return &InvoiceHandler{invoices: invoices, creditNotes: creditNotes}
}

// CreateFromReceipt timbra una factura (serie I, PPD) a partir de un recibo.
// POST /api/invoices/receipt
func (h *InvoiceHandler) CreateFromReceipt(c *fiber.Ctx) error {
	var in dto.CreateInvoiceFromReceiptRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	if in.ReceiptID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "receipt_id requerido"})
	}
	invoice, err := h.invoices.CreateFromReceipt(c.Context(), in.ReceiptID)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.NewInvoiceResponse(invoice))
}

// CreateFromPayment reparte un pago entre sus recibos y emite el complemento
// de pago y/o la factura simple que correspondan.
// POST /api/invoices/payment
func (h *InvoiceHandler) CreateFromPayment(c *fiber.Ctx) error {
	var in dto.CreateInvoiceFromPaymentRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	if in.PaymentID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "payment_id requerido"})
	}
	result, err := h.invoices.CreateFromPayment(c.Context(), in.PaymentID, in.ToAllocations())
	if err != nil {
		return respondError(c, err)
	}
	resp := dto.PaymentInvoicesResponse{}
	if result.Complement != nil {
		r := dto.NewInvoiceResponse(result.Complement)
		resp.Complement = &r
	}
	if result.Invoice != nil {
		r := dto.NewInvoiceResponse(result.Invoice)
		resp.Invoice = &r
	}
	return c.Status(fiber.StatusCreated).JSON(resp)
}

// GetByID obtiene el detalle completo de un comprobante.
// GET /api/invoices/:id
func (h *InvoiceHandler) GetByID(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "id requerido"})
	}
	invoice, err := h.invoices.GetInvoice(c.Context(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.NewInvoiceResponse(invoice))
}

// CreateCreditNote emite una nota de crédito (serie E) contra una factura.
// POST /api/invoices/:id/credit-notes
func (h *InvoiceHandler) CreateCreditNote(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "id requerido"})
	}
	var in dto.CreateCreditNoteRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	result, err := h.creditNotes.Issue(c.Context(), in.ToRequest(id))
	if err != nil {
		return respondError(c, err)
	}
	resp := dto.CreditNoteResponse{
		Invoice:       dto.NewInvoiceResponse(result.Invoice),
		MailingErrors: result.MailingErrors,
	}
	if result.Payment != nil {
		resp.PaymentID = result.Payment.ID
	}
	return c.Status(fiber.StatusCreated).JSON(resp)
}
