package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/facturante/facturacion-api/internal/application/billing"
	"github.com/facturante/facturacion-api/internal/domain/cfdi"
	"github.com/facturante/facturacion-api/internal/domain/entity"
)

// CreateInvoiceFromReceiptRequest body para POST /api/invoices/receipt.
type CreateInvoiceFromReceiptRequest struct {
	ReceiptID string `json:"receipt_id"`
}

// AllocationRequest asignación de una parte del pago a un recibo.
type AllocationRequest struct {
	ReceiptID string          `json:"receipt_id"`
	Amount    decimal.Decimal `json:"amount"`
}

// CreateInvoiceFromPaymentRequest body para POST /api/invoices/payment.
type CreateInvoiceFromPaymentRequest struct {
	PaymentID   string              `json:"payment_id"`
	Allocations []AllocationRequest `json:"allocations"`
}

// ToAllocations convierte las asignaciones al tipo de aplicación.
func (r CreateInvoiceFromPaymentRequest) ToAllocations() []billing.Allocation {
	out := make([]billing.Allocation, 0, len(r.Allocations))
	for _, a := range r.Allocations {
		out = append(out, billing.Allocation{ReceiptID: a.ReceiptID, Amount: a.Amount})
	}
	return out
}

// CreditNoteConceptRequest línea de una nota de crédito (montos netos).
type CreditNoteConceptRequest struct {
	Description string          `json:"description"`
	UnitCost    decimal.Decimal `json:"unit_cost"`
	Quantity    decimal.Decimal `json:"quantity"`
}

// CreateCreditNoteRequest body para POST /api/invoices/:id/credit-notes.
type CreateCreditNoteRequest struct {
	RelationshipType string                     `json:"relationship_type"`
	CfdiUse          string                     `json:"cfdi_use"`
	PaymentForm      string                     `json:"payment_form"`
	PaymentMethod    string                     `json:"payment_method,omitempty"`
	Concepts         []CreditNoteConceptRequest `json:"concepts"`
}

// ToRequest convierte el body a la solicitud de aplicación.
func (r CreateCreditNoteRequest) ToRequest(invoiceID string) billing.CreditNoteRequest {
	concepts := make([]cfdi.CreditConcept, 0, len(r.Concepts))
	for _, c := range r.Concepts {
		concepts = append(concepts, cfdi.CreditConcept{
			Description: c.Description,
			UnitCost:    c.UnitCost,
			Quantity:    c.Quantity,
		})
	}
	return billing.CreditNoteRequest{
		InvoiceID:        invoiceID,
		RelationshipType: r.RelationshipType,
		CfdiUse:          r.CfdiUse,
		PaymentForm:      r.PaymentForm,
		PaymentMethod:    r.PaymentMethod,
		Concepts:         concepts,
	}
}

// TaxResponse impuesto trasladado en respuestas.
type TaxResponse struct {
	Base       decimal.Decimal `json:"base"`
	Rate       decimal.Decimal `json:"rate"`
	Amount     decimal.Decimal `json:"amount"`
	TaxCode    string          `json:"tax_code"`
	FactorType string          `json:"factor_type"`
}

// ConceptResponse partida del comprobante en respuestas.
type ConceptResponse struct {
	Description        string          `json:"description"`
	UnitCode           string          `json:"unit_code"`
	ProductServiceCode string          `json:"product_service_code"`
	UnitValue          decimal.Decimal `json:"unit_value"`
	Quantity           decimal.Decimal `json:"quantity"`
	Discount           decimal.Decimal `json:"discount"`
	Amount             decimal.Decimal `json:"amount"`
	Taxes              []TaxResponse   `json:"taxes,omitempty"`
}

// RelatedDocumentResponse línea del complemento de pago en respuestas.
type RelatedDocumentResponse struct {
	RelatedInvoiceUUID string          `json:"related_invoice_uuid"`
	SerieAndFolio      string          `json:"serie_and_folio"`
	CurrencyDR         string          `json:"currency_dr"`
	PaymentMethodDR    string          `json:"payment_method_dr"`
	Partiality         int             `json:"partiality"`
	LastBalance        decimal.Decimal `json:"last_balance"`
	Amount             decimal.Decimal `json:"amount"`
	CurrentBalance     decimal.Decimal `json:"current_balance"`
}

// ComplementResponse nodo Pagos en respuestas.
type ComplementResponse struct {
	Version          string                    `json:"version"`
	PaymentDate      time.Time                 `json:"payment_date"`
	PaymentForm      string                    `json:"payment_form"`
	Currency         string                    `json:"currency"`
	Amount           decimal.Decimal           `json:"amount"`
	OrderingBankName string                    `json:"ordering_bank_name,omitempty"`
	OrderingBankRFC  string                    `json:"ordering_bank_rfc,omitempty"`
	OrderingAccount  string                    `json:"ordering_account,omitempty"`
	RelatedDocuments []RelatedDocumentResponse `json:"related_documents"`
}

// RelatedCFDIResponse relación declarada hacia otro comprobante.
type RelatedCFDIResponse struct {
	UUID             string `json:"uuid"`
	RelationshipType string `json:"relationship_type,omitempty"`
}

// InvoiceResponse comprobante completo para GET /api/invoices/:id.
type InvoiceResponse struct {
	ID             string                `json:"id"`
	UUID           string                `json:"uuid"`
	Serie          string                `json:"serie"`
	Folio          int64                 `json:"folio"`
	CompType       string                `json:"comp_type"`
	Status         string                `json:"status"`
	CreatedDate    time.Time             `json:"created_date"`
	PaymentForm    string                `json:"payment_form,omitempty"`
	PaymentMethod  string                `json:"payment_method,omitempty"`
	Currency       string                `json:"currency"`
	SubTotal       decimal.Decimal       `json:"sub_total"`
	Discount       decimal.Decimal       `json:"discount"`
	TotalTaxAmount decimal.Decimal       `json:"total_tax_amount"`
	Total          decimal.Decimal       `json:"total"`
	IssuerRFC      string                `json:"issuer_rfc"`
	ReceptorRFC    string                `json:"receptor_rfc"`
	ReceptorName   string                `json:"receptor_name"`
	Concepts       []ConceptResponse     `json:"concepts"`
	Complement     *ComplementResponse   `json:"complement,omitempty"`
	RelatedCfdis   []RelatedCFDIResponse `json:"related_cfdis,omitempty"`
	XMLURL         string                `json:"xml_url,omitempty"`
	PDFURL         string                `json:"pdf_url,omitempty"`
	QRCode         string                `json:"qr_code,omitempty"`
	CancelledDate  *time.Time            `json:"cancelled_date,omitempty"`
}

// NewInvoiceResponse proyecta la entidad al contrato HTTP.
func NewInvoiceResponse(inv *entity.Invoice) InvoiceResponse {
	concepts := make([]ConceptResponse, 0, len(inv.Concepts))
	for _, c := range inv.Concepts {
		taxes := make([]TaxResponse, 0, len(c.Taxes))
		for _, t := range c.Taxes {
			taxes = append(taxes, TaxResponse{
				Base: t.Base, Rate: t.Rate, Amount: t.Amount,
				TaxCode: t.TaxCode, FactorType: t.FactorType,
			})
		}
		concepts = append(concepts, ConceptResponse{
			Description:        c.Description,
			UnitCode:           c.UnitCode,
			ProductServiceCode: c.ProductServiceCode,
			UnitValue:          c.UnitValue,
			Quantity:           c.Quantity,
			Discount:           c.Discount,
			Amount:             c.Amount,
			Taxes:              taxes,
		})
	}

	resp := InvoiceResponse{
		ID:             inv.ID,
		UUID:           inv.UUID,
		Serie:          inv.Serie,
		Folio:          inv.Folio,
		CompType:       inv.CompType,
		Status:         inv.Status,
		CreatedDate:    inv.CreatedDate,
		PaymentForm:    inv.PaymentForm,
		PaymentMethod:  inv.PaymentMethod,
		Currency:       inv.Currency,
		SubTotal:       inv.SubTotal,
		Discount:       inv.Discount,
		TotalTaxAmount: inv.TotalTaxAmount,
		Total:          inv.Total,
		IssuerRFC:      inv.Issuer.RFC,
		ReceptorRFC:    inv.Receptor.RFC,
		ReceptorName:   inv.Receptor.Name,
		Concepts:       concepts,
		XMLURL:         inv.XMLURL,
		PDFURL:         inv.PDFURL,
		QRCode:         inv.QRCode,
		CancelledDate:  inv.CancelledDate,
	}

	for _, rel := range inv.RelatedCfdis {
		resp.RelatedCfdis = append(resp.RelatedCfdis, RelatedCFDIResponse{
			UUID: rel.UUID, RelationshipType: rel.RelationshipType,
		})
	}

	if inv.Complement != nil {
		comp := &ComplementResponse{
			Version:          inv.Complement.Version,
			PaymentDate:      inv.Complement.PaymentDate,
			PaymentForm:      inv.Complement.PaymentForm,
			Currency:         inv.Complement.Currency,
			Amount:           inv.Complement.Amount,
			OrderingBankName: inv.Complement.OrderingBankName,
			OrderingBankRFC:  inv.Complement.OrderingBankRFC,
			OrderingAccount:  inv.Complement.OrderingAccount,
		}
		for _, rd := range inv.Complement.RelatedDocuments {
			comp.RelatedDocuments = append(comp.RelatedDocuments, RelatedDocumentResponse{
				RelatedInvoiceUUID: rd.RelatedInvoiceUUID,
				SerieAndFolio:      rd.SerieAndFolio,
				CurrencyDR:         rd.CurrencyDR,
				PaymentMethodDR:    rd.PaymentMethodDR,
				Partiality:         rd.Partiality,
				LastBalance:        rd.LastBalance,
				Amount:             rd.Amount,
				CurrentBalance:     rd.CurrentBalance,
			})
		}
		resp.Complement = comp
	}
	return resp
}

// PaymentInvoicesResponse respuesta de facturar un pago: complemento y/o
// factura simple.
type PaymentInvoicesResponse struct {
	Complement *InvoiceResponse `json:"complement,omitempty"`
	Invoice    *InvoiceResponse `json:"invoice,omitempty"`
}

// CreditNoteResponse respuesta de la emisión de una nota de crédito.
type CreditNoteResponse struct {
	Invoice       InvoiceResponse `json:"invoice"`
	PaymentID     string          `json:"payment_id"`
	MailingErrors []string        `json:"mailing_errors,omitempty"`
}

// StatusResponse respuesta de GET /api/invoices/:id/status.
type StatusResponse struct {
	ID                 string `json:"id"`
	UUID               string `json:"uuid"`
	Status             string `json:"status"`
	ProviderStatus     string `json:"provider_status"`
	CancellationStatus string `json:"cancellation_status,omitempty"`
	IsItCancelable     string `json:"is_it_cancelable,omitempty"`
	Updated            bool   `json:"updated"`
}

// CancellationResponse respuesta de POST /api/invoices/:id/cancellation.
type CancellationResponse struct {
	Status    string           `json:"status"`
	Message   string           `json:"message"`
	Comments  string           `json:"comments,omitempty"`
	Invoice   *InvoiceResponse `json:"invoice,omitempty"`
	PaymentID string           `json:"payment_id,omitempty"`
	ReceiptID string           `json:"receipt_id,omitempty"`
	Errors    []string         `json:"errors,omitempty"`
}

// AuditResponse respuesta de POST /api/invoices/audit.
type AuditResponse struct {
	Status  string   `json:"status"`
	Message string   `json:"message"`
	Errors  []string `json:"errors,omitempty"`
}
