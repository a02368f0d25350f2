package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados de un pago.
//   - active:     aplicado a uno o más recibos, con comprobante(s) vigente(s).
//   - unassigned: su comprobante fue cancelado o se le retiró un recibo.
//   - cancelled:  pago revertido por completo.
//   - credit:     pago espejo generado por una nota de crédito; no cuenta
//     como pago hermano al calcular parcialidades.
const (
	PaymentStatusActive     = "active"
	PaymentStatusUnassigned = "unassigned"
	PaymentStatusCancelled  = "cancelled"
	PaymentStatusCredit     = "credit"
)

// PaymentDetail asignación de una parte del pago a un recibo.
type PaymentDetail struct {
	ReceiptID string
	Amount    decimal.Decimal
}

// Payment pago registrado en el ledger, repartido entre recibos mediante
// Details. InvoiceIDs lista los comprobantes (P o I) que lo documentan.
type Payment struct {
	ID          string
	ClientID    string
	AmountPaid  decimal.Decimal
	PaymentDate time.Time
	PaymentForm string
	Status      string

	// Cuenta ordenante, solo para formas de pago bancarias.
	OrderingBankName string
	OrderingBankRFC  string
	OrderingAccount  string

	InvoiceIDs []string
	Details    []PaymentDetail
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// DetailFor devuelve el monto asignado a un recibo, o cero si no hay detalle.
func (p *Payment) DetailFor(receiptID string) decimal.Decimal {
	for _, d := range p.Details {
		if d.ReceiptID == receiptID {
			return d.Amount
		}
	}
	return decimal.Zero
}
