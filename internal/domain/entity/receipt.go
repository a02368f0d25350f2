package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados de un recibo de cobro.
const (
	ReceiptStatusPending   = "pending"
	ReceiptStatusPaid      = "paid"
	ReceiptStatusCancelled = "cancelled"
)

// ReceiptItem partida de un recibo (cargo de la suscripción).
type ReceiptItem struct {
	Description        string
	UnitCode           string
	ProductServiceCode string
	UnitCost           decimal.Decimal
	Quantity           decimal.Decimal
	Discount           decimal.Decimal
}

// Amount importe de la partida sin impuestos, redondeado a centavos.
func (it ReceiptItem) Amount() decimal.Decimal {
	return it.UnitCost.Mul(it.Quantity).Sub(it.Discount).Round(2)
}

// Receipt recibo de cobro de una suscripción. PreviousBalance es el saldo a
// favor del cliente (con IVA incluido) disponible para bonificar partidas al
// facturar. InvoiceID referencia el comprobante timbrado, si existe.
type Receipt struct {
	ID              string
	ClientID        string
	Folio           int64
	Total           decimal.Decimal
	PendingAmount   decimal.Decimal
	PreviousBalance decimal.Decimal
	Status          string
	InvoiceID       string
	Items           []ReceiptItem
	CreatedAt       time.Time
	UpdatedAt       time.Time
}
