package repository

import (
	"context"

	"github.com/facturante/facturacion-api/internal/domain/entity"
)

// PaymentRepository define el puerto de persistencia del ledger de pagos.
type PaymentRepository interface {
	Create(ctx context.Context, payment *entity.Payment) error
	// Update persiste estado, lista de comprobantes y detalles de asignación.
	Update(ctx context.Context, payment *entity.Payment) error
	GetByID(ctx context.Context, id string) (*entity.Payment, error)
	// ListByReceipt devuelve los pagos que referencian al recibo en sus
	// detalles de asignación.
	ListByReceipt(ctx context.Context, receiptID string) ([]*entity.Payment, error)
	// GetOwnerOfInvoice devuelve el pago dueño del comprobante (su lista de
	// invoices lo contiene), o nil si ningún pago lo posee.
	GetOwnerOfInvoice(ctx context.Context, invoiceID string) (*entity.Payment, error)
}

// ReceiptRepository define el puerto de persistencia de recibos.
type ReceiptRepository interface {
	Update(ctx context.Context, receipt *entity.Receipt) error
	GetByID(ctx context.Context, id string) (*entity.Receipt, error)
	// GetOwnerOfInvoice devuelve el recibo cuyo comprobante es invoiceID,
	// o nil si ninguno lo referencia.
	GetOwnerOfInvoice(ctx context.Context, invoiceID string) (*entity.Receipt, error)
}
