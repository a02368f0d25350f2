package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/facturante/facturacion-api/internal/domain/entity"
	"github.com/facturante/facturacion-api/internal/domain/repository"
)

var _ repository.ReceiptRepository = (*ReceiptRepo)(nil)

// ReceiptRepo implementación de ReceiptRepository (usable con pool o tx).
type ReceiptRepo struct {
	q Querier
}

// NewReceiptRepository construye el adaptador. Pasar pool o tx (Querier).
func NewReceiptRepository(q Querier) *ReceiptRepo {
	return &ReceiptRepo{q: q}
}

const receiptColumns = `
	id, client_id, folio, total, pending_amount, previous_balance,
	status, invoice_id, items, created_at, updated_at`

// Update persiste saldo, estado y comprobante ligado.
func (r *ReceiptRepo) Update(ctx context.Context, rec *entity.Receipt) error {
	query := `
		UPDATE receipts
		SET pending_amount = $2, status = $3, invoice_id = $4, updated_at = $5
		WHERE id = $1`
	_, err := r.q.Exec(ctx, query,
		rec.ID, rec.PendingAmount, rec.Status, nullIfEmpty(rec.InvoiceID), rec.UpdatedAt)
	if err != nil {
		return fmt.Errorf("actualizar recibo: %w", err)
	}
	return nil
}

// GetByID obtiene un recibo, o nil si no existe.
func (r *ReceiptRepo) GetByID(ctx context.Context, id string) (*entity.Receipt, error) {
	query := `SELECT ` + receiptColumns + ` FROM receipts WHERE id = $1`
	rec, err := scanReceipt(r.q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("obtener recibo: %w", err)
	}
	return rec, nil
}

// GetOwnerOfInvoice devuelve el recibo cuyo comprobante es invoiceID, o nil.
func (r *ReceiptRepo) GetOwnerOfInvoice(ctx context.Context, invoiceID string) (*entity.Receipt, error) {
	query := `SELECT ` + receiptColumns + ` FROM receipts WHERE invoice_id = $1`
	rec, err := scanReceipt(r.q.QueryRow(ctx, query, invoiceID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("obtener recibo dueño: %w", err)
	}
	return rec, nil
}

func scanReceipt(row pgx.Row) (*entity.Receipt, error) {
	var (
		rec       entity.Receipt
		items     []byte
		invoiceID *string
	)
	err := row.Scan(
		&rec.ID, &rec.ClientID, &rec.Folio, &rec.Total, &rec.PendingAmount,
		&rec.PreviousBalance, &rec.Status, &invoiceID, &items,
		&rec.CreatedAt, &rec.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := fromJSON(items, &rec.Items); err != nil {
		return nil, err
	}
	rec.InvoiceID = deref(invoiceID)
	return &rec, nil
}
