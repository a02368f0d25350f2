package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/facturante/facturacion-api/internal/domain/entity"
	"github.com/facturante/facturacion-api/internal/domain/repository"
)

var _ repository.PaymentRepository = (*PaymentRepo)(nil)

// PaymentRepo implementación de PaymentRepository (usable con pool o tx).
// Los detalles de asignación van en JSONB; la lista de comprobantes en un
// arreglo de texto para la búsqueda inversa de dueño.
type PaymentRepo struct {
	q Querier
}

// NewPaymentRepository construye el adaptador. Pasar pool o tx (Querier).
func NewPaymentRepository(q Querier) *PaymentRepo {
	return &PaymentRepo{q: q}
}

const paymentColumns = `
	id, client_id, amount_paid, payment_date, payment_form, status,
	ordering_bank_name, ordering_bank_rfc, ordering_account,
	invoice_ids, details, created_at, updated_at`

// Create registra un pago en el ledger.
func (r *PaymentRepo) Create(ctx context.Context, p *entity.Payment) error {
	details, err := asJSON(p.Details)
	if err != nil {
		return err
	}
	query := `
		INSERT INTO payments (` + paymentColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`
	_, err = r.q.Exec(ctx, query,
		p.ID, p.ClientID, p.AmountPaid, p.PaymentDate, p.PaymentForm, p.Status,
		nullIfEmpty(p.OrderingBankName), nullIfEmpty(p.OrderingBankRFC),
		nullIfEmpty(p.OrderingAccount),
		p.InvoiceIDs, details, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insertar pago: %w", err)
	}
	return nil
}

// Update persiste estado, comprobantes y detalles de asignación.
func (r *PaymentRepo) Update(ctx context.Context, p *entity.Payment) error {
	details, err := asJSON(p.Details)
	if err != nil {
		return err
	}
	query := `
		UPDATE payments
		SET status = $2, invoice_ids = $3, details = $4, updated_at = $5
		WHERE id = $1`
	_, err = r.q.Exec(ctx, query, p.ID, p.Status, p.InvoiceIDs, details, p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("actualizar pago: %w", err)
	}
	return nil
}

// GetByID obtiene un pago, o nil si no existe.
func (r *PaymentRepo) GetByID(ctx context.Context, id string) (*entity.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE id = $1`
	p, err := scanPayment(r.q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("obtener pago: %w", err)
	}
	return p, nil
}

// ListByReceipt devuelve los pagos con asignación al recibo dado.
func (r *PaymentRepo) ListByReceipt(ctx context.Context, receiptID string) ([]*entity.Payment, error) {
	query := `
		SELECT ` + paymentColumns + `
		FROM payments
		WHERE details @> $1::jsonb
		ORDER BY payment_date`
	filter, err := asJSON([]map[string]string{{"ReceiptID": receiptID}})
	if err != nil {
		return nil, err
	}

	rows, err := r.q.Query(ctx, query, filter)
	if err != nil {
		return nil, fmt.Errorf("listar pagos del recibo: %w", err)
	}
	defer rows.Close()

	var payments []*entity.Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, fmt.Errorf("leer pago: %w", err)
		}
		payments = append(payments, p)
	}
	return payments, rows.Err()
}

// GetOwnerOfInvoice devuelve el pago cuya lista de comprobantes contiene el
// ID dado, o nil si ninguno lo posee.
func (r *PaymentRepo) GetOwnerOfInvoice(ctx context.Context, invoiceID string) (*entity.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE $1 = ANY(invoice_ids)`
	p, err := scanPayment(r.q.QueryRow(ctx, query, invoiceID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("obtener pago dueño: %w", err)
	}
	return p, nil
}

func scanPayment(row pgx.Row) (*entity.Payment, error) {
	var (
		p        entity.Payment
		details  []byte
		bankName, bankRFC, account *string
	)
	err := row.Scan(
		&p.ID, &p.ClientID, &p.AmountPaid, &p.PaymentDate, &p.PaymentForm, &p.Status,
		&bankName, &bankRFC, &account,
		&p.InvoiceIDs, &details, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := fromJSON(details, &p.Details); err != nil {
		return nil, err
	}
	p.OrderingBankName = deref(bankName)
	p.OrderingBankRFC = deref(bankRFC)
	p.OrderingAccount = deref(account)
	return &p, nil
}
