package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/facturante/facturacion-api/internal/domain/entity"
	"github.com/facturante/facturacion-api/internal/domain/repository"
)

var _ repository.InvoiceRepository = (*InvoiceRepo)(nil)

// InvoiceRepo implementación de InvoiceRepository (usable con pool o tx).
// Las estructuras anidadas del comprobante (conceptos, impuestos, complemento,
// relaciones) se guardan como JSONB; los campos consultables van en columnas.
type InvoiceRepo struct {
	q Querier
}

// NewInvoiceRepository construye el adaptador. Pasar pool o tx (Querier).
func NewInvoiceRepository(q Querier) *InvoiceRepo {
	return &InvoiceRepo{q: q}
}

// invoiceBody estructuras anidadas serializadas a JSONB.
type invoiceBody struct {
	Concepts     []entity.Concept          `json:"concepts"`
	TaxDetails   []entity.Tax              `json:"taxDetails"`
	Complement   *entity.PaymentComplement `json:"complement,omitempty"`
	RelatedCfdis []entity.RelatedCFDI      `json:"relatedCfdis,omitempty"`
}

const invoiceColumns = `
	id, uuid, version, serie, folio, comp_type, status, created_date,
	payment_form, payment_method, currency, exchange_rate, expedition_place,
	sub_total, discount, total_tax_amount, total,
	issuer_rfc, issuer_name, issuer_tax_regime,
	receptor_rfc, receptor_name, receptor_cfdi_use,
	body, affected_cfdis,
	xml_url, pdf_url, raw_document, stamped_xml, qr_code, original_string,
	cancelled_date, created_at, updated_at`

// Create persiste un comprobante recién timbrado.
func (r *InvoiceRepo) Create(ctx context.Context, inv *entity.Invoice) error {
	body, err := asJSON(invoiceBody{
		Concepts:     inv.Concepts,
		TaxDetails:   inv.TaxDetails,
		Complement:   inv.Complement,
		RelatedCfdis: inv.RelatedCfdis,
	})
	if err != nil {
		return err
	}

	query := `
		INSERT INTO invoices (` + invoiceColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14,
		        $15, $16, $17, $18, $19, $20, $21, $22, $23, $24, $25, $26,
		        $27, $28, $29, $30, $31, $32, $33, $34)`
	_, err = r.q.Exec(ctx, query,
		inv.ID, inv.UUID, inv.Version, inv.Serie, inv.Folio, inv.CompType,
		inv.Status, inv.CreatedDate,
		nullIfEmpty(inv.PaymentForm), nullIfEmpty(inv.PaymentMethod),
		inv.Currency, inv.ExchangeRate, inv.ExpeditionPlace,
		inv.SubTotal, inv.Discount, inv.TotalTaxAmount, inv.Total,
		inv.Issuer.RFC, inv.Issuer.Name, inv.Issuer.TaxRegime,
		inv.Receptor.RFC, inv.Receptor.Name, inv.Receptor.CfdiUse,
		body, inv.AffectedCFDIs,
		nullIfEmpty(inv.XMLURL), nullIfEmpty(inv.PDFURL),
		nullIfEmpty(inv.RawDocument), nullIfEmpty(inv.StampedXML),
		nullIfEmpty(inv.QRCode), nullIfEmpty(inv.OriginalString),
		inv.CancelledDate, inv.CreatedAt, inv.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("el folio fiscal %s ya existe: %w", inv.UUID, err)
		}
		return fmt.Errorf("insertar comprobante: %w", err)
	}
	return nil
}

// Update actualiza la proyección timbrada completa.
func (r *InvoiceRepo) Update(ctx context.Context, inv *entity.Invoice) error {
	body, err := asJSON(invoiceBody{
		Concepts:     inv.Concepts,
		TaxDetails:   inv.TaxDetails,
		Complement:   inv.Complement,
		RelatedCfdis: inv.RelatedCfdis,
	})
	if err != nil {
		return err
	}

	query := `
		UPDATE invoices
		SET status = $2, body = $3, affected_cfdis = $4,
		    xml_url = $5, pdf_url = $6, raw_document = $7, stamped_xml = $8,
		    qr_code = $9, original_string = $10, cancelled_date = $11,
		    updated_at = $12
		WHERE id = $1`
	_, err = r.q.Exec(ctx, query,
		inv.ID, inv.Status, body, inv.AffectedCFDIs,
		nullIfEmpty(inv.XMLURL), nullIfEmpty(inv.PDFURL),
		nullIfEmpty(inv.RawDocument), nullIfEmpty(inv.StampedXML),
		nullIfEmpty(inv.QRCode), nullIfEmpty(inv.OriginalString),
		inv.CancelledDate, inv.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("actualizar comprobante: %w", err)
	}
	return nil
}

// UpdateStatus cambia solo el estado; al pasar a cancelled registra la fecha.
func (r *InvoiceRepo) UpdateStatus(ctx context.Context, id, status string) error {
	query := `
		UPDATE invoices
		SET status = $2,
		    cancelled_date = CASE WHEN $2 = 'cancelled' THEN now() ELSE cancelled_date END,
		    updated_at = $3
		WHERE id = $1`
	_, err := r.q.Exec(ctx, query, id, status, time.Now())
	if err != nil {
		return fmt.Errorf("actualizar estado del comprobante: %w", err)
	}
	return nil
}

// GetByID obtiene un comprobante por ID interno, o nil si no existe.
func (r *InvoiceRepo) GetByID(ctx context.Context, id string) (*entity.Invoice, error) {
	return r.getOne(ctx, `SELECT `+invoiceColumns+` FROM invoices WHERE id = $1`, id)
}

// GetByUUID obtiene un comprobante por folio fiscal, o nil si no existe.
func (r *InvoiceRepo) GetByUUID(ctx context.Context, uuid string) (*entity.Invoice, error) {
	return r.getOne(ctx, `SELECT `+invoiceColumns+` FROM invoices WHERE uuid = $1`, uuid)
}

// ListAffecting devuelve los comprobantes cuyo affected_cfdis contiene el
// UUID dado.
func (r *InvoiceRepo) ListAffecting(ctx context.Context, uuid string) ([]*entity.Invoice, error) {
	query := `SELECT ` + invoiceColumns + ` FROM invoices WHERE $1 = ANY(affected_cfdis) ORDER BY created_at`
	return r.list(ctx, query, uuid)
}

// ListByStatus lista comprobantes por estado.
func (r *InvoiceRepo) ListByStatus(ctx context.Context, status string) ([]*entity.Invoice, error) {
	query := `SELECT ` + invoiceColumns + ` FROM invoices WHERE status = $1 ORDER BY created_at`
	return r.list(ctx, query, status)
}

func (r *InvoiceRepo) getOne(ctx context.Context, query string, arg any) (*entity.Invoice, error) {
	inv, err := scanInvoice(r.q.QueryRow(ctx, query, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("obtener comprobante: %w", err)
	}
	return inv, nil
}

func (r *InvoiceRepo) list(ctx context.Context, query string, arg any) ([]*entity.Invoice, error) {
	rows, err := r.q.Query(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("listar comprobantes: %w", err)
	}
	defer rows.Close()

	var invoices []*entity.Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, fmt.Errorf("leer comprobante: %w", err)
		}
		invoices = append(invoices, inv)
	}
	return invoices, rows.Err()
}

func scanInvoice(row pgx.Row) (*entity.Invoice, error) {
	var (
		inv         entity.Invoice
		body        []byte
		paymentForm, paymentMethod *string
		xmlURL, pdfURL, rawDoc, stampedXML, qrCode, originalStr *string
	)
	err := row.Scan(
		&inv.ID, &inv.UUID, &inv.Version, &inv.Serie, &inv.Folio, &inv.CompType,
		&inv.Status, &inv.CreatedDate,
		&paymentForm, &paymentMethod,
		&inv.Currency, &inv.ExchangeRate, &inv.ExpeditionPlace,
		&inv.SubTotal, &inv.Discount, &inv.TotalTaxAmount, &inv.Total,
		&inv.Issuer.RFC, &inv.Issuer.Name, &inv.Issuer.TaxRegime,
		&inv.Receptor.RFC, &inv.Receptor.Name, &inv.Receptor.CfdiUse,
		&body, &inv.AffectedCFDIs,
		&xmlURL, &pdfURL, &rawDoc, &stampedXML, &qrCode, &originalStr,
		&inv.CancelledDate, &inv.CreatedAt, &inv.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	var b invoiceBody
	if err := fromJSON(body, &b); err != nil {
		return nil, err
	}
	inv.Concepts = b.Concepts
	inv.TaxDetails = b.TaxDetails
	inv.Complement = b.Complement
	inv.RelatedCfdis = b.RelatedCfdis

	inv.PaymentForm = deref(paymentForm)
	inv.PaymentMethod = deref(paymentMethod)
	inv.XMLURL = deref(xmlURL)
	inv.PDFURL = deref(pdfURL)
	inv.RawDocument = deref(rawDoc)
	inv.StampedXML = deref(stampedXML)
	inv.QRCode = deref(qrCode)
	inv.OriginalString = deref(originalStr)
	return &inv, nil
}
