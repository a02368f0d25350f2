package billing

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/facturante/facturacion-api/internal/domain"
	"github.com/facturante/facturacion-api/internal/domain/cfdi"
	"github.com/facturante/facturacion-api/internal/domain/entity"
	"github.com/facturante/facturacion-api/internal/domain/repository"
	pkgcfdi "github.com/facturante/facturacion-api/pkg/cfdi"
)

// Allocation asignación de una parte del pago a un recibo.
type Allocation struct {
	ReceiptID string
	Amount    decimal.Decimal
}

// ComplementDrafts salida del builder: hasta dos borradores.
//   - Complement (serie P): solo si hubo documentos relacionados (recibos con
//     factura timbrada).
//   - Invoice (serie I, PUE): conceptos simples de recibos sin factura más el
//     remanente no aplicado del pago.
type ComplementDrafts struct {
	Complement *entity.Invoice
	Invoice    *entity.Invoice
}

// ComplementBuilder reparte un pago entre recibos: produce las líneas del
// complemento de pago y/o conceptos gravados simples, llevando saldos y
// parcialidades por recibo. Cualquier falla de lectura aborta el reparto
// completo; nunca se persiste un complemento parcial.
type ComplementBuilder struct {
	receiptRepo repository.ReceiptRepository
	paymentRepo repository.PaymentRepository
	invoiceRepo repository.InvoiceRepository
}

// NewComplementBuilder construye el builder.
func NewComplementBuilder(
	receiptRepo repository.ReceiptRepository,
	paymentRepo repository.PaymentRepository,
	invoiceRepo repository.InvoiceRepository,
) *ComplementBuilder {
	return &ComplementBuilder{
		receiptRepo: receiptRepo,
		paymentRepo: paymentRepo,
		invoiceRepo: invoiceRepo,
	}
}

// creditedTotal suma los totales de las notas de crédito (relación 01) que
// afectan al UUID dado.
func (b *ComplementBuilder) creditedTotal(ctx context.Context, uuid string) (decimal.Decimal, error) {
	affecting, err := b.invoiceRepo.ListAffecting(ctx, uuid)
	if err != nil {
		return decimal.Zero, fmt.Errorf("consultar notas de crédito de %s: %w", uuid, err)
	}
	total := decimal.Zero
	for _, inv := range affecting {
		if inv.Serie != pkgcfdi.CompTypeEgreso {
			continue
		}
		for _, rel := range inv.RelatedCfdis {
			if rel.UUID == uuid && rel.RelationshipType == pkgcfdi.RelationCreditNote {
				total = total.Add(inv.Total)
				break
			}
		}
	}
	return cfdi.Round2(total), nil
}

// Build procesa las asignaciones en orden y devuelve los borradores.
func (b *ComplementBuilder) Build(
	ctx context.Context,
	payment *entity.Payment,
	allocations []Allocation,
	client *entity.Client,
	issuer *entity.Account,
	now time.Time,
) (*ComplementDrafts, error) {
	var (
		relDocs         []entity.RelatedDocument
		concepts        []entity.Concept
		complementTotal = decimal.Zero
		conceptsTotal   = decimal.Zero
	)

	for _, alloc := range allocations {
		receipt, err := b.receiptRepo.GetByID(ctx, alloc.ReceiptID)
		if err != nil {
			return nil, fmt.Errorf("obtener recibo %s: %w", alloc.ReceiptID, err)
		}
		if receipt == nil {
			return nil, fmt.Errorf("recibo %s: %w", alloc.ReceiptID, domain.ErrNotFound)
		}

		var original *entity.Invoice
		credited := decimal.Zero
		if receipt.InvoiceID != "" {
			original, err = b.invoiceRepo.GetByID(ctx, receipt.InvoiceID)
			if err != nil {
				return nil, fmt.Errorf("obtener factura del recibo %s: %w", receipt.ID, err)
			}
			if original != nil && original.UUID != "" {
				credited, err = b.creditedTotal(ctx, original.UUID)
				if err != nil {
					return nil, err
				}
			}
		}

		siblings, err := b.paymentRepo.ListByReceipt(ctx, receipt.ID)
		if err != nil {
			return nil, fmt.Errorf("consultar pagos del recibo %s: %w", receipt.ID, err)
		}
		totalPaid := credited
		siblingCount := 0
		for _, s := range siblings {
			if s.ID == payment.ID || s.Status == entity.PaymentStatusCredit {
				continue
			}
			siblingCount++
			totalPaid = totalPaid.Add(s.DetailFor(receipt.ID))
		}
		partiality := siblingCount + 1

		lastBalance := cfdi.Round2(receipt.Total.Sub(totalPaid))
		if lastBalance.LessThan(decimal.Zero) {
			lastBalance = decimal.Zero
		}
		// Piso defensivo: el saldo anterior nunca es menor al monto aplicado.
		if lastBalance.LessThan(alloc.Amount) {
			lastBalance = alloc.Amount
		}
		currentBalance := cfdi.Round2(lastBalance.Sub(alloc.Amount))
		if currentBalance.LessThan(decimal.Zero) {
			currentBalance = decimal.Zero
		}

		if original != nil && original.UUID != "" {
			relDocs = append(relDocs, entity.RelatedDocument{
				RelatedInvoiceUUID: original.UUID,
				CurrencyDR:         original.Currency,
				PaymentMethodDR:    original.PaymentMethod,
				Partiality:         partiality,
				LastBalance:        lastBalance,
				Amount:             alloc.Amount,
				CurrentBalance:     currentBalance,
				SerieAndFolio:      original.SerieAndFolio(),
			})
			complementTotal = cfdi.Round2(complementTotal.Add(alloc.Amount))
		} else {
			concept := entity.Concept{
				Description:        fmt.Sprintf("Pago del recibo %d", receipt.Folio),
				UnitCode:           pkgcfdi.DefaultConceptUnit,
				ProductServiceCode: pkgcfdi.DefaultProductServiceCode,
				UnitValue:          cfdi.Round2(alloc.Amount.Div(pkgcfdi.VATDivisor)),
				Quantity:           decimal.NewFromInt(1),
			}
			concepts = append(concepts, cfdi.ReconcileConceptTax(concept, alloc.Amount))
			conceptsTotal = cfdi.Round2(conceptsTotal.Add(alloc.Amount))
		}
	}

	drafts := &ComplementDrafts{}

	if len(relDocs) > 0 {
		drafts.Complement = b.buildComplementDraft(payment, relDocs, complementTotal, client, issuer, now)
	}

	remainder := cfdi.Round2(payment.AmountPaid.Sub(complementTotal).Sub(conceptsTotal))
	if remainder.GreaterThan(decimal.Zero) {
		concept := entity.Concept{
			Description:        "Pago no aplicado a recibos",
			UnitCode:           pkgcfdi.DefaultConceptUnit,
			ProductServiceCode: pkgcfdi.DefaultProductServiceCode,
			UnitValue:          cfdi.Round2(remainder.Div(pkgcfdi.VATDivisor)),
			Quantity:           decimal.NewFromInt(1),
		}
		concepts = append(concepts, cfdi.ReconcileConceptTax(concept, remainder))
	}

	if len(concepts) > 0 {
		draft := newDraft(pkgcfdi.CompTypeIngreso, pkgcfdi.CompTypeIngreso, issuer, client, now)
		draft.PaymentMethod = pkgcfdi.PaymentMethodPUE
		draft.PaymentForm = payment.PaymentForm
		applyTotals(draft, cfdi.FilterConcepts(concepts))
		drafts.Invoice = draft
	}

	return drafts, nil
}

// buildComplementDraft arma el comprobante tipo P: moneda centinela XXX, sin
// método de pago ni bloque de impuestos, un único concepto fijo, y el nodo
// Pagos con los documentos relacionados.
func (b *ComplementBuilder) buildComplementDraft(
	payment *entity.Payment,
	relDocs []entity.RelatedDocument,
	total decimal.Decimal,
	client *entity.Client,
	issuer *entity.Account,
	now time.Time,
) *entity.Invoice {
	draft := newDraft(pkgcfdi.CompTypeComplemento, pkgcfdi.CompTypeComplemento, issuer, client, now)
	draft.Currency = pkgcfdi.CurrencySentinel
	draft.ExchangeRate = decimal.Zero
	draft.PaymentMethod = ""
	draft.PaymentForm = ""
	draft.Receptor.CfdiUse = pkgcfdi.CfdiUsePagos
	draft.SubTotal = decimal.Zero
	draft.Total = decimal.Zero
	draft.Concepts = []entity.Concept{{
		Description:        pkgcfdi.ComplementConceptDescription,
		UnitCode:           pkgcfdi.ComplementConceptUnit,
		ProductServiceCode: pkgcfdi.ComplementConceptCode,
		UnitValue:          decimal.Zero,
		Quantity:           decimal.NewFromInt(1),
		Amount:             decimal.Zero,
	}}

	complement := &entity.PaymentComplement{
		Version:          pkgcfdi.ComplementVersion,
		PaymentDate:      payment.PaymentDate,
		PaymentForm:      payment.PaymentForm,
		Currency:         pkgcfdi.CurrencyMXN,
		ExchangeRate:     decimal.NewFromInt(1),
		Amount:           total,
		RelatedDocuments: relDocs,
	}
	if pkgcfdi.BankOperationPaymentForms[payment.PaymentForm] {
		complement.OrderingBankName = payment.OrderingBankName
		complement.OrderingBankRFC = payment.OrderingBankRFC
		complement.OrderingAccount = payment.OrderingAccount
	}
	draft.Complement = complement
	return draft
}
