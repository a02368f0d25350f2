package billing

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/facturante/facturacion-api/internal/domain"
	"github.com/facturante/facturacion-api/internal/domain/cfdi"
	"github.com/facturante/facturacion-api/internal/domain/entity"
	"github.com/facturante/facturacion-api/internal/domain/repository"
	pkgcfdi "github.com/facturante/facturacion-api/pkg/cfdi"
	"github.com/facturante/facturacion-api/pkg/logger"
)

// CreditNoteRequest solicitud de nota de crédito contra una factura timbrada.
type CreditNoteRequest struct {
	InvoiceID        string
	RelationshipType string
	CfdiUse          string
	PaymentForm      string
	PaymentMethod    string // opcional; por defecto PUE
	Concepts         []cfdi.CreditConcept
}

// CreditNoteResult resultado de la emisión: el pago reversa (status credit),
// la nota timbrada y los errores no fatales del envío por correo.
type CreditNoteResult struct {
	Payment       *entity.Payment
	Invoice       *entity.Invoice
	MailingErrors []string
}

// CreditNoteUseCase emite notas de crédito (serie E) contra facturas
// timbradas, aplicando el techo de crédito: lo ya acreditado más lo
// solicitado debe ser estrictamente menor al total original.
type CreditNoteUseCase struct {
	invoiceRepo repository.InvoiceRepository
	paymentRepo repository.PaymentRepository
	receiptRepo repository.ReceiptRepository
	clientRepo  repository.ClientRepository
	accountRepo repository.AccountRepository
	invoiceUC   *InvoiceUseCase
	pdf         PDFGenerator
	mailer      Mailer
	log         *logger.Logger
}

// NewCreditNoteUseCase construye el caso de uso.
func NewCreditNoteUseCase(
	invoiceRepo repository.InvoiceRepository,
	paymentRepo repository.PaymentRepository,
	receiptRepo repository.ReceiptRepository,
	clientRepo repository.ClientRepository,
	accountRepo repository.AccountRepository,
	invoiceUC *InvoiceUseCase,
	pdf PDFGenerator,
	mailer Mailer,
	log *logger.Logger,
) *CreditNoteUseCase {
	return &CreditNoteUseCase{
		invoiceRepo: invoiceRepo,
		paymentRepo: paymentRepo,
		receiptRepo: receiptRepo,
		clientRepo:  clientRepo,
		accountRepo: accountRepo,
		invoiceUC:   invoiceUC,
		pdf:         pdf,
		mailer:      mailer,
		log:         log,
	}
}

// originalTotal total del documento original. Los comprobantes tipo P
// reportan 0 en el nivel superior; en ese caso se usa el monto del
// complemento de pago.
func originalTotal(inv *entity.Invoice) decimal.Decimal {
	if inv.Total.IsZero() && inv.Complement != nil {
		return inv.Complement.Amount
	}
	return inv.Total
}

// alreadyCredited suma los totales de todos los comprobantes serie E que
// afectan al UUID dado.
func (uc *CreditNoteUseCase) alreadyCredited(ctx context.Context, uuid string) (decimal.Decimal, error) {
	affecting, err := uc.invoiceRepo.ListAffecting(ctx, uuid)
	if err != nil {
		return decimal.Zero, fmt.Errorf("consultar comprobantes que afectan a %s: %w", uuid, err)
	}
	total := decimal.Zero
	for _, inv := range affecting {
		if inv.Serie == pkgcfdi.CompTypeEgreso {
			total = total.Add(inv.Total)
		}
	}
	return cfdi.Round2(total), nil
}

// requestedTotal importe solicitado: round2(quantity × unitCost × 1.16) por
// línea, sumado.
func requestedTotal(concepts []cfdi.CreditConcept) decimal.Decimal {
	total := decimal.Zero
	for _, c := range concepts {
		total = total.Add(cfdi.Round2(c.Quantity.Mul(c.UnitCost).Mul(pkgcfdi.VATDivisor)))
	}
	return cfdi.Round2(total)
}

// Issue valida la solicitud, aplica el techo de crédito, timbra la nota y
// registra el pago reversa. El envío por correo es best-effort.
func (uc *CreditNoteUseCase) Issue(ctx context.Context, req CreditNoteRequest) (*CreditNoteResult, error) {
	// Validación local antes de cualquier llamada externa.
	var fields []domain.FieldError
	fields = append(fields, cfdi.ValidateRelationshipType(req.RelationshipType)...)
	fields = append(fields, cfdi.ValidateCfdiUse(req.CfdiUse)...)
	fields = append(fields, cfdi.ValidatePaymentForm(req.PaymentForm)...)
	fields = append(fields, cfdi.ValidateCreditConcepts(req.Concepts)...)
	if len(fields) > 0 {
		return nil, &domain.ValidationError{Module: "creditNotes", Fields: fields}
	}

	original, err := uc.invoiceRepo.GetByID(ctx, req.InvoiceID)
	if err != nil || original == nil {
		return nil, fmt.Errorf("obtener comprobante %s: %w", req.InvoiceID, orNotFound(err))
	}

	origTotal := originalTotal(original)
	credited, err := uc.alreadyCredited(ctx, original.UUID)
	if err != nil {
		return nil, err
	}
	requested := requestedTotal(req.Concepts)

	available := cfdi.Round2(origTotal.Sub(credited))
	if requested.GreaterThanOrEqual(available) {
		return nil, domain.NewBusinessRuleError("creditNotes",
			"el monto solicitado (%s) excede el crédito disponible (%s) del comprobante %s",
			requested.StringFixed(2), available.StringFixed(2), original.UUID)
	}

	client, err := uc.clientRepo.GetByRFC(ctx, original.Receptor.RFC)
	if err != nil || client == nil {
		// Receptor fuera del directorio: se emite con los datos del
		// comprobante original.
		client = &entity.Client{
			RFC:     original.Receptor.RFC,
			Name:    original.Receptor.Name,
			CfdiUse: req.CfdiUse,
		}
	}
	issuer, err := uc.accountRepo.GetIssuer(ctx)
	if err != nil || issuer == nil {
		return nil, fmt.Errorf("obtener emisor: %w", orNotFound(err))
	}

	now := time.Now()

	// Si el original está respaldado por un recibo (no por un pago) y el
	// recibo tiene saldo pendiente, el crédito se aplica primero a ese saldo.
	var detail []entity.PaymentDetail
	owner, err := uc.paymentRepo.GetOwnerOfInvoice(ctx, original.ID)
	if err != nil {
		return nil, fmt.Errorf("consultar pago dueño de %s: %w", original.ID, err)
	}
	if owner == nil {
		receipt, err := uc.receiptRepo.GetOwnerOfInvoice(ctx, original.ID)
		if err != nil {
			return nil, fmt.Errorf("consultar recibo dueño de %s: %w", original.ID, err)
		}
		if receipt != nil && receipt.PendingAmount.GreaterThan(decimal.Zero) {
			applied := requested
			if applied.GreaterThan(receipt.PendingAmount) {
				applied = receipt.PendingAmount
			}
			receipt.PendingAmount = cfdi.Round2(receipt.PendingAmount.Sub(applied))
			if receipt.PendingAmount.IsZero() {
				receipt.Status = entity.ReceiptStatusPaid
			}
			receipt.UpdatedAt = now
			if err := uc.receiptRepo.Update(ctx, receipt); err != nil {
				return nil, fmt.Errorf("aplicar crédito al recibo %s: %w", receipt.ID, err)
			}
			detail = append(detail, entity.PaymentDetail{ReceiptID: receipt.ID, Amount: applied})
		}
	}

	// Borrador serie E con la relación al comprobante original.
	draft := newDraft(pkgcfdi.CompTypeEgreso, pkgcfdi.CompTypeEgreso, issuer, client, now)
	draft.Receptor.CfdiUse = req.CfdiUse
	draft.PaymentForm = req.PaymentForm
	draft.PaymentMethod = req.PaymentMethod
	if draft.PaymentMethod == "" {
		draft.PaymentMethod = pkgcfdi.PaymentMethodPUE
	}
	draft.RelatedCfdis = []entity.RelatedCFDI{{
		UUID:             original.UUID,
		RelationshipType: req.RelationshipType,
	}}

	concepts := make([]entity.Concept, 0, len(req.Concepts))
	for _, c := range req.Concepts {
		lineTotal := cfdi.Round2(c.Quantity.Mul(c.UnitCost).Mul(pkgcfdi.VATDivisor))
		concepts = append(concepts, cfdi.ReconcileConceptTax(entity.Concept{
			Description:        c.Description,
			UnitCode:           pkgcfdi.DefaultConceptUnit,
			ProductServiceCode: pkgcfdi.DefaultProductServiceCode,
			UnitValue:          c.UnitCost,
			Quantity:           c.Quantity,
		}, lineTotal))
	}
	applyTotals(draft, concepts)

	invoice, err := uc.invoiceUC.StampAndPersist(ctx, draft)
	if err != nil {
		return nil, err
	}

	// Pago reversa con status credit: documenta la devolución y queda fuera
	// del conteo de pagos hermanos en parcialidades.
	payment := &entity.Payment{
		ID:          uuid.New().String(),
		ClientID:    client.ID,
		AmountPaid:  requested,
		PaymentDate: now,
		PaymentForm: req.PaymentForm,
		Status:      entity.PaymentStatusCredit,
		InvoiceIDs:  []string{invoice.ID},
		Details:     detail,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := uc.paymentRepo.Create(ctx, payment); err != nil {
		return nil, fmt.Errorf("registrar pago reversa: %w", err)
	}

	result := &CreditNoteResult{Payment: payment, Invoice: invoice}
	result.MailingErrors = uc.mailDocuments(ctx, client, invoice)
	return result, nil
}

// mailDocuments envía XML y PDF al cliente. Las fallas se acumulan y nunca
// abortan la emisión.
func (uc *CreditNoteUseCase) mailDocuments(ctx context.Context, client *entity.Client, inv *entity.Invoice) []string {
	if client.Email == "" {
		return nil
	}
	var mailingErrors []string

	attachments := make([]Attachment, 0, 2)
	if inv.StampedXML != "" {
		attachments = append(attachments, Attachment{
			Filename:    fmt.Sprintf("%s.xml", inv.SerieAndFolio()),
			ContentType: "application/xml",
			Content:     []byte(inv.StampedXML),
		})
	}
	pdfBytes, err := uc.pdf.GenerateInvoicePDF(ctx, inv)
	if err != nil {
		mailingErrors = append(mailingErrors, fmt.Sprintf("generar PDF: %v", err))
	} else {
		attachments = append(attachments, Attachment{
			Filename:    fmt.Sprintf("%s.pdf", inv.SerieAndFolio()),
			ContentType: "application/pdf",
			Content:     pdfBytes,
		})
	}

	subject := fmt.Sprintf("Nota de crédito %s", inv.SerieAndFolio())
	body := fmt.Sprintf("Se adjunta la nota de crédito %s con folio fiscal %s.", inv.SerieAndFolio(), inv.UUID)
	if err := uc.mailer.Send(ctx, []string{client.Email}, subject, body, attachments); err != nil {
		mailingErrors = append(mailingErrors, fmt.Sprintf("enviar correo: %v", err))
		uc.log.Warn().Err(err).Str("uuid", inv.UUID).Msg("no se pudo enviar la nota por correo")
	}
	return mailingErrors
}
