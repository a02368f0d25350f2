package billing

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/facturante/facturacion-api/internal/domain"
	"github.com/facturante/facturacion-api/internal/domain/entity"
	"github.com/facturante/facturacion-api/internal/domain/repository"
	"github.com/facturante/facturacion-api/pkg/logger"
)

// InvoiceUseCase orquesta la emisión de comprobantes: arma el borrador desde
// un recibo o un pago, reserva folio, timbra con el PAC, persiste la
// proyección certificada y almacena XML/PDF.
type InvoiceUseCase struct {
	invoiceRepo repository.InvoiceRepository
	folioRepo   repository.FolioRepository
	clientRepo  repository.ClientRepository
	accountRepo repository.AccountRepository
	receiptRepo repository.ReceiptRepository
	paymentRepo repository.PaymentRepository
	builder     *ComplementBuilder
	stamper     Stamper
	storage     FileStorage
	pdf         PDFGenerator
	log         *logger.Logger
}

// NewInvoiceUseCase construye el caso de uso con todas sus dependencias.
func NewInvoiceUseCase(
	invoiceRepo repository.InvoiceRepository,
	folioRepo repository.FolioRepository,
	clientRepo repository.ClientRepository,
	accountRepo repository.AccountRepository,
	receiptRepo repository.ReceiptRepository,
	paymentRepo repository.PaymentRepository,
	builder *ComplementBuilder,
	stamper Stamper,
	storage FileStorage,
	pdf PDFGenerator,
	log *logger.Logger,
) *InvoiceUseCase {
	return &InvoiceUseCase{
		invoiceRepo: invoiceRepo,
		folioRepo:   folioRepo,
		clientRepo:  clientRepo,
		accountRepo: accountRepo,
		receiptRepo: receiptRepo,
		paymentRepo: paymentRepo,
		builder:     builder,
		stamper:     stamper,
		storage:     storage,
		pdf:         pdf,
		log:         log,
	}
}

// loadParties obtiene emisor y receptor del directorio.
func (uc *InvoiceUseCase) loadParties(ctx context.Context, clientID string) (*entity.Account, *entity.Client, error) {
	issuer, err := uc.accountRepo.GetIssuer(ctx)
	if err != nil || issuer == nil {
		return nil, nil, fmt.Errorf("obtener emisor: %w", orNotFound(err))
	}
	client, err := uc.clientRepo.GetByID(ctx, clientID)
	if err != nil || client == nil {
		return nil, nil, fmt.Errorf("obtener cliente %s: %w", clientID, orNotFound(err))
	}
	return issuer, client, nil
}

func orNotFound(err error) error {
	if err != nil {
		return err
	}
	return domain.ErrNotFound
}

// CreateFromReceipt emite la factura (serie I, PPD) de un recibo de cobro y
// la liga al recibo.
func (uc *InvoiceUseCase) CreateFromReceipt(ctx context.Context, receiptID string) (*entity.Invoice, error) {
	receipt, err := uc.receiptRepo.GetByID(ctx, receiptID)
	if err != nil || receipt == nil {
		return nil, fmt.Errorf("obtener recibo %s: %w", receiptID, orNotFound(err))
	}
	if receipt.InvoiceID != "" {
		return nil, domain.NewBusinessRuleError("invoices", "el recibo %d ya tiene comprobante", receipt.Folio)
	}

	issuer, client, err := uc.loadParties(ctx, receipt.ClientID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	draft, err := BuildFromReceipt(receipt, client, issuer, now)
	if err != nil {
		return nil, err
	}

	invoice, err := uc.StampAndPersist(ctx, draft)
	if err != nil {
		return nil, err
	}

	receipt.InvoiceID = invoice.ID
	receipt.UpdatedAt = now
	if err := uc.receiptRepo.Update(ctx, receipt); err != nil {
		return nil, fmt.Errorf("ligar comprobante al recibo %s: %w", receipt.ID, err)
	}
	return invoice, nil
}

// PaymentInvoices resultado de facturar un pago: complemento y/o factura.
type PaymentInvoices struct {
	Complement *entity.Invoice
	Invoice    *entity.Invoice
}

// CreateFromPayment reparte el pago entre sus recibos y emite hasta dos
// comprobantes: el complemento de pago (serie P) por los recibos ya
// facturados y la factura simple (serie I, PUE) por el resto.
func (uc *InvoiceUseCase) CreateFromPayment(ctx context.Context, paymentID string, allocations []Allocation) (*PaymentInvoices, error) {
	payment, err := uc.paymentRepo.GetByID(ctx, paymentID)
	if err != nil || payment == nil {
		return nil, fmt.Errorf("obtener pago %s: %w", paymentID, orNotFound(err))
	}

	issuer, client, err := uc.loadParties(ctx, payment.ClientID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	drafts, err := uc.builder.Build(ctx, payment, allocations, client, issuer, now)
	if err != nil {
		return nil, err
	}
	if drafts.Complement == nil && drafts.Invoice == nil {
		return nil, domain.ErrEmptyInvoice
	}

	result := &PaymentInvoices{}
	if drafts.Complement != nil {
		inv, err := uc.StampAndPersist(ctx, drafts.Complement)
		if err != nil {
			return nil, err
		}
		result.Complement = inv
		payment.InvoiceIDs = append(payment.InvoiceIDs, inv.ID)
	}
	if drafts.Invoice != nil {
		inv, err := uc.StampAndPersist(ctx, drafts.Invoice)
		if err != nil {
			return nil, err
		}
		result.Invoice = inv
		payment.InvoiceIDs = append(payment.InvoiceIDs, inv.ID)
	}

	payment.Details = make([]entity.PaymentDetail, 0, len(allocations))
	for _, a := range allocations {
		payment.Details = append(payment.Details, entity.PaymentDetail{ReceiptID: a.ReceiptID, Amount: a.Amount})
	}
	payment.Status = entity.PaymentStatusActive
	payment.UpdatedAt = now
	if err := uc.paymentRepo.Update(ctx, payment); err != nil {
		return nil, fmt.Errorf("ligar comprobantes al pago %s: %w", payment.ID, err)
	}
	return result, nil
}

// StampAndPersist reserva folio, timbra el borrador, persiste la proyección
// certificada y almacena XML y PDF. El comprobante nace con estado active;
// las fallas de almacenamiento de archivos no abortan la emisión (el
// documento certificado queda en la base).
func (uc *InvoiceUseCase) StampAndPersist(ctx context.Context, draft *entity.Invoice) (*entity.Invoice, error) {
	folio, err := uc.folioRepo.NextFolio(ctx, draft.Serie)
	if err != nil {
		return nil, fmt.Errorf("reservar folio de la serie %s: %w", draft.Serie, err)
	}
	draft.Folio = folio

	result, err := uc.stamper.Submit(ctx, draft)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	draft.ID = uuid.New().String()
	draft.UUID = result.UUID
	draft.Status = entity.StatusActive
	draft.QRCode = result.QRCode
	draft.OriginalString = result.OriginalString
	draft.RawDocument = result.RawDocument
	draft.StampedXML = result.StampedXML
	draft.CreatedAt = now
	draft.UpdatedAt = now

	// El comprobante registra los UUID que afecta (complementos y notas).
	for _, rel := range draft.RelatedCfdis {
		draft.AffectedCFDIs = append(draft.AffectedCFDIs, rel.UUID)
	}
	if draft.Complement != nil {
		for _, rd := range draft.Complement.RelatedDocuments {
			draft.AffectedCFDIs = append(draft.AffectedCFDIs, rd.RelatedInvoiceUUID)
		}
	}

	uc.storeDocuments(ctx, draft)

	if err := uc.invoiceRepo.Create(ctx, draft); err != nil {
		return nil, fmt.Errorf("persistir comprobante %s: %w", draft.UUID, err)
	}

	uc.log.Info().
		Str("uuid", draft.UUID).
		Str("serie_folio", draft.SerieAndFolio()).
		Str("total", draft.Total.StringFixed(2)).
		Msg("comprobante timbrado")
	return draft, nil
}

// storeDocuments guarda XML y PDF en el almacén de archivos. Best-effort.
func (uc *InvoiceUseCase) storeDocuments(ctx context.Context, inv *entity.Invoice) {
	if inv.StampedXML != "" {
		key := fmt.Sprintf("cfdi/%s/%s.xml", inv.Serie, inv.UUID)
		url, err := uc.storage.Put(ctx, key, []byte(inv.StampedXML), "application/xml")
		if err != nil {
			uc.log.Warn().Err(err).Str("uuid", inv.UUID).Msg("no se pudo almacenar el XML")
		} else {
			inv.XMLURL = url
		}
	}

	pdfBytes, err := uc.pdf.GenerateInvoicePDF(ctx, inv)
	if err != nil {
		uc.log.Warn().Err(err).Str("uuid", inv.UUID).Msg("no se pudo generar el PDF")
		return
	}
	key := fmt.Sprintf("cfdi/%s/%s.pdf", inv.Serie, inv.UUID)
	url, err := uc.storage.Put(ctx, key, pdfBytes, "application/pdf")
	if err != nil {
		uc.log.Warn().Err(err).Str("uuid", inv.UUID).Msg("no se pudo almacenar el PDF")
		return
	}
	inv.PDFURL = url
}

// GetInvoice obtiene un comprobante por ID.
func (uc *InvoiceUseCase) GetInvoice(ctx context.Context, id string) (*entity.Invoice, error) {
	inv, err := uc.invoiceRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if inv == nil {
		return nil, domain.ErrNotFound
	}
	return inv, nil
}
