package billing_test

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/facturante/facturacion-api/internal/application/billing"
	"github.com/facturante/facturacion-api/internal/domain/entity"
	"github.com/facturante/facturacion-api/internal/domain/repository"
	"github.com/facturante/facturacion-api/pkg/logger"
)

// Mocks con campos función: cada prueba configura solo lo que necesita.
// Un campo nil responde con el valor cero.

// passthroughRunner ejecuta la cascada sin transacción, directamente sobre
// los mocks inyectados.
type passthroughRunner struct {
	payments repository.PaymentRepository
	receipts repository.ReceiptRepository
}

func (r *passthroughRunner) Run(_ context.Context, fn func(repository.PaymentRepository, repository.ReceiptRepository) error) error {
	return fn(r.payments, r.receipts)
}

type mockInvoiceRepo struct {
	CreateFunc        func(ctx context.Context, inv *entity.Invoice) error
	UpdateFunc        func(ctx context.Context, inv *entity.Invoice) error
	UpdateStatusFunc  func(ctx context.Context, id, status string) error
	GetByIDFunc       func(ctx context.Context, id string) (*entity.Invoice, error)
	GetByUUIDFunc     func(ctx context.Context, uuid string) (*entity.Invoice, error)
	ListAffectingFunc func(ctx context.Context, uuid string) ([]*entity.Invoice, error)
	ListByStatusFunc  func(ctx context.Context, status string) ([]*entity.Invoice, error)
}

func (m *mockInvoiceRepo) Create(ctx context.Context, inv *entity.Invoice) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, inv)
	}
	return nil
}

func (m *mockInvoiceRepo) Update(ctx context.Context, inv *entity.Invoice) error {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, inv)
	}
	return nil
}

func (m *mockInvoiceRepo) UpdateStatus(ctx context.Context, id, status string) error {
	if m.UpdateStatusFunc != nil {
		return m.UpdateStatusFunc(ctx, id, status)
	}
	return nil
}

func (m *mockInvoiceRepo) GetByID(ctx context.Context, id string) (*entity.Invoice, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, nil
}

func (m *mockInvoiceRepo) GetByUUID(ctx context.Context, uuid string) (*entity.Invoice, error) {
	if m.GetByUUIDFunc != nil {
		return m.GetByUUIDFunc(ctx, uuid)
	}
	return nil, nil
}

func (m *mockInvoiceRepo) ListAffecting(ctx context.Context, uuid string) ([]*entity.Invoice, error) {
	if m.ListAffectingFunc != nil {
		return m.ListAffectingFunc(ctx, uuid)
	}
	return nil, nil
}

func (m *mockInvoiceRepo) ListByStatus(ctx context.Context, status string) ([]*entity.Invoice, error) {
	if m.ListByStatusFunc != nil {
		return m.ListByStatusFunc(ctx, status)
	}
	return nil, nil
}

type mockPaymentRepo struct {
	CreateFunc            func(ctx context.Context, p *entity.Payment) error
	UpdateFunc            func(ctx context.Context, p *entity.Payment) error
	GetByIDFunc           func(ctx context.Context, id string) (*entity.Payment, error)
	ListByReceiptFunc     func(ctx context.Context, receiptID string) ([]*entity.Payment, error)
	GetOwnerOfInvoiceFunc func(ctx context.Context, invoiceID string) (*entity.Payment, error)
}

func (m *mockPaymentRepo) Create(ctx context.Context, p *entity.Payment) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, p)
	}
	return nil
}

func (m *mockPaymentRepo) Update(ctx context.Context, p *entity.Payment) error {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, p)
	}
	return nil
}

func (m *mockPaymentRepo) GetByID(ctx context.Context, id string) (*entity.Payment, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, nil
}

func (m *mockPaymentRepo) ListByReceipt(ctx context.Context, receiptID string) ([]*entity.Payment, error) {
	if m.ListByReceiptFunc != nil {
		return m.ListByReceiptFunc(ctx, receiptID)
	}
	return nil, nil
}

func (m *mockPaymentRepo) GetOwnerOfInvoice(ctx context.Context, invoiceID string) (*entity.Payment, error) {
	if m.GetOwnerOfInvoiceFunc != nil {
		return m.GetOwnerOfInvoiceFunc(ctx, invoiceID)
	}
	return nil, nil
}

type mockReceiptRepo struct {
	UpdateFunc            func(ctx context.Context, r *entity.Receipt) error
	GetByIDFunc           func(ctx context.Context, id string) (*entity.Receipt, error)
	GetOwnerOfInvoiceFunc func(ctx context.Context, invoiceID string) (*entity.Receipt, error)
}

func (m *mockReceiptRepo) Update(ctx context.Context, r *entity.Receipt) error {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, r)
	}
	return nil
}

func (m *mockReceiptRepo) GetByID(ctx context.Context, id string) (*entity.Receipt, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, nil
}

func (m *mockReceiptRepo) GetOwnerOfInvoice(ctx context.Context, invoiceID string) (*entity.Receipt, error) {
	if m.GetOwnerOfInvoiceFunc != nil {
		return m.GetOwnerOfInvoiceFunc(ctx, invoiceID)
	}
	return nil, nil
}

type mockClientRepo struct {
	GetByIDFunc            func(ctx context.Context, id string) (*entity.Client, error)
	GetByAccountNumberFunc func(ctx context.Context, accountNumber string) (*entity.Client, error)
	GetByRFCFunc           func(ctx context.Context, rfc string) (*entity.Client, error)
}

func (m *mockClientRepo) Create(ctx context.Context, c *entity.Client) error { return nil }

func (m *mockClientRepo) GetByID(ctx context.Context, id string) (*entity.Client, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, nil
}

func (m *mockClientRepo) GetByAccountNumber(ctx context.Context, accountNumber string) (*entity.Client, error) {
	if m.GetByAccountNumberFunc != nil {
		return m.GetByAccountNumberFunc(ctx, accountNumber)
	}
	return nil, nil
}

func (m *mockClientRepo) GetByRFC(ctx context.Context, rfc string) (*entity.Client, error) {
	if m.GetByRFCFunc != nil {
		return m.GetByRFCFunc(ctx, rfc)
	}
	return nil, nil
}

type mockAccountRepo struct {
	GetIssuerFunc func(ctx context.Context) (*entity.Account, error)
}

func (m *mockAccountRepo) GetIssuer(ctx context.Context) (*entity.Account, error) {
	if m.GetIssuerFunc != nil {
		return m.GetIssuerFunc(ctx)
	}
	return testIssuer(), nil
}

type mockFolioRepo struct {
	next int64
}

func (m *mockFolioRepo) NextFolio(ctx context.Context, serie string) (int64, error) {
	m.next++
	return m.next, nil
}

type mockStamper struct {
	SubmitFunc       func(ctx context.Context, draft *entity.Invoice) (*billing.StampResult, error)
	StatusFunc       func(ctx context.Context, q billing.StatusQuery) (*billing.ProviderStatus, error)
	CancelFunc       func(ctx context.Context, issuerRFC, uuid string) (int, error)
	RelatedCFDIsFunc func(ctx context.Context, issuerRFC, uuid string) ([]entity.RelatedCFDI, error)
}

func (m *mockStamper) Submit(ctx context.Context, draft *entity.Invoice) (*billing.StampResult, error) {
	if m.SubmitFunc != nil {
		return m.SubmitFunc(ctx, draft)
	}
	return &billing.StampResult{UUID: "UUID-TIMBRADO"}, nil
}

func (m *mockStamper) Status(ctx context.Context, q billing.StatusQuery) (*billing.ProviderStatus, error) {
	if m.StatusFunc != nil {
		return m.StatusFunc(ctx, q)
	}
	return &billing.ProviderStatus{Status: "Vigente"}, nil
}

func (m *mockStamper) Cancel(ctx context.Context, issuerRFC, uuid string) (int, error) {
	if m.CancelFunc != nil {
		return m.CancelFunc(ctx, issuerRFC, uuid)
	}
	return 201, nil
}

func (m *mockStamper) RelatedCFDIs(ctx context.Context, issuerRFC, uuid string) ([]entity.RelatedCFDI, error) {
	if m.RelatedCFDIsFunc != nil {
		return m.RelatedCFDIsFunc(ctx, issuerRFC, uuid)
	}
	return nil, nil
}

type mockStorage struct{}

func (m *mockStorage) Put(ctx context.Context, key string, content []byte, contentType string) (string, error) {
	return "https://files.test/" + key, nil
}

type mockPDF struct{}

func (m *mockPDF) GenerateInvoicePDF(ctx context.Context, inv *entity.Invoice) ([]byte, error) {
	return []byte("%PDF-1.7"), nil
}

type mockMailer struct {
	SendFunc func(ctx context.Context, to []string, subject, body string, attachments []billing.Attachment) error
}

func (m *mockMailer) Send(ctx context.Context, to []string, subject, body string, attachments []billing.Attachment) error {
	if m.SendFunc != nil {
		return m.SendFunc(ctx, to, subject, body, attachments)
	}
	return nil
}

// ── fixtures compartidos ──────────────────────────────────────────────────────

func money(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func testLogger() *logger.Logger {
	return logger.New(logger.Config{Env: "test", Level: "error"})
}

func testIssuer() *entity.Account {
	return &entity.Account{
		ID:              "acc-1",
		RFC:             "ABC850101AB1",
		Name:            "Servicios de Suscripción SA de CV",
		TaxRegime:       "601",
		ExpeditionPlace: "06600",
	}
}

func testClient() *entity.Client {
	return &entity.Client{
		ID:      "cli-1",
		RFC:     "XAXX010101000",
		Name:    "Público en General",
		Email:   "cliente@example.com",
		CfdiUse: "G03",
	}
}
