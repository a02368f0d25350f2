package billing_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/facturante/facturacion-api/internal/application/billing"
	"github.com/facturante/facturacion-api/internal/domain/entity"
)

func testPayment(amount string) *entity.Payment {
	return &entity.Payment{
		ID:          "pay-1",
		ClientID:    "cli-1",
		AmountPaid:  money(amount),
		PaymentDate: time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC),
		PaymentForm: "03",
		Status:      entity.PaymentStatusActive,
	}
}

func invoicedReceipt(id string, folio int64, total string, invoiceID string) *entity.Receipt {
	return &entity.Receipt{
		ID:        id,
		ClientID:  "cli-1",
		Folio:     folio,
		Total:     money(total),
		Status:    entity.ReceiptStatusPending,
		InvoiceID: invoiceID,
	}
}

func stampedInvoice(id, uuid string, folio int64, total string) *entity.Invoice {
	return &entity.Invoice{
		ID:            id,
		UUID:          uuid,
		Serie:         "I",
		Folio:         folio,
		CompType:      "I",
		Currency:      "MXN",
		PaymentMethod: "PPD",
		Total:         money(total),
		Status:        entity.StatusActive,
	}
}

func TestComplementBuilder_ReciboConFactura(t *testing.T) {
	receipts := &mockReceiptRepo{
		GetByIDFunc: func(_ context.Context, id string) (*entity.Receipt, error) {
			return invoicedReceipt("rec-1", 1042, "116.00", "inv-1"), nil
		},
	}
	invoices := &mockInvoiceRepo{
		GetByIDFunc: func(_ context.Context, id string) (*entity.Invoice, error) {
			return stampedInvoice("inv-1", "AAA-111", 7, "116.00"), nil
		},
	}
	builder := billing.NewComplementBuilder(receipts, &mockPaymentRepo{}, invoices)

	drafts, err := builder.Build(context.Background(), testPayment("116.00"),
		[]billing.Allocation{{ReceiptID: "rec-1", Amount: money("116.00")}},
		testClient(), testIssuer(), time.Now())
	require.NoError(t, err)

	require.NotNil(t, drafts.Complement, "recibo facturado produce comprobante P")
	assert.Nil(t, drafts.Invoice, "sin remanente ni recibos sueltos no hay factura simple")

	p := drafts.Complement
	assert.Equal(t, "P", p.Serie)
	assert.Equal(t, "XXX", p.Currency, "los comprobantes de pago usan la moneda centinela")
	assert.True(t, p.ExchangeRate.IsZero())
	assert.Empty(t, p.PaymentMethod)
	assert.Empty(t, p.PaymentForm)
	assert.Equal(t, "CP01", p.Receptor.CfdiUse)
	assert.True(t, p.SubTotal.IsZero())
	assert.True(t, p.Total.IsZero())

	// Concepto fijo del complemento.
	require.Len(t, p.Concepts, 1)
	assert.Equal(t, "84111506", p.Concepts[0].ProductServiceCode)
	assert.Equal(t, "ACT", p.Concepts[0].UnitCode)
	assert.Equal(t, "Pago", p.Concepts[0].Description)
	assert.Empty(t, p.Concepts[0].Taxes)

	require.NotNil(t, p.Complement)
	assert.Equal(t, "2.0", p.Complement.Version)
	assert.True(t, p.Complement.Amount.Equal(money("116.00")))
	require.Len(t, p.Complement.RelatedDocuments, 1)
	doc := p.Complement.RelatedDocuments[0]
	assert.Equal(t, "AAA-111", doc.RelatedInvoiceUUID)
	assert.Equal(t, 1, doc.Partiality, "primer pago = parcialidad 1")
	assert.True(t, doc.LastBalance.Equal(money("116.00")))
	assert.True(t, doc.Amount.Equal(money("116.00")))
	assert.True(t, doc.CurrentBalance.IsZero())
	assert.Equal(t, "I-7", doc.SerieAndFolio)
}

func TestComplementBuilder_ParcialidadesYSaldos(t *testing.T) {
	receipts := &mockReceiptRepo{
		GetByIDFunc: func(_ context.Context, id string) (*entity.Receipt, error) {
			return invoicedReceipt("rec-1", 1042, "300.00", "inv-1"), nil
		},
	}
	invoices := &mockInvoiceRepo{
		GetByIDFunc: func(_ context.Context, id string) (*entity.Invoice, error) {
			return stampedInvoice("inv-1", "AAA-111", 7, "300.00"), nil
		},
	}
	payments := &mockPaymentRepo{
		ListByReceiptFunc: func(_ context.Context, receiptID string) ([]*entity.Payment, error) {
			return []*entity.Payment{
				{ID: "pay-0", Status: entity.PaymentStatusActive,
					Details: []entity.PaymentDetail{{ReceiptID: "rec-1", Amount: money("100.00")}}},
				// El pago en curso llega en la lista y debe excluirse.
				{ID: "pay-1", Status: entity.PaymentStatusActive,
					Details: []entity.PaymentDetail{{ReceiptID: "rec-1", Amount: money("50.00")}}},
				// Los pagos espejo de notas de crédito tampoco cuentan.
				{ID: "pay-cr", Status: entity.PaymentStatusCredit,
					Details: []entity.PaymentDetail{{ReceiptID: "rec-1", Amount: money("999.00")}}},
			}, nil
		},
	}
	builder := billing.NewComplementBuilder(receipts, payments, invoices)

	drafts, err := builder.Build(context.Background(), testPayment("50.00"),
		[]billing.Allocation{{ReceiptID: "rec-1", Amount: money("50.00")}},
		testClient(), testIssuer(), time.Now())
	require.NoError(t, err)

	require.NotNil(t, drafts.Complement)
	doc := drafts.Complement.Complement.RelatedDocuments[0]
	assert.Equal(t, 2, doc.Partiality, "un hermano previo -> parcialidad 2")
	assert.True(t, doc.LastBalance.Equal(money("200.00")), "saldo anterior: %s", doc.LastBalance)
	assert.True(t, doc.CurrentBalance.Equal(money("150.00")), "saldo insoluto: %s", doc.CurrentBalance)
}

func TestComplementBuilder_NotasDeCreditoReducenSaldo(t *testing.T) {
	receipts := &mockReceiptRepo{
		GetByIDFunc: func(_ context.Context, id string) (*entity.Receipt, error) {
			return invoicedReceipt("rec-1", 1042, "300.00", "inv-1"), nil
		},
	}
	creditNote := &entity.Invoice{
		ID: "inv-nc", UUID: "NC-001", Serie: "E", CompType: "E",
		Total: money("116.00"),
		RelatedCfdis: []entity.RelatedCFDI{
			{UUID: "AAA-111", RelationshipType: "01"},
		},
	}
	invoices := &mockInvoiceRepo{
		GetByIDFunc: func(_ context.Context, id string) (*entity.Invoice, error) {
			return stampedInvoice("inv-1", "AAA-111", 7, "300.00"), nil
		},
		ListAffectingFunc: func(_ context.Context, uuid string) ([]*entity.Invoice, error) {
			return []*entity.Invoice{creditNote}, nil
		},
	}
	builder := billing.NewComplementBuilder(receipts, &mockPaymentRepo{}, invoices)

	drafts, err := builder.Build(context.Background(), testPayment("100.00"),
		[]billing.Allocation{{ReceiptID: "rec-1", Amount: money("100.00")}},
		testClient(), testIssuer(), time.Now())
	require.NoError(t, err)

	doc := drafts.Complement.Complement.RelatedDocuments[0]
	assert.True(t, doc.LastBalance.Equal(money("184.00")), "300 - 116 acreditados: %s", doc.LastBalance)
	assert.True(t, doc.CurrentBalance.Equal(money("84.00")))
}

func TestComplementBuilder_ReciboSinFactura(t *testing.T) {
	receipts := &mockReceiptRepo{
		GetByIDFunc: func(_ context.Context, id string) (*entity.Receipt, error) {
			return invoicedReceipt("rec-1", 1042, "116.00", ""), nil
		},
	}
	builder := billing.NewComplementBuilder(receipts, &mockPaymentRepo{}, &mockInvoiceRepo{})

	drafts, err := builder.Build(context.Background(), testPayment("116.00"),
		[]billing.Allocation{{ReceiptID: "rec-1", Amount: money("116.00")}},
		testClient(), testIssuer(), time.Now())
	require.NoError(t, err)

	assert.Nil(t, drafts.Complement)
	require.NotNil(t, drafts.Invoice, "recibo sin factura se documenta con comprobante I")

	inv := drafts.Invoice
	assert.Equal(t, "I", inv.Serie)
	assert.Equal(t, "PUE", inv.PaymentMethod, "pago ya recibido -> pago en una exhibición")
	assert.Equal(t, "03", inv.PaymentForm, "hereda la forma de pago del pago")
	require.Len(t, inv.Concepts, 1)
	assert.Equal(t, "Pago del recibo 1042", inv.Concepts[0].Description)
	assert.True(t, inv.Total.Equal(money("116.00")), "el total cuadra al centavo con lo pagado: %s", inv.Total)
}

func TestComplementBuilder_SeparaComplementoYRemanente(t *testing.T) {
	receipts := &mockReceiptRepo{
		GetByIDFunc: func(_ context.Context, id string) (*entity.Receipt, error) {
			return invoicedReceipt("rec-1", 1042, "116.00", "inv-1"), nil
		},
	}
	invoices := &mockInvoiceRepo{
		GetByIDFunc: func(_ context.Context, id string) (*entity.Invoice, error) {
			return stampedInvoice("inv-1", "AAA-111", 7, "116.00"), nil
		},
	}
	builder := billing.NewComplementBuilder(receipts, &mockPaymentRepo{}, invoices)

	// Pago de 150: 116 al recibo facturado, 34 sin aplicar.
	drafts, err := builder.Build(context.Background(), testPayment("150.00"),
		[]billing.Allocation{{ReceiptID: "rec-1", Amount: money("116.00")}},
		testClient(), testIssuer(), time.Now())
	require.NoError(t, err)

	require.NotNil(t, drafts.Complement)
	require.NotNil(t, drafts.Invoice)

	assert.True(t, drafts.Complement.Complement.Amount.Equal(money("116.00")))
	require.Len(t, drafts.Invoice.Concepts, 1)
	assert.Equal(t, "Pago no aplicado a recibos", drafts.Invoice.Concepts[0].Description)
	assert.True(t, drafts.Invoice.Total.Equal(money("34.00")), "remanente: %s", drafts.Invoice.Total)
}

func TestComplementBuilder_CuentaOrdenanteSoloBancaria(t *testing.T) {
	receipts := &mockReceiptRepo{
		GetByIDFunc: func(_ context.Context, id string) (*entity.Receipt, error) {
			return invoicedReceipt("rec-1", 1042, "116.00", "inv-1"), nil
		},
	}
	invoices := &mockInvoiceRepo{
		GetByIDFunc: func(_ context.Context, id string) (*entity.Invoice, error) {
			return stampedInvoice("inv-1", "AAA-111", 7, "116.00"), nil
		},
	}
	builder := billing.NewComplementBuilder(receipts, &mockPaymentRepo{}, invoices)
	allocs := []billing.Allocation{{ReceiptID: "rec-1", Amount: money("116.00")}}

	bank := testPayment("116.00") // forma 03 = transferencia
	bank.OrderingBankName = "Banco Azteca"
	bank.OrderingBankRFC = "BAI200417LR5"
	bank.OrderingAccount = "0123456789"

	drafts, err := builder.Build(context.Background(), bank, allocs, testClient(), testIssuer(), time.Now())
	require.NoError(t, err)
	assert.Equal(t, "Banco Azteca", drafts.Complement.Complement.OrderingBankName)
	assert.Equal(t, "0123456789", drafts.Complement.Complement.OrderingAccount)

	cash := testPayment("116.00")
	cash.PaymentForm = "01" // efectivo
	cash.OrderingBankName = "Banco Azteca"

	drafts, err = builder.Build(context.Background(), cash, allocs, testClient(), testIssuer(), time.Now())
	require.NoError(t, err)
	assert.Empty(t, drafts.Complement.Complement.OrderingBankName,
		"la cuenta ordenante solo aplica a formas de pago bancarias")
}

func TestComplementBuilder_AbortaSiFallaUnaLectura(t *testing.T) {
	boom := errors.New("conexión perdida")
	receipts := &mockReceiptRepo{
		GetByIDFunc: func(_ context.Context, id string) (*entity.Receipt, error) {
			if id == "rec-2" {
				return nil, boom
			}
			return invoicedReceipt(id, 1042, "116.00", ""), nil
		},
	}
	builder := billing.NewComplementBuilder(receipts, &mockPaymentRepo{}, &mockInvoiceRepo{})

	_, err := builder.Build(context.Background(), testPayment("232.00"),
		[]billing.Allocation{
			{ReceiptID: "rec-1", Amount: money("116.00")},
			{ReceiptID: "rec-2", Amount: money("116.00")},
		},
		testClient(), testIssuer(), time.Now())
	require.Error(t, err, "ninguna asignación se procesa si otra falla")
	assert.ErrorIs(t, err, boom)
}
