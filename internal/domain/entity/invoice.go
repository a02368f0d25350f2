package entity

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Estados del ciclo de vida de un comprobante timbrado.
// Transiciones válidas: active → c_process → cancelled y c_process → active
// (solicitud de cancelación rechazada). Ninguna otra.
const (
	StatusActive        = "active"
	StatusCancelProcess = "c_process"
	StatusCancelled     = "cancelled"
)

// Tax impuesto trasladado de un concepto (IVA 16% en este negocio).
type Tax struct {
	Base       decimal.Decimal
	Rate       decimal.Decimal
	Amount     decimal.Decimal
	TaxCode    string // c_Impuesto ("002" = IVA)
	FactorType string // "Tasa"
}

// Concept partida del comprobante. Amount es el importe bruto
// UnitValue×Quantity (sin impuestos); el descuento viaja aparte en Discount y
// se resta al nivel del comprobante (subTotal + IVA − descuento). Una partida
// totalmente bonificada se conserva en la lista con su Amount bruto, Discount
// igual a ese importe y sin línea de impuesto.
type Concept struct {
	Description        string
	UnitCode           string
	ProductServiceCode string
	UnitValue          decimal.Decimal
	Quantity           decimal.Decimal
	Discount           decimal.Decimal
	Amount             decimal.Decimal
	Taxes              []Tax
}

// Issuer emisor del comprobante.
type Issuer struct {
	RFC       string
	Name      string
	TaxRegime string
}

// Receptor receptor del comprobante.
type Receptor struct {
	RFC     string
	Name    string
	CfdiUse string
}

// RelatedCFDI relación declarada hacia otro comprobante (c_TipoRelacion).
type RelatedCFDI struct {
	UUID             string
	RelationshipType string
}

// RelatedDocument línea de un complemento de pago: el documento (factura
// origen) contra el que se aplica un pago, con su saldo y parcialidad.
type RelatedDocument struct {
	RelatedInvoiceUUID string
	CurrencyDR         string
	PaymentMethodDR    string
	Partiality         int
	LastBalance        decimal.Decimal
	Amount             decimal.Decimal
	CurrentBalance     decimal.Decimal
	SerieAndFolio      string
}

// PaymentComplement nodo Pagos de un comprobante tipo P. Los campos de la
// cuenta ordenante solo se llenan para formas de pago bancarias
// (02, 03, 04, 05, 06, 28, 29).
type PaymentComplement struct {
	Version          string
	PaymentDate      time.Time
	PaymentForm      string
	Currency         string
	ExchangeRate     decimal.Decimal
	Amount           decimal.Decimal
	OrderingBankName string
	OrderingBankRFC  string
	OrderingAccount  string
	RelatedDocuments []RelatedDocument
}

// Invoice representa un comprobante fiscal: borrador antes del timbrado y
// proyección persistida después (UUID, sellos, URLs, estado).
type Invoice struct {
	ID              string
	Version         string
	Serie           string // I=ingreso, E=egreso, P=complemento de pago
	Folio           int64
	CreatedDate     time.Time
	PaymentForm     string
	SubTotal        decimal.Decimal
	Discount        decimal.Decimal
	Currency        string
	ExchangeRate    decimal.Decimal
	Total           decimal.Decimal
	CompType        string
	PaymentMethod   string
	ExpeditionPlace string
	Issuer          Issuer
	Receptor        Receptor
	Concepts        []Concept
	TotalTaxAmount  decimal.Decimal
	TaxDetails      []Tax
	Complement      *PaymentComplement
	RelatedCfdis    []RelatedCFDI

	// Proyección persistida tras el timbrado.
	UUID           string
	Status         string
	XMLURL         string
	PDFURL         string
	RawDocument    string // JSON del comprobante certificado tal como lo devolvió el PAC
	StampedXML     string // XML timbrado completo
	QRCode         string
	OriginalString string
	AffectedCFDIs  []string // UUIDs de comprobantes que este documento afecta
	CancelledDate  *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// SerieAndFolio identificador legible del comprobante (ej. "I-1042").
func (i *Invoice) SerieAndFolio() string {
	return fmt.Sprintf("%s-%d", i.Serie, i.Folio)
}

// IsCancelled reporta si el comprobante ya fue cancelado ante el SAT.
func (i *Invoice) IsCancelled() bool { return i.Status == StatusCancelled }
