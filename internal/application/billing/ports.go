package billing

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/facturante/facturacion-api/internal/domain/entity"
	"github.com/facturante/facturacion-api/internal/domain/repository"
)

// StampResult campos certificados que devuelve el PAC tras timbrar.
type StampResult struct {
	UUID               string
	StampDate          time.Time
	ProviderCertNumber string
	SATCertNumber      string
	CFDIStamp          string
	SATStamp           string
	QRCode             string
	OriginalString     string
	RawDocument        string // JSON del comprobante certificado
	StampedXML         string // XML timbrado
}

// StatusQuery parámetros con los que el SAT identifica un comprobante.
type StatusQuery struct {
	IssuerRFC   string
	ReceptorRFC string
	Total       decimal.Decimal
	UUID        string
}

// ProviderStatus respuesta de la consulta de estado ante el proveedor.
type ProviderStatus struct {
	StatusCode         string // código crudo del SAT (ej. "S - Comprobante obtenido satisfactoriamente")
	IsItCancelable     string // "Cancelable sin aceptación" | "Cancelable con aceptación" | "No cancelable"
	Status             string // "Vigente" | "Cancelado"
	CancellationStatus string // "En proceso" | "Solicitud rechazada" | "Cancelado sin aceptación" | …
}

// Stamper puerto de salida hacia el proveedor certificador (PAC). La
// implementación traduce el borrador interno al esquema orientado a
// atributos del proveedor; para tests se inyecta un mock.
type Stamper interface {
	// Submit timbra el borrador y devuelve los campos certificados.
	Submit(ctx context.Context, draft *entity.Invoice) (*StampResult, error)
	// Status consulta el estado del comprobante ante el SAT.
	Status(ctx context.Context, q StatusQuery) (*ProviderStatus, error)
	// Cancel solicita la cancelación; devuelve el status HTTP del proveedor
	// (201 cancelado, 202 previamente cancelado, 203 RFC no corresponde,
	// 205 no encontrado con plazo de gracia de 72 h).
	Cancel(ctx context.Context, issuerRFC, uuid string) (int, error)
	// RelatedCFDIs consulta los CFDI relacionados registrados ante el SAT.
	RelatedCFDIs(ctx context.Context, issuerRFC, uuid string) ([]entity.RelatedCFDI, error)
}

// FileStorage almacena un blob y devuelve su URL pública.
type FileStorage interface {
	Put(ctx context.Context, key string, content []byte, contentType string) (string, error)
}

// PDFGenerator genera la representación impresa del comprobante timbrado.
type PDFGenerator interface {
	GenerateInvoicePDF(ctx context.Context, invoice *entity.Invoice) ([]byte, error)
}

// Attachment archivo adjunto de un correo.
type Attachment struct {
	Filename    string
	ContentType string
	Content     []byte
}

// CascadeTxRunner ejecuta fn dentro de una transacción de base de datos. Los
// repositorios que recibe fn operan sobre esa transacción, de modo que la
// cascada de desvinculación se aplica completa o no se aplica.
type CascadeTxRunner interface {
	Run(ctx context.Context, fn func(payments repository.PaymentRepository, receipts repository.ReceiptRepository) error) error
}

// Mailer envía correos con adjuntos. Sus fallas nunca abortan la operación
// principal; se acumulan como errores no fatales.
type Mailer interface {
	Send(ctx context.Context, to []string, subject, body string, attachments []Attachment) error
}
