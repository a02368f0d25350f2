package repository

import (
	"context"

	"github.com/facturante/facturacion-api/internal/domain/entity"
)

// InvoiceRepository define el puerto de persistencia de comprobantes.
// Un comprobante solo se crea después de un timbrado exitoso (status=active)
// y nunca se borra: la cancelación es estado blando.
type InvoiceRepository interface {
	Create(ctx context.Context, invoice *entity.Invoice) error
	// Update actualiza la proyección timbrada: urls, uuid, qr, sellos, estado.
	Update(ctx context.Context, invoice *entity.Invoice) error
	// UpdateStatus cambia solo el estado (y cancelledDate si aplica).
	UpdateStatus(ctx context.Context, id, status string) error
	GetByID(ctx context.Context, id string) (*entity.Invoice, error)
	GetByUUID(ctx context.Context, uuid string) (*entity.Invoice, error)
	// ListAffecting devuelve los comprobantes cuyo affected_cfdis contiene el
	// UUID dado (notas de crédito y complementos que lo afectan).
	ListAffecting(ctx context.Context, uuid string) ([]*entity.Invoice, error)
	// ListByStatus lista comprobantes por estado (ej. c_process para auditoría).
	ListByStatus(ctx context.Context, status string) ([]*entity.Invoice, error)
}

// FolioRepository reserva folios consecutivos por serie de forma atómica.
// El "último folio + 1" leído y usado sin reserva puede duplicarse bajo
// concurrencia; la implementación debe usar un contador con upsert atómico.
type FolioRepository interface {
	NextFolio(ctx context.Context, serie string) (int64, error)
}
