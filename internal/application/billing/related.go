package billing

import (
	"context"
	"fmt"

	"github.com/beevik/etree"

	"github.com/facturante/facturacion-api/internal/domain"
	"github.com/facturante/facturacion-api/internal/domain/entity"
	"github.com/facturante/facturacion-api/internal/domain/repository"
)

// RelatedResolver resuelve relaciones entre comprobantes en ambos sentidos.
// Proyecciones de solo lectura, sin efectos secundarios.
type RelatedResolver struct {
	invoiceRepo repository.InvoiceRepository
	stamper     Stamper
}

// NewRelatedResolver construye el resolver.
func NewRelatedResolver(invoiceRepo repository.InvoiceRepository, stamper Stamper) *RelatedResolver {
	return &RelatedResolver{invoiceRepo: invoiceRepo, stamper: stamper}
}

// parseRelated extrae del XML timbrado las relaciones estructurales que el
// comprobante declara: nodos CfdiRelacionado (con el TipoRelacion del padre)
// y DoctoRelacionado del complemento de pago (relación implícita de pago).
func parseRelated(stampedXML string) ([]entity.RelatedCFDI, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromString(stampedXML); err != nil {
		return nil, fmt.Errorf("leer XML del comprobante: %w", err)
	}

	var related []entity.RelatedCFDI
	for _, parent := range doc.FindElements("//CfdiRelacionados") {
		tipo := parent.SelectAttrValue("TipoRelacion", "")
		for _, el := range parent.FindElements("CfdiRelacionado") {
			if uuid := el.SelectAttrValue("UUID", ""); uuid != "" {
				related = append(related, entity.RelatedCFDI{UUID: uuid, RelationshipType: tipo})
			}
		}
	}
	for _, el := range doc.FindElements("//DoctoRelacionado") {
		if uuid := el.SelectAttrValue("IdDocumento", ""); uuid != "" {
			// Relación de pago: el nodo no declara TipoRelacion.
			related = append(related, entity.RelatedCFDI{UUID: uuid})
		}
	}
	return related, nil
}

// RelatedFrom devuelve los CFDI que el comprobante declara como relacionados
// en su propio documento.
func (r *RelatedResolver) RelatedFrom(ctx context.Context, invoiceID string) ([]entity.RelatedCFDI, error) {
	inv, err := r.invoiceRepo.GetByID(ctx, invoiceID)
	if err != nil || inv == nil {
		return nil, fmt.Errorf("obtener comprobante %s: %w", invoiceID, orNotFound(err))
	}
	if inv.StampedXML == "" {
		// Sin XML almacenado se responde con la proyección persistida.
		return inv.RelatedCfdis, nil
	}
	return parseRelated(inv.StampedXML)
}

// RelatedTo devuelve los comprobantes que afectan al UUID dado (búsqueda
// inversa sobre affectedCFDIs).
func (r *RelatedResolver) RelatedTo(ctx context.Context, uuid string) ([]*entity.Invoice, error) {
	return r.invoiceRepo.ListAffecting(ctx, uuid)
}

// RelatedAtProvider consulta los CFDI relacionados registrados ante el SAT a
// través del proveedor.
func (r *RelatedResolver) RelatedAtProvider(ctx context.Context, invoiceID string) ([]entity.RelatedCFDI, error) {
	inv, err := r.invoiceRepo.GetByID(ctx, invoiceID)
	if err != nil || inv == nil {
		return nil, fmt.Errorf("obtener comprobante %s: %w", invoiceID, orNotFound(err))
	}
	if inv.UUID == "" {
		return nil, domain.ErrInvalidInput
	}
	return r.stamper.RelatedCFDIs(ctx, inv.Issuer.RFC, inv.UUID)
}
