package billing_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/facturante/facturacion-api/internal/application/billing"
	"github.com/facturante/facturacion-api/internal/domain/entity"
)

const stampedCreditNoteXML = `<?xml version="1.0" encoding="UTF-8"?>
<cfdi:Comprobante xmlns:cfdi="http://www.sat.gob.mx/cfd/4" Version="4.0" Serie="E" Folio="3">
  <cfdi:CfdiRelacionados TipoRelacion="01">
    <cfdi:CfdiRelacionado UUID="AAA-111"/>
    <cfdi:CfdiRelacionado UUID="BBB-222"/>
  </cfdi:CfdiRelacionados>
</cfdi:Comprobante>`

const stampedComplementXML = `<?xml version="1.0" encoding="UTF-8"?>
<cfdi:Comprobante xmlns:cfdi="http://www.sat.gob.mx/cfd/4" xmlns:pago20="http://www.sat.gob.mx/Pagos20" Version="4.0" Serie="P" Folio="9">
  <cfdi:Complemento>
    <pago20:Pagos Version="2.0">
      <pago20:Pago FechaPago="2026-03-14T10:00:00" FormaDePagoP="03" MonedaP="MXN">
        <pago20:DoctoRelacionado IdDocumento="CCC-333" NumParcialidad="1"/>
      </pago20:Pago>
    </pago20:Pagos>
  </cfdi:Complemento>
</cfdi:Comprobante>`

func TestRelatedFrom_NotaDeCredito(t *testing.T) {
	invoices := &mockInvoiceRepo{
		GetByIDFunc: func(_ context.Context, id string) (*entity.Invoice, error) {
			return &entity.Invoice{ID: id, UUID: "NC-001", StampedXML: stampedCreditNoteXML}, nil
		},
	}
	resolver := billing.NewRelatedResolver(invoices, &mockStamper{})

	related, err := resolver.RelatedFrom(context.Background(), "inv-1")
	require.NoError(t, err)
	require.Len(t, related, 2)
	assert.Equal(t, entity.RelatedCFDI{UUID: "AAA-111", RelationshipType: "01"}, related[0])
	assert.Equal(t, entity.RelatedCFDI{UUID: "BBB-222", RelationshipType: "01"}, related[1])
}

func TestRelatedFrom_ComplementoDePago(t *testing.T) {
	invoices := &mockInvoiceRepo{
		GetByIDFunc: func(_ context.Context, id string) (*entity.Invoice, error) {
			return &entity.Invoice{ID: id, UUID: "P-001", StampedXML: stampedComplementXML}, nil
		},
	}
	resolver := billing.NewRelatedResolver(invoices, &mockStamper{})

	related, err := resolver.RelatedFrom(context.Background(), "inv-1")
	require.NoError(t, err)
	require.Len(t, related, 1)
	assert.Equal(t, "CCC-333", related[0].UUID)
	assert.Empty(t, related[0].RelationshipType, "la relación de pago no declara TipoRelacion")
}

func TestRelatedFrom_SinXMLUsaProyeccion(t *testing.T) {
	persisted := []entity.RelatedCFDI{{UUID: "AAA-111", RelationshipType: "01"}}
	invoices := &mockInvoiceRepo{
		GetByIDFunc: func(_ context.Context, id string) (*entity.Invoice, error) {
			return &entity.Invoice{ID: id, UUID: "NC-001", RelatedCfdis: persisted}, nil
		},
	}
	resolver := billing.NewRelatedResolver(invoices, &mockStamper{})

	related, err := resolver.RelatedFrom(context.Background(), "inv-1")
	require.NoError(t, err)
	assert.Equal(t, persisted, related)
}

func TestRelatedTo(t *testing.T) {
	affecting := []*entity.Invoice{{ID: "inv-nc", Serie: "E"}}
	invoices := &mockInvoiceRepo{
		ListAffectingFunc: func(_ context.Context, uuid string) ([]*entity.Invoice, error) {
			assert.Equal(t, "AAA-111", uuid)
			return affecting, nil
		},
	}
	resolver := billing.NewRelatedResolver(invoices, &mockStamper{})

	got, err := resolver.RelatedTo(context.Background(), "AAA-111")
	require.NoError(t, err)
	assert.Equal(t, affecting, got)
}

func TestRelatedAtProvider(t *testing.T) {
	invoices := &mockInvoiceRepo{
		GetByIDFunc: func(_ context.Context, id string) (*entity.Invoice, error) {
			return &entity.Invoice{ID: id, UUID: "AAA-111", Issuer: entity.Issuer{RFC: "ABC850101AB1"}}, nil
		},
	}
	stamper := &mockStamper{
		RelatedCFDIsFunc: func(_ context.Context, issuerRFC, uuid string) ([]entity.RelatedCFDI, error) {
			assert.Equal(t, "ABC850101AB1", issuerRFC)
			assert.Equal(t, "AAA-111", uuid)
			return []entity.RelatedCFDI{{UUID: "NC-001", RelationshipType: "01"}}, nil
		},
	}
	resolver := billing.NewRelatedResolver(invoices, stamper)

	related, err := resolver.RelatedAtProvider(context.Background(), "inv-1")
	require.NoError(t, err)
	require.Len(t, related, 1)
	assert.Equal(t, "NC-001", related[0].UUID)
}
