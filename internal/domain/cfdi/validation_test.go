package cfdi_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/facturante/facturacion-api/internal/domain/cfdi"
	"github.com/facturante/facturacion-api/internal/domain/entity"
)

func TestValidateRFC(t *testing.T) {
	assert.Empty(t, cfdi.ValidateRFC("rfc", "XAXX010101000"), "RFC genérico válido")
	assert.Empty(t, cfdi.ValidateRFC("rfc", "ABC850101AB1"), "RFC de persona moral válido")

	errs := cfdi.ValidateRFC("rfc", "")
	require.Len(t, errs, 1)
	assert.Equal(t, "required", errs[0].Kind)

	errs = cfdi.ValidateRFC("rfc", "CORTO")
	require.Len(t, errs, 1)
	assert.Equal(t, "length", errs[0].Kind)

	errs = cfdi.ValidateRFC("rfc", "1234567890123")
	require.Len(t, errs, 1)
	assert.Equal(t, "type", errs[0].Kind)
}

func TestValidateRelationshipType(t *testing.T) {
	assert.Empty(t, cfdi.ValidateRelationshipType("01"))
	assert.Empty(t, cfdi.ValidateRelationshipType("04"))

	errs := cfdi.ValidateRelationshipType("99")
	require.Len(t, errs, 1)
	assert.Equal(t, "enum", errs[0].Kind, "tipo de relación fuera del catálogo")

	errs = cfdi.ValidateRelationshipType("")
	require.Len(t, errs, 1)
	assert.Equal(t, "required", errs[0].Kind)
}

func TestValidateCfdiUse(t *testing.T) {
	assert.Empty(t, cfdi.ValidateCfdiUse("G03"))
	errs := cfdi.ValidateCfdiUse("Z99")
	require.Len(t, errs, 1)
	assert.Equal(t, "enum", errs[0].Kind)
}

func TestValidateCreditConcepts(t *testing.T) {
	errs := cfdi.ValidateCreditConcepts(nil)
	require.Len(t, errs, 1, "sin conceptos no hay nota de crédito")

	errs = cfdi.ValidateCreditConcepts([]cfdi.CreditConcept{
		{Description: "", UnitCost: decimal.Zero, Quantity: decimal.Zero},
	})
	assert.Len(t, errs, 3, "descripción, cantidad y costo inválidos a la vez")

	errs = cfdi.ValidateCreditConcepts([]cfdi.CreditConcept{
		{Description: "Ajuste", UnitCost: money("10.00"), Quantity: money("1")},
	})
	assert.Empty(t, errs)
}

func TestValidateAddress_SinCodigoPostalOColonia(t *testing.T) {
	errs := cfdi.ValidateAddress(entity.Address{Street: "Reforma 1"})
	require.Len(t, errs, 1)
	assert.Equal(t, "No hay código postal o colonia.", errs[0].Message)

	errs = cfdi.ValidateAddress(entity.Address{ZipCode: "06600", Settlement: "Juárez"})
	assert.Empty(t, errs)
}

func TestValidateInvoiceTotals(t *testing.T) {
	concepts := []entity.Concept{
		cfdi.ComputeConceptTax(entity.Concept{UnitValue: money("100.00"), Quantity: money("1")}),
	}
	totals := cfdi.Aggregate(concepts)
	inv := &entity.Invoice{
		Concepts:       concepts,
		SubTotal:       totals.SubTotal,
		Discount:       totals.Discount,
		TotalTaxAmount: totals.TotalTax,
		Total:          totals.Total,
	}
	assert.Empty(t, cfdi.ValidateInvoiceTotals(inv), "totales coherentes no producen errores")

	inv.Total = money("999.99")
	errs := cfdi.ValidateInvoiceTotals(inv)
	require.NotEmpty(t, errs)
	assert.Equal(t, "total", errs[len(errs)-1].Field)
}
