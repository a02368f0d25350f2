package cfdi_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/facturante/facturacion-api/internal/domain/cfdi"
	"github.com/facturante/facturacion-api/internal/domain/entity"
)

// ──────────────────────────────────────────────────────────────────────────────
// Vector de referencia del cuadre al centavo:
//
//	unitValue=33.33, quantity=3, discount=0
//	base      = round2(33.33 × 3)     = 99.99
//	impuesto  = round2(99.99 × 0.16)  = 16.00
//	importe autoritativo (con IVA)    = 116.00
//	residuo   = 116.00 − 99.99 − 16.00 = 0.01 → se absorbe en el impuesto
//
// El residuo SIEMPRE va a la línea de impuesto, nunca a la base ni al valor
// unitario: el total del comprobante debe igualar el importe cobrado.
// ──────────────────────────────────────────────────────────────────────────────

func money(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestComputeConceptTax_BaseEImpuesto(t *testing.T) {
	c := cfdi.ComputeConceptTax(entity.Concept{
		Description: "Mensualidad",
		UnitValue:   money("33.33"),
		Quantity:    money("3"),
	})

	assert.True(t, c.Amount.Equal(money("99.99")), "importe: esperado 99.99, obtenido %s", c.Amount)
	require.Len(t, c.Taxes, 1, "debe emitir exactamente una línea de IVA")
	assert.True(t, c.Taxes[0].Base.Equal(money("99.99")), "base: esperado 99.99, obtenido %s", c.Taxes[0].Base)
	assert.True(t, c.Taxes[0].Amount.Equal(money("16.00")), "IVA: esperado 16.00, obtenido %s", c.Taxes[0].Amount)
	assert.Equal(t, "002", c.Taxes[0].TaxCode)
	assert.Equal(t, "Tasa", c.Taxes[0].FactorType)
}

func TestReconcileConceptTax_ResiduoAlImpuesto(t *testing.T) {
	c := cfdi.ReconcileConceptTax(entity.Concept{
		Description: "Mensualidad",
		UnitValue:   money("33.33"),
		Quantity:    money("3"),
	}, money("116.00"))

	require.Len(t, c.Taxes, 1)
	assert.True(t, c.Amount.Equal(money("99.99")),
		"el residuo nunca debe tocar la base: esperado 99.99, obtenido %s", c.Amount)
	assert.True(t, c.Taxes[0].Amount.Equal(money("16.01")),
		"el centavo residual debe absorberse en el impuesto: esperado 16.01, obtenido %s", c.Taxes[0].Amount)
}

func TestReconcileConceptTax_SinResiduoNoAjusta(t *testing.T) {
	c := cfdi.ReconcileConceptTax(entity.Concept{
		UnitValue: money("100.00"),
		Quantity:  money("1"),
	}, money("116.00"))

	require.Len(t, c.Taxes, 1)
	assert.True(t, c.Taxes[0].Amount.Equal(money("16.00")),
		"sin discrepancia el impuesto queda en el cálculo directo")
}

func TestComputeConceptTax_ConDescuentoReduceBase(t *testing.T) {
	c := cfdi.ComputeConceptTax(entity.Concept{
		UnitValue: money("100.00"),
		Quantity:  money("1"),
		Discount:  money("40.00"),
	})

	assert.True(t, c.Amount.Equal(money("100.00")), "el importe es bruto; el descuento viaja aparte")
	require.Len(t, c.Taxes, 1)
	assert.True(t, c.Taxes[0].Base.Equal(money("60.00")), "la base gravable descuenta la bonificación")
	assert.True(t, c.Taxes[0].Amount.Equal(money("9.60")))
}

func TestComputeConceptTax_BonificacionTotalSinImpuesto(t *testing.T) {
	c := cfdi.ComputeConceptTax(entity.Concept{
		UnitValue: money("100.00"),
		Quantity:  money("1"),
		Discount:  money("100.00"),
	})

	assert.True(t, c.Amount.Equal(money("100.00")))
	assert.Empty(t, c.Taxes, "una partida totalmente bonificada no lleva línea de impuesto")
}

func TestFilterConcepts_DescartaValorUnitarioNoPositivo(t *testing.T) {
	concepts := []entity.Concept{
		{UnitValue: money("10.00"), Quantity: money("1")},
		{UnitValue: decimal.Zero, Quantity: money("1")},
		{UnitValue: money("-5.00"), Quantity: money("1")},
	}

	kept := cfdi.FilterConcepts(concepts)
	require.Len(t, kept, 1, "solo sobrevive la partida con valor unitario positivo")
	assert.True(t, kept[0].UnitValue.Equal(money("10.00")))
}

func TestAggregate_TotalesDelComprobante(t *testing.T) {
	concepts := []entity.Concept{
		cfdi.ReconcileConceptTax(entity.Concept{UnitValue: money("33.33"), Quantity: money("3")}, money("116.00")),
		cfdi.ComputeConceptTax(entity.Concept{UnitValue: money("200.00"), Quantity: money("1"), Discount: money("50.00")}),
	}

	totals := cfdi.Aggregate(concepts)

	// subTotal = 99.99 + 200.00; impuestos = 16.01 + 24.00; descuento = 50.00
	assert.True(t, totals.SubTotal.Equal(money("299.99")), "subTotal: %s", totals.SubTotal)
	assert.True(t, totals.Discount.Equal(money("50.00")), "descuento: %s", totals.Discount)
	assert.True(t, totals.TotalTax.Equal(money("40.01")), "impuestos: %s", totals.TotalTax)
	assert.True(t, totals.Total.Equal(money("290.00")),
		"total = round2(subTotal + impuestos − descuento): %s", totals.Total)

	require.Len(t, totals.TaxDetails, 1, "un solo grupo de impuesto (IVA 16%)")
	assert.True(t, totals.TaxDetails[0].Amount.Equal(money("40.01")))
	assert.True(t, totals.TaxDetails[0].Base.Equal(money("249.99")))
}

func TestAggregate_SinConceptos(t *testing.T) {
	totals := cfdi.Aggregate(nil)
	assert.True(t, totals.Total.IsZero())
	assert.Empty(t, totals.TaxDetails)
}
