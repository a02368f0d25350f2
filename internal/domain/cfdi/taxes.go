// Package cfdi contiene la lógica pura de facturación: cálculo y cuadre de
// impuestos al centavo y validaciones de catálogo. Sin I/O; los llamadores
// validan sus entradas antes de invocar.
package cfdi

import (
	"github.com/shopspring/decimal"

	"github.com/facturante/facturacion-api/internal/domain/entity"
	pkgcfdi "github.com/facturante/facturacion-api/pkg/cfdi"
)

// Round2 redondea a centavos. Todo valor monetario intermedio se redondea en
// el punto en que se guarda; nunca se arrastra un flotante sin redondear.
func Round2(d decimal.Decimal) decimal.Decimal { return d.Round(2) }

// NewVATTax construye el traslado de IVA 16% sobre una base ya redondeada.
func NewVATTax(base, amount decimal.Decimal) entity.Tax {
	return entity.Tax{
		Base:       base,
		Rate:       pkgcfdi.VATRate,
		Amount:     amount,
		TaxCode:    pkgcfdi.TaxCodeIVA,
		FactorType: pkgcfdi.TaxFactorTasa,
	}
}

// ComputeConceptTax calcula importe e IVA de la partida y devuelve una copia
// con Amount y Taxes poblados. Amount = round2(unitValue×quantity) (importe
// bruto del formato fiscal; el descuento viaja aparte); la base gravable es
// round2(amount − discount) y el impuesto round2(base×0.16). Una partida con
// base cero no lleva línea de impuesto.
func ComputeConceptTax(c entity.Concept) entity.Concept {
	c.Amount = Round2(c.UnitValue.Mul(c.Quantity))
	base := Round2(c.Amount.Sub(c.Discount))
	if base.LessThanOrEqual(decimal.Zero) {
		c.Taxes = nil
		return c
	}
	tax := Round2(base.Mul(pkgcfdi.VATRate))
	c.Taxes = []entity.Tax{NewVATTax(base, tax)}
	return c
}

// ReconcileConceptTax calcula la partida como ComputeConceptTax y cuadra
// contra un importe autoritativo con IVA incluido. Si base+impuesto difiere
// del importe por centavos, la diferencia se absorbe íntegra en la línea de
// impuesto. Nunca se ajusta la base ni el valor unitario: el total legal del
// comprobante debe coincidir con el importe cobrado.
func ReconcileConceptTax(c entity.Concept, totalWithTax decimal.Decimal) entity.Concept {
	c = ComputeConceptTax(c)
	if totalWithTax.IsZero() || len(c.Taxes) == 0 {
		return c
	}
	base := Round2(c.Amount.Sub(c.Discount))
	residual := Round2(totalWithTax.Sub(base).Sub(c.Taxes[0].Amount))
	if !residual.IsZero() {
		c.Taxes[0].Amount = Round2(c.Taxes[0].Amount.Add(residual))
	}
	return c
}

// Totals agregados del comprobante.
type Totals struct {
	SubTotal   decimal.Decimal
	Discount   decimal.Decimal
	TotalTax   decimal.Decimal
	Total      decimal.Decimal
	TaxDetails []entity.Tax
}

// FilterConcepts descarta partidas con valor unitario menor o igual a cero.
// Las partidas totalmente bonificadas (Amount 0, UnitValue > 0) se conservan.
func FilterConcepts(concepts []entity.Concept) []entity.Concept {
	kept := make([]entity.Concept, 0, len(concepts))
	for _, c := range concepts {
		if c.UnitValue.GreaterThan(decimal.Zero) {
			kept = append(kept, c)
		}
	}
	return kept
}

// Aggregate reduce las partidas (ya filtradas con FilterConcepts) a los
// totales del comprobante: subTotal = Σ amount, totalTax = Σ impuestos,
// discount = Σ descuentos, total = round2(subTotal + totalTax − discount).
// TaxDetails agrupa los impuestos por código y tasa.
func Aggregate(concepts []entity.Concept) Totals {
	var subTotal, discount, totalTax decimal.Decimal

	type taxKey struct {
		code string
		rate string
	}
	grouped := make(map[taxKey]*entity.Tax)
	order := make([]taxKey, 0, 1)

	for _, c := range concepts {
		subTotal = subTotal.Add(c.Amount)
		discount = discount.Add(c.Discount)
		for _, t := range c.Taxes {
			totalTax = totalTax.Add(t.Amount)
			k := taxKey{code: t.TaxCode, rate: t.Rate.String()}
			if g, ok := grouped[k]; ok {
				g.Base = Round2(g.Base.Add(t.Base))
				g.Amount = Round2(g.Amount.Add(t.Amount))
			} else {
				summary := t
				grouped[k] = &summary
				order = append(order, k)
			}
		}
	}

	subTotal = Round2(subTotal)
	discount = Round2(discount)
	totalTax = Round2(totalTax)

	details := make([]entity.Tax, 0, len(order))
	for _, k := range order {
		details = append(details, *grouped[k])
	}

	return Totals{
		SubTotal:   subTotal,
		Discount:   discount,
		TotalTax:   totalTax,
		Total:      Round2(subTotal.Add(totalTax).Sub(discount)),
		TaxDetails: details,
	}
}
