package billing

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/facturante/facturacion-api/internal/domain"
	"github.com/facturante/facturacion-api/internal/domain/cfdi"
	"github.com/facturante/facturacion-api/internal/domain/entity"
	pkgcfdi "github.com/facturante/facturacion-api/pkg/cfdi"
)

// newDraft construye el esqueleto común de un borrador de comprobante.
func newDraft(serie, compType string, issuer *entity.Account, client *entity.Client, now time.Time) *entity.Invoice {
	return &entity.Invoice{
		Version:         pkgcfdi.Version,
		Serie:           serie,
		CompType:        compType,
		CreatedDate:     now,
		Currency:        pkgcfdi.CurrencyMXN,
		ExchangeRate:    decimal.NewFromInt(1),
		ExpeditionPlace: issuer.ExpeditionPlace,
		Issuer: entity.Issuer{
			RFC:       issuer.RFC,
			Name:      issuer.Name,
			TaxRegime: issuer.TaxRegime,
		},
		Receptor: entity.Receptor{
			RFC:     client.RFC,
			Name:    client.Name,
			CfdiUse: client.CfdiUse,
		},
	}
}

// applyTotals vuelca los agregados del motor de impuestos sobre el borrador.
func applyTotals(draft *entity.Invoice, concepts []entity.Concept) {
	draft.Concepts = concepts
	totals := cfdi.Aggregate(concepts)
	draft.SubTotal = totals.SubTotal
	draft.Discount = totals.Discount
	draft.TotalTaxAmount = totals.TotalTax
	draft.TaxDetails = totals.TaxDetails
	draft.Total = totals.Total
}

// conceptsFromReceipt convierte las partidas del recibo en conceptos aplicando
// el saldo a favor del cliente. El saldo llega con IVA incluido y se
// normaliza dividiendo entre 1.16 antes de usarse. Se procesa en el orden de
// las partidas:
//
//   - sin saldo: la partida se emite a precio completo con su IVA.
//   - saldo ≥ importe: la partida se bonifica por completo (descuento = su
//     importe neto, sin línea de impuesto) pero SE CONSERVA en la lista para
//     que el comprobante refleje todos los cargos del recibo.
//   - saldo parcial: el descuento crece por el saldo restante y el impuesto
//     se recalcula sobre la base reducida.
func conceptsFromReceipt(items []entity.ReceiptItem, previousBalance decimal.Decimal) []entity.Concept {
	balance := decimal.Zero
	if previousBalance.GreaterThan(decimal.Zero) {
		balance = cfdi.Round2(previousBalance.Div(pkgcfdi.VATDivisor))
	}

	concepts := make([]entity.Concept, 0, len(items))
	for _, item := range items {
		concept := entity.Concept{
			Description:        item.Description,
			UnitCode:           item.UnitCode,
			ProductServiceCode: item.ProductServiceCode,
			UnitValue:          item.UnitCost,
			Quantity:           item.Quantity,
			Discount:           item.Discount,
		}
		if concept.UnitCode == "" {
			concept.UnitCode = pkgcfdi.DefaultConceptUnit
		}
		if concept.ProductServiceCode == "" {
			concept.ProductServiceCode = pkgcfdi.DefaultProductServiceCode
		}

		net := item.Amount()
		switch {
		case balance.LessThanOrEqual(decimal.Zero):
			// Precio completo.
		case balance.GreaterThanOrEqual(net):
			concept.Discount = cfdi.Round2(concept.Discount.Add(net))
			balance = cfdi.Round2(balance.Sub(net))
		default:
			concept.Discount = cfdi.Round2(concept.Discount.Add(balance))
			balance = decimal.Zero
		}

		concepts = append(concepts, cfdi.ComputeConceptTax(concept))
	}
	return concepts
}

// BuildFromReceipt arma el borrador de factura (serie I, método PPD) a partir
// de un recibo de cobro, aplicando el saldo a favor del cliente.
func BuildFromReceipt(receipt *entity.Receipt, client *entity.Client, issuer *entity.Account, now time.Time) (*entity.Invoice, error) {
	if len(receipt.Items) == 0 {
		return nil, domain.ErrEmptyInvoice
	}

	draft := newDraft(pkgcfdi.CompTypeIngreso, pkgcfdi.CompTypeIngreso, issuer, client, now)
	draft.PaymentMethod = pkgcfdi.PaymentMethodPPD
	draft.PaymentForm = pkgcfdi.PaymentFormPorDefinir

	concepts := cfdi.FilterConcepts(conceptsFromReceipt(receipt.Items, receipt.PreviousBalance))
	applyTotals(draft, concepts)
	return draft, nil
}
