// Package pac implementa el cliente del proveedor autorizado de
// certificación (PAC): traducción del comprobante interno al esquema JSON
// orientado a atributos del proveedor y las operaciones de timbrado,
// consulta, cancelación y relacionados.
package pac

import (
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/facturante/facturacion-api/internal/domain/entity"
	pkgcfdi "github.com/facturante/facturacion-api/pkg/cfdi"
)

// dateLayout formato de fecha del Anexo 20 (sin zona horaria).
const dateLayout = "2006-01-02T15:04:05"

// ── Esquema de alambre ────────────────────────────────────────────────────────
// Los nombres de campo replican los atributos del CFDI 4.0; el proveedor
// certifica el documento JSON tal cual y devuelve su proyección timbrada.

type wireTransfer struct {
	Base       string `json:"Base"`
	Impuesto   string `json:"Impuesto"`
	TipoFactor string `json:"TipoFactor"`
	TasaOCuota string `json:"TasaOCuota"`
	Importe    string `json:"Importe"`
}

type wireConceptTaxes struct {
	Traslados []wireTransfer `json:"Traslados"`
}

type wireConcept struct {
	ClaveProdServ string            `json:"ClaveProdServ"`
	ClaveUnidad   string            `json:"ClaveUnidad"`
	Cantidad      string            `json:"Cantidad"`
	Descripcion   string            `json:"Descripcion"`
	ValorUnitario string            `json:"ValorUnitario"`
	Importe       string            `json:"Importe"`
	Descuento     string            `json:"Descuento,omitempty"`
	ObjetoImp     string            `json:"ObjetoImp"`
	Impuestos     *wireConceptTaxes `json:"Impuestos,omitempty"`
}

type wireParty struct {
	Rfc           string `json:"Rfc"`
	Nombre        string `json:"Nombre"`
	RegimenFiscal string `json:"RegimenFiscal,omitempty"`
	// Receptor
	UsoCFDI                 string `json:"UsoCFDI,omitempty"`
	DomicilioFiscalReceptor string `json:"DomicilioFiscalReceptor,omitempty"`
}

type wireTaxTotals struct {
	TotalImpuestosTrasladados string         `json:"TotalImpuestosTrasladados"`
	Traslados                 []wireTransfer `json:"Traslados"`
}

type wireRelated struct {
	TipoRelacion    string   `json:"TipoRelacion"`
	CfdiRelacionado []string `json:"CfdiRelacionados"`
}

type wireRelatedDoc struct {
	IdDocumento      string `json:"IdDocumento"`
	Serie            string `json:"Serie,omitempty"`
	Folio            string `json:"Folio,omitempty"`
	MonedaDR         string `json:"MonedaDR"`
	EquivalenciaDR   string `json:"EquivalenciaDR"`
	MetodoDePagoDR   string `json:"MetodoDePagoDR,omitempty"`
	NumParcialidad   int    `json:"NumParcialidad"`
	ImpSaldoAnt      string `json:"ImpSaldoAnt"`
	ImpPagado        string `json:"ImpPagado"`
	ImpSaldoInsoluto string `json:"ImpSaldoInsoluto"`
	ObjetoImpDR      string `json:"ObjetoImpDR"`
}

type wirePayment struct {
	FechaPago        string           `json:"FechaPago"`
	FormaDePagoP     string           `json:"FormaDePagoP"`
	MonedaP          string           `json:"MonedaP"`
	TipoCambioP      string           `json:"TipoCambioP"`
	Monto            string           `json:"Monto"`
	NomBancoOrdExt   string           `json:"NomBancoOrdExt,omitempty"`
	RfcEmisorCtaOrd  string           `json:"RfcEmisorCtaOrd,omitempty"`
	CtaOrdenante     string           `json:"CtaOrdenante,omitempty"`
	DoctoRelacionado []wireRelatedDoc `json:"DoctoRelacionado"`
}

type wirePagos struct {
	Version string        `json:"Version"`
	Pago    []wirePayment `json:"Pago"`
}

type wireComplement struct {
	Pagos *wirePagos `json:"Pagos,omitempty"`
}

// wireDocument comprobante en el esquema del proveedor: una unión etiquetada
// por TipoDeComprobante. Los tipos I/E llevan conceptos gravados, impuestos
// y relaciones; el tipo P omite método de pago e impuestos, fuerza la moneda
// XXX y anida el nodo Pagos.
type wireDocument struct {
	Version           string          `json:"Version"`
	Serie             string          `json:"Serie"`
	Folio             string          `json:"Folio"`
	Fecha             string          `json:"Fecha"`
	FormaPago         string          `json:"FormaPago,omitempty"`
	SubTotal          string          `json:"SubTotal"`
	Descuento         string          `json:"Descuento,omitempty"`
	Moneda            string          `json:"Moneda"`
	TipoCambio        string          `json:"TipoCambio,omitempty"`
	Total             string          `json:"Total"`
	TipoDeComprobante string          `json:"TipoDeComprobante"`
	Exportacion       string          `json:"Exportacion"`
	MetodoPago        string          `json:"MetodoPago,omitempty"`
	LugarExpedicion   string          `json:"LugarExpedicion"`
	Emisor            wireParty       `json:"Emisor"`
	Receptor          wireParty       `json:"Receptor"`
	CfdiRelacionados  []wireRelated   `json:"CfdiRelacionados,omitempty"`
	Conceptos         []wireConcept   `json:"Conceptos"`
	Impuestos         *wireTaxTotals  `json:"Impuestos,omitempty"`
	Complemento       *wireComplement `json:"Complemento,omitempty"`
}

// newWireDocument traduce el borrador interno al esquema del proveedor.
func newWireDocument(inv *entity.Invoice) wireDocument {
	doc := wireDocument{
		Version:           inv.Version,
		Serie:             inv.Serie,
		Folio:             formatFolio(inv.Folio),
		Fecha:             inv.CreatedDate.Format(dateLayout),
		SubTotal:          inv.SubTotal.StringFixed(2),
		Moneda:            inv.Currency,
		Total:             inv.Total.StringFixed(2),
		TipoDeComprobante: inv.CompType,
		Exportacion:       "01", // no aplica
		LugarExpedicion:   inv.ExpeditionPlace,
		Emisor: wireParty{
			Rfc:           inv.Issuer.RFC,
			Nombre:        inv.Issuer.Name,
			RegimenFiscal: inv.Issuer.TaxRegime,
		},
		Receptor: wireParty{
			Rfc:     inv.Receptor.RFC,
			Nombre:  inv.Receptor.Name,
			UsoCFDI: inv.Receptor.CfdiUse,
		},
	}

	if inv.CompType == pkgcfdi.CompTypeComplemento {
		fillComplement(&doc, inv)
		return doc
	}

	doc.FormaPago = inv.PaymentForm
	doc.MetodoPago = inv.PaymentMethod
	if !inv.ExchangeRate.IsZero() {
		doc.TipoCambio = inv.ExchangeRate.String()
	}
	if inv.Discount.GreaterThan(decimal.Zero) {
		doc.Descuento = inv.Discount.StringFixed(2)
	}

	for _, rel := range groupRelated(inv.RelatedCfdis) {
		doc.CfdiRelacionados = append(doc.CfdiRelacionados, rel)
	}

	for _, c := range inv.Concepts {
		doc.Conceptos = append(doc.Conceptos, newWireConcept(c))
	}

	if len(inv.TaxDetails) > 0 {
		totals := &wireTaxTotals{
			TotalImpuestosTrasladados: inv.TotalTaxAmount.StringFixed(2),
		}
		for _, t := range inv.TaxDetails {
			totals.Traslados = append(totals.Traslados, wireTransfer{
				Base:       t.Base.StringFixed(2),
				Impuesto:   t.TaxCode,
				TipoFactor: t.FactorType,
				TasaOCuota: pkgcfdi.TaxRateString,
				Importe:    t.Amount.StringFixed(2),
			})
		}
		doc.Impuestos = totals
	}
	return doc
}

// fillComplement completa la rama P de la unión: moneda centinela, concepto
// fijo sin impuestos y nodo Pagos anidado.
func fillComplement(doc *wireDocument, inv *entity.Invoice) {
	doc.Moneda = pkgcfdi.CurrencySentinel
	doc.SubTotal = "0"
	doc.Total = "0"

	doc.Conceptos = []wireConcept{{
		ClaveProdServ: pkgcfdi.ComplementConceptCode,
		ClaveUnidad:   pkgcfdi.ComplementConceptUnit,
		Cantidad:      "1",
		Descripcion:   pkgcfdi.ComplementConceptDescription,
		ValorUnitario: "0",
		Importe:       "0",
		ObjetoImp:     "01", // no objeto de impuesto
	}}

	comp := inv.Complement
	if comp == nil {
		return
	}
	payment := wirePayment{
		FechaPago:       comp.PaymentDate.Format(dateLayout),
		FormaDePagoP:    comp.PaymentForm,
		MonedaP:         comp.Currency,
		TipoCambioP:     comp.ExchangeRate.String(),
		Monto:           comp.Amount.StringFixed(2),
		NomBancoOrdExt:  comp.OrderingBankName,
		RfcEmisorCtaOrd: comp.OrderingBankRFC,
		CtaOrdenante:    comp.OrderingAccount,
	}
	for _, rd := range comp.RelatedDocuments {
		payment.DoctoRelacionado = append(payment.DoctoRelacionado, wireRelatedDoc{
			IdDocumento:      rd.RelatedInvoiceUUID,
			MonedaDR:         rd.CurrencyDR,
			EquivalenciaDR:   "1",
			MetodoDePagoDR:   rd.PaymentMethodDR,
			NumParcialidad:   rd.Partiality,
			ImpSaldoAnt:      rd.LastBalance.StringFixed(2),
			ImpPagado:        rd.Amount.StringFixed(2),
			ImpSaldoInsoluto: rd.CurrentBalance.StringFixed(2),
			ObjetoImpDR:      "02",
		})
	}
	doc.Complemento = &wireComplement{Pagos: &wirePagos{
		Version: pkgcfdi.ComplementVersion,
		Pago:    []wirePayment{payment},
	}}
}

// newWireConcept traduce una partida; las partidas sin impuesto (bonificadas
// por completo) se marcan como no objeto de impuesto.
func newWireConcept(c entity.Concept) wireConcept {
	wc := wireConcept{
		ClaveProdServ: c.ProductServiceCode,
		ClaveUnidad:   c.UnitCode,
		Cantidad:      c.Quantity.String(),
		Descripcion:   c.Description,
		ValorUnitario: c.UnitValue.StringFixed(2),
		Importe:       c.Amount.StringFixed(2),
		ObjetoImp:     "02", // sí objeto de impuesto
	}
	if c.Discount.GreaterThan(decimal.Zero) {
		wc.Descuento = c.Discount.StringFixed(2)
	}
	if len(c.Taxes) == 0 {
		wc.ObjetoImp = "01"
		return wc
	}

	taxes := &wireConceptTaxes{}
	for _, t := range c.Taxes {
		taxes.Traslados = append(taxes.Traslados, wireTransfer{
			Base:       t.Base.StringFixed(2),
			Impuesto:   t.TaxCode,
			TipoFactor: t.FactorType,
			TasaOCuota: pkgcfdi.TaxRateString,
			Importe:    t.Amount.StringFixed(2),
		})
	}
	wc.Impuestos = taxes
	return wc
}

// groupRelated agrupa las relaciones por tipo, como exige el nodo
// CfdiRelacionados.
func groupRelated(rels []entity.RelatedCFDI) []wireRelated {
	var out []wireRelated
	index := map[string]int{}
	for _, rel := range rels {
		if rel.UUID == "" {
			continue
		}
		i, ok := index[rel.RelationshipType]
		if !ok {
			out = append(out, wireRelated{TipoRelacion: rel.RelationshipType})
			i = len(out) - 1
			index[rel.RelationshipType] = i
		}
		out[i].CfdiRelacionado = append(out[i].CfdiRelacionado, rel.UUID)
	}
	return out
}

func formatFolio(folio int64) string {
	return strconv.FormatInt(folio, 10)
}

