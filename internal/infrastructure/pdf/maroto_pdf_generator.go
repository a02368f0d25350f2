// Package pdf implementa la representación impresa del CFDI 4.0 (Anexo 20,
// Resolución Miscelánea Fiscal).
//
// Layout de la página A4:
//
//	┌─────────────────────────────────────────────────────────────┐
//	│  HEADER: Emisor + RFC  │  Serie-Folio + Fecha + Tipo         │
//	│  ─────────────────────────────────────────────────────────  │
//	│  RECEPTOR: Nombre + RFC + Uso CFDI                           │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TABLA: Cant | Clave | Descripción | Valor Unit. | Importe   │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TOTALES: Subtotal / Descuento / IVA / TOTAL                 │
//	│  (tipo P: bloque del complemento de pago en vez de totales)  │
//	│  ─────────────────────────────────────────────────────────  │
//	│  FOOTER SAT: Folio Fiscal + QR + Cadena original + Leyenda   │
//	└─────────────────────────────────────────────────────────────┘
package pdf

import (
	"context"
	"fmt"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/code"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	appbilling "github.com/facturante/facturacion-api/internal/application/billing"
	"github.com/facturante/facturacion-api/internal/domain/entity"
	"github.com/facturante/facturacion-api/pkg/cfdi"
)

var _ appbilling.PDFGenerator = (*MarotoPDFGenerator)(nil)

// ── Paleta de colores ─────────────────────────────────────────────────────────

var (
	colorPrimary = &props.Color{Red: 0, Green: 90, Blue: 60}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
)

// es-MX: separador de miles con coma, dos decimales.
var moneyPrinter = message.NewPrinter(language.MustParse("es-MX"))

var compTypeLabels = map[string]string{
	cfdi.CompTypeIngreso:    "FACTURA (INGRESO)",
	cfdi.CompTypeEgreso:     "NOTA DE CRÉDITO (EGRESO)",
	cfdi.CompTypeComplemento: "COMPLEMENTO DE PAGO",
}

// ── Generator ─────────────────────────────────────────────────────────────────

// MarotoPDFGenerator implementa billing.PDFGenerator usando Maroto v2.
type MarotoPDFGenerator struct{}

// NewMarotoPDFGenerator construye el generador.
func NewMarotoPDFGenerator() *MarotoPDFGenerator { return &MarotoPDFGenerator{} }

// GenerateInvoicePDF genera el PDF del comprobante timbrado y devuelve sus bytes.
func (g *MarotoPDFGenerator) GenerateInvoicePDF(_ context.Context, invoice *entity.Invoice) ([]byte, error) {
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 9}).
		WithTitle("CFDI "+invoice.SerieAndFolio(), true).
		WithAuthor(invoice.Issuer.Name, true).
		Build()

	m := maroto.New(cfg)

	m.AddRows(headerRow(invoice))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))
	m.AddRows(receptorRow(invoice))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))

	m.AddRows(tableHeaderRow())
	for _, r := range tableConceptRows(invoice.Concepts) {
		m.AddRows(r)
	}

	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))
	if invoice.CompType == cfdi.CompTypeComplemento && invoice.Complement != nil {
		for _, r := range complementRows(invoice.Complement) {
			m.AddRows(r)
		}
	} else {
		m.AddRows(totalsRow(invoice))
	}

	m.AddRows(line.NewRow(3))
	m.AddRows(line.NewRow(1, props.Line{Color: colorGray, Thickness: 0.3}))
	for _, r := range satFooterRows(invoice) {
		m.AddRows(r)
	}

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar documento: %w", err)
	}
	return doc.GetBytes(), nil
}

// ── Secciones ─────────────────────────────────────────────────────────────────

// headerRow: emisor + RFC (izq), tipo de comprobante + serie-folio + fecha (der).
func headerRow(invoice *entity.Invoice) core.Row {
	label := compTypeLabels[invoice.CompType]
	if label == "" {
		label = "COMPROBANTE FISCAL DIGITAL"
	}
	fecha := invoice.CreatedDate.Format("02/01/2006 15:04")

	return row.New(20).Add(
		col.New(7).Add(
			text.New(invoice.Issuer.Name, props.Text{
				Style: fontstyle.Bold, Size: 13, Color: colorPrimary, Top: 1,
			}),
			text.New("RFC: "+invoice.Issuer.RFC, props.Text{
				Size: 9, Top: 9, Color: colorGray,
			}),
			text.New("Régimen fiscal: "+invoice.Issuer.TaxRegime+"   |   Lugar de expedición: "+invoice.ExpeditionPlace, props.Text{
				Size: 8, Top: 15, Color: colorGray,
			}),
		),
		col.New(5).Add(
			text.New(label, props.Text{
				Style: fontstyle.Bold, Size: 8, Align: align.Right,
				Color: colorPrimary, Top: 1,
			}),
			text.New(invoice.SerieAndFolio(), props.Text{
				Style: fontstyle.Bold, Size: 12, Align: align.Right, Top: 7,
			}),
			text.New("Fecha: "+fecha, props.Text{
				Size: 8, Align: align.Right, Top: 14, Color: colorGray,
			}),
		),
	)
}

// receptorRow: datos del receptor.
func receptorRow(invoice *entity.Invoice) core.Row {
	return row.New(14).Add(
		col.New(12).Add(
			text.New("RECEPTOR", props.Text{
				Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 1,
			}),
			text.New(invoice.Receptor.Name, props.Text{
				Style: fontstyle.Bold, Size: 10, Top: 6,
			}),
			text.New(fmt.Sprintf("RFC: %s   |   Uso CFDI: %s   |   Método de pago: %s   |   Forma de pago: %s",
				invoice.Receptor.RFC,
				invoice.Receptor.CfdiUse,
				nonEmpty(invoice.PaymentMethod, "—"),
				nonEmpty(invoice.PaymentForm, "—"),
			), props.Text{Size: 8, Top: 12, Color: colorGray}),
		),
	)
}

// tableHeaderRow: cabecera de la tabla de conceptos.
func tableHeaderRow() core.Row {
	h := func(label string, size int, a align.Type) core.Col {
		return col.New(size).Add(text.New(label, props.Text{
			Style: fontstyle.Bold, Size: 8, Align: a,
			Color: colorPrimary, Top: 2, Left: 1, Right: 1,
		}))
	}
	return row.New(8).Add(
		h("Cant.", 1, align.Center),
		h("Clave", 2, align.Center),
		h("Descripción", 5, align.Left),
		h("Valor Unit.", 2, align.Right),
		h("Importe", 2, align.Right),
	)
}

// tableConceptRows: una fila por partida.
func tableConceptRows(concepts []entity.Concept) []core.Row {
	result := make([]core.Row, 0, len(concepts))
	for _, c := range concepts {
		result = append(result, row.New(7).Add(
			col.New(1).Add(text.New(
				c.Quantity.StringFixed(0),
				props.Text{Size: 8, Align: align.Center, Top: 1},
			)),
			col.New(2).Add(text.New(
				c.ProductServiceCode+" / "+c.UnitCode,
				props.Text{Size: 7, Align: align.Center, Top: 1},
			)),
			col.New(5).Add(text.New(
				c.Description,
				props.Text{Size: 8, Align: align.Left, Top: 1, Left: 1},
			)),
			col.New(2).Add(text.New(
				"$"+formatMoney(c.UnitValue),
				props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1},
			)),
			col.New(2).Add(text.New(
				"$"+formatMoney(c.Amount),
				props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1},
			)),
		))
	}
	return result
}

// totalsRow: bloque de totales alineado a la derecha.
func totalsRow(invoice *entity.Invoice) core.Row {
	label := func(s string) core.Component {
		return text.New(s, props.Text{
			Style: fontstyle.Bold, Size: 9, Align: align.Right, Right: 2,
		})
	}
	value := func(s string) core.Component {
		return text.New(s, props.Text{Size: 9, Align: align.Right, Right: 1})
	}
	grandLabel := func(s string) core.Component {
		return text.New(s, props.Text{
			Style: fontstyle.Bold, Size: 10, Align: align.Right,
			Color: colorPrimary, Right: 2,
		})
	}
	grandValue := func(s string) core.Component {
		return text.New(s, props.Text{
			Style: fontstyle.Bold, Size: 10, Align: align.Right,
			Color: colorPrimary, Right: 1,
		})
	}

	return row.New(32).Add(
		col.New(3),
		col.New(3).Add(
			label("Subtotal:"),
			label("Descuento:"),
			label("IVA trasladado:"),
			grandLabel("TOTAL:"),
		),
		col.New(3).Add(
			value("$"+formatMoney(invoice.SubTotal)),
			value("$"+formatMoney(invoice.Discount)),
			value("$"+formatMoney(invoice.TotalTaxAmount)),
			grandValue("$"+formatMoney(invoice.Total)),
		),
		col.New(3),
	)
}

// complementRows: detalle del pago y sus documentos relacionados (tipo P).
func complementRows(comp *entity.PaymentComplement) []core.Row {
	rows := []core.Row{
		row.New(12).Add(col.New(12).Add(
			text.New("COMPLEMENTO DE PAGO "+comp.Version, props.Text{
				Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 1,
			}),
			text.New(fmt.Sprintf("Fecha de pago: %s   |   Forma: %s   |   Moneda: %s   |   Monto: $%s",
				comp.PaymentDate.Format("02/01/2006"),
				comp.PaymentForm,
				comp.Currency,
				formatMoney(comp.Amount),
			), props.Text{Size: 8, Top: 7, Color: colorGray}),
		)),
		row.New(7).Add(
			col.New(3).Add(text.New("Documento", props.Text{Style: fontstyle.Bold, Size: 7, Top: 1})),
			col.New(3).Add(text.New("Parcialidad", props.Text{Style: fontstyle.Bold, Size: 7, Align: align.Center, Top: 1})),
			col.New(2).Add(text.New("Saldo ant.", props.Text{Style: fontstyle.Bold, Size: 7, Align: align.Right, Top: 1})),
			col.New(2).Add(text.New("Pagado", props.Text{Style: fontstyle.Bold, Size: 7, Align: align.Right, Top: 1})),
			col.New(2).Add(text.New("Saldo insoluto", props.Text{Style: fontstyle.Bold, Size: 7, Align: align.Right, Top: 1})),
		),
	}
	for _, d := range comp.RelatedDocuments {
		rows = append(rows, row.New(6).Add(
			col.New(3).Add(text.New(d.SerieAndFolio, props.Text{Size: 7, Top: 1})),
			col.New(3).Add(text.New(fmt.Sprintf("%d", d.Partiality), props.Text{Size: 7, Align: align.Center, Top: 1})),
			col.New(2).Add(text.New("$"+formatMoney(d.LastBalance), props.Text{Size: 7, Align: align.Right, Top: 1})),
			col.New(2).Add(text.New("$"+formatMoney(d.Amount), props.Text{Size: 7, Align: align.Right, Top: 1})),
			col.New(2).Add(text.New("$"+formatMoney(d.CurrentBalance), props.Text{Size: 7, Align: align.Right, Top: 1})),
		))
	}
	return rows
}

// satFooterRows: folio fiscal partido + código QR + leyenda legal.
func satFooterRows(invoice *entity.Invoice) []core.Row {
	rows := []core.Row{
		row.New(6).Add(col.New(12).Add(
			text.New("INFORMACIÓN FISCAL SAT", props.Text{
				Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 1,
			}),
		)),
	}

	if invoice.UUID != "" {
		rows = append(rows, row.New(5).Add(col.New(12).Add(
			text.New("Folio fiscal (UUID): "+invoice.UUID, props.Text{
				Style: fontstyle.Bold, Size: 7, Top: 1,
			}),
		)))
	}

	// Cadena original del complemento de certificación, partida en fragmentos.
	if invoice.OriginalString != "" {
		rows = append(rows, row.New(5).Add(col.New(12).Add(
			text.New("Cadena original del complemento de certificación digital del SAT:", props.Text{
				Style: fontstyle.Bold, Size: 7, Top: 1,
			}),
		)))
		for _, chunk := range splitEvery(invoice.OriginalString, 110) {
			rows = append(rows, row.New(4).Add(col.New(12).Add(
				text.New(chunk, props.Text{Size: 6, Color: colorGray, Top: 0.5, Left: 2}),
			)))
		}
	}

	rows = append(rows, row.New(3))

	if invoice.QRCode != "" {
		rows = append(rows, row.New(45).Add(
			col.New(4).Add(code.NewQr(invoice.QRCode, props.Rect{
				Percent: 95,
				Center:  true,
			})),
			col.New(8).Add(
				text.New("Escanee el código QR para verificar\neste comprobante en el portal del SAT.", props.Text{
					Size: 8, Top: 4, Left: 3, Color: colorGray,
				}),
				text.New("Este documento es una representación\nimpresa de un CFDI 4.0", props.Text{
					Style: fontstyle.Bold, Size: 10, Top: 20,
					Left: 3, Color: colorPrimary,
				}),
			),
		))
	} else {
		rows = append(rows, row.New(10).Add(col.New(12).Add(
			text.New("Este documento es una representación impresa de un CFDI 4.0", props.Text{
				Style: fontstyle.Bold, Size: 9, Align: align.Center,
				Color: colorPrimary, Top: 2,
			}),
		)))
	}

	return rows
}

// ── helpers ───────────────────────────────────────────────────────────────────

func nonEmpty(s, fallback string) string {
	if s != "" {
		return s
	}
	return fallback
}

// formatMoney formatea un monto con separador de miles y dos decimales.
// Ej: 1234.5 → "1,234.50"
func formatMoney(d decimal.Decimal) string {
	return moneyPrinter.Sprintf("%.2f", d.InexactFloat64())
}

// splitEvery divide s en trozos de max n caracteres.
func splitEvery(s string, n int) []string {
	var parts []string
	for len(s) > n {
		parts = append(parts, s[:n])
		s = s[n:]
	}
	if s != "" {
		parts = append(parts, s)
	}
	return parts
}
