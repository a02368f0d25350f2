package cfdi

import (
	"fmt"
	"regexp"

	"github.com/shopspring/decimal"

	"github.com/facturante/facturacion-api/internal/domain"
	"github.com/facturante/facturacion-api/internal/domain/entity"
	pkgcfdi "github.com/facturante/facturacion-api/pkg/cfdi"
)

// Las validaciones son funciones puras que devuelven la lista de violaciones
// por campo. Se invocan antes de cualquier llamada externa; si la lista no
// está vacía el llamador construye un domain.ValidationError y corta.

var rfcPattern = regexp.MustCompile(`^[A-ZÑ&]{3,4}[0-9]{6}[A-Z0-9]{3}$`)

// ValidateRFC valida el formato del RFC (persona moral 12, física 13).
func ValidateRFC(field, rfc string) []domain.FieldError {
	if rfc == "" {
		return []domain.FieldError{{Field: field, Kind: "required", Message: "el RFC es obligatorio"}}
	}
	if len(rfc) < 12 || len(rfc) > 13 {
		return []domain.FieldError{{Field: field, Kind: "length", Message: "el RFC debe tener 12 o 13 caracteres"}}
	}
	if !rfcPattern.MatchString(rfc) {
		return []domain.FieldError{{Field: field, Kind: "type", Message: "el RFC no tiene un formato válido"}}
	}
	return nil
}

// ValidateRelationshipType valida contra el catálogo c_TipoRelacion.
func ValidateRelationshipType(rt string) []domain.FieldError {
	if rt == "" {
		return []domain.FieldError{{Field: "relationshipType", Kind: "required", Message: "el tipo de relación es obligatorio"}}
	}
	if !pkgcfdi.ValidRelationshipTypes[rt] {
		return []domain.FieldError{{Field: "relationshipType", Kind: "enum", Message: fmt.Sprintf("tipo de relación %q fuera del catálogo", rt)}}
	}
	return nil
}

// ValidateCfdiUse valida contra el catálogo c_UsoCFDI.
func ValidateCfdiUse(use string) []domain.FieldError {
	if use == "" {
		return []domain.FieldError{{Field: "cfdiUse", Kind: "required", Message: "el uso de CFDI es obligatorio"}}
	}
	if !pkgcfdi.ValidCfdiUses[use] {
		return []domain.FieldError{{Field: "cfdiUse", Kind: "enum", Message: fmt.Sprintf("uso de CFDI %q fuera del catálogo", use)}}
	}
	return nil
}

// ValidatePaymentForm valida contra el catálogo c_FormaPago.
func ValidatePaymentForm(form string) []domain.FieldError {
	if form == "" {
		return []domain.FieldError{{Field: "paymentForm", Kind: "required", Message: "la forma de pago es obligatoria"}}
	}
	if !pkgcfdi.ValidPaymentForms[form] {
		return []domain.FieldError{{Field: "paymentForm", Kind: "enum", Message: fmt.Sprintf("forma de pago %q fuera del catálogo", form)}}
	}
	return nil
}

// CreditConcept partida solicitada para una nota de crédito. El costo
// unitario llega sin IVA; el importe solicitado por línea es
// round2(quantity × unitCost × 1.16).
type CreditConcept struct {
	Description string
	UnitCost    decimal.Decimal
	Quantity    decimal.Decimal
}

// ValidateCreditConcepts valida las partidas de una nota de crédito.
func ValidateCreditConcepts(concepts []CreditConcept) []domain.FieldError {
	if len(concepts) == 0 {
		return []domain.FieldError{{Field: "concepts", Kind: "required", Message: "se requiere al menos un concepto"}}
	}
	var errs []domain.FieldError
	for i, c := range concepts {
		if c.Description == "" {
			errs = append(errs, domain.FieldError{
				Field: fmt.Sprintf("concepts[%d].description", i), Kind: "required",
				Message: "la descripción es obligatoria",
			})
		}
		if !c.Quantity.GreaterThan(decimal.Zero) {
			errs = append(errs, domain.FieldError{
				Field: fmt.Sprintf("concepts[%d].quantity", i), Kind: "range",
				Message: "la cantidad debe ser mayor que cero",
			})
		}
		if !c.UnitCost.GreaterThan(decimal.Zero) {
			errs = append(errs, domain.FieldError{
				Field: fmt.Sprintf("concepts[%d].unitCost", i), Kind: "range",
				Message: "el costo unitario debe ser mayor que cero",
			})
		}
	}
	return errs
}

// ValidateAddress valida un domicilio del directorio. Código postal y colonia
// son obligatorios para el timbrado.
func ValidateAddress(addr entity.Address) []domain.FieldError {
	var errs []domain.FieldError
	if addr.ZipCode == "" || addr.Settlement == "" {
		errs = append(errs, domain.FieldError{
			Field: "address", Kind: "required",
			Message: "No hay código postal o colonia.",
		})
	}
	if addr.ZipCode != "" && len(addr.ZipCode) != 5 {
		errs = append(errs, domain.FieldError{
			Field: "address.zipCode", Kind: "length",
			Message: "el código postal debe tener 5 dígitos",
		})
	}
	return errs
}

// ValidateInvoiceTotals comprueba los invariantes monetarios del comprobante:
// total == round2(subTotal + totalTaxAmount − discount) y coherencia de los
// agregados con las partidas.
func ValidateInvoiceTotals(inv *entity.Invoice) []domain.FieldError {
	if inv == nil {
		return []domain.FieldError{{Field: "invoice", Kind: "required", Message: "comprobante nulo"}}
	}
	var errs []domain.FieldError
	totals := Aggregate(inv.Concepts)
	if !inv.SubTotal.Equal(totals.SubTotal) {
		errs = append(errs, domain.FieldError{
			Field: "subTotal", Kind: "range",
			Message: fmt.Sprintf("subTotal (%s) no coincide con la suma de importes (%s)", inv.SubTotal, totals.SubTotal),
		})
	}
	if !inv.TotalTaxAmount.Equal(totals.TotalTax) {
		errs = append(errs, domain.FieldError{
			Field: "totalTaxAmount", Kind: "range",
			Message: fmt.Sprintf("totalTaxAmount (%s) no coincide con la suma de impuestos (%s)", inv.TotalTaxAmount, totals.TotalTax),
		})
	}
	expected := Round2(inv.SubTotal.Add(inv.TotalTaxAmount).Sub(inv.Discount))
	if !inv.Total.Equal(expected) {
		errs = append(errs, domain.FieldError{
			Field: "total", Kind: "range",
			Message: fmt.Sprintf("total (%s) no coincide con subTotal + impuestos − descuento (%s)", inv.Total, expected),
		})
	}
	return errs
}
