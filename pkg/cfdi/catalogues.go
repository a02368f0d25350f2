// Package cfdi contiene catálogos y constantes alineados al Anexo 20 del
// Comprobante Fiscal Digital por Internet (CFDI) 4.0 del SAT (México).
package cfdi

import "github.com/shopspring/decimal"

// Versión del comprobante emitido por este sistema.
const Version = "4.0"

// =============================================================================
// Tipos de comprobante (c_TipoDeComprobante) y series internas asociadas.
// La serie interna coincide con el tipo: I=ingreso, E=egreso (nota de
// crédito), P=complemento de pago.
// =============================================================================

const (
	CompTypeIngreso     = "I"
	CompTypeEgreso      = "E"
	CompTypeComplemento = "P"
)

// ValidCompTypes tipos de comprobante que emite este sistema.
var ValidCompTypes = map[string]bool{
	CompTypeIngreso:     true,
	CompTypeEgreso:      true,
	CompTypeComplemento: true,
}

// =============================================================================
// c_FormaPago (catálogo SAT) - códigos de uso frecuente en suscripciones.
// =============================================================================

const (
	PaymentFormEfectivo         = "01" // Efectivo
	PaymentFormChequeNominativo = "02" // Cheque nominativo
	PaymentFormTransferencia    = "03" // Transferencia electrónica de fondos
	PaymentFormTarjetaCredito   = "04" // Tarjeta de crédito
	PaymentFormMonederoElect    = "05" // Monedero electrónico
	PaymentFormDineroElect      = "06" // Dinero electrónico
	PaymentFormTarjetaDebito    = "28" // Tarjeta de débito
	PaymentFormTarjetaServicio  = "29" // Tarjeta de servicios
	PaymentFormPorDefinir       = "99" // Por definir
)

// ValidPaymentForms formas de pago aceptadas por el motor.
var ValidPaymentForms = map[string]bool{
	PaymentFormEfectivo: true, PaymentFormChequeNominativo: true,
	PaymentFormTransferencia: true, PaymentFormTarjetaCredito: true,
	PaymentFormMonederoElect: true, PaymentFormDineroElect: true,
	"08": true, "12": true, "13": true, "14": true, "15": true,
	"17": true, "23": true, "24": true, "25": true, "26": true, "27": true,
	PaymentFormTarjetaDebito: true, PaymentFormTarjetaServicio: true,
	"30": true, "31": true, PaymentFormPorDefinir: true,
}

// BankOperationPaymentForms formas de pago que exigen datos de la cuenta
// ordenante en el complemento de pago (banco emisor, RFC y cuenta).
var BankOperationPaymentForms = map[string]bool{
	PaymentFormChequeNominativo: true,
	PaymentFormTransferencia:    true,
	PaymentFormTarjetaCredito:   true,
	PaymentFormMonederoElect:    true,
	PaymentFormDineroElect:      true,
	PaymentFormTarjetaDebito:    true,
	PaymentFormTarjetaServicio:  true,
}

// =============================================================================
// c_MetodoPago
// =============================================================================

const (
	PaymentMethodPUE = "PUE" // Pago en una sola exhibición
	PaymentMethodPPD = "PPD" // Pago en parcialidades o diferido
)

// ValidPaymentMethods métodos de pago del catálogo.
var ValidPaymentMethods = map[string]bool{
	PaymentMethodPUE: true,
	PaymentMethodPPD: true,
}

// =============================================================================
// c_UsoCFDI - subconjunto operado por el negocio.
// =============================================================================

const (
	CfdiUseGastosGenerales = "G03" // Gastos en general
	CfdiUseDevoluciones    = "G02" // Devoluciones, descuentos o bonificaciones
	CfdiUsePorDefinir      = "S01" // Sin efectos fiscales
	CfdiUsePagos           = "CP01" // Pagos (complemento)
)

// ValidCfdiUses usos de CFDI aceptados en solicitudes.
var ValidCfdiUses = map[string]bool{
	"G01": true, CfdiUseDevoluciones: true, CfdiUseGastosGenerales: true,
	"I01": true, "I02": true, "I03": true, "I04": true, "I08": true,
	"D01": true, "D02": true, "D04": true, "D10": true,
	CfdiUsePorDefinir: true, CfdiUsePagos: true,
}

// =============================================================================
// c_TipoRelacion - relaciones entre CFDI.
// =============================================================================

const (
	RelationCreditNote       = "01" // Nota de crédito de los documentos relacionados
	RelationDebitNote        = "02" // Nota de débito de los documentos relacionados
	RelationReturn           = "03" // Devolución de mercancía
	RelationSubstitution     = "04" // Sustitución de los CFDI previos
	RelationPreviousTransfer = "05" // Traslados de mercancías facturados previamente
	RelationPreviousInvoice  = "06" // Factura generada por los traslados previos
	RelationAdvanceApplied   = "07" // CFDI por aplicación de anticipo
)

// ValidRelationshipTypes tipos de relación del catálogo c_TipoRelacion.
var ValidRelationshipTypes = map[string]bool{
	RelationCreditNote: true, RelationDebitNote: true, RelationReturn: true,
	RelationSubstitution: true, RelationPreviousTransfer: true,
	RelationPreviousInvoice: true, RelationAdvanceApplied: true,
}

// =============================================================================
// Impuestos. El negocio solo opera IVA trasladado al 16%.
// =============================================================================

const (
	TaxCodeIVA    = "002"
	TaxFactorTasa = "Tasa"
	TaxRateString = "0.160000"
)

// VATRate tasa de IVA (16%) aplicada a todos los conceptos gravados.
var VATRate = decimal.RequireFromString("0.16")

// VATDivisor divisor para normalizar montos que llegan con IVA incluido.
var VATDivisor = decimal.RequireFromString("1.16")

// =============================================================================
// Moneda.
// =============================================================================

const (
	CurrencyMXN      = "MXN"
	CurrencySentinel = "XXX" // obligatoria en comprobantes tipo P
)

// =============================================================================
// Concepto fijo de los comprobantes tipo P (Anexo 20, regla del complemento).
// =============================================================================

// Valores por defecto de los conceptos de servicio de suscripción.
const (
	DefaultConceptUnit        = "E48"      // Unidad de servicio
	DefaultProductServiceCode = "81161700" // Servicios de suscripción/telecomunicaciones
)

const (
	ComplementConceptCode        = "84111506"
	ComplementConceptUnit        = "ACT"
	ComplementConceptDescription = "Pago"
	ComplementVersion            = "2.0" // versión del nodo Pagos
)
