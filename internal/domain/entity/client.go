package entity

import "time"

// Address domicilio fiscal de un cliente.
type Address struct {
	Street         string
	ExteriorNumber string
	InteriorNumber string
	Settlement     string // colonia
	ZipCode        string
	City           string
	State          string
}

// Client cliente del directorio de cuentas. AccountNumber es el folio de la
// cuenta con que el negocio lo identifica.
type Client struct {
	ID            string
	AccountNumber string
	RFC           string
	Name          string
	Email         string
	CfdiUse       string // c_UsoCFDI por defecto del cliente
	TaxRegime     string // c_RegimenFiscal
	Address       Address
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Account datos del emisor (la empresa que factura).
type Account struct {
	ID              string
	RFC             string
	Name            string
	TaxRegime       string
	ExpeditionPlace string // código postal de expedición
	Email           string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}
