package dto

// ClientImportRecord registro del archivo de importación del directorio.
type ClientImportRecord struct {
	AccountNumber  string `json:"account_number"`
	RFC            string `json:"rfc"`
	Name           string `json:"name"`
	Email          string `json:"email,omitempty"`
	CfdiUse        string `json:"cfdi_use,omitempty"`
	TaxRegime      string `json:"tax_regime,omitempty"`
	Street         string `json:"street,omitempty"`
	ExteriorNumber string `json:"exterior_number,omitempty"`
	InteriorNumber string `json:"interior_number,omitempty"`
	Settlement     string `json:"settlement,omitempty"`
	ZipCode        string `json:"zip_code,omitempty"`
	City           string `json:"city,omitempty"`
	State          string `json:"state,omitempty"`
}

// BulkImportRequest body para POST /api/clients/import.
type BulkImportRequest struct {
	Records []ClientImportRecord `json:"records"`
}

// FailedImportRecord registro rechazado con la causa.
type FailedImportRecord struct {
	Index         int    `json:"index"`
	AccountNumber string `json:"account_number,omitempty"`
	RFC           string `json:"rfc,omitempty"`
	Error         string `json:"error"`
}

// ImportGood resumen de registros importados.
type ImportGood struct {
	Total int `json:"total"`
}

// ImportBad resumen y detalle de registros rechazados.
type ImportBad struct {
	Total   int                  `json:"total"`
	Records []FailedImportRecord `json:"records"`
}

// BulkImportResponse resultado de la importación: los registros válidos se
// persisten aunque otros fallen.
type BulkImportResponse struct {
	Good ImportGood `json:"good"`
	Bad  ImportBad  `json:"bad"`
}
