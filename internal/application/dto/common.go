package dto

import "github.com/facturante/facturacion-api/internal/domain"

// ErrorResponse cuerpo de error HTTP.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// FieldErrorResponse detalle de un campo inválido.
type FieldErrorResponse struct {
	Field   string `json:"field"`
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// ValidationErrorResponse cuerpo de error de validación: el módulo que
// rechazó la solicitud y el detalle por campo.
type ValidationErrorResponse struct {
	Code    string               `json:"code"`
	Module  string               `json:"module"`
	Message string               `json:"message"`
	Fields  []FieldErrorResponse `json:"fields"`
}

// NewValidationErrorResponse convierte el error de dominio a su proyección.
func NewValidationErrorResponse(err *domain.ValidationError) ValidationErrorResponse {
	fields := make([]FieldErrorResponse, 0, len(err.Fields))
	for _, f := range err.Fields {
		fields = append(fields, FieldErrorResponse{Field: f.Field, Kind: f.Kind, Message: f.Message})
	}
	return ValidationErrorResponse{
		Code:    "validation_error",
		Module:  err.Module,
		Message: err.Error(),
		Fields:  fields,
	}
}
