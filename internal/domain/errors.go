package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound     = errors.New("recurso no encontrado")
	ErrInvalidInput = errors.New("entrada inválida")
	ErrEmptyInvoice = errors.New("el recibo no tiene partidas para facturar")
	ErrUnauthorized = errors.New("no autorizado")
	ErrConflict     = errors.New("conflicto con el estado actual")
	ErrProviderDown = errors.New("el servicio de timbrado no está disponible, intente más tarde")
)

// FieldError describe una violación de validación sobre un campo concreto.
// Kind: required | type | range | enum | length.
type FieldError struct {
	Field   string `json:"field"`
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// ValidationError agrupa violaciones de catálogo o de forma detectadas antes
// de cualquier llamada externa.
type ValidationError struct {
	Module string
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "validación fallida"
	}
	msgs := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		msgs = append(msgs, f.Field+": "+f.Message)
	}
	return "validación fallida: " + strings.Join(msgs, "; ")
}

// NewValidationError construye un ValidationError de un solo campo.
func NewValidationError(module, field, kind, message string) *ValidationError {
	return &ValidationError{
		Module: module,
		Fields: []FieldError{{Field: field, Kind: kind, Message: message}},
	}
}

// BusinessRuleError indica una regla de negocio violada: techo de crédito
// excedido, precondición de cancelación no cumplida, CFDI con relacionados.
type BusinessRuleError struct {
	Module  string
	Message string
}

func (e *BusinessRuleError) Error() string { return e.Message }

// NewBusinessRuleError construye el error con el módulo que lo detectó.
func NewBusinessRuleError(module, format string, args ...any) *BusinessRuleError {
	return &BusinessRuleError{Module: module, Message: fmt.Sprintf(format, args...)}
}

// ProviderError envuelve una respuesta de error del proveedor de timbrado
// (PAC). Conserva el status HTTP y el cuerpo original para diagnóstico.
type ProviderError struct {
	StatusCode int
	Payload    string
	Err        error
}

func (e *ProviderError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("proveedor de timbrado: %v", e.Err)
	}
	return fmt.Sprintf("proveedor de timbrado respondió %d: %s", e.StatusCode, e.Payload)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// IsValidation reporta si err (o su cadena) es un ValidationError.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

// IsBusinessRule reporta si err (o su cadena) es un BusinessRuleError.
func IsBusinessRule(err error) bool {
	var b *BusinessRuleError
	return errors.As(err, &b)
}

// IsProvider reporta si err (o su cadena) es un ProviderError.
func IsProvider(err error) bool {
	var p *ProviderError
	return errors.As(err, &p)
}
