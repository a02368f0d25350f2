// Package directory administra el directorio de clientes: altas individuales
// e importación por lotes con fallas parciales.
package directory

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/facturante/facturacion-api/internal/application/dto"
	"github.com/facturante/facturacion-api/internal/domain/cfdi"
	"github.com/facturante/facturacion-api/internal/domain/entity"
	"github.com/facturante/facturacion-api/internal/domain/repository"
	"github.com/facturante/facturacion-api/pkg/logger"
)

// ImportUseCase importa clientes por lotes. Cada registro se valida y
// persiste de forma independiente: los válidos entran aunque otros fallen.
type ImportUseCase struct {
	clientRepo repository.ClientRepository
	log        *logger.Logger
}

// NewImportUseCase construye el caso de uso.
func NewImportUseCase(clientRepo repository.ClientRepository, log *logger.Logger) *ImportUseCase {
	return &ImportUseCase{clientRepo: clientRepo, log: log}
}

// validateRecord valida un registro y devuelve el mensaje de rechazo, o ""
// si es válido.
func validateRecord(rec dto.ClientImportRecord) string {
	if rec.AccountNumber == "" {
		return "falta el número de cuenta"
	}
	if fields := cfdi.ValidateRFC("rfc", rec.RFC); len(fields) > 0 {
		return fields[0].Message
	}
	if rec.Name == "" {
		return "falta la razón social"
	}
	address := entity.Address{
		Street:         rec.Street,
		ExteriorNumber: rec.ExteriorNumber,
		InteriorNumber: rec.InteriorNumber,
		Settlement:     rec.Settlement,
		ZipCode:        rec.ZipCode,
		City:           rec.City,
		State:          rec.State,
	}
	if fields := cfdi.ValidateAddress(address); len(fields) > 0 {
		return fields[0].Message
	}
	return ""
}

// Import procesa el lote. Devuelve cuántos registros entraron y el detalle
// de los rechazados con su causa.
func (uc *ImportUseCase) Import(ctx context.Context, records []dto.ClientImportRecord) *dto.BulkImportResponse {
	result := &dto.BulkImportResponse{}

	for i, rec := range records {
		if msg := validateRecord(rec); msg != "" {
			result.Bad.Records = append(result.Bad.Records, dto.FailedImportRecord{
				Index:         i,
				AccountNumber: rec.AccountNumber,
				RFC:           rec.RFC,
				Error:         msg,
			})
			continue
		}

		client := &entity.Client{
			ID:            uuid.New().String(),
			AccountNumber: rec.AccountNumber,
			RFC:           strings.ToUpper(strings.TrimSpace(rec.RFC)),
			Name:          rec.Name,
			Email:         rec.Email,
			CfdiUse:       rec.CfdiUse,
			TaxRegime:     rec.TaxRegime,
			Address: entity.Address{
				Street:         rec.Street,
				ExteriorNumber: rec.ExteriorNumber,
				InteriorNumber: rec.InteriorNumber,
				Settlement:     rec.Settlement,
				ZipCode:        rec.ZipCode,
				City:           rec.City,
				State:          rec.State,
			},
		}
		if err := uc.clientRepo.Create(ctx, client); err != nil {
			result.Bad.Records = append(result.Bad.Records, dto.FailedImportRecord{
				Index:         i,
				AccountNumber: rec.AccountNumber,
				RFC:           rec.RFC,
				Error:         err.Error(),
			})
			continue
		}
		result.Good.Total++
	}

	result.Bad.Total = len(result.Bad.Records)
	uc.log.Info().
		Int("importados", result.Good.Total).
		Int("rechazados", result.Bad.Total).
		Msg("importación de clientes completada")
	return result
}
