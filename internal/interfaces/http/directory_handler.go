package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/facturante/facturacion-api/internal/application/directory"
	"github.com/facturante/facturacion-api/internal/application/dto"
)

// DirectoryHandler maneja el directorio de clientes.
type DirectoryHandler struct {
	importUC *directory.ImportUseCase
}

// NewDirectoryHandler construye el handler.
func NewDirectoryHandler(importUC *directory.ImportUseCase) *DirectoryHandler {
	return &DirectoryHandler{importUC: importUC}
}

// BulkImport importa clientes por lotes. Los registros válidos se persisten
// aunque otros del mismo lote fallen; la respuesta separa buenos y malos.
// POST /api/clients/import
func (h *DirectoryHandler) BulkImport(c *fiber.Ctx) error {
	var in dto.BulkImportRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	if len(in.Records) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "records vacío"})
	}
	result := h.importUC.Import(c.Context(), in.Records)
	return c.JSON(result)
}
