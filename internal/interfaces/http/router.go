package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/facturante/facturacion-api/internal/application/billing"
	"github.com/facturante/facturacion-api/internal/application/directory"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	Invoices    *billing.InvoiceUseCase
	CreditNotes *billing.CreditNoteUseCase
	Status      *billing.StatusUseCase
	Related     *billing.RelatedResolver
	Import      *directory.ImportUseCase
	JWTSecret   string
}

// Router registra las rutas de la API. Toda la API requiere Bearer Token;
// la auditoría por lotes y la importación del directorio además requieren
// un rol administrativo.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api", AuthMiddleware(deps.JWTSecret))

	invoices := api.Group("/invoices")
	invoiceHandler := NewInvoiceHandler(deps.Invoices, deps.CreditNotes)
	statusHandler := NewStatusHandler(deps.Status)
	relatedHandler := NewRelatedHandler(deps.Related)

	invoices.Post("/receipt", invoiceHandler.CreateFromReceipt)
	invoices.Post("/payment", invoiceHandler.CreateFromPayment)
	invoices.Post("/audit", RequireRole("admin"), statusHandler.Audit)
	invoices.Get("/related-to/:uuid", relatedHandler.RelatedTo)
	invoices.Get("/:id", invoiceHandler.GetByID)
	invoices.Post("/:id/credit-notes", invoiceHandler.CreateCreditNote)
	invoices.Get("/:id/status", statusHandler.GetStatus)
	invoices.Post("/:id/cancellation", statusHandler.RequestCancellation)
	invoices.Get("/:id/related", relatedHandler.RelatedFrom)
	invoices.Get("/:id/related/provider", relatedHandler.RelatedAtProvider)

	clients := api.Group("/clients")
	directoryHandler := NewDirectoryHandler(deps.Import)
	clients.Post("/import", RequireRole("admin", "facturacion"), directoryHandler.BulkImport)
}
