package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/facturante/facturacion-api/internal/application/billing"
	"github.com/facturante/facturacion-api/internal/application/directory"
	"github.com/facturante/facturacion-api/internal/infrastructure/mail"
	"github.com/facturante/facturacion-api/internal/infrastructure/pac"
	infrapdf "github.com/facturante/facturacion-api/internal/infrastructure/pdf"
	"github.com/facturante/facturacion-api/internal/infrastructure/postgres"
	"github.com/facturante/facturacion-api/internal/infrastructure/storage"
	httpRouter "github.com/facturante/facturacion-api/internal/interfaces/http"
	"github.com/facturante/facturacion-api/pkg/config"
	"github.com/facturante/facturacion-api/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Service: cfg.App.Name,
		Env:     cfg.App.Env,
		Level:   "info",
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("pac_env", cfg.PAC.Env).
		Msg("iniciando aplicación")

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	invoiceRepo := postgres.NewInvoiceRepository(pool)
	folioRepo := postgres.NewFolioRepository(pool)
	paymentRepo := postgres.NewPaymentRepository(pool)
	receiptRepo := postgres.NewReceiptRepository(pool)
	clientRepo := postgres.NewClientRepository(pool)
	accountRepo := postgres.NewAccountRepository(pool)
	txRunner := postgres.NewTxRunner(pool)

	stamper := pac.NewClient(pac.Config{
		Env:     cfg.PAC.Env,
		APIKey:  cfg.PAC.APIKey,
		BaseURL: cfg.PAC.BaseURL,
	}, log.Component("pac"))

	fileStorage, err := storage.NewLocalStorage(cfg.Storage.BasePath, cfg.Storage.BaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("almacenamiento local")
	}
	pdfGenerator := infrapdf.NewMarotoPDFGenerator()
	mailer := mail.NewSMTPMailer(mail.Config{
		Host:     cfg.SMTP.Host,
		Port:     cfg.SMTP.Port,
		User:     cfg.SMTP.User,
		Password: cfg.SMTP.Password,
		From:     cfg.SMTP.From,
	})

	complementBuilder := billing.NewComplementBuilder(receiptRepo, paymentRepo, invoiceRepo)
	invoiceUC := billing.NewInvoiceUseCase(
		invoiceRepo, folioRepo, clientRepo, accountRepo, receiptRepo, paymentRepo,
		complementBuilder, stamper, fileStorage, pdfGenerator, log.Component("facturacion"),
	)
	creditNoteUC := billing.NewCreditNoteUseCase(
		invoiceRepo, paymentRepo, receiptRepo, clientRepo, accountRepo,
		invoiceUC, pdfGenerator, mailer, log.Component("notas-credito"),
	)
	statusUC := billing.NewStatusUseCase(invoiceRepo, paymentRepo, receiptRepo, stamper, txRunner, log.Component("estados"))
	relatedResolver := billing.NewRelatedResolver(invoiceRepo, stamper)
	importUC := directory.NewImportUseCase(clientRepo, log.Component("directorio"))

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 90, // el timbrado espera la respuesta del PAC
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "Facturante API",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		Invoices:    invoiceUC,
		CreditNotes: creditNoteUC,
		Status:      statusUC,
		Related:     relatedResolver,
		Import:      importUC,
		JWTSecret:   cfg.JWT.Secret,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}
