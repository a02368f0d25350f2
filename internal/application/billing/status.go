package billing

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/facturante/facturacion-api/internal/domain"
	"github.com/facturante/facturacion-api/internal/domain/entity"
	"github.com/facturante/facturacion-api/internal/domain/repository"
	"github.com/facturante/facturacion-api/pkg/logger"
)

// StatusResult resultado de la consulta de estado de un comprobante.
type StatusResult struct {
	Invoice  *entity.Invoice
	Provider *ProviderStatus
	Updated  bool // true si la consulta mutó el estado almacenado
}

// CancellationResult resultado de una solicitud de cancelación. Errors
// acumula fallas secundarias (reconciliación de estado, cascada) que no
// abortan el resultado global.
type CancellationResult struct {
	Status   string
	Message  string
	Comments string
	Invoice  *entity.Invoice
	Payment  *entity.Payment
	Receipt  *entity.Receipt
	Errors   []string
}

// AuditResult resultado de la reconciliación por lotes.
type AuditResult struct {
	Status  string
	Message string
	Errors  []string
}

// StatusUseCase máquina de estados del ciclo de vida de comprobantes:
// consulta el estado ante el proveedor, lo mapea al estado local con la tabla
// fija de transiciones y propaga la cancelación al pago o recibo dueño.
//
// Transiciones válidas: active → c_process → cancelled; c_process → active
// cuando el SAT rechaza la solicitud. Ninguna otra.
type StatusUseCase struct {
	invoiceRepo repository.InvoiceRepository
	paymentRepo repository.PaymentRepository
	receiptRepo repository.ReceiptRepository
	stamper     Stamper
	tx          CascadeTxRunner
	log         *logger.Logger
}

// NewStatusUseCase construye la máquina de estados.
func NewStatusUseCase(
	invoiceRepo repository.InvoiceRepository,
	paymentRepo repository.PaymentRepository,
	receiptRepo repository.ReceiptRepository,
	stamper Stamper,
	tx CascadeTxRunner,
	log *logger.Logger,
) *StatusUseCase {
	return &StatusUseCase{
		invoiceRepo: invoiceRepo,
		paymentRepo: paymentRepo,
		receiptRepo: receiptRepo,
		stamper:     stamper,
		tx:          tx,
		log:         log,
	}
}

// mapStatus aplica, en orden, la tabla de transiciones sobre el estado
// almacenado. Devuelve el estado resultante (igual al actual si ninguna
// regla aplica).
func mapStatus(stored string, ps *ProviderStatus) string {
	status := strings.ToLower(ps.Status)
	cancellation := strings.ToLower(ps.CancellationStatus)

	switch {
	case (stored == entity.StatusActive || stored == entity.StatusCancelProcess) && status == "cancelado":
		return entity.StatusCancelled
	case stored == entity.StatusCancelProcess && cancellation == "solicitud rechazada":
		return entity.StatusActive
	case stored == entity.StatusActive && cancellation == "en proceso":
		return entity.StatusCancelProcess
	}
	return stored
}

// GetStatus consulta el estado del comprobante ante el proveedor. Sin update
// es una operación de solo lectura: ninguna respuesta del proveedor muta el
// estado almacenado. Con update aplica la tabla de transiciones; si el
// resultado es cancelled persiste el estado (con fecha de cancelación) e
// invoca la cascada de desvinculación.
func (uc *StatusUseCase) GetStatus(ctx context.Context, invoiceID string, update bool) (*StatusResult, error) {
	inv, err := uc.invoiceRepo.GetByID(ctx, invoiceID)
	if err != nil || inv == nil {
		return nil, fmt.Errorf("obtener comprobante %s: %w", invoiceID, orNotFound(err))
	}

	ps, err := uc.stamper.Status(ctx, StatusQuery{
		IssuerRFC:   inv.Issuer.RFC,
		ReceptorRFC: inv.Receptor.RFC,
		Total:       inv.Total,
		UUID:        inv.UUID,
	})
	if err != nil {
		return nil, err
	}

	result := &StatusResult{Invoice: inv, Provider: ps}
	if !update {
		return result, nil
	}

	next := mapStatus(inv.Status, ps)
	if next == inv.Status {
		return result, nil
	}

	inv.Status = next
	if next == entity.StatusCancelled {
		now := time.Now()
		inv.CancelledDate = &now
	}
	if err := uc.invoiceRepo.UpdateStatus(ctx, inv.ID, next); err != nil {
		return nil, fmt.Errorf("persistir estado %s del comprobante %s: %w", next, inv.ID, err)
	}
	result.Updated = true

	uc.log.Info().
		Str("uuid", inv.UUID).
		Str("status", next).
		Msg("estado del comprobante actualizado")

	if next == entity.StatusCancelled {
		if _, _, err := uc.DetachFromOwner(ctx, inv.ID); err != nil {
			return nil, fmt.Errorf("desvincular comprobante cancelado %s: %w", inv.ID, err)
		}
	}
	return result, nil
}

// Mensajes de la tabla fija de respuestas de cancelación del proveedor.
var cancellationOutcomes = map[int]struct {
	message  string
	comments string
}{
	201: {"Comprobante cancelado exitosamente", ""},
	202: {"Comprobante previamente cancelado", "la cancelación ya había sido procesada"},
	203: {"El RFC no corresponde al emisor del comprobante", "verifique el certificado con el que se timbró"},
	205: {"Comprobante no encontrado por el SAT", "aplica un plazo de gracia de 72 horas tras el timbrado"},
}

// RequestCancellation valida las precondiciones de cancelación, solicita la
// cancelación al proveedor y reconcilia el estado local. Las precondiciones
// fallan cada una con su propio error de regla de negocio; los errores de la
// reconciliación posterior se acumulan sin abortar el resultado.
func (uc *StatusUseCase) RequestCancellation(ctx context.Context, invoiceID string) (*CancellationResult, error) {
	inv, err := uc.invoiceRepo.GetByID(ctx, invoiceID)
	if err != nil || inv == nil {
		return nil, fmt.Errorf("obtener comprobante %s: %w", invoiceID, orNotFound(err))
	}

	ps, err := uc.stamper.Status(ctx, StatusQuery{
		IssuerRFC:   inv.Issuer.RFC,
		ReceptorRFC: inv.Receptor.RFC,
		Total:       inv.Total,
		UUID:        inv.UUID,
	})
	if err != nil {
		return nil, err
	}

	if strings.EqualFold(strings.TrimSpace(ps.IsItCancelable), "no cancelable") {
		return nil, domain.NewBusinessRuleError("invoices",
			"el comprobante %s no es cancelable ante el SAT", inv.UUID)
	}
	if strings.EqualFold(strings.TrimSpace(ps.Status), "cancelado") {
		return nil, domain.NewBusinessRuleError("invoices",
			"el comprobante %s ya está cancelado: %s", inv.UUID, ps.CancellationStatus)
	}
	affecting, err := uc.invoiceRepo.ListAffecting(ctx, inv.UUID)
	if err != nil {
		return nil, fmt.Errorf("consultar CFDIs relacionados de %s: %w", inv.UUID, err)
	}
	if len(affecting) > 0 {
		return nil, domain.NewBusinessRuleError("invoices",
			"el comprobante %s no es cancelable, tiene CFDIs relacionados", inv.UUID)
	}

	code, err := uc.stamper.Cancel(ctx, inv.Issuer.RFC, inv.UUID)
	if err != nil {
		return nil, err
	}
	outcome, ok := cancellationOutcomes[code]
	if !ok {
		return nil, &domain.ProviderError{
			StatusCode: code,
			Payload:    fmt.Sprintf("respuesta de cancelación no reconocida para %s", inv.UUID),
		}
	}

	result := &CancellationResult{
		Status:   "ok",
		Message:  outcome.message,
		Comments: outcome.comments,
	}

	// Reconciliar estado local; las fallas aquí no invalidan la respuesta
	// del proveedor, se reportan como errores secundarios.
	statusResult, err := uc.GetStatus(ctx, invoiceID, true)
	if err != nil {
		result.Errors = append(result.Errors, err.Error())
		result.Invoice = inv
		return result, nil
	}
	result.Invoice = statusResult.Invoice

	if statusResult.Invoice.Status == entity.StatusCancelled {
		payment, receipt, err := uc.owners(ctx, invoiceID)
		if err != nil {
			result.Errors = append(result.Errors, err.Error())
		}
		result.Payment = payment
		result.Receipt = receipt
	}
	return result, nil
}

// owners devuelve el pago y/o recibo ligados al comprobante tras la cascada.
func (uc *StatusUseCase) owners(ctx context.Context, invoiceID string) (*entity.Payment, *entity.Receipt, error) {
	payment, err := uc.paymentRepo.GetOwnerOfInvoice(ctx, invoiceID)
	if err != nil {
		return nil, nil, fmt.Errorf("consultar pago dueño: %w", err)
	}
	receipt, err := uc.receiptRepo.GetOwnerOfInvoice(ctx, invoiceID)
	if err != nil {
		return payment, nil, fmt.Errorf("consultar recibo dueño: %w", err)
	}
	return payment, receipt, nil
}

// DetachFromOwner desvincula un comprobante cancelado de su pago o recibo
// dueño. Idempotente: sin dueño no hace nada. El registro del comprobante se
// conserva siempre (estado blando). Toda la cascada corre en una transacción:
// un fallo intermedio revierte las desvinculaciones ya aplicadas.
func (uc *StatusUseCase) DetachFromOwner(ctx context.Context, invoiceID string) (*entity.Payment, *entity.Receipt, error) {
	inv, err := uc.invoiceRepo.GetByID(ctx, invoiceID)
	if err != nil || inv == nil {
		return nil, nil, fmt.Errorf("obtener comprobante %s: %w", invoiceID, orNotFound(err))
	}
	if !inv.IsCancelled() {
		return nil, nil, domain.NewBusinessRuleError("invoices",
			"solo un comprobante cancelado puede desvincularse de su dueño")
	}

	var (
		payment *entity.Payment
		receipt *entity.Receipt
	)
	err = uc.tx.Run(ctx, func(paymentRepo repository.PaymentRepository, receiptRepo repository.ReceiptRepository) error {
		now := time.Now()

		owner, err := paymentRepo.GetOwnerOfInvoice(ctx, invoiceID)
		if err != nil {
			return fmt.Errorf("consultar pago dueño de %s: %w", invoiceID, err)
		}
		if owner != nil {
			kept := owner.InvoiceIDs[:0]
			for _, id := range owner.InvoiceIDs {
				if id != invoiceID {
					kept = append(kept, id)
				}
			}
			owner.InvoiceIDs = kept
			if owner.Status == entity.PaymentStatusCredit && len(owner.InvoiceIDs) == 0 {
				owner.Status = entity.PaymentStatusCancelled
			} else {
				owner.Status = entity.PaymentStatusUnassigned
			}
			owner.UpdatedAt = now
			if err := paymentRepo.Update(ctx, owner); err != nil {
				return fmt.Errorf("desvincular comprobante del pago %s: %w", owner.ID, err)
			}
			payment = owner
			return nil
		}

		rec, err := receiptRepo.GetOwnerOfInvoice(ctx, invoiceID)
		if err != nil {
			return fmt.Errorf("consultar recibo dueño de %s: %w", invoiceID, err)
		}
		if rec == nil {
			return nil // sin dueño: nada que desvincular
		}

		rec.InvoiceID = ""
		rec.Status = entity.ReceiptStatusCancelled
		rec.UpdatedAt = now
		if err := receiptRepo.Update(ctx, rec); err != nil {
			return fmt.Errorf("desvincular comprobante del recibo %s: %w", rec.ID, err)
		}

		// Todo pago que asignaba montos a este recibo pierde esa asignación.
		payments, err := paymentRepo.ListByReceipt(ctx, rec.ID)
		if err != nil {
			return fmt.Errorf("consultar pagos del recibo %s: %w", rec.ID, err)
		}
		for _, p := range payments {
			kept := p.Details[:0]
			for _, d := range p.Details {
				if d.ReceiptID != rec.ID {
					kept = append(kept, d)
				}
			}
			p.Details = kept
			p.Status = entity.PaymentStatusUnassigned
			p.UpdatedAt = now
			if err := paymentRepo.Update(ctx, p); err != nil {
				return fmt.Errorf("retirar asignación del pago %s: %w", p.ID, err)
			}
		}
		receipt = rec
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return payment, receipt, nil
}

// AuditInvoicesStatus reconcilia por lotes todos los comprobantes en
// c_process contra el proveedor. Best-effort: la falla de un registro no
// aborta el lote.
func (uc *StatusUseCase) AuditInvoicesStatus(ctx context.Context) (*AuditResult, error) {
	pending, err := uc.invoiceRepo.ListByStatus(ctx, entity.StatusCancelProcess)
	if err != nil {
		return nil, fmt.Errorf("listar comprobantes en proceso de cancelación: %w", err)
	}

	result := &AuditResult{Status: "ok"}
	for _, inv := range pending {
		if _, err := uc.GetStatus(ctx, inv.ID, true); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", inv.UUID, err))
		}
	}
	result.Message = fmt.Sprintf("%d comprobantes auditados, %d con error", len(pending), len(result.Errors))
	if len(result.Errors) > 0 {
		result.Status = "partial"
	}
	uc.log.Info().Int("total", len(pending)).Int("errores", len(result.Errors)).Msg("auditoría de estados completada")
	return result, nil
}
