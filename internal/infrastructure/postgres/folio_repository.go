package postgres

import (
	"context"
	"fmt"

	"github.com/facturante/facturacion-api/internal/domain/repository"
)

var _ repository.FolioRepository = (*FolioRepo)(nil)

// FolioRepo contador de folios por serie. La reserva es un upsert atómico:
// dos emisiones concurrentes de la misma serie nunca obtienen el mismo folio.
type FolioRepo struct {
	q Querier
}

// NewFolioRepository construye el adaptador. Pasar pool o tx (Querier).
func NewFolioRepository(q Querier) *FolioRepo {
	return &FolioRepo{q: q}
}

// NextFolio reserva y devuelve el siguiente folio de la serie.
func (r *FolioRepo) NextFolio(ctx context.Context, serie string) (int64, error) {
	query := `
		INSERT INTO folio_series (serie, last_folio)
		VALUES ($1, 1)
		ON CONFLICT (serie)
		DO UPDATE SET last_folio = folio_series.last_folio + 1
		RETURNING last_folio`
	var folio int64
	if err := r.q.QueryRow(ctx, query, serie).Scan(&folio); err != nil {
		return 0, fmt.Errorf("reservar folio de la serie %s: %w", serie, err)
	}
	return folio, nil
}
