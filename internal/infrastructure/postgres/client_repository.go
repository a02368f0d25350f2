package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/facturante/facturacion-api/internal/domain/entity"
	"github.com/facturante/facturacion-api/internal/domain/repository"
)

var _ repository.ClientRepository = (*ClientRepo)(nil)

// ClientRepo implementación de ClientRepository (usable con pool o tx).
type ClientRepo struct {
	q Querier
}

// NewClientRepository construye el adaptador. Pasar pool o tx (Querier).
func NewClientRepository(q Querier) *ClientRepo {
	return &ClientRepo{q: q}
}

const clientColumns = `
	id, account_number, rfc, name, email, cfdi_use, tax_regime,
	street, exterior_number, interior_number, settlement, zip_code, city, state,
	created_at, updated_at`

// Create da de alta un cliente en el directorio.
func (r *ClientRepo) Create(ctx context.Context, c *entity.Client) error {
	query := `
		INSERT INTO clients (` + clientColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, now(), now())`
	_, err := r.q.Exec(ctx, query,
		c.ID, c.AccountNumber, c.RFC, c.Name,
		nullIfEmpty(c.Email), nullIfEmpty(c.CfdiUse), nullIfEmpty(c.TaxRegime),
		nullIfEmpty(c.Address.Street), nullIfEmpty(c.Address.ExteriorNumber),
		nullIfEmpty(c.Address.InteriorNumber), c.Address.Settlement,
		c.Address.ZipCode, nullIfEmpty(c.Address.City), nullIfEmpty(c.Address.State),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("el número de cuenta %s ya existe: %w", c.AccountNumber, err)
		}
		return fmt.Errorf("insertar cliente: %w", err)
	}
	return nil
}

// GetByID obtiene un cliente, o nil si no existe.
func (r *ClientRepo) GetByID(ctx context.Context, id string) (*entity.Client, error) {
	return r.getOne(ctx, `SELECT `+clientColumns+` FROM clients WHERE id = $1`, id)
}

// GetByAccountNumber obtiene un cliente por número de cuenta, o nil.
func (r *ClientRepo) GetByAccountNumber(ctx context.Context, accountNumber string) (*entity.Client, error) {
	return r.getOne(ctx, `SELECT `+clientColumns+` FROM clients WHERE account_number = $1`, accountNumber)
}

// GetByRFC obtiene un cliente por RFC, o nil.
func (r *ClientRepo) GetByRFC(ctx context.Context, rfc string) (*entity.Client, error) {
	return r.getOne(ctx, `SELECT `+clientColumns+` FROM clients WHERE rfc = $1`, rfc)
}

func (r *ClientRepo) getOne(ctx context.Context, query string, arg any) (*entity.Client, error) {
	var (
		c     entity.Client
		email, cfdiUse, taxRegime *string
		street, extNum, intNum, city, state *string
	)
	err := r.q.QueryRow(ctx, query, arg).Scan(
		&c.ID, &c.AccountNumber, &c.RFC, &c.Name, &email, &cfdiUse, &taxRegime,
		&street, &extNum, &intNum, &c.Address.Settlement, &c.Address.ZipCode,
		&city, &state, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("obtener cliente: %w", err)
	}
	c.Email = deref(email)
	c.CfdiUse = deref(cfdiUse)
	c.TaxRegime = deref(taxRegime)
	c.Address.Street = deref(street)
	c.Address.ExteriorNumber = deref(extNum)
	c.Address.InteriorNumber = deref(intNum)
	c.Address.City = deref(city)
	c.Address.State = deref(state)
	return &c, nil
}

var _ repository.AccountRepository = (*AccountRepo)(nil)

// AccountRepo expone los datos del emisor. La tabla accounts tiene un único
// registro con la cuenta fiscal de la empresa.
type AccountRepo struct {
	q Querier
}

// NewAccountRepository construye el adaptador.
func NewAccountRepository(q Querier) *AccountRepo {
	return &AccountRepo{q: q}
}

// GetIssuer devuelve la cuenta emisora, o nil si no está configurada.
func (r *AccountRepo) GetIssuer(ctx context.Context) (*entity.Account, error) {
	query := `
		SELECT id, rfc, name, tax_regime, expedition_place, email, created_at, updated_at
		FROM accounts
		ORDER BY created_at
		LIMIT 1`
	var (
		a     entity.Account
		email *string
	)
	err := r.q.QueryRow(ctx, query).Scan(
		&a.ID, &a.RFC, &a.Name, &a.TaxRegime, &a.ExpeditionPlace, &email,
		&a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("obtener emisor: %w", err)
	}
	a.Email = deref(email)
	return &a, nil
}
