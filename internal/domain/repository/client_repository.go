package repository

import (
	"context"

	"github.com/facturante/facturacion-api/internal/domain/entity"
)

// ClientRepository define el puerto del directorio de clientes.
type ClientRepository interface {
	Create(ctx context.Context, client *entity.Client) error
	GetByID(ctx context.Context, id string) (*entity.Client, error)
	GetByAccountNumber(ctx context.Context, accountNumber string) (*entity.Client, error)
	GetByRFC(ctx context.Context, rfc string) (*entity.Client, error)
}

// AccountRepository expone los datos del emisor (la cuenta que factura).
type AccountRepository interface {
	GetIssuer(ctx context.Context) (*entity.Account, error)
}
