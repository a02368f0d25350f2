package directory_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/facturante/facturacion-api/internal/application/directory"
	"github.com/facturante/facturacion-api/internal/application/dto"
	"github.com/facturante/facturacion-api/internal/domain/entity"
	"github.com/facturante/facturacion-api/pkg/logger"
)

type mockClientRepo struct {
	CreateFunc func(ctx context.Context, c *entity.Client) error
}

func (m *mockClientRepo) Create(ctx context.Context, c *entity.Client) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, c)
	}
	return nil
}

func (m *mockClientRepo) GetByID(context.Context, string) (*entity.Client, error) {
	return nil, nil
}

func (m *mockClientRepo) GetByAccountNumber(context.Context, string) (*entity.Client, error) {
	return nil, nil
}

func (m *mockClientRepo) GetByRFC(context.Context, string) (*entity.Client, error) {
	return nil, nil
}

func validRecord(account string) dto.ClientImportRecord {
	return dto.ClientImportRecord{
		AccountNumber: account,
		RFC:           "XAXX010101000",
		Name:          "Público en General",
		Settlement:    "Centro",
		ZipCode:       "06600",
	}
}

func TestImport_FallaParcial(t *testing.T) {
	var created []*entity.Client
	repo := &mockClientRepo{
		CreateFunc: func(_ context.Context, c *entity.Client) error {
			created = append(created, c)
			return nil
		},
	}
	uc := directory.NewImportUseCase(repo, logger.New(logger.Config{Env: "test", Level: "error"}))

	bad := validRecord("CTA-003")
	bad.ZipCode = "" // sin código postal

	res := uc.Import(context.Background(), []dto.ClientImportRecord{
		validRecord("CTA-001"),
		validRecord("CTA-002"),
		bad,
	})

	assert.Equal(t, 2, res.Good.Total, "los registros válidos entran aunque otros fallen")
	assert.Equal(t, 1, res.Bad.Total)
	require.Len(t, res.Bad.Records, 1)
	assert.Equal(t, 2, res.Bad.Records[0].Index)
	assert.Equal(t, "No hay código postal o colonia.", res.Bad.Records[0].Error)
	assert.Len(t, created, 2)
}

func TestImport_RFCInvalido(t *testing.T) {
	uc := directory.NewImportUseCase(&mockClientRepo{}, logger.New(logger.Config{Env: "test", Level: "error"}))

	bad := validRecord("CTA-001")
	bad.RFC = "NO-ES-RFC"

	res := uc.Import(context.Background(), []dto.ClientImportRecord{bad})

	assert.Zero(t, res.Good.Total)
	require.Len(t, res.Bad.Records, 1)
	assert.Equal(t, "CTA-001", res.Bad.Records[0].AccountNumber)
	assert.Equal(t, "el RFC debe tener 12 o 13 caracteres", res.Bad.Records[0].Error)
}

func TestImport_ErrorDePersistencia(t *testing.T) {
	repo := &mockClientRepo{
		CreateFunc: func(_ context.Context, c *entity.Client) error {
			if c.AccountNumber == "CTA-002" {
				return errors.New("cuenta duplicada")
			}
			return nil
		},
	}
	uc := directory.NewImportUseCase(repo, logger.New(logger.Config{Env: "test", Level: "error"}))

	res := uc.Import(context.Background(), []dto.ClientImportRecord{
		validRecord("CTA-001"),
		validRecord("CTA-002"),
	})

	assert.Equal(t, 1, res.Good.Total)
	require.Len(t, res.Bad.Records, 1)
	assert.Equal(t, "cuenta duplicada", res.Bad.Records[0].Error)
}
