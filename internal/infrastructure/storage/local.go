package storage

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"

	"github.com/facturante/facturacion-api/internal/application/billing"
)

var _ billing.FileStorage = (*LocalStorage)(nil)

// LocalStorage guarda los XML y PDF timbrados en el sistema de archivos
// local y los expone bajo una URL base servida por el propio API.
type LocalStorage struct {
	basePath string // directorio raíz (ej. "./data/cfdi")
	baseURL  string // prefijo público (ej. "https://api.facturante.mx/cfdi")
}

// NewLocalStorage crea el directorio base si no existe.
func NewLocalStorage(basePath, baseURL string) (*LocalStorage, error) {
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("crear directorio de almacenamiento: %w", err)
	}
	return &LocalStorage{basePath: basePath, baseURL: baseURL}, nil
}

// Put escribe el contenido y devuelve la URL pública del archivo.
func (s *LocalStorage) Put(_ context.Context, key string, content []byte, _ string) (string, error) {
	fullPath := filepath.Join(s.basePath, filepath.FromSlash(key))

	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return "", fmt.Errorf("crear directorio: %w", err)
	}
	if err := os.WriteFile(fullPath, content, 0o644); err != nil {
		return "", fmt.Errorf("escribir archivo %s: %w", key, err)
	}
	return s.url(key), nil
}

func (s *LocalStorage) url(key string) string {
	return s.baseURL + "/" + path.Clean(key)
}
