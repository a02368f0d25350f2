package logger_test

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/facturante/facturacion-api/pkg/logger"
)

func TestComponent_EtiquetaCadaLinea(t *testing.T) {
	var buf bytes.Buffer
	root := logger.New(logger.Config{
		Service: "facturacion-api",
		Env:     "test",
		Level:   "info",
		Writer:  &buf,
	})

	root.Component("pac").Info().Str("uuid", "ABC-123").Msg("timbrado aceptado")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "facturacion-api", line["service"], "el servicio viaja en cada línea")
	assert.Equal(t, "pac", line["component"])
	assert.Equal(t, "ABC-123", line["uuid"])
	assert.Equal(t, "timbrado aceptado", line["message"])
}

func TestNew_NivelPorDefectoFiltraDebug(t *testing.T) {
	var buf bytes.Buffer
	log := logger.New(logger.Config{Env: "test", Level: "nivel-desconocido", Writer: &buf})

	log.Debug().Msg("no debería salir")
	assert.Zero(t, buf.Len(), "un nivel desconocido cae a info y filtra debug")

	log.Info().Msg("sí sale")
	assert.NotZero(t, buf.Len())
}
