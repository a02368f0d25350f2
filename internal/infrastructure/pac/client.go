package pac

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/facturante/facturacion-api/internal/application/billing"
	"github.com/facturante/facturacion-api/internal/domain"
	"github.com/facturante/facturacion-api/internal/domain/entity"
	"github.com/facturante/facturacion-api/pkg/logger"
)

// ── Constantes de entorno ─────────────────────────────────────────────────────

const (
	// EnvTest ambiente de pruebas del PAC (timbres sin validez fiscal).
	EnvTest = "test"
	// EnvProd ambiente de producción del PAC.
	EnvProd = "prod"

	apiURLTest = "https://pruebas.api.facturante.mx/v4"
	apiURLProd = "https://api.facturante.mx/v4"
)

// Config configuración del cliente.
type Config struct {
	Env     string        // test | prod
	APIKey  string        // token de autenticación del PAC
	BaseURL string        // opcional; sobreescribe la URL del ambiente
	Timeout time.Duration // opcional; por defecto 60 s
}

// Client implementa billing.Stamper contra el API REST del PAC. El timbrado
// puede tardar varios segundos, por eso el timeout de red es generoso.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	log        *logger.Logger
}

// NewClient construye el cliente para el ambiente indicado.
func NewClient(cfg Config, log *logger.Logger) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = apiURLTest
		if cfg.Env == EnvProd {
			baseURL = apiURLProd
		}
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
		apiKey:     cfg.APIKey,
		log:        log,
	}
}

// ── Estructuras de respuesta ──────────────────────────────────────────────────

type stampResponse struct {
	UUID             string          `json:"uuid"`
	FechaTimbrado    string          `json:"fechaTimbrado"`
	NoCertificadoPAC string          `json:"noCertificadoPac"`
	NoCertificadoSAT string          `json:"noCertificadoSat"`
	SelloCFD         string          `json:"selloCfd"`
	SelloSAT         string          `json:"selloSat"`
	CodigoQR         string          `json:"codigoQr"`
	CadenaOriginal   string          `json:"cadenaOriginal"`
	Documento        json.RawMessage `json:"documento"` // comprobante certificado en JSON
	XML              string          `json:"xml"`       // XML timbrado
}

type statusResponse struct {
	CodigoEstatus      string `json:"codigoEstatus"`
	EsCancelable       string `json:"esCancelable"`
	Estado             string `json:"estado"`
	EstatusCancelacion string `json:"estatusCancelacion"`
}

type relatedResponse struct {
	UUIDs []struct {
		UUID         string `json:"uuid"`
		TipoRelacion string `json:"tipoRelacion"`
	} `json:"uuidsRelacionados"`
}

// ── Operaciones ───────────────────────────────────────────────────────────────

// Submit timbra el borrador y devuelve los campos certificados.
func (c *Client) Submit(ctx context.Context, draft *entity.Invoice) (*billing.StampResult, error) {
	doc := newWireDocument(draft)

	var resp stampResponse
	if err := c.post(ctx, "/cfdi/stamp", doc, &resp); err != nil {
		return nil, err
	}

	stampDate, err := time.Parse(dateLayout, resp.FechaTimbrado)
	if err != nil {
		stampDate = time.Now()
	}

	c.log.Info().
		Str("uuid", resp.UUID).
		Str("serie_folio", draft.SerieAndFolio()).
		Msg("comprobante certificado por el PAC")

	return &billing.StampResult{
		UUID:               resp.UUID,
		StampDate:          stampDate,
		ProviderCertNumber: resp.NoCertificadoPAC,
		SATCertNumber:      resp.NoCertificadoSAT,
		CFDIStamp:          resp.SelloCFD,
		SATStamp:           resp.SelloSAT,
		QRCode:             resp.CodigoQR,
		OriginalString:     resp.CadenaOriginal,
		RawDocument:        string(resp.Documento),
		StampedXML:         resp.XML,
	}, nil
}

// Status consulta el estado del comprobante ante el SAT vía el PAC.
func (c *Client) Status(ctx context.Context, q billing.StatusQuery) (*billing.ProviderStatus, error) {
	body := map[string]string{
		"rfcEmisor":   q.IssuerRFC,
		"rfcReceptor": q.ReceptorRFC,
		"total":       q.Total.StringFixed(2),
		"uuid":        q.UUID,
	}

	var resp statusResponse
	if err := c.post(ctx, "/cfdi/status", body, &resp); err != nil {
		return nil, err
	}
	return &billing.ProviderStatus{
		StatusCode:         resp.CodigoEstatus,
		IsItCancelable:     resp.EsCancelable,
		Status:             resp.Estado,
		CancellationStatus: resp.EstatusCancelacion,
	}, nil
}

// Cancel solicita la cancelación y devuelve el status HTTP del proveedor,
// que codifica el resultado (201, 202, 203, 205).
func (c *Client) Cancel(ctx context.Context, issuerRFC, uuid string) (int, error) {
	body := map[string]string{"rfcEmisor": issuerRFC, "uuid": uuid}

	resp, err := c.do(ctx, "/cfdi/cancel", body)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)
	return resp.StatusCode, nil
}

// RelatedCFDIs consulta los CFDI relacionados registrados ante el SAT.
func (c *Client) RelatedCFDIs(ctx context.Context, issuerRFC, uuid string) ([]entity.RelatedCFDI, error) {
	body := map[string]string{"rfcEmisor": issuerRFC, "uuid": uuid}

	var resp relatedResponse
	if err := c.post(ctx, "/cfdi/related", body, &resp); err != nil {
		return nil, err
	}
	related := make([]entity.RelatedCFDI, 0, len(resp.UUIDs))
	for _, r := range resp.UUIDs {
		related = append(related, entity.RelatedCFDI{UUID: r.UUID, RelationshipType: r.TipoRelacion})
	}
	return related, nil
}

// ── Transporte ────────────────────────────────────────────────────────────────

// post envía la solicitud y decodifica la respuesta en out. Una respuesta no
// exitosa se traduce a ProviderError con el cuerpo original para diagnóstico.
func (c *Client) post(ctx context.Context, path string, body, out any) error {
	resp, err := c.do(ctx, path, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("leer respuesta del PAC: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.log.Error().
			Int("status", resp.StatusCode).
			Str("path", path).
			Str("payload", string(payload)).
			Msg("el PAC rechazó la solicitud")
		return &domain.ProviderError{StatusCode: resp.StatusCode, Payload: string(payload)}
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return fmt.Errorf("decodificar respuesta del PAC: %w", err)
	}
	return nil
}

// do arma y ejecuta la solicitud. Las fallas de red (PAC inalcanzable) se
// reportan con el error genérico de reintento.
func (c *Client) do(ctx context.Context, path string, body any) (*http.Response, error) {
	encoded, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("serializar solicitud al PAC: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(encoded))
	if err != nil {
		return nil, fmt.Errorf("armar solicitud al PAC: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Error().Err(err).Str("path", path).Msg("no se pudo contactar al PAC")
		return nil, fmt.Errorf("%w: %v", domain.ErrProviderDown, err)
	}
	return resp, nil
}
