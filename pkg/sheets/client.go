// Package sheets submits form records to the spreadsheet automation endpoint
// and classifies what came back.
package sheets

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ignatij/sheetflow/pkg/form"
	"github.com/ignatij/sheetflow/pkg/models"
	"github.com/pkg/errors"
)

// TransportMode selects whether the endpoint's reply is inspected.
type TransportMode string

const (
	// ObservedTransport reads and classifies the response.
	ObservedTransport TransportMode = "observed"
	// OpaqueTransport never looks at the response; only a transport failure fails.
	OpaqueTransport TransportMode = "opaque"
)

// FormatMode selects whether values are rewritten for the sheet locale before sending.
type FormatMode string

const (
	PreformattedPayload FormatMode = "preformatted"
	RawPayload          FormatMode = "raw"
)

// SuccessMessageMode selects which text a successful observed submission reports.
type SuccessMessageMode string

const (
	FixedSuccessMessage  SuccessMessageMode = "fixed"
	RemoteSuccessMessage SuccessMessageMode = "remote"
)

const (
	DefaultEndpointPrefix = "https://script.google.com/macros/s/"
	DefaultTimeout        = 30 * time.Second

	// replies are only sniffed and echoed into messages
	maxResponseBytes = 1 << 20

	SuccessMessage = "Datos guardados correctamente"

	msgMissingSheetURL  = "La URL de Google Sheet no está configurada."
	msgInvalidEndpoint  = "La URL de Google Apps Script no es válida o no está configurada."
	msgMissingSheetName = "El nombre de la hoja de cálculo no puede estar vacío."
	msgAccess           = "Error de acceso: La hoja de cálculo no existe o no se tiene acceso. Verifica la URL configurada."
	msgUnknownRemote    = "Error desconocido desde Google Apps Script."
	msgNetwork          = "Error de conexión. IMPORTANTE: Si has actualizado el código del script, debes crear una \"NUEVA IMPLEMENTACIÓN\" (Manage Deployments -> New Version). Si no, el cambio no se aplica."
)

// Response body markers the endpoint emits when the target sheet is misconfigured.
var (
	sheetNotFoundMarkers = []string{"Hoja no encontrada", "URL de Google Sheet"}
	missingDocMarkers    = []string{"Document", "is missing"}
)

// Logger is the subset of logrus the client needs.
type Logger interface {
	Debugf(format string, args ...interface{})
	Infof(format string, args ...interface{})
}

// Options configure a Client. Zero values fall back to observed transport,
// preformatted payload, fixed success message, the Apps Script URL prefix and
// DefaultTimeout.
type Options struct {
	Transport      TransportMode
	Format         FormatMode
	SuccessMessage SuccessMessageMode
	EndpointPrefix string
	Timeout        time.Duration
	HTTPClient     *http.Client // overrides Timeout when set
}

// Client posts records to the endpoint. It holds no per-request state and is
// safe for concurrent use.
type Client struct {
	opts   Options
	http   *http.Client
	logger Logger
}

func NewClient(opts Options, logger Logger) *Client {
	if opts.Transport == "" {
		opts.Transport = ObservedTransport
	}
	if opts.Format == "" {
		opts.Format = PreformattedPayload
	}
	if opts.SuccessMessage == "" {
		opts.SuccessMessage = FixedSuccessMessage
	}
	if opts.EndpointPrefix == "" {
		opts.EndpointPrefix = DefaultEndpointPrefix
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	hc := opts.HTTPClient
	if hc == nil {
		// no cookie jar: requests never carry credentials
		hc = &http.Client{Timeout: opts.Timeout}
	}
	return &Client{opts: opts, http: hc, logger: logger}
}

// Options returns the effective options after defaults.
func (c *Client) Options() Options {
	return c.opts
}

// Submit sends one record to the endpoint and returns the message to show on
// success. Failures are *Error values.
func (c *Client) Submit(ctx context.Context, data models.FormState, endpointURL string, sheet models.SheetID, sheetURL string) (string, error) {
	if err := c.preflight(endpointURL, sheet, sheetURL); err != nil {
		return "", err
	}

	body, err := c.payload(data, sheet, sheetURL)
	if err != nil {
		return "", err
	}
	c.logger.Debugf("Submitting to sheet '%s' (%s, %s): %s", sheet, c.opts.Transport, c.opts.Format, body)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpointURL, bytes.NewReader(body))
	if err != nil {
		return "", newError(ConfigurationError, msgInvalidEndpoint)
	}
	req.Header.Set("Content-Type", "text/plain;charset=UTF-8")

	resp, err := c.http.Do(req)
	if err != nil {
		serr := networkError(ctx, err)
		c.logger.Infof("Submission to sheet '%s' failed: %s (%v)", sheet, serr.Kind, err)
		return "", serr
	}
	defer resp.Body.Close()

	if c.opts.Transport == OpaqueTransport {
		c.logger.Infof("Submitted to sheet '%s' (opaque, status not inspected)", sheet)
		return SuccessMessage, nil
	}

	msg, err := c.classify(ctx, resp)
	if err != nil {
		c.logger.Infof("Submission to sheet '%s' failed: %s", sheet, KindOf(err))
		return "", err
	}
	c.logger.Infof("Submitted to sheet '%s'", sheet)
	return msg, nil
}

func (c *Client) preflight(endpointURL string, sheet models.SheetID, sheetURL string) error {
	if sheetURL == "" {
		return newError(ConfigurationError, msgMissingSheetURL)
	}
	if endpointURL == "" || !strings.HasPrefix(endpointURL, c.opts.EndpointPrefix) {
		return newError(ConfigurationError, msgInvalidEndpoint)
	}
	if sheet == "" {
		return newError(ConfigurationError, msgMissingSheetName)
	}
	return nil
}

func (c *Client) payload(data models.FormState, sheet models.SheetID, sheetURL string) ([]byte, error) {
	fields := data
	if c.opts.Format == PreformattedPayload {
		fields = form.FormatForSheets(data)
	}
	payload := make(map[string]string, len(fields)+2)
	for k, v := range fields {
		payload[k] = v
	}
	payload["sheetName"] = string(sheet)
	payload["googleSheetUrl"] = sheetURL
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, errors.Wrap(err, "encode payload")
	}
	return b, nil
}

func (c *Client) classify(ctx context.Context, resp *http.Response) (string, error) {
	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", networkError(ctx, err)
	}
	text := string(raw)

	if containsAny(text, sheetNotFoundMarkers) {
		e := newError(RemoteConfigurationError, fmt.Sprintf("Error desde Google: %s.", strings.TrimSpace(text)))
		e.Body = text
		return "", e
	}
	if containsAll(text, missingDocMarkers) {
		e := newError(AccessError, msgAccess)
		e.Body = text
		return "", e
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		e := newError(ServerError, fmt.Sprintf("Error del servidor (%d). Mensaje: %s", resp.StatusCode, text))
		e.StatusCode = resp.StatusCode
		e.Body = text
		return "", e
	}

	var decoded interface{}
	if err := json.Unmarshal(raw, &decoded); err != nil {
		e := newError(ProtocolError, fmt.Sprintf("Respuesta inesperada del servidor (no es JSON válido): %s", text))
		e.Body = text
		return "", e
	}
	if decoded == nil {
		e := newError(ProtocolError, fmt.Sprintf("Respuesta inesperada del servidor (JSON vacío): %s", text))
		e.Body = text
		return "", e
	}
	obj, _ := decoded.(map[string]interface{})
	status, _ := obj["status"].(string)
	message, _ := obj["message"].(string)

	if status == "error" {
		if message == "" {
			message = msgUnknownRemote
		}
		e := newError(RemoteLogicError, message)
		e.Body = text
		return "", e
	}
	if c.opts.SuccessMessage == RemoteSuccessMessage && message != "" {
		return message, nil
	}
	return SuccessMessage, nil
}

func networkError(ctx context.Context, err error) *Error {
	msg := msgNetwork
	switch {
	case errors.Is(ctx.Err(), context.Canceled):
		msg = "Envío cancelado."
	case errors.Is(ctx.Err(), context.DeadlineExceeded) || isTimeout(err):
		msg = "Tiempo de espera agotado al contactar con Google Apps Script. " + msgNetwork
	}
	e := newError(NetworkError, msg)
	e.cause = errors.Wrap(err, "post to endpoint")
	return e
}

func isTimeout(err error) bool {
	var te interface{ Timeout() bool }
	return errors.As(err, &te) && te.Timeout()
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func containsAll(s string, subs []string) bool {
	for _, sub := range subs {
		if !strings.Contains(s, sub) {
			return false
		}
	}
	return true
}
