package sheets_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"strings"
	"testing"
	"time"

	"github.com/ignatij/sheetflow/pkg/models"
	"github.com/ignatij/sheetflow/pkg/sheets"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m,
		goleak.IgnoreTopFunction("net/http.(*persistConn).readLoop"),
		goleak.IgnoreTopFunction("net/http.(*persistConn).writeLoop"),
		goleak.IgnoreTopFunction("internal/poll.runtime_pollWait"),
	)
}

type logger struct{}

func (l logger) Debugf(format string, args ...interface{}) {}
func (l logger) Infof(format string, args ...interface{})  {}

const sheetURL = "https://docs.google.com/spreadsheets/d/abc/edit"

// endpoint is a scripted stand-in for the Apps Script web app.
type endpoint struct {
	srv      *httptest.Server
	status   int
	body     string
	calls    atomic.Int32
	mu       sync.Mutex
	lastBody []byte
	lastCT   string
}

func newEndpoint(t *testing.T, status int, body string) *endpoint {
	e := &endpoint{status: status, body: body}
	e.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		e.calls.Add(1)
		b, _ := io.ReadAll(r.Body)
		e.mu.Lock()
		e.lastBody = b
		e.lastCT = r.Header.Get("Content-Type")
		e.mu.Unlock()
		w.WriteHeader(e.status)
		_, _ = io.WriteString(w, e.body)
	}))
	t.Cleanup(e.srv.Close)
	return e
}

func (e *endpoint) sent(t *testing.T) (map[string]string, string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	var sent map[string]string
	require.NoError(t, json.Unmarshal(e.lastBody, &sent))
	return sent, e.lastCT
}

func (e *endpoint) url() string {
	return e.srv.URL + "/macros/s/deployment/exec"
}

func (e *endpoint) client(opts sheets.Options) *sheets.Client {
	opts.EndpointPrefix = e.srv.URL + "/macros/s/"
	return sheets.NewClient(opts, logger{})
}

func submit(c *sheets.Client, e *endpoint, data models.FormState) (string, error) {
	return c.Submit(context.Background(), data, e.url(), models.RoutineSheet, sheetURL)
}

func TestSubmitObserved(t *testing.T) {
	data := models.FormState{"date": "2025-12-08", "ph": "7,2", "total": "2.5"}

	t.Run("Success", func(t *testing.T) {
		e := newEndpoint(t, http.StatusOK, `{"status":"success","message":"¡Datos guardados con éxito en la hoja \"Rutina\"!"}`)
		msg, err := submit(e.client(sheets.Options{}), e, data)
		require.NoError(t, err)
		assert.Equal(t, sheets.SuccessMessage, msg)
		sent, contentType := e.sent(t)
		assert.Equal(t, "text/plain;charset=UTF-8", contentType)
		assert.Equal(t, "8/12/2025", sent["date"])
		assert.Equal(t, "2,5", sent["total"])
		assert.Equal(t, "7,2", sent["ph"])
		assert.Equal(t, "Rutina", sent["sheetName"])
		assert.Equal(t, sheetURL, sent["googleSheetUrl"])
	})

	t.Run("RawPayload", func(t *testing.T) {
		e := newEndpoint(t, http.StatusOK, `{"status":"success"}`)
		_, err := submit(e.client(sheets.Options{Format: sheets.RawPayload}), e, data)
		require.NoError(t, err)

		sent, _ := e.sent(t)
		assert.Equal(t, "2025-12-08", sent["date"])
		assert.Equal(t, "2.5", sent["total"])
	})

	t.Run("RemoteSuccessMessage", func(t *testing.T) {
		e := newEndpoint(t, http.StatusOK, `{"status":"success","message":"Guardado en Rutina"}`)
		msg, err := submit(e.client(sheets.Options{SuccessMessage: sheets.RemoteSuccessMessage}), e, data)
		require.NoError(t, err)
		assert.Equal(t, "Guardado en Rutina", msg)
	})

	t.Run("RemoteSuccessMessageFallback", func(t *testing.T) {
		e := newEndpoint(t, http.StatusOK, `{"status":"success"}`)
		msg, err := submit(e.client(sheets.Options{SuccessMessage: sheets.RemoteSuccessMessage}), e, data)
		require.NoError(t, err)
		assert.Equal(t, sheets.SuccessMessage, msg)
	})

	cases := []struct {
		name    string
		status  int
		body    string
		kind    sheets.Kind
		message string
	}{
		{
			name:    "SheetNotFound",
			status:  http.StatusOK,
			body:    "  Hoja no encontrada: \"Rutina\"  \n",
			kind:    sheets.RemoteConfigurationError,
			message: "Error desde Google: Hoja no encontrada: \"Rutina\".",
		},
		{
			name:    "SheetURLMissing",
			status:  http.StatusOK,
			body:    `{"status":"error","message":"Error en Google Apps Script: Error: URL de Google Sheet no recibida."}`,
			kind:    sheets.RemoteConfigurationError,
			message: `Error desde Google: {"status":"error","message":"Error en Google Apps Script: Error: URL de Google Sheet no recibida."}.`,
		},
		{
			name:    "DocumentMissing",
			status:  http.StatusOK,
			body:    "Exception: Document 1abc is missing (perhaps it was deleted, or you don't have read access?)",
			kind:    sheets.AccessError,
			message: "Error de acceso: La hoja de cálculo no existe o no se tiene acceso. Verifica la URL configurada.",
		},
		{
			name:    "MarkerWinsOverStatus",
			status:  http.StatusInternalServerError,
			body:    "Hoja no encontrada",
			kind:    sheets.RemoteConfigurationError,
			message: "Error desde Google: Hoja no encontrada.",
		},
		{
			name:    "ServerError",
			status:  http.StatusInternalServerError,
			body:    "boom",
			kind:    sheets.ServerError,
			message: "Error del servidor (500). Mensaje: boom",
		},
		{
			name:    "NotJSON",
			status:  http.StatusOK,
			body:    "<html>login</html>",
			kind:    sheets.ProtocolError,
			message: "Respuesta inesperada del servidor (no es JSON válido): <html>login</html>",
		},
		{
			name:    "EmptyBody",
			status:  http.StatusOK,
			body:    "",
			kind:    sheets.ProtocolError,
			message: "Respuesta inesperada del servidor (no es JSON válido): ",
		},
		{
			name:    "RemoteError",
			status:  http.StatusOK,
			body:    `{"status":"error","message":"Error en Google Apps Script: La hoja \"X\" no está configurada en el script."}`,
			kind:    sheets.RemoteLogicError,
			message: `Error en Google Apps Script: La hoja "X" no está configurada en el script.`,
		},
		{
			name:    "JSONNull",
			status:  http.StatusOK,
			body:    `null`,
			kind:    sheets.ProtocolError,
			message: "Respuesta inesperada del servidor (JSON vacío): null",
		},
		{
			name:    "RemoteErrorWithoutMessage",
			status:  http.StatusOK,
			body:    `{"status":"error"}`,
			kind:    sheets.RemoteLogicError,
			message: "Error desconocido desde Google Apps Script.",
		},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			e := newEndpoint(t, c.status, c.body)
			_, err := submit(e.client(sheets.Options{}), e, data)
			require.Error(t, err)
			assert.Equal(t, c.kind, sheets.KindOf(err))
			assert.True(t, sheets.IsKind(err, c.kind))
			assert.Equal(t, c.message, err.Error())
		})
	}

	t.Run("ServerErrorDetails", func(t *testing.T) {
		e := newEndpoint(t, http.StatusBadGateway, "bad gateway")
		_, err := submit(e.client(sheets.Options{}), e, data)
		var se *sheets.Error
		require.ErrorAs(t, err, &se)
		assert.Equal(t, http.StatusBadGateway, se.StatusCode)
		assert.Equal(t, "bad gateway", se.Body)
	})

	t.Run("LargeBodyIsCapped", func(t *testing.T) {
		e := newEndpoint(t, http.StatusBadGateway, strings.Repeat("x", 3<<20))
		_, err := submit(e.client(sheets.Options{}), e, data)
		var se *sheets.Error
		require.ErrorAs(t, err, &se)
		assert.Equal(t, sheets.ServerError, se.Kind)
		assert.Len(t, se.Body, 1<<20)
	})

	t.Run("JSONNonObjectIsSuccess", func(t *testing.T) {
		e := newEndpoint(t, http.StatusOK, `[]`)
		msg, err := submit(e.client(sheets.Options{}), e, data)
		require.NoError(t, err)
		assert.Equal(t, sheets.SuccessMessage, msg)
	})
}

func TestSubmitOpaque(t *testing.T) {
	e := newEndpoint(t, http.StatusInternalServerError, `{"status":"error","message":"nope"}`)
	msg, err := submit(e.client(sheets.Options{Transport: sheets.OpaqueTransport}), e, models.FormState{"a": "b"})
	require.NoError(t, err)
	assert.Equal(t, sheets.SuccessMessage, msg)
	assert.Equal(t, int32(1), e.calls.Load())
}

func TestSubmitPreflight(t *testing.T) {
	e := newEndpoint(t, http.StatusOK, `{"status":"success"}`)
	c := e.client(sheets.Options{})
	ctx := context.Background()

	cases := []struct {
		name     string
		endpoint string
		sheet    models.SheetID
		sheetURL string
		message  string
	}{
		{"MissingSheetURL", e.url(), models.RoutineSheet, "", "La URL de Google Sheet no está configurada."},
		{"MissingEndpoint", "", models.RoutineSheet, sheetURL, "La URL de Google Apps Script no es válida o no está configurada."},
		{"ForeignEndpoint", "https://example.com/exec", models.RoutineSheet, sheetURL, "La URL de Google Apps Script no es válida o no está configurada."},
		{"MissingSheet", e.url(), "", sheetURL, "El nombre de la hoja de cálculo no puede estar vacío."},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := c.Submit(ctx, models.FormState{}, tc.endpoint, tc.sheet, tc.sheetURL)
			require.Error(t, err)
			assert.Equal(t, sheets.ConfigurationError, sheets.KindOf(err))
			assert.Equal(t, tc.message, err.Error())
		})
	}
	assert.Equal(t, int32(0), e.calls.Load(), "preflight failures must not reach the network")
}

func TestSubmitDefaultPrefix(t *testing.T) {
	c := sheets.NewClient(sheets.Options{}, logger{})
	assert.Equal(t, sheets.DefaultEndpointPrefix, c.Options().EndpointPrefix)
	_, err := c.Submit(context.Background(), models.FormState{}, "http://localhost/exec", models.RoutineSheet, sheetURL)
	assert.True(t, sheets.IsKind(err, sheets.ConfigurationError))
}

func TestSubmitNetwork(t *testing.T) {
	t.Run("Unreachable", func(t *testing.T) {
		e := newEndpoint(t, http.StatusOK, "")
		c := e.client(sheets.Options{})
		url := e.url()
		e.srv.Close()

		_, err := c.Submit(context.Background(), models.FormState{}, url, models.RoutineSheet, sheetURL)
		require.Error(t, err)
		assert.Equal(t, sheets.NetworkError, sheets.KindOf(err))
		assert.Contains(t, err.Error(), "NUEVA IMPLEMENTACIÓN")
		var se *sheets.Error
		require.ErrorAs(t, err, &se)
		assert.Error(t, se.Unwrap())
	})

	t.Run("Timeout", func(t *testing.T) {
		release := make(chan struct{})
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-release:
			case <-r.Context().Done():
			}
		}))
		defer srv.Close()
		defer close(release)

		c := sheets.NewClient(sheets.Options{EndpointPrefix: srv.URL, Timeout: 50 * time.Millisecond}, logger{})
		start := time.Now()
		_, err := c.Submit(context.Background(), models.FormState{}, srv.URL+"/exec", models.RoutineSheet, sheetURL)
		require.Error(t, err)
		assert.Equal(t, sheets.NetworkError, sheets.KindOf(err))
		assert.Contains(t, err.Error(), "Tiempo de espera agotado")
		assert.Less(t, time.Since(start), 5*time.Second)
	})

	t.Run("Canceled", func(t *testing.T) {
		e := newEndpoint(t, http.StatusOK, `{"status":"success"}`)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := e.client(sheets.Options{}).Submit(ctx, models.FormState{}, e.url(), models.RoutineSheet, sheetURL)
		require.Error(t, err)
		assert.Equal(t, sheets.NetworkError, sheets.KindOf(err))
		assert.Equal(t, "Envío cancelado.", err.Error())
	})
}
