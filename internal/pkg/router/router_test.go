package router

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shandysiswandi/cardnote/internal/pkg/config"
	"github.com/shandysiswandi/cardnote/internal/pkg/goerror"
	"github.com/shandysiswandi/cardnote/internal/pkg/instrument"
	"github.com/shandysiswandi/cardnote/internal/pkg/uid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter(t *testing.T, yaml string) *Router {
	t.Helper()

	cfg, err := config.NewViperFromBytes("yaml", []byte(yaml))
	require.NoError(t, err)
	t.Cleanup(func() { _ = cfg.Close() })

	return NewRouter(Config{
		Config:     cfg,
		UUID:       uid.NewUUID(),
		Instrument: instrument.NewNoop(),
	})
}

func serve(h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRouter_Health(t *testing.T) {
	r := newTestRouter(t, "app: {}")

	rec := serve(r, http.MethodGet, "/health", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"message":"request has been successfully","data":{"status":"ok"}}`, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get("X-Correlation-ID"))
}

func TestRouter_NotFoundAndMethod(t *testing.T) {
	r := newTestRouter(t, "app: {}")

	assert.Equal(t, http.StatusNotFound, serve(r, http.MethodGet, "/nope", "").Code)
	assert.Equal(t, http.StatusMethodNotAllowed, serve(r, http.MethodPost, "/health", "").Code)
}

func TestRouter_ErrorEnvelope(t *testing.T) {
	r := newTestRouter(t, "app: {}")
	r.Public(http.MethodPost, "/api/v1/verification/verify", func(*Request) (any, error) {
		return nil, goerror.NewBusinessWithFields("locked until 09:15:00", goerror.CodeLocked, "retry_after_seconds", "900")
	})
	r.Public(http.MethodPost, "/api/v1/verification/code", func(*Request) (any, error) {
		return nil, errors.New("raw")
	})

	rec := serve(r, http.MethodPost, "/api/v1/verification/verify", "{}")
	assert.Equal(t, http.StatusLocked, rec.Code)

	var body errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "locked until 09:15:00", body.Message)
	assert.Equal(t, map[string]string{"retry_after_seconds": "900"}, body.Error)

	rec = serve(r, http.MethodPost, "/api/v1/verification/code", "{}")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestRouter_Maintenance(t *testing.T) {
	r := newTestRouter(t, `
app:
  maintenance:
    endpoints:
      - /api/v1/verification/code
`)
	r.Public(http.MethodPost, "/api/v1/verification/code", func(*Request) (any, error) { return nil, nil })

	rec := serve(r, http.MethodPost, "/api/v1/verification/code", "{}")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestRouter_ProtectedWithoutVerifier(t *testing.T) {
	r := newTestRouter(t, "app: {}")
	r.GET("/api/v1/verification/ticket", func(*Request) (any, error) { return "ok", nil })

	rec := serve(r, http.MethodGet, "/api/v1/verification/ticket", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestChain_Order(t *testing.T) {
	var order []string
	mw := func(name string) Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	h := Chain(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		order = append(order, "handler")
	}), mw("outer"), mw("inner"))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, []string{"outer", "inner", "handler"}, order)
}

func TestRouter_MaintenanceWildcard(t *testing.T) {
	r := newTestRouter(t, `
app:
  maintenance:
    endpoints: "*"
`)
	r.Public(http.MethodPost, "/api/v1/verification/verify", func(*Request) (any, error) { return nil, nil })

	rec := serve(r, http.MethodPost, "/api/v1/verification/verify", "{}")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))

	assert.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/health", "").Code)
}

func TestRouter_RecoversPanic(t *testing.T) {
	r := newTestRouter(t, "app: {}")
	r.Public(http.MethodPost, "/api/v1/verification/code", func(*Request) (any, error) { panic("boom") })

	rec := serve(r, http.MethodPost, "/api/v1/verification/code", "{}")

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"message":"Internal server error"}`, rec.Body.String())
}

func TestRouter_CorrelationIDPassthrough(t *testing.T) {
	r := newTestRouter(t, "app: {}")

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(HeaderRequestID, "  req-42  ")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, "req-42", rec.Header().Get(HeaderCorrelationID))
}

func TestRealIP(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		remote  string
		want    string
	}{
		{name: "forwarded for first hop", headers: map[string]string{"X-Forwarded-For": "10.0.0.1, 10.0.0.2"}, remote: "1.1.1.1:80", want: "10.0.0.1"},
		{name: "true client ip wins", headers: map[string]string{"True-Client-IP": "10.0.0.9", "X-Real-IP": "10.0.0.8"}, remote: "1.1.1.1:80", want: "10.0.0.9"},
		{name: "invalid header falls back", headers: map[string]string{"X-Real-IP": "nope"}, remote: "1.1.1.1:80", want: "1.1.1.1"},
		{name: "nothing usable", remote: "pipe", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, realIP(req))
		})
	}
}

func TestMaskSet(t *testing.T) {
	cfg, err := config.NewViperFromBytes("yaml", []byte(`
instrument:
  log_mask_fields: "Code, email"
`))
	require.NoError(t, err)
	m := newMaskSet(cfg)

	assert.Equal(t, "email=%2A%2A%2A&x=1", m.query("email=a%40example.com&x=1"))
	assert.Equal(t,
		map[string]any{"code": "***", "purpose": "signup", "items": []any{map[string]any{"email": "***"}}},
		m.body([]byte(`{"code":"123456","purpose":"signup","items":[{"email":"a@example.com"}]}`), false),
	)
	assert.Equal(t, map[string]any{"bytes": 3, "truncated": false}, m.body([]byte("abc"), false))
	assert.Equal(t, "***", m.headers(http.Header{"Code": {"1"}}).Get("Code"))
}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		header string
		want   string
		ok     bool
	}{
		{header: "Bearer abc", want: "abc", ok: true},
		{header: "bearer  abc ", want: "abc", ok: true},
		{header: "Basic abc"},
		{header: "Bearer"},
		{header: ""},
	}
	for _, tt := range tests {
		t.Run(tt.header, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.Header.Set("Authorization", tt.header)

			got, ok := bearerToken(req)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
