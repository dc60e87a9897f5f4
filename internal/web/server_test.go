package web

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/protesto/internal/config"
	"github.com/JonMunkholm/protesto/internal/core"
	"github.com/JonMunkholm/protesto/internal/store"
)

const importCSV = "data_protesto;protocolo;devedor;documento;valor\n" +
	"15/03/2024;P-1;Ana;529.982.247-25;1.234,56\n" +
	"15/03/2024;P-2;Bruno;123;10,00\n"

type pinger struct{ err error }

func (p pinger) Ping(context.Context) error { return p.err }

func testConfig() *config.Config {
	return &config.Config{
		Import:  config.ImportConfig{MaxFileSize: 1 << 20},
		Metrics: config.MetricsConfig{Enabled: true, Path: "/metrics"},
	}
}

func newTestServer(t *testing.T, cfg *config.Config) (*Server, *store.Memory) {
	t.Helper()
	mem := store.NewMemory()
	svc := core.NewService(mem, mem, core.ServiceConfig{}, nil)
	metrics := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("# metrics\n"))
	})
	return NewServer(svc, cfg, mem, metrics), mem
}

func multipartBody(t *testing.T, filename, contentType, content string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="file"; filename="`+filename+`"`)
	if contentType != "" {
		h.Set("Content-Type", contentType)
	}
	part, err := mw.CreatePart(h)
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func do(s *Server, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	return rec
}

func TestHandleImport_Multipart(t *testing.T) {
	s, mem := newTestServer(t, testConfig())

	body, ct := multipartBody(t, "lote.csv", "application/octet-stream", importCSV)
	req := httptest.NewRequest(http.MethodPost, "/api/imports", body)
	req.Header.Set("Content-Type", ct)
	req.Header.Set("X-User-ID", "analyst-1")
	req.Header.Set("User-Agent", "uploader/1.0")
	rec := do(s, req)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp importResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, core.StatusPartial, resp.Log.Status)
	assert.Equal(t, 2, resp.Log.TotalRecords)
	assert.Equal(t, 1, resp.Log.ProcessedRecords)
	assert.Equal(t, 1, resp.Log.ErrorRecords)
	assert.Equal(t, "analyst-1", resp.Log.OwnerUserID)
	assert.Equal(t, "uploader/1.0", resp.Log.UserAgent)
	assert.Equal(t, "lote.csv", resp.Log.FileName)
	assert.Nil(t, resp.StoppedEarly)
	assert.Equal(t, "/api/imports/"+resp.Log.ID.String(), rec.Header().Get("Location"))
	assert.Equal(t, 1, mem.Counts().Filings)
}

func TestHandleImport_RawBody(t *testing.T) {
	s, _ := newTestServer(t, testConfig())

	req := httptest.NewRequest(http.MethodPost, "/api/imports?filename=lote.csv", strings.NewReader(importCSV))
	req.Header.Set("Content-Type", "text/csv; charset=utf-8")
	rec := do(s, req)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
}

func TestHandleImport_Errors(t *testing.T) {
	small := testConfig()
	small.Import.MaxFileSize = 16

	tests := []struct {
		name     string
		cfg      *config.Config
		ct       string
		body     string
		wantCode int
		wantErr  string
	}{
		{"unsupported type", testConfig(), "application/pdf", "%PDF-1.4", http.StatusUnsupportedMediaType, "FMT001"},
		{"malformed xml", testConfig(), "application/xml", "<Workbook><Row>", http.StatusUnprocessableEntity, "FILE006"},
		{"empty body", testConfig(), "text/csv", "", http.StatusBadRequest, "FILE004"},
		{"too large", small, "text/csv", importCSV, http.StatusRequestEntityTooLarge, "FILE001"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _ := newTestServer(t, tt.cfg)
			req := httptest.NewRequest(http.MethodPost, "/api/imports", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", tt.ct)
			rec := do(s, req)

			assert.Equal(t, tt.wantCode, rec.Code, rec.Body.String())
			var resp ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, tt.wantErr, resp.Code)
		})
	}
}

func TestHandleImport_MissingFilePart(t *testing.T) {
	s, _ := newTestServer(t, testConfig())

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("other", "x"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/imports", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := do(s, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleValidate(t *testing.T) {
	s, mem := newTestServer(t, testConfig())

	req := httptest.NewRequest(http.MethodPost, "/api/imports/validate?filename=a.csv", strings.NewReader(importCSV))
	req.Header.Set("Content-Type", "text/csv")
	rec := do(s, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		Records int                   `json:"records"`
		Report  core.ValidationReport `json:"report"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.Records)
	assert.Equal(t, 1, resp.Report.RowsWithErrors)
	assert.Zero(t, mem.Counts().Filings)
}

func TestHandleListAndGetImports(t *testing.T) {
	s, _ := newTestServer(t, testConfig())

	req := httptest.NewRequest(http.MethodPost, "/api/imports?filename=a.csv", strings.NewReader(importCSV))
	req.Header.Set("Content-Type", "text/csv")
	created := do(s, req)
	require.Equal(t, http.StatusCreated, created.Code)
	var imported importResponse
	require.NoError(t, json.Unmarshal(created.Body.Bytes(), &imported))

	rec := do(s, httptest.NewRequest(http.MethodGet, "/api/imports?limit=10", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var list struct {
		Imports []core.ImportAuditLog `json:"imports"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list.Imports, 1)
	assert.Equal(t, imported.Log.ID, list.Imports[0].ID)

	rec = do(s, httptest.NewRequest(http.MethodGet, "/api/imports/"+imported.Log.ID.String(), nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var got core.ImportAuditLog
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.True(t, got.Finalized)
	require.Len(t, got.ErrorDetail, 1)
	assert.Equal(t, core.FieldDocument, got.ErrorDetail[0].Field)

	rec = do(s, httptest.NewRequest(http.MethodGet, "/api/imports/00000000-0000-0000-0000-000000000001", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(s, httptest.NewRequest(http.MethodGet, "/api/imports/not-a-uuid", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(s, httptest.NewRequest(http.MethodGet, "/api/imports?limit=-1", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAPIKeyRequired(t *testing.T) {
	cfg := testConfig()
	cfg.Security = config.SecurityConfig{RequireAPIKey: true, APIKeys: []string{"secret"}}
	s, _ := newTestServer(t, cfg)

	rec := do(s, httptest.NewRequest(http.MethodGet, "/api/formats", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/formats", nil)
	req.Header.Set("X-API-Key", "secret")
	rec = do(s, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"formats":["csv","xml"]}`, rec.Body.String())

	rec = do(s, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code, "health is outside the API key group")
}

func TestHealthAndMetrics(t *testing.T) {
	s, _ := newTestServer(t, testConfig())

	rec := do(s, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))

	rec = do(s, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	down := NewServer(core.NewService(store.NewMemory(), store.NewMemory(), core.ServiceConfig{}, nil),
		testConfig(), pinger{err: errors.New("connection refused")}, nil)
	rec = do(down, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestMediaTypeFor(t *testing.T) {
	tests := []struct {
		declared, filename, want string
	}{
		{"text/csv", "a.xml", "text/csv"},
		{"", "lote.CSV", "text/csv"},
		{"application/octet-stream", "lote.xml", "application/xml"},
		{"", "lote.pdf", ""},
	}
	for _, tt := range tests {
		if got := mediaTypeFor(tt.declared, tt.filename); got != tt.want {
			t.Errorf("mediaTypeFor(%q, %q) = %q, want %q", tt.declared, tt.filename, got, tt.want)
		}
	}
}

func TestImportRateLimit(t *testing.T) {
	cfg := testConfig()
	cfg.Rate = config.RateLimitConfig{Enabled: true, RequestsPerMinute: 100, ImportLimit: 1}
	s, _ := newTestServer(t, cfg)

	validate := func() int {
		req := httptest.NewRequest(http.MethodPost, "/api/imports/validate?filename=a.csv", strings.NewReader(importCSV))
		req.Header.Set("Content-Type", "text/csv")
		return do(s, req).Code
	}
	assert.Equal(t, http.StatusOK, validate())
	assert.Equal(t, http.StatusTooManyRequests, validate())

	rec := do(s, httptest.NewRequest(http.MethodGet, "/api/formats", nil))
	assert.Equal(t, http.StatusOK, rec.Code, "reads use the general bucket")
}
