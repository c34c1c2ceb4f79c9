package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/datalens-cli/internal/analysis"
	"github.com/KaramelBytes/datalens-cli/internal/dataset"
	"github.com/KaramelBytes/datalens-cli/internal/history"
	"github.com/KaramelBytes/datalens-cli/internal/phrase"
	"github.com/KaramelBytes/datalens-cli/internal/pipeline"
)

const salesCSV = "price,quantity,region\n10,1,north\n20,2,south\n30,3,north\n"

func newTestServer(t *testing.T, cfg Config, opts ...pipeline.Option) (*Server, *history.Store) {
	t.Helper()
	eng, err := analysis.NewEngine(phrase.MustLoad("en"), analysis.DefaultThresholds())
	require.NoError(t, err)
	store := history.NewStore(filepath.Join(t.TempDir(), "reports"))
	cfg.TempDir = t.TempDir()
	srv := New(cfg, func() *pipeline.Orchestrator { return pipeline.New(eng, opts...) }, store, nil)
	return srv, store
}

func uploadRequest(t *testing.T, field, filename, content string) *http.Request {
	t.Helper()
	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	fw, err := mw.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = fw.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	req := httptest.NewRequest(http.MethodPost, "/api/analysis", body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func serve(s *Server, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var er ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &er))
	return er.Error.Code
}

func TestHealth(t *testing.T) {
	s, _ := newTestServer(t, Config{})
	rec := serve(s, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestAnalysisLifecycle(t *testing.T) {
	s, store := newTestServer(t, Config{})

	rec := serve(s, uploadRequest(t, "file", "sales.csv", salesCSV))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var entry history.Entry
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &entry))
	require.NotEmpty(t, entry.ID)
	assert.Equal(t, "/api/reports/"+entry.ID, rec.Header().Get("Location"))
	assert.Equal(t, "sales.csv", entry.Source)
	require.True(t, entry.Report.Success)
	assert.Equal(t, "sales.csv", entry.Report.FileInfo.Path)
	assert.Equal(t, 3, entry.Report.FileInfo.Rows)

	list, err := store.List()
	require.NoError(t, err)
	require.Len(t, list, 1)

	rec = serve(s, httptest.NewRequest(http.MethodGet, "/api/reports", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), entry.ID)

	rec = serve(s, httptest.NewRequest(http.MethodGet, "/api/reports/"+entry.ID, nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = serve(s, httptest.NewRequest(http.MethodGet, "/api/reports/"+entry.ID+"?format=markdown", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Header().Get("Content-Type"), "text/markdown"))
	assert.Contains(t, rec.Body.String(), "# Analysis report: sales.csv")

	rec = serve(s, httptest.NewRequest(http.MethodGet, "/api/reports/"+entry.ID+"?format=pdf", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = serve(s, httptest.NewRequest(http.MethodDelete, "/api/reports/"+entry.ID, nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = serve(s, httptest.NewRequest(http.MethodGet, "/api/reports/"+entry.ID, nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not_found", errorCode(t, rec))
}

func TestAnalysisValidation(t *testing.T) {
	s, _ := newTestServer(t, Config{})

	rec := serve(s, uploadRequest(t, "upload", "sales.csv", salesCSV))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "validation_error", errorCode(t, rec))

	rec = serve(s, uploadRequest(t, "file", "notes.pdf", "%PDF"))
	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
	assert.Equal(t, "unsupported_format", errorCode(t, rec))
}

func TestAnalysisTooLarge(t *testing.T) {
	s, _ := newTestServer(t, Config{UploadMaxBytes: 64})
	rec := serve(s, uploadRequest(t, "file", "sales.csv", strings.Repeat("1,2,3\n", 100)))
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Equal(t, "too_large", errorCode(t, rec))
}

func TestAnalysisFailureReport(t *testing.T) {
	s, store := newTestServer(t, Config{})
	rec := serve(s, uploadRequest(t, "file", "broken.xlsx", "not a workbook"))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	var m map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &m))
	assert.Equal(t, false, m["success"])
	assert.NotEmpty(t, m["error"])

	list, err := store.List()
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestAnalysisFailureHidesTempPath(t *testing.T) {
	failing := pipeline.WithLoader(pipeline.LoaderFunc(func(p string, opt dataset.Options) (*dataset.Dataset, error) {
		return nil, fmt.Errorf("cannot read %s", p)
	}))
	s, _ := newTestServer(t, Config{}, failing)

	rec := serve(s, uploadRequest(t, "file", "sales.csv", salesCSV))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	var m map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &m))
	assert.Equal(t, "cannot read sales.csv", m["error"])
	assert.NotContains(t, rec.Body.String(), "datalens-")
}

func TestAnalysisTimeout(t *testing.T) {
	release := make(chan struct{})
	defer close(release)
	slow := pipeline.WithLoader(pipeline.LoaderFunc(func(p string, opt dataset.Options) (*dataset.Dataset, error) {
		<-release
		return dataset.Load(p, opt)
	}))
	s, _ := newTestServer(t, Config{RequestTimeout: 20 * time.Millisecond}, slow)

	rec := serve(s, uploadRequest(t, "file", "sales.csv", salesCSV))
	assert.Equal(t, http.StatusGatewayTimeout, rec.Code)
	assert.Equal(t, "timeout", errorCode(t, rec))
}
