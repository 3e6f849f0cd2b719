package http

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/peaklab/peak-importer/internal/config"
	"github.com/peaklab/peak-importer/internal/job"
)

const spxDocText = `ใบเสร็จรับเงิน SPX Express (Thailand) Co., Ltd.
เลขที่ : RCSPXSPB00-00000-25
1218-0001593
เลขประจำตัวผู้เสียภาษี 0105561164871
ลูกค้า บริษัท ท็อปวัน จำกัด เลขประจำตัวผู้เสียภาษี 0105565027615
วันที่ 18/12/2025
Total (Including Tax) 10,000.00`

type fixedSource struct {
	text string
}

func (s *fixedSource) Text(data []byte, filename string) string { return s.text }

func testConfig() *config.Config {
	return &config.Config{
		Server: config.Server{
			Host:        "127.0.0.1",
			Port:        8080,
			CORSOrigins: []string{"*"},
		},
		OpenAI: config.OpenAI{Model: "gpt-4o-mini"},
		OCR:    config.OCR{MaxPages: 20, MinTextChars: 80},
		Upload: config.Upload{MaxFiles: 10, MaxFileMB: 1},
		Jobs:   config.Jobs{TTL: time.Hour},
	}
}

func newTestRouter(t *testing.T, cfg *config.Config, text string) (*gin.Engine, *job.Service) {
	t.Helper()
	runner := job.NewRunner(&fixedSource{text: text}, nil, nil, false, nil)
	jobs := job.NewService(runner, job.Limits{
		MaxFiles:     cfg.Upload.MaxFiles,
		MaxFileBytes: cfg.Upload.MaxFileBytes(),
	}, cfg.Jobs.TTL, nil)
	server := NewServer(ServerConfig{
		Host:        cfg.Server.Host,
		Port:        cfg.Server.Port,
		CORSOrigins: cfg.Server.CORSOrigins,
	}, cfg, jobs, nil)
	return server.Router(), jobs
}

func doRequest(router *gin.Engine, method, path string, body *bytes.Buffer, contentType string) *httptest.ResponseRecorder {
	if body == nil {
		body = &bytes.Buffer{}
	}
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func multipartBody(t *testing.T, fields map[string]string, files map[string][]byte) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	for name, data := range files {
		fw, err := mw.CreateFormFile("files", name)
		require.NoError(t, err)
		_, err = fw.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return body, mw.FormDataContentType()
}

func uploadAndWait(t *testing.T, router *gin.Engine, jobs *job.Service, fields map[string]string, files map[string][]byte) string {
	t.Helper()
	body, ct := multipartBody(t, fields, files)
	w := doRequest(router, http.MethodPost, "/api/upload", body, ct)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		OK    bool   `json:"ok"`
		JobID string `json:"job_id"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.True(t, resp.OK)
	require.NotEmpty(t, resp.JobID)

	require.Eventually(t, func() bool {
		j, ok := jobs.Job(resp.JobID)
		return ok && j.State != job.StateQueued && j.State != job.StateProcessing
	}, 2*time.Second, 10*time.Millisecond)

	return resp.JobID
}

func TestHealth(t *testing.T) {
	router, _ := newTestRouter(t, testConfig(), "")

	w := doRequest(router, http.MethodGet, "/api/health", nil, "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"ok":true`)
	assert.Contains(t, w.Body.String(), `"ocr"`)
}

func TestConfigSummaryHidesSecrets(t *testing.T) {
	cfg := testConfig()
	cfg.OpenAI.Enabled = true
	cfg.OpenAI.APIKey = "sk-super-secret"
	router, _ := newTestRouter(t, cfg, "")

	w := doRequest(router, http.MethodGet, "/api/config", nil, "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), "sk-super-secret")
	assert.Contains(t, w.Body.String(), `"openai_key_present":true`)
}

func TestUploadProcessesAndServesRows(t *testing.T) {
	router, jobs := newTestRouter(t, testConfig(), spxDocText)

	jobID := uploadAndWait(t, router, jobs,
		map[string]string{"companies": "TOPONE"},
		map[string][]byte{"spx.pdf": []byte("%PDF-stub")})

	w := doRequest(router, http.MethodGet, "/api/job/"+jobID, nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"state":"done"`)

	w = doRequest(router, http.MethodGet, "/api/job/"+jobID+"/rows", nil, "")
	require.Equal(t, http.StatusOK, w.Code)

	var rowsResp struct {
		OK   bool                     `json:"ok"`
		Rows []map[string]interface{} `json:"rows"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &rowsResp))
	require.True(t, rowsResp.OK)
	require.Len(t, rowsResp.Rows, 1)

	row := rowsResp.Rows[0]
	assert.Equal(t, "1", row["A_seq"])
	assert.Equal(t, "C00038", row["D_vendor_code"])
	assert.Equal(t, "20251218", row["B_doc_date"])
	assert.Equal(t, "spx.pdf", row["_source_file"])
	assert.Equal(t, "OK", row["_status"])
	assert.Equal(t, []interface{}{}, row["_errors"])
}

func TestUploadRejectsEmptyBatch(t *testing.T) {
	router, _ := newTestRouter(t, testConfig(), "")

	body, ct := multipartBody(t, map[string]string{"companies": "SHD"}, nil)
	w := doRequest(router, http.MethodPost, "/api/upload", body, ct)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "No files uploaded")
}

func TestUploadRejectsOversizedFile(t *testing.T) {
	cfg := testConfig()
	router, _ := newTestRouter(t, cfg, "")

	big := bytes.Repeat([]byte("a"), int(cfg.Upload.MaxFileBytes())+1)
	body, ct := multipartBody(t, nil, map[string][]byte{"big.pdf": big})
	w := doRequest(router, http.MethodPost, "/api/upload", body, ct)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "File too large")
}

func TestUploadRejectsTooManyFiles(t *testing.T) {
	cfg := testConfig()
	cfg.Upload.MaxFiles = 1
	router, _ := newTestRouter(t, cfg, "")

	files := map[string][]byte{
		"a.pdf": []byte("%PDF-a"),
		"b.pdf": []byte("%PDF-b"),
	}
	body, ct := multipartBody(t, nil, files)
	w := doRequest(router, http.MethodPost, "/api/upload", body, ct)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Too many files")
}

func TestJobNotFound(t *testing.T) {
	router, _ := newTestRouter(t, testConfig(), "")

	for _, path := range []string{
		"/api/job/missing",
		"/api/job/missing/rows",
		"/api/export/missing.csv",
	} {
		w := doRequest(router, http.MethodGet, path, nil, "")
		assert.Equal(t, http.StatusNotFound, w.Code, path)
		assert.Contains(t, w.Body.String(), "Job not found", path)
	}
}

func TestCancelJob(t *testing.T) {
	router, jobs := newTestRouter(t, testConfig(), "")

	id := jobs.Create(job.FilterConfig{})
	require.NoError(t, jobs.AddFile(id, "a.pdf", "application/pdf", []byte("%PDF-a")))

	w := doRequest(router, http.MethodPost, "/api/job/"+id+"/cancel", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"state":"cancelled"`)

	w = doRequest(router, http.MethodPost, "/api/job/"+id+"/cancel", nil, "")
	assert.Equal(t, http.StatusConflict, w.Code)

	w = doRequest(router, http.MethodPost, "/api/job/missing/cancel", nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestExportCSV(t *testing.T) {
	router, jobs := newTestRouter(t, testConfig(), spxDocText)

	jobID := uploadAndWait(t, router, jobs, nil,
		map[string][]byte{"spx.pdf": []byte("%PDF-stub")})

	w := doRequest(router, http.MethodGet, "/api/export/"+jobID+".csv", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), "peak_import_"+jobID+".csv")
	assert.Contains(t, w.Header().Get("Content-Type"), "text/csv")
	assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte{0xEF, 0xBB, 0xBF}))
	assert.Contains(t, w.Body.String(), "RCSPXSPB00-00000-251218-0001593")
}

func TestExportXLSX(t *testing.T) {
	router, jobs := newTestRouter(t, testConfig(), spxDocText)

	jobID := uploadAndWait(t, router, jobs, nil,
		map[string][]byte{"spx.pdf": []byte("%PDF-stub")})

	w := doRequest(router, http.MethodGet, "/api/export/"+jobID+".xlsx", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), "peak_import_"+jobID+".xlsx")
	assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("PK")))
}

func TestExportRejectsUnknownSuffix(t *testing.T) {
	router, _ := newTestRouter(t, testConfig(), "")

	w := doRequest(router, http.MethodGet, "/api/export/whatever.pdf", nil, "")

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "unsupported export format")
}

func TestCORSPreflight(t *testing.T) {
	cfg := testConfig()
	cfg.Server.CORSOrigins = []string{"https://app.example.com"}
	router, _ := newTestRouter(t, cfg, "")

	req := httptest.NewRequest(http.MethodOptions, "/api/health", nil)
	req.Header.Set("Origin", "https://app.example.com")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://app.example.com", w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodOptions, "/api/health", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}
