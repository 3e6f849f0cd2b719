package http

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/peaklab/peak-importer/internal/config"
	"github.com/peaklab/peak-importer/internal/export"
	"github.com/peaklab/peak-importer/internal/job"
	"github.com/peaklab/peak-importer/internal/peak"
)

// Handlers contains all HTTP request handlers.
type Handlers struct {
	cfg    *config.Config
	jobs   *job.Service
	logger *zap.Logger
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(cfg *config.Config, jobs *job.Service, logger *zap.Logger) *Handlers {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handlers{cfg: cfg, jobs: jobs, logger: logger}
}

func fail(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"ok": false, "error": message})
}

// Health reports liveness plus a collaborator summary without secrets.
func (h *Handlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"ok": true,
		"ai": gin.H{
			"enabled":        h.cfg.OpenAI.Enabled,
			"model":          h.cfg.OpenAI.Model,
			"has_openai_key": h.cfg.OpenAI.APIKey != "",
		},
		"ocr": gin.H{
			"enabled":   h.cfg.OCR.Enabled,
			"max_pages": h.cfg.OCR.MaxPages,
		},
		"cors": gin.H{"origins": h.cfg.Server.CORSOrigins},
	})
}

// ConfigSummary exposes the effective settings a deployer needs to verify,
// never key material.
func (h *Handlers) ConfigSummary(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"ok": true,
		"config": gin.H{
			"ai_enabled":         h.cfg.OpenAI.Enabled,
			"ai_model":           h.cfg.OpenAI.Model,
			"openai_key_present": h.cfg.OpenAI.APIKey != "",
			"ocr_enabled":        h.cfg.OCR.Enabled,
			"max_upload_files":   h.cfg.Upload.MaxFiles,
			"max_file_mb":        h.cfg.Upload.MaxFileMB,
			"job_ttl":            h.cfg.Jobs.TTL.String(),
			"ai_only_fill_empty": h.cfg.Jobs.AIOnlyFillEmpty,
			"cors_origins":       h.cfg.Server.CORSOrigins,
		},
	})
}

// splitFilterValues accepts both repeated form fields and comma-separated
// single fields.
func splitFilterValues(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			part = strings.TrimSpace(part)
			if part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

// Upload accepts a multipart batch, attaches every non-empty file to a fresh
// job and starts processing. Filter selections ride along as form fields.
func (h *Handlers) Upload(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		fail(c, http.StatusBadRequest, "invalid multipart form: "+err.Error())
		return
	}

	files := form.File["files"]
	if len(files) == 0 {
		fail(c, http.StatusBadRequest, "No files uploaded")
		return
	}
	if len(files) > h.cfg.Upload.MaxFiles {
		fail(c, http.StatusBadRequest, fmt.Sprintf("Too many files (max %d)", h.cfg.Upload.MaxFiles))
		return
	}

	filter := job.FilterConfig{
		Companies: splitFilterValues(form.Value["companies"]),
		Platforms: splitFilterValues(form.Value["platforms"]),
		Strict:    len(form.Value["strict"]) > 0 && strings.EqualFold(form.Value["strict"][0], "true"),
	}

	jobID := h.jobs.Create(filter)

	for _, fh := range files {
		if fh.Size > h.cfg.Upload.MaxFileBytes() {
			fail(c, http.StatusBadRequest,
				fmt.Sprintf("File too large: %s (max %d MB)", fh.Filename, h.cfg.Upload.MaxFileMB))
			return
		}

		src, err := fh.Open()
		if err != nil {
			fail(c, http.StatusBadRequest, "cannot read file: "+fh.Filename)
			return
		}
		data, err := io.ReadAll(src)
		src.Close()
		if err != nil {
			fail(c, http.StatusBadRequest, "cannot read file: "+fh.Filename)
			return
		}
		if len(data) == 0 {
			continue
		}

		contentType := fh.Header.Get("Content-Type")
		if err := h.jobs.AddFile(jobID, fh.Filename, contentType, data); err != nil {
			switch {
			case errors.Is(err, job.ErrTooManyFiles):
				fail(c, http.StatusBadRequest, fmt.Sprintf("Too many files (max %d)", h.cfg.Upload.MaxFiles))
			case errors.Is(err, job.ErrFileTooLarge):
				fail(c, http.StatusBadRequest,
					fmt.Sprintf("File too large: %s (max %d MB)", fh.Filename, h.cfg.Upload.MaxFileMB))
			default:
				fail(c, http.StatusBadRequest, err.Error())
			}
			return
		}
	}

	if err := h.jobs.Start(jobID); err != nil {
		if errors.Is(err, job.ErrNoFiles) {
			fail(c, http.StatusBadRequest, "No files uploaded")
			return
		}
		fail(c, http.StatusInternalServerError, err.Error())
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true, "job_id": jobID})
}

// JobStatus handles GET /api/job/:id.
func (h *Handlers) JobStatus(c *gin.Context) {
	snapshot, ok := h.jobs.Job(c.Param("id"))
	if !ok {
		fail(c, http.StatusNotFound, "Job not found")
		return
	}
	c.JSON(http.StatusOK, snapshot)
}

// rowJSON flattens a row into its column fields plus underscore-prefixed
// metadata the review UI needs.
func rowJSON(r *peak.Row) map[string]any {
	out := make(map[string]any, len(peak.Columns)+4)
	for k, v := range r.Fields() {
		out[k] = v
	}
	out["_source_file"] = r.SourceFile
	out["_platform"] = string(r.Platform)
	out["_status"] = string(r.Status)
	errs := r.Errors
	if errs == nil {
		errs = []string{}
	}
	out["_errors"] = errs
	return out
}

// JobRows handles GET /api/job/:id/rows.
func (h *Handlers) JobRows(c *gin.Context) {
	rows, ok := h.jobs.Rows(c.Param("id"))
	if !ok {
		fail(c, http.StatusNotFound, "Job not found")
		return
	}

	payload := make([]map[string]any, len(rows))
	for i := range rows {
		payload[i] = rowJSON(&rows[i])
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "rows": payload})
}

// CancelJob flags the job; the worker honors the flag at file boundaries.
func (h *Handlers) CancelJob(c *gin.Context) {
	jobID := c.Param("id")
	if err := h.jobs.Cancel(jobID); err != nil {
		switch {
		case errors.Is(err, job.ErrNotFound):
			fail(c, http.StatusNotFound, "Job not found")
		case errors.Is(err, job.ErrFinished):
			fail(c, http.StatusConflict, "Job already finished")
		default:
			fail(c, http.StatusInternalServerError, err.Error())
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "job_id": jobID, "state": string(job.StateCancelled)})
}

// Export serves the accumulated batch as <job_id>.csv or <job_id>.xlsx.
func (h *Handlers) Export(c *gin.Context) {
	name := c.Param("name")

	var jobID, format string
	switch {
	case strings.HasSuffix(name, ".csv"):
		jobID, format = strings.TrimSuffix(name, ".csv"), "csv"
	case strings.HasSuffix(name, ".xlsx"):
		jobID, format = strings.TrimSuffix(name, ".xlsx"), "xlsx"
	default:
		fail(c, http.StatusBadRequest, "unsupported export format, use .csv or .xlsx")
		return
	}

	rows, ok := h.jobs.Rows(jobID)
	if !ok {
		fail(c, http.StatusNotFound, "Job not found")
		return
	}

	var (
		data        []byte
		err         error
		contentType string
	)
	if format == "csv" {
		data, err = export.CSV(rows)
		contentType = "text/csv; charset=utf-8"
	} else {
		data, err = export.XLSX(rows)
		contentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	if err != nil {
		h.logger.Warn("export rejected", zap.String("job_id", jobID), zap.Error(err))
		fail(c, http.StatusBadRequest, err.Error())
		return
	}

	filename := fmt.Sprintf("peak_import_%s.%s", jobID, format)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, contentType, data)
}
