package job

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/peaklab/peak-importer/internal/directory"
	"github.com/peaklab/peak-importer/internal/extract"
	"github.com/peaklab/peak-importer/internal/peak"
	"github.com/peaklab/peak-importer/internal/textutil"
)

// TextSource acquires text from upload bytes; "" means no text obtainable.
type TextSource interface {
	Text(data []byte, filename string) string
}

// RowFiller is the optional AI collaborator.
type RowFiller interface {
	Enabled() bool
	Fill(ctx context.Context, text, platformHint string, partial map[string]string, filename string) map[string]string
}

// Review/file messages surfaced to the polling client, matching the review
// UI language.
const (
	msgNoText         = "ยังไม่มีข้อความจากเอกสาร (PDF สแกน/รูปภาพ) — ต้องเปิด OCR หรือรีวิวเอง"
	msgFilterMismatch = "ไม่ตรงตัวกรองที่เลือก (backend) — ส่งไป review"
	msgNeedsReview    = "มีช่องที่ต้องตรวจสอบ"
	errNoWallet       = "ไม่พบ wallet code (Q_payment_method)"
)

// Runner executes the per-file pipeline for one job. Files run strictly
// sequentially; OCR and AI are blocking calls by design.
type Runner struct {
	source          TextSource
	filler          RowFiller
	engine          *extract.Engine
	aiOnlyFillEmpty bool
	logger          *zap.Logger
}

func NewRunner(source TextSource, filler RowFiller, engine *extract.Engine, aiOnlyFillEmpty bool, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	if engine == nil {
		engine = extract.NewEngine(logger)
	}
	return &Runner{
		source:          source,
		filler:          filler,
		engine:          engine,
		aiOnlyFillEmpty: aiOnlyFillEmpty,
		logger:          logger,
	}
}

// Process runs every attached file in order, honoring the cancellation flag
// at file boundaries, then settles the job's final state.
func (r *Runner) Process(s *Service, jobID string) {
	payloads := s.payloadsOf(jobID)
	filter := s.filterOf(jobID)
	ctx := context.Background()

	seq := 0
	for idx, p := range payloads {
		if s.cancelledFlag(jobID) {
			r.logger.Info("job cancelled, stopping at file boundary",
				zap.String("job_id", jobID), zap.Int("next_file", idx))
			return
		}
		seq++
		r.processFile(ctx, s, jobID, idx, p, filter, seq)
	}

	s.finishJob(jobID)
}

// processFile handles a single upload. A panic anywhere in the pipeline
// still yields exactly one ERROR row so row-count accounting never goes
// short.
func (r *Runner) processFile(ctx context.Context, s *Service, jobID string, idx int, p payload, filter FilterConfig, seq int) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("file pipeline panicked",
				zap.String("job_id", jobID),
				zap.String("file", p.name),
				zap.Any("panic", rec))

			row := peak.Row{
				SourceFile: p.name,
				Platform:   peak.PlatformUnknown,
				Status:     peak.StatusError,
			}
			row.AddError(fmt.Sprintf("internal error: %v", rec))
			peak.Normalize(&row, seq, peak.WHTBlank)

			s.updateFile(jobID, idx, func(f *FileRecord) {
				f.State = FileError
				f.Message = fmt.Sprintf("Error: %v", rec)
				f.RowsCount = 1
			})
			s.appendRows(jobID, []peak.Row{row})
		}
	}()

	s.updateFile(jobID, idx, func(f *FileRecord) { f.State = FileProcessing })

	var text string
	if r.source != nil {
		text = r.source.Text(p.data, p.name)
	}
	text = textutil.NormalizeText(text)

	clientTaxID := r.resolveClient(text, p.name, filter)
	company := directory.ClientName(clientTaxID)
	displayCompany := company
	if displayCompany == "UNKNOWN" {
		displayCompany = ""
	}

	if text == "" {
		_, row := r.engine.FromText("", clientTaxID, p.name)
		row.CompanyName = displayCompany
		peak.Normalize(row, seq, peak.WHTBlank)

		s.updateFile(jobID, idx, func(f *FileRecord) {
			f.State = FileNeedsReview
			f.Platform = "UNKNOWN"
			f.Company = displayCompany
			f.Message = msgNoText
			f.RowsCount = 1
		})
		s.appendRows(jobID, []peak.Row{*row})
		return
	}

	platform, row := r.engine.FromText(text, clientTaxID, p.name)
	platformLabel := strings.ToUpper(string(platform))
	row.CompanyName = displayCompany

	// Seller id: extractor value first, then labeled hints in text, then the
	// long-digit fallbacks the wallet table tolerates.
	if row.SellerID == "" {
		row.SellerID = resolveSellerID(text, p.name)
	}

	shopHint := strings.TrimSuffix(filepath.Base(p.name), filepath.Ext(p.name))
	wallet := directory.WalletCode(clientTaxID, row.SellerID, shopHint, text)
	if wallet != "" {
		row.PaymentMethod = wallet
	} else if platform == peak.PlatformShopee {
		// Wallet resolution is mandatory for Shopee documents.
		row.AddError(errNoWallet)
	}

	whtMode := peak.ModeForPlatform(platform)
	peak.Normalize(row, seq, whtMode)

	hadErrors := len(row.Errors) > 0
	if r.filler != nil && r.filler.Enabled() && shouldCallAI(row) {
		patch := r.filler.Fill(ctx, text, platformLabel, row.Fields(), p.name)
		r.mergePatch(row, patch, hadErrors)
	}

	// AI must not undo orchestrator policy: wallet and withholding are
	// re-applied after the merge.
	if wallet != "" {
		row.PaymentMethod = wallet
	}
	peak.Normalize(row, seq, whtMode)
	row.MergeErrors(peak.Validate(row))

	mismatch, reason := filter.Mismatch(company, platformLabel)

	var state FileState
	var message string
	switch {
	case mismatch:
		row.AddError(reason)
		row.Status = peak.StatusNeedsReview
		state = FileNeedsReview
		message = msgFilterMismatch
	case len(row.Errors) > 0:
		row.Status = peak.StatusNeedsReview
		state = FileNeedsReview
		message = msgNeedsReview
	default:
		row.Status = peak.StatusOK
		state = FileDone
	}

	s.updateFile(jobID, idx, func(f *FileRecord) {
		f.State = state
		f.Platform = platformLabel
		f.Company = displayCompany
		f.Message = message
		f.RowsCount = 1
	})
	s.appendRows(jobID, []peak.Row{*row})
}

// resolveClient picks the client tax id: in-text signal first, then a
// single-valued company filter, then filename keywords.
func (r *Runner) resolveClient(text, filename string, filter FilterConfig) string {
	if id := directory.DetectClient(text); id != "" {
		return id
	}
	if len(filter.Companies) == 1 {
		if id := directory.ClientTaxIDByName(filter.Companies[0]); id != "" {
			return id
		}
	}
	return directory.DetectClient(filename)
}

var zeroish = map[string]bool{"": true, "0": true, "0.0": true, "0.00": true}

// shouldCallAI gates the AI collaborator on validation errors or missing
// critical fields.
func shouldCallAI(row *peak.Row) bool {
	if len(row.Errors) > 0 {
		return true
	}
	return row.DocDate == "" || row.Description == "" || zeroish[row.PaidAmount]
}

// mergePatch applies an AI patch under the orchestrator's policy: the
// withholding column is never writable, and values only override non-empty
// fields when the rule-based pass had errors (unless fill-empty-only is
// forced by config).
func (r *Runner) mergePatch(row *peak.Row, patch map[string]string, hadErrors bool) {
	for k, v := range patch {
		if k == peak.ColWHT || v == "" {
			continue
		}
		cur := row.Field(k)
		switch {
		case r.aiOnlyFillEmpty:
			if zeroish[cur] {
				row.SetField(k, v)
			}
		case hadErrors:
			row.SetField(k, v)
		default:
			if zeroish[cur] {
				row.SetField(k, v)
			}
		}
	}
}

// resolveSellerID mirrors the wallet lookup tolerance: labeled hints are
// authoritative; otherwise any long digit token from text or filename gives
// the table a chance to match.
func resolveSellerID(text, filename string) string {
	if id := directory.ExtractSellerID(text); id != "" {
		return id
	}
	for _, run := range textutil.FindAllDigitRuns(text) {
		if len(run) >= 6 && len(run) <= 20 && len(run) != 13 {
			return run
		}
	}
	for _, run := range textutil.FindAllDigitRuns(filename) {
		if len(run) >= 6 && len(run) <= 20 {
			return run
		}
	}
	return ""
}
