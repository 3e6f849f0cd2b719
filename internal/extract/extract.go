// Package extract turns raw document text into PEAK rows. Each marketplace
// has a dedicated extractor; Engine dispatches on the classifier verdict.
package extract

import (
	"strings"

	"go.uber.org/zap"

	"github.com/peaklab/peak-importer/internal/classify"
	"github.com/peaklab/peak-importer/internal/directory"
	"github.com/peaklab/peak-importer/internal/peak"
)

// ErrNoText is the row error recorded when a document yields no text.
const ErrNoText = "ไม่พบข้อความจากเอกสาร"

// Engine classifies a document and runs the matching extractor.
type Engine struct {
	classifier *classify.Classifier
	logger     *zap.Logger
}

func NewEngine(logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		classifier: classify.NewClassifier(logger),
		logger:     logger,
	}
}

// FromText produces exactly one row per document. Empty text still yields a
// row, flagged for review, so file and row counts stay in step.
func (e *Engine) FromText(text, clientTaxID, filename string) (peak.Platform, *peak.Row) {
	if strings.TrimSpace(text) == "" {
		row := newRow(peak.PlatformUnknown, clientTaxID, filename)
		row.AddError(ErrNoText)
		row.Status = peak.StatusNeedsReview
		return peak.PlatformUnknown, row
	}

	platform := e.classifier.Classify(text, filename)
	e.logger.Debug("document classified",
		zap.String("file", filename),
		zap.String("platform", string(platform)))

	var row *peak.Row
	switch platform {
	case peak.PlatformShopee:
		row = ExtractShopee(text, clientTaxID, filename)
	case peak.PlatformLazada:
		row = ExtractLazada(text, clientTaxID, filename)
	case peak.PlatformTikTok:
		row = ExtractTikTok(text, clientTaxID, filename)
	case peak.PlatformSPX:
		row = ExtractSPX(text, clientTaxID, filename)
	case peak.PlatformAds:
		row = ExtractThaiInvoice(text, clientTaxID, filename)
		row.Platform = peak.PlatformAds
		row.Description = "Advertising Expense"
		row.Group = directory.ExpenseCategory(row.Description, string(peak.PlatformAds))
	case peak.PlatformOther:
		row = ExtractThaiInvoice(text, clientTaxID, filename)
	default:
		row = ExtractThaiInvoice(text, clientTaxID, filename)
		row.Platform = peak.PlatformUnknown
		row.AddError("ไม่สามารถระบุประเภทเอกสารได้")
		row.Status = peak.StatusNeedsReview
	}
	return row.Platform, row
}
