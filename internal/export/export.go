// Package export renders accumulated PEAK rows into the import template
// formats: CSV (UTF-8 with BOM, for Excel compatibility) and XLSX.
package export

import (
	"errors"
	"fmt"
	"strings"

	"github.com/peaklab/peak-importer/internal/peak"
)

const (
	// MaxRows caps a single export batch.
	MaxRows = 50000
	// maxCellChars is the spreadsheet cell hard limit.
	maxCellChars = 32767
)

var (
	ErrNoRows      = errors.New("ไม่มีข้อมูลสำหรับ export")
	ErrTooManyRows = fmt.Errorf("เกินจำนวนแถวสูงสุด %d แถว", MaxRows)
	ErrAllEmpty    = errors.New("ข้อมูลทุกแถวว่างเปล่า")
)

// textColumns render as literal text in spreadsheets so leading zeros and
// exact string identity survive. Date columns join them: YYYYMMDD must not
// become a number.
var textColumns = map[string]bool{
	peak.ColSeq:             true,
	peak.ColCompanyName:     true,
	peak.ColReference:       true,
	peak.ColVendorCode:      true,
	peak.ColTaxID13:         true,
	peak.ColBranch5:         true,
	peak.ColInvoiceNo:       true,
	peak.ColPriceType:       true,
	peak.ColVATRate:         true,
	peak.ColPND:             true,
	peak.ColPaymentMethod:   true,
	peak.ColDocDate:         true,
	peak.ColInvoiceDate:     true,
	peak.ColTaxPurchaseDate: true,
}

// numberColumns render as numeric cells with 2-decimal display.
var numberColumns = map[string]bool{
	peak.ColQty:        true,
	peak.ColUnitPrice:  true,
	peak.ColPaidAmount: true,
}

// Prepare re-enforces the row invariants right before export: sequence
// numbers re-run 1..n, the per-platform withholding policy is re-applied,
// references are compacted. Operates on copies; the job's rows are not
// mutated.
func Prepare(rows []peak.Row) []peak.Row {
	out := make([]peak.Row, len(rows))
	for i, r := range rows {
		peak.Normalize(&r, i+1, peak.ModeForPlatform(r.Platform))
		out[i] = r
	}
	return out
}

// Validate rejects batches the template importer cannot take.
func Validate(rows []peak.Row) error {
	if len(rows) == 0 {
		return ErrNoRows
	}
	if len(rows) > MaxRows {
		return ErrTooManyRows
	}

	probe := rows
	if len(probe) > 100 {
		probe = probe[:100]
	}
	for i := range probe {
		for _, c := range peak.Columns {
			if c.Key == peak.ColSeq {
				continue
			}
			if strings.TrimSpace(probe[i].Field(c.Key)) != "" {
				return nil
			}
		}
	}
	return ErrAllEmpty
}

// sanitizeCell defends against spreadsheet formula injection and the cell
// length limit. Values starting with =, +, -, @ get a neutralizing quote.
func sanitizeCell(v string) string {
	if v == "" {
		return v
	}
	switch v[0] {
	case '=', '+', '-', '@':
		v = "'" + v
	}
	if len(v) > maxCellChars {
		r := []rune(v)
		if len(r) > maxCellChars {
			v = string(r[:maxCellChars])
		}
	}
	return v
}
