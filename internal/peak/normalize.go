package peak

import (
	"strconv"
	"strings"

	"github.com/peaklab/peak-importer/internal/textutil"
)

// WHTMode is the withholding-tax policy applied during normalization. The
// policy is resolved per platform by the orchestrator; extractors only
// propose values.
type WHTMode int

const (
	// WHTBlank forces the withholding field to the empty string no matter
	// what the extractor or AI produced. Default for every platform.
	WHTBlank WHTMode = iota
	// WHTAuto keeps the extractor's verdict: "3%" when a genuine 3%-rate
	// remark was detected, "0" otherwise. Used for SPX.
	WHTAuto
)

// ModeForPlatform resolves the default withholding policy for a platform.
func ModeForPlatform(p Platform) WHTMode {
	if p == PlatformSPX {
		return WHTAuto
	}
	return WHTBlank
}

// Normalize enforces the row invariants in place. Idempotent: applying it
// twice with the same arguments yields the same row. It runs both after
// rule-based extraction and after any AI patch merge, so AI output cannot
// violate the invariants.
func Normalize(r *Row, seq int, mode WHTMode) {
	r.Seq = strconv.Itoa(seq)

	// Dates: digits only, at most 8.
	r.DocDate = truncDigits(r.DocDate, 8)
	r.InvoiceDate = truncDigits(r.InvoiceDate, 8)
	r.TaxPurchaseDate = truncDigits(r.TaxPurchaseDate, 8)

	// Tax id and branch.
	r.TaxID13 = truncDigits(r.TaxID13, 13)
	br := textutil.DigitsOnly(r.Branch5)
	if br == "" {
		r.Branch5 = "00000"
	} else {
		r.Branch5 = padLeft(br, 5)
	}

	// Price type.
	j := strings.TrimSpace(r.PriceType)
	if j != "1" && j != "2" && j != "3" {
		if j == "" {
			j = "1"
		}
	}
	r.PriceType = j

	// VAT rate.
	o := strings.ToUpper(strings.TrimSpace(r.VATRate))
	switch {
	case o == "NO" || o == "0" || o == "NONE":
		r.VATRate = "NO"
	case o == "" || strings.Contains(o, "7"):
		r.VATRate = "7%"
	default:
		r.VATRate = o
	}

	// Quantity.
	if strings.TrimSpace(r.Qty) == "" {
		r.Qty = "1"
	}

	// Money: clean and cross-fill unit price and paid amount.
	n := cleanMoney(r.UnitPrice)
	p := cleanMoney(r.PaidAmount)
	if n == "" {
		n = p
	}
	if p == "" {
		p = n
	}
	if n == "" {
		n = "0"
	}
	if p == "" {
		p = "0"
	}
	r.UnitPrice = n
	r.PaidAmount = p

	// Withholding policy.
	switch mode {
	case WHTAuto:
		w := strings.TrimSpace(r.WHT)
		if w == "" {
			w = "0"
		}
		r.WHT = w
	default:
		r.WHT = ""
	}

	// Reference/invoice-no compaction and cross-sync.
	r.Reference = textutil.SquashWhitespace(r.Reference)
	r.InvoiceNo = textutil.SquashWhitespace(r.InvoiceNo)
	if r.Reference == "" && r.InvoiceNo != "" {
		r.Reference = r.InvoiceNo
	}
	if r.InvoiceNo == "" && r.Reference != "" {
		r.InvoiceNo = r.Reference
	}

	// Remaining free-text fields: trim only.
	r.CompanyName = strings.TrimSpace(r.CompanyName)
	r.VendorCode = strings.TrimSpace(r.VendorCode)
	r.Account = strings.TrimSpace(r.Account)
	r.Description = strings.TrimSpace(r.Description)
	r.PaymentMethod = strings.TrimSpace(r.PaymentMethod)
	r.PND = strings.TrimSpace(r.PND)
	r.Note = strings.TrimSpace(r.Note)
	r.Group = strings.TrimSpace(r.Group)
}

func truncDigits(s string, max int) string {
	d := textutil.DigitsOnly(s)
	if len(d) > max {
		return d[:max]
	}
	return d
}

func padLeft(s string, width int) string {
	if len(s) >= width {
		return s[:width]
	}
	return strings.Repeat("0", width-len(s)) + s
}

func cleanMoney(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	for _, junk := range []string{"฿", "THB", ","} {
		s = strings.ReplaceAll(s, junk, "")
	}
	return strings.TrimSpace(s)
}
