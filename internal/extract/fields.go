package extract

import (
	"regexp"
	"strings"

	"github.com/peaklab/peak-importer/internal/directory"
	"github.com/peaklab/peak-importer/internal/peak"
	"github.com/peaklab/peak-importer/internal/textutil"
)

var (
	reTaxIDLabel = regexp.MustCompile(`(?i)(?:เลขประจำตัวผู้เสียภาษี(?:อากร)?|เลขทะเบียน|Tax\s*ID)(?:\s*No\.?)?\s*(?:\(.*?\))?\s*[:#：]?\s*([0-9๐-๙][0-9๐-๙\s\-]{11,30})`)
	reTaxID13Run = regexp.MustCompile(`\b(\d{13})\b`)

	reBranchHQ  = regexp.MustCompile(`สำนักงานใหญ่|(?i)head\s*office`)
	reBranchNum = regexp.MustCompile(`(?i)(?:สาขาที่?|Branch(?:\s*No\.?)?)\s*[:#：]?\s*(\d{1,5})\b`)

	reInvoiceNoLabel = regexp.MustCompile(`(?i)(?:Invoice|Receipt|Document)\s*No\.?\s*[:#：]?\s*([A-Z0-9\-/]{6,40})`)
	reInvoiceNoThai  = regexp.MustCompile(`เลขที่\s*[:#：]?\s*([A-Za-z0-9\-/]{6,40})`)

	reDocDateLabel = regexp.MustCompile(`(?i)(?:วันที่เอกสาร|ใบเสร็จวันที่|วันที่|Invoice\s*Date|Document\s*Date|Date)\s*[:#：]?\s*([0-9๐-๙]{1,4}[/\-.][0-9๐-๙]{1,2}[/\-.][0-9๐-๙]{2,4})`)
)

// findVendorTaxID picks the issuer's 13-digit tax id: a labeled id first,
// then the first bare 13-digit run that is not one of our client companies.
func findVendorTaxID(t string) string {
	for _, m := range reTaxIDLabel.FindAllStringSubmatch(t, -1) {
		if id := directory.NormTaxID(m[1]); id != "" && !directory.IsKnownClient(id) {
			return id
		}
	}
	for _, m := range reTaxID13Run.FindAllStringSubmatch(t, -1) {
		if !directory.IsKnownClient(m[1]) {
			return m[1]
		}
	}
	return ""
}

// findClientTaxID picks the buyer side: a 13-digit run that matches one of
// the known client companies.
func findClientTaxID(t string) string {
	for _, m := range reTaxID13Run.FindAllStringSubmatch(t, -1) {
		if directory.IsKnownClient(m[1]) {
			return m[1]
		}
	}
	return ""
}

func findBranch(t string) string {
	if m := reBranchNum.FindStringSubmatch(t); m != nil {
		b := m[1]
		for len(b) < 5 {
			b = "0" + b
		}
		return b
	}
	if reBranchHQ.MatchString(t) {
		return "00000"
	}
	return ""
}

func findInvoiceNo(t string) string {
	if m := reInvoiceNoLabel.FindStringSubmatch(t); m != nil {
		return strings.TrimSpace(m[1])
	}
	if m := reInvoiceNoThai.FindStringSubmatch(t); m != nil {
		return strings.TrimSpace(m[1])
	}
	return ""
}

func findDocDate(t string) string {
	if m := reDocDateLabel.FindStringSubmatch(t); m != nil {
		if d := textutil.ParseDateYYYYMMDD(m[1]); d != "" {
			return d
		}
	}
	return textutil.FindBestDate(t)
}

// newRow seeds a row with the defaults shared by every marketplace extractor.
func newRow(p peak.Platform, clientTaxID, sourceFile string) *peak.Row {
	return &peak.Row{
		Branch5:     "00000",
		PriceType:   "1",
		Qty:         "1",
		VATRate:     "7%",
		Platform:    p,
		ClientTaxID: clientTaxID,
		SourceFile:  sourceFile,
		Status:      peak.StatusOK,
	}
}

func fillDates(r *peak.Row, date string) {
	if date == "" {
		return
	}
	r.DocDate = date
	r.InvoiceDate = date
	r.TaxPurchaseDate = date
}

// resolveVendor fills E and D. An unresolved client/vendor pairing keeps
// the directory sentinel; the platform label is never substituted, so a
// reviewer can tell an unmapped counterparty from a resolved one.
func resolveVendor(r *peak.Row, t, clientTaxID, defaultVendorTax, vendorName string) {
	vendorTax := findVendorTaxID(t)
	if vendorTax == "" {
		vendorTax = defaultVendorTax
	}
	r.TaxID13 = vendorTax

	r.VendorCode = directory.VendorCode(clientTaxID, vendorTax, vendorName)
}
