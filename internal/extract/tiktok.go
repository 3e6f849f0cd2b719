package extract

import (
	"regexp"

	"github.com/peaklab/peak-importer/internal/directory"
	"github.com/peaklab/peak-importer/internal/peak"
	"github.com/peaklab/peak-importer/internal/textutil"
)

// TikTok Shop seller-fee invoices. Layout follows the Lazada pattern: a
// TTSTH document number plus an English totals block.
var (
	reTikTokDocTTSTH = regexp.MustCompile(`(?i)\b(TTSTH[0-9]{10,20})\b`)

	reTikTokSubtotal = regexp.MustCompile(`(?im)^\s*(?:Subtotal|Total\s*\(?\s*excl(?:uding|\.)?\s*VAT\s*\)?)\s+([0-9,]+\.[0-9]{2})\s*$`)
	reTikTokVAT      = regexp.MustCompile(`(?im)^\s*VAT\s*(?:\(?\s*7\s*%\s*\)?)?\s+([0-9,]+\.[0-9]{2})\s*$`)
	reTikTokTotalInc = regexp.MustCompile(`(?im)^\s*Total\s*\(?\s*(?:incl(?:uding|\.)?\s*(?:VAT|Tax))\s*\)?\s+([0-9,]+\.[0-9]{2})\s*$`)
)

// ExtractTikTok builds a PEAK row from a TikTok Shop fee invoice.
func ExtractTikTok(text, clientTaxID, filename string) *peak.Row {
	t := textutil.NormalizeText(text)
	row := newRow(peak.PlatformTikTok, clientTaxID, filename)

	if clientTaxID == "" {
		clientTaxID = findClientTaxID(t)
		row.ClientTaxID = clientTaxID
	}
	resolveVendor(row, t, clientTaxID, directory.VendorTikTok, "TikTok")
	if b := findBranch(t); b != "" {
		row.Branch5 = b
	}

	setReference(row, tiktokReference(t, filename))
	fillDates(row, findDocDate(t))

	exVAT, vat, incVAT := tiktokTotalsBlock(t)
	if incVAT == "" {
		incVAT = deriveIncVAT(exVAT, vat)
	}
	_, whtAmount := extractWHT(t)
	if incVAT == "" {
		incVAT = fallbackTotal(t, whtAmount)
	}
	if incVAT == "" {
		incVAT = exVAT
	}
	if incVAT == "" {
		incVAT = "0"
	}
	row.UnitPrice = incVAT
	row.PaidAmount = incVAT

	row.WHT = ""
	row.PND = ""

	row.PaymentMethod = "หักจากยอดขาย"
	row.Description = "Marketplace Expense"
	row.Group = "Marketplace Expense"
	row.Note = ""

	return row
}

func tiktokTotalsBlock(t string) (exVAT, vat, incVAT string) {
	if m := reTikTokSubtotal.FindStringSubmatch(t); m != nil {
		exVAT = textutil.ParseMoney(m[1])
	}
	if m := reTikTokVAT.FindStringSubmatch(t); m != nil {
		vat = textutil.ParseMoney(m[1])
	}
	if m := reTikTokTotalInc.FindStringSubmatch(t); m != nil {
		incVAT = textutil.ParseMoney(m[1])
	}
	return exVAT, vat, incVAT
}

func tiktokReference(t, filename string) string {
	if m := reTikTokDocTTSTH.FindStringSubmatch(t); m != nil {
		return m[1]
	}
	if m := reTikTokDocTTSTH.FindStringSubmatch(textutil.SquashWhitespace(t)); m != nil {
		return m[1]
	}
	if ref := gluedReference(t); ref != "" {
		return ref
	}
	if inv := findInvoiceNo(t); inv != "" {
		return inv
	}
	fn := textutil.NormalizeText(filename)
	if m := reTikTokDocTTSTH.FindStringSubmatch(fn); m != nil {
		return m[1]
	}
	return ""
}
