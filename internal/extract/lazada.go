package extract

import (
	"regexp"

	"github.com/peaklab/peak-importer/internal/directory"
	"github.com/peaklab/peak-importer/internal/peak"
	"github.com/peaklab/peak-importer/internal/textutil"
)

// Lazada seller-fee invoices. The totals block prints three anchored lines
// (Total / 7% (VAT) / Total (Including Tax)); that block is the primary and
// safest amount source.
var (
	reLazadaDocTHMPTI = regexp.MustCompile(`(?i)\b(THMPTI\d{16})\b`)

	reLazadaInvoiceNo = regexp.MustCompile(`(?i)Invoice\s*No\.?\s*[:#：]?\s*([A-Z0-9\-/]{8,40})`)

	reLazadaInvoiceDate = regexp.MustCompile(`(?i)Invoice\s*Date\s*[:#：]?\s*(\d{4}[-/.]\d{1,2}[-/.]\d{1,2})`)

	reLazadaSubtotal = regexp.MustCompile(`(?im)^\s*Total\s+([0-9,]+\.[0-9]{2})\s*$`)
	reLazadaVAT7     = regexp.MustCompile(`(?im)^\s*7%\s*\(VAT\)\s+([0-9,]+\.[0-9]{2})\s*$`)
	reLazadaTotalInc = regexp.MustCompile(`(?im)^\s*Total\s*\(Including\s*Tax\)\s+([0-9,]+\.[0-9]{2})\s*$`)

	reLazadaWHT = regexp.MustCompile(`(?s)หักภาษีณ?\s*ที่จ่าย.*?อัตรา(?:ร้อยละ)?\s*(\d{1,2})\s*%.*?เป็นจำนวน\s*([0-9,]+(?:\.[0-9]{2})?)\s*บาท`)
)

// ExtractLazada builds a PEAK row from a Lazada fee invoice.
func ExtractLazada(text, clientTaxID, filename string) *peak.Row {
	t := textutil.NormalizeText(text)
	row := newRow(peak.PlatformLazada, clientTaxID, filename)

	if clientTaxID == "" {
		clientTaxID = findClientTaxID(t)
		row.ClientTaxID = clientTaxID
	}
	resolveVendor(row, t, clientTaxID, directory.VendorLazada, "Lazada")
	if b := findBranch(t); b != "" {
		row.Branch5 = b
	}

	setReference(row, lazadaReference(t, filename))

	docDate := ""
	if m := reLazadaInvoiceDate.FindStringSubmatch(t); m != nil {
		docDate = textutil.ParseDateYYYYMMDD(m[1])
	}
	if docDate == "" {
		docDate = textutil.FindBestDate(t)
	}
	fillDates(row, docDate)

	exVAT, vat, incVAT := lazadaTotalsBlock(t)
	if incVAT == "" {
		incVAT = deriveIncVAT(exVAT, vat)
	}

	whtAmount := ""
	if m := reLazadaWHT.FindStringSubmatch(t); m != nil {
		whtAmount = textutil.ParseMoney(m[2])
	}

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

	// Withholding stays off the row for Lazada.
	row.WHT = ""
	row.PND = ""

	row.PaymentMethod = "หักจากยอดขาย"
	row.Description = "Marketplace Expense"
	row.Group = "Marketplace Expense"
	row.Note = ""

	return row
}

// lazadaTotalsBlock reads the anchored totals lines: (ex-VAT, VAT, inc-VAT).
func lazadaTotalsBlock(t string) (exVAT, vat, incVAT string) {
	if m := reLazadaSubtotal.FindStringSubmatch(t); m != nil {
		exVAT = textutil.ParseMoney(m[1])
	}
	if m := reLazadaVAT7.FindStringSubmatch(t); m != nil {
		vat = textutil.ParseMoney(m[1])
	}
	if m := reLazadaTotalInc.FindStringSubmatch(t); m != nil {
		incVAT = textutil.ParseMoney(m[1])
	}
	return exVAT, vat, incVAT
}

func lazadaReference(t, filename string) string {
	if ref := gluedReference(t); ref != "" {
		return ref
	}
	if m := reLazadaDocTHMPTI.FindStringSubmatch(t); m != nil {
		return m[1]
	}
	if m := reLazadaDocTHMPTI.FindStringSubmatch(textutil.SquashWhitespace(t)); m != nil {
		return m[1]
	}
	if m := reLazadaInvoiceNo.FindStringSubmatch(t); m != nil {
		return m[1]
	}
	if inv := findInvoiceNo(t); inv != "" {
		return inv
	}
	fn := textutil.NormalizeText(filename)
	if m := reLazadaDocTHMPTI.FindStringSubmatch(fn); m != nil {
		return m[1]
	}
	return ""
}
