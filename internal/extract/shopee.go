package extract

import (
	"regexp"

	"github.com/peaklab/peak-importer/internal/directory"
	"github.com/peaklab/peak-importer/internal/peak"
	"github.com/peaklab/peak-importer/internal/textutil"
)

// Shopee seller-fee tax invoices. The service summary block is the primary
// amount source: N carries the ex-VAT service value and R the paid total
// including VAT.
var (
	reShopeeDocTI   = regexp.MustCompile(`\b((?:Shopee-)?TI[VR]-[A-Z0-9]+-\d{5}-\d{6}-\d{7,})\b`)
	reShopeeTRSDoc  = regexp.MustCompile(`\b(TRS[A-Z0-9\-/]{10,})\b`)
	reShopeeFullRef = regexp.MustCompile(`\b(TRS[A-Z0-9\-/]{10,})\s+(\d{4})\s*-\s*(\d{7})\b`)

	reShopeeSumExcl = regexp.MustCompile(`(?i)Total\s*Value\s*of\s*Services\s*\(\s*Excluded\s*VAT\s*\)\s*[:#：]?\s*฿?\s*([0-9,]+(?:\.[0-9]{1,2})?)`)
	reShopeeSumIncl = regexp.MustCompile(`(?i)Total\s*Value\s*of\s*Services\s*\(\s*Included\s*VAT\s*\)\s*[:#：]?\s*฿?\s*([0-9,]+(?:\.[0-9]{1,2})?)`)
	reShopeeSumVAT  = regexp.MustCompile(`(?:(?i:VAT)\s*7\s*%|ภาษีมูลค่าเพิ่ม\s*7\s*%)\s*[:#：]?\s*฿?\s*([0-9,]+(?:\.[0-9]{1,2})?)`)

	reShopeeSumExclAfterDiscount = regexp.MustCompile(`(?i)Total\s*Value\s*of\s*Services\s*after\s*discount\s*\(\s*Excluded\s*VAT\s*\)\s*[:#：]?\s*฿?\s*([0-9,]+(?:\.[0-9]{1,2})?)`)
)

// ExtractShopee builds a PEAK row from a Shopee tax invoice or receipt.
func ExtractShopee(text, clientTaxID, filename string) *peak.Row {
	t := textutil.NormalizeText(text)
	row := newRow(peak.PlatformShopee, clientTaxID, filename)

	if clientTaxID == "" {
		clientTaxID = findClientTaxID(t)
		row.ClientTaxID = clientTaxID
	}
	resolveVendor(row, t, clientTaxID, directory.VendorShopee, "Shopee")
	if b := findBranch(t); b != "" {
		row.Branch5 = b
	}

	setReference(row, shopeeReference(t, filename))
	fillDates(row, findDocDate(t))

	subtotal, vat, total := shopeeSummary(t)
	if total == "" {
		total = deriveIncVAT(subtotal, vat)
	}
	if subtotal == "" {
		subtotal = deriveExVAT(total, vat)
	}
	_, whtAmount := extractWHT(t)
	if total == "" {
		total = fallbackTotal(t, whtAmount)
	}

	row.UnitPrice = pickFirst(subtotal, total, vat, "0")
	row.PaidAmount = pickFirst(total, subtotal, row.UnitPrice)

	// Shopee fees settle from the seller wallet; the 3% withholding shows on
	// the document but is not keyed into P_wht here.
	row.WHT = ""
	if whtAmount != "" {
		row.PND = "53"
	}

	row.PaymentMethod = "หักจากยอดขาย"
	row.Description = "Marketplace Expense"
	row.Group = "Marketplace Expense"
	row.Note = ""

	if sid := directory.ExtractSellerID(t); sid != "" {
		row.SellerID = sid
	}

	return row
}

// shopeeSummary reads the service summary block: (ex-VAT, VAT, inc-VAT).
func shopeeSummary(t string) (subtotal, vat, total string) {
	if m := reShopeeSumExclAfterDiscount.FindStringSubmatch(t); m != nil {
		subtotal = textutil.ParseMoney(m[1])
	}
	if subtotal == "" {
		if m := reShopeeSumExcl.FindStringSubmatch(t); m != nil {
			subtotal = textutil.ParseMoney(m[1])
		}
	}
	if m := reShopeeSumVAT.FindStringSubmatch(t); m != nil {
		vat = textutil.ParseMoney(m[1])
	}
	if m := reShopeeSumIncl.FindStringSubmatch(t); m != nil {
		total = textutil.ParseMoney(m[1])
	}
	return subtotal, vat, total
}

func shopeeReference(t, filename string) string {
	if m := reShopeeFullRef.FindStringSubmatch(t); m != nil {
		return m[1] + m[2] + "-" + m[3]
	}
	if m := reShopeeDocTI.FindStringSubmatch(t); m != nil {
		return m[1]
	}
	if m := reShopeeTRSDoc.FindStringSubmatch(t); m != nil {
		doc := m[1]
		if r := reMMDDSeq.FindStringSubmatch(t); r != nil {
			return doc + r[1] + "-" + r[2]
		}
		return doc
	}

	fn := textutil.NormalizeText(filename)
	if m := reShopeeFullRef.FindStringSubmatch(fn); m != nil {
		return m[1] + m[2] + "-" + m[3]
	}
	if m := reShopeeTRSDoc.FindStringSubmatch(fn); m != nil {
		return m[1]
	}
	if m := reShopeeDocTI.FindStringSubmatch(fn); m != nil {
		return m[1]
	}
	return ""
}
