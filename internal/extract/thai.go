package extract

import (
	"regexp"
	"strings"

	"github.com/peaklab/peak-importer/internal/directory"
	"github.com/peaklab/peak-importer/internal/peak"
	"github.com/peaklab/peak-importer/internal/textutil"
)

// Generic Thai tax invoices and receipts (ใบเสร็จรับเงิน/ใบกำกับภาษี) from
// vendors outside the marketplace platforms.
var (
	reThaiInvoiceNo = regexp.MustCompile(`เลขที่\s*[:#：]?\s*([0-9]{6,25})`)

	reThaiVendorName = regexp.MustCompile(`(?s)(บริษัท[^0-9\n]{2,120}?)\s*(?:เลขประจำตัวผู้เสียภาษี|Tax\s*ID)`)

	reThaiAmounts = []*regexp.Regexp{
		regexp.MustCompile(`รวมยอดที่ต้(?:อง)?(?:ชำ)?ระ\s*[:#：]?\s*([0-9,]+(?:\.[0-9]{1,2})?)`),
		regexp.MustCompile(`รวม\s*ทั้ง\s*สิ้น\s*[:#：]?\s*([0-9,]+(?:\.[0-9]{1,2})?)`),
		regexp.MustCompile(`ยอดรวม\s*[:#：]?\s*([0-9,]+(?:\.[0-9]{1,2})?)`),
		regexp.MustCompile(`รวม\s*[:#：]?\s*([0-9,]+(?:\.[0-9]{1,2})?)`),
	}

	reThaiVATAmt = regexp.MustCompile(`ภาษีมูลค่าเพิ่ม\s*(?:7\s*%)?\s*[:#：]?\s*([0-9,]+(?:\.[0-9]{1,2})?)`)
)

// ExtractThaiInvoice builds a PEAK row from a generic Thai tax invoice.
func ExtractThaiInvoice(text, clientTaxID, filename string) *peak.Row {
	t := textutil.NormalizeText(text)
	row := newRow(peak.PlatformOther, clientTaxID, filename)

	if clientTaxID == "" {
		clientTaxID = findClientTaxID(t)
		row.ClientTaxID = clientTaxID
	}

	if m := reThaiInvoiceNo.FindStringSubmatch(t); m != nil {
		setReference(row, m[1])
	} else if inv := findInvoiceNo(t); inv != "" {
		setReference(row, inv)
	}

	fillDates(row, findDocDate(t))

	row.TaxID13 = findVendorTaxID(t)

	// The counterparty code comes from the mapping when the vendor is known;
	// otherwise the printed company name is kept for the reviewer.
	code := directory.VendorCode(clientTaxID, row.TaxID13, "")
	if code == directory.UnknownVendorCode || code == "" {
		if m := reThaiVendorName.FindStringSubmatch(t); m != nil {
			name := strings.Join(strings.Fields(m[1]), " ")
			if rs := []rune(name); len(rs) > 100 {
				name = string(rs[:100])
			}
			code = name
		} else {
			code = ""
		}
	}
	row.VendorCode = code

	if b := findBranch(t); b != "" {
		row.Branch5 = b
	}

	_, whtAmount := extractWHT(t)
	total := ""
	for _, re := range reThaiAmounts {
		total = firstGuarded(t, re, whtHintRadius)
		if total != "" && total != whtAmount {
			break
		}
		total = ""
	}
	if total != "" {
		row.UnitPrice = total
		row.PaidAmount = total
	}

	if m := reThaiVATAmt.FindStringSubmatch(t); m != nil {
		if v, ok := textutil.MoneyValue(m[1]); ok && v == 0 {
			row.VATRate = "NO"
		}
	}

	row.WHT = ""
	row.Description = "Thai Tax Invoice"
	row.Group = ""
	row.Note = ""

	return row
}
