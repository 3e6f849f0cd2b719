package extract

import (
	"regexp"

	"github.com/peaklab/peak-importer/internal/directory"
	"github.com/peaklab/peak-importer/internal/peak"
	"github.com/peaklab/peak-importer/internal/textutil"
)

// SPX Express shipping-fee receipts. The withholding clause on these
// documents states an actual 3% deduction, so this is the one platform where
// P_wht and S_pnd are filled from the document itself.
var (
	reSPXDocNo   = regexp.MustCompile(`(?:เลขที่|No\.?)\s*[:#：]?\s*(RCS[A-Z0-9\-/]{8,})`)
	reSPXFullRef = regexp.MustCompile(`\b(RCS[A-Z0-9\-/]{8,})\s+(\d{4})\s*-\s*(\d{7})\b`)
	reSPXDocOnly = regexp.MustCompile(`\b(RCS[A-Z0-9\-/]{8,})\b`)

	reSPXTotalFallback = regexp.MustCompile(`(?:จำนวนเงินรวม|(?i:Total\s*amount))\s*[:#：]?\s*฿?\s*([0-9,]+(?:\.[0-9]{1,2})?)`)
)

// ExtractSPX builds a PEAK row from an SPX receipt.
func ExtractSPX(text, clientTaxID, filename string) *peak.Row {
	t := textutil.NormalizeText(text)
	row := newRow(peak.PlatformSPX, clientTaxID, filename)

	if clientTaxID == "" {
		clientTaxID = findClientTaxID(t)
		row.ClientTaxID = clientTaxID
	}
	resolveVendor(row, t, clientTaxID, directory.VendorSPX, "SPX")
	if b := findBranch(t); b != "" {
		row.Branch5 = b
	}

	setReference(row, spxReference(t, filename))
	fillDates(row, findDocDate(t))

	a := scanAmounts(t)
	total := a.IncVAT
	if total == "" {
		total = deriveIncVAT(a.ExVAT, a.VATAmount)
	}
	if total == "" {
		total = firstGuarded(t, reSPXTotalFallback, whtHintRadiusFallback)
		if total == a.WHTAmount {
			total = ""
		}
	}
	if total == "" {
		total = fallbackTotal(t, a.WHTAmount)
	}
	if total == "" {
		total = a.ExVAT
	}
	if total == "" {
		total = "0"
	}
	row.UnitPrice = total
	row.PaidAmount = total

	// SPX requires the stated rate to be exactly 3%.
	if a.WHTRate == "3%" && a.WHTAmount != "" {
		row.WHT = "3%"
		row.PND = "53"
	} else {
		row.WHT = "0"
		row.PND = ""
	}

	row.PaymentMethod = "หักจากยอดขาย"
	row.Description = "Marketplace Expense"
	row.Group = "Marketplace Expense"
	row.Note = ""

	return row
}

// spxReference resolves the document reference with the document text taking
// priority over the filename, and glued forms over bare document numbers.
func spxReference(t, filename string) string {
	if m := reSPXFullRef.FindStringSubmatch(t); m != nil {
		return m[1] + m[2] + "-" + m[3]
	}

	doc := ""
	if m := reSPXDocNo.FindStringSubmatch(t); m != nil {
		doc = m[1]
	} else if m := reSPXDocOnly.FindStringSubmatch(t); m != nil {
		doc = m[1]
	}
	if doc != "" {
		if m := reMMDDSeq.FindStringSubmatch(t); m != nil {
			return doc + m[1] + "-" + m[2]
		}
	}

	fn := textutil.NormalizeText(filename)
	if m := reSPXFullRef.FindStringSubmatch(fn); m != nil {
		return m[1] + m[2] + "-" + m[3]
	}
	if m := reSPXDocOnly.FindStringSubmatch(fn); m != nil {
		fdoc := m[1]
		if r := reMMDDSeq.FindStringSubmatch(fn); r != nil {
			return fdoc + r[1] + "-" + r[2]
		}
		if doc == "" {
			doc = fdoc
		}
	}

	// Last try on whitespace-squashed text, then whatever partial we hold.
	sq := textutil.SquashWhitespace(t)
	if m := reSPXDocOnly.FindStringSubmatch(sq); m != nil {
		sdoc := m[1]
		if r := reMMDDSeq.FindStringSubmatch(sq); r != nil {
			return sdoc + r[1] + "-" + r[2]
		}
		return sdoc
	}
	return doc
}
