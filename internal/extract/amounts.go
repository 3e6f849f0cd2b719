package extract

import (
	"regexp"
	"strings"

	"github.com/peaklab/peak-importer/internal/textutil"
)

// Amounts carries the four money channels of a marketplace document. The
// withholding-tax channel is kept apart from the totals so a WHT figure can
// never be mistaken for a document total.
type Amounts struct {
	ExVAT     string
	VATAmount string
	IncVAT    string
	WHTRate   string
	WHTAmount string
}

const (
	whtHintRadius         = 60
	whtHintRadiusFallback = 80
)

var (
	reTotalIncVAT = regexp.MustCompile(`(?i)(?:รวม\s*ทั้ง\s*สิ้น|จำนวนเงินรวม\s*\(รวม\s*ภาษี|Total\s*(?:amount)?\s*\(?(?:including|incl\.?)\s*(?:VAT|Tax)\)?|Grand\s*Total)\s*[:#：]?\s*฿?\s*([0-9,]+(?:\.[0-9]{1,2})?)`)

	reTotalExVAT = regexp.MustCompile(`(?i)(?:ยอด\s*ก่อน\s*ภาษี|ยอดรวม\s*\(?\s*ไม่รวมภาษี\s*\)?|Subtotal\s*excl\W*|Total\s*excluding\s*VAT|Total\s*Value\s*of\s*Services\s*\(Excluded\s*VAT\))\s*[:#：]?\s*฿?\s*([0-9,]+(?:\.[0-9]{1,2})?)`)

	reVATAmount = regexp.MustCompile(`(?i)(?:ภาษีมูลค่าเพิ่ม|VAT)\s*(?:@?\s*7\s*%)?\s*(?:\(VAT\))?\s*[:#：]?\s*฿?\s*([0-9,]+(?:\.[0-9]{1,2})?)`)

	// Generic totals for the last-resort fallback, most specific first.
	reGenericTotals = []*regexp.Regexp{
		regexp.MustCompile(`รวม\s*ทั้ง\s*สิ้น\s*[:#：]?\s*฿?\s*([0-9,]+(?:\.[0-9]{1,2})?)`),
		regexp.MustCompile(`(?i)Grand\s*Total\s*[:#：]?\s*฿?\s*([0-9,]+(?:\.[0-9]{1,2})?)`),
		regexp.MustCompile(`(?i)Total\s*amount\s*[:#：]?\s*฿?\s*([0-9,]+(?:\.[0-9]{1,2})?)`),
		regexp.MustCompile(`จำนวนเงินรวม\s*[:#：]?\s*฿?\s*([0-9,]+(?:\.[0-9]{1,2})?)`),
		regexp.MustCompile(`ยอดรวม\s*[:#：]?\s*฿?\s*([0-9,]+(?:\.[0-9]{1,2})?)`),
		regexp.MustCompile(`(?i)Total\s*[:#：]?\s*฿?\s*([0-9,]+(?:\.[0-9]{1,2})?)`),
	}

	reWHTThai = regexp.MustCompile(`(?s)หักภาษีเงินได้\s*ณ\s*ที่จ่าย.*?อัตรา(?:ร้อย)?ละ\s*(\d{1,2})\s*%.*?(?:เป็นจำนวนเงิน|จำนวน)\s*([0-9,]+(?:\.[0-9]{1,2})?)`)
	reWHTEng  = regexp.MustCompile(`(?is)withholding\s+tax.*?(\d{1,2})\s*%.*?(?:at|=)\s*([0-9,]+(?:\.[0-9]{1,2})?)\s*(?:THB|บาท)?`)

	reWHTHint = regexp.MustCompile(`(?i)withholding\s+tax|หักภาษี|ณ\s*ที่จ่าย|wht`)
)

// nearWHTHint reports whether a withholding-tax phrase appears within radius
// runes of the [start,end) byte span in t.
func nearWHTHint(t string, start, end, radius int) bool {
	lo := start - radius*3
	if lo < 0 {
		lo = 0
	}
	hi := end + radius*3
	if hi > len(t) {
		hi = len(t)
	}
	// Byte offsets over-cover multibyte Thai text; that only widens the guard.
	for lo > 0 && !isRuneStart(t[lo]) {
		lo--
	}
	for hi < len(t) && !isRuneStart(t[hi]) {
		hi++
	}
	return reWHTHint.MatchString(t[lo:hi])
}

func isRuneStart(b byte) bool { return b&0xC0 != 0x80 }

// firstGuarded returns the first money match of re in t whose context is free
// of withholding-tax hints.
func firstGuarded(t string, re *regexp.Regexp, radius int) string {
	for _, loc := range re.FindAllStringSubmatchIndex(t, -1) {
		if nearWHTHint(t, loc[0], loc[1], radius) {
			continue
		}
		v := textutil.ParseMoney(t[loc[2]:loc[3]])
		if v != "" {
			return v
		}
	}
	return ""
}

func extractWHT(t string) (rate, amount string) {
	if m := reWHTThai.FindStringSubmatch(t); m != nil {
		return m[1] + "%", textutil.ParseMoney(m[2])
	}
	if m := reWHTEng.FindStringSubmatch(t); m != nil {
		return m[1] + "%", textutil.ParseMoney(m[2])
	}
	return "", ""
}

// scanAmounts runs the generic channel scan: guarded totals plus the separate
// withholding channel.
func scanAmounts(t string) Amounts {
	a := Amounts{
		IncVAT:    firstGuarded(t, reTotalIncVAT, whtHintRadius),
		ExVAT:     firstGuarded(t, reTotalExVAT, whtHintRadius),
		VATAmount: firstGuarded(t, reVATAmount, whtHintRadius),
	}
	a.WHTRate, a.WHTAmount = extractWHT(t)
	return a
}

// fallbackTotal is the last resort when no totals-block figure was found. It
// rejects any candidate that sits next to a withholding hint or equals the
// already-extracted WHT amount.
func fallbackTotal(t, whtAmount string) string {
	for _, re := range reGenericTotals {
		v := firstGuarded(t, re, whtHintRadiusFallback)
		if v != "" && v != whtAmount {
			return v
		}
	}
	return ""
}

func deriveIncVAT(exVAT, vatAmount string) string {
	ex, okEx := textutil.MoneyValue(exVAT)
	vat, okVAT := textutil.MoneyValue(vatAmount)
	if !okEx || !okVAT || ex+vat <= 0 {
		return ""
	}
	return textutil.FormatMoney(ex + vat)
}

func deriveExVAT(incVAT, vatAmount string) string {
	inc, okInc := textutil.MoneyValue(incVAT)
	vat, okVAT := textutil.MoneyValue(vatAmount)
	if !okInc || !okVAT || inc-vat <= 0 {
		return ""
	}
	return textutil.FormatMoney(inc - vat)
}

func pickFirst(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
