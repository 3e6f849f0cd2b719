// Package textutil provides text normalization and parsing helpers shared by
// the platform extractors. All functions are pure and safe on empty input.
package textutil

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

const (
	thaiDigits   = "๐๑๒๓๔๕๖๗๘๙"
	arabicDigits = "0123456789"
)

var thaiToArabic = func() map[rune]rune {
	m := make(map[rune]rune, 10)
	thai := []rune(thaiDigits)
	for i, r := range thai {
		m[r] = rune(arabicDigits[i])
	}
	return m
}()

var (
	spaceRunRe = regexp.MustCompile(`[ \t]+`)
	nonNumRe   = regexp.MustCompile(`[^\d.]`)
	digitsRe   = regexp.MustCompile(`\d+`)
	thaiRuneRe = regexp.MustCompile(`[\x{0E00}-\x{0E7F}]`)
	thaiRunRe  = regexp.MustCompile(`[\x{0E00}-\x{0E7F}\s]+`)
	wsRe       = regexp.MustCompile(`\s+`)
)

// NormalizeText prepares raw document text for extraction: Thai digits become
// Arabic, Unicode is NFC-composed, NUL bytes and the Thai repeat mark (a
// frequent OCR artifact) are dropped, runs of spaces and tabs collapse to one
// space per line, and empty lines are removed. Newlines are preserved so
// line-anchored patterns keep working.
func NormalizeText(text string) string {
	if text == "" {
		return ""
	}

	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		if a, ok := thaiToArabic[r]; ok {
			r = a
		}
		if r == 'ๆ' || r == 0 {
			continue
		}
		b.WriteRune(r)
	}
	text = norm.NFC.String(b.String())

	lines := strings.Split(text, "\n")
	out := lines[:0]
	for _, line := range lines {
		line = strings.TrimSpace(spaceRunRe.ReplaceAllString(line, " "))
		if line != "" {
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n")
}

// CleanNumber strips commas, currency markers and stray characters from a
// money string, keeping only digits and the decimal point.
func CleanNumber(s string) string {
	if s == "" {
		return ""
	}
	s = strings.TrimSpace(s)
	for _, junk := range []string{",", " ", "฿", "THB", "Baht"} {
		s = strings.ReplaceAll(s, junk, "")
	}
	return nonNumRe.ReplaceAllString(s, "")
}

// ParseMoney parses a money string into a canonical two-decimal form.
// Returns "" when the input does not contain a parseable amount.
func ParseMoney(s string) string {
	cleaned := CleanNumber(s)
	if cleaned == "" {
		return ""
	}
	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return ""
	}
	return fmt.Sprintf("%.2f", v)
}

// MoneyValue parses a money string into a float. The second return reports
// whether the string held a valid amount.
func MoneyValue(s string) (float64, bool) {
	cleaned := CleanNumber(s)
	if cleaned == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// FormatMoney renders a float as a two-decimal amount string.
func FormatMoney(v float64) string {
	return fmt.Sprintf("%.2f", v)
}

// DigitsOnly removes every non-digit rune, converting Thai digits on the way.
func DigitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if a, ok := thaiToArabic[r]; ok {
			r = a
		}
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// SquashWhitespace removes ALL whitespace, including newlines. Used to glue
// document references that PDF text layers split across lines.
func SquashWhitespace(s string) string {
	return wsRe.ReplaceAllString(s, "")
}

var thaiMonths = map[string]int{
	"ม.ค.": 1, "มกราคม": 1,
	"ก.พ.": 2, "กุมภาพันธ์": 2,
	"มี.ค.": 3, "มีนาคม": 3,
	"เม.ย.": 4, "เมษายน": 4,
	"พ.ค.": 5, "พฤษภาคม": 5,
	"มิ.ย.": 6, "มิถุนายน": 6,
	"ก.ค.": 7, "กรกฎาคม": 7,
	"ส.ค.": 8, "สิงหาคม": 8,
	"ก.ย.": 9, "กันยายน": 9,
	"ต.ค.": 10, "ตุลาคม": 10,
	"พ.ย.": 11, "พฤศจิกายน": 11,
	"ธ.ค.": 12, "ธันวาคม": 12,
}

var englishMonths = map[string]int{
	"jan": 1, "feb": 2, "mar": 3, "apr": 4, "may": 5, "jun": 6,
	"jul": 7, "aug": 8, "sep": 9, "oct": 10, "nov": 11, "dec": 12,
}

var (
	dayFirstDateRe = regexp.MustCompile(`\b(\d{1,2})[/\-.](\d{1,2})[/\-.](\d{4})\b`)
	isoDateRe      = regexp.MustCompile(`\b(\d{4})-(\d{1,2})-(\d{1,2})\b`)
	monthNameRe    = regexp.MustCompile(`\b(\d{1,2})\s+([A-Za-z]{3,9})\.?,?\s+(\d{4})\b`)
	thaiDateRe     = regexp.MustCompile(`(\d{1,2})\s*([\x{0E00}-\x{0E7F}.]+)\s*(\d{4})`)
	compactDateRe  = regexp.MustCompile(`\b(\d{8})\b`)
)

// toCommonEra converts a Buddhist-era year (anything past 2500) to the
// common era by subtracting 543.
func toCommonEra(year int) int {
	if year > 2500 {
		return year - 543
	}
	return year
}

func validYMD(y, m, d int) bool {
	if y < 1990 || y > 2100 || m < 1 || m > 12 || d < 1 || d > 31 {
		return false
	}
	t := time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
	return t.Year() == y && int(t.Month()) == m && t.Day() == d
}

func formatYMD(y, m, d int) string {
	return fmt.Sprintf("%04d%02d%02d", y, m, d)
}

// ParseDateYYYYMMDD parses a single date expression into YYYYMMDD.
// Accepts day-first numeric dates (25/01/2568, Buddhist era handled),
// ISO dates, English and Thai month-name dates, and already-compact
// 8-digit values. Returns "" when nothing parses.
func ParseDateYYYYMMDD(s string) string {
	s = strings.TrimSpace(NormalizeText(s))
	if s == "" {
		return ""
	}

	if m := isoDateRe.FindStringSubmatch(s); m != nil {
		y, _ := strconv.Atoi(m[1])
		mo, _ := strconv.Atoi(m[2])
		d, _ := strconv.Atoi(m[3])
		y = toCommonEra(y)
		if validYMD(y, mo, d) {
			return formatYMD(y, mo, d)
		}
	}
	if m := dayFirstDateRe.FindStringSubmatch(s); m != nil {
		d, _ := strconv.Atoi(m[1])
		mo, _ := strconv.Atoi(m[2])
		y, _ := strconv.Atoi(m[3])
		y = toCommonEra(y)
		if validYMD(y, mo, d) {
			return formatYMD(y, mo, d)
		}
	}
	if m := monthNameRe.FindStringSubmatch(s); m != nil {
		d, _ := strconv.Atoi(m[1])
		mo, ok := englishMonths[strings.ToLower(m[2][:3])]
		y, _ := strconv.Atoi(m[3])
		y = toCommonEra(y)
		if ok && validYMD(y, mo, d) {
			return formatYMD(y, mo, d)
		}
	}
	if m := thaiDateRe.FindStringSubmatch(s); m != nil {
		d, _ := strconv.Atoi(m[1])
		y, _ := strconv.Atoi(m[3])
		y = toCommonEra(y)
		if mo, ok := thaiMonths[strings.TrimSpace(m[2])]; ok && validYMD(y, mo, d) {
			return formatYMD(y, mo, d)
		}
	}
	if m := compactDateRe.FindStringSubmatch(s); m != nil {
		y, _ := strconv.Atoi(m[1][:4])
		mo, _ := strconv.Atoi(m[1][4:6])
		d, _ := strconv.Atoi(m[1][6:8])
		y = toCommonEra(y)
		if validYMD(y, mo, d) {
			return formatYMD(y, mo, d)
		}
	}
	return ""
}

// FindBestDate scans free text for the first parseable date and returns it
// as YYYYMMDD, or "" when the text holds none.
func FindBestDate(text string) string {
	if text == "" {
		return ""
	}
	for _, re := range []*regexp.Regexp{isoDateRe, dayFirstDateRe, monthNameRe, thaiDateRe} {
		for _, m := range re.FindAllString(text, 10) {
			if got := ParseDateYYYYMMDD(m); got != "" {
				return got
			}
		}
	}
	return ""
}

// ExtractThaiText keeps only Thai-script runs (and whitespace) from mixed text.
func ExtractThaiText(text string) string {
	if text == "" {
		return ""
	}
	runs := thaiRunRe.FindAllString(text, -1)
	return strings.TrimSpace(strings.Join(runs, " "))
}

// IsThaiText reports whether at least threshold of the non-space runes are
// Thai script. Texts shorter than three runes never qualify.
func IsThaiText(text string, threshold float64) bool {
	text = strings.TrimSpace(text)
	if len([]rune(text)) < 3 {
		return false
	}
	thai := len(thaiRuneRe.FindAllString(text, -1))
	total := 0
	for _, r := range text {
		if !unicode.IsSpace(r) {
			total++
		}
	}
	if total == 0 {
		return false
	}
	return float64(thai)/float64(total) >= threshold
}

// FindAllDigitRuns returns every maximal digit run in s.
func FindAllDigitRuns(s string) []string {
	return digitsRe.FindAllString(s, -1)
}
