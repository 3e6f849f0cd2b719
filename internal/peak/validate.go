package peak

import (
	"regexp"
	"time"
)

var (
	yyyymmddRe = regexp.MustCompile(`^\d{8}$`)
	branch5Re  = regexp.MustCompile(`^\d{5}$`)
	tax13Re    = regexp.MustCompile(`^\d{13}$`)
	vatRateRe  = regexp.MustCompile(`^\d{1,2}%?$`)
)

// ValidYYYYMMDD reports whether v is empty or an 8-digit real calendar date.
func ValidYYYYMMDD(v string) bool {
	if v == "" {
		return true
	}
	if !yyyymmddRe.MatchString(v) {
		return false
	}
	_, err := time.Parse("20060102", v)
	return err == nil
}

// ValidBranch5 reports whether v is empty or exactly 5 digits.
func ValidBranch5(v string) bool {
	return v == "" || branch5Re.MatchString(v)
}

// ValidTax13 reports whether v is empty or exactly 13 digits.
func ValidTax13(v string) bool {
	return v == "" || tax13Re.MatchString(v)
}

// ValidPriceType reports whether v is one of "1", "2", "3" or empty.
func ValidPriceType(v string) bool {
	return v == "" || v == "1" || v == "2" || v == "3"
}

// ValidVATRate reports whether v is empty, "NO", or an N% rate string.
func ValidVATRate(v string) bool {
	if v == "" || v == "NO" || v == "no" || v == "No" {
		return true
	}
	return vatRateRe.MatchString(v)
}

// Validate checks the row's structural invariants and returns human-readable
// reasons (Thai, matching the review UI language) for every violation. An
// empty result means the row passes. Missing values are not violations;
// only malformed ones are.
func Validate(r *Row) []string {
	var errs []string

	if !ValidYYYYMMDD(r.DocDate) {
		errs = append(errs, "วันที่เอกสารรูปแบบไม่ถูกต้อง")
	}
	if r.InvoiceDate != "" && !ValidYYYYMMDD(r.InvoiceDate) {
		errs = append(errs, "วันที่ใบกำกับฯรูปแบบไม่ถูกต้อง")
	}
	if r.TaxPurchaseDate != "" && !ValidYYYYMMDD(r.TaxPurchaseDate) {
		errs = append(errs, "วันที่ภาษีซื้อรูปแบบไม่ถูกต้อง")
	}
	if r.Branch5 != "" && !ValidBranch5(r.Branch5) {
		errs = append(errs, "เลขสาขาไม่ใช่ 5 หลัก")
	}
	if r.TaxID13 != "" && !ValidTax13(r.TaxID13) {
		errs = append(errs, "เลขภาษีไม่ใช่ 13 หลัก")
	}
	if r.PriceType != "" && !ValidPriceType(r.PriceType) {
		errs = append(errs, "ประเภทราคาไม่ถูกต้อง")
	}
	if r.VATRate != "" && !ValidVATRate(r.VATRate) {
		errs = append(errs, "อัตราภาษีไม่ถูกต้อง")
	}

	return errs
}
