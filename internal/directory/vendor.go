// Package directory holds the static client/vendor/wallet lookup tables and
// the code-resolution rules built on them. All tables are fixed at compile
// time and safe for concurrent reads.
package directory

import (
	"regexp"
	"strings"

	"github.com/peaklab/peak-importer/internal/textutil"
)

// Client company tax ids.
const (
	ClientRabbit = "0105561071873"
	ClientSHD    = "0105563022918"
	ClientTopOne = "0105565027615"
)

// Canonical vendor tax ids.
const (
	VendorShopee           = "0105558019581" // Shopee (Thailand) Co., Ltd.
	VendorLazada           = "010556214176"  // Lazada E-Services (Thailand) Co., Ltd.
	VendorTikTok           = "0105555040244" // TikTok
	VendorMarketplaceOther = "0105548000241"
	VendorShopify          = "0993000475879" // Shopify Commerce Singapore
	VendorSPX              = "0105561164871" // SPX Express (Thailand)
)

// vendorCodeByClient maps client tax id -> vendor tax id -> accounting
// counterparty code. This table is the source of truth for D_vendor_code.
var vendorCodeByClient = map[string]map[string]string{
	ClientRabbit: {
		VendorShopee:           "C00395",
		VendorLazada:           "C00411",
		VendorTikTok:           "C00562",
		VendorMarketplaceOther: "C01031",
		VendorShopify:          "C01143",
		VendorSPX:              "C00563",
	},
	ClientSHD: {
		VendorShopee:           "C00888",
		VendorLazada:           "C01132",
		VendorTikTok:           "C01246",
		VendorMarketplaceOther: "C01420",
		VendorShopify:          "C33491",
		VendorSPX:              "C01133",
	},
	ClientTopOne: {
		VendorShopee:           "C00020",
		VendorLazada:           "C00025",
		VendorTikTok:           "C00051",
		VendorMarketplaceOther: "C00095",
		VendorSPX:              "C00038",
	},
}

// vendorNameToTax resolves vendor names/platform strings to tax ids when the
// caller could not find a 13-digit id in the document.
var vendorNameToTax = map[string]string{
	"shopee":            VendorShopee,
	"ช้อปปี้":           VendorShopee,
	"shopee (thailand)": VendorShopee,
	"shopee thailand":   VendorShopee,
	"shopee.co.th":      VendorShopee,

	"lazada":            VendorLazada,
	"ลาซาด้า":           VendorLazada,
	"lazada e-services": VendorLazada,
	"lazada e services": VendorLazada,
	"lazada.co.th":      VendorLazada,

	"tiktok":      VendorTikTok,
	"ติ๊กต๊อก":    VendorTikTok,
	"tiktok shop": VendorTikTok,

	"spx":         VendorSPX,
	"spx express": VendorSPX,

	"shopify":          VendorShopify,
	"shopify commerce": VendorShopify,

	"marketplace":        VendorMarketplaceOther,
	"ตัวกลาง":            VendorMarketplaceOther,
	"มาร์เก็ตเพลส":       VendorMarketplaceOther,
	"better marketplace": VendorMarketplaceOther,
	"เบ็ตเตอร์":          VendorMarketplaceOther,
}

var (
	tax13Re      = regexp.MustCompile(`\b\d{13}\b`)
	vendorCodeRe = regexp.MustCompile(`(?i)^C\d{5}$`)
	wsRunRe      = regexp.MustCompile(`\s+`)
)

// UnknownVendorCode is the sentinel when the client/vendor pairing cannot be
// resolved. A bare platform name must never be substituted for it.
const UnknownVendorCode = "Unknown"

func normName(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return ""
	}
	s = textutil.NormalizeText(s)
	return strings.TrimSpace(wsRunRe.ReplaceAllString(s, " "))
}

// NormTaxID extracts the 13-digit tax id embedded in s, converting Thai
// digits first. Returns "" when no 13-digit run exists, signalling the
// caller to treat the input as a name.
func NormTaxID(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	return tax13Re.FindString(textutil.NormalizeText(s))
}

// IsKnownClient reports whether the tax id identifies one of our companies.
func IsKnownClient(clientTaxID string) bool {
	switch NormTaxID(clientTaxID) {
	case ClientRabbit, ClientSHD, ClientTopOne:
		return true
	}
	return false
}

// VendorTaxIDFromName best-effort resolves a vendor/platform name to its
// canonical tax id, or "" when no alias matches.
func VendorTaxIDFromName(vendorName string) string {
	vn := normName(vendorName)
	if vn == "" {
		return ""
	}
	for key, tax := range vendorNameToTax {
		if strings.Contains(vn, key) {
			return tax
		}
	}
	return ""
}

// VendorCode resolves the accounting counterparty code for a client/vendor
// pairing. vendorTaxID may be a 13-digit id or a name; names fall back to
// the alias table. Unknown client or unmapped vendor returns
// UnknownVendorCode, never a platform name.
func VendorCode(clientTaxID, vendorTaxID, vendorName string) string {
	c := NormTaxID(clientTaxID)
	if c == "" || !IsKnownClient(c) {
		return UnknownVendorCode
	}

	if v := NormTaxID(vendorTaxID); v != "" {
		if code := vendorCodeByClient[c][v]; vendorCodeRe.MatchString(code) {
			return code
		}
	}

	nameHint := vendorName
	if nameHint == "" {
		nameHint = vendorTaxID
	}
	if v := VendorTaxIDFromName(nameHint); v != "" {
		if code := vendorCodeByClient[c][v]; vendorCodeRe.MatchString(code) {
			return code
		}
	}

	return UnknownVendorCode
}

// VendorCodesForClient returns a copy of the client's vendor-code table.
func VendorCodesForClient(clientTaxID string) map[string]string {
	out := make(map[string]string)
	for k, v := range vendorCodeByClient[NormTaxID(clientTaxID)] {
		out[k] = v
	}
	return out
}

// DetectClient scans text for one of our companies, strongest signal first
// (tax id presence, then name keyword). Returns "" when nothing matches.
func DetectClient(text string) string {
	t := normName(text)
	if t == "" {
		return ""
	}

	for _, id := range []string{ClientRabbit, ClientSHD, ClientTopOne} {
		if strings.Contains(t, id) {
			return id
		}
	}

	switch {
	case strings.Contains(t, "rabbit"):
		return ClientRabbit
	case strings.Contains(t, "shd"):
		return ClientSHD
	case strings.Contains(t, "topone") || strings.Contains(t, "top one"):
		return ClientTopOne
	}
	return ""
}

// ClientName maps a client tax id to its short company tag.
func ClientName(clientTaxID string) string {
	switch NormTaxID(clientTaxID) {
	case ClientRabbit:
		return "RABBIT"
	case ClientSHD:
		return "SHD"
	case ClientTopOne:
		return "TOPONE"
	}
	return "UNKNOWN"
}

// ClientTaxIDByName maps a short company tag back to its tax id.
func ClientTaxIDByName(name string) string {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "RABBIT":
		return ClientRabbit
	case "SHD":
		return ClientSHD
	case "TOPONE":
		return ClientTopOne
	}
	return ""
}

// ExpenseCategory picks the accounting group label from the description and
// platform hints.
func ExpenseCategory(description, platform string) string {
	desc := normName(description)
	plat := normName(platform)

	if containsAnyOf(desc, "shipping", "delivery", "ขนส่ง", "จัดส่ง", "spx") || plat == "spx" || plat == "spx express" {
		return "Shipping Expense"
	}
	if containsAnyOf(desc, "commission", "คอมมิชชั่น", "ค่าคอม") {
		return "Selling Expense"
	}
	if containsAnyOf(desc, "advertising", "โฆษณา", "ads", "sponsored") {
		return "Advertising Expense"
	}
	if containsAnyOf(desc, "goods", "สินค้า", "inventory", "cogs", "cost of goods") {
		return "Inventory / COGS"
	}
	return "Marketplace Expense"
}

func containsAnyOf(s string, needles ...string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}
