package directory

import (
	"regexp"
	"strings"

	"github.com/peaklab/peak-importer/internal/textutil"
)

// Wallet codes fill Q_payment_method. Primary key is the seller id; shop
// name keywords are the fallback when no seller id can be found. An
// unresolvable wallet returns "" so the worker can route the file to review.

var rabbitWalletBySellerID = map[string]string{
	"0000000001":         "EWL001", // Shopee-70mai
	"0000000002":         "EWL002", // Shopee-ddpai
	"0000000003":         "EWL003", // Shopee-jimmy
	"0000000004":         "EWL004", // Shopee-mibro
	"0000000006":         "EWL006", // Shopee-toptoy
	"0000000007":         "EWL007", // Shopee-uwant
	"0000000008":         "EWL008", // Shopee-wanbo
	"0000000009":         "EWL009", // Shopee-zepp
	"142025022504068027": "EWL010", // Rabbit
}

var shdWalletBySellerID = map[string]string{
	"628286975":  "EWL001", // Shopee-ankerthailandstore
	"340395201":  "EWL002", // Shopee-dreamofficial
	"383844799":  "EWL003", // Shopee-levoitofficialstore
	"261472748":  "EWL004", // Shopee-soundcoreofficialstore
	"517180669":  "EWL005", // xiaomismartappliances
	"426162640":  "EWL006", // Shopee-xiaomi.thailand
	"231427130":  "EWL007", // xiaomi_home_appliances
	"1646465545": "EWL008", // Shopee-nextgadget
}

var topOneWalletBySellerID = map[string]string{
	"538498056": "EWL001", // Shopee-Vinkothailandstore
}

var rabbitWalletByShopKeyword = map[string]string{
	"shopee-70mai":  "EWL001",
	"shopee-ddpai":  "EWL002",
	"shopeejimmy":   "EWL003",
	"shopee-jimmy":  "EWL003",
	"shopee-mibro":  "EWL004",
	"shopee-toptoy": "EWL006",
	"shopee-uwant":  "EWL007",
	"shopee-wanbo":  "EWL008",
	"shopee-zepp":   "EWL009",
	"rabbit":        "EWL010",
}

var shdWalletByShopKeyword = map[string]string{
	"shopee-ankerthailandstore":     "EWL001",
	"shopee-dreamofficial":          "EWL002",
	"shopee-levoitofficialstore":    "EWL003",
	"shopee-soundcoreofficialstore": "EWL004",
	"xiaomismartappliances":         "EWL005",
	"shopee-xiaomi.thailand":        "EWL006",
	"xiaomi_home_appliances":        "EWL007",
	"shopee-nextgadget":             "EWL008",
	"nextgadget":                    "EWL008",
}

var topOneWalletByShopKeyword = map[string]string{
	"shopee-vinkothailandstore": "EWL001",
	"vinkothailandstore":        "EWL001",
}

var sellerIDPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\bseller(?:\s*id)?\s*[:#=]?\s*([0-9]{5,20})\b`),
	regexp.MustCompile(`(?i)\bshop(?:\s*id)?\s*[:#=]?\s*([0-9]{5,20})\b`),
	regexp.MustCompile(`(?i)\bmerchant(?:\s*id)?\s*[:#=]?\s*([0-9]{5,20})\b`),
}

var walletCodeRe = regexp.MustCompile(`(?i)^EWL\d{3}$`)

func walletTables(clientTaxID string) (bySellerID, byShopKeyword map[string]string) {
	switch NormTaxID(clientTaxID) {
	case ClientRabbit:
		return rabbitWalletBySellerID, rabbitWalletByShopKeyword
	case ClientSHD:
		return shdWalletBySellerID, shdWalletByShopKeyword
	case ClientTopOne:
		return topOneWalletBySellerID, topOneWalletByShopKeyword
	}
	return nil, nil
}

// ExtractSellerID pulls a labeled seller/shop/merchant id out of document
// text, or "" when none is present.
func ExtractSellerID(text string) string {
	t := normName(text)
	if t == "" {
		return ""
	}
	for _, rx := range sellerIDPatterns {
		if m := rx.FindStringSubmatch(t); m != nil {
			return textutil.DigitsOnly(m[1])
		}
	}
	return ""
}

// WalletCode resolves the EWLxxx payment-method code for a client and
// seller/shop identity. Resolution order: exact seller id, seller id
// extracted from text, shop-name keyword. Unknown returns "" and must never
// be substituted with a platform name.
func WalletCode(clientTaxID, sellerID, shopName, text string) string {
	bySellerID, byShopKeyword := walletTables(clientTaxID)
	if bySellerID == nil {
		return ""
	}

	sid := textutil.DigitsOnly(sellerID)
	if sid == "" && text != "" {
		sid = ExtractSellerID(text)
	}
	if sid != "" {
		if code := bySellerID[sid]; walletCodeRe.MatchString(code) {
			return code
		}
	}

	if shop := normName(shopName); shop != "" {
		for key, code := range byShopKeyword {
			if strings.Contains(shop, key) && walletCodeRe.MatchString(code) {
				return code
			}
		}
	}

	return ""
}
