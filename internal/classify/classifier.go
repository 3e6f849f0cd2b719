// Package classify decides which marketplace platform a document came from,
// scoring its text and filename against per-platform signal sets.
package classify

import (
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/peaklab/peak-importer/internal/peak"
	"github.com/peaklab/peak-importer/internal/textutil"
)

// Strong document-number patterns. Whitespace tolerance matters because OCR
// splits these across lines.
var (
	reSPXRCSPX     = regexp.MustCompile(`(?i)\bRCS\s*PX\s*[A-Z0-9\-/]{6,}\b`)
	reLazadaTHMPTI = regexp.MustCompile(`(?i)\bTHMPTI\s*\d{10,20}\b`)
	reTikTokTTSTH  = regexp.MustCompile(`(?i)\bTTSTH[0-9A-Z\-/]*\b`)
	reTikTokWord   = regexp.MustCompile(`(?i)\btiktok\b`)
	reShopeeTIV    = regexp.MustCompile(`(?i)\bTIV\s*-\s*[A-Z0-9]{3,}\b`)
	reShopeeTIR    = regexp.MustCompile(`(?i)\bTIR\s*-\s*[A-Z0-9]{3,}\b`)
	// TRS collides with too many other tokens; only counted with Shopee context.
	reShopeeTRS = regexp.MustCompile(`(?i)\bTRS\b`)
)

var shopeeSigs = []string{
	"shopee", "shopee-ti", "shopee-tiv", "shopee-tir", "tiv-", "tir-",
	"ช้อปปี้", "shopee (thailand)", "shopee thailand",
}

var lazadaSigs = []string{
	"lazada", "lazada invoice", "lzd", "laz", "ลาซาด้า",
}

var tiktokSigs = []string{
	"tiktok", "tiktok shop", "tt shop", "tiktok commerce", "ติ๊กต็อก",
}

var spxSigs = []string{
	"spx", "spx express", "standard express", "rcs", "rcspx", "spx (thailand)",
	"spx express (thailand)",
}

// Ads needs strong billing language; weak signals alone never qualify.
var adsSigsStrong = []string{
	"ad invoice", "ads invoice", "tax invoice for ads", "billing",
	"statement", "charged", "payment for ads", "ads account", "ad account",
	"invoice for advertising", "advertising invoice",
	"facebook ads", "meta ads", "google ads", "tiktok ads", "line ads",
	"โฆษณา", "ค่าโฆษณา", "ยิงแอด", "บิลโฆษณา", "ใบแจ้งหนี้โฆษณา",
}

var adsSigsWeak = []string{
	"ads", "advertising", "campaign", "impression", "click", "cpc", "cpm",
}

// Shipping context suppresses the ads label so courier invoices do not get
// booked as ad spend.
var negativeForAds = []string{
	"address", "shipment", "shipping", "tracking", "waybill", "parcel",
	"ผู้รับ", "ที่อยู่", "ขนส่ง", "พัสดุ", "จัดส่ง", "เลขพัสดุ", "tracking no",
}

var invoiceSigs = []string{
	"ใบกำกับภาษี", "tax invoice", "receipt", "ใบเสร็จ", "invoice", "tax receipt",
}

// Scores holds the per-label weighted score for one document.
type Scores struct {
	Shopee int
	Lazada int
	TikTok int
	SPX    int
	Ads    int
}

// Classifier scores documents against the platform signal sets. Stateless
// apart from the logger; safe for concurrent use.
type Classifier struct {
	logger *zap.Logger
}

func NewClassifier(logger *zap.Logger) *Classifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Classifier{logger: logger}
}

const (
	normHeadWindow = 100_000
	normTailWindow = 40_000
	normMaxLen     = 160_000
)

// norm lowercases and normalizes input, windowing very large texts to a
// head+tail slice so scoring time stays bounded.
func norm(s string) string {
	t := strings.ToLower(textutil.NormalizeText(s))
	if len(t) > normMaxLen {
		t = t[:normHeadWindow] + "\n...\n" + t[len(t)-normTailWindow:]
	}
	return t
}

func countContains(t string, needles []string) int {
	hits := 0
	for _, n := range needles {
		if n != "" && strings.Contains(t, n) {
			hits++
		}
	}
	return hits
}

func containsAny(t string, needles []string) bool {
	for _, n := range needles {
		if n != "" && strings.Contains(t, n) {
			return true
		}
	}
	return false
}

func score(t, fn string) Scores {
	var s Scores

	// Strong IDs.
	if reLazadaTHMPTI.MatchString(t) || reLazadaTHMPTI.MatchString(fn) {
		s.Lazada += 100
	}
	if reTikTokTTSTH.MatchString(t) || reTikTokTTSTH.MatchString(fn) {
		s.TikTok += 100
	}
	if reSPXRCSPX.MatchString(t) || reSPXRCSPX.MatchString(fn) ||
		strings.Contains(t, "rcspx") || strings.Contains(fn, "rcspx") {
		s.SPX += 120
	}
	if reShopeeTIV.MatchString(t) || reShopeeTIV.MatchString(fn) {
		s.Shopee += 90
	}
	if reShopeeTIR.MatchString(t) || reShopeeTIR.MatchString(fn) {
		s.Shopee += 90
	}
	if strings.Contains(t, "shopee-ti") || strings.Contains(fn, "shopee-ti") {
		s.Shopee += 80
	}

	// Soft keywords: filename hits weigh more since OCR text may be empty.
	s.Shopee += 8*countContains(t, shopeeSigs) + 12*countContains(fn, shopeeSigs)
	s.Lazada += 8*countContains(t, lazadaSigs) + 12*countContains(fn, lazadaSigs)
	s.TikTok += 8*countContains(t, tiktokSigs) + 12*countContains(fn, tiktokSigs)
	s.SPX += 8*countContains(t, spxSigs) + 12*countContains(fn, spxSigs)

	// TRS only counts alongside Shopee context.
	if reShopeeTRS.MatchString(t) || strings.Contains(t, "trs") {
		shopeeCtx := strings.Contains(t, "shopee") || strings.Contains(t, "tiv") || strings.Contains(t, "tir") ||
			strings.Contains(fn, "shopee") || strings.Contains(fn, "tiv") || strings.Contains(fn, "tir")
		if shopeeCtx {
			s.Shopee += 15
		}
	}

	// Ads tier.
	strongAds := countContains(t, adsSigsStrong) + countContains(fn, adsSigsStrong)
	weakAds := countContains(t, adsSigsWeak) + countContains(fn, adsSigsWeak)
	shippingCtx := containsAny(t, negativeForAds) || containsAny(fn, negativeForAds)

	if !shippingCtx {
		switch {
		case strongAds >= 2:
			s.Ads += 70
		case strongAds >= 1 && weakAds >= 2:
			s.Ads += 60
		case strongAds >= 1:
			s.Ads += 45
		}
	}

	return s
}

func (s Scores) best() (peak.Platform, int) {
	label, v := peak.PlatformShopee, s.Shopee
	if s.Lazada > v {
		label, v = peak.PlatformLazada, s.Lazada
	}
	if s.TikTok > v {
		label, v = peak.PlatformTikTok, s.TikTok
	}
	if s.SPX > v {
		label, v = peak.PlatformSPX, s.SPX
	}
	if s.Ads > v {
		label, v = peak.PlatformAds, s.Ads
	}
	return label, v
}

func max4(a, b, c, d int) int {
	m := a
	if b > m {
		m = b
	}
	if c > m {
		m = c
	}
	if d > m {
		m = d
	}
	return m
}

// Classify returns the platform label for a document. Total function: empty
// input yields PlatformUnknown, never an error.
func (c *Classifier) Classify(text, filename string) peak.Platform {
	t := norm(text)
	fn := norm(filename)

	if t == "" && fn == "" {
		return peak.PlatformUnknown
	}

	// Decisive strong-ID fast paths.
	if reSPXRCSPX.MatchString(t) || reSPXRCSPX.MatchString(fn) ||
		strings.Contains(t, "rcspx") || strings.Contains(fn, "rcspx") {
		return peak.PlatformSPX
	}
	if reLazadaTHMPTI.MatchString(t) || reLazadaTHMPTI.MatchString(fn) {
		return peak.PlatformLazada
	}
	if reTikTokTTSTH.MatchString(t) || reTikTokTTSTH.MatchString(fn) ||
		reTikTokWord.MatchString(t) || reTikTokWord.MatchString(fn) {
		return peak.PlatformTikTok
	}

	s := score(t, fn)
	c.logger.Debug("platform scores",
		zap.String("filename", filename),
		zap.Int("shopee", s.Shopee),
		zap.Int("lazada", s.Lazada),
		zap.Int("tiktok", s.TikTok),
		zap.Int("spx", s.SPX),
		zap.Int("ads", s.Ads))

	switch {
	case s.SPX >= 40:
		return peak.PlatformSPX
	case s.Lazada >= 40:
		return peak.PlatformLazada
	case s.TikTok >= 30:
		return peak.PlatformTikTok
	case s.Shopee >= 30:
		return peak.PlatformShopee
	}

	// Ads must clearly beat every platform score.
	if s.Ads >= 60 && s.Ads > max4(s.SPX, s.Lazada, s.TikTok, s.Shopee) {
		return peak.PlatformAds
	}

	if label, best := s.best(); best >= 25 {
		return label
	}

	if containsAny(t, invoiceSigs) || containsAny(fn, invoiceSigs) {
		return peak.PlatformOther
	}
	return peak.PlatformUnknown
}

// ClassifyWithScores exposes the raw score breakdown alongside the label,
// for the debug endpoint and tests.
func (c *Classifier) ClassifyWithScores(text, filename string) (peak.Platform, Scores) {
	return c.Classify(text, filename), score(norm(text), norm(filename))
}
