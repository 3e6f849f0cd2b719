package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/peaklab/peak-importer/internal/directory"
	"github.com/peaklab/peak-importer/internal/peak"
)

func TestEngineEmptyTextStillYieldsOneRow(t *testing.T) {
	e := NewEngine(nil)

	platform, row := e.FromText("   \n\t", directory.ClientRabbit, "scan.pdf")

	assert.Equal(t, peak.PlatformUnknown, platform)
	assert.NotNil(t, row)
	assert.Equal(t, peak.StatusNeedsReview, row.Status)
	assert.Contains(t, row.Errors, ErrNoText)
	assert.Equal(t, "scan.pdf", row.SourceFile)
}

func TestEngineRoutesByPlatform(t *testing.T) {
	e := NewEngine(nil)

	tests := []struct {
		name string
		text string
		want peak.Platform
	}{
		{"spx receipt", spxReceiptText, peak.PlatformSPX},
		{"shopee invoice", shopeeInvoiceText, peak.PlatformShopee},
		{"lazada invoice", lazadaInvoiceText, peak.PlatformLazada},
		{"tiktok invoice", tiktokInvoiceText, peak.PlatformTikTok},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			platform, row := e.FromText(tt.text, directory.ClientRabbit, "")
			assert.Equal(t, tt.want, platform)
			assert.Equal(t, tt.want, row.Platform)
			assert.NotEmpty(t, row.Reference)
		})
	}
}

func TestEngineGenericInvoiceGoesToOther(t *testing.T) {
	e := NewEngine(nil)

	platform, row := e.FromText(thaiReceiptText, "", "receipt.pdf")

	assert.Equal(t, peak.PlatformOther, platform)
	assert.Equal(t, "1841.00", row.PaidAmount)
}

func TestEngineUnclassifiableTextFlagsReview(t *testing.T) {
	e := NewEngine(nil)

	platform, row := e.FromText("random unrelated text with nothing useful", "", "x.pdf")

	assert.Equal(t, peak.PlatformUnknown, platform)
	assert.Equal(t, peak.StatusNeedsReview, row.Status)
	assert.NotEmpty(t, row.Errors)
}
