package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/peaklab/peak-importer/internal/peak"
)

const thaiReceiptText = `ใบเสร็จรับเงิน / ใบกำกับภาษี
บริษัท เจริญการค้าไทย จำกัด (มหาชน)
เลขประจำตัวผู้เสียภาษี : 0107567000414
สาขาที่ 00001
เลขที่ : 0518520251217000011
ใบเสร็จวันที่ 17/12/2568
ค่าสินค้าอุปโภค
ภาษีมูลค่าเพิ่ม 120.44
รวมทั้งสิ้น 1,841.00`

func TestExtractThaiInvoice(t *testing.T) {
	row := ExtractThaiInvoice(thaiReceiptText, "", "receipt.pdf")

	assert.Equal(t, "0518520251217000011", row.Reference)
	assert.Equal(t, row.Reference, row.InvoiceNo)
	assert.Equal(t, "20251217", row.DocDate)
	assert.Equal(t, "0107567000414", row.TaxID13)
	assert.Equal(t, "00001", row.Branch5)
	assert.Equal(t, "1841.00", row.UnitPrice)
	assert.Equal(t, "1841.00", row.PaidAmount)
	assert.Equal(t, "7%", row.VATRate)
	assert.Equal(t, "Thai Tax Invoice", row.Description)
	assert.Equal(t, peak.PlatformOther, row.Platform)
	assert.Contains(t, row.VendorCode, "บริษัท เจริญการค้าไทย")
}

func TestExtractThaiInvoiceZeroVAT(t *testing.T) {
	text := `ใบเสร็จรับเงิน
เลขที่ : 123456789
ภาษีมูลค่าเพิ่ม 0.00
รวมทั้งสิ้น 500.00`

	row := ExtractThaiInvoice(text, "", "")

	assert.Equal(t, "NO", row.VATRate)
	assert.Equal(t, "500.00", row.PaidAmount)
}

func TestExtractThaiInvoiceIgnoresWHTForTotals(t *testing.T) {
	text := `ใบเสร็จรับเงิน
เลขที่ : 987654321
หักภาษีเงินได้ ณ ที่จ่าย อัตราร้อยละ 3 % เป็นจำนวนเงิน 45.00 บาท`

	row := ExtractThaiInvoice(text, "", "")

	assert.Empty(t, row.UnitPrice)
	assert.Empty(t, row.PaidAmount)
}
