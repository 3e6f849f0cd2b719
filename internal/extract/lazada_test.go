package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/peaklab/peak-importer/internal/directory"
)

const lazadaInvoiceText = `Tax Invoice
Lazada E-Services (Thailand) Co., Ltd.
Invoice No.: THMPTI1234567890123456
Invoice Date: 2025-11-30
1 Payment Fee 535.00
2 Commission 465.00
Total 1,000.00
7% (VAT) 70.00
Total (Including Tax) 1,070.00`

func TestExtractLazadaInvoice(t *testing.T) {
	row := ExtractLazada(lazadaInvoiceText, directory.ClientRabbit, "lazada_invoice.pdf")

	assert.Equal(t, "THMPTI1234567890123456", row.Reference)
	assert.Equal(t, row.Reference, row.InvoiceNo)
	assert.Equal(t, "20251130", row.DocDate)
	assert.Equal(t, "1070.00", row.UnitPrice)
	assert.Equal(t, "1070.00", row.PaidAmount)
	assert.Equal(t, "C00411", row.VendorCode)
	assert.Equal(t, "7%", row.VATRate)
	assert.Empty(t, row.WHT)
	assert.Empty(t, row.PND)
	assert.Empty(t, row.Note)
}

func TestExtractLazadaDerivesTotalFromSubtotalAndVAT(t *testing.T) {
	text := `Lazada E-Services (Thailand) Co., Ltd.
Invoice No.: THMPTI1234567890123456
Total 2,500.00
7% (VAT) 175.00`

	row := ExtractLazada(text, directory.ClientSHD, "")

	assert.Equal(t, "2675.00", row.PaidAmount)
	assert.Equal(t, "C01132", row.VendorCode)
}

func TestExtractLazadaWHTNeverPollutesTotals(t *testing.T) {
	text := `Lazada E-Services (Thailand) Co., Ltd.
Invoice No.: THMPTI1234567890123456
ผู้จ่ายได้หักภาษีณ ที่จ่าย อัตราร้อยละ 3 % เป็นจำนวน 3,219.71 บาท`

	row := ExtractLazada(text, directory.ClientRabbit, "")

	assert.Equal(t, "0", row.UnitPrice)
	assert.Equal(t, "0", row.PaidAmount)
}

func TestLazadaReferenceSquashedAcrossLines(t *testing.T) {
	text := `Lazada E-Services
Total (Including Tax) 1,070.00
Invoice No.: THMPTI12345678
90123456`

	row := ExtractLazada(text, "", "")
	assert.Equal(t, "THMPTI1234567890123456", row.Reference)
}
