package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/peaklab/peak-importer/internal/directory"
)

const spxReceiptText = `ใบเสร็จรับเงิน / ใบกำกับภาษี
SPX Express (Thailand) Co., Ltd.
เลขประจำตัวผู้เสียภาษี 0105561164871 สำนักงานใหญ่
เลขที่ RCSPXSPB00-00000-25
1218-0001593
วันที่ 18/12/2025
ค่าบริการขนส่งสินค้า ประจำรอบการชำระเงิน
This receipt covers domestic parcel delivery service fees for the settlement
cycle shown above and is issued electronically by the carrier for the seller
account referenced in the shipping statement of the same period.
Total (Including Tax) 10,000.00
The service fee above is settled by deduction from seller sale proceeds in the
next payout cycle according to the standard logistics service agreement terms.
Please retain this document for your accounting records and annual tax filing.
ทั้งนี้ บริษัทได้หักภาษีเงินได้ ณ ที่จ่าย ในอัตราร้อยละ 3 % เป็นจำนวนเงิน 280.37 บาท`

func TestExtractSPXReceipt(t *testing.T) {
	row := ExtractSPX(spxReceiptText, directory.ClientTopOne, "spx_receipt.pdf")

	assert.Equal(t, "RCSPXSPB00-00000-251218-0001593", row.Reference)
	assert.Equal(t, row.Reference, row.InvoiceNo)
	assert.Equal(t, "10000.00", row.UnitPrice)
	assert.Equal(t, "10000.00", row.PaidAmount)
	assert.Equal(t, "3%", row.WHT)
	assert.Equal(t, "53", row.PND)
	assert.Equal(t, "20251218", row.DocDate)
	assert.Equal(t, "C00038", row.VendorCode)
	assert.NotEqual(t, "SPX", row.VendorCode)
	assert.Equal(t, directory.VendorSPX, row.TaxID13)
	assert.Equal(t, "00000", row.Branch5)
	assert.Equal(t, "7%", row.VATRate)
	assert.Equal(t, "หักจากยอดขาย", row.PaymentMethod)
	assert.Equal(t, "Marketplace Expense", row.Description)
	assert.Equal(t, "Marketplace Expense", row.Group)
	assert.Empty(t, row.Note)
}

func TestExtractSPXWithoutWHTClause(t *testing.T) {
	text := `ใบเสร็จรับเงิน
SPX Express (Thailand) Co., Ltd.
เลขที่ RCSPXSPB00-00000-25 1218-0001593
รวมทั้งสิ้น 5,350.00`

	row := ExtractSPX(text, directory.ClientRabbit, "")

	assert.Equal(t, "5350.00", row.PaidAmount)
	assert.Equal(t, "0", row.WHT)
	assert.Empty(t, row.PND)
	assert.Equal(t, "C00563", row.VendorCode)
}

func TestExtractSPXWHTAmountNeverBecomesTotal(t *testing.T) {
	text := `SPX Express (Thailand) Co., Ltd.
เลขที่ RCSPXSPB00-00000-25
บริษัทได้หักภาษีเงินได้ ณ ที่จ่าย ในอัตราร้อยละ 3 % เป็นจำนวนเงิน 300.00 บาท`

	row := ExtractSPX(text, directory.ClientSHD, "")

	assert.Equal(t, "0", row.UnitPrice)
	assert.Equal(t, "0", row.PaidAmount)
	assert.Equal(t, "3%", row.WHT)
	assert.Equal(t, "53", row.PND)
}

func TestSPXReferenceFromFilename(t *testing.T) {
	row := ExtractSPX("SPX Express ค่าขนส่ง 100.00", "", "RCSPXSPB00-00000-25 1218-0001593.pdf")
	assert.Equal(t, "RCSPXSPB00-00000-251218-0001593", row.Reference)
}

func TestSPXUnknownClientKeepsUnresolvedSentinel(t *testing.T) {
	row := ExtractSPX("SPX Express เลขที่ RCSPXSPB00-00000-25", "", "")
	assert.Equal(t, directory.UnknownVendorCode, row.VendorCode)
	assert.NotEqual(t, "SPX", row.VendorCode)
}
