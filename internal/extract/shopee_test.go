package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/peaklab/peak-importer/internal/directory"
)

const shopeeInvoiceText = `Tax Invoice / Receipt
Shopee (Thailand) Co., Ltd.
Tax ID 0105558019581 Head Office
Invoice No. TIV-TH01-12345-202512-0012345
Invoice Date 2025-12-31
Seller ID: 628286975
Commission Fee
Transaction Fee
Total Value of Services (Excluded VAT) 290,556.08
VAT 7% 20,338.92
Total Value of Services (Included VAT) 310,895.00`

func TestExtractShopeeInvoice(t *testing.T) {
	row := ExtractShopee(shopeeInvoiceText, directory.ClientSHD, "shopee_invoice.pdf")

	assert.Equal(t, "290556.08", row.UnitPrice)
	assert.Equal(t, "310895.00", row.PaidAmount)
	assert.Equal(t, "TIV-TH01-12345-202512-0012345", row.Reference)
	assert.Equal(t, row.Reference, row.InvoiceNo)
	assert.Equal(t, "20251231", row.DocDate)
	assert.Equal(t, "C00888", row.VendorCode)
	assert.Equal(t, directory.VendorShopee, row.TaxID13)
	assert.Empty(t, row.WHT)
	assert.Empty(t, row.PND)
	assert.Equal(t, "628286975", row.SellerID)
	assert.Equal(t, "หักจากยอดขาย", row.PaymentMethod)
}

func TestExtractShopeeDerivesMissingTotal(t *testing.T) {
	text := `Shopee (Thailand) Co., Ltd.
TIV-TH01-12345-202512-0012345
Total Value of Services (Excluded VAT) 1,000.00
VAT 7% 70.00`

	row := ExtractShopee(text, directory.ClientRabbit, "")

	assert.Equal(t, "1000.00", row.UnitPrice)
	assert.Equal(t, "1070.00", row.PaidAmount)
}

func TestExtractShopeeWHTDetectionSetsPNDOnly(t *testing.T) {
	text := `Shopee (Thailand) Co., Ltd.
TRS2512180012345 1218-0001593
Total Value of Services (Excluded VAT) 1,000.00
Total Value of Services (Included VAT) 1,070.00
ผู้จ่ายเงินได้หักภาษีเงินได้ ณ ที่จ่าย ในอัตราร้อยละ 3 % เป็นจำนวนเงิน 30.00 บาท`

	row := ExtractShopee(text, directory.ClientRabbit, "")

	assert.Empty(t, row.WHT)
	assert.Equal(t, "53", row.PND)
	assert.Equal(t, "1070.00", row.PaidAmount)
	assert.NotEqual(t, "30.00", row.UnitPrice)
	assert.NotEqual(t, "30.00", row.PaidAmount)
}

func TestShopeeReferenceGluesTRSAndCode(t *testing.T) {
	text := `Shopee (Thailand) Co., Ltd.
TRS2512180012345
1218-0001593`

	row := ExtractShopee(text, "", "")
	assert.Equal(t, "TRS25121800123451218-0001593", row.Reference)
}

func TestShopeeAfterDiscountSubtotalWins(t *testing.T) {
	text := `Shopee (Thailand) Co., Ltd.
TIV-TH01-12345-202512-0012345
Total Value of Services (Excluded VAT) 2,000.00
Total Value of Services after discount (Excluded VAT) 1,800.00
Total Value of Services (Included VAT) 1,926.00`

	row := ExtractShopee(text, directory.ClientTopOne, "")

	assert.Equal(t, "1800.00", row.UnitPrice)
	assert.Equal(t, "1926.00", row.PaidAmount)
}
