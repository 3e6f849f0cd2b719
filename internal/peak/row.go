// Package peak defines the PEAK A-U accounting import row model and the
// normalization/validation invariants every emitted row must satisfy.
package peak

// Platform labels a document's marketplace origin and selects the extractor
// and default vendor tax id downstream.
type Platform string

const (
	PlatformShopee  Platform = "shopee"
	PlatformLazada  Platform = "lazada"
	PlatformTikTok  Platform = "tiktok"
	PlatformSPX     Platform = "spx"
	PlatformAds     Platform = "ads"
	PlatformOther   Platform = "other"
	PlatformUnknown Platform = "unknown"
)

// Status tags a row for the review UI.
type Status string

const (
	StatusOK          Status = "OK"
	StatusNeedsReview Status = "NEEDS_REVIEW"
	StatusError       Status = "ERROR"
)

// Column keys, matching the PEAK import template ordering.
const (
	ColSeq             = "A_seq"
	ColCompanyName     = "A_company_name"
	ColDocDate         = "B_doc_date"
	ColReference       = "C_reference"
	ColVendorCode      = "D_vendor_code"
	ColTaxID13         = "E_tax_id_13"
	ColBranch5         = "F_branch_5"
	ColInvoiceNo       = "G_invoice_no"
	ColInvoiceDate     = "H_invoice_date"
	ColTaxPurchaseDate = "I_tax_purchase_date"
	ColPriceType       = "J_price_type"
	ColAccount         = "K_account"
	ColDescription     = "L_description"
	ColQty             = "M_qty"
	ColUnitPrice       = "N_unit_price"
	ColVATRate         = "O_vat_rate"
	ColWHT             = "P_wht"
	ColPaymentMethod   = "Q_payment_method"
	ColPaidAmount      = "R_paid_amount"
	ColPND             = "S_pnd"
	ColNote            = "T_note"
	ColGroup           = "U_group"
)

// Column pairs a field key with its Thai header label for export.
type Column struct {
	Key   string
	Label string
}

// Columns is the canonical export ordering.
var Columns = []Column{
	{ColSeq, "ลำดับที่*"},
	{ColCompanyName, "ชื่อบริษัท"},
	{ColDocDate, "วันที่เอกสาร"},
	{ColReference, "อ้างอิงถึง"},
	{ColVendorCode, "ผู้รับเงิน/คู่ค้า"},
	{ColTaxID13, "เลขทะเบียน 13 หลัก"},
	{ColBranch5, "เลขสาขา 5 หลัก"},
	{ColInvoiceNo, "เลขที่ใบกำกับฯ (ถ้ามี)"},
	{ColInvoiceDate, "วันที่ใบกำกับฯ (ถ้ามี)"},
	{ColTaxPurchaseDate, "วันที่บันทึกภาษีซื้อ (ถ้ามี)"},
	{ColPriceType, "ประเภทราคา"},
	{ColAccount, "บัญชี"},
	{ColDescription, "คำอธิบาย"},
	{ColQty, "จำนวน"},
	{ColUnitPrice, "ราคาต่อหน่วย"},
	{ColVATRate, "อัตราภาษี"},
	{ColWHT, "หัก ณ ที่จ่าย (ถ้ามี)"},
	{ColPaymentMethod, "ชำระโดย"},
	{ColPaidAmount, "จำนวนเงินที่ชำระ"},
	{ColPND, "ภ.ง.ด. (ถ้ามี)"},
	{ColNote, "หมายเหตุ"},
	{ColGroup, "กลุ่มจัดประเภท"},
}

// Row is one accounting import line. Every exported field is a string; empty
// means absent, never null. Metadata fields travel with the row until export
// but are not serialized into the template columns.
type Row struct {
	Seq             string
	CompanyName     string
	DocDate         string
	Reference       string
	VendorCode      string
	TaxID13         string
	Branch5         string
	InvoiceNo       string
	InvoiceDate     string
	TaxPurchaseDate string
	PriceType       string
	Account         string
	Description     string
	Qty             string
	UnitPrice       string
	VATRate         string
	WHT             string
	PaymentMethod   string
	PaidAmount      string
	PND             string
	Note            string
	Group           string

	// Metadata (not exported to the template).
	SourceFile  string
	Platform    Platform
	ClientTaxID string
	SellerID    string
	Errors      []string
	Status      Status
}

// Field returns the value of an exported column by key.
func (r *Row) Field(key string) string {
	switch key {
	case ColSeq:
		return r.Seq
	case ColCompanyName:
		return r.CompanyName
	case ColDocDate:
		return r.DocDate
	case ColReference:
		return r.Reference
	case ColVendorCode:
		return r.VendorCode
	case ColTaxID13:
		return r.TaxID13
	case ColBranch5:
		return r.Branch5
	case ColInvoiceNo:
		return r.InvoiceNo
	case ColInvoiceDate:
		return r.InvoiceDate
	case ColTaxPurchaseDate:
		return r.TaxPurchaseDate
	case ColPriceType:
		return r.PriceType
	case ColAccount:
		return r.Account
	case ColDescription:
		return r.Description
	case ColQty:
		return r.Qty
	case ColUnitPrice:
		return r.UnitPrice
	case ColVATRate:
		return r.VATRate
	case ColWHT:
		return r.WHT
	case ColPaymentMethod:
		return r.PaymentMethod
	case ColPaidAmount:
		return r.PaidAmount
	case ColPND:
		return r.PND
	case ColNote:
		return r.Note
	case ColGroup:
		return r.Group
	}
	return ""
}

// SetField assigns an exported column by key. Unknown keys are ignored so
// AI patches with stray keys cannot corrupt the row.
func (r *Row) SetField(key, value string) {
	switch key {
	case ColSeq:
		r.Seq = value
	case ColCompanyName:
		r.CompanyName = value
	case ColDocDate:
		r.DocDate = value
	case ColReference:
		r.Reference = value
	case ColVendorCode:
		r.VendorCode = value
	case ColTaxID13:
		r.TaxID13 = value
	case ColBranch5:
		r.Branch5 = value
	case ColInvoiceNo:
		r.InvoiceNo = value
	case ColInvoiceDate:
		r.InvoiceDate = value
	case ColTaxPurchaseDate:
		r.TaxPurchaseDate = value
	case ColPriceType:
		r.PriceType = value
	case ColAccount:
		r.Account = value
	case ColDescription:
		r.Description = value
	case ColQty:
		r.Qty = value
	case ColUnitPrice:
		r.UnitPrice = value
	case ColVATRate:
		r.VATRate = value
	case ColWHT:
		r.WHT = value
	case ColPaymentMethod:
		r.PaymentMethod = value
	case ColPaidAmount:
		r.PaidAmount = value
	case ColPND:
		r.PND = value
	case ColNote:
		r.Note = value
	case ColGroup:
		r.Group = value
	}
}

// Fields returns the exported columns as a key-value map in no particular
// order. Used when handing a partial row to the AI collaborator and when
// rendering the review API payload.
func (r *Row) Fields() map[string]string {
	m := make(map[string]string, len(Columns))
	for _, c := range Columns {
		m[c.Key] = r.Field(c.Key)
	}
	return m
}

// AddError appends a validation/processing error, skipping duplicates.
func (r *Row) AddError(msg string) {
	if msg == "" {
		return
	}
	for _, e := range r.Errors {
		if e == msg {
			return
		}
	}
	r.Errors = append(r.Errors, msg)
}

// MergeErrors folds additional errors into the row, keeping order and
// dropping duplicates.
func (r *Row) MergeErrors(errs []string) {
	for _, e := range errs {
		r.AddError(e)
	}
}
