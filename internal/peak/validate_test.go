package peak

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidYYYYMMDD(t *testing.T) {
	assert.True(t, ValidYYYYMMDD(""))
	assert.True(t, ValidYYYYMMDD("20250125"))
	assert.False(t, ValidYYYYMMDD("20251325")) // month 13
	assert.False(t, ValidYYYYMMDD("2025012"))
	assert.False(t, ValidYYYYMMDD("25/01/25"))
}

func TestValidVATRate(t *testing.T) {
	assert.True(t, ValidVATRate(""))
	assert.True(t, ValidVATRate("NO"))
	assert.True(t, ValidVATRate("7%"))
	assert.True(t, ValidVATRate("7"))
	assert.False(t, ValidVATRate("seven"))
	assert.False(t, ValidVATRate("100%"))
}

func TestValidateCollectsReasons(t *testing.T) {
	r := &Row{
		DocDate:   "2025",
		Branch5:   "123",
		TaxID13:   "12345",
		PriceType: "9",
		VATRate:   "abc",
	}
	errs := Validate(r)
	assert.Len(t, errs, 5)
	assert.Contains(t, errs, "วันที่เอกสารรูปแบบไม่ถูกต้อง")
	assert.Contains(t, errs, "เลขสาขาไม่ใช่ 5 หลัก")
	assert.Contains(t, errs, "เลขภาษีไม่ใช่ 13 หลัก")
}

func TestValidateEmptyRowPasses(t *testing.T) {
	assert.Empty(t, Validate(&Row{}))
}

func TestValidateNormalizedRowPasses(t *testing.T) {
	r := &Row{DocDate: "20250125", TaxID13: "0105558019581"}
	Normalize(r, 1, WHTBlank)
	assert.Empty(t, Validate(r))
}

func TestRowFieldRoundTrip(t *testing.T) {
	r := &Row{}
	for _, c := range Columns {
		r.SetField(c.Key, "v-"+c.Key)
	}
	for _, c := range Columns {
		assert.Equal(t, "v-"+c.Key, r.Field(c.Key))
	}
	r.SetField("_bogus", "x")
	assert.Equal(t, "", r.Field("_bogus"))
}

func TestAddErrorDeduplicates(t *testing.T) {
	r := &Row{}
	r.AddError("a")
	r.AddError("a")
	r.AddError("")
	r.MergeErrors([]string{"b", "a"})
	assert.Equal(t, []string{"a", "b"}, r.Errors)
}
