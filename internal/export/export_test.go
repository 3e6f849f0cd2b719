package export

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/peaklab/peak-importer/internal/peak"
)

func sampleRows() []peak.Row {
	return []peak.Row{
		{
			Seq:        "7", // wrong on purpose, Prepare re-sequences
			DocDate:    "20251218",
			Reference:  "RCSPXSPB00-00000-25 1218-0001593",
			VendorCode: "C00038",
			TaxID13:    "0105561164871",
			Branch5:    "00000",
			PriceType:  "1",
			Qty:        "1",
			UnitPrice:  "10000.00",
			VATRate:    "7%",
			WHT:        "3%",
			PaidAmount: "10000.00",
			PND:        "53",
			Group:      "Marketplace Expense",
			Platform:   peak.PlatformSPX,
		},
		{
			Seq:        "9",
			DocDate:    "20251217",
			VendorCode: "C00888",
			UnitPrice:  "290556.08",
			PaidAmount: "310895.00",
			WHT:        "3%", // must be wiped for Shopee
			Platform:   peak.PlatformShopee,
		},
	}
}

func TestPrepareEnforcesInvariants(t *testing.T) {
	original := sampleRows()
	rows := Prepare(original)

	assert.Equal(t, "1", rows[0].Seq)
	assert.Equal(t, "2", rows[1].Seq)

	// Reference compaction and C/G sync.
	assert.Equal(t, "RCSPXSPB00-00000-251218-0001593", rows[0].Reference)
	assert.Equal(t, rows[0].Reference, rows[0].InvoiceNo)

	// Per-platform withholding policy: SPX keeps AUTO, Shopee is forced blank.
	assert.Equal(t, "3%", rows[0].WHT)
	assert.Equal(t, "", rows[1].WHT)

	// Source rows untouched.
	assert.Equal(t, "7", original[0].Seq)
	assert.Equal(t, "3%", original[1].WHT)
}

func TestValidate(t *testing.T) {
	assert.ErrorIs(t, Validate(nil), ErrNoRows)

	big := make([]peak.Row, MaxRows+1)
	assert.ErrorIs(t, Validate(big), ErrTooManyRows)

	empty := make([]peak.Row, 3)
	for i := range empty {
		empty[i].Seq = "1" // sequence alone does not count as content
	}
	assert.ErrorIs(t, Validate(empty), ErrAllEmpty)

	ok := sampleRows()
	assert.NoError(t, Validate(ok))
}

func TestSanitizeCell(t *testing.T) {
	assert.Equal(t, "'=SUM(A1)", sanitizeCell("=SUM(A1)"))
	assert.Equal(t, "'+66", sanitizeCell("+66"))
	assert.Equal(t, "'-1", sanitizeCell("-1"))
	assert.Equal(t, "'@cmd", sanitizeCell("@cmd"))
	assert.Equal(t, "plain", sanitizeCell("plain"))
	assert.Equal(t, "", sanitizeCell(""))

	long := strings.Repeat("x", maxCellChars+10)
	assert.Len(t, sanitizeCell(long), maxCellChars)
}

func TestCSVOutput(t *testing.T) {
	data, err := CSV(sampleRows())
	require.NoError(t, err)

	assert.True(t, bytes.HasPrefix(data, utf8BOM))

	body := string(data[len(utf8BOM):])
	lines := strings.Split(strings.TrimSpace(body), "\n")
	require.Len(t, lines, 3)

	assert.Contains(t, lines[0], "ลำดับที่*")
	assert.Contains(t, lines[0], "เลขทะเบียน 13 หลัก")
	assert.Contains(t, lines[0], "กลุ่มจัดประเภท")

	assert.True(t, strings.HasPrefix(lines[1], "1,"))
	assert.Contains(t, lines[1], "RCSPXSPB00-00000-251218-0001593")
	assert.Contains(t, lines[1], "10000.00")
	assert.True(t, strings.HasPrefix(lines[2], "2,"))
	assert.Contains(t, lines[2], "310895.00")
}

func TestCSVRejectsEmptyBatch(t *testing.T) {
	_, err := CSV(nil)
	assert.ErrorIs(t, err, ErrNoRows)
}

func TestCSVEscapesFormulas(t *testing.T) {
	rows := []peak.Row{{
		Description: "=HYPERLINK(\"http://evil\")",
		UnitPrice:   "10.00",
		PaidAmount:  "10.00",
	}}
	data, err := CSV(rows)
	require.NoError(t, err)
	assert.Contains(t, string(data), "'=HYPERLINK")
}

func TestXLSXOutputIsWorkbook(t *testing.T) {
	data, err := XLSX(sampleRows())
	require.NoError(t, err)

	// XLSX is a ZIP container.
	assert.True(t, bytes.HasPrefix(data, []byte{'P', 'K'}))
	assert.Greater(t, len(data), 1000)
}

func TestXLSXRejectsEmptyBatch(t *testing.T) {
	_, err := XLSX(nil)
	assert.ErrorIs(t, err, ErrNoRows)
}

func TestQtyDisplay(t *testing.T) {
	assert.Equal(t, "1", QtyDisplay("1"))
	assert.Equal(t, "2", QtyDisplay("2.00"))
	assert.Equal(t, "1.5", QtyDisplay("1.50"))
	assert.Equal(t, "abc", QtyDisplay("abc"))
}

func TestCellWidthBounds(t *testing.T) {
	assert.Greater(t, cellWidth("เลขทะเบียน 13 หลัก"), 2.0)
	assert.Less(t, cellWidth("x"), minColWidth)
}
