package export

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/peaklab/peak-importer/internal/peak"
	"github.com/peaklab/peak-importer/internal/textutil"
)

// SheetName is the single worksheet the PEAK importer reads.
const SheetName = "PEAK_IMPORT"

const (
	headerFill  = "E8F1FF"
	borderColor = "D0D7E2"
	minColWidth = 10.0
	maxColWidth = 60.0
)

// XLSX renders rows into the spreadsheet template format.
func XLSX(rows []peak.Row) ([]byte, error) {
	rows = Prepare(rows)
	if err := Validate(rows); err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer f.Close()

	idx, err := f.NewSheet(SheetName)
	if err != nil {
		return nil, fmt.Errorf("create sheet: %w", err)
	}
	f.SetActiveSheet(idx)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("drop default sheet: %w", err)
	}

	styles, err := newStyleSet(f)
	if err != nil {
		return nil, err
	}

	if err := writeHeader(f, styles); err != nil {
		return nil, err
	}
	for i := range rows {
		if err := writeRow(f, styles, i+2, &rows[i]); err != nil {
			return nil, err
		}
	}

	lastCol, _ := excelize.ColumnNumberToName(len(peak.Columns))
	if err := f.AutoFilter(SheetName, "A1:"+lastCol+"1", nil); err != nil {
		return nil, fmt.Errorf("set auto filter: %w", err)
	}
	if err := f.SetPanes(SheetName, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return nil, fmt.Errorf("freeze header: %w", err)
	}
	if err := fitColumns(f, rows); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("serialize workbook: %w", err)
	}
	return buf.Bytes(), nil
}

type styleSet struct {
	header  int
	text    int
	money   int
	qtyInt  int
	qtyDec  int
	wrapped int
	plain   int
}

func newStyleSet(f *excelize.File) (*styleSet, error) {
	border := []excelize.Border{
		{Type: "left", Color: borderColor, Style: 1},
		{Type: "right", Color: borderColor, Style: 1},
		{Type: "top", Color: borderColor, Style: 1},
		{Type: "bottom", Color: borderColor, Style: 1},
	}

	header, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Fill:      excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{headerFill}},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center", WrapText: true},
		Border:    border,
	})
	if err != nil {
		return nil, fmt.Errorf("header style: %w", err)
	}

	// NumFmt 49 is the literal-text format "@".
	text, err := f.NewStyle(&excelize.Style{NumFmt: 49, Border: border})
	if err != nil {
		return nil, fmt.Errorf("text style: %w", err)
	}
	money, err := f.NewStyle(&excelize.Style{NumFmt: 2, Border: border})
	if err != nil {
		return nil, fmt.Errorf("money style: %w", err)
	}
	qtyInt, err := f.NewStyle(&excelize.Style{NumFmt: 1, Border: border})
	if err != nil {
		return nil, fmt.Errorf("qty style: %w", err)
	}
	wrapped, err := f.NewStyle(&excelize.Style{
		Alignment: &excelize.Alignment{WrapText: true, Vertical: "top"},
		Border:    border,
	})
	if err != nil {
		return nil, fmt.Errorf("wrap style: %w", err)
	}
	plain, err := f.NewStyle(&excelize.Style{Border: border})
	if err != nil {
		return nil, fmt.Errorf("plain style: %w", err)
	}

	return &styleSet{
		header:  header,
		text:    text,
		money:   money,
		qtyInt:  qtyInt,
		qtyDec:  money,
		wrapped: wrapped,
		plain:   plain,
	}, nil
}

func writeHeader(f *excelize.File, styles *styleSet) error {
	for j, c := range peak.Columns {
		cell, err := excelize.CoordinatesToCellName(j+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellStr(SheetName, cell, c.Label); err != nil {
			return fmt.Errorf("write header %s: %w", c.Key, err)
		}
		if err := f.SetCellStyle(SheetName, cell, cell, styles.header); err != nil {
			return err
		}
	}
	return nil
}

// wrappedColumns get wrap-text styling: free-form description and note.
var wrappedColumns = map[string]bool{
	peak.ColDescription: true,
	peak.ColNote:        true,
}

func writeRow(f *excelize.File, styles *styleSet, rowNum int, r *peak.Row) error {
	for j, c := range peak.Columns {
		cell, err := excelize.CoordinatesToCellName(j+1, rowNum)
		if err != nil {
			return err
		}

		v := sanitizeCell(r.Field(c.Key))
		switch {
		case numberColumns[c.Key]:
			if num, ok := textutil.MoneyValue(v); ok {
				if err := f.SetCellFloat(SheetName, cell, num, 2, 64); err != nil {
					return fmt.Errorf("write %s: %w", c.Key, err)
				}
				style := styles.money
				if c.Key == peak.ColQty {
					style = styles.qtyDec
					if num == float64(int64(num)) {
						style = styles.qtyInt
					}
				}
				if err := f.SetCellStyle(SheetName, cell, cell, style); err != nil {
					return err
				}
				continue
			}
			// Unparseable money stays literal text for the reviewer to see.
			fallthrough
		case textColumns[c.Key]:
			if err := f.SetCellStr(SheetName, cell, v); err != nil {
				return fmt.Errorf("write %s: %w", c.Key, err)
			}
			if err := f.SetCellStyle(SheetName, cell, cell, styles.text); err != nil {
				return err
			}
		default:
			if err := f.SetCellStr(SheetName, cell, v); err != nil {
				return fmt.Errorf("write %s: %w", c.Key, err)
			}
			style := styles.plain
			if wrappedColumns[c.Key] {
				style = styles.wrapped
			}
			if err := f.SetCellStyle(SheetName, cell, cell, style); err != nil {
				return err
			}
		}
	}
	return nil
}

// fitColumns sizes columns from the header label and the first 100 rows.
func fitColumns(f *excelize.File, rows []peak.Row) error {
	probe := rows
	if len(probe) > 100 {
		probe = probe[:100]
	}

	for j, c := range peak.Columns {
		width := cellWidth(c.Label)
		for i := range probe {
			if w := cellWidth(probe[i].Field(c.Key)); w > width {
				width = w
			}
		}
		if width < minColWidth {
			width = minColWidth
		}
		if width > maxColWidth {
			width = maxColWidth
		}

		name, err := excelize.ColumnNumberToName(j + 1)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(SheetName, name, name, width); err != nil {
			return fmt.Errorf("size column %s: %w", c.Key, err)
		}
	}
	return nil
}

// cellWidth approximates display width; Thai combining marks draw narrow and
// would otherwise overinflate columns.
func cellWidth(v string) float64 {
	w := 0.0
	for _, r := range v {
		switch {
		case r >= 0x0E31 && r <= 0x0E3A, r >= 0x0E47 && r <= 0x0E4E:
			// Thai vowel/tone marks stack above or below the baseline.
		case r > 0x7F:
			w += 1.8
		default:
			w += 1.1
		}
	}
	return w + 2
}

// QtyDisplay reports how a quantity renders: whole values without decimals.
// Exposed for the review UI, which mirrors the spreadsheet formatting.
func QtyDisplay(v string) string {
	num, ok := textutil.MoneyValue(v)
	if !ok {
		return v
	}
	if num == float64(int64(num)) {
		return strconv.FormatInt(int64(num), 10)
	}
	return strings.TrimRight(fmt.Sprintf("%.2f", num), "0")
}
