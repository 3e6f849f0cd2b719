package export

import (
	"bytes"
	"encoding/csv"
	"fmt"

	"github.com/peaklab/peak-importer/internal/peak"
)

// utf8BOM makes Excel open the file as UTF-8 instead of the locale codepage.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// CSV renders rows into the delimited template format.
func CSV(rows []peak.Row) ([]byte, error) {
	rows = Prepare(rows)
	if err := Validate(rows); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	buf.Write(utf8BOM)
	w := csv.NewWriter(&buf)

	header := make([]string, len(peak.Columns))
	for i, c := range peak.Columns {
		header[i] = c.Label
	}
	if err := w.Write(header); err != nil {
		return nil, fmt.Errorf("write csv header: %w", err)
	}

	record := make([]string, len(peak.Columns))
	for i := range rows {
		for j, c := range peak.Columns {
			record[j] = sanitizeCell(rows[i].Field(c.Key))
		}
		if err := w.Write(record); err != nil {
			return nil, fmt.Errorf("write csv row %d: %w", i+1, err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}
	return buf.Bytes(), nil
}
