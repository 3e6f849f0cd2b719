package extract

import (
	"regexp"

	"github.com/peaklab/peak-importer/internal/peak"
	"github.com/peaklab/peak-importer/internal/textutil"
)

// Marketplace references come in two pieces that text extraction often splits
// across lines: a document number like RCSPXSPB00-00000-25 and a running code
// like 1218-0001593. The glued form keeps both with no whitespace between.
var (
	reDocNoGeneric = regexp.MustCompile(`(?i)\b([A-Z0-9]{6,20}-\d{5}-\d{2})\b`)
	reMMDDSeq      = regexp.MustCompile(`\b(\d{4})\s*-\s*(\d{7})\b`)
)

// gluedReference joins DOCNO + MMDD-XXXXXXX with no whitespace between,
// regardless of how many lines the two pieces were split across.
func gluedReference(t string) string {
	doc := reDocNoGeneric.FindStringSubmatch(t)
	ref := reMMDDSeq.FindStringSubmatch(t)
	if doc != nil && ref != nil {
		return doc[1] + ref[1] + "-" + ref[2]
	}
	return ""
}

// setReference writes the same whitespace-free value into both C_reference
// and G_invoice_no.
func setReference(r *peak.Row, ref string) {
	ref = textutil.SquashWhitespace(ref)
	if ref == "" {
		return
	}
	r.Reference = ref
	r.InvoiceNo = ref
}
