package document

import (
	"bytes"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/auroraa/watermark-engine/internal/werr"
)

// MimePdf is the MIME type routed to the PDF codec.
const MimePdf = "application/pdf"

// The PDF codec targets single-page, left-aligned plain-text layouts: each
// paragraph becomes one positioned text-showing operator in a single
// content stream. This is enough surface to carry the document channel's
// zero-width and line-spacing signals, but it is not a general PDF writer —
// arbitrary page layout, embedded fonts, and multi-page flow are out of
// scope; EncodePdf always regenerates a fresh single-page document rather
// than patching an uploaded one in place.

const pdfBaseFontSize = 11.0
const pdfBaseLeading = 14.0 // points between baselines at a 1.0x multiplier
const pdfLeftMargin = 72.0
const pdfTopY = 740.0

var pdfTextShowRe = regexp.MustCompile(`\(((?:[^()\\]|\\.)*)\)\s*Tj`)
var pdfLeadingRe = regexp.MustCompile(`(-?[0-9.]+)\s+TL`)

// DecodePdf extracts paragraph text and per-paragraph leading from a PDF's
// (uncompressed) content stream produced by EncodePdf. It recognizes the
// "<leading> TL" / "(<text>) Tj" operator pairs EncodePdf emits; PDFs from
// other producers, or ones using compressed content streams, are not
// supported.
func DecodePdf(data []byte) (*TextDocument, error) {
	stream, err := extractPdfContentStream(data)
	if err != nil {
		return nil, err
	}

	lines := strings.Split(stream, "\n")
	var paragraphs []Paragraph
	leading := pdfBaseLeading
	for _, line := range lines {
		if m := pdfLeadingRe.FindStringSubmatch(line); m != nil {
			if v, err := strconv.ParseFloat(m[1], 64); err == nil {
				leading = v
			}
			continue
		}
		m := pdfTextShowRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		text := unescapePdfString(m[1])
		paragraphs = append(paragraphs, Paragraph{
			Text:        text,
			LineSpacing: leading / pdfBaseLeading,
		})
	}
	return &TextDocument{Paragraphs: paragraphs}, nil
}

// EncodePdf renders doc as a fresh single-page PDF: one "TL"/"Tj" pair per
// paragraph, vertically stacked by each paragraph's line-spacing multiplier.
// origData is accepted for interface symmetry with EncodeDocx but is not
// otherwise consulted — round-tripping a watermark through an existing
// PDF's exact layout is out of scope (see the package-level comment).
func EncodePdf(origData []byte, doc *TextDocument) ([]byte, error) {
	var content bytes.Buffer
	fmt.Fprintf(&content, "BT\n/F1 %.1f Tf\n%.1f %.1f Td\n", pdfBaseFontSize, pdfLeftMargin, pdfTopY)

	for _, p := range doc.Paragraphs {
		leading := p.LineSpacing * pdfBaseLeading
		if leading <= 0 {
			leading = pdfBaseLeading
		}
		fmt.Fprintf(&content, "%.2f TL\n", leading)
		fmt.Fprintf(&content, "(%s) Tj\n", escapePdfString(p.Text))
		fmt.Fprintf(&content, "T*\n")
	}
	content.WriteString("ET\n")

	return buildPdfDocument(content.Bytes()), nil
}

// buildPdfDocument wraps a content stream in the minimal object graph a PDF
// reader needs: catalog, a single page with a Helvetica font resource, the
// content stream itself, and a correct cross-reference table.
func buildPdfDocument(content []byte) []byte {
	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")

	offsets := make([]int, 0, 6)
	writeObj := func(n int, body string) {
		offsets = append(offsets, buf.Len())
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", n, body)
	}

	writeObj(1, "<< /Type /Catalog /Pages 2 0 R >>")
	writeObj(2, "<< /Type /Pages /Kids [3 0 R] /Count 1 >>")
	writeObj(3, "<< /Type /Page /Parent 2 0 R /Resources << /Font << /F1 5 0 R >> >> "+
		"/MediaBox [0 0 612 792] /Contents 4 0 R >>")

	offsets = append(offsets, buf.Len())
	fmt.Fprintf(&buf, "4 0 obj\n<< /Length %d >>\nstream\n", len(content))
	buf.Write(content)
	buf.WriteString("\nendstream\nendobj\n")

	writeObj(5, "<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica >>")

	xrefStart := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(offsets)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF", len(offsets)+1, xrefStart)

	return buf.Bytes()
}

// extractPdfContentStream locates the first "stream"/"endstream" block.
// EncodePdf never deflates its content, so no decompression is attempted;
// a Flate-encoded content stream is returned as-is and yields no paragraphs.
func extractPdfContentStream(data []byte) (string, error) {
	start := bytes.Index(data, []byte("stream"))
	if start < 0 {
		return "", werr.Decode("document.DecodePdf", "no content stream found")
	}
	start += len("stream")
	if start < len(data) && data[start] == '\r' {
		start++
	}
	if start < len(data) && data[start] == '\n' {
		start++
	}
	end := bytes.Index(data[start:], []byte("endstream"))
	if end < 0 {
		return "", werr.Decode("document.DecodePdf", "unterminated content stream")
	}
	return string(data[start : start+end]), nil
}

func escapePdfString(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `(`, `\(`, `)`, `\)`)
	return r.Replace(s)
}

func unescapePdfString(s string) string {
	var out strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+1 < len(s) {
			i++
			out.WriteByte(s[i])
			continue
		}
		out.WriteByte(s[i])
	}
	return out.String()
}
