package document

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"io"
	"strconv"

	"github.com/auroraa/watermark-engine/internal/werr"
)

// MimeDocx is the MIME type routed to the DOCX codec.
const MimeDocx = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

const docxDocumentPart = "word/document.xml"

// twips-per-unit line spacing, as word-processing-XML's <w:spacing w:line=.../>
// expects: 240 twips is "single" (1.0x), so a multiplier scales linearly.
const twipsPerSingleLine = 240

// docxRun and friends model just enough of the WordprocessingML schema to
// round-trip paragraph text and line spacing; everything else in the zip
// (styles, media, numbering) passes through untouched.
type docxRun struct {
	XMLName xml.Name `xml:"http://schemas.openxmlformats.org/wordprocessingml/2006/main r"`
	Text    struct {
		XMLName xml.Name `xml:"http://schemas.openxmlformats.org/wordprocessingml/2006/main t"`
		Space   string   `xml:"http://www.w3.org/XML/1998/namespace space,attr"`
		Value   string   `xml:",chardata"`
	} `xml:"http://schemas.openxmlformats.org/wordprocessingml/2006/main t"`
}

type docxSpacing struct {
	XMLName xml.Name `xml:"http://schemas.openxmlformats.org/wordprocessingml/2006/main spacing"`
	Line    string   `xml:"http://schemas.openxmlformats.org/wordprocessingml/2006/main line,attr"`
}

type docxParagraphProps struct {
	XMLName xml.Name     `xml:"http://schemas.openxmlformats.org/wordprocessingml/2006/main pPr"`
	Spacing *docxSpacing `xml:"http://schemas.openxmlformats.org/wordprocessingml/2006/main spacing"`
}

type docxParagraph struct {
	XMLName xml.Name            `xml:"http://schemas.openxmlformats.org/wordprocessingml/2006/main p"`
	Props   *docxParagraphProps `xml:"http://schemas.openxmlformats.org/wordprocessingml/2006/main pPr"`
	Runs    []docxRun           `xml:"http://schemas.openxmlformats.org/wordprocessingml/2006/main r"`
}

type docxBody struct {
	XMLName    xml.Name        `xml:"http://schemas.openxmlformats.org/wordprocessingml/2006/main body"`
	Paragraphs []docxParagraph `xml:"http://schemas.openxmlformats.org/wordprocessingml/2006/main p"`
}

type docxDocument struct {
	XMLName xml.Name `xml:"http://schemas.openxmlformats.org/wordprocessingml/2006/main document"`
	Body    docxBody `xml:"http://schemas.openxmlformats.org/wordprocessingml/2006/main body"`
}

// DecodeDocx reads a DOCX's word/document.xml into a TextDocument, one
// Paragraph per <w:p>, concatenating all run text as that paragraph's
// visible text.
func DecodeDocx(data []byte) (*TextDocument, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, werr.Decode("document.DecodeDocx", "open zip: %w", err)
	}

	raw, err := readZipFile(zr, docxDocumentPart)
	if err != nil {
		return nil, werr.Decode("document.DecodeDocx", "read %s: %w", docxDocumentPart, err)
	}

	var doc docxDocument
	if err := xml.Unmarshal(raw, &doc); err != nil {
		return nil, werr.Decode("document.DecodeDocx", "unmarshal document.xml: %w", err)
	}

	out := &TextDocument{Paragraphs: make([]Paragraph, 0, len(doc.Body.Paragraphs))}
	for _, p := range doc.Body.Paragraphs {
		var text string
		for _, r := range p.Runs {
			text += r.Text.Value
		}
		spacing := lineSpacingBitDefault
		if p.Props != nil && p.Props.Spacing != nil {
			spacing = parseTwipsToMultiplier(p.Props.Spacing.Line)
		}
		out.Paragraphs = append(out.Paragraphs, Paragraph{Text: text, LineSpacing: spacing})
	}
	return out, nil
}

// EncodeDocx rewrites origData's word/document.xml to reflect doc's
// paragraph text and line spacing, copying every other zip entry through
// unchanged.
func EncodeDocx(origData []byte, doc *TextDocument) ([]byte, error) {
	zr, err := zip.NewReader(bytes.NewReader(origData), int64(len(origData)))
	if err != nil {
		return nil, werr.Encode("document.EncodeDocx", "open zip: %w", err)
	}

	origRaw, err := readZipFile(zr, docxDocumentPart)
	if err != nil {
		return nil, werr.Encode("document.EncodeDocx", "read %s: %w", docxDocumentPart, err)
	}
	var origDoc docxDocument
	if err := xml.Unmarshal(origRaw, &origDoc); err != nil {
		return nil, werr.Encode("document.EncodeDocx", "unmarshal document.xml: %w", err)
	}

	for i := range origDoc.Body.Paragraphs {
		if i >= len(doc.Paragraphs) {
			break
		}
		p := &origDoc.Body.Paragraphs[i]
		src := doc.Paragraphs[i]

		if len(p.Runs) == 0 {
			p.Runs = []docxRun{{}}
		}
		p.Runs[0].Text.Value = src.Text
		p.Runs[0].Text.Space = "preserve"
		for j := 1; j < len(p.Runs); j++ {
			p.Runs[j].Text.Value = ""
		}

		if p.Props == nil {
			p.Props = &docxParagraphProps{}
		}
		p.Props.Spacing = &docxSpacing{Line: multiplierToTwips(src.LineSpacing)}
	}

	patched, err := xml.Marshal(origDoc)
	if err != nil {
		return nil, werr.Encode("document.EncodeDocx", "marshal document.xml: %w", err)
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, f := range zr.File {
		w, err := zw.Create(f.Name)
		if err != nil {
			return nil, werr.Encode("document.EncodeDocx", "create %s: %w", f.Name, err)
		}
		if f.Name == docxDocumentPart {
			if _, err := w.Write(append([]byte(xml.Header), patched...)); err != nil {
				return nil, werr.Encode("document.EncodeDocx", "write %s: %w", f.Name, err)
			}
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, werr.Encode("document.EncodeDocx", "open %s: %w", f.Name, err)
		}
		if _, err := io.Copy(w, rc); err != nil {
			rc.Close()
			return nil, werr.Encode("document.EncodeDocx", "copy %s: %w", f.Name, err)
		}
		rc.Close()
	}
	if err := zw.Close(); err != nil {
		return nil, werr.Encode("document.EncodeDocx", "close zip: %w", err)
	}
	return buf.Bytes(), nil
}

func readZipFile(zr *zip.Reader, name string) ([]byte, error) {
	for _, f := range zr.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, err
		}
		defer rc.Close()
		return io.ReadAll(rc)
	}
	return nil, werr.Decode("document.readZipFile", "%s not found in archive", name)
}

func parseTwipsToMultiplier(line string) float64 {
	twips, err := strconv.Atoi(line)
	if err != nil || twips <= 0 {
		return lineSpacingBitDefault
	}
	return float64(twips) / float64(twipsPerSingleLine)
}

func multiplierToTwips(multiplier float64) string {
	twips := int(multiplier * float64(twipsPerSingleLine))
	return strconv.Itoa(twips)
}
