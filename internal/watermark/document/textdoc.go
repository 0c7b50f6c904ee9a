package document

import "unicode"

// Paragraph is one paragraph of a structured text document: its visible
// text (which may carry embedded zero-width marks after alphanumeric
// glyphs) and its line-spacing multiplier (the layout channel's carrier).
type Paragraph struct {
	Text        string
	LineSpacing float64 // 1.0 (bit 0) or 1.1 (bit 1); unwatermarked paragraphs default to 1.0
}

// TextDocument is the format-agnostic representation the dual-channel
// codec operates on. The docx and pdf codecs convert their native file
// formats to and from this shape.
type TextDocument struct {
	Paragraphs []Paragraph
}

const (
	zeroWidthSpace     = '\u200B' // bit 0
	zeroWidthNonJoiner = '\u200C' // bit 1

	lineSpacingBitOne     = 1.1
	lineSpacingBitDefault = 1.0
)

// alnumGlyphCapacity counts the alphanumeric glyphs across all paragraphs,
// which bounds how many unicode-channel bits can be embedded.
func (d *TextDocument) alnumGlyphCapacity() int {
	n := 0
	for _, p := range d.Paragraphs {
		for _, r := range p.Text {
			if unicode.IsLetter(r) || unicode.IsDigit(r) {
				n++
			}
		}
	}
	return n
}

// nonEmptyParagraphCapacity counts paragraphs with visible text, which
// bounds how many layout-channel bits can be embedded (one per paragraph).
func (d *TextDocument) nonEmptyParagraphCapacity() int {
	n := 0
	for _, p := range d.Paragraphs {
		if len(p.Text) > 0 {
			n++
		}
	}
	return n
}
