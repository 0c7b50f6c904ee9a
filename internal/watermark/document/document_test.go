package document

import (
	"archive/zip"
	"bytes"
	"strings"
	"testing"

	"github.com/auroraa/watermark-engine/internal/config"
	"github.com/auroraa/watermark-engine/internal/watermark/key"
	"github.com/auroraa/watermark-engine/pkg/models"
)

func testSchedule(t *testing.T) *key.Schedule {
	t.Helper()
	s, err := key.New([]byte("0123456789abcdef0123456789abcdef"))
	if err != nil {
		t.Fatalf("key.New() error = %v", err)
	}
	return s
}

// longDocument builds paragraphCount long paragraphs of filler text for the
// codec round-trip tests. It is too small to carry a whole frame at the
// default repetition factor: the layout channel gets only one bit per
// paragraph.
func longDocument(paragraphCount int) *TextDocument {
	doc := &TextDocument{}
	words := strings.Repeat("lorem ipsum dolor sit amet consectetur adipiscing elit ", 12)
	for i := 0; i < paragraphCount; i++ {
		doc.Paragraphs = append(doc.Paragraphs, Paragraph{Text: words, LineSpacing: 1.0})
	}
	return doc
}

// manyParagraphDocument builds paragraphCount short, non-empty paragraphs.
// Unlike longDocument, capacity here comes from paragraph count rather than
// paragraph length, so the layout channel (one bit per non-empty paragraph)
// gets the same order of capacity as the unicode channel. Embed+verify round
// trips now need both channels to carry the full frame, since extraction
// merges only up to the shorter channel's length.
func manyParagraphDocument(paragraphCount int) *TextDocument {
	doc := &TextDocument{}
	for i := 0; i < paragraphCount; i++ {
		doc.Paragraphs = append(doc.Paragraphs, Paragraph{Text: "w1", LineSpacing: 1.0})
	}
	return doc
}

func buildDocxBytes(t *testing.T, doc *TextDocument) []byte {
	t.Helper()

	var runsXML strings.Builder
	for _, p := range doc.Paragraphs {
		runsXML.WriteString(`<w:p><w:r><w:t xml:space="preserve">`)
		runsXML.WriteString(p.Text)
		runsXML.WriteString(`</w:t></w:r></w:p>`)
	}
	documentXML := `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` +
		`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">` +
		`<w:body>` + runsXML.String() + `</w:body></w:document>`

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create(docxDocumentPart)
	if err != nil {
		t.Fatalf("zip.Create() error = %v", err)
	}
	if _, err := w.Write([]byte(documentXML)); err != nil {
		t.Fatalf("zip write error = %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("zip.Close() error = %v", err)
	}
	return buf.Bytes()
}

func TestDocxDecodeEncodeRoundTrip(t *testing.T) {
	doc := longDocument(8)
	raw := buildDocxBytes(t, doc)

	decoded, err := DecodeDocx(raw)
	if err != nil {
		t.Fatalf("DecodeDocx() error = %v", err)
	}
	if len(decoded.Paragraphs) != len(doc.Paragraphs) {
		t.Fatalf("expected %d paragraphs, got %d", len(doc.Paragraphs), len(decoded.Paragraphs))
	}

	decoded.Paragraphs[0].LineSpacing = 1.1
	reencoded, err := EncodeDocx(raw, decoded)
	if err != nil {
		t.Fatalf("EncodeDocx() error = %v", err)
	}

	again, err := DecodeDocx(reencoded)
	if err != nil {
		t.Fatalf("DecodeDocx() on re-encoded bytes error = %v", err)
	}
	if again.Paragraphs[0].LineSpacing != 1.1 {
		t.Fatalf("expected line spacing 1.1 to survive round trip, got %v", again.Paragraphs[0].LineSpacing)
	}
}

func TestEmbedVerifyDocxRoundTrip(t *testing.T) {
	sched := testSchedule(t)
	tun := config.DefaultTunables()
	doc := manyParagraphDocument(16000)
	raw := buildDocxBytes(t, doc)

	embedded, err := Embed(raw, MimeDocx, "owner-1", "v3-continuous", "wm-123", sched, tun)
	if err != nil {
		t.Fatalf("Embed() error = %v", err)
	}

	outcome, err := Verify(embedded, MimeDocx, "owner-1", "v3-continuous", sched, tun)
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if !outcome.Verified {
		t.Fatalf("expected verified outcome, got %+v", outcome)
	}
	if outcome.WatermarkID != "wm-123" {
		t.Fatalf("expected watermark id wm-123, got %q", outcome.WatermarkID)
	}
}

func TestVerifyDocxOwnerMismatch(t *testing.T) {
	sched := testSchedule(t)
	tun := config.DefaultTunables()
	doc := manyParagraphDocument(16000)
	raw := buildDocxBytes(t, doc)

	embedded, err := Embed(raw, MimeDocx, "owner-1", "v3-continuous", "wm-123", sched, tun)
	if err != nil {
		t.Fatalf("Embed() error = %v", err)
	}

	outcome, err := Verify(embedded, MimeDocx, "owner-2", "v3-continuous", sched, tun)
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if outcome.Verified {
		t.Fatalf("expected verification to fail for the wrong owner, got %+v", outcome)
	}
	if outcome.Reason != models.ReasonOwnerMismatch {
		t.Fatalf("expected owner_mismatch reason, got %q", outcome.Reason)
	}
}

func TestEmbedRejectsUndersizedDocument(t *testing.T) {
	sched := testSchedule(t)
	tun := config.DefaultTunables()
	doc := &TextDocument{Paragraphs: []Paragraph{{Text: "hi", LineSpacing: 1.0}}}
	raw := buildDocxBytes(t, doc)

	if _, err := Embed(raw, MimeDocx, "owner-1", "v3-continuous", "wm-123", sched, tun); err == nil {
		t.Fatalf("expected CapacityError for a too-short document")
	}
}

func TestPdfEncodeDecodeRoundTrip(t *testing.T) {
	doc := longDocument(5)
	raw, err := EncodePdf(nil, doc)
	if err != nil {
		t.Fatalf("EncodePdf() error = %v", err)
	}

	decoded, err := DecodePdf(raw)
	if err != nil {
		t.Fatalf("DecodePdf() error = %v", err)
	}
	if len(decoded.Paragraphs) != len(doc.Paragraphs) {
		t.Fatalf("expected %d paragraphs, got %d", len(doc.Paragraphs), len(decoded.Paragraphs))
	}
}

func TestEmbedVerifyPdfRoundTrip(t *testing.T) {
	sched := testSchedule(t)
	tun := config.DefaultTunables()
	doc := manyParagraphDocument(16000)
	raw, err := EncodePdf(nil, doc)
	if err != nil {
		t.Fatalf("EncodePdf() error = %v", err)
	}

	embedded, err := Embed(raw, MimePdf, "owner-1", "v3-continuous", "wm-456", sched, tun)
	if err != nil {
		t.Fatalf("Embed() error = %v", err)
	}

	outcome, err := Verify(embedded, MimePdf, "owner-1", "v3-continuous", sched, tun)
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if !outcome.Verified {
		t.Fatalf("expected verified outcome, got %+v", outcome)
	}
}

func TestEnvelopeSignatureTamperDetected(t *testing.T) {
	sched := testSchedule(t)
	env := Envelope{WID: "wm-1", UID: "owner-1", Alg: "v3-continuous", TS: 1700000000}

	payload, err := EncodeEnvelope(sched, env)
	if err != nil {
		t.Fatalf("EncodeEnvelope() error = %v", err)
	}

	if _, err := DecodeEnvelope(sched, payload); err != nil {
		t.Fatalf("DecodeEnvelope() unexpected error = %v", err)
	}

	tampered := []byte(payload)
	tampered[0] ^= 0x01
	if _, err := DecodeEnvelope(sched, string(tampered)); err == nil {
		t.Fatalf("expected signature verification to fail for a tampered payload")
	}
}

func TestFrameRoundTrip(t *testing.T) {
	frame := buildFrame("hello-payload")
	payload, err := parseFrame(frame)
	if err != nil {
		t.Fatalf("parseFrame() error = %v", err)
	}
	if payload != "hello-payload" {
		t.Fatalf("expected %q, got %q", "hello-payload", payload)
	}
}

func TestParseFrameRejectsMissingMagic(t *testing.T) {
	if _, err := parseFrame("no magic here"); err == nil {
		t.Fatalf("expected error for a frame with no magic prefix")
	}
}

// TestExtractChannelsTruncatesToShorterChannel proves extraction merges
// only up to the shorter channel's length: corrupting the longer channel's
// tail (past where the shorter channel ends) must not change the result.
func TestExtractChannelsTruncatesToShorterChannel(t *testing.T) {
	build := func(unicodeTail [2]rune) *TextDocument {
		doc := &TextDocument{Paragraphs: []Paragraph{
			// unicode channel: bits [0,1,0] from this paragraph, plus a
			// fourth and fifth mark supplied by unicodeTail below. Layout
			// channel only sees 3 non-empty paragraphs, so it stops at 3.
			{Text: "a" + string(zeroWidthSpace) + "b" + string(zeroWidthNonJoiner) + "c" + string(zeroWidthSpace) + "d" + string(unicodeTail[0]) + "e" + string(unicodeTail[1]), LineSpacing: lineSpacingBitDefault},
			{Text: "f", LineSpacing: lineSpacingBitOne},
			{Text: "g", LineSpacing: lineSpacingBitDefault},
		}}
		return doc
	}

	base := build([2]rune{zeroWidthSpace, zeroWidthSpace})
	corrupted := build([2]rune{zeroWidthNonJoiner, zeroWidthNonJoiner})

	baseMerged := extractChannels(base)
	corruptedMerged := extractChannels(corrupted)

	if len(baseMerged) != 3 {
		t.Fatalf("expected merged length 3 (shorter channel's length), got %d", len(baseMerged))
	}
	want := []int{0 | 0, 1 | 1, 0 | 0}
	for i, b := range want {
		if baseMerged[i] != b {
			t.Fatalf("merged[%d] = %d, want %d", i, baseMerged[i], b)
		}
	}
	for i := range baseMerged {
		if baseMerged[i] != corruptedMerged[i] {
			t.Fatalf("merged[%d] changed after corrupting the longer channel's tail: %d vs %d", i, baseMerged[i], corruptedMerged[i])
		}
	}
}

func TestBitsRoundTripWithMajorityVote(t *testing.T) {
	const repetition = 6
	expanded := expandBits("Hi", repetition)
	collapsed := collapseBits(expanded, repetition)
	if string(collapsed) != "Hi" {
		t.Fatalf("expected %q, got %q", "Hi", collapsed)
	}
}
