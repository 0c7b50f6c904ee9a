package document

import (
	"time"

	"github.com/auroraa/watermark-engine/internal/config"
	"github.com/auroraa/watermark-engine/internal/watermark/key"
	"github.com/auroraa/watermark-engine/internal/werr"
)

// Embed decodes data as mimeType, signs and frames a payload envelope for
// (watermarkID, ownerID, algVersion), writes it into the document's
// unicode and layout channels, and re-encodes. It is the C7 counterpart of
// the image package's Embed.
func Embed(data []byte, mimeType, ownerID, algVersion, watermarkID string, sched *key.Schedule, tun config.Tunables) ([]byte, error) {
	doc, err := decodeByMime(data, mimeType)
	if err != nil {
		return nil, err
	}

	env := Envelope{WID: watermarkID, UID: ownerID, Alg: algVersion, TS: time.Now().Unix()}
	payload, err := EncodeEnvelope(sched, env)
	if err != nil {
		return nil, err
	}

	frame := buildFrame(payload)
	bits := expandBits(frame, tun.DocRepetition)

	unicodeCap := doc.alnumGlyphCapacity()
	layoutCap := doc.nonEmptyParagraphCapacity()
	if unicodeCap < len(bits) && layoutCap < len(bits) {
		return nil, werr.Capacity("document.Embed", "document has neither %d alphanumeric glyphs nor %d non-empty paragraphs to carry a %d-bit frame", len(bits), len(bits), len(bits))
	}

	embedChannels(doc, bits)

	return encodeByMime(data, mimeType, doc)
}
