package document

import (
	"unicode/utf8"

	"github.com/auroraa/watermark-engine/internal/config"
	"github.com/auroraa/watermark-engine/internal/watermark/key"
	"github.com/auroraa/watermark-engine/pkg/models"
)

const confidenceScale = 256.0
const verifiedThreshold = 0.7

// Verify decodes data as mimeType, reads the dual-channel frame back out,
// and checks it against ownerID/algVersion, per spec §4.7's state machine:
// IDLE -> EMBEDDED -> VERIFIED, or IDLE -> EMBEDDED -> REJECTED{reason}.
func Verify(data []byte, mimeType, ownerID, algVersion string, sched *key.Schedule, tun config.Tunables) (models.DocumentOutcome, error) {
	doc, err := decodeByMime(data, mimeType)
	if err != nil {
		return models.DocumentOutcome{}, err
	}

	bits := extractChannels(doc)
	raw := collapseBits(bits, tun.DocRepetition)

	payload, perr := parseFrame(string(raw))
	if perr != nil {
		return rejectedOutcome(perr), nil
	}
	if !utf8.ValidString(payload) {
		return rejectedOutcome(errBadUTF8), nil
	}

	env, derr := DecodeEnvelope(sched, payload)
	if derr != nil {
		return rejectedOutcome(derr), nil
	}

	if env.UID != ownerID {
		return rejectedOutcome(errOwnerMismatch), nil
	}
	if env.Alg != algVersion {
		return rejectedOutcome(errVersionMismatch), nil
	}

	confidence := float64(len(payload)) / confidenceScale
	if confidence > 1.0 {
		confidence = 1.0
	}
	if confidence < verifiedThreshold {
		return rejectedOutcome(errBadLength), nil
	}

	return models.DocumentOutcome{
		Verified:    true,
		Confidence:  confidence,
		WatermarkID: env.WID,
		State:       models.DocumentVerified,
	}, nil
}

// rejectedOutcome builds a REJECTED outcome from err, falling back to
// bad_signature if err wasn't one of this package's tagged reasons (e.g. a
// malformed base64/JSON envelope, which spec §4.7's reason set has no
// dedicated entry for).
func rejectedOutcome(err error) models.DocumentOutcome {
	reason, ok := ReasonFor(err)
	if !ok {
		reason = models.ReasonBadSignature
	}
	return models.DocumentOutcome{
		Verified: false,
		State:    models.DocumentRejected,
		Reason:   reason,
	}
}
