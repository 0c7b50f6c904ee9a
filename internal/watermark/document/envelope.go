// Package document implements the document watermarking channel (spec §4.7,
// component C7): a format-agnostic dual-channel (invisible Unicode + layout
// spacing) encoder/decoder for an HMAC-signed payload envelope, plus DOCX
// and PDF codecs that adapt the channel to a concrete file format.
package document

import (
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"

	"github.com/auroraa/watermark-engine/internal/watermark/key"
	"github.com/auroraa/watermark-engine/internal/werr"
)

// Envelope is the {wid, uid, alg, ts} mapping signed and carried inside a
// document watermark frame. Field order is the wire order: encoding/json
// marshals struct fields in declaration order, which is what gives the
// envelope its deterministic key ordering ahead of signing.
type Envelope struct {
	WID string `json:"wid"`
	UID string `json:"uid"`
	Alg string `json:"alg"`
	TS  int64  `json:"ts"`
}

// signedEnvelope appends the signature as the last key, matching the
// "{…, sig}" re-serialization spec §4.7 describes.
type signedEnvelope struct {
	Envelope
	Sig string `json:"sig"`
}

// EncodeEnvelope signs env under sched and returns the base64-encoded
// payload_string spec §4.7 defines.
func EncodeEnvelope(sched *key.Schedule, env Envelope) (string, error) {
	unsigned, err := json.Marshal(env)
	if err != nil {
		return "", werr.Encode("document.EncodeEnvelope", "marshal envelope: %w", err)
	}
	sig := sched.Sign(unsigned)

	signed := signedEnvelope{Envelope: env, Sig: hex.EncodeToString(sig)}
	full, err := json.Marshal(signed)
	if err != nil {
		return "", werr.Encode("document.EncodeEnvelope", "marshal signed envelope: %w", err)
	}
	return base64.StdEncoding.EncodeToString(full), nil
}

// DecodeEnvelope reverses EncodeEnvelope and verifies the signature in
// constant time. It does not check ownership/algorithm; callers compare
// the returned Envelope's UID/Alg against the claimed values themselves so
// the distinct DocumentRejectReason values stay at the call site.
func DecodeEnvelope(sched *key.Schedule, payload string) (Envelope, error) {
	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return Envelope{}, werr.Decode("document.DecodeEnvelope", "base64: %w", err)
	}

	var signed signedEnvelope
	if err := json.Unmarshal(raw, &signed); err != nil {
		return Envelope{}, werr.Decode("document.DecodeEnvelope", "unmarshal: %w", err)
	}

	wantSig, err := hex.DecodeString(signed.Sig)
	if err != nil {
		return Envelope{}, werr.Decode("document.DecodeEnvelope", "signature hex: %w", err)
	}

	unsigned, err := json.Marshal(signed.Envelope)
	if err != nil {
		return Envelope{}, werr.Decode("document.DecodeEnvelope", "re-marshal: %w", err)
	}
	gotSig := sched.Sign(unsigned)

	if subtle.ConstantTimeCompare(wantSig, gotSig) != 1 {
		return Envelope{}, errBadSignature
	}
	return signed.Envelope, nil
}
