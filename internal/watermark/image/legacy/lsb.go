// Package legacy implements the exact-match LSB watermark path addressed
// by WatermarkRecord.AlgorithmVersion == "v1-lsb". It predates the
// DCT/DWT continuous algorithm (spec.md §9 calls content_hash and
// signature_hash "vestigial from an earlier exact-match LSB approach");
// this package does not itself read or write those columns. It is kept
// only so a record pinned to v1-lsb at creation can still be verified —
// new embeds always use the v3-continuous path in the image package.
package legacy

import (
	"bytes"
	"crypto/subtle"
	"image"
	"image/png"

	"github.com/auroraa/watermark-engine/internal/watermark/key"
	"github.com/auroraa/watermark-engine/internal/watermark/transform"
	"github.com/auroraa/watermark-engine/internal/werr"
)

// AlgorithmVersion is the WatermarkRecord.AlgorithmVersion tag this package
// handles.
const AlgorithmVersion = "v1-lsb"

const payloadBytes = 16 // 128-bit tag, one bit per pixel's red channel LSB

// Embed writes a deterministic HMAC tag into the red channel's least
// significant bit of the first payloadBytes*8 pixels (raster order) and
// re-encodes as lossless PNG. Exact-match only: any lossy re-encode after this
// point destroys the signal, which is why the v3-continuous algorithm
// replaced this path.
func Embed(data []byte, ownerID, epoch string, sched *key.Schedule) ([]byte, error) {
	img, err := transform.Decode(data)
	if err != nil {
		return nil, err
	}

	bounds := img.Bounds()
	if bounds.Dx()*bounds.Dy() < payloadBytes*8 {
		return nil, werr.Capacity("legacy.Embed", "image too small for %d-bit LSB payload", payloadBytes*8)
	}

	nrgba := toNRGBA(img)
	tag := computeTag(sched, ownerID, epoch)

	bitIdx := 0
	for y := bounds.Min.Y; y < bounds.Max.Y && bitIdx < payloadBytes*8; y++ {
		for x := bounds.Min.X; x < bounds.Max.X && bitIdx < payloadBytes*8; x++ {
			off := nrgba.PixOffset(x, y)
			bit := (tag[bitIdx/8] >> uint(7-(bitIdx%8))) & 1
			nrgba.Pix[off] = (nrgba.Pix[off] &^ 1) | bit
			bitIdx++
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, nrgba); err != nil {
		return nil, werr.Encode("legacy.Embed", "png encode failed: %w", err)
	}
	return buf.Bytes(), nil
}

// Verify extracts the LSB tag and compares it in constant time against the
// recomputed expectation. Confidence is binary: 1.0 on an exact match, 0
// otherwise (there is no averaging/repetition in this legacy scheme).
func Verify(data []byte, ownerID, epoch string, sched *key.Schedule) (bool, float64, error) {
	img, err := transform.Decode(data)
	if err != nil {
		return false, 0, err
	}

	bounds := img.Bounds()
	if bounds.Dx()*bounds.Dy() < payloadBytes*8 {
		return false, 0, nil
	}

	nrgba := toNRGBA(img)
	extracted := make([]byte, payloadBytes)

	bitIdx := 0
	for y := bounds.Min.Y; y < bounds.Max.Y && bitIdx < payloadBytes*8; y++ {
		for x := bounds.Min.X; x < bounds.Max.X && bitIdx < payloadBytes*8; x++ {
			off := nrgba.PixOffset(x, y)
			bit := nrgba.Pix[off] & 1
			extracted[bitIdx/8] |= bit << uint(7-(bitIdx%8))
			bitIdx++
		}
	}

	expected := computeTag(sched, ownerID, epoch)
	match := subtle.ConstantTimeCompare(extracted, expected) == 1
	if match {
		return true, 1.0, nil
	}
	return false, 0, nil
}

func computeTag(sched *key.Schedule, ownerID, epoch string) []byte {
	// The legacy scheme never exposed a public HMAC accessor on the
	// Schedule type (it predates the DeriveSignal/DeriveSeed split), so it
	// mixes the owner/epoch/version into its own HMAC domain directly
	// against the shared secret via the schedule's signal derivation,
	// truncated to the payload length.
	signal, err := sched.DeriveSignal(ownerID, "LSB|"+epoch, payloadBytes*8)
	if err != nil {
		return make([]byte, payloadBytes)
	}
	out := make([]byte, payloadBytes)
	for i, v := range signal {
		if v > 0 {
			out[i/8] |= 1 << uint(7-(i%8))
		}
	}
	return out
}

func toNRGBA(img image.Image) *image.NRGBA {
	if n, ok := img.(*image.NRGBA); ok {
		return n
	}
	bounds := img.Bounds()
	dst := image.NewNRGBA(bounds)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			dst.Set(x, y, img.At(x, y))
		}
	}
	return dst
}
