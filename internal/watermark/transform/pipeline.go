package transform

import (
	"image"

	"github.com/auroraa/watermark-engine/internal/watermark/key"
)

// Result is the output of running the forward pipeline on an image: the
// canonically-resized original (needed to recolor on the inverse path) and
// the four Haar sub-bands of its luma plane.
type Result struct {
	Canonical *image.NRGBA
	Bands     Bands
}

// Forward runs image decode -> canonical resize -> luma extract -> crop to
// even dimensions -> single-level Haar DWT, per spec §4.2.
func Forward(data []byte, canonicalSize int) (*Result, error) {
	img, err := Decode(data)
	if err != nil {
		return nil, err
	}

	canonical := ResizeCanonical(img, canonicalSize)
	luma := Luma(canonical)
	luma = CropEven(luma)
	bands := ForwardDWT(luma)

	return &Result{Canonical: canonical, Bands: bands}, nil
}

// Inverse reconstructs RGB from the (possibly modified) bands and
// re-encodes as JPEG at the given quality, per spec §4.3 step 5-6.
func Inverse(canonical *image.NRGBA, bands Bands, jpegQuality int) ([]byte, error) {
	luma := InverseDWT(bands)
	reconstructed := Recolor(canonical, luma)
	return EncodeJPEG(reconstructed, jpegQuality)
}

// GetBlock extracts the 8x8 sub-matrix at (coord.I, coord.J) from a plane.
func GetBlock(plane [][]float32, coord key.BlockCoord) [8][8]float32 {
	var block [8][8]float32
	for di := 0; di < BlockSize; di++ {
		for dj := 0; dj < BlockSize; dj++ {
			block[di][dj] = plane[coord.I+di][coord.J+dj]
		}
	}
	return block
}

// SetBlock writes an 8x8 block back into a plane at (coord.I, coord.J).
func SetBlock(plane [][]float32, coord key.BlockCoord, block [8][8]float32) {
	for di := 0; di < BlockSize; di++ {
		for dj := 0; dj < BlockSize; dj++ {
			plane[coord.I+di][coord.J+dj] = block[di][dj]
		}
	}
}
