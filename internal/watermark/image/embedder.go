package image

import (
	"github.com/auroraa/watermark-engine/internal/config"
	"github.com/auroraa/watermark-engine/internal/watermark/key"
	"github.com/auroraa/watermark-engine/internal/watermark/transform"
	"github.com/auroraa/watermark-engine/internal/werr"
)

const jpegQuality = 92

// bandSpec pairs a sub-band plane with its embedding strength, in the
// fixed consumption order [LL, LH, HL] mandated by spec §4.3: LL is always
// fully consumed (or exhausted-by-signal) before LH, which precedes HL.
type bandSpec struct {
	name     string
	plane    [][]float32
	strength float64
}

// Embed derives the owner's signal and block permutation from sched,
// modulates the DCT mid-frequency pair (3,3)/(2,4) across the permuted
// LL/LH/HL blocks, and re-encodes the result as a baseline JPEG, per
// spec §4.3.
func Embed(data []byte, ownerID, epoch string, sched *key.Schedule, tun config.Tunables) ([]byte, error) {
	result, err := transform.Forward(data, tun.CanonicalSize)
	if err != nil {
		return nil, err
	}

	signal, err := sched.DeriveSignal(ownerID, epoch, tun.SignalLength)
	if err != nil {
		return nil, err
	}
	seed, err := sched.DeriveSeed(ownerID, epoch)
	if err != nil {
		return nil, err
	}

	specs := []bandSpec{
		{"LL", result.Bands.LL, tun.Strength},
		{"LH", result.Bands.LH, tun.Strength * tun.ChromaStrength},
		{"HL", result.Bands.HL, tun.Strength * tun.ChromaStrength},
	}

	permutations := make([][]key.BlockCoord, len(specs))
	totalBlocks := 0
	for i, spec := range specs {
		h, w := len(spec.plane), len(spec.plane[0])
		perm, err := key.PermuteBlocks(h, w, seed)
		if err != nil {
			return nil, err
		}
		permutations[i] = perm
		totalBlocks += len(perm)
	}

	required := tun.SignalLength * tun.Repetition
	if totalBlocks < required {
		return nil, werr.Capacity("image.Embed", "image too small: %d permuted blocks available, need %d (L=%d * R=%d)",
			totalBlocks, required, tun.SignalLength, tun.Repetition)
	}

	b, r := 0, 0
	for specIdx, spec := range specs {
		if b >= tun.SignalLength {
			break
		}
		for _, coord := range permutations[specIdx] {
			if b >= tun.SignalLength {
				break
			}
			block := transform.GetBlock(spec.plane, coord)
			coeffs := transform.ForwardDCT(block)

			s := signal[b]
			alpha := spec.strength
			coeffs[3][3] += float32(alpha * s)
			coeffs[2][4] -= float32(alpha * s)

			modified := transform.InverseDCT(coeffs)
			transform.SetBlock(spec.plane, coord, modified)

			r++
			if r == tun.Repetition {
				r = 0
				b++
			}
		}
	}

	return transform.Inverse(result.Canonical, result.Bands, jpegQuality)
}
