package image

import (
	"github.com/auroraa/watermark-engine/internal/config"
	"github.com/auroraa/watermark-engine/internal/watermark/key"
	"github.com/auroraa/watermark-engine/internal/watermark/transform"
)

// ExtractDeltas re-runs the transform pipeline on candidate image bytes and
// samples the same permuted LL/LH/HL blocks C3 would have written to,
// collecting the DCT[3][3]-DCT[2][4] delta at each block. It is agnostic
// to the expected signal content; scoring happens in the verifier.
func ExtractDeltas(data []byte, ownerID, epoch string, sched *key.Schedule, tun config.Tunables) ([]float64, error) {
	result, err := transform.Forward(data, tun.CanonicalSize)
	if err != nil {
		return nil, err
	}

	seed, err := sched.DeriveSeed(ownerID, epoch)
	if err != nil {
		return nil, err
	}

	planes := [][][]float32{result.Bands.LL, result.Bands.LH, result.Bands.HL}
	cap := tun.SignalLength * tun.Repetition * 3

	deltas := make([]float64, 0, cap)
	for _, plane := range planes {
		if len(deltas) >= cap {
			break
		}
		h, w := len(plane), len(plane[0])
		perm, err := key.PermuteBlocks(h, w, seed)
		if err != nil {
			return nil, err
		}
		for _, coord := range perm {
			if len(deltas) >= cap {
				break
			}
			block := transform.GetBlock(plane, coord)
			coeffs := transform.ForwardDCT(block)
			delta := float64(coeffs[3][3] - coeffs[2][4])
			deltas = append(deltas, delta)
		}
	}

	return deltas, nil
}
