package transform

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// BlockSize is the fixed 8x8 DCT block size used by the embedder/extractor.
const BlockSize = 8

// dctBasis is the orthonormal Type-II DCT basis matrix for an 8x8 block,
// built once and reused: D[k][n] = alpha(k) * cos(pi/N*(n+0.5)*k). Forward
// and inverse transforms are then just D*block*Dᵀ and Dᵀ*X*D, expressed as
// gonum matrix multiplications rather than a hand-rolled butterfly —
// grounded in the reference pack's DWT/DCT watermarking code, which builds
// its DCT stage on top of gonum for the same reason (SVD elsewhere in that
// pipeline; here, orthonormal basis multiplication).
var dctBasis = buildDCTBasis(BlockSize)

func buildDCTBasis(n int) *mat.Dense {
	d := mat.NewDense(n, n, nil)
	for k := 0; k < n; k++ {
		alpha := math.Sqrt(2.0 / float64(n))
		if k == 0 {
			alpha = math.Sqrt(1.0 / float64(n))
		}
		for x := 0; x < n; x++ {
			d.Set(k, x, alpha*math.Cos(math.Pi/float64(n)*(float64(x)+0.5)*float64(k)))
		}
	}
	return d
}

// ForwardDCT applies the 2-D orthonormal type-II DCT to an 8x8 block.
func ForwardDCT(block [8][8]float32) [8][8]float32 {
	m := blockToDense(block)
	var tmp, out mat.Dense
	tmp.Mul(dctBasis, m)
	out.Mul(&tmp, dctBasis.T())
	return denseToBlock(&out)
}

// InverseDCT applies the 2-D orthonormal type-II inverse DCT to an 8x8
// block of coefficients, recovering the spatial-domain block.
func InverseDCT(coeffs [8][8]float32) [8][8]float32 {
	m := blockToDense(coeffs)
	var tmp, out mat.Dense
	tmp.Mul(dctBasis.T(), m)
	out.Mul(&tmp, dctBasis)
	return denseToBlock(&out)
}

func blockToDense(block [8][8]float32) *mat.Dense {
	data := make([]float64, BlockSize*BlockSize)
	for i := 0; i < BlockSize; i++ {
		for j := 0; j < BlockSize; j++ {
			data[i*BlockSize+j] = float64(block[i][j])
		}
	}
	return mat.NewDense(BlockSize, BlockSize, data)
}

func denseToBlock(m *mat.Dense) [8][8]float32 {
	var out [8][8]float32
	for i := 0; i < BlockSize; i++ {
		for j := 0; j < BlockSize; j++ {
			out[i][j] = float32(m.At(i, j))
		}
	}
	return out
}
