package transform

import "math"

// haarC is 1/sqrt(2), the normalization constant for the orthonormal Haar
// basis used by both the forward and inverse transforms below.
var haarC = float32(1.0 / math.Sqrt2)

// Bands holds the four sub-bands produced by a single-level 2-D Haar
// wavelet decomposition.
type Bands struct {
	LL, LH, HL, HH [][]float32
}

// ForwardDWT applies a single-level 2-D Haar transform to an even-dimension
// plane, producing four (h/2)x(w/2) sub-bands. Rows are transformed first,
// then columns, matching the standard separable 2-D DWT construction.
func ForwardDWT(plane [][]float32) Bands {
	h := len(plane)
	w := len(plane[0])
	halfH, halfW := h/2, w/2

	// Row pass: split each row into low/high pairs.
	rowLow := make([][]float32, h)
	rowHigh := make([][]float32, h)
	for y := 0; y < h; y++ {
		rowLow[y] = make([]float32, halfW)
		rowHigh[y] = make([]float32, halfW)
		for x := 0; x < halfW; x++ {
			a, b := plane[y][2*x], plane[y][2*x+1]
			rowLow[y][x] = (a + b) * haarC
			rowHigh[y][x] = (a - b) * haarC
		}
	}

	// Column pass over each of the row-pass outputs.
	ll := make([][]float32, halfH)
	lh := make([][]float32, halfH)
	hl := make([][]float32, halfH)
	hh := make([][]float32, halfH)
	for y := 0; y < halfH; y++ {
		ll[y] = make([]float32, halfW)
		lh[y] = make([]float32, halfW)
		hl[y] = make([]float32, halfW)
		hh[y] = make([]float32, halfW)
		for x := 0; x < halfW; x++ {
			loA, loB := rowLow[2*y][x], rowLow[2*y+1][x]
			hiA, hiB := rowHigh[2*y][x], rowHigh[2*y+1][x]
			ll[y][x] = (loA + loB) * haarC
			hl[y][x] = (loA - loB) * haarC
			lh[y][x] = (hiA + hiB) * haarC
			hh[y][x] = (hiA - hiB) * haarC
		}
	}

	return Bands{LL: ll, LH: lh, HL: hl, HH: hh}
}

// InverseDWT reconstructs the h x w plane from four (h/2)x(w/2) sub-bands,
// mirroring ForwardDWT exactly (the orthonormal Haar basis is its own
// inverse up to transpose, so the same butterfly runs column-then-row).
func InverseDWT(b Bands) [][]float32 {
	halfH := len(b.LL)
	halfW := len(b.LL[0])
	h, w := halfH*2, halfW*2

	rowLow := make([][]float32, h)
	rowHigh := make([][]float32, h)
	for y := 0; y < h; y++ {
		rowLow[y] = make([]float32, halfW)
		rowHigh[y] = make([]float32, halfW)
	}
	for y := 0; y < halfH; y++ {
		for x := 0; x < halfW; x++ {
			loSum, hiDiff := b.LL[y][x], b.HL[y][x]
			rowLow[2*y][x] = (loSum + hiDiff) * haarC
			rowLow[2*y+1][x] = (loSum - hiDiff) * haarC

			hiSum, hhDiff := b.LH[y][x], b.HH[y][x]
			rowHigh[2*y][x] = (hiSum + hhDiff) * haarC
			rowHigh[2*y+1][x] = (hiSum - hhDiff) * haarC
		}
	}

	plane := make([][]float32, h)
	for y := 0; y < h; y++ {
		plane[y] = make([]float32, w)
		for x := 0; x < halfW; x++ {
			lo, hi := rowLow[y][x], rowHigh[y][x]
			plane[y][2*x] = (lo + hi) * haarC
			plane[y][2*x+1] = (lo - hi) * haarC
		}
	}
	return plane
}
