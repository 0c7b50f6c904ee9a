package transform

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"math"
	"testing"

	"github.com/auroraa/watermark-engine/internal/watermark/key"
)

func solidJPEG(t *testing.T, size int, c color.RGBA) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 95}); err != nil {
		t.Fatalf("jpeg.Encode() error = %v", err)
	}
	return buf.Bytes()
}

func TestDWTRoundTrip(t *testing.T) {
	plane := make([][]float32, 16)
	for y := range plane {
		plane[y] = make([]float32, 16)
		for x := range plane[y] {
			plane[y][x] = float32((y*16 + x) % 251)
		}
	}

	bands := ForwardDWT(plane)
	reconstructed := InverseDWT(bands)

	for y := range plane {
		for x := range plane[y] {
			if math.Abs(float64(plane[y][x]-reconstructed[y][x])) > 1e-3 {
				t.Fatalf("DWT round trip mismatch at (%d,%d): %v != %v", y, x, plane[y][x], reconstructed[y][x])
			}
		}
	}
}

func TestDCTRoundTrip(t *testing.T) {
	var block [8][8]float32
	for i := 0; i < 8; i++ {
		for j := 0; j < 8; j++ {
			block[i][j] = float32(i*8 + j)
		}
	}

	coeffs := ForwardDCT(block)
	back := InverseDCT(coeffs)

	for i := 0; i < 8; i++ {
		for j := 0; j < 8; j++ {
			if math.Abs(float64(block[i][j]-back[i][j])) > 1e-3 {
				t.Fatalf("DCT round trip mismatch at (%d,%d): %v != %v", i, j, block[i][j], back[i][j])
			}
		}
	}
}

func TestForwardProducesCanonicalSquareBands(t *testing.T) {
	data := solidJPEG(t, 800, color.RGBA{R: 120, G: 130, B: 140, A: 255})

	result, err := Forward(data, 512)
	if err != nil {
		t.Fatalf("Forward() error = %v", err)
	}

	if len(result.Bands.LL) != 256 || len(result.Bands.LL[0]) != 256 {
		t.Fatalf("expected 256x256 LL band, got %dx%d", len(result.Bands.LL), len(result.Bands.LL[0]))
	}
}

func TestInverseRoundTripPreservesSolidColor(t *testing.T) {
	data := solidJPEG(t, 512, color.RGBA{R: 100, G: 100, B: 100, A: 255})

	result, err := Forward(data, 512)
	if err != nil {
		t.Fatalf("Forward() error = %v", err)
	}

	out, err := Inverse(result.Canonical, result.Bands, 92)
	if err != nil {
		t.Fatalf("Inverse() error = %v", err)
	}
	if len(out) == 0 {
		t.Fatalf("expected non-empty JPEG output")
	}

	roundTripped, err := Forward(out, 512)
	if err != nil {
		t.Fatalf("Forward() on round-tripped bytes error = %v", err)
	}

	// A solid-color image's LL band should stay close to its original
	// average luma after an untouched forward->inverse->forward cycle.
	origAvg := averageOf(result.Bands.LL)
	roundAvg := averageOf(roundTripped.Bands.LL)
	if math.Abs(origAvg-roundAvg) > 5 {
		t.Fatalf("LL band average drifted too far: %v vs %v", origAvg, roundAvg)
	}
}

func averageOf(plane [][]float32) float64 {
	var sum float64
	var n int
	for _, row := range plane {
		for _, v := range row {
			sum += float64(v)
			n++
		}
	}
	return sum / float64(n)
}

func TestGetSetBlockRoundTrip(t *testing.T) {
	plane := make([][]float32, 16)
	for y := range plane {
		plane[y] = make([]float32, 16)
	}

	coord := key.BlockCoord{I: 8, J: 0}
	var block [8][8]float32
	for i := range block {
		for j := range block[i] {
			block[i][j] = float32(i + j)
		}
	}

	SetBlock(plane, coord, block)
	got := GetBlock(plane, coord)

	if got != block {
		t.Fatalf("GetBlock/SetBlock mismatch: got %v want %v", got, block)
	}
}
