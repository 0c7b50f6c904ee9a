package legacy

import (
	"bytes"
	stdimage "image"
	stdcolor "image/color"
	"image/png"
	"testing"

	"github.com/auroraa/watermark-engine/internal/watermark/key"
)

func testSchedule(t *testing.T) *key.Schedule {
	t.Helper()
	s, err := key.New([]byte("0123456789abcdef0123456789abcdef"))
	if err != nil {
		t.Fatalf("key.New() error = %v", err)
	}
	return s
}

func solidPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := stdimage.NewRGBA(stdimage.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, stdcolor.RGBA{R: 10, G: 20, B: 30, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("png.Encode() error = %v", err)
	}
	return buf.Bytes()
}

func TestLegacyEmbedVerifyRoundTrip(t *testing.T) {
	sched := testSchedule(t)
	data := solidPNG(t, 32, 32)

	embedded, err := Embed(data, "owner-1", "2025-Q1", sched)
	if err != nil {
		t.Fatalf("Embed() error = %v", err)
	}

	verified, confidence, err := Verify(embedded, "owner-1", "2025-Q1", sched)
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if !verified || confidence != 1.0 {
		t.Fatalf("expected exact-match verification, got verified=%v confidence=%v", verified, confidence)
	}
}

func TestLegacyVerifyRejectsWrongOwner(t *testing.T) {
	sched := testSchedule(t)
	data := solidPNG(t, 32, 32)

	embedded, err := Embed(data, "owner-1", "2025-Q1", sched)
	if err != nil {
		t.Fatalf("Embed() error = %v", err)
	}

	verified, _, err := Verify(embedded, "owner-2", "2025-Q1", sched)
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if verified {
		t.Fatalf("expected verification to fail for the wrong owner")
	}
}

func TestLegacyEmbedRejectsUndersizedImage(t *testing.T) {
	sched := testSchedule(t)
	data := solidPNG(t, 4, 4)

	if _, err := Embed(data, "owner-1", "2025-Q1", sched); err == nil {
		t.Fatalf("expected CapacityError for a too-small image")
	}
}
