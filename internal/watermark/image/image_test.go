package image

import (
	"bytes"
	"image"
	stdcolor "image/color"
	"image/jpeg"
	"testing"
	"time"

	"github.com/auroraa/watermark-engine/internal/config"
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

func solidJPEG(t *testing.T, size int, c stdcolor.RGBA, quality int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		t.Fatalf("jpeg.Encode() error = %v", err)
	}
	return buf.Bytes()
}

// TestSelfVerify is the universal property from spec §8: verify(embed(img,
// owner, epoch), owner) returns verified/most with confidence >= 0.70.
func TestSelfVerify(t *testing.T) {
	sched := testSchedule(t)
	tun := config.DefaultTunables()
	data := solidJPEG(t, 512, stdcolor.RGBA{R: 128, G: 128, B: 128, A: 255}, 95)

	watermarked, err := Embed(data, "owner-1", "2025-Q1", sched, tun)
	if err != nil {
		t.Fatalf("Embed() error = %v", err)
	}

	outcome, err := Verify(watermarked, "owner-1", sched, tun, []string{"2025-Q1"})
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}

	if outcome.Status != "verified" && outcome.Status != "most" {
		t.Fatalf("expected status verified or most, got %v (confidence %v)", outcome.Status, outcome.Confidence)
	}
	if outcome.Confidence < 0.70 {
		t.Fatalf("expected confidence >= 0.70, got %v", outcome.Confidence)
	}
}

// TestOwnerDisambiguation is the universal property from spec §8: verifying
// under a different owner than the embed owner must not verify.
func TestOwnerDisambiguation(t *testing.T) {
	sched := testSchedule(t)
	tun := config.DefaultTunables()
	data := solidJPEG(t, 512, stdcolor.RGBA{R: 60, G: 90, B: 200, A: 255}, 95)

	watermarked, err := Embed(data, "owner-1", "2025-Q1", sched, tun)
	if err != nil {
		t.Fatalf("Embed() error = %v", err)
	}

	outcome, err := Verify(watermarked, "owner-2", sched, tun, []string{"2025-Q1"})
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}

	if outcome.Verified {
		t.Fatalf("expected owner-2 verification to fail, got %+v", outcome)
	}
	if outcome.Confidence >= 0.55 {
		t.Fatalf("expected confidence < 0.55 for wrong owner, got %v", outcome.Confidence)
	}
}

// TestEmbedDeterministic is the determinism property from spec §8.
func TestEmbedDeterministic(t *testing.T) {
	sched := testSchedule(t)
	tun := config.DefaultTunables()
	data := solidJPEG(t, 512, stdcolor.RGBA{R: 10, G: 20, B: 30, A: 255}, 95)

	a, err := Embed(data, "owner-1", "2025-Q1", sched, tun)
	if err != nil {
		t.Fatalf("Embed() error = %v", err)
	}
	b, err := Embed(data, "owner-1", "2025-Q1", sched, tun)
	if err != nil {
		t.Fatalf("Embed() error = %v", err)
	}
	if !bytes.Equal(a, b) {
		t.Fatalf("expected byte-identical embed output for identical inputs")
	}
}

// TestCapacityLaw is the capacity property from spec §8.
func TestCapacityLaw(t *testing.T) {
	sched := testSchedule(t)
	tun := config.DefaultTunables()
	tun.SignalLength = 128
	tun.Repetition = 1_000_000 // force required blocks far beyond any canonical image's supply

	data := solidJPEG(t, 512, stdcolor.RGBA{R: 1, G: 2, B: 3, A: 255}, 95)

	if _, err := Embed(data, "owner-1", "2025-Q1", sched, tun); err == nil {
		t.Fatalf("expected CapacityError for an undersized permutation budget")
	}
}

// TestEpochRotationWithinWindow and TestEpochRotationOutsideWindow cover the
// epoch rotation property from spec §8 and boundary scenarios 5-6.
func TestEpochRotationWithinWindow(t *testing.T) {
	sched := testSchedule(t)
	tun := config.DefaultTunables()
	data := solidJPEG(t, 512, stdcolor.RGBA{R: 200, G: 10, B: 10, A: 255}, 95)

	watermarked, err := Embed(data, "owner-1", "2025-Q1", sched, tun)
	if err != nil {
		t.Fatalf("Embed() error = %v", err)
	}

	searchWindow := []string{"2025-Q3", "2025-Q2", "2025-Q1", "2024-Q4"}
	outcome, err := Verify(watermarked, "owner-1", sched, tun, searchWindow)
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if outcome.Status == "not_verified" {
		t.Fatalf("expected a within-window epoch match, got not_verified (confidence %v)", outcome.Confidence)
	}
}

func TestEpochRotationOutsideWindow(t *testing.T) {
	sched := testSchedule(t)
	tun := config.DefaultTunables()
	data := solidJPEG(t, 512, stdcolor.RGBA{R: 5, G: 5, B: 250, A: 255}, 95)

	watermarked, err := Embed(data, "owner-1", "2024-Q1", sched, tun)
	if err != nil {
		t.Fatalf("Embed() error = %v", err)
	}

	searchWindow := []string{"2025-Q3", "2025-Q2", "2025-Q1", "2024-Q4"}
	outcome, err := Verify(watermarked, "owner-1", sched, tun, searchWindow)
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if outcome.Status != "not_verified" {
		t.Fatalf("expected not_verified for an out-of-window epoch, got %v (confidence %v)", outcome.Status, outcome.Confidence)
	}
}

func TestEpochPolicy(t *testing.T) {
	ref, err := time.Parse(time.RFC3339, "2025-08-15T00:00:00Z")
	if err != nil {
		t.Fatalf("time.Parse() error = %v", err)
	}

	epochs := PreviousEpochsAt(ref, 4)
	want := []string{"2025-Q3", "2025-Q2", "2025-Q1", "2024-Q4"}
	if len(epochs) != len(want) {
		t.Fatalf("expected %d epochs, got %d (%v)", len(want), len(epochs), epochs)
	}
	for i := range want {
		if epochs[i] != want[i] {
			t.Fatalf("epoch[%d] = %q, want %q", i, epochs[i], want[i])
		}
	}
}
