// Package image implements the image watermarking algorithm: the embedder
// (C3), extractor (C4), verifier (C5), and epoch policy (C6) of spec §4.3-
// §4.6.
package image

import (
	"fmt"
	"time"
)

// CurrentEpoch returns the "YYYY-QN" label for the current UTC instant.
func CurrentEpoch() string {
	return EpochAt(time.Now().UTC())
}

// EpochAt returns the "YYYY-QN" label for a given instant, computed in UTC.
func EpochAt(t time.Time) string {
	t = t.UTC()
	quarter := ((int(t.Month()) - 1) / 3) + 1
	return fmt.Sprintf("%04d-Q%d", t.Year(), quarter)
}

// PreviousEpochs returns the current epoch followed by n-1 prior epochs,
// decrementing quarters and rolling the year, per spec §4.6. n must be >=1.
func PreviousEpochs(n int) []string {
	return PreviousEpochsAt(time.Now().UTC(), n)
}

// PreviousEpochsAt is PreviousEpochs parameterized by the reference instant,
// to keep epoch arithmetic testable without a wall clock.
func PreviousEpochsAt(t time.Time, n int) []string {
	if n <= 0 {
		return nil
	}
	t = t.UTC()
	year := t.Year()
	quarter := ((int(t.Month()) - 1) / 3) + 1

	out := make([]string, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, fmt.Sprintf("%04d-Q%d", year, quarter))
		quarter--
		if quarter == 0 {
			quarter = 4
			year--
		}
	}
	return out
}
