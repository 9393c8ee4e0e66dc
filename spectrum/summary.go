package spectrum

import (
	"errors"
	"fmt"
	"math"

	"github.com/montanaflynn/stats"
)

// Summary describes a counts vector at a glance.
type Summary struct {
	Channels    int
	Total       float64
	Peak        float64
	PeakChannel int
	Uncertainty float64
}

// Summarize computes total counts, the highest channel and the Poisson
// uncertainty of the total.
func Summarize(counts []float64) (Summary, error) {
	if len(counts) == 0 {
		return Summary{}, errors.New("summarize: empty spectrum")
	}
	total, err := stats.Sum(counts)
	if err != nil {
		return Summary{}, fmt.Errorf("summarize: %w", err)
	}
	peak, err := stats.Max(counts)
	if err != nil {
		return Summary{}, fmt.Errorf("summarize: %w", err)
	}
	peakChannel := 0
	for i, c := range counts {
		if c == peak {
			peakChannel = i
			break
		}
	}
	return Summary{
		Channels:    len(counts),
		Total:       total,
		Peak:        peak,
		PeakChannel: peakChannel,
		Uncertainty: math.Sqrt(total),
	}, nil
}

// Similarity returns the cosine similarity of two spectra over their common
// length. It is 0 when either vector has no counts.
func Similarity(a, b []float64) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot, na, nb float64
	for i := 0; i < n; i++ {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
