package spectrum

import (
	"context"
	"fmt"
	"math"

	"github.com/montanaflynn/stats"
)

// InputShape is the tensor shape the network expects: one 128x128 single-channel image.
func InputShape() []int64 {
	return []int64{1, ImageSide, ImageSide, 1}
}

// Predict folds the counts into the model input image, runs the model and
// labels both heads with the nuclide catalog. Scores are percentages and
// activities undo the log1p encoding used in training; both are rounded to
// two decimals. Every row carries the same Poisson uncertainty, the square
// root of the total counts.
func Predict(ctx context.Context, model Model, counts []float64) (PredictionTable, error) {
	if model == nil {
		return PredictionTable{}, ErrModelNotLoaded
	}
	if len(counts) != ChannelCount {
		return PredictionTable{}, fmt.Errorf("%w: got %d counts, want %d", ErrShape, len(counts), ChannelCount)
	}

	input := make([]float32, len(counts))
	for i, c := range counts {
		input[i] = float32(c)
	}
	out, err := model.Predict(ctx, input, InputShape())
	if err != nil {
		return PredictionTable{}, fmt.Errorf("model predict: %w", err)
	}
	catalog := Catalog()
	if len(out.Scores) < len(catalog) || len(out.Regression) < len(catalog) {
		return PredictionTable{}, fmt.Errorf("%w: %d scores and %d activities for %d nuclides",
			ErrOutputShape, len(out.Scores), len(out.Regression), len(catalog))
	}

	total, err := stats.Sum(counts)
	if err != nil {
		return PredictionTable{}, fmt.Errorf("sum counts: %w", err)
	}
	uncertainty := math.Sqrt(total)

	rows := make([]Prediction, len(catalog))
	for i, n := range catalog {
		rows[i] = Prediction{
			Label:       n.Name,
			Score:       round2(float64(out.Scores[n.Index]) * 100),
			Activity:    round2(math.Exp(float64(out.Regression[n.Index])) - 1),
			Uncertainty: uncertainty,
		}
	}
	return PredictionTable{ModelID: model.ModelID(), Rows: rows}, nil
}

// round2 rounds half to even at two decimals. Non-finite values pass through.
func round2(x float64) float64 {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return x
	}
	return math.RoundToEven(x*100) / 100
}
