package evaluation

import (
	"fmt"
	"math"

	"github.com/montanaflynn/stats"

	"bookingeda/domain/core"
	"bookingeda/domain/table"
	"bookingeda/internal/errors"
)

// DefaultTestRatio is the share of rows held out by TrainTestSplit
const DefaultTestRatio = 0.2

// TrainTestSplit orders t by dateCol and cuts it so the last testRatio of
// rows form the test set. The training set has floor((1-testRatio)*n) rows.
func TrainTestSplit(t *table.Table, dateCol string, testRatio float64) (train, test *table.Table, err error) {
	if !t.Has(dateCol) {
		return nil, nil, errors.MissingColumn(dateCol, "chronological split needs a date column", core.ErrDateKeyMissing)
	}
	if math.IsNaN(testRatio) || testRatio < 0 || testRatio > 1 {
		return nil, nil, errors.InvalidInput(fmt.Sprintf("test ratio must be in [0, 1], got %v", testRatio))
	}

	sorted, err := t.SortedBy(dateCol)
	if err != nil {
		return nil, nil, errors.Wrap(err, "sort by date")
	}
	cut := int(math.Floor((1 - testRatio) * float64(sorted.NumRows())))
	return sorted.Slice(0, cut), sorted.Slice(cut, sorted.NumRows()), nil
}

// MAPE is the mean absolute percentage error as a fraction. Zero truths
// use a denominator of 1.
func MAPE(yTrue, yPred []float64) (float64, error) {
	if len(yTrue) != len(yPred) {
		return math.NaN(), errors.InvalidInputf(core.ErrLengthMismatch, "%d truths but %d predictions", len(yTrue), len(yPred))
	}
	errs := make(stats.Float64Data, len(yTrue))
	for i, t := range yTrue {
		denom := t
		if denom == 0 {
			denom = 1
		}
		errs[i] = math.Abs((t - yPred[i]) / denom)
	}
	m, err := stats.Mean(errs)
	if err != nil {
		return math.NaN(), errors.InvalidInputf(core.ErrInsufficientData, "no values to score")
	}
	return m, nil
}
