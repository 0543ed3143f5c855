package profiling

import (
	"encoding/json"
	"math"

	"github.com/montanaflynn/stats"

	"bookingeda/domain/table"
	"bookingeda/internal/preprocessing"
)

// NumericSummary describes one numeric column over its non-missing values
type NumericSummary struct {
	Column  string  `json:"column"`
	Count   int     `json:"count"`
	Missing int     `json:"missing"`
	Mean    float64 `json:"mean"`
	StdDev  float64 `json:"std"`
	Min     float64 `json:"min"`
	Q1      float64 `json:"q1"`
	Median  float64 `json:"median"`
	Q3      float64 `json:"q3"`
	Max     float64 `json:"max"`
	// Skewness is the adjusted Fisher-Pearson coefficient; 0 below 3 values
	Skewness float64 `json:"skewness"`
	// Kurtosis is the bias-corrected excess kurtosis plus 3; 0 below 4 values
	Kurtosis float64 `json:"kurtosis"`
	// Outliers counts values outside the default IQR fences
	Outliers int `json:"outliers"`
}

// Describe summarises a numeric column. Statistics of an all-missing
// column are NaN, as is the standard deviation of a single value. NaN
// statistics marshal to JSON null.
func Describe(col *table.Column) NumericSummary {
	data := col.NonMissingFloats()
	s := NumericSummary{
		Column:  col.Name,
		Count:   len(data),
		Missing: col.MissingCount(),
	}
	if len(data) == 0 {
		nan := math.NaN()
		s.Mean, s.StdDev, s.Min, s.Q1, s.Median, s.Q3, s.Max = nan, nan, nan, nan, nan, nan, nan
		s.Skewness, s.Kurtosis = nan, nan
		return s
	}

	s.Mean, _ = stats.Mean(data)
	s.Min, _ = stats.Min(data)
	s.Max, _ = stats.Max(data)
	s.Median, _ = stats.Median(data)
	// sample standard deviation, NaN for a single value
	s.StdDev = math.NaN()
	if len(data) > 1 {
		s.StdDev, _ = stats.StandardDeviationSample(data)
	}

	// quartiles match the ones used for IQR clipping
	lower, upper, q1, q3, _ := preprocessing.IQRBounds(data, preprocessing.DefaultIQRMultiplier)
	s.Q1, s.Q3 = q1, q3
	s.Outliers = detectOutliers(data, lower, upper)

	popStd, _ := stats.StandardDeviationPopulation(data)
	if popStd > 0 {
		s.Skewness = calculateSkewness(data, s.Mean, popStd)
		s.Kurtosis = calculateKurtosis(data, s.Mean, popStd)
	}
	return s
}

// MarshalJSON writes NaN and infinite statistics as null
func (s NumericSummary) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Column   string   `json:"column"`
		Count    int      `json:"count"`
		Missing  int      `json:"missing"`
		Mean     *float64 `json:"mean"`
		StdDev   *float64 `json:"std"`
		Min      *float64 `json:"min"`
		Q1       *float64 `json:"q1"`
		Median   *float64 `json:"median"`
		Q3       *float64 `json:"q3"`
		Max      *float64 `json:"max"`
		Skewness *float64 `json:"skewness"`
		Kurtosis *float64 `json:"kurtosis"`
		Outliers int      `json:"outliers"`
	}{
		Column:   s.Column,
		Count:    s.Count,
		Missing:  s.Missing,
		Mean:     finite(s.Mean),
		StdDev:   finite(s.StdDev),
		Min:      finite(s.Min),
		Q1:       finite(s.Q1),
		Median:   finite(s.Median),
		Q3:       finite(s.Q3),
		Max:      finite(s.Max),
		Skewness: finite(s.Skewness),
		Kurtosis: finite(s.Kurtosis),
		Outliers: s.Outliers,
	})
}

func finite(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

// calculateSkewness computes sample skewness using the adjusted Fisher-Pearson coefficient
func calculateSkewness(data []float64, mean, stdDev float64) float64 {
	if len(data) < 3 {
		return 0
	}

	n := float64(len(data))
	sumCubedDeviations := 0.0

	for _, x := range data {
		deviation := (x - mean) / stdDev
		sumCubedDeviations += deviation * deviation * deviation
	}

	skewness := sumCubedDeviations / n

	// Bias correction for sample skewness
	correction := math.Sqrt(n*(n-1)) / (n - 2)
	return skewness * correction
}

// calculateKurtosis computes the bias-corrected sample excess kurtosis
// G2 = ((n+1)*g2 + 6)*(n-1)/((n-2)*(n-3)) and returns G2 + 3
func calculateKurtosis(data []float64, mean, stdDev float64) float64 {
	if len(data) < 4 {
		return 0
	}

	n := float64(len(data))
	sumFourthDeviations := 0.0

	for _, x := range data {
		deviation := (x - mean) / stdDev
		sumFourthDeviations += deviation * deviation * deviation * deviation
	}

	g2 := sumFourthDeviations/n - 3
	excessKurtosis := ((n+1)*g2 + 6) * (n - 1) / ((n - 2) * (n - 3))

	return excessKurtosis + 3
}

// detectOutliers counts values outside [lower, upper]
func detectOutliers(data []float64, lower, upper float64) int {
	outlierCount := 0
	for _, x := range data {
		if x < lower || x > upper {
			outlierCount++
		}
	}
	return outlierCount
}
