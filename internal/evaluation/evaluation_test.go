package evaluation

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"bookingeda/domain/core"
	"bookingeda/domain/table"
)

func TestEvalClassification(t *testing.T) {
	yTrue := []int{1, 0, 1, 1, 0, 0}
	yPred := []int{1, 0, 0, 1, 1, 0}

	m, err := EvalClassification(yTrue, yPred)
	require.NoError(t, err)
	assert.InDelta(t, 4.0/6, m.Accuracy, 1e-12)
	assert.InDelta(t, 2.0/3, m.Precision, 1e-12)
	assert.InDelta(t, 2.0/3, m.Recall, 1e-12)
	assert.InDelta(t, 2.0/3, m.F1, 1e-12)
}

func TestEvalClassification_ZeroDivision(t *testing.T) {
	m, err := EvalClassification([]int{0, 0, 1}, []int{0, 0, 0})
	require.NoError(t, err)
	assert.Equal(t, 0.0, m.Precision)
	assert.Equal(t, 0.0, m.Recall)
	assert.Equal(t, 0.0, m.F1)
	assert.InDelta(t, 2.0/3, m.Accuracy, 1e-12)
}

func TestEvalClassification_Errors(t *testing.T) {
	_, err := EvalClassification([]int{1, 0}, []int{1})
	assert.ErrorIs(t, err, core.ErrLengthMismatch)

	_, err = EvalClassification(nil, nil)
	assert.ErrorIs(t, err, core.ErrInsufficientData)

	_, err = EvalClassification([]int{1, 2}, []int{1, 0})
	assert.ErrorIs(t, err, core.ErrNonBinaryOutcome)
}

func TestConfusion(t *testing.T) {
	cm, err := Confusion([]int{1, 0, 1, 1, 0, 2}, []int{1, 0, 0, 1, 1, 2})
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 2}, cm.Labels)
	assert.Equal(t, 1, cm.Count(0, 0))
	assert.Equal(t, 1, cm.Count(0, 1))
	assert.Equal(t, 1, cm.Count(1, 0))
	assert.Equal(t, 2, cm.Count(1, 1))
	assert.Equal(t, 1, cm.Count(2, 2))
	assert.Equal(t, 0, cm.Count(5, 1))
	assert.Equal(t, 6.0, mat.Sum(cm.Counts))
}

func TestCompareModels(t *testing.T) {
	ranked := CompareModels(map[string]Metrics{
		"LogReg":       {Accuracy: 0.80, F1: 0.70},
		"DecisionTree": {Accuracy: 0.82, F1: 0.70},
		"RandomForest": {Accuracy: 0.86, F1: 0.78},
		"Baseline":     {Accuracy: 0.63, F1: 0},
	})
	names := make([]string, len(ranked))
	for i, r := range ranked {
		names[i] = r.Model
	}
	assert.Equal(t, []string{"RandomForest", "DecisionTree", "LogReg", "Baseline"}, names)
}

func TestSilhouette(t *testing.T) {
	x := mat.NewDense(4, 1, []float64{0, 1, 10, 11})

	s, err := Silhouette(x, []int{0, 0, 1, 1})
	require.NoError(t, err)
	assert.InDelta(t, (9.5/10.5+8.5/9.5)/2, s, 1e-12)

	s, err = Silhouette(x, []int{3, 3, 3, 3})
	require.NoError(t, err)
	assert.True(t, math.IsNaN(s), "one cluster")

	s, err = Silhouette(x, []int{0, 1, 2, 3})
	require.NoError(t, err)
	assert.True(t, math.IsNaN(s), "every row its own cluster")

	s, err = Silhouette(x, []int{0, 0, 0, 1})
	require.NoError(t, err)
	assert.Less(t, s, 1.0)

	_, err = Silhouette(x, []int{0, 1})
	assert.ErrorIs(t, err, core.ErrLengthMismatch)
}

// bandClusterer labels rows by position, which suits pre-sorted 1-D data
type bandClusterer struct{ k int }

func (c bandClusterer) FitPredict(x mat.Matrix) ([]int, error) {
	n, _ := x.Dims()
	labels := make([]int, n)
	for i := range labels {
		labels[i] = i * c.k / n
	}
	return labels, nil
}

type inertiaClusterer struct{ bandClusterer }

func (inertiaClusterer) Inertia() float64 { return 1 }

func TestSilhouetteByK(t *testing.T) {
	x := mat.NewDense(4, 1, []float64{0, 1, 10, 11})
	scores, err := SilhouetteByK(context.Background(), x, []int{2, 4}, func(k int) Clusterer {
		if k == 2 {
			return inertiaClusterer{bandClusterer{k}}
		}
		return bandClusterer{k}
	})
	require.NoError(t, err)
	require.Len(t, scores, 2)

	assert.Equal(t, 2, scores[0].K)
	assert.Greater(t, scores[0].Silhouette, 0.8)
	assert.Equal(t, 1.0, scores[0].Inertia)

	assert.True(t, math.IsNaN(scores[1].Silhouette))
	assert.True(t, math.IsNaN(scores[1].Inertia))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = SilhouetteByK(ctx, x, []int{2}, func(k int) Clusterer { return bandClusterer{k} })
	assert.ErrorIs(t, err, context.Canceled)
}

func rules() []Rule {
	return []Rule{
		{Antecedents: []string{"City Hotel"}, Consequents: []string{"canceled"}, Support: 0.20, Confidence: 0.42, Lift: 1.13},
		{Antecedents: []string{"no deposit"}, Consequents: []string{"check-out"}, Support: 0.50, Confidence: 0.71, Lift: 1.02},
		{Antecedents: []string{"non refund"}, Consequents: []string{"canceled"}, Support: 0.005, Confidence: 0.99, Lift: 2.70},
		{Antecedents: []string{"online TA"}, Consequents: []string{"canceled"}, Support: 0.18, Confidence: 0.37, Lift: 1.13},
	}
}

func TestSummarizeRules(t *testing.T) {
	top, err := SummarizeRules(rules(), 3, SortByLift)
	require.NoError(t, err)
	require.Len(t, top, 3)
	assert.Equal(t, "non refund", top[0].Antecedents[0])
	assert.Equal(t, "City Hotel", top[1].Antecedents[0], "ties keep input order")
	assert.Equal(t, "online TA", top[2].Antecedents[0])

	bySupport, err := SummarizeRules(rules(), 10, SortBySupport)
	require.NoError(t, err)
	assert.Len(t, bySupport, 4)
	assert.Equal(t, "no deposit", bySupport[0].Antecedents[0])

	_, err = SummarizeRules(rules(), 3, "conviction")
	assert.Error(t, err)
}

func TestFilterRules(t *testing.T) {
	kept := FilterRules(rules(), DefaultRuleFilter())
	require.Len(t, kept, 2)
	assert.Equal(t, "City Hotel", kept[0].Antecedents[0])
	assert.Equal(t, "online TA", kept[1].Antecedents[0])

	assert.Len(t, FilterRules(rules(), RuleFilter{}), 4)
}

func TestTrainTestSplit(t *testing.T) {
	dates := make([]table.Value, 10)
	ids := make([]float64, 10)
	for i := range dates {
		// reverse chronological input
		dates[i] = table.NewTimestampValue(time.Date(2016, time.Month(10-i), 1, 0, 0, 0, 0, time.UTC))
		ids[i] = float64(i)
	}
	tbl := table.MustFromColumns(
		table.NewColumn("date", table.ValueTypeTimestamp, dates),
		table.NumericColumn("id", ids...),
	)

	train, test, err := TrainTestSplit(tbl, "date", DefaultTestRatio)
	require.NoError(t, err)
	assert.Equal(t, 8, train.NumRows())
	assert.Equal(t, 2, test.NumRows())

	lastTrain, _ := train.Get(7, "date").AsTime()
	firstTest, _ := test.Get(0, "date").AsTime()
	assert.True(t, lastTrain.Before(firstTest))
	assert.Equal(t, 0.0, test.Get(1, "id").AsFloat64())

	_, _, err = TrainTestSplit(tbl, "arrival", 0.2)
	assert.ErrorIs(t, err, core.ErrDateKeyMissing)

	_, _, err = TrainTestSplit(tbl, "date", 1.5)
	assert.Error(t, err)
}

func TestMAPE(t *testing.T) {
	got, err := MAPE([]float64{100, 0, 50}, []float64{110, 2, 50})
	require.NoError(t, err)
	assert.InDelta(t, (0.1+2+0)/3, got, 1e-12)

	_, err = MAPE([]float64{1}, nil)
	assert.ErrorIs(t, err, core.ErrLengthMismatch)

	_, err = MAPE(nil, nil)
	assert.ErrorIs(t, err, core.ErrInsufficientData)
}
