// Package evaluation computes the metrics used to judge models built from
// the prepared booking data: binary classification scores, clustering
// silhouettes, association-rule rankings and forecast error.
package evaluation

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/mat"

	"bookingeda/domain/core"
	"bookingeda/internal/errors"
	"bookingeda/internal/utils"
)

// Metrics is the binary classification report. Precision, recall and F1
// are 0 when their denominator is 0.
type Metrics struct {
	Accuracy  float64 `json:"accuracy"`
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1        float64 `json:"f1"`
}

// EvalClassification scores binary predictions with 1 as the positive class
func EvalClassification(yTrue, yPred []int) (Metrics, error) {
	if err := checkPairs(len(yTrue), len(yPred)); err != nil {
		return Metrics{}, err
	}

	var tp, tn, fp, fn float64
	for i := range yTrue {
		t, p := yTrue[i], yPred[i]
		if (t != 0 && t != 1) || (p != 0 && p != 1) {
			return Metrics{}, errors.InvalidInputf(core.ErrNonBinaryOutcome, "row %d: true=%d pred=%d", i, t, p)
		}
		switch {
		case t == 1 && p == 1:
			tp++
		case t == 0 && p == 0:
			tn++
		case t == 0 && p == 1:
			fp++
		default:
			fn++
		}
	}

	m := Metrics{
		Accuracy:  (tp + tn) / float64(len(yTrue)),
		Precision: utils.SafeDiv(tp, tp+fp, 0),
		Recall:    utils.SafeDiv(tp, tp+fn, 0),
	}
	m.F1 = utils.SafeDiv(2*m.Precision*m.Recall, m.Precision+m.Recall, 0)
	return m, nil
}

// ConfusionMatrix counts true labels (rows) against predicted labels
// (columns), both in sorted label order
type ConfusionMatrix struct {
	Labels []int
	Counts *mat.Dense
}

// Count returns how often true label t was predicted as p
func (c *ConfusionMatrix) Count(t, p int) int {
	i, j := c.indexOf(t), c.indexOf(p)
	if i < 0 || j < 0 {
		return 0
	}
	return int(c.Counts.At(i, j))
}

func (c *ConfusionMatrix) indexOf(label int) int {
	i := sort.SearchInts(c.Labels, label)
	if i < len(c.Labels) && c.Labels[i] == label {
		return i
	}
	return -1
}

// Confusion builds the confusion matrix over the union of observed labels
func Confusion(yTrue, yPred []int) (*ConfusionMatrix, error) {
	if err := checkPairs(len(yTrue), len(yPred)); err != nil {
		return nil, err
	}

	seen := make(map[int]bool)
	for i := range yTrue {
		seen[yTrue[i]] = true
		seen[yPred[i]] = true
	}
	labels := make([]int, 0, len(seen))
	for l := range seen {
		labels = append(labels, l)
	}
	sort.Ints(labels)

	cm := &ConfusionMatrix{Labels: labels, Counts: mat.NewDense(len(labels), len(labels), nil)}
	for i := range yTrue {
		r, c := cm.indexOf(yTrue[i]), cm.indexOf(yPred[i])
		cm.Counts.Set(r, c, cm.Counts.At(r, c)+1)
	}
	return cm, nil
}

// ModelResult is one row of a model comparison
type ModelResult struct {
	Model string `json:"model"`
	Metrics
}

// CompareModels ranks models by F1, then accuracy, both descending. Ties
// keep name order.
func CompareModels(results map[string]Metrics) []ModelResult {
	out := make([]ModelResult, 0, len(results))
	for name, m := range results {
		out = append(out, ModelResult{Model: name, Metrics: m})
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.F1 != b.F1 {
			return a.F1 > b.F1
		}
		if a.Accuracy != b.Accuracy {
			return a.Accuracy > b.Accuracy
		}
		return a.Model < b.Model
	})
	return out
}

func checkPairs(nTrue, nPred int) error {
	if nTrue != nPred {
		return errors.InvalidInputf(core.ErrLengthMismatch, "%d true labels but %d predictions", nTrue, nPred)
	}
	if nTrue == 0 {
		return errors.InvalidInputf(core.ErrInsufficientData, "no labels to evaluate")
	}
	return nil
}

// String renders the report on one line
func (m Metrics) String() string {
	return fmt.Sprintf("accuracy=%.4f precision=%.4f recall=%.4f f1=%.4f", m.Accuracy, m.Precision, m.Recall, m.F1)
}
