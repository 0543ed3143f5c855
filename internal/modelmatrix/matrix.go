// Package modelmatrix turns a prepared booking table into a numeric feature
// matrix, a target vector and a reusable fitted encoding.
package modelmatrix

import (
	"sort"

	"gonum.org/v1/gonum/mat"

	"bookingeda/domain/core"
	"bookingeda/domain/table"
	"bookingeda/internal"
	"bookingeda/internal/errors"
	"bookingeda/internal/preprocessing"
)

// Matrix is the model-ready output of Build
type Matrix struct {
	X       *mat.Dense
	Columns []string
	Target  []int
	// TargetClasses maps a code back to its label when the target column was
	// textual; nil for numeric targets
	TargetClasses []string
	Transform     *Transform
}

// Build splits t into features and target, fits an encoding on the features
// and applies it. The configured target column must be present.
func Build(t *table.Table, cfg preprocessing.Config, opts Options) (*Matrix, error) {
	log := internal.DefaultLogger.With("modelmatrix")

	target, ok := t.Column(cfg.Target)
	if !ok {
		return nil, errors.MissingColumn(cfg.Target, "target column not found", core.ErrTargetMissing)
	}
	codes, classes, err := encodeTarget(target)
	if err != nil {
		return nil, err
	}

	drop := append([]string{cfg.Target}, cfg.DropColumns...)
	features := t.Drop(drop...)

	tr, err := Fit(features, opts)
	if err != nil {
		return nil, errors.Wrap(err, "fit model-matrix encoding")
	}
	x, err := tr.Apply(features)
	if err != nil {
		return nil, errors.Wrap(err, "apply model-matrix encoding")
	}

	rows, cols := x.Dims()
	log.Debug("built %dx%d matrix (%d categorical, %d numeric inputs), transform %s",
		rows, cols, len(tr.categorical), len(tr.numeric), tr.ID())

	return &Matrix{
		X:             x,
		Columns:       tr.FeatureNames(),
		Target:        codes,
		TargetClasses: classes,
		Transform:     tr,
	}, nil
}

// encodeTarget truncates numeric targets to int and codes textual targets by
// sorted label order. Missing targets cannot be coded.
func encodeTarget(col *table.Column) ([]int, []string, error) {
	codes := make([]int, col.Len())
	for i, v := range col.Values {
		if v.IsMissing {
			return nil, nil, errors.InvalidInputf(core.ErrInvalidTarget, "target %q is missing at row %d", col.Name, i)
		}
	}

	switch col.Type {
	case table.ValueTypeNumeric:
		for i, v := range col.Values {
			codes[i] = int(v.AsFloat64())
		}
		return codes, nil, nil
	case table.ValueTypeString:
		seen := make(map[string]bool)
		var classes []string
		for _, v := range col.Values {
			if !seen[v.Key()] {
				seen[v.Key()] = true
				classes = append(classes, v.Key())
			}
		}
		sort.Strings(classes)
		index := make(map[string]int, len(classes))
		for i, c := range classes {
			index[c] = i
		}
		for i, v := range col.Values {
			codes[i] = index[v.Key()]
		}
		return codes, classes, nil
	}
	return nil, nil, errors.InvalidInputf(core.ErrInvalidTarget, "target %q has type %s", col.Name, col.Type)
}
