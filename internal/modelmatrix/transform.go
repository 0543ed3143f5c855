package modelmatrix

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/mat"

	"bookingeda/domain/core"
	"bookingeda/domain/table"
	"bookingeda/internal/errors"
)

// Options controls how numeric columns are encoded
type Options struct {
	ScaleNumeric bool `json:"scale_numeric"`
}

// CategoricalEncoding is the frozen one-hot vocabulary of one column
type CategoricalEncoding struct {
	Column     string   `json:"column"`
	Categories []string `json:"categories"`
}

// NumericEncoding holds the scaling parameters of one numeric column.
// Unscaled columns pass through unchanged.
type NumericEncoding struct {
	Column string  `json:"column"`
	Scaled bool    `json:"scaled"`
	Mean   float64 `json:"mean"`
	Scale  float64 `json:"scale"`
}

type categorical struct {
	CategoricalEncoding
	index map[string]int
}

// Transform is a fitted encoding: one-hot vocabularies for categorical
// columns followed by passthrough or standardised numeric columns. It is
// read-only after fitting, so Apply may be called concurrently.
type Transform struct {
	id          core.TransformID
	fittedAt    time.Time
	categorical []categorical
	numeric     []NumericEncoding
	names       []string
}

// Fit learns the encoding of a feature table. String and timestamp columns
// are categorical; numeric columns are numeric. Categories are the sorted
// distinct non-missing values.
func Fit(features *table.Table, opts Options) (*Transform, error) {
	if features.NumRows() == 0 || features.NumCols() == 0 {
		return nil, errors.InvalidInputf(core.ErrInsufficientData,
			"cannot fit an encoding on %d rows x %d columns", features.NumRows(), features.NumCols())
	}

	var cats []CategoricalEncoding
	var nums []NumericEncoding
	for _, name := range features.ColumnNames() {
		col, _ := features.Column(name)
		switch col.Type {
		case table.ValueTypeNumeric:
			nums = append(nums, fitNumeric(col, opts.ScaleNumeric))
		default:
			cats = append(cats, fitCategorical(col))
		}
	}

	return newTransform(core.NewTransformID(), time.Now().UTC(), cats, nums), nil
}

func fitCategorical(col *table.Column) CategoricalEncoding {
	seen := make(map[string]bool)
	categories := make([]string, 0)
	for _, v := range col.Values {
		if v.IsMissing {
			continue
		}
		k := v.Key()
		if !seen[k] {
			seen[k] = true
			categories = append(categories, k)
		}
	}
	sort.Strings(categories)
	return CategoricalEncoding{Column: col.Name, Categories: categories}
}

// fitNumeric uses the population standard deviation; a constant or empty
// column gets scale 1.
func fitNumeric(col *table.Column, scale bool) NumericEncoding {
	enc := NumericEncoding{Column: col.Name, Scaled: scale, Mean: 0, Scale: 1}
	if !scale {
		return enc
	}
	values := col.NonMissingFloats()
	if mean, err := stats.Mean(values); err == nil {
		enc.Mean = mean
	}
	if sd, err := stats.StandardDeviationPopulation(values); err == nil && sd > 0 {
		enc.Scale = sd
	}
	return enc
}

func newTransform(id core.TransformID, fittedAt time.Time, cats []CategoricalEncoding, nums []NumericEncoding) *Transform {
	tr := &Transform{id: id, fittedAt: fittedAt, numeric: nums}
	for _, c := range cats {
		index := make(map[string]int, len(c.Categories))
		for i, k := range c.Categories {
			index[k] = i
			tr.names = append(tr.names, c.Column+"_"+k)
		}
		tr.categorical = append(tr.categorical, categorical{CategoricalEncoding: c, index: index})
	}
	for _, n := range nums {
		tr.names = append(tr.names, n.Column)
	}
	return tr
}

// ID identifies the fitted transform
func (tr *Transform) ID() core.TransformID { return tr.id }

// FittedAt is when the transform was fitted
func (tr *Transform) FittedAt() time.Time { return tr.fittedAt }

// FeatureNames returns the output column names: one per category, then one
// per numeric column
func (tr *Transform) FeatureNames() []string {
	return append([]string(nil), tr.names...)
}

// Categorical returns a copy of the one-hot vocabularies
func (tr *Transform) Categorical() []CategoricalEncoding {
	out := make([]CategoricalEncoding, len(tr.categorical))
	for i, c := range tr.categorical {
		out[i] = CategoricalEncoding{Column: c.Column, Categories: append([]string(nil), c.Categories...)}
	}
	return out
}

// Numeric returns a copy of the numeric encodings
func (tr *Transform) Numeric() []NumericEncoding {
	return append([]NumericEncoding(nil), tr.numeric...)
}

// InputColumns lists the columns Apply reads, in encoding order
func (tr *Transform) InputColumns() []string {
	cols := make([]string, 0, len(tr.categorical)+len(tr.numeric))
	for _, c := range tr.categorical {
		cols = append(cols, c.Column)
	}
	for _, n := range tr.numeric {
		cols = append(cols, n.Column)
	}
	return cols
}

// Fingerprint hashes the vocabulary and parameters. Two transforms with the
// same fingerprint encode every table identically.
func (tr *Transform) Fingerprint() core.Hash {
	vocab := make(map[string][]string, len(tr.categorical))
	for _, c := range tr.categorical {
		vocab[c.Column] = c.Categories
	}
	params := append([]string(nil), tr.names...)
	for _, n := range tr.numeric {
		params = append(params, strings.Join([]string{
			n.Column,
			strconv.FormatBool(n.Scaled),
			strconv.FormatFloat(n.Mean, 'g', -1, 64),
			strconv.FormatFloat(n.Scale, 'g', -1, 64),
		}, ":"))
	}
	return core.ComputeVocabularyHash(vocab, params)
}

// Apply encodes a table with the fitted vocabulary and parameters. Values
// outside the vocabulary and missing categorical cells encode as all zeros;
// missing numeric cells become NaN. Extra columns are ignored. A fitted
// column absent from t is a configuration error.
func (tr *Transform) Apply(t *table.Table) (*mat.Dense, error) {
	for _, name := range tr.InputColumns() {
		if !t.Has(name) {
			return nil, errors.MissingColumn(name, "column was present when the encoding was fitted", core.ErrFeatureMissing)
		}
	}
	if t.NumRows() == 0 || len(tr.names) == 0 {
		return nil, errors.InvalidInputf(core.ErrInsufficientData,
			"cannot encode %d rows into %d output columns", t.NumRows(), len(tr.names))
	}

	x := mat.NewDense(t.NumRows(), len(tr.names), nil)
	offset := 0
	for _, c := range tr.categorical {
		col, _ := t.Column(c.Column)
		for row, v := range col.Values {
			if v.IsMissing {
				continue
			}
			if j, ok := c.index[v.Key()]; ok {
				x.Set(row, offset+j, 1)
			}
		}
		offset += len(c.Categories)
	}

	for _, n := range tr.numeric {
		col, _ := t.Column(n.Column)
		for row, v := range col.Values {
			f, err := numericCell(v)
			if err != nil {
				return nil, errors.InvalidInputf(core.ErrIncompatibleType, "column %q row %d: %v", n.Column, row, err)
			}
			if n.Scaled {
				f = (f - n.Mean) / n.Scale
			}
			x.Set(row, offset, f)
		}
		offset++
	}

	return x, nil
}

func numericCell(v table.Value) (float64, error) {
	switch {
	case v.IsMissing, v.IsNumeric():
		return v.AsFloat64(), nil
	case v.IsString():
		f, err := strconv.ParseFloat(strings.TrimSpace(v.Key()), 64)
		if err != nil {
			return 0, fmt.Errorf("%q is not a number", v.Key())
		}
		return f, nil
	}
	return 0, fmt.Errorf("%s value is not a number", v.Type)
}

type transformJSON struct {
	ID          string                `json:"id"`
	FittedAt    time.Time             `json:"fitted_at"`
	Categorical []CategoricalEncoding `json:"categorical"`
	Numeric     []NumericEncoding     `json:"numeric"`
	Fingerprint string                `json:"fingerprint"`
}

// MarshalJSON stores the transform independently of any table
func (tr *Transform) MarshalJSON() ([]byte, error) {
	return json.Marshal(transformJSON{
		ID:          tr.id.String(),
		FittedAt:    tr.fittedAt,
		Categorical: tr.Categorical(),
		Numeric:     tr.Numeric(),
		Fingerprint: tr.Fingerprint().String(),
	})
}

// UnmarshalJSON restores a stored transform and verifies its fingerprint
func (tr *Transform) UnmarshalJSON(data []byte) error {
	var raw transformJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	id, err := core.ParseTransformID(raw.ID)
	if err != nil {
		return errors.InvalidInput(fmt.Sprintf("stored transform: %v", err))
	}
	for _, n := range raw.Numeric {
		if n.Scaled && n.Scale == 0 {
			return errors.InvalidInput(fmt.Sprintf("stored transform: column %q has zero scale", n.Column))
		}
	}

	restored := newTransform(id, raw.FittedAt, raw.Categorical, raw.Numeric)
	if raw.Fingerprint != "" && restored.Fingerprint().String() != raw.Fingerprint {
		return errors.InvalidInput("stored transform fingerprint does not match its contents")
	}
	*tr = *restored
	return nil
}
