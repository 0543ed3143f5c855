package app

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"gonum.org/v1/gonum/mat"

	"bookingeda/adapters/tabular"
	"bookingeda/domain/core"
	"bookingeda/domain/table"
	"bookingeda/internal"
	"bookingeda/internal/config"
	"bookingeda/internal/errors"
	"bookingeda/internal/modelmatrix"
	"bookingeda/internal/preprocessing"
	"bookingeda/internal/profiling"
	"bookingeda/internal/timeseries"
	"bookingeda/ports"
)

// PipelineService runs the preparation stages and the analyses built on
// them. The repository is optional; without one nothing is persisted.
type PipelineService struct {
	cfg  *config.Config
	repo ports.Repository
	log  *internal.Logger
}

// NewPipelineService creates the service; repo may be nil
func NewPipelineService(cfg *config.Config, repo ports.Repository) *PipelineService {
	return &PipelineService{
		cfg:  cfg,
		repo: repo,
		log:  internal.DefaultLogger.With("pipeline"),
	}
}

// PreparedData is a cleaned, optionally clipped, feature-enriched table
type PreparedData struct {
	Table   *table.Table
	RawRows int
	Bounds  []preprocessing.Bounds
}

// TimeSeriesResult is a built summary and the run it was saved under
type TimeSeriesResult struct {
	RunID   core.RunID
	Summary *timeseries.Summary
	Saved   bool
}

// MatrixResult is a built model matrix and whether its transform was saved
type MatrixResult struct {
	Matrix *modelmatrix.Matrix
	Saved  bool
}

// Prepare cleans t, clips the configured columns and derives features
func (s *PipelineService) Prepare(t *table.Table) (*PreparedData, error) {
	cleaned := preprocessing.Clean(t, s.cfg.Preprocess)

	var bounds []preprocessing.Bounds
	if len(s.cfg.Outliers.Columns) > 0 {
		clipped, b, err := preprocessing.ClipOutliersIQR(cleaned, s.cfg.Outliers.Columns, s.cfg.Outliers.K)
		if err != nil {
			return nil, errors.Wrap(err, "clip outliers")
		}
		cleaned, bounds = clipped, b
	}

	prepared, err := preprocessing.DeriveFeatures(cleaned)
	if err != nil {
		return nil, errors.Wrap(err, "derive features")
	}

	s.log.Info("prepared %d of %d rows (%d columns)", prepared.NumRows(), t.NumRows(), prepared.NumCols())
	return &PreparedData{Table: prepared, RawRows: t.NumRows(), Bounds: bounds}, nil
}

// PrepareFile reads a CSV or XLSX file and prepares it
func (s *PipelineService) PrepareFile(path string) (*PreparedData, error) {
	t, err := tabular.Read(path)
	if err != nil {
		return nil, err
	}
	return s.Prepare(t)
}

// BuildTimeSeries aggregates a prepared table and saves the summary when a
// repository is configured
func (s *PipelineService) BuildTimeSeries(ctx context.Context, prepared *table.Table, source string) (*TimeSeriesResult, error) {
	summary, err := timeseries.Build(prepared, s.cfg.TimeSeries)
	if err != nil {
		return nil, err
	}

	res := &TimeSeriesResult{RunID: core.NewRunID(), Summary: summary}
	if s.repo != nil {
		if err := s.repo.SaveSummary(ctx, res.RunID, source, summary); err != nil {
			return nil, err
		}
		res.Saved = true
	}
	s.log.Info("time series: %d periods, %d bookings, run %s", len(summary.Periods), summary.TotalBookings(), res.RunID)
	return res, nil
}

// BuildMatrix builds the model matrix and saves the fitted transform when a
// repository is configured
func (s *PipelineService) BuildMatrix(ctx context.Context, prepared *table.Table) (*MatrixResult, error) {
	m, err := modelmatrix.Build(prepared, s.cfg.Preprocess, s.cfg.Matrix)
	if err != nil {
		return nil, err
	}

	res := &MatrixResult{Matrix: m}
	if s.repo != nil {
		if err := s.repo.SaveTransform(ctx, m.Transform); err != nil {
			return nil, err
		}
		res.Saved = true
	}
	rows, cols := m.X.Dims()
	s.log.Info("model matrix: %dx%d, transform %s", rows, cols, m.Transform.ID())
	return res, nil
}

// LoadTransform resolves ref as a transform JSON file when one exists at
// that path, otherwise as a stored transform ID. A ref that is neither an
// existing file nor a UUID is reported as a missing file.
func (s *PipelineService) LoadTransform(ctx context.Context, ref string) (*modelmatrix.Transform, error) {
	if info, err := os.Stat(ref); err == nil && !info.IsDir() {
		data, err := os.ReadFile(ref)
		if err != nil {
			return nil, errors.IOError(fmt.Sprintf("failed to read %s", ref), err)
		}
		var tr modelmatrix.Transform
		if err := json.Unmarshal(data, &tr); err != nil {
			return nil, errors.Wrapf(err, "invalid transform file %s", ref)
		}
		return &tr, nil
	}

	id, err := core.ParseTransformID(ref)
	if err != nil {
		return nil, errors.NotFound(fmt.Sprintf("transform file %q", ref))
	}
	if s.repo == nil {
		return nil, errors.ConfigInvalid("loading a transform by ID needs STORE_DRIVER and STORE_DSN")
	}
	return s.repo.LoadTransform(ctx, id)
}

// Encode applies a stored transform to a prepared table
func (s *PipelineService) Encode(prepared *table.Table, tr *modelmatrix.Transform) (*mat.Dense, error) {
	x, err := tr.Apply(prepared)
	if err != nil {
		return nil, errors.Wrapf(err, "encode with transform %s", tr.ID())
	}
	return x, nil
}

// Profile reports on a table using the configured target
func (s *PipelineService) Profile(t *table.Table, topN int) *profiling.Profile {
	return profiling.NewDataProfiler(topN).ProfileTable(t, s.cfg.Preprocess.Target)
}

// OutputPath places name under the configured output directory
func (s *PipelineService) OutputPath(name string) string {
	return filepath.Join(s.cfg.Paths.OutputDir, name)
}

// WriteJSON saves v as indented JSON, creating parent directories
func WriteJSON(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errors.Wrap(err, "failed to marshal JSON")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.IOError(fmt.Sprintf("failed to create directory for %s", path), err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.IOError(fmt.Sprintf("failed to write %s", path), err)
	}
	return nil
}
