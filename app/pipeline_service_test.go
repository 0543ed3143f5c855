package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"bookingeda/adapters/tabular"
	"bookingeda/domain/table"
	"bookingeda/internal/config"
	"bookingeda/internal/errors"
	"bookingeda/internal/preprocessing"
	"bookingeda/internal/testkit"
	"bookingeda/internal/timeseries"
)

func testConfig(t *testing.T) *config.Config {
	return &config.Config{
		Preprocess: preprocessing.DefaultConfig().WithDropColumns("reservation_status"),
		Outliers:   config.OutlierConfig{Columns: []string{"adr", "lead_time"}, K: preprocessing.DefaultIQRMultiplier},
		TimeSeries: timeseries.DefaultOptions(),
		Paths:      config.PathConfig{OutputDir: t.TempDir()},
		LogLevel:   "INFO",
	}
}

func generatedFile(t *testing.T) string {
	gen := testkit.DefaultBookingConfig()
	gen.Rows = 300
	raw, err := testkit.NewBookingDataGenerator(gen).GenerateTable()
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "hotel_bookings.csv")
	require.NoError(t, tabular.Write(raw, path))
	return path
}

func TestPipelineService_PrepareFile(t *testing.T) {
	svc := NewPipelineService(testConfig(t), nil)

	prepared, err := svc.PrepareFile(generatedFile(t))
	require.NoError(t, err)

	assert.Equal(t, 300, prepared.RawRows)
	assert.LessOrEqual(t, prepared.Table.NumRows(), prepared.RawRows)
	assert.Len(t, prepared.Bounds, 2)
	assert.True(t, prepared.Table.HasAll(preprocessing.ColTotalGuests, preprocessing.ColArrivalYearMonth))

	adr, _ := prepared.Table.Column("adr")
	for _, v := range adr.Floats() {
		assert.LessOrEqual(t, v, prepared.Bounds[0].Upper)
	}
}

func TestPipelineService_PrepareFile_NotFound(t *testing.T) {
	svc := NewPipelineService(testConfig(t), nil)

	_, err := svc.PrepareFile(filepath.Join(t.TempDir(), "missing.csv"))
	require.Error(t, err)
	assert.Equal(t, errors.CodeNotFound, errors.GetCode(err))
}

func TestPipelineService_BuildTimeSeries(t *testing.T) {
	ctx := context.Background()
	repo := testkit.NewInMemoryStore()
	svc := NewPipelineService(testConfig(t), repo)

	prepared, err := svc.PrepareFile(generatedFile(t))
	require.NoError(t, err)

	res, err := svc.BuildTimeSeries(ctx, prepared.Table, "hotel_bookings.csv")
	require.NoError(t, err)
	assert.True(t, res.Saved)
	assert.Equal(t, prepared.Table.NumRows(), res.Summary.TotalBookings())
	assert.Equal(t, 1, repo.SummaryCount())

	stored, err := repo.LoadSummary(ctx, res.RunID)
	require.NoError(t, err)
	assert.Equal(t, res.Summary, stored)

	unsaved, err := NewPipelineService(testConfig(t), nil).BuildTimeSeries(ctx, prepared.Table, "x")
	require.NoError(t, err)
	assert.False(t, unsaved.Saved)
	assert.NotEqual(t, res.RunID, unsaved.RunID)
}

func TestPipelineService_MatrixAndEncode(t *testing.T) {
	ctx := context.Background()
	repo := testkit.NewInMemoryStore()
	svc := NewPipelineService(testConfig(t), repo)

	prepared, err := svc.PrepareFile(generatedFile(t))
	require.NoError(t, err)

	res, err := svc.BuildMatrix(ctx, prepared.Table)
	require.NoError(t, err)
	assert.True(t, res.Saved)

	// by stored ID
	tr, err := svc.LoadTransform(ctx, res.Matrix.Transform.ID().String())
	require.NoError(t, err)
	x, err := svc.Encode(prepared.Table, tr)
	require.NoError(t, err)
	assert.True(t, mat.Equal(res.Matrix.X, x))

	// by file
	path := svc.OutputPath("transform.json")
	require.NoError(t, WriteJSON(path, res.Matrix.Transform))
	fromFile, err := NewPipelineService(testConfig(t), nil).LoadTransform(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, res.Matrix.Transform.ID(), fromFile.ID())
	assert.Equal(t, res.Matrix.Transform.FeatureNames(), fromFile.FeatureNames())
}

func TestPipelineService_LoadTransform_NeedsStore(t *testing.T) {
	svc := NewPipelineService(testConfig(t), nil)

	_, err := svc.LoadTransform(context.Background(), "0192a0d4-0000-7000-8000-000000000000")
	require.Error(t, err)
	assert.Equal(t, errors.CodeConfigInvalid, errors.GetCode(err))
}

func TestPipelineService_LoadTransform_MistypedPath(t *testing.T) {
	svc := NewPipelineService(testConfig(t), testkit.NewInMemoryStore())

	_, err := svc.LoadTransform(context.Background(), filepath.Join(t.TempDir(), "transfrom.json"))
	require.Error(t, err)
	assert.Equal(t, errors.CodeNotFound, errors.GetCode(err))
	assert.Contains(t, err.Error(), "transfrom.json")
}

func TestPipelineService_Encode_MissingColumn(t *testing.T) {
	ctx := context.Background()
	svc := NewPipelineService(testConfig(t), nil)

	prepared, err := svc.PrepareFile(generatedFile(t))
	require.NoError(t, err)
	res, err := svc.BuildMatrix(ctx, prepared.Table)
	require.NoError(t, err)

	_, err = svc.Encode(prepared.Table.Drop("meal"), res.Matrix.Transform)
	require.Error(t, err)
	assert.Equal(t, errors.CodeConfigInvalid, errors.GetCode(err))
}

func TestPipelineService_Profile(t *testing.T) {
	svc := NewPipelineService(testConfig(t), nil)

	prepared, err := svc.PrepareFile(generatedFile(t))
	require.NoError(t, err)

	p := svc.Profile(prepared.Table, 5)
	assert.Equal(t, prepared.Table.NumRows(), p.Rows)
	assert.Len(t, p.Missing, 5)
	assert.Len(t, p.Balance, 2)
}

func TestWriteJSON_SingleRowProfile(t *testing.T) {
	svc := NewPipelineService(testConfig(t), nil)
	one := table.MustFromColumns(
		table.NumericColumn("adr", 90),
		table.NumericColumn("is_canceled", 1),
	)

	path := svc.OutputPath("profile.json")
	require.NoError(t, WriteJSON(path, svc.Profile(one, 5)))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"std": null`)
}
