package store

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
	"bookingeda/internal/errors"
	"bookingeda/internal/modelmatrix"
	"bookingeda/internal/preprocessing"
	"bookingeda/internal/timeseries"
)

// openTestStore uses in-memory SQLite; go-sqlite3 needs cgo, so the test is
// skipped when the driver cannot connect
func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(DriverSQLite, ":memory:")
	if err != nil {
		t.Skipf("sqlite3 unavailable: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	require.NoError(t, s.Migrate(context.Background()))
	return s
}

func TestMigrate_Idempotent(t *testing.T) {
	s := openTestStore(t)
	assert.NoError(t, s.Migrate(context.Background()))
}

func TestSummary_RoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	summary := &timeseries.Summary{
		GroupColumn: timeseries.ColHotelType,
		HasMeasure:  true,
		Periods: []timeseries.Period{
			{Date: time.Date(2016, 1, 1, 0, 0, 0, 0, time.UTC), Group: "City Hotel", TotalBookings: 10, CanceledBookings: 3, CancelRate: 0.3, AvgADR: 95.5},
			{Date: time.Date(2016, 2, 1, 0, 0, 0, 0, time.UTC), Group: "City Hotel", TotalBookings: 0, CanceledBookings: 0, CancelRate: 0, AvgADR: math.NaN()},
		},
	}
	id := core.NewRunID()
	require.NoError(t, s.SaveSummary(ctx, id, "hotel_bookings.csv", summary))

	got, err := s.LoadSummary(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, summary.GroupColumn, got.GroupColumn)
	assert.True(t, got.HasMeasure)
	require.Len(t, got.Periods, 2)
	assert.True(t, got.Periods[0].Date.Equal(summary.Periods[0].Date))
	assert.Equal(t, 3, got.Periods[0].CanceledBookings)
	assert.Equal(t, 0.3, got.Periods[0].CancelRate)
	assert.Equal(t, 95.5, got.Periods[0].AvgADR)
	assert.True(t, math.IsNaN(got.Periods[1].AvgADR))

	assert.Error(t, s.SaveSummary(ctx, id, "again", summary), "run ids are unique")
}

func TestLoad_NotFound(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	_, err := s.LoadSummary(ctx, core.NewRunID())
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrSummaryNotFound)
	assert.True(t, core.IsNotFoundError(err))
	assert.Equal(t, errors.CodeNotFound, errors.GetCode(err))

	_, err = s.LoadTransform(ctx, core.NewTransformID())
	assert.ErrorIs(t, err, core.ErrTransformNotFound)
}

func TestTransform_RoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	tbl := table.MustFromColumns(
		table.StringColumn("hotel", "Resort Hotel", "City Hotel", "City Hotel"),
		table.NumericColumn("lead_time", 5, 50, 500),
		table.NumericColumn("is_canceled", 0, 1, 0),
	)
	m, err := modelmatrix.Build(tbl, preprocessing.DefaultConfig(), modelmatrix.Options{ScaleNumeric: true})
	require.NoError(t, err)
	require.NoError(t, s.SaveTransform(ctx, m.Transform))

	restored, err := s.LoadTransform(ctx, m.Transform.ID())
	require.NoError(t, err)
	assert.Equal(t, m.Transform.Fingerprint(), restored.Fingerprint())

	x, err := restored.Apply(tbl.Drop("is_canceled"))
	require.NoError(t, err)
	assert.True(t, mat.Equal(m.X, x))
}
