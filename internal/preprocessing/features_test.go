package preprocessing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookingeda/domain/core"
	"bookingeda/domain/table"
)

func TestDeriveFeatures_All(t *testing.T) {
	raw := table.MustFromColumns(
		table.NumericColumn("adults", 2, 1, 1),
		table.NumericColumn("children", 1, 0, nan),
		table.NumericColumn("babies", 0, 0, 0),
		table.NumericColumn("stays_in_weekend_nights", 1, 0, 2),
		table.NumericColumn("stays_in_week_nights", 3, 2, 0),
		table.StringColumn("arrival_date_month", "July", "january", "December"),
		table.NumericColumn("arrival_date_year", 2015, 2016, 2017),
	)

	out, err := DeriveFeatures(raw)
	require.NoError(t, err)

	guests := col(t, out, ColTotalGuests)
	assert.Equal(t, 3.0, guests.Values[0].AsFloat64())
	assert.True(t, guests.Values[2].IsMissing)
	assert.Equal(t, []float64{4, 2, 2}, col(t, out, ColTotalNights).Floats())

	months := col(t, out, ColArrivalMonthNum)
	assert.Equal(t, 7.0, months.Values[0].AsFloat64())
	assert.True(t, months.Values[1].IsMissing, "wrong case does not map")
	assert.Equal(t, 12.0, months.Values[2].AsFloat64())

	keys := col(t, out, ColArrivalYearMonth)
	assert.Equal(t, table.ValueTypeTimestamp, keys.Type)
	first, ok := keys.Values[0].AsTime()
	require.True(t, ok)
	assert.Equal(t, time.Date(2015, 7, 1, 0, 0, 0, 0, time.UTC), first)
	assert.True(t, keys.Values[1].IsMissing)
	assert.Equal(t, "2017-12-01", keys.Values[2].Key())
}

func TestDeriveFeatures_SkipsWhenSourcesAbsent(t *testing.T) {
	tests := []struct {
		name    string
		cols    []*table.Column
		present []string
		absent  []string
	}{
		{
			name:   "no babies",
			cols:   []*table.Column{table.NumericColumn("adults", 1), table.NumericColumn("children", 0)},
			absent: []string{ColTotalGuests, ColTotalNights, ColArrivalMonthNum, ColArrivalYearMonth},
		},
		{
			name:    "nights only",
			cols:    []*table.Column{table.NumericColumn("stays_in_weekend_nights", 1), table.NumericColumn("stays_in_week_nights", 1)},
			present: []string{ColTotalNights},
			absent:  []string{ColTotalGuests, ColArrivalMonthNum, ColArrivalYearMonth},
		},
		{
			name:    "month without year",
			cols:    []*table.Column{table.StringColumn("arrival_date_month", "May")},
			present: []string{ColArrivalMonthNum},
			absent:  []string{ColArrivalYearMonth},
		},
		{
			name:   "year without month",
			cols:   []*table.Column{table.NumericColumn("arrival_date_year", 2016)},
			absent: []string{ColArrivalMonthNum, ColArrivalYearMonth},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := table.MustFromColumns(tt.cols...)
			out, err := DeriveFeatures(raw)
			require.NoError(t, err)
			for _, name := range tt.present {
				assert.True(t, out.Has(name), name)
			}
			for _, name := range tt.absent {
				assert.False(t, out.Has(name), name)
			}
			for _, name := range raw.ColumnNames() {
				assert.Equal(t, col(t, raw, name).Values, col(t, out, name).Values)
			}
		})
	}
}

func TestDeriveFeatures_TextYear(t *testing.T) {
	raw := table.MustFromColumns(
		table.StringColumn("arrival_date_year", "2016", " 2017 "),
		table.StringColumn("arrival_date_month", "March", "October"),
	)
	out, err := DeriveFeatures(raw)
	require.NoError(t, err)
	assert.Equal(t, []string{"2016-03-01", "2017-10-01"}, keys(col(t, out, ColArrivalYearMonth)))
}

func TestDeriveFeatures_BadYear(t *testing.T) {
	raw := table.MustFromColumns(
		table.StringColumn("arrival_date_year", "twenty"),
		table.StringColumn("arrival_date_month", "March"),
	)
	_, err := DeriveFeatures(raw)
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrInvalidDateKey)
}
