package tabular

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookingeda/domain/core"
	"bookingeda/domain/table"
	"bookingeda/internal/modelmatrix"
	"bookingeda/internal/preprocessing"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestTypeCoercer_Analyze(t *testing.T) {
	c := NewTypeCoercer(DefaultCoercionConfig())

	tests := []struct {
		name string
		raw  []string
		want table.ValueType
	}{
		{"integers", []string{"1", "2", "30"}, table.ValueTypeNumeric},
		{"floats with missing", []string{"1.5", "NA", "", "-2"}, table.ValueTypeNumeric},
		{"dates", []string{"2016-07-01", " 2015-01-01 ", "NULL"}, table.ValueTypeTimestamp},
		{"mixed", []string{"1", "two", "3"}, table.ValueTypeString},
		{"number and date", []string{"2016", "2016-07-01"}, table.ValueTypeString},
		{"all missing", []string{"", "NaN", "None"}, table.ValueTypeString},
		{"infinity is text", []string{"Inf", "1"}, table.ValueTypeString},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, c.Analyze(tt.raw).Recommended)
		})
	}
}

func TestRead_CSVInfersTypesAndMissing(t *testing.T) {
	path := writeFile(t, "hotel_bookings.csv", strings.Join([]string{
		"hotel,is_canceled,adr,country,children,arrival_date,agent",
		"Resort Hotel,0,75.5,PRT,0,2015-07-01,NULL",
		"City Hotel,1,NA,,NA,2015-07-02,9",
		"City Hotel,1,100,GBR,1,2015-07-03",
	}, "\n"))

	tbl, err := Read(path)
	require.NoError(t, err)
	assert.Equal(t, 3, tbl.NumRows())
	assert.Equal(t, []string{"hotel", "is_canceled", "adr", "country", "children", "arrival_date", "agent"}, tbl.ColumnNames())

	types := map[string]table.ValueType{
		"hotel":        table.ValueTypeString,
		"is_canceled":  table.ValueTypeNumeric,
		"adr":          table.ValueTypeNumeric,
		"country":      table.ValueTypeString,
		"children":     table.ValueTypeNumeric,
		"arrival_date": table.ValueTypeTimestamp,
		"agent":        table.ValueTypeNumeric,
	}
	for name, want := range types {
		got, ok := tbl.ColumnType(name)
		require.True(t, ok, name)
		assert.Equal(t, want, got, name)
	}

	assert.True(t, tbl.Get(1, "adr").IsMissing)
	assert.True(t, tbl.Get(1, "country").IsMissing)
	assert.True(t, tbl.Get(0, "agent").IsMissing)
	assert.True(t, tbl.Get(2, "agent").IsMissing, "short row padded")
	assert.Equal(t, 75.5, tbl.Get(0, "adr").AsFloat64())
}

func TestRead_Errors(t *testing.T) {
	_, err := Read(filepath.Join(t.TempDir(), "absent.csv"))
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrNotFound)

	_, err = Read(writeFile(t, "empty.csv", ""))
	assert.Error(t, err)

	_, err = Read(writeFile(t, "dup.csv", "a,a\n1,2\n"))
	assert.Error(t, err)
}

func TestRead_HeaderOnly(t *testing.T) {
	tbl, err := Read(writeFile(t, "header.csv", "hotel,adr\n"))
	require.NoError(t, err)
	assert.Equal(t, 0, tbl.NumRows())
	assert.Equal(t, []string{"hotel", "adr"}, tbl.ColumnNames())
}

func sample() *table.Table {
	return table.MustFromColumns(
		table.StringColumn("hotel", "Resort Hotel", "City Hotel", ""),
		table.NumericColumn("adr", 75.5, math.NaN(), 120),
		table.NewColumn("arrival_year_month", table.ValueTypeTimestamp, []table.Value{
			table.NewTimestampValue(time.Date(2016, 7, 1, 0, 0, 0, 0, time.UTC)),
			table.NewMissingValue(),
			table.NewTimestampValue(time.Date(2017, 1, 1, 0, 0, 0, 0, time.UTC)),
		}),
	)
}

func TestWriteRead_RoundTrip(t *testing.T) {
	for _, ext := range []string{".csv", ".xlsx"} {
		t.Run(ext, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "nested", "out", "bookings"+ext)
			require.NoError(t, Write(sample(), path))

			got, err := Read(path)
			require.NoError(t, err)
			want := sample()
			assert.Equal(t, want.ColumnNames(), got.ColumnNames())
			require.Equal(t, want.NumRows(), got.NumRows())
			for _, name := range want.ColumnNames() {
				wt, _ := want.ColumnType(name)
				gt, _ := got.ColumnType(name)
				assert.Equal(t, wt, gt, name)
				for i := 0; i < want.NumRows(); i++ {
					assert.True(t, want.Get(i, name).Equal(got.Get(i, name)), "%s row %d", name, i)
				}
			}
		})
	}
}

func TestWriteMatrix(t *testing.T) {
	tbl := table.MustFromColumns(
		table.StringColumn("meal", "BB", "HB"),
		table.NumericColumn("adr", 50, 70),
		table.NumericColumn("is_canceled", 1, 0),
	)
	m, err := modelmatrix.Build(tbl, preprocessing.DefaultConfig(), modelmatrix.Options{})
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "matrix.csv")
	require.NoError(t, WriteMatrix(m, path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	assert.Equal(t, []string{
		"meal_BB,meal_HB,adr,target",
		"1,0,50,1",
		"0,1,70,0",
	}, lines)
}
