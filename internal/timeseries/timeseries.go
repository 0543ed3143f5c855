// Package timeseries aggregates prepared booking rows into monthly
// cancellation summaries.
package timeseries

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/montanaflynn/stats"

	"bookingeda/domain/core"
	"bookingeda/domain/table"
	"bookingeda/internal"
	"bookingeda/internal/errors"
	"bookingeda/internal/utils"
)

// Canonical output columns
const (
	ColDate      = "date"
	ColTotal     = "total_bookings"
	ColCanceled  = "canceled_bookings"
	ColRate      = "cancel_rate"
	ColAvgADR    = "avg_adr"
	ColHotelType = "hotel_type"
)

// Options names the input columns used for aggregation
type Options struct {
	DateKey       string `json:"date_key" validate:"required"`
	OutcomeColumn string `json:"outcome_column" validate:"required"`
	// GroupColumn is used only when present in the table
	GroupColumn string `json:"group_column"`
	// GroupAlias is the output name of the group column
	GroupAlias string `json:"group_alias"`
	// MeasureColumn is averaged only when present in the table
	MeasureColumn string `json:"measure_column"`
}

// DefaultOptions returns the hotel-booking column names
func DefaultOptions() Options {
	return Options{
		DateKey:       "arrival_year_month",
		OutcomeColumn: "is_canceled",
		GroupColumn:   "hotel",
		GroupAlias:    ColHotelType,
		MeasureColumn: "adr",
	}
}

// Period is one row of the summary
type Period struct {
	Date             time.Time `json:"date"`
	Group            string    `json:"group,omitempty"`
	TotalBookings    int       `json:"total_bookings"`
	CanceledBookings int       `json:"canceled_bookings"`
	CancelRate       float64   `json:"cancel_rate"`
	// AvgADR is NaN when the measure is absent or has no values in the period
	AvgADR float64 `json:"avg_adr"`
}

// Summary is the aggregated time series, sorted by group then date
type Summary struct {
	Periods []Period
	// GroupColumn is the output group column name, empty when ungrouped
	GroupColumn string
	HasMeasure  bool
}

type groupKey struct {
	group string
	date  time.Time
}

type accumulator struct {
	total    int
	canceled int
	measure  []float64
}

// Build groups rows by the date key, and by the group column when present,
// and computes per-period counts, cancel rate and mean measure. The date key
// and outcome columns are required. Rows with a missing date or group are
// not grouped; missing outcomes are not counted.
func Build(t *table.Table, opts Options) (*Summary, error) {
	log := internal.DefaultLogger.With("timeseries")

	if !t.Has(opts.DateKey) {
		return nil, errors.MissingColumn(opts.DateKey,
			"derive features before building the time series", core.ErrDateKeyMissing)
	}
	if !t.Has(opts.OutcomeColumn) {
		return nil, errors.MissingColumn(opts.OutcomeColumn,
			"time series needs a binary outcome column", core.ErrOutcomeMissing)
	}

	grouped := opts.GroupColumn != "" && t.Has(opts.GroupColumn)
	measured := opts.MeasureColumn != "" && t.Has(opts.MeasureColumn)

	groups := make(map[groupKey]*accumulator)
	skipped := 0
	for row := 0; row < t.NumRows(); row++ {
		date, ok, err := periodOf(t.Get(row, opts.DateKey))
		if err != nil {
			return nil, errors.InvalidInputf(core.ErrInvalidDateKey, "row %d: %v", row, err)
		}
		if !ok {
			skipped++
			continue
		}
		key := groupKey{date: date}
		if grouped {
			g := t.Get(row, opts.GroupColumn)
			if g.IsMissing {
				skipped++
				continue
			}
			key.group = g.Key()
		}

		acc, ok := groups[key]
		if !ok {
			acc = &accumulator{}
			groups[key] = acc
		}

		outcome, ok, err := outcomeOf(t.Get(row, opts.OutcomeColumn))
		if err != nil {
			return nil, errors.InvalidInputf(core.ErrNonBinaryOutcome, "row %d: %s: %v", row, opts.OutcomeColumn, err)
		}
		if ok {
			acc.total++
			acc.canceled += outcome
		}

		if measured {
			if v := t.Get(row, opts.MeasureColumn); v.IsNumeric() {
				acc.measure = append(acc.measure, v.AsFloat64())
			}
		}
	}
	if skipped > 0 {
		log.Debug("%d rows without a period or group were not aggregated", skipped)
	}

	summary := &Summary{HasMeasure: measured, Periods: make([]Period, 0, len(groups))}
	if grouped {
		summary.GroupColumn = opts.GroupAlias
		if summary.GroupColumn == "" {
			summary.GroupColumn = opts.GroupColumn
		}
	}

	for key, acc := range groups {
		p := Period{
			Date:             key.date,
			Group:            key.group,
			TotalBookings:    acc.total,
			CanceledBookings: acc.canceled,
			CancelRate:       utils.SafeDiv(float64(acc.canceled), float64(acc.total), 0),
			AvgADR:           math.NaN(),
		}
		if mean, err := stats.Mean(acc.measure); err == nil {
			p.AvgADR = mean
		}
		summary.Periods = append(summary.Periods, p)
	}

	sort.Slice(summary.Periods, func(i, j int) bool {
		a, b := summary.Periods[i], summary.Periods[j]
		if a.Group != b.Group {
			return a.Group < b.Group
		}
		return a.Date.Before(b.Date)
	})

	log.Debug("built %d periods from %d rows", len(summary.Periods), t.NumRows())
	return summary, nil
}

// TotalBookings sums total_bookings over all periods
func (s *Summary) TotalBookings() int {
	n := 0
	for _, p := range s.Periods {
		n += p.TotalBookings
	}
	return n
}

// Table renders the summary with the canonical column names:
// date, total_bookings, canceled_bookings, cancel_rate[, avg_adr][, group]
func (s *Summary) Table() *table.Table {
	n := len(s.Periods)
	dates := make([]table.Value, n)
	total := make([]float64, n)
	canceled := make([]float64, n)
	rate := make([]float64, n)
	adr := make([]float64, n)
	groups := make([]string, n)
	for i, p := range s.Periods {
		dates[i] = table.NewTimestampValue(p.Date)
		total[i] = float64(p.TotalBookings)
		canceled[i] = float64(p.CanceledBookings)
		rate[i] = p.CancelRate
		adr[i] = p.AvgADR
		groups[i] = p.Group
	}

	cols := []*table.Column{
		table.NewColumn(ColDate, table.ValueTypeTimestamp, dates),
		table.NumericColumn(ColTotal, total...),
		table.NumericColumn(ColCanceled, canceled...),
		table.NumericColumn(ColRate, rate...),
	}
	if s.HasMeasure {
		cols = append(cols, table.NumericColumn(ColAvgADR, adr...))
	}
	if s.GroupColumn != "" {
		cols = append(cols, table.StringColumn(s.GroupColumn, groups...))
	}
	return table.MustFromColumns(cols...)
}

// periodOf reads a date-key cell. Text cells are parsed as YYYY-MM-DD.
func periodOf(v table.Value) (time.Time, bool, error) {
	if v.IsMissing {
		return time.Time{}, false, nil
	}
	if ts, ok := v.AsTime(); ok {
		return ts, true, nil
	}
	if v.IsString() {
		ts, err := time.Parse(table.DateLayout, strings.TrimSpace(v.Key()))
		if err != nil {
			return time.Time{}, false, fmt.Errorf("%q is not a date", v.Key())
		}
		return ts, true, nil
	}
	return time.Time{}, false, fmt.Errorf("%s value is not a date", v.Type)
}

// outcomeOf accepts 0 or 1, numeric or textual
func outcomeOf(v table.Value) (int, bool, error) {
	if v.IsMissing {
		return 0, false, nil
	}
	switch strings.TrimSpace(v.Key()) {
	case "0":
		return 0, true, nil
	case "1":
		return 1, true, nil
	}
	return 0, false, fmt.Errorf("%q is not 0 or 1", v.Key())
}
