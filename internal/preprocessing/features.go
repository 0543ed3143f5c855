package preprocessing

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"bookingeda/domain/core"
	"bookingeda/domain/table"
	"bookingeda/internal/errors"
	"bookingeda/internal/utils"
)

// DeriveFeatures adds total_guests, total_nights, arrival_month_num and
// arrival_year_month. Each derivation runs only when its source columns are
// present; a skipped derivation never affects the others.
func DeriveFeatures(t *table.Table) (*table.Table, error) {
	out := t.Clone()

	if out.HasAll(guestColumns...) {
		mustSet(out, sumColumns(out, ColTotalGuests, guestColumns...))
	} else {
		logger().Debug("derive: %s skipped, needs %v", ColTotalGuests, guestColumns)
	}

	if out.HasAll(ColWeekendNights, ColWeekNights) {
		mustSet(out, sumColumns(out, ColTotalNights, ColWeekendNights, ColWeekNights))
	}

	if months, ok := out.Column(ColArrivalMonth); ok {
		mustSet(out, monthNumbers(months))
	}

	if out.HasAll(ColArrivalYear, ColArrivalMonthNum) {
		col, err := yearMonthKeys(out)
		if err != nil {
			return nil, err
		}
		mustSet(out, col)
	}

	return out, nil
}

// sumColumns adds numeric columns row-wise; a missing operand makes the sum missing
func sumColumns(t *table.Table, name string, sources ...string) *table.Column {
	values := make([]table.Value, t.NumRows())
	for row := range values {
		total := 0.0
		for _, src := range sources {
			v := t.Get(row, src)
			if !v.IsNumeric() {
				total = math.NaN()
				break
			}
			total += v.AsFloat64()
		}
		values[row] = table.NewNumericValue(total)
	}
	return table.NewColumn(name, table.ValueTypeNumeric, values)
}

func monthNumbers(months *table.Column) *table.Column {
	values := make([]table.Value, months.Len())
	for i, v := range months.Values {
		values[i] = table.NewMissingValue()
		if !v.IsString() {
			continue
		}
		if n, ok := utils.MonthToNumber(v.Key()); ok {
			values[i] = table.NewNumericValue(float64(n))
		}
	}
	return table.NewColumn(ColArrivalMonthNum, table.ValueTypeNumeric, values)
}

// yearMonthKeys builds the first-of-month date for each row. Rows with a
// missing year or month get a missing date.
func yearMonthKeys(t *table.Table) (*table.Column, error) {
	values := make([]table.Value, t.NumRows())
	for row := range values {
		values[row] = table.NewMissingValue()

		year, ok, err := asInt(t.Get(row, ColArrivalYear))
		if err != nil {
			return nil, errors.InvalidInputf(core.ErrInvalidDateKey, "row %d: %s: %v", row, ColArrivalYear, err)
		}
		if !ok {
			continue
		}
		month, ok, err := asInt(t.Get(row, ColArrivalMonthNum))
		if err != nil {
			return nil, errors.InvalidInputf(core.ErrInvalidDateKey, "row %d: %s: %v", row, ColArrivalMonthNum, err)
		}
		if !ok {
			continue
		}

		key := fmt.Sprintf("%d-%02d-01", year, month)
		date, err := time.Parse(table.DateLayout, key)
		if err != nil {
			return nil, errors.InvalidInputf(core.ErrInvalidDateKey, "row %d: %q is not a date", row, key)
		}
		values[row] = table.NewTimestampValue(date)
	}
	return table.NewColumn(ColArrivalYearMonth, table.ValueTypeTimestamp, values), nil
}

// asInt truncates a numeric cell or parses a textual one. ok is false for
// missing cells.
func asInt(v table.Value) (int, bool, error) {
	switch {
	case v.IsMissing:
		return 0, false, nil
	case v.IsNumeric():
		return int(v.AsFloat64()), true, nil
	case v.IsString():
		s := strings.TrimSpace(v.Key())
		if n, err := strconv.Atoi(s); err == nil {
			return n, true, nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil || math.IsInf(f, 0) {
			return 0, false, fmt.Errorf("%q is not an integer", s)
		}
		return int(f), true, nil
	}
	return 0, false, fmt.Errorf("%s value is not an integer", v.Type)
}

func mustSet(t *table.Table, col *table.Column) {
	if err := t.SetColumn(col); err != nil {
		panic(err)
	}
}
