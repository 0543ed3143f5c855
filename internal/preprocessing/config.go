// Package preprocessing implements the cleaning and feature-derivation
// stages that turn a raw booking table into a prepared table.
package preprocessing

import (
	"bookingeda/internal"
)

// Well-known booking columns
const (
	ColAdults        = "adults"
	ColChildren      = "children"
	ColBabies        = "babies"
	ColCountry       = "country"
	ColAgent         = "agent"
	ColCompany       = "company"
	ColADR           = "adr"
	ColWeekendNights = "stays_in_weekend_nights"
	ColWeekNights    = "stays_in_week_nights"
	ColArrivalMonth  = "arrival_date_month"
	ColArrivalYear   = "arrival_date_year"

	ColTotalGuests      = "total_guests"
	ColTotalNights      = "total_nights"
	ColArrivalMonthNum  = "arrival_month_num"
	ColArrivalYearMonth = "arrival_year_month"
)

// DefaultIQRMultiplier is the k in [Q1 - k*IQR, Q3 + k*IQR]
const DefaultIQRMultiplier = 1.5

var (
	guestColumns      = []string{ColAdults, ColChildren, ColBabies}
	identifierColumns = []string{ColAgent, ColCompany}
)

// Config holds the preprocessing options. It is passed by value; use
// WithDropColumns rather than mutating DropColumns in place.
type Config struct {
	Target           string   `json:"target" validate:"required"`
	FillCountry      string   `json:"fill_country" validate:"required"`
	FillCategorical  string   `json:"fill_categorical" validate:"required"`
	FillAgentCompany int      `json:"fill_agent_company"`
	DropColumns      []string `json:"drop_columns,omitempty"`
}

// DefaultConfig returns the standard booking-dataset options
func DefaultConfig() Config {
	return Config{
		Target:           "is_canceled",
		FillCountry:      "Unknown",
		FillCategorical:  "Unknown",
		FillAgentCompany: 0,
	}
}

// WithDropColumns returns a copy of c that also excludes the given columns
// from the model matrix
func (c Config) WithDropColumns(cols ...string) Config {
	drop := make([]string, 0, len(c.DropColumns)+len(cols))
	drop = append(drop, c.DropColumns...)
	drop = append(drop, cols...)
	c.DropColumns = drop
	return c
}

func logger() *internal.Logger {
	return internal.DefaultLogger.With("preprocessing")
}
