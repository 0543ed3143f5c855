package testkit

import (
	"fmt"
	"math"
	"math/rand"
	"time"

	"bookingeda/domain/table"
)

// BookingGeneratorConfig configures the synthetic hotel-booking generator
type BookingGeneratorConfig struct {
	Rows      int   `json:"rows"`
	StartYear int   `json:"start_year"`
	Years     int   `json:"years"`
	Seed      int64 `json:"seed"`

	// Share of rows with missing children and country
	MissingRate float64 `json:"missing_rate"`
	// Share of rows with no guests or a negative rate
	InvalidRate float64 `json:"invalid_rate"`
	// Share of rows with a booking agent; company is rarer still
	AgentRate   float64 `json:"agent_rate"`
	CompanyRate float64 `json:"company_rate"`
}

// DefaultBookingConfig mirrors the proportions of the public hotel-booking
// demand data at a test-friendly size
func DefaultBookingConfig() BookingGeneratorConfig {
	return BookingGeneratorConfig{
		Rows:        1000,
		StartYear:   2015,
		Years:       3,
		Seed:        42,
		MissingRate: 0.02,
		InvalidRate: 0.01,
		AgentRate:   0.86,
		CompanyRate: 0.06,
	}
}

// BookingColumns is the column order of generated tables
var BookingColumns = []string{
	"hotel", "is_canceled", "lead_time", "arrival_date_year", "arrival_date_month",
	"stays_in_weekend_nights", "stays_in_week_nights", "adults", "children", "babies",
	"meal", "country", "market_segment", "deposit_type", "agent", "company", "adr",
	"reservation_status",
}

var (
	hotels    = []string{"City Hotel", "Resort Hotel"}
	meals     = []string{"BB", "HB", "SC", "FB", "Undefined"}
	countries = []string{"PRT", "GBR", "FRA", "ESP", "DEU", "ITA", "IRL", "BEL", "BRA", "NLD"}
	segments  = []string{"Online TA", "Offline TA/TO", "Groups", "Direct", "Corporate"}
	deposits  = []string{"No Deposit", "Non Refund", "Refundable"}
)

// BookingDataGenerator produces reproducible booking tables. Cancellation
// odds rise with lead time, non-refundable deposits and city stays, so the
// generated data carries signal for model-matrix and evaluation tests.
type BookingDataGenerator struct {
	config BookingGeneratorConfig
	rng    *rand.Rand
}

// NewBookingDataGenerator creates a generator seeded from the config
func NewBookingDataGenerator(config BookingGeneratorConfig) *BookingDataGenerator {
	return &BookingDataGenerator{
		config: config,
		rng:    rand.New(rand.NewSource(config.Seed)),
	}
}

// GenerateTable builds the raw booking table, dirty rows included
func (g *BookingDataGenerator) GenerateTable() (*table.Table, error) {
	cfg := g.config
	if cfg.Rows <= 0 {
		return nil, fmt.Errorf("rows must be > 0")
	}
	if cfg.Years <= 0 {
		return nil, fmt.Errorf("years must be > 0")
	}

	n := cfg.Rows
	str := make(map[string][]string, len(BookingColumns))
	num := make(map[string][]float64, len(BookingColumns))

	for i := 0; i < n; i++ {
		hotel := pick(g.rng, hotels)
		deposit := g.weighted(deposits, []float64{0.86, 0.13, 0.01})
		lead := math.Floor(g.rng.ExpFloat64() * 90)
		year := cfg.StartYear + g.rng.Intn(cfg.Years)
		month := time.Month(1 + g.rng.Intn(12))

		weekend := float64(g.rng.Intn(3))
		week := float64(g.rng.Intn(6))
		adults := float64(1 + g.rng.Intn(3))
		children := 0.0
		if g.rng.Float64() < 0.08 {
			children = float64(1 + g.rng.Intn(2))
		}
		babies := 0.0
		if g.rng.Float64() < 0.01 {
			babies = 1
		}

		adr := 60 + g.rng.NormFloat64()*25
		if hotel == "City Hotel" {
			adr += 20
		}
		if month >= time.June && month <= time.August {
			adr += 30
		}
		adr = math.Max(0, math.Round(adr*100)/100)

		country := pick(g.rng, countries)
		agent := math.NaN()
		if g.rng.Float64() < cfg.AgentRate {
			agent = float64(1 + g.rng.Intn(300))
		}
		company := math.NaN()
		if g.rng.Float64() < cfg.CompanyRate {
			company = float64(1 + g.rng.Intn(500))
		}

		if g.rng.Float64() < cfg.MissingRate {
			children = math.NaN()
		}
		if g.rng.Float64() < cfg.MissingRate {
			country = ""
		}
		if g.rng.Float64() < cfg.InvalidRate {
			if g.rng.Intn(2) == 0 {
				adults, children, babies = 0, 0, 0
			} else {
				adr = -6.38
			}
		}

		canceled := g.rng.Float64() < g.cancelProbability(hotel, deposit, lead)
		status := "Check-Out"
		isCanceled := 0.0
		if canceled {
			isCanceled = 1
			status = "Canceled"
			if g.rng.Float64() < 0.05 {
				status = "No-Show"
			}
		}

		str["hotel"] = append(str["hotel"], hotel)
		num["is_canceled"] = append(num["is_canceled"], isCanceled)
		num["lead_time"] = append(num["lead_time"], lead)
		num["arrival_date_year"] = append(num["arrival_date_year"], float64(year))
		str["arrival_date_month"] = append(str["arrival_date_month"], month.String())
		num["stays_in_weekend_nights"] = append(num["stays_in_weekend_nights"], weekend)
		num["stays_in_week_nights"] = append(num["stays_in_week_nights"], week)
		num["adults"] = append(num["adults"], adults)
		num["children"] = append(num["children"], children)
		num["babies"] = append(num["babies"], babies)
		str["meal"] = append(str["meal"], g.weighted(meals, []float64{0.77, 0.12, 0.09, 0.01, 0.01}))
		str["country"] = append(str["country"], country)
		str["market_segment"] = append(str["market_segment"], pick(g.rng, segments))
		str["deposit_type"] = append(str["deposit_type"], deposit)
		num["agent"] = append(num["agent"], agent)
		num["company"] = append(num["company"], company)
		num["adr"] = append(num["adr"], adr)
		str["reservation_status"] = append(str["reservation_status"], status)
	}

	cols := make([]*table.Column, 0, len(BookingColumns))
	for _, name := range BookingColumns {
		if vals, ok := str[name]; ok {
			cols = append(cols, table.StringColumn(name, vals...))
		} else {
			cols = append(cols, table.NumericColumn(name, num[name]...))
		}
	}
	return table.FromColumns(cols...)
}

func (g *BookingDataGenerator) cancelProbability(hotel, deposit string, lead float64) float64 {
	p := 0.18 + math.Min(lead/365, 1)*0.35
	if hotel == "City Hotel" {
		p += 0.12
	}
	if deposit == "Non Refund" {
		p = 0.95
	}
	return math.Min(p, 1)
}

func (g *BookingDataGenerator) weighted(options []string, weights []float64) string {
	r := g.rng.Float64()
	acc := 0.0
	for i, w := range weights {
		acc += w
		if r < acc {
			return options[i]
		}
	}
	return options[len(options)-1]
}

func pick(rng *rand.Rand, options []string) string {
	return options[rng.Intn(len(options))]
}
