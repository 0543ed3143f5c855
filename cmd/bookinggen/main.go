package main

import (
	"flag"
	"fmt"
	"os"

	"bookingeda/adapters/tabular"
	"bookingeda/internal/testkit"
)

func main() {
	out := flag.String("out", "hotel_bookings.csv", "output file path (.csv or .xlsx)")
	rows := flag.Int("rows", 1000, "number of bookings")
	seed := flag.Int64("seed", 42, "RNG seed (deterministic)")
	startYear := flag.Int("start-year", 2015, "first arrival year")
	years := flag.Int("years", 3, "number of arrival years")
	missing := flag.Float64("missing-rate", 0.02, "share of rows with missing children or country")
	invalid := flag.Float64("invalid-rate", 0.01, "share of rows with no guests or a negative rate")
	flag.Parse()

	if *rows <= 0 {
		fmt.Fprintln(os.Stderr, "rows must be > 0")
		os.Exit(2)
	}

	cfg := testkit.DefaultBookingConfig()
	cfg.Rows = *rows
	cfg.Seed = *seed
	cfg.StartYear = *startYear
	cfg.Years = *years
	cfg.MissingRate = *missing
	cfg.InvalidRate = *invalid

	t, err := testkit.NewBookingDataGenerator(cfg).GenerateTable()
	if err != nil {
		fmt.Fprintln(os.Stderr, "error generating bookings:", err)
		os.Exit(1)
	}

	if err := tabular.Write(t, *out); err != nil {
		fmt.Fprintln(os.Stderr, "error writing bookings:", err)
		os.Exit(1)
	}

	fmt.Printf("Wrote %d bookings (%d columns) to %s\n", t.NumRows(), t.NumCols(), *out)
}
