package testkit

import (
	"testing"
)

func TestBookingDataGenerator_Basic(t *testing.T) {
	config := DefaultBookingConfig()
	config.Rows = 200

	tbl, err := NewBookingDataGenerator(config).GenerateTable()
	if err != nil {
		t.Fatalf("Failed to generate bookings: %v", err)
	}

	if tbl.NumRows() != 200 {
		t.Errorf("Expected 200 rows, got %d", tbl.NumRows())
	}
	if got := tbl.ColumnNames(); len(got) != len(BookingColumns) {
		t.Fatalf("Expected %d columns, got %v", len(BookingColumns), got)
	}
	for i, name := range BookingColumns {
		if tbl.ColumnNames()[i] != name {
			t.Errorf("Column %d: expected %s, got %s", i, name, tbl.ColumnNames()[i])
		}
	}

	outcomes, _ := tbl.Column("is_canceled")
	for i, v := range outcomes.Values {
		if f := v.AsFloat64(); f != 0 && f != 1 {
			t.Errorf("Row %d: is_canceled = %v, want 0 or 1", i, f)
		}
	}

	company, _ := tbl.Column("company")
	if company.MissingCount() < tbl.NumRows()/2 {
		t.Errorf("Expected company to be mostly missing, got %d of %d", company.MissingCount(), tbl.NumRows())
	}
}

func TestBookingDataGenerator_Deterministic(t *testing.T) {
	config := DefaultBookingConfig()
	config.Rows = 50

	a, err := NewBookingDataGenerator(config).GenerateTable()
	if err != nil {
		t.Fatal(err)
	}
	b, err := NewBookingDataGenerator(config).GenerateTable()
	if err != nil {
		t.Fatal(err)
	}

	for _, name := range BookingColumns {
		for i := 0; i < a.NumRows(); i++ {
			if !a.Get(i, name).Equal(b.Get(i, name)) {
				t.Fatalf("Same seed differs at %s row %d: %v vs %v", name, i, a.Get(i, name), b.Get(i, name))
			}
		}
	}

	config.Seed = 7
	c, _ := NewBookingDataGenerator(config).GenerateTable()
	same := true
	for i := 0; i < a.NumRows() && same; i++ {
		same = a.Get(i, "lead_time").Equal(c.Get(i, "lead_time"))
	}
	if same {
		t.Error("Different seeds produced identical lead times")
	}
}

func TestBookingDataGenerator_DirtyRows(t *testing.T) {
	config := DefaultBookingConfig()
	config.MissingRate = 0.5
	config.InvalidRate = 0.5

	tbl, err := NewBookingDataGenerator(config).GenerateTable()
	if err != nil {
		t.Fatal(err)
	}

	children, _ := tbl.Column("children")
	country, _ := tbl.Column("country")
	if children.MissingCount() == 0 || country.MissingCount() == 0 {
		t.Error("Expected missing children and country values")
	}

	negative := 0
	adr, _ := tbl.Column("adr")
	for _, v := range adr.Values {
		if v.AsFloat64() < 0 {
			negative++
		}
	}
	if negative == 0 {
		t.Error("Expected some negative rates")
	}
}

func TestBookingDataGenerator_InvalidConfig(t *testing.T) {
	config := DefaultBookingConfig()
	config.Rows = 0
	if _, err := NewBookingDataGenerator(config).GenerateTable(); err == nil {
		t.Error("Expected error for zero rows")
	}
}
