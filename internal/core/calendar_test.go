package core

import (
	"reflect"
	"testing"
)

func TestSaturdaysByName(t *testing.T) {
	got, err := SaturdaysByName("Fevereiro", 2026)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"07/02", "14/02", "21/02", "28/02"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}

	if _, err := SaturdaysByName("February", 2026); err == nil {
		t.Fatalf("expected error for non-Portuguese month name")
	}
}

func TestSaturdaysInMonth(t *testing.T) {
	cases := []struct {
		month Month
		year  int
		want  []string
	}{
		// January 2026 starts on a Thursday: five Saturdays.
		{1, 2026, []string{"03/01", "10/01", "17/01", "24/01", "31/01"}},
		// August 2026 starts on a Saturday.
		{8, 2026, []string{"01/08", "08/08", "15/08", "22/08", "29/08"}},
		// February 2025 starts on a Saturday; 28 days.
		{2, 2025, []string{"01/02", "08/02", "15/02", "22/02"}},
		{0, 2026, nil},
	}
	for _, tc := range cases {
		got := SaturdaysInMonth(tc.month, tc.year)
		if !reflect.DeepEqual(got, tc.want) {
			t.Fatalf("%v/%d: expected %v, got %v", tc.month, tc.year, tc.want, got)
		}
	}
}

func TestSaturdayCountAlwaysFourOrFive(t *testing.T) {
	for year := 2020; year <= 2030; year++ {
		for _, m := range Months() {
			n := ValidSlots(m, year)
			if n < 4 || n > 5 {
				t.Fatalf("%v/%d: %d saturdays", m, year, n)
			}
		}
	}
}

func TestParseMonth(t *testing.T) {
	for i, name := range []string{"Janeiro", "fevereiro", "MARÇO", "Marco", " Dezembro "} {
		m, err := ParseMonth(name)
		if err != nil {
			t.Fatalf("%q: %v", name, err)
		}
		want := []Month{1, 2, 3, 3, 12}[i]
		if m != want {
			t.Fatalf("%q: expected %d, got %d", name, want, m)
		}
	}
	if Month(3).String() != "Março" {
		t.Fatalf("unexpected name %q", Month(3).String())
	}
	if len(Window(7)) != 7 || Window(7)[6] != 7 {
		t.Fatalf("unexpected window %v", Window(7))
	}
}
