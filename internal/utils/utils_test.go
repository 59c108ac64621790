package utils

import "testing"

func TestColumnLetter(t *testing.T) {
	cases := map[int]string{1: "A", 5: "E", 26: "Z", 27: "AA", 52: "AZ", 703: "AAA"}
	for in, want := range cases {
		if got := ColumnLetter(in); got != want {
			t.Errorf("ColumnLetter(%d) = %q, want %q", in, got, want)
		}
	}
}

func TestParseNumber(t *testing.T) {
	if v, ok := ParseNumber(" 12 "); !ok || v != 12 {
		t.Fatalf("expected 12, got %v %v", v, ok)
	}
	for _, in := range []string{"", "  ", "abc", "1.2.3", "NaN", "Inf", "-inf", "infinity"} {
		if _, ok := ParseNumber(in); ok {
			t.Errorf("ParseNumber(%q) should be absent", in)
		}
	}
}

func TestFormatNumber(t *testing.T) {
	if got := FormatNumber(3); got != "3" {
		t.Fatalf("got %q", got)
	}
	if got := FormatNumber(2.5); got != "2.5" {
		t.Fatalf("got %q", got)
	}
}
