package core

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in  string
		out string
		ok  bool
	}{
		{"1", "1", true},
		{"1.0", "1", true},
		{"1.23", "1.23", true},
		{"1,23", "1.23", true},
		{" 2.50 ", "2.5", true},
		{"$12.34", "12.34", true},
		{"-5", "-5", true},
		{"-$5.10", "-5.1", true},
		{"0.105", "0.105", true}, // full precision kept
		{"abc", "", false},
		{"1.2.3", "", false},
		{"1e3", "", false},
		{"+1", "", false},
		{"--1", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		got, err := ParseAmount(tc.in)
		if tc.ok {
			want := decimal.RequireFromString(tc.out)
			if err != nil || !got.Equal(want) {
				t.Fatalf("%q expected %s, got %s (err=%v)", tc.in, want, got, err)
			}
		} else if err == nil {
			t.Fatalf("%q expected error, got %s", tc.in, got)
		}
	}
}

func TestFormatAmount(t *testing.T) {
	cases := map[string]string{
		"100":    "100.00",
		"123.45": "123.45",
		"0.5":    "0.50",
		"-7.1":   "-7.10",
	}
	for in, want := range cases {
		if got := FormatAmount(decimal.RequireFromString(in)); got != want {
			t.Fatalf("FormatAmount(%s) = %q, want %q", in, got, want)
		}
	}
}

func TestFormatCurrency(t *testing.T) {
	if got := FormatCurrency(decimal.RequireFromString("12.5")); got != "$12.50" {
		t.Fatalf("got %q", got)
	}
	if got := FormatCurrency(decimal.RequireFromString("-3")); got != "-$3.00" {
		t.Fatalf("got %q", got)
	}
}
