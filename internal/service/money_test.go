package service

import (
	"errors"
	"strings"
	"testing"
)

func TestParseAmount(t *testing.T) {
	valid := map[string]string{
		"10":                     "10",
		" 12.50 ":                "12.5",
		"-3.1":                   "-3.1",
		"1.2300":                 "1.23",
		"1e2":                    "100",
		"999999999999999999.99":  "999999999999999999.99",
		"0.00000000000000000000": "0",
	}
	for text, want := range valid {
		got, err := parseAmount(text, "amount")
		if err != nil {
			t.Fatalf("parseAmount(%q): %v", text, err)
		}
		if got.String() != want {
			t.Fatalf("parseAmount(%q) = %s, want %s", text, got, want)
		}
	}

	invalidCases := []string{
		"",
		"abc",
		"1.234",
		"1e2147483647",
		"1e200000000",
		"1e30",
		"1000000000000000000",
		"-1e-400000",
		"0.000000000000000000001",
		strings.Repeat("1", 80),
	}
	for _, text := range invalidCases {
		if _, err := parseAmount(text, "amount"); !errors.Is(err, ErrValidation) {
			t.Fatalf("parseAmount(%q): expected ErrValidation, got %v", text, err)
		}
	}
}
