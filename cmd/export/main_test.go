package main

import (
	"net/http/httptest"
	"testing"
)

func TestAsOfDefaultsToNow(t *testing.T) {
	r := httptest.NewRequest("GET", "/export/funnel.csv", nil)
	if _, err := asOf(r); err != nil {
		t.Fatalf("empty as_of must default, got error: %v", err)
	}
}

func TestAsOfParsesDate(t *testing.T) {
	r := httptest.NewRequest("GET", "/export/funnel.csv?as_of=2025-08-15", nil)
	at, err := asOf(r)
	if err != nil {
		t.Fatal(err)
	}
	if at.Year() != 2025 || int(at.Month()) != 8 || at.Day() != 15 {
		t.Fatalf("parsed wrong date: %v", at)
	}
}

func TestAsOfRejectsMalformedValue(t *testing.T) {
	r := httptest.NewRequest("GET", "/export/funnel.csv?as_of=notadate", nil)
	if _, err := asOf(r); err == nil {
		t.Fatal("malformed as_of must be rejected, not defaulted")
	}
}
