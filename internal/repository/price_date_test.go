package repository

import (
	"testing"
	"time"
)

func TestPriceDateSentinelRoundTrip(t *testing.T) {
	t.Run("generic tier", func(t *testing.T) {
		if got := priceDateParam(nil); got != genericPriceDate {
			t.Fatalf("priceDateParam(nil) = %q, want the sentinel", got)
		}
		stored, err := time.Parse("2006-01-02", genericPriceDate)
		if err != nil {
			t.Fatalf("parse sentinel: %v", err)
		}
		if priceDateFromRow(stored) != nil {
			t.Fatal("the sentinel must scan back as a nil date")
		}
	})
	t.Run("pinned tier", func(t *testing.T) {
		d := time.Date(2026, 3, 21, 0, 0, 0, 0, time.UTC)
		if got := priceDateParam(&d); got != "2026-03-21" {
			t.Fatalf("priceDateParam = %q, want 2026-03-21", got)
		}
		back := priceDateFromRow(d)
		if back == nil || !back.Equal(d) {
			t.Fatalf("priceDateFromRow = %v, want %v", back, d)
		}
	})
}
