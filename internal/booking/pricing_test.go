package booking

import (
	"errors"
	"testing"
	"time"

	"github.com/SNurali/silkroad-reservation/internal/model"
)

func TestResolvePrice(t *testing.T) {
	holiday := day(2026, 3, 21) // Navruz, a Saturday
	entries := []model.PriceEntry{
		{DayClass: model.DayAny, Category: model.CategoryAny, AmountCents: 1000},
		{DayClass: model.DayWeekend, Category: model.CategoryAny, AmountCents: 1500},
		{DayClass: model.DayAny, Category: model.CategoryResident, AmountCents: 800},
		{Date: &holiday, Category: model.CategoryAny, AmountCents: 2500},
	}

	cases := []struct {
		name string
		day  time.Time
		cat  model.PriceCategory
		want uint32
	}{
		{"weekday default", day(2026, 3, 2), model.CategoryNonResident, 1000},
		{"weekend beats default", day(2026, 3, 7), model.CategoryNonResident, 1500},
		{"exact date beats weekend", holiday, model.CategoryNonResident, 2500},
		{"category beats any within tier", day(2026, 3, 2), model.CategoryResident, 800},
		{"exact date beats category tier", holiday, model.CategoryResident, 2500},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ResolvePrice(entries, tc.day, tc.cat)
			if err != nil {
				t.Fatalf("ResolvePrice: %v", err)
			}
			if got != tc.want {
				t.Fatalf("ResolvePrice = %d, want %d", got, tc.want)
			}
		})
	}
}

func TestResolvePriceNoEntry(t *testing.T) {
	entries := []model.PriceEntry{
		{DayClass: model.DayWeekend, Category: model.CategoryAny, AmountCents: 1500},
	}
	_, err := ResolvePrice(entries, day(2026, 3, 2), model.CategoryAny) // a Monday
	if !errors.Is(err, model.ErrValidation) {
		t.Fatalf("err = %v, want ErrValidation", err)
	}
}

func TestQuotePerUnitSumsDays(t *testing.T) {
	entries := []model.PriceEntry{
		{DayClass: model.DayAny, Category: model.CategoryAny, AmountCents: 1000},
		{DayClass: model.DayWeekend, Category: model.CategoryAny, AmountCents: 1500},
	}
	// Fri 6th + Sat 7th + Sun 8th nights, check-out Mon 9th.
	got, err := QuotePerUnit(entries, day(2026, 3, 6), day(2026, 3, 9), model.CategoryAny)
	if err != nil {
		t.Fatalf("QuotePerUnit: %v", err)
	}
	if want := uint64(1000 + 1500 + 1500); got != want {
		t.Fatalf("QuotePerUnit = %d, want %d", got, want)
	}
}

func TestQuotePerUnitFailsOnGap(t *testing.T) {
	entries := []model.PriceEntry{
		{DayClass: model.DayWeekday, Category: model.CategoryAny, AmountCents: 1000},
	}
	// The stay covers Saturday, which no entry prices.
	_, err := QuotePerUnit(entries, day(2026, 3, 6), day(2026, 3, 8), model.CategoryAny)
	if !errors.Is(err, model.ErrValidation) {
		t.Fatalf("err = %v, want ErrValidation", err)
	}
}
