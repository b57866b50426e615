package booking

import (
	"time"

	"github.com/SNurali/silkroad-reservation/internal/model"
)

// Price resolution walks the unit's price entries most-specific
// first: an entry pinned to the exact date beats a weekday/weekend
// entry, which beats the DayAny default.  Within the same
// specificity an exact category match beats CategoryAny.  Multi-day
// stays sum the resolved per-day price over every covered day.

// isWeekend treats Saturday and Sunday as the weekend tier.
func isWeekend(day time.Time) bool {
	wd := day.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

// entryScore ranks how specifically an entry matches the given day
// and category.  A negative score means the entry does not apply.
func entryScore(e model.PriceEntry, day time.Time, cat model.PriceCategory) int {
	score := 0
	switch {
	case e.Date != nil:
		if !sameDay(*e.Date, day) {
			return -1
		}
		score += 40
	case e.DayClass == model.DayWeekend:
		if !isWeekend(day) {
			return -1
		}
		score += 20
	case e.DayClass == model.DayWeekday:
		if isWeekend(day) {
			return -1
		}
		score += 20
	case e.DayClass == model.DayAny:
		score += 10
	default:
		return -1
	}
	switch e.Category {
	case cat:
		score += 1
	case model.CategoryAny:
		// applies, but yields to an exact category match
	default:
		return -1
	}
	return score
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.UTC().Date()
	by, bm, bd := b.UTC().Date()
	return ay == by && am == bm && ad == bd
}

// ResolvePrice returns the per-unit price in cents for a single day.
// It returns model.ErrValidation when no entry covers the day, so a
// reservation can never be created with a silently missing price tier.
func ResolvePrice(entries []model.PriceEntry, day time.Time, cat model.PriceCategory) (uint32, error) {
	best := -1
	var amount uint32
	for _, e := range entries {
		s := entryScore(e, day, cat)
		if s > best {
			best = s
			amount = e.AmountCents
		}
	}
	if best < 0 {
		return 0, model.ErrValidation
	}
	return amount, nil
}

// QuotePerUnit sums the resolved daily price for every day covered
// by the half-open interval [start, end).  A hotel stay over three
// nights therefore prices each night at its own tier.  The sum is
// widened to uint64 so long stays cannot wrap the per-day type.
func QuotePerUnit(entries []model.PriceEntry, start, end time.Time, cat model.PriceCategory) (uint64, error) {
	var total uint64
	for day := start.UTC(); day.Before(end); day = day.AddDate(0, 0, 1) {
		p, err := ResolvePrice(entries, day, cat)
		if err != nil {
			return 0, err
		}
		total += uint64(p)
	}
	return total, nil
}
