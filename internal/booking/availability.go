// Package booking implements the engine core: availability
// calculation, the reservation lifecycle state machine and the
// expiry sweeper.  Services talk to storage through narrow
// interfaces so the MySQL repositories and the in-memory test fakes
// are interchangeable.
package booking

import (
	"context"
	"time"

	"github.com/SNurali/silkroad-reservation/internal/clock"
	"github.com/SNurali/silkroad-reservation/internal/model"
)

// Interval is a half-open [Start, End) date range in UTC.  For
// ticket types End is the day after the visit date.
type Interval struct {
	Start time.Time
	End   time.Time
}

// Validate enforces the input constraints shared by availability
// checks and reservation creation: the interval must be non-empty
// and must not start in the past.
func (iv Interval) Validate(now time.Time) error {
	if !iv.End.After(iv.Start) {
		return model.ErrInvalidInterval
	}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	if iv.Start.Before(today) {
		return model.ErrInvalidInterval
	}
	return nil
}

// AvailabilityStore is the read-only slice of storage the calculator
// needs.  All methods honour an in-flight transaction when the
// context carries one, which is how Create re-runs the same check
// under the unit lock.
type AvailabilityStore interface {
	GetUnit(ctx context.Context, unitID uint64) (model.InventoryUnit, error)
	GetVendor(ctx context.Context, vendorID uint64) (model.VendorAccount, error)
	SumActiveOverlap(ctx context.Context, unitID uint64, start, end time.Time) (uint32, error)
	PriceEntries(ctx context.Context, unitID uint64) ([]model.PriceEntry, error)
}

// Availability is a point-in-time snapshot.  Callers must not
// assume it still holds by the time a subsequent create call runs;
// Create repeats the check atomically.
type Availability struct {
	UnitID           uint64 `json:"unit_id"`
	Available        uint32 `json:"available"`
	Unlimited        bool   `json:"unlimited"`
	PerUnitCents     uint64 `json:"per_unit_cents"`
	TotalAmountCents uint64 `json:"total_amount_cents"`
}

// AvailabilityService computes remaining capacity by subtracting
// overlapping active reservations from the unit's total count.  It
// is read-only and has no side effects.
type AvailabilityService struct {
	store AvailabilityStore
	clock clock.Clock
}

// NewAvailabilityService constructs the calculator.
func NewAvailabilityService(store AvailabilityStore, clk clock.Clock) *AvailabilityService {
	return &AvailabilityService{store: store, clock: clk}
}

// Check validates the request, loads the unit and its vendor, sums
// the quantities of PENDING and CONFIRMED reservations whose
// intervals overlap the requested one and prices the stay.  Units of
// suspended vendors and inactive units report model.ErrUnitNotFound
// rather than leaking their existence.
func (s *AvailabilityService) Check(ctx context.Context, unitID uint64, iv Interval, qty uint32, cat model.PriceCategory) (Availability, error) {
	if qty < 1 {
		return Availability{}, model.ErrValidation
	}
	if err := iv.Validate(s.clock.Now()); err != nil {
		return Availability{}, err
	}
	unit, err := s.store.GetUnit(ctx, unitID)
	if err != nil {
		return Availability{}, err
	}
	return s.check(ctx, unit, iv, qty, cat)
}

// check is the shared core used by Check and by the lifecycle
// manager's Create, which calls it with the unit row already locked.
func (s *AvailabilityService) check(ctx context.Context, unit model.InventoryUnit, iv Interval, qty uint32, cat model.PriceCategory) (Availability, error) {
	if !unit.Active {
		return Availability{}, model.ErrUnitNotFound
	}
	vendor, err := s.store.GetVendor(ctx, unit.VendorID)
	if err != nil {
		return Availability{}, err
	}
	if vendor.Status != model.VendorActive {
		return Availability{}, model.ErrUnitNotFound
	}

	out := Availability{UnitID: unit.ID, Unlimited: unit.Unlimited()}
	if !out.Unlimited {
		taken, err := s.store.SumActiveOverlap(ctx, unit.ID, iv.Start, iv.End)
		if err != nil {
			return Availability{}, err
		}
		if taken >= unit.TotalCount {
			out.Available = 0
		} else {
			out.Available = unit.TotalCount - taken
		}
	}

	entries, err := s.store.PriceEntries(ctx, unit.ID)
	if err != nil {
		return Availability{}, err
	}
	perUnit, err := QuotePerUnit(entries, iv.Start, iv.End, cat)
	if err != nil {
		return Availability{}, err
	}
	out.PerUnitCents = perUnit
	out.TotalAmountCents = perUnit * uint64(qty)
	if perUnit > 0 && out.TotalAmountCents/perUnit != uint64(qty) {
		return Availability{}, model.ErrValidation
	}
	return out, nil
}
