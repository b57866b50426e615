package model

import "time"

// UnitKind distinguishes the two reservable kinds the engine knows
// about.  Room types are reserved over a [check-in, check-out) date
// range; ticket types collapse to a single visit date.
type UnitKind string

const (
	KindRoomType   UnitKind = "ROOM_TYPE"
	KindTicketType UnitKind = "TICKET_TYPE"
)

// PriceCategory selects the visitor price class.  CategoryAny is the
// default tier used when no resident split is configured.
type PriceCategory string

const (
	CategoryResident    PriceCategory = "RESIDENT"
	CategoryNonResident PriceCategory = "NON_RESIDENT"
	CategoryAny         PriceCategory = "ANY"
)

// DayClass scopes a price entry to a class of days when no exact
// date is set.
type DayClass string

const (
	DayWeekday DayClass = "WEEKDAY"
	DayWeekend DayClass = "WEEKEND"
	DayAny     DayClass = "ANY"
)

// InventoryUnit is one reservable kind belonging to a vendor: a
// room type with a finite number of rooms, or a ticket type with a
// finite or unlimited daily cap.  Maps to the `inventory_units`
// table.  TotalCount of zero on a ticket type means unlimited
// capacity; room types must always carry a positive count.
//
// Fields:
//  ID              – primary key; the one canonical unit identifier
//                    used throughout the engine.
//  VendorID        – owning vendor.
//  Kind            – ROOM_TYPE or TICKET_TYPE.
//  Name            – display name (e.g. "Room-Double").
//  TotalCount      – allocatable units (0 = unlimited, ticket kinds only).
//  CapacityPerUnit – persons per unit (room kinds).
//  Active          – inactive units are hidden from availability.
type InventoryUnit struct {
	ID              uint64    // inventory_units.id
	VendorID        uint64    // inventory_units.vendor_id
	Kind            UnitKind  // inventory_units.kind
	Name            string    // inventory_units.name
	TotalCount      uint32    // inventory_units.total_count
	CapacityPerUnit uint32    // inventory_units.capacity_per_unit
	Active          bool      // inventory_units.is_active
	CreatedAt       time.Time // inventory_units.created_at
	UpdatedAt       time.Time // inventory_units.updated_at
}

// Unlimited reports whether the unit has no capacity cap.  Only
// ticket types may be unlimited.
func (u InventoryUnit) Unlimited() bool {
	return u.Kind == KindTicketType && u.TotalCount == 0
}

// PriceEntry is one row of the unit's price table.  Resolution is
// most-specific-wins: an entry with an exact Date beats a
// weekday/weekend entry, which beats the DayAny default.  Within the
// same specificity a matching Category beats CategoryAny.
//
// Fields:
//  ID          – primary key.
//  UnitID      – inventory unit this price belongs to.
//  Date        – exact date the price applies to (nil when scoped by DayClass).
//  DayClass    – WEEKDAY/WEEKEND/ANY scope used when Date is nil.
//  Category    – visitor category the price applies to.
//  AmountCents – price per unit per day in cents.
type PriceEntry struct {
	ID          uint64        // price_entries.id
	UnitID      uint64        // price_entries.unit_id
	Date        *time.Time    // price_entries.price_date (nullable)
	DayClass    DayClass      // price_entries.day_class
	Category    PriceCategory // price_entries.category
	AmountCents uint32        // price_entries.amount_cents
	CreatedAt   time.Time     // price_entries.created_at
}
