package model

import "time"

// Reservation records one allocated occurrence of an inventory unit.
// The requested interval is half-open [StartDate, EndDate); for
// ticket types the interval is a single visit day (EndDate is the
// day after StartDate).  Reservations are never deleted — terminal
// rows are retained for audit.  Maps to the `reservations` table.
//
// Fields:
//  ID                   – primary key identifier.
//  UnitID               – reserved inventory unit.
//  VendorID             – denormalized owning vendor, used for
//                         authorization checks without a join.
//  UserID               – requesting identity.
//  StartDate, EndDate   – requested interval, half-open, UTC midnight.
//  Qty                  – number of units reserved.
//  Category             – price category the total was computed with.
//  TotalAmountCents     – computed total price.
//  Status               – lifecycle status, see status.go.
//  ConfirmationDeadline – when a still-PENDING reservation expires.
//  ConfirmedBy/At       – vendor actor and time of confirmation.
//  RejectionReason      – mandatory when status is REJECTED.
//  PaymentRef           – external payment reference, if any.
type Reservation struct {
	ID                   uint64            // reservations.id
	UnitID               uint64            // reservations.unit_id
	VendorID             uint64            // reservations.vendor_id
	UserID               uint64            // reservations.user_id
	StartDate            time.Time         // reservations.start_date
	EndDate              time.Time         // reservations.end_date
	Qty                  uint32            // reservations.qty
	Category             PriceCategory     // reservations.category
	TotalAmountCents     uint64            // reservations.total_amount_cents
	Status               ReservationStatus // reservations.status
	ConfirmationDeadline time.Time         // reservations.confirmation_deadline
	ConfirmedBy          *uint64           // reservations.confirmed_by (nullable)
	ConfirmedAt          *time.Time        // reservations.confirmed_at (nullable)
	RejectionReason      *string           // reservations.rejection_reason (nullable)
	PaymentRef           *string           // reservations.payment_ref (nullable)
	CreatedAt            time.Time         // reservations.created_at
	UpdatedAt            time.Time         // reservations.updated_at
}

// Overlaps reports whether the reservation's half-open interval
// intersects [start, end).  Two half-open intervals A and B overlap
// when A.start < B.end && A.end > B.start.
func (r Reservation) Overlaps(start, end time.Time) bool {
	return r.StartDate.Before(end) && r.EndDate.After(start)
}

// StatusEvent is one append-only history record written on every
// status transition.  Rows are never mutated.  Maps to the
// `reservation_status_events` table.
type StatusEvent struct {
	ID            uint64            // reservation_status_events.id
	ReservationID uint64            // reservation_status_events.reservation_id
	Status        ReservationStatus // reservation_status_events.status
	ActorID       uint64            // reservation_status_events.actor_id (0 = system)
	Comment       string            // reservation_status_events.comment
	CreatedAt     time.Time         // reservation_status_events.created_at
}
