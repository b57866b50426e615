package model

// ReservationStatus is the lifecycle state of a reservation.  The
// full machine is:
//
//	PENDING   → CONFIRMED | REJECTED | EXPIRED | CANCELLED
//	CONFIRMED → COMPLETED | CANCELLED
//
// REJECTED, EXPIRED, CANCELLED and COMPLETED are terminal.
type ReservationStatus string

const (
	StatusPending   ReservationStatus = "PENDING"
	StatusConfirmed ReservationStatus = "CONFIRMED"
	StatusRejected  ReservationStatus = "REJECTED"
	StatusExpired   ReservationStatus = "EXPIRED"
	StatusCancelled ReservationStatus = "CANCELLED"
	StatusCompleted ReservationStatus = "COMPLETED"
)

// transitions is the single transition table for the whole engine.
// Every caller goes through CanTransition; no handler or repository
// re-implements status comparisons on its own.
var transitions = map[ReservationStatus][]ReservationStatus{
	StatusPending:   {StatusConfirmed, StatusRejected, StatusExpired, StatusCancelled},
	StatusConfirmed: {StatusCompleted, StatusCancelled},
	StatusRejected:  {},
	StatusExpired:   {},
	StatusCancelled: {},
	StatusCompleted: {},
}

// CanTransition reports whether moving from one status to another is
// allowed by the state machine.
func CanTransition(from, to ReservationStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the status accepts no further
// transitions.
func IsTerminal(s ReservationStatus) bool {
	next, ok := transitions[s]
	return ok && len(next) == 0
}

// ActiveStatuses are the statuses that count against capacity when
// computing availability.
var ActiveStatuses = []ReservationStatus{StatusPending, StatusConfirmed}
