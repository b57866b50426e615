// Package notify delivers reservation notifications to vendor
// actors and requesters.  Delivery is best-effort: the lifecycle
// manager calls Notify after a status transition has committed and
// only logs failures — a broken broker never rolls back a
// reservation.
package notify

import "context"

// Notification is one message for one recipient.  Link points the
// recipient at the reservation in whatever UI consumes these events.
type Notification struct {
	RecipientID   uint64 `json:"recipient_id"`
	VendorID      uint64 `json:"vendor_id,omitempty"`
	ReservationID uint64 `json:"reservation_id"`
	Title         string `json:"title"`
	Message       string `json:"message"`
	Link          string `json:"link"`
}

// Notifier is the fire-and-forget delivery contract.
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// Noop discards notifications.  Used when no broker is configured.
type Noop struct{}

func (Noop) Notify(context.Context, Notification) error { return nil }
