package booking

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/SNurali/silkroad-reservation/internal/auth"
	"github.com/SNurali/silkroad-reservation/internal/clock"
	"github.com/SNurali/silkroad-reservation/internal/model"
	"github.com/SNurali/silkroad-reservation/internal/notify"
)

// Store is the storage contract of the lifecycle manager.  The
// ForUpdate variants must lock the row for the duration of the
// enclosing WithTx so check-then-write sequences are linearizable;
// UpdateStatus must additionally compare-and-swap on the previous
// status so a racing transition loses with model.ErrAlreadyTerminal
// instead of overwriting the winner.
type Store interface {
	AvailabilityStore

	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
	GetUnitForUpdate(ctx context.Context, unitID uint64) (model.InventoryUnit, error)
	CreateReservation(ctx context.Context, res *model.Reservation) error
	GetReservation(ctx context.Context, id uint64) (model.Reservation, error)
	GetReservationForUpdate(ctx context.Context, id uint64) (model.Reservation, error)
	UpdateStatus(ctx context.Context, res model.Reservation, from model.ReservationStatus) error
	AppendEvent(ctx context.Context, ev model.StatusEvent) error
	ListEvents(ctx context.Context, reservationID uint64) ([]model.StatusEvent, error)
	ListByUser(ctx context.Context, userID uint64) ([]model.Reservation, error)
	ListByVendor(ctx context.Context, vendorID uint64) ([]model.Reservation, error)
	ListExpiredPending(ctx context.Context, now time.Time, limit int) ([]uint64, error)
}

// GraceWindows holds the per-kind confirmation deadline offsets.
// Both default to 48 hours; operators can tune them independently
// through configuration.
type GraceWindows struct {
	Room   time.Duration
	Ticket time.Duration
}

// Service owns the reservation state machine: it is the only place
// that creates reservations or moves them between statuses.  Every
// committed transition appends exactly one status event; the
// sweeper, the payment webhook and the vendor endpoints all come
// through here so history and side effects stay uniform.
type Service struct {
	store    Store
	clock    clock.Clock
	notifier notify.Notifier
	grace    GraceWindows
}

// NewService wires the lifecycle manager.  A nil notifier degrades
// to no-op delivery.
func NewService(store Store, clk clock.Clock, notifier notify.Notifier, grace GraceWindows) *Service {
	if notifier == nil {
		notifier = notify.Noop{}
	}
	if grace.Room <= 0 {
		grace.Room = 48 * time.Hour
	}
	if grace.Ticket <= 0 {
		grace.Ticket = 48 * time.Hour
	}
	return &Service{store: store, clock: clk, notifier: notifier, grace: grace}
}

// Availability exposes the calculator sharing this service's store,
// so handlers need a single dependency.
func (s *Service) Availability() *AvailabilityService {
	return &AvailabilityService{store: s.store, clock: s.clock}
}

// CreateInput carries a reservation request.  UserID comes from the
// verified context token, never from the request body.
type CreateInput struct {
	UnitID   uint64
	Interval Interval
	Qty      uint32
	Category model.PriceCategory
	UserID   uint64
}

// Create re-validates availability and inserts the reservation in
// one atomic unit: the unit row is locked before the overlap sum so
// two concurrent creates against the same unit serialize, and the
// loser that no longer fits fails with model.ErrCapacityExceeded.
func (s *Service) Create(ctx context.Context, in CreateInput) (model.Reservation, error) {
	if in.Qty < 1 {
		return model.Reservation{}, model.ErrValidation
	}
	now := s.clock.Now()
	if err := in.Interval.Validate(now); err != nil {
		return model.Reservation{}, err
	}
	if in.Category == "" {
		in.Category = model.CategoryAny
	}

	var res model.Reservation
	err := s.store.WithTx(ctx, func(txCtx context.Context) error {
		unit, err := s.store.GetUnitForUpdate(txCtx, in.UnitID)
		if err != nil {
			return err
		}
		avail, err := s.Availability().check(txCtx, unit, in.Interval, in.Qty, in.Category)
		if err != nil {
			return err
		}
		if !avail.Unlimited && avail.Available < in.Qty {
			return model.ErrCapacityExceeded
		}

		res = model.Reservation{
			UnitID:               unit.ID,
			VendorID:             unit.VendorID,
			UserID:               in.UserID,
			StartDate:            in.Interval.Start,
			EndDate:              in.Interval.End,
			Qty:                  in.Qty,
			Category:             in.Category,
			TotalAmountCents:     avail.TotalAmountCents,
			Status:               model.StatusPending,
			ConfirmationDeadline: now.Add(s.graceFor(unit.Kind)),
		}
		if err := s.store.CreateReservation(txCtx, &res); err != nil {
			return err
		}
		return s.store.AppendEvent(txCtx, model.StatusEvent{
			ReservationID: res.ID,
			Status:        model.StatusPending,
			ActorID:       in.UserID,
		})
	})
	if err != nil {
		return model.Reservation{}, err
	}

	s.send(ctx, notify.Notification{
		VendorID:      res.VendorID,
		ReservationID: res.ID,
		Title:         "New reservation request",
		Message:       fmt.Sprintf("Reservation #%d is awaiting confirmation until %s.", res.ID, res.ConfirmationDeadline.Format(time.RFC3339)),
		Link:          fmt.Sprintf("/vendor/reservations/%d", res.ID),
	})
	return res, nil
}

func (s *Service) graceFor(kind model.UnitKind) time.Duration {
	if kind == model.KindTicketType {
		return s.grace.Ticket
	}
	return s.grace.Room
}

// Approve confirms a pending reservation on behalf of the owning
// vendor.  Re-approving an already CONFIRMED reservation is an
// idempotent no-op success so client retries stay cheap; terminal
// reservations fail with model.ErrAlreadyTerminal.
func (s *Service) Approve(ctx context.Context, actx auth.Context, id uint64) (model.Reservation, error) {
	var res model.Reservation
	err := s.store.WithTx(ctx, func(txCtx context.Context) error {
		cur, err := s.store.GetReservationForUpdate(txCtx, id)
		if err != nil {
			return err
		}
		if err := auth.Authorize(actx, auth.CapApproveReservation, cur.VendorID); err != nil {
			return err
		}
		if cur.Status == model.StatusConfirmed {
			res = cur // retry tolerance: no second event, no error
			return nil
		}
		if model.IsTerminal(cur.Status) {
			return model.ErrAlreadyTerminal
		}
		now := s.clock.Now()
		actor := actx.UserID
		upd := cur
		upd.Status = model.StatusConfirmed
		upd.ConfirmedBy = &actor
		upd.ConfirmedAt = &now
		if err := s.store.UpdateStatus(txCtx, upd, cur.Status); err != nil {
			return err
		}
		if err := s.store.AppendEvent(txCtx, model.StatusEvent{
			ReservationID: id,
			Status:        model.StatusConfirmed,
			ActorID:       actor,
		}); err != nil {
			return err
		}
		res = upd
		return nil
	})
	if err != nil {
		return model.Reservation{}, err
	}

	s.send(ctx, notify.Notification{
		RecipientID:   res.UserID,
		ReservationID: res.ID,
		Title:         "Reservation confirmed",
		Message:       fmt.Sprintf("Your reservation #%d has been confirmed by the operator.", res.ID),
		Link:          fmt.Sprintf("/reservations/%d", res.ID),
	})
	return res, nil
}

// Reject declines a pending reservation.  The reason is mandatory;
// a blank one is a validation error and leaves the reservation
// PENDING.  A CONFIRMED reservation cannot be rejected — cancelling
// a confirmed stay is a separately authorized operation
// (CancelConfirmed).
func (s *Service) Reject(ctx context.Context, actx auth.Context, id uint64, reason string) (model.Reservation, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return model.Reservation{}, model.ErrValidation
	}
	var res model.Reservation
	err := s.store.WithTx(ctx, func(txCtx context.Context) error {
		cur, err := s.store.GetReservationForUpdate(txCtx, id)
		if err != nil {
			return err
		}
		if err := auth.Authorize(actx, auth.CapRejectReservation, cur.VendorID); err != nil {
			return err
		}
		if model.IsTerminal(cur.Status) {
			return model.ErrAlreadyTerminal
		}
		if cur.Status == model.StatusConfirmed {
			return model.ErrConflict
		}
		upd := cur
		upd.Status = model.StatusRejected
		upd.RejectionReason = &reason
		if err := s.store.UpdateStatus(txCtx, upd, cur.Status); err != nil {
			return err
		}
		if err := s.store.AppendEvent(txCtx, model.StatusEvent{
			ReservationID: id,
			Status:        model.StatusRejected,
			ActorID:       actx.UserID,
			Comment:       reason,
		}); err != nil {
			return err
		}
		res = upd
		return nil
	})
	if err != nil {
		return model.Reservation{}, err
	}

	s.send(ctx, notify.Notification{
		RecipientID:   res.UserID,
		ReservationID: res.ID,
		Title:         "Reservation rejected",
		Message:       fmt.Sprintf("Your reservation #%d was rejected: %s", res.ID, reason),
		Link:          fmt.Sprintf("/reservations/%d", res.ID),
	})
	return res, nil
}

// MarkPaid is invoked by the payment collaborator after out-of-band
// settlement.  PENDING or CONFIRMED becomes CONFIRMED idempotently;
// terminal reservations are never touched.
func (s *Service) MarkPaid(ctx context.Context, id uint64, paymentRef string) (model.Reservation, error) {
	var res model.Reservation
	err := s.store.WithTx(ctx, func(txCtx context.Context) error {
		cur, err := s.store.GetReservationForUpdate(txCtx, id)
		if err != nil {
			return err
		}
		if model.IsTerminal(cur.Status) {
			return model.ErrAlreadyTerminal
		}
		upd := cur
		if paymentRef != "" {
			upd.PaymentRef = &paymentRef
		}
		if cur.Status == model.StatusConfirmed {
			// Already confirmed: only record the payment reference.
			if err := s.store.UpdateStatus(txCtx, upd, cur.Status); err != nil {
				return err
			}
			res = upd
			return nil
		}
		now := s.clock.Now()
		upd.Status = model.StatusConfirmed
		upd.ConfirmedAt = &now
		if err := s.store.UpdateStatus(txCtx, upd, cur.Status); err != nil {
			return err
		}
		if err := s.store.AppendEvent(txCtx, model.StatusEvent{
			ReservationID: id,
			Status:        model.StatusConfirmed,
			Comment:       "payment received",
		}); err != nil {
			return err
		}
		res = upd
		return nil
	})
	if err != nil {
		return model.Reservation{}, err
	}

	s.send(ctx, notify.Notification{
		RecipientID:   res.UserID,
		ReservationID: res.ID,
		Title:         "Payment received",
		Message:       fmt.Sprintf("Payment for reservation #%d has been received.", res.ID),
		Link:          fmt.Sprintf("/reservations/%d", res.ID),
	})
	return res, nil
}

// CancelByUser lets the requester withdraw their own still-PENDING
// reservation.  Confirmed reservations require the vendor's
// CancelConfirmed.
func (s *Service) CancelByUser(ctx context.Context, userID, id uint64) (model.Reservation, error) {
	var res model.Reservation
	err := s.store.WithTx(ctx, func(txCtx context.Context) error {
		cur, err := s.store.GetReservationForUpdate(txCtx, id)
		if err != nil {
			return err
		}
		if cur.UserID != userID {
			return model.ErrForbidden
		}
		if model.IsTerminal(cur.Status) {
			return model.ErrAlreadyTerminal
		}
		if cur.Status != model.StatusPending {
			return model.ErrConflict
		}
		upd := cur
		upd.Status = model.StatusCancelled
		if err := s.store.UpdateStatus(txCtx, upd, cur.Status); err != nil {
			return err
		}
		if err := s.store.AppendEvent(txCtx, model.StatusEvent{
			ReservationID: id,
			Status:        model.StatusCancelled,
			ActorID:       userID,
		}); err != nil {
			return err
		}
		res = upd
		return nil
	})
	if err != nil {
		return model.Reservation{}, err
	}

	s.send(ctx, notify.Notification{
		VendorID:      res.VendorID,
		ReservationID: res.ID,
		Title:         "Reservation cancelled",
		Message:       fmt.Sprintf("Reservation #%d was cancelled by the requester.", res.ID),
		Link:          fmt.Sprintf("/vendor/reservations/%d", res.ID),
	})
	return res, nil
}

// CancelConfirmed cancels an already confirmed reservation.  Unlike
// Reject it is OWNER-only; the comment is recorded in history but
// not mandatory.
func (s *Service) CancelConfirmed(ctx context.Context, actx auth.Context, id uint64, comment string) (model.Reservation, error) {
	return s.vendorTransition(ctx, actx, id, auth.CapCancelConfirmed, model.StatusConfirmed, model.StatusCancelled, comment,
		"Reservation cancelled", "Your confirmed reservation #%d was cancelled by the operator.")
}

// Complete marks a confirmed reservation as fulfilled after the stay
// or visit took place.
func (s *Service) Complete(ctx context.Context, actx auth.Context, id uint64) (model.Reservation, error) {
	return s.vendorTransition(ctx, actx, id, auth.CapCompleteReservation, model.StatusConfirmed, model.StatusCompleted, "",
		"Reservation completed", "Your reservation #%d has been completed. Thank you!")
}

// vendorTransition is the shared CONFIRMED→X path for vendor-side
// terminal transitions.
func (s *Service) vendorTransition(ctx context.Context, actx auth.Context, id uint64, cap auth.Capability, from, to model.ReservationStatus, comment, title, msgFormat string) (model.Reservation, error) {
	var res model.Reservation
	err := s.store.WithTx(ctx, func(txCtx context.Context) error {
		cur, err := s.store.GetReservationForUpdate(txCtx, id)
		if err != nil {
			return err
		}
		if err := auth.Authorize(actx, cap, cur.VendorID); err != nil {
			return err
		}
		if model.IsTerminal(cur.Status) {
			return model.ErrAlreadyTerminal
		}
		if cur.Status != from || !model.CanTransition(from, to) {
			return model.ErrConflict
		}
		upd := cur
		upd.Status = to
		if err := s.store.UpdateStatus(txCtx, upd, cur.Status); err != nil {
			return err
		}
		if err := s.store.AppendEvent(txCtx, model.StatusEvent{
			ReservationID: id,
			Status:        to,
			ActorID:       actx.UserID,
			Comment:       comment,
		}); err != nil {
			return err
		}
		res = upd
		return nil
	})
	if err != nil {
		return model.Reservation{}, err
	}

	s.send(ctx, notify.Notification{
		RecipientID:   res.UserID,
		ReservationID: res.ID,
		Title:         title,
		Message:       fmt.Sprintf(msgFormat, res.ID),
		Link:          fmt.Sprintf("/reservations/%d", res.ID),
	})
	return res, nil
}

// Expire forces a deadline-overrun PENDING reservation into EXPIRED.
// It is the sweeper's entry point and uses the same guards as the
// vendor paths, so a reservation approved a moment earlier makes the
// expiry attempt lose with model.ErrAlreadyTerminal instead of
// clobbering the confirmation.
func (s *Service) Expire(ctx context.Context, id uint64) (model.Reservation, error) {
	var res model.Reservation
	err := s.store.WithTx(ctx, func(txCtx context.Context) error {
		cur, err := s.store.GetReservationForUpdate(txCtx, id)
		if err != nil {
			return err
		}
		if model.IsTerminal(cur.Status) {
			return model.ErrAlreadyTerminal
		}
		if cur.Status != model.StatusPending {
			// Confirmed in the meantime: the other transition won.
			return model.ErrAlreadyTerminal
		}
		if cur.ConfirmationDeadline.After(s.clock.Now()) {
			return model.ErrConflict
		}
		upd := cur
		upd.Status = model.StatusExpired
		if err := s.store.UpdateStatus(txCtx, upd, cur.Status); err != nil {
			return err
		}
		if err := s.store.AppendEvent(txCtx, model.StatusEvent{
			ReservationID: id,
			Status:        model.StatusExpired,
			Comment:       "confirmation deadline passed",
		}); err != nil {
			return err
		}
		res = upd
		return nil
	})
	if err != nil {
		return model.Reservation{}, err
	}

	s.send(ctx, notify.Notification{
		RecipientID:   res.UserID,
		ReservationID: res.ID,
		Title:         "Reservation expired",
		Message:       fmt.Sprintf("Reservation #%d expired because the vendor did not confirm it in time.", res.ID),
		Link:          fmt.Sprintf("/reservations/%d", res.ID),
	})
	return res, nil
}

// Get returns one reservation, restricted to its requester or an
// authorized actor of the owning vendor.
func (s *Service) Get(ctx context.Context, actx auth.Context, id uint64) (model.Reservation, error) {
	res, err := s.store.GetReservation(ctx, id)
	if err != nil {
		return model.Reservation{}, err
	}
	if res.UserID == actx.UserID && !actx.ActingAsVendor() {
		return res, nil
	}
	if err := auth.Authorize(actx, auth.CapViewVendorReservations, res.VendorID); err != nil {
		return model.Reservation{}, err
	}
	return res, nil
}

// History returns the append-only status trail, with the same
// visibility rule as Get.
func (s *Service) History(ctx context.Context, actx auth.Context, id uint64) ([]model.StatusEvent, error) {
	if _, err := s.Get(ctx, actx, id); err != nil {
		return nil, err
	}
	return s.store.ListEvents(ctx, id)
}

// ListForUser returns the requester's own reservations, newest first.
func (s *Service) ListForUser(ctx context.Context, userID uint64) ([]model.Reservation, error) {
	return s.store.ListByUser(ctx, userID)
}

// ListForVendor returns the vendor's reservations for authorized
// vendor actors.
func (s *Service) ListForVendor(ctx context.Context, actx auth.Context) ([]model.Reservation, error) {
	if err := auth.Authorize(actx, auth.CapViewVendorReservations, actx.VendorID); err != nil {
		return nil, err
	}
	return s.store.ListByVendor(ctx, actx.VendorID)
}

// ListExpiredPending surfaces the sweeper's work queue.
func (s *Service) ListExpiredPending(ctx context.Context, limit int) ([]uint64, error) {
	return s.store.ListExpiredPending(ctx, s.clock.Now(), limit)
}

// send delivers a notification after a committed transition.  A
// delivery failure is logged and otherwise ignored: the transition
// already happened and must not be affected.
func (s *Service) send(ctx context.Context, n notify.Notification) {
	if err := s.notifier.Notify(ctx, n); err != nil {
		log.Printf("booking: notify reservation %d failed: %v", n.ReservationID, err)
	}
}
