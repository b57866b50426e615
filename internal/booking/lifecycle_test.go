package booking

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/SNurali/silkroad-reservation/internal/auth"
	"github.com/SNurali/silkroad-reservation/internal/model"
)

var (
	ownerCtx    = auth.Context{UserID: 10, VendorID: 1, Role: model.RoleOwner}
	operatorCtx = auth.Context{UserID: 11, VendorID: 1, Role: model.RoleOperator}
	guestCtx    = auth.Context{UserID: 7}
)

func createPending(t *testing.T, fx *fixture) model.Reservation {
	t.Helper()
	res, err := fx.svc.Create(context.Background(), CreateInput{
		UnitID:   1,
		Interval: Interval{Start: day(2026, 3, 10), End: day(2026, 3, 12)},
		Qty:      1,
		UserID:   7,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	return res
}

func TestCreateReservation(t *testing.T) {
	fx := newFixture()
	res := createPending(t, fx)

	if res.Status != model.StatusPending {
		t.Fatalf("status = %s, want PENDING", res.Status)
	}
	if res.VendorID != 1 || res.UserID != 7 {
		t.Fatalf("ownership = vendor %d user %d", res.VendorID, res.UserID)
	}
	if res.TotalAmountCents != 20000 {
		t.Fatalf("total = %d, want 20000", res.TotalAmountCents)
	}
	if want := fx.clock.Now().Add(48 * time.Hour); !res.ConfirmationDeadline.Equal(want) {
		t.Fatalf("deadline = %s, want %s", res.ConfirmationDeadline, want)
	}
	evs, _ := fx.store.ListEvents(context.Background(), res.ID)
	if len(evs) != 1 || evs[0].Status != model.StatusPending {
		t.Fatalf("events = %+v, want single PENDING", evs)
	}
	if fx.notifier.count() != 1 {
		t.Fatalf("notifications = %d, want 1", fx.notifier.count())
	}
}

func TestCreatePreventsOversell(t *testing.T) {
	fx := newFixture()
	iv := Interval{Start: day(2026, 3, 10), End: day(2026, 3, 12)}

	if _, err := fx.svc.Create(context.Background(), CreateInput{UnitID: 1, Interval: iv, Qty: 2, UserID: 7}); err != nil {
		t.Fatalf("Create qty 2: %v", err)
	}
	_, err := fx.svc.Create(context.Background(), CreateInput{UnitID: 1, Interval: iv, Qty: 1, UserID: 8})
	if !errors.Is(err, model.ErrCapacityExceeded) {
		t.Fatalf("err = %v, want ErrCapacityExceeded", err)
	}
	// A disjoint interval is unaffected.
	if _, err := fx.svc.Create(context.Background(), CreateInput{UnitID: 1, Interval: Interval{Start: day(2026, 3, 12), End: day(2026, 3, 14)}, Qty: 2, UserID: 8}); err != nil {
		t.Fatalf("Create disjoint: %v", err)
	}
}

func TestCreateConcurrentLastUnit(t *testing.T) {
	fx := newFixture()
	iv := Interval{Start: day(2026, 3, 10), End: day(2026, 3, 12)}
	if _, err := fx.svc.Create(context.Background(), CreateInput{UnitID: 1, Interval: iv, Qty: 1, UserID: 6}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	// Two racers for the last room: exactly one may win.
	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = fx.svc.Create(context.Background(), CreateInput{UnitID: 1, Interval: iv, Qty: 1, UserID: uint64(20 + i)})
		}(i)
	}
	wg.Wait()

	wins := 0
	for _, err := range errs {
		switch {
		case err == nil:
			wins++
		case errors.Is(err, model.ErrCapacityExceeded):
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if wins != 1 {
		t.Fatalf("winners = %d, want exactly 1", wins)
	}
}

func TestApprove(t *testing.T) {
	fx := newFixture()
	res := createPending(t, fx)
	ctx := context.Background()

	got, err := fx.svc.Approve(ctx, operatorCtx, res.ID)
	if err != nil {
		t.Fatalf("Approve: %v", err)
	}
	if got.Status != model.StatusConfirmed {
		t.Fatalf("status = %s, want CONFIRMED", got.Status)
	}
	if got.ConfirmedBy == nil || *got.ConfirmedBy != operatorCtx.UserID || got.ConfirmedAt == nil {
		t.Fatalf("confirmed_by/at not recorded: %+v", got)
	}

	// Approving again is a no-op success and appends no second event.
	again, err := fx.svc.Approve(ctx, operatorCtx, res.ID)
	if err != nil {
		t.Fatalf("second Approve: %v", err)
	}
	if again.Status != model.StatusConfirmed {
		t.Fatalf("status = %s after retry", again.Status)
	}
	evs, _ := fx.store.ListEvents(ctx, res.ID)
	confirmed := 0
	for _, ev := range evs {
		if ev.Status == model.StatusConfirmed {
			confirmed++
		}
	}
	if confirmed != 1 {
		t.Fatalf("CONFIRMED events = %d, want 1", confirmed)
	}
}

func TestApproveAuthorization(t *testing.T) {
	fx := newFixture()
	res := createPending(t, fx)
	ctx := context.Background()

	cases := []struct {
		name string
		actx auth.Context
	}{
		{"plain user", guestCtx},
		{"other vendor owner", auth.Context{UserID: 30, VendorID: 2, Role: model.RoleOwner}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := fx.svc.Approve(ctx, tc.actx, res.ID); !errors.Is(err, model.ErrForbidden) {
				t.Fatalf("err = %v, want ErrForbidden", err)
			}
		})
	}
}

func TestReject(t *testing.T) {
	fx := newFixture()
	ctx := context.Background()

	t.Run("requires reason", func(t *testing.T) {
		res := createPending(t, fx)
		if _, err := fx.svc.Reject(ctx, ownerCtx, res.ID, "  "); !errors.Is(err, model.ErrValidation) {
			t.Fatalf("err = %v, want ErrValidation", err)
		}
		cur, _ := fx.store.GetReservation(ctx, res.ID)
		if cur.Status != model.StatusPending {
			t.Fatalf("status = %s, reservation must stay PENDING", cur.Status)
		}
	})

	t.Run("records reason", func(t *testing.T) {
		res := createPending(t, fx)
		got, err := fx.svc.Reject(ctx, ownerCtx, res.ID, "fully booked offline")
		if err != nil {
			t.Fatalf("Reject: %v", err)
		}
		if got.Status != model.StatusRejected || got.RejectionReason == nil || *got.RejectionReason != "fully booked offline" {
			t.Fatalf("rejection not recorded: %+v", got)
		}
	})

	t.Run("confirmed cannot be rejected", func(t *testing.T) {
		res := createPending(t, fx)
		if _, err := fx.svc.Approve(ctx, ownerCtx, res.ID); err != nil {
			t.Fatalf("Approve: %v", err)
		}
		if _, err := fx.svc.Reject(ctx, ownerCtx, res.ID, "changed my mind"); !errors.Is(err, model.ErrConflict) {
			t.Fatalf("err = %v, want ErrConflict", err)
		}
	})
}

func TestTerminalImmutability(t *testing.T) {
	fx := newFixture()
	ctx := context.Background()
	res := createPending(t, fx)
	if _, err := fx.svc.Reject(ctx, ownerCtx, res.ID, "no availability"); err != nil {
		t.Fatalf("Reject: %v", err)
	}

	ops := map[string]func() error{
		"Approve":  func() error { _, err := fx.svc.Approve(ctx, ownerCtx, res.ID); return err },
		"Reject":   func() error { _, err := fx.svc.Reject(ctx, ownerCtx, res.ID, "again"); return err },
		"MarkPaid": func() error { _, err := fx.svc.MarkPaid(ctx, res.ID, "pay-1"); return err },
		"Cancel":   func() error { _, err := fx.svc.CancelByUser(ctx, 7, res.ID); return err },
		"Expire":   func() error { _, err := fx.svc.Expire(ctx, res.ID); return err },
	}
	for name, op := range ops {
		t.Run(name, func(t *testing.T) {
			if err := op(); !errors.Is(err, model.ErrAlreadyTerminal) {
				t.Fatalf("err = %v, want ErrAlreadyTerminal", err)
			}
		})
	}
}

func TestMarkPaid(t *testing.T) {
	fx := newFixture()
	ctx := context.Background()
	res := createPending(t, fx)

	got, err := fx.svc.MarkPaid(ctx, res.ID, "click-778812")
	if err != nil {
		t.Fatalf("MarkPaid: %v", err)
	}
	if got.Status != model.StatusConfirmed || got.PaymentRef == nil || *got.PaymentRef != "click-778812" {
		t.Fatalf("payment not applied: %+v", got)
	}

	// A duplicate webhook keeps CONFIRMED and does not add an event.
	if _, err := fx.svc.MarkPaid(ctx, res.ID, "click-778812"); err != nil {
		t.Fatalf("duplicate MarkPaid: %v", err)
	}
	evs, _ := fx.store.ListEvents(ctx, res.ID)
	if len(evs) != 2 { // PENDING + CONFIRMED
		t.Fatalf("events = %d, want 2", len(evs))
	}
}

func TestCancelByUser(t *testing.T) {
	fx := newFixture()
	ctx := context.Background()

	t.Run("own pending", func(t *testing.T) {
		res := createPending(t, fx)
		got, err := fx.svc.CancelByUser(ctx, 7, res.ID)
		if err != nil {
			t.Fatalf("CancelByUser: %v", err)
		}
		if got.Status != model.StatusCancelled {
			t.Fatalf("status = %s, want CANCELLED", got.Status)
		}
	})
	t.Run("someone else's", func(t *testing.T) {
		res := createPending(t, fx)
		if _, err := fx.svc.CancelByUser(ctx, 8, res.ID); !errors.Is(err, model.ErrForbidden) {
			t.Fatalf("err = %v, want ErrForbidden", err)
		}
	})
	t.Run("confirmed needs the vendor", func(t *testing.T) {
		res := createPending(t, fx)
		if _, err := fx.svc.Approve(ctx, ownerCtx, res.ID); err != nil {
			t.Fatalf("Approve: %v", err)
		}
		if _, err := fx.svc.CancelByUser(ctx, 7, res.ID); !errors.Is(err, model.ErrConflict) {
			t.Fatalf("err = %v, want ErrConflict", err)
		}
	})
}

func TestCancelConfirmedIsOwnerOnly(t *testing.T) {
	fx := newFixture()
	ctx := context.Background()
	res := createPending(t, fx)
	if _, err := fx.svc.Approve(ctx, operatorCtx, res.ID); err != nil {
		t.Fatalf("Approve: %v", err)
	}

	if _, err := fx.svc.CancelConfirmed(ctx, operatorCtx, res.ID, "overbooked"); !errors.Is(err, model.ErrForbidden) {
		t.Fatalf("operator err = %v, want ErrForbidden", err)
	}
	got, err := fx.svc.CancelConfirmed(ctx, ownerCtx, res.ID, "overbooked")
	if err != nil {
		t.Fatalf("owner CancelConfirmed: %v", err)
	}
	if got.Status != model.StatusCancelled {
		t.Fatalf("status = %s, want CANCELLED", got.Status)
	}
}

func TestComplete(t *testing.T) {
	fx := newFixture()
	ctx := context.Background()
	res := createPending(t, fx)

	// PENDING cannot be completed.
	if _, err := fx.svc.Complete(ctx, operatorCtx, res.ID); !errors.Is(err, model.ErrConflict) {
		t.Fatalf("err = %v, want ErrConflict", err)
	}
	if _, err := fx.svc.Approve(ctx, operatorCtx, res.ID); err != nil {
		t.Fatalf("Approve: %v", err)
	}
	got, err := fx.svc.Complete(ctx, operatorCtx, res.ID)
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if got.Status != model.StatusCompleted {
		t.Fatalf("status = %s, want COMPLETED", got.Status)
	}
}

func TestExpire(t *testing.T) {
	fx := newFixture()
	ctx := context.Background()
	res := createPending(t, fx)

	if _, err := fx.svc.Expire(ctx, res.ID); !errors.Is(err, model.ErrConflict) {
		t.Fatalf("before deadline err = %v, want ErrConflict", err)
	}

	fx.clock.Advance(48*time.Hour + time.Minute)
	got, err := fx.svc.Expire(ctx, res.ID)
	if err != nil {
		t.Fatalf("Expire: %v", err)
	}
	if got.Status != model.StatusExpired {
		t.Fatalf("status = %s, want EXPIRED", got.Status)
	}
}

func TestExpireLosesToConfirmation(t *testing.T) {
	fx := newFixture()
	ctx := context.Background()
	res := createPending(t, fx)
	fx.clock.Advance(49 * time.Hour)

	// A grace-period confirmation that lands first must stand.
	if _, err := fx.svc.Approve(ctx, ownerCtx, res.ID); err != nil {
		t.Fatalf("Approve: %v", err)
	}
	if _, err := fx.svc.Expire(ctx, res.ID); !errors.Is(err, model.ErrAlreadyTerminal) {
		t.Fatalf("err = %v, want ErrAlreadyTerminal", err)
	}
	cur, _ := fx.store.GetReservation(ctx, res.ID)
	if cur.Status != model.StatusConfirmed {
		t.Fatalf("status = %s, confirmation must stand", cur.Status)
	}
}

func TestGetAndHistoryVisibility(t *testing.T) {
	fx := newFixture()
	ctx := context.Background()
	res := createPending(t, fx)

	if _, err := fx.svc.Get(ctx, guestCtx, res.ID); err != nil {
		t.Fatalf("requester Get: %v", err)
	}
	if _, err := fx.svc.Get(ctx, operatorCtx, res.ID); err != nil {
		t.Fatalf("vendor operator Get: %v", err)
	}
	if _, err := fx.svc.Get(ctx, auth.Context{UserID: 99}, res.ID); !errors.Is(err, model.ErrForbidden) {
		t.Fatalf("stranger err = %v, want ErrForbidden", err)
	}
	evs, err := fx.svc.History(ctx, guestCtx, res.ID)
	if err != nil || len(evs) != 1 {
		t.Fatalf("History = %v, %v; want one event", evs, err)
	}
}
