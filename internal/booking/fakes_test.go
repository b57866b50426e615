package booking

import (
	"context"
	"sync"
	"time"

	"github.com/SNurali/silkroad-reservation/internal/model"
	"github.com/SNurali/silkroad-reservation/internal/notify"
)

// stepClock is a movable test clock.
type stepClock struct {
	mu  sync.Mutex
	now time.Time
}

func newStepClock(t time.Time) *stepClock { return &stepClock{now: t.UTC()} }

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *stepClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// memStore is an in-memory Store.  WithTx holds the store mutex for
// the whole callback, which models the row-lock serialization the
// SQL implementation gets from SELECT ... FOR UPDATE.
type memStore struct {
	mu           sync.Mutex
	vendors      map[uint64]model.VendorAccount
	units        map[uint64]model.InventoryUnit
	prices       map[uint64][]model.PriceEntry
	reservations map[uint64]model.Reservation
	events       []model.StatusEvent
	nextID       uint64
}

func newMemStore() *memStore {
	return &memStore{
		vendors:      make(map[uint64]model.VendorAccount),
		units:        make(map[uint64]model.InventoryUnit),
		prices:       make(map[uint64][]model.PriceEntry),
		reservations: make(map[uint64]model.Reservation),
	}
}

type memTxKey struct{}

func (s *memStore) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(memTxKey{}) != nil {
		return fn(ctx)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(context.WithValue(ctx, memTxKey{}, true))
}

// lockUnlessTx guards the single-call read paths that run outside a
// transaction.
func (s *memStore) lockUnlessTx(ctx context.Context) func() {
	if ctx.Value(memTxKey{}) != nil {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

func (s *memStore) GetVendor(ctx context.Context, vendorID uint64) (model.VendorAccount, error) {
	defer s.lockUnlessTx(ctx)()
	v, ok := s.vendors[vendorID]
	if !ok {
		return model.VendorAccount{}, model.ErrUnitNotFound
	}
	return v, nil
}

func (s *memStore) GetUnit(ctx context.Context, unitID uint64) (model.InventoryUnit, error) {
	defer s.lockUnlessTx(ctx)()
	u, ok := s.units[unitID]
	if !ok {
		return model.InventoryUnit{}, model.ErrUnitNotFound
	}
	return u, nil
}

func (s *memStore) GetUnitForUpdate(ctx context.Context, unitID uint64) (model.InventoryUnit, error) {
	return s.GetUnit(ctx, unitID)
}

func (s *memStore) SumActiveOverlap(ctx context.Context, unitID uint64, start, end time.Time) (uint32, error) {
	defer s.lockUnlessTx(ctx)()
	var sum uint32
	for _, r := range s.reservations {
		if r.UnitID != unitID {
			continue
		}
		active := false
		for _, st := range model.ActiveStatuses {
			if r.Status == st {
				active = true
			}
		}
		if active && r.Overlaps(start, end) {
			sum += r.Qty
		}
	}
	return sum, nil
}

func (s *memStore) PriceEntries(ctx context.Context, unitID uint64) ([]model.PriceEntry, error) {
	defer s.lockUnlessTx(ctx)()
	return s.prices[unitID], nil
}

func (s *memStore) CreateReservation(ctx context.Context, res *model.Reservation) error {
	defer s.lockUnlessTx(ctx)()
	s.nextID++
	res.ID = s.nextID
	s.reservations[res.ID] = *res
	return nil
}

func (s *memStore) GetReservation(ctx context.Context, id uint64) (model.Reservation, error) {
	defer s.lockUnlessTx(ctx)()
	r, ok := s.reservations[id]
	if !ok {
		return model.Reservation{}, model.ErrReservationNotFound
	}
	return r, nil
}

func (s *memStore) GetReservationForUpdate(ctx context.Context, id uint64) (model.Reservation, error) {
	return s.GetReservation(ctx, id)
}

func (s *memStore) UpdateStatus(ctx context.Context, res model.Reservation, from model.ReservationStatus) error {
	defer s.lockUnlessTx(ctx)()
	cur, ok := s.reservations[res.ID]
	if !ok {
		return model.ErrReservationNotFound
	}
	if cur.Status != from {
		return model.ErrAlreadyTerminal
	}
	s.reservations[res.ID] = res
	return nil
}

func (s *memStore) AppendEvent(ctx context.Context, ev model.StatusEvent) error {
	defer s.lockUnlessTx(ctx)()
	ev.ID = uint64(len(s.events) + 1)
	s.events = append(s.events, ev)
	return nil
}

func (s *memStore) ListEvents(ctx context.Context, reservationID uint64) ([]model.StatusEvent, error) {
	defer s.lockUnlessTx(ctx)()
	var out []model.StatusEvent
	for _, ev := range s.events {
		if ev.ReservationID == reservationID {
			out = append(out, ev)
		}
	}
	return out, nil
}

func (s *memStore) ListByUser(ctx context.Context, userID uint64) ([]model.Reservation, error) {
	defer s.lockUnlessTx(ctx)()
	var out []model.Reservation
	for _, r := range s.reservations {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *memStore) ListByVendor(ctx context.Context, vendorID uint64) ([]model.Reservation, error) {
	defer s.lockUnlessTx(ctx)()
	var out []model.Reservation
	for _, r := range s.reservations {
		if r.VendorID == vendorID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *memStore) ListExpiredPending(ctx context.Context, now time.Time, limit int) ([]uint64, error) {
	defer s.lockUnlessTx(ctx)()
	var out []uint64
	for id, r := range s.reservations {
		if r.Status == model.StatusPending && !r.ConfirmationDeadline.After(now) {
			out = append(out, id)
			if len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

// recordingNotifier collects sent notifications for assertions.
type recordingNotifier struct {
	mu   sync.Mutex
	sent []notify.Notification
}

func (n *recordingNotifier) Notify(_ context.Context, msg notify.Notification) error {
	n.mu.Lock()
	n.sent = append(n.sent, msg)
	n.mu.Unlock()
	return nil
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.sent)
}

// fixture bundles a service over fresh in-memory state, seeded with
// one active vendor (1) owning a two-room unit (1) priced at 100.00
// per night, plus an unlimited ticket unit (2) at 15.00 per visit.
type fixture struct {
	store    *memStore
	clock    *stepClock
	notifier *recordingNotifier
	svc      *Service
}

func newFixture() *fixture {
	st := newMemStore()
	clk := newStepClock(time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)) // a Monday
	nt := &recordingNotifier{}

	st.vendors[1] = model.VendorAccount{ID: 1, Name: "Khiva Heritage Hotel", Status: model.VendorActive}
	st.units[1] = model.InventoryUnit{ID: 1, VendorID: 1, Kind: model.KindRoomType, Name: "Room-Double", TotalCount: 2, CapacityPerUnit: 2, Active: true}
	st.prices[1] = []model.PriceEntry{
		{ID: 1, UnitID: 1, DayClass: model.DayAny, Category: model.CategoryAny, AmountCents: 10000},
	}
	st.units[2] = model.InventoryUnit{ID: 2, VendorID: 1, Kind: model.KindTicketType, Name: "Itchan Kala Entry", TotalCount: 0, Active: true}
	st.prices[2] = []model.PriceEntry{
		{ID: 2, UnitID: 2, DayClass: model.DayAny, Category: model.CategoryAny, AmountCents: 1500},
	}

	svc := NewService(st, clk, nt, GraceWindows{})
	return &fixture{store: st, clock: clk, notifier: nt, svc: svc}
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
