package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/SNurali/silkroad-reservation/internal/model"
)

// ReservationStore is the persistence backend of the reservation
// lifecycle.  It spans the reservations, reservation_status_events,
// inventory_units, vendors and price_entries tables because the
// atomic check-then-insert on create and the compare-and-swap
// transitions need them inside one transaction.
//
// All date columns hold UTC dates; intervals are half-open, so the
// overlap predicate is start_date < ? AND end_date > ?.
type ReservationStore struct {
	db *sql.DB
}

func NewReservationStore(db *sql.DB) *ReservationStore { return &ReservationStore{db: db} }

// WithTx runs fn inside a single transaction; repository calls made
// with the returned context join it.
func (s *ReservationStore) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return withTx(ctx, s.db, fn)
}

// GetUnit fetches an inventory unit without locking.
func (s *ReservationStore) GetUnit(ctx context.Context, unitID uint64) (model.InventoryUnit, error) {
	return scanUnit(conn(ctx, s.db).QueryRowContext(ctx,
		"SELECT "+unitColumns+" FROM inventory_units WHERE id=? LIMIT 1", unitID))
}

// GetUnitForUpdate locks the unit row for the enclosing transaction.
// Concurrent creates against the same unit serialize on this lock,
// which is what makes the availability re-check race-free.
func (s *ReservationStore) GetUnitForUpdate(ctx context.Context, unitID uint64) (model.InventoryUnit, error) {
	return scanUnit(conn(ctx, s.db).QueryRowContext(ctx,
		"SELECT "+unitColumns+" FROM inventory_units WHERE id=? FOR UPDATE", unitID))
}

// GetVendor fetches the unit's owning vendor.  A missing vendor is
// reported as a missing unit so callers cannot probe vendor IDs.
func (s *ReservationStore) GetVendor(ctx context.Context, vendorID uint64) (model.VendorAccount, error) {
	var v model.VendorAccount
	err := conn(ctx, s.db).QueryRowContext(ctx,
		"SELECT id, name, status, created_at, updated_at FROM vendors WHERE id=? LIMIT 1",
		vendorID).Scan(&v.ID, &v.Name, &v.Status, &v.CreatedAt, &v.UpdatedAt)
	if err != nil {
		return model.VendorAccount{}, mapNoRows(err, model.ErrUnitNotFound)
	}
	return v, nil
}

// SumActiveOverlap sums the quantities of PENDING and CONFIRMED
// reservations whose half-open interval intersects [start, end).
func (s *ReservationStore) SumActiveOverlap(ctx context.Context, unitID uint64, start, end time.Time) (uint32, error) {
	var sum uint32
	err := conn(ctx, s.db).QueryRowContext(ctx,
		`SELECT COALESCE(SUM(qty), 0) FROM reservations
		 WHERE unit_id = ? AND status IN (?, ?)
		   AND start_date < ? AND end_date > ?`,
		unitID, model.StatusPending, model.StatusConfirmed,
		end.UTC().Format("2006-01-02"), start.UTC().Format("2006-01-02"),
	).Scan(&sum)
	return sum, err
}

// PriceEntries returns the unit's price table for resolution.
func (s *ReservationStore) PriceEntries(ctx context.Context, unitID uint64) ([]model.PriceEntry, error) {
	rows, err := conn(ctx, s.db).QueryContext(ctx,
		`SELECT id, unit_id, price_date, day_class, category, amount_cents, created_at
		 FROM price_entries WHERE unit_id=?`, unitID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanPriceRows(rows)
}

const reservationColumns = `id, unit_id, vendor_id, user_id, start_date, end_date, qty, category,
	total_amount_cents, status, confirmation_deadline, confirmed_by, confirmed_at,
	rejection_reason, payment_ref, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanReservation(row rowScanner) (model.Reservation, error) {
	var (
		res         model.Reservation
		confirmedBy sql.NullInt64
		confirmedAt sql.NullTime
		reason      sql.NullString
		payRef      sql.NullString
	)
	err := row.Scan(
		&res.ID, &res.UnitID, &res.VendorID, &res.UserID,
		&res.StartDate, &res.EndDate, &res.Qty, &res.Category,
		&res.TotalAmountCents, &res.Status, &res.ConfirmationDeadline,
		&confirmedBy, &confirmedAt, &reason, &payRef,
		&res.CreatedAt, &res.UpdatedAt,
	)
	if err != nil {
		return model.Reservation{}, mapNoRows(err, model.ErrReservationNotFound)
	}
	if confirmedBy.Valid {
		id := uint64(confirmedBy.Int64)
		res.ConfirmedBy = &id
	}
	if confirmedAt.Valid {
		t := confirmedAt.Time.UTC()
		res.ConfirmedAt = &t
	}
	if reason.Valid {
		v := reason.String
		res.RejectionReason = &v
	}
	if payRef.Valid {
		v := payRef.String
		res.PaymentRef = &v
	}
	return res, nil
}

// CreateReservation inserts a reservation and populates the
// generated fields on the passed record.
func (s *ReservationStore) CreateReservation(ctx context.Context, res *model.Reservation) error {
	ex := conn(ctx, s.db)
	result, err := ex.ExecContext(ctx,
		`INSERT INTO reservations
			(unit_id, vendor_id, user_id, start_date, end_date, qty, category,
			 total_amount_cents, status, confirmation_deadline)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		res.UnitID, res.VendorID, res.UserID,
		res.StartDate.UTC().Format("2006-01-02"), res.EndDate.UTC().Format("2006-01-02"),
		res.Qty, res.Category, res.TotalAmountCents, res.Status, res.ConfirmationDeadline.UTC())
	if err != nil {
		return err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	res.ID = uint64(id)
	stored, err := scanReservation(ex.QueryRowContext(ctx,
		"SELECT "+reservationColumns+" FROM reservations WHERE id=?", res.ID))
	if err != nil {
		return err
	}
	*res = stored
	return nil
}

// GetReservation fetches one reservation without locking.
func (s *ReservationStore) GetReservation(ctx context.Context, id uint64) (model.Reservation, error) {
	return scanReservation(conn(ctx, s.db).QueryRowContext(ctx,
		"SELECT "+reservationColumns+" FROM reservations WHERE id=? LIMIT 1", id))
}

// GetReservationForUpdate locks the reservation row for the
// enclosing transaction.
func (s *ReservationStore) GetReservationForUpdate(ctx context.Context, id uint64) (model.Reservation, error) {
	return scanReservation(conn(ctx, s.db).QueryRowContext(ctx,
		"SELECT "+reservationColumns+" FROM reservations WHERE id=? FOR UPDATE", id))
}

// UpdateStatus writes the transition fields with a compare-and-swap
// on the previous status.  Zero affected rows means another
// transition won the race; the caller sees model.ErrAlreadyTerminal
// and must not assume its write happened.
func (s *ReservationStore) UpdateStatus(ctx context.Context, res model.Reservation, from model.ReservationStatus) error {
	var (
		confirmedBy interface{}
		confirmedAt interface{}
		reason      interface{}
		payRef      interface{}
	)
	if res.ConfirmedBy != nil {
		confirmedBy = *res.ConfirmedBy
	}
	if res.ConfirmedAt != nil {
		confirmedAt = res.ConfirmedAt.UTC()
	}
	if res.RejectionReason != nil {
		reason = *res.RejectionReason
	}
	if res.PaymentRef != nil {
		payRef = *res.PaymentRef
	}
	result, err := conn(ctx, s.db).ExecContext(ctx,
		`UPDATE reservations
		 SET status=?, confirmed_by=?, confirmed_at=?, rejection_reason=?, payment_ref=?
		 WHERE id=? AND status=?`,
		res.Status, confirmedBy, confirmedAt, reason, payRef, res.ID, from)
	if err != nil {
		return err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		// Same-status updates (e.g. recording a payment ref on an
		// already CONFIRMED row) report zero affected rows when no
		// column changed; only a genuine status mismatch is a race.
		cur, err := s.GetReservation(ctx, res.ID)
		if err != nil {
			return err
		}
		if cur.Status != from {
			return model.ErrAlreadyTerminal
		}
	}
	return nil
}

// AppendEvent writes one append-only history row.
func (s *ReservationStore) AppendEvent(ctx context.Context, ev model.StatusEvent) error {
	var actor interface{}
	if ev.ActorID != 0 {
		actor = ev.ActorID
	}
	_, err := conn(ctx, s.db).ExecContext(ctx,
		"INSERT INTO reservation_status_events (reservation_id, status, actor_id, comment) VALUES (?, ?, ?, ?)",
		ev.ReservationID, ev.Status, actor, ev.Comment)
	return err
}

// ListEvents returns the reservation's history oldest first.
func (s *ReservationStore) ListEvents(ctx context.Context, reservationID uint64) ([]model.StatusEvent, error) {
	rows, err := conn(ctx, s.db).QueryContext(ctx,
		`SELECT id, reservation_id, status, COALESCE(actor_id, 0), comment, created_at
		 FROM reservation_status_events WHERE reservation_id=? ORDER BY id`,
		reservationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	events := make([]model.StatusEvent, 0)
	for rows.Next() {
		var ev model.StatusEvent
		if err := rows.Scan(&ev.ID, &ev.ReservationID, &ev.Status, &ev.ActorID, &ev.Comment, &ev.CreatedAt); err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}

func (s *ReservationStore) listReservations(ctx context.Context, query string, args ...interface{}) ([]model.Reservation, error) {
	rows, err := conn(ctx, s.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Reservation, 0)
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, res)
	}
	return out, rows.Err()
}

// ListByUser returns the user's reservations newest first.
func (s *ReservationStore) ListByUser(ctx context.Context, userID uint64) ([]model.Reservation, error) {
	return s.listReservations(ctx,
		"SELECT "+reservationColumns+" FROM reservations WHERE user_id=? ORDER BY created_at DESC, id DESC",
		userID)
}

// ListByVendor returns the vendor's reservations newest first.
func (s *ReservationStore) ListByVendor(ctx context.Context, vendorID uint64) ([]model.Reservation, error) {
	return s.listReservations(ctx,
		"SELECT "+reservationColumns+" FROM reservations WHERE vendor_id=? ORDER BY created_at DESC, id DESC",
		vendorID)
}

// ListExpiredPending returns IDs of PENDING reservations whose
// confirmation deadline is at or before now, oldest deadline first.
// The (status, confirmation_deadline) index keeps this a range scan.
func (s *ReservationStore) ListExpiredPending(ctx context.Context, now time.Time, limit int) ([]uint64, error) {
	rows, err := conn(ctx, s.db).QueryContext(ctx,
		`SELECT id FROM reservations
		 WHERE status = ? AND confirmation_deadline <= ?
		 ORDER BY confirmation_deadline
		 LIMIT ?`,
		model.StatusPending, now.UTC(), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []uint64
	for rows.Next() {
		var id uint64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
