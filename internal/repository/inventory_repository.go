package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/SNurali/silkroad-reservation/internal/model"
)

// InventoryRepo manages inventory units and their price tables.
// Deleting a unit is refused while any non-terminal reservation
// still references it; deactivation is the soft alternative that
// hides the unit from availability without touching history.
type InventoryRepo struct{ DB *sql.DB }

func NewInventoryRepo(db *sql.DB) *InventoryRepo { return &InventoryRepo{DB: db} }

const unitColumns = "id, vendor_id, kind, name, total_count, capacity_per_unit, is_active, created_at, updated_at"

func scanUnit(row *sql.Row) (model.InventoryUnit, error) {
	var u model.InventoryUnit
	err := row.Scan(&u.ID, &u.VendorID, &u.Kind, &u.Name, &u.TotalCount, &u.CapacityPerUnit, &u.Active, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return model.InventoryUnit{}, mapNoRows(err, model.ErrUnitNotFound)
	}
	return u, nil
}

// CreateUnit inserts an inventory unit and returns it with
// generated fields populated.
func (r *InventoryRepo) CreateUnit(ctx context.Context, u model.InventoryUnit) (model.InventoryUnit, error) {
	res, err := r.DB.ExecContext(ctx,
		`INSERT INTO inventory_units (vendor_id, kind, name, total_count, capacity_per_unit, is_active)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		u.VendorID, u.Kind, u.Name, u.TotalCount, u.CapacityPerUnit, u.Active)
	if err != nil {
		return model.InventoryUnit{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.InventoryUnit{}, err
	}
	return r.GetUnit(ctx, uint64(id))
}

// GetUnit fetches one unit by id.
func (r *InventoryRepo) GetUnit(ctx context.Context, id uint64) (model.InventoryUnit, error) {
	return scanUnit(conn(ctx, r.DB).QueryRowContext(ctx,
		"SELECT "+unitColumns+" FROM inventory_units WHERE id=? LIMIT 1", id))
}

// UpdateUnit rewrites the mutable unit fields.
func (r *InventoryRepo) UpdateUnit(ctx context.Context, u model.InventoryUnit) error {
	res, err := r.DB.ExecContext(ctx,
		`UPDATE inventory_units SET name=?, total_count=?, capacity_per_unit=?, is_active=?
		 WHERE id=? AND vendor_id=?`,
		u.Name, u.TotalCount, u.CapacityPerUnit, u.Active, u.ID, u.VendorID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		// Could be a no-change update; confirm the row exists.
		if _, err := r.GetUnit(ctx, u.ID); err != nil {
			return err
		}
	}
	return nil
}

// ListByVendor returns all units of a vendor, active ones first.
func (r *InventoryRepo) ListByVendor(ctx context.Context, vendorID uint64) ([]model.InventoryUnit, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+unitColumns+" FROM inventory_units WHERE vendor_id=? ORDER BY is_active DESC, name",
		vendorID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	units := make([]model.InventoryUnit, 0)
	for rows.Next() {
		var u model.InventoryUnit
		if err := rows.Scan(&u.ID, &u.VendorID, &u.Kind, &u.Name, &u.TotalCount, &u.CapacityPerUnit, &u.Active, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, err
		}
		units = append(units, u)
	}
	return units, rows.Err()
}

// DeleteUnit removes a unit and its price entries, refusing with
// model.ErrConflict while any PENDING or CONFIRMED reservation
// still references it.  The check and the delete share one
// transaction so a reservation created in between cannot be
// orphaned.
func (r *InventoryRepo) DeleteUnit(ctx context.Context, unitID, vendorID uint64) error {
	return withTx(ctx, r.DB, func(ctx context.Context) error {
		ex := conn(ctx, r.DB)
		var owner uint64
		err := ex.QueryRowContext(ctx,
			"SELECT vendor_id FROM inventory_units WHERE id=? FOR UPDATE", unitID).Scan(&owner)
		if err != nil {
			return mapNoRows(err, model.ErrUnitNotFound)
		}
		if owner != vendorID {
			return model.ErrForbidden
		}
		var active int
		err = ex.QueryRowContext(ctx,
			"SELECT COUNT(*) FROM reservations WHERE unit_id=? AND status IN (?, ?)",
			unitID, model.StatusPending, model.StatusConfirmed).Scan(&active)
		if err != nil {
			return err
		}
		if active > 0 {
			return model.ErrConflict
		}
		if _, err := ex.ExecContext(ctx, "DELETE FROM price_entries WHERE unit_id=?", unitID); err != nil {
			return err
		}
		_, err = ex.ExecContext(ctx, "DELETE FROM inventory_units WHERE id=?", unitID)
		return err
	})
}

// price_date cannot be NULL: MySQL unique keys admit any number of
// NULLs, which would let duplicate generic tiers pile up instead of
// being updated in place.  Tiers that are not pinned to a date store
// this sentinel and the scanners map it back to a nil Date.
const genericPriceDate = "1000-01-01"

func priceDateParam(d *time.Time) string {
	if d == nil {
		return genericPriceDate
	}
	return d.UTC().Format("2006-01-02")
}

func priceDateFromRow(d time.Time) *time.Time {
	u := d.UTC()
	if u.Format("2006-01-02") == genericPriceDate {
		return nil
	}
	return &u
}

// UpsertPrice inserts or replaces one price entry.  The unique key
// on (unit_id, price_date, day_class, category) makes repeated
// uploads of the same tier idempotent.
func (r *InventoryRepo) UpsertPrice(ctx context.Context, e model.PriceEntry) error {
	_, err := r.DB.ExecContext(ctx,
		`INSERT INTO price_entries (unit_id, price_date, day_class, category, amount_cents)
		 VALUES (?, ?, ?, ?, ?)
		 ON DUPLICATE KEY UPDATE amount_cents = VALUES(amount_cents)`,
		e.UnitID, priceDateParam(e.Date), e.DayClass, e.Category, e.AmountCents)
	return err
}

// ListPrices returns the unit's full price table.
func (r *InventoryRepo) ListPrices(ctx context.Context, unitID uint64) ([]model.PriceEntry, error) {
	rows, err := conn(ctx, r.DB).QueryContext(ctx,
		`SELECT id, unit_id, price_date, day_class, category, amount_cents, created_at
		 FROM price_entries WHERE unit_id=? ORDER BY price_date, day_class, category`,
		unitID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanPriceRows(rows)
}

func scanPriceRows(rows *sql.Rows) ([]model.PriceEntry, error) {
	entries := make([]model.PriceEntry, 0)
	for rows.Next() {
		var e model.PriceEntry
		var date time.Time
		if err := rows.Scan(&e.ID, &e.UnitID, &date, &e.DayClass, &e.Category, &e.AmountCents, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.Date = priceDateFromRow(date)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// DeletePrice removes one price entry of the unit.
func (r *InventoryRepo) DeletePrice(ctx context.Context, unitID, priceID uint64) error {
	res, err := r.DB.ExecContext(ctx,
		"DELETE FROM price_entries WHERE id=? AND unit_id=?", priceID, unitID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return model.ErrValidation
	}
	return nil
}
