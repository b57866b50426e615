package repository

import (
	"context"
	"database/sql"

	"github.com/SNurali/silkroad-reservation/internal/model"
)

// VendorRepo provides access to the vendors table.  Vendor accounts
// start PENDING and become reservable only once ACTIVE; handlers
// rely on the domain sentinels returned here to map missing or
// suspended vendors to the right responses.
type VendorRepo struct{ DB *sql.DB }

func NewVendorRepo(db *sql.DB) *VendorRepo { return &VendorRepo{DB: db} }

// Create inserts a vendor in PENDING status and returns its ID.
func (r *VendorRepo) Create(ctx context.Context, name string) (uint64, error) {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO vendors (name, status) VALUES (?, ?)",
		name, model.VendorPending)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByID fetches a vendor account.
func (r *VendorRepo) GetByID(ctx context.Context, id uint64) (model.VendorAccount, error) {
	var v model.VendorAccount
	err := conn(ctx, r.DB).QueryRowContext(ctx,
		"SELECT id, name, status, created_at, updated_at FROM vendors WHERE id=? LIMIT 1",
		id).Scan(&v.ID, &v.Name, &v.Status, &v.CreatedAt, &v.UpdatedAt)
	if err != nil {
		return model.VendorAccount{}, mapNoRows(err, model.ErrVendorNotActive)
	}
	return v, nil
}

// UpdateStatus moves a vendor between lifecycle states.  MySQL
// reports zero affected rows for a no-change update, so that case is
// told apart from a missing vendor by re-reading the row.
func (r *VendorRepo) UpdateStatus(ctx context.Context, id uint64, status model.VendorStatus) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE vendors SET status=? WHERE id=?", status, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		if _, err := r.GetByID(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

// Rename updates the vendor display name.
func (r *VendorRepo) Rename(ctx context.Context, id uint64, name string) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE vendors SET name=? WHERE id=?", name, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return model.ErrVendorNotActive
	}
	return nil
}
