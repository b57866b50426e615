package repository

import (
	"context"
	"database/sql"

	"github.com/SNurali/silkroad-reservation/internal/model"
)

// RoleGrantRepo manages the (user, vendor, role) grant table behind
// context switching.  The unique key on (user_id, vendor_id) makes
// Grant an upsert: re-granting replaces the previous role.
type RoleGrantRepo struct{ DB *sql.DB }

func NewRoleGrantRepo(db *sql.DB) *RoleGrantRepo { return &RoleGrantRepo{DB: db} }

// Grant inserts or updates the user's role inside the vendor.
func (r *RoleGrantRepo) Grant(ctx context.Context, userID, vendorID uint64, role model.VendorRole) error {
	_, err := r.DB.ExecContext(ctx,
		`INSERT INTO role_grants (user_id, vendor_id, role) VALUES (?, ?, ?)
		 ON DUPLICATE KEY UPDATE role = VALUES(role)`,
		userID, vendorID, role)
	return err
}

// Get returns the user's grant for the vendor, or
// model.ErrNoGrant when none exists.
func (r *RoleGrantRepo) Get(ctx context.Context, userID, vendorID uint64) (model.RoleGrant, error) {
	var g model.RoleGrant
	err := r.DB.QueryRowContext(ctx,
		"SELECT id, user_id, vendor_id, role, created_at FROM role_grants WHERE user_id=? AND vendor_id=? LIMIT 1",
		userID, vendorID).Scan(&g.ID, &g.UserID, &g.VendorID, &g.Role, &g.CreatedAt)
	if err != nil {
		return model.RoleGrant{}, mapNoRows(err, model.ErrNoGrant)
	}
	return g, nil
}

// ListForUser returns every grant the user holds, for the context
// picker after login.
func (r *RoleGrantRepo) ListForUser(ctx context.Context, userID uint64) ([]model.RoleGrant, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT id, user_id, vendor_id, role, created_at FROM role_grants WHERE user_id=? ORDER BY vendor_id",
		userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	grants := make([]model.RoleGrant, 0)
	for rows.Next() {
		var g model.RoleGrant
		if err := rows.Scan(&g.ID, &g.UserID, &g.VendorID, &g.Role, &g.CreatedAt); err != nil {
			return nil, err
		}
		grants = append(grants, g)
	}
	return grants, rows.Err()
}

// Revoke removes the user's grant for the vendor.  Tokens already
// issued keep their snapshot until expiry; only future context
// switches observe the revocation.
func (r *RoleGrantRepo) Revoke(ctx context.Context, userID, vendorID uint64) error {
	res, err := r.DB.ExecContext(ctx,
		"DELETE FROM role_grants WHERE user_id=? AND vendor_id=?", userID, vendorID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return model.ErrNoGrant
	}
	return nil
}
