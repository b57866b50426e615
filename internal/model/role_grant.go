package model

import "time"

// VendorRole is the role a user holds inside a vendor account.
// OWNER implies every OPERATOR capability plus destructive and
// administrative ones (deleting inventory units, changing vendor
// settings).
type VendorRole string

const (
	RoleOwner    VendorRole = "OWNER"
	RoleOperator VendorRole = "OPERATOR"
)

// RoleGrant is the ternary (user, vendor, role) authorization record
// stored in the `role_grants` table.  A user may hold grants across
// many vendors, but at most one grant per (user, vendor) pair — the
// table enforces this with a unique key.  The grant table is the sole
// source of truth for vendor permissions; context tokens embed a
// snapshot of it taken at issuance.
type RoleGrant struct {
	ID        uint64     // role_grants.id
	UserID    uint64     // role_grants.user_id
	VendorID  uint64     // role_grants.vendor_id
	Role      VendorRole // role_grants.role
	CreatedAt time.Time  // role_grants.created_at
}
