package model

import "time"

// VendorStatus enumerates the lifecycle states of a vendor account.
// Only ACTIVE vendors may receive new reservations or be switched
// into via a context token.
type VendorStatus string

const (
	VendorPending   VendorStatus = "PENDING"
	VendorActive    VendorStatus = "ACTIVE"
	VendorSuspended VendorStatus = "SUSPENDED"
)

// VendorAccount is an operating entity that owns inventory: a hotel
// operator or a tour/attraction operator.  It maps to the `vendors`
// table.
//
// Fields:
//  ID        – primary key identifier.
//  Name      – display name of the operator.
//  Status    – lifecycle status (PENDING, ACTIVE, SUSPENDED).
//  CreatedAt – creation timestamp.
//  UpdatedAt – last update timestamp.
type VendorAccount struct {
	ID        uint64       // vendors.id
	Name      string       // vendors.name
	Status    VendorStatus // vendors.status
	CreatedAt time.Time    // vendors.created_at
	UpdatedAt time.Time    // vendors.updated_at
}
