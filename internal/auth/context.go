// Package auth defines the immutable request context decoded from a
// context token and the single capability-based authorization check
// every mutating operation goes through.  There is no ambient or
// request-global vendor state: handlers receive a Context value and
// pass it explicitly into the booking services.
package auth

import (
	"github.com/SNurali/silkroad-reservation/internal/model"
)

// Context carries the verified claims of a context token.  A zero
// VendorID means the caller acts as a plain end-user; otherwise the
// caller acts as vendor VendorID with the embedded Role.  The value
// is a snapshot taken when the token was issued — changing a role
// grant does not alter tokens already in flight, it only affects the
// next context switch.
type Context struct {
	UserID   uint64
	VendorID uint64
	Role     model.VendorRole
}

// ActingAsVendor reports whether the context is scoped to a vendor.
func (c Context) ActingAsVendor() bool { return c.VendorID != 0 }

// Capability names a mutating operation class.  New mutating
// endpoints must declare a capability here and appear in the
// capability table below; there is deliberately no "default allow".
type Capability string

const (
	CapApproveReservation      Capability = "approve-reservation"
	CapRejectReservation       Capability = "reject-reservation"
	CapCancelConfirmed         Capability = "cancel-confirmed-reservation"
	CapCompleteReservation     Capability = "complete-reservation"
	CapViewVendorReservations  Capability = "view-vendor-reservations"
	CapManageInventory         Capability = "manage-inventory"
	CapDeleteInventoryUnit     Capability = "delete-inventory-unit"
	CapManageVendorSettings    Capability = "manage-vendor-settings"
)

// capabilityRoles maps each capability to the vendor roles allowed
// to exercise it.  OWNER-only rows cover the destructive and
// administrative operations.
var capabilityRoles = map[Capability][]model.VendorRole{
	CapApproveReservation:     {model.RoleOwner, model.RoleOperator},
	CapRejectReservation:      {model.RoleOwner, model.RoleOperator},
	CapCancelConfirmed:        {model.RoleOwner},
	CapCompleteReservation:    {model.RoleOwner, model.RoleOperator},
	CapViewVendorReservations: {model.RoleOwner, model.RoleOperator},
	CapManageInventory:        {model.RoleOwner, model.RoleOperator},
	CapDeleteInventoryUnit:    {model.RoleOwner},
	CapManageVendorSettings:   {model.RoleOwner},
}

// Authorize checks that the context is scoped to the given vendor
// and that its role is allowed the capability.  Mismatches return
// model.ErrForbidden; an unknown capability is likewise forbidden
// rather than silently allowed.
func Authorize(actx Context, cap Capability, vendorID uint64) error {
	if !actx.ActingAsVendor() || actx.VendorID != vendorID {
		return model.ErrForbidden
	}
	allowed, ok := capabilityRoles[cap]
	if !ok {
		return model.ErrForbidden
	}
	for _, r := range allowed {
		if r == actx.Role {
			return nil
		}
	}
	return model.ErrForbidden
}
