package auth

import (
	"errors"
	"testing"

	"github.com/SNurali/silkroad-reservation/internal/model"
)

func TestAuthorize(t *testing.T) {
	t.Parallel()

	operatorA := Context{UserID: 7, VendorID: 1, Role: model.RoleOperator}
	ownerA := Context{UserID: 8, VendorID: 1, Role: model.RoleOwner}
	endUser := Context{UserID: 9}

	cases := []struct {
		name     string
		actx     Context
		cap      Capability
		vendorID uint64
		wantErr  bool
	}{
		{"operator approves own vendor", operatorA, CapApproveReservation, 1, false},
		{"owner approves own vendor", ownerA, CapApproveReservation, 1, false},
		{"operator cannot act on other vendor", operatorA, CapApproveReservation, 2, true},
		{"owner cannot act on other vendor", ownerA, CapRejectReservation, 2, true},
		{"end user has no vendor capabilities", endUser, CapApproveReservation, 1, true},
		{"operator cannot delete units", operatorA, CapDeleteInventoryUnit, 1, true},
		{"owner deletes units", ownerA, CapDeleteInventoryUnit, 1, false},
		{"operator cannot cancel confirmed", operatorA, CapCancelConfirmed, 1, true},
		{"owner cancels confirmed", ownerA, CapCancelConfirmed, 1, false},
		{"operator manages inventory", operatorA, CapManageInventory, 1, false},
		{"operator cannot change settings", operatorA, CapManageVendorSettings, 1, true},
		{"unknown capability is forbidden", ownerA, Capability("export-ledger"), 1, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := Authorize(tc.actx, tc.cap, tc.vendorID)
			if tc.wantErr {
				if !errors.Is(err, model.ErrForbidden) {
					t.Fatalf("expected ErrForbidden, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("expected nil, got %v", err)
			}
		})
	}
}

// Switching context into vendor A must not leak capabilities over
// vendor B's reservations, regardless of role held on A.
func TestAuthorizeVendorIsolation(t *testing.T) {
	t.Parallel()

	actx := Context{UserID: 3, VendorID: 1, Role: model.RoleOwner}
	for cap := range capabilityRoles {
		if err := Authorize(actx, cap, 2); !errors.Is(err, model.ErrForbidden) {
			t.Errorf("capability %s leaked across vendors: %v", cap, err)
		}
	}
}
