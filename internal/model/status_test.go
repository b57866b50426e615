package model

import "testing"

func TestCanTransition(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		from ReservationStatus
		to   ReservationStatus
		want bool
	}{
		{"pending to confirmed", StatusPending, StatusConfirmed, true},
		{"pending to rejected", StatusPending, StatusRejected, true},
		{"pending to expired", StatusPending, StatusExpired, true},
		{"pending to cancelled", StatusPending, StatusCancelled, true},
		{"pending to completed skips confirmation", StatusPending, StatusCompleted, false},
		{"confirmed to completed", StatusConfirmed, StatusCompleted, true},
		{"confirmed to cancelled", StatusConfirmed, StatusCancelled, true},
		{"confirmed to rejected", StatusConfirmed, StatusRejected, false},
		{"confirmed to expired", StatusConfirmed, StatusExpired, false},
		{"rejected is terminal", StatusRejected, StatusConfirmed, false},
		{"expired is terminal", StatusExpired, StatusConfirmed, false},
		{"cancelled is terminal", StatusCancelled, StatusConfirmed, false},
		{"completed is terminal", StatusCompleted, StatusCancelled, false},
		{"unknown status", ReservationStatus("NEW"), StatusConfirmed, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := CanTransition(tc.from, tc.to); got != tc.want {
				t.Fatalf("CanTransition(%s, %s) = %v, want %v", tc.from, tc.to, got, tc.want)
			}
		})
	}
}

func TestIsTerminal(t *testing.T) {
	t.Parallel()

	terminal := []ReservationStatus{StatusRejected, StatusExpired, StatusCancelled, StatusCompleted}
	for _, s := range terminal {
		if !IsTerminal(s) {
			t.Errorf("IsTerminal(%s) = false, want true", s)
		}
	}
	for _, s := range []ReservationStatus{StatusPending, StatusConfirmed} {
		if IsTerminal(s) {
			t.Errorf("IsTerminal(%s) = true, want false", s)
		}
	}
	// A status missing from the table is not terminal; it is invalid.
	if IsTerminal(ReservationStatus("NEW")) {
		t.Error("unknown status must not be reported terminal")
	}
}
