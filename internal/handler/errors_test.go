package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/SNurali/silkroad-reservation/internal/model"
)

func TestRespondErrStatusCodes(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"invalid interval", model.ErrInvalidInterval, http.StatusBadRequest},
		{"validation", model.ErrValidation, http.StatusBadRequest},
		{"forbidden", model.ErrForbidden, http.StatusForbidden},
		{"no grant", model.ErrNoGrant, http.StatusForbidden},
		{"vendor not active", model.ErrVendorNotActive, http.StatusForbidden},
		{"unit not found", model.ErrUnitNotFound, http.StatusNotFound},
		{"reservation not found", model.ErrReservationNotFound, http.StatusNotFound},
		{"capacity exceeded", model.ErrCapacityExceeded, http.StatusConflict},
		{"already terminal", model.ErrAlreadyTerminal, http.StatusConflict},
		{"conflict", model.ErrConflict, http.StatusConflict},
		{"unknown", errFake, http.StatusInternalServerError},
	}

	e := echo.New()
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)
			if err := respondErr(c, tc.err); err != nil {
				t.Fatalf("respondErr: %v", err)
			}
			if rec.Code != tc.want {
				t.Fatalf("status = %d, want %d", rec.Code, tc.want)
			}
		})
	}
}

var errFake = &fakeErr{}

type fakeErr struct{}

func (*fakeErr) Error() string { return "boom" }

func TestParseInterval(t *testing.T) {
	t.Run("range", func(t *testing.T) {
		iv, err := parseInterval("2026-09-10", "2026-09-12")
		if err != nil {
			t.Fatalf("parseInterval: %v", err)
		}
		if iv.End.Sub(iv.Start) != 48*time.Hour {
			t.Fatalf("interval = %v..%v", iv.Start, iv.End)
		}
	})
	t.Run("single day collapses to one-day interval", func(t *testing.T) {
		iv, err := parseInterval("2026-09-10", "")
		if err != nil {
			t.Fatalf("parseInterval: %v", err)
		}
		if !iv.End.Equal(iv.Start.AddDate(0, 0, 1)) {
			t.Fatalf("end = %v, want start+1d", iv.End)
		}
	})
	t.Run("garbage", func(t *testing.T) {
		if _, err := parseInterval("tomorrow", ""); err != model.ErrInvalidInterval {
			t.Fatalf("err = %v, want ErrInvalidInterval", err)
		}
	})
}
