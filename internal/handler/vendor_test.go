package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
)

func statusRequest(t *testing.T, h *VendorHandler, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPatch, "/v1/vendors/1/status", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set("X-Admin-Token", token)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetPath("/v1/vendors/:id/status")
	c.SetParamNames("id")
	c.SetParamValues("1")
	if err := h.UpdateVendorStatus(c); err != nil {
		t.Fatalf("UpdateVendorStatus: %v", err)
	}
	return rec
}

func TestUpdateVendorStatusGate(t *testing.T) {
	t.Run("disabled without configured token", func(t *testing.T) {
		h := &VendorHandler{}
		rec := statusRequest(t, h, "s3cret", `{"status":"ACTIVE"}`)
		if rec.Code != http.StatusNotFound {
			t.Fatalf("status = %d, want 404 when moderation is not configured", rec.Code)
		}
	})
	t.Run("wrong token", func(t *testing.T) {
		h := &VendorHandler{AdminToken: "s3cret"}
		rec := statusRequest(t, h, "guess", `{"status":"ACTIVE"}`)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("status = %d, want 401 for a wrong token", rec.Code)
		}
	})
	t.Run("missing token", func(t *testing.T) {
		h := &VendorHandler{AdminToken: "s3cret"}
		rec := statusRequest(t, h, "", `{"status":"ACTIVE"}`)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("status = %d, want 401 without the header", rec.Code)
		}
	})
	t.Run("unknown status", func(t *testing.T) {
		h := &VendorHandler{AdminToken: "s3cret"}
		rec := statusRequest(t, h, "s3cret", `{"status":"BANNED"}`)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("status = %d, want 400 for an unknown status", rec.Code)
		}
	})
}
