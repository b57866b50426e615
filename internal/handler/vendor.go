package handler

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/SNurali/silkroad-reservation/internal/auth"
	"github.com/SNurali/silkroad-reservation/internal/middleware"
	"github.com/SNurali/silkroad-reservation/internal/model"
	"github.com/SNurali/silkroad-reservation/internal/repository"
)

// VendorHandler manages vendor accounts, role grants and inventory.
// All mutating endpoints run through auth.Authorize with the
// caller's active vendor context; OWNER-only operations (deleting
// units, settings, grants) are enforced by the capability table, not
// by per-handler role checks.
type VendorHandler struct {
	Vendors   *repository.VendorRepo
	Grants    *repository.RoleGrantRepo
	Inventory *repository.InventoryRepo
	Users     *repository.UserRepo
	// AdminToken gates the platform-operator moderation endpoint
	// that moves vendors between PENDING/ACTIVE/SUSPENDED.  Empty
	// disables it.
	AdminToken string
}

func NewVendorHandler(v *repository.VendorRepo, g *repository.RoleGrantRepo, inv *repository.InventoryRepo, u *repository.UserRepo, adminToken string) *VendorHandler {
	return &VendorHandler{Vendors: v, Grants: g, Inventory: inv, Users: u, AdminToken: adminToken}
}

// ----- DTOs -----

type createVendorReq struct {
	Name string `json:"name"`
}

type renameVendorReq struct {
	Name string `json:"name"`
}

type vendorStatusReq struct {
	Status string `json:"status"` // PENDING | ACTIVE | SUSPENDED
}

type grantReq struct {
	Email string `json:"email"`
	Role  string `json:"role"` // OWNER | OPERATOR
}

type unitReq struct {
	Kind            string `json:"kind"` // ROOM_TYPE | TICKET_TYPE
	Name            string `json:"name"`
	TotalCount      uint32 `json:"total_count"`
	CapacityPerUnit uint32 `json:"capacity_per_unit"`
	Active          *bool  `json:"active"`
}

type priceReq struct {
	Date        string `json:"date"`      // YYYY-MM-DD, optional
	DayClass    string `json:"day_class"` // WEEKDAY | WEEKEND | ANY
	Category    string `json:"category"`  // RESIDENT | NON_RESIDENT | ANY
	AmountCents uint32 `json:"amount_cents"`
}

type unitResp struct {
	ID              uint64 `json:"id"`
	VendorID        uint64 `json:"vendor_id"`
	Kind            string `json:"kind"`
	Name            string `json:"name"`
	TotalCount      uint32 `json:"total_count"`
	CapacityPerUnit uint32 `json:"capacity_per_unit"`
	Active          bool   `json:"active"`
	Unlimited       bool   `json:"unlimited"`
}

func toUnitResp(u model.InventoryUnit) unitResp {
	return unitResp{
		ID:              u.ID,
		VendorID:        u.VendorID,
		Kind:            string(u.Kind),
		Name:            u.Name,
		TotalCount:      u.TotalCount,
		CapacityPerUnit: u.CapacityPerUnit,
		Active:          u.Active,
		Unlimited:       u.Unlimited(),
	}
}

// CreateVendor registers a vendor account in PENDING status and
// grants the creator the OWNER role.  A platform operator must
// activate the account through UpdateVendorStatus before it can
// take reservations.
func (h *VendorHandler) CreateVendor(c echo.Context) error {
	actx, ok := middleware.Actor(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req createVendorReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.Name) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	vendorID, err := h.Vendors.Create(ctx, strings.TrimSpace(req.Name))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create vendor failed"})
	}
	if err := h.Grants.Grant(ctx, actx.UserID, vendorID, model.RoleOwner); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "grant owner failed"})
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"vendor_id": vendorID,
		"status":    model.VendorPending,
		"role":      model.RoleOwner,
	})
}

// UpdateVendorStatus is the platform-operator moderation endpoint
// that activates or suspends a vendor account.  Like the payment
// webhook it authenticates with a shared secret header rather than
// a context token; vendors can never move their own account out of
// PENDING.
func (h *VendorHandler) UpdateVendorStatus(c echo.Context) error {
	if h.AdminToken == "" {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "not found"})
	}
	got := c.Request().Header.Get("X-Admin-Token")
	if subtle.ConstantTimeCompare([]byte(got), []byte(h.AdminToken)) != 1 {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req vendorStatusReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	status := model.VendorStatus(strings.ToUpper(strings.TrimSpace(req.Status)))
	switch status {
	case model.VendorPending, model.VendorActive, model.VendorSuspended:
	default:
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "status must be PENDING, ACTIVE or SUSPENDED"})
	}
	id := pathID(c, "id")
	if id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid vendor id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Vendors.UpdateStatus(ctx, id, status); err != nil {
		return respondErr(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"vendor_id": id, "status": status})
}

// Rename updates the active vendor's display name (OWNER only).
func (h *VendorHandler) Rename(c echo.Context) error {
	actx, ok := middleware.Actor(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	if err := auth.Authorize(actx, auth.CapManageVendorSettings, actx.VendorID); err != nil {
		return respondErr(c, err)
	}
	var req renameVendorReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.Name) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Vendors.Rename(ctx, actx.VendorID, strings.TrimSpace(req.Name)); err != nil {
		return respondErr(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// GrantRole grants or updates a role inside the active vendor
// (OWNER only).  The grantee is addressed by email.
func (h *VendorHandler) GrantRole(c echo.Context) error {
	actx, ok := middleware.Actor(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	if err := auth.Authorize(actx, auth.CapManageVendorSettings, actx.VendorID); err != nil {
		return respondErr(c, err)
	}
	var req grantReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	role := model.VendorRole(strings.ToUpper(strings.TrimSpace(req.Role)))
	if role != model.RoleOwner && role != model.RoleOperator {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "role must be OWNER or OPERATOR"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.GetByEmail(ctx, req.Email)
	if err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
	}
	if err := h.Grants.Grant(ctx, u.ID, actx.VendorID, role); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "grant failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"user_id": u.ID, "vendor_id": actx.VendorID, "role": role})
}

// RevokeRole removes a user's grant from the active vendor (OWNER
// only).  Tokens already issued keep working until they expire.
func (h *VendorHandler) RevokeRole(c echo.Context) error {
	actx, ok := middleware.Actor(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	if err := auth.Authorize(actx, auth.CapManageVendorSettings, actx.VendorID); err != nil {
		return respondErr(c, err)
	}
	userID := pathID(c, "user_id")
	if userID == actx.UserID {
		return c.JSON(http.StatusConflict, echo.Map{"error": "cannot revoke your own grant"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Grants.Revoke(ctx, userID, actx.VendorID); err != nil {
		return respondErr(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// ----- inventory -----

// CreateUnit adds an inventory unit to the active vendor.
func (h *VendorHandler) CreateUnit(c echo.Context) error {
	actx, ok := middleware.Actor(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	if err := auth.Authorize(actx, auth.CapManageInventory, actx.VendorID); err != nil {
		return respondErr(c, err)
	}
	var req unitReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	kind := model.UnitKind(strings.ToUpper(strings.TrimSpace(req.Kind)))
	if kind != model.KindRoomType && kind != model.KindTicketType {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "kind must be ROOM_TYPE or TICKET_TYPE"})
	}
	if strings.TrimSpace(req.Name) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name required"})
	}
	// Room types cannot be unlimited.
	if kind == model.KindRoomType && req.TotalCount == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "room types require a positive total_count"})
	}
	active := true
	if req.Active != nil {
		active = *req.Active
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	unit, err := h.Inventory.CreateUnit(ctx, model.InventoryUnit{
		VendorID:        actx.VendorID,
		Kind:            kind,
		Name:            strings.TrimSpace(req.Name),
		TotalCount:      req.TotalCount,
		CapacityPerUnit: req.CapacityPerUnit,
		Active:          active,
	})
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(http.StatusCreated, toUnitResp(unit))
}

// ListUnits returns the active vendor's inventory.
func (h *VendorHandler) ListUnits(c echo.Context) error {
	actx, ok := middleware.Actor(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	if err := auth.Authorize(actx, auth.CapManageInventory, actx.VendorID); err != nil {
		return respondErr(c, err)
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	units, err := h.Inventory.ListByVendor(ctx, actx.VendorID)
	if err != nil {
		return respondErr(c, err)
	}
	out := make([]unitResp, 0, len(units))
	for _, u := range units {
		out = append(out, toUnitResp(u))
	}
	return c.JSON(http.StatusOK, echo.Map{"units": out})
}

// UpdateUnit rewrites a unit's mutable fields, including
// deactivation via "active": false.
func (h *VendorHandler) UpdateUnit(c echo.Context) error {
	actx, ok := middleware.Actor(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	if err := auth.Authorize(actx, auth.CapManageInventory, actx.VendorID); err != nil {
		return respondErr(c, err)
	}
	var req unitReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	unit, err := h.Inventory.GetUnit(ctx, pathID(c, "id"))
	if err != nil {
		return respondErr(c, err)
	}
	if unit.VendorID != actx.VendorID {
		return respondErr(c, model.ErrForbidden)
	}
	if strings.TrimSpace(req.Name) != "" {
		unit.Name = strings.TrimSpace(req.Name)
	}
	if unit.Kind == model.KindRoomType && req.TotalCount == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "room types require a positive total_count"})
	}
	unit.TotalCount = req.TotalCount
	if req.CapacityPerUnit != 0 {
		unit.CapacityPerUnit = req.CapacityPerUnit
	}
	if req.Active != nil {
		unit.Active = *req.Active
	}
	if err := h.Inventory.UpdateUnit(ctx, unit); err != nil {
		return respondErr(c, err)
	}
	return c.JSON(http.StatusOK, toUnitResp(unit))
}

// DeleteUnit removes a unit (OWNER only).  Refused with 409 while
// PENDING or CONFIRMED reservations still reference it; deactivate
// instead to stop new reservations.
func (h *VendorHandler) DeleteUnit(c echo.Context) error {
	actx, ok := middleware.Actor(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	if err := auth.Authorize(actx, auth.CapDeleteInventoryUnit, actx.VendorID); err != nil {
		return respondErr(c, err)
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	if err := h.Inventory.DeleteUnit(ctx, pathID(c, "id"), actx.VendorID); err != nil {
		return respondErr(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// UpsertPrice adds or updates one price entry on a unit.
func (h *VendorHandler) UpsertPrice(c echo.Context) error {
	actx, ok := middleware.Actor(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	if err := auth.Authorize(actx, auth.CapManageInventory, actx.VendorID); err != nil {
		return respondErr(c, err)
	}
	var req priceReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.AmountCents == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "amount_cents required"})
	}

	entry := model.PriceEntry{
		UnitID:      pathID(c, "id"),
		DayClass:    model.DayClass(strings.ToUpper(strings.TrimSpace(req.DayClass))),
		Category:    model.PriceCategory(strings.ToUpper(strings.TrimSpace(req.Category))),
		AmountCents: req.AmountCents,
	}
	if entry.Category == "" {
		entry.Category = model.CategoryAny
	}
	if strings.TrimSpace(req.Date) != "" {
		d, err := time.Parse("2006-01-02", strings.TrimSpace(req.Date))
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid date"})
		}
		du := d.UTC()
		entry.Date = &du
		entry.DayClass = model.DayAny
	} else if entry.DayClass != model.DayWeekday && entry.DayClass != model.DayWeekend && entry.DayClass != model.DayAny {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "day_class must be WEEKDAY, WEEKEND or ANY"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	unit, err := h.Inventory.GetUnit(ctx, entry.UnitID)
	if err != nil {
		return respondErr(c, err)
	}
	if unit.VendorID != actx.VendorID {
		return respondErr(c, model.ErrForbidden)
	}
	if err := h.Inventory.UpsertPrice(ctx, entry); err != nil {
		return respondErr(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// ListPrices returns a unit's price table.
func (h *VendorHandler) ListPrices(c echo.Context) error {
	actx, ok := middleware.Actor(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	if err := auth.Authorize(actx, auth.CapManageInventory, actx.VendorID); err != nil {
		return respondErr(c, err)
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	unit, err := h.Inventory.GetUnit(ctx, pathID(c, "id"))
	if err != nil {
		return respondErr(c, err)
	}
	if unit.VendorID != actx.VendorID {
		return respondErr(c, model.ErrForbidden)
	}
	entries, err := h.Inventory.ListPrices(ctx, unit.ID)
	if err != nil {
		return respondErr(c, err)
	}
	type pricePart struct {
		ID          uint64  `json:"id"`
		Date        *string `json:"date,omitempty"`
		DayClass    string  `json:"day_class"`
		Category    string  `json:"category"`
		AmountCents uint32  `json:"amount_cents"`
	}
	out := make([]pricePart, 0, len(entries))
	for _, e := range entries {
		p := pricePart{
			ID:          e.ID,
			DayClass:    string(e.DayClass),
			Category:    string(e.Category),
			AmountCents: e.AmountCents,
		}
		if e.Date != nil {
			d := e.Date.UTC().Format("2006-01-02")
			p.Date = &d
		}
		out = append(out, p)
	}
	return c.JSON(http.StatusOK, echo.Map{"prices": out})
}

// DeletePrice removes one price entry from a unit.
func (h *VendorHandler) DeletePrice(c echo.Context) error {
	actx, ok := middleware.Actor(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	if err := auth.Authorize(actx, auth.CapManageInventory, actx.VendorID); err != nil {
		return respondErr(c, err)
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	unit, err := h.Inventory.GetUnit(ctx, pathID(c, "id"))
	if err != nil {
		return respondErr(c, err)
	}
	if unit.VendorID != actx.VendorID {
		return respondErr(c, model.ErrForbidden)
	}
	if err := h.Inventory.DeletePrice(ctx, unit.ID, pathID(c, "price_id")); err != nil {
		return respondErr(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
