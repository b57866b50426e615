package handler

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/SNurali/silkroad-reservation/internal/booking"
	"github.com/SNurali/silkroad-reservation/internal/middleware"
	"github.com/SNurali/silkroad-reservation/internal/model"
)

// ReservationHandler exposes the reservation lifecycle over HTTP.
// Requester endpoints derive the user from the context token; vendor
// endpoints pass the full auth.Context into the service, which runs
// the capability check against the reservation's owning vendor.
type ReservationHandler struct {
	Svc           *booking.Service
	WebhookSecret string
}

func NewReservationHandler(svc *booking.Service, webhookSecret string) *ReservationHandler {
	return &ReservationHandler{Svc: svc, WebhookSecret: webhookSecret}
}

// ----- DTOs -----

type createReservationReq struct {
	UnitID    uint64 `json:"unit_id"`
	StartDate string `json:"start_date"` // YYYY-MM-DD, check-in or visit date
	EndDate   string `json:"end_date"`   // YYYY-MM-DD, check-out; optional for single-day visits
	Qty       uint32 `json:"qty"`
	Category  string `json:"category"` // RESIDENT | NON_RESIDENT, optional
}

type rejectReq struct {
	Reason string `json:"reason"`
}

type cancelConfirmedReq struct {
	Comment string `json:"comment"`
}

type paymentWebhookReq struct {
	ReservationID uint64 `json:"reservation_id"`
	PaymentRef    string `json:"payment_ref"`
}

type reservationResp struct {
	ID                   uint64  `json:"id"`
	UnitID               uint64  `json:"unit_id"`
	VendorID             uint64  `json:"vendor_id"`
	UserID               uint64  `json:"user_id"`
	StartDate            string  `json:"start_date"`
	EndDate              string  `json:"end_date"`
	Qty                  uint32  `json:"qty"`
	Category             string  `json:"category"`
	TotalAmountCents     uint64  `json:"total_amount_cents"`
	Status               string  `json:"status"`
	ConfirmationDeadline string  `json:"confirmation_deadline"`
	ConfirmedBy          *uint64 `json:"confirmed_by,omitempty"`
	ConfirmedAt          *string `json:"confirmed_at,omitempty"`
	RejectionReason      *string `json:"rejection_reason,omitempty"`
	PaymentRef           *string `json:"payment_ref,omitempty"`
	CreatedAt            string  `json:"created_at"`
}

func toReservationResp(r model.Reservation) reservationResp {
	resp := reservationResp{
		ID:                   r.ID,
		UnitID:               r.UnitID,
		VendorID:             r.VendorID,
		UserID:               r.UserID,
		StartDate:            r.StartDate.UTC().Format("2006-01-02"),
		EndDate:              r.EndDate.UTC().Format("2006-01-02"),
		Qty:                  r.Qty,
		Category:             string(r.Category),
		TotalAmountCents:     r.TotalAmountCents,
		Status:               string(r.Status),
		ConfirmationDeadline: r.ConfirmationDeadline.UTC().Format(time.RFC3339),
		ConfirmedBy:          r.ConfirmedBy,
		RejectionReason:      r.RejectionReason,
		PaymentRef:           r.PaymentRef,
		CreatedAt:            r.CreatedAt.UTC().Format(time.RFC3339),
	}
	if r.ConfirmedAt != nil {
		iso := r.ConfirmedAt.UTC().Format(time.RFC3339)
		resp.ConfirmedAt = &iso
	}
	return resp
}

func toReservationList(rs []model.Reservation) []reservationResp {
	out := make([]reservationResp, 0, len(rs))
	for _, r := range rs {
		out = append(out, toReservationResp(r))
	}
	return out
}

// parseInterval turns the request's date strings into a half-open
// interval.  A missing end date means a single-day visit: the
// interval collapses to [start, start+1d).
func parseInterval(startStr, endStr string) (booking.Interval, error) {
	start, err := time.Parse("2006-01-02", strings.TrimSpace(startStr))
	if err != nil {
		return booking.Interval{}, model.ErrInvalidInterval
	}
	var end time.Time
	if strings.TrimSpace(endStr) == "" {
		end = start.AddDate(0, 0, 1)
	} else {
		end, err = time.Parse("2006-01-02", strings.TrimSpace(endStr))
		if err != nil {
			return booking.Interval{}, model.ErrInvalidInterval
		}
	}
	return booking.Interval{Start: start.UTC(), End: end.UTC()}, nil
}

// Create places a new reservation request for the authenticated user.
func (h *ReservationHandler) Create(c echo.Context) error {
	actx, ok := middleware.Actor(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req createReservationReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	iv, err := parseInterval(req.StartDate, req.EndDate)
	if err != nil {
		return respondErr(c, err)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	res, err := h.Svc.Create(ctx, booking.CreateInput{
		UnitID:   req.UnitID,
		Interval: iv,
		Qty:      req.Qty,
		Category: model.PriceCategory(strings.ToUpper(strings.TrimSpace(req.Category))),
		UserID:   actx.UserID,
	})
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(http.StatusCreated, toReservationResp(res))
}

// ListMine returns the requester's reservations.
func (h *ReservationHandler) ListMine(c echo.Context) error {
	actx, ok := middleware.Actor(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	rs, err := h.Svc.ListForUser(ctx, actx.UserID)
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"reservations": toReservationList(rs)})
}

// Get returns one reservation, visible to its requester and to
// authorized actors of its vendor.
func (h *ReservationHandler) Get(c echo.Context) error {
	actx, ok := middleware.Actor(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	res, err := h.Svc.Get(ctx, actx, pathID(c, "id"))
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(http.StatusOK, toReservationResp(res))
}

// History returns the reservation's append-only status trail.
func (h *ReservationHandler) History(c echo.Context) error {
	actx, ok := middleware.Actor(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	events, err := h.Svc.History(ctx, actx, pathID(c, "id"))
	if err != nil {
		return respondErr(c, err)
	}
	type eventPart struct {
		Status    string `json:"status"`
		ActorID   uint64 `json:"actor_id,omitempty"`
		Comment   string `json:"comment,omitempty"`
		CreatedAt string `json:"created_at"`
	}
	out := make([]eventPart, 0, len(events))
	for _, ev := range events {
		out = append(out, eventPart{
			Status:    string(ev.Status),
			ActorID:   ev.ActorID,
			Comment:   ev.Comment,
			CreatedAt: ev.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	return c.JSON(http.StatusOK, echo.Map{"history": out})
}

// Cancel withdraws the requester's own PENDING reservation.
func (h *ReservationHandler) Cancel(c echo.Context) error {
	actx, ok := middleware.Actor(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	res, err := h.Svc.CancelByUser(ctx, actx.UserID, pathID(c, "id"))
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(http.StatusOK, toReservationResp(res))
}

// ----- vendor side -----

// ListForVendor returns the active vendor context's reservations.
func (h *ReservationHandler) ListForVendor(c echo.Context) error {
	actx, ok := middleware.Actor(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	rs, err := h.Svc.ListForVendor(ctx, actx)
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"reservations": toReservationList(rs)})
}

// Approve confirms a pending reservation.  Safe to retry: an
// already confirmed reservation returns 200 unchanged.
func (h *ReservationHandler) Approve(c echo.Context) error {
	actx, ok := middleware.Actor(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	res, err := h.Svc.Approve(ctx, actx, pathID(c, "id"))
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(http.StatusOK, toReservationResp(res))
}

// Reject declines a pending reservation; a reason is mandatory.
func (h *ReservationHandler) Reject(c echo.Context) error {
	actx, ok := middleware.Actor(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req rejectReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	res, err := h.Svc.Reject(ctx, actx, pathID(c, "id"), req.Reason)
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(http.StatusOK, toReservationResp(res))
}

// CancelConfirmed cancels an already confirmed reservation (OWNER only).
func (h *ReservationHandler) CancelConfirmed(c echo.Context) error {
	actx, ok := middleware.Actor(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req cancelConfirmedReq
	_ = c.Bind(&req)
	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	res, err := h.Svc.CancelConfirmed(ctx, actx, pathID(c, "id"), req.Comment)
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(http.StatusOK, toReservationResp(res))
}

// Complete marks a confirmed reservation as fulfilled.
func (h *ReservationHandler) Complete(c echo.Context) error {
	actx, ok := middleware.Actor(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	res, err := h.Svc.Complete(ctx, actx, pathID(c, "id"))
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(http.StatusOK, toReservationResp(res))
}

// PaymentWebhook is the collaborator callback for settled payments.
// It authenticates with the shared X-Webhook-Secret header instead
// of a context token.
func (h *ReservationHandler) PaymentWebhook(c echo.Context) error {
	if h.WebhookSecret == "" {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "not found"})
	}
	got := c.Request().Header.Get("X-Webhook-Secret")
	if subtle.ConstantTimeCompare([]byte(got), []byte(h.WebhookSecret)) != 1 {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req paymentWebhookReq
	if err := c.Bind(&req); err != nil || req.ReservationID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	res, err := h.Svc.MarkPaid(ctx, req.ReservationID, strings.TrimSpace(req.PaymentRef))
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(http.StatusOK, toReservationResp(res))
}
