package handler

import (
	"context"      // provides context with cancellation for DB calls
	"database/sql" // SQL database interactions
	"net/http"     // HTTP status codes and primitives
	"strconv"      // path parameter conversion
	"strings"      // string manipulation utilities
	"time"         // timeouts for DB calls

	"github.com/labstack/echo/v4" // Echo framework for HTTP routing

	"github.com/SNurali/silkroad-reservation/internal/auth"
	"github.com/SNurali/silkroad-reservation/internal/config"
	"github.com/SNurali/silkroad-reservation/internal/middleware"
	"github.com/SNurali/silkroad-reservation/internal/model"
	"github.com/SNurali/silkroad-reservation/internal/repository"
	"github.com/SNurali/silkroad-reservation/internal/utils"
)

// AuthHandler bundles dependencies for authentication and context
// switching.  Logging in always issues a plain end-user context;
// vendor contexts are obtained afterwards through SwitchContext,
// which re-reads the grant table at that moment.
type AuthHandler struct {
	Cfg     config.Config
	Users   *repository.UserRepo
	Tokens  *repository.TokenRepo
	Grants  *repository.RoleGrantRepo
	Vendors *repository.VendorRepo
}

func NewAuthHandler(cfg config.Config, u *repository.UserRepo, t *repository.TokenRepo, g *repository.RoleGrantRepo, v *repository.VendorRepo) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Users: u, Tokens: t, Grants: g, Vendors: v}
}

// ----- DTOs -----

type registerReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}
type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}
type refreshReq struct {
	RefreshToken string `json:"refresh_token"`
}
type switchReq struct {
	VendorID uint64 `json:"vendor_id"` // 0 switches back to the plain user context
}

type tokenPart struct {
	Token   string    `json:"token"`
	Expires time.Time `json:"expires"`
}
type userPart struct {
	ID    uint64 `json:"id"`
	Email string `json:"email"`
}
type authResp struct {
	User    userPart  `json:"user"`
	Access  tokenPart `json:"access"`
	Refresh tokenPart `json:"refresh"`
}

// issuePair creates a user-scoped context token plus a refresh token
// and stores the refresh hash.
func (h *AuthHandler) issuePair(ctx context.Context, userID uint64) (tokenPart, tokenPart, error) {
	access, err := utils.NewContextToken(h.Cfg.JWTSecret, auth.Context{UserID: userID}, h.Cfg.AccessTTLMin)
	if err != nil {
		return tokenPart{}, tokenPart{}, err
	}
	refresh, err := utils.NewRefreshToken(h.Cfg.RefreshTTLDays)
	if err != nil {
		return tokenPart{}, tokenPart{}, err
	}
	if err := h.Tokens.StoreRefresh(ctx, userID, utils.HashRefreshRaw(refresh.Raw), refresh.Exp); err != nil {
		return tokenPart{}, tokenPart{}, err
	}
	return tokenPart{Token: access.Token, Expires: access.Exp},
		tokenPart{Token: refresh.Raw, Expires: refresh.Exp}, nil // raw back to client
}

// Register: create user and return tokens immediately.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email/password required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	uid, err := h.Users.Create(ctx, req.Email, req.Password, h.Cfg.BcryptCost)
	if err != nil {
		if err == repository.ErrEmailExists {
			return c.JSON(http.StatusConflict, echo.Map{"error": "email already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create user failed"})
	}

	access, refresh, err := h.issuePair(ctx, uid)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue tokens failed"})
	}
	return c.JSON(http.StatusCreated, authResp{
		User:    userPart{ID: uid, Email: req.Email},
		Access:  access,
		Refresh: refresh,
	})
}

// Login: verify credentials and return a new pair.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email/password required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.GetByEmail(ctx, req.Email)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if !u.IsActive || !utils.VerifyPassword(u.PasswordHash, req.Password) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}

	access, refresh, err := h.issuePair(ctx, u.ID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue tokens failed"})
	}
	return c.JSON(http.StatusOK, authResp{
		User:    userPart{ID: u.ID, Email: u.Email},
		Access:  access,
		Refresh: refresh,
	})
}

// Refresh: validate by hash, revoke old, issue new pair.  The new
// access token is always user-scoped; a vendor context must be
// re-acquired through SwitchContext so revoked grants take effect on
// rotation.
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req refreshReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.RefreshToken) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "refresh_token required"})
	}
	raw := strings.TrimSpace(req.RefreshToken)
	hash := utils.HashRefreshRaw(raw)

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	userID, err := h.Tokens.ValidateRefresh(ctx, hash)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh"})
	}
	_ = h.Tokens.RevokeByHash(ctx, hash)

	u, err := h.Users.GetByID(ctx, userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load user failed"})
	}

	access, refresh, err := h.issuePair(ctx, userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue tokens failed"})
	}
	return c.JSON(http.StatusOK, authResp{
		User:    userPart{ID: userID, Email: u.Email},
		Access:  access,
		Refresh: refresh,
	})
}

// Logout revokes either the supplied refresh token (single session)
// or, when called with a bearer token and no body, every session of
// the authenticated user.
func (h *AuthHandler) Logout(c echo.Context) error {
	var req refreshReq
	_ = c.Bind(&req)
	refreshToken := strings.TrimSpace(req.RefreshToken)

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if refreshToken != "" {
		hash := utils.HashRefreshRaw(refreshToken)
		if _, err := h.Tokens.ValidateRefresh(ctx, hash); err != nil {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh token"})
		}
		if err := h.Tokens.RevokeByHash(ctx, hash); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "logout failed"})
		}
		return c.NoContent(http.StatusNoContent)
	}

	actx, ok := middleware.Actor(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "provide Authorization header or refresh_token"})
	}
	if err := h.Tokens.RevokeAllForUser(ctx, actx.UserID); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "logout failed"})
	}
	return c.NoContent(http.StatusNoContent)
}

// Me reports the caller's identity and active context.
func (h *AuthHandler) Me(c echo.Context) error {
	actx, ok := middleware.Actor(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	resp := echo.Map{
		"user_id":        actx.UserID,
		"active_context": "user",
	}
	if actx.ActingAsVendor() {
		resp["active_context"] = "vendor"
		resp["vendor_id"] = actx.VendorID
		resp["vendor_role"] = actx.Role
	}
	return c.JSON(http.StatusOK, resp)
}

// Contexts lists the vendor contexts the caller may switch into.
func (h *AuthHandler) Contexts(c echo.Context) error {
	actx, ok := middleware.Actor(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	grants, err := h.Grants.ListForUser(ctx, actx.UserID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	type grantPart struct {
		VendorID uint64           `json:"vendor_id"`
		Role     model.VendorRole `json:"role"`
	}
	out := make([]grantPart, 0, len(grants))
	for _, g := range grants {
		out = append(out, grantPart{VendorID: g.VendorID, Role: g.Role})
	}
	return c.JSON(http.StatusOK, echo.Map{"contexts": out})
}

// SwitchContext issues a new context token scoped to the requested
// vendor.  The grant table and the vendor's status are read at this
// moment — a revoked grant or a suspended vendor refuses the switch
// even if an older token is still valid.  vendor_id 0 drops back to
// the plain user context.
func (h *AuthHandler) SwitchContext(c echo.Context) error {
	actx, ok := middleware.Actor(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req switchReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	target := auth.Context{UserID: actx.UserID}
	if req.VendorID != 0 {
		grant, err := h.Grants.Get(ctx, actx.UserID, req.VendorID)
		if err != nil {
			return respondErr(c, err)
		}
		vendor, err := h.Vendors.GetByID(ctx, req.VendorID)
		if err != nil {
			return respondErr(c, err)
		}
		if vendor.Status != model.VendorActive {
			return respondErr(c, model.ErrVendorNotActive)
		}
		target.VendorID = grant.VendorID
		target.Role = grant.Role
	}

	token, err := utils.NewContextToken(h.Cfg.JWTSecret, target, h.Cfg.AccessTTLMin)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue token failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"access": tokenPart{Token: token.Token, Expires: token.Exp},
	})
}

// pathID parses a numeric path parameter, returning 0 when absent or
// malformed.
func pathID(c echo.Context, name string) uint64 {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil {
		return 0
	}
	return id
}
