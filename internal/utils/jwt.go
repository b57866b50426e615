package utils // package utils provides helper functions for token creation and hashing

import (
	"crypto/rand"   // secure random number generation
	"crypto/sha256" // SHA‑256 hashing for refresh tokens
	"encoding/hex"  // hex encoding and decoding functions
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5" // JWT library for creating signed tokens

	"github.com/SNurali/silkroad-reservation/internal/auth"
	"github.com/SNurali/silkroad-reservation/internal/model"
)

// ContextToken is a signed, short-lived credential scoping a request
// to "acting as end-user" or "acting as vendor X with role R".  The
// Token field contains the serialized JWT; Exp its UTC expiry.
type ContextToken struct {
	Token string    // the serialized JWT string
	Exp   time.Time // the UTC expiration time
}

// RefreshToken represents a long‑lived token used to obtain new context
// tokens.  The Raw field contains the raw token string returned to the
// client.  In the database only a SHA‑256 hash of the raw string is
// stored.
type RefreshToken struct {
	Raw string    // raw token string returned to the client
	Exp time.Time // UTC expiration time
}

// NewContextToken builds and signs an HS256 JWT carrying the caller's
// context claims: subject (sub), active_context ("user" or "vendor"),
// and — when vendor-scoped — vendor_id and vendor_role.  The vendor
// claims are a snapshot of the role grant taken at issuance; they are
// never read back from mutable request state.
func NewContextToken(secret string, actx auth.Context, ttlMin int) (ContextToken, error) {
	exp := time.Now().UTC().Add(time.Duration(ttlMin) * time.Minute)
	claims := jwt.MapClaims{
		"sub":            actx.UserID,
		"active_context": "user",
		"exp":            exp.Unix(),
		"iat":            time.Now().UTC().Unix(),
	}
	if actx.ActingAsVendor() {
		claims["active_context"] = "vendor"
		claims["vendor_id"] = actx.VendorID
		claims["vendor_role"] = string(actx.Role)
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString([]byte(secret))
	if err != nil {
		return ContextToken{}, err
	}
	return ContextToken{Token: signed, Exp: exp}, nil
}

// ErrInvalidToken is returned by ParseContextToken for expired,
// malformed or wrongly signed tokens.
var ErrInvalidToken = errors.New("invalid context token")

// ParseContextToken verifies the signature and expiry of a context
// token and reconstructs the immutable auth.Context it carries.
func ParseContextToken(secret, raw string) (auth.Context, error) {
	tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return []byte(secret), nil
	})
	if err != nil || !tok.Valid {
		return auth.Context{}, ErrInvalidToken
	}
	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return auth.Context{}, ErrInvalidToken
	}
	actx := auth.Context{}
	sub, ok := claims["sub"].(float64)
	if !ok || sub <= 0 {
		return auth.Context{}, ErrInvalidToken
	}
	actx.UserID = uint64(sub)
	if ac, _ := claims["active_context"].(string); ac == "vendor" {
		vid, ok := claims["vendor_id"].(float64)
		if !ok || vid <= 0 {
			return auth.Context{}, ErrInvalidToken
		}
		role, _ := claims["vendor_role"].(string)
		if role != string(model.RoleOwner) && role != string(model.RoleOperator) {
			return auth.Context{}, ErrInvalidToken
		}
		actx.VendorID = uint64(vid)
		actx.Role = model.VendorRole(role)
	}
	return actx, nil
}

// NewRefreshToken returns a cryptographically secure random token (raw)
// and its expiration time.  The ttlDays parameter controls how many
// days the refresh token is valid.
func NewRefreshToken(ttlDays int) (RefreshToken, error) {
	raw, err := randomHex(48) // 48 bytes -> 96 hex chars
	if err != nil {
		return RefreshToken{}, err
	}
	return RefreshToken{
		Raw: raw,
		Exp: time.Now().UTC().Add(time.Duration(ttlDays) * 24 * time.Hour),
	}, nil
}

// HashRefreshRaw returns the SHA‑256 hash of the raw refresh token as a
// hex string.  Storing only the hash prevents attackers from using
// stolen database entries to refresh sessions.
func HashRefreshRaw(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

// randomHex returns a hex‑encoded string generated from n bytes of
// cryptographically secure random data.
func randomHex(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
