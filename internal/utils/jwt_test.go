package utils

import (
	"testing"

	"github.com/SNurali/silkroad-reservation/internal/auth"
	"github.com/SNurali/silkroad-reservation/internal/model"
)

func TestContextTokenRoundTrip(t *testing.T) {
	t.Parallel()

	const secret = "test-secret"

	t.Run("end user context", func(t *testing.T) {
		tok, err := NewContextToken(secret, auth.Context{UserID: 42}, 15)
		if err != nil {
			t.Fatalf("mint: %v", err)
		}
		actx, err := ParseContextToken(secret, tok.Token)
		if err != nil {
			t.Fatalf("parse: %v", err)
		}
		if actx.UserID != 42 || actx.ActingAsVendor() {
			t.Fatalf("unexpected context: %+v", actx)
		}
	})

	t.Run("vendor context", func(t *testing.T) {
		in := auth.Context{UserID: 42, VendorID: 7, Role: model.RoleOperator}
		tok, err := NewContextToken(secret, in, 15)
		if err != nil {
			t.Fatalf("mint: %v", err)
		}
		actx, err := ParseContextToken(secret, tok.Token)
		if err != nil {
			t.Fatalf("parse: %v", err)
		}
		if actx != in {
			t.Fatalf("got %+v, want %+v", actx, in)
		}
	})

	t.Run("wrong secret rejected", func(t *testing.T) {
		tok, err := NewContextToken(secret, auth.Context{UserID: 1}, 15)
		if err != nil {
			t.Fatalf("mint: %v", err)
		}
		if _, err := ParseContextToken("other-secret", tok.Token); err == nil {
			t.Fatal("expected parse failure with wrong secret")
		}
	})

	t.Run("garbage rejected", func(t *testing.T) {
		if _, err := ParseContextToken(secret, "not-a-jwt"); err == nil {
			t.Fatal("expected parse failure")
		}
	})
}
