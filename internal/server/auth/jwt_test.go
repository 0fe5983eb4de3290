package auth

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/taskkeeper/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

func TestGenerateAndParse_Success(t *testing.T) {
	t.Parallel()

	secret := []byte("super-secret")
	userID := "user-123"

	tok, err := GenerateToken(userID, secret)
	if err != nil {
		t.Fatalf("GenerateToken error: %v", err)
	}

	gotUserID, err := GetUserIDFromToken(tok, secret)
	if err != nil {
		t.Fatalf("GetUserIDFromToken error: %v", err)
	}
	if gotUserID != userID {
		t.Fatalf("userID mismatch: got %q want %q", gotUserID, userID)
	}
}

func TestGenerateToken_DistinctForSameUser(t *testing.T) {
	t.Parallel()

	secret := []byte("s")
	a, err := GenerateToken("u1", secret)
	if err != nil {
		t.Fatal(err)
	}
	b, err := GenerateToken("u1", secret)
	if err != nil {
		t.Fatal(err)
	}
	if a == b {
		t.Fatal("two tokens for the same user must differ")
	}
}

func TestGenerateToken_EmptyUser(t *testing.T) {
	t.Parallel()

	if _, err := GenerateToken("", []byte("s")); err == nil {
		t.Fatal("expected error for empty user id")
	}
}

func TestGenerateToken_HasNoExpiry(t *testing.T) {
	t.Parallel()

	tok, err := GenerateToken("u1", []byte("s"))
	if err != nil {
		t.Fatal(err)
	}

	claims := &Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tok, claims); err != nil {
		t.Fatalf("ParseUnverified: %v", err)
	}
	if claims.ExpiresAt != nil {
		t.Fatalf("session tokens must not expire, got %v", claims.ExpiresAt)
	}
	if claims.ID == "" {
		t.Fatal("expected a token id")
	}
}

func TestGetUserIDFromToken_Rejections(t *testing.T) {
	t.Parallel()

	secret := []byte("secret")

	good, err := GenerateToken("u1", secret)
	if err != nil {
		t.Fatal(err)
	}

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{UserID: "u1"}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatal(err)
	}

	hs512, err := jwt.NewWithClaims(jwt.SigningMethodHS512, Claims{UserID: "u1"}).SignedString(secret)
	if err != nil {
		t.Fatal(err)
	}

	expired, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute))},
		UserID:           "u1",
	}).SignedString(secret)
	if err != nil {
		t.Fatal(err)
	}

	noUser, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{}).SignedString(secret)
	if err != nil {
		t.Fatal(err)
	}

	parts := strings.Split(good, ".")
	tampered := parts[0] + "." + parts[1] + ".AAAA"

	cases := map[string]struct {
		token  string
		secret []byte
	}{
		"garbage":      {token: "not-a-jwt", secret: secret},
		"empty":        {token: "", secret: secret},
		"wrong secret": {token: good, secret: []byte("other")},
		"tampered sig": {token: tampered, secret: secret},
		"alg none":     {token: none, secret: secret},
		"alg HS512":    {token: hs512, secret: secret},
		"expired":      {token: expired, secret: secret},
		"no user id":   {token: noUser, secret: secret},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := GetUserIDFromToken(tc.token, tc.secret)
			if !errors.Is(err, common.ErrInvalidToken) {
				t.Fatalf("want ErrInvalidToken, got %v", err)
			}
		})
	}
}
