package jwt

import (
	"crypto/ed25519"
	"crypto/rand"
	"errors"
	"strings"
	"testing"
	"time"

	gjwt "github.com/golang-jwt/jwt/v5"
)

var testHMACKey = []byte("0123456789abcdef0123456789abcdef")

func newEdKeys(t *testing.T) (ed25519.PublicKey, ed25519.PrivateKey) {
	t.Helper()
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("generate ed25519 key: %v", err)
	}
	return pub, priv
}

func newHS(t *testing.T, now func() time.Time) *Manager {
	t.Helper()
	m, err := NewManager(Config{
		AccessTTL:     15 * time.Minute,
		SigningMethod: MethodHS256,
		PrivateKey:    testHMACKey,
		Now:           now,
	})
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	return m
}

func TestMintAndParseRoundTrip(t *testing.T) {
	m := newHS(t, nil)

	token, minted, err := m.Mint("user-1")
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	claims, err := m.Parse(token)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	if claims.SubjectID() != "user-1" {
		t.Fatalf("unexpected subject %q", claims.SubjectID())
	}
	if claims.TokenID() == "" || claims.TokenID() != minted.TokenID() {
		t.Fatalf("jti mismatch: parsed=%q minted=%q", claims.TokenID(), minted.TokenID())
	}
	if got := claims.Expiry().Sub(claims.IssuedAt.Time); got != 15*time.Minute {
		t.Fatalf("unexpected lifetime %s", got)
	}
}

func TestMintProducesUniqueTokenIDs(t *testing.T) {
	m := newHS(t, nil)
	seen := make(map[string]struct{})
	for i := 0; i < 50; i++ {
		_, claims, err := m.Mint("user-1")
		if err != nil {
			t.Fatalf("mint: %v", err)
		}
		if _, dup := seen[claims.TokenID()]; dup {
			t.Fatalf("duplicate jti %s", claims.TokenID())
		}
		seen[claims.TokenID()] = struct{}{}
	}
}

func TestParseExpiredReturnsErrExpired(t *testing.T) {
	issued := time.Now()
	clock := issued
	m := newHS(t, func() time.Time { return clock })

	token, _, err := m.Mint("user-1")
	if err != nil {
		t.Fatalf("mint: %v", err)
	}

	clock = issued.Add(16 * time.Minute)
	if _, err := m.Parse(token); !errors.Is(err, ErrExpired) {
		t.Fatalf("expected ErrExpired, got %v", err)
	}
}

func TestParseTamperedReturnsErrInvalid(t *testing.T) {
	m := newHS(t, nil)

	token, _, err := m.Mint("user-1")
	if err != nil {
		t.Fatalf("mint: %v", err)
	}

	parts := strings.Split(token, ".")
	sig := []byte(parts[2])
	if sig[0] == 'A' {
		sig[0] = 'B'
	} else {
		sig[0] = 'A'
	}
	tampered := parts[0] + "." + parts[1] + "." + string(sig)

	for _, input := range []string{tampered, "", "not.a.jwt", token + "x"} {
		if _, err := m.Parse(input); !errors.Is(err, ErrInvalid) {
			t.Fatalf("Parse(%q) = %v, want ErrInvalid", input, err)
		}
	}
}

func TestParseRejectsOtherKey(t *testing.T) {
	m := newHS(t, nil)
	other, err := NewManager(Config{
		AccessTTL:     time.Minute,
		SigningMethod: MethodHS256,
		PrivateKey:    []byte("fedcba9876543210fedcba9876543210"),
	})
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}

	token, _, err := other.Mint("user-1")
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	if _, err := m.Parse(token); !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid for foreign key, got %v", err)
	}
}

func TestParseRejectsMissingJTI(t *testing.T) {
	m := newHS(t, nil)

	claims := AccessClaims{RegisteredClaims: gjwt.RegisteredClaims{
		Subject:   "user-1",
		IssuedAt:  gjwt.NewNumericDate(time.Now()),
		ExpiresAt: gjwt.NewNumericDate(time.Now().Add(time.Minute)),
	}}
	token, err := gjwt.NewWithClaims(gjwt.SigningMethodHS256, claims).SignedString(testHMACKey)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := m.Parse(token); !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid for missing jti, got %v", err)
	}
}

func TestParseRejectsMissingExpiry(t *testing.T) {
	m := newHS(t, nil)

	claims := AccessClaims{RegisteredClaims: gjwt.RegisteredClaims{
		Subject:  "user-1",
		ID:       "jti-1",
		IssuedAt: gjwt.NewNumericDate(time.Now()),
	}}
	token, err := gjwt.NewWithClaims(gjwt.SigningMethodHS256, claims).SignedString(testHMACKey)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := m.Parse(token); !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid for missing exp, got %v", err)
	}
}

func TestParseRejectsWrongAlgorithm(t *testing.T) {
	pub, _ := newEdKeys(t)
	m, err := NewManager(Config{AccessTTL: time.Minute, SigningMethod: MethodEd25519, PublicKey: pub})
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}

	claims := AccessClaims{RegisteredClaims: gjwt.RegisteredClaims{
		Subject:   "user-1",
		ID:        "jti-1",
		IssuedAt:  gjwt.NewNumericDate(time.Now()),
		ExpiresAt: gjwt.NewNumericDate(time.Now().Add(time.Minute)),
	}}
	token, err := gjwt.NewWithClaims(gjwt.SigningMethodHS256, claims).SignedString(testHMACKey)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}

	if _, err := m.Parse(token); !errors.Is(err, ErrInvalid) {
		t.Fatal("expected wrong algorithm to be rejected")
	}
}

func TestParseIssuerAudienceAndLeeway(t *testing.T) {
	_, priv := newEdKeys(t)
	m, err := NewManager(Config{
		AccessTTL:     time.Minute,
		SigningMethod: MethodEd25519,
		PrivateKey:    priv,
		PublicKey:     priv.Public().(ed25519.PublicKey),
		Issuer:        "credvault",
		Audience:      "api",
		Leeway:        30 * time.Second,
	})
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}

	access, _, err := m.Mint("user-1")
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	if _, err := m.Parse(access); err != nil {
		t.Fatalf("expected valid token to parse: %v", err)
	}

	sign := func(c AccessClaims) string {
		s, err := gjwt.NewWithClaims(gjwt.SigningMethodEdDSA, c).SignedString(priv)
		if err != nil {
			t.Fatalf("sign: %v", err)
		}
		return s
	}
	base := func(iss, aud string, exp, iat time.Time) AccessClaims {
		return AccessClaims{RegisteredClaims: gjwt.RegisteredClaims{
			Subject:   "user-1",
			ID:        "jti-1",
			Issuer:    iss,
			Audience:  gjwt.ClaimStrings{aud},
			ExpiresAt: gjwt.NewNumericDate(exp),
			IssuedAt:  gjwt.NewNumericDate(iat),
		}}
	}
	now := time.Now()

	if _, err := m.Parse(sign(base("other", "api", now.Add(time.Minute), now))); err == nil {
		t.Fatal("expected wrong issuer to fail")
	}
	if _, err := m.Parse(sign(base("credvault", "other-api", now.Add(time.Minute), now))); err == nil {
		t.Fatal("expected wrong audience to fail")
	}
	if _, err := m.Parse(sign(base("credvault", "api", now.Add(-15*time.Second), now.Add(-time.Minute)))); err != nil {
		t.Fatalf("expected token within leeway to pass: %v", err)
	}
	if _, err := m.Parse(sign(base("credvault", "api", now.Add(-2*time.Minute), now.Add(-3*time.Minute)))); !errors.Is(err, ErrExpired) {
		t.Fatalf("expected expired token to fail with ErrExpired, got %v", err)
	}
}

func TestParseUnknownKidFails(t *testing.T) {
	pub1, priv1 := newEdKeys(t)
	pub2, _ := newEdKeys(t)
	m, err := NewManager(Config{
		AccessTTL:     time.Minute,
		SigningMethod: MethodEd25519,
		PrivateKey:    priv1,
		PublicKey:     pub1,
		KeyID:         "k1",
		VerifyKeys: map[string][]byte{
			"k1": pub1,
		},
	})
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}

	claims := AccessClaims{RegisteredClaims: gjwt.RegisteredClaims{
		Subject:   "user-1",
		ID:        "jti-1",
		IssuedAt:  gjwt.NewNumericDate(time.Now()),
		ExpiresAt: gjwt.NewNumericDate(time.Now().Add(time.Minute)),
	}}
	tok := gjwt.NewWithClaims(gjwt.SigningMethodEdDSA, claims)
	tok.Header["kid"] = "k2"
	token, err := tok.SignedString(priv1)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	if _, err := m.Parse(token); err == nil {
		t.Fatal("expected unknown kid failure")
	}

	tok2 := gjwt.NewWithClaims(gjwt.SigningMethodEdDSA, claims)
	tok2.Header["kid"] = "k1"
	good, _ := tok2.SignedString(priv1)
	if _, err := m.Parse(good); err != nil {
		t.Fatalf("expected known kid token to pass: %v", err)
	}

	m2, _ := NewManager(Config{AccessTTL: time.Minute, SigningMethod: MethodEd25519, PublicKey: pub2, VerifyKeys: map[string][]byte{"k2": pub2}})
	if _, err := m2.Parse(good); err == nil {
		t.Fatal("expected parse failure with mismatched key set")
	}
}

func TestNewManagerValidation(t *testing.T) {
	cases := []Config{
		{AccessTTL: 0, SigningMethod: MethodHS256, PrivateKey: testHMACKey},
		{AccessTTL: time.Minute, SigningMethod: MethodHS256, PrivateKey: []byte("short")},
		{AccessTTL: time.Minute, SigningMethod: "rs256", PrivateKey: testHMACKey},
		{AccessTTL: time.Minute, SigningMethod: MethodHS256, PrivateKey: testHMACKey, Leeway: time.Hour},
		{AccessTTL: time.Minute, SigningMethod: MethodEd25519},
	}
	for i, cfg := range cases {
		if _, err := NewManager(cfg); err == nil {
			t.Fatalf("case %d: expected configuration error", i)
		}
	}
}
