package flows

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/MrEthical07/credvault/identity"
	"github.com/MrEthical07/credvault/jwt"
	"github.com/MrEthical07/credvault/lifecycle"
	"github.com/MrEthical07/credvault/password"
	"github.com/MrEthical07/credvault/store/memstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// plainHasher stands in for Argon2 so these tests stay fast.
type plainHasher struct {
	verified []string
}

func (h *plainHasher) Hash(secret string) (string, error) {
	if secret == "" {
		return "", errors.New("empty")
	}
	return "v2:" + secret, nil
}

func (h *plainHasher) Verify(digest, secret string) (bool, error) {
	h.verified = append(h.verified, digest)
	if len(secret) > 64 {
		return false, password.ErrSecretTooLong
	}
	switch {
	case len(digest) > 3 && digest[:3] == "v1:":
		return digest[3:] == secret, nil
	case len(digest) > 3 && digest[:3] == "v2:":
		return digest[3:] == secret, nil
	default:
		return false, fmt.Errorf("%w: unknown prefix", password.ErrMalformedDigest)
	}
}

func (h *plainHasher) NeedsUpgrade(digest string) (bool, error) {
	return len(digest) > 3 && digest[:3] == "v1:", nil
}

func loginDeps(users *memstore.UserStore, h *plainHasher) LoginDeps {
	return LoginDeps{
		Users:          users,
		DigestUpdater:  users,
		VerifyPassword: h.Verify,
		NeedsUpgrade:   h.NeedsUpgrade,
		HashPassword:   h.Hash,
		DummyDigest:    "v2:dummy",
		IssuePair: func(_ context.Context, subjectID string) (lifecycle.CredentialPair, error) {
			return lifecycle.CredentialPair{SubjectID: subjectID, AccessToken: "access", RefreshToken: "refresh"}, nil
		},
	}
}

func TestRunRegister(t *testing.T) {
	users := memstore.NewUserStore()
	h := &plainHasher{}
	deps := RegisterDeps{Users: users, HashPassword: h.Hash}
	ctx := context.Background()

	res := RunRegister(ctx, identity.CreateInput{Email: "Alice@Example.com", FirstName: "Alice", LastName: "Doe"}, "Str0ng!Pass", deps)
	require.Equal(t, RegisterFailureNone, res.Failure)
	assert.Equal(t, "alice@example.com", res.Identity.Email)
	assert.Equal(t, "v2:Str0ng!Pass", res.Identity.PasswordDigest)

	res = RunRegister(ctx, identity.CreateInput{Email: "alice@example.com"}, "Other1!pass", deps)
	assert.Equal(t, RegisterFailureEmailTaken, res.Failure)
	assert.ErrorIs(t, res.Err, identity.ErrEmailTaken)

	res = RunRegister(ctx, identity.CreateInput{Email: "bob@example.com"}, "", deps)
	assert.Equal(t, RegisterFailureHash, res.Failure)
}

func TestRunLoginOutcomes(t *testing.T) {
	users := memstore.NewUserStore()
	ctx := context.Background()
	alice, err := users.Create(ctx, identity.CreateInput{Email: "alice@example.com", PasswordDigest: "v2:Str0ng!Pass"})
	require.NoError(t, err)
	bob, err := users.Create(ctx, identity.CreateInput{Email: "bob@example.com", PasswordDigest: "v2:Str0ng!Pass"})
	require.NoError(t, err)
	require.NoError(t, users.SetActive(ctx, bob.ID, false))
	_, err = users.Create(ctx, identity.CreateInput{Email: "carol@example.com", PasswordDigest: "garbage"})
	require.NoError(t, err)

	h := &plainHasher{}
	deps := loginDeps(users, h)

	res := RunLogin(ctx, " ALICE@example.com", "Str0ng!Pass", deps)
	require.Equal(t, LoginFailureNone, res.Failure)
	assert.Equal(t, alice.ID, res.Pair.SubjectID)
	require.NotNil(t, res.Identity.LastLoginAt)
	assert.False(t, res.Rehashed)

	cases := []struct {
		name     string
		email    string
		password string
		want     LoginFailureKind
	}{
		{"empty password", "alice@example.com", "", LoginFailureEmptyPassword},
		{"wrong password", "alice@example.com", "nope", LoginFailurePasswordMismatch},
		{"unknown email", "nobody@example.com", "Str0ng!Pass", LoginFailureUnknownEmail},
		{"inactive", "bob@example.com", "Str0ng!Pass", LoginFailureInactive},
		{"malformed digest", "carol@example.com", "Str0ng!Pass", LoginFailurePasswordMismatch},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res := RunLogin(ctx, tc.email, tc.password, deps)
			assert.Equal(t, tc.want, res.Failure)
		})
	}
}

func TestRunLoginWarnsOnlyForMalformedDigest(t *testing.T) {
	users := memstore.NewUserStore()
	ctx := context.Background()
	alice, err := users.Create(ctx, identity.CreateInput{Email: "alice@example.com", PasswordDigest: "v2:Str0ng!Pass"})
	require.NoError(t, err)
	_, err = users.Create(ctx, identity.CreateInput{Email: "carol@example.com", PasswordDigest: "garbage"})
	require.NoError(t, err)

	var warnings []string
	deps := loginDeps(users, &plainHasher{})
	deps.Warn = func(_ context.Context, msg string, _ ...any) {
		warnings = append(warnings, msg)
	}

	res := RunLogin(ctx, "alice@example.com", strings.Repeat("x", 200), deps)
	assert.Equal(t, LoginFailurePasswordMismatch, res.Failure)
	assert.Equal(t, alice.ID, res.Identity.ID)
	assert.Empty(t, warnings)

	res = RunLogin(ctx, "carol@example.com", "Str0ng!Pass", deps)
	assert.Equal(t, LoginFailurePasswordMismatch, res.Failure)
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], "malformed")
}

func TestBearerToken(t *testing.T) {
	cases := []struct {
		header string
		want   string
		ok     bool
	}{
		{"Bearer abc", "abc", true},
		{"bearer abc", "abc", true},
		{"  BEARER   abc  ", "abc", true},
		{"Bearer", "", false},
		{"Bearer    ", "", false},
		{"Basic abc", "", false},
		{"abc", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		got, ok := BearerToken(tc.header)
		assert.Equal(t, tc.ok, ok, tc.header)
		assert.Equal(t, tc.want, got, tc.header)
	}
}

func TestRunLoginUnknownEmailVerifiesDummy(t *testing.T) {
	users := memstore.NewUserStore()
	h := &plainHasher{}

	res := RunLogin(context.Background(), "ghost@example.com", "Str0ng!Pass", loginDeps(users, h))
	assert.Equal(t, LoginFailureUnknownEmail, res.Failure)
	assert.Equal(t, []string{"v2:dummy"}, h.verified)
}

func TestRunLoginUpgradesDigest(t *testing.T) {
	users := memstore.NewUserStore()
	ctx := context.Background()
	alice, err := users.Create(ctx, identity.CreateInput{Email: "alice@example.com", PasswordDigest: "v1:Str0ng!Pass"})
	require.NoError(t, err)

	res := RunLogin(ctx, "alice@example.com", "Str0ng!Pass", loginDeps(users, &plainHasher{}))
	require.Equal(t, LoginFailureNone, res.Failure)
	assert.True(t, res.Rehashed)

	stored, err := users.FindByID(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, "v2:Str0ng!Pass", stored.PasswordDigest)
}

func TestRunLoginIssueFailure(t *testing.T) {
	users := memstore.NewUserStore()
	ctx := context.Background()
	_, err := users.Create(ctx, identity.CreateInput{Email: "alice@example.com", PasswordDigest: "v2:Str0ng!Pass"})
	require.NoError(t, err)

	deps := loginDeps(users, &plainHasher{})
	deps.IssuePair = func(context.Context, string) (lifecycle.CredentialPair, error) {
		return lifecycle.CredentialPair{}, lifecycle.ErrTransient
	}
	res := RunLogin(ctx, "alice@example.com", "Str0ng!Pass", deps)
	assert.Equal(t, LoginFailureIssue, res.Failure)
	assert.ErrorIs(t, res.Err, lifecycle.ErrTransient)
}

func TestRunRefresh(t *testing.T) {
	deps := RefreshDeps{Rotate: func(_ context.Context, secret string) (lifecycle.CredentialPair, error) {
		switch secret {
		case "good":
			return lifecycle.CredentialPair{SubjectID: "u1"}, nil
		case "down":
			return lifecycle.CredentialPair{}, lifecycle.ErrTransient
		default:
			return lifecycle.CredentialPair{}, lifecycle.ErrInvalidCredential
		}
	}}

	assert.Equal(t, RefreshFailureNone, RunRefresh(context.Background(), "good", deps).Failure)
	assert.Equal(t, RefreshFailureInvalidCredential, RunRefresh(context.Background(), "used", deps).Failure)
	assert.Equal(t, RefreshFailureRotate, RunRefresh(context.Background(), "down", deps).Failure)
}

func TestRunAuthenticate(t *testing.T) {
	users := memstore.NewUserStore()
	ctx := context.Background()
	alice, err := users.Create(ctx, identity.CreateInput{Email: "alice@example.com"})
	require.NoError(t, err)
	bob, err := users.Create(ctx, identity.CreateInput{Email: "bob@example.com"})
	require.NoError(t, err)
	require.NoError(t, users.SetActive(ctx, bob.ID, false))

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	env, err := jwt.NewManager(jwt.Config{
		AccessTTL:     time.Minute,
		SigningMethod: jwt.MethodHS256,
		PrivateKey:    []byte("0123456789abcdef0123456789abcdef"),
		Now:           func() time.Time { return now },
	})
	require.NoError(t, err)

	blocked := map[string]bool{}
	deps := AuthenticateDeps{
		ParseAccess: env.Parse,
		IsBlocked: func(_ context.Context, id string) (bool, error) {
			return blocked[id], nil
		},
		Users: users,
	}

	aliceToken, aliceClaims, err := env.Mint(alice.ID)
	require.NoError(t, err)
	bobToken, _, err := env.Mint(bob.ID)
	require.NoError(t, err)
	ghostToken, _, err := env.Mint("ghost")
	require.NoError(t, err)

	res := RunAuthenticate(ctx, "Bearer "+aliceToken, deps)
	require.Equal(t, AuthenticateFailureNone, res.Failure)
	assert.Equal(t, alice.ID, res.Identity.ID)

	assert.Equal(t, AuthenticateFailureInvalidToken, RunAuthenticate(ctx, "", deps).Failure)
	assert.Equal(t, AuthenticateFailureInvalidToken, RunAuthenticate(ctx, "Bearer junk", deps).Failure)
	assert.Equal(t, AuthenticateFailureIdentityNotFound, RunAuthenticate(ctx, ghostToken, deps).Failure)
	assert.Equal(t, AuthenticateFailureIdentityInactive, RunAuthenticate(ctx, bobToken, deps).Failure)

	blocked[aliceClaims.TokenID()] = true
	assert.Equal(t, AuthenticateFailureTokenRevoked, RunAuthenticate(ctx, aliceToken, deps).Failure)

	now = now.Add(2 * time.Minute)
	assert.Equal(t, AuthenticateFailureTokenExpired, RunAuthenticate(ctx, aliceToken, deps).Failure)
}
