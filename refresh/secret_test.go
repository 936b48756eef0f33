package refresh

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestNewSecretShapeAndUniqueness(t *testing.T) {
	seen := make(map[string]struct{}, 64)
	for i := 0; i < 64; i++ {
		s, err := NewSecret()
		if err != nil {
			t.Fatalf("NewSecret error: %v", err)
		}
		if err := Validate(s); err != nil {
			t.Fatalf("generated secret failed validation: %v", err)
		}
		if _, dup := seen[s]; dup {
			t.Fatalf("duplicate secret generated: %s", s)
		}
		seen[s] = struct{}{}
	}
}

func TestNewSecretPropagatesReaderError(t *testing.T) {
	prev := randReader
	randReader = bytes.NewReader(nil)
	defer func() { randReader = prev }()

	if _, err := NewSecret(); err == nil {
		t.Fatal("expected error from exhausted reader")
	}
}

func TestHashIsStableAndDistinct(t *testing.T) {
	a := strings.Repeat("ab", SecretSize)
	b := strings.Repeat("cd", SecretSize)

	if Hash(a) != Hash(a) {
		t.Fatal("hash must be deterministic")
	}
	if Hash(a) == Hash(b) {
		t.Fatal("distinct secrets must hash differently")
	}
	if Hash(a) == a {
		t.Fatal("hash must not equal the secret")
	}
	if len(Hash(a)) != 64 {
		t.Fatalf("unexpected hash length %d", len(Hash(a)))
	}
}

func TestValidateRejectsGarbage(t *testing.T) {
	cases := []string{
		"",
		"short",
		strings.Repeat("z", SecretSize*2),
		strings.Repeat("a", SecretSize*2+1),
	}
	for _, c := range cases {
		if err := Validate(c); !errors.Is(err, ErrMalformed) {
			t.Fatalf("Validate(%q) = %v, want ErrMalformed", c, err)
		}
	}
}
