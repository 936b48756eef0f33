package validatorx

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type signup struct {
	Email     string `json:"email" validate:"required,email"`
	FirstName string `json:"firstName" validate:"required,min=2,max=50"`
	Password  string `json:"password" validate:"required,min=8,max=128,password_policy"`
}

func TestValidatePasses(t *testing.T) {
	v := NewValidator()
	err := v.Validate(&signup{Email: "alice@example.com", FirstName: "Alice", Password: "Str0ng!Pass"})
	assert.NoError(t, err)
}

func TestValidateCollectsFieldErrors(t *testing.T) {
	v := NewValidator()
	err := v.Validate(&signup{Email: "nope", FirstName: "A", Password: "weakpassword"})
	require.Error(t, err)

	var ve ValidationError
	require.True(t, errors.As(err, &ve))
	require.Len(t, ve.Errors, 3)

	byField := map[string]FieldError{}
	for _, fe := range ve.Errors {
		byField[fe.Field] = fe
	}
	assert.Equal(t, "email", byField["email"].Tag)
	assert.Equal(t, "min", byField["firstName"].Tag)
	assert.Equal(t, "password_policy", byField["password"].Tag)
	assert.Equal(t, "This field must be at least 2 characters long", byField["firstName"].Message)
}

func TestIsStrongPassword(t *testing.T) {
	cases := map[string]bool{
		"Str0ng!Pass": true,
		"str0ng!pass": false,
		"STR0NG!PASS": false,
		"Strong!Pass": false,
		"Str0ngPass":  false,
		"Aa1?":        true,
	}
	for in, want := range cases {
		assert.Equal(t, want, IsStrongPassword(in), in)
	}
}
