package validation

import (
	"testing"

	"github.com/curaious/tasky/internal/perrors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type signup struct {
	Name     string   `json:"name" validate:"required"`
	Email    string   `json:"email" validate:"required,email"`
	Password string   `json:"password" validate:"required,min=6"`
	Hours    *float64 `json:"estimated_hours,omitempty" validate:"omitempty,gte=0"`
	Kind     string   `json:"kind,omitempty" validate:"omitempty,oneof=a b"`
}

func TestStruct(t *testing.T) {
	neg, zero := -1.0, 0.0

	tests := []struct {
		name string
		in   signup
		msg  string
	}{
		{"valid", signup{Name: "Ada", Email: "ada@example.com", Password: "secret1", Hours: &zero}, ""},
		{"missing name", signup{Email: "ada@example.com", Password: "secret1"}, "name is required"},
		{"bad email", signup{Name: "Ada", Email: "ada", Password: "secret1"}, "email must be a valid email address"},
		{"short password", signup{Name: "Ada", Email: "ada@example.com", Password: "123"}, "password must be at least 6 characters"},
		{"negative hours", signup{Name: "Ada", Email: "ada@example.com", Password: "secret1", Hours: &neg}, "estimated_hours cannot be less than 0"},
		{"unknown kind", signup{Name: "Ada", Email: "ada@example.com", Password: "secret1", Kind: "c"}, "kind must be one of [a b]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Struct(&tt.in)
			if tt.msg == "" {
				require.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, perrors.ErrValidationFailed)
			assert.Contains(t, err.Error(), tt.msg)
			assert.Equal(t, perrors.ErrCodeInvalidRequest, perrors.CodeOf(err))
		})
	}
}

func TestStructReportsEveryField(t *testing.T) {
	err := Struct(&signup{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "name is required")
	assert.Contains(t, err.Error(), "email is required")
	assert.Contains(t, err.Error(), "password is required")
}

func TestVar(t *testing.T) {
	assert.NoError(t, Var("email", "ada@example.com", "required,email"))

	err := Var("email", "nope", "required,email")
	assert.ErrorIs(t, err, perrors.ErrValidationFailed)
	assert.EqualError(t, err, "email must be a valid email address: validation failed")
}

func TestStructRejectsNonStruct(t *testing.T) {
	err := Struct(42)
	require.Error(t, err)
	assert.NotErrorIs(t, err, perrors.ErrValidationFailed)
}

func TestVarClockTime(t *testing.T) {
	assert.NoError(t, Var("time", "09:30", "omitempty,datetime=15:04"))
	assert.NoError(t, Var("time", "", "omitempty,datetime=15:04"))
	assert.EqualError(t, Var("time", "9pm", "omitempty,datetime=15:04"), "time must match the layout 15:04: validation failed")
}
