package validator

import (
	"testing"

	"github.com/stretchr/testify/require"
)

var _ Validator = (*V10Validator)(nil)

func TestV10ValidatorReportsSnakeCaseFields(t *testing.T) {
	v, err := NewV10Validator()
	require.NoError(t, err)

	type input struct {
		EmailAddress string `validate:"required,email"`
		NewPassword  string `validate:"required,password"`
	}

	err = v.Validate(input{EmailAddress: "not-an-email", NewPassword: "short"})
	require.Error(t, err)

	var verr V10ValidationError
	require.ErrorAs(t, err, &verr)
	require.Contains(t, verr.Values(), "email_address")
	require.Contains(t, verr.Values(), "new_password")
}

func TestV10ValidatorAcceptsValidInput(t *testing.T) {
	v, err := NewV10Validator()
	require.NoError(t, err)

	type input struct {
		EmailAddress string `validate:"required,email"`
		NewPassword  string `validate:"required,password"`
	}

	require.NoError(t, v.Validate(input{
		EmailAddress: "user@example.com",
		NewPassword:  "Sup3rSecret!",
	}))
}
