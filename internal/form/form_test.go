package form

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/jwalitptl/passpolicy/pkg/errors"
	"github.com/jwalitptl/passpolicy/pkg/validator"
)

func failedFields(t *testing.T, err error) []string {
	t.Helper()
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrBadRequest))

	var errs validator.Errors
	require.True(t, errors.As(err, &errs))
	return errs.Fields()
}

func TestRegister(t *testing.T) {
	c := NewChecker(validator.New(nil))

	assert.NoError(t, c.Register(&RegisterRequest{
		Email:           "ada@example.com",
		Username:        "ada",
		Password:        "Tr0ub4dor&Xy",
		ConfirmPassword: "Tr0ub4dor&Xy",
	}))

	fields := failedFields(t, c.Register(&RegisterRequest{
		Email:           "ada@example.com",
		Username:        "ad",
		Password:        "Tr0ub4dor&Xy",
		ConfirmPassword: "Tr0ub4dor&Xz",
	}))
	assert.Equal(t, []string{"username", "confirm_password"}, fields)

	fields = failedFields(t, c.Register(&RegisterRequest{
		Email:           "ada@example.com",
		Username:        "ada",
		Password:        "qwerty",
		ConfirmPassword: "qwerty",
	}))
	assert.Equal(t, []string{"password"}, fields)
}

func TestChangePassword(t *testing.T) {
	c := NewChecker(validator.New(nil))

	assert.NoError(t, c.ChangePassword(&ChangePasswordRequest{
		CurrentPassword: "old-password",
		NewPassword:     "Tr0ub4dor&Xy",
		ConfirmPassword: "Tr0ub4dor&Xy",
	}))

	fields := failedFields(t, c.ChangePassword(&ChangePasswordRequest{
		CurrentPassword: "Tr0ub4dor&Xy",
		NewPassword:     "Tr0ub4dor&Xy",
		ConfirmPassword: "Tr0ub4dor&Xy",
	}))
	assert.Equal(t, []string{"new_password"}, fields)

	fields = failedFields(t, c.ChangePassword(&ChangePasswordRequest{}))
	assert.Equal(t, []string{"current_password", "new_password", "confirm_password"}, fields)
}
