package validator

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/passpolicy/pkg/password"
)

type signup struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,password_policy"`
	Confirm  string `json:"confirm_password" validate:"eqfield=Password"`
}

func TestValidatePasswordPolicyTag(t *testing.T) {
	v := New(nil)

	assert.NoError(t, v.Validate(&signup{
		Email:    "user@example.com",
		Password: "Tr0ub4dor&Xy",
		Confirm:  "Tr0ub4dor&Xy",
	}))

	err := v.Validate(&signup{
		Email:    "user@example.com",
		Password: "password",
		Confirm:  "password",
	})
	require.Error(t, err)

	var errs Errors
	require.ErrorAs(t, err, &errs)
	require.Len(t, errs, 1)
	assert.Equal(t, "password", errs[0].Field)
	assert.Equal(t, "Password does not meet policy", errs[0].Message)
	assert.Contains(t, errs[0].Details, password.MsgTooCommon)
}

func TestValidateReportsEveryField(t *testing.T) {
	err := New(nil).Validate(signup{
		Email:    "not-an-email",
		Password: "Tr0ub4dor&Xy",
		Confirm:  "different",
	})

	var errs Errors
	require.ErrorAs(t, err, &errs)
	assert.Equal(t, []string{"email", "confirm_password"}, errs.Fields())
	assert.Equal(t, "Values do not match (Password)", errs[1].Message)
}

func TestValidateFieldScore(t *testing.T) {
	v := New(nil)

	assert.NoError(t, v.ValidateField("password", "Tr0ub4dor&Xy", "password_score=4"))

	err := v.ValidateField("password", "Tr0ub4dorXyz", "required", "password_score=4")
	var errs Errors
	require.ErrorAs(t, err, &errs)
	assert.Equal(t, "password", errs[0].Field)
	assert.Equal(t, "Password is not strong enough", errs[0].Message)
	assert.Contains(t, errs[0].Details, "Special characters (!@#$%^&*)")
}

func TestValidateUsesGivenPolicy(t *testing.T) {
	v := New(password.New(password.WithDenylist("Tr0ub4dor&Xy")))

	assert.Error(t, v.ValidateField("password", "Tr0ub4dor&Xy", "password_policy"))
}

func TestValidateNonStruct(t *testing.T) {
	err := New(nil).Validate("plain string")
	require.Error(t, err)

	var errs Errors
	assert.False(t, errors.As(err, &errs))
}
