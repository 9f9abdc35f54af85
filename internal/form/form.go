package form

import (
	apperrors "github.com/jwalitptl/passpolicy/pkg/errors"
	"github.com/jwalitptl/passpolicy/pkg/validator"
)

type RegisterRequest struct {
	Email           string `json:"email" validate:"required,email"`
	Username        string `json:"username" validate:"required,min=3,max=50"`
	Password        string `json:"password" validate:"required,password_policy"`
	ConfirmPassword string `json:"confirm_password" validate:"required,eqfield=Password"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,nefield=CurrentPassword,password_policy"`
	ConfirmPassword string `json:"confirm_password" validate:"required,eqfield=NewPassword"`
}

type Checker struct {
	v validator.Validator
}

func NewChecker(v validator.Validator) *Checker {
	return &Checker{v: v}
}

// Register checks a registration form before it is sent to the auth service.
func (c *Checker) Register(req *RegisterRequest) error {
	return c.check(req)
}

// ChangePassword checks a change-password form.
func (c *Checker) ChangePassword(req *ChangePasswordRequest) error {
	return c.check(req)
}

func (c *Checker) check(req interface{}) error {
	if err := c.v.Validate(req); err != nil {
		return apperrors.BadRequest("invalid form", err)
	}
	return nil
}
