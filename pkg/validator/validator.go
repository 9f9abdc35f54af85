package validator

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	playground "github.com/go-playground/validator/v10"

	"github.com/jwalitptl/passpolicy/pkg/password"
)

const (
	TagPasswordPolicy = "password_policy"
	TagPasswordScore  = "password_score"
)

// Validator provides validation functionality
type Validator interface {
	Validate(interface{}) error
	ValidateField(field string, value interface{}, rules ...string) error
}

// FieldError represents a single failed field
type FieldError struct {
	Field   string   `json:"field"`
	Message string   `json:"message"`
	Details []string `json:"details,omitempty"`
}

// Errors is returned by Validate when one or more fields fail.
type Errors []FieldError

func (e Errors) Error() string {
	parts := make([]string, 0, len(e))
	for _, fe := range e {
		parts = append(parts, fmt.Sprintf("%s: %s", fe.Field, fe.Message))
	}
	return strings.Join(parts, "; ")
}

// Fields returns the failed field names in order.
func (e Errors) Fields() []string {
	out := make([]string, 0, len(e))
	for _, fe := range e {
		out = append(out, fe.Field)
	}
	return out
}

var defaultMessages = map[string]string{
	"required":        "Field is required",
	"email":           "Invalid email format",
	"min":             "Value is too short",
	"max":             "Value is too long",
	"eqfield":         "Values do not match",
	"nefield":         "Value must differ",
	"oneof":           "Value is not allowed",
	"gte":             "Value is too small",
	"lte":             "Value is too large",
	"alphanum":        "Only letters and digits are allowed",
	TagPasswordPolicy: "Password does not meet policy",
	TagPasswordScore:  "Password is not strong enough",
}

type validator struct {
	v        *playground.Validate
	policy   *password.Policy
	messages map[string]string
}

// New returns a validator with the password tags bound to policy. A nil
// policy uses password.Default().
func New(policy *password.Policy) Validator {
	if policy == nil {
		policy = password.Default()
	}

	v := playground.New(playground.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			if name = strings.SplitN(fld.Tag.Get("mapstructure"), ",", 2)[0]; name != "" {
				return name
			}
			return fld.Name
		}
		return name
	})

	val := &validator{v: v, policy: policy, messages: defaultMessages}

	// Registration only fails on empty tags or nil funcs.
	_ = v.RegisterValidation(TagPasswordPolicy, val.passwordPolicy)
	_ = v.RegisterValidation(TagPasswordScore, val.passwordScore)

	return val
}

func (val *validator) passwordPolicy(fl playground.FieldLevel) bool {
	return val.policy.Evaluate(fl.Field().String()).IsValid
}

// passwordScore requires a normalized score of at least the tag param.
func (val *validator) passwordScore(fl playground.FieldLevel) bool {
	min, err := strconv.Atoi(fl.Param())
	if err != nil {
		return false
	}
	return val.policy.Evaluate(fl.Field().String()).Score >= min
}

func (val *validator) Validate(obj interface{}) error {
	return val.translate(val.v.Struct(obj), "")
}

func (val *validator) ValidateField(field string, value interface{}, rules ...string) error {
	return val.translate(val.v.Var(value, strings.Join(rules, ",")), field)
}

func (val *validator) translate(err error, field string) error {
	if err == nil {
		return nil
	}

	var verrs playground.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	out := make(Errors, 0, len(verrs))
	for _, e := range verrs {
		name := e.Field()
		if field != "" {
			name = field
		}

		fe := FieldError{Field: name, Message: val.messages[e.Tag()]}
		if fe.Message == "" {
			fe.Message = e.Error()
		}

		switch e.Tag() {
		case TagPasswordPolicy, TagPasswordScore:
			if s, ok := e.Value().(string); ok {
				fe.Details = val.policy.Evaluate(s).Errors
			}
		case "eqfield", "nefield":
			fe.Message = fmt.Sprintf("%s (%s)", fe.Message, e.Param())
		}
		out = append(out, fe)
	}
	return out
}
