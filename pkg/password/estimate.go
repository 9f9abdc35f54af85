package password

import (
	"unicode/utf8"

	"github.com/nbutton23/zxcvbn-go"
)

// maxEstimateLength caps the input handed to zxcvbn, whose matchers slow
// down sharply on long inputs.
const maxEstimateLength = 50

// Estimate is an advisory guessability estimate. It plays no part in
// Evaluate's score or validity.
type Estimate struct {
	Entropy          float64 `json:"entropy"`
	CrackTimeSeconds float64 `json:"crack_time_seconds"`
	CrackTimeDisplay string  `json:"crack_time_display"`
	Score            int     `json:"score"`
}

// EstimateStrength runs zxcvbn over password. userInputs (user name, email)
// are penalized when they appear in the password.
func EstimateStrength(password string, userInputs ...string) Estimate {
	if password == "" {
		return Estimate{CrackTimeDisplay: "instant"}
	}
	if utf8.RuneCountInString(password) > maxEstimateLength {
		password = string([]rune(password)[:maxEstimateLength])
	}
	m := zxcvbn.PasswordStrength(password, userInputs)
	return Estimate{
		Entropy:          m.Entropy,
		CrackTimeSeconds: m.CrackTime,
		CrackTimeDisplay: m.CrackTimeDisplay,
		Score:            m.Score,
	}
}
