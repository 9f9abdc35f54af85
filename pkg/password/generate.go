package password

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
)

const (
	DefaultGenerateLength = 16
	// MinGenerateLength is the smallest output Generate produces; shorter
	// requests are clamped up to it.
	MinGenerateLength = 4

	maxGenerateAttempts = 64
	maxAcceptLength     = 128

	// sampleUnit repeats without runs or weak sequences and covers every
	// character class.
	sampleUnit = "aB3!"

	lowerChars     = "abcdefghijklmnopqrstuvwxyz"
	upperChars     = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	digitChars     = "0123456789"
	generatedChars = "!@#$%^&*()_+-=[]{}|;:,.<>?"
	allChars       = lowerChars + upperChars + digitChars + generatedChars
)

// Generate returns a random password of the requested length containing at
// least one lowercase letter, uppercase letter, digit and symbol. Lengths
// below MinGenerateLength are clamped. When length is at least
// MinValidLength the candidate is redrawn, up to 64 times, until it passes
// Evaluate. Shorter requests are returned after a single draw.
//
// Generate panics only if the random source fails, which crypto/rand does
// not do on supported platforms.
func (p *Policy) Generate(length int) string {
	if length < MinGenerateLength {
		length = MinGenerateLength
	}

	var candidate string
	for attempt := 0; attempt < maxGenerateAttempts; attempt++ {
		candidate = p.draw(length)
		if p.minValid == 0 || length < p.minValid || p.Evaluate(candidate).IsValid {
			break
		}
	}
	return candidate
}

// MinValidLength is the shortest password length the policy's rules can
// accept, 12 for the default rules. It is 0 when no length up to 128 passes.
func (p *Policy) MinValidLength() int {
	return p.minValid
}

func (p *Policy) shortestAcceptedLength() int {
	sample := strings.Repeat(sampleUnit, maxAcceptLength/len(sampleUnit))
	for n := MinGenerateLength; n <= maxAcceptLength; n++ {
		if p.Evaluate(sample[:n]).IsValid {
			return n
		}
	}
	return 0
}

func (p *Policy) draw(length int) string {
	buf := make([]byte, 0, length)
	buf = append(buf,
		p.pick(lowerChars),
		p.pick(upperChars),
		p.pick(digitChars),
		p.pick(generatedChars),
	)
	for len(buf) < length {
		buf = append(buf, p.pick(allChars))
	}

	// Fisher-Yates
	for i := len(buf) - 1; i > 0; i-- {
		j := p.intn(i + 1)
		buf[i], buf[j] = buf[j], buf[i]
	}
	return string(buf)
}

func (p *Policy) pick(charset string) byte {
	return charset[p.intn(len(charset))]
}

// intn returns a uniform int in [0, n).
func (p *Policy) intn(n int) int {
	v, err := rand.Int(p.random, big.NewInt(int64(n)))
	if err != nil {
		panic(fmt.Sprintf("password: random source failed: %v", err))
	}
	return int(v.Int64())
}

// MinValidLength reports the shortest length the default policy accepts.
func MinValidLength() int {
	return defaultPolicy.MinValidLength()
}

// Generate returns a random password from the default policy.
func Generate(length int) string {
	return defaultPolicy.Generate(length)
}
