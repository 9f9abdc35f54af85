package password

import "strings"

// commonPasswords is the built-in denylist. Entries are lowercase.
var commonPasswords = []string{
	"password",
	"123456",
	"123456789",
	"qwerty",
	"abc123",
	"password123",
	"admin",
	"letmein",
	"welcome",
	"monkey",
	"1234567890",
	"dragon",
	"master",
	"hello",
	"freedom",
	"whatever",
	"qazwsx",
	"trustno1",
}

// CommonPasswords returns a copy of the built-in denylist.
func CommonPasswords() []string {
	out := make([]string, len(commonPasswords))
	copy(out, commonPasswords)
	return out
}

func buildDenylist(extra []string) map[string]struct{} {
	set := make(map[string]struct{}, len(commonPasswords)+len(extra))
	for _, pw := range commonPasswords {
		set[pw] = struct{}{}
	}
	for _, pw := range extra {
		pw = strings.ToLower(strings.TrimSpace(pw))
		if pw == "" {
			continue
		}
		set[pw] = struct{}{}
	}
	return set
}
