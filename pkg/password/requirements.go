package password

// Requirement is the pass/fail state of one rule for a given password.
type Requirement struct {
	Name    string `json:"name"`
	Message string `json:"message"`
	Met     bool   `json:"met"`
}

// Requirements reports every rule in order with whether password meets it.
func (p *Policy) Requirements(password string) []Requirement {
	out := make([]Requirement, 0, len(p.rules))
	for _, r := range p.rules {
		out = append(out, Requirement{
			Name:    r.Name,
			Message: r.Message,
			Met:     r.Check(password),
		})
	}
	return out
}

func Requirements(password string) []Requirement {
	return defaultPolicy.Requirements(password)
}
