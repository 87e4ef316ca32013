package providers

import "strings"

// ProviderRef is one entry of a provider list such as
// "gemini|openai:research". The optional alias after the colon selects a
// named API key from the environment.
type ProviderRef struct {
	Raw      string
	Name     string
	KeyAlias string
}

// ParseProviderList splits a pipe-separated provider list. An empty list
// stays empty: "no provider configured" is a meaningful state that makes
// retrieval and theme extraction fall back or short-circuit.
func ParseProviderList(raw string) []ProviderRef {
	parts := strings.Split(raw, "|")
	out := make([]ProviderRef, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		ref := ProviderRef{Raw: p}
		if strings.Contains(p, ":") {
			x := strings.SplitN(p, ":", 2)
			ref.Name = strings.TrimSpace(x[0])
			ref.KeyAlias = strings.TrimSpace(x[1])
		} else {
			ref.Name = p
		}
		out = append(out, ref)
	}
	return out
}
