// Package llmjson decodes JSON arrays out of free-form text-generation
// output. Upstream responses may be valid JSON, JSON wrapped in markdown
// code fencing, an object wrapping the array under a key, prose with a JSON
// array embedded somewhere inside, or garbage. The decoder is an ordered
// fallback chain: strip fence, parse strict, unwrap known keys, salvage by
// pattern, give up empty. Each step is pure and testable on its own.
package llmjson

import (
	"encoding/json"
	"errors"
	"regexp"
	"strings"
)

// ErrNoArray reports that no step of the chain produced a decodable array.
var ErrNoArray = errors.New("no json array found in response")

var arrayPattern = regexp.MustCompile(`(?s)\[.*\]`)

// StripCodeFence removes a surrounding markdown code fence, tolerating a
// language tag after the opening backticks.
func StripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimSuffix(s, "```")
	}
	return strings.TrimSpace(s)
}

// SalvageArray extracts the outermost bracketed region of s, which is often
// enough to recover an array embedded in prose or trailing commentary.
func SalvageArray(s string) (string, bool) {
	loc := arrayPattern.FindString(s)
	if loc == "" {
		return "", false
	}
	return loc, true
}

// DecodeArray runs the fallback chain and returns the first successfully
// decoded []T. wrapperKeys names object keys the array may hide under
// (upstream models variously return a bare list, {"matches": [...]}, or
// {"results": [...]}).
func DecodeArray[T any](raw string, wrapperKeys ...string) ([]T, error) {
	raw = StripCodeFence(raw)
	if raw == "" {
		return nil, ErrNoArray
	}

	var direct []T
	if err := json.Unmarshal([]byte(raw), &direct); err == nil {
		return direct, nil
	}

	var wrapped map[string]json.RawMessage
	if err := json.Unmarshal([]byte(raw), &wrapped); err == nil {
		for _, key := range wrapperKeys {
			inner, ok := wrapped[key]
			if !ok {
				continue
			}
			var out []T
			if err := json.Unmarshal(inner, &out); err == nil {
				return out, nil
			}
		}
	}

	if candidate, ok := SalvageArray(raw); ok {
		var out []T
		if err := json.Unmarshal([]byte(candidate), &out); err == nil {
			return out, nil
		}
	}
	return nil, ErrNoArray
}
