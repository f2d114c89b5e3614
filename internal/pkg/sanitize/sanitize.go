// Package sanitize strips markup from user text before it is stored.
package sanitize

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

type Sanitizer struct {
	policy *bluemonday.Policy
}

func New() *Sanitizer {
	return &Sanitizer{policy: bluemonday.StrictPolicy()}
}

// Text removes every tag and trims whitespace. Entities produced by the policy
// are decoded again so plain text like "C&C" survives unchanged.
func (s *Sanitizer) Text(in string) string {
	return strings.TrimSpace(html.UnescapeString(s.policy.Sanitize(in)))
}

func (s *Sanitizer) TextPtr(in *string) *string {
	if in == nil {
		return nil
	}
	out := s.Text(*in)
	return &out
}

func (s *Sanitizer) Texts(in []string) []string {
	out := make([]string, 0, len(in))
	for _, v := range in {
		out = append(out, s.Text(v))
	}
	return out
}
