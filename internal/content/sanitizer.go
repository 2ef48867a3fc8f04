package content

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// Sanitizer cleans user-supplied markup before it is persisted. The core
// treats it as an external collaborator; implementations must be safe for
// concurrent use.
type Sanitizer interface {
	// SanitizeHTML keeps a safe subset of markup (blog bodies).
	SanitizeHTML(input string) string
	// SanitizeText strips all markup (comments).
	SanitizeText(input string) string
}

type bluemondaySanitizer struct {
	html  *bluemonday.Policy
	plain *bluemonday.Policy
}

// NewSanitizer returns the bluemonday-backed Sanitizer used in production.
func NewSanitizer() Sanitizer {
	return &bluemondaySanitizer{
		html:  bluemonday.UGCPolicy(),
		plain: bluemonday.StrictPolicy(),
	}
}

func (s *bluemondaySanitizer) SanitizeHTML(input string) string {
	return s.html.Sanitize(input)
}

func (s *bluemondaySanitizer) SanitizeText(input string) string {
	return strings.TrimSpace(s.plain.Sanitize(input))
}
