// Package sanitize strips markup from user-generated text before storage.
package sanitize

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// policy allows no markup at all. Post content, comments, bios, and
// campaign text are plain text; rendering is the client's concern.
var policy = bluemonday.StrictPolicy()

// Text removes all HTML from s and trims surrounding whitespace.
func Text(s string) string {
	return strings.TrimSpace(policy.Sanitize(s))
}
