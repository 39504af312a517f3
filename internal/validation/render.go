package validation

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/russross/blackfriday"
)

// ugc is built once; a configured policy is safe for concurrent use
var ugc = bluemonday.UGCPolicy()

// RenderHTML renders stored text as markdown for display and strips anything
// unsafe from the result. The stored text itself is never modified.
func RenderHTML(text string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return ""
	}
	unsafe := blackfriday.MarkdownCommon([]byte(text))
	return string(ugc.SanitizeBytes(unsafe))
}
