package dom

import (
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

var (
	panelPolicyOnce sync.Once
	panelPolicy     *bluemonday.Policy
)

// SanitizePanel strips everything from a search panel fragment that the panel
// markup contract does not use: scripts, event handler attributes, styles and
// unknown URL schemes.
func SanitizePanel(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}
	return strings.TrimSpace(panelSanitizer().Sanitize(trimmed))
}

func panelSanitizer() *bluemonday.Policy {
	panelPolicyOnce.Do(func() {
		policy := bluemonday.NewPolicy()
		policy.AllowStandardURLs()
		policy.AllowDataAttributes()

		policy.AllowElements(
			"div", "span", "p", "h1", "h2", "h3", "h4", "strong", "em", "small",
			"ul", "ol", "li", "label", "fieldset", "legend", "form",
			"table", "thead", "tbody", "tfoot", "tr", "th", "td", "caption",
			"input", "select", "option", "textarea", "button", "img",
		)
		policy.AllowAttrs("id", "class", "title", "role", "aria-label", "aria-hidden").Globally()
		policy.AllowAttrs("href").OnElements("a")
		policy.AllowAttrs("src", "alt", "width", "height").OnElements("img")
		policy.AllowAttrs("type", "name", "value", "placeholder", "size", "maxlength", "checked", "disabled").OnElements("input")
		policy.AllowAttrs("name", "multiple", "disabled").OnElements("select")
		policy.AllowAttrs("value", "selected").OnElements("option")
		policy.AllowAttrs("name", "rows", "cols").OnElements("textarea")
		policy.AllowAttrs("type", "name", "value").OnElements("button")
		policy.AllowAttrs("for").OnElements("label")
		policy.AllowAttrs("colspan", "rowspan").OnElements("td", "th")
		policy.AllowAttrs("action", "method").OnElements("form")

		panelPolicy = policy
	})
	return panelPolicy
}
