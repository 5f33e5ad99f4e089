package protocol

import (
	"net/url"
	"strings"
)

// Query parameter names shared by the widget runtime and the endpoints.
const (
	ParamPK     = "pk"
	ParamPage   = "page"
	ParamPopup  = "_popup"
	ParamSearch = "ajax_fk_search"

	// FilterPrefix marks search parameters that filter results by equality.
	FilterPrefix = "ajax-fk-filter-"
)

// Separator returns the character that starts the next query parameter for
// rawURL: "?" when the URL has no query yet, "&" otherwise. A URL that already
// ends with "?" or "&" needs no separator.
func Separator(rawURL string) string {
	switch {
	case strings.HasSuffix(rawURL, "?"), strings.HasSuffix(rawURL, "&"):
		return ""
	case strings.Contains(rawURL, "?"):
		return "&"
	default:
		return "?"
	}
}

// AppendParam appends key=value to rawURL without further escaping.
func AppendParam(rawURL, key, value string) string {
	return rawURL + Separator(rawURL) + key + "=" + value
}

// ResolveURL builds the resolve request for an already padded identifier.
func ResolveURL(base, pk string) string {
	return AppendParam(base, ParamPK, EscapeValue(pk))
}

// PopupURL marks an add URL as opened in a popup window.
func PopupURL(addURL string) string {
	if strings.Contains(addURL, "?") {
		return addURL + "&" + ParamPopup + "=1"
	}
	return addURL + "?" + ParamPopup + "=1"
}

// EscapeValue query-escapes a parameter value. Spaces become %20 rather than
// "+" so endpoints see the same encoding browsers send for typed filters.
func EscapeValue(value string) string {
	return strings.ReplaceAll(url.QueryEscape(value), "+", "%20")
}
