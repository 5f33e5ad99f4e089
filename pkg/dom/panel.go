package dom

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// Selectors of the search panel markup contract.
const (
	filterSelector     = ".ajax-fk-filter input, .ajax-fk-filter select, .ajax-fk-filter textarea"
	searchInputID      = "ajax-fk-search"
	searchButtonClass  = "ajax-fk-search"
	paginationSelector = ".pagination a"
	rowSelector        = "table.ajax-fk-results tbody tr"
	closeSelector      = ".ajax-fk-close"

	rowPKSelector      = "input#ajax-fk-result-pk"
	rowDisplaySelector = "input#ajax-fk-result-display"
	rowURLSelector     = "input#ajax-fk-result-url"
)

// Panel is the inline search panel attached to a lookup field.
type Panel struct {
	visible bool
	page    int
	content *Fragment
}

// Visible reports whether the panel is shown.
func (p *Panel) Visible() bool { return p.visible }

// Show makes the panel visible.
func (p *Panel) Show() { p.visible = true }

// Hide hides the panel. Its content is kept.
func (p *Panel) Hide() { p.visible = false }

// Page returns the page number of the last requested content.
func (p *Panel) Page() int { return p.page }

// SetPage records the last requested page.
func (p *Panel) SetPage(page int) { p.page = page }

// Content returns the installed content, or nil before the first load.
func (p *Panel) Content() *Fragment { return p.content }

// SetContent replaces the panel content.
func (p *Panel) SetContent(fragment *Fragment) { p.content = fragment }

// Filter is a named input inside the panel filter block.
type Filter struct {
	Name  string
	Value string
}

// ResultRow is the data carried by the hidden inputs of one result row.
type ResultRow struct {
	PK      string
	Display string
	URL     string
	Cells   []string
}

// Fragment is a parsed HTML fragment installed into a panel.
type Fragment struct {
	doc *goquery.Document
}

// ParseFragment sanitizes raw and parses it.
func ParseFragment(raw string) (*Fragment, error) {
	return parseFragment(SanitizePanel(raw))
}

// ParseTrustedFragment parses raw without sanitizing it.
func ParseTrustedFragment(raw string) (*Fragment, error) {
	return parseFragment(raw)
}

func parseFragment(raw string) (*Fragment, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("dom: parse fragment: %w", err)
	}
	return &Fragment{doc: doc}, nil
}

// HTML renders the fragment body.
func (f *Fragment) HTML() string {
	if f == nil {
		return ""
	}
	out, err := f.doc.Find("body").Html()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(out)
}

// Text returns the visible text of the fragment.
func (f *Fragment) Text() string {
	if f == nil {
		return ""
	}
	return strings.TrimSpace(f.doc.Find("body").Text())
}

// Filters returns the named inputs of the filter block in document order.
// Unnamed inputs and buttons are skipped.
func (f *Fragment) Filters() []Filter {
	if f == nil {
		return nil
	}
	var out []Filter
	f.doc.Find(filterSelector).Each(func(_ int, sel *goquery.Selection) {
		name := strings.TrimSpace(sel.AttrOr("name", ""))
		if name == "" || isButton(sel) {
			return
		}
		out = append(out, Filter{Name: name, Value: controlValue(sel)})
	})
	return out
}

// SetFilter changes the value of the named filter input. It reports whether
// the input exists.
func (f *Fragment) SetFilter(name, value string) bool {
	if f == nil {
		return false
	}
	found := false
	f.doc.Find(filterSelector).EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		if sel.AttrOr("name", "") != name || isButton(sel) {
			return true
		}
		setControlValue(sel, value)
		found = true
		return false
	})
	return found
}

// HasSearchInput reports whether the fragment carries the search input.
func (f *Fragment) HasSearchInput() bool {
	return f != nil && f.doc.Find("#"+searchInputID).Length() > 0
}

// HasSearchButton reports whether the fragment carries a search control.
func (f *Fragment) HasSearchButton() bool {
	return f != nil && f.doc.Find("."+searchButtonClass).Length() > 0
}

// HasCloseControl reports whether the fragment carries a close control.
func (f *Fragment) HasCloseControl() bool {
	return f != nil && f.doc.Find(closeSelector).Length() > 0
}

// PaginationLinks returns the hrefs of pagination links.
func (f *Fragment) PaginationLinks() []string {
	if f == nil {
		return nil
	}
	var out []string
	f.doc.Find(paginationSelector).Each(func(_ int, sel *goquery.Selection) {
		if href, ok := sel.Attr("href"); ok {
			out = append(out, href)
		}
	})
	return out
}

// Rows returns the result rows.
func (f *Fragment) Rows() []ResultRow {
	if f == nil {
		return nil
	}
	var out []ResultRow
	f.doc.Find(rowSelector).Each(func(_ int, sel *goquery.Selection) {
		row := ResultRow{
			PK:      sel.Find(rowPKSelector).AttrOr("value", ""),
			Display: sel.Find(rowDisplaySelector).AttrOr("value", ""),
			URL:     sel.Find(rowURLSelector).AttrOr("value", ""),
		}
		sel.Find("td").Each(func(_ int, cell *goquery.Selection) {
			row.Cells = append(row.Cells, strings.TrimSpace(cell.Text()))
		})
		out = append(out, row)
	})
	return out
}

var pageTokenPattern = regexp.MustCompile(`[^w]page=(\d+)`)

// PageFromHref extracts the page number from a pagination link target.
func PageFromHref(href string) (int, bool) {
	match := pageTokenPattern.FindStringSubmatch(href)
	if len(match) < 2 {
		return 0, false
	}
	page, err := strconv.Atoi(match[1])
	if err != nil {
		return 0, false
	}
	return page, true
}

func isButton(sel *goquery.Selection) bool {
	if goquery.NodeName(sel) == "button" {
		return true
	}
	switch strings.ToLower(sel.AttrOr("type", "")) {
	case "button", "submit", "reset", "image":
		return true
	}
	return false
}

func controlValue(sel *goquery.Selection) string {
	switch goquery.NodeName(sel) {
	case "select":
		opt := sel.Find("option[selected]").First()
		if opt.Length() == 0 {
			opt = sel.Find("option").First()
		}
		if v, ok := opt.Attr("value"); ok {
			return v
		}
		return strings.TrimSpace(opt.Text())
	case "textarea":
		return sel.Text()
	default:
		return sel.AttrOr("value", "")
	}
}

func setControlValue(sel *goquery.Selection, value string) {
	switch goquery.NodeName(sel) {
	case "select":
		sel.Find("option").Each(func(_ int, opt *goquery.Selection) {
			v, ok := opt.Attr("value")
			if !ok {
				v = strings.TrimSpace(opt.Text())
			}
			if v == value {
				opt.SetAttr("selected", "selected")
			} else {
				opt.RemoveAttr("selected")
			}
		})
	case "textarea":
		node := sel.Get(0)
		for child := node.FirstChild; child != nil; {
			next := child.NextSibling
			node.RemoveChild(child)
			child = next
		}
		node.AppendChild(&html.Node{Type: html.TextNode, Data: value})
	default:
		sel.SetAttr("value", value)
	}
}
