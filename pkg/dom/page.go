package dom

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// LookupClass marks identifier inputs managed by the lookup widget.
const LookupClass = "ajax-fk"

// MultiRawClass marks comma separated raw identifier inputs.
const MultiRawClass = "vManyToManyRawIdAdminField"

// ParsePage builds a Document from rendered form markup. Every named input,
// select and textarea becomes a field; lookup inputs also get their display
// link (#<id>_display) and a search panel. The add affordance is detected from
// an .ajax-fk-add element sharing the input's parent.
func ParsePage(markup string) (*Document, error) {
	root, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return nil, fmt.Errorf("dom: parse page: %w", err)
	}

	doc := NewDocument()
	var firstErr error
	root.Find("input[name], select[name], textarea[name]").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		if isButton(sel) {
			return true
		}
		spec := FieldSpec{
			Name:    sel.AttrOr("name", ""),
			ID:      sel.AttrOr("id", ""),
			Classes: strings.Fields(sel.AttrOr("class", "")),
			Hidden:  strings.EqualFold(sel.AttrOr("type", ""), "hidden"),
		}
		switch goquery.NodeName(sel) {
		case "select":
			sel.Find("option").Each(func(_ int, opt *goquery.Selection) {
				value, ok := opt.Attr("value")
				if !ok {
					value = strings.TrimSpace(opt.Text())
				}
				_, selected := opt.Attr("selected")
				spec.Options = append(spec.Options, Option{Value: value, Label: strings.TrimSpace(opt.Text()), Selected: selected})
			})
		case "textarea":
			spec.Value = sel.Text()
		default:
			spec.Value = sel.AttrOr("value", "")
		}

		if sel.HasClass(LookupClass) {
			spec.Lookup = true
			if spec.ID != "" {
				display := root.Find("#" + spec.ID + "_display")
				spec.Display = Display{
					Text: strings.TrimSpace(display.Text()),
					Href: display.AttrOr("href", ""),
				}
				if spec.Display.Text == NoneSelected {
					spec.Display.Text = ""
				}
			}
			spec.HasAdd = sel.Parent().Find(".ajax-fk-add").Length() > 0
		}

		if _, err := doc.AddField(spec); err != nil {
			firstErr = err
			return false
		}
		return true
	})
	if firstErr != nil {
		return nil, firstErr
	}
	return doc, nil
}
