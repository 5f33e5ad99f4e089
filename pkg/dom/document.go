package dom

import (
	"fmt"
	"sort"
	"strings"
)

// NoneSelected is the display text of a field without a selection.
const NoneSelected = "(none selected)"

// Option is an entry of a select-like field.
type Option struct {
	Value    string
	Label    string
	Selected bool
}

// Display is the link showing the human readable label of a field.
type Display struct {
	Text string
	Href string
}

// Clear empties the label and link.
func (d *Display) Clear() {
	d.Text = ""
	d.Href = ""
}

// Field is one form control together with the elements the lookup widget
// attaches to it.
type Field struct {
	Name    string
	ID      string
	Classes []string
	Hidden  bool

	value   string
	options []Option

	Display *Display
	Panel   *Panel
	HasAdd  bool
}

// Value returns the current value. For select-like fields it is the value of
// the selected option.
func (f *Field) Value() string {
	if len(f.options) > 0 {
		for _, opt := range f.options {
			if opt.Selected {
				return opt.Value
			}
		}
		return ""
	}
	return f.value
}

// SetValue replaces the field value. For select-like fields the matching
// option becomes selected.
func (f *Field) SetValue(value string) {
	if len(f.options) > 0 {
		for i := range f.options {
			f.options[i].Selected = f.options[i].Value == value
		}
		return
	}
	f.value = value
}

// IsChoice reports whether the field holds options.
func (f *Field) IsChoice() bool {
	return len(f.options) > 0
}

// Options returns a copy of the field options.
func (f *Field) Options() []Option {
	return append([]Option(nil), f.options...)
}

// AddOption appends an option. When selected is true every other option is
// deselected.
func (f *Field) AddOption(value, label string, selected bool) {
	if selected {
		for i := range f.options {
			f.options[i].Selected = false
		}
	}
	f.options = append(f.options, Option{Value: value, Label: label, Selected: selected})
}

// HasOption reports whether an option with value exists.
func (f *Field) HasOption(value string) bool {
	for _, opt := range f.options {
		if opt.Value == value {
			return true
		}
	}
	return false
}

// HasClass reports whether the field carries class.
func (f *Field) HasClass(class string) bool {
	for _, c := range f.Classes {
		if c == class {
			return true
		}
	}
	return false
}

// Document holds the fields of one page plus its window-level state.
type Document struct {
	fields  map[string]*Field
	byID    map[string]*Field
	focus   string
	alerts  []string
	windows []*Window
	opener  WindowOpener
}

// NewDocument returns an empty document.
func NewDocument() *Document {
	return &Document{
		fields: make(map[string]*Field),
		byID:   make(map[string]*Field),
	}
}

// FieldSpec describes a field to add to a document.
type FieldSpec struct {
	Name    string
	ID      string
	Value   string
	Classes []string
	Hidden  bool
	Options []Option
	// Lookup attaches a display link and a search panel.
	Lookup  bool
	Display Display
	HasAdd  bool
}

// AddField registers a field. The id defaults to "id_<name>".
func (d *Document) AddField(spec FieldSpec) (*Field, error) {
	name := strings.TrimSpace(spec.Name)
	if name == "" {
		return nil, fmt.Errorf("dom: field name is required")
	}
	if _, exists := d.fields[name]; exists {
		return nil, fmt.Errorf("dom: duplicate field %q", name)
	}
	id := strings.TrimSpace(spec.ID)
	if id == "" {
		id = "id_" + name
	}
	if _, exists := d.byID[id]; exists {
		return nil, fmt.Errorf("dom: duplicate element id %q", id)
	}

	field := &Field{
		Name:    name,
		ID:      id,
		Classes: append([]string(nil), spec.Classes...),
		Hidden:  spec.Hidden,
		value:   spec.Value,
		options: append([]Option(nil), spec.Options...),
		HasAdd:  spec.HasAdd,
	}
	if spec.Lookup {
		display := spec.Display
		field.Display = &display
		field.Panel = &Panel{}
	}
	d.fields[name] = field
	d.byID[id] = field
	return field, nil
}

// MustAddField is AddField for fixtures; it panics on error.
func (d *Document) MustAddField(spec FieldSpec) *Field {
	field, err := d.AddField(spec)
	if err != nil {
		panic(err)
	}
	return field
}

// Field returns the field named name.
func (d *Document) Field(name string) (*Field, bool) {
	if d == nil {
		return nil, false
	}
	f, ok := d.fields[name]
	return f, ok
}

// ElementByID returns the field whose element id is id.
func (d *Document) ElementByID(id string) (*Field, bool) {
	if d == nil {
		return nil, false
	}
	f, ok := d.byID[id]
	return f, ok
}

// Fields returns the field names in lexical order.
func (d *Document) Fields() []string {
	out := make([]string, 0, len(d.fields))
	for name := range d.fields {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Remove drops a field, which ends the widget state attached to it.
func (d *Document) Remove(name string) {
	field, ok := d.fields[name]
	if !ok {
		return
	}
	delete(d.fields, name)
	delete(d.byID, field.ID)
	if d.focus == FieldFocus(name) || d.focus == SearchFocus(name) {
		d.focus = ""
	}
}

// FieldFocus is the focus key of an identifier input.
func FieldFocus(name string) string { return "field:" + name }

// SearchFocus is the focus key of the search input inside a field's panel.
func SearchFocus(name string) string { return "search:" + name }

// Focus moves focus to key.
func (d *Document) Focus(key string) {
	d.focus = key
}

// Focused returns the focus key.
func (d *Document) Focused() string {
	return d.focus
}

// Alert records a blocking alert.
func (d *Document) Alert(message string) {
	d.alerts = append(d.alerts, message)
}

// Alerts returns the alerts raised so far.
func (d *Document) Alerts() []string {
	return append([]string(nil), d.alerts...)
}
