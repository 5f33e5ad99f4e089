package dom

import "testing"

func TestFieldValueAndOptions(t *testing.T) {
	doc := NewDocument()
	plain := doc.MustAddField(FieldSpec{Name: "customer", Value: "12", Lookup: true})
	if plain.ID != "id_customer" {
		t.Fatalf("expected default id, got %q", plain.ID)
	}
	if plain.Display == nil || plain.Panel == nil {
		t.Fatalf("expected lookup field to have display and panel")
	}

	choice := doc.MustAddField(FieldSpec{Name: "city", Options: []Option{{Value: "", Label: "---", Selected: true}, {Value: "1", Label: "Lisbon"}}})
	if choice.Value() != "" {
		t.Fatalf("expected empty selection, got %q", choice.Value())
	}
	choice.AddOption("2", "Porto", true)
	if choice.Value() != "2" {
		t.Fatalf("expected new option to be selected, got %q", choice.Value())
	}
	choice.SetValue("1")
	if choice.Value() != "1" || !choice.HasOption("2") {
		t.Fatalf("unexpected choice state %+v", choice.Options())
	}

	if _, err := doc.AddField(FieldSpec{Name: "customer"}); err == nil {
		t.Fatalf("expected duplicate field error")
	}
	if f, ok := doc.ElementByID("id_city"); !ok || f != choice {
		t.Fatalf("expected element lookup by id")
	}

	doc.Focus(FieldFocus("customer"))
	doc.Remove("customer")
	if _, ok := doc.Field("customer"); ok {
		t.Fatalf("expected field to be removed")
	}
	if doc.Focused() != "" {
		t.Fatalf("expected focus to be cleared with the field")
	}
}

func TestWindowsAreTracked(t *testing.T) {
	doc := NewDocument()
	closed := 0
	doc.SetOpener(WindowOpenerFunc(func(url, name, features string) (*Window, error) {
		win := NewWindow(url, name, features)
		win.OnClose(func() { closed++ })
		return win, nil
	}))
	win, err := doc.Open("/add/?_popup=1", "token", "height=500")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	win.Focus()
	win.Close()
	win.Close()
	if !win.Closed() || closed != 1 {
		t.Fatalf("expected window to close exactly once, closed=%d", closed)
	}
	if len(doc.Windows()) != 1 {
		t.Fatalf("expected one tracked window")
	}
}

func TestParsePage(t *testing.T) {
	markup := `<form>
<div class="fk">
  <input type="text" name="customer" id="id_customer" class="vTextField ajax-fk" value="000012">
  <a id="id_customer_display" class="ajax-fk-display" href="/customers/12/">Acme Ltd</a>
  <a class="ajax-fk-add" href="#">add</a>
</div>
<div class="fk">
  <input type="hidden" name="supplier" id="id_supplier" class="ajax-fk" value="">
  <a id="id_supplier_display" class="ajax-fk-display">(none selected)</a>
</div>
<select name="city" id="id_city"><option value="">---</option><option value="1" selected>Lisbon</option></select>
<input type="text" name="tags" id="id_tags" class="vManyToManyRawIdAdminField" value="1,2">
<input type="submit" name="save" value="Save">
</form>`

	doc, err := ParsePage(markup)
	if err != nil {
		t.Fatalf("parse page: %v", err)
	}

	customer, ok := doc.Field("customer")
	if !ok {
		t.Fatalf("expected customer field")
	}
	if customer.Value() != "000012" || customer.Display.Text != "Acme Ltd" || customer.Display.Href != "/customers/12/" || !customer.HasAdd {
		t.Fatalf("unexpected customer field %+v display=%+v", customer, customer.Display)
	}

	supplier, _ := doc.Field("supplier")
	if !supplier.Hidden || supplier.HasAdd || supplier.Display.Text != "" {
		t.Fatalf("unexpected supplier field %+v", supplier)
	}

	city, _ := doc.Field("city")
	if !city.IsChoice() || city.Value() != "1" {
		t.Fatalf("unexpected city field %+v", city.Options())
	}

	tags, _ := doc.Field("tags")
	if !tags.HasClass(MultiRawClass) || tags.Value() != "1,2" {
		t.Fatalf("unexpected tags field %+v", tags)
	}

	if _, ok := doc.Field("save"); ok {
		t.Fatalf("submit buttons should not become fields")
	}
}
