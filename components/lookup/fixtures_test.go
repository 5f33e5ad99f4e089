package lookup

import (
	"fmt"
	"strings"
)

func customerRecords() []Record {
	people := []struct {
		name, city string
	}{
		{"Acme Ltd", "london"},
		{"Bolt Inc", "new york"},
		{"Acme Holdings", "paris"},
		{"Cargo Co", "london"},
		{"Delta Group", "new york"},
	}
	out := make([]Record, 0, len(people))
	for i, p := range people {
		pk := fmt.Sprintf("%05d", i+1)
		out = append(out, Record{
			PK:      pk,
			Display: p.name,
			URL:     "/customers/" + pk + "/",
			Fields:  map[string]string{"name": p.name, "city": p.city},
		})
	}
	return out
}

func customerDriver() *Driver {
	return &Driver{
		Name:        "customer",
		VerboseName: "customer",
		Source: NewSliceSource(customerRecords(),
			WithKeyWidth(5),
			WithLabel(func(values map[string]string) string { return strings.TrimSpace(values["name"]) }),
			WithRecordURL(func(pk string) string { return "/customers/" + pk + "/" }),
		),
		SearchFields: []string{"name", "^city"},
		ListDisplay:  []Column{{Field: "name", Label: "Name"}, {Field: "city", Label: "City"}},
		Filters:      []string{"city"},
		Ordering:     []string{"name"},
		PerPage:      2,
		AddFields:    []string{"name", "city"},
	}
}
