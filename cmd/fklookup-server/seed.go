package main

import (
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/goliatone/go-fklookup/components/lookup"
)

// Customer is the record type served by the customer driver.
type Customer struct {
	ID   uint   `gorm:"primaryKey"`
	Name string `gorm:"not null"`
	City string `gorm:"index"`
}

var seedCustomers = []Customer{
	{Name: "Acme Ltd", City: "london"},
	{Name: "Bolt Inc", City: "new york"},
	{Name: "Acme Holdings", City: "paris"},
	{Name: "Cargo Co", City: "london"},
	{Name: "Delta Group", City: "new york"},
	{Name: "Echo Partners", City: "rome"},
	{Name: "Foxtrot Logistics", City: "paris"},
	{Name: "Gamma Supplies", City: "berlin"},
	{Name: "Harbor Freight", City: "london"},
	{Name: "Indigo Textiles", City: "rome"},
	{Name: "Juniper Foods", City: "berlin"},
	{Name: "Kilo Metals", City: "new york"},
}

var countries = [][2]string{
	{"de", "Germany"},
	{"fr", "France"},
	{"gb", "United Kingdom"},
	{"it", "Italy"},
	{"us", "United States"},
}

func migrate(db *gorm.DB, seed bool) error {
	if err := db.AutoMigrate(&Customer{}); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	if !seed {
		return nil
	}
	var count int64
	if err := db.Model(&Customer{}).Count(&count).Error; err != nil {
		return fmt.Errorf("count customers: %w", err)
	}
	if count > 0 {
		return nil
	}
	rows := append([]Customer(nil), seedCustomers...)
	if err := db.Create(&rows).Error; err != nil {
		return fmt.Errorf("seed customers: %w", err)
	}
	return nil
}

func customerKey(id uint) string {
	return fmt.Sprintf("%05d", id)
}

func describeCustomer(basePath string) func(Customer) lookup.Record {
	prefix := strings.TrimRight(basePath, "/")
	return func(c Customer) lookup.Record {
		pk := customerKey(c.ID)
		return lookup.Record{
			PK:      pk,
			Display: c.Name,
			URL:     prefix + "/customers/" + pk + "/",
			Fields:  map[string]string{"name": c.Name, "city": c.City},
		}
	}
}

func buildCustomer(values map[string]string) (Customer, error) {
	name := strings.TrimSpace(values["name"])
	if name == "" {
		return Customer{}, fmt.Errorf("name is required")
	}
	return Customer{Name: name, City: strings.ToLower(strings.TrimSpace(values["city"]))}, nil
}

func countryRecords() []lookup.Record {
	out := make([]lookup.Record, 0, len(countries))
	for _, c := range countries {
		out = append(out, lookup.Record{
			PK:      c[0],
			Display: c[1],
			Fields:  map[string]string{"code": c[0], "name": c[1]},
		})
	}
	return out
}
