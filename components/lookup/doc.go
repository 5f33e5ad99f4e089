// Package lookup serves the endpoints a foreign-key lookup widget talks to:
// record resolution (JSON), the search panel (HTML fragment) and record
// creation for add windows. It also renders the widget markup for a form.
//
// Each registered Driver exposes one model under
// <base><route>/<driver>/{resolve,search,add}. Drivers read records from a
// Source; SliceSource keeps them in memory and GormSource reads a gorm model.
package lookup
