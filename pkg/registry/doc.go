// Package registry holds the per-field configuration of lookup widgets.
//
// A Store is built once (usually when a page is loaded) and never mutated
// afterwards. Components keep a reference to the store and call Lookup on every
// operation instead of caching entries, so every optional attribute must be
// treated as possibly absent.
//
// Configurations can be declared in Go, loaded from JSON/YAML files (LoadFS),
// derived from OpenAPI x-fk-widget extensions (FromOpenAPI) or read back from
// rendered widget markup (FromMarkup).
package registry
