package fklookup

import (
	"context"
	"fmt"
	"io/fs"

	"github.com/goliatone/go-fklookup/pkg/dom"
	"github.com/goliatone/go-fklookup/pkg/registry"
)

// LoadRegistry builds a store from the JSON and YAML widget configs found in
// fsys.
func LoadRegistry(fsys fs.FS, opts ...registry.Option) (*registry.Store, error) {
	configs, err := registry.LoadFS(fsys)
	if err != nil {
		return nil, err
	}
	return registry.New(configs, opts...)
}

// LoadOpenAPIRegistry builds a store from the x-fk-widget extensions of an
// OpenAPI document.
func LoadOpenAPIRegistry(ctx context.Context, data []byte, opts ...registry.Option) (*registry.Store, error) {
	configs, err := registry.FromOpenAPI(ctx, data)
	if err != nil {
		return nil, err
	}
	return registry.New(configs, opts...)
}

// ParseForm reads rendered form markup into a document and the store of the
// lookup fields it embeds.
func ParseForm(markup string, opts ...registry.Option) (*dom.Document, *registry.Store, error) {
	doc, err := dom.ParsePage(markup)
	if err != nil {
		return nil, nil, err
	}
	configs, err := registry.FromMarkup(markup)
	if err != nil {
		return nil, nil, err
	}
	store, err := registry.New(configs, opts...)
	if err != nil {
		return nil, nil, fmt.Errorf("fklookup: build registry: %w", err)
	}
	return doc, store, nil
}
