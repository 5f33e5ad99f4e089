package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
)

// ExtensionKey is the OpenAPI schema extension describing a lookup widget.
const ExtensionKey = "x-fk-widget"

// FromOpenAPI reads x-fk-widget extensions from the properties of every
// component schema in an OpenAPI document. The property name becomes the field
// name unless the extension sets "field" explicitly.
func FromOpenAPI(ctx context.Context, data []byte) ([]WidgetConfig, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	loader := &openapi3.Loader{Context: ctx}
	spec, err := loader.LoadFromData(data)
	if err != nil {
		return nil, fmt.Errorf("registry: load openapi document: %w", err)
	}
	if spec.Components == nil || len(spec.Components.Schemas) == 0 {
		return nil, nil
	}

	schemaNames := make([]string, 0, len(spec.Components.Schemas))
	for name := range spec.Components.Schemas {
		schemaNames = append(schemaNames, name)
	}
	sort.Strings(schemaNames)

	seen := make(map[string]string)
	var out []WidgetConfig
	for _, schemaName := range schemaNames {
		ref := spec.Components.Schemas[schemaName]
		if ref == nil || ref.Value == nil {
			continue
		}
		propNames := make([]string, 0, len(ref.Value.Properties))
		for name := range ref.Value.Properties {
			propNames = append(propNames, name)
		}
		sort.Strings(propNames)

		for _, propName := range propNames {
			prop := ref.Value.Properties[propName]
			if prop == nil || prop.Value == nil {
				continue
			}
			raw, ok := prop.Value.Extensions[ExtensionKey]
			if !ok || raw == nil {
				continue
			}
			cfg, err := decodeExtension(raw)
			if err != nil {
				return nil, fmt.Errorf("registry: %s.%s: %w", schemaName, propName, err)
			}
			if strings.TrimSpace(cfg.Field) == "" {
				cfg.Field = propName
			}
			if cfg.Model == "" {
				cfg.Model = schemaName
			}
			if prev, exists := seen[cfg.Field]; exists {
				return nil, fmt.Errorf("%w %q (schemas %s and %s)", ErrDuplicateField, cfg.Field, prev, schemaName)
			}
			seen[cfg.Field] = schemaName
			out = append(out, cfg)
		}
	}
	return out, nil
}

func decodeExtension(raw any) (WidgetConfig, error) {
	var payload []byte
	switch v := raw.(type) {
	case json.RawMessage:
		payload = v
	case []byte:
		payload = v
	default:
		encoded, err := json.Marshal(v)
		if err != nil {
			return WidgetConfig{}, fmt.Errorf("encode %s: %w", ExtensionKey, err)
		}
		payload = encoded
	}
	var cfg WidgetConfig
	if err := json.Unmarshal(payload, &cfg); err != nil {
		return WidgetConfig{}, fmt.Errorf("decode %s: %w", ExtensionKey, err)
	}
	return cfg, nil
}
