// Copyright 2026 The Go MCP SDK Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package mcpbind

import (
	"encoding/json"
	"fmt"
	"reflect"
	"sync"

	"github.com/google/jsonschema-go/jsonschema"

	"github.com/modelcontextprotocol/go-bind/internal/fastjson"
)

// cachedSchema pairs a generated schema with its resolved form.
type cachedSchema struct {
	schema   *jsonschema.Schema
	resolved *jsonschema.Resolved
}

// schemaCache caches generated schemas by Go type. Stateless deployments
// rebuild their providers per request, so the same argument types recur.
var schemaCache sync.Map // reflect.Type -> *cachedSchema

// schemaForType infers and resolves the schema for t, caching the result.
func schemaForType(t reflect.Type) (*jsonschema.Schema, *jsonschema.Resolved, error) {
	if v, ok := schemaCache.Load(t); ok {
		cs := v.(*cachedSchema)
		return cs.schema, cs.resolved, nil
	}
	schema, err := jsonschema.ForType(t, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("inferring schema for %s: %w", t, err)
	}
	resolved, err := resolveSchema(schema)
	if err != nil {
		return nil, nil, fmt.Errorf("resolving schema for %s: %w", t, err)
	}
	schemaCache.Store(t, &cachedSchema{schema: schema, resolved: resolved})
	return schema, resolved, nil
}

func resolveSchema(s *jsonschema.Schema) (*jsonschema.Resolved, error) {
	return s.Resolve(&jsonschema.ResolveOptions{ValidateDefaults: true})
}

// falseSchema returns a schema that validates nothing.
func falseSchema() *jsonschema.Schema {
	return &jsonschema.Schema{Not: &jsonschema.Schema{}}
}

// argsSchema builds the input schema for a method whose payload arrives as
// named sub-fields: one property per Arg, typed by the corresponding method
// parameter. Unknown fields are rejected.
func argsSchema(args []Arg, types []reflect.Type) (*jsonschema.Schema, *jsonschema.Resolved, error) {
	s := &jsonschema.Schema{
		Type:                 "object",
		Properties:           make(map[string]*jsonschema.Schema, len(args)),
		AdditionalProperties: falseSchema(),
	}
	for i, a := range args {
		// An argument the method does not bind has no Go type to infer
		// from; it gets the permissive schema.
		ps := &jsonschema.Schema{}
		if types[i] != nil {
			var err error
			if ps, err = jsonschema.ForType(types[i], nil); err != nil {
				return nil, nil, fmt.Errorf("inferring schema for argument %q: %w", a.Name, err)
			}
		}
		if a.Description != "" {
			ps.Description = a.Description
		}
		s.Properties[a.Name] = ps
		if a.Required {
			s.Required = append(s.Required, a.Name)
		}
	}
	resolved, err := resolveSchema(s)
	if err != nil {
		return nil, nil, err
	}
	return s, resolved, nil
}

// applyInput validates raw arguments against the resolved schema after
// filling in schema defaults, and returns the JSON augmented with those
// defaults. A nil schema accepts anything.
func applyInput(data json.RawMessage, resolved *jsonschema.Resolved) (json.RawMessage, error) {
	if resolved == nil {
		return data, nil
	}
	v := make(map[string]any)
	if len(data) > 0 {
		if err := fastjson.Unmarshal(data, &v); err != nil {
			return nil, fmt.Errorf("unmarshaling arguments: %w", err)
		}
	}
	if err := resolved.ApplyDefaults(&v); err != nil {
		return nil, fmt.Errorf("applying schema defaults: %w", err)
	}
	if err := resolved.Validate(&v); err != nil {
		return nil, err
	}
	// Re-marshal so the defaults reach the unmarshal targets.
	out, err := fastjson.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshaling arguments with defaults: %w", err)
	}
	return out, nil
}
