// Copyright 2026 The Go MCP SDK Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// This file holds the argument binder: it assembles the reflect argument
// list for a dispatch from the request, following the roles recorded in the
// method's contract. Binding either produces the complete argument list or
// fails without invoking the method.

package mcpbind

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/yosida95/uritemplate/v3"

	"github.com/modelcontextprotocol/go-bind/internal/fastjson"
)

// callInputs is a request decomposed for binding. Each capability adapter
// fills the fields its request provides; payload and arg resolve the
// capability-specific payload strategies on demand.
type callInputs struct {
	request reflect.Value
	params  reflect.Value
	session reflect.Value
	meta    mcp.Meta
	token   any
	extra   reflect.Value

	// payload resolves a rolePayload parameter of the given type.
	payload func(t reflect.Type) (reflect.Value, error)

	// arg resolves the roleArg parameter bound to the named sub-field. idx
	// is the parameter's position among the roleArg parameters.
	arg func(name string, t reflect.Type, idx int) (reflect.Value, error)
}

// bindArgs assembles the argument list for one dispatch of c. It never
// partially succeeds: on error the method must not be invoked.
func bindArgs(ctx context.Context, c *contract, in *callInputs) ([]reflect.Value, error) {
	args := make([]reflect.Value, 0, len(c.params))
	argIdx := 0
	for _, p := range c.params {
		var (
			v   reflect.Value
			err error
		)
		switch p.role {
		case roleContext:
			v = reflect.ValueOf(ctx)
		case roleSession:
			v = in.session
		case roleTransport:
			v = reflect.ValueOf(&TransportContext{Meta: in.meta, ProgressToken: in.token})
		case roleMeta:
			v = reflect.ValueOf(in.meta)
		case roleToken:
			v = reflect.New(typeProgressToken).Elem()
			if in.token != nil {
				v.Set(reflect.ValueOf(in.token))
			}
		case roleRequest:
			v = in.request
		case roleParams:
			v = in.params
		case roleExtra:
			v = in.extra
		case rolePayload:
			v, err = in.payload(p.typ)
		case roleArg:
			v, err = in.arg(p.name, p.typ, argIdx)
			argIdx++
		}
		if err != nil {
			return nil, &BindError{Capability: c.capability, Method: c.method, Cause: err}
		}
		if !v.IsValid() {
			v = reflect.Zero(p.typ)
		}
		args = append(args, v)
	}
	return args, nil
}

// objectFields splits a JSON object into its raw fields.
func objectFields(data json.RawMessage) (map[string]json.RawMessage, error) {
	fields := make(map[string]json.RawMessage)
	if len(data) > 0 {
		if err := fastjson.Unmarshal(data, &fields); err != nil {
			return nil, fmt.Errorf("arguments are not a JSON object: %w", err)
		}
	}
	return fields, nil
}

// unmarshalInto decodes raw into a fresh value of type t and returns it.
// Pointer types share the allocation with their element.
func unmarshalInto(raw json.RawMessage, t reflect.Type) (reflect.Value, error) {
	elem := t
	if t.Kind() == reflect.Pointer {
		elem = t.Elem()
	}
	ptr := reflect.New(elem)
	if len(raw) > 0 {
		if err := fastjson.Unmarshal(raw, ptr.Interface()); err != nil {
			return reflect.Value{}, fmt.Errorf("unmarshaling into %s: %w", t, err)
		}
	}
	if t.Kind() == reflect.Pointer {
		return ptr, nil
	}
	return ptr.Elem(), nil
}

// templateVars matches uri against the resource template and returns its
// variable values by name.
func templateVars(tmpl *uritemplate.Template, raw, uri string) (map[string]string, error) {
	m := tmpl.Match(uri)
	if m == nil {
		return nil, fmt.Errorf("uri %q does not match template %q", uri, raw)
	}
	vars := make(map[string]string)
	for _, name := range tmpl.Varnames() {
		vars[name] = m.Get(name).String()
	}
	return vars, nil
}

// metaOf extracts request metadata and the progress token from params that
// carry a _meta bag.
func metaOf(m map[string]any) (mcp.Meta, any) {
	return mcp.Meta(m), m[progressTokenKey]
}
