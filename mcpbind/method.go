// Copyright 2026 The Go MCP SDK Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package mcpbind

import (
	"reflect"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/yosida95/uritemplate/v3"
)

// A boundMethod is a method on a bound value together with its validated
// contract and the artifacts prepared at registration: resolved schemas for
// payload validation and the parsed URI template for resource templates.
// Dispatch reads it, never writes it.
type boundMethod struct {
	contract *contract

	// args are the descriptor's sub-field markers, aligned with the
	// contract's roleArg bindings.
	args []Arg

	// inSchema and inResolved hold the input schema for tool payloads.
	inSchema   *jsonschema.Schema
	inResolved *jsonschema.Resolved

	// outSchema is the derived or overridden tool output schema.
	outSchema *jsonschema.Schema

	// template is the parsed URI template for resource templates.
	template *uritemplate.Template
}

// resolveMethod locates the named method in recv's method set. Only exported
// methods are reachable through reflection; methods with pointer receivers
// require recv to be a pointer.
func resolveMethod(capability string, recv any, name string) (reflect.Value, string, error) {
	label := methodLabel(recv, name)
	if name == "" {
		return reflect.Value{}, label, signatureErrorf(capability, label, "descriptor has no Method")
	}
	if recv == nil {
		return reflect.Value{}, label, signatureErrorf(capability, label, "bound value is nil")
	}
	fn := reflect.ValueOf(recv).MethodByName(name)
	if !fn.IsValid() {
		return reflect.Value{}, label, signatureErrorf(capability, label, "no exported method %q on %T", name, recv)
	}
	return fn, label, nil
}

// methodLabel renders a method as "Type.Name" for diagnostics.
func methodLabel(recv any, name string) string {
	t := reflect.TypeOf(recv)
	if t == nil {
		return "<nil>." + name
	}
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	tn := t.Name()
	if tn == "" {
		tn = t.String()
	}
	return tn + "." + name
}
