// Copyright 2026 The Go MCP SDK Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package mcpbind

import (
	"context"
	"encoding/json"
	"errors"
	"reflect"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/yosida95/uritemplate/v3"
)

func TestBindArgsRoles(t *testing.T) {
	var (
		gotTC    *TransportContext
		gotMeta  mcp.Meta
		gotToken ProgressToken
	)
	fn := func(ctx context.Context, tc *TransportContext, m mcp.Meta, tok ProgressToken) error {
		gotTC, gotMeta, gotToken = tc, m, tok
		return nil
	}
	c, err := buildContract(toolCapSpec(&Tool{}), ModeSync, false, reflect.ValueOf(fn), "T.M")
	if err != nil {
		t.Fatalf("buildContract failed: %v", err)
	}

	meta := mcp.Meta{"progressToken": "tok-1", "trace": "abc"}
	in := &callInputs{meta: meta, token: "tok-1"}
	args, err := bindArgs(context.Background(), c, in)
	if err != nil {
		t.Fatalf("bindArgs failed: %v", err)
	}
	c.fn.Call(args)

	want := &TransportContext{Meta: meta, ProgressToken: "tok-1"}
	if diff := cmp.Diff(want, gotTC); diff != "" {
		t.Errorf("TransportContext mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(meta, gotMeta); diff != "" {
		t.Errorf("meta mismatch (-want +got):\n%s", diff)
	}
	if gotToken != "tok-1" {
		t.Errorf("token = %v, want tok-1", gotToken)
	}
}

func TestBindArgsAbsentToken(t *testing.T) {
	var gotToken ProgressToken = "sentinel"
	fn := func(tok ProgressToken) error {
		gotToken = tok
		return nil
	}
	c, err := buildContract(toolCapSpec(&Tool{}), ModeSync, false, reflect.ValueOf(fn), "T.M")
	if err != nil {
		t.Fatalf("buildContract failed: %v", err)
	}
	args, err := bindArgs(context.Background(), c, &callInputs{})
	if err != nil {
		t.Fatalf("bindArgs failed: %v", err)
	}
	c.fn.Call(args)
	if gotToken != nil {
		t.Errorf("token = %v, want nil for a request without one", gotToken)
	}
}

func TestBindArgsPayloadError(t *testing.T) {
	fn := func(ctx context.Context, args echoArgs) error { return nil }
	c, err := buildContract(toolCapSpec(&Tool{}), ModeSync, false, reflect.ValueOf(fn), "T.M")
	if err != nil {
		t.Fatalf("buildContract failed: %v", err)
	}

	cause := errors.New("bad payload")
	in := &callInputs{
		payload: func(reflect.Type) (reflect.Value, error) { return reflect.Value{}, cause },
	}
	_, err = bindArgs(context.Background(), c, in)
	var berr *BindError
	if !errors.As(err, &berr) {
		t.Fatalf("bindArgs error = %T (%v), want *BindError", err, err)
	}
	if !errors.Is(err, cause) {
		t.Error("BindError does not unwrap to its cause")
	}
	if berr.Capability != "tool" || berr.Method != "T.M" {
		t.Errorf("BindError identifies %s %s, want tool T.M", berr.Capability, berr.Method)
	}
}

func TestObjectFields(t *testing.T) {
	fields, err := objectFields(json.RawMessage(`{"a":1,"b":"two"}`))
	if err != nil {
		t.Fatalf("objectFields failed: %v", err)
	}
	if len(fields) != 2 {
		t.Fatalf("got %d fields, want 2", len(fields))
	}
	if string(fields["b"]) != `"two"` {
		t.Errorf(`fields["b"] = %s, want "two"`, fields["b"])
	}

	if _, err := objectFields(json.RawMessage(`[1,2]`)); err == nil {
		t.Error("objectFields accepted a JSON array")
	}

	fields, err = objectFields(nil)
	if err != nil {
		t.Fatalf("objectFields(nil) failed: %v", err)
	}
	if len(fields) != 0 {
		t.Errorf("objectFields(nil) = %v, want empty", fields)
	}
}

func TestUnmarshalInto(t *testing.T) {
	raw := json.RawMessage(`{"name":"go"}`)

	v, err := unmarshalInto(raw, reflect.TypeFor[echoArgs]())
	if err != nil {
		t.Fatalf("unmarshalInto failed: %v", err)
	}
	if got := v.Interface().(echoArgs); got.Name != "go" {
		t.Errorf("value form = %+v, want Name go", got)
	}

	v, err = unmarshalInto(raw, reflect.TypeFor[*echoArgs]())
	if err != nil {
		t.Fatalf("unmarshalInto failed: %v", err)
	}
	if got := v.Interface().(*echoArgs); got == nil || got.Name != "go" {
		t.Errorf("pointer form = %+v, want Name go", got)
	}

	if _, err := unmarshalInto(json.RawMessage(`"text"`), reflect.TypeFor[int]()); err == nil {
		t.Error("unmarshalInto accepted a string for an int")
	}
}

func TestTemplateVars(t *testing.T) {
	tmpl, err := uritemplate.New("users://{name}/posts/{id}")
	if err != nil {
		t.Fatalf("parsing template: %v", err)
	}

	vars, err := templateVars(tmpl, "users://{name}/posts/{id}", "users://alice/posts/42")
	if err != nil {
		t.Fatalf("templateVars failed: %v", err)
	}
	want := map[string]string{"name": "alice", "id": "42"}
	if diff := cmp.Diff(want, vars); diff != "" {
		t.Errorf("vars mismatch (-want +got):\n%s", diff)
	}

	_, err = templateVars(tmpl, "users://{name}/posts/{id}", "posts://42")
	wantErr := `uri "posts://42" does not match template "users://{name}/posts/{id}"`
	if err == nil || err.Error() != wantErr {
		t.Errorf("templateVars error = %v, want %q", err, wantErr)
	}
}

func TestMetaOf(t *testing.T) {
	meta, token := metaOf(map[string]any{"progressToken": 7.0, "other": true})
	if token != 7.0 {
		t.Errorf("token = %v, want 7", token)
	}
	if meta["other"] != true {
		t.Errorf("meta = %v, want the full bag", meta)
	}

	meta, token = metaOf(nil)
	if token != nil || meta != nil {
		t.Errorf("metaOf(nil) = %v, %v, want nil, nil", meta, token)
	}
}
