// Copyright 2026 The Go MCP SDK Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package mcpbind

import (
	"context"
	"errors"
	"iter"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type completeSvc struct{}

func (completeSvc) Branches(ctx context.Context, value string) ([]string, error) {
	var out []string
	for _, b := range []string{"main", "maint", "dev"} {
		if strings.HasPrefix(b, value) {
			out = append(out, b)
		}
	}
	return out, nil
}

func (completeSvc) Languages(ctx context.Context, arg mcp.CompleteParamsArgument) (*mcp.CompletionResultDetails, error) {
	return &mcp.CompletionResultDetails{Values: []string{arg.Name + ":" + arg.Value}, HasMore: true}, nil
}

func (completeSvc) Members(ctx context.Context, value string, cc *mcp.CompleteContext) ([]string, error) {
	team := "unknown"
	if cc != nil && cc.Arguments != nil && cc.Arguments["team"] != "" {
		team = cc.Arguments["team"]
	}
	return []string{team + "/" + value}, nil
}

func (completeSvc) Progressive(ctx context.Context, value string) iter.Seq[[]string] {
	return func(yield func([]string) bool) {
		if !yield([]string{value + "1"}) {
			return
		}
		yield([]string{value + "1", value + "2"})
	}
}

func (completeSvc) Quiet(ctx context.Context, value string) iter.Seq[[]string] {
	return func(yield func([]string) bool) {}
}

func completeRequest(name, value string, ref *mcp.CompleteReference) *mcp.CompleteRequest {
	return &mcp.CompleteRequest{Params: &mcp.CompleteParams{
		Argument: mcp.CompleteParamsArgument{Name: name, Value: value},
		Ref:      ref,
	}}
}

func bindOneCompletion(t *testing.T, mode Mode, d *Completion) *ServerCompletion {
	t.Helper()
	p := NewCompletionProvider(mode, nil)
	p.Bind(completeSvc{}, d)
	specs, err := p.Specs()
	if err != nil {
		t.Fatalf("Specs failed: %v", err)
	}
	if len(specs) != 1 {
		t.Fatalf("got %d completions, want 1", len(specs))
	}
	return specs[0]
}

func TestCompletionValues(t *testing.T) {
	ctx := context.Background()
	spec := bindOneCompletion(t, ModeSync, &Completion{Method: "Branches", Prompt: "deploy"})

	wantRef := &mcp.CompleteReference{Type: "ref/prompt", Name: "deploy"}
	if diff := cmp.Diff(wantRef, spec.Ref); diff != "" {
		t.Errorf("reference mismatch (-want +got):\n%s", diff)
	}

	res, err := spec.Handler(ctx, completeRequest("branch", "mai", wantRef))
	if err != nil {
		t.Fatalf("Handler failed: %v", err)
	}
	want := mcp.CompletionResultDetails{Values: []string{"main", "maint"}}
	if diff := cmp.Diff(want, res.Completion); diff != "" {
		t.Errorf("completion mismatch (-want +got):\n%s", diff)
	}
}

func TestCompletionDetails(t *testing.T) {
	ctx := context.Background()
	spec := bindOneCompletion(t, ModeSync, &Completion{Method: "Languages", Prompt: "translate"})

	res, err := spec.Handler(ctx, completeRequest("lang", "d", spec.Ref))
	if err != nil {
		t.Fatalf("Handler failed: %v", err)
	}
	want := mcp.CompletionResultDetails{Values: []string{"lang:d"}, HasMore: true}
	if diff := cmp.Diff(want, res.Completion); diff != "" {
		t.Errorf("completion mismatch (-want +got):\n%s", diff)
	}
}

func TestCompletionContext(t *testing.T) {
	ctx := context.Background()
	spec := bindOneCompletion(t, ModeSync, &Completion{Method: "Members", ResourceURI: "teams://{team}/members/{name}"})

	req := completeRequest("name", "ada", spec.Ref)
	req.Params.Context = &mcp.CompleteContext{Arguments: map[string]string{"team": "go"}}
	res, err := spec.Handler(ctx, req)
	if err != nil {
		t.Fatalf("Handler failed: %v", err)
	}
	if diff := cmp.Diff([]string{"go/ada"}, res.Completion.Values); diff != "" {
		t.Errorf("completion mismatch (-want +got):\n%s", diff)
	}

	// Without resolved arguments the context parameter is nil.
	res, err = spec.Handler(ctx, completeRequest("name", "ada", spec.Ref))
	if err != nil {
		t.Fatalf("Handler failed: %v", err)
	}
	if diff := cmp.Diff([]string{"unknown/ada"}, res.Completion.Values); diff != "" {
		t.Errorf("completion mismatch (-want +got):\n%s", diff)
	}
}

func TestCompletionRef(t *testing.T) {
	p := NewCompletionProvider(ModeSync, nil)
	p.Bind(completeSvc{}, &Completion{Method: "Branches", Prompt: "deploy", ResourceURI: "x://y"})
	if _, err := p.Specs(); err == nil || !strings.Contains(err.Error(), "both Prompt and ResourceURI are set") {
		t.Errorf("Specs error = %v, want the double reference failure", err)
	}

	p = NewCompletionProvider(ModeSync, nil)
	p.Bind(completeSvc{}, &Completion{Method: "Branches"})
	if _, err := p.Specs(); err == nil || !strings.Contains(err.Error(), "one of Prompt or ResourceURI is required") {
		t.Errorf("Specs error = %v, want the missing reference failure", err)
	}
}

func TestRouteCompletions(t *testing.T) {
	ctx := context.Background()
	branches := bindOneCompletion(t, ModeSync, &Completion{Method: "Branches", Prompt: "deploy"})
	members := bindOneCompletion(t, ModeSync, &Completion{Method: "Members", ResourceURI: "teams://{team}/members/{name}"})
	route := RouteCompletions(branches, members)

	res, err := route(ctx, completeRequest("branch", "de", &mcp.CompleteReference{Type: "ref/prompt", Name: "deploy"}))
	if err != nil {
		t.Fatalf("prompt completion failed: %v", err)
	}
	if diff := cmp.Diff([]string{"dev"}, res.Completion.Values); diff != "" {
		t.Errorf("prompt completion mismatch (-want +got):\n%s", diff)
	}

	// The template string itself routes by exact match.
	if _, err := route(ctx, completeRequest("name", "ada", &mcp.CompleteReference{
		Type: "ref/resource", URI: "teams://{team}/members/{name}",
	})); err != nil {
		t.Errorf("template URI completion failed: %v", err)
	}

	// An expanded URI routes by template match.
	if _, err := route(ctx, completeRequest("name", "ada", &mcp.CompleteReference{
		Type: "ref/resource", URI: "teams://go/members/ada",
	})); err != nil {
		t.Errorf("expanded URI completion failed: %v", err)
	}

	_, err = route(ctx, completeRequest("arg", "v", &mcp.CompleteReference{Type: "ref/prompt", Name: "other"}))
	if err == nil || !strings.Contains(err.Error(), `no completion bound for prompt "other"`) {
		t.Errorf("unknown prompt error = %v", err)
	}
	_, err = route(ctx, completeRequest("arg", "v", &mcp.CompleteReference{Type: "ref/resource", URI: "x://y"}))
	if err == nil || !strings.Contains(err.Error(), `no completion bound for resource "x://y"`) {
		t.Errorf("unknown resource error = %v", err)
	}
	if _, err := route(ctx, nil); !errors.Is(err, ErrNilRequest) {
		t.Errorf("route(nil) error = %v, want ErrNilRequest", err)
	}
}

func TestStreamCompletion(t *testing.T) {
	ctx := context.Background()
	spec := bindOneCompletion(t, ModeAsync, &Completion{Method: "Progressive", Prompt: "search"})

	res, err := spec.Handler(ctx, completeRequest("q", "g", spec.Ref))
	if err != nil {
		t.Fatalf("Handler failed: %v", err)
	}
	if diff := cmp.Diff([]string{"g1"}, res.Completion.Values); diff != "" {
		t.Errorf("first result mismatch (-want +got):\n%s", diff)
	}
}

func TestStreamCompletionEmpty(t *testing.T) {
	ctx := context.Background()
	spec := bindOneCompletion(t, ModeAsync, &Completion{Method: "Quiet", Prompt: "quiet"})

	_, err := spec.Handler(ctx, completeRequest("q", "", spec.Ref))
	if !errors.Is(err, errEmptyStream) {
		t.Fatalf("Handler error = %v, want the empty stream failure", err)
	}
	if !strings.Contains(err.Error(), `completion for prompt "quiet"`) {
		t.Errorf("Handler error = %v, want it to name the reference", err)
	}
}
