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

type promptSvc struct{}

func (promptSvc) Greeting(ctx context.Context, name, style string) (string, error) {
	if style == "formal" {
		return "Dear " + name + ",", nil
	}
	return "hey " + name, nil
}

func (promptSvc) Review(ctx context.Context, args map[string]string) ([]*mcp.PromptMessage, error) {
	return []*mcp.PromptMessage{
		{Role: "user", Content: &mcp.TextContent{Text: "review " + args["path"]}},
		{Role: "assistant", Content: &mcp.TextContent{Text: "starting with " + args["path"]}},
	}, nil
}

func (promptSvc) Outline(ctx context.Context, args map[string]string) ([]string, error) {
	return []string{"intro: " + args["topic"], "details"}, nil
}

func (promptSvc) Empty(ctx context.Context) (*mcp.GetPromptResult, error) {
	return nil, nil
}

func (promptSvc) Drafts(ctx context.Context, topic string) iter.Seq[string] {
	return func(yield func(string) bool) {
		if !yield("draft one: " + topic) {
			return
		}
		yield("draft two: " + topic)
	}
}

func (promptSvc) Silent(ctx context.Context) iter.Seq[*mcp.GetPromptResult] {
	return func(yield func(*mcp.GetPromptResult) bool) {}
}

func promptRequest(args map[string]string) *mcp.GetPromptRequest {
	return &mcp.GetPromptRequest{Params: &mcp.GetPromptParams{Name: "p", Arguments: args}}
}

func bindOnePrompt(t *testing.T, mode Mode, d *Prompt) *ServerPrompt {
	t.Helper()
	p := NewPromptProvider(mode, nil)
	p.Bind(promptSvc{}, d)
	specs, err := p.Specs()
	if err != nil {
		t.Fatalf("Specs failed: %v", err)
	}
	if len(specs) != 1 {
		t.Fatalf("got %d specs, want 1", len(specs))
	}
	return specs[0]
}

func TestPromptArgs(t *testing.T) {
	ctx := context.Background()
	spec := bindOnePrompt(t, ModeSync, &Prompt{
		Method:      "Greeting",
		Description: "a greeting",
		Args: []Arg{
			{Name: "name", Description: "who to address", Required: true},
			{Name: "style"},
		},
	})

	wantDef := &mcp.Prompt{
		Name:        "greeting",
		Description: "a greeting",
		Arguments: []*mcp.PromptArgument{
			{Name: "name", Description: "who to address", Required: true},
			{Name: "style"},
		},
	}
	if diff := cmp.Diff(wantDef, spec.Prompt); diff != "" {
		t.Errorf("prompt definition mismatch (-want +got):\n%s", diff)
	}

	res, err := spec.Handler(ctx, promptRequest(map[string]string{"name": "ada", "style": "formal"}))
	if err != nil {
		t.Fatalf("Handler failed: %v", err)
	}
	want := &mcp.GetPromptResult{
		Description: "a greeting",
		Messages:    []*mcp.PromptMessage{{Role: "user", Content: &mcp.TextContent{Text: "Dear ada,"}}},
	}
	if diff := cmp.Diff(want, res); diff != "" {
		t.Errorf("result mismatch (-want +got):\n%s", diff)
	}

	// An absent optional argument binds the empty string.
	res, err = spec.Handler(ctx, promptRequest(map[string]string{"name": "ada"}))
	if err != nil {
		t.Fatalf("Handler failed: %v", err)
	}
	if got := res.Messages[0].Content.(*mcp.TextContent).Text; got != "hey ada" {
		t.Errorf("message = %q, want the casual greeting", got)
	}
}

func TestPromptMissingRequiredArgument(t *testing.T) {
	ctx := context.Background()
	spec := bindOnePrompt(t, ModeSync, &Prompt{
		Method: "Greeting",
		Args:   []Arg{{Name: "name", Required: true}, {Name: "style"}},
	})

	_, err := spec.Handler(ctx, promptRequest(map[string]string{"style": "formal"}))
	var berr *BindError
	if !errors.As(err, &berr) {
		t.Fatalf("Handler error = %v, want *BindError", err)
	}
	if !strings.Contains(err.Error(), `missing required argument "name"`) {
		t.Errorf("Handler error = %v, want it to name the missing argument", err)
	}
}

func TestPromptMapPayload(t *testing.T) {
	ctx := context.Background()
	spec := bindOnePrompt(t, ModeSync, &Prompt{Method: "Review"})

	res, err := spec.Handler(ctx, promptRequest(map[string]string{"path": "a.go"}))
	if err != nil {
		t.Fatalf("Handler failed: %v", err)
	}
	want := []*mcp.PromptMessage{
		{Role: "user", Content: &mcp.TextContent{Text: "review a.go"}},
		{Role: "assistant", Content: &mcp.TextContent{Text: "starting with a.go"}},
	}
	if diff := cmp.Diff(want, res.Messages); diff != "" {
		t.Errorf("messages mismatch (-want +got):\n%s", diff)
	}

	// A nil argument map binds as an empty map rather than nil.
	if _, err := spec.Handler(ctx, promptRequest(nil)); err != nil {
		t.Errorf("Handler failed on absent arguments: %v", err)
	}
}

func TestPromptTexts(t *testing.T) {
	ctx := context.Background()
	spec := bindOnePrompt(t, ModeSync, &Prompt{Method: "Outline", Description: "an outline"})

	res, err := spec.Handler(ctx, promptRequest(map[string]string{"topic": "go"}))
	if err != nil {
		t.Fatalf("Handler failed: %v", err)
	}
	want := &mcp.GetPromptResult{
		Description: "an outline",
		Messages: []*mcp.PromptMessage{
			{Role: "user", Content: &mcp.TextContent{Text: "intro: go"}},
			{Role: "user", Content: &mcp.TextContent{Text: "details"}},
		},
	}
	if diff := cmp.Diff(want, res); diff != "" {
		t.Errorf("result mismatch (-want +got):\n%s", diff)
	}
}

func TestPromptNilResult(t *testing.T) {
	ctx := context.Background()
	spec := bindOnePrompt(t, ModeSync, &Prompt{Method: "Empty"})

	_, err := spec.Handler(ctx, promptRequest(nil))
	if !errors.Is(err, errNilResult) {
		t.Errorf("Handler error = %v, want the nil result failure", err)
	}
	var nerr *NormalizeError
	if !errors.As(err, &nerr) {
		t.Errorf("Handler error = %v, want *NormalizeError", err)
	}
}

func TestPromptNilRequest(t *testing.T) {
	ctx := context.Background()
	spec := bindOnePrompt(t, ModeSync, &Prompt{Method: "Review"})

	if _, err := spec.Handler(ctx, nil); !errors.Is(err, ErrNilRequest) {
		t.Errorf("Handler(nil) error = %v, want ErrNilRequest", err)
	}
}

func TestStreamPromptFirstWins(t *testing.T) {
	ctx := context.Background()
	p := NewPromptProvider(ModeAsync, nil)
	p.Bind(promptSvc{}, &Prompt{Method: "Drafts", Args: []Arg{{Name: "topic", Required: true}}})
	specs, err := p.Specs()
	if err != nil {
		t.Fatalf("Specs failed: %v", err)
	}

	res, err := specs[0].Handler(ctx, promptRequest(map[string]string{"topic": "go"}))
	if err != nil {
		t.Fatalf("Handler failed: %v", err)
	}
	if len(res.Messages) != 1 {
		t.Fatalf("got %d messages, want only the first draft", len(res.Messages))
	}
	if got := res.Messages[0].Content.(*mcp.TextContent).Text; got != "draft one: go" {
		t.Errorf("message = %q, want the first draft", got)
	}
}

func TestStreamPromptEmpty(t *testing.T) {
	ctx := context.Background()
	p := NewPromptProvider(ModeAsync, nil)
	p.Bind(promptSvc{}, &Prompt{Method: "Silent"})
	specs, err := p.Specs()
	if err != nil {
		t.Fatalf("Specs failed: %v", err)
	}

	_, err = specs[0].Handler(ctx, promptRequest(nil))
	if !errors.Is(err, errEmptyStream) {
		t.Fatalf("Handler error = %v, want the empty stream failure", err)
	}
	if !strings.Contains(err.Error(), `prompt "silent"`) {
		t.Errorf("Handler error = %v, want it to name the prompt", err)
	}
}

func TestStreamPromptSpecs(t *testing.T) {
	ctx := context.Background()
	p := NewPromptProvider(ModeAsync, nil)
	p.Bind(promptSvc{}, &Prompt{Method: "Drafts", Args: []Arg{{Name: "topic"}}})
	streams, err := p.StreamSpecs()
	if err != nil {
		t.Fatalf("StreamSpecs failed: %v", err)
	}
	if len(streams) != 1 {
		t.Fatalf("got %d stream specs, want 1", len(streams))
	}

	var texts []string
	for res, err := range streams[0].Handler(ctx, promptRequest(map[string]string{"topic": "go"})) {
		if err != nil {
			t.Fatalf("stream failed: %v", err)
		}
		texts = append(texts, res.Messages[0].Content.(*mcp.TextContent).Text)
	}
	want := []string{"draft one: go", "draft two: go"}
	if diff := cmp.Diff(want, texts); diff != "" {
		t.Errorf("streamed drafts mismatch (-want +got):\n%s", diff)
	}
}
