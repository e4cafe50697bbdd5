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

type approvalSvc struct{}

func (approvalSvc) Approve(ctx context.Context, params *mcp.ElicitParams) (map[string]any, error) {
	return map[string]any{"approved": true, "note": params.Message}, nil
}

func (approvalSvc) Decline(ctx context.Context) (*mcp.ElicitResult, error) {
	return &mcp.ElicitResult{Action: "decline"}, nil
}

func (approvalSvc) Queue(ctx context.Context) iter.Seq[map[string]any] {
	return func(yield func(map[string]any) bool) {
		if !yield(map[string]any{"pick": "a"}) {
			return
		}
		yield(map[string]any{"pick": "b"})
	}
}

func elicitRequest(message string) *mcp.ElicitRequest {
	return &mcp.ElicitRequest{Params: &mcp.ElicitParams{Message: message}}
}

func bindOneElicitation(t *testing.T, mode Mode, d *Elicitation) *ClientElicitation {
	t.Helper()
	p := NewElicitationProvider(mode, nil)
	p.Bind(approvalSvc{}, d)
	specs, err := p.Specs()
	if err != nil {
		t.Fatalf("Specs failed: %v", err)
	}
	if len(specs) != 1 {
		t.Fatalf("got %d elicitation handlers, want 1", len(specs))
	}
	return specs[0]
}

func TestElicitationMap(t *testing.T) {
	ctx := context.Background()
	spec := bindOneElicitation(t, ModeSync, &Elicitation{Method: "Approve"})

	res, err := spec.Handler(ctx, elicitRequest("deploy?"))
	if err != nil {
		t.Fatalf("Handler failed: %v", err)
	}
	if res.Action != "accept" {
		t.Errorf("action = %q, want accept", res.Action)
	}
	want := map[string]any{"approved": true, "note": "deploy?"}
	if diff := cmp.Diff(want, res.Content); diff != "" {
		t.Errorf("content mismatch (-want +got):\n%s", diff)
	}
}

func TestElicitationCanonical(t *testing.T) {
	ctx := context.Background()
	spec := bindOneElicitation(t, ModeSync, &Elicitation{Method: "Decline"})

	res, err := spec.Handler(ctx, elicitRequest("deploy?"))
	if err != nil {
		t.Fatalf("Handler failed: %v", err)
	}
	if res.Action != "decline" {
		t.Errorf("action = %q, want the method's result untouched", res.Action)
	}
}

func TestElicitationApply(t *testing.T) {
	p := NewElicitationProvider(ModeSync, nil)
	p.Bind(approvalSvc{}, &Elicitation{Method: "Approve"})
	var o mcp.ClientOptions
	if err := p.Apply(&o); err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if o.ElicitationHandler == nil {
		t.Fatal("Apply installed no handler")
	}
	if err := p.Apply(&o); err == nil || !strings.Contains(err.Error(), "ElicitationHandler is already set") {
		t.Errorf("second Apply error = %v, want the already set failure", err)
	}
}

func TestElicitationStreamBridge(t *testing.T) {
	ctx := context.Background()
	spec := bindOneElicitation(t, ModeAsync, &Elicitation{Method: "Queue"})

	res, err := spec.Handler(ctx, elicitRequest("pick one"))
	if err != nil {
		t.Fatalf("Handler failed: %v", err)
	}
	want := map[string]any{"pick": "a"}
	if diff := cmp.Diff(want, res.Content); diff != "" {
		t.Errorf("content mismatch (-want +got):\n%s", diff)
	}
}

func TestElicitationNilRequest(t *testing.T) {
	ctx := context.Background()
	spec := bindOneElicitation(t, ModeSync, &Elicitation{Method: "Approve"})

	if _, err := spec.Handler(ctx, nil); !errors.Is(err, ErrNilRequest) {
		t.Errorf("Handler(nil) error = %v, want ErrNilRequest", err)
	}
}
