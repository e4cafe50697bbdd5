// Copyright 2026 The Go MCP SDK Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package mcpbind

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestCallStateEvents(t *testing.T) {
	var events []CallEvent
	cs := newCallState("tool", "T.M", func(ev CallEvent) { events = append(events, ev) })

	ctx := context.Background()
	cs.advance(ctx, evBind)
	cs.advance(ctx, evInvoke)
	cs.advance(ctx, evNormalize)
	cs.advance(ctx, evFinish)

	want := []CallEvent{
		{Capability: "tool", Method: "T.M", From: StateIdle, To: StateBinding},
		{Capability: "tool", Method: "T.M", From: StateBinding, To: StateInvoking},
		{Capability: "tool", Method: "T.M", From: StateInvoking, To: StateNormalizing},
		{Capability: "tool", Method: "T.M", From: StateNormalizing, To: StateComplete},
	}
	if diff := cmp.Diff(want, events, cmp.Comparer(sameError)); diff != "" {
		t.Errorf("events mismatch (-want +got):\n%s", diff)
	}
}

func sameError(a, b error) bool { return errors.Is(a, b) || errors.Is(b, a) }

func TestCallStateFailure(t *testing.T) {
	var events []CallEvent
	cs := newCallState("prompt", "T.M", func(ev CallEvent) { events = append(events, ev) })

	ctx := context.Background()
	boom := errors.New("boom")
	cs.advance(ctx, evBind)
	cs.advance(ctx, evInvoke)
	if got := cs.fail(ctx, boom); got != boom {
		t.Errorf("fail returned %v, want the error unchanged", got)
	}

	last := events[len(events)-1]
	if last.To != StateFailed {
		t.Errorf("final state = %q, want failed", last.To)
	}
	if last.From != StateInvoking {
		t.Errorf("failure recorded from %q, want invoking", last.From)
	}
	if last.Err != boom {
		t.Errorf("failure event error = %v, want boom", last.Err)
	}
	for _, ev := range events[:len(events)-1] {
		if ev.Err != nil {
			t.Errorf("non-failure event %s->%s carries an error: %v", ev.From, ev.To, ev.Err)
		}
	}
}

func TestCallStateNoObserver(t *testing.T) {
	cs := newCallState("tool", "T.M", nil)
	ctx := context.Background()
	cs.advance(ctx, evBind)
	if err := cs.fail(ctx, errors.New("x")); err == nil {
		t.Error("fail returned nil")
	}
	if got := cs.m.Current(); got != StateFailed {
		t.Errorf("state = %q, want failed", got)
	}
}
