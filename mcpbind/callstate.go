// Copyright 2026 The Go MCP SDK Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package mcpbind

import (
	"context"

	"github.com/looplab/fsm"
)

// Call states, in dispatch order. Every dispatch of a bound method walks
// idle, binding, invoking, normalizing, complete; a failure in any working
// state moves the call to failed instead.
const (
	StateIdle        = "idle"
	StateBinding     = "binding"
	StateInvoking    = "invoking"
	StateNormalizing = "normalizing"
	StateComplete    = "complete"
	StateFailed      = "failed"
)

const (
	evBind      = "bind"
	evInvoke    = "invoke"
	evNormalize = "normalize"
	evFinish    = "finish"
	evFail      = "fail"
)

var callTransitions = []fsm.EventDesc{
	{Name: evBind, Src: []string{StateIdle}, Dst: StateBinding},
	{Name: evInvoke, Src: []string{StateBinding}, Dst: StateInvoking},
	{Name: evNormalize, Src: []string{StateInvoking}, Dst: StateNormalizing},
	{Name: evFinish, Src: []string{StateNormalizing}, Dst: StateComplete},
	{Name: evFail, Src: []string{StateBinding, StateInvoking, StateNormalizing}, Dst: StateFailed},
}

// A CallEvent describes one state transition of a dispatch in progress. It
// is delivered to [Options.CallObserver] synchronously, on the goroutine
// driving the call.
type CallEvent struct {
	Capability string
	Method     string
	From       string
	To         string

	// Err is the failure, set only on the transition into [StateFailed].
	Err error
}

// A callState drives the lifecycle of a single dispatch. Each call gets its
// own machine; contracts and schemas are shared read-only, so concurrent
// calls to the same bound method never contend.
type callState struct {
	capability string
	method     string
	m          *fsm.FSM
}

func newCallState(capability, method string, observer func(CallEvent)) *callState {
	c := &callState{capability: capability, method: method}
	var callbacks fsm.Callbacks
	if observer != nil {
		callbacks = fsm.Callbacks{
			"enter_state": func(_ context.Context, e *fsm.Event) {
				ev := CallEvent{
					Capability: c.capability,
					Method:     c.method,
					From:       e.Src,
					To:         e.Dst,
				}
				if len(e.Args) > 0 {
					if err, ok := e.Args[0].(error); ok {
						ev.Err = err
					}
				}
				observer(ev)
			},
		}
	}
	c.m = fsm.NewFSM(StateIdle, callTransitions, callbacks)
	return c
}

// advance moves the call to its next working state. The transition table is
// fixed, so a rejected event is a bug in the dispatcher.
func (c *callState) advance(ctx context.Context, event string) {
	err := c.m.Event(ctx, event)
	assert(err == nil, "invalid call state transition")
}

// fail moves the call to the failed state and returns err unchanged. The
// failing stage is carried by err itself (see BindError and NormalizeError);
// the observer additionally sees the state the failure occurred in.
func (c *callState) fail(ctx context.Context, err error) error {
	ferr := c.m.Event(ctx, evFail, err)
	assert(ferr == nil, "invalid call state transition")
	return err
}
