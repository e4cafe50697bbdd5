// Copyright 2026 The Go MCP SDK Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package mcpbind

import (
	"log/slog"
	"slices"
)

// A Mode selects how bound methods deliver results.
//
// In ModeSync a method returns at most one value and the adapter produces
// exactly one protocol result. In ModeAsync a method returns a stream (an
// iter.Seq, an iter.Seq2 with error, or a receivable channel) and the
// adapter drains it.
type Mode int

const (
	ModeSync Mode = iota
	ModeAsync
)

func (m Mode) String() string {
	switch m {
	case ModeSync:
		return "sync"
	case ModeAsync:
		return "async"
	}
	return "invalid"
}

// Options configure a provider. The zero value is valid.
type Options struct {
	// Stateless rejects methods that declare a session parameter at
	// registration time, for handlers that must not depend on the peer.
	Stateless bool

	// Logger receives skip notices and consumer handler errors.
	// If nil, slog.Default() is used.
	Logger *slog.Logger

	// CallObserver, if set, receives a CallEvent for every state
	// transition of every dispatched call. It must be fast and must not
	// panic.
	CallObserver func(CallEvent)
}

// A SkippedMethod records a described method a provider declined to bind
// because its return form belongs to the other execution mode.
type SkippedMethod struct {
	Capability string // "tool", "prompt", ...
	Method     string // "Type.Method"
	Reason     string
}

// provider holds the state shared by every capability provider: the
// execution mode, the options, and the accumulated binding errors and
// skips. Concrete providers embed it and accumulate their specs.
type provider struct {
	mode  Mode
	opts  Options
	errs  []error
	skips []SkippedMethod
}

func newProvider(mode Mode, opts *Options) provider {
	assert(mode == ModeSync || mode == ModeAsync, "unknown mode")
	p := provider{mode: mode}
	if opts != nil {
		p.opts = *opts
	}
	if p.opts.Logger == nil {
		p.opts.Logger = slog.Default()
	}
	return p
}

func (p *provider) logger() *slog.Logger { return p.opts.Logger }

func (p *provider) observer() func(CallEvent) { return p.opts.CallObserver }

// fail records a binding error. Binding continues with the remaining
// descriptors so one call reports every problem.
func (p *provider) fail(err error) {
	p.errs = append(p.errs, err)
}

// skip records a mode mismatch and logs it. Skipped methods are not
// errors; they are visible through Skipped and the logger so a silently
// thinner capability list is diagnosable.
func (p *provider) skip(capability, method string) {
	reason := "return form belongs to the other execution mode"
	p.skips = append(p.skips, SkippedMethod{Capability: capability, Method: method, Reason: reason})
	p.opts.Logger.Warn("mcpbind: skipping method",
		"capability", capability, "method", method, "reason", reason)
}

// Skipped reports the methods this provider declined to bind because
// their return form belongs to the other execution mode.
func (p *provider) Skipped() []SkippedMethod {
	return slices.Clone(p.skips)
}
