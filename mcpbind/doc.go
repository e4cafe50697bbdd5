// Copyright 2026 The Go MCP SDK Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

/*
Package mcpbind exposes plain methods on ordinary Go values as MCP
capabilities.

The MCP SDK expects handlers written against protocol types: a tool handler
receives an [mcp.CallToolRequest] and returns an [mcp.CallToolResult]. This
package derives such handlers from methods that speak the application's own
types instead. A descriptor names a method and carries its protocol
metadata; a provider compiles descriptors into spec values holding an SDK
definition and a derived handler; the specs register with an [mcp.Server]
or an [mcp.ClientOptions] exactly like hand-written ones.

	type Calculator struct{ precision int }

	type DivideArgs struct {
		A float64 `json:"a"`
		B float64 `json:"b"`
	}

	func (c *Calculator) Divide(ctx context.Context, args DivideArgs) (float64, error) {
		if args.B == 0 {
			return 0, errors.New("division by zero")
		}
		return args.A / args.B, nil
	}

	tp := mcpbind.NewToolProvider(mcpbind.ModeSync, nil)
	tp.Bind(calc, &mcpbind.Tool{Method: "Divide", Description: "Divide a by b"})
	tools, err := tp.Specs()
	if err != nil { ... }
	mcpbind.AddTools(server, tools)

# Descriptors and providers

Each capability has a descriptor type ([Tool], [Prompt], [Resource],
[Completion], [Sampling], [Elicitation], [LoggingConsumer],
[ProgressConsumer], [ListChangedConsumer]) and a provider that compiles it.
Descriptors are plain data; nothing happens until a provider's Bind
resolves the named method, validates its signature, and compiles a spec. A
value can also describe itself by implementing the matching Describer
interface, in which case Bind may be called with the value alone.

Binding failures accumulate: Bind never panics on a bad descriptor, and the
provider's Specs method reports every recorded failure as a single joined
error. A provider whose Specs returned an error yields no specs at all.

# Signatures

Bound methods declare what they need as parameters, in a fixed order:
an optional context.Context first, then optional protocol parameters (the
session, the request, the params, [mcp.Meta], a progress token), then the
payload. The payload is either one aggregate parameter (an argument struct,
a map, a json.RawMessage, the raw string, whatever the capability carries)
or one parameter per declared sub-field, such as [Tool.Args] entries,
prompt arguments, or resource template variables. Aggregate and per-field
binding are mutually exclusive.

Results are symmetric: a method may return the capability's canonical SDK
result, a convenient fragment of it (a string, a content block, a message
list, a value to serialize as structured output), nothing but an error, or
in async mode a stream of fragments. The final error return is optional.
Signature problems are reported at bind time as [SignatureError] values;
a method that binds will not fail on shape at call time.

# Modes

A provider is constructed in one of two execution modes. In [ModeSync]
methods return at most one value. In [ModeAsync] methods return a stream,
an iter.Seq[T], an iter.Seq2[T, error], or a receivable channel, and the
adapter drains it within the handler call. Tool streams surface through
[StreamTool] specs whose elements can be merged into a single result with
Blocking; capabilities whose protocol result is inherently single-valued
bridge a stream by taking its first element. A method whose return form
belongs to the other mode is skipped, not failed: the provider records a
[SkippedMethod] and logs it.

# Errors

Tool method errors become in-band results with IsError set, matching how
the SDK reports tool failures to the peer. Every other capability
propagates method errors as protocol errors. Errors that occur before the
method runs wrap [BindError]; errors normalizing a result wrap
[NormalizeError]; both unwrap to their cause.

Notification consumers (logging, progress, list-changed) have no error
channel back to the SDK, so their dispatch failures are written to the
provider's logger.

# Observing calls

Options.CallObserver receives a [CallEvent] at every state transition of
every dispatched call: received, binding, invoking, normalizing, done or
failed. The zero Options is valid and logs through slog.Default.
*/
package mcpbind
