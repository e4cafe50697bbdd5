// Copyright 2026 The Go MCP SDK Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package mcpbind

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"iter"
	"reflect"
	"slices"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// A ServerTool pairs a tool definition with its handler, ready for
// [mcp.Server.AddTool].
type ServerTool struct {
	Tool    *mcp.Tool
	Handler mcp.ToolHandler
}

// A StreamToolHandler produces the results of one tool call as a sequence.
// Nothing runs until the sequence is ranged over, and abandoning it releases
// the call.
type StreamToolHandler func(ctx context.Context, req *mcp.CallToolRequest) iter.Seq2[*mcp.CallToolResult, error]

// A StreamTool pairs a tool definition with a streaming handler.
type StreamTool struct {
	Tool    *mcp.Tool
	Handler StreamToolHandler
}

// Blocking bridges the streaming handler to the SDK's blocking handler by
// draining the stream and merging its results: content concatenates in
// emission order, the last structured content wins, and an in-band error
// result ends the merge.
func (st *StreamTool) Blocking() *ServerTool {
	h := st.Handler
	return &ServerTool{
		Tool: st.Tool,
		Handler: func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return mergeToolResults(h(ctx, req))
		},
	}
}

func mergeToolResults(seq iter.Seq2[*mcp.CallToolResult, error]) (*mcp.CallToolResult, error) {
	merged := &mcp.CallToolResult{Content: []mcp.Content{}}
	for res, err := range seq {
		if err != nil {
			return nil, err
		}
		merged.Content = append(merged.Content, res.Content...)
		if res.StructuredContent != nil {
			merged.StructuredContent = res.StructuredContent
		}
		if res.Meta != nil {
			merged.Meta = res.Meta
		}
		if res.IsError {
			merged.IsError = true
			break
		}
	}
	return merged, nil
}

// AddTools adds compiled tools to the server.
func AddTools(s *mcp.Server, specs []*ServerTool) {
	for _, t := range specs {
		s.AddTool(t.Tool, t.Handler)
	}
}

// A ToolProvider compiles [Tool] descriptors against bound values into
// executable server tools.
//
// In ModeSync, [ToolProvider.Specs] yields one [ServerTool] per descriptor.
// In ModeAsync, methods return streams; [ToolProvider.StreamSpecs] yields
// the raw streaming form and Specs yields the blocking bridge.
type ToolProvider struct {
	provider
	specs   []*ServerTool
	streams []*StreamTool
}

func NewToolProvider(mode Mode, opts *Options) *ToolProvider {
	return &ToolProvider{provider: newProvider(mode, opts)}
}

// Bind registers the described tool methods of recv. When called without
// descriptors, recv must implement [ToolDescriber] and describes itself.
//
// Binding validates each method's signature and prepares its schemas
// immediately; failures are recorded and reported together by Specs, so one
// round trip reports every problem.
func (p *ToolProvider) Bind(recv any, tools ...*Tool) {
	if len(tools) == 0 {
		d, ok := recv.(ToolDescriber)
		if !ok {
			p.fail(fmt.Errorf("tool: %T describes no tools and none were given", recv))
			return
		}
		tools = d.ToolDescriptors()
	}
	for _, d := range tools {
		p.bindTool(recv, d)
	}
}

func (p *ToolProvider) bindTool(recv any, d *Tool) {
	fn, label, err := resolveMethod("tool", recv, d.Method)
	if err != nil {
		p.fail(err)
		return
	}
	c, err := buildContract(toolCapSpec(d), p.mode, p.opts.Stateless, fn, label)
	if errors.Is(err, errWrongMode) {
		p.skip("tool", label)
		return
	}
	if err != nil {
		p.fail(err)
		return
	}
	bm, err := newToolMethod(c, d)
	if err != nil {
		p.fail(fmt.Errorf("tool %s: %w", label, err))
		return
	}
	t := toolDefinition(d, bm)
	if p.mode == ModeAsync {
		p.streams = append(p.streams, &StreamTool{Tool: t, Handler: p.streamHandler(bm)})
		return
	}
	p.specs = append(p.specs, &ServerTool{Tool: t, Handler: p.handler(bm)})
}

// Specs returns the compiled server tools, or the joined error if any
// binding failed. In ModeAsync each tool is the [StreamTool.Blocking]
// bridge of its stream form.
func (p *ToolProvider) Specs() ([]*ServerTool, error) {
	if err := errors.Join(p.errs...); err != nil {
		return nil, err
	}
	if p.mode == ModeAsync {
		specs := make([]*ServerTool, len(p.streams))
		for i, st := range p.streams {
			specs[i] = st.Blocking()
		}
		return specs, nil
	}
	return slices.Clone(p.specs), nil
}

// StreamSpecs returns the compiled stream tools. The provider must be in
// ModeAsync.
func (p *ToolProvider) StreamSpecs() ([]*StreamTool, error) {
	if err := errors.Join(p.errs...); err != nil {
		return nil, err
	}
	if p.mode != ModeAsync {
		return nil, errors.New("tool provider is synchronous; StreamSpecs requires ModeAsync")
	}
	return slices.Clone(p.streams), nil
}

func toolCapSpec(d *Tool) *capSpec {
	cs := &capSpec{
		capability:  "tool",
		session:     typeServerSession,
		request:     reflect.TypeFor[*mcp.CallToolRequest](),
		params:      reflect.TypeFor[*mcp.CallToolParamsRaw](),
		payloads:    []reflect.Type{typeRawMessage, typeAnyMap},
		openPayload: isArgumentStruct,
		classify:    classifyToolReturn,
		voidOK:      true,
	}
	if len(d.Args) > 0 {
		cs.argNames = make([]string, len(d.Args))
		for i, a := range d.Args {
			cs.argNames[i] = a.Name
		}
		cs.argType = func(_ int, t reflect.Type) error {
			switch t.Kind() {
			case reflect.Func, reflect.Chan, reflect.UnsafePointer:
				return fmt.Errorf("type %s cannot receive a JSON value", t)
			}
			return nil
		}
	}
	return cs
}

// newToolMethod prepares the schemas for one bound tool method. The input
// schema derives from the payload shape unless the descriptor overrides it;
// the output schema derives from a structured return type.
func newToolMethod(c *contract, d *Tool) (*boundMethod, error) {
	bm := &boundMethod{contract: c, args: d.Args}

	switch {
	case d.InputSchema != nil:
		resolved, err := resolveSchema(d.InputSchema)
		if err != nil {
			return nil, fmt.Errorf("resolving input schema: %w", err)
		}
		bm.inSchema, bm.inResolved = d.InputSchema, resolved

	case len(d.Args) > 0:
		schema, resolved, err := argsSchema(d.Args, argTypes(c, len(d.Args)))
		if err != nil {
			return nil, err
		}
		bm.inSchema, bm.inResolved = schema, resolved

	default:
		if pt := payloadType(c); pt != nil && isArgumentStruct(pt) {
			schema, resolved, err := schemaForType(pt)
			if err != nil {
				return nil, err
			}
			bm.inSchema, bm.inResolved = schema, resolved
			break
		}
		// Raw payloads and request/params methods validate their own
		// arguments; advertise and enforce only that they form an object.
		schema := &jsonschema.Schema{Type: "object"}
		resolved, err := resolveSchema(schema)
		if err != nil {
			return nil, err
		}
		bm.inSchema, bm.inResolved = schema, resolved
	}

	switch {
	case d.OutputSchema != nil:
		bm.outSchema = d.OutputSchema
	case c.ret.mode == retStructured:
		schema, _, err := schemaForType(c.ret.typ)
		if err != nil {
			return nil, err
		}
		bm.outSchema = schema
	}
	return bm, nil
}

// argTypes collects the method parameter types bound to the n declared
// arguments, in declaration order. Entries are nil for arguments the method
// does not bind.
func argTypes(c *contract, n int) []reflect.Type {
	types := make([]reflect.Type, n)
	i := 0
	for _, b := range c.params {
		if b.role == roleArg {
			types[i] = b.typ
			i++
		}
	}
	return types
}

// payloadType returns the type of the method's rolePayload parameter, if any.
func payloadType(c *contract) reflect.Type {
	for _, b := range c.params {
		if b.role == rolePayload {
			return b.typ
		}
	}
	return nil
}

func toolDefinition(d *Tool, bm *boundMethod) *mcp.Tool {
	name := d.Name
	if name == "" {
		name = defaultName(d.Method)
	}
	t := &mcp.Tool{
		Meta:        d.Meta,
		Name:        name,
		Title:       d.Title,
		Description: d.Description,
		Icons:       d.Icons,
		Annotations: d.Annotations,
		InputSchema: bm.inSchema,
	}
	if bm.outSchema != nil {
		t.OutputSchema = bm.outSchema
	}
	return t
}

func (p *ToolProvider) handler(bm *boundMethod) mcp.ToolHandler {
	observer := p.observer()
	return func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		in, nilReq := toolInputs(bm, req)
		return dispatch(ctx, bm, observer, in, nilReq,
			func(v reflect.Value) (*mcp.CallToolResult, error) {
				return normalizeTool(bm.contract, bm.contract.ret.mode, v)
			},
			errorToolResult)
	}
}

func (p *ToolProvider) streamHandler(bm *boundMethod) StreamToolHandler {
	observer := p.observer()
	return func(ctx context.Context, req *mcp.CallToolRequest) iter.Seq2[*mcp.CallToolResult, error] {
		in, nilReq := toolInputs(bm, req)
		return dispatchStream(ctx, bm, observer, in, nilReq,
			func(v reflect.Value) (*mcp.CallToolResult, error) {
				return normalizeTool(bm.contract, bm.contract.ret.mode, v)
			},
			func(err error) (*mcp.CallToolResult, error) {
				return errorToolResult(err), nil
			})
	}
}

// toolInputs assembles the dispatch inputs for one tool call. All fallible
// work is deferred into the payload closures so that failures surface in the
// binding stage, after validation against the input schema.
func toolInputs(bm *boundMethod, req *mcp.CallToolRequest) (*callInputs, bool) {
	if req == nil || req.Params == nil {
		return nil, true
	}
	params := req.Params
	meta, token := metaOf(params.Meta)
	in := &callInputs{
		request: reflect.ValueOf(req),
		params:  reflect.ValueOf(params),
		meta:    meta,
		token:   token,
	}
	if req.Session != nil {
		in.session = reflect.ValueOf(req.Session)
	}

	var (
		validated json.RawMessage
		verr      error
		done      bool
	)
	validate := func() (json.RawMessage, error) {
		if !done {
			done = true
			validated, verr = applyInput(params.Arguments, bm.inResolved)
		}
		return validated, verr
	}

	var fields map[string]json.RawMessage
	in.payload = func(t reflect.Type) (reflect.Value, error) {
		data, err := validate()
		if err != nil {
			return reflect.Value{}, err
		}
		return unmarshalInto(data, t)
	}
	in.arg = func(name string, t reflect.Type, _ int) (reflect.Value, error) {
		data, err := validate()
		if err != nil {
			return reflect.Value{}, err
		}
		if fields == nil {
			if fields, err = objectFields(data); err != nil {
				return reflect.Value{}, err
			}
		}
		raw, ok := fields[name]
		if !ok {
			// Required fields were enforced by the schema; an absent
			// optional field binds its zero value.
			return reflect.Zero(t), nil
		}
		return unmarshalInto(raw, t)
	}
	return in, false
}
