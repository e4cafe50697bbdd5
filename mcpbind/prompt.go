// Copyright 2026 The Go MCP SDK Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package mcpbind

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"reflect"
	"slices"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// A ServerPrompt pairs a prompt definition with its handler, ready for
// [mcp.Server.AddPrompt].
type ServerPrompt struct {
	Prompt  *mcp.Prompt
	Handler mcp.PromptHandler
}

// A StreamPromptHandler produces prompt results as a sequence. A prompt
// call resolves to a single result, so the blocking bridge takes the first
// element and releases the stream.
type StreamPromptHandler func(ctx context.Context, req *mcp.GetPromptRequest) iter.Seq2[*mcp.GetPromptResult, error]

// A StreamPrompt pairs a prompt definition with a streaming handler.
type StreamPrompt struct {
	Prompt  *mcp.Prompt
	Handler StreamPromptHandler
}

// Blocking bridges the streaming handler to the SDK's blocking handler. The
// first streamed result wins; an empty stream is an error.
func (sp *StreamPrompt) Blocking() *ServerPrompt {
	h := sp.Handler
	name := sp.Prompt.Name
	return &ServerPrompt{
		Prompt: sp.Prompt,
		Handler: func(ctx context.Context, req *mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
			res, err := firstResult(h(ctx, req))
			if err != nil {
				return nil, fmt.Errorf("prompt %q: %w", name, err)
			}
			return res, nil
		},
	}
}

// AddPrompts adds compiled prompts to the server.
func AddPrompts(s *mcp.Server, specs []*ServerPrompt) {
	for _, p := range specs {
		s.AddPrompt(p.Prompt, p.Handler)
	}
}

// A PromptProvider compiles [Prompt] descriptors against bound values into
// executable server prompts.
type PromptProvider struct {
	provider
	specs   []*ServerPrompt
	streams []*StreamPrompt
}

func NewPromptProvider(mode Mode, opts *Options) *PromptProvider {
	return &PromptProvider{provider: newProvider(mode, opts)}
}

// Bind registers the described prompt methods of recv. When called without
// descriptors, recv must implement [PromptDescriber] and describes itself.
func (p *PromptProvider) Bind(recv any, prompts ...*Prompt) {
	if len(prompts) == 0 {
		d, ok := recv.(PromptDescriber)
		if !ok {
			p.fail(fmt.Errorf("prompt: %T describes no prompts and none were given", recv))
			return
		}
		prompts = d.PromptDescriptors()
	}
	for _, d := range prompts {
		p.bindPrompt(recv, d)
	}
}

func (p *PromptProvider) bindPrompt(recv any, d *Prompt) {
	fn, label, err := resolveMethod("prompt", recv, d.Method)
	if err != nil {
		p.fail(err)
		return
	}
	c, err := buildContract(promptCapSpec(d), p.mode, p.opts.Stateless, fn, label)
	if errors.Is(err, errWrongMode) {
		p.skip("prompt", label)
		return
	}
	if err != nil {
		p.fail(err)
		return
	}
	bm := &boundMethod{contract: c, args: d.Args}
	pr := promptDefinition(d)
	if p.mode == ModeAsync {
		p.streams = append(p.streams, &StreamPrompt{Prompt: pr, Handler: p.streamHandler(bm, d.Description)})
		return
	}
	p.specs = append(p.specs, &ServerPrompt{Prompt: pr, Handler: p.handler(bm, d.Description)})
}

// Specs returns the compiled server prompts, or the joined error if any
// binding failed. In ModeAsync each prompt is the [StreamPrompt.Blocking]
// bridge of its stream form.
func (p *PromptProvider) Specs() ([]*ServerPrompt, error) {
	if err := errors.Join(p.errs...); err != nil {
		return nil, err
	}
	if p.mode == ModeAsync {
		specs := make([]*ServerPrompt, len(p.streams))
		for i, sp := range p.streams {
			specs[i] = sp.Blocking()
		}
		return specs, nil
	}
	return slices.Clone(p.specs), nil
}

// StreamSpecs returns the compiled stream prompts. The provider must be in
// ModeAsync.
func (p *PromptProvider) StreamSpecs() ([]*StreamPrompt, error) {
	if err := errors.Join(p.errs...); err != nil {
		return nil, err
	}
	if p.mode != ModeAsync {
		return nil, errors.New("prompt provider is synchronous; StreamSpecs requires ModeAsync")
	}
	return slices.Clone(p.streams), nil
}

func promptCapSpec(d *Prompt) *capSpec {
	cs := &capSpec{
		capability: "prompt",
		session:    typeServerSession,
		request:    reflect.TypeFor[*mcp.GetPromptRequest](),
		params:     reflect.TypeFor[*mcp.GetPromptParams](),
		payloads:   []reflect.Type{typeStringMap},
		classify:   classifyPromptReturn,
	}
	if len(d.Args) > 0 {
		cs.argNames = make([]string, len(d.Args))
		for i, a := range d.Args {
			cs.argNames[i] = a.Name
		}
		cs.argType = func(_ int, t reflect.Type) error {
			if t != typeString {
				return fmt.Errorf("prompt arguments are strings on the wire; got %s", t)
			}
			return nil
		}
	}
	return cs
}

func promptDefinition(d *Prompt) *mcp.Prompt {
	name := d.Name
	if name == "" {
		name = defaultName(d.Method)
	}
	pr := &mcp.Prompt{
		Meta:        d.Meta,
		Name:        name,
		Title:       d.Title,
		Description: d.Description,
		Icons:       d.Icons,
	}
	for _, a := range d.Args {
		pr.Arguments = append(pr.Arguments, &mcp.PromptArgument{
			Name:        a.Name,
			Description: a.Description,
			Required:    a.Required,
		})
	}
	return pr
}

func (p *PromptProvider) handler(bm *boundMethod, description string) mcp.PromptHandler {
	observer := p.observer()
	return func(ctx context.Context, req *mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
		in, nilReq := promptInputs(bm, req)
		return dispatch(ctx, bm, observer, in, nilReq,
			func(v reflect.Value) (*mcp.GetPromptResult, error) {
				return normalizePrompt(bm.contract, description, bm.contract.ret.mode, v)
			},
			nil)
	}
}

func (p *PromptProvider) streamHandler(bm *boundMethod, description string) StreamPromptHandler {
	observer := p.observer()
	return func(ctx context.Context, req *mcp.GetPromptRequest) iter.Seq2[*mcp.GetPromptResult, error] {
		in, nilReq := promptInputs(bm, req)
		return dispatchStream(ctx, bm, observer, in, nilReq,
			func(v reflect.Value) (*mcp.GetPromptResult, error) {
				return normalizePrompt(bm.contract, description, bm.contract.ret.mode, v)
			},
			func(err error) (*mcp.GetPromptResult, error) {
				return nil, err
			})
	}
}

// promptInputs assembles the dispatch inputs for one prompt call. Prompt
// arguments are strings on the wire; a missing required argument fails the
// bind before the method runs.
func promptInputs(bm *boundMethod, req *mcp.GetPromptRequest) (*callInputs, bool) {
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
	in.payload = func(reflect.Type) (reflect.Value, error) {
		args := params.Arguments
		if args == nil {
			args = map[string]string{}
		}
		return reflect.ValueOf(args), nil
	}
	in.arg = func(name string, _ reflect.Type, idx int) (reflect.Value, error) {
		s, ok := params.Arguments[name]
		if !ok && bm.args[idx].Required {
			return reflect.Value{}, fmt.Errorf("missing required argument %q", name)
		}
		return reflect.ValueOf(s), nil
	}
	return in, false
}
