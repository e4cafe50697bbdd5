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
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/yosida95/uritemplate/v3"
)

// A ServerCompletion pairs a completion reference with the handler that
// serves it. Route a set of completions into a server with
// [RouteCompletions].
type ServerCompletion struct {
	Ref     *mcp.CompleteReference
	Handler func(context.Context, *mcp.CompleteRequest) (*mcp.CompleteResult, error)
}

// A StreamCompletionHandler produces completion results as a sequence. A
// completion resolves to a single result, so the blocking bridge takes the
// first element and releases the stream.
type StreamCompletionHandler func(ctx context.Context, req *mcp.CompleteRequest) iter.Seq2[*mcp.CompleteResult, error]

// A StreamCompletion pairs a completion reference with a streaming handler.
type StreamCompletion struct {
	Ref     *mcp.CompleteReference
	Handler StreamCompletionHandler
}

// Blocking bridges the streaming handler to the SDK's blocking handler. The
// first streamed result wins; an empty stream is an error.
func (sc *StreamCompletion) Blocking() *ServerCompletion {
	h := sc.Handler
	ref := sc.Ref
	return &ServerCompletion{
		Ref: ref,
		Handler: func(ctx context.Context, req *mcp.CompleteRequest) (*mcp.CompleteResult, error) {
			res, err := firstResult(h(ctx, req))
			if err != nil {
				return nil, fmt.Errorf("completion for %s: %w", refLabel(ref), err)
			}
			return res, nil
		},
	}
}

func refLabel(ref *mcp.CompleteReference) string {
	if ref.Type == "ref/prompt" {
		return fmt.Sprintf("prompt %q", ref.Name)
	}
	return fmt.Sprintf("resource %q", ref.URI)
}

// RouteCompletions builds the server's completion handler from compiled
// completions. Prompt references route by name. Resource references route by
// URI: first an exact match (which covers requests carrying the template
// itself), then the first template that matches the requested URI.
func RouteCompletions(specs ...*ServerCompletion) func(context.Context, *mcp.CompleteRequest) (*mcp.CompleteResult, error) {
	type route struct {
		spec *ServerCompletion
		tmpl *uritemplate.Template
	}
	prompts := make(map[string]*ServerCompletion)
	exact := make(map[string]*ServerCompletion)
	var templated []route
	for _, sc := range specs {
		switch sc.Ref.Type {
		case "ref/prompt":
			prompts[sc.Ref.Name] = sc
		case "ref/resource":
			exact[sc.Ref.URI] = sc
			if strings.Contains(sc.Ref.URI, "{") {
				if tmpl, err := uritemplate.New(sc.Ref.URI); err == nil {
					templated = append(templated, route{sc, tmpl})
				}
			}
		}
	}
	return func(ctx context.Context, req *mcp.CompleteRequest) (*mcp.CompleteResult, error) {
		if req == nil || req.Params == nil || req.Params.Ref == nil {
			return nil, ErrNilRequest
		}
		ref := req.Params.Ref
		switch ref.Type {
		case "ref/prompt":
			if sc, ok := prompts[ref.Name]; ok {
				return sc.Handler(ctx, req)
			}
		case "ref/resource":
			if sc, ok := exact[ref.URI]; ok {
				return sc.Handler(ctx, req)
			}
			for _, r := range templated {
				if r.tmpl.Match(ref.URI) != nil {
					return r.spec.Handler(ctx, req)
				}
			}
		}
		return nil, fmt.Errorf("no completion bound for %s", refLabel(ref))
	}
}

// A CompletionProvider compiles [Completion] descriptors against bound
// values into executable completions.
type CompletionProvider struct {
	provider
	specs   []*ServerCompletion
	streams []*StreamCompletion
}

func NewCompletionProvider(mode Mode, opts *Options) *CompletionProvider {
	return &CompletionProvider{provider: newProvider(mode, opts)}
}

// Bind registers the described completion methods of recv. When called
// without descriptors, recv must implement [CompletionDescriber] and
// describes itself.
func (p *CompletionProvider) Bind(recv any, completions ...*Completion) {
	if len(completions) == 0 {
		d, ok := recv.(CompletionDescriber)
		if !ok {
			p.fail(fmt.Errorf("completion: %T describes no completions and none were given", recv))
			return
		}
		completions = d.CompletionDescriptors()
	}
	for _, d := range completions {
		p.bindCompletion(recv, d)
	}
}

func (p *CompletionProvider) bindCompletion(recv any, d *Completion) {
	fn, label, err := resolveMethod("completion", recv, d.Method)
	if err != nil {
		p.fail(err)
		return
	}
	ref, err := completionRef(d, label)
	if err != nil {
		p.fail(err)
		return
	}
	c, err := buildContract(completionCapSpec(), p.mode, p.opts.Stateless, fn, label)
	if errors.Is(err, errWrongMode) {
		p.skip("completion", label)
		return
	}
	if err != nil {
		p.fail(err)
		return
	}
	bm := &boundMethod{contract: c}
	if p.mode == ModeAsync {
		p.streams = append(p.streams, &StreamCompletion{Ref: ref, Handler: p.streamHandler(bm)})
		return
	}
	p.specs = append(p.specs, &ServerCompletion{Ref: ref, Handler: p.handler(bm)})
}

// Specs returns the compiled completions, or the joined error if any
// binding failed. In ModeAsync each completion is the
// [StreamCompletion.Blocking] bridge of its stream form.
func (p *CompletionProvider) Specs() ([]*ServerCompletion, error) {
	if err := errors.Join(p.errs...); err != nil {
		return nil, err
	}
	if p.mode == ModeAsync {
		specs := make([]*ServerCompletion, len(p.streams))
		for i, sc := range p.streams {
			specs[i] = sc.Blocking()
		}
		return specs, nil
	}
	return slices.Clone(p.specs), nil
}

// StreamSpecs returns the compiled stream completions. The provider must be
// in ModeAsync.
func (p *CompletionProvider) StreamSpecs() ([]*StreamCompletion, error) {
	if err := errors.Join(p.errs...); err != nil {
		return nil, err
	}
	if p.mode != ModeAsync {
		return nil, errors.New("completion provider is synchronous; StreamSpecs requires ModeAsync")
	}
	return slices.Clone(p.streams), nil
}

func completionRef(d *Completion, label string) (*mcp.CompleteReference, error) {
	switch {
	case d.Prompt != "" && d.ResourceURI != "":
		return nil, signatureErrorf("completion", label, "both Prompt and ResourceURI are set")
	case d.Prompt != "":
		return &mcp.CompleteReference{Type: "ref/prompt", Name: d.Prompt}, nil
	case d.ResourceURI != "":
		return &mcp.CompleteReference{Type: "ref/resource", URI: d.ResourceURI}, nil
	}
	return nil, signatureErrorf("completion", label, "one of Prompt or ResourceURI is required")
}

func completionCapSpec() *capSpec {
	return &capSpec{
		capability: "completion",
		session:    typeServerSession,
		request:    reflect.TypeFor[*mcp.CompleteRequest](),
		params:     reflect.TypeFor[*mcp.CompleteParams](),
		payloads:   []reflect.Type{reflect.TypeFor[mcp.CompleteParamsArgument](), typeString},
		extra:      reflect.TypeFor[*mcp.CompleteContext](),
		classify:   classifyCompletionReturn,
	}
}

func (p *CompletionProvider) handler(bm *boundMethod) func(context.Context, *mcp.CompleteRequest) (*mcp.CompleteResult, error) {
	observer := p.observer()
	return func(ctx context.Context, req *mcp.CompleteRequest) (*mcp.CompleteResult, error) {
		in, nilReq := completionInputs(req)
		return dispatch(ctx, bm, observer, in, nilReq,
			func(v reflect.Value) (*mcp.CompleteResult, error) {
				return normalizeCompletion(bm.contract, bm.contract.ret.mode, v)
			},
			nil)
	}
}

func (p *CompletionProvider) streamHandler(bm *boundMethod) StreamCompletionHandler {
	observer := p.observer()
	return func(ctx context.Context, req *mcp.CompleteRequest) iter.Seq2[*mcp.CompleteResult, error] {
		in, nilReq := completionInputs(req)
		return dispatchStream(ctx, bm, observer, in, nilReq,
			func(v reflect.Value) (*mcp.CompleteResult, error) {
				return normalizeCompletion(bm.contract, bm.contract.ret.mode, v)
			},
			func(err error) (*mcp.CompleteResult, error) {
				return nil, err
			})
	}
}

// completionInputs assembles the dispatch inputs for one completion call.
// The payload is the argument under completion: a string parameter receives
// its value, a [mcp.CompleteParamsArgument] parameter receives name and
// value.
func completionInputs(req *mcp.CompleteRequest) (*callInputs, bool) {
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
		extra:   reflect.ValueOf(params.Context),
	}
	if req.Session != nil {
		in.session = reflect.ValueOf(req.Session)
	}
	in.payload = func(t reflect.Type) (reflect.Value, error) {
		if t == typeString {
			return reflect.ValueOf(params.Argument.Value), nil
		}
		return reflect.ValueOf(params.Argument), nil
	}
	return in, false
}
