// Copyright 2026 The Go MCP SDK Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package mcpbind

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"slices"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// A ClientSampling carries a sampling handler for
// [mcp.ClientOptions.CreateMessageHandler].
type ClientSampling struct {
	Handler func(context.Context, *mcp.CreateMessageRequest) (*mcp.CreateMessageResult, error)
}

// A SamplingProvider compiles [Sampling] descriptors against bound values
// into sampling handlers.
//
// Sampling is installed into a single [mcp.ClientOptions] field, so an async
// method's stream is bridged internally: the first streamed result answers
// the request and the stream is released.
type SamplingProvider struct {
	provider
	specs []*ClientSampling
}

func NewSamplingProvider(mode Mode, opts *Options) *SamplingProvider {
	return &SamplingProvider{provider: newProvider(mode, opts)}
}

// Bind registers the described sampling methods of recv. When called
// without descriptors, recv must implement [SamplingDescriber] and
// describes itself.
func (p *SamplingProvider) Bind(recv any, samplings ...*Sampling) {
	if len(samplings) == 0 {
		d, ok := recv.(SamplingDescriber)
		if !ok {
			p.fail(fmt.Errorf("sampling: %T describes no sampling methods and none were given", recv))
			return
		}
		samplings = d.SamplingDescriptors()
	}
	for _, d := range samplings {
		p.bindSampling(recv, d)
	}
}

func (p *SamplingProvider) bindSampling(recv any, d *Sampling) {
	fn, label, err := resolveMethod("sampling", recv, d.Method)
	if err != nil {
		p.fail(err)
		return
	}
	c, err := buildContract(samplingCapSpec(), p.mode, p.opts.Stateless, fn, label)
	if errors.Is(err, errWrongMode) {
		p.skip("sampling", label)
		return
	}
	if err != nil {
		p.fail(err)
		return
	}
	p.specs = append(p.specs, &ClientSampling{Handler: p.handler(&boundMethod{contract: c})})
}

// Specs returns the compiled sampling handlers, or the joined error if any
// binding failed.
func (p *SamplingProvider) Specs() ([]*ClientSampling, error) {
	if err := errors.Join(p.errs...); err != nil {
		return nil, err
	}
	return slices.Clone(p.specs), nil
}

// Apply installs the provider's sampling handler into o. The SDK holds a
// single handler, so a second spec, or a handler already present on o, is a
// configuration error.
func (p *SamplingProvider) Apply(o *mcp.ClientOptions) error {
	specs, err := p.Specs()
	if err != nil {
		return err
	}
	for _, s := range specs {
		if o.CreateMessageHandler != nil {
			return errors.New("sampling: ClientOptions.CreateMessageHandler is already set")
		}
		o.CreateMessageHandler = s.Handler
	}
	return nil
}

func samplingCapSpec() *capSpec {
	return &capSpec{
		capability: "sampling",
		session:    typeClientSession,
		request:    reflect.TypeFor[*mcp.CreateMessageRequest](),
		params:     reflect.TypeFor[*mcp.CreateMessageParams](),
		classify:   classifySamplingReturn,
	}
}

func (p *SamplingProvider) handler(bm *boundMethod) func(context.Context, *mcp.CreateMessageRequest) (*mcp.CreateMessageResult, error) {
	observer := p.observer()
	normalize := func(v reflect.Value) (*mcp.CreateMessageResult, error) {
		return normalizeSampling(bm.contract, bm.contract.ret.mode, v)
	}
	if bm.contract.ret.stream != streamNone {
		method := bm.contract.method
		return func(ctx context.Context, req *mcp.CreateMessageRequest) (*mcp.CreateMessageResult, error) {
			in, nilReq := samplingInputs(req)
			res, err := firstResult(dispatchStream(ctx, bm, observer, in, nilReq, normalize,
				func(err error) (*mcp.CreateMessageResult, error) { return nil, err }))
			if errors.Is(err, errEmptyStream) {
				return nil, fmt.Errorf("sampling %s: %w", method, err)
			}
			return res, err
		}
	}
	return func(ctx context.Context, req *mcp.CreateMessageRequest) (*mcp.CreateMessageResult, error) {
		in, nilReq := samplingInputs(req)
		return dispatch(ctx, bm, observer, in, nilReq, normalize, nil)
	}
}

func samplingInputs(req *mcp.CreateMessageRequest) (*callInputs, bool) {
	if req == nil || req.Params == nil {
		return nil, true
	}
	meta, token := metaOf(req.Params.Meta)
	in := &callInputs{
		request: reflect.ValueOf(req),
		params:  reflect.ValueOf(req.Params),
		meta:    meta,
		token:   token,
	}
	if req.Session != nil {
		in.session = reflect.ValueOf(req.Session)
	}
	return in, false
}
