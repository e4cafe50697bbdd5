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

// A ClientElicitation carries an elicitation handler for
// [mcp.ClientOptions.ElicitationHandler].
type ClientElicitation struct {
	Handler func(context.Context, *mcp.ElicitRequest) (*mcp.ElicitResult, error)
}

// An ElicitationProvider compiles [Elicitation] descriptors against bound
// values into elicitation handlers. Async methods are bridged like
// [SamplingProvider]'s: the first streamed result answers the request.
type ElicitationProvider struct {
	provider
	specs []*ClientElicitation
}

func NewElicitationProvider(mode Mode, opts *Options) *ElicitationProvider {
	return &ElicitationProvider{provider: newProvider(mode, opts)}
}

// Bind registers the described elicitation methods of recv. When called
// without descriptors, recv must implement [ElicitationDescriber] and
// describes itself.
func (p *ElicitationProvider) Bind(recv any, elicitations ...*Elicitation) {
	if len(elicitations) == 0 {
		d, ok := recv.(ElicitationDescriber)
		if !ok {
			p.fail(fmt.Errorf("elicitation: %T describes no elicitation methods and none were given", recv))
			return
		}
		elicitations = d.ElicitationDescriptors()
	}
	for _, d := range elicitations {
		p.bindElicitation(recv, d)
	}
}

func (p *ElicitationProvider) bindElicitation(recv any, d *Elicitation) {
	fn, label, err := resolveMethod("elicitation", recv, d.Method)
	if err != nil {
		p.fail(err)
		return
	}
	c, err := buildContract(elicitationCapSpec(), p.mode, p.opts.Stateless, fn, label)
	if errors.Is(err, errWrongMode) {
		p.skip("elicitation", label)
		return
	}
	if err != nil {
		p.fail(err)
		return
	}
	p.specs = append(p.specs, &ClientElicitation{Handler: p.handler(&boundMethod{contract: c})})
}

// Specs returns the compiled elicitation handlers, or the joined error if
// any binding failed.
func (p *ElicitationProvider) Specs() ([]*ClientElicitation, error) {
	if err := errors.Join(p.errs...); err != nil {
		return nil, err
	}
	return slices.Clone(p.specs), nil
}

// Apply installs the provider's elicitation handler into o. The SDK holds a
// single handler, so a second spec, or a handler already present on o, is a
// configuration error.
func (p *ElicitationProvider) Apply(o *mcp.ClientOptions) error {
	specs, err := p.Specs()
	if err != nil {
		return err
	}
	for _, s := range specs {
		if o.ElicitationHandler != nil {
			return errors.New("elicitation: ClientOptions.ElicitationHandler is already set")
		}
		o.ElicitationHandler = s.Handler
	}
	return nil
}

func elicitationCapSpec() *capSpec {
	return &capSpec{
		capability: "elicitation",
		session:    typeClientSession,
		request:    reflect.TypeFor[*mcp.ElicitRequest](),
		params:     reflect.TypeFor[*mcp.ElicitParams](),
		classify:   classifyElicitationReturn,
	}
}

func (p *ElicitationProvider) handler(bm *boundMethod) func(context.Context, *mcp.ElicitRequest) (*mcp.ElicitResult, error) {
	observer := p.observer()
	normalize := func(v reflect.Value) (*mcp.ElicitResult, error) {
		return normalizeElicitation(bm.contract, bm.contract.ret.mode, v)
	}
	if bm.contract.ret.stream != streamNone {
		method := bm.contract.method
		return func(ctx context.Context, req *mcp.ElicitRequest) (*mcp.ElicitResult, error) {
			in, nilReq := elicitationInputs(req)
			res, err := firstResult(dispatchStream(ctx, bm, observer, in, nilReq, normalize,
				func(err error) (*mcp.ElicitResult, error) { return nil, err }))
			if errors.Is(err, errEmptyStream) {
				return nil, fmt.Errorf("elicitation %s: %w", method, err)
			}
			return res, err
		}
	}
	return func(ctx context.Context, req *mcp.ElicitRequest) (*mcp.ElicitResult, error) {
		in, nilReq := elicitationInputs(req)
		return dispatch(ctx, bm, observer, in, nilReq, normalize, nil)
	}
}

func elicitationInputs(req *mcp.ElicitRequest) (*callInputs, bool) {
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
