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

// A ServerResource pairs a resource definition with its handler, ready for
// [mcp.Server.AddResource].
type ServerResource struct {
	Resource *mcp.Resource
	Handler  mcp.ResourceHandler
}

// A ServerResourceTemplate pairs a resource template definition with its
// handler, ready for [mcp.Server.AddResourceTemplate].
type ServerResourceTemplate struct {
	Template *mcp.ResourceTemplate
	Handler  mcp.ResourceHandler
}

// A StreamResourceHandler produces read results as a sequence. A read
// resolves to a single result, so the blocking bridge takes the first
// element and releases the stream.
type StreamResourceHandler func(ctx context.Context, req *mcp.ReadResourceRequest) iter.Seq2[*mcp.ReadResourceResult, error]

// A StreamResource pairs a resource definition with a streaming handler.
type StreamResource struct {
	Resource *mcp.Resource
	Handler  StreamResourceHandler
}

// A StreamResourceTemplate pairs a resource template definition with a
// streaming handler.
type StreamResourceTemplate struct {
	Template *mcp.ResourceTemplate
	Handler  StreamResourceHandler
}

func blockingRead(name string, h StreamResourceHandler) mcp.ResourceHandler {
	return func(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
		res, err := firstResult(h(ctx, req))
		if err != nil {
			return nil, fmt.Errorf("resource %q: %w", name, err)
		}
		return res, nil
	}
}

// Blocking bridges the streaming handler to the SDK's blocking handler. The
// first streamed result wins; an empty stream is an error.
func (sr *StreamResource) Blocking() *ServerResource {
	return &ServerResource{
		Resource: sr.Resource,
		Handler:  blockingRead(sr.Resource.Name, sr.Handler),
	}
}

// Blocking bridges the streaming handler to the SDK's blocking handler. The
// first streamed result wins; an empty stream is an error.
func (sr *StreamResourceTemplate) Blocking() *ServerResourceTemplate {
	return &ServerResourceTemplate{
		Template: sr.Template,
		Handler:  blockingRead(sr.Template.Name, sr.Handler),
	}
}

// AddResources adds compiled resources to the server.
func AddResources(s *mcp.Server, specs []*ServerResource) {
	for _, r := range specs {
		s.AddResource(r.Resource, r.Handler)
	}
}

// AddResourceTemplates adds compiled resource templates to the server.
func AddResourceTemplates(s *mcp.Server, specs []*ServerResourceTemplate) {
	for _, r := range specs {
		s.AddResourceTemplate(r.Template, r.Handler)
	}
}

// A ResourceProvider compiles [Resource] descriptors against bound values
// into executable resources and resource templates. A descriptor whose URI
// contains a URI Template expression compiles to a template; the others
// compile to fixed resources.
type ResourceProvider struct {
	provider
	resources       []*ServerResource
	templates       []*ServerResourceTemplate
	streamResources []*StreamResource
	streamTemplates []*StreamResourceTemplate
}

func NewResourceProvider(mode Mode, opts *Options) *ResourceProvider {
	return &ResourceProvider{provider: newProvider(mode, opts)}
}

// Bind registers the described resource methods of recv. When called
// without descriptors, recv must implement [ResourceDescriber] and
// describes itself.
func (p *ResourceProvider) Bind(recv any, resources ...*Resource) {
	if len(resources) == 0 {
		d, ok := recv.(ResourceDescriber)
		if !ok {
			p.fail(fmt.Errorf("resource: %T describes no resources and none were given", recv))
			return
		}
		resources = d.ResourceDescriptors()
	}
	for _, d := range resources {
		p.bindResource(recv, d)
	}
}

func (p *ResourceProvider) bindResource(recv any, d *Resource) {
	fn, label, err := resolveMethod("resource", recv, d.Method)
	if err != nil {
		p.fail(err)
		return
	}
	if d.URI == "" {
		p.fail(signatureErrorf("resource", label, "descriptor has no URI"))
		return
	}

	var (
		tmpl     *uritemplate.Template
		varnames []string
	)
	if strings.Contains(d.URI, "{") {
		tmpl, err = uritemplate.New(d.URI)
		if err != nil {
			p.fail(fmt.Errorf("resource %s: parsing URI template %q: %w", label, d.URI, err))
			return
		}
		varnames = tmpl.Varnames()
	}

	c, err := buildContract(resourceCapSpec(varnames), p.mode, p.opts.Stateless, fn, label)
	if errors.Is(err, errWrongMode) {
		p.skip("resource", label)
		return
	}
	if err != nil {
		p.fail(err)
		return
	}
	bm := &boundMethod{contract: c, template: tmpl}

	if tmpl != nil {
		rt := resourceTemplateDefinition(d)
		if p.mode == ModeAsync {
			p.streamTemplates = append(p.streamTemplates, &StreamResourceTemplate{Template: rt, Handler: p.streamHandler(bm, d)})
			return
		}
		p.templates = append(p.templates, &ServerResourceTemplate{Template: rt, Handler: p.handler(bm, d)})
		return
	}
	r := resourceDefinition(d)
	if p.mode == ModeAsync {
		p.streamResources = append(p.streamResources, &StreamResource{Resource: r, Handler: p.streamHandler(bm, d)})
		return
	}
	p.resources = append(p.resources, &ServerResource{Resource: r, Handler: p.handler(bm, d)})
}

// Specs returns the compiled fixed resources, or the joined error if any
// binding failed. In ModeAsync each resource is the blocking bridge of its
// stream form.
func (p *ResourceProvider) Specs() ([]*ServerResource, error) {
	if err := errors.Join(p.errs...); err != nil {
		return nil, err
	}
	if p.mode == ModeAsync {
		specs := make([]*ServerResource, len(p.streamResources))
		for i, sr := range p.streamResources {
			specs[i] = sr.Blocking()
		}
		return specs, nil
	}
	return slices.Clone(p.resources), nil
}

// TemplateSpecs returns the compiled resource templates, or the joined
// error if any binding failed. In ModeAsync each template is the blocking
// bridge of its stream form.
func (p *ResourceProvider) TemplateSpecs() ([]*ServerResourceTemplate, error) {
	if err := errors.Join(p.errs...); err != nil {
		return nil, err
	}
	if p.mode == ModeAsync {
		specs := make([]*ServerResourceTemplate, len(p.streamTemplates))
		for i, sr := range p.streamTemplates {
			specs[i] = sr.Blocking()
		}
		return specs, nil
	}
	return slices.Clone(p.templates), nil
}

// StreamSpecs returns the compiled stream resources. The provider must be
// in ModeAsync.
func (p *ResourceProvider) StreamSpecs() ([]*StreamResource, error) {
	if err := errors.Join(p.errs...); err != nil {
		return nil, err
	}
	if p.mode != ModeAsync {
		return nil, errors.New("resource provider is synchronous; StreamSpecs requires ModeAsync")
	}
	return slices.Clone(p.streamResources), nil
}

// StreamTemplateSpecs returns the compiled stream resource templates. The
// provider must be in ModeAsync.
func (p *ResourceProvider) StreamTemplateSpecs() ([]*StreamResourceTemplate, error) {
	if err := errors.Join(p.errs...); err != nil {
		return nil, err
	}
	if p.mode != ModeAsync {
		return nil, errors.New("resource provider is synchronous; StreamTemplateSpecs requires ModeAsync")
	}
	return slices.Clone(p.streamTemplates), nil
}

// resourceCapSpec builds the calling convention for a resource method. For
// templates, the method's trailing string parameters receive the template
// variables in order of appearance; for fixed resources a single string
// parameter receives the requested URI.
func resourceCapSpec(varnames []string) *capSpec {
	cs := &capSpec{
		capability: "resource",
		session:    typeServerSession,
		request:    reflect.TypeFor[*mcp.ReadResourceRequest](),
		params:     reflect.TypeFor[*mcp.ReadResourceParams](),
		payloads:   []reflect.Type{typeString},
		classify:   classifyResourceReturn,
	}
	if len(varnames) > 0 {
		cs.argNames = varnames
		cs.argType = func(_ int, t reflect.Type) error {
			if t != typeString {
				return fmt.Errorf("template variables are strings; got %s", t)
			}
			return nil
		}
	}
	return cs
}

func resourceDefinition(d *Resource) *mcp.Resource {
	name := d.Name
	if name == "" {
		name = defaultName(d.Method)
	}
	return &mcp.Resource{
		Meta:        d.Meta,
		Name:        name,
		Title:       d.Title,
		Description: d.Description,
		Icons:       d.Icons,
		MIMEType:    d.MIMEType,
		Annotations: d.Annotations,
		URI:         d.URI,
	}
}

func resourceTemplateDefinition(d *Resource) *mcp.ResourceTemplate {
	name := d.Name
	if name == "" {
		name = defaultName(d.Method)
	}
	return &mcp.ResourceTemplate{
		Meta:        d.Meta,
		Name:        name,
		Title:       d.Title,
		Description: d.Description,
		Icons:       d.Icons,
		MIMEType:    d.MIMEType,
		Annotations: d.Annotations,
		URITemplate: d.URI,
	}
}

func (p *ResourceProvider) handler(bm *boundMethod, d *Resource) mcp.ResourceHandler {
	observer := p.observer()
	mimeType := d.MIMEType
	return func(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
		in, nilReq := resourceInputs(bm, d.URI, req)
		var uri string
		if !nilReq {
			uri = req.Params.URI
		}
		return dispatch(ctx, bm, observer, in, nilReq,
			func(v reflect.Value) (*mcp.ReadResourceResult, error) {
				return normalizeResource(bm.contract, uri, mimeType, bm.contract.ret.mode, v)
			},
			nil)
	}
}

func (p *ResourceProvider) streamHandler(bm *boundMethod, d *Resource) StreamResourceHandler {
	observer := p.observer()
	mimeType := d.MIMEType
	return func(ctx context.Context, req *mcp.ReadResourceRequest) iter.Seq2[*mcp.ReadResourceResult, error] {
		in, nilReq := resourceInputs(bm, d.URI, req)
		var uri string
		if !nilReq {
			uri = req.Params.URI
		}
		return dispatchStream(ctx, bm, observer, in, nilReq,
			func(v reflect.Value) (*mcp.ReadResourceResult, error) {
				return normalizeResource(bm.contract, uri, mimeType, bm.contract.ret.mode, v)
			},
			func(err error) (*mcp.ReadResourceResult, error) {
				return nil, err
			})
	}
}

// resourceInputs assembles the dispatch inputs for one read. For templates,
// the requested URI is matched against the template during binding; a URI
// the template does not match fails the call.
func resourceInputs(bm *boundMethod, rawTemplate string, req *mcp.ReadResourceRequest) (*callInputs, bool) {
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
		return reflect.ValueOf(params.URI), nil
	}
	if bm.template != nil {
		var (
			vars map[string]string
			verr error
			done bool
		)
		in.arg = func(name string, _ reflect.Type, _ int) (reflect.Value, error) {
			if !done {
				done = true
				vars, verr = templateVars(bm.template, rawTemplate, params.URI)
			}
			if verr != nil {
				return reflect.Value{}, verr
			}
			return reflect.ValueOf(vars[name]), nil
		}
	}
	return in, false
}
