// Copyright 2026 The Go MCP SDK Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// This file holds the notification consumer providers: logging messages,
// progress notifications, and the three list-changed notifications. Their
// handlers return nothing to the SDK, so dispatch failures are logged rather
// than propagated, and there is no sync/async distinction to bridge.

package mcpbind

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"slices"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// consumeNotification drives one notification dispatch. A failed dispatch
// has no error channel back to the SDK; it is logged.
func consumeNotification(ctx context.Context, bm *boundMethod, observer func(CallEvent), log *slog.Logger, in *callInputs, nilReq bool) {
	_, err := dispatch(ctx, bm, observer, in, nilReq,
		func(reflect.Value) (struct{}, error) { return struct{}{}, nil },
		nil)
	if err != nil {
		log.Error("mcpbind: notification consumer failed",
			"capability", bm.contract.capability, "method", bm.contract.method, "error", err)
	}
}

// A ClientLogging carries a logging consumer for
// [mcp.ClientOptions.LoggingMessageHandler].
type ClientLogging struct {
	Handler func(context.Context, *mcp.LoggingMessageRequest)
}

// A LoggingConsumerProvider compiles [LoggingConsumer] descriptors against
// bound values into logging message consumers.
type LoggingConsumerProvider struct {
	provider
	specs []*ClientLogging
}

func NewLoggingConsumerProvider(opts *Options) *LoggingConsumerProvider {
	return &LoggingConsumerProvider{provider: newProvider(ModeSync, opts)}
}

// Bind registers the described logging consumer methods of recv. When
// called without descriptors, recv must implement
// [LoggingConsumerDescriber] and describes itself.
func (p *LoggingConsumerProvider) Bind(recv any, consumers ...*LoggingConsumer) {
	if len(consumers) == 0 {
		d, ok := recv.(LoggingConsumerDescriber)
		if !ok {
			p.fail(fmt.Errorf("logging: %T describes no logging consumers and none were given", recv))
			return
		}
		consumers = d.LoggingConsumerDescriptors()
	}
	for _, d := range consumers {
		p.bindLogging(recv, d)
	}
}

func (p *LoggingConsumerProvider) bindLogging(recv any, d *LoggingConsumer) {
	fn, label, err := resolveMethod("logging", recv, d.Method)
	if err != nil {
		p.fail(err)
		return
	}
	cs := &capSpec{
		capability: "logging",
		session:    typeClientSession,
		request:    reflect.TypeFor[*mcp.LoggingMessageRequest](),
		params:     reflect.TypeFor[*mcp.LoggingMessageParams](),
		consumer:   true,
	}
	c, err := buildContract(cs, p.mode, p.opts.Stateless, fn, label)
	if err != nil {
		p.fail(err)
		return
	}
	p.specs = append(p.specs, &ClientLogging{Handler: p.handler(&boundMethod{contract: c})})
}

// Specs returns the compiled logging consumers, or the joined error if any
// binding failed.
func (p *LoggingConsumerProvider) Specs() ([]*ClientLogging, error) {
	if err := errors.Join(p.errs...); err != nil {
		return nil, err
	}
	return slices.Clone(p.specs), nil
}

// Apply installs the provider's logging consumer into o. A second spec, or
// a handler already present on o, is a configuration error.
func (p *LoggingConsumerProvider) Apply(o *mcp.ClientOptions) error {
	specs, err := p.Specs()
	if err != nil {
		return err
	}
	for _, s := range specs {
		if o.LoggingMessageHandler != nil {
			return errors.New("logging: ClientOptions.LoggingMessageHandler is already set")
		}
		o.LoggingMessageHandler = s.Handler
	}
	return nil
}

func (p *LoggingConsumerProvider) handler(bm *boundMethod) func(context.Context, *mcp.LoggingMessageRequest) {
	observer := p.observer()
	log := p.logger()
	return func(ctx context.Context, req *mcp.LoggingMessageRequest) {
		var in *callInputs
		nilReq := req == nil || req.Params == nil
		if !nilReq {
			meta, token := metaOf(req.Params.Meta)
			in = &callInputs{
				request: reflect.ValueOf(req),
				params:  reflect.ValueOf(req.Params),
				meta:    meta,
				token:   token,
			}
			if req.Session != nil {
				in.session = reflect.ValueOf(req.Session)
			}
		}
		consumeNotification(ctx, bm, observer, log, in, nilReq)
	}
}

// A ClientProgress carries a progress consumer for
// [mcp.ClientOptions.ProgressNotificationHandler].
type ClientProgress struct {
	Handler func(context.Context, *mcp.ProgressNotificationClientRequest)
}

// A ProgressConsumerProvider compiles [ProgressConsumer] descriptors
// against bound values into progress notification consumers.
type ProgressConsumerProvider struct {
	provider
	specs []*ClientProgress
}

func NewProgressConsumerProvider(opts *Options) *ProgressConsumerProvider {
	return &ProgressConsumerProvider{provider: newProvider(ModeSync, opts)}
}

// Bind registers the described progress consumer methods of recv. When
// called without descriptors, recv must implement
// [ProgressConsumerDescriber] and describes itself.
func (p *ProgressConsumerProvider) Bind(recv any, consumers ...*ProgressConsumer) {
	if len(consumers) == 0 {
		d, ok := recv.(ProgressConsumerDescriber)
		if !ok {
			p.fail(fmt.Errorf("progress: %T describes no progress consumers and none were given", recv))
			return
		}
		consumers = d.ProgressConsumerDescriptors()
	}
	for _, d := range consumers {
		p.bindProgress(recv, d)
	}
}

func (p *ProgressConsumerProvider) bindProgress(recv any, d *ProgressConsumer) {
	fn, label, err := resolveMethod("progress", recv, d.Method)
	if err != nil {
		p.fail(err)
		return
	}
	c, err := buildContract(progressCapSpec(), p.mode, p.opts.Stateless, fn, label)
	if err != nil {
		p.fail(err)
		return
	}
	p.specs = append(p.specs, &ClientProgress{Handler: p.handler(&boundMethod{contract: c})})
}

// Specs returns the compiled progress consumers, or the joined error if any
// binding failed.
func (p *ProgressConsumerProvider) Specs() ([]*ClientProgress, error) {
	if err := errors.Join(p.errs...); err != nil {
		return nil, err
	}
	return slices.Clone(p.specs), nil
}

// Apply installs the provider's progress consumer into o. A second spec, or
// a handler already present on o, is a configuration error.
func (p *ProgressConsumerProvider) Apply(o *mcp.ClientOptions) error {
	specs, err := p.Specs()
	if err != nil {
		return err
	}
	for _, s := range specs {
		if o.ProgressNotificationHandler != nil {
			return errors.New("progress: ClientOptions.ProgressNotificationHandler is already set")
		}
		o.ProgressNotificationHandler = s.Handler
	}
	return nil
}

// progressCapSpec accepts the notification request or params, or the
// sub-field triple (progress float64, total float64, message string). The
// notification's token is available through the ProgressToken role.
func progressCapSpec() *capSpec {
	return &capSpec{
		capability: "progress",
		session:    typeClientSession,
		request:    reflect.TypeFor[*mcp.ProgressNotificationClientRequest](),
		params:     reflect.TypeFor[*mcp.ProgressNotificationParams](),
		argNames:   []string{"progress", "total", "message"},
		argType: func(i int, t reflect.Type) error {
			want := typeFloat64
			if i == 2 {
				want = typeString
			}
			if t != want {
				return fmt.Errorf("want %s, got %s", want, t)
			}
			return nil
		},
		consumer: true,
	}
}

func (p *ProgressConsumerProvider) handler(bm *boundMethod) func(context.Context, *mcp.ProgressNotificationClientRequest) {
	observer := p.observer()
	log := p.logger()
	return func(ctx context.Context, req *mcp.ProgressNotificationClientRequest) {
		var in *callInputs
		nilReq := req == nil || req.Params == nil
		if !nilReq {
			params := req.Params
			meta, _ := metaOf(params.Meta)
			in = &callInputs{
				request: reflect.ValueOf(req),
				params:  reflect.ValueOf(params),
				meta:    meta,
				token:   params.ProgressToken,
			}
			if req.Session != nil {
				in.session = reflect.ValueOf(req.Session)
			}
			in.arg = func(name string, _ reflect.Type, _ int) (reflect.Value, error) {
				switch name {
				case "progress":
					return reflect.ValueOf(params.Progress), nil
				case "total":
					return reflect.ValueOf(params.Total), nil
				}
				return reflect.ValueOf(params.Message), nil
			}
		}
		consumeNotification(ctx, bm, observer, log, in, nilReq)
	}
}

// A ClientListChanged carries a list-changed consumer. Kind selects the
// notification; exactly one of the handler fields is set, matching Kind, in
// the manner of [mcp.CompleteReference]'s tagged fields.
type ClientListChanged struct {
	Kind ListChangedKind

	Tool     func(context.Context, *mcp.ToolListChangedRequest)
	Prompt   func(context.Context, *mcp.PromptListChangedRequest)
	Resource func(context.Context, *mcp.ResourceListChangedRequest)
}

// A ListChangedProvider compiles [ListChangedConsumer] descriptors against
// bound values into list-changed notification consumers.
type ListChangedProvider struct {
	provider
	specs []*ClientListChanged
}

func NewListChangedProvider(opts *Options) *ListChangedProvider {
	return &ListChangedProvider{provider: newProvider(ModeSync, opts)}
}

// Bind registers the described list-changed consumer methods of recv. When
// called without descriptors, recv must implement
// [ListChangedConsumerDescriber] and describes itself.
func (p *ListChangedProvider) Bind(recv any, consumers ...*ListChangedConsumer) {
	if len(consumers) == 0 {
		d, ok := recv.(ListChangedConsumerDescriber)
		if !ok {
			p.fail(fmt.Errorf("list-changed: %T describes no list-changed consumers and none were given", recv))
			return
		}
		consumers = d.ListChangedConsumerDescriptors()
	}
	for _, d := range consumers {
		p.bindListChanged(recv, d)
	}
}

func (p *ListChangedProvider) bindListChanged(recv any, d *ListChangedConsumer) {
	capability := d.Kind.String()
	fn, label, err := resolveMethod(capability, recv, d.Method)
	if err != nil {
		p.fail(err)
		return
	}

	cs := &capSpec{
		capability: capability,
		session:    typeClientSession,
		consumer:   true,
	}
	switch d.Kind {
	case ToolListChanged:
		cs.request = reflect.TypeFor[*mcp.ToolListChangedRequest]()
		cs.params = reflect.TypeFor[*mcp.ToolListChangedParams]()
	case PromptListChanged:
		cs.request = reflect.TypeFor[*mcp.PromptListChangedRequest]()
		cs.params = reflect.TypeFor[*mcp.PromptListChangedParams]()
	case ResourceListChanged:
		cs.request = reflect.TypeFor[*mcp.ResourceListChangedRequest]()
		cs.params = reflect.TypeFor[*mcp.ResourceListChangedParams]()
	default:
		p.fail(signatureErrorf("list-changed", label, "unknown kind %d", d.Kind))
		return
	}

	c, err := buildContract(cs, p.mode, p.opts.Stateless, fn, label)
	if err != nil {
		p.fail(err)
		return
	}
	bm := &boundMethod{contract: c}
	spec := &ClientListChanged{Kind: d.Kind}
	switch d.Kind {
	case ToolListChanged:
		spec.Tool = p.toolHandler(bm)
	case PromptListChanged:
		spec.Prompt = p.promptHandler(bm)
	case ResourceListChanged:
		spec.Resource = p.resourceHandler(bm)
	}
	p.specs = append(p.specs, spec)
}

// Specs returns the compiled list-changed consumers, or the joined error if
// any binding failed.
func (p *ListChangedProvider) Specs() ([]*ClientListChanged, error) {
	if err := errors.Join(p.errs...); err != nil {
		return nil, err
	}
	return slices.Clone(p.specs), nil
}

// Apply installs the provider's consumers into o, one per kind. A second
// spec of a kind, or a handler already present on o, is a configuration
// error.
func (p *ListChangedProvider) Apply(o *mcp.ClientOptions) error {
	specs, err := p.Specs()
	if err != nil {
		return err
	}
	for _, s := range specs {
		switch s.Kind {
		case ToolListChanged:
			if o.ToolListChangedHandler != nil {
				return errors.New("list-changed: ClientOptions.ToolListChangedHandler is already set")
			}
			o.ToolListChangedHandler = s.Tool
		case PromptListChanged:
			if o.PromptListChangedHandler != nil {
				return errors.New("list-changed: ClientOptions.PromptListChangedHandler is already set")
			}
			o.PromptListChangedHandler = s.Prompt
		case ResourceListChanged:
			if o.ResourceListChangedHandler != nil {
				return errors.New("list-changed: ClientOptions.ResourceListChangedHandler is already set")
			}
			o.ResourceListChangedHandler = s.Resource
		}
	}
	return nil
}

func (p *ListChangedProvider) toolHandler(bm *boundMethod) func(context.Context, *mcp.ToolListChangedRequest) {
	observer := p.observer()
	log := p.logger()
	return func(ctx context.Context, req *mcp.ToolListChangedRequest) {
		var in *callInputs
		nilReq := req == nil || req.Params == nil
		if !nilReq {
			meta, token := metaOf(req.Params.Meta)
			in = &callInputs{request: reflect.ValueOf(req), params: reflect.ValueOf(req.Params), meta: meta, token: token}
			if req.Session != nil {
				in.session = reflect.ValueOf(req.Session)
			}
		}
		consumeNotification(ctx, bm, observer, log, in, nilReq)
	}
}

func (p *ListChangedProvider) promptHandler(bm *boundMethod) func(context.Context, *mcp.PromptListChangedRequest) {
	observer := p.observer()
	log := p.logger()
	return func(ctx context.Context, req *mcp.PromptListChangedRequest) {
		var in *callInputs
		nilReq := req == nil || req.Params == nil
		if !nilReq {
			meta, token := metaOf(req.Params.Meta)
			in = &callInputs{request: reflect.ValueOf(req), params: reflect.ValueOf(req.Params), meta: meta, token: token}
			if req.Session != nil {
				in.session = reflect.ValueOf(req.Session)
			}
		}
		consumeNotification(ctx, bm, observer, log, in, nilReq)
	}
}

func (p *ListChangedProvider) resourceHandler(bm *boundMethod) func(context.Context, *mcp.ResourceListChangedRequest) {
	observer := p.observer()
	log := p.logger()
	return func(ctx context.Context, req *mcp.ResourceListChangedRequest) {
		var in *callInputs
		nilReq := req == nil || req.Params == nil
		if !nilReq {
			meta, token := metaOf(req.Params.Meta)
			in = &callInputs{request: reflect.ValueOf(req), params: reflect.ValueOf(req.Params), meta: meta, token: token}
			if req.Session != nil {
				in.session = reflect.ValueOf(req.Session)
			}
		}
		consumeNotification(ctx, bm, observer, log, in, nilReq)
	}
}
