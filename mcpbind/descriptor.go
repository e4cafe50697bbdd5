// Copyright 2026 The Go MCP SDK Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// This file holds the descriptor types: the declarative markers that name a
// method on a bound value and carry its capability metadata. Descriptors are
// data only. They are interpreted when a provider compiles its specs, not
// when they are created.

package mcpbind

import (
	"unicode"
	"unicode/utf8"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// An Arg describes one payload sub-field, bound to one method parameter.
//
// When a [Tool] or [Prompt] descriptor carries Args, the method's parameters
// (after any context, session, or other special parameters) correspond to
// the Args positionally: the first such parameter receives the field named
// by Args[0], and so on. Go reflection does not expose parameter names, so
// the correspondence is by position.
type Arg struct {
	Name        string
	Description string
	// Required marks the field as required in the generated input schema.
	// For prompts, a missing required argument fails the call before the
	// method is invoked.
	Required bool
}

// A Tool declares that a method on a bound value implements a tool.
//
// The method's payload may be a single parameter (a struct to unmarshal
// arguments into, a map[string]any, a json.RawMessage, or the request or
// params type itself), or one parameter per entry in Args. The two payload
// strategies are mutually exclusive.
type Tool struct {
	// Method names the Go method on the bound value. Required.
	Method string

	// Name is the tool name. If empty, the method name with its first rune
	// lower-cased is used.
	Name        string
	Title       string
	Description string
	Icons       []mcp.Icon
	Annotations *mcp.ToolAnnotations

	// Args describes the tool's arguments, one per method parameter.
	Args []Arg

	// InputSchema overrides the generated input schema.
	InputSchema *jsonschema.Schema

	// OutputSchema overrides the output schema derived from the method's
	// return type.
	OutputSchema *jsonschema.Schema

	Meta mcp.Meta
}

// A Prompt declares that a method on a bound value implements a prompt.
//
// Prompt arguments are strings on the wire. With Args, the method takes one
// string parameter per entry; without Args, the payload may be a
// map[string]string or the request or params type.
type Prompt struct {
	Method string

	// Name is the prompt name, defaulted like [Tool.Name].
	Name        string
	Title       string
	Description string
	Icons       []mcp.Icon
	Args        []Arg
	Meta        mcp.Meta
}

// A Resource declares that a method on a bound value reads a resource.
//
// If URI contains a URI Template expression such as "users://{name}", the
// descriptor declares a resource template and the method may take one string
// parameter per template variable, bound in the order the variables appear
// in the template. Otherwise it declares a resource with a fixed URI and the
// method may take a single string parameter holding the requested URI.
type Resource struct {
	Method string

	// URI is the resource URI, or a RFC 6570 URI template. Required.
	URI string

	// Name is the resource name, defaulted like [Tool.Name].
	Name        string
	Title       string
	Description string
	Icons       []mcp.Icon
	MIMEType    string
	Annotations *mcp.Annotations
	Meta        mcp.Meta
}

// A Completion declares that a method on a bound value computes argument
// completions for a prompt or a resource template.
//
// Exactly one of Prompt or ResourceURI must be set; it becomes the
// completion reference the method serves.
type Completion struct {
	Method string

	// Prompt is the prompt name this completion serves.
	Prompt string

	// ResourceURI is the resource URI or URI template this completion
	// serves.
	ResourceURI string
}

// A Sampling declares that a method on a bound value handles sampling
// requests (client side).
type Sampling struct {
	Method string
}

// An Elicitation declares that a method on a bound value handles elicitation
// requests (client side).
type Elicitation struct {
	Method string
}

// A LoggingConsumer declares that a method on a bound value consumes logging
// message notifications (client side).
type LoggingConsumer struct {
	Method string
}

// A ProgressConsumer declares that a method on a bound value consumes
// progress notifications (client side).
//
// The method may take the notification request or params, or the triple
// (progress float64, total float64, message string).
type ProgressConsumer struct {
	Method string
}

// A ListChangedKind selects which list-changed notification a
// [ListChangedConsumer] consumes.
type ListChangedKind int

const (
	ToolListChanged ListChangedKind = iota
	PromptListChanged
	ResourceListChanged
)

func (k ListChangedKind) String() string {
	switch k {
	case ToolListChanged:
		return "tool_list_changed"
	case PromptListChanged:
		return "prompt_list_changed"
	case ResourceListChanged:
		return "resource_list_changed"
	}
	return "unknown"
}

// A ListChangedConsumer declares that a method on a bound value consumes
// list-changed notifications of the given kind (client side).
type ListChangedConsumer struct {
	Method string
	Kind   ListChangedKind
}

// Describer interfaces let a bound value carry its own descriptors. A
// provider's Bind consults the matching interface when it is called without
// explicit descriptors.
type (
	ToolDescriber interface {
		ToolDescriptors() []*Tool
	}
	PromptDescriber interface {
		PromptDescriptors() []*Prompt
	}
	ResourceDescriber interface {
		ResourceDescriptors() []*Resource
	}
	CompletionDescriber interface {
		CompletionDescriptors() []*Completion
	}
	SamplingDescriber interface {
		SamplingDescriptors() []*Sampling
	}
	ElicitationDescriber interface {
		ElicitationDescriptors() []*Elicitation
	}
	LoggingConsumerDescriber interface {
		LoggingConsumerDescriptors() []*LoggingConsumer
	}
	ProgressConsumerDescriber interface {
		ProgressConsumerDescriptors() []*ProgressConsumer
	}
	ListChangedConsumerDescriber interface {
		ListChangedConsumerDescriptors() []*ListChangedConsumer
	}
)

// defaultName derives a capability name from a method name by lower-casing
// the first rune: "GetStatus" becomes "getStatus".
func defaultName(method string) string {
	r, size := utf8.DecodeRuneInString(method)
	if r == utf8.RuneError {
		return method
	}
	return string(unicode.ToLower(r)) + method[size:]
}
