// Copyright 2026 The Go MCP SDK Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// This file defines the signature contract vocabulary: the roles a method
// parameter can play, the return forms a capability accepts, and the
// per-capability tables the validator consumes.

package mcpbind

import (
	"context"
	"encoding/json"
	"reflect"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// A ProgressToken parameter receives the progress token of the request being
// dispatched, or nil if the request carries none.
type ProgressToken any

// A TransportContext carries the request information that is available
// without a session: request metadata and the progress token. It is the only
// request-scoped parameter a stateless provider accepts besides the payload.
type TransportContext struct {
	Meta          mcp.Meta
	ProgressToken any
}

// progressTokenKey is the _meta key carrying the progress token.
const progressTokenKey = "progressToken"

// A paramRole identifies what a method parameter receives at dispatch.
type paramRole int

const (
	roleContext   paramRole = iota // context.Context, first parameter only
	roleSession                    // the capability's session type
	roleTransport                  // *TransportContext
	roleMeta                       // mcp.Meta
	roleToken                      // ProgressToken
	roleRequest                    // the capability's request type
	roleParams                     // the capability's params type
	rolePayload                    // the primary payload
	roleArg                        // one named payload sub-field
	roleExtra                      // a capability-specific extra (e.g. *mcp.CompleteContext)
)

// A retMode identifies how a method's value return converts to the
// capability's result.
type retMode int

const (
	retInvalid retMode = iota
	retVoid            // no value
	retCanonical       // the capability's result type, passed through
	retText            // a scalar, stringified into text content
	retTexts           // []string, one text item per element
	retStructured      // a struct, map or slice, serialized as structured output
	retMessage         // *mcp.PromptMessage
	retMessages        // []*mcp.PromptMessage
	retContent         // *mcp.ResourceContents
	retContents        // []*mcp.ResourceContents
	retBlob            // []byte resource contents
	retValues          // []string completion values
	retDetails         // *mcp.CompletionResultDetails
	retMap             // map[string]any elicitation content
	retDynamic         // any; classified per call
)

// A streamKind identifies the asynchronous return form of a method.
type streamKind int

const (
	streamNone streamKind = iota
	streamSeq              // iter.Seq[T]
	streamSeq2             // iter.Seq2[T, error]
	streamChan             // <-chan T
)

// A paramBinding records the resolved role of one method parameter.
type paramBinding struct {
	role paramRole
	typ  reflect.Type
	name string // sub-field or template variable name, for roleArg
}

// A returnPlan records how a method's returns map to the capability result.
type returnPlan struct {
	mode     retMode
	typ      reflect.Type // the value type; for streams, the element type
	stream   streamKind
	hasError bool // a trailing error return is present
}

// A contract is the validated calling convention of one bound method. It is
// immutable after registration and safe for concurrent dispatch.
type contract struct {
	capability string
	method     string // "Type.Name", for diagnostics
	fn         reflect.Value
	params     []paramBinding
	ret        returnPlan
}

// A capSpec parameterizes the validator for one capability kind. Providers
// construct one per descriptor; the descriptor contributes the positional
// argument names (tool and prompt Args, resource template variables).
type capSpec struct {
	capability string

	session reflect.Type // legal session parameter type
	request reflect.Type // canonical request type, or nil
	params  reflect.Type // canonical params type, or nil

	// payloads is the closed set of additional payload types the capability
	// accepts (exact match).
	payloads []reflect.Type

	// openPayload reports whether t is acceptable as an open-world payload,
	// such as a tool's argument struct. May be nil.
	openPayload func(t reflect.Type) bool

	// extra is an optional parameter type that may appear once in addition
	// to the payload, such as *mcp.CompleteContext. May be nil.
	extra reflect.Type

	// argNames are the positional sub-field names. Nil when the capability
	// or descriptor does not support sub-field parameters.
	argNames []string

	// argType validates the type of the i'th sub-field parameter. Only
	// consulted when argNames is non-nil.
	argType func(i int, t reflect.Type) error

	// classify maps a value return type to its conversion, or retInvalid.
	classify func(t reflect.Type) retMode

	// voidOK allows methods with no value return.
	voidOK bool

	// consumer marks notification consumers: no value returns at all, and
	// no sync/async distinction.
	consumer bool
}

var (
	typeContext       = reflect.TypeFor[context.Context]()
	typeError         = reflect.TypeFor[error]()
	typeAny           = reflect.TypeFor[any]()
	typeServerSession = reflect.TypeFor[*mcp.ServerSession]()
	typeClientSession = reflect.TypeFor[*mcp.ClientSession]()
	typeTransportCtx  = reflect.TypeFor[*TransportContext]()
	typeMeta          = reflect.TypeFor[mcp.Meta]()
	typeProgressToken = reflect.TypeFor[ProgressToken]()
	typeRawMessage    = reflect.TypeFor[json.RawMessage]()
	typeString        = reflect.TypeFor[string]()
	typeFloat64       = reflect.TypeFor[float64]()
	typeByteSlice     = reflect.TypeFor[[]byte]()
	typeStringSlice   = reflect.TypeFor[[]string]()
	typeAnyMap        = reflect.TypeFor[map[string]any]()
	typeStringMap     = reflect.TypeFor[map[string]string]()
)

// isTextKind reports whether t stringifies into text content.
func isTextKind(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.String, reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}

// isStructuredKind reports whether t serializes as structured tool output.
func isStructuredKind(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Struct:
		return true
	case reflect.Pointer:
		return t.Elem().Kind() == reflect.Struct
	case reflect.Map:
		return t.Key().Kind() == reflect.String
	case reflect.Slice, reflect.Array:
		return true
	}
	return false
}

// isArgumentStruct reports whether t can serve as a tool's unmarshal target.
func isArgumentStruct(t reflect.Type) bool {
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t.Kind() == reflect.Struct
}

func classifyToolReturn(t reflect.Type) retMode {
	switch {
	case t == reflect.TypeFor[*mcp.CallToolResult]():
		return retCanonical
	case t == typeAny:
		return retDynamic
	case isTextKind(t):
		return retText
	case isStructuredKind(t):
		return retStructured
	}
	return retInvalid
}

func classifyPromptReturn(t reflect.Type) retMode {
	switch t {
	case reflect.TypeFor[*mcp.GetPromptResult]():
		return retCanonical
	case reflect.TypeFor[*mcp.PromptMessage]():
		return retMessage
	case reflect.TypeFor[[]*mcp.PromptMessage]():
		return retMessages
	case typeString:
		return retText
	case typeStringSlice:
		return retTexts
	case typeAny:
		return retDynamic
	}
	return retInvalid
}

func classifyResourceReturn(t reflect.Type) retMode {
	switch t {
	case reflect.TypeFor[*mcp.ReadResourceResult]():
		return retCanonical
	case reflect.TypeFor[[]*mcp.ResourceContents]():
		return retContents
	case reflect.TypeFor[*mcp.ResourceContents]():
		return retContent
	case typeString:
		return retText
	case typeByteSlice:
		return retBlob
	case typeAny:
		return retDynamic
	}
	return retInvalid
}

func classifyCompletionReturn(t reflect.Type) retMode {
	switch t {
	case reflect.TypeFor[*mcp.CompleteResult]():
		return retCanonical
	case reflect.TypeFor[*mcp.CompletionResultDetails]():
		return retDetails
	case typeStringSlice:
		return retValues
	case typeString:
		return retText
	}
	return retInvalid
}

func classifySamplingReturn(t reflect.Type) retMode {
	switch t {
	case reflect.TypeFor[*mcp.CreateMessageResult]():
		return retCanonical
	case typeString:
		return retText
	}
	return retInvalid
}

func classifyElicitationReturn(t reflect.Type) retMode {
	switch t {
	case reflect.TypeFor[*mcp.ElicitResult]():
		return retCanonical
	case typeAnyMap:
		return retMap
	}
	return retInvalid
}
