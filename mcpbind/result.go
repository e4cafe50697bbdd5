// Copyright 2026 The Go MCP SDK Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// This file holds the result normalizers: the conversion of a method's
// return value into its capability's result type, following the plan
// recorded in the contract. Methods returning any are classified per call.

package mcpbind

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/modelcontextprotocol/go-bind/internal/fastjson"
)

var errNilResult = errors.New("method returned a nil result")

// splitOuts separates a method's return values into its value and its
// error. A non-nil error takes precedence over the value.
func splitOuts(plan returnPlan, outs []reflect.Value) (reflect.Value, error) {
	if plan.hasError {
		last := outs[len(outs)-1]
		if !last.IsNil() {
			return reflect.Value{}, last.Interface().(error)
		}
		outs = outs[:len(outs)-1]
	}
	if len(outs) == 0 {
		return reflect.Value{}, nil
	}
	return outs[0], nil
}

// resolveDynamic unwraps an interface-typed return value to its concrete
// value. The second result is false for a nil interface.
func resolveDynamic(v reflect.Value) (reflect.Value, bool) {
	if v.Kind() == reflect.Interface {
		if v.IsNil() {
			return reflect.Value{}, false
		}
		v = v.Elem()
	}
	return v, true
}

func textToolResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{Content: []mcp.Content{&mcp.TextContent{Text: text}}}
}

// errorToolResult packs a handler error into an in-band tool error, the way
// typed tool handlers report failures to the caller.
func errorToolResult(err error) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: err.Error()}},
		IsError: true,
	}
}

func normalizeTool(c *contract, mode retMode, v reflect.Value) (*mcp.CallToolResult, error) {
	switch mode {
	case retVoid:
		return &mcp.CallToolResult{Content: []mcp.Content{}}, nil
	case retCanonical:
		if v.IsNil() {
			return &mcp.CallToolResult{Content: []mcp.Content{}}, nil
		}
		return v.Interface().(*mcp.CallToolResult), nil
	case retText:
		return textToolResult(stringify(v)), nil
	case retStructured:
		data, err := fastjson.Marshal(v.Interface())
		if err != nil {
			return nil, &NormalizeError{Capability: c.capability, Method: c.method, Cause: err}
		}
		return &mcp.CallToolResult{
			Content:           []mcp.Content{&mcp.TextContent{Text: string(data)}},
			StructuredContent: v.Interface(),
		}, nil
	case retDynamic:
		cv, ok := resolveDynamic(v)
		if !ok {
			return &mcp.CallToolResult{Content: []mcp.Content{}}, nil
		}
		m := classifyToolReturn(cv.Type())
		if m == retInvalid || m == retDynamic {
			return nil, &NormalizeError{Capability: c.capability, Method: c.method,
				Cause: fmt.Errorf("cannot convert %s to a tool result", cv.Type())}
		}
		return normalizeTool(c, m, cv)
	}
	panic("mcpbind: unknown tool return mode")
}

// userTextMessage wraps text as a user-role prompt message.
func userTextMessage(text string) *mcp.PromptMessage {
	return &mcp.PromptMessage{Role: "user", Content: &mcp.TextContent{Text: text}}
}

func normalizePrompt(c *contract, description string, mode retMode, v reflect.Value) (*mcp.GetPromptResult, error) {
	fail := func(err error) (*mcp.GetPromptResult, error) {
		return nil, &NormalizeError{Capability: c.capability, Method: c.method, Cause: err}
	}
	wrap := func(messages []*mcp.PromptMessage) *mcp.GetPromptResult {
		return &mcp.GetPromptResult{Description: description, Messages: messages}
	}
	switch mode {
	case retCanonical:
		if v.IsNil() {
			return fail(errNilResult)
		}
		return v.Interface().(*mcp.GetPromptResult), nil
	case retMessage:
		if v.IsNil() {
			return fail(errNilResult)
		}
		return wrap([]*mcp.PromptMessage{v.Interface().(*mcp.PromptMessage)}), nil
	case retMessages:
		return wrap(v.Interface().([]*mcp.PromptMessage)), nil
	case retText:
		return wrap([]*mcp.PromptMessage{userTextMessage(v.String())}), nil
	case retTexts:
		texts := v.Interface().([]string)
		messages := make([]*mcp.PromptMessage, len(texts))
		for i, t := range texts {
			messages[i] = userTextMessage(t)
		}
		return wrap(messages), nil
	case retDynamic:
		cv, ok := resolveDynamic(v)
		if !ok {
			return fail(errNilResult)
		}
		m := classifyPromptReturn(cv.Type())
		if m == retInvalid || m == retDynamic {
			return fail(fmt.Errorf("cannot convert %s to a prompt result", cv.Type()))
		}
		return normalizePrompt(c, description, m, cv)
	}
	panic("mcpbind: unknown prompt return mode")
}

func normalizeResource(c *contract, uri, mimeType string, mode retMode, v reflect.Value) (*mcp.ReadResourceResult, error) {
	fail := func(err error) (*mcp.ReadResourceResult, error) {
		return nil, &NormalizeError{Capability: c.capability, Method: c.method, Cause: err}
	}
	switch mode {
	case retCanonical:
		if v.IsNil() {
			return fail(errNilResult)
		}
		return v.Interface().(*mcp.ReadResourceResult), nil
	case retContents:
		return &mcp.ReadResourceResult{Contents: v.Interface().([]*mcp.ResourceContents)}, nil
	case retContent:
		if v.IsNil() {
			return fail(errNilResult)
		}
		return &mcp.ReadResourceResult{Contents: []*mcp.ResourceContents{v.Interface().(*mcp.ResourceContents)}}, nil
	case retText:
		if mimeType == "" {
			mimeType = "text/plain"
		}
		return &mcp.ReadResourceResult{Contents: []*mcp.ResourceContents{
			{URI: uri, MIMEType: mimeType, Text: v.String()},
		}}, nil
	case retBlob:
		if mimeType == "" {
			mimeType = "application/octet-stream"
		}
		return &mcp.ReadResourceResult{Contents: []*mcp.ResourceContents{
			{URI: uri, MIMEType: mimeType, Blob: v.Bytes()},
		}}, nil
	case retDynamic:
		cv, ok := resolveDynamic(v)
		if !ok {
			return fail(errNilResult)
		}
		m := classifyResourceReturn(cv.Type())
		if m == retInvalid || m == retDynamic {
			return fail(fmt.Errorf("cannot convert %s to a resource result", cv.Type()))
		}
		return normalizeResource(c, uri, mimeType, m, cv)
	}
	panic("mcpbind: unknown resource return mode")
}

func normalizeCompletion(c *contract, mode retMode, v reflect.Value) (*mcp.CompleteResult, error) {
	switch mode {
	case retCanonical:
		if v.IsNil() {
			return nil, &NormalizeError{Capability: c.capability, Method: c.method, Cause: errNilResult}
		}
		return v.Interface().(*mcp.CompleteResult), nil
	case retDetails:
		if v.IsNil() {
			return &mcp.CompleteResult{}, nil
		}
		return &mcp.CompleteResult{Completion: *v.Interface().(*mcp.CompletionResultDetails)}, nil
	case retValues:
		return &mcp.CompleteResult{Completion: mcp.CompletionResultDetails{Values: v.Interface().([]string)}}, nil
	case retText:
		return &mcp.CompleteResult{Completion: mcp.CompletionResultDetails{Values: []string{v.String()}}}, nil
	}
	panic("mcpbind: unknown completion return mode")
}

func normalizeSampling(c *contract, mode retMode, v reflect.Value) (*mcp.CreateMessageResult, error) {
	switch mode {
	case retCanonical:
		if v.IsNil() {
			return nil, &NormalizeError{Capability: c.capability, Method: c.method, Cause: errNilResult}
		}
		return v.Interface().(*mcp.CreateMessageResult), nil
	case retText:
		return &mcp.CreateMessageResult{
			Content: &mcp.TextContent{Text: v.String()},
			Role:    "assistant",
		}, nil
	}
	panic("mcpbind: unknown sampling return mode")
}

func normalizeElicitation(c *contract, mode retMode, v reflect.Value) (*mcp.ElicitResult, error) {
	switch mode {
	case retCanonical:
		if v.IsNil() {
			return nil, &NormalizeError{Capability: c.capability, Method: c.method, Cause: errNilResult}
		}
		return v.Interface().(*mcp.ElicitResult), nil
	case retMap:
		return &mcp.ElicitResult{Action: "accept", Content: v.Interface().(map[string]any)}, nil
	}
	panic("mcpbind: unknown elicitation return mode")
}
