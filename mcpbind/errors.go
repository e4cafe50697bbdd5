// Copyright 2026 The Go MCP SDK Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package mcpbind

import (
	"errors"
	"fmt"
)

// ErrNilRequest is reported when a handler produced by this package is
// invoked with a nil request or nil request params.
var ErrNilRequest = errors.New("request must not be nil")

// A SignatureError reports a bound method whose signature does not satisfy
// the calling convention of its capability. It is a configuration error:
// it is produced during registration, never during dispatch.
type SignatureError struct {
	Capability string // "tool", "prompt", "resource", ...
	Method     string // the method, as "Type.Name"
	Problem    string // what is wrong with the signature
}

func (e *SignatureError) Error() string {
	return fmt.Sprintf("%s %s: invalid signature: %s", e.Capability, e.Method, e.Problem)
}

// A BindError reports a request whose content could not be bound to the
// parameters of a method. It is a per-call error: the method was never
// invoked.
type BindError struct {
	Capability string
	Method     string
	Cause      error
}

func (e *BindError) Error() string {
	return fmt.Sprintf("%s %s: binding arguments: %v", e.Capability, e.Method, e.Cause)
}

func (e *BindError) Unwrap() error { return e.Cause }

// A NormalizeError reports a method return value that could not be converted
// to the capability's result type.
type NormalizeError struct {
	Capability string
	Method     string
	Cause      error
}

func (e *NormalizeError) Error() string {
	return fmt.Sprintf("%s %s: normalizing result: %v", e.Capability, e.Method, e.Cause)
}

func (e *NormalizeError) Unwrap() error { return e.Cause }

// signatureErrorf builds a SignatureError for the given contract position.
func signatureErrorf(capability, method, format string, args ...any) *SignatureError {
	return &SignatureError{
		Capability: capability,
		Method:     method,
		Problem:    fmt.Sprintf(format, args...),
	}
}
