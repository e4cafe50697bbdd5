// Copyright 2026 The Go MCP SDK Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package mcpbind

import (
	"errors"
	"fmt"
	"reflect"
	"slices"
)

// errWrongMode signals that a method's return form belongs to the other
// execution mode. Scanners record these methods as skipped rather than
// failing registration.
var errWrongMode = errors.New("return form belongs to the other execution mode")

// buildContract validates fn against the capability's calling convention and
// produces its dispatch contract. The return contract is checked before the
// parameter pattern, so a method that is wrong on both ends reports its
// return problem.
func buildContract(cs *capSpec, mode Mode, stateless bool, fn reflect.Value, label string) (*contract, error) {
	ft := fn.Type()
	ret, err := classifyReturns(cs, mode, ft, label)
	if err != nil {
		return nil, err
	}
	params, err := classifyParams(cs, stateless, ft, label)
	if err != nil {
		return nil, err
	}
	return &contract{
		capability: cs.capability,
		method:     label,
		fn:         fn,
		params:     params,
		ret:        ret,
	}, nil
}

func classifyReturns(cs *capSpec, mode Mode, ft reflect.Type, label string) (returnPlan, error) {
	var (
		plan  returnPlan
		value reflect.Type
	)
	switch n := ft.NumOut(); n {
	case 0:
	case 1:
		if ft.Out(0) == typeError {
			plan.hasError = true
		} else {
			value = ft.Out(0)
		}
	case 2:
		if ft.Out(1) != typeError {
			return plan, signatureErrorf(cs.capability, label, "second return value must be error, not %s", ft.Out(1))
		}
		plan.hasError = true
		value = ft.Out(0)
	default:
		return plan, signatureErrorf(cs.capability, label, "at most two return values are allowed, found %d", n)
	}

	if value == nil {
		if !cs.consumer && !cs.voidOK {
			return plan, signatureErrorf(cs.capability, label, "a result value is required")
		}
		if !cs.consumer && mode == ModeAsync {
			return plan, fmt.Errorf("%w: method returns no stream", errWrongMode)
		}
		plan.mode = retVoid
		return plan, nil
	}
	if cs.consumer {
		return plan, signatureErrorf(cs.capability, label, "notification consumers cannot return a value (got %s)", value)
	}

	kind, elem := streamType(value)
	switch mode {
	case ModeSync:
		if kind != streamNone {
			return plan, fmt.Errorf("%w: method returns %s", errWrongMode, value)
		}
	case ModeAsync:
		if kind == streamNone {
			return plan, fmt.Errorf("%w: method returns %s", errWrongMode, value)
		}
		plan.stream = kind
		value = elem
	}

	m := cs.classify(value)
	if m == retInvalid {
		return plan, signatureErrorf(cs.capability, label, "cannot convert return type %s to a %s result", value, cs.capability)
	}
	plan.mode = m
	plan.typ = value
	return plan, nil
}

func classifyParams(cs *capSpec, stateless bool, ft reflect.Type, label string) ([]paramBinding, error) {
	var (
		params     []paramBinding
		argIdx     int
		strategies int // payload strategies in use; more than one is an error
		seen       [roleExtra + 1]bool
	)
	single := func(role paramRole, i int, what string) error {
		if seen[role] {
			return signatureErrorf(cs.capability, label, "duplicate %s parameter at position %d", what, i)
		}
		seen[role] = true
		return nil
	}

	for i := range ft.NumIn() {
		t := ft.In(i)
		b := paramBinding{typ: t}
		switch {
		case t == typeContext:
			if i != 0 {
				return nil, signatureErrorf(cs.capability, label, "context.Context must be the first parameter")
			}
			b.role = roleContext

		case cs.session != nil && t == cs.session:
			if stateless {
				return nil, signatureErrorf(cs.capability, label, "session parameter %s is not available to a stateless provider", t)
			}
			if err := single(roleSession, i, "session"); err != nil {
				return nil, err
			}
			b.role = roleSession

		case t == typeTransportCtx:
			if err := single(roleTransport, i, "transport context"); err != nil {
				return nil, err
			}
			b.role = roleTransport

		case t == typeMeta:
			if err := single(roleMeta, i, "meta"); err != nil {
				return nil, err
			}
			b.role = roleMeta

		case t == typeProgressToken:
			if err := single(roleToken, i, "progress token"); err != nil {
				return nil, err
			}
			b.role = roleToken

		case cs.request != nil && t == cs.request:
			if err := single(roleRequest, i, "request"); err != nil {
				return nil, err
			}
			b.role = roleRequest
			strategies++

		case cs.params != nil && t == cs.params:
			if err := single(roleParams, i, "params"); err != nil {
				return nil, err
			}
			b.role = roleParams
			strategies++

		case cs.extra != nil && t == cs.extra:
			if err := single(roleExtra, i, t.String()); err != nil {
				return nil, err
			}
			b.role = roleExtra

		case cs.argNames != nil:
			if argIdx >= len(cs.argNames) {
				return nil, signatureErrorf(cs.capability, label, "parameter %d (%s) exceeds the %d declared arguments", i, t, len(cs.argNames))
			}
			if err := cs.argType(argIdx, t); err != nil {
				return nil, signatureErrorf(cs.capability, label, "argument %q: %v", cs.argNames[argIdx], err)
			}
			b.role = roleArg
			b.name = cs.argNames[argIdx]
			argIdx++

		case slices.Contains(cs.payloads, t):
			if err := single(rolePayload, i, "payload"); err != nil {
				return nil, err
			}
			b.role = rolePayload
			strategies++

		case cs.openPayload != nil && cs.openPayload(t):
			if err := single(rolePayload, i, "payload"); err != nil {
				return nil, err
			}
			b.role = rolePayload
			strategies++

		default:
			return nil, signatureErrorf(cs.capability, label, "parameter %d has unsupported type %s", i, t)
		}
		params = append(params, b)
	}

	if argIdx > 0 {
		strategies++
		if argIdx != len(cs.argNames) {
			return nil, signatureErrorf(cs.capability, label, "method binds %d of %d declared arguments", argIdx, len(cs.argNames))
		}
	}
	if strategies > 1 {
		return nil, signatureErrorf(cs.capability, label, "multiple payload strategies; use the request, the params, a single payload, or per-argument parameters")
	}
	return params, nil
}
