// Copyright 2026 The Go MCP SDK Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// This file holds the dispatch drive shared by all capability adapters. A
// dispatch walks the call lifecycle: bind the arguments, invoke the method,
// normalize the value. Asynchronous dispatches stay in the normalizing state
// while their stream drains.

package mcpbind

import (
	"context"
	"fmt"
	"iter"
	"reflect"
)

// invoke calls the bound method. A panic inside the method is recovered into
// an invocation error rather than tearing down the session.
func invoke(fn reflect.Value, args []reflect.Value) (outs []reflect.Value, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("method panicked: %v", p)
		}
	}()
	return fn.Call(args), nil
}

// prepare drives the bind and invoke stages and returns the method's raw
// return values. On error the call is already in the failed state.
func prepare(ctx context.Context, cs *callState, c *contract, in *callInputs, nilReq bool) ([]reflect.Value, error) {
	cs.advance(ctx, evBind)
	if nilReq {
		return nil, cs.fail(ctx, &BindError{Capability: c.capability, Method: c.method, Cause: ErrNilRequest})
	}
	args, err := bindArgs(ctx, c, in)
	if err != nil {
		return nil, cs.fail(ctx, err)
	}
	cs.advance(ctx, evInvoke)
	outs, err := invoke(c.fn, args)
	if err != nil {
		return nil, cs.fail(ctx, fmt.Errorf("%s %s: %w", c.capability, c.method, err))
	}
	return outs, nil
}

// dispatch drives one synchronous call. normalize converts the method's
// value return; handlerErr, if non-nil, converts an error returned by the
// method into an in-band result instead of failing the call.
func dispatch[T any](
	ctx context.Context,
	bm *boundMethod,
	observer func(CallEvent),
	in *callInputs,
	nilReq bool,
	normalize func(reflect.Value) (T, error),
	handlerErr func(error) T,
) (T, error) {
	var zero T
	c := bm.contract
	cs := newCallState(c.capability, c.method, observer)

	outs, err := prepare(ctx, cs, c, in, nilReq)
	if err != nil {
		return zero, err
	}
	v, herr := splitOuts(c.ret, outs)
	if herr != nil {
		if handlerErr == nil {
			return zero, cs.fail(ctx, fmt.Errorf("%s %s: %w", c.capability, c.method, herr))
		}
		cs.advance(ctx, evNormalize)
		cs.advance(ctx, evFinish)
		return handlerErr(herr), nil
	}
	cs.advance(ctx, evNormalize)
	res, err := normalize(v)
	if err != nil {
		return zero, cs.fail(ctx, err)
	}
	cs.advance(ctx, evFinish)
	return res, nil
}

// dispatchStream drives one asynchronous call, yielding one normalized
// result per stream element. Nothing runs until the sequence is ranged
// over. streamErr converts a method or element error either into a final
// in-band result (tools) or into a call failure.
func dispatchStream[T any](
	ctx context.Context,
	bm *boundMethod,
	observer func(CallEvent),
	in *callInputs,
	nilReq bool,
	normalize func(reflect.Value) (T, error),
	streamErr func(error) (T, error),
) iter.Seq2[T, error] {
	c := bm.contract
	return func(yield func(T, error) bool) {
		var zero T
		cs := newCallState(c.capability, c.method, observer)

		outs, err := prepare(ctx, cs, c, in, nilReq)
		if err != nil {
			yield(zero, err)
			return
		}
		sv, herr := splitOuts(c.ret, outs)
		if herr != nil {
			res, serr := streamErr(herr)
			if serr != nil {
				yield(zero, cs.fail(ctx, serr))
				return
			}
			cs.advance(ctx, evNormalize)
			cs.advance(ctx, evFinish)
			yield(res, nil)
			return
		}

		cs.advance(ctx, evNormalize)
		if sv.IsNil() {
			// A nil iterator or channel is an empty stream.
			cs.advance(ctx, evFinish)
			return
		}
		for ev, eerr := range streamValues(ctx, c.ret.stream, sv) {
			if eerr != nil {
				res, serr := streamErr(eerr)
				if serr != nil {
					yield(zero, cs.fail(ctx, serr))
					return
				}
				if yield(res, nil) {
					cs.advance(ctx, evFinish)
				}
				return
			}
			res, err := normalize(ev)
			if err != nil {
				yield(zero, cs.fail(ctx, err))
				return
			}
			if !yield(res, nil) {
				return
			}
		}
		cs.advance(ctx, evFinish)
	}
}
