// Copyright 2026 The Go MCP SDK Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package mcpbind

import (
	"context"
	"errors"
	"iter"
	"reflect"
)

// streamType reports whether t is an asynchronous return form, and its
// element type. The recognized forms are iter.Seq[T], iter.Seq2[T, error],
// and a receivable channel of T.
func streamType(t reflect.Type) (streamKind, reflect.Type) {
	switch t.Kind() {
	case reflect.Chan:
		if t.ChanDir() != reflect.SendDir {
			return streamChan, t.Elem()
		}
	case reflect.Func:
		if t.NumIn() != 1 || t.NumOut() != 0 {
			break
		}
		y := t.In(0)
		if y.Kind() != reflect.Func || y.NumOut() != 1 || y.Out(0).Kind() != reflect.Bool {
			break
		}
		switch y.NumIn() {
		case 1:
			return streamSeq, y.In(0)
		case 2:
			if y.In(1) == typeError {
				return streamSeq2, y.In(0)
			}
		}
	}
	return streamNone, nil
}

// streamValues adapts a stream return value into a uniform sequence of
// elements. An error yielded by an iter.Seq2 stream terminates the sequence
// after it is delivered. Channel streams end when the channel closes or ctx
// is done; cancellation is delivered as ctx.Err().
func streamValues(ctx context.Context, kind streamKind, sv reflect.Value) iter.Seq2[reflect.Value, error] {
	switch kind {
	case streamSeq:
		return func(yield func(reflect.Value, error) bool) {
			yf := reflect.MakeFunc(sv.Type().In(0), func(in []reflect.Value) []reflect.Value {
				return []reflect.Value{reflect.ValueOf(yield(in[0], nil))}
			})
			sv.Call([]reflect.Value{yf})
		}

	case streamSeq2:
		return func(yield func(reflect.Value, error) bool) {
			yf := reflect.MakeFunc(sv.Type().In(0), func(in []reflect.Value) []reflect.Value {
				var err error
				if e := in[1]; !e.IsNil() {
					err = e.Interface().(error)
				}
				cont := yield(in[0], err)
				if err != nil {
					cont = false
				}
				return []reflect.Value{reflect.ValueOf(cont)}
			})
			sv.Call([]reflect.Value{yf})
		}

	case streamChan:
		return func(yield func(reflect.Value, error) bool) {
			cases := []reflect.SelectCase{
				{Dir: reflect.SelectRecv, Chan: reflect.ValueOf(ctx.Done())},
				{Dir: reflect.SelectRecv, Chan: sv},
			}
			for {
				chosen, recv, ok := reflect.Select(cases)
				if chosen == 0 {
					yield(reflect.Value{}, ctx.Err())
					return
				}
				if !ok {
					return
				}
				if !yield(recv, nil) {
					return
				}
			}
		}
	}
	panic("mcpbind: not a stream")
}

// errEmptyStream reports an asynchronous method that completed without
// producing a result where exactly one is required.
var errEmptyStream = errors.New("stream completed without a result")

// firstResult resolves a result stream to its first value. It releases the
// stream after that value: remaining elements are never pulled.
func firstResult[T any](seq iter.Seq2[T, error]) (T, error) {
	for v, err := range seq {
		var zero T
		if err != nil {
			return zero, err
		}
		return v, nil
	}
	var zero T
	return zero, errEmptyStream
}
