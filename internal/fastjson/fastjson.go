// Copyright 2026 The Go MCP SDK Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

//go:build !mcp_go_bind_stdjson

// Package fastjson provides the JSON codec used on dispatch hot paths.
//
// The default build uses github.com/segmentio/encoding/json, a drop-in
// replacement for encoding/json with a faster decoder. Building with the
// mcp_go_bind_stdjson tag substitutes the standard library.
package fastjson

import "github.com/segmentio/encoding/json"

func Marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}

func Unmarshal(data []byte, v any) error {
	return json.Unmarshal(data, v)
}
