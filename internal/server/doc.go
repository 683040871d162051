// Package server implements the MCP (Model Context Protocol) server for
// ballot interpretation.
//
// # Protocol
//
// The server communicates over stdio using JSON-RPC 2.0:
//   - Input: JSON-RPC requests on stdin (one per line)
//   - Output: JSON-RPC responses on stdout
//
// Supported MCP methods:
//   - initialize: Protocol handshake
//   - tools/list: Enumerate available tools
//   - tools/call: Execute a tool with arguments
//   - ping: Health check
//
// # Available Tools
//
// Interpretation:
//   - interpret_ballot_card: Interpret both sides of a card
//   - find_timing_marks: Locate the timing mark grid of one side
//
// Metadata Codecs:
//   - decode_timing_mark_metadata, encode_timing_mark_metadata
//   - decode_qr_metadata
//
// Images:
//   - image_info, image_crop, image_ocr_region
//
// History (only with a store):
//   - list_interpretations, get_interpretation
//
// Images are given by path or inline as base64 and cached for the lifetime
// of the process, by path or by content hash.
//
// # Error Handling
//
// Tool execution errors are returned as JSON-RPC error responses with:
//   - code: -32000 (tool execution failure) or standard JSON-RPC codes
//   - message: Human-readable error description
//   - data: The Go error string
//
// A card that interprets with errors is not a tool failure: the card and its
// error string are both returned.
package server
