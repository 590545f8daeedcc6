// Package server implements the MCP (Model Context Protocol) server for road
// shape analysis.
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
//   - image_load: Load a map image and get metadata
//   - roadshape_detect: Find and classify closed road formations
//   - roadshape_classify: Classify caller-supplied geometry
//   - roadshape_rules: List the ordered classification rules
//   - roadshape_mask: Return the binary road mask
//   - roadshape_annotate: Draw detected shapes onto the map
//   - image_detect_text_regions: Find map label regions
//
// Tool arguments are validated against each tool's input schema before the
// handler runs. Detection tools accept per-call overrides that are layered
// over the current configuration; SetConfig swaps that configuration while
// the server is running.
//
// # Error Handling
//
//   - -32700: the request line is not JSON
//   - -32601: unknown method
//   - -32602: unknown tool, or arguments that fail the schema or are
//     rejected by the handler
//   - -32000: the tool ran and failed; Data is a ToolFailure carrying a
//     retry hint and the call ID that appears in the logs
//
// # Image Caching
//
// Images are cached by path and reused across tool calls for the lifetime
// of the server process.
package server
