// Package server implements the MCP (Model Context Protocol) server for the image studio.
//
// This package provides a JSON-RPC 2.0 server that exposes studio editing sessions
// through the MCP protocol. A client opens an image, edits it with adjustments,
// filters, paint strokes and overlays while inspecting a capped-resolution preview,
// and commits the result as a new full-resolution version.
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
// The same tools are reachable over HTTP through Server.Call; see package httpapi.
//
// # Available Tools
//
// Sessions:
//   - studio_open: Load an image into a new session, or switch a session to another image
//   - studio_info: Full session state
//   - studio_close: Close a session
//   - studio_set_mode: Choose the adjust, paint or overlay editor
//
// Adjustments and Filters:
//   - studio_set_adjustments: Nine sliders from brightness to vibrance
//   - studio_filter_add, studio_filter_remove, studio_filter_move, studio_filter_set_amount
//   - studio_recipe: Read or replace adjustments plus filter stack in one call
//
// Preview and Inspection:
//   - studio_preview: Render the active editor and return a PNG
//   - studio_sample_color, studio_sample_colors_multi: Read preview pixels
//   - studio_compare: Measure how much the preview differs from the unedited base
//
// Paint:
//   - studio_paint_tool: Tool, brush, colour and viewport
//   - studio_paint_set_source: Clone source
//   - studio_paint_stroke: One stroke through a list of points
//   - studio_paint_clear: Discard strokes
//
// Overlays:
//   - studio_overlay_add_image, studio_overlay_add_text
//   - studio_overlay_update, studio_overlay_remove, studio_overlay_rotate
//   - studio_overlay_gesture: Pointer-driven drag, resize and rotate
//
// Commits and Versions:
//   - studio_commit: Full-resolution export, upload and new version
//   - studio_commit_mask: Highlight mask upload and inpainting job
//   - studio_versions_list, studio_version_remove
//
// # Sessions
//
// Every tool except studio_open takes an optional session_id. When it is omitted
// the most recently opened session is used, so single-image clients never need
// to track IDs.
//
// # Error Handling
//
// Tool execution errors are returned as JSON-RPC error responses with:
//   - code: -32000 (tool execution failure) or standard JSON-RPC codes
//   - message: Human-readable error description
//   - data: Additional error details (typically the Go error string)
//
// # Usage
//
// The server is typically started by an MCP client through the image-studio
// binary:
//
//	srv := server.New(server.Options{Manager: manager, Logger: log})
//	if err := srv.Run(ctx); err != nil {
//	    log.Fatal(err)
//	}
package server
