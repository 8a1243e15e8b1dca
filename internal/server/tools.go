package server

import (
	"github.com/ironsheep/image-studio-mcp/internal/adjust"
	"github.com/ironsheep/image-studio-mcp/internal/filters"
)

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

// sessionIDProperty is accepted by every tool except studio_open, where it
// selects a session to switch to another image.
var sessionIDProperty = map[string]interface{}{
	"type":        "string",
	"description": "Session to operate on. Defaults to the most recently opened session",
}

// objectSchema builds an object schema that always accepts session_id.
func objectSchema(props map[string]interface{}, required ...string) map[string]interface{} {
	props["session_id"] = sessionIDProperty
	schema := map[string]interface{}{
		"type":       "object",
		"properties": props,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

func numberProp(desc string) map[string]interface{} {
	return map[string]interface{}{"type": "number", "description": desc}
}

func integerProp(desc string) map[string]interface{} {
	return map[string]interface{}{"type": "integer", "description": desc}
}

func stringProp(desc string) map[string]interface{} {
	return map[string]interface{}{"type": "string", "description": desc}
}

func enumProp(desc string, values ...string) map[string]interface{} {
	return map[string]interface{}{"type": "string", "description": desc, "enum": values}
}

func filterKindNames() []string {
	kinds := filters.Kinds()
	names := make([]string, len(kinds))
	for i, k := range kinds {
		names[i] = string(k)
	}
	return names
}

func adjustmentProperties() map[string]interface{} {
	props := make(map[string]interface{})
	for _, name := range adjust.Names() {
		props[name] = map[string]interface{}{"type": "number"}
	}
	return props
}

var pointSchema = map[string]interface{}{
	"type": "object",
	"properties": map[string]interface{}{
		"x": map[string]interface{}{"type": "number"},
		"y": map[string]interface{}{"type": "number"},
	},
	"required": []string{"x", "y"},
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		// Sessions
		{
			Name:        "studio_open",
			Description: "Load an image (URL, data URL or file path) into a new studio session, or switch an existing session to another image. Switching discards every unsaved edit of the session.",
			InputSchema: objectSchema(map[string]interface{}{
				"ref":     stringProp("Image reference: http(s) URL, data: URL or absolute file path"),
				"item_id": stringProp("Product item the image belongs to; versions are recorded under it. Defaults to ref"),
			}, "ref"),
		},
		{
			Name:        "studio_info",
			Description: "Return a session's state: dimensions, mode, adjustments, filter stack, overlay elements and paint tool.",
			InputSchema: objectSchema(map[string]interface{}{}),
		},
		{
			Name:        "studio_close",
			Description: "Close a session after any running export finishes.",
			InputSchema: objectSchema(map[string]interface{}{}),
		},
		{
			Name:        "studio_set_mode",
			Description: "Switch the active editor. Each editor keeps its own state; studio_commit commits the active one.",
			InputSchema: objectSchema(map[string]interface{}{
				"mode": enumProp("Editor to activate", "adjust", "paint", "overlay"),
			}, "mode"),
		},

		// Adjustments and filters
		{
			Name:        "studio_set_adjustments",
			Description: "Set adjustment sliders. Brightness, contrast, saturation, sharpness, highlights, shadows and vibrance are percentages (0-200, neutral 100); temperature and tint are shifts (-100..100, neutral 0).",
			InputSchema: objectSchema(map[string]interface{}{
				"values": map[string]interface{}{
					"type":                 "object",
					"description":          "Slider values by name. Omitted sliders keep their value",
					"properties":           adjustmentProperties(),
					"additionalProperties": false,
				},
				"reset": map[string]interface{}{
					"type":        "boolean",
					"description": "Reset every slider to neutral before applying values",
				},
			}),
		},
		{
			Name:        "studio_filter_add",
			Description: "Append a filter preset to the end of the filter stack. Filters run in stack order after the adjustments.",
			InputSchema: objectSchema(map[string]interface{}{
				"kind":   enumProp("Filter preset", filterKindNames()...),
				"amount": numberProp("Blend amount 0-100. Default 100"),
			}, "kind"),
		},
		{
			Name:        "studio_filter_remove",
			Description: "Remove a filter from the stack.",
			InputSchema: objectSchema(map[string]interface{}{
				"id": stringProp("Filter entry ID"),
			}, "id"),
		},
		{
			Name:        "studio_filter_move",
			Description: "Move a filter one position up (earlier) or down (later) in the stack. Moving past either end is a no-op.",
			InputSchema: objectSchema(map[string]interface{}{
				"id":        stringProp("Filter entry ID"),
				"direction": enumProp("Direction", "up", "down"),
			}, "id", "direction"),
		},
		{
			Name:        "studio_filter_set_amount",
			Description: "Change a filter's blend amount (0-100).",
			InputSchema: objectSchema(map[string]interface{}{
				"id":     stringProp("Filter entry ID"),
				"amount": numberProp("Blend amount 0-100"),
			}, "id", "amount"),
		},
		{
			Name:        "studio_recipe",
			Description: "Return the adjust-mode recipe (adjustments plus filter stack). When recipe is given it replaces the current one first.",
			InputSchema: objectSchema(map[string]interface{}{
				"recipe": map[string]interface{}{
					"type":        "object",
					"description": `Recipe as returned by this tool: {"adjustments": {...}, "filters": [{"kind": "...", "amount": 100}]}`,
				},
			}),
		},

		// Preview and inspection
		{
			Name:        "studio_preview",
			Description: "Render the active editor over the capped-resolution preview and return it as base64-encoded PNG, optionally cropped to a region and scaled.",
			InputSchema: objectSchema(map[string]interface{}{
				"region": enumProp("Named region of the preview",
					"full", "top-left", "top-right", "bottom-left", "bottom-right",
					"top-half", "bottom-half", "left-half", "right-half", "center"),
				"rect": map[string]interface{}{
					"type":        "object",
					"description": "Explicit region in preview pixels; overrides region",
					"properties": map[string]interface{}{
						"x1": map[string]interface{}{"type": "integer"},
						"y1": map[string]interface{}{"type": "integer"},
						"x2": map[string]interface{}{"type": "integer"},
						"y2": map[string]interface{}{"type": "integer"},
					},
					"required": []string{"x1", "y1", "x2", "y2"},
				},
				"scale": map[string]interface{}{
					"type":        "number",
					"description": "Optional scale factor (e.g., 2.0 to double size). Default 1.0",
					"default":     1.0,
				},
			}),
		},
		{
			Name:        "studio_sample_color",
			Description: "Get the color of the last preview render at a pixel, as hex, RGBA and HSL.",
			InputSchema: objectSchema(map[string]interface{}{
				"x": integerProp("X coordinate in preview pixels (0-based)"),
				"y": integerProp("Y coordinate in preview pixels (0-based)"),
			}, "x", "y"),
		},
		{
			Name:        "studio_sample_colors_multi",
			Description: "Sample colors of the last preview render at several points in one call.",
			InputSchema: objectSchema(map[string]interface{}{
				"points": map[string]interface{}{
					"type": "array",
					"items": map[string]interface{}{
						"type": "object",
						"properties": map[string]interface{}{
							"x":     map[string]interface{}{"type": "integer"},
							"y":     map[string]interface{}{"type": "integer"},
							"label": map[string]interface{}{"type": "string"},
						},
						"required": []string{"x", "y"},
					},
				},
			}, "points"),
		},
		{
			Name:        "studio_compare",
			Description: "Compare the last preview render with the unedited preview and report how many pixels changed.",
			InputSchema: objectSchema(map[string]interface{}{}),
		},

		// Paint
		{
			Name:        "studio_paint_tool",
			Description: "Configure the paint editor: tool (clone, colorize, highlight), brush diameter in image pixels, colour and highlight opacity, and the viewport pointer coordinates are given in. The viewport defaults to the preview size.",
			InputSchema: objectSchema(map[string]interface{}{
				"tool":     enumProp("Paint tool", "clone", "colorize", "highlight"),
				"diameter": integerProp("Brush diameter in image pixels (1-500)"),
				"color":    stringProp("Colorize fill or highlight colour, as #RRGGBB"),
				"opacity":  numberProp("Highlight opacity 0-1"),
				"viewport": map[string]interface{}{
					"type":        "object",
					"description": "Display size pointer positions are expressed in",
					"properties": map[string]interface{}{
						"width":  map[string]interface{}{"type": "number"},
						"height": map[string]interface{}{"type": "number"},
					},
				},
			}),
		},
		{
			Name:        "studio_paint_set_source",
			Description: "Set the clone tool's source point, in viewport coordinates. Required before the first clone stroke.",
			InputSchema: objectSchema(map[string]interface{}{
				"x": numberProp("X in viewport coordinates"),
				"y": numberProp("Y in viewport coordinates"),
			}, "x", "y"),
		},
		{
			Name:        "studio_paint_stroke",
			Description: "Paint one stroke through the given points with the active tool. Points are interpolated so the stroke has no gaps.",
			InputSchema: objectSchema(map[string]interface{}{
				"points": map[string]interface{}{
					"type":        "array",
					"description": "Stroke path in viewport coordinates",
					"items":       pointSchema,
				},
			}, "points"),
		},
		{
			Name:        "studio_paint_clear",
			Description: "Discard every uncommitted paint stroke. The clone source is kept.",
			InputSchema: objectSchema(map[string]interface{}{}),
		},

		// Overlays
		{
			Name:        "studio_overlay_add_image",
			Description: "Load an image and add it as an overlay element centred on the base at 30% of its width.",
			InputSchema: objectSchema(map[string]interface{}{
				"src": stringProp("Image reference of the overlay"),
			}, "src"),
		},
		{
			Name:        "studio_overlay_add_text",
			Description: "Add a centred text overlay element.",
			InputSchema: objectSchema(map[string]interface{}{
				"text":        stringProp("Text; newlines start new lines"),
				"font_family": stringProp("Font family: sans (default), mono or bold"),
				"fill":        stringProp("Text colour as #RRGGBB. Default #ffffff"),
				"font_size":   numberProp("Glyph size as a fraction of the image height. Default 0.06"),
			}, "text"),
		},
		{
			Name:        "studio_overlay_update",
			Description: "Change an overlay element. Position (x, y: centre) and size (w, h) are fractions of the base image; omitted fields keep their value.",
			InputSchema: objectSchema(map[string]interface{}{
				"id":          stringProp("Element ID"),
				"x":           numberProp("Centre X, 0-1"),
				"y":           numberProp("Centre Y, 0-1"),
				"w":           numberProp("Width, 0.05-0.8"),
				"h":           numberProp("Height, 0.05-0.8"),
				"rotation":    numberProp("Rotation in degrees, normalised to (-180, 180]"),
				"text":        stringProp("Text of a text element"),
				"font_size":   numberProp("Glyph size as a fraction of the image height"),
				"font_family": stringProp("Font family"),
				"fill":        stringProp("Text colour as #RRGGBB"),
			}, "id"),
		},
		{
			Name:        "studio_overlay_remove",
			Description: "Remove an overlay element.",
			InputSchema: objectSchema(map[string]interface{}{
				"id": stringProp("Element ID"),
			}, "id"),
		},
		{
			Name:        "studio_overlay_rotate",
			Description: "Rotate an overlay element by a number of degrees.",
			InputSchema: objectSchema(map[string]interface{}{
				"id":      stringProp("Element ID"),
				"degrees": numberProp("Degrees to add; positive is clockwise"),
			}, "id", "degrees"),
		},
		{
			Name:        "studio_overlay_gesture",
			Description: "Drive an interactive drag, resize or rotate gesture on an overlay element with pointer positions in preview coordinates. Only one gesture can be active.",
			InputSchema: objectSchema(map[string]interface{}{
				"action":  enumProp("Gesture step", "begin", "move", "end", "cancel"),
				"gesture": enumProp("Gesture to begin", "drag", "resize", "rotate"),
				"id":      stringProp("Element ID, for begin"),
				"x":       numberProp("Pointer X"),
				"y":       numberProp("Pointer Y"),
			}, "action"),
		},

		// Commits and versions
		{
			Name:        "studio_commit",
			Description: "Export the active editor at full resolution, upload it and record a new version. With target_id in overlay mode only that element is flattened. The committed image becomes the new base.",
			InputSchema: objectSchema(map[string]interface{}{
				"target_id": stringProp("Overlay element to commit alone"),
			}),
		},
		{
			Name:        "studio_commit_mask",
			Description: "Export the highlight strokes as a black and white mask, upload it and start an inpainting job with the prompt.",
			InputSchema: objectSchema(map[string]interface{}{
				"prompt": stringProp("Inpainting prompt"),
			}, "prompt"),
		},
		{
			Name:        "studio_versions_list",
			Description: "List the recorded versions of the session's item, oldest first. Version 0 is the original.",
			InputSchema: objectSchema(map[string]interface{}{}),
		},
		{
			Name:        "studio_version_remove",
			Description: "Remove a version of the session's item. The original cannot be removed.",
			InputSchema: objectSchema(map[string]interface{}{
				"number": integerProp("Version number"),
			}, "number"),
		},
	}
}

// handleToolsList returns the list of available tools
func (s *Server) handleToolsList(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"tools": GetToolDefinitions(),
		},
	}
}
