package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/color"

	"github.com/ironsheep/image-studio-mcp/internal/adjust"
	"github.com/ironsheep/image-studio-mcp/internal/filters"
	"github.com/ironsheep/image-studio-mcp/internal/imaging"
	"github.com/ironsheep/image-studio-mcp/internal/overlay"
	"github.com/ironsheep/image-studio-mcp/internal/paint"
	"github.com/ironsheep/image-studio-mcp/internal/raster"
	"github.com/ironsheep/image-studio-mcp/internal/studio"
	"github.com/ironsheep/image-studio-mcp/internal/versions"
)

var (
	// ErrUnknownTool is returned by Call for a name not in GetToolDefinitions.
	ErrUnknownTool = errors.New("unknown tool")

	errNoStudio = errors.New("no studio configured")
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "studio_open", "studio_commit").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// The response wraps the tool result in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}]
//	}
//
// Tool execution errors return a JSON-RPC error response with code -32000.
func (s *Server) handleToolsCall(ctx context.Context, req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}

	result, err := s.Call(ctx, params.Name, params.Arguments)
	if err != nil {
		return s.errorResponse(req.ID, -32000, "Tool execution failed", err.Error())
	}

	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"content": []map[string]interface{}{
				{
					"type": "text",
					"text": mustMarshalJSON(result),
				},
			},
		},
	}
}

// Call executes one tool. It is the shared entry point of the stdio and HTTP
// transports.
func (s *Server) Call(ctx context.Context, name string, args json.RawMessage) (interface{}, error) {
	result, err := s.executeTool(ctx, name, args)
	if err != nil {
		s.log.WithField("tool", name).WithError(err).Debug("tool failed")
	}
	return result, err
}

// executeTool dispatches tool execution to the appropriate handler function.
//
// Each tool handler:
//  1. Unmarshals arguments from JSON
//  2. Applies default values for optional parameters
//  3. Resolves the session (the latest one when session_id is omitted)
//  4. Calls the studio session or one of its editors
//  5. Returns the result or error
func (s *Server) executeTool(ctx context.Context, name string, args json.RawMessage) (interface{}, error) {
	switch name {
	// Sessions
	case "studio_open":
		return s.handleStudioOpen(ctx, args)
	case "studio_info":
		return s.handleStudioInfo(args)
	case "studio_close":
		return s.handleStudioClose(args)
	case "studio_set_mode":
		return s.handleStudioSetMode(args)

	// Adjustments and filters
	case "studio_set_adjustments":
		return s.handleSetAdjustments(args)
	case "studio_filter_add":
		return s.handleFilterAdd(args)
	case "studio_filter_remove":
		return s.handleFilterRemove(args)
	case "studio_filter_move":
		return s.handleFilterMove(args)
	case "studio_filter_set_amount":
		return s.handleFilterSetAmount(args)
	case "studio_recipe":
		return s.handleRecipe(args)

	// Preview and inspection
	case "studio_preview":
		return s.handlePreview(args)
	case "studio_sample_color":
		return s.handleSampleColor(args)
	case "studio_sample_colors_multi":
		return s.handleSampleColorsMulti(args)
	case "studio_compare":
		return s.handleCompare(args)

	// Paint
	case "studio_paint_tool":
		return s.handlePaintTool(args)
	case "studio_paint_set_source":
		return s.handlePaintSetSource(args)
	case "studio_paint_stroke":
		return s.handlePaintStroke(args)
	case "studio_paint_clear":
		return s.handlePaintClear(args)

	// Overlays
	case "studio_overlay_add_image":
		return s.handleOverlayAddImage(ctx, args)
	case "studio_overlay_add_text":
		return s.handleOverlayAddText(args)
	case "studio_overlay_update":
		return s.handleOverlayUpdate(args)
	case "studio_overlay_remove":
		return s.handleOverlayRemove(args)
	case "studio_overlay_rotate":
		return s.handleOverlayRotate(args)
	case "studio_overlay_gesture":
		return s.handleOverlayGesture(args)

	// Commits and versions
	case "studio_commit":
		return s.handleCommit(ctx, args)
	case "studio_commit_mask":
		return s.handleCommitMask(ctx, args)
	case "studio_versions_list":
		return s.handleVersionsList(ctx, args)
	case "studio_version_remove":
		return s.handleVersionRemove(ctx, args)

	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownTool, name)
	}
}

// errorResponse creates a JSON-RPC error response with the given details.
func (s *Server) errorResponse(id interface{}, code int, message, data string) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error: &MCPError{
			Code:    code,
			Message: message,
			Data:    data,
		},
	}
}

// mustMarshalJSON converts a value to pretty-printed JSON string.
// Panics are suppressed; on marshal failure, returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

// decodeArgs unmarshals tool arguments. Missing arguments decode as {}.
func decodeArgs(args json.RawMessage, v interface{}) error {
	trimmed := bytes.TrimSpace(args)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil
	}
	if err := json.Unmarshal(trimmed, v); err != nil {
		return fmt.Errorf("invalid arguments: %w", err)
	}
	return nil
}

// sessionArgs is embedded in every tool that works on an open session.
type sessionArgs struct {
	SessionID string `json:"session_id"`
}

func (s *Server) session(id string) (*studio.Session, error) {
	if s.studio == nil {
		return nil, errNoStudio
	}
	return s.studio.Get(id)
}

// decodeSession unmarshals args into v and resolves the session it names.
func (s *Server) decodeSession(args json.RawMessage, v interface{ sessionID() string }) (*studio.Session, error) {
	if err := decodeArgs(args, v); err != nil {
		return nil, err
	}
	return s.session(v.sessionID())
}

func (a *sessionArgs) sessionID() string { return a.SessionID }

// sessionState is the full editable state of a session.
type sessionState struct {
	studio.Info
	Adjustments adjust.Settings    `json:"adjustments"`
	Filters     []filters.Entry    `json:"filters"`
	Elements    []overlay.Element  `json:"elements"`
	Paint       studio.PaintStatus `json:"paint"`
}

func stateOf(sess *studio.Session) *sessionState {
	r := sess.Recipe()
	return &sessionState{
		Info:        sess.Info(),
		Adjustments: r.Adjustments,
		Filters:     r.Filters,
		Elements:    sess.Elements(),
		Paint:       sess.PaintStatus(),
	}
}

// === Session Handlers ===

type studioOpenArgs struct {
	sessionArgs
	Ref    string `json:"ref"`
	ItemID string `json:"item_id"`
}

func (s *Server) handleStudioOpen(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a studioOpenArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if a.Ref == "" {
		return nil, errors.New("ref is required")
	}
	if s.studio == nil {
		return nil, errNoStudio
	}

	if a.SessionID != "" {
		sess, err := s.studio.Get(a.SessionID)
		if err != nil {
			return nil, err
		}
		if err := sess.Open(ctx, a.ItemID, a.Ref); err != nil {
			return nil, err
		}
		return stateOf(sess), nil
	}

	sess, err := s.studio.Open(ctx, a.ItemID, a.Ref)
	if err != nil {
		return nil, err
	}
	return stateOf(sess), nil
}

func (s *Server) handleStudioInfo(args json.RawMessage) (interface{}, error) {
	var a sessionArgs
	sess, err := s.decodeSession(args, &a)
	if err != nil {
		return nil, err
	}
	return stateOf(sess), nil
}

func (s *Server) handleStudioClose(args json.RawMessage) (interface{}, error) {
	var a sessionArgs
	sess, err := s.decodeSession(args, &a)
	if err != nil {
		return nil, err
	}
	if err := s.studio.Close(sess.ID()); err != nil {
		return nil, err
	}
	return map[string]interface{}{"closed": sess.ID(), "open_sessions": s.studio.Len()}, nil
}

type setModeArgs struct {
	sessionArgs
	Mode string `json:"mode"`
}

func (s *Server) handleStudioSetMode(args json.RawMessage) (interface{}, error) {
	var a setModeArgs
	sess, err := s.decodeSession(args, &a)
	if err != nil {
		return nil, err
	}
	mode, err := studio.ParseMode(a.Mode)
	if err != nil {
		return nil, err
	}
	if err := sess.SetMode(mode); err != nil {
		return nil, err
	}
	return sess.Info(), nil
}

// === Adjustment and Filter Handlers ===

type setAdjustmentsArgs struct {
	sessionArgs
	Values map[string]float64 `json:"values"`
	Reset  bool               `json:"reset"`
}

func (s *Server) handleSetAdjustments(args json.RawMessage) (interface{}, error) {
	var a setAdjustmentsArgs
	sess, err := s.decodeSession(args, &a)
	if err != nil {
		return nil, err
	}

	next := sess.Settings()
	if a.Reset {
		next = adjust.Neutral()
	}
	for name, v := range a.Values {
		if err := next.Set(name, v); err != nil {
			return nil, err
		}
	}
	if err := sess.SetAdjustments(next); err != nil {
		return nil, err
	}
	return sess.Settings(), nil
}

type filterAddArgs struct {
	sessionArgs
	Kind   string   `json:"kind"`
	Amount *float64 `json:"amount"`
}

func (s *Server) handleFilterAdd(args json.RawMessage) (interface{}, error) {
	var a filterAddArgs
	sess, err := s.decodeSession(args, &a)
	if err != nil {
		return nil, err
	}
	amount := 100.0
	if a.Amount != nil {
		amount = *a.Amount
	}

	var entry filters.Entry
	err = sess.Filters(func(st *filters.Stack) error {
		var aerr error
		entry, aerr = st.Add(filters.Kind(a.Kind), amount)
		return aerr
	})
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{"added": entry, "filters": sess.Recipe().Filters}, nil
}

type filterIDArgs struct {
	sessionArgs
	ID        string  `json:"id"`
	Direction string  `json:"direction"`
	Amount    float64 `json:"amount"`
}

func (s *Server) handleFilterRemove(args json.RawMessage) (interface{}, error) {
	var a filterIDArgs
	sess, err := s.decodeSession(args, &a)
	if err != nil {
		return nil, err
	}
	if err := sess.Filters(func(st *filters.Stack) error { return st.Remove(a.ID) }); err != nil {
		return nil, err
	}
	return map[string]interface{}{"filters": sess.Recipe().Filters}, nil
}

func (s *Server) handleFilterMove(args json.RawMessage) (interface{}, error) {
	var a filterIDArgs
	sess, err := s.decodeSession(args, &a)
	if err != nil {
		return nil, err
	}
	err = sess.Filters(func(st *filters.Stack) error {
		switch a.Direction {
		case "up":
			return st.MoveUp(a.ID)
		case "down":
			return st.MoveDown(a.ID)
		}
		return fmt.Errorf("direction must be up or down, got %q", a.Direction)
	})
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{"filters": sess.Recipe().Filters}, nil
}

func (s *Server) handleFilterSetAmount(args json.RawMessage) (interface{}, error) {
	var a filterIDArgs
	sess, err := s.decodeSession(args, &a)
	if err != nil {
		return nil, err
	}
	if err := sess.Filters(func(st *filters.Stack) error { return st.SetAmount(a.ID, a.Amount) }); err != nil {
		return nil, err
	}
	return map[string]interface{}{"filters": sess.Recipe().Filters}, nil
}

type recipeArgs struct {
	sessionArgs
	Recipe json.RawMessage `json:"recipe"`
}

func (s *Server) handleRecipe(args json.RawMessage) (interface{}, error) {
	var a recipeArgs
	sess, err := s.decodeSession(args, &a)
	if err != nil {
		return nil, err
	}
	if len(bytes.TrimSpace(a.Recipe)) > 0 {
		r, err := studio.ParseRecipe(a.Recipe)
		if err != nil {
			return nil, err
		}
		if err := sess.ApplyRecipe(r); err != nil {
			return nil, err
		}
	}
	return sess.Recipe(), nil
}

// === Preview and Inspection Handlers ===

type rectArgs struct {
	X1 int `json:"x1"`
	Y1 int `json:"y1"`
	X2 int `json:"x2"`
	Y2 int `json:"y2"`
}

type previewArgs struct {
	sessionArgs
	Region string    `json:"region"`
	Rect   *rectArgs `json:"rect"`
	Scale  float64   `json:"scale"`
}

type previewResult struct {
	Mode    studio.Mode       `json:"mode"`
	Renders int               `json:"renders"`
	Image   *imaging.Snapshot `json:"image"`
}

func (s *Server) handlePreview(args json.RawMessage) (interface{}, error) {
	var a previewArgs
	sess, err := s.decodeSession(args, &a)
	if err != nil {
		return nil, err
	}
	if a.Scale == 0 {
		a.Scale = 1.0
	}

	buf, err := sess.RenderPreview()
	if err != nil {
		return nil, err
	}

	var region image.Rectangle
	if a.Rect != nil {
		if a.Rect.X1 >= a.Rect.X2 || a.Rect.Y1 >= a.Rect.Y2 {
			return nil, errors.New("invalid rect: x1 must be < x2, y1 must be < y2")
		}
		region = image.Rect(a.Rect.X1, a.Rect.Y1, a.Rect.X2, a.Rect.Y2)
	} else if region, err = imaging.NamedRegion(buf.Width, buf.Height, a.Region); err != nil {
		return nil, err
	}

	snap, err := imaging.EncodeSnapshot(buf, region, a.Scale)
	if err != nil {
		return nil, err
	}
	return &previewResult{Mode: sess.Mode(), Renders: sess.PreviewRenders(), Image: snap}, nil
}

type sampleColorArgs struct {
	sessionArgs
	X int `json:"x"`
	Y int `json:"y"`
}

func (s *Server) handleSampleColor(args json.RawMessage) (interface{}, error) {
	var a sampleColorArgs
	sess, err := s.decodeSession(args, &a)
	if err != nil {
		return nil, err
	}
	return sess.SampleColor(a.X, a.Y)
}

type sampleColorsMultiArgs struct {
	sessionArgs
	Points []struct {
		X     int    `json:"x"`
		Y     int    `json:"y"`
		Label string `json:"label,omitempty"`
	} `json:"points"`
}

func (s *Server) handleSampleColorsMulti(args json.RawMessage) (interface{}, error) {
	var a sampleColorsMultiArgs
	sess, err := s.decodeSession(args, &a)
	if err != nil {
		return nil, err
	}

	points := make([]imaging.LabeledPoint, len(a.Points))
	for i, p := range a.Points {
		points[i] = imaging.LabeledPoint{X: p.X, Y: p.Y, Label: p.Label}
	}
	return imaging.SampleColorsMulti(sess.Preview(), points)
}

func (s *Server) handleCompare(args json.RawMessage) (interface{}, error) {
	var a sessionArgs
	sess, err := s.decodeSession(args, &a)
	if err != nil {
		return nil, err
	}
	return sess.Compare()
}

// === Paint Handlers ===

type paintToolArgs struct {
	sessionArgs
	Tool     string           `json:"tool"`
	Diameter *int             `json:"diameter"`
	Color    string           `json:"color"`
	Opacity  *float64         `json:"opacity"`
	Viewport *raster.Viewport `json:"viewport"`
}

func (s *Server) handlePaintTool(args json.RawMessage) (interface{}, error) {
	var a paintToolArgs
	sess, err := s.decodeSession(args, &a)
	if err != nil {
		return nil, err
	}

	err = sess.Paint(func(e *paint.Engine) error {
		if a.Tool != "" {
			t, err := paint.ParseTool(a.Tool)
			if err != nil {
				return err
			}
			if err := e.SetTool(t); err != nil {
				return err
			}
		}
		if a.Diameter != nil {
			e.SetDiameter(*a.Diameter)
		}
		if a.Viewport != nil {
			e.SetViewport(*a.Viewport)
		}

		// Colour applies to the tool that is active after the switch above;
		// opacity only exists for the highlight tool.
		if a.Color == "" && a.Opacity == nil {
			return nil
		}
		var c *color.NRGBA
		if a.Color != "" {
			parsed, err := raster.ParseColor(a.Color)
			if err != nil {
				return err
			}
			c = &parsed
		}
		switch e.Tool() {
		case paint.Highlight:
			hc, op := e.HighlightColor(), e.Opacity()
			if c != nil {
				hc = *c
			}
			if a.Opacity != nil {
				op = *a.Opacity
			}
			e.SetHighlight(hc, op)
		case paint.Colorize:
			if c != nil {
				e.SetColor(*c)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return sess.PaintStatus(), nil
}

type pointArgs struct {
	sessionArgs
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func (s *Server) handlePaintSetSource(args json.RawMessage) (interface{}, error) {
	var a pointArgs
	sess, err := s.decodeSession(args, &a)
	if err != nil {
		return nil, err
	}
	err = sess.Paint(func(e *paint.Engine) error {
		e.SetCloneSource(raster.Point{X: a.X, Y: a.Y})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return sess.PaintStatus(), nil
}

type paintStrokeArgs struct {
	sessionArgs
	Points []raster.Point `json:"points"`
}

func (s *Server) handlePaintStroke(args json.RawMessage) (interface{}, error) {
	var a paintStrokeArgs
	sess, err := s.decodeSession(args, &a)
	if err != nil {
		return nil, err
	}
	if len(a.Points) == 0 {
		return nil, errors.New("points must not be empty")
	}
	if err := sess.Paint(func(e *paint.Engine) error { return e.Stroke(a.Points) }); err != nil {
		return nil, err
	}
	return sess.PaintStatus(), nil
}

func (s *Server) handlePaintClear(args json.RawMessage) (interface{}, error) {
	var a sessionArgs
	sess, err := s.decodeSession(args, &a)
	if err != nil {
		return nil, err
	}
	err = sess.Paint(func(e *paint.Engine) error {
		e.Clear()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return sess.PaintStatus(), nil
}

// === Overlay Handlers ===

type overlayAddImageArgs struct {
	sessionArgs
	Src string `json:"src"`
}

func (s *Server) handleOverlayAddImage(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a overlayAddImageArgs
	sess, err := s.decodeSession(args, &a)
	if err != nil {
		return nil, err
	}
	if a.Src == "" {
		return nil, errors.New("src is required")
	}
	return sess.AddOverlayImage(ctx, a.Src)
}

type overlayAddTextArgs struct {
	sessionArgs
	Text       string  `json:"text"`
	FontFamily string  `json:"font_family"`
	Fill       string  `json:"fill"`
	FontSize   float64 `json:"font_size"`
}

func (s *Server) handleOverlayAddText(args json.RawMessage) (interface{}, error) {
	var a overlayAddTextArgs
	sess, err := s.decodeSession(args, &a)
	if err != nil {
		return nil, err
	}
	var el overlay.Element
	err = sess.Overlays(func(c *overlay.Compositor) error {
		var aerr error
		el, aerr = c.AddText(a.Text, a.FontFamily, a.Fill, a.FontSize)
		return aerr
	})
	if err != nil {
		return nil, err
	}
	return el, nil
}

type overlayUpdateArgs struct {
	sessionArgs
	ID         string   `json:"id"`
	X          *float64 `json:"x"`
	Y          *float64 `json:"y"`
	W          *float64 `json:"w"`
	H          *float64 `json:"h"`
	Rotation   *float64 `json:"rotation"`
	Text       *string  `json:"text"`
	FontSize   *float64 `json:"font_size"`
	FontFamily *string  `json:"font_family"`
	Fill       *string  `json:"fill"`
}

func (a overlayUpdateArgs) apply(el overlay.Element) overlay.Element {
	setFloat := func(dst *float64, v *float64) {
		if v != nil {
			*dst = *v
		}
	}
	setString := func(dst *string, v *string) {
		if v != nil {
			*dst = *v
		}
	}
	setFloat(&el.X, a.X)
	setFloat(&el.Y, a.Y)
	setFloat(&el.W, a.W)
	setFloat(&el.H, a.H)
	setFloat(&el.Rotation, a.Rotation)
	setFloat(&el.FontSize, a.FontSize)
	setString(&el.Text, a.Text)
	setString(&el.FontFamily, a.FontFamily)
	setString(&el.Fill, a.Fill)
	return el
}

func (s *Server) handleOverlayUpdate(args json.RawMessage) (interface{}, error) {
	var a overlayUpdateArgs
	sess, err := s.decodeSession(args, &a)
	if err != nil {
		return nil, err
	}
	var el overlay.Element
	err = sess.Overlays(func(c *overlay.Compositor) error {
		cur, ok := c.Get(a.ID)
		if !ok {
			return fmt.Errorf("%w: %s", overlay.ErrElementNotFound, a.ID)
		}
		var uerr error
		el, uerr = c.Update(a.apply(cur))
		return uerr
	})
	if err != nil {
		return nil, err
	}
	return el, nil
}

type overlayIDArgs struct {
	sessionArgs
	ID      string  `json:"id"`
	Degrees float64 `json:"degrees"`
}

func (s *Server) handleOverlayRemove(args json.RawMessage) (interface{}, error) {
	var a overlayIDArgs
	sess, err := s.decodeSession(args, &a)
	if err != nil {
		return nil, err
	}
	if err := sess.Overlays(func(c *overlay.Compositor) error { return c.Remove(a.ID) }); err != nil {
		return nil, err
	}
	return map[string]interface{}{"elements": sess.Elements()}, nil
}

func (s *Server) handleOverlayRotate(args json.RawMessage) (interface{}, error) {
	var a overlayIDArgs
	sess, err := s.decodeSession(args, &a)
	if err != nil {
		return nil, err
	}
	var el overlay.Element
	err = sess.Overlays(func(c *overlay.Compositor) error {
		var rerr error
		el, rerr = c.Rotate(a.ID, a.Degrees)
		return rerr
	})
	if err != nil {
		return nil, err
	}
	return el, nil
}

type overlayGestureArgs struct {
	sessionArgs
	Action  string  `json:"action"`
	Gesture string  `json:"gesture"`
	ID      string  `json:"id"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
}

type gestureResult struct {
	Gesture  string           `json:"gesture"`
	TargetID string           `json:"target_id,omitempty"`
	Element  *overlay.Element `json:"element,omitempty"`
}

func (s *Server) handleOverlayGesture(args json.RawMessage) (interface{}, error) {
	var a overlayGestureArgs
	sess, err := s.decodeSession(args, &a)
	if err != nil {
		return nil, err
	}
	p := raster.Point{X: a.X, Y: a.Y}

	var res gestureResult
	err = sess.Overlays(func(c *overlay.Compositor) error {
		_, target := c.Gesture()
		switch a.Action {
		case "begin":
			var berr error
			switch a.Gesture {
			case "drag":
				berr = c.BeginDrag(a.ID, p)
			case "resize":
				berr = c.BeginResize(a.ID, p)
			case "rotate":
				berr = c.BeginRotate(a.ID, p)
			default:
				return fmt.Errorf("gesture must be drag, resize or rotate, got %q", a.Gesture)
			}
			if berr != nil {
				return berr
			}
			target = a.ID
		case "move":
			c.Move(p)
		case "end":
			c.End(p)
		case "cancel":
			c.Cancel()
		default:
			return fmt.Errorf("action must be begin, move, end or cancel, got %q", a.Action)
		}

		kind, _ := c.Gesture()
		res.Gesture = kind.String()
		res.TargetID = target
		if el, ok := c.Get(target); ok {
			res.Element = &el
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// === Commit and Version Handlers ===

type commitArgs struct {
	sessionArgs
	TargetID string `json:"target_id"`
}

func (s *Server) handleCommit(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a commitArgs
	sess, err := s.decodeSession(args, &a)
	if err != nil {
		return nil, err
	}
	if a.TargetID != "" {
		return sess.CommitOverlays(ctx, a.TargetID)
	}
	return sess.Commit(ctx)
}

type commitMaskArgs struct {
	sessionArgs
	Prompt string `json:"prompt"`
}

func (s *Server) handleCommitMask(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a commitMaskArgs
	sess, err := s.decodeSession(args, &a)
	if err != nil {
		return nil, err
	}
	return sess.CommitMask(ctx, a.Prompt)
}

type versionInfo struct {
	versions.Version
	Label string `json:"label"`
}

func (s *Server) handleVersionsList(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a sessionArgs
	sess, err := s.decodeSession(args, &a)
	if err != nil {
		return nil, err
	}
	list, err := sess.Versions(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]versionInfo, len(list))
	for i, v := range list {
		out[i] = versionInfo{Version: v, Label: v.Label()}
	}
	return map[string]interface{}{"versions": out}, nil
}

type versionRemoveArgs struct {
	sessionArgs
	Number int `json:"number"`
}

func (s *Server) handleVersionRemove(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a versionRemoveArgs
	sess, err := s.decodeSession(args, &a)
	if err != nil {
		return nil, err
	}
	if err := sess.RemoveVersion(ctx, a.Number); err != nil {
		return nil, err
	}
	return s.handleVersionsList(ctx, args)
}
