package server

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
)

func TestGetToolDefinitions(t *testing.T) {
	tools := GetToolDefinitions()

	if len(tools) == 0 {
		t.Fatal("GetToolDefinitions returned empty slice")
	}

	expectedTools := []string{
		"studio_open",
		"studio_info",
		"studio_close",
		"studio_set_mode",
		"studio_set_adjustments",
		"studio_filter_add",
		"studio_filter_remove",
		"studio_filter_move",
		"studio_filter_set_amount",
		"studio_recipe",
		"studio_preview",
		"studio_sample_color",
		"studio_sample_colors_multi",
		"studio_compare",
		"studio_paint_tool",
		"studio_paint_set_source",
		"studio_paint_stroke",
		"studio_paint_clear",
		"studio_overlay_add_image",
		"studio_overlay_add_text",
		"studio_overlay_update",
		"studio_overlay_remove",
		"studio_overlay_rotate",
		"studio_overlay_gesture",
		"studio_commit",
		"studio_commit_mask",
		"studio_versions_list",
		"studio_version_remove",
	}

	toolMap := make(map[string]Tool)
	for _, tool := range tools {
		if _, dup := toolMap[tool.Name]; dup {
			t.Errorf("duplicate tool %s", tool.Name)
		}
		toolMap[tool.Name] = tool
	}

	for _, name := range expectedTools {
		if _, ok := toolMap[name]; !ok {
			t.Errorf("Expected tool %s not found", name)
		}
	}
	if len(tools) != len(expectedTools) {
		t.Errorf("tool count: got %d, want %d", len(tools), len(expectedTools))
	}
}

func TestToolDefinitions_Structure(t *testing.T) {
	for _, tool := range GetToolDefinitions() {
		t.Run(tool.Name, func(t *testing.T) {
			if tool.Description == "" {
				t.Error("Tool description is empty")
			}
			if tool.InputSchema["type"] != "object" {
				t.Errorf("InputSchema type: got %v, want 'object'", tool.InputSchema["type"])
			}
			props, ok := tool.InputSchema["properties"].(map[string]interface{})
			if !ok {
				t.Fatal("InputSchema properties should be a map")
			}
			if _, ok := props["session_id"]; !ok {
				t.Error("every tool should accept session_id")
			}

			required, _ := tool.InputSchema["required"].([]string)
			for _, r := range required {
				if _, ok := props[r]; !ok {
					t.Errorf("required property %s is not defined", r)
				}
			}

			if _, err := json.Marshal(tool); err != nil {
				t.Errorf("tool does not marshal: %v", err)
			}
		})
	}
}

func TestToolDefinitions_AllDispatched(t *testing.T) {
	s := New(Options{})
	for _, tool := range GetToolDefinitions() {
		_, err := s.Call(context.Background(), tool.Name, json.RawMessage(`{}`))
		if errors.Is(err, ErrUnknownTool) {
			t.Errorf("tool %s has no handler", tool.Name)
		}
	}
}

func TestToolDefinitions_FilterKindsEnumerated(t *testing.T) {
	for _, tool := range GetToolDefinitions() {
		if tool.Name != "studio_filter_add" {
			continue
		}
		props := tool.InputSchema["properties"].(map[string]interface{})
		kind := props["kind"].(map[string]interface{})
		if values := kind["enum"].([]string); len(values) != 15 {
			t.Errorf("filter kinds: got %d, want 15", len(values))
		}
		return
	}
	t.Fatal("studio_filter_add not found")
}
