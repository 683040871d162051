package server

import (
	"context"
	"encoding/json"
	"testing"
)

func TestGetToolDefinitions(t *testing.T) {
	tools := GetToolDefinitions()

	expectedTools := []string{
		"interpret_ballot_card",
		"find_timing_marks",
		"decode_timing_mark_metadata",
		"encode_timing_mark_metadata",
		"decode_qr_metadata",
		"image_info",
		"image_crop",
		"image_ocr_region",
		"list_interpretations",
		"get_interpretation",
	}

	toolMap := make(map[string]Tool)
	for _, tool := range tools {
		if _, dup := toolMap[tool.Name]; dup {
			t.Errorf("duplicate tool %s", tool.Name)
		}
		toolMap[tool.Name] = tool
	}
	if len(tools) != len(expectedTools) {
		t.Errorf("got %d tools, want %d", len(tools), len(expectedTools))
	}
	for _, name := range expectedTools {
		if _, ok := toolMap[name]; !ok {
			t.Errorf("Expected tool %s not found", name)
		}
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

			// every required argument must be declared
			required, _ := tool.InputSchema["required"].([]string)
			for _, name := range required {
				if _, ok := props[name]; !ok {
					t.Errorf("required argument %s not in properties", name)
				}
			}
		})
	}
}

func TestToolDefinitions_ImageArguments(t *testing.T) {
	images := map[string][]string{
		"interpret_ballot_card": {"front", "back"},
		"find_timing_marks":     {"image"},
		"image_info":            {"image"},
		"image_crop":            {"image"},
		"image_ocr_region":      {"image"},
	}

	for _, tool := range GetToolDefinitions() {
		args, ok := images[tool.Name]
		if !ok {
			continue
		}
		props := tool.InputSchema["properties"].(map[string]interface{})
		for _, arg := range args {
			schema, ok := props[arg].(map[string]interface{})
			if !ok {
				t.Errorf("%s: %s should be an object schema", tool.Name, arg)
				continue
			}
			sources := schema["properties"].(map[string]interface{})
			for _, key := range []string{"path", "image_base64"} {
				if _, ok := sources[key]; !ok {
					t.Errorf("%s: %s missing %s", tool.Name, arg, key)
				}
			}
		}
	}
}

func TestToolDefinitions_CropScaleDefault(t *testing.T) {
	for _, tool := range GetToolDefinitions() {
		props := tool.InputSchema["properties"].(map[string]interface{})
		scale, ok := props["scale"].(map[string]interface{})
		switch tool.Name {
		case "image_crop":
			if !ok || scale["default"] != 1.0 {
				t.Errorf("image_crop scale: got %v", props["scale"])
			}
		default:
			if ok {
				t.Errorf("%s should not take a scale", tool.Name)
			}
		}
	}
}

func TestHandleToolsList(t *testing.T) {
	s := New()
	resp := s.handleRequest(context.Background(), &MCPRequest{JSONRPC: "2.0", ID: 1, Method: "tools/list"})
	if resp == nil || resp.Error != nil {
		t.Fatalf("unexpected response: %+v", resp)
	}

	// round trip through JSON the way a client sees it
	data, err := json.Marshal(resp)
	if err != nil {
		t.Fatalf("Failed to marshal: %v", err)
	}
	var decoded struct {
		Result struct {
			Tools []Tool `json:"tools"`
		} `json:"result"`
	}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Failed to unmarshal: %v", err)
	}
	if len(decoded.Result.Tools) != len(GetToolDefinitions()) {
		t.Errorf("got %d tools, want %d", len(decoded.Result.Tools), len(GetToolDefinitions()))
	}
}
