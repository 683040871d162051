package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

// imageSchema describes an image given by path or inline as base64.
func imageSchema(description string) map[string]interface{} {
	return map[string]interface{}{
		"type":        "object",
		"description": description + ". Give either path or image_base64.",
		"properties": map[string]interface{}{
			"path": map[string]interface{}{
				"type":        "string",
				"description": "Absolute path to the image file",
			},
			"image_base64": map[string]interface{}{
				"type":        "string",
				"description": "Image file contents, base64 encoded",
			},
		},
	}
}

func regionProperties() map[string]interface{} {
	return map[string]interface{}{
		"image": imageSchema("Source image"),
		"x1": map[string]interface{}{
			"type":        "integer",
			"description": "Left edge X coordinate (0-based)",
		},
		"y1": map[string]interface{}{
			"type":        "integer",
			"description": "Top edge Y coordinate (0-based)",
		},
		"x2": map[string]interface{}{
			"type":        "integer",
			"description": "Right edge X coordinate (exclusive)",
		},
		"y2": map[string]interface{}{
			"type":        "integer",
			"description": "Bottom edge Y coordinate (exclusive)",
		},
	}
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	crop := regionProperties()
	crop["scale"] = map[string]interface{}{
		"type":        "number",
		"description": "Optional scale factor (e.g., 2.0 to double size). Default 1.0",
		"default":     1.0,
	}

	return []Tool{
		// Interpretation
		{
			Name:        "interpret_ballot_card",
			Description: "Interpret both sides of a scanned ballot card: find the timing mark grid, decode the timing mark metadata and score every oval of the ballot style. Without an election only the grid and metadata are returned.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"front": imageSchema("Scan of the front side"),
					"back":  imageSchema("Scan of the back side"),
					"election_path": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to the election definition JSON",
					},
					"ballot_style_id": map[string]interface{}{
						"type":        "string",
						"description": "Ballot style to score. Defaults to the style named by the front card number",
					},
					"include_normalized_images": map[string]interface{}{
						"type":        "boolean",
						"description": "Return the registered black and white pages as base64 PNG",
						"default":     false,
					},
				},
				"required": []string{"front", "back"},
			},
		},
		{
			Name:        "find_timing_marks",
			Description: "Find the timing mark grid of one scanned side and read the bottom row metadata bits.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"image": imageSchema("Scan of one side"),
					"paper_size": map[string]interface{}{
						"type":        "string",
						"enum":        []string{"letter", "legal", "custom-8.5x17", "custom-8.5x19", "custom-8.5x22"},
						"description": "Paper size. Detected from the aspect ratio when omitted",
					},
					"infer_missing_marks": map[string]interface{}{
						"type":        "boolean",
						"description": "Infer border marks that were not found. Default true",
						"default":     true,
					},
				},
				"required": []string{"image"},
			},
		},

		// Metadata Codecs
		{
			Name:        "decode_timing_mark_metadata",
			Description: "Decode front or back timing mark metadata from 32 bits (LSB first) or from the bottom row mark presence.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"side": map[string]interface{}{
						"type": "string",
						"enum": []string{"front", "back"},
					},
					"bits": map[string]interface{}{
						"type":        "array",
						"items":       map[string]interface{}{"type": "boolean"},
						"description": "Metadata bits, least significant first",
					},
					"bottom_marks": map[string]interface{}{
						"type":        "array",
						"items":       map[string]interface{}{"type": "boolean"},
						"description": "Presence of each bottom row mark, left to right, corners included",
					},
				},
				"required": []string{"side"},
			},
		},
		{
			Name:        "encode_timing_mark_metadata",
			Description: "Encode front (batch or precinct, card number) or back (election date and type) timing mark metadata.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"side": map[string]interface{}{
						"type": "string",
						"enum": []string{"front", "back"},
					},
					"batch_or_precinct": map[string]interface{}{"type": "integer"},
					"card_number":       map[string]interface{}{"type": "integer"},
					"day":               map[string]interface{}{"type": "integer"},
					"month":             map[string]interface{}{"type": "integer"},
					"year": map[string]interface{}{
						"type":        "integer",
						"description": "Two digit year",
					},
					"election_type": map[string]interface{}{
						"type":        "string",
						"description": "One letter A-Z",
					},
				},
				"required": []string{"side"},
			},
		},
		{
			Name:        "decode_qr_metadata",
			Description: "Decode the payload of a ballot QR code and infer the metadata of the opposite page.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"data_base64": map[string]interface{}{
						"type":        "string",
						"description": "QR code payload bytes, base64 encoded",
					},
					"election_path": map[string]interface{}{
						"type":        "string",
						"description": "Election definition used to resolve precinct and ballot style IDs",
					},
				},
				"required": []string{"data_base64"},
			},
		},

		// Images
		{
			Name:        "image_info",
			Description: "Get the dimensions, format and color model of an image and the paper size it matches.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"image": imageSchema("Image to inspect"),
				},
				"required": []string{"image"},
			},
		},
		{
			Name:        "image_crop",
			Description: "Crop a rectangular region from an image and return it as base64-encoded PNG. Use this to zoom into marks that need detailed examination.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": crop,
				"required":   []string{"image", "x1", "y1", "x2", "y2"},
			},
		},
		{
			Name:        "image_ocr_region",
			Description: "Extract text from a region of an image, such as a write-in line.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": regionProperties(),
				"required":   []string{"image", "x1", "y1", "x2", "y2"},
			},
		},

		// History
		{
			Name:        "list_interpretations",
			Description: "List stored interpretation summaries, newest first, with totals.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"limit": map[string]interface{}{
						"type":        "integer",
						"description": "Maximum number of summaries. Default 100",
						"default":     100,
					},
				},
			},
		},
		{
			Name:        "get_interpretation",
			Description: "Get a stored interpretation, including the full card, by ID.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"id": map[string]interface{}{
						"type":        "string",
						"description": "Interpretation UUID",
					},
				},
				"required": []string{"id"},
			},
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
