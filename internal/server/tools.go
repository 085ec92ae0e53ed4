package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

func stringList(description string) map[string]interface{} {
	return map[string]interface{}{
		"type":        "array",
		"items":       map[string]interface{}{"type": "string"},
		"description": description,
	}
}

func count(description string) map[string]interface{} {
	return map[string]interface{}{
		"type":        "integer",
		"minimum":     0,
		"description": description,
	}
}

var userIDProperty = map[string]interface{}{
	"type":        "string",
	"description": "Opaque user id returned by preferences_create",
}

var regionProperty = map[string]interface{}{
	"type":        "object",
	"description": "Optional crop of the ingredients panel in pixel coordinates. (x1,y1) inclusive, (x2,y2) exclusive.",
	"properties": map[string]interface{}{
		"x1": map[string]interface{}{"type": "integer"},
		"y1": map[string]interface{}{"type": "integer"},
		"x2": map[string]interface{}{"type": "integer"},
		"y2": map[string]interface{}{"type": "integer"},
	},
	"required": []string{"x1", "y1", "x2", "y2"},
}

var featuresProperty = map[string]interface{}{
	"type":        "object",
	"description": "Feature vector as produced by features_extract",
	"properties": map[string]interface{}{
		"num_ingredients":      count("Number of ingredient tokens"),
		"num_liked_matches":    count("Distinct liked keywords found"),
		"num_disliked_matches": count("Distinct disliked keywords found"),
		"num_allergen_matches": count("Distinct allergen keywords found"),
	},
	"required": []string{"num_ingredients", "num_liked_matches", "num_disliked_matches", "num_allergen_matches"},
}

// productProperties describes one product to score: ingredients directly or
// a label image, and preferences inline or by user id.
func productProperties() map[string]interface{} {
	return map[string]interface{}{
		"ingredients":  stringList("Ingredient tokens. Takes precedence over path and image_base64."),
		"path":         map[string]interface{}{"type": "string", "description": "Absolute path to a label image"},
		"image_base64": map[string]interface{}{"type": "string", "description": "Base64-encoded label image"},
		"user_id":      userIDProperty,
		"likes":        stringList("Liked keywords, used when user_id is absent"),
		"dislikes":     stringList("Disliked keywords, used when user_id is absent"),
		"allergens":    stringList("Allergen keywords, used when user_id is absent"),
	}
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		// Label Reading
		{
			Name:        "label_extract_ingredients",
			Description: "Read the ingredient list from a photo of a food label. The image is upscaled, converted to grayscale, inverted when printed light-on-dark, contrast-boosted and passed to OCR; the text is split on , ; ( ) [ ].",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to the image file. Either path or image_base64 is required.",
					},
					"image_base64": map[string]interface{}{
						"type":        "string",
						"description": "Base64-encoded PNG, JPEG or GIF",
					},
					"region": regionProperty,
					"include_preview": map[string]interface{}{
						"type":        "boolean",
						"description": "Also return the preprocessed image sent to OCR as base64 PNG",
						"default":     false,
					},
				},
			},
		},
		{
			Name:        "ingredients_segment",
			Description: "Split free label text into lower-cased ingredient tokens on the delimiters , ; ( ) [ ].",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"text": map[string]interface{}{
						"type":        "string",
						"description": "Label text, e.g. \"Sugar, Palm Oil (Emulsifier)\"",
					},
				},
				"required": []string{"text"},
			},
		},

		// Features and Scoring
		{
			Name:        "features_extract",
			Description: "Compute the four scoring features for an ingredient list. A keyword matches when it is a substring of any ingredient (\"corn\" matches \"corn syrup\"); each keyword counts once.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"ingredients": stringList("Ingredient tokens"),
					"user_id":     userIDProperty,
					"likes":       stringList("Liked keywords, used when user_id is absent"),
					"dislikes":    stringList("Disliked keywords, used when user_id is absent"),
					"allergens":   stringList("Allergen keywords, used when user_id is absent"),
				},
				"required": []string{"ingredients"},
			},
		},
		{
			Name:        "score_predict",
			Description: "Predict the 0-100 suitability score for a feature vector with the loaded model. The result is rounded to 2 decimals and clamped.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"features": featuresProperty,
				},
				"required": []string{"features"},
			},
		},
		{
			Name:        "score_product",
			Description: "Score one product end to end: read the label if needed, extract features against the user's preferences and predict the suitability score. Also returns the offline formula score for comparison.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": productProperties(),
			},
		},
		{
			Name:        "score_batch",
			Description: "Score many products in parallel. Each result carries either a score or an error; one bad product does not fail the batch.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"products": map[string]interface{}{
						"type": "array",
						"items": map[string]interface{}{
							"type":       "object",
							"properties": productProperties(),
						},
						"description": "Products to score",
					},
				},
				"required": []string{"products"},
			},
		},
		{
			Name:        "label_formula_score",
			Description: "Offline label formula used to build the training data: 0 on any allergen, 50 with no likes or dislikes, otherwise the weighted like/dislike balance mapped onto 0-100.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"num_liked_matches":    count("Distinct liked keywords found"),
					"num_disliked_matches": count("Distinct disliked keywords found"),
					"num_allergen_matches": count("Distinct allergen keywords found"),
					"like_weight": map[string]interface{}{
						"type":        "number",
						"description": "Optional like weight. Defaults to the configured weight.",
					},
					"dislike_weight": map[string]interface{}{
						"type":        "number",
						"description": "Optional dislike weight. Defaults to the configured weight.",
					},
				},
				"required": []string{"num_liked_matches", "num_disliked_matches", "num_allergen_matches"},
			},
		},

		// Preferences
		{
			Name:        "preferences_create",
			Description: "Create an empty preference profile and return its user id.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": map[string]interface{}{},
			},
		},
		{
			Name:        "preferences_get",
			Description: "Return the likes, dislikes and allergens stored for a user.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"user_id": userIDProperty,
				},
				"required": []string{"user_id"},
			},
		},
		{
			Name:        "preferences_save",
			Description: "Replace a user's likes, dislikes and allergens. Omitted lists are saved as empty.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"user_id":   userIDProperty,
					"likes":     stringList("Liked keywords"),
					"dislikes":  stringList("Disliked keywords"),
					"allergens": stringList("Allergen keywords"),
				},
				"required": []string{"user_id"},
			},
		},
		{
			Name:        "preferences_apply_diet",
			Description: "Replace a user's allergens with a dietary preset.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"user_id": userIDProperty,
					"diet": map[string]interface{}{
						"type":        "string",
						"enum":        dietNames(),
						"description": "Dietary preset name",
					},
				},
				"required": []string{"user_id", "diet"},
			},
		},

		// Status
		{
			Name:        "model_info",
			Description: "Describe the loaded scoring model, OCR availability, label weights and dietary presets.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": map[string]interface{}{},
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
