package extract_places

import "encoding/json"

// ExtractionSchema is the JSON schema for place extraction output.
var ExtractionSchema = map[string]any{
	"type": "json_schema",
	"json_schema": map[string]any{
		"name":   "place_extraction",
		"strict": false,
		"schema": map[string]any{
			"type": "object",
			"properties": map[string]any{
				"content_analysis": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"content_type": map[string]any{
							"type":        "string",
							"description": "single_place, multiple_places, popup_event, or area_guide",
						},
						"confidence_score": map[string]any{
							"type":        "number",
							"description": "Confidence score 0.0-1.0",
						},
						"primary_focus": map[string]any{
							"type":        "string",
							"description": "Description of the content's main subject",
						},
					},
					"required": []string{"content_type"},
				},
				"places": map[string]any{
					"type": "array",
					"items": map[string]any{
						"type": "object",
						"properties": map[string]any{
							"name": map[string]any{
								"type":        "string",
								"description": "Specific business name, never a generic placeholder",
							},
							"address": map[string]any{
								"type":        "string",
								"description": "Full address if mentioned",
							},
							"neighborhood": map[string]any{
								"type":        "string",
								"description": "Area or neighborhood",
							},
							"categories": map[string]any{
								"type":  "array",
								"items": map[string]any{"type": "string"},
							},
							"recommendations": map[string]any{
								"type":        "string",
								"description": "Specific menu items or recommendations",
							},
							"hours": map[string]any{
								"type":        "string",
								"description": "Opening hours or schedule",
							},
							"website": map[string]any{
								"type":        "string",
								"description": "Website URL if mentioned",
							},
							"is_popup": map[string]any{
								"type": "boolean",
							},
						},
						"required": []string{"name"},
					},
				},
				"area_info": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"area_theme": map[string]any{
							"type": "string",
						},
						"total_places_mentioned": map[string]any{
							"type": "integer",
						},
						"area_description": map[string]any{
							"type": "string",
						},
					},
				},
			},
			"required": []string{"places"},
		},
	},
}

// ContentAnalysis describes the model's read of the overall content.
type ContentAnalysis struct {
	ContentType     string  `json:"content_type"`
	ConfidenceScore float64 `json:"confidence_score"`
	PrimaryFocus    string  `json:"primary_focus"`
}

// PlaceResult is one extracted place candidate.
type PlaceResult struct {
	Name            string   `json:"name"`
	Address         string   `json:"address"`
	Neighborhood    string   `json:"neighborhood"`
	Categories      []string `json:"categories"`
	Recommendations string   `json:"recommendations"`
	Hours           string   `json:"hours"`
	Website         string   `json:"website"`
	IsPopup         bool     `json:"is_popup"`
}

// AreaInfo describes area-guide style content.
type AreaInfo struct {
	AreaTheme            string `json:"area_theme"`
	TotalPlacesMentioned int    `json:"total_places_mentioned"`
	AreaDescription      string `json:"area_description"`
}

// Result represents the parsed result from place extraction.
type Result struct {
	ContentAnalysis ContentAnalysis `json:"content_analysis"`
	Places          []PlaceResult   `json:"places"`
	AreaInfo        AreaInfo        `json:"area_info"`
}

// ParseResult parses validated JSON into a Result.
func ParseResult(raw json.RawMessage) (*Result, error) {
	var result Result
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// ValidationSchema returns the inner schema document used for local
// validation of model output.
func ValidationSchema() json.RawMessage {
	inner := ExtractionSchema["json_schema"].(map[string]any)["schema"]
	b, _ := json.Marshal(inner)
	return b
}
