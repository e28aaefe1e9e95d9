package ai

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/kozaktomas/barface/internal/database"
)

//go:embed prompts/face_attributes.txt
var faceAttributesPrompt string

// analysisImageSize is the longest side, in pixels, of images sent to vision models.
const analysisImageSize = 512

// maxRetries bounds the attempts at getting valid JSON from a model.
const maxRetries = 3

// parseFaceAttributes decodes and validates the model's JSON answer.
func parseFaceAttributes(content string) (*FaceAttributes, error) {
	var attrs FaceAttributes
	if err := json.Unmarshal([]byte(extractJSON(content)), &attrs); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}

	switch strings.ToLower(strings.TrimSpace(attrs.Gender)) {
	case "male", "man":
		attrs.Gender = database.GenderMale
	case "female", "woman":
		attrs.Gender = database.GenderFemale
	case "":
		return nil, ErrNoFace
	default:
		return nil, fmt.Errorf("unexpected gender %q", attrs.Gender)
	}

	attrs.GenderConfidence = normalizeConfidence(attrs.GenderConfidence)
	attrs.SmileConfidence = normalizeConfidence(attrs.SmileConfidence)
	if attrs.AgeLow > attrs.AgeHigh {
		attrs.AgeLow, attrs.AgeHigh = attrs.AgeHigh, attrs.AgeLow
	}
	return &attrs, nil
}

// normalizeConfidence maps a 0-1 score to percent and clamps to [0, 100].
func normalizeConfidence(c float64) float64 {
	if c > 0 && c <= 1 {
		c *= 100
	}
	return min(max(c, 0), 100)
}

// retryFeedback is sent back to the model after an unparsable answer.
func retryFeedback(err error) string {
	return fmt.Sprintf("JSON parse error: %v. Please fix the JSON and try again. Output ONLY valid JSON, no other text.", err)
}

// extractJSON attempts to extract JSON from a response that may contain extra text
func extractJSON(content string) string {
	start := strings.Index(content, "{")
	if start == -1 {
		return content
	}

	depth := 0
	for i := start; i < len(content); i++ {
		switch content[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return content[start : i+1]
			}
		}
	}
	return content[start:]
}
