package ai

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/kozaktomas/barface/internal/config"
	"github.com/kozaktomas/barface/internal/database"
)

// ErrNoFace is returned when the model reports no visible face.
var ErrNoFace = errors.New("no face visible")

// FaceAnalyzer detects attributes of the face in an image.
type FaceAnalyzer interface {
	Name() string
	AnalyzeFace(ctx context.Context, imageData []byte) (*FaceAttributes, error)
	GetUsage() Usage
}

// FaceAttributes is the model's description of a face.
type FaceAttributes struct {
	Gender           string  `json:"gender"`
	GenderConfidence float64 `json:"gender_confidence"`
	Smiling          bool    `json:"smiling"`
	SmileConfidence  float64 `json:"smile_confidence"`
	AgeLow           int     `json:"age_low"`
	AgeHigh          int     `json:"age_high"`
}

// Detail converts the attributes into the stored face detail.
func (a *FaceAttributes) Detail() database.FaceDetail {
	detail := database.FaceDetail{
		Gender: database.Attribute{Value: a.Gender, Confidence: a.GenderConfidence},
		Smile:  database.BoolAttribute{Value: a.Smiling, Confidence: a.SmileConfidence},
	}
	if a.AgeHigh > 0 {
		detail.AgeRange = &database.AgeRange{Low: a.AgeLow, High: a.AgeHigh}
	}
	return detail
}

// Usage tracks token usage across requests.
type Usage struct {
	Requests     int
	InputTokens  int
	OutputTokens int
}

// usageTracker is embedded by providers; safe for concurrent use.
type usageTracker struct {
	mu    sync.Mutex
	usage Usage
}

func (u *usageTracker) trackUsage(inputTokens, outputTokens int) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.usage.Requests++
	u.usage.InputTokens += inputTokens
	u.usage.OutputTokens += outputTokens
}

// GetUsage returns a snapshot of the accumulated usage.
func (u *usageTracker) GetUsage() Usage {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.usage
}

// NewFaceAnalyzer creates the analyzer selected by cfg.Analyzer.Provider.
func NewFaceAnalyzer(ctx context.Context, cfg *config.Config) (FaceAnalyzer, error) {
	switch cfg.Analyzer.Provider {
	case config.ProviderOpenAI:
		if cfg.OpenAI.Token == "" {
			return nil, errors.New("OPENAI_TOKEN is required for the openai face analyzer")
		}
		return NewOpenAIProvider(cfg.OpenAI.Token), nil
	case config.ProviderGemini:
		if cfg.Gemini.APIKey == "" {
			return nil, errors.New("GEMINI_API_KEY is required for the gemini face analyzer")
		}
		return NewGeminiProvider(ctx, cfg.Gemini.APIKey)
	case config.ProviderOllama:
		return NewOllamaProvider(cfg.Ollama.URL, cfg.Ollama.Model), nil
	default:
		return nil, fmt.Errorf("unknown face analyzer provider %q", cfg.Analyzer.Provider)
	}
}
