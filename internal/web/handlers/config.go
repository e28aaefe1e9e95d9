package handlers

import (
	"net/http"

	"github.com/kozaktomas/barface/internal/config"
	"github.com/kozaktomas/barface/internal/database"
)

// ConfigHandler handles configuration endpoints
type ConfigHandler struct {
	config *config.Config
}

// NewConfigHandler creates a new config handler
func NewConfigHandler(cfg *config.Config) *ConfigHandler {
	return &ConfigHandler{
		config: cfg,
	}
}

// ConfigResponse represents the configuration response
type ConfigResponse struct {
	CollectionID    string         `json:"collection_id"`
	FaceAnalyzer    string         `json:"face_analyzer"`
	SpeechProvider  string         `json:"speech_provider"`
	Voice           string         `json:"voice,omitempty"`
	Format          string         `json:"format"`
	SampleRate      int            `json:"sample_rate"`
	ProfileStore    string         `json:"profile_store"`
	Providers       []ProviderInfo `json:"providers"`
	DatabaseEnabled bool           `json:"database_enabled"`
}

// ProviderInfo represents information about an AI provider
type ProviderInfo struct {
	Name      string `json:"name"`
	Available bool   `json:"available"`
}

// Get returns the active, non-secret configuration
func (h *ConfigHandler) Get(w http.ResponseWriter, r *http.Request) {
	providers := []ProviderInfo{
		{
			Name:      config.ProviderOpenAI,
			Available: h.config.OpenAI.Token != "",
		},
		{
			Name:      config.ProviderGemini,
			Available: h.config.Gemini.APIKey != "",
		},
		{
			Name:      config.ProviderOllama,
			Available: true, // Always available (local)
		},
		{
			Name:      config.ProviderHTTP,
			Available: h.config.Speech.URL != "",
		},
	}

	response := ConfigResponse{
		CollectionID:    h.config.Collection.ID,
		FaceAnalyzer:    h.config.Analyzer.Provider,
		SpeechProvider:  h.config.Speech.Provider,
		Voice:           h.config.Speech.Voice,
		Format:          h.config.Speech.Format,
		SampleRate:      h.config.Speech.SampleRate,
		ProfileStore:    h.config.ProfileType,
		Providers:       providers,
		DatabaseEnabled: database.IsInitialized(),
	}

	respondJSON(w, http.StatusOK, response)
}
