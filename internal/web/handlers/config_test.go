package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/kozaktomas/barface/internal/config"
)

func TestConfigHandler_Get(t *testing.T) {
	cfg := testConfig()
	cfg.OpenAI.Token = "sk-secret-token"
	cfg.ProfileType = config.ProfileStoreMariaDB
	handler := NewConfigHandler(cfg)

	recorder := httptest.NewRecorder()
	handler.Get(recorder, httptest.NewRequest("GET", "/config", nil))

	assertStatusCode(t, recorder, http.StatusOK)
	assertHeader(t, recorder, "Content-Type", "application/json")

	var result ConfigResponse
	parseJSONResponse(t, recorder, &result)

	if result.CollectionID != "collection" || result.ProfileStore != config.ProfileStoreMariaDB {
		t.Errorf("unexpected config: %+v", result)
	}
	if result.SampleRate != 8000 || result.Format != "mp3" {
		t.Errorf("unexpected speech settings: %+v", result)
	}
	if strings.Contains(recorder.Body.String(), "sk-secret-token") {
		t.Error("API token leaked into config response")
	}
}

func TestConfigHandler_Get_ProviderAvailability(t *testing.T) {
	cfg := testConfig()
	cfg.Gemini.APIKey = "key"

	recorder := httptest.NewRecorder()
	NewConfigHandler(cfg).Get(recorder, httptest.NewRequest("GET", "/config", nil))

	var result ConfigResponse
	parseJSONResponse(t, recorder, &result)

	expected := map[string]bool{
		config.ProviderOpenAI: false,
		config.ProviderGemini: true,
		config.ProviderOllama: true,
		config.ProviderHTTP:   false,
	}
	if len(result.Providers) != len(expected) {
		t.Fatalf("expected %d providers, got %d", len(expected), len(result.Providers))
	}
	for _, p := range result.Providers {
		if p.Available != expected[p.Name] {
			t.Errorf("provider %s available = %v, want %v", p.Name, p.Available, expected[p.Name])
		}
	}
}
