package config

import (
	"testing"
)

func TestEnvInt(t *testing.T) {
	tests := []struct {
		name     string
		value    string
		expected int
	}{
		{"unset", "", 7},
		{"valid", "42", 42},
		{"zero falls back", "0", 7},
		{"negative falls back", "-3", 7},
		{"garbage falls back", "abc", 7},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv("BARFACE_TEST_INT", tc.value)
			if got := envInt("BARFACE_TEST_INT", 7); got != tc.expected {
				t.Errorf("envInt(%q) = %d, want %d", tc.value, got, tc.expected)
			}
		})
	}
}

func TestEnvFloat(t *testing.T) {
	t.Setenv("BARFACE_TEST_FLOAT", "0.35")
	if got := envFloat("BARFACE_TEST_FLOAT", 0.5); got != 0.35 {
		t.Errorf("expected 0.35, got %v", got)
	}

	t.Setenv("BARFACE_TEST_FLOAT", "nope")
	if got := envFloat("BARFACE_TEST_FLOAT", 0.5); got != 0.5 {
		t.Errorf("expected default 0.5, got %v", got)
	}
}

func TestEnvBool(t *testing.T) {
	tests := []struct {
		value    string
		def      bool
		expected bool
	}{
		{"", false, false},
		{"", true, true},
		{"true", false, true},
		{"YES", false, true},
		{"1", false, true},
		{"on", false, true},
		{"false", true, false},
		{"0", true, false},
	}

	for _, tc := range tests {
		t.Run(tc.value, func(t *testing.T) {
			t.Setenv("BARFACE_TEST_BOOL", tc.value)
			if got := envBool("BARFACE_TEST_BOOL", tc.def); got != tc.expected {
				t.Errorf("envBool(%q, %v) = %v, want %v", tc.value, tc.def, got, tc.expected)
			}
		})
	}
}

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{
		"WEB_HOST", "WEB_PORT", "COLLECTION_ID", "FACE_MAX_DISTANCE", "TTS_PROVIDER",
		"TTS_VOICE", "TTS_FORMAT", "TTS_SAMPLE_RATE", "AUDIO_FILE", "PROFILE_STORE", "FACE_ANALYZER",
	} {
		t.Setenv(key, "")
	}

	cfg := Load()

	if cfg.Server.Port != 3000 {
		t.Errorf("expected port 3000, got %d", cfg.Server.Port)
	}
	if cfg.Collection.ID != "collection" {
		t.Errorf("expected collection id 'collection', got '%s'", cfg.Collection.ID)
	}
	if cfg.Collection.MaxDistance != 0.5 {
		t.Errorf("expected max distance 0.5, got %v", cfg.Collection.MaxDistance)
	}
	if cfg.Speech.Format != "mp3" || cfg.Speech.SampleRate != 8000 {
		t.Errorf("unexpected speech defaults: %+v", cfg.Speech)
	}
	if cfg.Audio.File != "music.mp3" {
		t.Errorf("expected audio file 'music.mp3', got '%s'", cfg.Audio.File)
	}
	if cfg.UseMariaDBProfiles() {
		t.Error("expected postgres profile store by default")
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("COLLECTION_ID", "bar")
	t.Setenv("PROFILE_STORE", "MariaDB")
	t.Setenv("TTS_PROVIDER", "Gemini")
	t.Setenv("WEB_PORT", "8081")

	cfg := Load()

	if cfg.Collection.ID != "bar" {
		t.Errorf("expected collection 'bar', got '%s'", cfg.Collection.ID)
	}
	if !cfg.UseMariaDBProfiles() {
		t.Error("expected mariadb profile store")
	}
	if cfg.Speech.Provider != ProviderGemini {
		t.Errorf("expected gemini provider, got '%s'", cfg.Speech.Provider)
	}
	if cfg.Server.Port != 8081 {
		t.Errorf("expected port 8081, got %d", cfg.Server.Port)
	}
}
