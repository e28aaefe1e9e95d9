package handlers

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/kozaktomas/barface/internal/config"
	"github.com/kozaktomas/barface/internal/speech"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
)

// testConfig creates a minimal config for testing
func testConfig() *config.Config {
	return &config.Config{
		Collection: config.CollectionConfig{ID: "collection"},
		Speech:     config.SpeechConfig{Provider: config.ProviderOpenAI, Voice: "Joanna", Format: "mp3", SampleRate: 8000},
		Analyzer:   config.AnalyzerConfig{Provider: config.ProviderOpenAI},
	}
}

// testLogger returns a logger that records entries instead of printing them
func testLogger() (*logrus.Logger, *test.Hook) {
	return test.NewNullLogger()
}

// writeAudioFile writes size bytes of a known pattern to a temp file
func writeAudioFile(t *testing.T, size int) (string, []byte) {
	t.Helper()
	data := make([]byte, size)
	for i := range data {
		data[i] = byte(i % 251)
	}
	path := filepath.Join(t.TempDir(), "music.mp3")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("failed to write audio file: %v", err)
	}
	return path, data
}

// stubSynth records synthesis requests and returns fixed audio
type stubSynth struct {
	mu     sync.Mutex
	params []speech.Params
	err    error
}

func (s *stubSynth) Name() string { return "stub" }

func (s *stubSynth) Synthesize(ctx context.Context, p speech.Params) (*speech.Audio, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.params = append(s.params, p)
	if s.err != nil {
		return nil, s.err
	}
	return &speech.Audio{Data: []byte("mp3:" + p.Text), ContentType: "audio/mpeg"}, nil
}

// stubRunner returns canned pipeline results
type stubRunner struct {
	image []byte
	audio *speech.Audio
	err   error
}

func (s *stubRunner) Run(ctx context.Context, image []byte) (*speech.Audio, error) {
	s.image = image
	return s.audio, s.err
}

// parseJSONResponse parses a JSON response body into the target type
func parseJSONResponse(t *testing.T, recorder *httptest.ResponseRecorder, target any) {
	t.Helper()
	if err := json.Unmarshal(recorder.Body.Bytes(), target); err != nil {
		t.Fatalf("failed to parse JSON response: %v\nBody: %s", err, recorder.Body.String())
	}
}

// assertStatusCode checks if the response has the expected status code
func assertStatusCode(t *testing.T, recorder *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if recorder.Code != expected {
		t.Errorf("expected status %d, got %d\nBody: %s", expected, recorder.Code, recorder.Body.String())
	}
}

// assertHeader checks if the response has the expected header value
func assertHeader(t *testing.T, recorder *httptest.ResponseRecorder, key, expected string) {
	t.Helper()
	if got := recorder.Header().Get(key); got != expected {
		t.Errorf("expected %s '%s', got '%s'", key, expected, got)
	}
}

// assertJSONError checks if the response is a JSON error with the expected message
func assertJSONError(t *testing.T, recorder *httptest.ResponseRecorder, expectedMessage string) {
	t.Helper()
	var result map[string]string
	if err := json.Unmarshal(recorder.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse error response: %v\nBody: %s", err, recorder.Body.String())
	}
	if result["error"] != expectedMessage {
		t.Errorf("expected error '%s', got '%s'", expectedMessage, result["error"])
	}
}
