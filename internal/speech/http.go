package speech

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	httpSpeechEndpoint = "/v1/generate/speech"
	httpDefaultTimeout = 60 * time.Second
	httpLanguage       = "en"
)

// speechRequest is the JSON body accepted by the self-hosted TTS server.
type speechRequest struct {
	Text           string `json:"text"`
	SpeakerRefPath string `json:"speaker_ref_path,omitempty"`
	Language       string `json:"language"`
	Format         string `json:"format,omitempty"`
	SampleRate     int    `json:"sample_rate,omitempty"`
}

// HTTPSynthesizer calls a self-hosted TTS server (e.g. a Coqui XTTS wrapper).
// Params.Voice is sent as the speaker reference.
type HTTPSynthesizer struct {
	baseURL string
	client  *http.Client
}

// NewHTTPSynthesizer creates a synthesizer for the TTS server at baseURL.
func NewHTTPSynthesizer(baseURL string) *HTTPSynthesizer {
	return &HTTPSynthesizer{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client:  &http.Client{Timeout: httpDefaultTimeout},
	}
}

func (s *HTTPSynthesizer) Name() string {
	return "http:" + s.baseURL
}

func (s *HTTPSynthesizer) Synthesize(ctx context.Context, p Params) (*Audio, error) {
	text := NormalizeText(p.Text)
	if text == "" {
		return nil, ErrEmptyText
	}

	body, err := json.Marshal(speechRequest{
		Text:           text,
		SpeakerRefPath: p.Voice,
		Language:       httpLanguage,
		Format:         p.Format,
		SampleRate:     p.SampleRate,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+httpSpeechEndpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", ContentType(p.Format))

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("TTS server error (status %d): %s", resp.StatusCode, string(data))
	}

	contentType := resp.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "audio/") {
		return nil, fmt.Errorf("unexpected content type %q", contentType)
	}
	if len(data) == 0 {
		return nil, errors.New("TTS server returned empty audio")
	}
	return &Audio{Data: data, ContentType: contentType}, nil
}
