package speech

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

const openAIDefaultVoice = "alloy"

// OpenAISynthesizer synthesizes speech with the OpenAI audio API.
type OpenAISynthesizer struct {
	client *openai.Client
}

// NewOpenAISynthesizer creates an OpenAI synthesizer. Extra options are passed to the client.
func NewOpenAISynthesizer(apiKey string, opts ...option.RequestOption) *OpenAISynthesizer {
	client := openai.NewClient(append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)...)
	return &OpenAISynthesizer{client: &client}
}

func (s *OpenAISynthesizer) Name() string {
	return string(openai.SpeechModelTTS1)
}

// Synthesize ignores p.SampleRate; the API picks the rate for each format.
func (s *OpenAISynthesizer) Synthesize(ctx context.Context, p Params) (*Audio, error) {
	text := NormalizeText(p.Text)
	if text == "" {
		return nil, ErrEmptyText
	}
	voice := p.Voice
	if voice == "" {
		voice = openAIDefaultVoice
	}
	format := p.Format
	if format == "" {
		format = "mp3"
	}

	resp, err := s.client.Audio.Speech.New(ctx, openai.AudioSpeechNewParams{
		Model:          openai.SpeechModelTTS1,
		Input:          text,
		Voice:          openai.AudioSpeechNewParamsVoice(voice),
		ResponseFormat: openai.AudioSpeechNewParamsResponseFormat(format),
	})
	if err != nil {
		return nil, fmt.Errorf("OpenAI speech request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("OpenAI speech error (status %d)", resp.StatusCode)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read audio: %w", err)
	}
	if len(data) == 0 {
		return nil, errors.New("OpenAI returned empty audio")
	}
	return &Audio{Data: data, ContentType: ContentType(format)}, nil
}
