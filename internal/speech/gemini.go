package speech

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/genai"
)

const (
	geminiTTSModel     = "gemini-2.5-flash-preview-tts"
	geminiDefaultVoice = "Kore"
	geminiSampleRate   = 24000
)

// GeminiSynthesizer synthesizes speech with a Gemini TTS model.
// The model returns raw 24kHz mono PCM, which is wrapped as WAV unless pcm is requested.
type GeminiSynthesizer struct {
	client *genai.Client
}

// NewGeminiSynthesizer creates a Gemini synthesizer.
func NewGeminiSynthesizer(ctx context.Context, apiKey string) (*GeminiSynthesizer, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return &GeminiSynthesizer{client: client}, nil
}

func (s *GeminiSynthesizer) Name() string {
	return geminiTTSModel
}

func (s *GeminiSynthesizer) Synthesize(ctx context.Context, p Params) (*Audio, error) {
	text := NormalizeText(p.Text)
	if text == "" {
		return nil, ErrEmptyText
	}
	voice := p.Voice
	if voice == "" {
		voice = geminiDefaultVoice
	}

	config := &genai.GenerateContentConfig{
		ResponseModalities: []string{"AUDIO"},
		SpeechConfig: &genai.SpeechConfig{
			VoiceConfig: &genai.VoiceConfig{
				PrebuiltVoiceConfig: &genai.PrebuiltVoiceConfig{VoiceName: voice},
			},
		},
	}
	resp, err := s.client.Models.GenerateContent(ctx, geminiTTSModel, genai.Text(text), config)
	if err != nil {
		return nil, fmt.Errorf("Gemini speech request failed: %w", err)
	}

	pcm, err := inlineAudio(resp)
	if err != nil {
		return nil, err
	}
	return encodePCM(pcm, geminiSampleRate, p), nil
}

func inlineAudio(resp *genai.GenerateContentResponse) ([]byte, error) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, errors.New("no audio in Gemini response")
	}
	for _, part := range resp.Candidates[0].Content.Parts {
		if part != nil && part.InlineData != nil && len(part.InlineData.Data) > 0 {
			return part.InlineData.Data, nil
		}
	}
	return nil, errors.New("no audio in Gemini response")
}

// encodePCM resamples mono PCM to the requested rate when possible and
// returns raw PCM for format "pcm", WAV otherwise.
func encodePCM(pcm []byte, rate int, p Params) *Audio {
	pcm, rate = downsamplePCM16(pcm, rate, p.SampleRate)
	if p.Format == "pcm" {
		return &Audio{Data: pcm, ContentType: fmt.Sprintf("%s;rate=%d", ContentType("pcm"), rate)}
	}
	return &Audio{Data: pcmToWAV(pcm, uint32(rate), 1), ContentType: ContentType("wav")}
}
