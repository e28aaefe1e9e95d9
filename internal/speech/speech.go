// Package speech turns short sentences into audio using a hosted or
// self-hosted text-to-speech backend.
package speech

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/kozaktomas/barface/internal/config"
)

// ErrEmptyText is returned when there is nothing left to say after normalization.
var ErrEmptyText = errors.New("empty text")

// Params describes a single synthesis request. Built per request, never shared.
type Params struct {
	Text       string
	Voice      string
	Format     string // mp3, wav, opus, aac, flac or pcm
	SampleRate int
}

// Audio is a synthesized clip ready to be written as a response body.
type Audio struct {
	Data        []byte
	ContentType string
}

// Synthesizer converts text to audio.
type Synthesizer interface {
	Name() string
	Synthesize(ctx context.Context, p Params) (*Audio, error)
}

var contentTypes = map[string]string{
	"mp3":  "audio/mpeg",
	"wav":  "audio/wav",
	"opus": "audio/ogg",
	"aac":  "audio/aac",
	"flac": "audio/flac",
	"pcm":  "audio/L16",
}

// ContentType returns the MIME type for an output format, audio/mpeg for unknown formats.
func ContentType(format string) string {
	if ct, ok := contentTypes[strings.ToLower(format)]; ok {
		return ct
	}
	return "audio/mpeg"
}

// DefaultParams returns synthesis parameters for text using the configured voice, format and sample rate.
func DefaultParams(cfg config.SpeechConfig, text string) Params {
	if cfg.StripDiacritics {
		text = RemoveDiacritics(text)
	}
	return Params{
		Text:       text,
		Voice:      cfg.Voice,
		Format:     strings.ToLower(cfg.Format),
		SampleRate: cfg.SampleRate,
	}
}

// EffectiveFormat returns the format a provider actually produces for the
// requested one. Gemini only emits PCM, so anything but pcm becomes wav.
func EffectiveFormat(provider, format string) string {
	format = strings.ToLower(format)
	if provider == config.ProviderGemini && format != "pcm" {
		return "wav"
	}
	return format
}

// NewSynthesizer creates the synthesizer selected by cfg.Speech.Provider.
func NewSynthesizer(ctx context.Context, cfg *config.Config) (Synthesizer, error) {
	switch cfg.Speech.Provider {
	case config.ProviderOpenAI:
		if cfg.OpenAI.Token == "" {
			return nil, errors.New("OPENAI_TOKEN is required for the openai speech provider")
		}
		return NewOpenAISynthesizer(cfg.OpenAI.Token), nil
	case config.ProviderGemini:
		if cfg.Gemini.APIKey == "" {
			return nil, errors.New("GEMINI_API_KEY is required for the gemini speech provider")
		}
		return NewGeminiSynthesizer(ctx, cfg.Gemini.APIKey)
	case config.ProviderHTTP:
		if cfg.Speech.URL == "" {
			return nil, errors.New("TTS_URL is required for the http speech provider")
		}
		return NewHTTPSynthesizer(cfg.Speech.URL), nil
	default:
		return nil, fmt.Errorf("unknown speech provider: %s", cfg.Speech.Provider)
	}
}
