package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/kozaktomas/barface/internal/config"
	"github.com/kozaktomas/barface/internal/speech"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var speakCmd = &cobra.Command{
	Use:   "speak <text>...",
	Short: "Synthesize text to an audio file",
	Long:  `Synthesizes the given text with the configured speech provider and writes the audio to a file.`,
	Args:  cobra.MinimumNArgs(1),
	RunE:  runSpeak,
}

func init() {
	rootCmd.AddCommand(speakCmd)

	speakCmd.Flags().StringP("output", "o", "", "Output file (default speech.<format>)")
	speakCmd.Flags().String("voice", "", "Voice (overrides TTS_VOICE)")
	speakCmd.Flags().String("format", "", "Output format (overrides TTS_FORMAT)")
}

func runSpeak(cmd *cobra.Command, args []string) error {
	cfg, log := loadConfig()
	ctx := context.Background()

	if voice := mustGetString(cmd, "voice"); voice != "" {
		cfg.Speech.Voice = voice
	}
	if format := mustGetString(cmd, "format"); format != "" {
		cfg.Speech.Format = format
	}

	synth, err := speech.NewSynthesizer(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to create speech synthesizer: %w", err)
	}
	format := checkSpeechFormat(cfg, log)

	params := speech.DefaultParams(cfg.Speech, strings.Join(args, " "))
	audio, err := synth.Synthesize(ctx, params)
	if err != nil {
		return fmt.Errorf("failed to synthesize speech: %w", err)
	}

	output := mustGetString(cmd, "output")
	if output == "" {
		output = "speech." + format
	}
	if err := os.WriteFile(output, audio.Data, 0o644); err != nil {
		return fmt.Errorf("failed to write audio: %w", err)
	}

	log.WithFields(logrus.Fields{
		"synthesizer":  synth.Name(),
		"content_type": audio.ContentType,
		"bytes":        len(audio.Data),
	}).Debug("speech synthesized")
	fmt.Printf("Wrote %d bytes of %s to %s\n", len(audio.Data), audio.ContentType, output)
	return nil
}

// checkSpeechFormat returns the format the configured provider will produce
// and warns when it differs from the requested one.
func checkSpeechFormat(cfg *config.Config, log logrus.FieldLogger) string {
	requested := strings.ToLower(cfg.Speech.Format)
	format := speech.EffectiveFormat(cfg.Speech.Provider, requested)
	if format != requested {
		log.WithFields(logrus.Fields{
			"provider":  cfg.Speech.Provider,
			"requested": requested,
			"format":    format,
		}).Warn("speech format not supported by provider")
	}
	return format
}
