package cmd

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/kozaktomas/barface/internal/ai"
	"github.com/kozaktomas/barface/internal/config"
	"github.com/kozaktomas/barface/internal/database"
	"github.com/kozaktomas/barface/internal/pipeline"
	"github.com/kozaktomas/barface/internal/recognition"
	"github.com/kozaktomas/barface/internal/sentence"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/spf13/cobra"
)

func TestListImages(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.JPG", "a.png", "notes.txt", "c.webp"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o600); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.Mkdir(filepath.Join(dir, "sub.jpg"), 0o700); err != nil {
		t.Fatal(err)
	}

	files, err := listImages(dir, []string{".jpg", ".png"})
	if err != nil {
		t.Fatalf("listImages failed: %v", err)
	}

	expected := []string{filepath.Join(dir, "a.png"), filepath.Join(dir, "b.JPG")}
	if !slices.Equal(files, expected) {
		t.Errorf("expected %v, got %v", expected, files)
	}

	if _, err := listImages(filepath.Join(dir, "missing"), []string{".jpg"}); err == nil {
		t.Error("expected error for missing directory")
	}
}

func TestCollectionID(t *testing.T) {
	if got := collectionID(nil, "collection"); got != "collection" {
		t.Errorf("expected fallback, got %q", got)
	}
	if got := collectionID([]string{"bar"}, "collection"); got != "bar" {
		t.Errorf("expected argument, got %q", got)
	}
}

func TestApplyServeFlags(t *testing.T) {
	cmd := &cobra.Command{}
	cmd.Flags().Int("port", 3000, "")
	cmd.Flags().String("host", "0.0.0.0", "")

	cfg := &config.Config{Server: config.ServerConfig{Host: "10.0.0.1", Port: 9000}}
	applyServeFlags(cmd, cfg)
	if cfg.Server.Port != 9000 || cfg.Server.Host != "10.0.0.1" {
		t.Errorf("unset flags should keep the environment values, got %+v", cfg.Server)
	}

	if err := cmd.Flags().Set("port", "8081"); err != nil {
		t.Fatal(err)
	}
	applyServeFlags(cmd, cfg)
	if cfg.Server.Port != 8081 || cfg.Server.Host != "10.0.0.1" {
		t.Errorf("expected port flag to win, got %+v", cfg.Server)
	}
}

type collectionRecognizer struct {
	recognition.Recognizer
	err error
}

func (c collectionRecognizer) CreateCollection(ctx context.Context, collectionID string) error {
	return c.err
}

func TestEnsureCollection(t *testing.T) {
	logger, _ := test.NewNullLogger()
	ctx := context.Background()

	if err := ensureCollection(ctx, collectionRecognizer{}, "collection", logger); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := ensureCollection(ctx, collectionRecognizer{err: recognition.ErrCollectionExists}, "collection", logger); err != nil {
		t.Errorf("existing collection should not fail, got %v", err)
	}

	boom := errors.New("database down")
	if err := ensureCollection(ctx, collectionRecognizer{err: boom}, "collection", logger); !errors.Is(err, boom) {
		t.Errorf("expected %v, got %v", boom, err)
	}
}

func TestMustGetFlags(t *testing.T) {
	cmd := &cobra.Command{}
	cmd.Flags().Bool("short", true, "")
	cmd.Flags().StringSlice("ext", []string{".jpg"}, "")

	if !mustGetBool(cmd, "short") {
		t.Error("expected bool flag default")
	}
	if got := mustGetStringSlice(cmd, "ext"); !slices.Equal(got, []string{".jpg"}) {
		t.Errorf("unexpected slice flag %v", got)
	}

	defer func() {
		if recover() == nil {
			t.Error("expected panic for unknown flag")
		}
	}()
	mustGetString(cmd, "missing")
}

func TestPrintEnrollSummary(t *testing.T) {
	results := []enrollResult{
		{file: "/photos/new.jpg", state: &pipeline.State{FaceID: "face-1", Enrolled: true, Profile: &database.Profile{FaceID: "face-1", Name: "yael"}}},
		{file: "/photos/known.jpg", state: &pipeline.State{FaceID: "face-2", Profile: &database.Profile{FaceID: "face-2", Name: "ziv"}}},
		{file: "/photos/orphan.jpg", state: &pipeline.State{FaceID: "face-3"}},
		{file: "/photos/blurry.jpg", state: &pipeline.State{}, err: errors.New("no face detected")},
	}

	var out bytes.Buffer
	counts := printEnrollSummary(&out, results)

	if counts != (enrollCounts{enrolled: 1, recognized: 1, failed: 2}) {
		t.Errorf("unexpected counts %+v", counts)
	}
	for _, line := range []string{
		"NEW   new.jpg: yael (face-1)",
		"KNOWN known.jpg: ziv (face-2)",
		"FAIL  orphan.jpg: " + sentence.ErrNoProfile.Error(),
		"FAIL  blurry.jpg: no face detected",
	} {
		if !strings.Contains(out.String(), line) {
			t.Errorf("expected summary line %q in:\n%s", line, out.String())
		}
	}
}

type usageAnalyzer struct {
	ai.FaceAnalyzer
	usage ai.Usage
}

func (u usageAnalyzer) Name() string { return "gpt-test" }
func (u usageAnalyzer) GetUsage() ai.Usage { return u.usage }

func TestPrintAnalyzerUsage(t *testing.T) {
	tests := []struct {
		name     string
		analyzer ai.FaceAnalyzer
		want     string
	}{
		{"disabled", nil, ""},
		{"unused", usageAnalyzer{}, ""},
		{"used", usageAnalyzer{usage: ai.Usage{Requests: 2, InputTokens: 300, OutputTokens: 40}},
			"\nFace analyzer usage (gpt-test):\n  Requests: 2\n  Input tokens: 300\n  Output tokens: 40\n"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var out bytes.Buffer
			printAnalyzerUsage(&out, tc.analyzer)
			if out.String() != tc.want {
				t.Errorf("got %q, want %q", out.String(), tc.want)
			}
		})
	}
}

func TestCheckSpeechFormat(t *testing.T) {
	tests := []struct {
		provider string
		format   string
		want     string
		warned   bool
	}{
		{config.ProviderOpenAI, "mp3", "mp3", false},
		{config.ProviderGemini, "pcm", "pcm", false},
		{config.ProviderGemini, "wav", "wav", false},
		{config.ProviderGemini, "MP3", "wav", true},
	}

	for _, tc := range tests {
		t.Run(tc.provider+"/"+tc.format, func(t *testing.T) {
			logger, hook := test.NewNullLogger()
			cfg := &config.Config{Speech: config.SpeechConfig{Provider: tc.provider, Format: tc.format}}

			if got := checkSpeechFormat(cfg, logger); got != tc.want {
				t.Errorf("expected format %q, got %q", tc.want, got)
			}
			if warned := len(hook.AllEntries()) > 0; warned != tc.warned {
				t.Errorf("expected warning %v, got %v", tc.warned, warned)
			}
		})
	}
}
