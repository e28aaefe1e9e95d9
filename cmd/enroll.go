package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/kozaktomas/barface/internal/ai"
	"github.com/kozaktomas/barface/internal/generator"
	"github.com/kozaktomas/barface/internal/pipeline"
	"github.com/kozaktomas/barface/internal/sentence"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

var enrollCmd = &cobra.Command{
	Use:   "enroll <dir>",
	Short: "Enroll the faces found in a directory of photos",
	Long: `Runs every photo in a directory through face recognition. Unknown faces
are enrolled with a generated name and drink history, known faces are
reported with their stored profile. Nothing is spoken.`,
	Args: cobra.ExactArgs(1),
	RunE: runEnroll,
}

func init() {
	rootCmd.AddCommand(enrollCmd)

	enrollCmd.Flags().StringSlice("ext", []string{".jpg", ".jpeg", ".png", ".webp"}, "Photo file extensions to process")
}

// listImages returns the files in dir with one of exts, sorted by name.
func listImages(dir string, exts []string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory: %w", err)
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if slices.Contains(exts, ext) {
			files = append(files, filepath.Join(dir, entry.Name()))
		}
	}
	return files, nil
}

type enrollResult struct {
	file  string
	state *pipeline.State
	err   error
}

func runEnroll(cmd *cobra.Command, args []string) error {
	cfg, log := loadConfig()
	ctx := context.Background()

	exts := mustGetStringSlice(cmd, "ext")
	for i := range exts {
		exts[i] = strings.ToLower(exts[i])
		if !strings.HasPrefix(exts[i], ".") {
			exts[i] = "." + exts[i]
		}
	}

	files, err := listImages(args[0], exts)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		fmt.Println("No photos found")
		return nil
	}

	b, err := openBackend(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer b.Close()
	defer saveHNSWIndex(log)

	if err := ensureCollection(ctx, b.recognizer, cfg.Collection.ID, log); err != nil {
		return fmt.Errorf("failed to create collection: %w", err)
	}

	// Identify never synthesizes, so no speech provider is needed.
	orchestrator := pipeline.New(
		b.recognizer,
		b.profiles,
		nil,
		generator.New(nil),
		pipeline.Options{CollectionID: cfg.Collection.ID, Speech: cfg.Speech},
		log,
	)

	bar := progressbar.NewOptions(len(files),
		progressbar.OptionSetDescription("Enrolling faces"),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("photos"),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionFullWidth(),
	)

	results := make([]enrollResult, 0, len(files))
	for _, file := range files {
		res := enrollResult{file: file}
		data, err := os.ReadFile(file)
		if err != nil {
			res.err = err
		} else {
			res.state, res.err = orchestrator.Identify(ctx, data)
		}
		results = append(results, res)
		_ = bar.Add(1)
	}
	fmt.Println()

	counts := printEnrollSummary(os.Stdout, results)
	fmt.Printf("\nEnrolled: %d, recognized: %d, failed: %d\n", counts.enrolled, counts.recognized, counts.failed)

	printAnalyzerUsage(os.Stdout, b.analyzer)
	return nil
}

// printAnalyzerUsage reports the face analyzer requests made during the run.
func printAnalyzerUsage(w io.Writer, analyzer ai.FaceAnalyzer) {
	if analyzer == nil {
		return
	}
	usage := analyzer.GetUsage()
	if usage.Requests == 0 {
		return
	}
	fmt.Fprintf(w, "\nFace analyzer usage (%s):\n", analyzer.Name())
	fmt.Fprintf(w, "  Requests: %d\n", usage.Requests)
	fmt.Fprintf(w, "  Input tokens: %d\n", usage.InputTokens)
	fmt.Fprintf(w, "  Output tokens: %d\n", usage.OutputTokens)
}

type enrollCounts struct {
	enrolled, recognized, failed int
}

// printEnrollSummary writes one line per photo. A face whose profile is
// missing from the profile store counts as a failure.
func printEnrollSummary(w io.Writer, results []enrollResult) enrollCounts {
	var counts enrollCounts
	for _, res := range results {
		name := filepath.Base(res.file)
		err := res.err
		if err == nil && (res.state == nil || res.state.Profile == nil) {
			err = sentence.ErrNoProfile
		}
		switch {
		case err != nil:
			counts.failed++
			fmt.Fprintf(w, "  FAIL  %s: %v\n", name, err)
		case res.state.Enrolled:
			counts.enrolled++
			fmt.Fprintf(w, "  NEW   %s: %s (%s)\n", name, res.state.Profile.Name, res.state.FaceID)
		default:
			counts.recognized++
			fmt.Fprintf(w, "  KNOWN %s: %s (%s)\n", name, res.state.Profile.Name, res.state.FaceID)
		}
	}
	return counts
}
