package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/kozaktomas/barface/internal/sentence"
	"github.com/spf13/cobra"
)

var profileCmd = &cobra.Command{
	Use:   "profile <face-id>",
	Short: "Show the stored profile of a face",
	Long:  `Prints the generated name, face attributes and drink history of an enrolled face together with the sentence spoken for it.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runProfile,
}

func init() {
	rootCmd.AddCommand(profileCmd)
}

func runProfile(cmd *cobra.Command, args []string) error {
	cfg, log := loadConfig()
	ctx := context.Background()

	b, err := openBackend(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer b.Close()

	profile, err := b.profiles.GetProfile(ctx, args[0])
	if err != nil {
		return fmt.Errorf("failed to get profile: %w", err)
	}
	if profile == nil {
		return fmt.Errorf("no profile stored for face %s", args[0])
	}

	text, err := sentence.Compose(profile)
	if err != nil {
		return err
	}

	fmt.Printf("Face:     %s\n", profile.FaceID)
	fmt.Printf("Name:     %s\n", profile.Name)
	fmt.Printf("Gender:   %s (%.1f%%)\n", profile.FaceDetail.Gender.Value, profile.FaceDetail.Gender.Confidence)
	fmt.Printf("Smiling:  %t (%.1f%%)\n", profile.FaceDetail.Smile.Value, profile.FaceDetail.Smile.Confidence)
	fmt.Printf("Drinks:   %s\n", strings.Join(profile.FavDrinks, ", "))
	fmt.Printf("Sentence: %s\n", text)
	return nil
}
