package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var collectionCmd = &cobra.Command{
	Use:   "collection",
	Short: "Manage the face collection",
}

var collectionCreateCmd = &cobra.Command{
	Use:   "create [collection-id]",
	Short: "Create the face collection",
	Long:  `Creates the face collection (COLLECTION_ID by default). An existing collection is left untouched.`,
	Args:  cobra.MaximumNArgs(1),
	RunE:  runCollectionCreate,
}

var collectionCountCmd = &cobra.Command{
	Use:   "count [collection-id]",
	Short: "Show the number of enrolled faces and stored profiles",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runCollectionCount,
}

func init() {
	rootCmd.AddCommand(collectionCmd)
	collectionCmd.AddCommand(collectionCreateCmd)
	collectionCmd.AddCommand(collectionCountCmd)
}

// collectionID returns the collection named on the command line or the configured one.
func collectionID(args []string, fallback string) string {
	if len(args) > 0 && args[0] != "" {
		return args[0]
	}
	return fallback
}

func runCollectionCreate(cmd *cobra.Command, args []string) error {
	cfg, log := loadConfig()
	ctx := context.Background()

	b, err := openBackend(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer b.Close()

	id := collectionID(args, cfg.Collection.ID)
	if err := ensureCollection(ctx, b.recognizer, id, log); err != nil {
		return fmt.Errorf("failed to create collection: %w", err)
	}
	return nil
}

func runCollectionCount(cmd *cobra.Command, args []string) error {
	cfg, log := loadConfig()
	ctx := context.Background()

	b, err := openBackend(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer b.Close()

	id := collectionID(args, cfg.Collection.ID)
	exists, err := b.faces.HasCollection(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to look up collection: %w", err)
	}
	if !exists {
		return fmt.Errorf("collection %s does not exist", id)
	}

	faces, err := b.faces.Count(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to count faces: %w", err)
	}
	profiles, err := b.profiles.CountProfiles(ctx)
	if err != nil {
		return fmt.Errorf("failed to count profiles: %w", err)
	}

	fmt.Printf("Collection: %s\n", id)
	fmt.Printf("Faces:      %d\n", faces)
	fmt.Printf("Profiles:   %d (%s)\n", profiles, cfg.ProfileType)
	return nil
}
