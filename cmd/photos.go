package cmd

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/kozaktomas/band-gallery/internal/blob"
	"github.com/kozaktomas/band-gallery/internal/clustering"
	"github.com/kozaktomas/band-gallery/internal/config"
	"github.com/kozaktomas/band-gallery/internal/constants"
	"github.com/kozaktomas/band-gallery/internal/database"
)

// maxReportedFailures caps the per-photo failures printed after a hash run.
const maxReportedFailures = 10

var photosCmd = &cobra.Command{
	Use:   "photos",
	Short: "Photo maintenance commands",
}

var photosHashCmd = &cobra.Command{
	Use:   "hash",
	Short: "Compute perceptual hashes for photos that have none",
	Long: `Download each photo without stored hashes from the bucket, compute its
pHash and dHash, and store them for near-duplicate clustering.`,
	RunE: runPhotosHash,
}

func init() {
	rootCmd.AddCommand(photosCmd)
	photosCmd.AddCommand(photosHashCmd)

	photosHashCmd.Flags().String("event", "", "Only hash photos of this event")
	photosHashCmd.Flags().Int("concurrency", constants.DefaultConcurrency, "Number of parallel downloads")
	photosHashCmd.Flags().Int("limit", 0, "Hash at most this many photos (0 = all)")
}

func runPhotosHash(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	eventID := mustGetString(cmd, "event")
	concurrency := mustGetInt(cmd, "concurrency")
	limit := mustGetInt(cmd, "limit")

	cfg := config.Load()
	pool, err := openDatabase(ctx, cfg)
	if err != nil {
		return err
	}
	defer pool.Close()

	hashes, err := database.GetHashStore(ctx)
	if err != nil {
		return fmt.Errorf("hash store: %w", err)
	}
	store, err := blob.New(ctx, cfg.Storage)
	if err != nil {
		return fmt.Errorf("blob store: %w", err)
	}

	photos, err := hashes.PhotosWithoutHashes(ctx, eventID)
	if err != nil {
		return fmt.Errorf("failed to list photos: %w", err)
	}
	if limit > 0 && len(photos) > limit {
		photos = photos[:limit]
	}
	if len(photos) == 0 {
		fmt.Println("All photos already have hashes")
		return nil
	}
	fmt.Printf("Photos to hash: %d\n\n", len(photos))

	bar := progressbar.NewOptions(len(photos),
		progressbar.OptionSetDescription("Hashing photos"),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("photos"),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionFullWidth(),
	)

	stats := clustering.HashBatch(ctx, hashes, store, photos, concurrency, func() { bar.Add(1) })
	fmt.Println()

	for i, f := range stats.Failures {
		if i == maxReportedFailures {
			log.Warn().Int("more", len(stats.Failures)-i).Msg("Further hash failures omitted")
			break
		}
		log.Warn().Err(f.Err).Str("photo", f.PhotoID).Msg("Failed to hash photo")
	}
	fmt.Printf("\nCompleted: %d photos hashed, %d errors\n", stats.Hashed, len(stats.Failures))
	return nil
}
