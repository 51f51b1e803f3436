package cmd

import (
	"errors"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/kozaktomas/band-gallery/internal/clustering"
	"github.com/kozaktomas/band-gallery/internal/config"
	"github.com/kozaktomas/band-gallery/internal/database"
)

var clustersCmd = &cobra.Command{
	Use:   "clusters",
	Short: "Photo cluster commands",
}

var clustersComputeCmd = &cobra.Command{
	Use:   "compute",
	Short: "Recompute algorithmic clusters of one type",
	Long: `Recompute near-duplicate clusters from stored perceptual hashes, or scene
clusters from stored image embeddings. Existing algorithmic clusters of the same
type and event are replaced; manually created clusters are kept.`,
	RunE: runClustersCompute,
}

var clustersListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored clusters",
	RunE:  runClustersList,
}

func init() {
	rootCmd.AddCommand(clustersCmd)
	clustersCmd.AddCommand(clustersComputeCmd, clustersListCmd)

	clustersComputeCmd.Flags().String("type", string(database.ClusterTypeNearDuplicate), "Cluster type: near_duplicate or scene")
	clustersComputeCmd.Flags().String("event", "", "Only cluster photos of this event")
	clustersComputeCmd.Flags().Bool("dry-run", false, "Compute and report without storing")

	clustersListCmd.Flags().String("type", "", "Only list clusters of this type")
	clustersListCmd.Flags().String("event", "", "Only list clusters of this event")
}

func parseClusterTypeFlag(cmd *cobra.Command) (database.ClusterType, error) {
	t := database.ClusterType(mustGetString(cmd, "type"))
	if t != "" && !t.IsKnown() {
		return "", fmt.Errorf("unknown cluster type %q (want near_duplicate or scene)", t)
	}
	return t, nil
}

func runClustersCompute(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	clusterType, err := parseClusterTypeFlag(cmd)
	if err != nil {
		return err
	}
	if clusterType == "" {
		return errors.New("--type is required")
	}
	eventID := mustGetString(cmd, "event")
	dryRun := mustGetBool(cmd, "dry-run")

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
	embeddings, err := database.GetEmbeddingStore(ctx)
	if err != nil {
		return fmt.Errorf("embedding store: %w", err)
	}
	clusters, err := database.GetClusterWriter(ctx)
	if err != nil {
		return fmt.Errorf("cluster writer: %w", err)
	}

	svc := clustering.NewService(hashes, embeddings, clusters, cfg.Clustering)
	result, err := svc.Compute(ctx, clusterType, eventID, dryRun)
	if err != nil {
		return err
	}

	fmt.Printf("Candidates: %d\n", result.Candidates)
	fmt.Printf("Clusters:   %d (%d photos)\n", result.Clusters, result.Photos)
	if dryRun {
		fmt.Println("Dry run, nothing stored")
	}
	return nil
}

func runClustersList(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	clusterType, err := parseClusterTypeFlag(cmd)
	if err != nil {
		return err
	}

	pool, err := openDatabase(ctx, config.Load())
	if err != nil {
		return err
	}
	defer pool.Close()

	clusters, err := database.GetClusterReader(ctx)
	if err != nil {
		return fmt.Errorf("cluster reader: %w", err)
	}
	list, err := clusters.SearchClusters(ctx, database.ClusterListFilter{
		ClusterType: clusterType,
		EventID:     mustGetString(cmd, "event"),
	})
	if err != nil {
		return fmt.Errorf("failed to list clusters: %w", err)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTYPE\tSOURCE\tPHOTOS\tREPRESENTATIVE")
	for _, c := range list {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\n", c.ID, c.ClusterType, c.Source(), len(c.PhotoIDs), c.Representative())
	}
	return w.Flush()
}
