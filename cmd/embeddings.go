package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/kozaktomas/band-gallery/internal/config"
	"github.com/kozaktomas/band-gallery/internal/database"
)

const embeddingImportBatch = 500

var embeddingsCmd = &cobra.Command{
	Use:   "embeddings",
	Short: "Image embedding commands",
}

var embeddingsImportCmd = &cobra.Command{
	Use:   "import",
	Short: "Import image embeddings from a JSON lines file",
	Long: `Import image embeddings produced by the photo intelligence pipeline.
Each line holds one object: {"photo_id": "...", "embedding": [...], "model": "..."}.
Use --file - to read from stdin.`,
	RunE: runEmbeddingsImport,
}

func init() {
	rootCmd.AddCommand(embeddingsCmd)
	embeddingsCmd.AddCommand(embeddingsImportCmd)

	embeddingsImportCmd.Flags().String("file", "", "JSON lines file to import (- for stdin)")
	_ = embeddingsImportCmd.MarkFlagRequired("file")
}

type embeddingRecord struct {
	PhotoID   string    `json:"photo_id"`
	Embedding []float32 `json:"embedding"`
	Model     string    `json:"model"`
}

// importEmbeddings streams records from r into store in batches and returns the number stored.
func importEmbeddings(ctx context.Context, r io.Reader, store database.EmbeddingStore, batchSize int) (int, error) {
	dec := json.NewDecoder(r)
	batch := make([]database.PhotoEmbedding, 0, batchSize)
	imported := 0

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := store.SaveBatch(ctx, batch); err != nil {
			return err
		}
		imported += len(batch)
		batch = batch[:0]
		return nil
	}

	for record := 1; ; record++ {
		var rec embeddingRecord
		err := dec.Decode(&rec)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return imported, fmt.Errorf("record %d: %w", record, err)
		}
		if rec.PhotoID == "" || len(rec.Embedding) == 0 {
			return imported, fmt.Errorf("record %d: photo_id and embedding are required", record)
		}
		batch = append(batch, database.PhotoEmbedding{PhotoID: rec.PhotoID, Embedding: rec.Embedding, Model: rec.Model})
		if len(batch) == batchSize {
			if err := flush(); err != nil {
				return imported, err
			}
		}
	}
	return imported, flush()
}

func runEmbeddingsImport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	path := mustGetString(cmd, "file")

	var in io.Reader = os.Stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("failed to open %s: %w", path, err)
		}
		defer f.Close()
		in = f
	}

	pool, err := openDatabase(ctx, config.Load())
	if err != nil {
		return err
	}
	defer pool.Close()

	store, err := database.GetEmbeddingStore(ctx)
	if err != nil {
		return fmt.Errorf("embedding store: %w", err)
	}

	imported, err := importEmbeddings(ctx, in, store, embeddingImportBatch)
	fmt.Printf("Imported %d embeddings\n", imported)
	return err
}
