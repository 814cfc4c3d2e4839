package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/claimtriage/checkprioritizer/internal/ingest"
)

var indexNoProgress bool

// indexCmd represents the index command
var indexCmd = &cobra.Command{
	Use:   "index <dataset.tsv> [dataset.tsv...]",
	Short: "Index benchmark datasets into the evidence corpus",
	Long: `Index loads claim/check-worthiness benchmark datasets (TSV with
tweet_id and tweet_text columns) into the corpus store: each row is
sanitized, embedded, and upserted. Re-running over the same files is safe;
records are replaced by id.

Example:
  checkprioritizer index data/claim_dataset.tsv data/checkworthiness_dataset.tsv`,
	Args: cobra.MinimumNArgs(1),
	RunE: runIndex,
}

func init() {
	rootCmd.AddCommand(indexCmd)
	indexCmd.Flags().BoolVar(&indexNoProgress, "no-progress", false, "disable the progress bar")
}

func runIndex(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	a, err := newApp(cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	ingestor := ingest.NewDatasetIngestor(a.indexer, !indexNoProgress)

	total := 0
	for _, path := range args {
		count, err := ingestor.IngestFile(cmd.Context(), path)
		total += count
		if err != nil {
			return fmt.Errorf("ingest %s: %w", path, err)
		}
	}

	size, err := a.corpus.Count(cmd.Context())
	if err != nil {
		return fmt.Errorf("inspect corpus: %w", err)
	}

	fmt.Printf("✓ Indexed %d records (%d total in corpus)\n", total, size)
	return nil
}
