package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/healthnav/healthnav/internal/app"
	"github.com/healthnav/healthnav/internal/crawl"
	"github.com/healthnav/healthnav/internal/embedding"
	"github.com/healthnav/healthnav/internal/policy"
)

var (
	uploadInput string
	uploadReset bool
)

var uploadCmd = &cobra.Command{
	Use:   "upload",
	Short: "수집된 정보를 문서와 임베딩으로 적재",
	Long: `Reads a crawl output file, inserts each record as a document and
embeds its title, requirements and benefits fields. Batches are
committed as they complete, so an interrupted run keeps its
progress.`,
	RunE: runUpload,
}

func init() {
	uploadCmd.Flags().StringVar(&uploadInput, "input", "data/records.json", "crawl output file to upload")
	uploadCmd.Flags().BoolVar(&uploadReset, "reset", false, "truncate documents and embeddings first")
	rootCmd.AddCommand(uploadCmd)
}

func runUpload(cmd *cobra.Command, args []string) error {
	logger := newLogger()
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	records, err := readRecords(uploadInput)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	a, err := app.Setup(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	store, err := policy.NewStore(a.Pool, logger)
	if err != nil {
		return err
	}
	embedSvc := embedding.New(a.Embedder, a.EmbeddingDim())
	uploader := policy.NewUploader(store, embedSvc, logger)

	summary, err := uploader.Upload(ctx, toSourceRecords(records), policy.UploadOptions{
		Reset:     uploadReset,
		BatchSize: cfg.UploadBatch,
	})
	if err != nil {
		return fmt.Errorf("upload failed: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(),
		"적재 완료: 문서 %d건, 배치 %d개, 임베딩 생략 %d건 (%.1fs)\n",
		summary.Inserted, summary.Batches, summary.SkippedFields, summary.Elapsed.Seconds())
	return nil
}

func toSourceRecords(records []crawl.Record) []policy.SourceRecord {
	out := make([]policy.SourceRecord, 0, len(records))
	for _, r := range records {
		out = append(out, policy.SourceRecord{
			Title:        r.Title,
			Requirements: r.SupportTarget,
			Benefits:     r.SupportContent,
			RawText:      r.RawText,
			SourceURL:    r.SourceURL,
			Region:       r.Region,
		})
	}
	return out
}
