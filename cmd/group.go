package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/healthnav/healthnav/internal/app"
	"github.com/healthnav/healthnav/internal/policy"
)

var (
	groupThreshold float64
	groupBatchSize int
	groupReset     bool
	groupDryRun    bool
)

var groupCmd = &cobra.Command{
	Use:   "group",
	Short: "제목 유사도로 문서를 정책 그룹에 배정",
	Long: `Assigns a policy_id to every ungrouped document by comparing title
embeddings against existing group representatives. Documents below
the similarity threshold found their own group.

Each batch commits independently; a failed run resumes from the
already-committed batches. --dry-run reports assignments without
writing.`,
	RunE: runGroup,
}

func init() {
	groupCmd.Flags().Float64Var(&groupThreshold, "threshold", 0, "similarity threshold, 0 = use configured default")
	groupCmd.Flags().IntVar(&groupBatchSize, "batch-size", 0, "documents per batch, 0 = use configured default")
	groupCmd.Flags().BoolVar(&groupReset, "reset", false, "clear all policy_id values and regroup from scratch")
	groupCmd.Flags().BoolVar(&groupDryRun, "dry-run", false, "compute assignments without persisting")
	rootCmd.AddCommand(groupCmd)
}

func runGroup(cmd *cobra.Command, args []string) error {
	logger := newLogger()
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	threshold := groupThreshold
	if threshold == 0 {
		threshold = cfg.GroupThreshold
	}
	batchSize := groupBatchSize
	if batchSize == 0 {
		batchSize = cfg.GroupBatchSize
	}

	// One grouping run at a time per machine.
	release, err := policy.AcquireRunLock(lockDir())
	if err != nil {
		return err
	}
	defer release()

	ctx := cmd.Context()
	pool, err := app.SetupDB(ctx, cfg)
	if err != nil {
		return err
	}
	defer pool.Close()

	store, err := policy.NewStore(pool, logger)
	if err != nil {
		return err
	}

	summary, err := policy.NewGrouper(store, logger).Run(ctx, policy.GroupOptions{
		Threshold: threshold,
		BatchSize: batchSize,
		Reset:     groupReset,
		DryRun:    groupDryRun,
	})
	if err != nil {
		return fmt.Errorf("grouping failed: %w", err)
	}

	mode := ""
	if groupDryRun {
		mode = " (dry-run)"
	}
	fmt.Fprintf(cmd.OutOrStdout(),
		"그룹화 완료%s: 처리 %d건, 신규 그룹 %d개, 병합 %d건, 생략 %d건, 배치 %d개 (%.1fs)\n",
		mode, summary.Processed, summary.NewGroups, summary.Merged,
		summary.Skipped, summary.Batches, summary.Elapsed.Seconds())
	return nil
}

// lockDir is where the grouping run lock lives.
func lockDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return os.TempDir()
	}
	return filepath.Join(home, ".healthnav")
}
