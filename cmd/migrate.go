package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/healthnav/healthnav/db"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "데이터베이스 스키마 마이그레이션 적용",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return fmt.Errorf("loading configuration: %w", err)
		}
		if err := db.Migrate(cfg.PostgresURL()); err != nil {
			return fmt.Errorf("running migrations: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "마이그레이션 완료")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
