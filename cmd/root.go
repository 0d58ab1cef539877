// Package cmd contains the healthnav command line interface.
//
// Following the pattern used by kubectl, hugo and other standard Go
// CLI tools, all application logic hangs off the cobra command tree
// here and main.go stays a minimal entry point.
package cmd

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/healthnav/healthnav/internal/config"
	"github.com/healthnav/healthnav/internal/log"
)

var debugFlag bool

var rootCmd = &cobra.Command{
	Use:   "healthnav",
	Short: "보건소 건강 지원 정보 파이프라인과 상담 챗봇",
	Long: `healthnav collects public health-support program information,
embeds it into a searchable corpus and serves it through a
terminal chat assistant.

Pipeline order: crawl → upload → group → chat.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		// Bare invocation enters chat mode.
		return chatCmd.RunE(cmd, args)
	},
}

// Execute runs the root command. main exits with code 1 when this
// returns an error.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&debugFlag, "debug", false, "enable debug logging")
}

// newLogger builds the process logger from the --debug flag.
func newLogger() log.Logger {
	level := slog.LevelInfo
	if debugFlag {
		level = slog.LevelDebug
	}
	return log.New(log.Config{Level: level})
}

// loadConfig loads and validates configuration for a command run.
func loadConfig() (*config.Config, error) {
	return config.Load()
}
