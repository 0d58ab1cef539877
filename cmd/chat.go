package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/healthnav/healthnav/internal/agent"
	"github.com/healthnav/healthnav/internal/app"
	"github.com/healthnav/healthnav/internal/convo"
	"github.com/healthnav/healthnav/internal/embedding"
	"github.com/healthnav/healthnav/internal/retrieval"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "건강 지원 정보 상담 시작",
	Long: `Starts the interactive chat assistant over the embedded corpus.

Commands inside the session: reset/clear/초기화 clears the
conversation, exit/quit/종료 ends it and saves the transcript.`,
	RunE: runChat,
}

func init() {
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, args []string) error {
	logger := newLogger()
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	ctx := cmd.Context()
	a, err := app.Setup(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	store, err := retrieval.NewStore(a.Pool)
	if err != nil {
		return err
	}

	// An empty corpus answers nothing useful; point at the pipeline
	// instead of starting a session.
	count, err := store.CountEmbeddings(ctx)
	if err != nil {
		return fmt.Errorf("checking corpus: %w", err)
	}
	if count == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "임베딩된 문서가 없습니다. 먼저 healthnav crawl / upload를 실행하세요.")
		return nil
	}

	embedSvc := embedding.New(a.Embedder, a.EmbeddingDim())
	retriever := retrieval.NewRetriever(store, embedSvc, cfg.RetrievalTopK, logger)

	assistant, err := agent.New(agent.Config{
		Genkit:    a.Genkit,
		Model:     cfg.FullModelName(),
		Retriever: retriever,
		Logger:    logger,
		MaxTurns:  cfg.MaxTurns,
	})
	if err != nil {
		return err
	}

	saver, err := convo.NewStore(a.Pool, logger)
	if err != nil {
		return err
	}

	loop, err := agent.NewLoop(agent.LoopConfig{
		Input:      os.Stdin,
		Output:     cmd.OutOrStdout(),
		Agent:      assistant,
		History:    agent.NewHistory(),
		Summarizer: agent.NewSummarizer(agent.GenkitGenerator{G: a.Genkit}, cfg.FullModelName(), logger),
		CorpusSummary: func(ctx context.Context) (string, error) {
			summary, err := store.Summarize(ctx)
			if err != nil {
				return "", err
			}
			return retrieval.FormatSummary(summary), nil
		},
		Saver:  saver,
		Logger: logger,
	})
	if err != nil {
		return err
	}
	return loop.Run(ctx)
}
