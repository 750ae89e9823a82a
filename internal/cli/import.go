package cli

import (
	"context"
	"fmt"
	"os"
	"time"
	"unicode/utf8"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"quiz-arena/internal/config"
	"quiz-arena/internal/importer"
	"quiz-arena/internal/infra/memory"
	"quiz-arena/internal/infra/postgres"
	redisinfra "quiz-arena/internal/infra/redis"
	"quiz-arena/internal/logger"
)

// NewImportCmd loads a CSV question bank into Postgres.
func NewImportCmd(configPath *string) *cobra.Command {
	var (
		delimiter string
		subject   string
	)
	cmd := &cobra.Command{
		Use:   "import <file.csv>",
		Short: "Import questions from a CSV file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			defer logger.Sync()
			if cmd.Flags().Changed("delimiter") {
				cfg.Import.Delimiter = delimiter
			}
			if cmd.Flags().Changed("subject") {
				cfg.Import.DefaultSubject = subject
			}
			return runImport(cmd, cfg, args[0])
		},
	}
	cmd.Flags().StringVar(&delimiter, "delimiter", ",", "CSV field delimiter (overrides import.delimiter)")
	cmd.Flags().StringVar(&subject, "subject", "", "subject for rows without one (overrides import.defaultSubject)")
	return cmd
}

func runImport(cmd *cobra.Command, cfg config.Config, path string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if cfg.Postgres.URL == "" {
		return fmt.Errorf("postgres url not configured")
	}
	comma, size := utf8.DecodeRuneInString(cfg.Import.Delimiter)
	if size == 0 || size != len(cfg.Import.Delimiter) {
		return fmt.Errorf("delimiter must be a single character, got %q", cfg.Import.Delimiter)
	}

	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := runMigrationsWithConfig(ctx, cfg); err != nil {
		return err
	}
	b, err := openBackends(ctx, cfg)
	if err != nil {
		return err
	}
	defer b.Close()

	store := postgres.NewQuestionStore(b.pool)
	report, err := importer.New(store, importer.Options{
		Comma:          comma,
		DefaultSubject: cfg.Import.DefaultSubject,
	}).Import(ctx, f)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, w := range report.Warnings {
		fmt.Fprintln(out, w.String())
	}
	fmt.Fprintf(out, "imported %d questions, skipped %d rows\n", report.Imported, report.Skipped)

	if b.redis != nil {
		// Cached sets would hide the new questions until they expire.
		cache := redisinfra.NewQuestionRepository(b.redis, memory.NewStaticQuestionLoader(nil), time.Minute)
		if err := cache.Invalidate(ctx); err != nil {
			logger.Get().Warn("question cache invalidation failed", zap.Error(err))
		}
	}
	return nil
}
