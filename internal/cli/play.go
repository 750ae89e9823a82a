package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"quiz-arena/internal/app"
	"quiz-arena/internal/domain"
	"quiz-arena/internal/engine"
	"quiz-arena/internal/logger"
	"quiz-arena/internal/tui"
)

type playFlags struct {
	learner    string
	name       string
	subject    string
	difficulty string
	level      int
	timeLimit  int
	opponent   bool
	noColor    bool
}

// NewPlayCmd plays one session in the terminal.
func NewPlayCmd(configPath *string) *cobra.Command {
	flags := playFlags{}
	cmd := &cobra.Command{
		Use:   "play",
		Short: "Play a quiz session in the terminal",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlay(cmd, *configPath, flags)
		},
	}
	cmd.Flags().StringVar(&flags.learner, "learner", "local", "learner id")
	cmd.Flags().StringVar(&flags.name, "name", "", "display name on the leaderboard")
	cmd.Flags().StringVar(&flags.subject, "subject", "", "question subject")
	cmd.Flags().StringVar(&flags.difficulty, "difficulty", string(domain.Easy), "easy, medium or hard")
	cmd.Flags().IntVar(&flags.level, "level", 1, "level to play")
	cmd.Flags().IntVar(&flags.timeLimit, "time-limit", 0, "seconds per question (0 uses quiz.timeLimit)")
	cmd.Flags().BoolVar(&flags.opponent, "opponent", false, "play against the computer opponent")
	cmd.Flags().BoolVar(&flags.noColor, "no-color", false, "disable colors")
	return cmd
}

func runPlay(cmd *cobra.Command, configPath string, flags playFlags) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	// Log lines would tear the terminal UI.
	cfg.Logger.Level = "error"
	if err := logger.Initialize(cfg.Logger); err != nil {
		return err
	}
	defer logger.Sync()

	b, err := openBackends(ctx, cfg)
	if err != nil {
		return err
	}
	defer b.Close()
	service, err := buildService(cfg, b)
	if err != nil {
		return err
	}
	defer service.Close()

	live, err := service.StartSession(ctx, app.SessionRequest{
		LearnerID:   flags.learner,
		DisplayName: flags.name,
		Subject:     flags.subject,
		Difficulty:  domain.Difficulty(flags.difficulty),
		Level:       flags.level,
		TimeLimit:   flags.timeLimit,
		Opponent:    flags.opponent,
	})
	if err != nil {
		return err
	}
	events, cancel, err := service.Subscribe(ctx, live.ID())
	if err != nil {
		return err
	}
	defer cancel()

	player := sessionPlayer{ctx: ctx, service: service, id: live.ID()}
	if err := service.Begin(ctx, live.ID()); err != nil {
		return err
	}
	err = tui.Run(player, events, live.Snapshot().Questions, tui.Options{
		NoColor:  flags.noColor,
		Opponent: flags.opponent,
	}, cmd.OutOrStdout())
	// A UI crash must not leave the countdown running.
	player.Abort()
	if err != nil {
		return err
	}

	if _, ok := live.Summary(); ok {
		service.Close()
		progress, err := service.Progress(ctx, flags.learner)
		if err == nil {
			fmt.Fprintf(cmd.OutOrStdout(), "XP %d, rank %d, %s unlocked up to level %d\n",
				progress.XP, progress.Rank(), live.Request().Difficulty, progress.Unlocked(live.Request().Difficulty))
		}
	}
	return nil
}

// sessionPlayer forwards TUI commands to the service.
type sessionPlayer struct {
	ctx     context.Context
	service *app.QuizService
	id      string
}

func (p sessionPlayer) SubmitAnswer(candidate string) {
	_ = p.service.SubmitAnswer(p.ctx, p.id, candidate)
}

func (p sessionPlayer) Select(side engine.Side, pairID string) {
	_ = p.service.SelectPair(p.ctx, p.id, side, pairID)
}

func (p sessionPlayer) Advance() {
	_ = p.service.Advance(p.ctx, p.id)
}

func (p sessionPlayer) Abort() {
	_ = p.service.Abort(p.ctx, p.id)
}
