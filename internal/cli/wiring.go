package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"quiz-arena/internal/app"
	"quiz-arena/internal/config"
	"quiz-arena/internal/domain"
	"quiz-arena/internal/engine"
	"quiz-arena/internal/importer"
	"quiz-arena/internal/infra/memory"
	"quiz-arena/internal/infra/postgres"
	redisinfra "quiz-arena/internal/infra/redis"
	"quiz-arena/internal/logger"
)

// backends holds the connections opened for a command.
type backends struct {
	redis *redis.Client
	pool  *pgxpool.Pool
}

func openBackends(ctx context.Context, cfg config.Config) (*backends, error) {
	b := &backends{}
	if cfg.Redis.Addr != "" {
		b.redis = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := b.redis.Ping(ctx).Err(); err != nil {
			b.Close()
			return nil, fmt.Errorf("redis: %w", err)
		}
	}
	if cfg.Postgres.URL != "" {
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			b.Close()
			return nil, fmt.Errorf("postgres: %w", err)
		}
		b.pool = pool
	}
	return b, nil
}

func (b *backends) Close() {
	if b.pool != nil {
		b.pool.Close()
	}
	if b.redis != nil {
		_ = b.redis.Close()
	}
}

// buildService wires the quiz service from whatever backends are configured:
// Postgres holds questions and results, Redis caches questions and keeps the
// leaderboard, memory stands in for either.
func buildService(cfg config.Config, b *backends) (*app.QuizService, error) {
	engineCfg, err := cfg.EngineConfig()
	if err != nil {
		return nil, err
	}

	var loader memory.QuestionLoader
	if b.pool != nil {
		loader = postgres.NewQuestionStore(b.pool)
	} else {
		bank, err := seedQuestions(cfg)
		if err != nil {
			return nil, err
		}
		loader = memory.NewStaticQuestionLoader(bank)
	}

	questionTTL := config.TTLDuration(cfg.Questions.TTL, 10*time.Minute)
	stores := app.Stores{}
	if b.redis != nil {
		stores.Questions = redisinfra.NewQuestionRepository(b.redis, loader, questionTTL)
		stores.Sessions = redisinfra.NewSessionStore(b.redis, config.TTLDuration(cfg.Redis.TTL, 10*time.Minute))
		stores.Leaderboard = redisinfra.NewLeaderboard(b.redis)
	} else {
		stores.Questions = memory.NewQuestionRepository(loader, questionTTL)
		stores.Sessions = memory.NewSessionStore()
	}

	if b.pool != nil {
		results := postgres.NewResultStore(b.pool)
		stores.Results = results
		stores.Progress = results
		if stores.Leaderboard == nil {
			stores.Leaderboard = results
		}
	} else {
		stores.Results = memory.NewResultStore()
		stores.Progress = memory.NewProgressStore()
		if stores.Leaderboard == nil {
			stores.Leaderboard = memory.NewLeaderboard()
		}
	}

	return app.NewQuizService(stores, app.Options{
		Engine:              engine.NewEngine(engineCfg),
		Pacing:              cfg.Pacing(),
		TimeLimit:           cfg.TimeLimitSeconds(),
		QuestionsPerSession: cfg.Quiz.QuestionsPerSession,
		Progression:         cfg.Progression(),
		LeaderboardSize:     cfg.Quiz.LeaderboardSize,
	}), nil
}

// seedQuestions loads the YAML question bank used without a database.
func seedQuestions(cfg config.Config) ([]domain.Question, error) {
	if cfg.Questions.File == "" {
		logger.Get().Warn("no question source configured; sessions will find no questions")
		return nil, nil
	}
	bank, err := importer.LoadFile(cfg.Questions.File)
	if err != nil {
		return nil, fmt.Errorf("load questions: %w", err)
	}
	logger.Get().Info("question bank loaded", zap.String("file", cfg.Questions.File), zap.Int("questions", len(bank)))
	return bank, nil
}
