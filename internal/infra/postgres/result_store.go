package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"quiz-arena/internal/domain"
)

// ResultStore persists completed sessions and learner progress.
type ResultStore struct {
	pool *pgxpool.Pool
	now  func() time.Time
}

func NewResultStore(pool *pgxpool.Pool) *ResultStore {
	return &ResultStore{pool: pool, now: time.Now}
}

func (s *ResultStore) SaveResult(ctx context.Context, r domain.QuizResult) error {
	_, err := s.pool.Exec(ctx, `
INSERT INTO quiz_results (session_id, learner_id, display_name, subject, difficulty, level, score,
    correct_count, total, opponent_score, passed, xp_gained, completed_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
ON CONFLICT (session_id) DO NOTHING`,
		r.SessionID, r.LearnerID, r.DisplayName, r.Subject, string(r.Difficulty), r.Level, r.Score,
		r.CorrectCount, r.Total, r.OpponentScore, r.Passed, r.XPGained, r.CompletedAt)
	if err != nil {
		return fmt.Errorf("save result: %w", err)
	}
	return nil
}

func (s *ResultStore) ListResults(ctx context.Context) ([]domain.QuizResult, error) {
	rows, err := s.pool.Query(ctx, `
SELECT session_id, learner_id, display_name, subject, difficulty, level, score,
    correct_count, total, opponent_score, passed, xp_gained, completed_at
FROM quiz_results
ORDER BY completed_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list results: %w", err)
	}
	defer rows.Close()

	var results []domain.QuizResult
	for rows.Next() {
		var (
			r          domain.QuizResult
			difficulty string
		)
		if err := rows.Scan(&r.SessionID, &r.LearnerID, &r.DisplayName, &r.Subject, &difficulty, &r.Level, &r.Score,
			&r.CorrectCount, &r.Total, &r.OpponentScore, &r.Passed, &r.XPGained, &r.CompletedAt); err != nil {
			return nil, fmt.Errorf("scan result: %w", err)
		}
		r.Difficulty = domain.Difficulty(difficulty)
		results = append(results, r)
	}
	return results, rows.Err()
}

func (s *ResultStore) GetProgress(ctx context.Context, learnerID string) (domain.Progress, error) {
	return scanProgress(s.pool.QueryRow(ctx, `
SELECT xp, total_score, unlocked_levels, updated_at FROM learner_progress WHERE learner_id = $1`,
		learnerID), learnerID)
}

func (s *ResultStore) SaveProgress(ctx context.Context, p domain.Progress) error {
	return s.pool.BeginFunc(ctx, func(tx pgx.Tx) error {
		return s.upsertProgress(ctx, tx, p)
	})
}

// UpdateProgress applies fn to the learner's row while holding its row lock.
// A missing row is created from the starting progress first so concurrent
// first completions queue on the same lock.
func (s *ResultStore) UpdateProgress(ctx context.Context, learnerID string, fn func(domain.Progress) domain.Progress) (domain.Progress, error) {
	var next domain.Progress
	err := s.pool.BeginFunc(ctx, func(tx pgx.Tx) error {
		initial, err := json.Marshal(domain.NewProgress(learnerID).UnlockedLevels)
		if err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `
INSERT INTO learner_progress (learner_id, xp, total_score, unlocked_levels, updated_at)
VALUES ($1, 0, 0, $2::jsonb, $3)
ON CONFLICT (learner_id) DO NOTHING`, learnerID, string(initial), s.now()); err != nil {
			return fmt.Errorf("seed progress: %w", err)
		}
		current, err := scanProgress(tx.QueryRow(ctx, `
SELECT xp, total_score, unlocked_levels, updated_at FROM learner_progress WHERE learner_id = $1 FOR UPDATE`,
			learnerID), learnerID)
		if err != nil {
			return err
		}
		next = fn(current)
		next.LearnerID = learnerID
		return s.upsertProgress(ctx, tx, next)
	})
	if err != nil {
		return domain.Progress{}, err
	}
	return next, nil
}

func scanProgress(row pgx.Row, learnerID string) (domain.Progress, error) {
	p := domain.Progress{LearnerID: learnerID}
	var unlocked []byte
	err := row.Scan(&p.XP, &p.TotalScore, &unlocked, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Progress{}, domain.ErrLearnerNotFound
	}
	if err != nil {
		return domain.Progress{}, fmt.Errorf("load progress: %w", err)
	}
	if err := json.Unmarshal(unlocked, &p.UnlockedLevels); err != nil {
		return domain.Progress{}, fmt.Errorf("unmarshal unlocked levels: %w", err)
	}
	return p, nil
}

func (s *ResultStore) upsertProgress(ctx context.Context, tx pgx.Tx, p domain.Progress) error {
	unlocked, err := json.Marshal(p.UnlockedLevels)
	if err != nil {
		return err
	}
	updatedAt := p.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = s.now()
	}
	_, err = tx.Exec(ctx, `
INSERT INTO learner_progress (learner_id, xp, total_score, unlocked_levels, updated_at)
VALUES ($1, $2, $3, $4::jsonb, $5)
ON CONFLICT (learner_id) DO UPDATE SET
    xp = EXCLUDED.xp,
    total_score = EXCLUDED.total_score,
    unlocked_levels = EXCLUDED.unlocked_levels,
    updated_at = EXCLUDED.updated_at`,
		p.LearnerID, p.XP, p.TotalScore, string(unlocked), updatedAt)
	if err != nil {
		return fmt.Errorf("save progress: %w", err)
	}
	return nil
}

// Record is a no-op: every result row already is a leaderboard entry.
func (s *ResultStore) Record(context.Context, domain.LeaderboardEntry) error {
	return nil
}

// Top ranks learners by their best session score; ties go to whoever first
// reached it.
func (s *ResultStore) Top(ctx context.Context, limit int) (domain.Leaderboard, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.pool.Query(ctx, `
WITH scored AS (
    SELECT learner_id, score, completed_at,
        max(score) OVER (PARTITION BY learner_id) AS best,
        first_value(display_name) OVER (PARTITION BY learner_id ORDER BY completed_at DESC) AS latest_name
    FROM quiz_results
)
SELECT learner_id, min(latest_name), best
FROM scored
WHERE score = best
GROUP BY learner_id, best
ORDER BY best DESC, min(completed_at) ASC, learner_id ASC
LIMIT $1`, limit)
	if err != nil {
		return domain.Leaderboard{}, fmt.Errorf("leaderboard: %w", err)
	}
	defer rows.Close()

	entries := make([]domain.LeaderboardEntry, 0, limit)
	for rows.Next() {
		var e domain.LeaderboardEntry
		if err := rows.Scan(&e.LearnerID, &e.DisplayName, &e.Score); err != nil {
			return domain.Leaderboard{}, fmt.Errorf("scan leaderboard: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return domain.Leaderboard{}, err
	}
	return domain.Leaderboard{Entries: entries, UpdatedAt: s.now()}, nil
}
