package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"quiz-arena/internal/domain"
)

// QuestionStore loads and upserts the question bank.
type QuestionStore struct {
	pool *pgxpool.Pool
}

func NewQuestionStore(pool *pgxpool.Pool) *QuestionStore {
	return &QuestionStore{pool: pool}
}

const selectQuestions = `
SELECT id, subject, type, difficulty, level, text, options, answer, matching_pairs
FROM questions
WHERE lower(subject) = lower($1) AND difficulty = $2 AND level = $3
ORDER BY id`

func (s *QuestionStore) LoadQuestions(ctx context.Context, key domain.QuestionSetKey) ([]domain.Question, error) {
	rows, err := s.pool.Query(ctx, selectQuestions, key.Subject, string(key.Difficulty), key.Level)
	if err != nil {
		return nil, fmt.Errorf("load questions: %w", err)
	}
	defer rows.Close()

	var questions []domain.Question
	for rows.Next() {
		var (
			q                      domain.Question
			qType, difficulty      string
			options, answer, pairs []byte
		)
		if err := rows.Scan(&q.ID, &q.Subject, &qType, &difficulty, &q.Level, &q.Text, &options, &answer, &pairs); err != nil {
			return nil, fmt.Errorf("scan question: %w", err)
		}
		q.Type = domain.QuestionType(qType)
		q.Difficulty = domain.Difficulty(difficulty)
		if err := json.Unmarshal(options, &q.Options); err != nil {
			return nil, fmt.Errorf("unmarshal options of %s: %w", q.ID, err)
		}
		if err := json.Unmarshal(answer, &q.Answer); err != nil {
			return nil, fmt.Errorf("unmarshal answer of %s: %w", q.ID, err)
		}
		if err := json.Unmarshal(pairs, &q.MatchingPairs); err != nil {
			return nil, fmt.Errorf("unmarshal pairs of %s: %w", q.ID, err)
		}
		questions = append(questions, q)
	}
	return questions, rows.Err()
}

const upsertQuestion = `
INSERT INTO questions (id, subject, type, difficulty, level, text, options, answer, matching_pairs, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7::jsonb, $8::jsonb, $9::jsonb, now())
ON CONFLICT (id) DO UPDATE SET
    subject = EXCLUDED.subject,
    type = EXCLUDED.type,
    difficulty = EXCLUDED.difficulty,
    level = EXCLUDED.level,
    text = EXCLUDED.text,
    options = EXCLUDED.options,
    answer = EXCLUDED.answer,
    matching_pairs = EXCLUDED.matching_pairs,
    updated_at = now()`

// UpsertQuestions writes the questions in one transaction.
func (s *QuestionStore) UpsertQuestions(ctx context.Context, questions []domain.Question) (int, error) {
	if len(questions) == 0 {
		return 0, nil
	}
	batch := &pgx.Batch{}
	for _, q := range questions {
		options, err := marshalList(q.Options)
		if err != nil {
			return 0, err
		}
		answer, err := marshalList([]string(q.Answer))
		if err != nil {
			return 0, err
		}
		pairs, err := json.Marshal(nonNilPairs(q.MatchingPairs))
		if err != nil {
			return 0, err
		}
		batch.Queue(upsertQuestion, q.ID, q.Subject, string(q.Type), string(q.Difficulty), q.Level, q.Text,
			string(options), string(answer), string(pairs))
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	results := tx.SendBatch(ctx, batch)
	for i := range questions {
		if _, err := results.Exec(); err != nil {
			_ = results.Close()
			return 0, fmt.Errorf("upsert question %s: %w", questions[i].ID, err)
		}
	}
	if err := results.Close(); err != nil {
		return 0, err
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}
	return len(questions), nil
}

// marshalList stores nil as an empty JSON array.
func marshalList(values []string) ([]byte, error) {
	if values == nil {
		values = []string{}
	}
	return json.Marshal(values)
}

func nonNilPairs(pairs []domain.MatchingPair) []domain.MatchingPair {
	if pairs == nil {
		return []domain.MatchingPair{}
	}
	return pairs
}
