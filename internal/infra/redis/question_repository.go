package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"quiz-arena/internal/domain"
	"quiz-arena/internal/infra/memory"
)

const questionSetPrefix = "quiz:set:"

// QuestionRepository caches question sets in Redis and falls back to a loader on cache miss.
// Each set is stored as: HSET quiz:set:{subject}:{difficulty}:{level} {questionID} {question JSON}
type QuestionRepository struct {
	client *redis.Client
	loader memory.QuestionLoader
	ttl    time.Duration
	sf     singleflight.Group

	rndMu sync.Mutex
	rnd   *rand.Rand
}

func NewQuestionRepository(client *redis.Client, loader memory.QuestionLoader, ttl time.Duration) *QuestionRepository {
	return &QuestionRepository{
		client: client,
		loader: loader,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (r *QuestionRepository) GetQuestions(ctx context.Context, key domain.QuestionSetKey) ([]domain.Question, error) {
	setKey := r.setKey(key)
	if questions, ok := r.cached(ctx, setKey); ok {
		return questions, nil
	}

	result, err, _ := r.sf.Do(setKey, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if questions, ok := r.cached(ctx, setKey); ok {
			return questions, nil
		}

		questions, err := r.loader.LoadQuestions(ctx, key)
		if err != nil {
			return nil, err
		}
		if len(questions) == 0 {
			return questions, nil
		}

		ttl := r.ttlWithJitter()
		pipe := r.client.Pipeline()
		for _, q := range questions {
			data, err := json.Marshal(q)
			if err != nil {
				return nil, fmt.Errorf("encode question %s: %w", q.ID, err)
			}
			pipe.HSet(ctx, setKey, q.ID, data)
		}
		if ttl > 0 {
			pipe.Expire(ctx, setKey, ttl)
		}
		// best-effort: a failed write only costs another load
		_, _ = pipe.Exec(ctx)

		return questions, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.Question), nil
}

// Invalidate removes every cached question set.
func (r *QuestionRepository) Invalidate(ctx context.Context) error {
	iter := r.client.Scan(ctx, 0, questionSetPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		if err := r.client.Del(ctx, iter.Val()).Err(); err != nil {
			return err
		}
	}
	return iter.Err()
}

func (r *QuestionRepository) cached(ctx context.Context, setKey string) ([]domain.Question, bool) {
	raw, err := r.client.HGetAll(ctx, setKey).Result()
	if err != nil || len(raw) == 0 {
		return nil, false
	}
	questions, err := decodeQuestions(raw)
	if err != nil {
		return nil, false
	}
	return questions, true
}

func (r *QuestionRepository) setKey(key domain.QuestionSetKey) string {
	return questionSetPrefix + key.String()
}

// decodeQuestions orders by id since hash fields come back unordered.
func decodeQuestions(raw map[string]string) ([]domain.Question, error) {
	questions := make([]domain.Question, 0, len(raw))
	for id, data := range raw {
		var q domain.Question
		if err := json.Unmarshal([]byte(data), &q); err != nil {
			return nil, fmt.Errorf("decode question %s: %w", id, err)
		}
		questions = append(questions, q)
	}
	sort.Slice(questions, func(i, j int) bool { return questions[i].ID < questions[j].ID })
	return questions, nil
}

func (r *QuestionRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	jitterMax := int64(r.ttl) / 10
	r.rndMu.Lock()
	defer r.rndMu.Unlock()
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}
