package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"quiz-arena/internal/domain"
)

// QuestionLoader fetches the questions of one level from a backing store.
type QuestionLoader interface {
	LoadQuestions(ctx context.Context, key domain.QuestionSetKey) ([]domain.Question, error)
}

// QuestionRepository caches question sets with TTL to avoid repeated DB hits.
type QuestionRepository struct {
	loader QuestionLoader
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group

	rndMu sync.Mutex
	rnd   *rand.Rand

	mu    sync.RWMutex
	cache map[string]cachedSet
}

type cachedSet struct {
	questions []domain.Question
	expiresAt time.Time
}

func NewQuestionRepository(loader QuestionLoader, ttl time.Duration) *QuestionRepository {
	return &QuestionRepository{
		loader: loader,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
		cache:  make(map[string]cachedSet),
	}
}

func (r *QuestionRepository) GetQuestions(ctx context.Context, key domain.QuestionSetKey) ([]domain.Question, error) {
	id := key.String()
	if questions, ok := r.cached(id); ok {
		return questions, nil
	}

	result, err, _ := r.sf.Do(id, func() (interface{}, error) {
		if questions, ok := r.cached(id); ok {
			return questions, nil
		}

		questions, err := r.loader.LoadQuestions(ctx, key)
		if err != nil {
			return nil, err
		}

		r.mu.Lock()
		r.cache[id] = cachedSet{
			questions: questions,
			expiresAt: r.clock().Add(r.ttlWithJitter()),
		}
		r.mu.Unlock()
		return questions, nil
	})
	if err != nil {
		return nil, err
	}
	return clone(result.([]domain.Question)), nil
}

// Invalidate drops every cached set, e.g. after an import.
func (r *QuestionRepository) Invalidate() {
	r.mu.Lock()
	r.cache = make(map[string]cachedSet)
	r.mu.Unlock()
}

func (r *QuestionRepository) cached(id string) ([]domain.Question, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.cache[id]
	if !ok || !entry.expiresAt.After(r.clock()) {
		return nil, false
	}
	return clone(entry.questions), true
}

func (r *QuestionRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(r.ttl) / 10
	r.rndMu.Lock()
	defer r.rndMu.Unlock()
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}

func clone(questions []domain.Question) []domain.Question {
	if questions == nil {
		return nil
	}
	out := make([]domain.Question, len(questions))
	copy(out, questions)
	return out
}

// StaticQuestionLoader serves a fixed bank (useful for tests/demos and the YAML seed file).
type StaticQuestionLoader struct {
	questions []domain.Question
}

func NewStaticQuestionLoader(questions []domain.Question) *StaticQuestionLoader {
	return &StaticQuestionLoader{questions: questions}
}

func (l *StaticQuestionLoader) LoadQuestions(_ context.Context, key domain.QuestionSetKey) ([]domain.Question, error) {
	var out []domain.Question
	for _, q := range l.questions {
		if key.Matches(q) {
			out = append(out, q)
		}
	}
	return out, nil
}
