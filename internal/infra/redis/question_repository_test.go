package redis

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"quiz-arena/internal/domain"
	"quiz-arena/internal/infra/memory"
)

func TestQuestionRepositoryCachesInRedis(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	client := newClient(mr)
	loader := &countingLoader{QuestionLoader: memory.NewStaticQuestionLoader(sampleQuestions())}
	repo := NewQuestionRepository(client, loader, time.Minute)
	key := domain.QuestionSetKey{Subject: "math", Difficulty: domain.Easy, Level: 1}

	questions, err := repo.GetQuestions(context.Background(), key)
	if err != nil {
		t.Fatalf("get questions: %v", err)
	}
	if len(questions) != 2 || loader.calls != 1 {
		t.Fatalf("expected 2 questions from one load, got %d after %d calls", len(questions), loader.calls)
	}
	if !mr.Exists("quiz:set:math:easy:1") {
		t.Fatalf("expected question set cached in redis")
	}
	if ttl := mr.TTL("quiz:set:math:easy:1"); ttl < time.Minute || ttl > 66*time.Second {
		t.Fatalf("expected ttl with jitter, got %v", ttl)
	}

	// Second call should hit cache, loader not incremented.
	cached, err := repo.GetQuestions(context.Background(), key)
	if err != nil {
		t.Fatalf("get questions 2: %v", err)
	}
	if loader.calls != 1 {
		t.Fatalf("expected cache hit, loader calls=%d", loader.calls)
	}
	if cached[0].ID != "e1" || cached[0].Answer.Canonical() != "4" || len(cached[0].Options) != 2 {
		t.Fatalf("question did not survive the cache: %+v", cached[0])
	}
}

func TestQuestionRepositoryDoesNotCacheEmptySets(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	loader := &countingLoader{QuestionLoader: memory.NewStaticQuestionLoader(sampleQuestions())}
	repo := NewQuestionRepository(newClient(mr), loader, time.Minute)
	key := domain.QuestionSetKey{Subject: "history", Difficulty: domain.Hard, Level: 3}

	for i := 0; i < 2; i++ {
		questions, err := repo.GetQuestions(context.Background(), key)
		if err != nil {
			t.Fatalf("get questions: %v", err)
		}
		if len(questions) != 0 {
			t.Fatalf("expected empty set, got %d", len(questions))
		}
	}
	if loader.calls != 2 {
		t.Fatalf("expected empty sets to be reloaded, got %d calls", loader.calls)
	}
}

func TestQuestionRepositoryInvalidate(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	client := newClient(mr)
	loader := &countingLoader{QuestionLoader: memory.NewStaticQuestionLoader(sampleQuestions())}
	repo := NewQuestionRepository(client, loader, 0)
	ctx := context.Background()

	for _, level := range []int{1, 2} {
		if _, err := repo.GetQuestions(ctx, domain.QuestionSetKey{Subject: "math", Difficulty: domain.Easy, Level: level}); err != nil {
			t.Fatalf("get level %d: %v", level, err)
		}
	}
	mr.Set("unrelated", "keep")

	if err := repo.Invalidate(ctx); err != nil {
		t.Fatalf("invalidate: %v", err)
	}
	if mr.Exists("quiz:set:math:easy:1") || mr.Exists("quiz:set:math:easy:2") {
		t.Fatalf("expected cached sets to be removed")
	}
	if !mr.Exists("unrelated") {
		t.Fatalf("invalidate removed an unrelated key")
	}
}

type countingLoader struct {
	memory.QuestionLoader
	calls int
}

func (l *countingLoader) LoadQuestions(ctx context.Context, key domain.QuestionSetKey) ([]domain.Question, error) {
	l.calls++
	return l.QuestionLoader.LoadQuestions(ctx, key)
}

func sampleQuestions() []domain.Question {
	return []domain.Question{
		{ID: "e1", Subject: "math", Type: domain.MultipleChoice, Difficulty: domain.Easy, Level: 1, Text: "2 + 2?", Options: []string{"3", "4"}, Answer: domain.Answer{"4"}},
		{ID: "e2", Subject: "math", Type: domain.TrueFalse, Difficulty: domain.Easy, Level: 1, Text: "1 is odd", Answer: domain.Answer{"True"}},
		{ID: "e3", Subject: "math", Type: domain.Matching, Difficulty: domain.Easy, Level: 2, Text: "Match", MatchingPairs: []domain.MatchingPair{{ID: "p1", Left: "H2O", Right: "water"}}},
	}
}

func newClient(mr *miniredis.Miniredis) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
}
