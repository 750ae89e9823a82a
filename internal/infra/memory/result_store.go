package memory

import (
	"context"
	"sync"

	"quiz-arena/internal/domain"
)

// ResultStore keeps completed results in insertion order.
type ResultStore struct {
	mu      sync.RWMutex
	results []domain.QuizResult
}

func NewResultStore() *ResultStore {
	return &ResultStore{}
}

func (s *ResultStore) SaveResult(_ context.Context, result domain.QuizResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results = append(s.results, result)
	return nil
}

func (s *ResultStore) ListResults(context.Context) ([]domain.QuizResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.QuizResult, len(s.results))
	copy(out, s.results)
	return out, nil
}

// ProgressStore keeps learner progress by learner id.
type ProgressStore struct {
	mu       sync.RWMutex
	progress map[string]domain.Progress
}

func NewProgressStore() *ProgressStore {
	return &ProgressStore{progress: make(map[string]domain.Progress)}
}

func (s *ProgressStore) GetProgress(_ context.Context, learnerID string) (domain.Progress, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.progress[learnerID]
	if !ok {
		return domain.Progress{}, domain.ErrLearnerNotFound
	}
	return copyProgress(p), nil
}

func (s *ProgressStore) SaveProgress(_ context.Context, progress domain.Progress) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.progress[progress.LearnerID] = copyProgress(progress)
	return nil
}

func copyProgress(p domain.Progress) domain.Progress {
	unlocked := make(map[domain.Difficulty]int, len(p.UnlockedLevels))
	for d, lvl := range p.UnlockedLevels {
		unlocked[d] = lvl
	}
	p.UnlockedLevels = unlocked
	return p
}
