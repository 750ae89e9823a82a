package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"quiz-arena/internal/domain"
)

// Leaderboard keeps each learner's best score in memory.
type Leaderboard struct {
	now func() time.Time

	mu      sync.RWMutex
	entries map[string]*standing
}

type standing struct {
	entry domain.LeaderboardEntry
	// reachedAt breaks ties in favor of whoever got the score first.
	reachedAt time.Time
}

func NewLeaderboard() *Leaderboard {
	return NewLeaderboardWithClock(time.Now)
}

// NewLeaderboardWithClock is test-only for deterministic timestamps.
func NewLeaderboardWithClock(now func() time.Time) *Leaderboard {
	return &Leaderboard{now: now, entries: make(map[string]*standing)}
}

// Record keeps the higher of the stored and the new score.
func (l *Leaderboard) Record(_ context.Context, entry domain.LeaderboardEntry) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	current, ok := l.entries[entry.LearnerID]
	if !ok {
		l.entries[entry.LearnerID] = &standing{entry: entry, reachedAt: l.now()}
		return nil
	}
	if entry.DisplayName != "" {
		current.entry.DisplayName = entry.DisplayName
	}
	if entry.Score > current.entry.Score {
		current.entry.Score = entry.Score
		current.reachedAt = l.now()
	}
	return nil
}

func (l *Leaderboard) Top(_ context.Context, limit int) (domain.Leaderboard, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	standings := make([]*standing, 0, len(l.entries))
	for _, s := range l.entries {
		standings = append(standings, s)
	}
	// score desc, then earliest to reach it, then name
	sort.Slice(standings, func(i, j int) bool {
		a, b := standings[i], standings[j]
		if a.entry.Score != b.entry.Score {
			return a.entry.Score > b.entry.Score
		}
		if !a.reachedAt.Equal(b.reachedAt) {
			return a.reachedAt.Before(b.reachedAt)
		}
		return a.entry.DisplayName < b.entry.DisplayName
	})
	if limit > 0 && len(standings) > limit {
		standings = standings[:limit]
	}

	entries := make([]domain.LeaderboardEntry, 0, len(standings))
	for _, s := range standings {
		entries = append(entries, s.entry)
	}
	return domain.Leaderboard{Entries: entries, UpdatedAt: l.now()}, nil
}
