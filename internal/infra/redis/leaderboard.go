package redis

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"quiz-arena/internal/domain"
)

const (
	leaderboardKey      = "quiz:leaderboard"
	leaderboardNamesKey = "quiz:leaderboard:names"

	// tieSpan splits a sorted-set score into the best session score and a
	// tiebreak that shrinks as the unix second the score was reached grows.
	// Composite values stay below 2^53 for session scores under 900000.
	tieSpan int64 = 10_000_000_000
)

func encodeScore(score int, reachedAt time.Time) float64 {
	return float64(int64(score)*tieSpan + (tieSpan - 1 - reachedAt.Unix()))
}

func decodeScore(composite float64) int {
	return int(int64(composite) / tieSpan)
}

// Leaderboard keeps each learner's best score in a sorted set.
type Leaderboard struct {
	client *redis.Client
	now    func() time.Time
}

func NewLeaderboard(client *redis.Client) *Leaderboard {
	return &Leaderboard{client: client, now: time.Now}
}

// Record stores the score only when it beats the learner's previous best.
// Equal scores rank by the second they were reached; learners tied within the
// same second fall back to member order.
func (l *Leaderboard) Record(ctx context.Context, entry domain.LeaderboardEntry) error {
	pipe := l.client.TxPipeline()
	pipe.ZAddArgs(ctx, leaderboardKey, redis.ZAddArgs{
		GT:      true,
		Members: []redis.Z{{Score: encodeScore(entry.Score, l.now()), Member: entry.LearnerID}},
	})
	if entry.DisplayName != "" {
		pipe.HSet(ctx, leaderboardNamesKey, entry.LearnerID, entry.DisplayName)
	}
	_, err := pipe.Exec(ctx)
	return err
}

func (l *Leaderboard) Top(ctx context.Context, limit int) (domain.Leaderboard, error) {
	stop := int64(-1)
	if limit > 0 {
		stop = int64(limit - 1)
	}
	members, err := l.client.ZRevRangeWithScores(ctx, leaderboardKey, 0, stop).Result()
	if err != nil {
		return domain.Leaderboard{}, err
	}

	entries := make([]domain.LeaderboardEntry, 0, len(members))
	if len(members) == 0 {
		return domain.Leaderboard{Entries: entries, UpdatedAt: l.now()}, nil
	}
	ids := make([]string, 0, len(members))
	for _, m := range members {
		ids = append(ids, m.Member.(string))
	}
	names, err := l.client.HMGet(ctx, leaderboardNamesKey, ids...).Result()
	if err != nil {
		return domain.Leaderboard{}, err
	}
	for i, m := range members {
		name, _ := names[i].(string)
		entries = append(entries, domain.LeaderboardEntry{
			LearnerID:   ids[i],
			DisplayName: name,
			Score:       decodeScore(m.Score),
		})
	}
	return domain.Leaderboard{Entries: entries, UpdatedAt: l.now()}, nil
}
