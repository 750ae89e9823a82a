package domain

import (
	"testing"
	"time"
)

func TestProgressionPassUnlocksNextLevel(t *testing.T) {
	policy := NewProgressionPolicy(0, 0)
	now := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	start := NewProgress("u1")

	next, adv := policy.Apply(start, Attempt{Difficulty: Easy, Level: 1, Score: 60, CorrectCount: 6}, now)
	if !adv.Passed || adv.XPGained != 60 || adv.Unlocked != 2 {
		t.Fatalf("unexpected advancement %+v", adv)
	}
	if next.Unlocked(Easy) != 2 || next.Unlocked(Medium) != 1 {
		t.Fatalf("unexpected unlocks %v", next.UnlockedLevels)
	}
	if next.XP != 60 || next.TotalScore != 60 || !next.UpdatedAt.Equal(now) {
		t.Fatalf("unexpected progress %+v", next)
	}
	if start.Unlocked(Easy) != 1 {
		t.Fatalf("input progress was mutated")
	}
}

func TestProgressionFailEarnsQuarterXP(t *testing.T) {
	policy := NewProgressionPolicy(5, 10)
	next, adv := policy.Apply(NewProgress("u1"), Attempt{Difficulty: Easy, Level: 1, Score: 43, CorrectCount: 4}, time.Now())
	if adv.Passed || adv.XPGained != 10 || adv.Unlocked != 0 {
		t.Fatalf("unexpected advancement %+v", adv)
	}
	if next.Unlocked(Easy) != 1 {
		t.Fatalf("failed attempt must not unlock")
	}
}

func TestProgressionReplayAndMaxLevel(t *testing.T) {
	policy := NewProgressionPolicy(5, 10)
	progress := NewProgress("u1")
	progress.UnlockedLevels[Hard] = 4

	// Replaying an older level does not unlock anything.
	next, adv := policy.Apply(progress, Attempt{Difficulty: Hard, Level: 2, Score: 50, CorrectCount: 5}, time.Now())
	if adv.Unlocked != 0 || next.Unlocked(Hard) != 4 {
		t.Fatalf("replay unlocked a level: %+v", adv)
	}

	progress.UnlockedLevels[Hard] = 10
	next, adv = policy.Apply(progress, Attempt{Difficulty: Hard, Level: 10, Score: 50, CorrectCount: 5}, time.Now())
	if adv.Unlocked != 0 || next.Unlocked(Hard) != 10 {
		t.Fatalf("max level exceeded: %+v", adv)
	}
}

func TestProgressRank(t *testing.T) {
	if (Progress{}).Rank() != 1 {
		t.Fatalf("expected rank 1 without xp")
	}
	if (Progress{XP: 2500}).Rank() != 3 {
		t.Fatalf("expected rank 3 at 2500 xp")
	}
}

func TestSummarizeResults(t *testing.T) {
	if got := SummarizeResults(nil); got.Attempts != 0 || got.ByDifficulty != nil {
		t.Fatalf("expected empty stats, got %+v", got)
	}

	stats := SummarizeResults([]QuizResult{
		{LearnerID: "a", Difficulty: Hard, Score: 30, Passed: false},
		{LearnerID: "a", Difficulty: Easy, Score: 80, Passed: true},
		{LearnerID: "b", Difficulty: Easy, Score: 40, Passed: false},
		{LearnerID: "c", Difficulty: Easy, Score: 90, Passed: true},
	})
	if stats.Attempts != 4 || stats.Learners != 3 {
		t.Fatalf("unexpected totals %+v", stats)
	}
	if stats.AverageScore != 60 || stats.PassRate != 0.5 {
		t.Fatalf("unexpected averages %+v", stats)
	}
	if len(stats.ByDifficulty) != 2 || stats.ByDifficulty[0].Difficulty != Easy || stats.ByDifficulty[1].Difficulty != Hard {
		t.Fatalf("expected easy then hard, got %+v", stats.ByDifficulty)
	}
	if stats.ByDifficulty[0].Attempts != 3 || stats.ByDifficulty[0].Passed != 2 || stats.ByDifficulty[0].AverageScore != 70 {
		t.Fatalf("unexpected easy stats %+v", stats.ByDifficulty[0])
	}
}
