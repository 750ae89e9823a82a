package domain

import "time"

const (
	// DefaultPassThreshold is the number of correct answers needed to pass a level.
	DefaultPassThreshold = 5
	// DefaultMaxLevel is the highest level of each difficulty.
	DefaultMaxLevel = 10
	// XPPerLevel is the experience needed per avatar rank.
	XPPerLevel = 1000
)

// ProgressionPolicy decides pass/fail, experience and level unlocks after a
// completed session.
type ProgressionPolicy struct {
	PassThreshold int
	MaxLevel      int
}

// NewProgressionPolicy falls back to the defaults for non-positive values.
func NewProgressionPolicy(passThreshold, maxLevel int) ProgressionPolicy {
	if passThreshold <= 0 {
		passThreshold = DefaultPassThreshold
	}
	if maxLevel <= 0 {
		maxLevel = DefaultMaxLevel
	}
	return ProgressionPolicy{PassThreshold: passThreshold, MaxLevel: maxLevel}
}

// Attempt is a finished session as seen by the progression rules.
type Attempt struct {
	Difficulty   Difficulty
	Level        int
	Score        int
	CorrectCount int
}

// Advancement is what an attempt earned.
type Advancement struct {
	Passed   bool
	XPGained int
	// Unlocked is the newly unlocked level, or 0 when nothing changed.
	Unlocked int
}

// Passed reports whether correctCount clears the threshold.
func (p ProgressionPolicy) Passed(correctCount int) bool {
	return correctCount >= p.PassThreshold
}

// Apply returns the updated progress. A failed attempt still earns a quarter
// of its score. Only passing the highest unlocked level opens the next one.
func (p ProgressionPolicy) Apply(progress Progress, a Attempt, now time.Time) (Progress, Advancement) {
	next := progress
	next.UnlockedLevels = make(map[Difficulty]int, len(progress.UnlockedLevels)+1)
	for d, lvl := range progress.UnlockedLevels {
		next.UnlockedLevels[d] = lvl
	}

	adv := Advancement{Passed: p.Passed(a.CorrectCount)}
	if adv.Passed {
		adv.XPGained = a.Score
	} else {
		adv.XPGained = a.Score / 4
	}

	if adv.Passed && a.Level == progress.Unlocked(a.Difficulty) && a.Level < p.MaxLevel {
		adv.Unlocked = a.Level + 1
		next.UnlockedLevels[a.Difficulty] = adv.Unlocked
	}

	next.XP += adv.XPGained
	next.TotalScore += adv.XPGained
	next.UpdatedAt = now
	return next, adv
}

// Rank is the avatar rank derived from accumulated experience, starting at 1.
func (p Progress) Rank() int {
	if p.XP <= 0 {
		return 1
	}
	return p.XP/XPPerLevel + 1
}
