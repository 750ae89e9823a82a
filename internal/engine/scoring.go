package engine

// ScoringPolicy awards points for a correct answer.
type ScoringPolicy struct {
	BasePoints          int
	TimeBonusMultiplier int
}

// NewScoringPolicy clamps negative values to zero.
func NewScoringPolicy(basePoints, timeBonusMultiplier int) ScoringPolicy {
	return ScoringPolicy{
		BasePoints:          max(basePoints, 0),
		TimeBonusMultiplier: max(timeBonusMultiplier, 0),
	}
}

// ComputeScore returns the points for a correct answer given with
// timeRemaining seconds left on the clock.
func (p ScoringPolicy) ComputeScore(timeRemaining int) int {
	if timeRemaining < 0 {
		timeRemaining = 0
	}
	return p.BasePoints + timeRemaining*p.TimeBonusMultiplier
}
