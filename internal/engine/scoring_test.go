package engine

import "testing"

func TestComputeScore(t *testing.T) {
	tests := []struct {
		name      string
		policy    ScoringPolicy
		remaining int
		want      int
	}{
		{"base only", NewScoringPolicy(10, 0), 20, 10},
		{"with bonus", NewScoringPolicy(10, 2), 20, 50},
		{"no time left", NewScoringPolicy(10, 2), 0, 10},
		{"negative remaining", NewScoringPolicy(10, 2), -3, 10},
		{"negative config clamped", NewScoringPolicy(-5, -1), 12, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.policy.ComputeScore(tt.remaining); got != tt.want {
				t.Fatalf("ComputeScore(%d) = %d, want %d", tt.remaining, got, tt.want)
			}
		})
	}
}
