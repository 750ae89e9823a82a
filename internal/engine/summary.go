package engine

// Summary is produced once, when the last question has been advanced past.
type Summary struct {
	FinalScore           int  `json:"finalScore"`
	CorrectCount         int  `json:"correctCount"`
	TotalQuestions       int  `json:"totalQuestions"`
	OpponentScore        *int `json:"opponentScore,omitempty"`
	OpponentCorrectCount *int `json:"opponentCorrectCount,omitempty"`
}

// Passed applies an external pass rule such as "at least 5 correct".
func (s Summary) Passed(threshold int) bool {
	return s.CorrectCount >= threshold
}

func summarize(s State) Summary {
	summary := Summary{
		FinalScore:     s.PlayerScore,
		CorrectCount:   s.PlayerCorrectCount,
		TotalQuestions: len(s.Questions),
	}
	if s.OpponentMode {
		score, correct := s.OpponentScore, s.OpponentCorrectCount
		summary.OpponentScore = &score
		summary.OpponentCorrectCount = &correct
	}
	return summary
}
