package domain

// SummarizeResults aggregates results for the admin dashboard.
func SummarizeResults(results []QuizResult) Stats {
	stats := Stats{Attempts: len(results)}
	if len(results) == 0 {
		return stats
	}

	learners := make(map[string]struct{})
	byDifficulty := make(map[Difficulty]*DifficultyStats)
	totalScore, passed := 0, 0
	for _, r := range results {
		learners[r.LearnerID] = struct{}{}
		totalScore += r.Score
		if r.Passed {
			passed++
		}
		ds, ok := byDifficulty[r.Difficulty]
		if !ok {
			ds = &DifficultyStats{Difficulty: r.Difficulty}
			byDifficulty[r.Difficulty] = ds
		}
		ds.Attempts++
		ds.AverageScore += float64(r.Score)
		if r.Passed {
			ds.Passed++
		}
	}

	stats.Learners = len(learners)
	stats.AverageScore = float64(totalScore) / float64(len(results))
	stats.PassRate = float64(passed) / float64(len(results))
	for _, d := range Difficulties {
		if ds, ok := byDifficulty[d]; ok {
			ds.AverageScore /= float64(ds.Attempts)
			stats.ByDifficulty = append(stats.ByDifficulty, *ds)
			delete(byDifficulty, d)
		}
	}
	return stats
}
