package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// QuestionType selects how a learner answer is evaluated.
type QuestionType string

const (
	MultipleChoice QuestionType = "MULTIPLE_CHOICE"
	TrueFalse      QuestionType = "TRUE_FALSE"
	FillInBlank    QuestionType = "FILL_IN_BLANK"
	Matching       QuestionType = "MATCHING"
)

// ParseQuestionType accepts the canonical upper-case names case-insensitively.
func ParseQuestionType(raw string) (QuestionType, error) {
	switch t := QuestionType(strings.ToUpper(strings.TrimSpace(raw))); t {
	case MultipleChoice, TrueFalse, FillInBlank, Matching:
		return t, nil
	}
	return "", fmt.Errorf("unknown question type %q", raw)
}

// Difficulty buckets questions and drives the opponent accuracy table.
type Difficulty string

const (
	Easy   Difficulty = "easy"
	Medium Difficulty = "medium"
	Hard   Difficulty = "hard"
)

// Difficulties lists every difficulty in ascending order.
var Difficulties = []Difficulty{Easy, Medium, Hard}

// ParseDifficulty accepts English names and the Vietnamese labels used by the
// spreadsheet exports ("Dễ", "Trung bình", "Khó").
func ParseDifficulty(raw string) (Difficulty, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "easy", "dễ":
		return Easy, nil
	case "medium", "trung bình":
		return Medium, nil
	case "hard", "khó":
		return Hard, nil
	}
	return "", fmt.Errorf("unknown difficulty %q", raw)
}

// Answer is the canonical answer of a question. It is usually a single string
// but the question bank may store a list; the first element is canonical.
type Answer []string

// Canonical returns the first answer or "" when none is set.
func (a Answer) Canonical() string {
	if len(a) == 0 {
		return ""
	}
	return a[0]
}

func (a Answer) MarshalJSON() ([]byte, error) {
	if len(a) == 1 {
		return json.Marshal(a[0])
	}
	return json.Marshal([]string(a))
}

func (a *Answer) UnmarshalJSON(data []byte) error {
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		*a = Answer{single}
		return nil
	}
	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return fmt.Errorf("answer must be a string or a list of strings: %w", err)
	}
	*a = Answer(many)
	return nil
}

func (a Answer) MarshalYAML() (interface{}, error) {
	if len(a) == 1 {
		return a[0], nil
	}
	return []string(a), nil
}

func (a *Answer) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var single string
	if err := unmarshal(&single); err == nil {
		*a = Answer{single}
		return nil
	}
	var many []string
	if err := unmarshal(&many); err != nil {
		return err
	}
	*a = Answer(many)
	return nil
}

// MatchingPair is one left/right pair of a matching question. Both sides
// share the pair ID; selecting the same ID on each side is a match.
type MatchingPair struct {
	ID    string `json:"id" yaml:"id"`
	Left  string `json:"left" yaml:"left"`
	Right string `json:"right" yaml:"right"`
}

// Question is immutable once loaded from the bank.
type Question struct {
	ID            string         `json:"id" yaml:"id"`
	Subject       string         `json:"subject,omitempty" yaml:"subject,omitempty"`
	Type          QuestionType   `json:"type" yaml:"type"`
	Difficulty    Difficulty     `json:"difficulty" yaml:"difficulty"`
	Level         int            `json:"level" yaml:"level"`
	Text          string         `json:"text" yaml:"text"`
	Options       []string       `json:"options,omitempty" yaml:"options,omitempty"`
	Answer        Answer         `json:"answer" yaml:"answer"`
	MatchingPairs []MatchingPair `json:"matchingPairs,omitempty" yaml:"matchingPairs,omitempty"`
}

var (
	errMissingOptions = errors.New("multiple choice question has no options")
	errMissingPairs   = errors.New("matching question has no pairs")
)

// Validate reports whether the question carries the data its type requires.
// A question that fails validation is still playable but can never be
// answered correctly.
func (q Question) Validate() error {
	switch q.Type {
	case MultipleChoice:
		if len(q.Options) == 0 {
			return fmt.Errorf("question %s: %w", q.ID, errMissingOptions)
		}
	case TrueFalse, FillInBlank:
	case Matching:
		if len(q.MatchingPairs) == 0 {
			return fmt.Errorf("question %s: %w", q.ID, errMissingPairs)
		}
	default:
		return fmt.Errorf("question %s: unknown type %q", q.ID, q.Type)
	}
	return nil
}

// QuestionSetKey identifies the questions of one playable level.
type QuestionSetKey struct {
	Subject    string     `json:"subject"`
	Difficulty Difficulty `json:"difficulty"`
	Level      int        `json:"level"`
}

func (k QuestionSetKey) String() string {
	return fmt.Sprintf("%s:%s:%d", strings.ToLower(k.Subject), k.Difficulty, k.Level)
}

// Matches reports whether q belongs to the set. Subjects compare case-insensitively.
func (k QuestionSetKey) Matches(q Question) bool {
	return strings.EqualFold(q.Subject, k.Subject) && q.Difficulty == k.Difficulty && q.Level == k.Level
}

// QuizResult is the persisted outcome of one completed session.
type QuizResult struct {
	SessionID     string     `json:"sessionId"`
	LearnerID     string     `json:"learnerId"`
	DisplayName   string     `json:"displayName"`
	Subject       string     `json:"subject"`
	Difficulty    Difficulty `json:"difficulty"`
	Level         int        `json:"level"`
	Score         int        `json:"score"`
	CorrectCount  int        `json:"correctCount"`
	Total         int        `json:"total"`
	OpponentScore *int       `json:"opponentScore,omitempty"`
	Passed        bool       `json:"passed"`
	XPGained      int        `json:"xpGained"`
	CompletedAt   time.Time  `json:"completedAt"`
}

// Progress is a learner's accumulated experience and unlocked levels.
type Progress struct {
	LearnerID      string             `json:"learnerId"`
	XP             int                `json:"xp"`
	TotalScore     int                `json:"totalScore"`
	UnlockedLevels map[Difficulty]int `json:"unlockedLevels"`
	UpdatedAt      time.Time          `json:"updatedAt"`
}

// NewProgress returns the starting progress: level 1 unlocked everywhere.
func NewProgress(learnerID string) Progress {
	unlocked := make(map[Difficulty]int, len(Difficulties))
	for _, d := range Difficulties {
		unlocked[d] = 1
	}
	return Progress{LearnerID: learnerID, UnlockedLevels: unlocked}
}

// Unlocked returns the highest playable level for d (at least 1).
func (p Progress) Unlocked(d Difficulty) int {
	if lvl := p.UnlockedLevels[d]; lvl > 0 {
		return lvl
	}
	return 1
}

// LeaderboardEntry is a snapshot-friendly view of a learner's standing.
type LeaderboardEntry struct {
	LearnerID   string `json:"learnerId"`
	DisplayName string `json:"displayName"`
	Score       int    `json:"score"`
}

// Leaderboard captures the ordered scoreboard.
type Leaderboard struct {
	Entries   []LeaderboardEntry `json:"entries"`
	UpdatedAt time.Time          `json:"updatedAt"`
}

// DifficultyStats aggregates results of one difficulty for the admin dashboard.
type DifficultyStats struct {
	Difficulty   Difficulty `json:"difficulty"`
	Attempts     int        `json:"attempts"`
	Passed       int        `json:"passed"`
	AverageScore float64    `json:"averageScore"`
}

// Stats is the aggregate view of every persisted result.
type Stats struct {
	Attempts     int               `json:"attempts"`
	Learners     int               `json:"learners"`
	AverageScore float64           `json:"averageScore"`
	PassRate     float64           `json:"passRate"`
	ByDifficulty []DifficultyStats `json:"byDifficulty"`
}
