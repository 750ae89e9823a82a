package importer

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"quiz-arena/internal/domain"
	"quiz-arena/internal/logger"
)

// QuestionWriter stores imported questions, replacing those with the same id.
type QuestionWriter interface {
	UpsertQuestions(ctx context.Context, questions []domain.Question) (int, error)
}

// Options controls CSV parsing.
type Options struct {
	// Comma is the field delimiter; zero means ','.
	Comma rune
	// DefaultSubject fills rows without a subject.
	DefaultSubject string
	NewID          func() string
}

// Warning describes a row that was skipped or imported with a problem.
type Warning struct {
	Line       int    `json:"line"`
	QuestionID string `json:"questionId,omitempty"`
	Message    string `json:"message"`
	Skipped    bool   `json:"skipped"`
}

func (w Warning) String() string {
	if w.QuestionID != "" {
		return fmt.Sprintf("line %d (%s): %s", w.Line, w.QuestionID, w.Message)
	}
	return fmt.Sprintf("line %d: %s", w.Line, w.Message)
}

// Report summarizes an import.
type Report struct {
	Imported int       `json:"imported"`
	Skipped  int       `json:"skipped"`
	Warnings []Warning `json:"warnings"`
}

var errMissingTextColumn = errors.New("csv header has no text column")

const (
	listSeparator = "|"
	pairSeparator = "="
)

// ParseCSV reads a spreadsheet export. The header row names the columns
// (case-insensitive): id, subject, type, difficulty, level, text, options,
// answer, pairs. Options and answers are separated by '|', pairs are written
// as left=right|left=right.
func ParseCSV(r io.Reader, opts Options) ([]domain.Question, []Warning, error) {
	reader := csv.NewReader(r)
	if opts.Comma != 0 {
		reader.Comma = opts.Comma
	}
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, nil, fmt.Errorf("read header: %w", err)
	}
	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))] = i
	}
	if _, ok := columns["text"]; !ok {
		return nil, nil, errMissingTextColumn
	}

	var (
		questions []domain.Question
		warnings  []Warning
	)
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return questions, warnings, fmt.Errorf("parse csv: %w", err)
		}
		line, _ := reader.FieldPos(0)
		field := func(name string) string {
			idx, ok := columns[name]
			if !ok || idx >= len(record) {
				return ""
			}
			return strings.TrimSpace(record[idx])
		}

		q, rowWarnings, ok := parseRow(field, opts)
		for _, w := range rowWarnings {
			w.Line = line
			w.QuestionID = q.ID
			warnings = append(warnings, w)
		}
		if ok {
			questions = append(questions, q)
		}
	}
	return questions, warnings, nil
}

func parseRow(field func(string) string, opts Options) (domain.Question, []Warning, bool) {
	var warnings []Warning
	q := domain.Question{
		ID:      field("id"),
		Subject: field("subject"),
		Text:    field("text"),
		Options: splitList(field("options")),
		Answer:  domain.Answer(splitList(field("answer"))),
	}
	skip := func(format string, args ...any) (domain.Question, []Warning, bool) {
		warnings = append(warnings, Warning{Message: fmt.Sprintf(format, args...), Skipped: true})
		return q, warnings, false
	}
	if q.Text == "" {
		return skip("empty question text")
	}

	if raw := field("type"); raw != "" {
		t, err := domain.ParseQuestionType(raw)
		if err != nil {
			// Served anyway; the engine treats it as unanswerable.
			warnings = append(warnings, Warning{Message: err.Error()})
			t = domain.QuestionType(strings.ToUpper(raw))
		}
		q.Type = t
	}
	if raw := field("difficulty"); raw != "" {
		d, err := domain.ParseDifficulty(raw)
		if err != nil {
			return skip("%v", err)
		}
		q.Difficulty = d
	}
	if raw := field("level"); raw != "" {
		level, err := strconv.Atoi(raw)
		if err != nil || level < 1 {
			return skip("invalid level %q", raw)
		}
		q.Level = level
	}

	for i, raw := range splitList(field("pairs")) {
		left, right, found := strings.Cut(raw, pairSeparator)
		if !found {
			warnings = append(warnings, Warning{Message: fmt.Sprintf("pair %q has no %q", raw, pairSeparator)})
			continue
		}
		q.MatchingPairs = append(q.MatchingPairs, domain.MatchingPair{
			ID:    fmt.Sprintf("p%d", i+1),
			Left:  strings.TrimSpace(left),
			Right: strings.TrimSpace(right),
		})
	}

	q = Normalize(q, opts)
	if err := q.Validate(); err != nil {
		warnings = append(warnings, Warning{Message: err.Error()})
	}
	return q, warnings, true
}

// Normalize fills defaults: a generated id, level 1, multiple choice, easy.
// True/false answers are capitalized to match the option labels.
func Normalize(q domain.Question, opts Options) domain.Question {
	if q.ID == "" {
		newID := opts.NewID
		if newID == nil {
			newID = uuid.NewString
		}
		q.ID = newID()
	}
	if q.Subject == "" {
		q.Subject = opts.DefaultSubject
	}
	if q.Type == "" {
		q.Type = domain.MultipleChoice
	}
	if q.Difficulty == "" {
		q.Difficulty = domain.Easy
	}
	if q.Level < 1 {
		q.Level = 1
	}
	if q.Type == domain.TrueFalse {
		for i, a := range q.Answer {
			switch strings.ToLower(a) {
			case "true", "đúng":
				q.Answer[i] = "True"
			case "false", "sai":
				q.Answer[i] = "False"
			}
		}
	}
	return q
}

func splitList(raw string) []string {
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, listSeparator) {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Importer parses a CSV export and writes it to the question bank.
type Importer struct {
	writer QuestionWriter
	opts   Options
}

func New(writer QuestionWriter, opts Options) *Importer {
	return &Importer{writer: writer, opts: opts}
}

func (i *Importer) Import(ctx context.Context, r io.Reader) (Report, error) {
	questions, warnings, err := ParseCSV(r, i.opts)
	if err != nil {
		return Report{}, err
	}
	report := Report{Warnings: warnings}
	for _, w := range warnings {
		if w.Skipped {
			report.Skipped++
		}
		logger.Get().Warn("import row", zap.String("warning", w.String()), zap.Bool("skipped", w.Skipped))
	}

	n, err := i.writer.UpsertQuestions(ctx, questions)
	if err != nil {
		return report, fmt.Errorf("write questions: %w", err)
	}
	report.Imported = n
	logger.Get().Info("questions imported", zap.Int("imported", n), zap.Int("skipped", report.Skipped))
	return report, nil
}
