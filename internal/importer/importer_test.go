package importer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"quiz-arena/internal/domain"
)

const bankCSV = `ID,Subject,Type,Difficulty,Level,Text,Options,Answer,Pairs
m1,Math,MULTIPLE_CHOICE,Dễ,1,2 + 2 = ?,3|4|5,4,
m2,Math,true_false,easy,1,7 is prime,,true,
,Math,FILL_IN_BLANK,Trung bình,2,"$\sqrt{16}$ = ?",,4|four,
m4,Chemistry,MATCHING,hard,3,Match the formulas,,,H2O=water|NaCl = salt|broken
m5,Math,,,,Bare row,a|b,a,
m6,Math,MULTIPLE_CHOICE,easy,1,,1|2,1,
m7,Math,MULTIPLE_CHOICE,legendary,1,Bad difficulty,1|2,1,
m8,Math,MULTIPLE_CHOICE,easy,zero,Bad level,1|2,1,
m9,Math,ESSAY,easy,1,Explain,,,
m10,Math,MULTIPLE_CHOICE,easy,1,No options,,x,
`

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("gen-%d", n)
	}
}

func TestParseCSV(t *testing.T) {
	questions, warnings, err := ParseCSV(strings.NewReader(bankCSV), Options{NewID: sequentialIDs()})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	byID := make(map[string]domain.Question, len(questions))
	for _, q := range questions {
		byID[q.ID] = q
	}
	if len(questions) != 7 {
		t.Fatalf("expected 7 imported questions, got %d: %+v", len(questions), questions)
	}

	m1 := byID["m1"]
	if m1.Difficulty != domain.Easy || len(m1.Options) != 3 || m1.Answer.Canonical() != "4" {
		t.Fatalf("unexpected m1 %+v", m1)
	}
	if got := byID["m2"]; got.Type != domain.TrueFalse || got.Answer.Canonical() != "True" {
		t.Fatalf("expected normalized true/false answer, got %+v", got)
	}
	gen := byID["gen-1"]
	if gen.Difficulty != domain.Medium || gen.Level != 2 || len(gen.Answer) != 2 || gen.Text != `$\sqrt{16}$ = ?` {
		t.Fatalf("unexpected generated row %+v", gen)
	}
	m4 := byID["m4"]
	if len(m4.MatchingPairs) != 2 || m4.MatchingPairs[1] != (domain.MatchingPair{ID: "p2", Left: "NaCl", Right: "salt"}) {
		t.Fatalf("unexpected pairs %+v", m4.MatchingPairs)
	}
	m5 := byID["m5"]
	if m5.Type != domain.MultipleChoice || m5.Difficulty != domain.Easy || m5.Level != 1 {
		t.Fatalf("expected defaults on m5, got %+v", m5)
	}
	if _, ok := byID["m9"]; !ok {
		t.Fatalf("unknown type rows are kept for the engine to flag")
	}

	skipped := map[string]bool{}
	flagged := map[string]bool{}
	for _, w := range warnings {
		if w.Line == 0 {
			t.Fatalf("warning without line: %+v", w)
		}
		if w.Skipped {
			skipped[w.QuestionID] = true
		} else {
			flagged[w.QuestionID] = true
		}
	}
	for _, id := range []string{"m6", "m7", "m8"} {
		if !skipped[id] {
			t.Fatalf("expected %s to be skipped, warnings %+v", id, warnings)
		}
	}
	for _, id := range []string{"m4", "m9", "m10"} {
		if !flagged[id] {
			t.Fatalf("expected a warning for %s, warnings %+v", id, warnings)
		}
	}
}

func TestParseCSVRequiresTextColumn(t *testing.T) {
	_, _, err := ParseCSV(strings.NewReader("id,answer\n1,2\n"), Options{})
	if !errors.Is(err, errMissingTextColumn) {
		t.Fatalf("expected missing text column, got %v", err)
	}
}

func TestParseCSVSemicolonAndDefaultSubject(t *testing.T) {
	questions, _, err := ParseCSV(strings.NewReader("text;answer;type\nSky is blue;Đúng;TRUE_FALSE\n"), Options{Comma: ';', DefaultSubject: "science"})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(questions) != 1 || questions[0].Subject != "science" || questions[0].Answer.Canonical() != "True" {
		t.Fatalf("unexpected questions %+v", questions)
	}
	if questions[0].ID == "" {
		t.Fatalf("expected a generated id")
	}
}

type recordingWriter struct {
	got []domain.Question
	err error
}

func (w *recordingWriter) UpsertQuestions(_ context.Context, questions []domain.Question) (int, error) {
	if w.err != nil {
		return 0, w.err
	}
	w.got = append(w.got, questions...)
	return len(questions), nil
}

func TestImporterReports(t *testing.T) {
	writer := &recordingWriter{}
	report, err := New(writer, Options{NewID: sequentialIDs()}).Import(context.Background(), strings.NewReader(bankCSV))
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if report.Imported != 7 || report.Skipped != 3 || len(writer.got) != 7 {
		t.Fatalf("unexpected report %+v", report)
	}

	failing := &recordingWriter{err: errors.New("db down")}
	if _, err := New(failing, Options{}).Import(context.Background(), strings.NewReader(bankCSV)); err == nil {
		t.Fatalf("expected writer error")
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	list := filepath.Join(dir, "list.yaml")
	doc := filepath.Join(dir, "doc.yaml")
	if err := os.WriteFile(list, []byte("- text: Sky is blue\n  type: TRUE_FALSE\n  answer: \"true\"\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := os.WriteFile(doc, []byte("questions:\n  - id: q1\n    text: 2 + 2\n    options: [\"3\", \"4\"]\n    answer: \"4\"\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	fromList, err := LoadFile(list)
	if err != nil {
		t.Fatalf("load list: %v", err)
	}
	if len(fromList) != 1 || fromList[0].Answer.Canonical() != "True" || fromList[0].ID == "" || fromList[0].Level != 1 {
		t.Fatalf("unexpected list questions %+v", fromList)
	}

	fromDoc, err := LoadFile(doc)
	if err != nil {
		t.Fatalf("load doc: %v", err)
	}
	if len(fromDoc) != 1 || fromDoc[0].ID != "q1" || fromDoc[0].Type != domain.MultipleChoice {
		t.Fatalf("unexpected doc questions %+v", fromDoc)
	}

	if _, err := LoadFile(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Fatalf("expected missing file error")
	}
}
