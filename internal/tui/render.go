package tui

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"quiz-arena/internal/domain"
)

func fmtInt(value int) string {
	return strconv.Itoa(value)
}

// renderScores renders the score and countdown line.
func renderScores(m Model) string {
	line := "Question " + fmtInt(m.index+1) + "/" + fmtInt(len(m.questions)) +
		" | Score: " + fmtInt(m.playerScore)
	if m.opponent {
		line += " | Opponent: " + fmtInt(m.opponentScore)
	}
	if m.summary == nil {
		line += " | Time: " + fmtInt(m.timeRemaining) + "s"
	}
	color := lipgloss.Color("33")
	if m.summary == nil && !m.judged && m.timeRemaining <= 5 {
		color = lipgloss.Color("196")
	}
	return stylize(line, m.noColor, color)
}

// renderQuestion renders the prompt and the choices of the active question.
func renderQuestion(m Model) string {
	q, ok := m.current()
	if !ok {
		return ""
	}
	lines := []string{"", bold(q.Text, m.noColor), ""}
	switch q.Type {
	case domain.MultipleChoice:
		for i, opt := range q.Options {
			lines = append(lines, "  "+fmtInt(i+1)+") "+opt)
		}
	case domain.TrueFalse:
		lines = append(lines, "  t) True", "  f) False")
	case domain.FillInBlank:
		lines = append(lines, "  "+m.input.View())
	case domain.Matching:
		right := rightColumn(q.MatchingPairs)
		for i := range q.MatchingPairs {
			left := string(rune('a'+i)) + ") " + q.MatchingPairs[i].Left
			left = markPair(left, q.MatchingPairs[i].ID, m.matched, m.pendingLeft, m.noColor)
			row := "  " + lipgloss.NewStyle().Width(32).Render(left)
			if i < len(right) {
				r := fmtInt(i+1) + ") " + right[i].Right
				row += markPair(r, right[i].ID, m.matched, m.pendingRight, m.noColor)
			}
			lines = append(lines, row)
		}
	}
	if m.warning != "" {
		lines = append(lines, "", stylize("! "+m.warning, m.noColor, lipgloss.Color("220")))
	}
	return strings.Join(lines, "\n")
}

func markPair(text, id string, matched map[string]bool, pending string, noColor bool) string {
	switch {
	case matched[id]:
		return stylize(text+" ✓", noColor, lipgloss.Color("42"))
	case id == pending:
		return stylize("["+text+"]", noColor, lipgloss.Color("39"))
	}
	return text
}

// renderFeedback renders the judgement and the opponent line.
func renderFeedback(m Model) string {
	lines := []string{""}
	if m.feedback != "" {
		color := lipgloss.Color("220")
		if strings.HasPrefix(m.feedback, "Correct") || strings.HasPrefix(m.feedback, "Matched") {
			color = lipgloss.Color("42")
		}
		lines = append(lines, stylize(m.feedback, m.noColor, color))
	}
	if m.opponentLine != "" {
		lines = append(lines, stylize(m.opponentLine, m.noColor, lipgloss.Color("201")))
	}
	return strings.Join(lines, "\n")
}

// renderHelp renders the key hints for the current phase.
func renderHelp(m Model) string {
	hint := "esc: quit"
	q, _ := m.current()
	switch {
	case m.judged:
		hint = "enter/n: next question | " + hint
	case q.Type == domain.MultipleChoice:
		hint = "1-" + fmtInt(len(q.Options)) + ": answer | q: quit"
	case q.Type == domain.TrueFalse:
		hint = "t/f: answer | q: quit"
	case q.Type == domain.FillInBlank:
		hint = "enter: submit | " + hint
	case q.Type == domain.Matching:
		hint = "a-z: left | 1-9: right | q: quit"
	}
	return stylize(hint, m.noColor, lipgloss.Color("244"))
}

// renderSummary renders the final result.
func renderSummary(m Model) string {
	s := m.summary
	lines := []string{
		"",
		bold("Session complete", m.noColor),
		"Score: " + fmtInt(s.FinalScore),
		"Correct: " + fmtInt(s.CorrectCount) + "/" + fmtInt(s.TotalQuestions),
	}
	if s.OpponentScore != nil {
		verdict := "It's a draw."
		switch {
		case s.FinalScore > *s.OpponentScore:
			verdict = "You win!"
		case s.FinalScore < *s.OpponentScore:
			verdict = "The opponent wins."
		}
		lines = append(lines, "Opponent: "+fmtInt(*s.OpponentScore), verdict)
	}
	return strings.Join(lines, "\n")
}

func bold(text string, noColor bool) string {
	if noColor {
		return text
	}
	return lipgloss.NewStyle().Bold(true).Render(text)
}

// stylize applies optional color styling.
func stylize(text string, noColor bool, color lipgloss.Color) string {
	if noColor {
		return text
	}
	return lipgloss.NewStyle().Foreground(color).Render(text)
}
