package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"quiz-arena/internal/domain"
	"quiz-arena/internal/engine"
)

// Player receives the learner's commands. *engine.Session satisfies it.
type Player interface {
	SubmitAnswer(candidate string)
	Select(side engine.Side, pairID string)
	Advance()
	Abort()
}

// Options configures the terminal UI.
type Options struct {
	NoColor bool
	// Opponent shows the opponent column.
	Opponent bool
}

// Model renders one quiz session in the terminal using Bubble Tea.
type Model struct {
	player    Player
	events    <-chan engine.Event
	questions []domain.Question
	input     textinput.Model
	noColor   bool
	opponent  bool
	width     int

	started       bool
	index         int
	timeRemaining int
	judged        bool
	playerScore   int
	opponentScore int
	feedback      string
	opponentLine  string
	warning       string
	pendingLeft   string
	pendingRight  string
	matched       map[string]bool
	summary       *engine.Summary
	aborted       bool
}

// NewModel constructs a model that drives player and renders events.
func NewModel(player Player, events <-chan engine.Event, questions []domain.Question, opts Options) Model {
	input := textinput.New()
	input.Placeholder = "type your answer"
	input.CharLimit = 200
	input.Width = 40
	return Model{
		player:    player,
		events:    events,
		questions: questions,
		input:     input,
		noColor:   opts.NoColor,
		opponent:  opts.Opponent,
		matched:   map[string]bool{},
	}
}

// Init waits for the first session event.
func (m Model) Init() tea.Cmd {
	return tea.Batch(waitForEvent(m.events), textinput.Blink)
}

// Update consumes session events and key presses.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch typed := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = typed.Width
		return m, nil
	case EventMsg:
		m = applyEvent(m, typed.Event)
		return m, waitForEvent(m.events)
	case tea.KeyMsg:
		return m.handleKey(typed)
	}
	if m.input.Focused() {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
	return m, nil
}

// View renders the session.
func (m Model) View() string {
	if m.summary != nil {
		return lipgloss.JoinVertical(lipgloss.Left, renderScores(m), renderSummary(m), "")
	}
	if m.aborted {
		return stylize("Session aborted.", m.noColor, lipgloss.Color("196")) + "\n"
	}
	if !m.started {
		return "Starting...\n"
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		renderScores(m),
		renderQuestion(m),
		renderFeedback(m),
		renderHelp(m),
		"",
	)
}

// EventMsg wraps a session event for Bubble Tea.
type EventMsg struct {
	Event engine.Event
}

// waitForEvent blocks until a session event is available. The program quits
// once the stream is closed.
func waitForEvent(events <-chan engine.Event) tea.Cmd {
	return func() tea.Msg {
		if events == nil {
			return nil
		}
		event, ok := <-events
		if !ok {
			return tea.Quit()
		}
		return EventMsg{Event: event}
	}
}

func (m Model) current() (domain.Question, bool) {
	if m.index < 0 || m.index >= len(m.questions) {
		return domain.Question{}, false
	}
	return m.questions[m.index], true
}

func (m Model) handleKey(key tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch key.Type {
	case tea.KeyCtrlC, tea.KeyEsc:
		m.player.Abort()
		return m, nil
	}
	if m.summary != nil || m.aborted {
		return m, tea.Quit
	}

	q, ok := m.current()
	if !ok || !m.started {
		return m, nil
	}
	if m.judged {
		if key.Type == tea.KeyEnter || key.String() == "n" {
			m.player.Advance()
		}
		return m, nil
	}

	if q.Type == domain.FillInBlank {
		if key.Type == tea.KeyEnter {
			m.player.SubmitAnswer(m.input.Value())
			return m, nil
		}
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(key)
		return m, cmd
	}

	if key.String() == "q" {
		m.player.Abort()
		return m, nil
	}
	r := keyRune(key)
	switch q.Type {
	case domain.MultipleChoice:
		if i := digitIndex(r); i >= 0 && i < len(q.Options) {
			m.player.SubmitAnswer(q.Options[i])
		}
	case domain.TrueFalse:
		switch r {
		case 't':
			m.player.SubmitAnswer("True")
		case 'f':
			m.player.SubmitAnswer("False")
		}
	case domain.Matching:
		if i := letterIndex(r); i >= 0 && i < len(q.MatchingPairs) {
			id := q.MatchingPairs[i].ID
			if !m.matched[id] {
				m.pendingLeft = id
				m.player.Select(engine.SideLeft, id)
			}
		}
		right := rightColumn(q.MatchingPairs)
		if i := digitIndex(r); i >= 0 && i < len(right) {
			id := right[i].ID
			if !m.matched[id] {
				m.pendingRight = id
				m.player.Select(engine.SideRight, id)
			}
		}
	default:
		// Unknown types can only time out; let the learner skip ahead.
		if key.Type == tea.KeyEnter {
			m.player.SubmitAnswer("")
		}
	}
	return m, nil
}

// applyEvent updates the model for one session event.
func applyEvent(m Model, ev engine.Event) Model {
	switch ev.Kind {
	case engine.EventSessionStarted:
		m.started = true
	case engine.EventQuestionPresented:
		m.index = ev.QuestionIndex
		m.timeRemaining = ev.TimeRemaining
		m.judged = false
		m.feedback = ""
		m.opponentLine = ""
		m.warning = ""
		m.pendingLeft, m.pendingRight = "", ""
		m.matched = map[string]bool{}
		m.input.Reset()
		if q, ok := m.current(); ok && q.Type == domain.FillInBlank {
			m.input.Focus()
		} else {
			m.input.Blur()
		}
	case engine.EventTimerTicked:
		m.timeRemaining = ev.TimeRemaining
	case engine.EventPairMatched:
		m.matched[ev.LeftID] = true
		m.pendingLeft, m.pendingRight = "", ""
		m.feedback = "Matched!"
	case engine.EventPairMismatched:
		m.pendingLeft, m.pendingRight = "", ""
		m.feedback = "Not a pair, try again."
	case engine.EventQuestionJudged:
		m.judged = true
		m.playerScore = ev.PlayerScore
		m.input.Blur()
		switch {
		case ev.Correct:
			m.feedback = "Correct! +" + fmtInt(ev.Awarded)
		case ev.TimedOut:
			m.feedback = "Time's up!"
		default:
			m.feedback = "Incorrect."
		}
		if q, ok := m.current(); ok && !ev.Correct && q.Type != domain.Matching {
			m.feedback += " Answer: " + q.Answer.Canonical()
		}
		if m.opponent {
			m.opponentLine = "Opponent is thinking..."
		}
	case engine.EventOpponentRevealed:
		m.opponentLine = "Opponent answered " + displayChoice(ev.OpponentChoice)
	case engine.EventOpponentResolved:
		m.opponentScore = ev.OpponentScore
		if ev.OpponentCorrect != nil && *ev.OpponentCorrect {
			m.opponentLine = "Opponent was right with " + displayChoice(ev.OpponentChoice)
		} else {
			m.opponentLine = "Opponent was wrong with " + displayChoice(ev.OpponentChoice)
		}
	case engine.EventSessionCompleted:
		m.summary = ev.Summary
	case engine.EventSessionAborted:
		m.aborted = true
	case engine.EventDataQualityWarning:
		m.warning = ev.Warning
	}
	return m
}

func keyRune(key tea.KeyMsg) rune {
	if key.Type != tea.KeyRunes || len(key.Runes) != 1 {
		return 0
	}
	return key.Runes[0]
}

// digitIndex maps '1'..'9' to 0..8.
func digitIndex(r rune) int {
	if r < '1' || r > '9' {
		return -1
	}
	return int(r - '1')
}

// letterIndex maps 'a'..'z' to 0..25.
func letterIndex(r rune) int {
	if r < 'a' || r > 'z' {
		return -1
	}
	return int(r - 'a')
}

// rightColumn is the display order of the right-hand side; it is rotated so
// rows never line up with their partners.
func rightColumn(pairs []domain.MatchingPair) []domain.MatchingPair {
	if len(pairs) < 2 {
		return pairs
	}
	out := make([]domain.MatchingPair, 0, len(pairs))
	out = append(out, pairs[1:]...)
	return append(out, pairs[0])
}

func displayChoice(choice string) string {
	if strings.TrimSpace(choice) == "" {
		return "nothing"
	}
	return "\"" + choice + "\""
}
