package tui

import (
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"quiz-arena/internal/domain"
	"quiz-arena/internal/engine"
)

// Run plays a session in the terminal until the event stream closes.
func Run(player Player, events <-chan engine.Event, questions []domain.Question, opts Options, stdout io.Writer) error {
	if stdout == nil {
		stdout = os.Stdout
	}
	program := tea.NewProgram(NewModel(player, events, questions, opts), tea.WithOutput(stdout))
	_, err := program.Run()
	return err
}
