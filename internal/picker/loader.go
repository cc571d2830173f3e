package picker

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

type loadDoneMsg[T any] struct {
	value T
	err   error
}

type spinnerTickMsg struct{}

type loaderModel[T any] struct {
	label  string
	loadFn func(ctx context.Context) (T, error)
	frame  int
	result T
	err    error
	done   bool
}

func (m loaderModel[T]) Init() tea.Cmd {
	return tea.Batch(m.doLoad(), m.tick())
}

func (m loaderModel[T]) doLoad() tea.Cmd {
	loadFn := m.loadFn
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		v, err := loadFn(ctx)
		return loadDoneMsg[T]{value: v, err: err}
	}
}

func (m loaderModel[T]) tick() tea.Cmd {
	return tea.Tick(80*time.Millisecond, func(time.Time) tea.Msg {
		return spinnerTickMsg{}
	})
}

func (m loaderModel[T]) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case loadDoneMsg[T]:
		m.result = msg.value
		m.err = msg.err
		m.done = true
		return m, tea.Quit
	case spinnerTickMsg:
		m.frame = (m.frame + 1) % len(spinnerFrames)
		return m, m.tick()
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.done = true
			m.err = fmt.Errorf("cancelled")
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m loaderModel[T]) View() string {
	if m.done {
		return ""
	}
	spinner := lipgloss.NewStyle().Foreground(lipgloss.Color("33")).Render(spinnerFrames[m.frame])
	return fmt.Sprintf("%s %s...\n", spinner, m.label)
}

// RunLoader shows a spinner while loadFn runs. It renders inline (no alt screen).
func RunLoader[T any](label string, loadFn func(ctx context.Context) (T, error)) (T, error) {
	m := loaderModel[T]{
		label:  label,
		loadFn: loadFn,
	}
	p := tea.NewProgram(m)
	result, err := p.Run()
	if err != nil {
		var zero T
		return zero, err
	}
	final := result.(loaderModel[T])
	return final.result, final.err
}
