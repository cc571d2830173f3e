// Package picker is the interactive terminal UI for reviewing matches and
// adding candidates to a position's pipeline.
package picker

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/amishk599/shortlist/internal/model"
)

var (
	pickerTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("39")).
				Padding(1, 0, 1, 2)

	pickerItemStyle = lipgloss.NewStyle().
			Padding(0, 0, 0, 4)

	pickerSelectedStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("39")).
				Bold(true).
				Padding(0, 0, 0, 2)

	pickerHintStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Padding(1, 0, 0, 2)
)

type pickerModel struct {
	positions []model.PositionRecord
	cursor    int
	chosen    int // -1 = no choice yet, -2 = quit
}

func (m pickerModel) Init() tea.Cmd {
	return nil
}

func (m pickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.chosen = -2
			return m, tea.Quit
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}
		case "down", "j":
			if m.cursor < len(m.positions)-1 {
				m.cursor++
			}
		case "enter":
			if len(m.positions) > 0 {
				m.chosen = m.cursor
				return m, tea.Quit
			}
		}
	}
	return m, nil
}

func positionLabel(p model.PositionRecord) string {
	label := p.Title
	if p.Client != "" {
		label += " @ " + p.Client
	}
	if p.Location != "" {
		label += " (" + p.Location + ")"
	}
	return fmt.Sprintf("%s  [%s]", label, p.ID)
}

func (m pickerModel) View() string {
	s := pickerTitleStyle.Render("Shortlist · Select a position")
	s += "\n"

	if len(m.positions) == 0 {
		s += pickerItemStyle.Render("(no positions, import some with `shortlist import`)") + "\n"
	}
	for i, p := range m.positions {
		label := positionLabel(p)
		if i == m.cursor {
			s += pickerSelectedStyle.Render("> "+label) + "\n"
		} else {
			s += pickerItemStyle.Render(label) + "\n"
		}
	}

	s += pickerHintStyle.Render("↑/↓/j/k navigate  enter select  q quit")
	return s
}

// RunPositionPicker shows an interactive position selector.
// Returns the index of the chosen position, or -1 if the user quit.
func RunPositionPicker(positions []model.PositionRecord) (int, error) {
	m := pickerModel{
		positions: positions,
		chosen:    -1,
	}

	p := tea.NewProgram(m)
	result, err := p.Run()
	if err != nil {
		return -1, err
	}

	final := result.(pickerModel)
	if final.chosen < 0 {
		return -1, nil
	}
	return final.chosen, nil
}
