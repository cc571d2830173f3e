package picker

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/amishk599/shortlist/internal/match"
	"github.com/amishk599/shortlist/internal/matcher"
	"github.com/amishk599/shortlist/internal/model"
)

// Service is what the match view needs from the matcher.
type Service interface {
	Matches(ctx context.Context, positionID string) (*matcher.Result, error)
	AddToPipeline(ctx context.Context, positionID, candidateID, stage string) (*model.Submission, error)
}

// Lines per candidate in the list view (name + subtitle + blank separator).
const matchItemHeight = 3

const requestTimeout = 30 * time.Second

type viewState int

const (
	viewList viewState = iota
	viewDetail
	viewError
)

var (
	activeBorderStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(lipgloss.Color("39")) // bright blue

	inactiveBorderStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(lipgloss.Color("240")) // dim gray

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Padding(0, 1)

	activeHeaderStyle = headerStyle.
				Foreground(lipgloss.Color("39"))

	inactiveHeaderStyle = headerStyle.
				Foreground(lipgloss.Color("240"))

	statusBarStyle = lipgloss.NewStyle().
			Padding(0, 1).
			Foreground(lipgloss.Color("252")).
			Background(lipgloss.Color("236"))

	nameStyle = lipgloss.NewStyle().
			Bold(true)

	subtitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245"))

	selectedNameStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("15")). // bright white
				Background(lipgloss.Color("24"))  // dark blue bg

	selectedSubtitleStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("252")).
				Background(lipgloss.Color("24"))

	detailLabelStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("39")).
				Width(16)

	detailValueStyle = lipgloss.NewStyle()

	detailTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("15")).
				MarginBottom(1)

	dividerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	hintStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245")).
			Italic(true)

	noticeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	scoreBarStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42"))
)

// matchesLoadedMsg is sent when an async matching pass completes.
type matchesLoadedMsg struct {
	result *matcher.Result
	err    error
}

// linkDoneMsg is sent when an async add-to-pipeline completes.
type linkDoneMsg struct {
	candidateID string
	name        string
	err         error
}

type matchModel struct {
	svc        Service
	positionID string
	result     *matcher.Result

	listViewport      viewport.Model
	breakdownViewport viewport.Model
	cursor            int
	width             int
	height            int
	ready             bool

	view           viewState
	detailViewport viewport.Model

	loading bool
	linking bool
	notice  string
	errMsg  string

	wantQuit bool
}

func newMatchModel(svc Service, positionID string, initial *matcher.Result, loadErr error) matchModel {
	m := matchModel{
		svc:        svc,
		positionID: positionID,
		result:     initial,
	}
	if loadErr != nil {
		m.view = viewError
		m.errMsg = loadErr.Error()
	}
	return m
}

func (m matchModel) Init() tea.Cmd {
	return nil
}

func (m matchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.recalcLayout()
		if m.view == viewDetail {
			m.detailViewport.Width = m.width - 4
			m.detailViewport.Height = m.height - 4
			m.detailViewport.SetContent(m.renderDetail())
		}
		return m, nil

	case matchesLoadedMsg:
		m.loading = false
		if msg.err != nil {
			m.view = viewError
			m.errMsg = msg.err.Error()
			return m, nil
		}
		m.errMsg = ""
		m.result = msg.result
		m.cursor = clamp(m.cursor, 0, max(len(m.matches())-1, 0))
		if m.view == viewError {
			m.view = viewList
		}
		if m.view == viewDetail {
			// The candidate shown may have been linked; go back to the list.
			m.view = viewList
		}
		m.recalcContent()
		return m, nil

	case linkDoneMsg:
		m.linking = false
		switch {
		case msg.err == nil:
			m.notice = fmt.Sprintf("Added %s to pipeline", msg.name)
		case errors.Is(msg.err, model.ErrAlreadyLinked):
			m.notice = fmt.Sprintf("%s is already in the pipeline, refreshing", msg.name)
		default:
			m.notice = fmt.Sprintf("could not add %s: %v", msg.name, msg.err)
			return m, nil
		}
		m.loading = true
		return m, m.loadCmd()

	case tea.KeyMsg:
		switch m.view {
		case viewDetail:
			return m.updateDetailView(msg)
		case viewError:
			return m.updateErrorView(msg)
		}
		return m.updateListView(msg)
	}

	return m, nil
}

func (m matchModel) updateListView(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		m.wantQuit = true
		return m, tea.Quit
	case "esc", "b":
		m.wantQuit = false
		return m, tea.Quit
	case "up", "k":
		m.cursor = clamp(m.cursor-1, 0, max(len(m.matches())-1, 0))
		m.recalcContent()
		m.ensureCursorVisible()
		return m, nil
	case "down", "j":
		m.cursor = clamp(m.cursor+1, 0, max(len(m.matches())-1, 0))
		m.recalcContent()
		m.ensureCursorVisible()
		return m, nil
	case "enter":
		return m.openDetailView()
	case "a":
		return m.addSelected()
	case "r":
		if !m.loading {
			m.loading = true
			m.notice = ""
			return m, m.loadCmd()
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.listViewport, cmd = m.listViewport.Update(msg)
	return m, cmd
}

func (m matchModel) updateDetailView(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		m.wantQuit = true
		return m, tea.Quit
	case "esc", "backspace":
		m.view = viewList
		return m, nil
	case "a":
		return m.addSelected()
	}

	var cmd tea.Cmd
	m.detailViewport, cmd = m.detailViewport.Update(msg)
	return m, cmd
}

func (m matchModel) updateErrorView(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		m.wantQuit = true
		return m, tea.Quit
	case "esc", "b":
		m.wantQuit = false
		return m, tea.Quit
	case "r":
		if !m.loading {
			m.loading = true
			return m, m.loadCmd()
		}
	}
	return m, nil
}

func (m matchModel) addSelected() (tea.Model, tea.Cmd) {
	ms := m.matches()
	if m.linking || len(ms) == 0 {
		return m, nil
	}
	selected := ms[m.cursor]
	m.linking = true
	m.notice = ""
	return m, m.linkCmd(selected.CandidateID, m.candidateName(selected.CandidateID))
}

func (m matchModel) loadCmd() tea.Cmd {
	svc, positionID := m.svc, m.positionID
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		res, err := svc.Matches(ctx, positionID)
		return matchesLoadedMsg{result: res, err: err}
	}
}

func (m matchModel) linkCmd(candidateID, name string) tea.Cmd {
	svc, positionID := m.svc, m.positionID
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		_, err := svc.AddToPipeline(ctx, positionID, candidateID, model.StageSubmitted)
		return linkDoneMsg{candidateID: candidateID, name: name, err: err}
	}
}

func (m matchModel) matches() []model.Match {
	if m.result == nil {
		return nil
	}
	return m.result.Matches
}

func (m matchModel) candidate(id string) model.Candidate {
	if m.result == nil {
		return model.Candidate{ID: id}
	}
	c, ok := m.result.Candidates[id]
	if !ok {
		return model.Candidate{ID: id}
	}
	return c
}

func (m matchModel) candidateName(id string) string {
	if name := m.candidate(id).Name; name != "" {
		return name
	}
	return id
}

func (m *matchModel) ensureCursorVisible() {
	vp := &m.listViewport
	cursorTop := m.cursor * matchItemHeight
	cursorBottom := cursorTop + matchItemHeight - 1

	if cursorTop < vp.YOffset {
		vp.SetYOffset(cursorTop)
	} else if cursorBottom >= vp.YOffset+vp.Height {
		vp.SetYOffset(cursorBottom - vp.Height + 1)
	}
}

func (m matchModel) openDetailView() (tea.Model, tea.Cmd) {
	if len(m.matches()) == 0 {
		return m, nil
	}
	m.view = viewDetail
	m.detailViewport = viewport.New(m.width-4, m.height-4)
	m.detailViewport.SetContent(m.renderDetail())
	return m, nil
}

func (m *matchModel) recalcLayout() {
	// 2 border chars per pane + 1 gap between panes.
	paneWidth := max((m.width-5)/2, 20)

	// Header (1 line) + border top/bottom (2) + status bar (1) = 4 lines overhead.
	paneHeight := max(m.height-4, 5)

	if !m.ready {
		m.listViewport = viewport.New(paneWidth, paneHeight)
		m.breakdownViewport = viewport.New(paneWidth, paneHeight)
		m.ready = true
	} else {
		m.listViewport.Width = paneWidth
		m.listViewport.Height = paneHeight
		m.breakdownViewport.Width = paneWidth
		m.breakdownViewport.Height = paneHeight
	}

	m.recalcContent()
}

func (m *matchModel) recalcContent() {
	m.listViewport.SetContent(m.renderMatches())
	m.breakdownViewport.SetContent(m.renderBreakdown(max(m.breakdownViewport.Width-2, 20)))
}

func (m matchModel) View() string {
	if !m.ready {
		return "Initializing..."
	}

	switch m.view {
	case viewDetail:
		return m.viewDetail()
	case viewError:
		return m.viewError()
	}
	return m.viewList()
}

func (m matchModel) positionTitle() string {
	if m.result == nil {
		return m.positionID
	}
	return m.result.Position.Title
}

func (m matchModel) viewList() string {
	paneWidth := m.listViewport.Width

	leftHeader := activeHeaderStyle.Render(fmt.Sprintf(" %s · Matches (%d)", m.positionTitle(), len(m.matches())))
	rightHeader := inactiveHeaderStyle.Render(" Score breakdown")

	leftPane := activeBorderStyle.Width(paneWidth).Render(m.listViewport.View())
	rightPane := inactiveBorderStyle.Width(paneWidth).Render(m.breakdownViewport.View())

	headerRow := lipgloss.JoinHorizontal(lipgloss.Top,
		lipgloss.NewStyle().Width(paneWidth+2).Render(leftHeader),
		" ",
		lipgloss.NewStyle().Width(paneWidth+2).Render(rightHeader),
	)
	panes := lipgloss.JoinHorizontal(lipgloss.Top, leftPane, " ", rightPane)

	return headerRow + "\n" + panes + "\n" + m.statusBar(" ↑/↓ cursor  Enter detail  a add to pipeline  r refresh  Esc back  q quit")
}

func (m matchModel) statusBar(hints string) string {
	var prefix string
	switch {
	case m.linking:
		prefix = " adding..."
	case m.loading:
		prefix = " refreshing..."
	case m.notice != "":
		prefix = " " + m.notice
	case m.result != nil:
		prefix = fmt.Sprintf(" %d in pool | %d in pipeline | %d shown", m.result.PoolSize, m.result.Excluded, len(m.result.Matches))
	}
	return statusBarStyle.Width(m.width).Render(prefix + "   " + hints)
}

func (m matchModel) viewDetail() string {
	title := detailTitleStyle.Render("Candidate")
	border := activeBorderStyle.Width(m.width - 2)
	content := border.Render(m.detailViewport.View())
	return title + "\n" + content + "\n" + m.statusBar(" a add to pipeline  esc/backspace back  ↑/↓ scroll  q quit")
}

func (m matchModel) viewError() string {
	var b strings.Builder
	b.WriteString(detailTitleStyle.Render("Could not load matches for " + m.positionID))
	b.WriteByte('\n')
	b.WriteString(errorStyle.Render(wordWrap(m.errMsg, max(m.width-4, 20))))
	b.WriteString("\n\n")
	if m.loading {
		b.WriteString(hintStyle.Render("retrying..."))
	} else {
		b.WriteString(hintStyle.Render("nothing was scored; press r to retry"))
	}
	b.WriteByte('\n')
	return b.String() + "\n" + statusBarStyle.Width(m.width).Render(" r retry  esc back  q quit")
}

func (m matchModel) renderMatches() string {
	ms := m.matches()
	if len(ms) == 0 {
		return "  (no candidates above the threshold)"
	}

	var b strings.Builder
	for i, mt := range ms {
		c := m.candidate(mt.CandidateID)
		isSelected := i == m.cursor

		nameSt, subSt, prefix := nameStyle, subtitleStyle, "  "
		if isSelected {
			nameSt, subSt, prefix = selectedNameStyle, selectedSubtitleStyle, "> "
		}

		b.WriteString(prefix)
		b.WriteString(nameSt.Render(fmt.Sprintf("%3d  %s", mt.Score, m.candidateName(mt.CandidateID))))
		b.WriteByte('\n')

		b.WriteString(prefix)
		b.WriteString(subSt.Render(fmt.Sprintf("     %s · %s", orNA(c.Role), orNA(c.Location))))
		b.WriteByte('\n')

		if i < len(ms)-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

func (m matchModel) renderBreakdown(width int) string {
	ms := m.matches()
	if len(ms) == 0 {
		return ""
	}
	mt := ms[m.cursor]

	var b strings.Builder
	b.WriteString(nameStyle.Render(m.candidateName(mt.CandidateID)))
	b.WriteString("\n\n")
	writeBreakdown(&b, mt, width)
	return b.String()
}

func writeBreakdown(b *strings.Builder, mt model.Match, width int) {
	row := func(label string, got float64, of int) {
		b.WriteString(detailLabelStyle.Render(label))
		b.WriteString(fmt.Sprintf("%5.1f / %-3d ", got, of))
		b.WriteString(scoreBarStyle.Render(strings.Repeat("█", int(got*10/float64(of)))))
		b.WriteByte('\n')
	}
	b.WriteString(detailLabelStyle.Render("Score"))
	b.WriteString(strconv.Itoa(mt.Score))
	b.WriteString("\n\n")
	row("Title", mt.Breakdown.Title, 35)
	row("Skills", mt.Breakdown.Skills, 40)
	row("Location", mt.Breakdown.Location, 20)
	row("Seniority", mt.Breakdown.Seniority, 5)

	if len(mt.Breakdown.MatchedSkills) > 0 {
		b.WriteByte('\n')
		b.WriteString(detailLabelStyle.Render("Matched"))
		b.WriteString(strings.Join(mt.Breakdown.MatchedSkills, ", "))
		b.WriteByte('\n')
	}
	b.WriteByte('\n')
	b.WriteString(hintStyle.Render(wordWrap(match.Explain(mt), width)))
	b.WriteByte('\n')
}

func (m matchModel) renderDetail() string {
	ms := m.matches()
	if len(ms) == 0 {
		return ""
	}
	mt := ms[m.cursor]
	c := m.candidate(mt.CandidateID)
	var b strings.Builder

	addField := func(label, value string) {
		if value == "" {
			return
		}
		b.WriteString(detailLabelStyle.Render(label))
		b.WriteString(detailValueStyle.Render(value))
		b.WriteByte('\n')
	}

	addField("Name", c.Name)
	addField("Candidate ID", c.ID)
	addField("Role", c.Role)
	addField("Location", c.Location)
	if c.ExperienceYears != nil {
		addField("Experience", fmt.Sprintf("%d years", *c.ExperienceYears))
	}
	addField("Status", c.Status)
	if len(c.Skills) > 0 {
		addField("Skills", strings.Join(c.Skills, ", "))
	}

	wrapWidth := max(m.width-8, 20)
	divider := func(label string) string {
		fill := strings.Repeat("─", max(wrapWidth-len(label), 3))
		return dividerStyle.Render(label + fill)
	}

	if c.Summary != "" {
		b.WriteByte('\n')
		b.WriteString(divider("── Summary ") + "\n\n")
		b.WriteString(wordWrap(c.Summary, wrapWidth) + "\n")
	}

	b.WriteByte('\n')
	b.WriteString(divider("── Match ") + "\n\n")
	writeBreakdown(&b, mt, wrapWidth)

	if m.notice != "" {
		b.WriteByte('\n')
		b.WriteString(noticeStyle.Render(m.notice) + "\n")
	}
	return b.String()
}

func orNA(s string) string {
	if s == "" {
		return "n/a"
	}
	return s
}

func wordWrap(text string, width int) string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return ""
	}
	var lines []string
	line := words[0]
	for _, w := range words[1:] {
		if len(line)+1+len(w) <= width {
			line += " " + w
		} else {
			lines = append(lines, line)
			line = w
		}
	}
	lines = append(lines, line)
	return strings.Join(lines, "\n")
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// RunMatchTUI launches the interactive match view for a position. initial is
// the first pass; when loadErr is non-nil the error view is shown instead and
// r retries. Returns wantQuit=true if the user pressed q/ctrl+c, false if they
// pressed esc to return to the position picker.
func RunMatchTUI(svc Service, positionID string, initial *matcher.Result, loadErr error) (bool, error) {
	m := newMatchModel(svc, positionID, initial, loadErr)

	p := tea.NewProgram(m, tea.WithAltScreen())
	result, err := p.Run()
	if err != nil {
		return false, err
	}
	final := result.(matchModel)
	return final.wantQuit, nil
}
