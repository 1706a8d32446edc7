package inspector

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/mickamy/boltcore/boltconn"
	"github.com/mickamy/boltcore/clipboard"
	"github.com/mickamy/boltcore/protocolv1"
	"github.com/mickamy/boltcore/value"
)

// Model is the Bubble Tea model driving the record viewer. Besides its
// view state (records, cursor, scroll, last status) it drives only the one
// Connection it was constructed with; a Connection is single-owner, and
// Model is that one owner for the lifetime of the program.
type Model struct {
	conn      *boltconn.Connection
	statement string
	pullID    int64

	records [][]string
	cursor  int
	follow  bool
	width   int
	height  int
	hScroll int

	done   bool
	status boltconn.StatusKind
	meta   map[string]string
	err    error
}

// New creates a Model that will run statement over conn, which must
// already be Ready, once the Bubble Tea program starts.
func New(conn *boltconn.Connection, statement string) Model {
	return Model{
		conn:      conn,
		statement: statement,
		follow:    true,
		status:    conn.Status().Kind,
	}
}

// Run builds and runs a Bubble Tea program for statement over conn,
// blocking until the user quits.
func Run(conn *boltconn.Connection, statement string) error {
	_, err := tea.NewProgram(New(conn, statement)).Run()
	return err
}

type startedMsg struct{ pullID int64 }
type recordMsg struct{ fields []string }
type summaryMsg struct {
	status boltconn.Status
}
type errMsg struct{ err error }

func (m Model) Init() tea.Cmd {
	return runStatement(m.conn, m.statement)
}

// runStatement loads and transmits RUN + PULL_ALL, then reports the
// PULL_ALL request ID so Update can drive the Fetch pump.
func runStatement(conn *boltconn.Connection, statement string) tea.Cmd {
	return func() tea.Msg {
		conn.SetStatement(statement)
		conn.ResizeParameters(0)
		if err := conn.LoadRun(); err != nil {
			return errMsg{err}
		}
		if err := conn.LoadPull(-1); err != nil {
			return errMsg{err}
		}
		if err := conn.Transmit(); err != nil {
			return errMsg{err}
		}
		return startedMsg{pullID: conn.LastRequestID()}
	}
}

// fetchNext blocks on the next Fetch for pullID, returning either the next
// record or the terminal summary.
func fetchNext(conn *boltconn.Connection, pullID int64) tea.Cmd {
	return func() tea.Msg {
		hasRecord, err := conn.Fetch(pullID)
		if err != nil {
			return errMsg{err}
		}
		if !hasRecord {
			return summaryMsg{status: conn.Status()}
		}
		return recordMsg{fields: describeRecord(conn.Received())}
	}
}

func describeRecord(msg *value.Value) []string {
	row := msg.Field(0)
	fields := make([]string, row.Size())
	for i := int32(0); i < row.Size(); i++ {
		fields[i] = protocolv1.Describe(row.At(i))
	}
	return fields
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case startedMsg:
		m.pullID = msg.pullID
		return m, fetchNext(m.conn, m.pullID)

	case recordMsg:
		m.records = append(m.records, msg.fields)
		if m.follow {
			m.cursor = len(m.records) - 1
		}
		return m, fetchNext(m.conn, m.pullID)

	case summaryMsg:
		m.done = true
		m.status = msg.status.Kind
		m.meta = msg.status.Meta
		return m, nil

	case errMsg:
		m.err = msg.err
		return m, nil

	case tea.KeyMsg:
		return m.updateKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	}
	return m, nil
}

func (m Model) updateKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "c":
		return m.copyCurrent(), nil
	case "j", "down":
		if len(m.records) > 0 && m.cursor < len(m.records)-1 {
			m.cursor++
		}
		m.follow = len(m.records) > 0 && m.cursor == len(m.records)-1
		return m, nil
	case "k", "up":
		if m.cursor > 0 {
			m.cursor--
			m.follow = false
		}
		return m, nil
	case "h", "left":
		if m.hScroll > 0 {
			m.hScroll--
		}
		return m, nil
	case "l", "right":
		maxScroll := max(len([]rune(m.statement))-max(m.width-4, 20), 0)
		if m.hScroll < maxScroll {
			m.hScroll++
		}
		return m, nil
	}
	return m, nil
}

func (m Model) copyCurrent() Model {
	if m.cursor < 0 || m.cursor >= len(m.records) {
		return m
	}
	text := strings.Join(m.records[m.cursor], ", ")
	_ = clipboard.Copy(context.Background(), text)
	return m
}

func (m Model) View() string {
	if m.width == 0 {
		return ""
	}
	if m.err != nil {
		return friendlyError(m.err, m.width)
	}

	header := lipgloss.NewStyle().Bold(true).Render(scrollStatement(m.statement, m.hScroll, max(m.width-4, 20)))
	body := m.renderList(max(m.height-6, 3))
	footer := m.renderFooter()

	return strings.Join([]string{header, body, footer}, "\n")
}

func (m Model) renderFooter() string {
	status := fmt.Sprintf(" %d records — %s ", len(m.records), m.status)
	if m.done && m.status == boltconn.Failed {
		status += fmt.Sprintf("[%s: %s] ", m.meta["code"], m.meta["message"])
	}
	keys := "q: quit  j/k: navigate  h/l: scroll statement  c: copy row"
	return lipgloss.NewStyle().Faint(true).Render(status) + "\n" + keys
}
