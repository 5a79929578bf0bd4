// Package ui holds both review front ends. Each one only translates
// operator input into review.Session transitions; the state machine
// itself lives in the review package and is identical for both.
package ui

import (
	"fmt"
	"math/rand"
	"strings"
	"time"

	"dupescan/internal/report"
	"dupescan/internal/review"
	"dupescan/pkg/utils"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
)

// Styles using Lip Gloss
var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("86")).
			Bold(true).
			Padding(0, 1)

	borderStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("35")).
			Padding(0, 1)

	normalFileStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252"))

	keptFileStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("82")).
			Bold(true)

	selectedStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("240")).
			Bold(true)

	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("220")).
			Bold(true)

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			Italic(true)
)

// maxPathCells is how much of a member path the TUI shows before
// truncating with an ellipsis.
const maxPathCells = 72

// Model holds the state of the TUI review.
type Model struct {
	session *review.Session

	cursor int
	keep   map[int]bool

	showingDialog bool
	dialogInput   string
	dialogCode    string
	dialogError   string

	status   string
	quitting bool
}

// LaunchTUI runs the graphical review mode over the session.
func LaunchTUI(session *review.Session) error {
	p := tea.NewProgram(NewModel(session), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running review TUI: %w", err)
	}
	return nil
}

// NewModel creates the initial model positioned at the session's
// current group.
func NewModel(session *review.Session) Model {
	m := Model{session: session}
	m.resetSelection()
	return m
}

// resetSelection seeds the keep-set for the current group: the first
// member is kept by default, mirroring the line-mode default.
func (m *Model) resetSelection() {
	m.cursor = 0
	m.keep = map[int]bool{0: true}
}

// keepSet converts the marked positions into the structural keep-set
// the state machine consumes.
func (m *Model) keepSet() review.KeepSet {
	ks := make(review.KeepSet, len(m.keep))
	for i, kept := range m.keep {
		if kept {
			ks[i] = true
		}
	}
	return ks
}

// Init is called when the program starts.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.showingDialog {
		return m.updateDialog(msg)
	}

	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	if m.session.Done() {
		switch keyMsg.String() {
		case "q", "esc", "enter":
			m.quitting = true
			return m, tea.Quit
		}
		return m, nil
	}

	group, _ := m.session.Current()

	switch keyMsg.String() {
	case "q", "esc":
		m.session.Quit()
		m.quitting = true
		return m, tea.Quit

	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}

	case "down", "j":
		if m.cursor < group.Len()-1 {
			m.cursor++
		}

	case " ", "enter":
		// Toggle keep mark on the member under the cursor.
		m.keep[m.cursor] = !m.keep[m.cursor]

	case "m":
		if err := m.session.Move(m.keepSet()); err != nil {
			m.status = err.Error()
			break
		}
		m.status = ""
		m.resetSelection()

	case "d":
		if len(m.keepSet()) == 0 {
			m.status = review.ErrEmptyKeepSet.Error()
			break
		}
		m.showingDialog = true
		m.dialogCode = GenConfirmationCode()
		m.dialogInput = ""
		m.dialogError = ""

	case "s":
		m.session.Skip()
		m.status = ""
		m.resetSelection()

	case "left", "h":
		m.session.Prev()
		m.status = ""
		m.resetSelection()

	case "right", "l":
		m.session.Next()
		m.status = ""
		m.resetSelection()
	}

	return m, nil
}

// updateDialog handles input while the delete confirmation dialog is up.
func (m Model) updateDialog(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch keyMsg.String() {
	case "esc":
		m.showingDialog = false
		m.dialogInput = ""
		m.dialogError = ""

	case "enter":
		if m.dialogInput != m.dialogCode {
			m.dialogError = "Incorrect code. Try again."
			m.dialogInput = ""
			break
		}
		m.showingDialog = false
		m.dialogInput = ""
		m.dialogError = ""
		if err := m.session.Delete(m.keepSet()); err != nil {
			m.status = err.Error()
			break
		}
		m.status = ""
		m.resetSelection()

	case "backspace":
		if len(m.dialogInput) > 0 {
			m.dialogInput = m.dialogInput[:len(m.dialogInput)-1]
		}

	default:
		if len(keyMsg.String()) == 1 && len(m.dialogInput) < len(m.dialogCode) {
			r := rune(keyMsg.String()[0])
			if utils.IsAlphanumeric(r) {
				m.dialogInput += keyMsg.String()
			}
		}
	}

	return m, nil
}

// View renders the UI.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	if m.showingDialog {
		return m.renderDialog()
	}

	var b strings.Builder

	title := titleStyle.Render("dupescan: Duplicate Review")
	help := helpStyle.Render("[space=toggle keep, m=move others, d=delete others, s=skip, ←→=navigate, q=quit]")
	b.WriteString(title + "\n")
	b.WriteString(help + "\n\n")

	group, ok := m.session.Current()
	if !ok {
		stats := m.session.Stats()
		b.WriteString(headerStyle.Render("All groups reviewed!") + "\n\n")
		b.WriteString(fmt.Sprintf("Reviewed: %d  Skipped: %d  Moved: %d  Deleted: %d\n",
			stats.Reviewed, stats.Skipped, stats.Moved, stats.Deleted))
		b.WriteString(helpStyle.Render("\n[q=quit]"))
		return borderStyle.Render(b.String())
	}

	header := fmt.Sprintf("Group %d of %d (%s) - %s total",
		m.session.Index()+1, m.session.Len(), report.Label(group.Kind()),
		utils.DisplaySize(group.TotalSize()))
	b.WriteString(headerStyle.Render(header) + "\n\n")

	for i, f := range group.Files() {
		b.WriteString(m.renderMember(i, f.FileName(), uint64(max(f.FileSize(), 0)), i == m.cursor)) // #nosec G115
		b.WriteString("\n")
	}

	if m.status != "" {
		b.WriteString("\n" + helpStyle.Render(m.status))
	}

	stats := m.session.Stats()
	footer := helpStyle.Render(fmt.Sprintf("\nReviewed: %d  Skipped: %d  Moved: %d  Deleted: %d",
		stats.Reviewed, stats.Skipped, stats.Moved, stats.Deleted))
	b.WriteString(footer)

	return borderStyle.Render(b.String())
}

// renderMember renders one group member line.
func (m Model) renderMember(i int, path string, size uint64, selected bool) string {
	marker := "  remove "
	style := normalFileStyle
	if m.keep[i] {
		marker = "✓ keep   "
		style = keptFileStyle
	}

	shortPath := runewidth.Truncate(path, maxPathCells, "…")
	text := fmt.Sprintf("[%d] %s%s (%s)", i+1, marker, shortPath, utils.DisplaySize(size))

	if selected {
		style = style.Inherit(selectedStyle)
	}
	return style.Render(text)
}

// renderDialog renders the delete confirmation dialog.
func (m Model) renderDialog() string {
	var b strings.Builder

	dialogStyle := lipgloss.NewStyle().
		Border(lipgloss.DoubleBorder()).
		BorderForeground(lipgloss.Color("196")).
		Padding(1, 2).
		Width(60)

	group, _ := m.session.Current()
	removed := 0
	if group != nil {
		removed = group.Len() - len(m.keepSet())
	}

	b.WriteString(fmt.Sprintf("Type the confirmation code below to delete %d file(s):\n\n", removed))
	b.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color("220")).Bold(true).Render(m.dialogCode))
	b.WriteString("\n\n")
	b.WriteString(fmt.Sprintf("Code: %s\n", m.dialogInput))

	if m.dialogError != "" {
		b.WriteString("\n")
		b.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Render(m.dialogError))
	}

	b.WriteString("\n\n")
	b.WriteString(helpStyle.Render("[enter=confirm, esc=cancel]"))

	return lipgloss.Place(
		80, 24,
		lipgloss.Center, lipgloss.Center,
		dialogStyle.Render(b.String()),
	)
}

// GenConfirmationCode generates a random alphanumeric code the operator
// must type before a delete goes through.
func GenConfirmationCode() string {
	const kAlnum = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
	// #nosec G404 -- not used for crypto, just a UX speed bump.
	r := rand.New(rand.NewSource(time.Now().UnixNano()))

	length := r.Intn(4) + 5 // Random length between 5 and 8
	code := make([]byte, length)
	for i := range code {
		code[i] = kAlnum[r.Intn(len(kAlnum))]
	}
	return string(code)
}
