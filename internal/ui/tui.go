// Package ui provides the interactive terminal view of the task list.
package ui

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nibzard/tasklist-go/internal/task"
	"github.com/nibzard/tasklist-go/internal/tasklist"
)

const (
	title       = "Todo List"
	placeholder = "Add a task"
	emptyText   = "Add tasks now!"
	maxToasts   = 3
)

// DefaultNotifyFor is how long a notification stays visible.
const DefaultNotifyFor = 3 * time.Second

// Options configures the TUI.
type Options struct {
	// NotifyFor is the notification lifetime. Zero selects DefaultNotifyFor.
	NotifyFor time.Duration
}

// RunTUI runs the interactive view until the user quits or ctx is done.
func RunTUI(ctx context.Context, ctrl *tasklist.Controller, opts Options) error {
	if !IsTTY(os.Stdout) {
		return fmt.Errorf("tui requires a TTY")
	}
	program := tea.NewProgram(NewModel(ctx, ctrl, opts), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := program.Run()
	return err
}

type focusArea int

const (
	focusInput focusArea = iota
	focusFilter
	focusList
	focusCount
)

var (
	titleStyle     = lipgloss.NewStyle().Bold(true)
	faintStyle     = lipgloss.NewStyle().Faint(true)
	doneStyle      = lipgloss.NewStyle().Strikethrough(true).Faint(true)
	errorStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	successStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	selectedStyle  = lipgloss.NewStyle().Bold(true).Underline(true)
	promptBoxStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("11"))
)

// eventMsg carries a completed effect back into the update loop.
type eventMsg struct {
	ev tasklist.Event
}

// expireMsg removes a notification.
type expireMsg struct {
	id int
}

type toast struct {
	id   int
	note tasklist.Notification
}

// Model is the bubbletea model for the task list.
type Model struct {
	ctx       context.Context
	ctrl      *tasklist.Controller
	notifyFor time.Duration

	focus     focusArea
	cursor    int
	confirmID string
	toasts    []toast
	toastSeq  int
}

// NewModel creates the model. Effects run with ctx.
func NewModel(ctx context.Context, ctrl *tasklist.Controller, opts Options) *Model {
	notifyFor := opts.NotifyFor
	if notifyFor <= 0 {
		notifyFor = DefaultNotifyFor
	}
	return &Model{
		ctx:       ctx,
		ctrl:      ctrl,
		notifyFor: notifyFor,
	}
}

func (m *Model) Init() tea.Cmd {
	return m.run(m.ctrl.Start())
}

// run turns effects into commands whose results re-enter Update.
func (m *Model) run(effects ...tasklist.Effect) tea.Cmd {
	cmds := make([]tea.Cmd, 0, len(effects))
	for _, eff := range effects {
		if eff == nil {
			continue
		}
		eff := eff
		cmds = append(cmds, func() tea.Msg {
			return eventMsg{ev: eff(m.ctx)}
		})
	}
	return tea.Batch(cmds...)
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case eventMsg:
		cmd := m.run(m.ctrl.Handle(msg.ev)...)
		m.clampCursor()
		return m, tea.Batch(cmd, m.collectNotifications())
	case expireMsg:
		for i, t := range m.toasts {
			if t.id == msg.id {
				m.toasts = append(m.toasts[:i], m.toasts[i+1:]...)
				break
			}
		}
		return m, nil
	case tea.KeyMsg:
		return m, m.handleKey(msg)
	}
	return m, nil
}

func (m *Model) collectNotifications() tea.Cmd {
	var cmds []tea.Cmd
	for _, note := range m.ctrl.TakeNotifications() {
		m.toastSeq++
		id := m.toastSeq
		m.toasts = append(m.toasts, toast{id: id, note: note})
		cmds = append(cmds, tea.Tick(m.notifyFor, func(time.Time) tea.Msg {
			return expireMsg{id: id}
		}))
	}
	if len(m.toasts) > maxToasts {
		m.toasts = m.toasts[len(m.toasts)-maxToasts:]
	}
	return tea.Batch(cmds...)
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	key := msg.String()
	if key == "ctrl+c" {
		return tea.Quit
	}

	if m.confirmID != "" {
		id := m.confirmID
		switch key {
		case "y", "Y":
			m.confirmID = ""
			return m.run(m.ctrl.Delete(id, true))
		case "n", "N", "esc":
			m.confirmID = ""
			m.ctrl.Delete(id, false)
		}
		return nil
	}

	switch key {
	case "tab":
		m.focus = (m.focus + 1) % focusCount
		return nil
	case "shift+tab":
		m.focus = (m.focus + focusCount - 1) % focusCount
		return nil
	}

	switch m.focus {
	case focusInput:
		return m.handleInputKey(msg)
	case focusFilter:
		return m.handleFilterKey(key)
	default:
		return m.handleListKey(key)
	}
}

func (m *Model) handleInputKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.Type {
	case tea.KeyEnter:
		return m.run(m.ctrl.Submit(m.ctrl.Input()))
	case tea.KeyBackspace:
		runes := []rune(m.ctrl.Input())
		if len(runes) > 0 {
			m.ctrl.SetInput(string(runes[:len(runes)-1]))
		}
	case tea.KeySpace:
		m.ctrl.SetInput(m.ctrl.Input() + " ")
	case tea.KeyRunes:
		m.ctrl.SetInput(m.ctrl.Input() + string(msg.Runes))
	case tea.KeyEsc:
		m.focus = focusList
	}
	return nil
}

func (m *Model) handleFilterKey(key string) tea.Cmd {
	switch key {
	case "right", "l", " ", "enter":
		m.setFilter(m.ctrl.Filter().Next())
	case "left", "h":
		m.setFilter(m.ctrl.Filter().Next().Next())
	case "q":
		return tea.Quit
	default:
		m.filterShortcut(key)
	}
	return nil
}

func (m *Model) handleListKey(key string) tea.Cmd {
	visible := m.ctrl.Visible()
	switch key {
	case "q":
		return tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(visible)-1 {
			m.cursor++
		}
	case " ", "x":
		if m.cursor < len(visible) {
			return m.run(m.ctrl.Toggle(visible[m.cursor].ID))
		}
	case "d", "delete":
		if m.cursor < len(visible) {
			m.confirmID = visible[m.cursor].ID
		}
	case "r":
		return m.run(m.ctrl.Invalidate())
	default:
		m.filterShortcut(key)
	}
	return nil
}

func (m *Model) filterShortcut(key string) {
	switch key {
	case "1":
		m.setFilter(task.FilterAll)
	case "2":
		m.setFilter(task.FilterCompleted)
	case "3":
		m.setFilter(task.FilterIncomplete)
	}
}

func (m *Model) setFilter(f task.Filter) {
	if m.ctrl.SetFilter(f) {
		m.cursor = 0
	}
}

func (m *Model) clampCursor() {
	n := len(m.ctrl.Visible())
	if m.cursor >= n {
		m.cursor = n - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

func (m *Model) View() string {
	var b strings.Builder
	writeTitle(&b)
	m.writeForm(&b)
	m.writeFilter(&b)
	m.writeList(&b)
	m.writeConfirm(&b)
	m.writeToasts(&b)
	writeFooter(&b)
	return b.String()
}

func writeTitle(b *strings.Builder) {
	b.WriteString(titleStyle.Render(title) + "\n")
	b.WriteString(strings.Repeat("=", len(title)) + "\n\n")
}

func marker(active bool) string {
	if active {
		return "> "
	}
	return "  "
}

func (m *Model) writeForm(b *strings.Builder) {
	input := m.ctrl.Input()
	text := input
	if input == "" {
		text = faintStyle.Render(placeholder)
	}
	if m.focus == focusInput {
		text += "_"
	}
	b.WriteString(fmt.Sprintf("%s%s  [ Add ]\n", marker(m.focus == focusInput), text))
	if msg := m.ctrl.FieldError(); msg != "" {
		b.WriteString("  " + errorStyle.Render(msg) + "\n")
	}
	b.WriteString("\n")
}

func (m *Model) writeFilter(b *strings.Builder) {
	labels := make([]string, 0, len(task.Filters))
	for _, f := range task.Filters {
		label := f.Label()
		if f == m.ctrl.Filter() {
			label = selectedStyle.Render("[" + label + "]")
		}
		labels = append(labels, label)
	}
	b.WriteString(fmt.Sprintf("%sFilter: %s\n\n", marker(m.focus == focusFilter), strings.Join(labels, " ")))
}

func (m *Model) writeList(b *strings.Builder) {
	if m.ctrl.Loading() {
		b.WriteString("  Loading...\n\n")
		return
	}
	visible := m.ctrl.Visible()
	if len(visible) == 0 {
		b.WriteString("  " + emptyText + "\n\n")
		return
	}
	for i, t := range visible {
		check := "[ ]"
		desc := t.Task
		if t.IsCompleted {
			check = "[x]"
			desc = doneStyle.Render(desc)
		}
		b.WriteString(fmt.Sprintf("%s%s %s  [del]\n", marker(m.focus == focusList && i == m.cursor), check, desc))
	}
	b.WriteString("\n")
}

func (m *Model) writeConfirm(b *strings.Builder) {
	if m.confirmID == "" {
		return
	}
	b.WriteString(promptBoxStyle.Render(tasklist.DeletePrompt+" (y/n)") + "\n\n")
}

func (m *Model) writeToasts(b *strings.Builder) {
	if len(m.toasts) == 0 {
		return
	}
	for _, t := range m.toasts {
		if t.note.Level == tasklist.LevelError {
			line := t.note.Message
			if t.note.Err != nil {
				line += ": " + t.note.Err.Error()
			}
			b.WriteString(errorStyle.Render("! "+line) + "\n")
			continue
		}
		b.WriteString(successStyle.Render("✓ "+t.note.Message) + "\n")
	}
	b.WriteString("\n")
}

func writeFooter(b *strings.Builder) {
	b.WriteString(faintStyle.Render("tab focus | enter add | space toggle | d delete | 1/2/3 filter | r refresh | q quit") + "\n")
}

// IsTTY returns true if w is a terminal.
func IsTTY(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}
