// Package tui hosts one list editor in a bubbletea terminal program.
//
// Operation errors are never shown on screen; the editor has already logged
// them. A failed operation simply leaves the list as it was.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/kalambet/corkboard/internal/listedit"
)

type mode int

const (
	modeList mode = iota
	modeCreate
	modeEdit
)

// opDoneMsg reports the completion of one editor operation.
type opDoneMsg struct {
	op  string
	err error
}

// Model is the bubbletea model hosting one list editor.
type Model[R any] struct {
	ctx    context.Context
	editor *listedit.Editor[R]
	view   View[R]

	cursor   int
	offset   int
	width    int
	height   int
	mode     mode
	form     []textinput.Model
	focus    int
	edit     textinput.Model
	pending  int // operations issued and not yet completed
	quitting bool
}

// New builds a model around editor. ctx bounds every backend call.
func New[R any](ctx context.Context, editor *listedit.Editor[R], view View[R]) Model[R] {
	form := make([]textinput.Model, len(view.Fields))
	for i, f := range view.Fields {
		ti := textinput.New()
		ti.Placeholder = f.Placeholder
		ti.CharLimit = 500
		form[i] = ti
	}

	ei := textinput.New()
	ei.CharLimit = 500

	return Model[R]{
		ctx:     ctx,
		editor:  editor,
		view:    view,
		form:    form,
		edit:    ei,
		width:   80,
		height:  24,
		pending: 1, // Init's load
	}
}

func (m Model[R]) Init() tea.Cmd {
	return m.run("load", m.editor.Load)
}

// run wraps one editor call as a command. Callers account for it in pending.
func (m Model[R]) run(op string, fn func(context.Context) error) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		return opDoneMsg{op: op, err: fn(ctx)}
	}
}

func (m Model[R]) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.clamp()
		return m, nil

	case opDoneMsg:
		return m.finish(msg), nil

	case tea.KeyMsg:
		switch m.mode {
		case modeList:
			return m.updateList(msg)
		case modeCreate:
			return m.updateCreate(msg)
		case modeEdit:
			return m.updateEdit(msg)
		}
	}
	return m, nil
}

func (m Model[R]) finish(msg opDoneMsg) Model[R] {
	if m.pending > 0 {
		m.pending--
	}
	if msg.op == "create" && msg.err == nil {
		for i := range m.form {
			m.form[i].Reset()
		}
	}
	if m.mode == modeEdit {
		if _, ok := m.editor.Session(); !ok {
			m.edit.Blur()
			m.mode = modeList
		}
	}
	m.clamp()
	return m
}

func (m Model[R]) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	items := m.editor.Items()

	switch msg.String() {
	case "q", "ctrl+c":
		m.quitting = true
		return m, tea.Quit

	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
			m.clamp()
		}

	case "down", "j":
		if m.cursor < len(items)-1 {
			m.cursor++
			m.clamp()
		}

	case "a":
		if len(m.form) == 0 {
			return m, nil
		}
		m.mode = modeCreate
		m.focus = 0
		m.form[0].Focus()

	case "e", "enter":
		if len(items) == 0 {
			return m, nil
		}
		id := m.editor.Kind().ID(items[m.cursor])
		if err := m.editor.BeginEdit(id); err != nil {
			return m, nil
		}
		s, _ := m.editor.Session()
		m.edit.SetValue(s.Draft)
		m.edit.CursorEnd()
		m.edit.Focus()
		m.mode = modeEdit

	case "d":
		if len(items) == 0 {
			return m, nil
		}
		id := m.editor.Kind().ID(items[m.cursor])
		m.pending++
		return m, m.run("delete", func(ctx context.Context) error {
			return m.editor.Delete(ctx, id)
		})

	case "r":
		m.pending++
		return m, m.run("load", m.editor.Load)
	}

	return m, nil
}

func (m Model[R]) updateCreate(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.form[m.focus].Blur()
		m.mode = modeList
		return m, nil

	case "tab", "down":
		m.form[m.focus].Blur()
		m.focus = (m.focus + 1) % len(m.form)
		m.form[m.focus].Focus()
		return m, nil

	case "shift+tab", "up":
		m.form[m.focus].Blur()
		m.focus = (m.focus - 1 + len(m.form)) % len(m.form)
		m.form[m.focus].Focus()
		return m, nil

	case "enter":
		values := make([]string, len(m.form))
		for i, ti := range m.form {
			values[i] = ti.Value()
		}
		draft := m.view.Build(values)
		m.pending++
		return m, m.run("create", func(ctx context.Context) error {
			_, err := m.editor.Create(ctx, draft)
			return err
		})
	}

	var cmd tea.Cmd
	m.form[m.focus], cmd = m.form[m.focus].Update(msg)
	return m, cmd
}

func (m Model[R]) updateEdit(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.editor.CancelEdit()
		m.edit.Blur()
		m.mode = modeList
		return m, nil

	case "enter":
		s, ok := m.editor.Session()
		if !ok {
			m.mode = modeList
			return m, nil
		}
		m.pending++
		return m, m.run("commit", func(ctx context.Context) error {
			return m.editor.Commit(ctx, s.ID)
		})
	}

	var cmd tea.Cmd
	m.edit, cmd = m.edit.Update(msg)
	// The session can vanish under a concurrent reload or delete.
	if err := m.editor.SetDraft(m.edit.Value()); err != nil {
		m.edit.Blur()
		m.mode = modeList
	}
	return m, cmd
}

func (m Model[R]) View() string {
	if m.quitting {
		return ""
	}

	items := m.editor.Items()
	session, editing := m.editor.Session()
	kind := m.editor.Kind()

	var b strings.Builder

	title := titleStyle.Render(m.view.Title)
	info := dimStyle.Render(fmt.Sprintf("  %d records", len(items)))
	if m.Busy() {
		info += "  " + busyStyle.Render("working...")
	}
	b.WriteString(title + info + "\n")
	b.WriteString(headerStyle.Render(pad("ID", 6)+" "+strings.ToUpper(fieldNames(m.view.Fields))) + "\n")

	visible := m.visibleRows()
	end := min(m.offset+visible, len(items))
	for i := m.offset; i < end; i++ {
		rec := items[i]
		id := kind.ID(rec)
		body := m.view.Line(rec)
		if editing && session.ID == id && m.mode == modeEdit {
			body = m.edit.View()
		}
		idText := pad(fmt.Sprintf("%d", id), 6)
		var row string
		if i == m.cursor {
			row = lipgloss.PlaceHorizontal(m.width, lipgloss.Left, selectedStyle.Render(idText+" "+body))
		} else {
			row = normalStyle.Render(idStyle.Render(idText) + " " + body)
		}
		b.WriteString(row + "\n")
	}
	for i := end - m.offset; i < visible; i++ {
		b.WriteString("\n")
	}

	switch m.mode {
	case modeCreate:
		for i, f := range m.view.Fields {
			label := pad(f.Name+":", 9)
			if i == m.focus {
				label = focusedLabelStyle.Render(label)
			}
			b.WriteString(statusBarStyle.Render("New") + " " + label + m.form[i].View() + "\n")
		}
		b.WriteString(helpStyle.Render("  Tab: next field  Enter: create  Esc: back"))
	case modeEdit:
		b.WriteString(helpStyle.Render("  Enter: save  Esc: cancel"))
	default:
		b.WriteString(helpStyle.Render("  a: add  e: edit  d: delete  r: reload  q: quit"))
	}

	return b.String()
}

// Busy reports whether an issued operation has not completed yet.
func (m Model[R]) Busy() bool {
	return m.pending > 0 || m.editor.Busy()
}

func (m Model[R]) visibleRows() int {
	rows := m.height - 3
	if m.mode == modeCreate {
		rows -= len(m.form)
	}
	if rows < 1 {
		rows = 1
	}
	return rows
}

// clamp keeps the cursor on an existing row and the row on screen.
func (m *Model[R]) clamp() {
	n := len(m.editor.Items())
	if m.cursor >= n {
		m.cursor = max(0, n-1)
	}
	visible := m.visibleRows()
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+visible {
		m.offset = m.cursor - visible + 1
	}
	if m.offset < 0 {
		m.offset = 0
	}
}

func fieldNames(fields []Field) string {
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = f.Name
	}
	return strings.Join(names, " / ")
}

func pad(s string, width int) string {
	runes := []rune(s)
	if len(runes) >= width {
		return string(runes[:width])
	}
	return s + strings.Repeat(" ", width-len(runes))
}
