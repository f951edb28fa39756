package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"mini-todo/home"
	"mini-todo/models"
)

// startHome builds a fresh home view and returns the command that mounts it.
func (m *Model) startHome() tea.Cmd {
	feed := newClockFeed()
	view := home.NewView(m.platform, m.clock, m.logger, feed.push)
	m.view, m.feed = view, feed
	m.screen = screenLoading
	m.cursor = 0
	m.notice = ""
	m.adding = false

	ctx := m.ctx
	return func() tea.Msg {
		p, err := view.Mount(ctx)
		return mountedMsg{view: view, principal: p, err: err}
	}
}

// stopHome unmounts the current view, if any.
func (m *Model) stopHome() {
	if m.view != nil {
		m.view.Unmount()
		m.view = nil
	}
	if m.feed != nil {
		m.feed.close()
		m.feed = nil
	}
}

func (m Model) mounted(msg mountedMsg) (tea.Model, tea.Cmd) {
	if msg.view != m.view {
		msg.view.Unmount()
		return m, nil
	}
	if errors.Is(msg.err, home.ErrLoginRequired) {
		m.stopHome()
		return m, m.showAuth(screenLogin)
	}

	m.screen = screenHome
	m.principal = msg.principal
	m.report(msg.err)
	cmds := []tea.Cmd{m.feed.wait()}
	if m.view.Name.Mode() == home.Editing {
		m.name.SetValue("")
		cmds = append(cmds, m.setFocus(focusName))
	} else {
		m.setFocus(focusList)
	}
	return m, tea.Batch(cmds...)
}

func (m *Model) setFocus(f focus) tea.Cmd {
	m.focus = f
	m.name.Blur()
	m.title.Blur()
	m.content.Blur()
	switch f {
	case focusName:
		return m.name.Focus()
	case focusTitle:
		return m.title.Focus()
	case focusContent:
		return m.content.Focus()
	}
	return nil
}

// op runs fn against the current view off the update loop.
func (m Model) op(fn func(context.Context) error) tea.Cmd {
	view, ctx := m.view, m.ctx
	return func() tea.Msg {
		return opDoneMsg{view: view, err: fn(ctx)}
	}
}

func (m *Model) clampCursor() {
	n := len(m.view.Items.Snapshot())
	if m.cursor >= n {
		m.cursor = n - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

func selected(items []models.Item, i int) (models.Item, bool) {
	if i < 0 || i >= len(items) {
		return models.Item{}, false
	}
	return items[i], true
}

func (m Model) updateHome(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.focus {
	case focusName:
		return m.updateName(msg)
	case focusTitle, focusContent:
		return m.updateAdd(msg)
	}

	view := m.view
	items := view.Items.Snapshot()
	switch {
	case key.Matches(msg, keys.Quit):
		m.stopHome()
		return m, tea.Quit
	case key.Matches(msg, keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, keys.Down):
		if m.cursor < len(items)-1 {
			m.cursor++
		}
	case key.Matches(msg, keys.Toggle):
		if it, ok := selected(items, m.cursor); ok {
			return m, m.op(func(ctx context.Context) error {
				return view.Items.Toggle(ctx, it.ID, it.Completed)
			})
		}
	case key.Matches(msg, keys.Delete):
		if it, ok := selected(items, m.cursor); ok && !view.Items.Deleting(it.ID) {
			return m, m.op(func(ctx context.Context) error {
				return view.Items.Delete(ctx, it.ID)
			})
		}
	case key.Matches(msg, keys.Add):
		return m, m.setFocus(focusTitle)
	case key.Matches(msg, keys.Name):
		view.Name.Edit()
		m.name.SetValue(view.Name.Name())
		m.name.CursorEnd()
		return m, m.setFocus(focusName)
	case key.Matches(msg, keys.Reload):
		return m, m.op(view.Items.Reload)
	case key.Matches(msg, keys.Logout):
		m.stopHome()
		if err := m.platform.SignOut(); err != nil {
			m.logger.Error("sign out", "error", err)
			m.alert = err.Error()
		}
		return m, m.showAuth(screenLogin)
	}
	return m, nil
}

// updateAdd handles the add form. Its inputs are cleared only once the item
// is stored.
func (m Model) updateAdd(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, abortKey):
		m.stopHome()
		return m, tea.Quit
	case key.Matches(msg, cancelKey):
		return m, m.setFocus(focusList)
	case key.Matches(msg, nextKey):
		if m.focus == focusTitle {
			return m, m.setFocus(focusContent)
		}
		return m, m.setFocus(focusTitle)
	case key.Matches(msg, submitKey):
		title, content := m.title.Value(), m.content.Value()
		if strings.TrimSpace(title) == "" || m.adding {
			return m, nil
		}
		m.adding = true
		view, ctx := m.view, m.ctx
		return m, func() tea.Msg {
			return addDoneMsg{view: view, err: view.Items.Add(ctx, title, content)}
		}
	}

	var cmd tea.Cmd
	if m.focus == focusTitle {
		m.title, cmd = m.title.Update(msg)
	} else {
		m.content, cmd = m.content.Update(msg)
	}
	return m, cmd
}

func (m Model) addDone(msg addDoneMsg) (tea.Model, tea.Cmd) {
	if msg.view != m.view {
		return m, nil
	}
	m.adding = false
	m.report(msg.err)
	if msg.err != nil {
		return m, nil
	}
	m.title.SetValue("")
	m.content.SetValue("")
	if n := len(m.view.Items.Snapshot()); n > 0 {
		m.cursor = n - 1
	}
	return m, m.setFocus(focusList)
}

// updateName handles the display-name input. Enter saves a non-blank name;
// esc leaves the input, which saves too unless it is blank.
func (m Model) updateName(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	view := m.view
	input := m.name.Value()
	switch {
	case key.Matches(msg, abortKey):
		m.stopHome()
		return m, tea.Quit
	case key.Matches(msg, submitKey):
		if strings.TrimSpace(input) == "" {
			return m, nil
		}
		m.setFocus(focusList)
		return m, m.op(func(ctx context.Context) error {
			return view.Name.Submit(ctx, input)
		})
	case key.Matches(msg, cancelKey):
		m.setFocus(focusList)
		return m, m.op(func(ctx context.Context) error {
			return view.Name.Blur(ctx, input)
		})
	}

	var cmd tea.Cmd
	m.name, cmd = m.name.Update(msg)
	return m, cmd
}

func (m Model) homeView() string {
	var b strings.Builder
	view := m.view

	who := m.name.View()
	if m.focus != focusName && view.Name.Mode() == home.Display {
		if view.Name.Name() == "" {
			who = mutedStyle.Render(home.NamePlaceholder)
		} else {
			who = view.Name.Shown()
		}
	}
	greeting := m.now.Greeting
	if greeting == "" {
		greeting = "Hello"
	}
	fmt.Fprintf(&b, "%s, %s   %s\n", greetingStyle.Render(greeting), who, mutedStyle.Render(m.now.Time))
	b.WriteString(mutedStyle.Render(m.principal.Email) + "\n\n")

	items := view.Items.Snapshot()
	done := 0
	for _, it := range items {
		if it.Completed {
			done++
		}
	}
	fmt.Fprintf(&b, "%s   %s %d  %s %d\n",
		titleStyle.Render("To Do List"),
		successStyle.Render("✔"), done,
		pendingStyle.Render("•"), len(items)-done,
	)

	switch {
	case !view.Items.Loaded():
		if m.notice == "" {
			b.WriteString(mutedStyle.Render("Loading tasks…") + "\n")
		}
	case len(items) == 0:
		b.WriteString(mutedStyle.Render("Nothing to do yet. Press a to add a task.") + "\n")
	}
	for i, it := range items {
		box, text := mutedStyle.Render(boxUnchecked), it.Title
		if it.Completed {
			box, text = successStyle.Render(boxChecked), doneStyle.Render(it.Title)
		}
		prefix := "  "
		if i == m.cursor && m.focus == focusList {
			prefix = selectedStyle.Render("> ")
		}
		line := prefix + box + " " + text
		if it.Content != "" {
			line += " " + mutedStyle.Render("· "+it.Content)
		}
		if view.Items.Deleting(it.ID) {
			line += " " + errorStyle.Render("Deleting…")
		}
		b.WriteString(line + "\n")
	}

	if m.focus == focusTitle || m.focus == focusContent {
		heading := "Add new task"
		if m.adding {
			heading += " " + mutedStyle.Render("Adding…")
		}
		form := heading + "\n" + m.title.View() + "\n" + m.content.View()
		b.WriteString("\n" + panelStyle.Render(form) + "\n")
		b.WriteString(helpLine(submitKey, nextKey, cancelKey))
	} else if m.focus == focusName {
		b.WriteString("\n" + helpLine(submitKey, cancelKey))
	} else {
		b.WriteString("\n" + helpLine(keys.short()...))
	}
	if m.notice != "" {
		b.WriteString("\n" + errorStyle.Render(m.notice))
	}
	return b.String()
}
