// Package tui is the terminal front end. It has three screens, login, sign-up
// and home, and only the home screen needs a signed-in user.
package tui

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"mini-todo/clock"
	"mini-todo/home"
	"mini-todo/models"
)

// Platform is the identity and data service the screens talk to;
// *platform.Client implements it.
type Platform interface {
	home.Backend
	SignIn(ctx context.Context, email, password string) (models.Session, error)
	SignUp(ctx context.Context, email, password string) (models.Principal, error)
	SignOut() error
}

type screen int

const (
	screenLoading screen = iota
	screenLogin
	screenSignup
	screenHome
)

type focus int

const (
	focusList focus = iota
	focusName
	focusTitle
	focusContent
)

type mountedMsg struct {
	view      *home.View
	principal models.Principal
	err       error
}

type clockMsg struct {
	feed  *clockFeed
	state clock.State
}

type signedInMsg struct{ err error }

type signedUpMsg struct {
	email string
	err   error
}

type opDoneMsg struct {
	view *home.View
	err  error
}

type addDoneMsg struct {
	view *home.View
	err  error
}

// clockFeed carries scheduler updates into the program. It holds at most the
// latest state; push never blocks because the scheduler calls it locked.
type clockFeed struct {
	mu     sync.Mutex
	closed bool
	ch     chan clock.State
}

func newClockFeed() *clockFeed {
	return &clockFeed{ch: make(chan clock.State, 1)}
}

func (f *clockFeed) push(s clock.State) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return
	}
	select {
	case <-f.ch:
	default:
	}
	f.ch <- s
}

func (f *clockFeed) close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.closed {
		f.closed = true
		close(f.ch)
	}
}

func (f *clockFeed) wait() tea.Cmd {
	return func() tea.Msg {
		s, ok := <-f.ch
		if !ok {
			return nil
		}
		return clockMsg{feed: f, state: s}
	}
}

type Model struct {
	ctx      context.Context
	platform Platform
	clock    clock.Clock
	logger   *slog.Logger
	initCmd  tea.Cmd

	screen screen
	alert  string
	notice string

	// login and sign-up
	email     textinput.Model
	password  textinput.Model
	authFocus int
	busy      bool

	// home
	view      *home.View
	feed      *clockFeed
	principal models.Principal
	now       clock.State
	cursor    int
	focus     focus
	adding    bool
	title     textinput.Model
	content   textinput.Model
	name      textinput.Model
}

func newInput(placeholder string, limit int) textinput.Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = placeholder
	ti.CharLimit = limit
	return ti
}

// New builds the program model. The first thing it does is mount the home
// screen, whose guard sends the user to login when there is no session.
func New(ctx context.Context, p Platform, c clock.Clock, logger *slog.Logger) Model {
	m := Model{
		ctx:      ctx,
		platform: p,
		clock:    c,
		logger:   logger,
		email:    newInput("Email", 254),
		password: newInput("Password", 72),
		title:    newInput("Task", 200),
		content:  newInput("How will you achieve this?", 1000),
		name:     newInput(home.NamePlaceholder, 80),
	}
	m.password.EchoMode = textinput.EchoPassword
	m.password.EchoCharacter = '•'
	m.initCmd = m.startHome()
	return m
}

func (m Model) Init() tea.Cmd {
	return m.initCmd
}

// Run drives the program until the user quits or ctx is cancelled.
func Run(ctx context.Context, p Platform, c clock.Clock, logger *slog.Logger) error {
	final, err := tea.NewProgram(New(ctx, p, c, logger), tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	if fm, ok := final.(Model); ok {
		fm.stopHome()
	}
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case clockMsg:
		if msg.feed != m.feed {
			return m, nil
		}
		m.now = msg.state
		return m, msg.feed.wait()
	case mountedMsg:
		return m.mounted(msg)
	case signedInMsg:
		return m.signedIn(msg)
	case signedUpMsg:
		return m.signedUp(msg)
	case opDoneMsg:
		if msg.view != m.view {
			return m, nil
		}
		m.report(msg.err)
		m.clampCursor()
		return m, nil
	case addDoneMsg:
		return m.addDone(msg)
	case tea.KeyMsg:
		if m.alert != "" {
			return m.updateAlert(msg)
		}
		switch m.screen {
		case screenLogin, screenSignup:
			return m.updateAuth(msg)
		case screenHome:
			return m.updateHome(msg)
		default:
			if msg.String() == "ctrl+c" {
				m.stopHome()
				return m, tea.Quit
			}
			return m, nil
		}
	}
	return m.updateInputs(msg)
}

// report turns an operation error into what the user sees: a blocking alert
// for a missing session, a notice line for everything else.
func (m *Model) report(err error) {
	switch {
	case err == nil:
		m.notice = ""
	case errors.Is(err, context.Canceled):
	case errors.Is(err, home.ErrNotSignedIn):
		m.alert = "You must be logged in to do that."
	default:
		m.notice = err.Error()
	}
}

func (m Model) updateAlert(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		m.stopHome()
		return m, tea.Quit
	case "enter", "esc", " ":
		m.alert = ""
	}
	return m, nil
}

// updateInputs forwards non-key messages, such as cursor blinks, to whichever
// input is focused.
func (m Model) updateInputs(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.screen {
	case screenLogin, screenSignup:
		if m.authFocus == 0 {
			m.email, cmd = m.email.Update(msg)
		} else {
			m.password, cmd = m.password.Update(msg)
		}
	case screenHome:
		switch m.focus {
		case focusName:
			m.name, cmd = m.name.Update(msg)
		case focusTitle:
			m.title, cmd = m.title.Update(msg)
		case focusContent:
			m.content, cmd = m.content.Update(msg)
		}
	}
	return m, cmd
}

func (m Model) View() string {
	var body string
	switch m.screen {
	case screenLogin, screenSignup:
		body = m.authView()
	case screenHome:
		if m.view == nil {
			return ""
		}
		body = m.homeView()
	default:
		body = mutedStyle.Render("Loading…")
	}
	if m.alert != "" {
		body += "\n\n" + alertStyle.Render(m.alert+"\n\n"+helpStyle.Render("enter ok"))
	}
	return panelStyle.Render(body)
}
