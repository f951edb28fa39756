package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

// showAuth switches to the login or sign-up screen. The email survives the
// switch; the password never does.
func (m *Model) showAuth(s screen) tea.Cmd {
	m.screen = s
	m.busy = false
	m.password.SetValue("")
	m.password.Blur()
	m.authFocus = 0
	return m.email.Focus()
}

func (m *Model) focusAuthField(i int) tea.Cmd {
	m.authFocus = i
	if i == 0 {
		m.password.Blur()
		return m.email.Focus()
	}
	m.email.Blur()
	return m.password.Focus()
}

func (m Model) updateAuth(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, abortKey):
		return m, tea.Quit
	case m.busy:
		return m, nil
	case m.screen == screenLogin && key.Matches(msg, signupKey):
		return m, m.showAuth(screenSignup)
	case m.screen == screenSignup && key.Matches(msg, loginKey):
		return m, m.showAuth(screenLogin)
	case key.Matches(msg, nextKey):
		return m, m.focusAuthField(1 - m.authFocus)
	case key.Matches(msg, submitKey):
		return m.submitAuth()
	}

	var cmd tea.Cmd
	if m.authFocus == 0 {
		m.email, cmd = m.email.Update(msg)
	} else {
		m.password, cmd = m.password.Update(msg)
	}
	return m, cmd
}

func (m Model) submitAuth() (tea.Model, tea.Cmd) {
	email := strings.TrimSpace(m.email.Value())
	password := m.password.Value()
	if email == "" || password == "" {
		m.alert = "Email and password are required."
		return m, nil
	}

	m.busy = true
	ctx, p := m.ctx, m.platform
	if m.screen == screenLogin {
		return m, func() tea.Msg {
			_, err := p.SignIn(ctx, email, password)
			return signedInMsg{err: err}
		}
	}
	return m, func() tea.Msg {
		_, err := p.SignUp(ctx, email, password)
		return signedUpMsg{email: email, err: err}
	}
}

func (m Model) signedIn(msg signedInMsg) (tea.Model, tea.Cmd) {
	m.busy = false
	if msg.err != nil {
		m.logger.Info("sign in failed", "error", msg.err)
		m.alert = msg.err.Error()
		return m, nil
	}
	m.password.SetValue("")
	m.email.Blur()
	m.password.Blur()
	return m, m.startHome()
}

func (m Model) signedUp(msg signedUpMsg) (tea.Model, tea.Cmd) {
	m.busy = false
	if msg.err != nil {
		m.logger.Info("sign up failed", "error", msg.err)
		m.alert = msg.err.Error()
		return m, nil
	}
	m.email.SetValue(msg.email)
	m.alert = "Account created. Log in to continue."
	return m, m.showAuth(screenLogin)
}

func (m Model) authView() string {
	var b strings.Builder
	heading, action, footer := "Login", "Login", helpLine(submitKey, nextKey, signupKey, abortKey)
	if m.screen == screenSignup {
		heading, action, footer = "Sign Up", "Sign Up", helpLine(submitKey, nextKey, loginKey, abortKey)
		m.password.Placeholder = "Password (min 6 chars)"
	}
	if m.busy {
		action = mutedStyle.Render("Please wait…")
		if m.screen == screenSignup {
			action = mutedStyle.Render("Signing up…")
		}
	}

	b.WriteString(titleStyle.Render(heading) + "\n\n")
	b.WriteString(m.email.View() + "\n")
	b.WriteString(m.password.View() + "\n\n")
	b.WriteString("[ " + action + " ]\n\n")
	if m.screen == screenLogin {
		b.WriteString(mutedStyle.Render("Don't have an account? ctrl+n to sign up") + "\n")
	} else {
		b.WriteString(mutedStyle.Render("Already have an account? esc to log in") + "\n")
	}
	b.WriteString(footer)
	return b.String()
}
