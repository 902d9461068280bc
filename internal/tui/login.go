package tui

import (
	"context"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/naveenspark/w7admin/pkg/client"
	"github.com/naveenspark/w7admin/pkg/domain"
)

// loginDoneMsg carries the outcome of POST /admin/login. It is deliberately
// not an apiResult: a 401 here means bad credentials, not an expired session.
type loginDoneMsg struct {
	resp *domain.LoginResponse
	err  error
}

type loginModel struct {
	client     *client.Client
	username   string
	password   string
	focus      int // 0=username, 1=password
	submitting bool
	err        string
	notice     string // set by the app, e.g. after a session expired
}

func newLoginModel(c *client.Client) loginModel {
	return loginModel{client: c}
}

// activate clears everything but the username, which is kept for a retry.
func (m loginModel) activate(notice string) loginModel {
	m.password = ""
	m.submitting = false
	m.err = ""
	m.notice = notice
	if m.username == "" {
		m.focus = 0
	} else {
		m.focus = 1
	}
	return m
}

func (m loginModel) submit() (loginModel, tea.Cmd) {
	username := strings.TrimSpace(m.username)
	if username == "" || m.password == "" {
		m.err = "Username and password are required"
		return m, nil
	}
	if m.submitting {
		return m, nil
	}
	m.submitting = true
	m.err = ""
	m.notice = ""
	c, password := m.client, m.password
	return m, func() tea.Msg {
		resp, err := c.Login(context.Background(), username, password)
		return loginDoneMsg{resp: resp, err: err}
	}
}

func (m loginModel) Update(msg tea.Msg) (loginModel, tea.Cmd) {
	switch msg := msg.(type) {
	case loginDoneMsg:
		m.submitting = false
		if msg.err != nil {
			m.err = client.Message(msg.err, "Login failed")
			m.password = ""
			m.focus = 1
		}
		return m, nil

	case tea.KeyMsg:
		if m.submitting {
			return m, nil
		}
		switch msg.String() {
		case "tab", "down", "shift+tab", "up":
			m.focus = 1 - m.focus
		case "enter":
			if m.focus == 0 {
				m.focus = 1
				return m, nil
			}
			return m.submit()
		case "esc":
			m.err = ""
		default:
			if m.focus == 0 {
				m.username = editKey(m.username, msg)
			} else {
				m.password = editKey(m.password, msg)
			}
		}
	}
	return m, nil
}

func (m loginModel) View() string {
	var sb strings.Builder
	sb.WriteString("\n " + selectedStyle.Render("Admin sign in") + "\n")
	sb.WriteString(" " + dimStyle.Render("WIN777 operations console") + "\n\n")

	if m.notice != "" {
		sb.WriteString(" " + warnStyle.Render(m.notice) + "\n\n")
	}

	user := m.username
	pass := strings.Repeat("•", len([]rune(m.password)))
	userLabel := inputPromptStyle.Render("username:")
	passLabel := inputPromptStyle.Render("password:")
	if m.focus == 0 {
		if user == "" {
			user = inputPlaceholderStyle.Render("admin username")
		}
		sb.WriteString("   " + accentStyle.Render(">") + " " + userLabel + " " + user + accentStyle.Render("_") + "\n")
		sb.WriteString("     " + passLabel + " " + dimStyle.Render(pass) + "\n")
	} else {
		sb.WriteString("     " + userLabel + " " + dimStyle.Render(user) + "\n")
		sb.WriteString("   " + accentStyle.Render(">") + " " + passLabel + " " + pass + accentStyle.Render("_") + "\n")
	}

	sb.WriteString("\n")
	switch {
	case m.submitting:
		sb.WriteString(" " + dimStyle.Render("Signing in…") + "\n")
	case m.err != "":
		sb.WriteString(" " + errorStyle.Render(m.err) + "\n")
	}
	return sb.String()
}
