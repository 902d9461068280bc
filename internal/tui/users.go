package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/naveenspark/w7admin/internal/guard"
	"github.com/naveenspark/w7admin/pkg/client"
	"github.com/naveenspark/w7admin/pkg/domain"
)

type usersLoadedMsg struct {
	gen  int
	page *domain.UserPage
	err  error
}

func (m usersLoadedMsg) apiErr() error       { return m.err }
func (m usersLoadedMsg) target() guard.Route { return guard.Users }

// writeClipboard is swapped out in tests.
var writeClipboard = clipboard.WriteAll

type usersModel struct {
	client   *client.Client
	list     remote[*domain.UserPage]
	page     int
	pageSize int
	query    string // active mobile search; empty lists all users
	cursor   int
	in       interaction
	height   int // body rows; 0 until the first window size arrives
}

// usersChrome is the body space taken by everything but the rows: title,
// banner, ban reason, prompt form and the scroll hint.
const usersChrome = 9

func newUsersModel(c *client.Client, pageSize int) usersModel {
	if pageSize <= 0 {
		pageSize = 20
	}
	return usersModel{client: c, pageSize: pageSize}
}

func (m usersModel) activate() (usersModel, tea.Cmd) {
	m.in.reset()
	return m.fetch()
}

func (m usersModel) fetch() (usersModel, tea.Cmd) {
	m.list = m.list.start()
	c, gen, page, size, query := m.client, m.in.gen, m.page, m.pageSize, m.query
	return m, func() tea.Msg {
		if query != "" {
			users, err := c.SearchUsers(context.Background(), query)
			if err != nil {
				return usersLoadedMsg{gen: gen, err: err}
			}
			return usersLoadedMsg{gen: gen, page: &domain.UserPage{
				Users:         users,
				TotalElements: int64(len(users)),
				TotalPages:    1,
				Size:          len(users),
			}}
		}
		p, err := c.ListUsers(context.Background(), page, size)
		return usersLoadedMsg{gen: gen, page: p, err: err}
	}
}

func (m usersModel) users() []domain.User {
	if p, ok := m.list.value(); ok && p != nil {
		return p.Users
	}
	return nil
}

func (m usersModel) selected() (domain.User, bool) {
	users := m.users()
	if m.cursor < 0 || m.cursor >= len(users) {
		return domain.User{}, false
	}
	return users[m.cursor], true
}

func (m usersModel) Update(msg tea.Msg) (usersModel, tea.Cmd) {
	switch msg := msg.(type) {
	case usersLoadedMsg:
		if msg.gen != m.in.gen {
			return m, nil
		}
		if msg.err != nil {
			m.list = m.list.fail(client.Message(msg.err, "Failed to load users"))
			return m, nil
		}
		m.list = m.list.succeed(msg.page)
		if m.cursor >= len(msg.page.Users) {
			m.cursor = max(len(msg.page.Users)-1, 0)
		}
		return m, nil

	case mutationDoneMsg:
		if m.in.finish(msg) {
			return m.fetch()
		}
		return m, nil

	case effectDoneMsg:
		if msg.err != nil {
			m.in.status = "copy failed: " + msg.err.Error()
		} else {
			m.in.status = msg.success
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m usersModel) handleKey(msg tea.KeyMsg) (usersModel, tea.Cmd) {
	switch m.in.handleKey(msg) {
	case promptAccepted:
		return m.accept()
	case promptPending, promptCancelled:
		return m, nil
	}

	m.in.status = ""
	switch msg.String() {
	case "j", "down":
		if m.cursor < len(m.users())-1 {
			m.cursor++
		}
	case "k", "up":
		if m.cursor > 0 {
			m.cursor--
		}
	case "]":
		if p, ok := m.list.value(); ok && p != nil && m.query == "" && p.HasNext() {
			m.page++
			m.cursor = 0
			return m.fetch()
		}
	case "[":
		if m.page > 0 && m.query == "" {
			m.page--
			m.cursor = 0
			return m.fetch()
		}
	case "r":
		return m.fetch()
	case "/":
		m.in.prompt(actSearch, 0, newForm("search by mobile", field{label: "mobile", value: m.query}))
	case "b":
		if u, ok := m.selected(); ok {
			if u.IsBanned {
				m.in.status = u.Mobile + " is already banned"
				return m, nil
			}
			m.in.prompt(actBan, u.ID, newForm("ban "+u.Mobile, field{label: "reason"}))
		}
	case "u":
		if u, ok := m.selected(); ok {
			if !u.IsBanned {
				m.in.status = u.Mobile + " is not banned"
				return m, nil
			}
			m.in.confirm(actUnban, u.ID, "unban "+u.Mobile+"?")
		}
	case "a":
		if u, ok := m.selected(); ok {
			m.in.prompt(actAdjust, u.ID, newForm("adjust balance of "+u.Mobile,
				field{label: "amount"},
				field{label: "reason"},
			))
		}
	case "c":
		if u, ok := m.selected(); ok {
			mobile := u.Mobile
			return m, func() tea.Msg {
				err := writeClipboard(mobile)
				return effectDoneMsg{route: guard.Users, success: "copied " + mobile, err: err}
			}
		}
	}
	return m, nil
}

// accept runs the call behind a submitted prompt or confirmed question.
func (m usersModel) accept() (usersModel, tea.Cmd) {
	c, id := m.client, m.in.target
	switch m.in.action {
	case actSearch:
		m.query = m.in.form.value(0)
		m.page = 0
		m.cursor = 0
		return m.fetch()

	case actBan:
		reason := m.in.form.value(0)
		if reason == "" {
			m.in.status = "ban cancelled: a reason is required"
			return m, nil
		}
		return m, m.in.run(guard.Users, actBan, "banning", "User banned", "Failed to ban user",
			func(ctx context.Context) error { return c.BanUser(ctx, id, reason) })

	case actUnban:
		return m, m.in.run(guard.Users, actUnban, "unbanning", "User unbanned", "Failed to unban user",
			func(ctx context.Context) error { return c.UnbanUser(ctx, id) })

	case actAdjust:
		raw, reason := m.in.form.value(0), m.in.form.value(1)
		if raw == "" || reason == "" {
			m.in.status = "adjustment cancelled: amount and reason are required"
			return m, nil
		}
		amount, err := parseAmount(raw)
		if err != nil {
			m.in.dialog = err.Error()
			return m, nil
		}
		return m, m.in.run(guard.Users, actAdjust, "adjusting balance",
			fmt.Sprintf("Balance adjusted by %s", money(amount)), "Failed to adjust balance",
			func(ctx context.Context) error { return c.AdjustBalance(ctx, id, amount, reason) })
	}
	return m, nil
}

func (m usersModel) helpKeys() string {
	if m.in.capturing() {
		return m.in.helpKeys()
	}
	return helpLine("j/k", "nav", "[/]", "page", "/", "search", "b", "ban", "u", "unban", "a", "adjust", "c", "copy", "r", "reload")
}

func (m usersModel) View() string {
	var sb strings.Builder

	title := "── USERS ──"
	if p, ok := m.list.value(); ok && p != nil {
		if m.query != "" {
			title = fmt.Sprintf("── USERS matching %q · %d ──", m.query, len(p.Users))
		} else {
			title = fmt.Sprintf("── USERS page %d/%d · %d total ──", p.Number+1, max(p.TotalPages, 1), p.TotalElements)
		}
	}
	sb.WriteString("\n " + sectionHeaderStyle.Render(title) + "\n")

	if msg, failed := m.list.failure(); failed {
		sb.WriteString(failureBanner(msg))
	}

	users := m.users()
	switch {
	case len(users) == 0 && m.list.loading():
		sb.WriteString("   " + dimStyle.Render("loading…") + "\n")
	case len(users) == 0 && m.list.has:
		sb.WriteString("   " + dimStyle.Render("no users found") + "\n")
	}

	start, end := m.visibleRange(len(users))
	if start > 0 {
		sb.WriteString("   " + dimStyle.Render(fmt.Sprintf("↑ %d more", start)) + "\n")
	}
	for i := start; i < end; i++ {
		u := users[i]
		cursor := "  "
		name := normalStyle.Render(padRight(u.Mobile, 14))
		if i == m.cursor {
			cursor = accentStyle.Render("▸") + " "
			name = selectedStyle.Render(padRight(u.Mobile, 14))
		}
		badge := StatusBadge(u.Status)
		if u.IsBanned {
			badge = StatusBadge("BANNED")
		}
		line := fmt.Sprintf(" %s%s %s  %s  %s",
			cursor,
			metaStyle.Render(fmt.Sprintf("#%-6d", u.ID)),
			name,
			dimStyle.Render(fmt.Sprintf("%d device(s)", u.Devices())),
			metaStyle.Render(formatTime(u.CreatedAt)),
		)
		sb.WriteString(line + "  " + badge + "\n")
		if i == m.cursor && u.IsBanned && u.BanReason != "" {
			sb.WriteString("     " + dimStyle.Render("reason: "+u.BanReason) + "\n")
		}
	}

	if end < len(users) {
		sb.WriteString("   " + dimStyle.Render(fmt.Sprintf("↓ %d more", len(users)-end)) + "\n")
	}

	sb.WriteString(m.in.view())
	return sb.String()
}

// visibleRange returns the window of rows that fits the body and keeps the
// cursor on screen.
func (m usersModel) visibleRange(n int) (start, end int) {
	if m.height <= 0 {
		return 0, n
	}
	maxVisible := max(m.height-usersChrome, 3)
	if m.cursor >= maxVisible {
		start = m.cursor - maxVisible + 1
	}
	return start, min(start+maxVisible, n)
}
