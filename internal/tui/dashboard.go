package tui

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/naveenspark/w7admin/internal/guard"
	"github.com/naveenspark/w7admin/internal/session"
	"github.com/naveenspark/w7admin/pkg/client"
	"github.com/naveenspark/w7admin/pkg/domain"
)

type healthLoadedMsg struct {
	gen    int
	health *domain.Health
	err    error
}

func (m healthLoadedMsg) apiErr() error       { return m.err }
func (m healthLoadedMsg) target() guard.Route { return guard.Dashboard }

type snapshotLoadedMsg struct {
	gen  int
	snap domain.MetricsSnapshot
	err  error
}

func (m snapshotLoadedMsg) apiErr() error       { return m.err }
func (m snapshotLoadedMsg) target() guard.Route { return guard.Dashboard }

type dashboardModel struct {
	client  *client.Client
	session domain.Session
	claims  session.Claims
	jwt     bool
	health  remote[*domain.Health]
	metrics remote[domain.MetricsSnapshot]
	gen     int
	baseURL string
	now     func() time.Time
}

func newDashboardModel(c *client.Client) dashboardModel {
	m := dashboardModel{client: c, now: time.Now}
	if c != nil {
		m.baseURL = c.BaseURL()
	}
	return m
}

func (m dashboardModel) activate(sess domain.Session) (dashboardModel, tea.Cmd) {
	m.session = sess
	m.claims, m.jwt = session.ParseClaims(sess.Token)
	m.gen++
	return m.refresh()
}

func (m dashboardModel) refresh() (dashboardModel, tea.Cmd) {
	m.health = m.health.start()
	m.metrics = m.metrics.start()
	c, gen := m.client, m.gen
	return m, tea.Batch(
		func() tea.Msg {
			h, err := c.Health(context.Background())
			return healthLoadedMsg{gen: gen, health: h, err: err}
		},
		func() tea.Msg {
			snap, err := c.MetricsSnapshot(context.Background())
			return snapshotLoadedMsg{gen: gen, snap: snap, err: err}
		},
	)
}

func (m dashboardModel) Update(msg tea.Msg) (dashboardModel, tea.Cmd) {
	switch msg := msg.(type) {
	case healthLoadedMsg:
		if msg.gen != m.gen {
			return m, nil
		}
		if msg.err != nil {
			m.health = m.health.fail(client.Message(msg.err, "Backend health unavailable"))
		} else {
			m.health = m.health.succeed(msg.health)
		}
	case snapshotLoadedMsg:
		if msg.gen != m.gen {
			return m, nil
		}
		if msg.err != nil {
			m.metrics = m.metrics.fail(client.Message(msg.err, "Failed to load metrics"))
		} else {
			m.metrics = m.metrics.succeed(msg.snap)
		}
	case tea.KeyMsg:
		if msg.String() == "r" {
			return m.refresh()
		}
	}
	return m, nil
}

func (m dashboardModel) View() string {
	var sb strings.Builder

	// -- identity --
	a := m.session.Admin
	sb.WriteString("\n " + selectedStyle.Render(a.Username))
	if a.Role != "" {
		sb.WriteString("  " + goldStyle.Render(a.Role))
	}
	sb.WriteString("\n")
	if a.Email != "" {
		sb.WriteString("   " + dimStyle.Render(a.Email) + "\n")
	}
	if m.jwt && !m.claims.ExpiresAt.IsZero() {
		left := m.claims.ExpiresAt.Sub(m.now()).Round(time.Minute)
		if m.claims.Expired(m.now()) {
			sb.WriteString("   " + warnStyle.Render("token expired "+m.claims.ExpiresAt.Format(time.RFC822)) + "\n")
		} else {
			sb.WriteString("   " + metaStyle.Render(fmt.Sprintf("token expires in %s", left)) + "\n")
		}
	}

	// -- backend --
	sb.WriteString("\n " + sectionHeaderStyle.Render("── BACKEND ──") + "\n")
	if m.baseURL != "" {
		sb.WriteString("   " + metaStyle.Render(m.baseURL) + "\n")
	}
	if msg, failed := m.health.failure(); failed {
		sb.WriteString(failureBanner(msg))
	}
	if h, ok := m.health.value(); ok && h != nil {
		status := h.Status
		if status == "" {
			status = "UNKNOWN"
		}
		sb.WriteString("   " + StatusBadge(status) + " " + normalStyle.Render(h.Service) + " " + metaStyle.Render(h.Version) + "\n")
		if !h.Up() {
			sb.WriteString("   " + warnStyle.Render("backend is not reporting UP; actions may fail") + "\n")
		}
	} else if m.health.loading() {
		sb.WriteString("   " + dimStyle.Render("checking…") + "\n")
	}

	// -- metrics --
	sb.WriteString("\n " + sectionHeaderStyle.Render("── METRICS ──") + "\n")
	if msg, failed := m.metrics.failure(); failed {
		sb.WriteString(failureBanner(msg))
	}
	snap, ok := m.metrics.value()
	switch {
	case ok && len(snap) == 0:
		sb.WriteString("   " + dimStyle.Render("no metrics recorded yet") + "\n")
	case ok:
		names := make([]string, 0, len(snap))
		width := 0
		for name := range snap {
			names = append(names, name)
			width = max(width, len(name))
		}
		sort.Strings(names)
		for _, name := range names {
			sb.WriteString("   " + dimStyle.Render(padRight(name, width)) + "  " + normalStyle.Render(snap[name].String()) + "\n")
		}
	case m.metrics.loading():
		sb.WriteString("   " + dimStyle.Render("loading…") + "\n")
	}
	return sb.String()
}
