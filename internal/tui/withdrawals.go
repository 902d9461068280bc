package tui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/naveenspark/w7admin/internal/guard"
	"github.com/naveenspark/w7admin/pkg/client"
	"github.com/naveenspark/w7admin/pkg/domain"
)

type withdrawalsLoadedMsg struct {
	gen         int
	withdrawals []domain.Withdrawal
	err         error
}

func (m withdrawalsLoadedMsg) apiErr() error       { return m.err }
func (m withdrawalsLoadedMsg) target() guard.Route { return guard.Withdrawals }

type withdrawalsModel struct {
	client *client.Client
	list   remote[[]domain.Withdrawal]
	cursor int
	in     interaction
}

func newWithdrawalsModel(c *client.Client) withdrawalsModel {
	return withdrawalsModel{client: c}
}

func (m withdrawalsModel) activate() (withdrawalsModel, tea.Cmd) {
	m.in.reset()
	return m.fetch()
}

func (m withdrawalsModel) fetch() (withdrawalsModel, tea.Cmd) {
	m.list = m.list.start()
	c, gen := m.client, m.in.gen
	return m, func() tea.Msg {
		ws, err := c.ListPendingWithdrawals(context.Background())
		return withdrawalsLoadedMsg{gen: gen, withdrawals: ws, err: err}
	}
}

func (m withdrawalsModel) pending() []domain.Withdrawal {
	ws, _ := m.list.value()
	return ws
}

func (m withdrawalsModel) selected() (domain.Withdrawal, bool) {
	ws := m.pending()
	if m.cursor < 0 || m.cursor >= len(ws) {
		return domain.Withdrawal{}, false
	}
	return ws[m.cursor], true
}

func (m withdrawalsModel) Update(msg tea.Msg) (withdrawalsModel, tea.Cmd) {
	switch msg := msg.(type) {
	case withdrawalsLoadedMsg:
		if msg.gen != m.in.gen {
			return m, nil
		}
		if msg.err != nil {
			m.list = m.list.fail(client.Message(msg.err, "Failed to load withdrawals"))
			return m, nil
		}
		m.list = m.list.succeed(msg.withdrawals)
		if m.cursor >= len(msg.withdrawals) {
			m.cursor = max(len(msg.withdrawals)-1, 0)
		}
		return m, nil

	case mutationDoneMsg:
		if m.in.finish(msg) {
			return m.fetch()
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m withdrawalsModel) handleKey(msg tea.KeyMsg) (withdrawalsModel, tea.Cmd) {
	switch m.in.handleKey(msg) {
	case promptAccepted:
		return m.accept()
	case promptPending, promptCancelled:
		return m, nil
	}

	m.in.status = ""
	switch msg.String() {
	case "j", "down":
		if m.cursor < len(m.pending())-1 {
			m.cursor++
		}
	case "k", "up":
		if m.cursor > 0 {
			m.cursor--
		}
	case "r":
		return m.fetch()
	case "a":
		if w, ok := m.selected(); ok {
			m.in.confirm(actApprove, w.ID, fmt.Sprintf("approve %s for user #%d?", money(w.Amount), w.UserID))
		}
	case "x":
		if w, ok := m.selected(); ok {
			m.in.prompt(actReject, w.ID, newForm(fmt.Sprintf("reject withdrawal #%d", w.ID), field{label: "reason"}))
		}
	}
	return m, nil
}

func (m withdrawalsModel) accept() (withdrawalsModel, tea.Cmd) {
	c, id := m.client, m.in.target
	switch m.in.action {
	case actApprove:
		return m, m.in.run(guard.Withdrawals, actApprove, "approving", "Withdrawal approved", "Failed to approve withdrawal",
			func(ctx context.Context) error {
				_, err := c.ApproveWithdrawal(ctx, id)
				return err
			})

	case actReject:
		reason := m.in.form.value(0)
		if reason == "" {
			m.in.status = "rejection cancelled: a reason is required"
			return m, nil
		}
		return m, m.in.run(guard.Withdrawals, actReject, "rejecting", "Withdrawal rejected", "Failed to reject withdrawal",
			func(ctx context.Context) error {
				_, err := c.RejectWithdrawal(ctx, id, reason)
				return err
			})
	}
	return m, nil
}

func (m withdrawalsModel) helpKeys() string {
	if m.in.capturing() {
		return m.in.helpKeys()
	}
	return helpLine("j/k", "nav", "a", "approve", "x", "reject", "r", "reload")
}

func (m withdrawalsModel) View() string {
	var sb strings.Builder
	ws := m.pending()
	sb.WriteString("\n " + sectionHeaderStyle.Render(fmt.Sprintf("── PENDING WITHDRAWALS %d ──", len(ws))) + "\n")

	if msg, failed := m.list.failure(); failed {
		sb.WriteString(failureBanner(msg))
	}
	switch {
	case len(ws) == 0 && m.list.loading():
		sb.WriteString("   " + dimStyle.Render("loading…") + "\n")
	case len(ws) == 0 && m.list.has:
		sb.WriteString("   " + dimStyle.Render("nothing pending") + "\n")
	}

	for i, w := range ws {
		cursor := "  "
		amount := goldStyle.Render(padRight(money(w.Amount), 12))
		if i == m.cursor {
			cursor = accentStyle.Render("▸") + " "
			amount = selectedRowBg.Render(amount)
		}
		fmt.Fprintf(&sb, " %s%s %s  %s  %s  %s\n",
			cursor,
			metaStyle.Render(fmt.Sprintf("#%-6d", w.ID)),
			amount,
			normalStyle.Render(fmt.Sprintf("user #%d", w.UserID)),
			metaStyle.Render(formatTime(w.CreatedAt)),
			StatusBadge(w.Status),
		)
	}

	sb.WriteString(m.in.view())
	return sb.String()
}
