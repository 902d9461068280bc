package tui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/shopspring/decimal"

	"github.com/naveenspark/w7admin/internal/guard"
	"github.com/naveenspark/w7admin/pkg/client"
	"github.com/naveenspark/w7admin/pkg/domain"
)

type tasksLoadedMsg struct {
	gen   int
	tasks []domain.Task
	err   error
}

func (m tasksLoadedMsg) apiErr() error       { return m.err }
func (m tasksLoadedMsg) target() guard.Route { return guard.Tasks }

// Task form field order.
const (
	taskFieldTitle = iota
	taskFieldType
	taskFieldReward
	taskFieldLimit
	taskFieldStatus
	taskFieldDescription
)

type tasksModel struct {
	client *client.Client
	list   remote[[]domain.Task]
	cursor int
	in     interaction
}

func newTasksModel(c *client.Client) tasksModel {
	return tasksModel{client: c}
}

func (m tasksModel) activate() (tasksModel, tea.Cmd) {
	m.in.reset()
	return m.fetch()
}

func (m tasksModel) fetch() (tasksModel, tea.Cmd) {
	m.list = m.list.start()
	c, gen := m.client, m.in.gen
	return m, func() tea.Msg {
		tasks, err := c.ListTasks(context.Background())
		return tasksLoadedMsg{gen: gen, tasks: tasks, err: err}
	}
}

func (m tasksModel) tasks() []domain.Task {
	tasks, _ := m.list.value()
	return tasks
}

func (m tasksModel) selected() (domain.Task, bool) {
	tasks := m.tasks()
	if m.cursor < 0 || m.cursor >= len(tasks) {
		return domain.Task{}, false
	}
	return tasks[m.cursor], true
}

func (m tasksModel) Update(msg tea.Msg) (tasksModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tasksLoadedMsg:
		if msg.gen != m.in.gen {
			return m, nil
		}
		if msg.err != nil {
			m.list = m.list.fail(client.Message(msg.err, "Failed to load tasks"))
			return m, nil
		}
		m.list = m.list.succeed(msg.tasks)
		if m.cursor >= len(msg.tasks) {
			m.cursor = max(len(msg.tasks)-1, 0)
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

func taskForm(title string, t domain.Task) form {
	reward := ""
	if !t.IsNew() || !t.RewardAmount.IsZero() {
		reward = t.RewardAmount.String()
	}
	limit := ""
	if !t.IsNew() || t.DailyLimit > 0 {
		limit = fmt.Sprint(t.DailyLimit)
	}
	status := t.Status
	if status == "" {
		status = domain.TaskStatusActive
	}
	return newForm(title,
		field{label: "title", value: t.Title},
		field{label: "type", value: t.TaskType},
		field{label: "reward", value: reward},
		field{label: "daily limit", value: limit},
		field{label: "status", value: status, choices: domain.TaskStatuses},
		field{label: "description", value: t.Description},
	)
}

func (m tasksModel) handleKey(msg tea.KeyMsg) (tasksModel, tea.Cmd) {
	switch m.in.handleKey(msg) {
	case promptAccepted:
		return m.accept()
	case promptPending, promptCancelled:
		return m, nil
	}

	m.in.status = ""
	switch msg.String() {
	case "j", "down":
		if m.cursor < len(m.tasks())-1 {
			m.cursor++
		}
	case "k", "up":
		if m.cursor > 0 {
			m.cursor--
		}
	case "r":
		return m.fetch()
	case "n":
		m.in.prompt(actTaskSave, 0, taskForm("new task", domain.Task{}))
	case "e":
		if t, ok := m.selected(); ok {
			m.in.prompt(actTaskSave, t.ID, taskForm("edit task #"+fmt.Sprint(t.ID), t))
		}
	case "d":
		if t, ok := m.selected(); ok {
			m.in.confirm(actTaskDelete, t.ID, fmt.Sprintf("delete task %q?", t.Title))
		}
	}
	return m, nil
}

// taskFromForm validates the form locally before anything is sent.
func taskFromForm(f form, id int64) (domain.Task, error) {
	t := domain.Task{
		ID:          id,
		Title:       f.value(taskFieldTitle),
		TaskType:    strings.ToUpper(f.value(taskFieldType)),
		Status:      f.value(taskFieldStatus),
		Description: f.value(taskFieldDescription),
	}
	if t.Title == "" || t.TaskType == "" {
		return t, fmt.Errorf("title and type are required")
	}
	reward, err := decimal.NewFromString(f.value(taskFieldReward))
	if err != nil || reward.IsNegative() {
		return t, fmt.Errorf("reward must be a non-negative amount")
	}
	t.RewardAmount = reward
	limit, err := parseCount(f.value(taskFieldLimit))
	if err != nil || limit == 0 {
		return t, fmt.Errorf("daily limit must be a positive whole number")
	}
	t.DailyLimit = limit
	return t, nil
}

func (m tasksModel) accept() (tasksModel, tea.Cmd) {
	c, id := m.client, m.in.target
	switch m.in.action {
	case actTaskSave:
		task, err := taskFromForm(m.in.form, id)
		if err != nil {
			m.in.dialog = err.Error()
			return m, nil
		}
		success := "Task created"
		if !task.IsNew() {
			success = "Task updated"
		}
		return m, m.in.run(guard.Tasks, actTaskSave, "saving task", success, "Failed to save task",
			func(ctx context.Context) error {
				_, err := c.SaveTask(ctx, task)
				return err
			})

	case actTaskDelete:
		return m, m.in.run(guard.Tasks, actTaskDelete, "deleting task", "Task deleted", "Failed to delete task",
			func(ctx context.Context) error { return c.DeleteTask(ctx, id) })
	}
	return m, nil
}

func (m tasksModel) helpKeys() string {
	if m.in.capturing() {
		return m.in.helpKeys()
	}
	return helpLine("j/k", "nav", "n", "new", "e", "edit", "d", "delete", "r", "reload")
}

func (m tasksModel) View() string {
	var sb strings.Builder
	tasks := m.tasks()
	sb.WriteString("\n " + sectionHeaderStyle.Render(fmt.Sprintf("── TASKS %d ──", len(tasks))) + "\n")

	if msg, failed := m.list.failure(); failed {
		sb.WriteString(failureBanner(msg))
	}
	switch {
	case len(tasks) == 0 && m.list.loading():
		sb.WriteString("   " + dimStyle.Render("loading…") + "\n")
	case len(tasks) == 0 && m.list.has:
		sb.WriteString("   " + dimStyle.Render("no tasks yet · press n to add one") + "\n")
	}

	for i, t := range tasks {
		cursor := "  "
		title := normalStyle.Render(padRight(t.Title, 28))
		if i == m.cursor {
			cursor = accentStyle.Render("▸") + " "
			title = selectedStyle.Render(padRight(t.Title, 28))
		}
		fmt.Fprintf(&sb, " %s%s %s  %s  %s  %s\n",
			cursor,
			title,
			dimStyle.Render(padRight(t.TaskType, 10)),
			goldStyle.Render(padRight(money(t.RewardAmount), 10)),
			metaStyle.Render(fmt.Sprintf("%d/day", t.DailyLimit)),
			StatusBadge(t.Status),
		)
		if i == m.cursor && t.Description != "" && !m.in.form.open {
			sb.WriteString("     " + dimStyle.Render(truncStr(t.Description, 70)) + "\n")
		}
	}

	sb.WriteString(m.in.view())
	return sb.String()
}
