package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/naveenspark/w7admin/internal/guard"
	"github.com/naveenspark/w7admin/internal/session"
	"github.com/naveenspark/w7admin/pkg/client"
)

// Notices shown on the login screen.
const (
	noticeExpired   = "Your session has expired. Please sign in again."
	noticeSignedOut = "Signed out."
)

// Options wires an App to its collaborators.
type Options struct {
	Client   *client.Client
	Sessions *session.Store
	Logger   *zap.Logger
	Version  string
	PageSize int
	Start    guard.Route
}

// App is the root Bubbletea model: it owns routing and the session, and
// delegates everything else to the active view.
type App struct {
	client   *client.Client
	sessions *session.Store
	guard    *guard.Guard
	log      *zap.Logger
	version  string
	route    guard.Route
	initCmd  tea.Cmd

	login       loginModel
	dashboard   dashboardModel
	users       usersModel
	tasks       tasksModel
	withdrawals withdrawalsModel
	config      configModel

	routeOpen  bool // ':' prompt
	routeInput string

	width  int
	height int
	frame  int // logo shimmer animation frame
}

// NewApp creates the TUI and resolves the first screen.
func NewApp(o Options) App {
	log := o.Logger
	if log == nil {
		log = zap.NewNop()
	}
	start := o.Start
	if start == "" {
		start = guard.Root
	}
	a := App{
		client:      o.Client,
		sessions:    o.Sessions,
		guard:       guard.New(o.Sessions),
		log:         log,
		version:     o.Version,
		login:       newLoginModel(o.Client),
		dashboard:   newDashboardModel(o.Client),
		users:       newUsersModel(o.Client, o.PageSize),
		tasks:       newTasksModel(o.Client),
		withdrawals: newWithdrawalsModel(o.Client),
		config:      newConfigModel(o.Client),
	}
	var cmd tea.Cmd
	a, cmd = a.navigate(start, "")
	a.initCmd = cmd
	return a
}

func (a App) Init() tea.Cmd {
	return tea.Batch(a.initCmd, shimmerTickCmd())
}

// Route returns the screen currently shown.
func (a App) Route() guard.Route {
	return a.route
}

// navigate resolves target through the guard and activates the landing view.
func (a App) navigate(target guard.Route, notice string) (App, tea.Cmd) {
	d := a.guard.Resolve(target)
	if d.Redirected {
		a.log.Debug("navigation redirected", zap.String("target", string(target)), zap.String("route", string(d.Route)))
	}
	a.route = d.Route
	a.routeOpen = false

	var cmd tea.Cmd
	switch d.Route {
	case guard.Login:
		a.login = a.login.activate(notice)
	case guard.Dashboard:
		sess, _ := a.sessions.Current()
		a.dashboard, cmd = a.dashboard.activate(sess)
	case guard.Users:
		a.users, cmd = a.users.activate()
	case guard.Tasks:
		a.tasks, cmd = a.tasks.activate()
	case guard.Withdrawals:
		a.withdrawals, cmd = a.withdrawals.activate()
	case guard.Configuration:
		a.config, cmd = a.config.activate()
	}
	return a, cmd
}

// endSession clears the session and lands on login with notice.
func (a App) endSession(notice string) (App, tea.Cmd) {
	if err := a.sessions.Clear(); err != nil {
		a.log.Error("clear session", zap.Error(err))
	}
	return a.navigate(guard.Login, notice)
}

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		// Chrome: header(1) + tabs(1) + prompt(1) + help(1) = 4 lines
		bodyMsg := tea.WindowSizeMsg{Width: msg.Width, Height: msg.Height - 4}
		a.users, _ = a.users.Update(bodyMsg)
		return a, nil

	case shimmerTickMsg:
		a.frame++
		return a, shimmerTickCmd()

	case loginDoneMsg:
		if msg.err == nil && msg.resp != nil {
			if err := a.sessions.Establish(msg.resp.Token, msg.resp.Admin()); err != nil {
				a.log.Error("establish session", zap.Error(err))
				a.login, _ = a.login.Update(loginDoneMsg{err: err})
				return a, nil
			}
			return a.navigate(guard.Dashboard, "")
		}
		var cmd tea.Cmd
		a.login, cmd = a.login.Update(msg)
		return a, cmd

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return a, tea.Quit
		}
		if a.routeOpen {
			return a.handleRoutePrompt(msg)
		}
		if !a.capturing() {
			switch key := msg.String(); key {
			case "q":
				return a, tea.Quit
			case "1", "2", "3", "4", "5":
				target := guard.Protected[key[0]-'1']
				if target == a.route {
					return a, nil
				}
				return a.navigate(target, "")
			case "L":
				return a.endSession(noticeSignedOut)
			case ":":
				a.routeOpen = true
				a.routeInput = ""
				return a, nil
			}
		}
	}

	if r, ok := msg.(routed); ok && r.target() != a.route {
		return a, nil
	}
	if r, ok := msg.(apiResult); ok && client.IsStatus(r.apiErr(), 401) && a.sessions.Active() {
		a.log.Warn("session rejected by backend", zap.String("route", string(a.route)))
		return a.endSession(noticeExpired)
	}

	var cmd tea.Cmd
	switch a.route {
	case guard.Login:
		a.login, cmd = a.login.Update(msg)
	case guard.Dashboard:
		a.dashboard, cmd = a.dashboard.Update(msg)
	case guard.Users:
		a.users, cmd = a.users.Update(msg)
	case guard.Tasks:
		a.tasks, cmd = a.tasks.Update(msg)
	case guard.Withdrawals:
		a.withdrawals, cmd = a.withdrawals.Update(msg)
	case guard.Configuration:
		a.config, cmd = a.config.Update(msg)
	}
	return a, cmd
}

func (a App) handleRoutePrompt(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		a.routeOpen = false
	case "enter":
		a.routeOpen = false
		return a.navigate(guard.ParseRoute(a.routeInput), "")
	default:
		a.routeInput = editKey(a.routeInput, msg)
	}
	return a, nil
}

// capturing reports whether the active view wants every key, e.g. while a
// prompt is open.
func (a App) capturing() bool {
	switch a.route {
	case guard.Login:
		return true
	case guard.Users:
		return a.users.in.capturing()
	case guard.Tasks:
		return a.tasks.in.capturing()
	case guard.Withdrawals:
		return a.withdrawals.in.capturing()
	case guard.Configuration:
		return a.config.in.capturing()
	}
	return false
}

func (a App) View() string {
	// Header: wordmark left, signed-in admin right
	header := " " + renderShimmerLogo("W7ADMIN", a.frame)
	if sess, ok := a.sessions.Current(); ok {
		who := dimStyle.Render(sess.Admin.Username)
		if a.version != "" {
			who += " " + metaStyle.Render(a.version)
		}
		gap := a.width - lipgloss.Width(header) - lipgloss.Width(who) - 1
		header += strings.Repeat(" ", max(gap, 2)) + who
	}

	// Tab bar: 1 Dashboard  2 Users  3 Tasks  4 Withdrawals  5 Configuration
	var tabBar strings.Builder
	if a.route != guard.Login {
		for i, r := range guard.Protected {
			key := fmt.Sprintf("%d", i+1)
			var label string
			if r == a.route {
				label = accentStyle.Render(key) + " " + selectedStyle.Underline(true).Render(r.Title())
			} else {
				label = metaStyle.Render(key) + " " + dimStyle.Render(r.Title())
			}
			tabBar.WriteString(" " + label + " ")
		}
	}

	var body, help string
	global := helpLine("1-5", "tabs", ":", "go", "L", "logout", "q", "quit")
	switch a.route {
	case guard.Login:
		body = a.login.View()
		help = helpLine("tab", "next", "enter", "sign in", "ctrl+c", "quit")
	case guard.Dashboard:
		body = a.dashboard.View()
		help = helpLine("r", "refresh") + " " + global
	case guard.Users:
		body = a.users.View()
		help = a.users.helpKeys()
	case guard.Tasks:
		body = a.tasks.View()
		help = a.tasks.helpKeys()
	case guard.Withdrawals:
		body = a.withdrawals.View()
		help = a.withdrawals.helpKeys()
	case guard.Configuration:
		body = a.config.View()
		help = a.config.helpKeys()
	}
	if !a.capturing() && a.route != guard.Dashboard {
		help += " " + global
	}

	var promptLine string
	if a.routeOpen {
		promptLine = " " + inputPromptStyle.Render(":") + a.routeInput + accentStyle.Render("_")
		help = helpLine("enter", "go", "esc", "cancel")
	}

	chrome := 4
	body = strings.TrimRight(truncateToHeight(body, a.height-chrome), "\n")

	return fmt.Sprintf("%s\n%s\n%s\n%s\n%s", header, tabBar.String(), body, promptLine, help)
}
