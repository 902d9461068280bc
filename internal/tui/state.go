package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/naveenspark/w7admin/internal/guard"
	"github.com/naveenspark/w7admin/pkg/client"
)

type loadState int

const (
	stateIdle loadState = iota
	stateLoading
	stateReady
	stateFailed
)

// remote is data fetched from the backend. The failure message only exists
// in the failed state, and data from an earlier success survives a later
// failure.
type remote[T any] struct {
	state loadState
	data  T
	has   bool
	err   string
}

func (r remote[T]) start() remote[T] {
	r.state = stateLoading
	r.err = ""
	return r
}

func (r remote[T]) succeed(v T) remote[T] {
	return remote[T]{state: stateReady, data: v, has: true}
}

func (r remote[T]) fail(msg string) remote[T] {
	r.state = stateFailed
	r.err = msg
	return r
}

func (r remote[T]) loading() bool { return r.state == stateLoading }

// failure returns the message of a failed fetch.
func (r remote[T]) failure() (string, bool) {
	return r.err, r.state == stateFailed
}

// value returns the last successfully fetched data.
func (r remote[T]) value() (T, bool) {
	return r.data, r.has
}

// apiResult is implemented by every message that carries the outcome of an
// authenticated backend call, so the app can spot an expired session.
type apiResult interface {
	apiErr() error
}

// routed messages belong to one view and are dropped when it is not active.
type routed interface {
	target() guard.Route
}

// mutationDoneMsg reports a write call started by a view.
type mutationDoneMsg struct {
	route    guard.Route
	gen      int
	action   action
	success  string
	fallback string
	err      error
}

func (m mutationDoneMsg) apiErr() error       { return m.err }
func (m mutationDoneMsg) target() guard.Route { return m.route }

// effectDoneMsg reports a local side effect such as a clipboard copy.
type effectDoneMsg struct {
	route   guard.Route
	success string
	err     error
}

func (m effectDoneMsg) target() guard.Route { return m.route }

// action names what an open prompt or in-flight mutation is for.
type action int

const (
	actNone action = iota
	actSearch
	actBan
	actUnban
	actAdjust
	actTaskSave
	actTaskDelete
	actApprove
	actReject
	actConfigEdit
	actConfigNew
	actMaintenance
	actTheme
	actBannerNew
	actBannerDelete
	actClearCache
)

// interaction is the prompt, confirmation, error dialog and in-flight state
// shared by every list view.
type interaction struct {
	form    form
	ask     string // open y/n question
	dialog  string // blocking error, dismissed with enter or esc
	action  action
	target  int64
	busy    bool
	status  string
	gen     int
	pending string // label of the call in flight
}

func (in interaction) capturing() bool {
	return in.form.open || in.ask != "" || in.dialog != ""
}

// reset drops prompts and in-flight bookkeeping on view activation.
func (in *interaction) reset() {
	in.form = form{}
	in.ask = ""
	in.dialog = ""
	in.action = actNone
	in.busy = false
	in.status = ""
	in.pending = ""
	in.gen++
}

func (in *interaction) prompt(act action, target int64, f form) {
	in.action = act
	in.target = target
	in.form = f
	in.status = ""
}

func (in *interaction) confirm(act action, target int64, question string) {
	in.action = act
	in.target = target
	in.ask = question
	in.status = ""
}

// promptOutcome is what a key did while a prompt was open.
type promptOutcome int

const (
	promptIgnored promptOutcome = iota // nothing open; the view handles the key
	promptPending
	promptCancelled
	promptAccepted
)

func (in *interaction) handleKey(msg tea.KeyMsg) promptOutcome {
	switch {
	case in.dialog != "":
		switch msg.String() {
		case "enter", "esc":
			in.dialog = ""
		}
		return promptPending
	case in.ask != "":
		switch msg.String() {
		case "y", "Y":
			in.ask = ""
			return promptAccepted
		case "n", "N", "esc":
			in.ask = ""
			in.status = "cancelled"
			return promptCancelled
		}
		return promptPending
	case in.form.open:
		switch in.form.handleKey(msg) {
		case formSubmitted:
			return promptAccepted
		case formCancelled:
			in.status = "cancelled"
			return promptCancelled
		}
		return promptPending
	}
	return promptIgnored
}

// run starts a mutation unless one is already in flight.
func (in *interaction) run(route guard.Route, act action, label, success, fallback string, call func(context.Context) error) tea.Cmd {
	if in.busy {
		in.status = "busy: " + in.pending + " still running"
		return nil
	}
	in.busy = true
	in.pending = label
	in.status = ""
	gen := in.gen
	return func() tea.Msg {
		err := call(context.Background())
		return mutationDoneMsg{route: route, gen: gen, action: act, success: success, fallback: fallback, err: err}
	}
}

// finish records a mutation result. It reports whether the view should
// refetch; stale results from an earlier activation are ignored.
func (in *interaction) finish(msg mutationDoneMsg) bool {
	if msg.gen != in.gen {
		return false
	}
	in.busy = false
	in.pending = ""
	if msg.err != nil {
		in.dialog = client.Message(msg.err, msg.fallback)
		return false
	}
	in.status = msg.success
	return true
}

// view renders the open prompt, question, dialog or status line.
func (in interaction) view() string {
	var sb string
	switch {
	case in.dialog != "":
		sb = "\n" + dialogStyle.Render(errorStyle.Render("Error")+"\n\n"+in.dialog+"\n\n"+dimStyle.Render("enter to dismiss")) + "\n"
	case in.ask != "":
		sb = "\n   " + warnStyle.Render(in.ask+" ") + accentStyle.Render("y") + dimStyle.Render("/") + dimStyle.Render("n") + "\n"
	case in.form.open:
		sb = in.form.view()
	}
	if in.busy {
		sb += "\n " + dimStyle.Render(in.pending+"…") + "\n"
	} else if in.status != "" && !in.form.open {
		sb += "\n " + accentStyle.Render(in.status) + "\n"
	}
	return sb
}

func (in interaction) helpKeys() string {
	switch {
	case in.dialog != "":
		return helpLine("enter", "dismiss")
	case in.ask != "":
		return helpLine("y", "confirm", "n", "cancel")
	}
	return helpLine("tab", "next", "enter", "save", "esc", "cancel")
}

// failureBanner renders an inline list-fetch failure.
func failureBanner(msg string) string {
	return " " + errorStyle.Render("! "+msg) + "  " + dimStyle.Render("r to retry") + "\n"
}
