// Package guard decides which screen the operator may see.
package guard

import "strings"

// Route names a screen of the console.
type Route string

const (
	Root          Route = "/"
	Login         Route = "/login"
	Dashboard     Route = "/dashboard"
	Users         Route = "/users"
	Tasks         Route = "/tasks"
	Withdrawals   Route = "/withdrawals"
	Configuration Route = "/configuration"
)

// Protected lists the routes that require a session, in tab order.
var Protected = []Route{Dashboard, Users, Tasks, Withdrawals, Configuration}

// Title is the short label used in the tab bar.
func (r Route) Title() string {
	switch r {
	case Login:
		return "Login"
	case Dashboard:
		return "Dashboard"
	case Users:
		return "Users"
	case Tasks:
		return "Tasks"
	case Withdrawals:
		return "Withdrawals"
	case Configuration:
		return "Configuration"
	}
	return string(r)
}

// IsProtected reports whether r requires a session.
func (r Route) IsProtected() bool {
	for _, p := range Protected {
		if p == r {
			return true
		}
	}
	return false
}

// Sessions is the one question the guard asks of the session store.
type Sessions interface {
	Active() bool
}

// Decision is where navigation actually lands.
type Decision struct {
	Route      Route
	Redirected bool
}

// Guard resolves navigation targets against the current session. It keeps no
// state of its own; every Resolve reads the store afresh.
type Guard struct {
	sessions Sessions
}

// New returns a Guard backed by sessions.
func New(sessions Sessions) *Guard {
	return &Guard{sessions: sessions}
}

// Resolve maps a requested route to the one to show.
func (g *Guard) Resolve(target Route) Decision {
	signedIn := g.sessions.Active()
	var dest Route
	switch {
	case target == Login || target == Root:
		if signedIn {
			dest = Dashboard
		} else {
			dest = Login
		}
	case target.IsProtected():
		if signedIn {
			dest = target
		} else {
			dest = Login
		}
	default:
		// Unknown paths go wherever root would.
		return Decision{Route: g.Resolve(Root).Route, Redirected: true}
	}
	return Decision{Route: dest, Redirected: dest != target}
}

// ParseRoute reads operator input such as "users", "/tasks" or "Config".
// Unknown input yields the input itself as a path, which Resolve redirects.
func ParseRoute(s string) Route {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.TrimPrefix(s, "/")
	switch s {
	case "":
		return Root
	case "login":
		return Login
	case "dashboard", "dash", "home":
		return Dashboard
	case "users", "user":
		return Users
	case "tasks", "task":
		return Tasks
	case "withdrawals", "withdrawal", "payouts":
		return Withdrawals
	case "configuration", "config", "settings":
		return Configuration
	}
	return Route("/" + s)
}
