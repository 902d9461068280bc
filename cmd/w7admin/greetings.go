package main

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#facc15")).
			Bold(true)
	cmdStyle  = lipgloss.NewStyle().Bold(true)
	descStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
)

func printHelp(w io.Writer) {
	commands := []struct{ cmd, desc string }{
		{"w7admin", "Open the admin console (interactive TUI)"},
		{"w7admin --route users", "Open the console on a given screen"},
		{"w7admin login", "Sign in and store the session"},
		{"w7admin logout", "Clear the stored session"},
		{"w7admin whoami", "Show the signed-in admin"},
		{"w7admin config get KEY", "Print one configuration value"},
		{"w7admin --version", "Show version"},
		{"w7admin help", "You are here"},
	}

	fmt.Fprintf(w, "\n  %s\n  %s\n\n  Commands:\n",
		titleStyle.Render("W 7 A D M I N"),
		descStyle.Render("WIN777 operations console"),
	)
	for _, c := range commands {
		fmt.Fprintf(w, "    %s  %s\n", cmdStyle.Render(fmt.Sprintf("%-24s", c.cmd)), descStyle.Render(c.desc))
	}
	fmt.Fprintf(w, "\n  %s\n\n", descStyle.Render("Settings: W7ADMIN_API_URL, W7ADMIN_STATE_DIR, W7ADMIN_CONFIG"))
}

func printSignedIn(w io.Writer, username, apiURL string) {
	fmt.Fprintf(w, "%s %s\n  %s\n",
		titleStyle.Render("Signed in as"),
		cmdStyle.Render(username),
		descStyle.Render(apiURL),
	)
}

func printSignedOut(w io.Writer) {
	fmt.Fprintf(w, "%s\n%s\n",
		descStyle.Render("Not signed in."),
		descStyle.Render("To sign in: w7admin login"),
	)
}
