package tui

import (
	"fmt"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Shimmer animation for the header wordmark.
type shimmerTickMsg time.Time

func shimmerTickCmd() tea.Cmd {
	return tea.Tick(120*time.Millisecond, func(t time.Time) tea.Msg {
		return shimmerTickMsg(t)
	})
}

// renderShimmerLogo renders text as a slow wave of gold light,
// deep amber (#5a3e0a) to bright gold (#facc15).
func renderShimmerLogo(text string, frame int) string {
	n := len(text)
	if n == 0 {
		return ""
	}
	t := float64(frame)

	var out strings.Builder
	for i := 0; i < n; i++ {
		x := 0.0
		if n > 1 {
			x = float64(i) / float64(n-1)
		}
		phase := t*0.1 - x*3.0
		b := math.Pow(math.Sin(phase)*0.5+0.5, 1.3)*0.75 + 0.2
		if b > 1.0 {
			b = 1.0
		}

		r := clampByte(90 + b*(250-90))
		g := clampByte(62 + b*(204-62))
		bl := clampByte(10 + b*(21-10))
		color := fmt.Sprintf("#%02X%02X%02X", r, g, bl)

		out.WriteString(lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(color)).Render(string(text[i])))
		if i < n-1 {
			out.WriteString(" ")
		}
	}
	return out.String()
}

func clampByte(v float64) int {
	if v > 255 {
		return 255
	}
	if v < 0 {
		return 0
	}
	return int(v)
}

var (
	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#8890a0"))

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#e4e4ec")).
			Bold(true)

	normalStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#c0c4d0"))

	metaStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#505868"))

	// Help bar
	helpKeyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#8890a0"))

	helpLabelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#505868"))

	accentStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#34d474"))

	goldStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#d4a844"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#e06060"))

	warnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#f0944a"))

	sectionHeaderStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#606878"))

	inputPromptStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#34d474")).
				Bold(true)

	inputPlaceholderStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#343c4a"))

	selectedRowBg = lipgloss.NewStyle().Background(lipgloss.Color("#1e1e2a"))

	dialogStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#b45555")).
			Padding(0, 2)

	// Status badge colors.
	statusColors = map[string]lipgloss.Color{
		"ACTIVE":    lipgloss.Color("#34d474"),
		"APPROVED":  lipgloss.Color("#34d474"),
		"UP":        lipgloss.Color("#34d474"),
		"PENDING":   lipgloss.Color("#d4a844"),
		"INACTIVE":  lipgloss.Color("#606878"),
		"SUSPENDED": lipgloss.Color("#f0944a"),
		"REJECTED":  lipgloss.Color("#e06060"),
		"BANNED":    lipgloss.Color("#e06060"),
		"DOWN":      lipgloss.Color("#e06060"),
	}
)

// StatusStyle returns a bold style colored for a backend status value.
func StatusStyle(status string) lipgloss.Style {
	if c, ok := statusColors[strings.ToUpper(status)]; ok {
		return lipgloss.NewStyle().Foreground(c).Bold(true)
	}
	return lipgloss.NewStyle().Foreground(lipgloss.Color("#8890a0")).Bold(true)
}

// StatusBadge returns a short colored badge, e.g. "[PENDING]".
func StatusBadge(status string) string {
	if status == "" {
		return ""
	}
	return StatusStyle(status).Render("[" + strings.ToUpper(status) + "]")
}

// swatch renders a small block in the given #RRGGBB color.
func swatch(hex string) string {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(hex)).Render("██")
}

// helpEntry renders a single "key label" pair for help bars.
func helpEntry(key, label string) string {
	return helpKeyStyle.Render(key) + " " + helpLabelStyle.Render(label)
}

// helpLine joins key/label pairs into one help bar.
func helpLine(pairs ...string) string {
	var parts []string
	for i := 0; i+1 < len(pairs); i += 2 {
		parts = append(parts, helpEntry(pairs[i], pairs[i+1]))
	}
	return " " + strings.Join(parts, "  ")
}
