package tui

import (
	"strings"
	"unicode/utf8"

	tea "github.com/charmbracelet/bubbletea"
)

// maxInputLen is the maximum number of runes allowed in a form field.
const maxInputLen = 500

// editRune processes a keystroke for inline text editing.
// Handles backspace (rune-aware) and single printable characters.
// Returns the text unchanged for non-printable keys (enter, esc, etc.).
// Input is clamped to maxInputLen runes.
func editRune(text string, key string) string {
	switch key {
	case "backspace":
		if len(text) > 0 {
			runes := []rune(text)
			return string(runes[:len(runes)-1])
		}
		return text
	default:
		if utf8.RuneCountInString(key) == 1 {
			if utf8.RuneCountInString(text) >= maxInputLen {
				return text
			}
			return text + key
		}
		return text
	}
}

// editKey is editRune for a whole key message, so pasted text lands in one go.
func editKey(text string, msg tea.KeyMsg) string {
	if msg.Type == tea.KeyRunes && len(msg.Runes) > 1 {
		for _, r := range msg.Runes {
			text = editRune(text, string(r))
		}
		return text
	}
	return editRune(text, msg.String())
}

// truncateToHeight limits output to maxLines newline-delimited lines.
// Returns the original string if it fits or maxLines is <= 0.
func truncateToHeight(s string, maxLines int) string {
	if maxLines <= 0 {
		return s
	}
	n := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			n++
			if n >= maxLines {
				return s[:i+1]
			}
		}
	}
	return s
}

// field is one line of a form. A field with choices is cycled with
// left/right instead of typed into.
type field struct {
	label   string
	value   string
	masked  bool
	choices []string
}

func (f field) display() string {
	if f.masked {
		return strings.Repeat("•", utf8.RuneCountInString(f.value))
	}
	return f.value
}

func (f *field) cycle(step int) {
	if len(f.choices) == 0 {
		return
	}
	idx := 0
	for i, c := range f.choices {
		if c == f.value {
			idx = i
			break
		}
	}
	idx = (idx + step + len(f.choices)) % len(f.choices)
	f.value = f.choices[idx]
}

// formResult is what a keystroke did to an open form.
type formResult int

const (
	formEditing formResult = iota
	formSubmitted
	formCancelled
)

// form is a small multi-field editor rendered inline in a view.
type form struct {
	open   bool
	title  string
	fields []field
	focus  int
}

func newForm(title string, fields ...field) form {
	return form{open: true, title: title, fields: fields}
}

// value returns the trimmed value of field i.
func (f form) value(i int) string {
	if i < 0 || i >= len(f.fields) {
		return ""
	}
	return strings.TrimSpace(f.fields[i].value)
}

func (f *form) handleKey(msg tea.KeyMsg) formResult {
	switch msg.String() {
	case "esc":
		f.open = false
		return formCancelled
	case "enter":
		// enter walks forward through the fields, submitting on the last one
		if f.focus < len(f.fields)-1 {
			f.focus++
			return formEditing
		}
		f.open = false
		return formSubmitted
	case "ctrl+s":
		f.open = false
		return formSubmitted
	case "tab", "down":
		f.focus = (f.focus + 1) % len(f.fields)
	case "shift+tab", "up":
		f.focus = (f.focus - 1 + len(f.fields)) % len(f.fields)
	case "left":
		f.fields[f.focus].cycle(-1)
	case "right", " ":
		if len(f.fields[f.focus].choices) > 0 {
			f.fields[f.focus].cycle(1)
			return formEditing
		}
		f.fields[f.focus].value = editKey(f.fields[f.focus].value, msg)
	default:
		if len(f.fields[f.focus].choices) == 0 {
			f.fields[f.focus].value = editKey(f.fields[f.focus].value, msg)
		}
	}
	return formEditing
}

func (f form) view() string {
	var sb strings.Builder
	sb.WriteString("\n " + sectionHeaderStyle.Render("── "+strings.ToUpper(f.title)+" ──") + "\n")

	width := 0
	for _, fl := range f.fields {
		width = max(width, utf8.RuneCountInString(fl.label))
	}
	for i, fl := range f.fields {
		label := inputPromptStyle.Render(padRight(fl.label+":", width+1))
		value := fl.display()
		if len(fl.choices) > 0 {
			value = "‹ " + value + " ›"
		}
		if i == f.focus {
			sb.WriteString("   " + accentStyle.Render(">") + " " + label + " " + value + accentStyle.Render("_") + "\n")
		} else {
			sb.WriteString("     " + label + " " + dimStyle.Render(value) + "\n")
		}
	}
	sb.WriteString("   " + dimStyle.Render("tab next · enter save · esc cancel") + "\n")
	return sb.String()
}
