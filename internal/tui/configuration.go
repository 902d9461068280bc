package tui

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/naveenspark/w7admin/internal/browser"
	"github.com/naveenspark/w7admin/internal/guard"
	"github.com/naveenspark/w7admin/pkg/client"
	"github.com/naveenspark/w7admin/pkg/domain"
)

type configPart int

const (
	partEntries configPart = iota
	partBanners
	partMaintenance
	partTheme
)

// configLoadedMsg carries one of the four reads the configuration view makes.
type configLoadedMsg struct {
	gen         int
	part        configPart
	entries     []domain.ConfigEntry
	banners     []domain.Banner
	maintenance bool
	theme       string
	err         error
}

func (m configLoadedMsg) apiErr() error       { return m.err }
func (m configLoadedMsg) target() guard.Route { return guard.Configuration }

// openLink is swapped out in tests.
var openLink = browser.Open

type configSection int

const (
	sectionEntries configSection = iota
	sectionBanners
)

type configModel struct {
	client       *client.Client
	entries      remote[[]domain.ConfigEntry]
	banners      remote[[]domain.Banner]
	maintenance  remote[bool]
	theme        remote[string]
	section      configSection
	entryCursor  int
	bannerCursor int
	in           interaction
}

func newConfigModel(c *client.Client) configModel {
	return configModel{client: c}
}

func (m configModel) activate() (configModel, tea.Cmd) {
	m.in.reset()
	return m.fetch()
}

func (m configModel) fetch() (configModel, tea.Cmd) {
	m.entries = m.entries.start()
	m.banners = m.banners.start()
	m.maintenance = m.maintenance.start()
	m.theme = m.theme.start()
	c, gen := m.client, m.in.gen
	return m, tea.Batch(
		func() tea.Msg {
			entries, err := c.ListConfigs(context.Background())
			return configLoadedMsg{gen: gen, part: partEntries, entries: entries, err: err}
		},
		func() tea.Msg {
			banners, err := c.ListBanners(context.Background())
			return configLoadedMsg{gen: gen, part: partBanners, banners: banners, err: err}
		},
		func() tea.Msg {
			on, err := c.GetMaintenanceMode(context.Background())
			return configLoadedMsg{gen: gen, part: partMaintenance, maintenance: on, err: err}
		},
		func() tea.Msg {
			color, err := c.GetThemeColor(context.Background())
			return configLoadedMsg{gen: gen, part: partTheme, theme: color, err: err}
		},
	)
}

func (m configModel) entryList() []domain.ConfigEntry {
	v, _ := m.entries.value()
	return v
}

func (m configModel) bannerList() []domain.Banner {
	v, _ := m.banners.value()
	return v
}

func (m configModel) selectedEntry() (domain.ConfigEntry, bool) {
	list := m.entryList()
	if m.section != sectionEntries || m.entryCursor >= len(list) {
		return domain.ConfigEntry{}, false
	}
	return list[m.entryCursor], true
}

func (m configModel) selectedBanner() (domain.Banner, bool) {
	list := m.bannerList()
	if m.section != sectionBanners || m.bannerCursor >= len(list) {
		return domain.Banner{}, false
	}
	return list[m.bannerCursor], true
}

func (m configModel) Update(msg tea.Msg) (configModel, tea.Cmd) {
	switch msg := msg.(type) {
	case configLoadedMsg:
		if msg.gen != m.in.gen {
			return m, nil
		}
		m.apply(msg)
		return m, nil

	case mutationDoneMsg:
		if m.in.finish(msg) {
			return m.fetch()
		}
		return m, nil

	case effectDoneMsg:
		if msg.err != nil {
			m.in.status = msg.err.Error()
		} else {
			m.in.status = msg.success
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m *configModel) apply(msg configLoadedMsg) {
	switch msg.part {
	case partEntries:
		if msg.err != nil {
			m.entries = m.entries.fail(client.Message(msg.err, "Failed to load configuration"))
			return
		}
		m.entries = m.entries.succeed(msg.entries)
		m.entryCursor = min(m.entryCursor, max(len(msg.entries)-1, 0))
	case partBanners:
		if msg.err != nil {
			m.banners = m.banners.fail(client.Message(msg.err, "Failed to load banners"))
			return
		}
		m.banners = m.banners.succeed(msg.banners)
		m.bannerCursor = min(m.bannerCursor, max(len(msg.banners)-1, 0))
	case partMaintenance:
		if msg.err != nil {
			m.maintenance = m.maintenance.fail(client.Message(msg.err, "Failed to load maintenance mode"))
			return
		}
		m.maintenance = m.maintenance.succeed(msg.maintenance)
	case partTheme:
		if msg.err != nil {
			m.theme = m.theme.fail(client.Message(msg.err, "Failed to load theme color"))
			return
		}
		m.theme = m.theme.succeed(msg.theme)
	}
}

func (m configModel) handleKey(msg tea.KeyMsg) (configModel, tea.Cmd) {
	switch m.in.handleKey(msg) {
	case promptAccepted:
		return m.accept()
	case promptPending, promptCancelled:
		return m, nil
	}

	m.in.status = ""
	switch msg.String() {
	case "tab":
		if m.section == sectionEntries {
			m.section = sectionBanners
		} else {
			m.section = sectionEntries
		}
	case "j", "down":
		if m.section == sectionEntries && m.entryCursor < len(m.entryList())-1 {
			m.entryCursor++
		} else if m.section == sectionBanners && m.bannerCursor < len(m.bannerList())-1 {
			m.bannerCursor++
		}
	case "k", "up":
		if m.section == sectionEntries && m.entryCursor > 0 {
			m.entryCursor--
		} else if m.section == sectionBanners && m.bannerCursor > 0 {
			m.bannerCursor--
		}
	case "r":
		return m.fetch()
	case "e":
		if e, ok := m.selectedEntry(); ok {
			m.in.prompt(actConfigEdit, 0, newForm("edit "+e.ConfigKey,
				field{label: "key", value: e.ConfigKey},
				field{label: "value", value: e.ConfigValue},
				field{label: "type", value: e.ConfigType, choices: domain.ConfigTypes},
				field{label: "description", value: e.Description},
			))
			m.in.form.focus = 1
		}
	case "n":
		m.in.prompt(actConfigNew, 0, newForm("new config entry",
			field{label: "key"},
			field{label: "value"},
			field{label: "type", value: domain.ConfigTypeString, choices: domain.ConfigTypes},
			field{label: "description"},
		))
	case "m":
		on, ok := m.maintenance.value()
		if !ok {
			m.in.status = "maintenance mode unknown · press r to reload"
			return m, nil
		}
		verb := "enable"
		if on {
			verb = "disable"
		}
		m.in.confirm(actMaintenance, 0, verb+" maintenance mode for all users?")
	case "t":
		current, _ := m.theme.value()
		m.in.prompt(actTheme, 0, newForm("theme color", field{label: "color", value: current}))
	case "b":
		m.in.prompt(actBannerNew, 0, newForm("new banner",
			field{label: "title"},
			field{label: "image url"},
			field{label: "link url"},
			field{label: "order", value: strconv.Itoa(len(m.bannerList()) + 1)},
			field{label: "active", value: "yes", choices: []string{"yes", "no"}},
		))
	case "d":
		if b, ok := m.selectedBanner(); ok {
			m.in.confirm(actBannerDelete, b.ID, fmt.Sprintf("delete banner %q?", b.Title))
		}
	case "o":
		if b, ok := m.selectedBanner(); ok {
			link := bannerLink(b)
			return m, func() tea.Msg {
				err := openLink(link)
				return effectDoneMsg{route: guard.Configuration, success: "opened " + link, err: err}
			}
		}
	case "c":
		if b, ok := m.selectedBanner(); ok {
			link := bannerLink(b)
			return m, func() tea.Msg {
				err := writeClipboard(link)
				return effectDoneMsg{route: guard.Configuration, success: "copied " + link, err: err}
			}
		}
	case "C":
		m.in.confirm(actClearCache, 0, "clear the backend configuration cache?")
	}
	return m, nil
}

// bannerLink is where a banner points, falling back to its image.
func bannerLink(b domain.Banner) string {
	if b.LinkURL != "" {
		return b.LinkURL
	}
	return b.ImageURL
}

func (m configModel) accept() (configModel, tea.Cmd) {
	c, id := m.client, m.in.target
	f := m.in.form
	switch m.in.action {
	case actConfigEdit, actConfigNew:
		entry := domain.ConfigEntry{
			ConfigKey:   f.value(0),
			ConfigValue: f.value(1),
			ConfigType:  f.value(2),
			Description: f.value(3),
		}
		if entry.ConfigKey == "" {
			m.in.status = "cancelled: a key is required"
			return m, nil
		}
		if err := checkConfigValue(entry); err != nil {
			m.in.dialog = err.Error()
			return m, nil
		}
		return m, m.in.run(guard.Configuration, m.in.action, "saving "+entry.ConfigKey, "Saved "+entry.ConfigKey, "Failed to save configuration",
			func(ctx context.Context) error {
				_, err := c.SetConfig(ctx, entry)
				return err
			})

	case actMaintenance:
		on, _ := m.maintenance.value()
		next := !on
		success := "Maintenance mode enabled"
		if !next {
			success = "Maintenance mode disabled"
		}
		return m, m.in.run(guard.Configuration, actMaintenance, "updating maintenance mode", success, "Failed to update maintenance mode",
			func(ctx context.Context) error { return c.SetMaintenanceMode(ctx, next) })

	case actTheme:
		color := f.value(0)
		if color == "" {
			m.in.status = "cancelled"
			return m, nil
		}
		if !domain.ValidThemeColor(color) {
			m.in.dialog = fmt.Sprintf("%q is not a color; use the form #RRGGBB", color)
			return m, nil
		}
		return m, m.in.run(guard.Configuration, actTheme, "updating theme", "Theme color set to "+color, "Failed to update theme color",
			func(ctx context.Context) error { return c.SetThemeColor(ctx, color) })

	case actBannerNew:
		title, image := f.value(0), f.value(1)
		if title == "" || image == "" {
			m.in.status = "cancelled: title and image url are required"
			return m, nil
		}
		order, err := parseCount(f.value(3))
		if err != nil {
			m.in.dialog = "display order: " + err.Error()
			return m, nil
		}
		banner := domain.Banner{
			Title:        title,
			ImageURL:     image,
			LinkURL:      f.value(2),
			DisplayOrder: order,
			IsActive:     f.value(4) == "yes",
		}
		return m, m.in.run(guard.Configuration, actBannerNew, "saving banner", "Banner created", "Failed to save banner",
			func(ctx context.Context) error {
				_, err := c.SaveBanner(ctx, banner)
				return err
			})

	case actBannerDelete:
		return m, m.in.run(guard.Configuration, actBannerDelete, "deleting banner", "Banner deleted", "Failed to delete banner",
			func(ctx context.Context) error { return c.DeleteBanner(ctx, id) })

	case actClearCache:
		return m, m.in.run(guard.Configuration, actClearCache, "clearing cache", "Configuration cache cleared", "Failed to clear cache",
			c.ClearConfigCache)
	}
	return m, nil
}

// checkConfigValue rejects values that cannot be read back as their type.
func checkConfigValue(e domain.ConfigEntry) error {
	switch e.ConfigType {
	case domain.ConfigTypeBoolean:
		if _, err := strconv.ParseBool(e.ConfigValue); err != nil {
			return fmt.Errorf("%s: %q is not true or false", e.ConfigKey, e.ConfigValue)
		}
	case domain.ConfigTypeNumber:
		if _, err := strconv.ParseFloat(e.ConfigValue, 64); err != nil {
			return fmt.Errorf("%s: %q is not a number", e.ConfigKey, e.ConfigValue)
		}
	case domain.ConfigTypeJSON:
		if !json.Valid([]byte(e.ConfigValue)) {
			return fmt.Errorf("%s: value is not valid JSON", e.ConfigKey)
		}
	}
	return nil
}

func (m configModel) helpKeys() string {
	if m.in.capturing() {
		return m.in.helpKeys()
	}
	if m.section == sectionBanners {
		return helpLine("tab", "entries", "b", "new", "d", "delete", "o", "open", "c", "copy", "m", "maintenance", "t", "theme", "C", "clear cache")
	}
	return helpLine("tab", "banners", "e", "edit", "n", "new", "m", "maintenance", "t", "theme", "C", "clear cache", "r", "reload")
}

func (m configModel) View() string {
	var sb strings.Builder

	// -- app switches --
	sb.WriteString("\n " + sectionHeaderStyle.Render("── APP ──") + "\n")
	if on, ok := m.maintenance.value(); ok {
		state := accentStyle.Render("off")
		if on {
			state = warnStyle.Render("ON")
		}
		sb.WriteString("   " + dimStyle.Render("maintenance mode ") + state + "\n")
	} else if msg, failed := m.maintenance.failure(); failed {
		sb.WriteString(failureBanner(msg))
	}
	if color, ok := m.theme.value(); ok {
		sb.WriteString("   " + dimStyle.Render("theme color      ") + swatch(color) + " " + normalStyle.Render(color) + "\n")
	} else if msg, failed := m.theme.failure(); failed {
		sb.WriteString(failureBanner(msg))
	}

	// -- entries --
	entries := m.entryList()
	sb.WriteString("\n " + m.header(sectionEntries, fmt.Sprintf("CONFIG %d", len(entries))) + "\n")
	if msg, failed := m.entries.failure(); failed {
		sb.WriteString(failureBanner(msg))
	}
	if len(entries) == 0 && m.entries.has {
		sb.WriteString("   " + dimStyle.Render("no entries · press n to add one") + "\n")
	}
	for i, e := range entries {
		active := m.section == sectionEntries && i == m.entryCursor
		cursor := "  "
		key := normalStyle.Render(padRight(e.ConfigKey, 24))
		if active {
			cursor = accentStyle.Render("▸") + " "
			key = selectedStyle.Render(padRight(e.ConfigKey, 24))
		}
		fmt.Fprintf(&sb, " %s%s %s  %s\n", cursor, key, goldStyle.Render(truncStr(e.ConfigValue, 30)), metaStyle.Render(e.ConfigType))
		if active && e.Description != "" {
			sb.WriteString("     " + dimStyle.Render(e.Description) + "\n")
		}
	}

	// -- banners --
	banners := m.bannerList()
	sb.WriteString("\n " + m.header(sectionBanners, fmt.Sprintf("BANNERS %d", len(banners))) + "\n")
	if msg, failed := m.banners.failure(); failed {
		sb.WriteString(failureBanner(msg))
	}
	if len(banners) == 0 && m.banners.has {
		sb.WriteString("   " + dimStyle.Render("no banners · press b to add one") + "\n")
	}
	for i, b := range banners {
		active := m.section == sectionBanners && i == m.bannerCursor
		cursor := "  "
		title := normalStyle.Render(padRight(b.Title, 24))
		if active {
			cursor = accentStyle.Render("▸") + " "
			title = selectedStyle.Render(padRight(b.Title, 24))
		}
		state := StatusBadge("ACTIVE")
		if !b.IsActive {
			state = StatusBadge("INACTIVE")
		}
		fmt.Fprintf(&sb, " %s%s %s  %s\n", cursor, title, metaStyle.Render(fmt.Sprintf("#%d", b.DisplayOrder)), state)
		if active {
			sb.WriteString("     " + dimStyle.Render(truncStr(bannerLink(b), 70)) + "\n")
		}
	}

	sb.WriteString(m.in.view())
	return sb.String()
}

func (m configModel) header(s configSection, label string) string {
	if m.section == s {
		return accentStyle.Render("── " + label + " ──")
	}
	return sectionHeaderStyle.Render("── " + label + " ──")
}
