package domain

import (
	"regexp"

	"github.com/shopspring/decimal"
)

// Config value types understood by the backend.
const (
	ConfigTypeString  = "STRING"
	ConfigTypeBoolean = "BOOLEAN"
	ConfigTypeNumber  = "NUMBER"
	ConfigTypeJSON    = "JSON"
)

// ConfigTypes is the cycle order used by the config entry form.
var ConfigTypes = []string{ConfigTypeString, ConfigTypeBoolean, ConfigTypeNumber, ConfigTypeJSON}

// ConfigEntry is one key/value pair of the backend's app configuration.
type ConfigEntry struct {
	ConfigKey   string `json:"configKey"`
	ConfigValue string `json:"configValue"`
	ConfigType  string `json:"configType"`
	Description string `json:"description,omitempty"`
}

// Banner is a promotional banner shown in the mobile app. A zero ID means "create".
type Banner struct {
	ID           int64     `json:"id,omitempty"`
	Title        string    `json:"title"`
	ImageURL     string    `json:"imageUrl"`
	LinkURL      string    `json:"linkUrl,omitempty"`
	DisplayOrder int       `json:"displayOrder"`
	IsActive     bool      `json:"isActive"`
	CreatedAt    Timestamp `json:"createdAt"`
}

var themeColorRe = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

// ValidThemeColor returns true for colors of the form #RRGGBB.
func ValidThemeColor(color string) bool {
	return themeColorRe.MatchString(color)
}

// Health is the backend's /health answer.
type Health struct {
	Status  string `json:"status"`
	Service string `json:"service"`
	Version string `json:"version"`
}

// Up reports whether the backend declared itself healthy.
func (h Health) Up() bool {
	return h.Status == "UP"
}

// MetricsSnapshot maps metric names to their latest values.
type MetricsSnapshot map[string]decimal.Decimal
