package tui

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/naveenspark/w7admin/pkg/domain"
)

func TestTruncStr(t *testing.T) {
	tests := []struct {
		in   string
		max  int
		want string
	}{
		{"hello", 10, "hello"},
		{"hello", 5, "hello"},
		{"hello world", 6, "hello…"},
		{"₹₹₹₹", 3, "₹₹…"},
		{"x", 0, ""},
	}
	for _, tc := range tests {
		if got := truncStr(tc.in, tc.max); got != tc.want {
			t.Errorf("truncStr(%q, %d) = %q, want %q", tc.in, tc.max, got, tc.want)
		}
	}
}

func TestPadRight(t *testing.T) {
	if got := padRight("ab", 4); got != "ab  " {
		t.Errorf("padRight() = %q", got)
	}
	if got := padRight("abcdef", 4); got != "abc…" {
		t.Errorf("padRight() long = %q", got)
	}
}

func TestFormatTime(t *testing.T) {
	now := time.Now()
	tests := []struct {
		ts   domain.Timestamp
		want string
	}{
		{domain.Timestamp{}, "-"},
		{domain.Timestamp{Time: now.Add(-10 * time.Second)}, "just now"},
		{domain.Timestamp{Time: now.Add(-5 * time.Minute)}, "5m ago"},
		{domain.Timestamp{Time: now.Add(-3 * time.Hour)}, "3h ago"},
		{domain.Timestamp{Time: now.Add(-49 * time.Hour)}, "2d ago"},
		{domain.Timestamp{Time: time.Date(2023, 5, 6, 0, 0, 0, 0, time.UTC)}, "2023-05-06"},
	}
	for _, tc := range tests {
		if got := formatTime(tc.ts); got != tc.want {
			t.Errorf("formatTime(%v) = %q, want %q", tc.ts.Time, got, tc.want)
		}
	}
}

func TestParseAmount(t *testing.T) {
	if d, err := parseAmount(" -12.50 "); err != nil || !d.Equal(decimal.RequireFromString("-12.5")) {
		t.Errorf("parseAmount(-12.50) = %s, %v", d, err)
	}
	for _, bad := range []string{"", "abc", "0", "0.00", "1e"} {
		if _, err := parseAmount(bad); err == nil {
			t.Errorf("parseAmount(%q) accepted", bad)
		}
	}
}

func TestParseCount(t *testing.T) {
	if n, err := parseCount("3"); err != nil || n != 3 {
		t.Errorf("parseCount(3) = %d, %v", n, err)
	}
	for _, bad := range []string{"", "-1", "3abc", "1.5"} {
		if _, err := parseCount(bad); err == nil {
			t.Errorf("parseCount(%q) accepted", bad)
		}
	}
}

func TestMoney(t *testing.T) {
	if got := money(decimal.RequireFromString("5")); got != "₹5.00" {
		t.Errorf("money() = %q", got)
	}
}
