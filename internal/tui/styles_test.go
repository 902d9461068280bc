package tui

import (
	"strings"
	"testing"
)

func TestStatusBadge(t *testing.T) {
	for _, status := range []string{"ACTIVE", "pending", "REJECTED", "SOMETHING-NEW"} {
		t.Run(status, func(t *testing.T) {
			got := StatusBadge(status)
			if !strings.Contains(got, "["+strings.ToUpper(status)+"]") {
				t.Errorf("StatusBadge(%q) = %q", status, got)
			}
		})
	}
	if StatusBadge("") != "" {
		t.Error("StatusBadge(\"\") should be empty")
	}
}

func TestRenderShimmerLogo(t *testing.T) {
	for _, frame := range []int{0, 7, 1000} {
		got := renderShimmerLogo("W7ADMIN", frame)
		for _, ch := range "W7ADMIN" {
			if !strings.ContainsRune(got, ch) {
				t.Errorf("frame %d: logo missing %q", frame, ch)
			}
		}
	}
	if renderShimmerLogo("", 3) != "" {
		t.Error("empty text should render nothing")
	}
}

func TestHelpLine(t *testing.T) {
	got := helpLine("q", "quit", "r", "reload")
	if !strings.Contains(got, "quit") || !strings.Contains(got, "reload") {
		t.Errorf("helpLine() = %q", got)
	}
}

func TestClampByte(t *testing.T) {
	if clampByte(300) != 255 || clampByte(-4) != 0 || clampByte(12.7) != 12 {
		t.Error("clampByte out of range handling")
	}
}
