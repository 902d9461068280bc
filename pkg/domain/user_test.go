package domain

import (
	"encoding/json"
	"testing"
	"time"
)

func TestUserPageDecodesSpringPage(t *testing.T) {
	raw := `{"content":[{"id":7,"mobile":"9990001111","status":"ACTIVE","isBanned":false,"deviceCount":2,"createdAt":"2024-03-01T09:30:00"}],
		"totalElements":41,"totalPages":3,"number":1,"size":20}`

	var page UserPage
	if err := json.Unmarshal([]byte(raw), &page); err != nil {
		t.Fatalf("Unmarshal() error: %v", err)
	}
	if len(page.Users) != 1 {
		t.Fatalf("got %d users, want 1", len(page.Users))
	}
	if page.Users[0].Mobile != "9990001111" {
		t.Errorf("Mobile = %q, want %q", page.Users[0].Mobile, "9990001111")
	}
	if page.TotalPages != 3 || page.Number != 1 {
		t.Errorf("TotalPages/Number = %d/%d, want 3/1", page.TotalPages, page.Number)
	}
	if !page.HasNext() {
		t.Error("expected HasNext() on page 1 of 3")
	}
	want := time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)
	if !page.Users[0].CreatedAt.Equal(want) {
		t.Errorf("CreatedAt = %v, want %v", page.Users[0].CreatedAt.Time, want)
	}
}

func TestUserPageDecodesBareList(t *testing.T) {
	raw := `[{"id":1,"mobile":"1"},{"id":2,"mobile":"2","isBanned":true}]`

	var page UserPage
	if err := json.Unmarshal([]byte(raw), &page); err != nil {
		t.Fatalf("Unmarshal() error: %v", err)
	}
	if len(page.Users) != 2 {
		t.Fatalf("got %d users, want 2", len(page.Users))
	}
	if page.TotalPages != 1 || page.HasNext() {
		t.Errorf("bare list should be a single page, got TotalPages=%d", page.TotalPages)
	}
	if !page.Users[1].IsBanned {
		t.Error("expected second user to be banned")
	}
}

func TestUserDevicesDefaultsToOne(t *testing.T) {
	if got := (User{}).Devices(); got != 1 {
		t.Errorf("Devices() = %d, want 1", got)
	}
	if got := (User{DeviceCount: 4}).Devices(); got != 4 {
		t.Errorf("Devices() = %d, want 4", got)
	}
}
