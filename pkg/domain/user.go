package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// User statuses reported by the backend.
const (
	UserStatusActive    = "ACTIVE"
	UserStatusSuspended = "SUSPENDED"
)

// User is an end-user account as the admin API reports it.
type User struct {
	ID          int64     `json:"id"`
	Mobile      string    `json:"mobile"`
	Status      string    `json:"status"`
	IsBanned    bool      `json:"isBanned"`
	BanReason   string    `json:"banReason,omitempty"`
	DeviceCount int       `json:"deviceCount"`
	CreatedAt   Timestamp `json:"createdAt"`
}

// Devices returns the device count, treating a missing value as one device.
func (u User) Devices() int {
	if u.DeviceCount <= 0 {
		return 1
	}
	return u.DeviceCount
}

// UserPage is one page of the user listing.
type UserPage struct {
	Users         []User
	TotalElements int64
	TotalPages    int
	Number        int // zero-based page index
	Size          int
}

// HasNext reports whether a further page exists.
func (p UserPage) HasNext() bool {
	return p.Number+1 < p.TotalPages
}

// UnmarshalJSON accepts either a paged object with a "content" array or a
// bare array of users.
func (p *UserPage) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var users []User
		if err := json.Unmarshal(trimmed, &users); err != nil {
			return fmt.Errorf("user list: %w", err)
		}
		*p = UserPage{
			Users:         users,
			TotalElements: int64(len(users)),
			TotalPages:    1,
			Size:          len(users),
		}
		return nil
	}

	var page struct {
		Content       []User `json:"content"`
		TotalElements int64  `json:"totalElements"`
		TotalPages    int    `json:"totalPages"`
		Number        int    `json:"number"`
		Size          int    `json:"size"`
	}
	if err := json.Unmarshal(trimmed, &page); err != nil {
		return fmt.Errorf("user page: %w", err)
	}
	*p = UserPage{
		Users:         page.Content,
		TotalElements: page.TotalElements,
		TotalPages:    page.TotalPages,
		Number:        page.Number,
		Size:          page.Size,
	}
	return nil
}
