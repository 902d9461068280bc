package domain

import "testing"

func TestValidThemeColor(t *testing.T) {
	tests := []struct {
		color string
		want  bool
	}{
		{"#007bff", true},
		{"#ABCDEF", true},
		{"007bff", false},
		{"#07f", false},
		{"#00zz00", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := ValidThemeColor(tt.color); got != tt.want {
			t.Errorf("ValidThemeColor(%q) = %v, want %v", tt.color, got, tt.want)
		}
	}
}

func TestLoginResponseAdmin(t *testing.T) {
	resp := LoginResponse{Token: "t1", AdminID: 3, Username: "admin", Email: "a@x.com", Role: "ADMIN"}
	got := resp.Admin()
	want := Admin{ID: 3, Username: "admin", Email: "a@x.com", Role: "ADMIN"}
	if got != want {
		t.Errorf("Admin() = %+v, want %+v", got, want)
	}
}
