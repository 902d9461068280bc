package domain

// Admin is the identity of the operator signed in to the console.
type Admin struct {
	ID       int64  `json:"adminId,omitempty"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     string `json:"role"`
}

// Session pairs a bearer token with the admin it was issued to.
// Admin is only meaningful when Token is non-empty.
type Session struct {
	Token string `json:"token"`
	Admin Admin  `json:"admin"`
}

// LoginRequest is the body of POST /admin/login.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse is the backend's answer to a successful login.
type LoginResponse struct {
	Token    string `json:"token"`
	AdminID  int64  `json:"adminId,omitempty"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     string `json:"role"`
}

// Admin projects the identity part of the response.
func (r LoginResponse) Admin() Admin {
	return Admin{
		ID:       r.AdminID,
		Username: r.Username,
		Email:    r.Email,
		Role:     r.Role,
	}
}
