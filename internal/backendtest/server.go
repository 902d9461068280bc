// Package backendtest serves an in-memory imitation of the WIN777 admin REST
// API for tests. It records every request it sees and can be told to fail
// the next call to a given endpoint.
package backendtest

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/naveenspark/w7admin/pkg/domain"
)

// Default credentials accepted by POST /admin/login.
const (
	Username = "admin"
	Password = "secret"
	Token    = "t1"
)

// Request is one recorded inbound request.
type Request struct {
	Method        string
	Path          string
	Query         string
	Authorization string
	Body          []byte
}

type failure struct {
	status int
	body   string
}

// Server is a running fake backend.
type Server struct {
	*httptest.Server

	mu          sync.Mutex
	admin       domain.Admin
	users       []domain.User
	tasks       []domain.Task
	withdrawals []domain.Withdrawal
	configs     []domain.ConfigEntry
	banners     []domain.Banner
	maintenance bool
	themeColor  string
	balances    map[int64]decimal.Decimal
	nextID      int64
	requests    []Request
	failures    map[string]failure
}

// New starts a fake backend. Callers must Close it.
func New() *Server {
	s := &Server{
		admin:      domain.Admin{ID: 1, Username: Username, Email: "a@x.com", Role: "ADMIN"},
		themeColor: "#007bff",
		balances:   make(map[int64]decimal.Decimal),
		nextID:     1000,
		failures:   make(map[string]failure),
	}
	s.Server = httptest.NewServer(s.routes())
	return s
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(s.record)

	r.Post("/admin/login", s.handleLogin)
	r.Get("/health", s.handleHealth)
	r.Get("/config/banners", s.handleListBanners)

	r.Group(func(r chi.Router) {
		r.Use(s.requireToken)

		r.Get("/admin/users", s.handleListUsers)
		r.Get("/admin/users/search", s.handleSearchUsers)
		r.Post("/admin/users/{id}/ban", s.handleBan)
		r.Post("/admin/users/{id}/unban", s.handleUnban)
		r.Post("/admin/users/{id}/adjust-balance", s.handleAdjustBalance)

		r.Get("/tasks", s.handleListTasks)
		r.Post("/admin/tasks", s.handleSaveTask)
		r.Delete("/admin/tasks/{id}", s.handleDeleteTask)

		r.Get("/admin/withdrawals/pending", s.handlePendingWithdrawals)
		r.Post("/admin/withdrawals/{id}/approve", s.handleDecideWithdrawal(domain.WithdrawalApproved))
		r.Post("/admin/withdrawals/{id}/reject", s.handleDecideWithdrawal(domain.WithdrawalRejected))

		r.Get("/config", s.handleListConfigs)
		r.Post("/config", s.handleSetConfig)
		r.Get("/config/maintenance-mode", s.handleGetMaintenance)
		r.Post("/config/maintenance-mode", s.handleSetMaintenance)
		r.Get("/config/theme-color", s.handleGetTheme)
		r.Post("/config/theme-color", s.handleSetTheme)
		r.Post("/config/clear-cache", s.handleClearCache)
		r.Post("/config/banners", s.handleSaveBanner)
		r.Delete("/config/banners/{id}", s.handleDeleteBanner)
		r.Get("/config/{key}", s.handleGetConfig)

		r.Get("/api/analytics/snapshot", s.handleSnapshot)
	})
	return r
}

// --- test controls ---

// Fail makes the next request matching method and path answer with status
// and body instead of reaching its handler.
func (s *Server) Fail(method, path string, status int, body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[method+" "+path] = failure{status: status, body: body}
}

// Requests returns a copy of every request seen so far.
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Request, len(s.requests))
	copy(out, s.requests)
	return out
}

// Count returns how many requests hit method and path.
func (s *Server) Count(method, path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, r := range s.requests {
		if r.Method == method && r.Path == path {
			n++
		}
	}
	return n
}

// Last returns the most recent request for method and path.
func (s *Server) Last(method, path string) (Request, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := len(s.requests) - 1; i >= 0; i-- {
		r := s.requests[i]
		if r.Method == method && r.Path == path {
			return r, true
		}
	}
	return Request{}, false
}

// AddUser seeds a user and returns it with its assigned ID.
func (s *Server) AddUser(mobile string, banned bool) domain.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	u := domain.User{
		ID:          s.nextID,
		Mobile:      mobile,
		Status:      domain.UserStatusActive,
		IsBanned:    banned,
		DeviceCount: 1,
		CreatedAt:   domain.Timestamp{Time: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)},
	}
	s.users = append(s.users, u)
	return u
}

// AddTask seeds a task and returns it with its assigned ID.
func (s *Server) AddTask(t domain.Task) domain.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	t.ID = s.nextID
	s.tasks = append(s.tasks, t)
	return t
}

// AddWithdrawal seeds a pending withdrawal and returns it.
func (s *Server) AddWithdrawal(userID int64, amount string) domain.Withdrawal {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	w := domain.Withdrawal{
		ID:        s.nextID,
		UserID:    userID,
		Amount:    decimal.RequireFromString(amount),
		Status:    domain.WithdrawalPending,
		CreatedAt: domain.Timestamp{Time: time.Date(2024, 2, 3, 4, 5, 6, 0, time.UTC)},
	}
	s.withdrawals = append(s.withdrawals, w)
	return w
}

// AddBanner seeds a banner and returns it with its assigned ID.
func (s *Server) AddBanner(b domain.Banner) domain.Banner {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	b.ID = s.nextID
	s.banners = append(s.banners, b)
	return b
}

// AddConfig seeds a configuration entry. GET /config/{key} answers with its
// value written out unchanged.
func (s *Server) AddConfig(e domain.ConfigEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.configs = append(s.configs, e)
}

// Withdrawal returns the stored state of a withdrawal.
func (s *Server) Withdrawal(id int64) (domain.Withdrawal, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, w := range s.withdrawals {
		if w.ID == id {
			return w, true
		}
	}
	return domain.Withdrawal{}, false
}

// User returns the stored state of a user.
func (s *Server) User(id int64) (domain.User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.ID == id {
			return u, true
		}
	}
	return domain.User{}, false
}

// Balance returns the net adjustments applied to a user.
func (s *Server) Balance(id int64) decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.balances[id]
}

// MaintenanceMode returns the stored flag.
func (s *Server) MaintenanceMode() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.maintenance
}

// ThemeColor returns the stored color.
func (s *Server) ThemeColor() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.themeColor
}

// --- middleware ---

func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body) //nolint:errcheck // test double
		r.Body = io.NopCloser(bytes.NewReader(body))

		s.mu.Lock()
		s.requests = append(s.requests, Request{
			Method:        r.Method,
			Path:          r.URL.Path,
			Query:         r.URL.RawQuery,
			Authorization: r.Header.Get("Authorization"),
			Body:          body,
		})
		key := r.Method + " " + r.URL.Path
		f, failing := s.failures[key]
		if failing {
			delete(s.failures, key)
		}
		s.mu.Unlock()

		if failing {
			w.WriteHeader(f.status)
			io.WriteString(w, f.body) //nolint:errcheck
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) requireToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer "+Token {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

// --- handlers ---

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req domain.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	if req.Username != Username || req.Password != Password {
		w.WriteHeader(http.StatusUnauthorized)
		io.WriteString(w, "Invalid credentials") //nolint:errcheck
		return
	}
	s.mu.Lock()
	admin := s.admin
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, domain.LoginResponse{
		Token:    Token,
		AdminID:  admin.ID,
		Username: admin.Username,
		Email:    admin.Email,
		Role:     admin.Role,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, domain.Health{Status: "UP", Service: "WIN777 Backend", Version: "1.0.0-SNAPSHOT"})
}

func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page")) //nolint:errcheck // zero on bad input
	size, _ := strconv.Atoi(r.URL.Query().Get("size")) //nolint:errcheck
	if size <= 0 {
		size = 10
	}
	s.mu.Lock()
	total := len(s.users)
	from := min(page*size, total)
	to := min(from+size, total)
	content := append([]domain.User{}, s.users[from:to]...)
	s.mu.Unlock()

	pages := (total + size - 1) / size
	writeJSON(w, http.StatusOK, map[string]any{
		"content":       content,
		"totalElements": total,
		"totalPages":    pages,
		"number":        page,
		"size":          size,
	})
}

func (s *Server) handleSearchUsers(w http.ResponseWriter, r *http.Request) {
	mobile := r.URL.Query().Get("mobile")
	s.mu.Lock()
	out := []domain.User{}
	for _, u := range s.users {
		if strings.Contains(u.Mobile, mobile) {
			out = append(out, u)
		}
	}
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleBan(w http.ResponseWriter, r *http.Request) {
	var req domain.ReasonRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Reason == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "reason is required"})
		return
	}
	s.updateUser(w, r, func(u *domain.User) {
		u.IsBanned = true
		u.BanReason = req.Reason
	}, "User banned")
}

func (s *Server) handleUnban(w http.ResponseWriter, r *http.Request) {
	s.updateUser(w, r, func(u *domain.User) {
		u.IsBanned = false
		u.BanReason = ""
	}, "User unbanned")
}

func (s *Server) handleAdjustBalance(w http.ResponseWriter, r *http.Request) {
	var req domain.AdjustBalanceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid amount"})
		return
	}
	id := pathID(r)
	s.updateUser(w, r, func(_ *domain.User) {
		s.balances[id] = s.balances[id].Add(req.Amount)
	}, "Balance adjusted")
}

func (s *Server) updateUser(w http.ResponseWriter, r *http.Request, apply func(*domain.User), msg string) {
	id := pathID(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.users {
		if s.users[i].ID == id {
			apply(&s.users[i])
			w.WriteHeader(http.StatusOK)
			io.WriteString(w, msg) //nolint:errcheck
			return
		}
	}
	writeJSON(w, http.StatusNotFound, map[string]string{"error": "user not found"})
}

func (s *Server) handleListTasks(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	out := append([]domain.Task{}, s.tasks...)
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleSaveTask(w http.ResponseWriter, r *http.Request) {
	var t domain.Task
	if err := json.NewDecoder(r.Body).Decode(&t); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid task"})
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if t.ID == 0 {
		s.nextID++
		t.ID = s.nextID
		s.tasks = append(s.tasks, t)
		writeJSON(w, http.StatusOK, t)
		return
	}
	for i := range s.tasks {
		if s.tasks[i].ID == t.ID {
			s.tasks[i] = t
			writeJSON(w, http.StatusOK, t)
			return
		}
	}
	writeJSON(w, http.StatusNotFound, map[string]string{"error": "task not found"})
}

func (s *Server) handleDeleteTask(w http.ResponseWriter, r *http.Request) {
	id := pathID(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.tasks {
		if s.tasks[i].ID == id {
			s.tasks = append(s.tasks[:i], s.tasks[i+1:]...)
			io.WriteString(w, "Task deleted") //nolint:errcheck
			return
		}
	}
	writeJSON(w, http.StatusNotFound, map[string]string{"error": "task not found"})
}

func (s *Server) handlePendingWithdrawals(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	out := []domain.Withdrawal{}
	for _, wd := range s.withdrawals {
		if wd.Status == domain.WithdrawalPending {
			out = append(out, wd)
		}
	}
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleDecideWithdrawal(status string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req domain.ReasonRequest
		_ = json.NewDecoder(r.Body).Decode(&req) //nolint:errcheck // approve has an empty body
		id := pathID(r)

		s.mu.Lock()
		defer s.mu.Unlock()
		for i := range s.withdrawals {
			wd := &s.withdrawals[i]
			if wd.ID != id {
				continue
			}
			if wd.Status != domain.WithdrawalPending {
				writeJSON(w, http.StatusConflict, map[string]string{"message": "Withdrawal is not pending"})
				return
			}
			wd.Status = status
			wd.Reason = req.Reason
			writeJSON(w, http.StatusOK, wd)
			return
		}
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "withdrawal not found"})
	}
}

func (s *Server) handleListConfigs(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	out := append([]domain.ConfigEntry{}, s.configs...)
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleSetConfig(w http.ResponseWriter, r *http.Request) {
	var e domain.ConfigEntry
	if err := json.NewDecoder(r.Body).Decode(&e); err != nil || e.ConfigKey == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "configKey is required"})
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.configs {
		if s.configs[i].ConfigKey == e.ConfigKey {
			s.configs[i] = e
			writeJSON(w, http.StatusOK, e)
			return
		}
	}
	s.configs = append(s.configs, e)
	writeJSON(w, http.StatusOK, e)
}

func (s *Server) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.configs {
		if e.ConfigKey == key {
			io.WriteString(w, e.ConfigValue) //nolint:errcheck
			return
		}
	}
	w.WriteHeader(http.StatusNotFound)
}

func (s *Server) handleGetMaintenance(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	enabled := s.maintenance
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, enabled)
}

func (s *Server) handleSetMaintenance(w http.ResponseWriter, r *http.Request) {
	var enabled bool
	if err := json.NewDecoder(r.Body).Decode(&enabled); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "body must be a boolean"})
		return
	}
	s.mu.Lock()
	s.maintenance = enabled
	s.mu.Unlock()
	io.WriteString(w, "Maintenance mode updated") //nolint:errcheck
}

func (s *Server) handleGetTheme(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	color := s.themeColor
	s.mu.Unlock()
	io.WriteString(w, color) //nolint:errcheck
}

func (s *Server) handleSetTheme(w http.ResponseWriter, r *http.Request) {
	var color string
	if err := json.NewDecoder(r.Body).Decode(&color); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "body must be a string"})
		return
	}
	s.mu.Lock()
	s.themeColor = color
	s.mu.Unlock()
	io.WriteString(w, "Theme color updated") //nolint:errcheck
}

func (s *Server) handleClearCache(w http.ResponseWriter, _ *http.Request) {
	io.WriteString(w, "Cache cleared") //nolint:errcheck
}

func (s *Server) handleListBanners(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	out := append([]domain.Banner{}, s.banners...)
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleSaveBanner(w http.ResponseWriter, r *http.Request) {
	var b domain.Banner
	if err := json.NewDecoder(r.Body).Decode(&b); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid banner"})
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if b.ID == 0 {
		s.nextID++
		b.ID = s.nextID
		s.banners = append(s.banners, b)
	} else {
		for i := range s.banners {
			if s.banners[i].ID == b.ID {
				s.banners[i] = b
			}
		}
	}
	writeJSON(w, http.StatusOK, b)
}

func (s *Server) handleDeleteBanner(w http.ResponseWriter, r *http.Request) {
	id := pathID(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.banners {
		if s.banners[i].ID == id {
			s.banners = append(s.banners[:i], s.banners[i+1:]...)
			io.WriteString(w, "Banner deleted") //nolint:errcheck
			return
		}
	}
	writeJSON(w, http.StatusNotFound, map[string]string{"error": "banner not found"})
}

func (s *Server) handleSnapshot(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	users := len(s.users)
	pending := 0
	for _, wd := range s.withdrawals {
		if wd.Status == domain.WithdrawalPending {
			pending++
		}
	}
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, domain.MetricsSnapshot{
		"total_users":         decimal.NewFromInt(int64(users)),
		"pending_withdrawals": decimal.NewFromInt(int64(pending)),
	})
}

func pathID(r *http.Request) int64 {
	id, _ := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64) //nolint:errcheck // zero matches nothing
	return id
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}
