package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/naveenspark/w7admin/pkg/domain"
)

// Login exchanges credentials for a token. It is never authenticated, so a
// stale token cannot leak into a fresh login.
func (c *Client) Login(ctx context.Context, username, password string) (*domain.LoginResponse, error) {
	var resp domain.LoginResponse
	err := c.do(ctx, call{
		method:    http.MethodPost,
		path:      "/admin/login",
		body:      domain.LoginRequest{Username: username, Password: password},
		out:       &resp,
		anonymous: true,
	})
	if err != nil {
		return nil, fmt.Errorf("client.Login: %w", err)
	}
	if resp.Token == "" {
		return nil, fmt.Errorf("client.Login: response carried no token")
	}
	return &resp, nil
}

// --- Users ---

// ListUsers returns one page of users. page is zero-based.
func (c *Client) ListUsers(ctx context.Context, page, size int) (*domain.UserPage, error) {
	params := url.Values{}
	params.Set("page", strconv.Itoa(page))
	params.Set("size", strconv.Itoa(size))

	var p domain.UserPage
	if err := c.do(ctx, call{method: http.MethodGet, path: "/admin/users", query: params, out: &p}); err != nil {
		return nil, fmt.Errorf("client.ListUsers: %w", err)
	}
	return &p, nil
}

// SearchUsers finds users by mobile number.
func (c *Client) SearchUsers(ctx context.Context, mobile string) ([]domain.User, error) {
	params := url.Values{}
	params.Set("mobile", mobile)

	var users []domain.User
	if err := c.do(ctx, call{method: http.MethodGet, path: "/admin/users/search", query: params, out: &users}); err != nil {
		return nil, fmt.Errorf("client.SearchUsers: %w", err)
	}
	return users, nil
}

// BanUser bans a user with the given reason.
func (c *Client) BanUser(ctx context.Context, userID int64, reason string) error {
	if err := c.post(ctx, idPath("/admin/users", userID, "/ban"), domain.ReasonRequest{Reason: reason}, nil); err != nil {
		return fmt.Errorf("client.BanUser: %w", err)
	}
	return nil
}

// UnbanUser lifts a ban.
func (c *Client) UnbanUser(ctx context.Context, userID int64) error {
	if err := c.post(ctx, idPath("/admin/users", userID, "/unban"), struct{}{}, nil); err != nil {
		return fmt.Errorf("client.UnbanUser: %w", err)
	}
	return nil
}

// AdjustBalance credits (positive) or debits (negative) a user's wallet.
func (c *Client) AdjustBalance(ctx context.Context, userID int64, amount decimal.Decimal, reason string) error {
	body := domain.AdjustBalanceRequest{Amount: amount, Reason: reason}
	if err := c.post(ctx, idPath("/admin/users", userID, "/adjust-balance"), body, nil); err != nil {
		return fmt.Errorf("client.AdjustBalance: %w", err)
	}
	return nil
}

// --- Tasks ---

// ListTasks returns all tasks.
func (c *Client) ListTasks(ctx context.Context) ([]domain.Task, error) {
	var tasks []domain.Task
	if err := c.get(ctx, "/tasks", &tasks); err != nil {
		return nil, fmt.Errorf("client.ListTasks: %w", err)
	}
	return tasks, nil
}

// SaveTask creates the task when its ID is zero and updates it otherwise.
func (c *Client) SaveTask(ctx context.Context, task domain.Task) (*domain.Task, error) {
	var saved domain.Task
	if err := c.post(ctx, "/admin/tasks", task, &saved); err != nil {
		return nil, fmt.Errorf("client.SaveTask: %w", err)
	}
	return &saved, nil
}

// DeleteTask removes a task.
func (c *Client) DeleteTask(ctx context.Context, taskID int64) error {
	if err := c.delete(ctx, idPath("/admin/tasks", taskID, "")); err != nil {
		return fmt.Errorf("client.DeleteTask: %w", err)
	}
	return nil
}

// --- Withdrawals ---

// ListPendingWithdrawals returns withdrawals awaiting a decision.
func (c *Client) ListPendingWithdrawals(ctx context.Context) ([]domain.Withdrawal, error) {
	var ws []domain.Withdrawal
	if err := c.get(ctx, "/admin/withdrawals/pending", &ws); err != nil {
		return nil, fmt.Errorf("client.ListPendingWithdrawals: %w", err)
	}
	return ws, nil
}

// ApproveWithdrawal approves a pending withdrawal.
func (c *Client) ApproveWithdrawal(ctx context.Context, withdrawalID int64) (*domain.Withdrawal, error) {
	var w domain.Withdrawal
	if err := c.post(ctx, idPath("/admin/withdrawals", withdrawalID, "/approve"), struct{}{}, &w); err != nil {
		return nil, fmt.Errorf("client.ApproveWithdrawal: %w", err)
	}
	return &w, nil
}

// RejectWithdrawal rejects a pending withdrawal with the given reason.
func (c *Client) RejectWithdrawal(ctx context.Context, withdrawalID int64, reason string) (*domain.Withdrawal, error) {
	var w domain.Withdrawal
	if err := c.post(ctx, idPath("/admin/withdrawals", withdrawalID, "/reject"), domain.ReasonRequest{Reason: reason}, &w); err != nil {
		return nil, fmt.Errorf("client.RejectWithdrawal: %w", err)
	}
	return &w, nil
}

// --- Configuration ---

// ListConfigs returns all active configuration entries.
func (c *Client) ListConfigs(ctx context.Context) ([]domain.ConfigEntry, error) {
	var entries []domain.ConfigEntry
	if err := c.get(ctx, "/config", &entries); err != nil {
		return nil, fmt.Errorf("client.ListConfigs: %w", err)
	}
	return entries, nil
}

// SetConfig creates or overwrites a configuration entry.
func (c *Client) SetConfig(ctx context.Context, entry domain.ConfigEntry) (*domain.ConfigEntry, error) {
	var saved domain.ConfigEntry
	if err := c.post(ctx, "/config", entry, &saved); err != nil {
		return nil, fmt.Errorf("client.SetConfig: %w", err)
	}
	return &saved, nil
}

// GetConfigValue returns the value stored under key exactly as the backend
// holds it. JSON-typed values are not decoded.
func (c *Client) GetConfigValue(ctx context.Context, key string) (string, error) {
	var value string
	cl := call{method: http.MethodGet, path: "/config/" + url.PathEscape(key), out: &value, raw: true}
	if err := c.do(ctx, cl); err != nil {
		return "", fmt.Errorf("client.GetConfigValue: %w", err)
	}
	return value, nil
}

// GetMaintenanceMode reports whether the app is in maintenance mode.
func (c *Client) GetMaintenanceMode(ctx context.Context) (bool, error) {
	var enabled bool
	if err := c.get(ctx, "/config/maintenance-mode", &enabled); err != nil {
		return false, fmt.Errorf("client.GetMaintenanceMode: %w", err)
	}
	return enabled, nil
}

// SetMaintenanceMode sends a bare JSON boolean, not an object.
func (c *Client) SetMaintenanceMode(ctx context.Context, enabled bool) error {
	if err := c.post(ctx, "/config/maintenance-mode", enabled, nil); err != nil {
		return fmt.Errorf("client.SetMaintenanceMode: %w", err)
	}
	return nil
}

// GetThemeColor returns the app's theme color.
func (c *Client) GetThemeColor(ctx context.Context) (string, error) {
	var color string
	if err := c.get(ctx, "/config/theme-color", &color); err != nil {
		return "", fmt.Errorf("client.GetThemeColor: %w", err)
	}
	return color, nil
}

// SetThemeColor sends a bare JSON string, not an object.
func (c *Client) SetThemeColor(ctx context.Context, color string) error {
	if err := c.post(ctx, "/config/theme-color", color, nil); err != nil {
		return fmt.Errorf("client.SetThemeColor: %w", err)
	}
	return nil
}

// ClearConfigCache drops the backend's cached configuration.
func (c *Client) ClearConfigCache(ctx context.Context) error {
	if err := c.post(ctx, "/config/clear-cache", nil, nil); err != nil {
		return fmt.Errorf("client.ClearConfigCache: %w", err)
	}
	return nil
}

// --- Banners ---

// ListBanners returns active banners. The endpoint is public.
func (c *Client) ListBanners(ctx context.Context) ([]domain.Banner, error) {
	var banners []domain.Banner
	if err := c.get(ctx, "/config/banners", &banners); err != nil {
		return nil, fmt.Errorf("client.ListBanners: %w", err)
	}
	return banners, nil
}

// SaveBanner creates the banner when its ID is zero and updates it otherwise.
func (c *Client) SaveBanner(ctx context.Context, banner domain.Banner) (*domain.Banner, error) {
	var saved domain.Banner
	if err := c.post(ctx, "/config/banners", banner, &saved); err != nil {
		return nil, fmt.Errorf("client.SaveBanner: %w", err)
	}
	return &saved, nil
}

// DeleteBanner removes a banner.
func (c *Client) DeleteBanner(ctx context.Context, bannerID int64) error {
	if err := c.delete(ctx, idPath("/config/banners", bannerID, "")); err != nil {
		return fmt.Errorf("client.DeleteBanner: %w", err)
	}
	return nil
}

// --- Dashboard ---

// Health returns the backend's health report.
func (c *Client) Health(ctx context.Context) (*domain.Health, error) {
	var h domain.Health
	if err := c.get(ctx, "/health", &h); err != nil {
		return nil, fmt.Errorf("client.Health: %w", err)
	}
	return &h, nil
}

// MetricsSnapshot returns the latest metrics of the default brand.
func (c *Client) MetricsSnapshot(ctx context.Context) (domain.MetricsSnapshot, error) {
	var snap domain.MetricsSnapshot
	if err := c.get(ctx, "/api/analytics/snapshot", &snap); err != nil {
		return nil, fmt.Errorf("client.MetricsSnapshot: %w", err)
	}
	return snap, nil
}
