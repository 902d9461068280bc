package tui

import (
	"fmt"
	"net/http"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/naveenspark/w7admin/internal/backendtest"
	"github.com/naveenspark/w7admin/internal/guard"
	"github.com/naveenspark/w7admin/internal/session"
	"github.com/naveenspark/w7admin/pkg/client"
	"github.com/naveenspark/w7admin/pkg/domain"
)

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "backspace":
		return tea.KeyMsg{Type: tea.KeyBackspace}
	case "ctrl+c":
		return tea.KeyMsg{Type: tea.KeyCtrlC}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// run executes cmd and feeds every resulting message back into the app until
// nothing is left, the way the Bubbletea runtime would.
func run(t *testing.T, a App, cmd tea.Cmd) App {
	t.Helper()
	queue := []tea.Cmd{cmd}
	for steps := 0; len(queue) > 0; steps++ {
		if steps > 200 {
			t.Fatal("command loop did not settle")
		}
		c := queue[0]
		queue = queue[1:]
		if c == nil {
			continue
		}
		switch msg := c().(type) {
		case nil, shimmerTickMsg, tea.QuitMsg:
		case tea.BatchMsg:
			queue = append(queue, msg...)
		default:
			model, next := a.Update(msg)
			a = model.(App)
			queue = append(queue, next)
		}
	}
	return a
}

func drive(t *testing.T, a App, msgs ...tea.Msg) App {
	t.Helper()
	for _, msg := range msgs {
		model, cmd := a.Update(msg)
		a = run(t, model.(App), cmd)
	}
	return a
}

func typeText(t *testing.T, a App, s string) App {
	t.Helper()
	for _, r := range s {
		a = drive(t, a, key(string(r)))
	}
	return a
}

type scenario struct {
	be    *backendtest.Server
	store *session.Store
	app   App
}

// newScenario starts a fake backend and an app pointed at it. A signed-in
// scenario holds the token the backend accepts.
func newScenario(t *testing.T, signedIn bool, start guard.Route) *scenario {
	t.Helper()
	be := backendtest.New()
	t.Cleanup(be.Close)
	return newScenarioWith(t, be, signedIn, start)
}

func newScenarioWith(t *testing.T, be *backendtest.Server, signedIn bool, start guard.Route) *scenario {
	t.Helper()
	store, err := session.Open(session.NewMemoryKV(), zap.NewNop())
	if err != nil {
		t.Fatalf("session.Open: %v", err)
	}
	if signedIn {
		if err := store.Establish(backendtest.Token, domain.Admin{ID: 1, Username: backendtest.Username, Role: "ADMIN"}); err != nil {
			t.Fatalf("Establish: %v", err)
		}
	}
	a := NewApp(Options{
		Client:   client.New(be.URL, store),
		Sessions: store,
		Version:  "test",
		PageSize: 10,
		Start:    start,
	})
	a.width = 100
	a.height = 40
	a = run(t, a, a.initCmd)
	return &scenario{be: be, store: store, app: a}
}

func TestAppLoginLandsOnDashboard(t *testing.T) {
	s := newScenario(t, false, guard.Root)
	if s.app.Route() != guard.Login {
		t.Fatalf("start route = %s, want %s", s.app.Route(), guard.Login)
	}

	a := typeText(t, s.app, backendtest.Username)
	a = drive(t, a, key("enter"))
	a = typeText(t, a, backendtest.Password)
	a = drive(t, a, key("enter"))

	if a.Route() != guard.Dashboard {
		t.Fatalf("route after login = %s, want %s", a.Route(), guard.Dashboard)
	}
	if token, ok := s.store.BearerToken(); !ok || token != backendtest.Token {
		t.Errorf("stored token = %q, %v", token, ok)
	}
	if n := s.be.Count(http.MethodGet, "/health"); n != 1 {
		t.Errorf("health fetched %d times, want 1", n)
	}
	if n := s.be.Count(http.MethodGet, "/api/analytics/snapshot"); n != 1 {
		t.Errorf("snapshot fetched %d times, want 1", n)
	}
	view := a.View()
	if !strings.Contains(view, backendtest.Username) {
		t.Errorf("dashboard does not show the signed-in admin:\n%s", view)
	}
}

func TestAppLoginInvalidCredentials(t *testing.T) {
	s := newScenario(t, false, guard.Login)

	a := typeText(t, s.app, backendtest.Username)
	a = drive(t, a, key("enter"))
	a = typeText(t, a, "wrong")
	a = drive(t, a, key("enter"))

	if a.Route() != guard.Login {
		t.Fatalf("route = %s, want %s", a.Route(), guard.Login)
	}
	if a.login.err != "Invalid credentials" {
		t.Errorf("login error = %q, want %q", a.login.err, "Invalid credentials")
	}
	if a.login.password != "" {
		t.Error("password kept after a failed login")
	}
	if s.store.Active() {
		t.Error("session established after a failed login")
	}
	if !strings.Contains(a.View(), "Invalid credentials") {
		t.Error("error not rendered")
	}
}

func TestAppGuardRedirectsToLogin(t *testing.T) {
	for _, start := range guard.Protected {
		t.Run(string(start), func(t *testing.T) {
			s := newScenario(t, false, start)
			if s.app.Route() != guard.Login {
				t.Errorf("route = %s, want %s", s.app.Route(), guard.Login)
			}
			for _, r := range s.be.Requests() {
				if r.Path != "/admin/login" {
					t.Errorf("unexpected request before sign in: %s %s", r.Method, r.Path)
				}
			}
		})
	}
}

func TestAppSignedInSkipsLogin(t *testing.T) {
	s := newScenario(t, true, guard.Login)
	if s.app.Route() != guard.Dashboard {
		t.Errorf("route = %s, want %s", s.app.Route(), guard.Dashboard)
	}
}

func TestAppTabSwitching(t *testing.T) {
	tests := []struct {
		key  string
		want guard.Route
		path string
	}{
		{"2", guard.Users, "/admin/users"},
		{"3", guard.Tasks, "/tasks"},
		{"4", guard.Withdrawals, "/admin/withdrawals/pending"},
		{"5", guard.Configuration, "/config"},
	}
	for _, tc := range tests {
		t.Run(tc.key, func(t *testing.T) {
			s := newScenario(t, true, guard.Dashboard)
			a := drive(t, s.app, key(tc.key))
			if a.Route() != tc.want {
				t.Fatalf("route = %s, want %s", a.Route(), tc.want)
			}
			if s.be.Count(http.MethodGet, tc.path) != 1 {
				t.Errorf("GET %s not fetched on activation", tc.path)
			}
		})
	}
}

func TestAppRoutePrompt(t *testing.T) {
	s := newScenario(t, true, guard.Dashboard)

	a := drive(t, s.app, key(":"))
	if !a.routeOpen {
		t.Fatal("':' did not open the route prompt")
	}
	a = typeText(t, a, "payouts")
	a = drive(t, a, key("enter"))
	if a.Route() != guard.Withdrawals {
		t.Errorf("route = %s, want %s", a.Route(), guard.Withdrawals)
	}

	a = drive(t, a, key(":"))
	a = typeText(t, a, "nowhere")
	a = drive(t, a, key("enter"))
	if a.Route() != guard.Dashboard {
		t.Errorf("unknown route landed on %s, want %s", a.Route(), guard.Dashboard)
	}
}

func TestAppLogout(t *testing.T) {
	s := newScenario(t, true, guard.Users)

	a := drive(t, s.app, key("L"))
	if a.Route() != guard.Login {
		t.Fatalf("route = %s, want %s", a.Route(), guard.Login)
	}
	if s.store.Active() {
		t.Error("session survived logout")
	}
	if a.login.notice != noticeSignedOut {
		t.Errorf("notice = %q, want %q", a.login.notice, noticeSignedOut)
	}
}

func TestAppQuit(t *testing.T) {
	s := newScenario(t, true, guard.Dashboard)
	_, cmd := s.app.Update(key("q"))
	if cmd == nil {
		t.Fatal("expected quit command on 'q', got nil")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("'q' did not quit")
	}
}

func TestAppQIgnoredOnLogin(t *testing.T) {
	s := newScenario(t, false, guard.Login)
	a := drive(t, s.app, key("q"))
	if a.login.username != "q" {
		t.Errorf("'q' on login should type into username, got %q", a.login.username)
	}
}

func TestAppExpiredSessionReturnsToLogin(t *testing.T) {
	be := backendtest.New()
	t.Cleanup(be.Close)
	be.AddUser("9000000001", false)
	s := newScenarioWith(t, be, true, guard.Dashboard)

	be.Fail(http.MethodGet, "/admin/users", http.StatusUnauthorized, `{"error":"unauthorized"}`)
	a := drive(t, s.app, key("2"))

	if a.Route() != guard.Login {
		t.Fatalf("route = %s, want %s", a.Route(), guard.Login)
	}
	if s.store.Active() {
		t.Error("session still active after a 401")
	}
	if !strings.Contains(a.login.notice, "expired") {
		t.Errorf("notice = %q, want an expiry notice", a.login.notice)
	}
	if !strings.Contains(a.View(), noticeExpired) {
		t.Error("expiry notice not rendered")
	}
}

func TestAppForbiddenIsAnOrdinaryError(t *testing.T) {
	be := backendtest.New()
	t.Cleanup(be.Close)
	w := be.AddWithdrawal(7, "100.00")
	s := newScenarioWith(t, be, true, guard.Withdrawals)

	be.Fail(http.MethodPost, fmt.Sprintf("/admin/withdrawals/%d/approve", w.ID), http.StatusForbidden, `{"message":"Not allowed"}`)
	a := drive(t, s.app, key("a"), key("y"))

	if a.Route() != guard.Withdrawals {
		t.Fatalf("route = %s, want %s", a.Route(), guard.Withdrawals)
	}
	if !s.store.Active() {
		t.Error("a 403 ended the session")
	}
	if a.withdrawals.in.dialog != "Not allowed" {
		t.Errorf("dialog = %q, want %q", a.withdrawals.in.dialog, "Not allowed")
	}
}

func TestAppBanWithEmptyReasonSendsNothing(t *testing.T) {
	be := backendtest.New()
	t.Cleanup(be.Close)
	u := be.AddUser("9000000001", false)
	s := newScenarioWith(t, be, true, guard.Users)

	a := drive(t, s.app, key("b"))
	if !a.users.in.form.open {
		t.Fatal("'b' did not open the reason prompt")
	}
	a = drive(t, a, key("enter"))

	if n := be.Count(http.MethodPost, fmt.Sprintf("/admin/users/%d/ban", u.ID)); n != 0 {
		t.Errorf("ban sent %d times with an empty reason", n)
	}
	if !strings.Contains(a.users.in.status, "reason is required") {
		t.Errorf("status = %q", a.users.in.status)
	}
}

func TestAppBanUser(t *testing.T) {
	be := backendtest.New()
	t.Cleanup(be.Close)
	u := be.AddUser("9000000001", false)
	s := newScenarioWith(t, be, true, guard.Users)

	a := drive(t, s.app, key("b"))
	a = typeText(t, a, "fraud")
	a = drive(t, a, key("enter"))

	req, ok := be.Last(http.MethodPost, fmt.Sprintf("/admin/users/%d/ban", u.ID))
	if !ok {
		t.Fatal("ban not sent")
	}
	if !strings.Contains(string(req.Body), `"reason":"fraud"`) {
		t.Errorf("ban body = %s", req.Body)
	}
	if got, _ := be.User(u.ID); !got.IsBanned {
		t.Error("user not banned on the backend")
	}
	if a.users.in.status != "User banned" {
		t.Errorf("status = %q, want %q", a.users.in.status, "User banned")
	}
	if be.Count(http.MethodGet, "/admin/users") != 2 {
		t.Error("list not refetched after the ban")
	}
	if users := a.users.users(); len(users) != 1 || !users[0].IsBanned {
		t.Errorf("refetched list = %+v", users)
	}
}

func TestAppAdjustBalance(t *testing.T) {
	be := backendtest.New()
	t.Cleanup(be.Close)
	u := be.AddUser("9000000001", false)
	s := newScenarioWith(t, be, true, guard.Users)

	a := drive(t, s.app, key("a"))
	a = typeText(t, a, "-12.50")
	a = drive(t, a, key("enter"))
	a = typeText(t, a, "refund reversal")
	a = drive(t, a, key("enter"))

	if got := be.Balance(u.ID).String(); got != "-12.5" {
		t.Errorf("balance = %s, want -12.5", got)
	}
	if a.users.in.status != "Balance adjusted by ₹-12.50" {
		t.Errorf("status = %q", a.users.in.status)
	}
}

func TestAppFetchFailureKeepsData(t *testing.T) {
	be := backendtest.New()
	t.Cleanup(be.Close)
	be.AddUser("9000000001", false)
	s := newScenarioWith(t, be, true, guard.Users)

	be.Fail(http.MethodGet, "/admin/users", http.StatusInternalServerError, `{"message":"database unavailable"}`)
	a := drive(t, s.app, key("r"))

	msg, failed := a.users.list.failure()
	if !failed || msg != "database unavailable" {
		t.Errorf("failure = %q, %v", msg, failed)
	}
	if len(a.users.users()) != 1 {
		t.Errorf("earlier data dropped: %d users", len(a.users.users()))
	}
	view := a.View()
	if !strings.Contains(view, "database unavailable") || !strings.Contains(view, "9000000001") {
		t.Errorf("view should show both the failure and the old rows:\n%s", view)
	}

	a = drive(t, a, key("r"))
	if _, failed := a.users.list.failure(); failed {
		t.Error("retry did not clear the failure")
	}
}

func TestAppFirstFetchFailureShowsBanner(t *testing.T) {
	be := backendtest.New()
	t.Cleanup(be.Close)
	be.AddUser("9000000001", false)
	be.Fail(http.MethodGet, "/admin/users", http.StatusInternalServerError, `{"message":"database unavailable"}`)
	s := newScenarioWith(t, be, true, guard.Users)

	if n := len(s.app.users.users()); n != 0 {
		t.Errorf("users = %d, want none after a failed first load", n)
	}
	view := s.app.View()
	if !strings.Contains(view, "database unavailable") {
		t.Errorf("failure banner missing:\n%s", view)
	}
	if strings.Contains(view, "9000000001") || strings.Contains(view, "no users found") {
		t.Errorf("failed first load should render neither rows nor the empty state:\n%s", view)
	}
}

func TestAppApproveWithdrawal(t *testing.T) {
	be := backendtest.New()
	t.Cleanup(be.Close)
	w := be.AddWithdrawal(42, "250.00")
	s := newScenarioWith(t, be, true, guard.Withdrawals)

	a := drive(t, s.app, key("a"))
	if !strings.Contains(a.withdrawals.in.ask, "₹250.00") {
		t.Errorf("question = %q", a.withdrawals.in.ask)
	}
	a = drive(t, a, key("y"))

	if got, _ := be.Withdrawal(w.ID); got.Status != domain.WithdrawalApproved {
		t.Errorf("backend status = %s", got.Status)
	}
	if len(a.withdrawals.pending()) != 0 {
		t.Errorf("approved withdrawal still listed: %+v", a.withdrawals.pending())
	}
	if a.withdrawals.in.status != "Withdrawal approved" {
		t.Errorf("status = %q", a.withdrawals.in.status)
	}
}

func TestAppRejectWithdrawalNeedsReason(t *testing.T) {
	be := backendtest.New()
	t.Cleanup(be.Close)
	w := be.AddWithdrawal(42, "99.00")
	s := newScenarioWith(t, be, true, guard.Withdrawals)

	a := drive(t, s.app, key("x"), key("enter"))
	path := fmt.Sprintf("/admin/withdrawals/%d/reject", w.ID)
	if be.Count(http.MethodPost, path) != 0 {
		t.Fatal("reject sent without a reason")
	}

	a = drive(t, a, key("x"))
	a = typeText(t, a, "kyc mismatch")
	a = drive(t, a, key("enter"))
	if got, _ := be.Withdrawal(w.ID); got.Status != domain.WithdrawalRejected {
		t.Errorf("backend status = %s", got.Status)
	}
	if a.withdrawals.in.status != "Withdrawal rejected" {
		t.Errorf("status = %q", a.withdrawals.in.status)
	}
}

func TestAppMutationFailureDialogBlocksKeys(t *testing.T) {
	be := backendtest.New()
	t.Cleanup(be.Close)
	w := be.AddWithdrawal(42, "250.00")
	s := newScenarioWith(t, be, true, guard.Withdrawals)

	be.Fail(http.MethodPost, fmt.Sprintf("/admin/withdrawals/%d/approve", w.ID), http.StatusConflict, `{"message":"Withdrawal is not pending"}`)
	a := drive(t, s.app, key("a"), key("y"))

	if a.withdrawals.in.dialog != "Withdrawal is not pending" {
		t.Fatalf("dialog = %q", a.withdrawals.in.dialog)
	}
	if !strings.Contains(a.View(), "Withdrawal is not pending") {
		t.Error("dialog not rendered")
	}

	model, cmd := a.Update(key("q"))
	a = model.(App)
	if cmd != nil {
		if _, quit := cmd().(tea.QuitMsg); quit {
			t.Fatal("'q' quit while a dialog was open")
		}
	}
	if a.withdrawals.in.dialog == "" {
		t.Fatal("dialog dismissed by 'q'")
	}

	a = drive(t, a, key("enter"))
	if a.withdrawals.in.dialog != "" {
		t.Error("enter did not dismiss the dialog")
	}
	if len(a.withdrawals.pending()) != 1 {
		t.Error("failed approval changed the list")
	}
}

func TestAppSecondMutationRefusedWhileBusy(t *testing.T) {
	be := backendtest.New()
	t.Cleanup(be.Close)
	be.AddWithdrawal(42, "10.00")
	be.AddWithdrawal(43, "20.00")
	s := newScenarioWith(t, be, true, guard.Withdrawals)

	a := drive(t, s.app, key("a"))
	model, first := a.Update(key("y"))
	a = model.(App)
	if first == nil || !a.withdrawals.in.busy {
		t.Fatal("approve did not start")
	}

	a = drive(t, a, key("j"), key("a"))
	model, second := a.Update(key("y"))
	a = model.(App)
	if second != nil {
		t.Fatal("second approve started while the first was in flight")
	}
	if !strings.HasPrefix(a.withdrawals.in.status, "busy:") {
		t.Errorf("status = %q", a.withdrawals.in.status)
	}

	a = run(t, a, first)
	if a.withdrawals.in.busy {
		t.Error("still busy after the first approve finished")
	}
	total := 0
	for _, r := range be.Requests() {
		if r.Method == http.MethodPost && strings.HasSuffix(r.Path, "/approve") {
			total++
		}
	}
	if total != 1 {
		t.Errorf("approve sent %d times, want 1", total)
	}
}

func TestAppDropsMessagesForInactiveView(t *testing.T) {
	s := newScenario(t, true, guard.Users)

	a := drive(t, s.app, withdrawalsLoadedMsg{
		gen: s.app.withdrawals.in.gen,
		err: &client.HTTPError{StatusCode: http.StatusUnauthorized},
	})
	if a.Route() != guard.Users {
		t.Errorf("route = %s, want %s", a.Route(), guard.Users)
	}
	if !s.store.Active() {
		t.Error("a result for an inactive view ended the session")
	}
}

func TestAppDropsStaleResults(t *testing.T) {
	be := backendtest.New()
	t.Cleanup(be.Close)
	be.AddUser("9000000001", false)
	s := newScenarioWith(t, be, true, guard.Users)

	stale := usersLoadedMsg{
		gen:  s.app.users.in.gen - 1,
		page: &domain.UserPage{Users: []domain.User{{ID: 1, Mobile: "stale"}}},
	}
	a := drive(t, s.app, stale)
	users := a.users.users()
	if len(users) != 1 || users[0].Mobile != "9000000001" {
		t.Errorf("stale page applied: %+v", users)
	}

	a = drive(t, a, mutationDoneMsg{route: guard.Users, gen: a.users.in.gen - 1, success: "stale"})
	if a.users.in.status == "stale" {
		t.Error("stale mutation result applied")
	}
}

func TestAppViewRendersTabBar(t *testing.T) {
	s := newScenario(t, true, guard.Tasks)
	view := s.app.View()
	for _, r := range guard.Protected {
		if !strings.Contains(view, r.Title()) {
			t.Errorf("tab bar missing %q", r.Title())
		}
	}

	login := newScenario(t, false, guard.Login).app.View()
	if strings.Contains(login, "Withdrawals") {
		t.Error("tab bar shown on the login screen")
	}
}

func TestAppShimmerFrameIncrements(t *testing.T) {
	s := newScenario(t, false, guard.Login)
	model, cmd := s.app.Update(shimmerTickMsg{})
	if model.(App).frame != s.app.frame+1 {
		t.Error("shimmer frame did not advance")
	}
	if cmd == nil {
		t.Error("shimmer tick not rescheduled")
	}
}
