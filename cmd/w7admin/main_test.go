package main

import (
	"bytes"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/naveenspark/w7admin/internal/backendtest"
	"github.com/naveenspark/w7admin/internal/config"
	"github.com/naveenspark/w7admin/internal/session"
	"github.com/naveenspark/w7admin/pkg/domain"
)

// setup points the CLI at a fake backend and a fresh state dir.
func setup(t *testing.T) (*backendtest.Server, string) {
	t.Helper()
	be := backendtest.New()
	t.Cleanup(be.Close)
	dir := t.TempDir()
	for _, k := range []string{config.EnvTimeout, config.EnvPageSize, config.EnvDebug, config.EnvConfigFile, config.EnvOTLPEndpoint, config.EnvOTLPInsecure} {
		t.Setenv(k, "")
	}
	t.Setenv(config.EnvAPIURL, be.URL)
	t.Setenv(config.EnvStateDir, dir)
	return be, dir
}

func openStore(t *testing.T, dir string) *session.Store {
	t.Helper()
	s, err := session.Open(session.NewFileKV(dir), zap.NewNop())
	if err != nil {
		t.Fatalf("session.Open: %v", err)
	}
	return s
}

func TestVersionAndHelpNeedNoConfig(t *testing.T) {
	t.Setenv(config.EnvAPIURL, "not a url")

	var out bytes.Buffer
	if err := run([]string{"--version"}, strings.NewReader(""), &out); err != nil {
		t.Fatalf("version: %v", err)
	}
	if !strings.Contains(out.String(), "w7admin "+version) {
		t.Errorf("version output = %q", out.String())
	}

	out.Reset()
	if err := run([]string{"help"}, strings.NewReader(""), &out); err != nil {
		t.Fatalf("help: %v", err)
	}
	for _, want := range []string{"login", "logout", "whoami", "config get KEY"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("help missing %q", want)
		}
	}
}

func TestLoginStoresSession(t *testing.T) {
	_, dir := setup(t)

	var out bytes.Buffer
	in := strings.NewReader(backendtest.Username + "\n" + backendtest.Password + "\n")
	if err := run([]string{"login"}, in, &out); err != nil {
		t.Fatalf("login: %v", err)
	}
	if !strings.Contains(out.String(), backendtest.Username) {
		t.Errorf("output = %q", out.String())
	}

	sess, ok := openStore(t, dir).Current()
	if !ok || sess.Token != backendtest.Token || sess.Admin.Username != backendtest.Username {
		t.Errorf("stored session = %+v, %v", sess, ok)
	}
	if _, err := os.Stat(filepath.Join(dir, "w7admin.log")); err != nil {
		t.Errorf("log file not written: %v", err)
	}
}

func TestLoginInvalidCredentials(t *testing.T) {
	_, dir := setup(t)

	in := strings.NewReader(backendtest.Username + "\nwrong\n")
	err := run([]string{"login"}, in, &bytes.Buffer{})
	if err == nil || err.Error() != "Invalid credentials" {
		t.Fatalf("err = %v, want Invalid credentials", err)
	}
	if openStore(t, dir).Active() {
		t.Error("session stored after a failed login")
	}
}

func TestLoginEmptyInputSendsNothing(t *testing.T) {
	be, _ := setup(t)

	if err := run([]string{"login"}, strings.NewReader("\n\n"), &bytes.Buffer{}); err == nil {
		t.Fatal("expected an error for empty credentials")
	}
	if be.Count(http.MethodPost, "/admin/login") != 0 {
		t.Error("login sent with empty credentials")
	}
}

func TestLogoutAndWhoami(t *testing.T) {
	_, dir := setup(t)
	if err := openStore(t, dir).Establish(backendtest.Token, domain.Admin{Username: "ops", Role: "ADMIN"}); err != nil {
		t.Fatal(err)
	}

	var out bytes.Buffer
	if err := run([]string{"whoami"}, strings.NewReader(""), &out); err != nil {
		t.Fatalf("whoami: %v", err)
	}
	if !strings.Contains(out.String(), "ops (ADMIN)") {
		t.Errorf("whoami output = %q", out.String())
	}

	out.Reset()
	if err := run([]string{"logout"}, strings.NewReader(""), &out); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if !strings.Contains(out.String(), "Logged out.") {
		t.Errorf("logout output = %q", out.String())
	}
	if openStore(t, dir).Active() {
		t.Error("session survived logout")
	}

	out.Reset()
	if err := run([]string{"logout"}, strings.NewReader(""), &out); err != nil {
		t.Fatalf("second logout: %v", err)
	}
	if !strings.Contains(out.String(), "Already logged out.") {
		t.Errorf("second logout output = %q", out.String())
	}

	out.Reset()
	if err := run([]string{"whoami"}, strings.NewReader(""), &out); err != nil {
		t.Fatalf("whoami signed out: %v", err)
	}
	if !strings.Contains(out.String(), "Not signed in.") {
		t.Errorf("whoami output = %q", out.String())
	}
}

func TestConfigGet(t *testing.T) {
	be, dir := setup(t)
	if err := openStore(t, dir).Establish(backendtest.Token, domain.Admin{Username: "ops"}); err != nil {
		t.Fatal(err)
	}

	var out bytes.Buffer
	if err := run([]string{"config", "get", "theme-color"}, strings.NewReader(""), &out); err != nil {
		t.Fatalf("config get: %v", err)
	}
	if strings.TrimSpace(out.String()) != be.ThemeColor() {
		t.Errorf("output = %q, want %q", out.String(), be.ThemeColor())
	}

	be.AddConfig(domain.ConfigEntry{ConfigKey: "labels", ConfigValue: `"quoted"`, ConfigType: domain.ConfigTypeJSON})
	be.AddConfig(domain.ConfigEntry{ConfigKey: "fallback", ConfigValue: "null", ConfigType: domain.ConfigTypeJSON})
	for key, want := range map[string]string{"labels": `"quoted"`, "fallback": "null"} {
		out.Reset()
		if err := run([]string{"config", "get", key}, strings.NewReader(""), &out); err != nil {
			t.Fatalf("config get %s: %v", key, err)
		}
		if got := strings.TrimSuffix(out.String(), "\n"); got != want {
			t.Errorf("config get %s = %q, want %q", key, got, want)
		}
	}

	err := run([]string{"config", "get", "no-such-key"}, strings.NewReader(""), &bytes.Buffer{})
	if err == nil || !strings.Contains(err.Error(), "no-such-key") {
		t.Errorf("missing key err = %v", err)
	}

	if err := run([]string{"config", "get"}, strings.NewReader(""), &bytes.Buffer{}); err == nil {
		t.Error("config get without a key accepted")
	}
}

func TestUnknownCommand(t *testing.T) {
	setup(t)
	err := run([]string{"frobnicate"}, strings.NewReader(""), &bytes.Buffer{})
	if err == nil || !strings.Contains(err.Error(), "frobnicate") {
		t.Errorf("err = %v", err)
	}
}

func TestRouteFlagNeedsValue(t *testing.T) {
	if err := run([]string{"--route"}, strings.NewReader(""), &bytes.Buffer{}); err == nil {
		t.Error("--route without a value accepted")
	}
}

func TestBadConfigFails(t *testing.T) {
	setup(t)
	t.Setenv(config.EnvAPIURL, "ftp://example.com")
	if err := run([]string{"whoami"}, strings.NewReader(""), &bytes.Buffer{}); err == nil {
		t.Error("invalid API URL accepted")
	}
}
