package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/term"
	"go.uber.org/zap"

	"github.com/naveenspark/w7admin/internal/config"
	"github.com/naveenspark/w7admin/internal/guard"
	"github.com/naveenspark/w7admin/internal/logging"
	"github.com/naveenspark/w7admin/internal/session"
	"github.com/naveenspark/w7admin/internal/telemetry"
	"github.com/naveenspark/w7admin/internal/tui"
	"github.com/naveenspark/w7admin/pkg/client"
)

// version is set at build time via -ldflags "-X main.version=..."
var version = "dev"

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// readPassword reads a password without echo when stdin is a terminal.
var readPassword = func(in io.Reader, r *bufio.Reader) (string, error) {
	if f, ok := in.(*os.File); ok && term.IsTerminal(f.Fd()) {
		b, err := term.ReadPassword(f.Fd())
		return string(b), err
	}
	line, err := r.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// env is everything a subcommand needs once configuration has loaded.
type env struct {
	cfg      config.Config
	log      *zap.Logger
	sessions *session.Store
	client   *client.Client
	in       io.Reader
	out      io.Writer
}

func run(args []string, stdin io.Reader, stdout io.Writer) error {
	start := guard.Root
	var rest []string
	for i := 0; i < len(args); i++ {
		switch a := args[i]; {
		case a == "--route":
			if i+1 >= len(args) {
				return fmt.Errorf("--route needs a value")
			}
			i++
			start = guard.ParseRoute(args[i])
		case strings.HasPrefix(a, "--route="):
			start = guard.ParseRoute(strings.TrimPrefix(a, "--route="))
		default:
			rest = append(rest, a)
		}
	}

	cmd := ""
	if len(rest) > 0 {
		cmd = rest[0]
	}
	switch cmd {
	case "--version", "version", "-v":
		fmt.Fprintln(stdout, "w7admin "+version)
		return nil
	case "help", "--help", "-h":
		printHelp(stdout)
		return nil
	}

	cfg, err := config.Load(".env")
	if err != nil {
		return err
	}
	log, err := logging.New(cfg.LogFile(), cfg.Debug)
	if err != nil {
		return err
	}
	defer log.Sync() //nolint:errcheck

	ctx := context.Background()
	shutdown := telemetry.Setup(ctx, telemetry.Options{
		ServiceName:    "w7admin",
		ServiceVersion: version,
		Endpoint:       cfg.OTLPEndpoint,
		Insecure:       cfg.OTLPInsecure,
	}, log)
	defer func() {
		shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(shutCtx); err != nil {
			log.Warn("telemetry shutdown", zap.Error(err))
		}
	}()

	sessions, err := session.Open(session.NewFileKV(cfg.StateDir), log)
	if err != nil {
		return err
	}
	e := env{
		cfg:      cfg,
		log:      log,
		sessions: sessions,
		client:   client.New(cfg.APIURL, sessions, client.WithTimeout(cfg.Timeout), client.WithLogger(log)),
		in:       stdin,
		out:      stdout,
	}
	log.Info("w7admin starting",
		zap.String("version", version),
		zap.String("command", cmd),
		zap.String("api_url", cfg.APIURL),
	)

	switch cmd {
	case "":
		return e.runTUI(start)
	case "login":
		return e.runLogin(ctx)
	case "logout":
		return e.runLogout()
	case "whoami":
		return e.runWhoami()
	case "config":
		if len(rest) != 3 || rest[1] != "get" {
			return fmt.Errorf("usage: w7admin config get KEY")
		}
		return e.runConfigGet(ctx, rest[2])
	}
	return fmt.Errorf("unknown command %q (try w7admin help)", cmd)
}

func (e env) runTUI(start guard.Route) error {
	app := tui.NewApp(tui.Options{
		Client:   e.client,
		Sessions: e.sessions,
		Logger:   e.log,
		Version:  version,
		PageSize: e.cfg.PageSize,
		Start:    start,
	})
	p := tea.NewProgram(app, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("tui error: %w", err)
	}
	return nil
}

func (e env) runLogin(ctx context.Context) error {
	r := bufio.NewReader(e.in)
	fmt.Fprint(e.out, "username: ")
	username, err := r.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("read username: %w", err)
	}
	username = strings.TrimSpace(username)
	fmt.Fprint(e.out, "password: ")
	password, err := readPassword(e.in, r)
	if err != nil {
		return fmt.Errorf("read password: %w", err)
	}
	fmt.Fprintln(e.out)
	if username == "" || password == "" {
		return fmt.Errorf("username and password are required")
	}

	resp, err := e.client.Login(ctx, username, password)
	if err != nil {
		return errors.New(client.Message(err, "Login failed"))
	}
	if err := e.sessions.Establish(resp.Token, resp.Admin()); err != nil {
		return err
	}
	printSignedIn(e.out, resp.Username, e.cfg.APIURL)
	return nil
}

func (e env) runLogout() error {
	if !e.sessions.Active() {
		fmt.Fprintln(e.out, "Already logged out.")
		return nil
	}
	if err := e.sessions.Clear(); err != nil {
		return err
	}
	fmt.Fprintln(e.out, "Logged out.")
	return nil
}

func (e env) runWhoami() error {
	sess, ok := e.sessions.Current()
	if !ok {
		printSignedOut(e.out)
		return nil
	}
	a := sess.Admin
	fmt.Fprintf(e.out, "%s", a.Username)
	if a.Role != "" {
		fmt.Fprintf(e.out, " (%s)", a.Role)
	}
	if a.Email != "" {
		fmt.Fprintf(e.out, " <%s>", a.Email)
	}
	fmt.Fprintln(e.out)
	fmt.Fprintf(e.out, "backend: %s\n", e.cfg.APIURL)
	if claims, ok := session.ParseClaims(sess.Token); ok && !claims.ExpiresAt.IsZero() {
		if claims.Expired(time.Now()) {
			fmt.Fprintf(e.out, "token expired at %s\n", claims.ExpiresAt.Format(time.RFC3339))
		} else {
			fmt.Fprintf(e.out, "token expires at %s\n", claims.ExpiresAt.Format(time.RFC3339))
		}
	}
	return nil
}

func (e env) runConfigGet(ctx context.Context, key string) error {
	value, err := e.client.GetConfigValue(ctx, key)
	if err != nil {
		if client.IsStatus(err, 404) {
			return fmt.Errorf("no config entry %q", key)
		}
		return errors.New(client.Message(err, "Failed to read "+key))
	}
	fmt.Fprintln(e.out, value)
	return nil
}
