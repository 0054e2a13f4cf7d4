// ABOUTME: Interactive terminal client for an agentwire backend conversation.
// ABOUTME: Wires config, auth, socket session, dispatch and state into a readline loop.

package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/fatih/color"

	"github.com/2389/agentwire/internal/auth"
	"github.com/2389/agentwire/internal/config"
	"github.com/2389/agentwire/internal/dispatch"
	"github.com/2389/agentwire/internal/errtrack"
	"github.com/2389/agentwire/internal/history"
	"github.com/2389/agentwire/internal/notify"
	"github.com/2389/agentwire/internal/protocol"
	"github.com/2389/agentwire/internal/restapi"
	"github.com/2389/agentwire/internal/session"
	"github.com/2389/agentwire/internal/state"
)

// getToken returns the bearer token from AGENTWIRE_TOKEN env var or the
// ~/.config/agentwire/token file.
func getToken() string {
	if token := os.Getenv("AGENTWIRE_TOKEN"); token != "" {
		return token
	}

	dir := configDir()
	if dir == "" {
		return ""
	}
	data, err := os.ReadFile(filepath.Join(dir, "agentwire", "token"))
	if err != nil {
		return ""
	}

	return strings.TrimSpace(string(data))
}

func main() {
	configPath := flag.String("config", "agentwire.yaml", "Path to config file")
	profPath := flag.String("profile", profilePath(), "Path to client profile file")
	conversation := flag.String("conversation", "", "Conversation ID (overrides config)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if *conversation != "" {
		cfg.Conversation.ID = *conversation
	}

	prof, err := loadProfile(*profPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if !prof.Display.Color {
		color.NoColor = true
	}

	fmt.Printf("agentwire-tui connected to %s (conversation %s)\n", cfg.Server.BaseURL, cfg.Conversation.ID)
	if cfg.Auth.TokenEndpoint != "" {
		fmt.Println("Auth: token endpoint configured")
	} else if getToken() != "" {
		fmt.Println("Auth: static token configured (AGENTWIRE_TOKEN)")
	} else {
		fmt.Println("Auth: none (set AGENTWIRE_TOKEN for authentication)")
	}
	fmt.Println("Type a message and press Enter. /help for commands. Ctrl+C to quit.")
	fmt.Println()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, cfg, prof); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("\nGoodbye!")
}

func setupLogger(cfg config.LoggingConfig) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn", "":
		// Default to warn: the transcript owns stdout, logs stay quiet.
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelWarn
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}

	return slog.New(handler)
}

// frameSink feeds inbound frames to the dispatcher and, when a history log
// is configured, persists them for cross-restart resume.
type frameSink struct {
	dispatcher     *dispatch.Dispatcher
	hist           *history.Log
	conversationID string
	logger         *slog.Logger
}

func (s *frameSink) HandleFrame(data []byte) {
	if s.hist != nil {
		frame, err := protocol.Decode(data)
		if err == nil {
			eventID, kind := frameIdentity(frame)
			if err := s.hist.Append(context.Background(), s.conversationID, eventID, kind, data); err != nil {
				s.logger.Warn("persisting event failed", "error", err)
			}
		}
	}
	s.dispatcher.HandleFrame(data)
}

func frameIdentity(f protocol.Frame) (int64, string) {
	switch frame := f.(type) {
	case protocol.ActionFrame:
		return frame.ID, "action"
	case protocol.ObservationFrame:
		return frame.ID, "observation"
	case protocol.StatusFrame:
		return 0, "status"
	case protocol.TokenFrame:
		return 0, "token"
	}
	return 0, "unknown"
}

// bellNotifier rings the terminal bell and prints the notification inline.
// It stands in for a desktop notification daemon.
type bellNotifier struct{}

func (bellNotifier) Notify(title, body string) error {
	magenta := color.New(color.FgMagenta)
	magenta.Printf("\a[%s] %s\n", title, body)
	return nil
}

// terminalReporter renders reported errors in red on the transcript.
type terminalReporter struct{}

func (terminalReporter) Report(message, source string, meta map[string]string) {
	red := color.New(color.FgRed)
	red.Printf("[%s error] %s\n", source, message)
}

func run(ctx context.Context, cfg *config.Config, prof *Profile) error {
	logger := setupLogger(cfg.Logging)

	var tokens auth.TokenSource
	if cfg.Auth.TokenEndpoint != "" {
		tokens = auth.NewHTTPProvider(cfg.Auth.TokenEndpoint, auth.HTTPProviderOptions{
			Retries:    cfg.Auth.Retries,
			RetryDelay: cfg.Auth.RetryDelay,
			Logger:     logger,
		})
	} else {
		tokens = auth.NewStaticTokenSource(getToken())
	}

	store := state.NewStore(logger)
	defer store.Close()

	surface := errtrack.NewSurface(logger)

	notifySvc := notify.NewService(bellNotifier{}, notify.Policy{
		Enabled:   cfg.Notifications.Enabled && prof.Notifications.Enabled,
		Permitted: true,
	}, logger)

	rest := restapi.NewClient(cfg.Server.BaseURL, tokens, nil, logger)

	var hist *history.Log
	if cfg.History.Path != "" {
		var err error
		hist, err = history.Open(cfg.History.Path)
		if err != nil {
			return fmt.Errorf("opening history log: %w", err)
		}
		defer hist.Close()
	}

	sink := &frameSink{hist: hist, conversationID: cfg.Conversation.ID, logger: logger}

	mgr := session.NewManager(session.Options{
		BaseURL:        cfg.SocketBase(),
		SocketPath:     cfg.Server.SocketPath,
		ConversationID: cfg.Conversation.ID,
		Tokens:         tokens,
		Handler:        sink,
		InitPayload:    cfg.InitPayload,
		ReconnectDelay: cfg.Session.ReconnectDelay,
		Errors:         surface,
		Logger:         logger,
	})
	defer mgr.Close()

	sink.dispatcher = dispatch.New(dispatch.Options{
		State:           store,
		Tokens:          tokens,
		Cursor:          mgr,
		Reporter:        terminalReporter{},
		Notify:          notifySvc,
		TerminalCeiling: cfg.Session.TerminalCeiling,
		Logger:          logger,
	})

	// Resume from the persisted cursor so the backend replays only what this
	// client has not seen.
	if hist != nil {
		if cursor, err := hist.LatestEventID(ctx, cfg.Conversation.ID); err == nil {
			mgr.SetResumeCursor(cursor)
		}
	}

	// Render state updates and lifecycle transitions as they arrive.
	updates, watchID := store.Watch()
	defer store.Unwatch(watchID)
	events, subID := mgr.Subscribe()
	defer mgr.Unsubscribe(subID)
	go renderLoop(updates, events)

	if err := mgr.Connect(ctx); err != nil {
		// The reconnect loop is not armed for a failed first connect; report
		// and let the user retry with /connect.
		red := color.New(color.FgRed)
		red.Printf("[error] %v\n", err)
	}

	app := &app{
		cfg:     cfg,
		prof:    prof,
		mgr:     mgr,
		store:   store,
		rest:    rest,
		surface: surface,
	}
	return app.loop(ctx)
}

// renderLoop prints incremental state updates. It exits when both source
// channels close during shutdown.
func renderLoop(updates <-chan state.Update, events <-chan session.Event) {
	gray := color.New(color.FgHiBlack)
	yellow := color.New(color.FgYellow)

	for updates != nil || events != nil {
		select {
		case u, ok := <-updates:
			if !ok {
				updates = nil
				continue
			}
			renderUpdate(u)
		case e, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			switch e.Kind {
			case session.EventOpen:
				gray.Println("[connected]")
			case session.EventReconnecting:
				yellow.Println("[connection lost, retrying]")
			case session.EventClosed:
				gray.Println("[disconnected]")
			}
		}
	}
}

func renderUpdate(u state.Update) {
	green := color.New(color.FgGreen)
	red := color.New(color.FgRed)
	yellow := color.New(color.FgYellow)
	gray := color.New(color.FgHiBlack)

	switch u.Kind {
	case state.UpdateTranscript:
		if u.Cell == nil {
			return
		}
		switch u.Cell.Kind {
		case state.CellThought:
			gray.Printf("(%s thinks) %s\n", u.Cell.Source, u.Cell.Text)
		case state.CellConfirmation:
			yellow.Printf("[confirm? %s]\n", u.Cell.Text)
			fmt.Printf("  %s\n", u.Cell.Command)
			yellow.Println("  /confirm to approve, /reject to refuse")
		case state.CellError:
			red.Printf("[agent error] %s\n", u.Cell.Text)
		case state.CellFinish:
			green.Printf("[done] %s\n", u.Cell.Text)
		default:
			if u.Cell.Source == "user" {
				return // already echoed at the prompt
			}
			green.Printf("%s: ", u.Cell.Source)
			fmt.Println(u.Cell.Text)
		}
	case state.UpdateTerminal:
		gray.Println(u.Text)
	case state.UpdateJupyter:
		gray.Printf("[jupyter] %s\n", u.Text)
	case state.UpdateCode:
		gray.Printf("[editing] %s\n", u.Text)
	case state.UpdateBrowser:
		gray.Printf("[browsing] %s\n", u.Text)
	case state.UpdateAgentState:
		gray.Printf("[agent: %s]\n", u.Text)
	case state.UpdateStatus:
		if u.Text != "" {
			yellow.Printf("[status] %s\n", u.Text)
		}
	}
}

// app bundles the wired components for the command loop.
type app struct {
	cfg     *config.Config
	prof    *Profile
	mgr     *session.Manager
	store   *state.Store
	rest    *restapi.Client
	surface *errtrack.Surface
}

// loop reads input lines and routes slash commands; anything else is sent as
// a chat message.
func (a *app) loop(ctx context.Context) error {
	scanner := bufio.NewScanner(os.Stdin)

	for {
		fmt.Print("> ")

		inputCh := make(chan string, 1)
		errCh := make(chan error, 1)

		go func() {
			if scanner.Scan() {
				inputCh <- scanner.Text()
			} else {
				if err := scanner.Err(); err != nil {
					errCh <- err
				} else {
					errCh <- io.EOF
				}
			}
		}()

		var input string
		select {
		case <-ctx.Done():
			return nil
		case err := <-errCh:
			if err == io.EOF {
				return nil
			}
			return fmt.Errorf("reading input: %w", err)
		case input = <-inputCh:
		}

		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}

		if input == "/quit" || input == "/exit" || input == "/q" {
			return nil
		}

		if strings.HasPrefix(input, "/") {
			if err := a.command(ctx, input); err != nil {
				fmt.Printf("[error] %v\n", err)
			}
			fmt.Println()
			continue
		}

		if err := a.mgr.Send(protocol.NewMessageAction(input)); err != nil {
			fmt.Printf("[error] %v\n", err)
		}
	}
}
