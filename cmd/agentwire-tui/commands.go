// ABOUTME: Slash command handlers for agentwire-tui.
// ABOUTME: Session control, backend queries and transcript export.

package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"

	"github.com/2389/agentwire/internal/export"
	"github.com/2389/agentwire/internal/protocol"
	"github.com/2389/agentwire/internal/restapi"
)

// command routes one slash command. Unknown commands print help.
func (a *app) command(ctx context.Context, input string) error {
	cmd, args, _ := strings.Cut(input, " ")
	args = strings.TrimSpace(args)

	switch cmd {
	case "/help":
		printHelp()
		return nil
	case "/status":
		a.printStatus()
		return nil
	case "/confirm":
		return a.mgr.Send(protocol.NewConfirmationAction(true))
	case "/reject":
		return a.mgr.Send(protocol.NewConfirmationAction(false))
	case "/connect":
		return a.mgr.Connect(ctx)
	case "/disconnect":
		a.mgr.Disconnect()
		return nil
	case "/repos":
		return a.listRepositories(ctx)
	case "/branches":
		if args == "" {
			return fmt.Errorf("usage: /branches <owner/repo>")
		}
		return a.listBranches(ctx, args)
	case "/microagents":
		if args == "" {
			return fmt.Errorf("usage: /microagents <owner/repo>")
		}
		return a.listMicroagents(ctx, args)
	case "/conversations":
		return a.searchConversations(ctx, args)
	case "/settings":
		return a.showSettings(ctx)
	case "/export":
		return a.exportTranscript(args)
	default:
		fmt.Printf("Unknown command %s\n", cmd)
		printHelp()
		return nil
	}
}

func printHelp() {
	fmt.Println("Commands:")
	fmt.Println("  /status               Connection, agent state and pending errors")
	fmt.Println("  /confirm              Approve the pending command")
	fmt.Println("  /reject               Refuse the pending command")
	fmt.Println("  /connect              Reconnect after a disconnect")
	fmt.Println("  /disconnect           Close the socket, suppress reconnects")
	fmt.Println("  /repos                List repositories visible to you")
	fmt.Println("  /branches <repo>      List branches of owner/repo")
	fmt.Println("  /microagents <repo>   List microagents of owner/repo")
	fmt.Println("  /conversations [repo] Search recent conversations")
	fmt.Println("  /settings             Show the backend agent settings")
	fmt.Println("  /export [path]        Write the transcript as HTML")
	fmt.Println("  /help                 Show this help")
	fmt.Println("  /quit                 Exit")
}

func (a *app) printStatus() {
	fmt.Printf("Connection: %s\n", a.mgr.Status())
	fmt.Printf("Agent:      %s\n", a.store.AgentState())
	if backlog := a.mgr.Backlog(); backlog > 0 {
		fmt.Printf("Queued:     %d outbound messages\n", backlog)
	}
	if status := a.store.CurrentStatus(); status != "" {
		fmt.Printf("Status:     %s\n", status)
	}
	for _, e := range a.surface.Active() {
		red := color.New(color.FgRed)
		red.Printf("Error:      %s (since %s)\n", e.Message, e.FirstSeen.Format("15:04:05"))
	}
}

func (a *app) listRepositories(ctx context.Context) error {
	repos, err := a.rest.ListRepositories(ctx)
	if err != nil {
		return err
	}
	if len(repos) == 0 {
		fmt.Println("No repositories")
		return nil
	}
	for _, r := range repos {
		visibility := "private"
		if r.IsPublic {
			visibility = "public"
		}
		fmt.Printf("  %s [%s, %s]\n", r.FullName, r.Provider, visibility)
	}
	return nil
}

func (a *app) listBranches(ctx context.Context, fullName string) error {
	if _, err := restapi.ParseFullName(fullName); err != nil {
		return err
	}
	branches, err := a.rest.ListBranches(ctx, fullName)
	if err != nil {
		return err
	}
	if len(branches) == 0 {
		fmt.Println("No branches")
		return nil
	}
	for _, b := range branches {
		line := "  " + b.Name
		if b.Protected {
			line += " [protected]"
		}
		fmt.Println(line)
	}
	return nil
}

func (a *app) listMicroagents(ctx context.Context, fullName string) error {
	agents, err := a.rest.ListMicroagents(ctx, fullName)
	if err != nil {
		return err
	}
	if len(agents) == 0 {
		fmt.Println("No microagents")
		return nil
	}
	for _, m := range agents {
		fmt.Printf("  %s (%s)", m.Name, m.Path)
		if len(m.Triggers) > 0 {
			fmt.Printf(" triggers: %s", strings.Join(m.Triggers, ", "))
		}
		fmt.Println()
	}
	return nil
}

func (a *app) searchConversations(ctx context.Context, repo string) error {
	summaries, err := a.rest.SearchConversations(ctx, restapi.SearchParams{
		Repository: repo,
		Limit:      20,
	})
	if err != nil {
		return err
	}
	if len(summaries) == 0 {
		fmt.Println("No conversations")
		return nil
	}
	for _, s := range summaries {
		title := s.Title
		if title == "" {
			title = "(untitled)"
		}
		fmt.Printf("  %s  %s [%s]", s.ID, title, s.Status)
		if s.Repository != "" {
			fmt.Printf(" %s@%s", s.Repository, s.Branch)
		}
		fmt.Println()
	}
	return nil
}

func (a *app) showSettings(ctx context.Context) error {
	s, err := a.rest.GetSettings(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("Model:             %s\n", s.Model)
	fmt.Printf("Agent:             %s\n", s.Agent)
	fmt.Printf("Language:          %s\n", s.Language)
	fmt.Printf("Confirmation mode: %v\n", s.ConfirmationMode)
	if s.SecurityAnalyzer != "" {
		fmt.Printf("Security analyzer: %s\n", s.SecurityAnalyzer)
	}
	fmt.Printf("API key set:       %v\n", s.APIKeySet)
	return nil
}

func (a *app) exportTranscript(path string) error {
	if path == "" {
		path = a.prof.Export.Path
	}
	html, err := export.TranscriptHTML(a.store.Transcript())
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, html, 0644); err != nil {
		return fmt.Errorf("writing transcript: %w", err)
	}
	fmt.Printf("Wrote %d cells to %s\n", len(a.store.Transcript()), path)
	return nil
}
