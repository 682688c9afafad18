package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/formpilotai/formpilot/internal/action"
	"github.com/formpilotai/formpilot/internal/formctx"
	"github.com/formpilotai/formpilot/internal/graph"
	"github.com/formpilotai/formpilot/internal/llm"
	"github.com/formpilotai/formpilot/internal/llm/factory"
	"github.com/formpilotai/formpilot/internal/sessionstore"

	"charm.land/lipgloss/v2"
	"github.com/spf13/cobra"
)

var chatCmd = &cobra.Command{
	Use:   "chat <form_context_md_path>",
	Short: "Debug REPL: run one form conversation against the configured LLM in-process",
	Long:  `Loads a form_context_md document and drives the conversation graph locally, without going through HTTP — useful for iterating on a schema.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg == nil {
			return fmt.Errorf("config not loaded")
		}

		raw, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("read form_context_md: %w", err)
		}

		fc, err := formctx.Parse(string(raw))
		if err != nil {
			return fmt.Errorf("parse form_context_md: %w", err)
		}
		if fc.Schema == nil {
			return fmt.Errorf("%s declares no structured schema frontmatter", args[0])
		}

		client, err := factory.New(cmd.Context(), factory.Config{
			Provider:    cfg.LLM.Provider,
			APIEndpoint: cfg.LLM.APIEndpoint,
			APIKey:      cfg.LLM.APIKey,
			ModelName:   cfg.LLM.ModelName,
		})
		if err != nil {
			return fmt.Errorf("configure llm client: %w", err)
		}

		store := sessionstore.New(cfg.Session.SessionTimeout())
		sess := store.Create("", fc.Title, fc)

		return runREPL(cmd.Context(), client, cfg.LLM.ModelName, sess)
	},
}

func init() {
	rootCmd.AddCommand(chatCmd)
}

var (
	replBanner    = lipgloss.NewStyle().Foreground(lipgloss.Color("99")).Bold(true)
	replPrompt    = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	replAssistant = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	replAction    = lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Italic(true)
)

// runREPL drives sess turn by turn from stdin, printing the assistant's
// action the way a real client would render it, until the user quits or
// stdin closes.
// adapted from an event-submitting loop into a direct in-process
// graph.Run call since FormPilot has no ingress queue to submit into.
func runREPL(ctx context.Context, client llm.Client, model string, sess *sessionstore.Session) error {
	fmt.Println(replBanner.Render(fmt.Sprintf("FormPilot debug chat — %s", sess.ConversationID)))
	fmt.Println(replPrompt.Render("Type '/exit' to quit."))

	reader := bufio.NewReader(os.Stdin)

	// The opening turn has no user_message — it greets.
	act := graph.Run(ctx, client, model, sess.FormContext, sess.Form, sess.State, graph.Input{}, slog.Default())
	printAction(act)

	for {
		fmt.Print(replPrompt.Render("> "))
		line, err := reader.ReadString('\n')
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return err
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if line == "/exit" {
			return nil
		}

		act = graph.Run(ctx, client, model, sess.FormContext, sess.Form, sess.State, graph.Input{UserMessage: line}, slog.Default())
		printAction(act)
	}
}

func printAction(act action.Action) {
	encoded, _ := json.MarshalIndent(act, "", "  ")
	fmt.Println(replAssistant.Render("assistant:"))
	fmt.Println(replAction.Render(string(encoded)))
}
