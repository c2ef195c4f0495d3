package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/fwojciec/psagent"
	bt "github.com/fwojciec/psagent/bubbletea"
	"github.com/fwojciec/psagent/config"
	"github.com/fwojciec/psagent/markdown"
	"github.com/fwojciec/psagent/mcp"
	"github.com/fwojciec/psagent/powershell"
)

// failedError marks a command whose output already explains the failure,
// so main exits non-zero without printing it again.
type failedError struct {
	kind psagent.ErrorKind
}

func (e *failedError) Error() string { return "command failed: " + e.kind.String() }

func runShell(cmd *cobra.Command, f *flags) error {
	ctx := cmd.Context()
	cfg, closeLog, err := loadConfig(f)
	if err != nil {
		return err
	}
	defer closeLog()

	provider, err := newProvider(ctx, cfg)
	if err != nil {
		return err
	}
	a, err := newApp(cfg, provider)
	if err != nil {
		return err
	}

	m := bt.New(a.agent, a.newSession(), psagent.DefaultTheme(), a.info())
	if _, err := bt.Run(ctx, m); err != nil {
		return fmt.Errorf("running shell: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), bt.GoodbyeMessage)
	return nil
}

func newAskCommand(f *flags) *cobra.Command {
	var raw bool
	cmd := &cobra.Command{
		Use:   "ask REQUEST...",
		Short: "Send one request to the agent and print the answer",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, closeLog, err := loadConfig(f)
			if err != nil {
				return err
			}
			defer closeLog()

			provider, err := newProvider(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			a, err := newApp(cfg, provider)
			if err != nil {
				return err
			}
			return a.ask(cmd.Context(), strings.Join(args, " "), raw, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}
	cmd.Flags().BoolVar(&raw, "raw", false, "Print the answer as markdown source")
	return cmd
}

// ask runs a single request. Tool calls are echoed to errw as they happen;
// the answer goes to w.
func (a *app) ask(ctx context.Context, request string, raw bool, w, errw io.Writer) error {
	session := a.newSession()
	session.Messages = append(session.Messages, psagent.UserMessage{
		Content: []psagent.ContentBlock{psagent.TextBlock{Text: request}},
	})
	start := len(session.Messages)

	err := a.agent(ctx, session, func(e psagent.Event) {
		if end, ok := e.(psagent.EventToolCallEnd); ok {
			fmt.Fprintf(errw, "> %s %s\n", end.Call.Name, end.Call.Arguments)
		}
	})
	if err != nil {
		return fmt.Errorf("running agent: %w", err)
	}

	var parts []string
	for _, msg := range session.Messages[start:] {
		if am, ok := msg.(psagent.AssistantMessage); ok {
			if text := strings.TrimSpace(am.Text()); text != "" {
				parts = append(parts, text)
			}
		}
	}
	answer := strings.Join(parts, "\n\n")
	if !raw {
		answer = markdown.Render(answer, markdown.DefaultWidth, psagent.DefaultTheme())
	}
	_, err = fmt.Fprintln(w, answer)
	return err
}

func newExecCommand(f *flags) *cobra.Command {
	return &cobra.Command{
		Use:   "exec COMMAND...",
		Short: "Run a PowerShell command exactly as the agent would",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDirect(cmd, f, func(a *app) psagent.CommandResult {
				return a.executor.Run(cmd.Context(), strings.Join(args, " "))
			})
		},
	}
}

func newSearchCommand(f *flags) *cobra.Command {
	return &cobra.Command{
		Use:   "search QUERY...",
		Short: "Look up PowerShell help exactly as the agent would",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDirect(cmd, f, func(a *app) psagent.CommandResult {
				return a.help.Lookup(cmd.Context(), strings.Join(args, " "))
			})
		},
	}
}

// runDirect runs one tool without the agent and prints its text.
func runDirect(cmd *cobra.Command, f *flags, run func(*app) psagent.CommandResult) error {
	cfg, closeLog, err := loadConfig(f)
	if err != nil {
		return err
	}
	defer closeLog()

	a, err := newApp(cfg, nil)
	if err != nil {
		return err
	}
	res := run(a)
	if res.Succeeded {
		_, err = fmt.Fprintln(cmd.OutOrStdout(), res.Output)
		return err
	}
	fmt.Fprintln(cmd.ErrOrStderr(), res.Output)
	return &failedError{kind: res.ErrorKind}
}

func newMCPCommand(f *flags) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve " + powershell.ExecuteToolName + " and " + powershell.SearchToolName + " over MCP stdio",
		Long: `Serve the shell tools over the Model Context Protocol on stdin and stdout.

Expected to be launched by an MCP client, not by a human.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, closeLog, err := loadConfig(f)
			if err != nil {
				return err
			}
			defer closeLog()

			a, err := newApp(cfg, nil)
			if err != nil {
				return err
			}
			return mcp.NewServer(a.registry, version).ServeStdio(cmd.Context())
		},
	}
}

func newConfigCommand(f *flags) *cobra.Command {
	var showPath bool
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Print the resolved configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if showPath {
				path := f.configPath
				if path == "" {
					path = config.DefaultPath()
				}
				_, err := fmt.Fprintln(cmd.OutOrStdout(), path)
				return err
			}
			cfg, closeLog, err := loadConfig(f)
			if err != nil {
				return err
			}
			defer closeLog()

			out, err := cfg.Redacted().YAML()
			if err != nil {
				return err
			}
			_, err = fmt.Fprint(cmd.OutOrStdout(), out)
			return err
		},
	}
	cmd.Flags().BoolVar(&showPath, "path", false, "Print the config file path only")
	return cmd
}
