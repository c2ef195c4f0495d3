package main

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/fwojciec/psagent"
	bt "github.com/fwojciec/psagent/bubbletea"
	"github.com/fwojciec/psagent/config"
	"github.com/fwojciec/psagent/gemini"
	"github.com/fwojciec/psagent/powershell"
	"github.com/fwojciec/psagent/ratelimit"
	"github.com/fwojciec/psagent/registry"
)

// app is everything a command needs, built once from the configuration.
type app struct {
	cfg      config.Config
	executor *powershell.Executor
	help     *powershell.HelpResolver
	registry *registry.Registry
	loop     *psagent.Loop
}

// newApp wires the shell tools. The agent loop is only built when provider
// is non-nil; commands that never call the model pass nil.
func newApp(cfg config.Config, provider psagent.Provider) (*app, error) {
	interp, err := cfg.Interpreter()
	if err != nil {
		return nil, err
	}
	a := &app{
		cfg:      cfg,
		executor: powershell.NewExecutor(powershell.WithInterpreter(interp), powershell.WithTimeout(cfg.CommandTimeout)),
		help:     powershell.NewHelpResolver(powershell.WithInterpreter(interp), powershell.WithTimeout(cfg.SearchTimeout)),
	}
	a.registry, err = registry.NewShell(a.executor, a.help)
	if err != nil {
		return nil, err
	}
	if provider != nil {
		a.loop = psagent.NewLoop(ratelimit.New(provider, cfg.RequestsPerMinute, cfg.Burst), a.registry)
	}
	return a, nil
}

// newProvider builds the Gemini client.
func newProvider(ctx context.Context, cfg config.Config) (psagent.Provider, error) {
	if err := cfg.RequireAPIKey(); err != nil {
		return nil, err
	}
	client, err := gemini.New(ctx, cfg.APIKey, gemini.WithModel(cfg.Model), gemini.WithThinking(cfg.Thinking))
	if err != nil {
		return nil, fmt.Errorf("gemini: %w", err)
	}
	return client, nil
}

// newSession starts an in-memory conversation.
func (a *app) newSession() *psagent.Session {
	now := time.Now()
	return &psagent.Session{
		ID:           uuid.NewString(),
		SystemPrompt: a.cfg.SystemPrompt,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// agent runs one request through the loop. It satisfies bt.AgentFunc.
func (a *app) agent(ctx context.Context, session *psagent.Session, onEvent func(psagent.Event)) error {
	opts := []psagent.RunOption{
		psagent.WithModel(a.cfg.Model),
		psagent.WithMaxTokens(a.cfg.MaxTokens),
		psagent.WithTemperature(a.cfg.Temperature),
		psagent.WithMaxTurns(a.cfg.MaxTurns),
	}
	if onEvent != nil {
		opts = append(opts, psagent.WithEventHandler(onEvent))
	}
	return a.loop.Run(ctx, session, a.registry.Tools(), opts...)
}

// info describes the running configuration for the shell.
func (a *app) info() bt.Info {
	return bt.Info{
		Model:             a.cfg.Model,
		RequestsPerMinute: a.cfg.RequestsPerMinute,
		MaxTokens:         a.cfg.MaxTokens,
		Shell:             a.executor.Interpreter().String(),
		CommandTimeout:    a.executor.Timeout(),
	}
}
