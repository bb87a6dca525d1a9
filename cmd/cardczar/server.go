package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/lox/cardczar/internal/catalog"
	"github.com/lox/cardczar/internal/decision"
	"github.com/lox/cardczar/internal/game"
	"github.com/lox/cardczar/internal/orchestrator"
	"github.com/lox/cardczar/internal/randutil"
	"github.com/lox/cardczar/internal/registry"
	"github.com/lox/cardczar/internal/server"
	"github.com/lox/cardczar/internal/store"
)

// ServerCmd runs the websocket game server.
type ServerCmd struct {
	Config   string `short:"c" default:"cardczar.hcl" help:"Path to HCL configuration file"`
	Addr     string `short:"a" help:"Server address to bind to (overrides config)"`
	LogLevel string `short:"l" help:"Log level (overrides config)"`
}

func (c *ServerCmd) Run() error {
	cfg, err := server.LoadConfig(c.Config)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if c.LogLevel != "" {
		cfg.Server.LogLevel = c.LogLevel
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger := setupLogger(cfg.Server.LogLevel)

	cat, err := catalog.Load()
	if err != nil {
		return fmt.Errorf("loading card catalog: %w", err)
	}

	st, err := store.Open(cfg.Storage.Path)
	if err != nil {
		return fmt.Errorf("opening session store: %w", err)
	}
	defer st.Close()
	writer := store.NewWriter(st, logger)
	defer writer.Stop()

	decider, err := buildDecider(cfg)
	if err != nil {
		return err
	}

	reg := registry.New()
	orch := orchestrator.New(decider, nil, cfg.DecisionTimeout(), logger)

	defaults := game.Settings{
		MaxParticipants: cfg.Game.MaxPlayers,
		ScoreToWin:      cfg.Game.ScoreToWin,
	}
	svc := server.NewService(cat, reg, orch, defaults, logger)
	svc.SetStorage(st, writer)

	wsServer := server.NewServer(serverAddress(cfg, c.Addr), logger)
	wsServer.SetService(svc)
	svc.SetBroadcaster(wsServer)

	// Pick sessions that were live when the process last stopped back up.
	ids, err := st.ActiveSessions(context.Background())
	if err != nil {
		return fmt.Errorf("listing persisted sessions: %w", err)
	}
	for _, id := range ids {
		if err := svc.Resume(context.Background(), id); err != nil {
			logger.Error("Failed to resume session", "session", id, "error", err)
		}
	}
	if len(ids) > 0 {
		logger.Info("Resumed persisted sessions", "count", len(ids))
	}

	logger.Info("Starting cardczar server",
		"addr", serverAddress(cfg, c.Addr),
		"maxPlayers", cfg.Game.MaxPlayers,
		"scoreToWin", cfg.Game.ScoreToWin,
		"decisionProvider", cfg.Decision.Provider,
		"storagePath", cfg.Storage.Path)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(wsServer.Start)
	g.Go(func() error {
		<-ctx.Done()
		logger.Info("Shutting down server...")
		return wsServer.Stop()
	})
	return g.Wait()
}

// serverAddress returns the listen address, preferring a raw command-line
// address over the config's host and port pair.
func serverAddress(cfg *server.Config, override string) string {
	if override != "" {
		return override
	}
	return cfg.ServerAddress()
}

// buildDecider constructs the decision service named by the config.
func buildDecider(cfg *server.Config) (decision.Decider, error) {
	switch cfg.Decision.Provider {
	case "openai":
		apiKey := os.Getenv(cfg.Decision.APIKeyEnv)
		if apiKey == "" {
			return nil, fmt.Errorf("decision provider %q needs %s set", cfg.Decision.Provider, cfg.Decision.APIKeyEnv)
		}
		return decision.NewOpenAI(decision.OpenAIConfig{
			BaseURL: cfg.Decision.BaseURL,
			Model:   cfg.Decision.Model,
			APIKey:  apiKey,
			Timeout: cfg.DecisionTimeout(),
		}), nil
	case "random":
		return decision.NewRandom(randutil.New(time.Now().UnixNano())), nil
	default:
		return nil, fmt.Errorf("unknown decision provider: %s", cfg.Decision.Provider)
	}
}
