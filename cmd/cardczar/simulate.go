package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/lox/cardczar/internal/catalog"
	"github.com/lox/cardczar/internal/decision"
	"github.com/lox/cardczar/internal/game"
	"github.com/lox/cardczar/internal/orchestrator"
	"github.com/lox/cardczar/internal/persona"
	"github.com/lox/cardczar/internal/randutil"
	"github.com/lox/cardczar/internal/sessionid"
)

// SimulateCmd plays one session entirely between automated seats, without a
// server or network. Useful for exercising decks and personas.
type SimulateCmd struct {
	Players    int    `default:"4" help:"Number of automated players"`
	ScoreToWin int    `default:"7" help:"Score needed to win"`
	Decider    string `default:"random" enum:"random,failing" help:"Decision backend (failing exercises the fallback path)"`
	Seed       *int64 `help:"Deterministic RNG seed (optional)"`
	Debug      bool   `help:"Enable debug logging"`
}

// failingDecider rejects every call, forcing the orchestrator onto its
// deterministic fallbacks. The session must still reach a conclusion.
type failingDecider struct{}

func (failingDecider) PickAnswer(context.Context, persona.Persona, []catalog.AnswerCard, catalog.PromptCard) (int, error) {
	return 0, errors.New("decision service unavailable")
}

func (failingDecider) PickWinner(context.Context, persona.Persona, catalog.PromptCard, [][]catalog.AnswerCard) (int, error) {
	return 0, errors.New("decision service unavailable")
}

func (c *SimulateCmd) Run() error {
	if c.Players < game.MinParticipants {
		return fmt.Errorf("need at least %d players, got %d", game.MinParticipants, c.Players)
	}

	level := "info"
	if c.Debug {
		level = "debug"
	}
	logger := setupLogger(level)

	seed := time.Now().UnixNano()
	if c.Seed != nil {
		seed = *c.Seed
	}
	rng := randutil.New(seed)
	logger.Info("Simulating session", "players", c.Players, "scoreToWin", c.ScoreToWin, "seed", seed)

	cat, err := catalog.Load()
	if err != nil {
		return fmt.Errorf("loading card catalog: %w", err)
	}

	settings := game.DefaultSettings()
	settings.ScoreToWin = c.ScoreToWin
	if c.Players > settings.MaxParticipants {
		settings.MaxParticipants = c.Players
	}
	sess := game.NewSession(sessionid.Generate(), cat, settings, rng)

	for _, p := range persona.RandomN(rng, c.Players) {
		profile := p
		seat := &game.Participant{ID: p.ID, Name: p.Name, Automated: true, Profile: &profile}
		if err := sess.AddParticipant(seat); err != nil {
			return err
		}
	}

	var decider decision.Decider = decision.NewRandom(rng)
	if c.Decider == "failing" {
		decider = failingDecider{}
	}
	orch := orchestrator.New(decider, nil, time.Second, logger)

	if err := sess.StartRound(); err != nil {
		return err
	}
	emit := func(s *game.Session) {
		if s.Phase == game.RoundResolved || s.Phase == game.Concluded {
			logger.Debug("Round resolved", "round", s.Round, "phase", s.Phase)
		}
	}
	emit(sess)
	orch.Advance(context.Background(), sess, emit)

	if sess.Phase != game.Concluded {
		return fmt.Errorf("session parked in %s; automated sessions should always conclude", sess.Phase)
	}

	fmt.Printf("\nSession %s concluded after %d rounds\n\n", sess.ID, sess.Round)
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "PLAYER\tSCORE\t")
	for _, p := range sess.Participants {
		marker := ""
		if p.ID == sess.WinnerID {
			marker = "  (winner)"
		}
		fmt.Fprintf(w, "%s\t%d%s\t\n", p.Name, p.Score, marker)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	if sess.WinnerID == "" {
		fmt.Println("\nThe prompt deck ran out before anyone reached the target score.")
	}
	return nil
}

// PersonasCmd prints the built-in persona roster.
type PersonasCmd struct{}

func (c *PersonasCmd) Run() error {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\t")
	for _, p := range persona.All() {
		fmt.Fprintf(w, "%s\t%s\t\n", p.ID, p.Name)
	}
	return w.Flush()
}
