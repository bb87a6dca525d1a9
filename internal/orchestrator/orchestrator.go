// Package orchestrator drives automated participants through rounds. It
// asks the decision service for each bot's move, applies it through the
// engine, and falls back to a deterministic pick whenever the service times
// out, misbehaves, or the engine rejects the result. Decision failures are
// never fatal: the cascade always makes forward progress.
//
// Advance must run while holding the session's registry slot. It mutates
// the session directly and never re-enters the registry itself.
package orchestrator

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"

	"github.com/lox/cardczar/internal/catalog"
	"github.com/lox/cardczar/internal/decision"
	"github.com/lox/cardczar/internal/game"
	"github.com/lox/cardczar/internal/persona"
)

// DefaultDecisionTimeout bounds one external decision call.
const DefaultDecisionTimeout = 5 * time.Second

// EmitFunc receives the session after every accepted mutation. It is how
// observers (and therefore humans) learn they are expected to act.
type EmitFunc func(*game.Session)

// Orchestrator cascades bot turns for one or more sessions.
type Orchestrator struct {
	decider decision.Decider
	clock   quartz.Clock
	timeout time.Duration
	logger  *log.Logger
}

// New builds an orchestrator. A nil clock uses the real one.
func New(decider decision.Decider, clock quartz.Clock, timeout time.Duration, logger *log.Logger) *Orchestrator {
	if clock == nil {
		clock = quartz.NewReal()
	}
	if timeout <= 0 {
		timeout = DefaultDecisionTimeout
	}
	return &Orchestrator{
		decider: decider,
		clock:   clock,
		timeout: timeout,
		logger:  logger.WithPrefix("orchestrator"),
	}
}

// Advance drives every automated seat that can act, cascading through
// consecutive rounds until a human must act or the session concludes. Bots
// are processed strictly one at a time so two of them can never race to
// fill the last table slot. emit fires after each accepted mutation.
func (o *Orchestrator) Advance(ctx context.Context, sess *game.Session, emit EmitFunc) {
	for {
		if sess.Phase == game.Collecting {
			for _, p := range sess.PendingAutomated() {
				o.submitFor(ctx, sess, p)
				emit(sess)
				if sess.Phase != game.Collecting {
					break
				}
			}
		}

		if sess.Phase == game.Judging {
			judge := sess.Judge()
			if judge == nil || !judge.Automated {
				return
			}
			o.judgeFor(ctx, sess, judge)
			emit(sess)
		}

		if sess.Phase != game.RoundResolved {
			return
		}
		if err := sess.StartRound(); err != nil {
			o.logger.Error("Failed to start next round", "session", sess.ID, "err", err)
			return
		}
		emit(sess)
		if sess.Phase == game.Concluded {
			// Prompt deck ran out.
			return
		}
	}
}

// submitFor plays one bot's answer. The decision index selects a contiguous
// slice of the hand when the prompt needs several cards; any failure
// degrades to the leading hand cards, which the engine's top-up invariant
// guarantees to exist.
func (o *Orchestrator) submitFor(ctx context.Context, sess *game.Session, p *game.Participant) {
	required := sess.RequiredAnswers()
	if len(p.Hand) < required {
		// Only possible after extreme answer-deck exhaustion. The table can
		// never fill without this seat, so end the session the same way
		// prompt-deck exhaustion does rather than parking it forever.
		o.logger.Error("Hand too small to submit, concluding session",
			"session", sess.ID, "participant", p.ID, "hand", len(p.Hand), "required", required)
		sess.Conclude()
		return
	}

	start, err := o.decide(ctx, func(ctx context.Context) (int, error) {
		return o.decider.PickAnswer(ctx, profileOf(p), p.Hand, *sess.CurrentPrompt)
	})
	if err == nil && start+required > len(p.Hand) {
		err = fmt.Errorf("index %d leaves no room for %d cards in hand of %d", start, required, len(p.Hand))
	}
	if err != nil {
		o.logger.Warn("Decision failed, using fallback answer",
			"session", sess.ID, "participant", p.ID, "err", err)
		start = 0
	}

	ids := make([]string, 0, required)
	for _, c := range p.Hand[start : start+required] {
		ids = append(ids, c.ID)
	}
	if err := sess.SubmitAnswer(p.ID, ids); err != nil {
		// The decision produced cards the engine rejected; the leading
		// cards always satisfy its preconditions.
		o.logger.Warn("Engine rejected decision, using fallback answer",
			"session", sess.ID, "participant", p.ID, "err", err)
		ids = ids[:0]
		for _, c := range p.Hand[:required] {
			ids = append(ids, c.ID)
		}
		if err := sess.SubmitAnswer(p.ID, ids); err != nil {
			o.logger.Error("Fallback submission rejected",
				"session", sess.ID, "participant", p.ID, "err", err)
		}
	}
}

// judgeFor resolves the round with the automated judge's pick, falling back
// to the first table entry.
func (o *Orchestrator) judgeFor(ctx context.Context, sess *game.Session, judge *game.Participant) {
	subs := make([][]catalog.AnswerCard, len(sess.Table))
	for i, entry := range sess.Table {
		subs[i] = entry.Cards
	}

	index, err := o.decide(ctx, func(ctx context.Context) (int, error) {
		return o.decider.PickWinner(ctx, profileOf(judge), *sess.CurrentPrompt, subs)
	})
	if err != nil {
		o.logger.Warn("Judge decision failed, using first submission",
			"session", sess.ID, "judge", judge.ID, "err", err)
		index = 0
	}

	if err := sess.SelectWinner(index); err != nil {
		o.logger.Warn("Engine rejected judge decision, using first submission",
			"session", sess.ID, "judge", judge.ID, "err", err)
		if err := sess.SelectWinner(0); err != nil {
			o.logger.Error("Fallback judgement rejected",
				"session", sess.ID, "judge", judge.ID, "err", err)
		}
	}
}

// decide runs one decision call bounded by the clock-driven timeout. The
// call runs in its own goroutine so an unresponsive service cannot wedge
// the cascade; on timeout its eventual result is discarded.
func (o *Orchestrator) decide(ctx context.Context, call func(context.Context) (int, error)) (int, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	type result struct {
		index int
		err   error
	}
	resultCh := make(chan result, 1)
	go func() {
		index, err := call(ctx)
		resultCh <- result{index: index, err: err}
	}()

	timedOut := make(chan struct{})
	timer := o.clock.AfterFunc(o.timeout, func() {
		close(timedOut)
	})
	defer timer.Stop()

	select {
	case res := <-resultCh:
		return res.index, res.err
	case <-timedOut:
		return 0, fmt.Errorf("decision timed out after %s", o.timeout)
	case <-ctx.Done():
		return 0, ctx.Err()
	}
}

func profileOf(p *game.Participant) persona.Persona {
	if p.Profile != nil {
		return *p.Profile
	}
	return persona.Persona{ID: p.ID, Name: p.Name}
}
