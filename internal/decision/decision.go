// Package decision is the boundary to the external reasoning service that
// plays automated seats. The contract is deliberately narrow: each call
// returns an index into a known-length collection, validated before use.
// Callers must treat every implementation as unreliable and keep a fallback.
package decision

import (
	"context"
	rand "math/rand/v2"

	"github.com/lox/cardczar/internal/catalog"
	"github.com/lox/cardczar/internal/persona"
)

// Decider produces moves for automated participants. PickAnswer returns an
// index into the hand; PickWinner an index into the anonymized submissions.
// Implementations may fail or return out-of-range indexes; orchestration
// absorbs those with deterministic fallbacks.
type Decider interface {
	PickAnswer(ctx context.Context, p persona.Persona, hand []catalog.AnswerCard, prompt catalog.PromptCard) (int, error)
	PickWinner(ctx context.Context, p persona.Persona, prompt catalog.PromptCard, submissions [][]catalog.AnswerCard) (int, error)
}

// Random picks uniformly from the valid range. Used for offline play and
// simulations where no reasoning service is configured.
type Random struct {
	rng *rand.Rand
}

// NewRandom returns a Random decider over the given source.
func NewRandom(rng *rand.Rand) *Random {
	return &Random{rng: rng}
}

func (r *Random) PickAnswer(_ context.Context, _ persona.Persona, hand []catalog.AnswerCard, _ catalog.PromptCard) (int, error) {
	return r.rng.IntN(len(hand)), nil
}

func (r *Random) PickWinner(_ context.Context, _ persona.Persona, _ catalog.PromptCard, submissions [][]catalog.AnswerCard) (int, error) {
	return r.rng.IntN(len(submissions)), nil
}
