// Package game implements the round-lifecycle state machine for a judged
// card game session. All transitions are pure over the Session value: no
// I/O, no clocks, no knowledge of transports or automated decision calls.
// Callers own serialization; a Session must never be mutated concurrently.
package game

import (
	rand "math/rand/v2"

	"github.com/lox/cardczar/internal/catalog"
	"github.com/lox/cardczar/internal/persona"
)

const (
	// HandSize is the target hand size participants are topped up to at
	// round start.
	HandSize = 10

	// DefaultScoreToWin ends the session when any participant reaches it.
	DefaultScoreToWin = 7

	// DefaultMaxParticipants caps seats per session.
	DefaultMaxParticipants = 8

	// MinParticipants is required before the first round can start.
	MinParticipants = 3
)

// Phase is the session lifecycle state.
type Phase int

const (
	// Lobby accepts new participants; no round has started.
	Lobby Phase = iota
	// Collecting waits for every non-judge participant to submit.
	Collecting
	// Judging waits for the judge to pick a winning submission.
	Judging
	// RoundResolved is between rounds; the next StartRound continues play.
	RoundResolved
	// Concluded is terminal; no further mutation is accepted.
	Concluded
)

// String returns the string representation of a phase.
func (p Phase) String() string {
	switch p {
	case Lobby:
		return "lobby"
	case Collecting:
		return "collecting"
	case Judging:
		return "judging"
	case RoundResolved:
		return "round_resolved"
	case Concluded:
		return "concluded"
	default:
		return "unknown"
	}
}

// PhaseFromString parses the wire form of a phase.
func PhaseFromString(s string) (Phase, bool) {
	for _, p := range []Phase{Lobby, Collecting, Judging, RoundResolved, Concluded} {
		if p.String() == s {
			return p, true
		}
	}
	return 0, false
}

// Settings are per-session rule parameters.
type Settings struct {
	MaxParticipants int
	ScoreToWin      int
}

// DefaultSettings returns the standard rule set.
func DefaultSettings() Settings {
	return Settings{
		MaxParticipants: DefaultMaxParticipants,
		ScoreToWin:      DefaultScoreToWin,
	}
}

// Participant is one seat in a session. Hand is owned exclusively by the
// participant; only round top-ups and accepted submissions touch it.
type Participant struct {
	ID        string
	Name      string
	Automated bool
	Score     int
	Hand      []catalog.AnswerCard
	Profile   *persona.Persona
}

// Submission is one participant's answer for the current round. The table
// holds submissions in anonymized order once the phase reaches Judging.
type Submission struct {
	ParticipantID string
	Cards         []catalog.AnswerCard
}

// Session is the aggregate root for one game. Participant order defines
// judge rotation order.
type Session struct {
	ID            string
	Phase         Phase
	Round         int
	JudgeIndex    int
	Participants  []*Participant
	PromptDeck    []catalog.PromptCard
	AnswerDeck    []catalog.AnswerCard
	CurrentPrompt *catalog.PromptCard
	Table         []Submission
	Settings      Settings
	WinnerID      string

	rng *rand.Rand
}

// NewSession creates an empty lobby with freshly shuffled decks drawn from
// the catalog. The rng drives deck shuffles and the anonymizing table
// shuffle; inject a seeded source for deterministic tests.
func NewSession(id string, cat *catalog.Catalog, settings Settings, rng *rand.Rand) *Session {
	prompts := cat.PromptCards()
	answers := cat.AnswerCards()
	rng.Shuffle(len(prompts), func(i, j int) { prompts[i], prompts[j] = prompts[j], prompts[i] })
	rng.Shuffle(len(answers), func(i, j int) { answers[i], answers[j] = answers[j], answers[i] })

	return &Session{
		ID:         id,
		Phase:      Lobby,
		JudgeIndex: -1,
		PromptDeck: prompts,
		AnswerDeck: answers,
		Settings:   settings,
		rng:        rng,
	}
}

// Judge returns the current judge, or nil before the first round.
func (s *Session) Judge() *Participant {
	if s.JudgeIndex < 0 || s.JudgeIndex >= len(s.Participants) {
		return nil
	}
	return s.Participants[s.JudgeIndex]
}

// ParticipantByID finds a seat by id.
func (s *Session) ParticipantByID(id string) *Participant {
	for _, p := range s.Participants {
		if p.ID == id {
			return p
		}
	}
	return nil
}

// Winner returns the concluding participant, or nil when the session ended
// without one (deck exhaustion) or has not ended.
func (s *Session) Winner() *Participant {
	if s.WinnerID == "" {
		return nil
	}
	return s.ParticipantByID(s.WinnerID)
}

// CanStart reports whether StartRound would be accepted right now.
func (s *Session) CanStart() bool {
	if s.Phase != Lobby && s.Phase != RoundResolved {
		return false
	}
	return len(s.Participants) >= MinParticipants && len(s.PromptDeck) > 0
}

// PendingAutomated returns the automated non-judge participants that have no
// table entry yet, in seat order. Used to drive the bot cascade.
func (s *Session) PendingAutomated() []*Participant {
	if s.Phase != Collecting {
		return nil
	}
	submitted := make(map[string]bool, len(s.Table))
	for _, sub := range s.Table {
		submitted[sub.ParticipantID] = true
	}
	var pending []*Participant
	for i, p := range s.Participants {
		if i == s.JudgeIndex || !p.Automated || submitted[p.ID] {
			continue
		}
		pending = append(pending, p)
	}
	return pending
}

// RequiredAnswers returns how many cards the current prompt needs.
func (s *Session) RequiredAnswers() int {
	if s.CurrentPrompt == nil {
		return 1
	}
	return s.CurrentPrompt.Pick
}
