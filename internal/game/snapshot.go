package game

import (
	"fmt"
	rand "math/rand/v2"

	"github.com/lox/cardczar/internal/catalog"
	"github.com/lox/cardczar/internal/persona"
)

// Snapshot is the full-state mirror written after every accepted operation.
// Decks and hands are stored as ordered card id lists; card ids are stable
// across restarts so a snapshot can be rehydrated against the same catalog.
type Snapshot struct {
	ID              string                `json:"id"`
	Phase           string                `json:"phase"`
	Round           int                   `json:"round"`
	JudgeIndex      int                   `json:"judge_index"`
	Participants    []ParticipantSnapshot `json:"participants"`
	PromptDeck      []string              `json:"prompt_deck"`
	AnswerDeck      []string              `json:"answer_deck"`
	CurrentPromptID string                `json:"current_prompt_id,omitempty"`
	Table           []SubmissionSnapshot  `json:"table"`
	MaxParticipants int                   `json:"max_participants"`
	ScoreToWin      int                   `json:"score_to_win"`
	WinnerID        string                `json:"winner_id,omitempty"`
}

// ParticipantSnapshot mirrors one seat including hand contents.
type ParticipantSnapshot struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Automated bool     `json:"automated"`
	Score     int      `json:"score"`
	Hand      []string `json:"hand"`
	PersonaID string   `json:"persona_id,omitempty"`
}

// SubmissionSnapshot mirrors one table entry with authorship, which the
// snapshot needs even while the public view hides it.
type SubmissionSnapshot struct {
	ParticipantID string   `json:"participant_id"`
	Cards         []string `json:"cards"`
}

// Snapshot captures the complete session state.
func (s *Session) Snapshot() Snapshot {
	snap := Snapshot{
		ID:              s.ID,
		Phase:           s.Phase.String(),
		Round:           s.Round,
		JudgeIndex:      s.JudgeIndex,
		MaxParticipants: s.Settings.MaxParticipants,
		ScoreToWin:      s.Settings.ScoreToWin,
		WinnerID:        s.WinnerID,
	}
	if s.CurrentPrompt != nil {
		snap.CurrentPromptID = s.CurrentPrompt.ID
	}
	for _, c := range s.PromptDeck {
		snap.PromptDeck = append(snap.PromptDeck, c.ID)
	}
	for _, c := range s.AnswerDeck {
		snap.AnswerDeck = append(snap.AnswerDeck, c.ID)
	}
	for _, p := range s.Participants {
		ps := ParticipantSnapshot{
			ID:        p.ID,
			Name:      p.Name,
			Automated: p.Automated,
			Score:     p.Score,
		}
		for _, c := range p.Hand {
			ps.Hand = append(ps.Hand, c.ID)
		}
		if p.Profile != nil {
			ps.PersonaID = p.Profile.ID
		}
		snap.Participants = append(snap.Participants, ps)
	}
	for _, sub := range s.Table {
		ss := SubmissionSnapshot{ParticipantID: sub.ParticipantID}
		for _, c := range sub.Cards {
			ss.Cards = append(ss.Cards, c.ID)
		}
		snap.Table = append(snap.Table, ss)
	}
	return snap
}

// Restore rebuilds a session from a snapshot against the given catalog. The
// rng replaces the one lost at serialization; it only affects future
// shuffles, not the restored state.
func Restore(snap Snapshot, cat *catalog.Catalog, rng *rand.Rand) (*Session, error) {
	phase, ok := PhaseFromString(snap.Phase)
	if !ok {
		return nil, fmt.Errorf("restore session %s: unknown phase %q", snap.ID, snap.Phase)
	}

	s := &Session{
		ID:         snap.ID,
		Phase:      phase,
		Round:      snap.Round,
		JudgeIndex: snap.JudgeIndex,
		Settings: Settings{
			MaxParticipants: snap.MaxParticipants,
			ScoreToWin:      snap.ScoreToWin,
		},
		WinnerID: snap.WinnerID,
		rng:      rng,
	}

	for _, id := range snap.PromptDeck {
		card, ok := cat.PromptByID(id)
		if !ok {
			return nil, fmt.Errorf("restore session %s: unknown prompt card %s", snap.ID, id)
		}
		s.PromptDeck = append(s.PromptDeck, card)
	}
	for _, id := range snap.AnswerDeck {
		card, ok := cat.AnswerByID(id)
		if !ok {
			return nil, fmt.Errorf("restore session %s: unknown answer card %s", snap.ID, id)
		}
		s.AnswerDeck = append(s.AnswerDeck, card)
	}
	if snap.CurrentPromptID != "" {
		card, ok := cat.PromptByID(snap.CurrentPromptID)
		if !ok {
			return nil, fmt.Errorf("restore session %s: unknown prompt card %s", snap.ID, snap.CurrentPromptID)
		}
		s.CurrentPrompt = &card
	}

	for _, ps := range snap.Participants {
		p := &Participant{
			ID:        ps.ID,
			Name:      ps.Name,
			Automated: ps.Automated,
			Score:     ps.Score,
		}
		for _, id := range ps.Hand {
			card, ok := cat.AnswerByID(id)
			if !ok {
				return nil, fmt.Errorf("restore session %s: unknown answer card %s", snap.ID, id)
			}
			p.Hand = append(p.Hand, card)
		}
		if ps.PersonaID != "" {
			prof, ok := persona.ByID(ps.PersonaID)
			if !ok {
				return nil, fmt.Errorf("restore session %s: unknown persona %s", snap.ID, ps.PersonaID)
			}
			p.Profile = &prof
		}
		s.Participants = append(s.Participants, p)
	}

	for _, ss := range snap.Table {
		sub := Submission{ParticipantID: ss.ParticipantID}
		for _, id := range ss.Cards {
			card, ok := cat.AnswerByID(id)
			if !ok {
				return nil, fmt.Errorf("restore session %s: unknown answer card %s", snap.ID, id)
			}
			sub.Cards = append(sub.Cards, card)
		}
		s.Table = append(s.Table, sub)
	}

	return s, nil
}
