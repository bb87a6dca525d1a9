package game

import (
	"fmt"

	"github.com/lox/cardczar/internal/catalog"
)

// AddParticipant appends a seat. Seats can only be added in the lobby, and
// join order fixes the judge rotation order for the whole session.
func (s *Session) AddParticipant(p *Participant) error {
	if s.Phase == Concluded {
		return ErrSessionConcluded
	}
	if s.Phase != Lobby {
		return ErrNotInLobby
	}
	if len(s.Participants) >= s.Settings.MaxParticipants {
		return fmt.Errorf("%w (max %d)", ErrCapacityExceeded, s.Settings.MaxParticipants)
	}
	if s.ParticipantByID(p.ID) != nil {
		return ErrDuplicateParticipant
	}
	s.Participants = append(s.Participants, p)
	return nil
}

// StartRound advances the session into a new collecting round: rotates the
// judge, tops up hands, draws a prompt and clears the table. An empty prompt
// deck concludes the session silently; that is a valid game end, not an
// error, and leaves WinnerID empty.
func (s *Session) StartRound() error {
	if s.Phase == Concluded {
		return ErrSessionConcluded
	}
	if s.Phase != Lobby && s.Phase != RoundResolved {
		return fmt.Errorf("%w: cannot start round from %s", ErrInvalidPhase, s.Phase)
	}
	if len(s.Participants) < MinParticipants {
		return ErrInsufficientParticipants
	}
	if len(s.PromptDeck) == 0 {
		s.Phase = Concluded
		return nil
	}

	s.JudgeIndex = (s.JudgeIndex + 1) % len(s.Participants)

	// Partial top-ups are allowed when the answer deck runs low.
	for _, p := range s.Participants {
		need := HandSize - len(p.Hand)
		if need <= 0 {
			continue
		}
		if need > len(s.AnswerDeck) {
			need = len(s.AnswerDeck)
		}
		p.Hand = append(p.Hand, s.AnswerDeck[:need]...)
		s.AnswerDeck = s.AnswerDeck[need:]
	}

	prompt := s.PromptDeck[len(s.PromptDeck)-1]
	s.PromptDeck = s.PromptDeck[:len(s.PromptDeck)-1]
	s.CurrentPrompt = &prompt

	s.Table = nil
	s.Round++
	s.Phase = Collecting
	return nil
}

// SubmitAnswer plays the named cards from a participant's hand onto the
// table. When the last non-judge participant submits, the table is shuffled
// so entry order cannot identify authors, and the phase moves to Judging.
func (s *Session) SubmitAnswer(participantID string, cardIDs []string) error {
	if s.Phase == Concluded {
		return ErrSessionConcluded
	}
	if s.Phase != Collecting {
		return fmt.Errorf("%w: cannot submit during %s", ErrInvalidPhase, s.Phase)
	}

	p := s.ParticipantByID(participantID)
	if p == nil {
		return fmt.Errorf("%w: %s", ErrParticipantNotFound, participantID)
	}
	if s.Participants[s.JudgeIndex].ID == participantID {
		return ErrJudgeCannotSubmit
	}
	for _, sub := range s.Table {
		if sub.ParticipantID == participantID {
			return ErrAlreadySubmitted
		}
	}
	if required := s.RequiredAnswers(); len(cardIDs) != required {
		return fmt.Errorf("%w: need %d, got %d", ErrWrongCardCount, required, len(cardIDs))
	}

	selected := make([]catalog.AnswerCard, 0, len(cardIDs))
	for _, id := range cardIDs {
		found := false
		for _, c := range p.Hand {
			if c.ID == id {
				selected = append(selected, c)
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("%w: %s", ErrCardNotInHand, id)
		}
	}

	p.Hand = removeCards(p.Hand, cardIDs)
	s.Table = append(s.Table, Submission{ParticipantID: participantID, Cards: selected})

	if len(s.Table) == len(s.Participants)-1 {
		s.rng.Shuffle(len(s.Table), func(i, j int) {
			s.Table[i], s.Table[j] = s.Table[j], s.Table[i]
		})
		s.Phase = Judging
	}
	return nil
}

// SelectWinner resolves the round in favor of one table entry. Reaching the
// score threshold concludes the session and records the winner; otherwise
// the session parks in RoundResolved awaiting the next StartRound.
func (s *Session) SelectWinner(tableIndex int) error {
	if s.Phase == Concluded {
		return ErrSessionConcluded
	}
	if s.Phase != Judging {
		return fmt.Errorf("%w: cannot judge during %s", ErrInvalidPhase, s.Phase)
	}
	if tableIndex < 0 || tableIndex >= len(s.Table) {
		return fmt.Errorf("%w: %d of %d", ErrIndexOutOfRange, tableIndex, len(s.Table))
	}

	winner := s.ParticipantByID(s.Table[tableIndex].ParticipantID)
	winner.Score++

	if winner.Score >= s.Settings.ScoreToWin {
		s.Phase = Concluded
		s.WinnerID = winner.ID
		return nil
	}
	s.Phase = RoundResolved
	return nil
}

// Conclude ends the session immediately without a winner. Used when play
// cannot continue, such as when the answer deck has run too low to cover a
// required submission.
func (s *Session) Conclude() {
	s.Phase = Concluded
}

func removeCards(hand []catalog.AnswerCard, ids []string) []catalog.AnswerCard {
	drop := make(map[string]bool, len(ids))
	for _, id := range ids {
		drop[id] = true
	}
	out := hand[:0]
	for _, c := range hand {
		if !drop[c.ID] {
			out = append(out, c)
		}
	}
	return out
}
