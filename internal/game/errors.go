package game

import "errors"

// Validation errors returned by session mutators. They are deterministic and
// surfaced verbatim to the caller that issued the action.
var (
	ErrNotInLobby               = errors.New("participants can only join in the lobby")
	ErrCapacityExceeded         = errors.New("session is full")
	ErrDuplicateParticipant     = errors.New("participant already in session")
	ErrInvalidPhase             = errors.New("action not valid in current phase")
	ErrInsufficientParticipants = errors.New("need at least 3 participants")
	ErrParticipantNotFound      = errors.New("participant not found")
	ErrJudgeCannotSubmit        = errors.New("judge cannot submit answers")
	ErrAlreadySubmitted         = errors.New("participant already submitted this round")
	ErrWrongCardCount           = errors.New("wrong number of cards for prompt")
	ErrCardNotInHand            = errors.New("card not in participant's hand")
	ErrIndexOutOfRange          = errors.New("table index out of range")
	ErrSessionConcluded         = errors.New("session has concluded")
)
