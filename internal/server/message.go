package server

import (
	"encoding/json"
	"time"

	"github.com/lox/cardczar/internal/game"
	"github.com/lox/cardczar/internal/persona"
)

// Message represents the base WebSocket message structure
type Message struct {
	Type      MessageType     `json:"type"`
	Data      json.RawMessage `json:"data"`
	Timestamp time.Time       `json:"timestamp"`
}

// NewMessage creates a new message with the current timestamp
func NewMessage(messageType MessageType, data interface{}) (*Message, error) {
	dataBytes, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	return &Message{
		Type:      messageType,
		Data:      dataBytes,
		Timestamp: time.Now(),
	}, nil
}

// Client → Server Messages

type CreateSessionData struct {
	PlayerName string   `json:"playerName"`
	PersonaIDs []string `json:"personaIds"`
	ScoreToWin int      `json:"scoreToWin,omitempty"`
}

type JoinSessionData struct {
	SessionID  string `json:"sessionId"`
	PlayerName string `json:"playerName"`
}

type StartGameData struct {
	SessionID string `json:"sessionId"`
}

type SubmitAnswerData struct {
	SessionID string   `json:"sessionId"`
	CardIDs   []string `json:"cardIds"`
}

type SelectWinnerData struct {
	SessionID  string `json:"sessionId"`
	TableIndex int    `json:"tableIndex"`
}

type GetHandData struct {
	SessionID string `json:"sessionId"`
}

// Server → Client Messages

type ErrorData struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type SessionCreatedData struct {
	SessionID     string    `json:"sessionId"`
	ParticipantID string    `json:"participantId"`
	State         game.View `json:"state"`
}

type SessionJoinedData struct {
	SessionID     string    `json:"sessionId"`
	ParticipantID string    `json:"participantId"`
	State         game.View `json:"state"`
}

type SessionStateData struct {
	State game.View `json:"state"`
}

type RoundStartedData struct {
	Round   int       `json:"round"`
	JudgeID string    `json:"judgeId"`
	State   game.View `json:"state"`
}

type AnswerSubmittedData struct {
	ParticipantID string `json:"participantId"`
	Submitted     int    `json:"submitted"`
	Expected      int    `json:"expected"`
}

type JudgingStartedData struct {
	JudgeID string    `json:"judgeId"`
	State   game.View `json:"state"`
}

type WinnerSelectedData struct {
	ParticipantID string    `json:"participantId"`
	Score         int       `json:"score"`
	State         game.View `json:"state"`
}

type SessionConcludedData struct {
	WinnerID string    `json:"winnerId,omitempty"`
	State    game.View `json:"state"`
}

type PersonaListData struct {
	Personas []persona.Persona `json:"personas"`
}
