package server

// MessageType represents a WebSocket message type with type safety
type MessageType string

// WebSocket message type constants
// These are used for client-server communication protocol
const (
	// Client to server messages
	MessageTypeCreateSession MessageType = "create_session"
	MessageTypeJoinSession   MessageType = "join_session"
	MessageTypeStartGame     MessageType = "start_game"
	MessageTypeSubmitAnswer  MessageType = "submit_answer"
	MessageTypeSelectWinner  MessageType = "select_winner"
	MessageTypeListPersonas  MessageType = "list_personas"
	MessageTypeGetHand       MessageType = "get_hand"

	// Server to client messages
	MessageTypeSessionCreated   MessageType = "session_created"
	MessageTypeSessionState     MessageType = "session_state"
	MessageTypeYourHand         MessageType = "your_hand"
	MessageTypePersonaList      MessageType = "persona_list"
	MessageTypeRoundStarted     MessageType = "round_started"
	MessageTypeAnswerSubmitted  MessageType = "answer_submitted"
	MessageTypeJudgingStarted   MessageType = "judging_started"
	MessageTypeWinnerSelected   MessageType = "winner_selected"
	MessageTypeSessionConcluded MessageType = "session_concluded"
	MessageTypeError            MessageType = "error"
)

// String returns the string representation of the message type
func (mt MessageType) String() string {
	return string(mt)
}
