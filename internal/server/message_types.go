package server

// MessageType represents a WebSocket message type with type safety
type MessageType string

// WebSocket message type constants
const (
	// Client to server messages, one per session operation
	MessageTypeStart           MessageType = "start"
	MessageTypeSubmit          MessageType = "submit"
	MessageTypeExit            MessageType = "exit"
	MessageTypeToggleMode      MessageType = "toggle_mode"
	MessageTypeRefreshRankings MessageType = "refresh_rankings"

	// Server to client messages
	MessageTypeView  MessageType = "view"
	MessageTypeError MessageType = "error"
)

// String returns the string representation of the message type
func (mt MessageType) String() string {
	return string(mt)
}

// Error codes carried by MessageTypeError
const (
	ErrorCodeInvalidMessage     = "invalid_message"
	ErrorCodeUnknownMessageType = "unknown_message_type"
	ErrorCodeIllegalTransition  = "illegal_transition"
	ErrorCodeInvalidPlayer      = "invalid_player"
	ErrorCodeUnknownHand        = "unknown_hand"
	ErrorCodeSessionClosed      = "session_closed"
	ErrorCodeInternal           = "internal_error"
)
