package session

import "github.com/rocketscienceinc/tictactoe-rooms/internal/entity"

// inbound
const (
	TypeCreate = "create"
	TypeJoin   = "join"
	TypeMove   = "move"
	TypeReset  = "reset"
	TypeLeave  = "leave"
)

// outbound
const (
	TypeConnected = "connected"
	TypeCreated   = "created"
	TypeJoined    = "joined"
	TypeState     = "state"
	TypeLeft      = "left"
	TypeError     = "error"
)

const (
	errInvalidFormat = "Invalid message format"
	errUnknownType   = "Unknown message type"
	errRoomNotFound  = "Room not found"
	errRoomFull      = "Room full"
	errAlreadyInRoom = "Already in a room"
	errCreateFailed  = "Could not create room"
)

// Message - a client command.
type Message struct {
	Type   string `json:"type"`
	RoomID string `json:"roomId,omitempty"`
	Index  *int   `json:"index,omitempty"`
}

// Response - a server event.
type Response struct {
	Type     string            `json:"type"`
	ClientID string            `json:"clientId,omitempty"`
	RoomID   string            `json:"roomId,omitempty"`
	State    *entity.GameState `json:"state,omitempty"`
	Message  string            `json:"message,omitempty"`
}

func stateResponse(kind, roomID string, state entity.GameState) Response {
	return Response{Type: kind, RoomID: roomID, State: &state}
}

func errorResponse(message string) Response {
	return Response{Type: TypeError, Message: message}
}
