package ws

import "encoding/json"

// OutgoingMessage is the envelope pushed to clients: an event name plus a
// typed payload.
type OutgoingMessage struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

// IncomingMessage is the envelope read from clients. Data stays raw until
// the event-specific payload is decoded and validated at the boundary.
type IncomingMessage struct {
	From  string          `json:"from"`
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// MatchedPayload announces a freshly created session to its participants.
type MatchedPayload struct {
	SessionID   string   `json:"sessionId"`
	GameMode    string   `json:"gameMode"`
	SessionType string   `json:"sessionType"`
	Players     []string `json:"players"`
	Quality     int      `json:"quality,omitempty"`
}

// BotMatchPayload announces the fallback session with a synthetic opponent.
type BotMatchPayload struct {
	SessionID string `json:"sessionId"`
	GameMode  string `json:"gameMode"`
	Opponent  string `json:"opponent"`
}

// SessionAbandonedPayload tells remaining participants the session ended.
type SessionAbandonedPayload struct {
	SessionID string `json:"sessionId"`
	Reason    string `json:"reason"`
}

// HeartbeatPayload is what clients send on the heartbeat event.
type HeartbeatPayload struct {
	SessionID string `json:"sessionId"`
}
