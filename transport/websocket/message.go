package websocket

import (
	"encoding/json"

	"github.com/rocketscienceinc/tictactoe-series/internal/entity"
)

const (
	actionGet   = "series:get"
	actionSetup = "series:setup"
	actionStart = "series:start"
	actionMove  = "series:move"
	actionNext  = "series:next"
	actionAck   = "series:ack"
	actionReset = "series:reset"

	actionState  = "series:state"
	actionNotice = "notice"
	actionError  = "error"
)

// Message represents a WebSocket message with an action type and a payload.
type Message struct {
	Action  string          `json:"action"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Payload is what clients send along with an action.
type Payload struct {
	Players *entity.Players `json:"players,omitempty"`
	BestOf  *int            `json:"best_of,omitempty"`
	Cell    *int            `json:"cell,omitempty"`
}

type ResponsePayload struct {
	Series *entity.View `json:"series,omitempty"`
	Notice string       `json:"notice,omitempty"`
	Error  string       `json:"error,omitempty"`
}

func newMessage(action string, payload ResponsePayload) (Message, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Message{}, err
	}

	return Message{Action: action, Payload: raw}, nil
}
