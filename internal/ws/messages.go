package ws

import "time"

// MsgType discriminates the JSON payloads pushed to connected clients.
type MsgType string

const (
	MsgTypeNewBet      MsgType = "new_bet"
	MsgTypeRoundResult MsgType = "round_result"
	MsgTypeRoundUpdate MsgType = "round_update"
	MsgTypeError       MsgType = "error"
)

// NewBetMessage mirrors the spec's NewBet event schema (§6): emitted on
// every accepted bet, after the mutation that admitted it has committed.
type NewBetMessage struct {
	Type      MsgType   `json:"type"`
	Round     uint64    `json:"round"`
	Player    string    `json:"player"`
	Amount    uint64    `json:"amount"`
	Values    []uint8   `json:"values"`
	Timestamp time.Time `json:"timestamp"`
}

// RoundResultMessage mirrors the spec's RoundResult event schema: emitted
// exactly once per round, at finish.
type RoundResultMessage struct {
	Type      MsgType   `json:"type"`
	Round     uint64    `json:"round"`
	Seed      []byte    `json:"seed"`
	Random    uint8     `json:"random"`
	Timestamp time.Time `json:"timestamp"`
}

// RoundUpdateMessage is a periodic push of an OPEN round's live state —
// remaining budget, pool value, and time left in the betting window.
type RoundUpdateMessage struct {
	Type            MsgType `json:"type"`
	Round           uint64  `json:"round"`
	PoolValue       uint64  `json:"pool_value"`
	TotalAmount     uint64  `json:"total_amount"`
	TimeLeftSeconds int64   `json:"time_left_seconds"`
}

// ErrorMessage is pushed to a single client's send channel by Hub.SendError
// on a protocol error.
type ErrorMessage struct {
	Type    MsgType `json:"type"`
	Code    string  `json:"code"`
	Message string  `json:"message"`
}
