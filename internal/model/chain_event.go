package model

import (
	"encoding/json"
	"strconv"
)

// ChainEvent is one decoded contract log as republished to the broker.
type ChainEvent struct {
	Address     string           `json:"address"`
	BlockNumber uint64           `json:"block_number"`
	BlockHash   string           `json:"block_hash"`
	TxHash      string           `json:"tx_hash"`
	TxIndex     uint64           `json:"tx_index"`
	LogIndex    uint64           `json:"log_index"`
	Removed     bool             `json:"removed"`
	EventName   string           `json:"event_name"`
	Signature   string           `json:"signature"`
	Args        map[string]Value `json:"args"`
	Raw         RawLog           `json:"raw"`
}

// RawLog keeps the undecoded log payload for replay.
type RawLog struct {
	Topics []string `json:"topics"`
	Data   string   `json:"data"`
}

// ID identifies the event within the chain.
func (e ChainEvent) ID() string {
	return e.TxHash + ":" + strconv.FormatUint(e.LogIndex, 10)
}

// MarshalJSON ensures ChainEvent is encoded with stable field names.
func (e ChainEvent) MarshalJSON() ([]byte, error) {
	type Alias ChainEvent
	return json.Marshal(Alias(e))
}

// UnmarshalJSON decodes a ChainEvent from JSON.
func (e *ChainEvent) UnmarshalJSON(data []byte) error {
	type Alias ChainEvent
	var a Alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	*e = ChainEvent(a)
	return nil
}
