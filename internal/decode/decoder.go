package decode

import (
	"fmt"
	"sort"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"

	"eventsIngestion/internal/model"
)

// Decoder turns raw logs into ChainEvents using one contract interface.
type Decoder struct {
	events map[common.Hash]abi.Event
}

// NewDecoder indexes the non-anonymous events of an ABI by topic0.
func NewDecoder(parsed abi.ABI) *Decoder {
	events := make(map[common.Hash]abi.Event, len(parsed.Events))
	for _, event := range parsed.Events {
		if event.Anonymous {
			continue
		}
		events[event.ID] = event
	}
	return &Decoder{events: events}
}

// CanDecode checks if the topic0 is supported.
func (d *Decoder) CanDecode(topic0 common.Hash) bool {
	_, ok := d.events[topic0]
	return ok
}

// Decode converts a log into a ChainEvent.
func (d *Decoder) Decode(log types.Log) (model.ChainEvent, error) {
	if len(log.Topics) == 0 {
		return model.ChainEvent{}, fmt.Errorf("missing topics")
	}
	event, ok := d.events[log.Topics[0]]
	if !ok {
		return model.ChainEvent{}, fmt.Errorf("unsupported topic0: %s", log.Topics[0].Hex())
	}

	raw := make(map[string]interface{}, len(event.Inputs))

	indexed := indexedArguments(event.Inputs)
	if len(log.Topics) != len(indexed)+1 {
		return model.ChainEvent{}, fmt.Errorf("expected %d topics, got %d", len(indexed)+1, len(log.Topics))
	}
	if len(indexed) > 0 {
		if err := abi.ParseTopicsIntoMap(raw, indexed, log.Topics[1:]); err != nil {
			return model.ChainEvent{}, fmt.Errorf("parse topics: %w", err)
		}
	}

	if nonIndexed := event.Inputs.NonIndexed(); len(nonIndexed) > 0 {
		if err := nonIndexed.UnpackIntoMap(raw, log.Data); err != nil {
			return model.ChainEvent{}, fmt.Errorf("unpack %s: %w", event.Name, err)
		}
	}

	argTypes := make(map[string]abi.Type, len(event.Inputs))
	for _, input := range event.Inputs {
		argTypes[input.Name] = input.Type
	}

	args := make(map[string]model.Value, len(raw))
	for _, name := range sortedKeys(raw) {
		typ, ok := argTypes[name]
		if !ok {
			return model.ChainEvent{}, fmt.Errorf("%s.%s: unknown argument", event.Name, name)
		}
		value, err := TypedValue(typ, raw[name])
		if err != nil {
			return model.ChainEvent{}, fmt.Errorf("%s.%s: %w", event.Name, name, err)
		}
		args[name] = value
	}

	return buildChainEvent(log, event, args), nil
}

func buildChainEvent(log types.Log, event abi.Event, args map[string]model.Value) model.ChainEvent {
	topics := make([]string, 0, len(log.Topics))
	for _, topic := range log.Topics {
		topics = append(topics, topic.Hex())
	}

	return model.ChainEvent{
		Address:     log.Address.Hex(),
		BlockNumber: log.BlockNumber,
		BlockHash:   log.BlockHash.Hex(),
		TxHash:      log.TxHash.Hex(),
		TxIndex:     uint64(log.TxIndex),
		LogIndex:    uint64(log.Index),
		Removed:     log.Removed,
		EventName:   event.Name,
		Signature:   event.Sig,
		Args:        args,
		Raw: model.RawLog{
			Topics: topics,
			Data:   hexutil.Encode(log.Data),
		},
	}
}

func indexedArguments(args abi.Arguments) abi.Arguments {
	indexed := make(abi.Arguments, 0, len(args))
	for _, arg := range args {
		if arg.Indexed {
			indexed = append(indexed, arg)
		}
	}
	return indexed
}

func sortedKeys(m map[string]interface{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
