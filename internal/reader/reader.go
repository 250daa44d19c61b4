package reader

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"

	"eventsIngestion/internal/contracts"
	"eventsIngestion/internal/decode"
	"eventsIngestion/internal/model"
)

// LogClient is the subset of the chain client the reader needs.
type LogClient interface {
	LatestBlockNumber(ctx context.Context) (uint64, error)
	CodeAt(ctx context.Context, address common.Address) ([]byte, error)
	FilterLogs(ctx context.Context, fromBlock, toBlock uint64, addresses []common.Address, topic0 []common.Hash) ([]types.Log, error)
}

// Reader fetches the historical events of one source up to the chain head.
type Reader struct {
	client    LogClient
	batchSize uint64
	logger    *zap.Logger
}

// NewReader builds a Reader. A zero batchSize queries [start, head] at once.
func NewReader(client LogClient, batchSize uint64, logger *zap.Logger) *Reader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reader{client: client, batchSize: batchSize, logger: logger}
}

// FetchEvents returns every event of the source's interface emitted by the
// source address in [StartBlock, head], in node order. The head is read once
// per call.
func (r *Reader) FetchEvents(ctx context.Context, src model.Source) ([]model.ChainEvent, error) {
	address := src.Address.Hex()

	code, err := r.client.CodeAt(ctx, src.Address)
	if err != nil {
		return nil, &model.ChainAccessError{Op: "get code", Address: address, Err: err}
	}
	if len(code) == 0 {
		return nil, &model.ChainAccessError{Op: "get code", Address: address, Err: fmt.Errorf("no contract code")}
	}

	head, err := r.client.LatestBlockNumber(ctx)
	if err != nil {
		return nil, &model.ChainAccessError{Op: "latest block", Address: address, Err: err}
	}
	if src.StartBlock > head {
		r.logger.Debug("start block beyond head", zap.String("address", address), zap.Uint64("from", src.StartBlock), zap.Uint64("head", head))
		return []model.ChainEvent{}, nil
	}

	topic0 := contracts.EventIDs(src.Interface)
	if len(topic0) == 0 {
		return []model.ChainEvent{}, nil
	}

	ranges := []BlockRange{{From: src.StartBlock, To: head}}
	if r.batchSize > 0 {
		ranges, err = SplitRange(src.StartBlock, head, r.batchSize)
		if err != nil {
			return nil, err
		}
	}

	decoder := decode.NewDecoder(src.Interface)
	events := make([]model.ChainEvent, 0)
	for _, blockRange := range ranges {
		logs, err := r.client.FilterLogs(ctx, blockRange.From, blockRange.To, []common.Address{src.Address}, topic0)
		if err != nil {
			return nil, &model.ChainAccessError{
				Op:      "filter logs " + blockRange.String(),
				Address: address,
				Err:     err,
			}
		}

		for _, log := range logs {
			event, err := decoder.Decode(log)
			if err != nil {
				return nil, &model.DecodeError{Address: log.Address.Hex(), TxHash: log.TxHash.Hex(), LogIndex: uint64(log.Index), Err: err}
			}
			events = append(events, event)
		}

		r.logger.Debug("fetch logs", zap.String("address", address), zap.Uint64("from", blockRange.From), zap.Uint64("to", blockRange.To), zap.Int("logs", len(logs)))
	}

	return events, nil
}
