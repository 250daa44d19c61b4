package registry

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"

	"eventsIngestion/internal/contracts"
	"eventsIngestion/internal/model"
)

// Caller performs read-only contract calls.
type Caller interface {
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
}

// Resolver lists the child contracts registered in the root contract.
type Resolver struct {
	caller Caller
	method string
}

// NewResolver builds a Resolver calling the given address[] getter.
func NewResolver(caller Caller, method string) *Resolver {
	return &Resolver{caller: caller, method: method}
}

// ListRegistered calls the registry getter against current root state and
// returns the addresses in contract order.
func (r *Resolver) ListRegistered(ctx context.Context, root model.Source) ([]common.Address, error) {
	address := root.Address.Hex()

	if err := contracts.CheckRegistryMethod(root.Interface, r.method); err != nil {
		return nil, &model.ConfigError{Field: "registry-method", Reason: err.Error()}
	}
	data, err := root.Interface.Pack(r.method)
	if err != nil {
		return nil, &model.ConfigError{Field: "registry-method", Reason: err.Error()}
	}

	msg := ethereum.CallMsg{To: &root.Address, Data: data}
	resp, err := r.caller.CallContract(ctx, msg, nil)
	if err != nil {
		return nil, &model.ChainAccessError{Op: "call " + r.method, Address: address, Err: err}
	}
	if len(resp) == 0 {
		return nil, &model.ChainAccessError{Op: "call " + r.method, Address: address, Err: fmt.Errorf("empty response, no contract code")}
	}

	values, err := root.Interface.Unpack(r.method, resp)
	if err != nil {
		return nil, &model.ChainAccessError{Op: "unpack " + r.method, Address: address, Err: err}
	}
	if len(values) != 1 {
		return nil, &model.ChainAccessError{Op: "unpack " + r.method, Address: address, Err: fmt.Errorf("expected 1 output, got %d", len(values))}
	}

	addresses, ok := values[0].([]common.Address)
	if !ok {
		return nil, &model.ChainAccessError{Op: "unpack " + r.method, Address: address, Err: fmt.Errorf("unsupported output type %T", values[0])}
	}

	out := make([]common.Address, len(addresses))
	copy(out, addresses)
	return out, nil
}

// Snapshot is the immutable child list for one run.
type Snapshot struct {
	addresses []common.Address
}

// NewSnapshot drops duplicates and the root itself, keeping registry order.
func NewSnapshot(root common.Address, registered []common.Address) Snapshot {
	seen := map[common.Address]struct{}{root: {}}
	addresses := make([]common.Address, 0, len(registered))
	for _, address := range registered {
		if _, ok := seen[address]; ok {
			continue
		}
		seen[address] = struct{}{}
		addresses = append(addresses, address)
	}
	return Snapshot{addresses: addresses}
}

// Len returns the number of children.
func (s Snapshot) Len() int {
	return len(s.addresses)
}

// Addresses returns a copy of the child addresses.
func (s Snapshot) Addresses() []common.Address {
	out := make([]common.Address, len(s.addresses))
	copy(out, s.addresses)
	return out
}
