package registry

import (
	"context"
	"errors"
	"math/big"
	"reflect"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"eventsIngestion/internal/contracts"
	"eventsIngestion/internal/model"
)

type fakeCaller struct {
	resp []byte
	err  error
	msg  ethereum.CallMsg
}

func (f *fakeCaller) CallContract(_ context.Context, msg ethereum.CallMsg, _ *big.Int) ([]byte, error) {
	f.msg = msg
	return f.resp, f.err
}

func rootSource(t *testing.T) (model.Source, abi.ABI) {
	t.Helper()
	rootABI, err := contracts.RootABI()
	if err != nil {
		t.Fatalf("abi parse: %v", err)
	}
	return model.Source{
		Role:      model.RoleRoot,
		Address:   common.HexToAddress("0xf000000000000000000000000000000000000000"),
		Interface: rootABI,
	}, rootABI
}

func TestListRegistered(t *testing.T) {
	root, rootABI := rootSource(t)
	children := []common.Address{
		common.HexToAddress("0x0a"),
		common.HexToAddress("0x0b"),
		common.HexToAddress("0x0c"),
	}
	resp, err := rootABI.Methods[contracts.DefaultRegistryMethod].Outputs.Pack(children)
	if err != nil {
		t.Fatalf("pack outputs: %v", err)
	}

	caller := &fakeCaller{resp: resp}
	got, err := NewResolver(caller, contracts.DefaultRegistryMethod).ListRegistered(context.Background(), root)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if !reflect.DeepEqual(got, children) {
		t.Fatalf("children mismatch: %v", got)
	}
	if caller.msg.To == nil || *caller.msg.To != root.Address {
		t.Fatalf("call not addressed to root")
	}
	if !reflect.DeepEqual(caller.msg.Data, rootABI.Methods[contracts.DefaultRegistryMethod].ID) {
		t.Fatalf("unexpected calldata %x", caller.msg.Data)
	}
}

func TestListRegisteredEmpty(t *testing.T) {
	root, rootABI := rootSource(t)
	resp, err := rootABI.Methods[contracts.DefaultRegistryMethod].Outputs.Pack([]common.Address{})
	if err != nil {
		t.Fatalf("pack outputs: %v", err)
	}

	got, err := NewResolver(&fakeCaller{resp: resp}, contracts.DefaultRegistryMethod).ListRegistered(context.Background(), root)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected no children, got %v", got)
	}
}

func TestListRegisteredErrors(t *testing.T) {
	root, _ := rootSource(t)
	var chainErr *model.ChainAccessError

	_, err := NewResolver(&fakeCaller{err: errors.New("dial tcp: refused")}, contracts.DefaultRegistryMethod).ListRegistered(context.Background(), root)
	if !errors.As(err, &chainErr) {
		t.Fatalf("expected chain access error, got %v", err)
	}

	_, err = NewResolver(&fakeCaller{}, contracts.DefaultRegistryMethod).ListRegistered(context.Background(), root)
	if !errors.As(err, &chainErr) {
		t.Fatalf("expected chain access error for empty response, got %v", err)
	}

	var cfgErr *model.ConfigError
	_, err = NewResolver(&fakeCaller{}, "missing").ListRegistered(context.Background(), root)
	if !errors.As(err, &cfgErr) || cfgErr.Field != "registry-method" {
		t.Fatalf("expected config error for unknown method, got %v", err)
	}
	if model.ErrorKind(err) != "config" {
		t.Fatalf("unexpected kind %s", model.ErrorKind(err))
	}

	_, err = NewResolver(&fakeCaller{resp: []byte{0x01}}, contracts.DefaultRegistryMethod).ListRegistered(context.Background(), root)
	if !errors.As(err, &chainErr) {
		t.Fatalf("expected chain access error for malformed response, got %v", err)
	}
}

func TestListRegisteredRejectsNonAddressGetter(t *testing.T) {
	parsed, err := abi.JSON(strings.NewReader(`[
		{"type":"function","name":"count","inputs":[],"outputs":[{"name":"","type":"uint256"}],"stateMutability":"view"},
		{"type":"function","name":"homeAt","inputs":[{"name":"i","type":"uint256"}],"outputs":[{"name":"","type":"address"}],"stateMutability":"view"}
	]`))
	if err != nil {
		t.Fatalf("abi parse: %v", err)
	}
	root := model.Source{Role: model.RoleRoot, Address: common.HexToAddress("0xf0"), Interface: parsed}
	caller := &fakeCaller{resp: make([]byte, 32)}

	for _, method := range []string{"count", "homeAt"} {
		_, err := NewResolver(caller, method).ListRegistered(context.Background(), root)
		var cfgErr *model.ConfigError
		if !errors.As(err, &cfgErr) {
			t.Fatalf("%s: expected config error, got %v", method, err)
		}
	}
	if caller.msg.Data != nil {
		t.Fatalf("no call should be made for an invalid getter")
	}
}

func TestNewSnapshot(t *testing.T) {
	root := common.HexToAddress("0xf0")
	a := common.HexToAddress("0x0a")
	b := common.HexToAddress("0x0b")

	snapshot := NewSnapshot(root, []common.Address{b, a, root, b})
	if snapshot.Len() != 2 {
		t.Fatalf("snapshot len: %d", snapshot.Len())
	}
	got := snapshot.Addresses()
	if !reflect.DeepEqual(got, []common.Address{b, a}) {
		t.Fatalf("snapshot order: %v", got)
	}

	got[0] = root
	if snapshot.Addresses()[0] != b {
		t.Fatalf("snapshot must not share its backing array")
	}
}
