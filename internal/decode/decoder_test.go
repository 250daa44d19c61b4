package decode

import (
	"math/big"
	"reflect"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"

	"eventsIngestion/internal/contracts"
	"eventsIngestion/internal/model"
)

func TestDecoderIndexedOnly(t *testing.T) {
	childABI, err := contracts.ChildABI()
	if err != nil {
		t.Fatalf("abi parse: %v", err)
	}
	decoder := NewDecoder(childABI)

	home := common.HexToAddress("0x1111111111111111111111111111111111111111")
	from := common.HexToAddress("0x2222222222222222222222222222222222222222")
	to := common.HexToAddress("0x3333333333333333333333333333333333333333")

	log := types.Log{
		Address: home,
		Topics: []common.Hash{
			childABI.Events["Transfer"].ID,
			topicFromAddress(from),
			topicFromAddress(to),
			common.BigToHash(big.NewInt(42)),
		},
		BlockNumber: 100,
		TxHash:      common.HexToHash("0xabc"),
		TxIndex:     3,
		Index:       9,
	}

	event, err := decoder.Decode(log)
	if err != nil {
		t.Fatalf("decode transfer: %v", err)
	}

	if event.EventName != "Transfer" || event.Signature != "Transfer(address,address,uint256)" {
		t.Fatalf("event identity mismatch: %s %s", event.EventName, event.Signature)
	}
	if event.Address != home.Hex() || event.BlockNumber != 100 || event.LogIndex != 9 || event.TxIndex != 3 {
		t.Fatalf("log position mismatch: %+v", event)
	}
	want := map[string]model.Value{
		"from":    model.AddressValue(from.Hex()),
		"to":      model.AddressValue(to.Hex()),
		"tokenId": model.IntValue("42"),
	}
	if !reflect.DeepEqual(event.Args, want) {
		t.Fatalf("args mismatch: %+v", event.Args)
	}
	if len(event.Raw.Topics) != 4 || event.Raw.Data != "0x" {
		t.Fatalf("raw mismatch: %+v", event.Raw)
	}
}

func TestDecoderMixedArguments(t *testing.T) {
	childABI, err := contracts.ChildABI()
	if err != nil {
		t.Fatalf("abi parse: %v", err)
	}
	decoder := NewDecoder(childABI)

	var contentHash [32]byte
	contentHash[0] = 0xde
	contentHash[31] = 0xad

	data, err := childABI.Events["ListingUpdated"].Inputs.NonIndexed().Pack("ipfs://listing", contentHash)
	if err != nil {
		t.Fatalf("pack listing: %v", err)
	}

	log := types.Log{
		Address: common.HexToAddress("0x9999999999999999999999999999999999999999"),
		Topics: []common.Hash{
			childABI.Events["ListingUpdated"].ID,
			common.BigToHash(big.NewInt(7)),
		},
		Data: data,
	}

	event, err := decoder.Decode(log)
	if err != nil {
		t.Fatalf("decode listing: %v", err)
	}

	if got := event.Args["uri"]; !reflect.DeepEqual(got, model.StringValue("ipfs://listing")) {
		t.Fatalf("uri mismatch: %+v", got)
	}
	if got := event.Args["contentHash"]; !reflect.DeepEqual(got, model.BytesValue(hexutil.Encode(contentHash[:]))) {
		t.Fatalf("content hash mismatch: %+v", got)
	}
	if got := event.Args["tokenId"]; !reflect.DeepEqual(got, model.IntValue("7")) {
		t.Fatalf("token id mismatch: %+v", got)
	}
	if event.Raw.Data != hexutil.Encode(data) {
		t.Fatalf("raw data mismatch")
	}
}

func TestDecoderRejectsMalformedLogs(t *testing.T) {
	childABI, err := contracts.ChildABI()
	if err != nil {
		t.Fatalf("abi parse: %v", err)
	}
	decoder := NewDecoder(childABI)

	if _, err := decoder.Decode(types.Log{}); err == nil {
		t.Fatalf("expected error for missing topics")
	}

	unknown := types.Log{Topics: []common.Hash{common.HexToHash("0x01")}}
	if decoder.CanDecode(unknown.Topics[0]) {
		t.Fatalf("unknown topic0 should not be decodable")
	}
	if _, err := decoder.Decode(unknown); err == nil {
		t.Fatalf("expected error for unknown topic0")
	}

	// ERC20-style Transfer with a non-indexed amount shares topic0 but not layout.
	short := types.Log{Topics: []common.Hash{
		childABI.Events["Transfer"].ID,
		topicFromAddress(common.HexToAddress("0x01")),
		topicFromAddress(common.HexToAddress("0x02")),
	}}
	if _, err := decoder.Decode(short); err == nil {
		t.Fatalf("expected error for topic count mismatch")
	}

	truncated := types.Log{
		Topics: []common.Hash{childABI.Events["ListingUpdated"].ID, common.BigToHash(big.NewInt(1))},
		Data:   []byte{0x01},
	}
	if _, err := decoder.Decode(truncated); err == nil {
		t.Fatalf("expected error for truncated data")
	}
}

func TestToValueShapes(t *testing.T) {
	tuple := struct {
		Owner  common.Address
		Amount *big.Int
		Flags  []bool
	}{
		Owner:  common.HexToAddress("0x4444444444444444444444444444444444444444"),
		Amount: big.NewInt(-5),
		Flags:  []bool{true, false},
	}

	cases := []struct {
		name  string
		input interface{}
		want  model.Value
	}{
		{"uint8", uint8(18), model.IntValue("18")},
		{"int32", int32(-15), model.IntValue("-15")},
		{"uint64", uint64(1 << 63), model.IntValue("9223372036854775808")},
		{"bytes", []byte{0x01, 0x02}, model.BytesValue("0x0102")},
		{"bytes4", [4]byte{0xca, 0xfe, 0xba, 0xbe}, model.BytesValue("0xcafebabe")},
		{"empty array", []*big.Int{}, model.ArrayValue(nil)},
		{"nested array", [][2]uint16{{1, 2}, {3, 4}}, model.ArrayValue([]model.Value{
			model.ArrayValue([]model.Value{model.IntValue("1"), model.IntValue("2")}),
			model.ArrayValue([]model.Value{model.IntValue("3"), model.IntValue("4")}),
		})},
		{"tuple", tuple, model.TupleValue([]model.Value{
			model.AddressValue(tuple.Owner.Hex()),
			model.IntValue("-5"),
			model.ArrayValue([]model.Value{model.BoolValue(true), model.BoolValue(false)}),
		})},
	}

	for _, tc := range cases {
		got, err := ToValue(tc.input)
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", tc.name, err)
		}
		if !reflect.DeepEqual(got, tc.want) {
			t.Fatalf("%s: %+v != %+v", tc.name, got, tc.want)
		}
	}

	if _, err := ToValue(nil); err == nil {
		t.Fatalf("expected error for nil")
	}
	if _, err := ToValue(map[string]int{}); err == nil {
		t.Fatalf("expected error for unsupported map")
	}
}

const scoresABI = `[{"type":"event","name":"Scored","anonymous":false,"inputs":[
	{"name":"label","type":"string","indexed":true},
	{"name":"scores","type":"uint8[]","indexed":false},
	{"name":"tiers","type":"uint8[3]","indexed":false},
	{"name":"tag","type":"bytes4","indexed":false},
	{"name":"blob","type":"bytes","indexed":false}
]}]`

func TestDecoderKeepsUint8ArraysNumeric(t *testing.T) {
	parsed, err := abi.JSON(strings.NewReader(scoresABI))
	if err != nil {
		t.Fatalf("abi parse: %v", err)
	}
	event := parsed.Events["Scored"]

	data, err := event.Inputs.NonIndexed().Pack([]uint8{1, 2, 255}, [3]uint8{4, 5, 6}, [4]byte{0xca, 0xfe, 0xba, 0xbe}, []byte{0x01})
	if err != nil {
		t.Fatalf("pack scored: %v", err)
	}
	labelHash := common.HexToHash("0x1234")

	decoded, err := NewDecoder(parsed).Decode(types.Log{
		Topics: []common.Hash{event.ID, labelHash},
		Data:   data,
	})
	if err != nil {
		t.Fatalf("decode scored: %v", err)
	}

	want := map[string]model.Value{
		"label":  model.BytesValue(hexutil.Encode(labelHash[:])),
		"scores": model.ArrayValue([]model.Value{model.IntValue("1"), model.IntValue("2"), model.IntValue("255")}),
		"tiers":  model.ArrayValue([]model.Value{model.IntValue("4"), model.IntValue("5"), model.IntValue("6")}),
		"tag":    model.BytesValue("0xcafebabe"),
		"blob":   model.BytesValue("0x01"),
	}
	if !reflect.DeepEqual(decoded.Args, want) {
		t.Fatalf("args mismatch: %+v", decoded.Args)
	}
}

func TestTypedValueShapes(t *testing.T) {
	uint8Slice, _ := abi.NewType("uint8[]", "", nil)
	uint8Array, _ := abi.NewType("uint8[2]", "", nil)
	bytesType, _ := abi.NewType("bytes", "", nil)
	tupleType, err := abi.NewType("tuple", "", []abi.ArgumentMarshaling{
		{Name: "level", Type: "uint8"},
		{Name: "marks", Type: "uint8[]"},
	})
	if err != nil {
		t.Fatalf("tuple type: %v", err)
	}

	tuple := reflect.New(tupleType.GetType()).Elem()
	tuple.Field(0).Set(reflect.ValueOf(uint8(3)))
	tuple.Field(1).Set(reflect.ValueOf([]uint8{9}))

	cases := []struct {
		name  string
		typ   abi.Type
		input interface{}
		want  model.Value
	}{
		{"uint8[]", uint8Slice, []uint8{1, 2, 255}, model.ArrayValue([]model.Value{model.IntValue("1"), model.IntValue("2"), model.IntValue("255")})},
		{"uint8[2]", uint8Array, [2]uint8{7, 8}, model.ArrayValue([]model.Value{model.IntValue("7"), model.IntValue("8")})},
		{"empty uint8[]", uint8Slice, []uint8{}, model.ArrayValue(nil)},
		{"bytes", bytesType, []byte{1, 2, 255}, model.BytesValue("0x0102ff")},
		{"tuple", tupleType, tuple.Interface(), model.TupleValue([]model.Value{
			model.IntValue("3"),
			model.ArrayValue([]model.Value{model.IntValue("9")}),
		})},
	}

	for _, tc := range cases {
		got, err := TypedValue(tc.typ, tc.input)
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", tc.name, err)
		}
		if !reflect.DeepEqual(got, tc.want) {
			t.Fatalf("%s: %+v != %+v", tc.name, got, tc.want)
		}
	}

	if _, err := TypedValue(uint8Slice, "not a slice"); err == nil {
		t.Fatalf("expected error for mismatched value")
	}
}

func topicFromAddress(address common.Address) common.Hash {
	return common.BytesToHash(common.LeftPadBytes(address.Bytes(), 32))
}
