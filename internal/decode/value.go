package decode

import (
	"fmt"
	"math/big"
	"reflect"
	"strconv"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"eventsIngestion/internal/model"
)

// TypedValue maps an unpacked argument into the Value tree using its ABI
// type. Only bytes and bytesN become bytes; uint8[] and uint8[N] stay
// arrays of integers. Indexed dynamic arguments arrive as their topic hash.
func TypedValue(typ abi.Type, value interface{}) (model.Value, error) {
	if hash, ok := value.(common.Hash); ok {
		return model.BytesValue(hexutil.Encode(hash[:])), nil
	}

	switch typ.T {
	case abi.SliceTy, abi.ArrayTy:
		rv := reflect.ValueOf(value)
		if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
			return model.Value{}, fmt.Errorf("%s: unexpected value type %T", typ.String(), value)
		}
		items := make([]model.Value, 0, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			item, err := TypedValue(*typ.Elem, rv.Index(i).Interface())
			if err != nil {
				return model.Value{}, fmt.Errorf("index %d: %w", i, err)
			}
			items = append(items, item)
		}
		return model.ArrayValue(items), nil
	case abi.TupleTy:
		rv := reflect.Indirect(reflect.ValueOf(value))
		if rv.Kind() != reflect.Struct || rv.NumField() != len(typ.TupleElems) {
			return model.Value{}, fmt.Errorf("%s: unexpected value type %T", typ.String(), value)
		}
		items := make([]model.Value, 0, len(typ.TupleElems))
		for i, elem := range typ.TupleElems {
			item, err := TypedValue(*elem, rv.Field(i).Interface())
			if err != nil {
				return model.Value{}, fmt.Errorf("field %s: %w", rv.Type().Field(i).Name, err)
			}
			items = append(items, item)
		}
		return model.TupleValue(items), nil
	default:
		return ToValue(value)
	}
}

// ToValue maps a value produced by the go-ethereum ABI unpacker into the
// schema-less Value tree by its Go type alone. Byte slices and byte arrays
// become bytes; use TypedValue when the ABI type is known.
func ToValue(value interface{}) (model.Value, error) {
	switch v := value.(type) {
	case nil:
		return model.Value{}, fmt.Errorf("nil value")
	case *big.Int:
		if v == nil {
			return model.Value{}, fmt.Errorf("nil integer")
		}
		return model.IntValue(v.String()), nil
	case common.Address:
		return model.AddressValue(v.Hex()), nil
	case *common.Address:
		return model.AddressValue(v.Hex()), nil
	case common.Hash:
		return model.BytesValue(hexutil.Encode(v[:])), nil
	case bool:
		return model.BoolValue(v), nil
	case string:
		return model.StringValue(v), nil
	case []byte:
		return model.BytesValue(hexutil.Encode(v)), nil
	}

	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return model.IntValue(strconv.FormatUint(rv.Uint(), 10)), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return model.IntValue(strconv.FormatInt(rv.Int(), 10)), nil
	case reflect.Array:
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			buf := make([]byte, rv.Len())
			for i := range buf {
				buf[i] = byte(rv.Index(i).Uint())
			}
			return model.BytesValue(hexutil.Encode(buf)), nil
		}
		return itemsValue(rv)
	case reflect.Slice:
		return itemsValue(rv)
	case reflect.Struct:
		items := make([]model.Value, 0, rv.NumField())
		for i := 0; i < rv.NumField(); i++ {
			item, err := ToValue(rv.Field(i).Interface())
			if err != nil {
				return model.Value{}, fmt.Errorf("field %s: %w", rv.Type().Field(i).Name, err)
			}
			items = append(items, item)
		}
		return model.TupleValue(items), nil
	case reflect.Ptr:
		if rv.IsNil() {
			return model.Value{}, fmt.Errorf("nil pointer")
		}
		return ToValue(rv.Elem().Interface())
	default:
		return model.Value{}, fmt.Errorf("unsupported value type %T", value)
	}
}

func itemsValue(rv reflect.Value) (model.Value, error) {
	items := make([]model.Value, 0, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		item, err := ToValue(rv.Index(i).Interface())
		if err != nil {
			return model.Value{}, fmt.Errorf("index %d: %w", i, err)
		}
		items = append(items, item)
	}
	return model.ArrayValue(items), nil
}
