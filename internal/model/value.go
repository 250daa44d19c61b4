package model

// ValueKind names the ABI value shapes an event argument can take.
type ValueKind string

const (
	KindInt     ValueKind = "int"
	KindBytes   ValueKind = "bytes"
	KindAddress ValueKind = "address"
	KindBool    ValueKind = "bool"
	KindString  ValueKind = "string"
	KindArray   ValueKind = "array"
	KindTuple   ValueKind = "tuple"
)

// Value is a schema-less decoded ABI argument. Exactly one payload field is
// meaningful, selected by Kind. Integers are decimal strings so 256-bit
// values survive JSON consumers.
type Value struct {
	Kind    ValueKind `json:"kind"`
	Int     string    `json:"int,omitempty"`
	Bytes   string    `json:"bytes,omitempty"`
	Address string    `json:"address,omitempty"`
	Bool    bool      `json:"bool,omitempty"`
	String  string    `json:"string,omitempty"`
	Items   []Value   `json:"items,omitempty"`
}

func IntValue(decimal string) Value { return Value{Kind: KindInt, Int: decimal} }
func BytesValue(hex string) Value { return Value{Kind: KindBytes, Bytes: hex} }
func AddressValue(hex string) Value { return Value{Kind: KindAddress, Address: hex} }
func BoolValue(b bool) Value { return Value{Kind: KindBool, Bool: b} }
func StringValue(s string) Value { return Value{Kind: KindString, String: s} }
func ArrayValue(items []Value) Value { return Value{Kind: KindArray, Items: nonEmpty(items)} }
func TupleValue(items []Value) Value { return Value{Kind: KindTuple, Items: nonEmpty(items)} }

// nonEmpty returns nil for an empty item list.
func nonEmpty(items []Value) []Value {
	if len(items) == 0 {
		return nil
	}
	return items
}
