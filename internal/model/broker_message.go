package model

const (
	HeaderEvent       = "event"
	HeaderContentType = "content-type"
)

// BrokerMessage is a transcoded ChainEvent ready to send. Key is the
// emitting address exactly as it appears on the event.
type BrokerMessage struct {
	Key     []byte
	Value   []byte
	Headers []Header
}

// Header is a message header.
type Header struct {
	Key   string
	Value []byte
}
