package model

import (
	"errors"
	"fmt"
)

// ConfigError reports a missing or malformed required setting.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config %s: %s", e.Field, e.Reason)
}

// ChainAccessError reports a failed node interaction.
type ChainAccessError struct {
	Op      string
	Address string
	Err     error
}

func (e *ChainAccessError) Error() string {
	return fmt.Sprintf("chain %s %s: %v", e.Op, e.Address, e.Err)
}

func (e *ChainAccessError) Unwrap() error { return e.Err }

// DecodeError reports a log that matched an interface signature but could
// not be unpacked.
type DecodeError struct {
	Address  string
	TxHash   string
	LogIndex uint64
	Err      error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode log %s:%d from %s: %v", e.TxHash, e.LogIndex, e.Address, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// PublishError reports a failed broker open or send.
type PublishError struct {
	Topic string
	Err   error
}

func (e *PublishError) Error() string {
	if e.Topic == "" {
		return fmt.Sprintf("publish: %v", e.Err)
	}
	return fmt.Sprintf("publish to %s: %v", e.Topic, e.Err)
}

func (e *PublishError) Unwrap() error { return e.Err }

// ProgrammingError is the panic value for broken call-order contracts.
type ProgrammingError struct {
	Msg string
}

func (e ProgrammingError) Error() string {
	return "programming error: " + e.Msg
}

// ErrorKind names the error kind for metrics labels and reports.
func ErrorKind(err error) string {
	var (
		configErr  *ConfigError
		chainErr   *ChainAccessError
		decodeErr  *DecodeError
		publishErr *PublishError
	)
	switch {
	case err == nil:
		return ""
	case errors.As(err, &configErr):
		return "config"
	case errors.As(err, &chainErr):
		return "chain_access"
	case errors.As(err, &decodeErr):
		return "decode"
	case errors.As(err, &publishErr):
		return "publish"
	default:
		return "other"
	}
}
