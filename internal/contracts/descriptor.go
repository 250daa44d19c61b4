package contracts

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

// Load returns the ABI at path, or the fallback ABI when path is empty.
// Files may hold a bare ABI array or a build artifact with an "abi" field.
func Load(path string, fallback func() (abi.ABI, error)) (abi.ABI, error) {
	if path == "" {
		return fallback()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return abi.ABI{}, fmt.Errorf("read abi: %w", err)
	}
	return Parse(data)
}

// Parse decodes ABI JSON in either bare or artifact form.
func Parse(data []byte) (abi.ABI, error) {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '{' {
		var artifact struct {
			ABI json.RawMessage `json:"abi"`
		}
		if err := json.Unmarshal(data, &artifact); err != nil {
			return abi.ABI{}, fmt.Errorf("parse abi artifact: %w", err)
		}
		if len(artifact.ABI) == 0 {
			return abi.ABI{}, fmt.Errorf("abi artifact has no abi field")
		}
		data = artifact.ABI
	}

	parsed, err := abi.JSON(bytes.NewReader(data))
	if err != nil {
		return abi.ABI{}, fmt.Errorf("parse abi: %w", err)
	}
	return parsed, nil
}

// EventIDs returns the topic0 of every non-anonymous event, ordered by
// event name.
func EventIDs(parsed abi.ABI) []common.Hash {
	names := make([]string, 0, len(parsed.Events))
	for name, event := range parsed.Events {
		if event.Anonymous {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)

	ids := make([]common.Hash, 0, len(names))
	for _, name := range names {
		ids = append(ids, parsed.Events[name].ID)
	}
	return ids
}

// CheckEvents rejects descriptors with no events or with anonymous events.
// Anonymous events carry no topic0, so a topic-filtered query never
// returns them.
func CheckEvents(parsed abi.ABI) error {
	var anonymous []string
	for name, event := range parsed.Events {
		if event.Anonymous {
			anonymous = append(anonymous, name)
		}
	}
	if len(anonymous) > 0 {
		sort.Strings(anonymous)
		return fmt.Errorf("anonymous events are not supported: %s", strings.Join(anonymous, ", "))
	}
	if len(parsed.Events) == 0 {
		return fmt.Errorf("declares no events")
	}
	return nil
}

// CheckRegistryMethod verifies that name is a method taking no arguments
// and returning a single address[].
func CheckRegistryMethod(parsed abi.ABI, name string) error {
	method, ok := parsed.Methods[name]
	if !ok {
		return fmt.Errorf("no method %s", name)
	}
	if len(method.Inputs) != 0 {
		return fmt.Errorf("%s takes %d arguments, want none", name, len(method.Inputs))
	}
	if len(method.Outputs) != 1 || method.Outputs[0].Type.String() != "address[]" {
		return fmt.Errorf("%s must return a single address[]", name)
	}
	return nil
}

// HasMethod reports whether the ABI declares a method with the given name.
func HasMethod(parsed abi.ABI, name string) bool {
	_, ok := parsed.Methods[name]
	return ok
}
