package publisher

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"eventsIngestion/internal/model"
)

// JSONL appends messages as JSON lines to <dir>/<topic>.jsonl.
type JSONL struct {
	dir string
	mu  sync.Mutex
}

// Record is one line of a JSONL topic file.
type Record struct {
	Key     string            `json:"key"`
	Value   json.RawMessage   `json:"value"`
	Headers map[string]string `json:"headers,omitempty"`
}

func NewJSONL(dir string) *JSONL {
	return &JSONL{dir: dir}
}

func (s *JSONL) Open(context.Context) error {
	if s.dir == "" {
		return fmt.Errorf("output dir is required")
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	return nil
}

// Path returns the file a topic is written to.
func (s *JSONL) Path(topic string) string {
	return filepath.Join(s.dir, topic+".jsonl")
}

// Send appends a batch of messages as JSON lines.
func (s *JSONL) Send(_ context.Context, topic string, messages []model.BrokerMessage) error {
	if topic == "" || strings.ContainsAny(topic, `/\`) || topic == "." || topic == ".." {
		return fmt.Errorf("invalid topic name %q", topic)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	file, err := os.OpenFile(s.Path(topic), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open output file: %w", err)
	}
	defer file.Close()

	writer := bufio.NewWriter(file)
	for _, msg := range messages {
		line, err := json.Marshal(toRecord(msg))
		if err != nil {
			return fmt.Errorf("marshal record: %w", err)
		}
		if _, err := writer.Write(line); err != nil {
			return fmt.Errorf("write record: %w", err)
		}
		if err := writer.WriteByte('\n'); err != nil {
			return fmt.Errorf("write newline: %w", err)
		}
	}

	if err := writer.Flush(); err != nil {
		return fmt.Errorf("flush output: %w", err)
	}

	return nil
}

func (s *JSONL) Close() error {
	return nil
}

func toRecord(msg model.BrokerMessage) Record {
	value := json.RawMessage(msg.Value)
	if !json.Valid(msg.Value) {
		value, _ = json.Marshal(string(msg.Value))
	}

	var headers map[string]string
	if len(msg.Headers) > 0 {
		headers = make(map[string]string, len(msg.Headers))
		for _, h := range msg.Headers {
			headers[h.Key] = string(h.Value)
		}
	}
	return Record{Key: string(msg.Key), Value: value, Headers: headers}
}
