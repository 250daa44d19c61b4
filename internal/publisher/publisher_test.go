package publisher

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eventsIngestion/internal/model"
)

type fakeBackend struct {
	mu      sync.Mutex
	opens   int
	closes  int
	sent    []model.BrokerMessage
	openErr error
	sendErr error
}

func (f *fakeBackend) Open(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.opens++
	return f.openErr
}

func (f *fakeBackend) Send(_ context.Context, _ string, messages []model.BrokerMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return f.sendErr
	}
	f.sent = append(f.sent, messages...)
	return nil
}

func (f *fakeBackend) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closes++
	return nil
}

func messages(keys ...string) []model.BrokerMessage {
	out := make([]model.BrokerMessage, 0, len(keys))
	for _, key := range keys {
		out = append(out, model.BrokerMessage{Key: []byte(key), Value: []byte(`{}`)})
	}
	return out
}

func TestLifecycleOpenSendClose(t *testing.T) {
	backend := &fakeBackend{}
	lc := NewLifecycle(backend)
	ctx := context.Background()

	require.NoError(t, lc.Open(ctx))
	require.Error(t, lc.Open(ctx), "second open must fail")
	require.NoError(t, lc.Send(ctx, "events", messages("a", "b")))
	require.NoError(t, lc.Send(ctx, "events", nil))
	require.NoError(t, lc.Close())
	require.NoError(t, lc.Close())

	assert.Equal(t, 1, backend.opens)
	assert.Equal(t, 1, backend.closes)
	assert.Len(t, backend.sent, 2)
	assert.EqualValues(t, 2, lc.Sent())
}

func TestLifecycleSendBeforeOpenPanics(t *testing.T) {
	lc := NewLifecycle(&fakeBackend{})

	defer func() {
		r := recover()
		require.NotNil(t, r)
		_, ok := r.(model.ProgrammingError)
		assert.True(t, ok, "panic value should be a ProgrammingError, got %T", r)
	}()
	_ = lc.Send(context.Background(), "events", messages("a"))
}

func TestLifecycleCloseWithoutOpen(t *testing.T) {
	backend := &fakeBackend{}
	lc := NewLifecycle(backend)

	require.NoError(t, lc.Close())
	assert.Equal(t, 0, backend.closes, "unopened backend must not be closed")
	assert.Error(t, lc.Open(context.Background()), "open after close must fail")
}

func TestLifecycleWrapsErrors(t *testing.T) {
	ctx := context.Background()
	var publishErr *model.PublishError

	failingOpen := NewLifecycle(&fakeBackend{openErr: errors.New("no brokers")})
	err := failingOpen.Open(ctx)
	require.ErrorAs(t, err, &publishErr)
	assert.False(t, failingOpen.Opened())

	backend := &fakeBackend{sendErr: errors.New("leader not available")}
	lc := NewLifecycle(backend)
	require.NoError(t, lc.Open(ctx))
	err = lc.Send(ctx, "events", messages("a"))
	require.ErrorAs(t, err, &publishErr)
	assert.Equal(t, "events", publishErr.Topic)
	assert.Zero(t, lc.Sent())
}

func TestLifecycleConcurrentSend(t *testing.T) {
	backend := &fakeBackend{}
	lc := NewLifecycle(backend)
	ctx := context.Background()
	require.NoError(t, lc.Open(ctx))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, lc.Send(ctx, "events", messages("a", "b", "c")))
		}()
	}
	wg.Wait()
	require.NoError(t, lc.Close())

	assert.EqualValues(t, 24, lc.Sent())
	assert.Len(t, backend.sent, 24)
}

func TestNewBackend(t *testing.T) {
	backend, err := New(Config{Kind: KindKafka, Brokers: []string{"localhost:9092"}}, nil)
	require.NoError(t, err)
	assert.IsType(t, &Kafka{}, backend)

	backend, err = New(Config{Kind: KindRedis, Brokers: []string{"redis://localhost:6379/0"}}, nil)
	require.NoError(t, err)
	assert.IsType(t, &Redis{}, backend)

	backend, err = New(Config{Kind: KindJSONL, Brokers: []string{t.TempDir()}}, nil)
	require.NoError(t, err)
	assert.IsType(t, &JSONL{}, backend)

	_, err = New(Config{Kind: KindRedis, Brokers: []string{"a", "b"}}, nil)
	assert.Error(t, err)
	_, err = New(Config{Kind: "amqp"}, nil)
	assert.Error(t, err)
}
