package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Additional-Code/shopdata/internal/config"
	"github.com/Additional-Code/shopdata/internal/messaging"
	"github.com/Additional-Code/shopdata/pkg/errorbank"
)

const topic = "datasets.generated"

// feedClient delivers queued messages once, then blocks until cancelled.
type feedClient struct {
	mu    sync.Mutex
	queue []messaging.Message
}

func (f *feedClient) Publish(context.Context, []byte, []byte, map[string]string) error { return nil }

func (f *feedClient) Consume(ctx context.Context, handler messaging.Handler) error {
	f.mu.Lock()
	pending := f.queue
	f.queue = nil
	f.mu.Unlock()

	for _, msg := range pending {
		_ = handler(ctx, msg)
	}
	<-ctx.Done()
	return ctx.Err()
}

func (f *feedClient) Topic() string { return topic }

func enabledConfig() config.Config {
	return config.Config{Messaging: config.Messaging{
		Enabled: true,
		Workers: config.Worker{Enabled: true, Concurrency: 2},
	}}
}

func TestEngine_Dispatch(t *testing.T) {
	var seen []string
	engine := NewEngine(Params{
		Client: &feedClient{},
		Logger: zap.NewNop(),
		Config: enabledConfig(),
		Registrations: []HandlerRegistration{
			{Topic: topic, Handler: func(_ context.Context, msg messaging.Message) error {
				seen = append(seen, string(msg.Key))
				if string(msg.Key) == "bad" {
					return errors.New("boom")
				}
				return nil
			}},
			{Topic: topic, Handler: func(context.Context, messaging.Message) error {
				t.Fatal("duplicate registration must be ignored")
				return nil
			}},
			{Topic: "", Handler: nil},
		},
	})

	ctx := context.Background()
	require.NoError(t, engine.Dispatch(ctx, messaging.Message{Topic: topic, Key: []byte("a")}))
	require.Error(t, engine.Dispatch(ctx, messaging.Message{Topic: topic, Key: []byte("bad")}))
	require.NoError(t, engine.Dispatch(ctx, messaging.Message{Topic: "other"}))

	assert.Equal(t, []string{"a", "bad"}, seen)
	assert.Equal(t, Stats{Processed: 1, Failed: 1, Unrouted: 1}, engine.Stats())
}

func TestEngine_StartRequiresMessaging(t *testing.T) {
	engine := NewEngine(Params{Client: &feedClient{}, Logger: zap.NewNop(), Config: config.Config{}})

	err := engine.Start(context.Background())
	assert.True(t, errorbank.Is(err, errorbank.KindInvalidConfig), "got %v", err)
	assert.NoError(t, engine.Stop(context.Background()))
}

func TestEngine_ConsumesUntilStopped(t *testing.T) {
	client := &feedClient{queue: []messaging.Message{{Topic: topic}, {Topic: topic}}}
	handled := make(chan struct{}, 2)
	engine := NewEngine(Params{
		Client: client,
		Logger: zap.NewNop(),
		Config: enabledConfig(),
		Registrations: []HandlerRegistration{{Topic: topic, Handler: func(context.Context, messaging.Message) error {
			handled <- struct{}{}
			return nil
		}}},
	})

	require.NoError(t, engine.Start(context.Background()))
	for range 2 {
		select {
		case <-handled:
		case <-time.After(2 * time.Second):
			t.Fatal("message not handled")
		}
	}

	stopCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, engine.Stop(stopCtx))
	assert.Equal(t, int64(2), engine.Stats().Processed)
}
