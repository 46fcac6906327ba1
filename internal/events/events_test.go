package events

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/shoe_store/pkg/logging"
)

type fakeWriter struct {
	msgs []kafka.Message
	err  error
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeWriter) Close() error { return nil }

type failing struct{}

func (failing) Publish(context.Context, Event) error { return errors.New("broker down") }
func (failing) Close() error                         { return nil }

func TestKafkaPublisher_Message(t *testing.T) {
	t.Parallel()

	w := &fakeWriter{}
	p := &KafkaPublisher{w: w}
	e := New(OrderCreated, "order-1", map[string]any{"amount": 1200})

	require.NoError(t, p.Publish(context.Background(), e))
	require.Len(t, w.msgs, 1)
	m := w.msgs[0]
	assert.Equal(t, "order-1", string(m.Key))
	assert.Equal(t, "event_type", m.Headers[0].Key)
	assert.Equal(t, OrderCreated, string(m.Headers[0].Value))

	var got map[string]any
	require.NoError(t, json.Unmarshal(m.Value, &got))
	assert.Equal(t, OrderCreated, got["type"])
	assert.Equal(t, e.ID, got["id"])

	w.err = errors.New("no leader")
	assert.ErrorContains(t, p.Publish(context.Background(), e), "no leader")
}

func TestEmit_LogsFailure(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	ctx := logging.IntoContext(context.Background(), logging.NewWithWriter(&buf, "debug", "test"))

	Emit(ctx, failing{}, New(ProductDeleted, "p1", nil))
	assert.Contains(t, buf.String(), "event_publish_failed")
	assert.Contains(t, buf.String(), "broker down")

	Emit(ctx, nil, New(ProductDeleted, "p1", nil))
	Emit(ctx, Nop{}, New(ProductDeleted, "p1", nil))
}

func TestRecorder(t *testing.T) {
	t.Parallel()

	r := &Recorder{}
	Emit(context.Background(), r, New(UserSignedUp, "u1", nil))
	Emit(context.Background(), r, New(OrderCreated, "o1", nil))
	assert.Equal(t, []string{UserSignedUp, OrderCreated}, r.Types())
	assert.Len(t, r.Events(), 2)
}
