package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	skafka "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lcmcoursier/courier-quote/internal/core/domain"
)

// fakeWriter records messages written.
type fakeWriter struct {
	msgs   []skafka.Message
	err    error
	closed bool
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...skafka.Message) error {
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeWriter) Close() error {
	f.closed = true
	return nil
}

func TestPublisher_PublishOrderReceived(t *testing.T) {
	fw := &fakeWriter{}
	p := NewPublisherWithWriter(fw, zerolog.Nop())

	o := &domain.Order{
		ID:         "0b7f3c52-0000-4000-8000-000000000001",
		Fields:     map[string][]string{"nom": {"Ada"}},
		ReceivedAt: time.Date(2026, 3, 2, 8, 30, 0, 0, time.UTC),
	}
	require.NoError(t, p.PublishOrderReceived(context.Background(), o))
	require.Len(t, fw.msgs, 1)

	msg := fw.msgs[0]
	assert.Equal(t, o.ID, string(msg.Key))
	assert.Equal(t, "event_type", msg.Headers[0].Key)

	var ev OrderReceivedEvent
	require.NoError(t, json.Unmarshal(msg.Value, &ev))
	assert.Equal(t, EventOrderReceived, ev.Type)
	assert.Equal(t, o.ID, ev.OrderID)
	assert.Equal(t, []string{"Ada"}, ev.Fields["nom"])
	assert.True(t, o.ReceivedAt.Equal(ev.ReceivedAt))
}

func TestPublisher_WriteError(t *testing.T) {
	boom := errors.New("leader not available")
	p := NewPublisherWithWriter(&fakeWriter{err: boom}, zerolog.Nop())

	err := p.PublishOrderReceived(context.Background(), &domain.Order{ID: "x"})
	assert.ErrorIs(t, err, boom)
}

func TestPublisher_Close(t *testing.T) {
	fw := &fakeWriter{}
	require.NoError(t, NewPublisherWithWriter(fw, zerolog.Nop()).Close())
	assert.True(t, fw.closed)
}

func TestNewPublisher_FlushesSingleEventsPromptly(t *testing.T) {
	p := NewPublisher("localhost:9092", "orders", zerolog.Nop())
	defer p.Close()

	w, ok := p.writer.(*skafka.Writer)
	require.True(t, ok)
	assert.Equal(t, batchTimeout, w.BatchTimeout)
	assert.Less(t, w.BatchTimeout, 100*time.Millisecond)
}
