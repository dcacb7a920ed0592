package queue

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryRoundTrip(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	q := NewInMemory(4)
	require.NoError(t, q.Publish(ctx, Message{Type: "scan", Body: []byte("payload")}))

	msgs, err := q.Consume(ctx)
	require.NoError(t, err)
	msg := <-msgs
	assert.Equal(t, "scan", msg.Type)
	assert.Equal(t, []byte("payload"), msg.Body)
}

func TestInMemoryPublishCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	q := NewInMemory(0)
	err := q.Publish(ctx, Message{Type: "scan"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSerializeBodyMayContainSeparator(t *testing.T) {
	msg := Message{Type: "scan", Body: []byte(`{"a":"b|c"}`)}
	got := deserialize(serialize(msg))
	assert.Equal(t, msg, got)
}

func TestDeserializeWithoutSeparator(t *testing.T) {
	got := deserialize("bare")
	assert.Empty(t, got.Type)
	assert.Equal(t, []byte("bare"), got.Body)
}
