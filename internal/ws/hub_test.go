package ws

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeConn struct {
	mu       sync.Mutex
	messages [][]byte
	closed   bool
	failNext bool
}

func (c *fakeConn) WriteMessage(_ int, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failNext {
		return errors.New("broken pipe")
	}
	c.messages = append(c.messages, data)
	return nil
}

func (c *fakeConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *fakeConn) received() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.messages)
}

func (c *fakeConn) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func startHub(t *testing.T) *Hub {
	t.Helper()
	hub := NewHub(nil)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)
	return hub
}

func TestPublishReachesOnlyTopicSubscribers(t *testing.T) {
	hub := startHub(t)
	pass := &fakeConn{}
	other := &fakeConn{}
	hub.Subscribe(OrderTopic("o-1"), pass)
	hub.Subscribe(OrderTopic("o-2"), other)

	hub.Publish(OrderTopic("o-1"), []byte(`{"status":"verified"}`))

	assert.Eventually(t, func() bool { return pass.received() == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, 0, other.received())
}

func TestFailedWriteDropsConnection(t *testing.T) {
	hub := startHub(t)
	conn := &fakeConn{failNext: true}
	hub.Subscribe(TopicInventory, conn)

	hub.Publish(TopicInventory, []byte(`{}`))

	assert.Eventually(t, conn.isClosed, time.Second, 5*time.Millisecond)
	assert.Eventually(t, func() bool { return hub.Subscribers(TopicInventory) == 0 }, time.Second, 5*time.Millisecond)
}

func TestUnsubscribeClosesConn(t *testing.T) {
	hub := startHub(t)
	conn := &fakeConn{}
	hub.Subscribe(TopicInventory, conn)
	hub.Unsubscribe(TopicInventory, conn)

	assert.Eventually(t, conn.isClosed, time.Second, 5*time.Millisecond)
	assert.Eventually(t, func() bool { return hub.Subscribers(TopicInventory) == 0 }, time.Second, 5*time.Millisecond)
}

func TestEnvelopeRoundTrip(t *testing.T) {
	data, err := encodeEnvelope("order:abc", []byte(`{"status":"paid"}`))
	require.NoError(t, err)

	topic, payload, err := decodeEnvelope(data)
	require.NoError(t, err)
	assert.Equal(t, "order:abc", topic)
	assert.JSONEq(t, `{"status":"paid"}`, string(payload))
}

func TestEnvelopeQuotesNonJSON(t *testing.T) {
	data, err := encodeEnvelope("inventory", []byte("plain text"))
	require.NoError(t, err)

	_, payload, err := decodeEnvelope(data)
	require.NoError(t, err)
	assert.Equal(t, `"plain text"`, string(payload))
}

func TestStoppedHubNeverBlocks(t *testing.T) {
	hub := NewHub(nil)
	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(stopped)
	}()

	live := &fakeConn{}
	hub.Subscribe(TopicInventory, live)
	cancel()
	<-stopped
	assert.True(t, live.isClosed())

	late := &fakeConn{}
	returned := make(chan struct{})
	go func() {
		hub.Unsubscribe(TopicInventory, live)
		hub.Subscribe(OrderTopic("o-1"), late)
		close(returned)
	}()

	select {
	case <-returned:
	case <-time.After(time.Second):
		t.Fatal("subscribe/unsubscribe blocked on a stopped hub")
	}
	assert.True(t, late.isClosed())
}
