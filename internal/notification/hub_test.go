package notification

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testNotification(id, userID string) *Notification {
	return &Notification{ID: id, UserID: userID, Title: "t", Description: "d", Type: TypeSystem}
}

// receiveNow drains one buffered message without blocking; Publish is
// synchronous, so a delivered message is already in the channel buffer.
func receiveNow(t *testing.T, ch chan *Notification) *Notification {
	t.Helper()
	select {
	case n := <-ch:
		return n
	default:
		t.Fatal("expected a buffered notification")
		return nil
	}
}

func assertEmpty(t *testing.T, ch chan *Notification) {
	t.Helper()
	select {
	case n := <-ch:
		t.Fatalf("unexpected notification %q in stream", n.ID)
	default:
	}
}

func TestHubPublishToSubscriber(t *testing.T) {
	hub := NewHub(zap.NewNop())

	ch := hub.Subscribe("u-1")
	hub.Publish("u-1", testNotification("n-1", "u-1"))

	got := receiveNow(t, ch)
	assert.Equal(t, "n-1", got.ID)
	assertEmpty(t, ch)
}

func TestHubPublishWithoutSubscribers(t *testing.T) {
	hub := NewHub(zap.NewNop())

	// Best-effort: publishing into the void is a no-op.
	hub.Publish("u-1", testNotification("n-1", "u-1"))
}

func TestHubFanOutToAllStreamsOfUser(t *testing.T) {
	hub := NewHub(zap.NewNop())

	first := hub.Subscribe("u-1")
	second := hub.Subscribe("u-1")
	hub.Publish("u-1", testNotification("n-1", "u-1"))

	assert.Equal(t, "n-1", receiveNow(t, first).ID)
	assert.Equal(t, "n-1", receiveNow(t, second).ID)
}

func TestHubUserIsolation(t *testing.T) {
	hub := NewHub(zap.NewNop())

	a := hub.Subscribe("u-a")
	b := hub.Subscribe("u-b")
	hub.Publish("u-a", testNotification("n-1", "u-a"))

	assert.Equal(t, "n-1", receiveNow(t, a).ID)
	assertEmpty(t, b)
}

func TestHubNoBacklogReplay(t *testing.T) {
	hub := NewHub(zap.NewNop())

	hub.Publish("u-1", testNotification("n-1", "u-1"))
	ch := hub.Subscribe("u-1")

	assertEmpty(t, ch)
}

func TestHubDeliveryOrderPerUser(t *testing.T) {
	hub := NewHub(zap.NewNop())

	ch := hub.Subscribe("u-1")
	for i := 0; i < 5; i++ {
		hub.Publish("u-1", testNotification(fmt.Sprintf("n-%d", i), "u-1"))
	}

	for i := 0; i < 5; i++ {
		assert.Equal(t, fmt.Sprintf("n-%d", i), receiveNow(t, ch).ID)
	}
}

func TestHubUnsubscribeIdempotent(t *testing.T) {
	hub := NewHub(zap.NewNop())

	ch := hub.Subscribe("u-1")
	hub.Unsubscribe("u-1", ch)
	hub.Unsubscribe("u-1", ch)

	// A publish after removal must not panic on the closed channel.
	hub.Publish("u-1", testNotification("n-1", "u-1"))

	_, open := <-ch
	assert.False(t, open)
}

func TestHubUnsubscribeKeepsOtherStreams(t *testing.T) {
	hub := NewHub(zap.NewNop())

	gone := hub.Subscribe("u-1")
	stays := hub.Subscribe("u-1")
	hub.Unsubscribe("u-1", gone)

	hub.Publish("u-1", testNotification("n-1", "u-1"))
	assert.Equal(t, "n-1", receiveNow(t, stays).ID)
}

func TestHubResubscribeAfterLastUnsubscribe(t *testing.T) {
	hub := NewHub(zap.NewNop())

	first := hub.Subscribe("u-1")
	hub.Unsubscribe("u-1", first)

	second := hub.Subscribe("u-1")
	hub.Publish("u-1", testNotification("n-1", "u-1"))
	assert.Equal(t, "n-1", receiveNow(t, second).ID)
}

func TestHubFullBufferDoesNotBlockPublisher(t *testing.T) {
	hub := NewHub(zap.NewNop())

	ch := hub.Subscribe("u-1")
	for i := 0; i < streamBuffer+5; i++ {
		hub.Publish("u-1", testNotification(fmt.Sprintf("n-%d", i), "u-1"))
	}

	// The buffered pushes survive, the overflow was dropped.
	for i := 0; i < streamBuffer; i++ {
		require.Equal(t, fmt.Sprintf("n-%d", i), receiveNow(t, ch).ID)
	}
	assertEmpty(t, ch)
}

func TestHubConcurrentChurn(t *testing.T) {
	hub := NewHub(zap.NewNop())

	var wg sync.WaitGroup
	for u := 0; u < 8; u++ {
		userID := fmt.Sprintf("u-%d", u)

		wg.Add(2)
		go func() {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				ch := hub.Subscribe(userID)
				hub.Unsubscribe(userID, ch)
			}
		}()
		go func() {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				hub.Publish(userID, testNotification(fmt.Sprintf("n-%d", i), userID))
			}
		}()
	}
	wg.Wait()

	// The registry must end up fully drained: a fresh subscriber sees
	// nothing and publishes still work.
	ch := hub.Subscribe("u-0")
	assertEmpty(t, ch)
	hub.Publish("u-0", testNotification("final", "u-0"))
	assert.Equal(t, "final", receiveNow(t, ch).ID)
	hub.Unsubscribe("u-0", ch)
}
