package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func recvEvent(t *testing.T, ch <-chan Event) Event {
	t.Helper()
	select {
	case ev := <-ch:
		return ev
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
		return Event{}
	}
}

func TestBroadcasterDeliversInOrder(t *testing.T) {
	b := newBroadcaster()
	ch, unsubscribe := b.subscribe()
	defer unsubscribe()

	b.publish(Event{Type: EventSignedIn})
	b.publish(Event{Type: EventTokenRefreshed})
	b.publish(Event{Type: EventSignedOut})

	assert.Equal(t, EventSignedIn, recvEvent(t, ch).Type)
	assert.Equal(t, EventTokenRefreshed, recvEvent(t, ch).Type)
	assert.Equal(t, EventSignedOut, recvEvent(t, ch).Type)
}

func TestBroadcasterMultipleSubscribers(t *testing.T) {
	b := newBroadcaster()
	ch1, unsub1 := b.subscribe()
	defer unsub1()
	ch2, unsub2 := b.subscribe()
	defer unsub2()

	b.publish(Event{Type: EventSignedIn})

	assert.Equal(t, EventSignedIn, recvEvent(t, ch1).Type)
	assert.Equal(t, EventSignedIn, recvEvent(t, ch2).Type)
}

func TestBroadcasterUnsubscribeClosesChannel(t *testing.T) {
	b := newBroadcaster()
	ch, unsubscribe := b.subscribe()

	unsubscribe()
	_, open := <-ch
	assert.False(t, open)

	// Publishing after unsubscribe must not panic
	b.publish(Event{Type: EventSignedIn})
}

func TestBroadcasterDropsStalledSubscriber(t *testing.T) {
	b := newBroadcaster()
	ch, unsubscribe := b.subscribe()
	defer unsubscribe()

	// Fill the buffer without draining, then overflow it
	for i := 0; i < subscriberBuffer+1; i++ {
		b.publish(Event{Type: EventSignedIn})
	}

	// The stalled subscriber was dropped: its channel closes after the
	// buffered events drain.
	count := 0
	for range ch {
		count++
	}
	assert.Equal(t, subscriberBuffer, count)
}

func TestBroadcasterClose(t *testing.T) {
	b := newBroadcaster()
	ch, _ := b.subscribe()

	b.close()
	_, open := <-ch
	assert.False(t, open)

	// Subscribing after close yields a closed channel
	ch2, _ := b.subscribe()
	_, open = <-ch2
	require.False(t, open)

	// Idempotent
	b.close()
}
