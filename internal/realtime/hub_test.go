package realtime

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHub_RegisterLimits(t *testing.T) {
	h := NewHub(nil)

	for i := 0; i < maxConnsPerUser; i++ {
		_, err := h.Register("user-a", "", nil)
		require.NoError(t, err)
	}

	_, err := h.Register("user-a", "", nil)
	assert.Error(t, err)

	// A different user is unaffected.
	_, err = h.Register("user-b", "", nil)
	assert.NoError(t, err)
}

func TestHub_DispatchRouting(t *testing.T) {
	h := NewHub(nil)

	bugWatcher, err := h.Register("user-a", "bug-1", nil)
	require.NoError(t, err)
	otherWatcher, err := h.Register("user-b", "bug-2", nil)
	require.NoError(t, err)
	firehose, err := h.Register("user-c", "", nil)
	require.NoError(t, err)

	h.dispatch("activity:bug:bug-1", []byte(`{"action":"reported"}`))

	select {
	case msg := <-bugWatcher.Send:
		assert.Contains(t, string(msg), "reported")
	default:
		t.Fatal("bug watcher received nothing")
	}
	assert.Empty(t, otherWatcher.Send)
	assert.Empty(t, firehose.Send)

	h.dispatch(ChannelAll, []byte(`{"action":"resolved"}`))
	select {
	case msg := <-firehose.Send:
		assert.Contains(t, string(msg), "resolved")
	default:
		t.Fatal("firehose received nothing")
	}
}

func TestHub_UnregisterReleasesSlot(t *testing.T) {
	h := NewHub(nil)

	client, err := h.Register("user-a", "bug-1", nil)
	require.NoError(t, err)
	h.Unregister(client)

	// Double unregister must not corrupt the counters.
	h.Unregister(client)

	h.mu.RLock()
	defer h.mu.RUnlock()
	assert.Zero(t, h.totalConns)
	assert.Empty(t, h.perUser)
	assert.Empty(t, h.byBug)
}

func TestNotifier_PublishesToBothChannels(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	ctx := context.Background()
	sub := rdb.Subscribe(ctx, ChannelForBug("bug-1"), ChannelAll)
	t.Cleanup(func() { _ = sub.Close() })
	_, err := sub.Receive(ctx)
	require.NoError(t, err)

	n := NewNotifier(rdb)
	n.Publish(ctx, Event{
		BugID:   "bug-1",
		BugKey:  "API-001",
		Action:  "reported",
		ActorID: "user-a",
	})

	seen := map[string]bool{}
	ch := sub.Channel()
	for i := 0; i < 2; i++ {
		select {
		case msg := <-ch:
			seen[msg.Channel] = true
			assert.Contains(t, msg.Payload, `"action":"reported"`)
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for published events")
		}
	}
	assert.True(t, seen[ChannelForBug("bug-1")])
	assert.True(t, seen[ChannelAll])
}

func TestNotifier_NilClientIsNoOp(t *testing.T) {
	n := NewNotifier(nil)
	// Must not panic.
	n.Publish(context.Background(), Event{BugID: "bug-1", Action: "reported"})
}
