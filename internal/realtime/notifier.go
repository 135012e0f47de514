// Package realtime fans bug activity out to connected clients through Redis
// pub/sub and websockets.
package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"bugtrail/internal/middleware"
	"bugtrail/internal/observability"

	"github.com/redis/go-redis/v9"
)

const (
	// ChannelAll receives every activity event.
	ChannelAll = "activity:all"
	// channelBugFmt receives events for a single bug.
	channelBugFmt = "activity:bug:%s"
)

// ChannelForBug returns the pub/sub channel carrying one bug's events.
func ChannelForBug(bugID string) string {
	return fmt.Sprintf(channelBugFmt, bugID)
}

// Event is a single activity item pushed to subscribers.
type Event struct {
	BugID     string    `json:"bug_id"`
	BugKey    string    `json:"bug_key,omitempty"`
	Action    string    `json:"action"`
	ActorID   string    `json:"actor_id"`
	ActorName string    `json:"actor_name,omitempty"`
	Detail    string    `json:"detail,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Publisher pushes activity events to subscribers.
type Publisher interface {
	Publish(ctx context.Context, event Event)
}

// Notifier publishes events over Redis pub/sub. A nil Redis client turns the
// notifier into a no-op so the API keeps working without Redis.
type Notifier struct {
	rdb *redis.Client
}

// NewNotifier creates a new notifier instance.
func NewNotifier(rdb *redis.Client) *Notifier {
	return &Notifier{rdb: rdb}
}

// Publish sends the event to the bug channel and the firehose channel.
// Delivery is best-effort; failures are logged, never surfaced to the caller.
func (n *Notifier) Publish(ctx context.Context, event Event) {
	if n == nil || n.rdb == nil {
		return
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	payload, err := json.Marshal(event)
	if err != nil {
		middleware.Logger.ErrorContext(ctx, "Failed to marshal activity event", "error", err)
		return
	}

	if err := n.rdb.Publish(ctx, ChannelForBug(event.BugID), payload).Err(); err != nil {
		middleware.Logger.WarnContext(ctx, "Failed to publish activity event", "error", err)
		return
	}
	if err := n.rdb.Publish(ctx, ChannelAll, payload).Err(); err != nil {
		middleware.Logger.WarnContext(ctx, "Failed to publish activity event", "error", err)
		return
	}

	observability.ActivityEventsPublished.WithLabelValues(event.Action).Inc()
}
