// Package notify pushes notification rows to connected clients over Redis
// pub/sub.  The database row stays authoritative; a message lost here is
// picked up by the next poll.
package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/returns-desk/internal/model"
)

const OperationsChannel = "notifications:operations"

// BusinessChannel is the channel a business's clients listen on.
func BusinessChannel(businessID uint64) string {
	return fmt.Sprintf("notifications:business:%d", businessID)
}

// ChannelFor picks the channel a notification belongs on.
func ChannelFor(n *model.Notification) string {
	if n.Audience == model.AudienceOperations || n.BusinessID == nil {
		return OperationsChannel
	}
	return BusinessChannel(*n.BusinessID)
}

// Hub publishes and subscribes.  A Hub with a nil client is valid and does
// nothing, so callers need no Redis checks.
type Hub struct {
	rdb *redis.Client
}

func NewHub(rdb *redis.Client) *Hub { return &Hub{rdb: rdb} }

// Enabled reports whether pushes will actually go anywhere.
func (h *Hub) Enabled() bool { return h != nil && h.rdb != nil }

// Publish sends n as JSON on its channel.
func (h *Hub) Publish(ctx context.Context, n *model.Notification) error {
	if !h.Enabled() {
		return nil
	}
	body, err := json.Marshal(n)
	if err != nil {
		return err
	}
	return h.rdb.Publish(ctx, ChannelFor(n), body).Err()
}

// AllChannels matches every notification channel.
const AllChannels = "notifications:*"

// Subscribe streams notifications from channels matching the given
// patterns until ctx ends.  Plain channel names match only themselves.  The
// returned channel is closed when the subscription stops.
func (h *Hub) Subscribe(ctx context.Context, channels ...string) (<-chan model.Notification, error) {
	if !h.Enabled() {
		return nil, fmt.Errorf("notify: redis unavailable")
	}
	ps := h.rdb.PSubscribe(ctx, channels...)
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, fmt.Errorf("notify: subscribe: %w", err)
	}
	out := make(chan model.Notification, 16)
	go func() {
		defer close(out)
		defer ps.Close()
		msgs := ps.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case m, ok := <-msgs:
				if !ok {
					return
				}
				var n model.Notification
				if err := json.Unmarshal([]byte(m.Payload), &n); err != nil {
					continue
				}
				select {
				case out <- n:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}
