package notify

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Event names broadcast on the live channels.
const (
	EventNewOrder            = "new_order"
	EventOrderStatusUpdate   = "order_status_update"
	EventPaymentStatusUpdate = "payment_status_update"
)

// Role-scoped channels. Guests subscribe to their order's own channel.
const (
	ChannelAdmin   = "notify:admin"
	ChannelWaiter  = "notify:waiter"
	ChannelKitchen = "notify:kitchen"
)

// OrderChannel is the per-order channel a guest's tracking view listens on.
func OrderChannel(orderID string) string {
	return "notify:order:" + orderID
}

// Payload is the JSON envelope published on every channel.
type Payload struct {
	Event   string    `json:"event"`
	OrderID string    `json:"order_id"`
	Status  string    `json:"status,omitempty"`
	At      time.Time `json:"at"`
}

// Notifier is the outbound broadcast port. Delivery is at-most-once and
// best-effort: implementations log failures, callers never see them.
type Notifier interface {
	Publish(ctx context.Context, channel string, p Payload)
}

// RedisNotifier fans events out over Redis pub/sub.
type RedisNotifier struct {
	rdb *redis.Client
}

func NewRedisClient(addr string) *redis.Client {
	return redis.NewClient(&redis.Options{Addr: addr})
}

func NewRedisNotifier(rdb *redis.Client) *RedisNotifier {
	return &RedisNotifier{rdb: rdb}
}

func (n *RedisNotifier) Publish(ctx context.Context, channel string, p Payload) {
	if p.At.IsZero() {
		p.At = time.Now()
	}
	body, err := json.Marshal(p)
	if err != nil {
		log.Printf("notify: marshal %s on %s: %v", p.Event, channel, err)
		return
	}
	if err := n.rdb.Publish(ctx, channel, body).Err(); err != nil {
		// A disconnected listener simply misses the event; no replay.
		log.Printf("notify: publish %s on %s: %v", p.Event, channel, err)
	}
}

// Recorded is one captured publication.
type Recorded struct {
	Channel string
	Payload Payload
}

// Recorder captures publications in memory for tests.
type Recorder struct {
	mu     sync.Mutex
	Events []Recorded
}

func (r *Recorder) Publish(_ context.Context, channel string, p Payload) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Events = append(r.Events, Recorded{Channel: channel, Payload: p})
}

// ByEvent returns the captured publications with the given event name.
func (r *Recorder) ByEvent(event string) []Recorded {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Recorded
	for _, e := range r.Events {
		if e.Payload.Event == event {
			out = append(out, e)
		}
	}
	return out
}
