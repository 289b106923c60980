package slack

import (
	"sync"
	"time"
)

// deliveredTTL covers Slack's retry schedule (immediately, 1 minute, 5 minutes).
const deliveredTTL = 10 * time.Minute

// deliveredSet remembers events that reached the queue so retried deliveries
// of the same event are not queued twice.
type deliveredSet struct {
	mu   sync.Mutex
	seen map[string]time.Time
}

func newDeliveredSet() *deliveredSet {
	return &deliveredSet{seen: make(map[string]time.Time)}
}

// Mark records key as queued at now and drops expired entries.
func (d *deliveredSet) Mark(key string, now time.Time) {
	if key == "" {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	for k, at := range d.seen {
		if now.Sub(at) > deliveredTTL {
			delete(d.seen, k)
		}
	}
	d.seen[key] = now
}

// Seen reports whether key was queued within the TTL.
func (d *deliveredSet) Seen(key string, now time.Time) bool {
	if key == "" {
		return false
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	at, ok := d.seen[key]
	return ok && now.Sub(at) <= deliveredTTL
}

// deliveryKey identifies an event across retries. Message coordinates stand in
// when Slack omits event_id.
func deliveryKey(env eventEnvelope) string {
	if env.EventID != "" {
		return env.EventID
	}
	if env.Event.Channel == "" || env.Event.TS == "" {
		return ""
	}
	return env.TeamID + "/" + env.Event.Channel + "/" + env.Event.TS
}
