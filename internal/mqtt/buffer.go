package mqtt

import (
	"log"
	"time"
)

// queuedMsg is a serialized message waiting for the broker to come back.
type queuedMsg struct {
	topic    string
	payload  []byte
	qos      byte
	retained bool
	queuedAt time.Time
}

// offlineQueue keeps the most recent messages published while disconnected,
// oldest first. Not safe for concurrent use.
type offlineQueue struct {
	slots   []queuedMsg
	next    int // slot the next push writes to
	size    int
	dropped int // messages overwritten since the last drain
}

func newOfflineQueue(capacity int) *offlineQueue {
	return &offlineQueue{slots: make([]queuedMsg, capacity)}
}

func (q *offlineQueue) push(msg queuedMsg) {
	if q.size == len(q.slots) {
		if q.dropped == 0 {
			log.Printf("mqtt: offline queue full (%d messages), dropping oldest", len(q.slots))
		}
		q.dropped++
	} else {
		q.size++
	}
	q.slots[q.next] = msg
	q.next = (q.next + 1) % len(q.slots)
}

// drain empties the queue and returns its messages oldest first together with
// the number of messages that were dropped.
func (q *offlineQueue) drain() ([]queuedMsg, int) {
	if q.size == 0 {
		return nil, 0
	}

	out := make([]queuedMsg, 0, q.size)
	first := (q.next - q.size + len(q.slots)) % len(q.slots)
	for i := 0; i < q.size; i++ {
		out = append(out, q.slots[(first+i)%len(q.slots)])
	}

	dropped := q.dropped
	q.next, q.size, q.dropped = 0, 0, 0
	return out, dropped
}

func (q *offlineQueue) len() int {
	return q.size
}
