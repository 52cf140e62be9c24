package storage

import (
	"sort"
	"time"

	"github.com/oarkflow/smsc-simulator/pkg/smpp"
)

// bucket holds the messages scheduled for one exact instant, in submission
// order.
type bucket struct {
	at       time.Time
	messages []*smpp.Message
}

// InMemoryMessageStore implements smpp.MessageStore. Each identity maps to
// buckets kept sorted by time. It is not safe for concurrent use; the server
// only touches it from its control goroutine.
type InMemoryMessageStore struct {
	queues map[string][]*bucket
	count  int
	logger smpp.Logger
}

// NewInMemoryMessageStore creates an empty store.
func NewInMemoryMessageStore(logger smpp.Logger) *InMemoryMessageStore {
	return &InMemoryMessageStore{
		queues: make(map[string][]*bucket),
		logger: logger,
	}
}

// Put appends msg to the bucket for deliverAt under identity, creating the
// bucket and identity entry as needed.
func (s *InMemoryMessageStore) Put(identity string, deliverAt time.Time, msg *smpp.Message) {
	buckets := s.queues[identity]

	i := sort.Search(len(buckets), func(i int) bool {
		return !buckets[i].at.Before(deliverAt)
	})
	if i < len(buckets) && buckets[i].at.Equal(deliverAt) {
		buckets[i].messages = append(buckets[i].messages, msg)
	} else {
		buckets = append(buckets, nil)
		copy(buckets[i+1:], buckets[i:])
		buckets[i] = &bucket{at: deliverAt, messages: []*smpp.Message{msg}}
		s.queues[identity] = buckets
	}
	s.count++

	if s.logger != nil {
		s.logger.Debug("Message queued",
			"identity", identity,
			"message_id", msg.ID,
			"deliver_at", deliverAt)
	}
}

// TakeDue removes and returns the earliest message for identity if its
// bucket time is not after now. Emptied buckets and identities are pruned.
func (s *InMemoryMessageStore) TakeDue(identity string, now time.Time) *smpp.Message {
	buckets, ok := s.queues[identity]
	if !ok || len(buckets) == 0 {
		return nil
	}

	head := buckets[0]
	if head.at.After(now) {
		return nil
	}

	msg := head.messages[0]
	head.messages[0] = nil
	head.messages = head.messages[1:]
	s.count--

	if len(head.messages) == 0 {
		buckets[0] = nil
		buckets = buckets[1:]
		if len(buckets) == 0 {
			delete(s.queues, identity)
		} else {
			s.queues[identity] = buckets
		}
	}

	return msg
}

// Pending returns the number of messages waiting for identity.
func (s *InMemoryMessageStore) Pending(identity string) int {
	n := 0
	for _, b := range s.queues[identity] {
		n += len(b.messages)
	}
	return n
}

// Identities returns the number of identities with pending messages.
func (s *InMemoryMessageStore) Identities() int {
	return len(s.queues)
}

// Len returns the number of pending messages across all identities.
func (s *InMemoryMessageStore) Len() int {
	return s.count
}
