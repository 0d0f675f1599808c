package notification

import (
	"sync"

	"go.uber.org/zap"
)

// streamBuffer is the per-subscriber channel capacity. A subscriber that
// falls this far behind starts losing pushes; the records stay durable and
// reachable through List.
const streamBuffer = 16

// userStreams is the set of open streams for one user, guarded by its own
// mutex so users never contend with each other.
type userStreams struct {
	mu sync.Mutex
	// chans holds one buffered channel per open stream (a user may have
	// several tabs connected at once).
	chans map[chan *Notification]struct{}
	// gone marks an entry that has been removed from the hub map; a
	// Subscribe racing with the removal must not add to it.
	gone bool
}

// Hub is the live push channel: a process-wide registry of open streams
// keyed by user. It is purely transient fan-out; durability is the
// service's job.
type Hub struct {
	subs   sync.Map // userID -> *userStreams
	logger *zap.Logger
}

// NewHub creates an empty hub.
func NewHub(logger *zap.Logger) *Hub {
	return &Hub{logger: logger}
}

// Subscribe opens a stream for the user and returns its channel. Only
// notifications published after this call are delivered; there is no
// backlog replay.
func (h *Hub) Subscribe(userID string) chan *Notification {
	ch := make(chan *Notification, streamBuffer)
	for {
		v, _ := h.subs.LoadOrStore(userID, &userStreams{chans: make(map[chan *Notification]struct{})})
		s := v.(*userStreams)

		s.mu.Lock()
		if s.gone {
			// Lost a race with the removal of the last stream; the entry is
			// already detached from the map, so start over with a fresh one.
			s.mu.Unlock()
			continue
		}
		s.chans[ch] = struct{}{}
		s.mu.Unlock()
		return ch
	}
}

// Unsubscribe removes exactly this stream from the user's set and closes it.
// Calling it again for an already-removed channel is a no-op. Removing the
// last stream drops the user's registry entry entirely.
func (h *Hub) Unsubscribe(userID string, ch chan *Notification) {
	v, ok := h.subs.Load(userID)
	if !ok {
		return
	}
	s := v.(*userStreams)

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.chans[ch]; !ok {
		return
	}
	delete(s.chans, ch)
	close(ch)
	if len(s.chans) == 0 {
		s.gone = true
		h.subs.Delete(userID)
	}
}

// Publish fans a notification out to every open stream of the user.
// Best-effort: no subscribers means no work, and a stream whose buffer is
// full is skipped so one stuck client never blocks the publisher or the
// user's other streams.
func (h *Hub) Publish(userID string, n *Notification) {
	v, ok := h.subs.Load(userID)
	if !ok {
		return
	}
	s := v.(*userStreams)

	s.mu.Lock()
	defer s.mu.Unlock()
	for ch := range s.chans {
		select {
		case ch <- n:
		default:
			h.logger.Warn("notification stream buffer full, dropping push",
				zap.String("user_id", userID),
				zap.String("notification_id", n.ID),
			)
		}
	}
}
