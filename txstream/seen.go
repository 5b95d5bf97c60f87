// Package txstream implements the three transaction streams: watching
// the pending pool, watching confirmed blocks, and tracking a single
// transaction hash to confirmation or drop. All three run over either
// polling or a WebSocket subscription and dedup against a bounded
// SeenState.
package txstream

import "container/list"

// SeenState is a FIFO-bounded dedup set: membership and insertion
// order are always in sync, and once the cap is reached the oldest id
// is evicted to make room for the newest.
type SeenState struct {
	cap     int
	order   *list.List
	members map[string]*list.Element
}

// NewSeenState builds a SeenState bounded to cap ids. cap <= 0 means
// unbounded.
func NewSeenState(cap int) *SeenState {
	return &SeenState{
		cap:     cap,
		order:   list.New(),
		members: make(map[string]*list.Element),
	}
}

// Seen reports whether id has already been recorded.
func (s *SeenState) Seen(id string) bool {
	_, ok := s.members[id]
	return ok
}

// Add records id if not already present, evicting the oldest entry
// when the cap is exceeded. Returns true if id was newly recorded.
func (s *SeenState) Add(id string) bool {
	if s.Seen(id) {
		return false
	}
	el := s.order.PushBack(id)
	s.members[id] = el
	if s.cap > 0 && s.order.Len() > s.cap {
		oldest := s.order.Front()
		if oldest != nil {
			s.order.Remove(oldest)
			delete(s.members, oldest.Value.(string))
		}
	}
	return true
}

// Clear drops every recorded id, used on a reorg cursor reset.
func (s *SeenState) Clear() {
	s.order.Init()
	s.members = make(map[string]*list.Element)
}

// Len returns the current cardinality, equal in both the FIFO and the
// membership set by construction.
func (s *SeenState) Len() int {
	return s.order.Len()
}
