package chat

import "sync"

// Store holds the ordered conversation transcript. It is append-only:
// messages are never reordered, edited or removed, and the full sequence is
// kept for rendering regardless of how much history goes out on the wire.
type Store struct {
	mu   sync.RWMutex
	msgs []Message
	subs []func(Message)
}

func NewStore() *Store {
	return &Store{}
}

// Subscribe registers a callback invoked after every append. Subscribers
// must be registered before the store is shared between goroutines.
func (s *Store) Subscribe(fn func(Message)) {
	s.subs = append(s.subs, fn)
}

// Append adds a turn to the transcript and returns the stored message.
func (s *Store) Append(role Role, text string) Message {
	msg := newMessage(role, text)

	s.mu.Lock()
	s.msgs = append(s.msgs, msg)
	s.mu.Unlock()

	for _, fn := range s.subs {
		fn(msg)
	}
	return msg
}

// Messages returns a copy of the full transcript in insertion order.
func (s *Store) Messages() []Message {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Message, len(s.msgs))
	copy(out, s.msgs)
	return out
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.msgs)
}

// RecentWindow derives the outgoing history: at most n trailing turns mapped
// to the wire shape. It is recomputed from the live transcript on every call.
// Any role that is not literally "assistant" is sent as "user".
func (s *Store) RecentWindow(n int) []HistoryEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	start := 0
	if len(s.msgs) > n {
		start = len(s.msgs) - n
	}

	window := make([]HistoryEntry, 0, len(s.msgs)-start)
	for _, msg := range s.msgs[start:] {
		role := "user"
		if msg.Role == RoleAssistant {
			role = "assistant"
		}
		window = append(window, HistoryEntry{Role: role, Text: msg.Text})
	}
	return window
}
