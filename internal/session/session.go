// Package session keeps bounded per-user conversation history for the
// assistant's prompts.
package session

import "sync"

// DefaultMaxMessages caps history at five exchanges per user.
const DefaultMaxMessages = 10

// Message is one conversational turn.
type Message struct {
	Role    string
	Content string
}

// Store holds per-user histories with an explicit eviction policy: only the
// most recent maxMessages messages are kept. Safe for concurrent use, since
// chat events arrive on multiple goroutines.
type Store struct {
	mu          sync.Mutex
	maxMessages int
	byUser      map[string][]Message
}

// NewStore creates a Store keeping at most maxMessages messages per user.
// Non-positive values fall back to DefaultMaxMessages.
func NewStore(maxMessages int) *Store {
	if maxMessages <= 0 {
		maxMessages = DefaultMaxMessages
	}
	return &Store{
		maxMessages: maxMessages,
		byUser:      make(map[string][]Message),
	}
}

// Append records one message for the user, evicting the oldest beyond the cap.
func (s *Store) Append(userID string, msg Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	history := append(s.byUser[userID], msg)
	if len(history) > s.maxMessages {
		history = history[len(history)-s.maxMessages:]
	}
	s.byUser[userID] = history
}

// Recent returns a copy of up to the last n messages for the user, oldest
// first.
func (s *Store) Recent(userID string, n int) []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	history := s.byUser[userID]
	if n < len(history) {
		history = history[len(history)-n:]
	}
	if len(history) == 0 {
		return nil
	}
	out := make([]Message, len(history))
	copy(out, history)
	return out
}

// Clear forgets one user's history.
func (s *Store) Clear(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.byUser, userID)
}

// ClearAll forgets every user's history.
func (s *Store) ClearAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byUser = make(map[string][]Message)
}
