package history

import (
	"sync"
	"time"
)

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one conversation entry. Timestamp is epoch milliseconds and is
// backfilled by the repository when an on-disk record lacks it.
type Message struct {
	Role      string `json:"role"`
	Content   string `json:"content"`
	Timestamp int64  `json:"timestamp,omitempty"`
}

func (m Message) Valid() bool { return m.Role != "" && m.Content != "" }

func newMessage(role, content string) Message {
	return Message{Role: role, Content: content, Timestamp: time.Now().UnixMilli()}
}

// Repository persists the full conversation map. Implementations must be
// safe for concurrent use.
type Repository interface {
	Load() (map[int64][]Message, error)
	Save(chats map[int64][]Message) error
}

// Store keeps per-chat ordered conversations in memory and writes them
// through an injected repository. Mutations never persist implicitly;
// callers decide when Save runs (the chat service saves once per turn).
type Store struct {
	mu    sync.RWMutex
	chats map[int64][]Message
	repo  Repository
}

// NewStore loads existing conversations from repo. A nil repo yields a
// memory-only store, which the tests use.
func NewStore(repo Repository) (*Store, error) {
	s := &Store{chats: make(map[int64][]Message), repo: repo}
	if repo != nil {
		chats, err := repo.Load()
		if err != nil {
			return nil, err
		}
		if chats != nil {
			s.chats = chats
		}
	}
	return s, nil
}

// Ensure creates the chat's history if absent, seeding a system message
// when seed is non-empty. Reports whether the chat was created.
func (s *Store) Ensure(chatID int64, seed string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.chats[chatID]; ok {
		return false
	}
	if seed != "" {
		s.chats[chatID] = []Message{newMessage(RoleSystem, seed)}
	} else {
		s.chats[chatID] = []Message{}
	}
	return true
}

func (s *Store) AppendUser(chatID int64, content string) {
	s.append(chatID, newMessage(RoleUser, content))
}

func (s *Store) AppendAssistant(chatID int64, content string) {
	s.append(chatID, newMessage(RoleAssistant, content))
}

func (s *Store) append(chatID int64, msg Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chats[chatID] = append(s.chats[chatID], msg)
}

// RemoveLast drops the most recent message; the AI proxy uses it to roll
// back a user message whose completion call failed.
func (s *Store) RemoveLast(chatID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	msgs := s.chats[chatID]
	if len(msgs) == 0 {
		return
	}
	s.chats[chatID] = msgs[:len(msgs)-1]
}

// Reset replaces the chat's history with a single fresh system message, or
// with an empty list when seed is empty.
func (s *Store) Reset(chatID int64, seed string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if seed != "" {
		s.chats[chatID] = []Message{newMessage(RoleSystem, seed)}
	} else {
		s.chats[chatID] = []Message{}
	}
}

// Get returns a copy of the chat's messages in chronological order.
func (s *Store) Get(chatID int64) []Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	msgs := s.chats[chatID]
	out := make([]Message, len(msgs))
	copy(out, msgs)
	return out
}

func (s *Store) Len(chatID int64) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.chats[chatID])
}

func (s *Store) ChatCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.chats)
}

func (s *Store) MessageCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, msgs := range s.chats {
		n += len(msgs)
	}
	return n
}

// Save writes the whole conversation map through the repository.
func (s *Store) Save() error {
	if s.repo == nil {
		return nil
	}
	s.mu.RLock()
	chats := make(map[int64][]Message, len(s.chats))
	for id, msgs := range s.chats {
		cp := make([]Message, len(msgs))
		copy(cp, msgs)
		chats[id] = cp
	}
	s.mu.RUnlock()
	return s.repo.Save(chats)
}
