package chat

import (
	"context"
	"fmt"
	"log"
	"sync"

	"omnibot/internal/history"
	"omnibot/internal/llm"
	"omnibot/internal/toggles"
)

// DisabledNotice is what the bot answers while the operator has the AI
// toggle off. The conversation is not touched in that case.
const DisabledNotice = "🤖 AI chat is switched off right now. Ask the operator to turn it back on."

// FailureNotice is what the bot answers when the completion backend
// errors out. The user message that triggered the call is rolled back
// so a retry starts from the same state.
const FailureNotice = "😔 I couldn't reach my brain just now. Please try again in a minute."

// Options configures the chat service.
type Options struct {
	SessionPrefix      string // session keys are "<prefix>-<chatID>"
	Budget             int    // context window budget, 0 means history.DefaultBudget
	DefaultPersonality string // preset key for fresh conversations
	PromptOverride     string // non-empty replaces the default preset's prompt
}

// Usage is a snapshot of completion accounting since startup.
type Usage struct {
	Requests         int
	Completions      int
	Failures         int
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// Service runs the AI side of the bot: it owns the conversation store,
// talks to the completion backend and keeps turns of the same chat
// strictly ordered.
type Service struct {
	store  *history.Store
	client llm.Client
	ai     *toggles.Toggle
	opts   Options

	mu     sync.Mutex
	locks  map[int64]*sync.Mutex // one per chat, held for a whole turn
	active map[int64]string      // chat -> personality key
	usage  Usage
}

// NewService wires the chat service. The AI toggle may be nil, in which
// case the service behaves as always enabled.
func NewService(store *history.Store, client llm.Client, ai *toggles.Toggle, opts Options) *Service {
	if opts.Budget <= 0 {
		opts.Budget = history.DefaultBudget
	}
	if opts.DefaultPersonality == "" {
		opts.DefaultPersonality = DefaultPersonalityKey
	}
	return &Service{
		store:  store,
		client: client,
		ai:     ai,
		opts:   opts,
		locks:  make(map[int64]*sync.Mutex),
		active: make(map[int64]string),
	}
}

// Reply runs one full AI turn for chatID and returns the text to send
// back. It never returns an error: backend trouble turns into
// FailureNotice and is logged.
func (s *Service) Reply(ctx context.Context, chatID int64, text string) string {
	if s.ai != nil && !s.ai.Enabled() {
		return DisabledNotice
	}

	unlock := s.lockChat(chatID)
	defer unlock()

	if s.store.Ensure(chatID, s.seedFor(chatID)) {
		log.Printf("💬 started conversation for chat %d", chatID)
	}
	s.store.AppendUser(chatID, text)

	window := history.SelectContext(s.store.Get(chatID), s.opts.Budget)
	resp, err := s.client.Generate(ctx, s.sessionKey(chatID), toLLM(window))
	if err != nil {
		s.store.RemoveLast(chatID)
		s.count(func(u *Usage) { u.Requests++; u.Failures++ })
		log.Printf("❌ completion failed for chat %d: %v", chatID, err)
		return FailureNotice
	}

	s.store.AppendAssistant(chatID, resp.Content)
	if err := s.store.Save(); err != nil {
		log.Printf("⚠️ failed to persist conversations: %v", err)
	}
	s.count(func(u *Usage) {
		u.Requests++
		u.Completions++
		u.PromptTokens += resp.PromptTokens
		u.CompletionTokens += resp.CompletionTokens
		u.TotalTokens += resp.TotalTokens
	})
	return resp.Content
}

// ResetConversation wipes chatID's history and reseeds it with the
// active personality's prompt.
func (s *Service) ResetConversation(chatID int64) {
	unlock := s.lockChat(chatID)
	defer unlock()

	s.store.Reset(chatID, s.seedFor(chatID))
	if err := s.store.Save(); err != nil {
		log.Printf("⚠️ failed to persist conversations: %v", err)
	}
	log.Printf("🧹 reset conversation for chat %d", chatID)
}

// SetPersonality switches chatID to the given preset and resets the
// conversation so the new system prompt takes effect immediately.
func (s *Service) SetPersonality(chatID int64, key string) (Personality, error) {
	p, ok := LookupPersonality(key)
	if !ok {
		return Personality{}, fmt.Errorf("unknown personality %q", key)
	}

	unlock := s.lockChat(chatID)
	defer unlock()

	s.mu.Lock()
	s.active[chatID] = key
	s.mu.Unlock()

	s.store.Reset(chatID, s.promptFor(p))
	if err := s.store.Save(); err != nil {
		log.Printf("⚠️ failed to persist conversations: %v", err)
	}
	log.Printf("🎭 chat %d switched to personality %s", chatID, key)
	return p, nil
}

// ActivePersonality reports which preset chatID is currently on.
func (s *Service) ActivePersonality(chatID int64) Personality {
	s.mu.Lock()
	key, ok := s.active[chatID]
	s.mu.Unlock()
	if !ok {
		key = s.opts.DefaultPersonality
	}
	p, found := LookupPersonality(key)
	if !found {
		p, _ = LookupPersonality(DefaultPersonalityKey)
	}
	return p
}

// Usage returns a snapshot of the completion counters.
func (s *Service) Usage() Usage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.usage
}

func (s *Service) count(f func(*Usage)) {
	s.mu.Lock()
	f(&s.usage)
	s.mu.Unlock()
}

func (s *Service) sessionKey(chatID int64) string {
	return fmt.Sprintf("%s-%d", s.opts.SessionPrefix, chatID)
}

func (s *Service) seedFor(chatID int64) string {
	return s.promptFor(s.ActivePersonality(chatID))
}

// promptFor applies the operator override, which replaces the default
// preset's prompt only.
func (s *Service) promptFor(p Personality) string {
	if p.Key == s.opts.DefaultPersonality && s.opts.PromptOverride != "" {
		return s.opts.PromptOverride
	}
	return p.Prompt
}

func (s *Service) lockChat(chatID int64) func() {
	s.mu.Lock()
	l, ok := s.locks[chatID]
	if !ok {
		l = &sync.Mutex{}
		s.locks[chatID] = l
	}
	s.mu.Unlock()
	l.Lock()
	return l.Unlock
}

func toLLM(msgs []history.Message) []llm.Message {
	out := make([]llm.Message, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, llm.Message{Role: m.Role, Content: m.Content})
	}
	return out
}
