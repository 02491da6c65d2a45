package chat

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"omnibot/internal/history"
	"omnibot/internal/llm"
	"omnibot/internal/toggles"
)

type fakeClient struct {
	mu          sync.Mutex
	reply       string
	err         error
	sessions    []string
	windowSizes []int
	lastWindow  []llm.Message
}

func (f *fakeClient) Generate(ctx context.Context, session string, messages []llm.Message) (llm.Response, error) {
	f.mu.Lock()
	f.sessions = append(f.sessions, session)
	f.windowSizes = append(f.windowSizes, len(messages))
	f.lastWindow = append([]llm.Message(nil), messages...)
	f.mu.Unlock()
	if f.err != nil {
		return llm.Response{}, f.err
	}
	return llm.Response{Content: f.reply, Model: "fake", PromptTokens: 3, CompletionTokens: 5, TotalTokens: 8}, nil
}

func newTestService(t *testing.T, client llm.Client, opts Options) (*Service, *history.Store) {
	t.Helper()
	store, err := history.NewStore(nil)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	if opts.SessionPrefix == "" {
		opts.SessionPrefix = "omnibot"
	}
	return NewService(store, client, nil, opts), store
}

func TestReplyAppendsUserAndAssistant(t *testing.T) {
	fake := &fakeClient{reply: "pong"}
	svc, store := newTestService(t, fake, Options{})

	got := svc.Reply(context.Background(), 7, "hello")
	if got != "pong" {
		t.Fatalf("reply = %q, want %q", got, "pong")
	}

	msgs := store.Get(7)
	if len(msgs) != 3 {
		t.Fatalf("history length = %d, want 3 (system, user, assistant)", len(msgs))
	}
	if msgs[0].Role != history.RoleSystem {
		t.Fatalf("first message role = %q, want system seed", msgs[0].Role)
	}
	if msgs[1].Role != history.RoleUser || msgs[1].Content != "hello" {
		t.Fatalf("second message = %+v, want user hello", msgs[1])
	}
	if msgs[2].Role != history.RoleAssistant || msgs[2].Content != "pong" {
		t.Fatalf("third message = %+v, want assistant pong", msgs[2])
	}
	if len(fake.sessions) != 1 || fake.sessions[0] != "omnibot-7" {
		t.Fatalf("session key = %v, want [omnibot-7]", fake.sessions)
	}
	if last := fake.lastWindow[len(fake.lastWindow)-1]; last.Role != history.RoleUser || last.Content != "hello" {
		t.Fatalf("window must end with the new user message, got %+v", last)
	}
}

func TestReplyRollsBackOnFailure(t *testing.T) {
	fake := &fakeClient{reply: "first"}
	svc, store := newTestService(t, fake, Options{})

	svc.Reply(context.Background(), 1, "works")
	before := store.Len(1)

	fake.err = errors.New("backend down")
	got := svc.Reply(context.Background(), 1, "breaks")
	if got != FailureNotice {
		t.Fatalf("reply = %q, want failure notice", got)
	}
	if after := store.Len(1); after != before {
		t.Fatalf("history length after failure = %d, want %d (rollback)", after, before)
	}

	fake.err = nil
	svc.Reply(context.Background(), 1, "works again")
	if after := store.Len(1); after != before+2 {
		t.Fatalf("history length after recovery = %d, want %d", after, before+2)
	}
}

func TestReplyHonorsDisabledToggle(t *testing.T) {
	fake := &fakeClient{reply: "should not happen"}
	store, err := history.NewStore(nil)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	ai, err := toggles.New("aiEnabled", filepath.Join(t.TempDir(), "ai_toggle.json"))
	if err != nil {
		t.Fatalf("new toggle: %v", err)
	}
	if _, err := ai.Flip(); err != nil {
		t.Fatalf("flip: %v", err)
	}
	svc := NewService(store, fake, ai, Options{SessionPrefix: "omnibot"})

	got := svc.Reply(context.Background(), 5, "anyone home?")
	if got != DisabledNotice {
		t.Fatalf("reply = %q, want disabled notice", got)
	}
	if store.ChatCount() != 0 {
		t.Fatalf("disabled reply must not touch history, got %d chats", store.ChatCount())
	}
	if len(fake.sessions) != 0 {
		t.Fatalf("disabled reply must not call the backend, got %d calls", len(fake.sessions))
	}
}

func TestReplySerializesTurnsPerChat(t *testing.T) {
	fake := &fakeClient{reply: "ok"}
	svc, store := newTestService(t, fake, Options{Budget: 1 << 20})

	const turns = 8
	var wg sync.WaitGroup
	for i := 0; i < turns; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			svc.Reply(context.Background(), 99, "ping")
		}()
	}
	wg.Wait()

	if got := store.Len(99); got != 1+2*turns {
		t.Fatalf("history length = %d, want %d", got, 1+2*turns)
	}
	// Serialized turns each see the previous turn completed, so window
	// sizes grow by exactly two: seed+user, then +assistant+user, ...
	for i, size := range fake.windowSizes {
		if want := 2 + 2*i; size != want {
			t.Fatalf("window %d size = %d, want %d (turns interleaved?)", i, size, want)
		}
	}
}

func TestSetPersonalityReseedsConversation(t *testing.T) {
	fake := &fakeClient{reply: "arr"}
	svc, store := newTestService(t, fake, Options{})

	svc.Reply(context.Background(), 3, "hello")
	p, err := svc.SetPersonality(3, "pirate")
	if err != nil {
		t.Fatalf("set personality: %v", err)
	}
	if p.Key != "pirate" || p.Emoji == "" || p.Title == "" {
		t.Fatalf("personality metadata incomplete: %+v", p)
	}

	msgs := store.Get(3)
	if len(msgs) != 1 || msgs[0].Role != history.RoleSystem || msgs[0].Content != p.Prompt {
		t.Fatalf("history after switch = %+v, want single pirate system seed", msgs)
	}
	if got := svc.ActivePersonality(3); got.Key != "pirate" {
		t.Fatalf("active personality = %q, want pirate", got.Key)
	}

	if _, err := svc.SetPersonality(3, "nonsense"); err == nil {
		t.Fatalf("expected error for unknown personality key")
	}
}

func TestPromptOverrideReplacesDefaultSeed(t *testing.T) {
	fake := &fakeClient{reply: "ok"}
	svc, store := newTestService(t, fake, Options{PromptOverride: "speak only in haiku"})

	svc.Reply(context.Background(), 11, "hi")
	if msgs := store.Get(11); msgs[0].Content != "speak only in haiku" {
		t.Fatalf("seed = %q, want operator override", msgs[0].Content)
	}

	if _, err := svc.SetPersonality(11, "savage"); err != nil {
		t.Fatalf("set personality: %v", err)
	}
	savage, _ := LookupPersonality("savage")
	if msgs := store.Get(11); msgs[0].Content != savage.Prompt {
		t.Fatalf("override must not leak into non-default presets")
	}

	if _, err := svc.SetPersonality(11, "default"); err != nil {
		t.Fatalf("set personality: %v", err)
	}
	if msgs := store.Get(11); msgs[0].Content != "speak only in haiku" {
		t.Fatalf("switching back to default must restore the override")
	}
}

func TestUsageCounters(t *testing.T) {
	fake := &fakeClient{reply: "ok"}
	svc, _ := newTestService(t, fake, Options{})

	svc.Reply(context.Background(), 1, "one")
	svc.Reply(context.Background(), 2, "two")
	fake.err = errors.New("boom")
	svc.Reply(context.Background(), 1, "three")

	u := svc.Usage()
	if u.Requests != 3 || u.Completions != 2 || u.Failures != 1 {
		t.Fatalf("usage = %+v, want 3 requests, 2 completions, 1 failure", u)
	}
	if u.TotalTokens != 16 {
		t.Fatalf("total tokens = %d, want 16", u.TotalTokens)
	}
}
