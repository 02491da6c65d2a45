package history

import (
	"strings"
	"testing"
)

func msgOfCost(role string, cost int) Message {
	// messageCost = len(content) + 10
	return Message{Role: role, Content: strings.Repeat("x", cost-perMessageCost)}
}

func TestSelectContextEmpty(t *testing.T) {
	if got := SelectContext(nil, DefaultBudget); len(got) != 0 {
		t.Fatalf("expected empty result, got %d", len(got))
	}
	if got := SelectContext([]Message{}, DefaultBudget); len(got) != 0 {
		t.Fatalf("expected empty result, got %d", len(got))
	}
}

func TestSelectContextDropsOlderWhenNewestFillsBudget(t *testing.T) {
	// Costs [50,50,50,900] with budget 900: only the newest fits.
	msgs := []Message{
		msgOfCost(RoleUser, 50),
		msgOfCost(RoleAssistant, 50),
		msgOfCost(RoleUser, 50),
		msgOfCost(RoleUser, 900),
	}
	got := SelectContext(msgs, 900)
	if len(got) != 1 {
		t.Fatalf("want 1 message, got %d", len(got))
	}
	if got[0].Content != msgs[3].Content {
		t.Fatalf("expected the newest message to survive")
	}
}

func TestSelectContextOversizedNewestStillIncluded(t *testing.T) {
	msgs := []Message{
		msgOfCost(RoleUser, 20),
		msgOfCost(RoleUser, 2000),
	}
	got := SelectContext(msgs, 900)
	if len(got) != 1 {
		t.Fatalf("oversized newest message must be kept, got %d messages", len(got))
	}
	if got[0].Content != msgs[1].Content {
		t.Fatalf("wrong message kept: %q", got[0].Content)
	}
}

func TestSelectContextIsChronologicalSuffix(t *testing.T) {
	msgs := []Message{
		msgOfCost(RoleSystem, 100),
		msgOfCost(RoleUser, 200),
		msgOfCost(RoleAssistant, 300),
		msgOfCost(RoleUser, 150),
	}
	got := SelectContext(msgs, 700)
	// 150+300 = 450, +200 = 650, +100 = 750 > 700 → last three.
	if len(got) != 3 {
		t.Fatalf("want 3 messages, got %d", len(got))
	}
	for i := range got {
		want := msgs[len(msgs)-len(got)+i]
		if got[i].Content != want.Content || got[i].Role != want.Role {
			t.Fatalf("result is not the chronological suffix at index %d", i)
		}
	}
}

func TestSelectContextGreedyStopsAtFirstOverflow(t *testing.T) {
	// Oldest message is tiny and would fit, but the scan must stop at the
	// first overflowing message and never reach past it.
	msgs := []Message{
		msgOfCost(RoleUser, 15),
		msgOfCost(RoleUser, 800),
		msgOfCost(RoleUser, 150),
	}
	got := SelectContext(msgs, 900)
	if len(got) != 1 {
		t.Fatalf("greedy scan must stop at the overflow, got %d messages", len(got))
	}
	if got[0].Content != msgs[2].Content {
		t.Fatalf("wrong survivor: %q", got[0].Content)
	}
}

func TestSelectContextWithinBudgetKeepsEverything(t *testing.T) {
	msgs := []Message{
		msgOfCost(RoleSystem, 60),
		msgOfCost(RoleUser, 30),
		msgOfCost(RoleAssistant, 40),
	}
	got := SelectContext(msgs, DefaultBudget)
	if len(got) != len(msgs) {
		t.Fatalf("want all %d messages, got %d", len(msgs), len(got))
	}
}

func TestSelectContextDoesNotMutateInput(t *testing.T) {
	msgs := []Message{msgOfCost(RoleUser, 20), msgOfCost(RoleUser, 30)}
	got := SelectContext(msgs, DefaultBudget)
	got[0].Content = "mutated"
	if msgs[0].Content == "mutated" {
		t.Fatalf("input slice mutated via result")
	}
}
