package history

// DefaultBudget is the approximate token budget used when selecting
// conversation context for a completion call.
const DefaultBudget = 900

// perMessageCost is the fixed overhead added to each message's character
// count. Character count stands in for tokens; callers must tolerate the
// window over- or undershooting a real tokenizer's limit.
const perMessageCost = 10

func messageCost(m Message) int { return len(m.Content) + perMessageCost }

// SelectContext returns the suffix of msgs to submit as conversational
// context: newest first, messages accumulate while the summed cost stays
// within budget, and accumulation stops at the first message that would
// overflow — even if a still-older message would have fit. The newest
// message is always included, oversized or not, so a single long message
// is never dropped entirely. Pure function; empty input yields nil.
func SelectContext(msgs []Message, budget int) []Message {
	if len(msgs) == 0 {
		return nil
	}
	last := len(msgs) - 1
	total := messageCost(msgs[last])
	start := last
	for i := last - 1; i >= 0; i-- {
		if total+messageCost(msgs[i]) > budget {
			break
		}
		total += messageCost(msgs[i])
		start = i
	}
	out := make([]Message, len(msgs)-start)
	copy(out, msgs[start:])
	return out
}
