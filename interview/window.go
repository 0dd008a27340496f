package interview

import "github.com/cloudwego/eino/schema"

// windowMessages returns the longest transcript suffix whose accumulated
// content length stays within budget bytes. Messages are never truncated: the
// first message (walking newest to oldest) that would push the running total
// over the budget is excluded together with everything before it. If even the
// newest message alone exceeds the budget, the window is empty.
func windowMessages(msgs []*schema.Message, budget int) []*schema.Message {
	if budget <= 0 {
		return nil
	}
	total := 0
	start := len(msgs)
	for start > 0 {
		total += len(msgs[start-1].Content)
		if total > budget {
			break
		}
		start--
	}
	return msgs[start:]
}
