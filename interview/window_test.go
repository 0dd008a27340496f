package interview

import (
	"testing"

	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func messagesWithLengths(lengths ...int) []*schema.Message {
	msgs := make([]*schema.Message, len(lengths))
	for i, n := range lengths {
		content := make([]byte, n)
		for j := range content {
			content[j] = 'a'
		}
		msgs[i] = schema.UserMessage(string(content))
	}
	return msgs
}

func TestWindowKeepsSuffixWithinBudget(t *testing.T) {
	msgs := messagesWithLengths(10, 20, 30, 40)

	window := windowMessages(msgs, 75)
	// 40+30 = 70 fits, adding 20 would make 90
	require.Len(t, window, 2)
	assert.Same(t, msgs[2], window[0])
	assert.Same(t, msgs[3], window[1])
}

func TestWindowExactBudgetBoundary(t *testing.T) {
	msgs := messagesWithLengths(10, 20, 30)

	window := windowMessages(msgs, 60)
	assert.Len(t, window, 3, "exact total fits")

	window = windowMessages(msgs, 59)
	assert.Len(t, window, 2)
}

func TestWindowNewestAloneTooLarge(t *testing.T) {
	msgs := messagesWithLengths(5, 100)
	assert.Empty(t, windowMessages(msgs, 50))
}

func TestWindowNoPartialMessages(t *testing.T) {
	msgs := messagesWithLengths(30, 30, 30)
	for budget := 0; budget <= 100; budget++ {
		window := windowMessages(msgs, budget)
		total := 0
		for _, m := range window {
			total += len(m.Content)
		}
		assert.LessOrEqual(t, total, budget)
		if len(window) < len(msgs) && len(window) > 0 {
			earlier := msgs[len(msgs)-len(window)-1]
			assert.Greater(t, total+len(earlier.Content), budget,
				"one earlier message must exceed the budget")
		}
	}
}

func TestWindowEmptyAndZeroBudget(t *testing.T) {
	assert.Empty(t, windowMessages(nil, 100))
	assert.Empty(t, windowMessages(messagesWithLengths(1), 0))
}

func TestWindowDoesNotMutateTranscript(t *testing.T) {
	msgs := messagesWithLengths(10, 10, 10)
	_ = windowMessages(msgs, 15)
	assert.Len(t, msgs, 3)
}
