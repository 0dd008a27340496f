package interview

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestProcessor(t *testing.T, fake *FakeModel, opts ...Option) *Processor {
	t.Helper()
	p, err := NewProcessor(fake, opts...)
	require.NoError(t, err)
	return p
}

// Scenario A: profession extracted from the first message, the loop moves on
// to question generation with no new user input.
func TestProfessionThenQuestionsCascade(t *testing.T) {
	ctx := context.Background()
	fake := NewFakeModel().
		Enqueue(FakeToolResponse(10, FakeToolCall("c1", toolSaveProfession, `{"profession":"backend developer"}`))).
		Enqueue(FakeToolResponse(20, FakeToolCall("c2", toolAddQuestions, `{"questions":["full name","age","experience","education","skills"]}`)))
	p := newTestProcessor(t, fake)
	conv := NewConversation(1)

	outcome, instructions, err := p.ProcessTurn(ctx, conv, "I want to be a backend developer")
	require.NoError(t, err)
	assert.True(t, outcome.Continue)
	assert.Empty(t, instructions)
	require.NotNil(t, conv.Profession)
	assert.Equal(t, "backend developer", *conv.Profession)
	assert.Equal(t, NeedQuestions, conv.Need())
	assert.Equal(t, 10, conv.TokensSpent)

	// transcript: user, assistant w/ invocation, correlated tool result
	require.Len(t, conv.Transcript, 3)
	assert.Equal(t, schema.User, conv.Transcript[0].Role)
	assert.Equal(t, schema.Assistant, conv.Transcript[1].Role)
	require.Len(t, conv.Transcript[1].ToolCalls, 1)
	assert.Equal(t, schema.Tool, conv.Transcript[2].Role)
	assert.Equal(t, "c1", conv.Transcript[2].ToolCallID)
	assert.Equal(t, "success", conv.Transcript[2].Content)

	// the driven re-invocation carries no input and hits the questions stage
	outcome, _, err = p.ProcessTurn(ctx, conv, "")
	require.NoError(t, err)
	assert.True(t, outcome.Continue)
	require.Len(t, conv.Questions, 5)
	assert.Equal(t, NeedAnswers, conv.Need())
	assert.Equal(t, 30, conv.TokensSpent)

	require.Equal(t, 2, fake.Calls())
	secondRequest := fake.Requests[1]
	require.NotEmpty(t, secondRequest)
	assert.Equal(t, schema.System, secondRequest[0].Role)
	assert.Equal(t, DefaultQuestionsPrompt, secondRequest[0].Content)
}

// Scenario B: two answers land in one response, a third question stays open.
func TestAnswersPartialFill(t *testing.T) {
	ctx := context.Background()
	fake := NewFakeModel().Enqueue(FakeToolResponse(15,
		FakeToolCall("a0", toolSetAnswer, `{"index":0,"answer":"Alex"}`),
		FakeToolCall("a2", toolSetAnswer, `{"index":2,"answer":"25"}`),
	))
	p := newTestProcessor(t, fake)
	conv := NewConversation(1)
	conv.SetProfession("backend developer")
	conv.SetQuestions([]string{"full name", "experience", "age"})

	outcome, _, err := p.ProcessTurn(ctx, conv, "I'm Alex, 25 years old")
	require.NoError(t, err)
	assert.True(t, outcome.Continue)

	require.NotNil(t, conv.Questions[0].Answer)
	assert.Equal(t, "Alex", *conv.Questions[0].Answer)
	require.NotNil(t, conv.Questions[2].Answer)
	assert.Equal(t, "25", *conv.Questions[2].Answer)
	assert.Nil(t, conv.Questions[1].Answer)
	assert.Equal(t, NeedAnswers, conv.Need())

	// both applied invocations are acknowledged
	acks := 0
	for _, m := range conv.Transcript {
		if m.Role == schema.Tool {
			acks++
		}
	}
	assert.Equal(t, 2, acks)
}

func TestAnswersDropBadItemsKeepGood(t *testing.T) {
	ctx := context.Background()
	fake := NewFakeModel().Enqueue(FakeToolResponse(5,
		FakeToolCall("bad1", toolSetAnswer, `{"index":7,"answer":"out of range"}`),
		FakeToolCall("good", toolSetAnswer, `{"index":1,"answer":"ok"}`),
		FakeToolCall("bad2", toolSetAnswer, `not json`),
	))
	p := newTestProcessor(t, fake)
	conv := NewConversation(1)
	conv.SetProfession("qa")
	conv.SetQuestions([]string{"a", "b"})

	outcome, _, err := p.ProcessTurn(ctx, conv, "")
	require.NoError(t, err)
	assert.True(t, outcome.Continue)
	assert.Nil(t, conv.Questions[0].Answer)
	require.NotNil(t, conv.Questions[1].Answer)
	assert.Equal(t, "ok", *conv.Questions[1].Answer)
}

func TestAnswersAllBadIsMalformed(t *testing.T) {
	ctx := context.Background()
	fake := NewFakeModel().Enqueue(FakeToolResponse(5,
		FakeToolCall("bad", toolSetAnswer, `{"index":99,"answer":"nope"}`),
	))
	p := newTestProcessor(t, fake)
	conv := NewConversation(1)
	conv.SetProfession("qa")
	conv.SetQuestions([]string{"a"})

	_, _, err := p.ProcessTurn(ctx, conv, "")
	var malformed *MalformedResultError
	require.ErrorAs(t, err, &malformed)
	assert.Equal(t, NeedAnswers, malformed.Stage)
	assert.Equal(t, 1, malformed.Calls)
	assert.Nil(t, conv.Questions[0].Answer)
	assert.Equal(t, 5, conv.TokensSpent, "usage is charged even when nothing decodes")
}

// Scenario C: the spend guard blocks the call before it is made.
func TestSpendGuard(t *testing.T) {
	ctx := context.Background()
	fake := NewFakeModel()
	p := newTestProcessor(t, fake, WithSpendCeiling(50000))
	conv := NewConversation(1)
	conv.TokensSpent = 50000

	outcome, instructions, err := p.ProcessTurn(ctx, conv, "hello")
	require.NoError(t, err)
	assert.Equal(t, ReplyLimitExceeded, outcome.Reply)
	assert.False(t, outcome.Continue)
	assert.Empty(t, instructions)
	assert.Zero(t, fake.Calls())
	assert.Equal(t, 50000, conv.TokensSpent)
}

// Scenario D: reset wipes everything but id and spend, and asks the caller
// to delete the stored artifact.
func TestResetEmitsDeleteArtifact(t *testing.T) {
	ctx := context.Background()
	p := newTestProcessor(t, NewFakeModel())
	conv := NewConversation(7)
	conv.SetProfession("designer")
	conv.SetQuestions([]string{"q1", "q2", "q3", "q4", "q5"})
	conv.SetResume("# resume")
	conv.SetArtifact("x.pdf")
	conv.TokensSpent = 900

	outcome, instructions, err := p.ProcessTurn(ctx, conv, "reset")
	require.NoError(t, err)
	assert.Equal(t, ReplyReset, outcome.Reply)
	require.Len(t, instructions, 1)
	assert.Equal(t, InstructionDeleteArtifact, instructions[0].Kind)
	assert.Equal(t, "x.pdf", instructions[0].Text)

	assert.Equal(t, int64(7), conv.ID)
	assert.Equal(t, 900, conv.TokensSpent)
	assert.Nil(t, conv.Resume)
	assert.Empty(t, conv.Transcript)
}

func TestResetWithoutArtifactEmitsNothing(t *testing.T) {
	ctx := context.Background()
	p := newTestProcessor(t, NewFakeModel())
	conv := NewConversation(1)
	conv.SetProfession("designer")

	outcome, instructions, err := p.ProcessTurn(ctx, conv, "reset")
	require.NoError(t, err)
	assert.Equal(t, ReplyReset, outcome.Reply)
	assert.Empty(t, instructions)
}

func TestTransportErrorChargesAndMutatesNothing(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("connection refused")
	fake := NewFakeModel().EnqueueError(boom)
	p := newTestProcessor(t, fake)
	conv := NewConversation(1)

	_, _, err := p.ProcessTurn(ctx, conv, "hi")
	var transport *TransportError
	require.ErrorAs(t, err, &transport)
	assert.Equal(t, NeedProfession, transport.Stage)
	assert.ErrorIs(t, err, boom)
	assert.Zero(t, conv.TokensSpent)
	assert.Nil(t, conv.Profession)
	// the user message itself is still part of the transcript; retrying the
	// turn is the caller's call
	require.Len(t, conv.Transcript, 1)
}

func TestMalformedSingleResultIsFatal(t *testing.T) {
	ctx := context.Background()
	fake := NewFakeModel().
		Enqueue(FakeToolResponse(12, FakeToolCall("c1", toolSaveProfession, `{"wrong":"shape"}`)))
	p := newTestProcessor(t, fake)
	conv := NewConversation(1)

	_, _, err := p.ProcessTurn(ctx, conv, "hi")
	var malformed *MalformedResultError
	require.ErrorAs(t, err, &malformed)
	assert.Equal(t, NeedProfession, malformed.Stage)
	assert.Contains(t, malformed.Arguments, "wrong")
	assert.Nil(t, conv.Profession)
	assert.Equal(t, 12, conv.TokensSpent, "charged whenever a response was obtained")
}

func TestFreeTextIsRelayedWithoutAdvancing(t *testing.T) {
	ctx := context.Background()
	fake := NewFakeModel().Enqueue(FakeTextResponse(8, "Which profession do you mean?"))
	p := newTestProcessor(t, fake)
	conv := NewConversation(1)

	outcome, _, err := p.ProcessTurn(ctx, conv, "hello there")
	require.NoError(t, err)
	assert.False(t, outcome.Continue)
	assert.Equal(t, "Which profession do you mean?", outcome.Reply)
	assert.Nil(t, conv.Profession)
	assert.Equal(t, NeedProfession, conv.Need())
	assert.Equal(t, 8, conv.TokensSpent)

	require.Len(t, conv.Transcript, 2)
	assert.Equal(t, schema.Assistant, conv.Transcript[1].Role)
}

func TestEmptyResponseIsMalformed(t *testing.T) {
	ctx := context.Background()
	fake := NewFakeModel().Enqueue(FakeTextResponse(3, ""))
	p := newTestProcessor(t, fake)
	conv := NewConversation(1)

	_, _, err := p.ProcessTurn(ctx, conv, "hi")
	var malformed *MalformedResultError
	require.ErrorAs(t, err, &malformed)
	assert.Zero(t, malformed.Calls)
}

func TestResumeSuccessEmitsRenderInstruction(t *testing.T) {
	ctx := context.Background()
	fake := NewFakeModel().
		Enqueue(FakeToolResponse(100, FakeToolCall("r1", toolSaveResume, `{"resume":"# Alex\n\nBackend developer."}`)))
	p := newTestProcessor(t, fake)
	conv := answeredConversation()

	outcome, instructions, err := p.ProcessTurn(ctx, conv, "")
	require.NoError(t, err)
	assert.True(t, outcome.Continue)
	require.Len(t, instructions, 1)
	assert.Equal(t, InstructionRenderResume, instructions[0].Kind)
	assert.Contains(t, instructions[0].Text, "Backend developer")
	assert.Equal(t, NeedNone, conv.Need())

	// the driven follow-up settles on the completion message
	outcome, instructions, err = p.ProcessTurn(ctx, conv, "")
	require.NoError(t, err)
	assert.False(t, outcome.Continue)
	assert.Equal(t, ReplyFinished, outcome.Reply)
	assert.Empty(t, instructions)
}

func TestResumeReplayCommand(t *testing.T) {
	ctx := context.Background()
	fake := NewFakeModel()
	p := newTestProcessor(t, fake)
	conv := NewConversation(1)
	conv.SetResume("# the resume body")

	outcome, _, err := p.ProcessTurn(ctx, conv, "resume")
	require.NoError(t, err)
	assert.Equal(t, "# the resume body", outcome.Reply)
	assert.Zero(t, fake.Calls(), "replay makes no remote call")
}

func TestResumeKeywordDuringInterviewIsOrdinaryInput(t *testing.T) {
	ctx := context.Background()
	fake := NewFakeModel().Enqueue(FakeTextResponse(4, "Tell me your profession first."))
	p := newTestProcessor(t, fake)
	conv := NewConversation(1)

	outcome, _, err := p.ProcessTurn(ctx, conv, "resume")
	require.NoError(t, err)
	assert.Equal(t, "Tell me your profession first.", outcome.Reply)
	assert.Equal(t, 1, fake.Calls())
	assert.Equal(t, schema.User, conv.Transcript[0].Role)
	assert.Equal(t, "resume", conv.Transcript[0].Content)
}

func TestQuestionStatePrependedForAnswersAndResume(t *testing.T) {
	ctx := context.Background()
	fake := NewFakeModel().
		Enqueue(FakeToolResponse(1, FakeToolCall("a", toolSetAnswer, `{"index":0,"answer":"Alex"}`))).
		Enqueue(FakeToolResponse(1, FakeToolCall("r", toolSaveResume, `{"resume":"# r"}`)))
	p := newTestProcessor(t, fake)
	conv := NewConversation(1)
	conv.SetProfession("dev")
	conv.SetQuestions([]string{"full name"})

	_, _, err := p.ProcessTurn(ctx, conv, "Alex")
	require.NoError(t, err)
	_, _, err = p.ProcessTurn(ctx, conv, "")
	require.NoError(t, err)

	require.Equal(t, 2, fake.Calls())
	for _, request := range fake.Requests {
		require.GreaterOrEqual(t, len(request), 2)
		assert.Equal(t, schema.System, request[1].Role)
		assert.Contains(t, request[1].Content, `"question":"full name"`)
	}
}

func TestChargeAccumulatesAcrossTurns(t *testing.T) {
	ctx := context.Background()
	fake := NewFakeModel().
		Enqueue(FakeTextResponse(11, "and your profession is?")).
		EnqueueError(errors.New("flaky")).
		Enqueue(FakeTextResponse(7, "still waiting"))
	p := newTestProcessor(t, fake)
	conv := NewConversation(1)

	_, _, err := p.ProcessTurn(ctx, conv, "hi")
	require.NoError(t, err)
	_, _, err = p.ProcessTurn(ctx, conv, "hm")
	require.Error(t, err)
	_, _, err = p.ProcessTurn(ctx, conv, "ok")
	require.NoError(t, err)

	assert.Equal(t, 18, conv.TokensSpent, "failed call adds zero, others sum")
}

func TestNoCallsOnceCeilingReachedUntilReset(t *testing.T) {
	ctx := context.Background()
	fake := NewFakeModel().Enqueue(FakeTextResponse(2, "profession?"))
	p := newTestProcessor(t, fake, WithSpendCeiling(100))
	conv := NewConversation(1)
	conv.TokensSpent = 100

	for i := 0; i < 3; i++ {
		outcome, _, err := p.ProcessTurn(ctx, conv, "hello")
		require.NoError(t, err)
		assert.Equal(t, ReplyLimitExceeded, outcome.Reply)
	}
	assert.Zero(t, fake.Calls())

	outcome, _, err := p.ProcessTurn(ctx, conv, "reset")
	require.NoError(t, err)
	assert.Equal(t, ReplyReset, outcome.Reply)
	assert.Equal(t, 100, conv.TokensSpent, "spend survives reset")

	// spend survives but so does the guard against it; a higher ceiling or
	// a fresh processor is needed to talk again
	outcome, _, err = p.ProcessTurn(ctx, conv, "hello")
	require.NoError(t, err)
	assert.Equal(t, ReplyLimitExceeded, outcome.Reply)
}

func TestHistoryBudgetWindowsOutboundOnly(t *testing.T) {
	ctx := context.Background()
	fake := NewFakeModel().Enqueue(FakeTextResponse(1, "noted"))
	p := newTestProcessor(t, fake, WithHistoryBudget(10))
	conv := NewConversation(1)
	conv.Append(
		schema.UserMessage(strings.Repeat("x", 50)),
		schema.UserMessage("short"),
	)

	_, _, err := p.ProcessTurn(ctx, conv, "hey")
	require.NoError(t, err)

	require.Equal(t, 1, fake.Calls())
	request := fake.Requests[0]
	// system prompt + the two messages that fit ("short" + "hey")
	require.Len(t, request, 3)
	assert.Equal(t, "short", request[1].Content)
	assert.Equal(t, "hey", request[2].Content)
	assert.Len(t, conv.Transcript, 4, "persisted transcript is never windowed")
}

func answeredConversation() *Conversation {
	conv := NewConversation(1)
	conv.SetProfession("backend developer")
	conv.SetQuestions([]string{"full name", "age"})
	_ = conv.SetAnswer(0, "Alex")
	_ = conv.SetAnswer(1, "25")
	return conv
}
