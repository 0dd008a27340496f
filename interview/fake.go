package interview

import (
	"context"
	"fmt"
	"sync"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

// FakeModel is a deterministic ToolCallingChatModel for offline runs and
// tests. It replays a scripted queue of responses and records every request
// it receives.
type FakeModel struct {
	mu        sync.Mutex
	responses []*schema.Message
	errs      []error
	// Requests holds the message list of every Generate call, oldest first.
	Requests [][]*schema.Message
	// Tools holds the tool set attached via WithTools at build time.
	Tools []*schema.ToolInfo
}

var _ model.ToolCallingChatModel = (*FakeModel)(nil)

func NewFakeModel() *FakeModel { return &FakeModel{} }

// Enqueue schedules a successful response. A nil usage leaves the charge at
// zero, like a backend that reports no usage block.
func (f *FakeModel) Enqueue(msg *schema.Message) *FakeModel {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses = append(f.responses, msg)
	f.errs = append(f.errs, nil)
	return f
}

// EnqueueError schedules a transport failure.
func (f *FakeModel) EnqueueError(err error) *FakeModel {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses = append(f.responses, nil)
	f.errs = append(f.errs, err)
	return f
}

func (f *FakeModel) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.Requests)
}

func (f *FakeModel) Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Requests = append(f.Requests, input)
	if len(f.responses) == 0 {
		return nil, fmt.Errorf("fake model: no scripted response left (call %d)", len(f.Requests))
	}
	msg, err := f.responses[0], f.errs[0]
	f.responses = f.responses[1:]
	f.errs = f.errs[1:]
	if err != nil {
		return nil, err
	}
	return msg, nil
}

func (f *FakeModel) Stream(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	msg, err := f.Generate(ctx, input, opts...)
	if err != nil {
		return nil, err
	}
	sr, sw := schema.Pipe[*schema.Message](1)
	sw.Send(msg, nil)
	sw.Close()
	return sr, nil
}

func (f *FakeModel) WithTools(tools []*schema.ToolInfo) (model.ToolCallingChatModel, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Tools = tools
	return f, nil
}

// FakeToolResponse builds an assistant response carrying tool invocations,
// with the given usage total attached.
func FakeToolResponse(usage int, calls ...schema.ToolCall) *schema.Message {
	msg := schema.AssistantMessage("", calls)
	msg.ResponseMeta = &schema.ResponseMeta{Usage: &schema.TokenUsage{TotalTokens: usage}}
	return msg
}

// FakeTextResponse builds a plain assistant text response with usage.
func FakeTextResponse(usage int, text string) *schema.Message {
	msg := schema.AssistantMessage(text, nil)
	msg.ResponseMeta = &schema.ResponseMeta{Usage: &schema.TokenUsage{TotalTokens: usage}}
	return msg
}

// FakeToolCall builds one invocation with the given id, operation and raw
// JSON arguments.
func FakeToolCall(id, name, arguments string) schema.ToolCall {
	return schema.ToolCall{
		ID:       id,
		Type:     "function",
		Function: schema.FunctionCall{Name: name, Arguments: arguments},
	}
}
