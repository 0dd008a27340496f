package interview

import (
	"context"
	"log/slog"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

// Reserved user commands and canned replies.
const (
	CommandReset  = "reset"
	CommandResume = "resume"

	ReplyReset         = "Data reset"
	ReplyLimitExceeded = "Limit exceeded"
	ReplyFinished      = `The interview is finished. Send "resume" to see the result or "reset" to start over.`
)

// Outcome is the per-turn result. Exactly one of the two shapes applies:
// a user-facing reply, or a request to step again with no new input.
type Outcome struct {
	// Reply is the user-visible text. Meaningful only when Continue is false.
	Reply string
	// Continue signals that the turn produced no user-visible output and the
	// caller should re-invoke ProcessTurn immediately with no input.
	Continue bool
}

func userFacing(text string) Outcome { return Outcome{Reply: text} }

func stepAgain() Outcome { return Outcome{Continue: true} }

// InstructionKind names a side effect the caller must perform. ProcessTurn
// never touches storage itself.
type InstructionKind string

const (
	// InstructionRenderResume asks the caller to render the resume text and
	// store the durable artifact.
	InstructionRenderResume InstructionKind = "render_resume"
	// InstructionDeleteArtifact asks the caller to delete a previously
	// stored artifact by name.
	InstructionDeleteArtifact InstructionKind = "delete_artifact"
)

// Instruction is a side-effect request emitted alongside an Outcome.
type Instruction struct {
	Kind InstructionKind
	// Text is the resume body for InstructionRenderResume and the stored
	// object name for InstructionDeleteArtifact.
	Text string
}

const (
	DefaultHistoryBudget   = 5000
	DefaultSpendCeiling    = 50000
	DefaultResumeMaxTokens = 4000
)

type processorOptions struct {
	prompts         Prompts
	historyBudget   int
	spendCeiling    int
	resumeMaxTokens int
}

type Option func(*processorOptions)

// WithPrompts replaces the compiled-in stage prompts.
func WithPrompts(p Prompts) Option {
	return func(o *processorOptions) { o.prompts = p }
}

// WithHistoryBudget sets the byte budget for the outbound transcript window.
func WithHistoryBudget(budget int) Option {
	return func(o *processorOptions) {
		if budget > 0 {
			o.historyBudget = budget
		}
	}
}

// WithSpendCeiling sets the usage-unit ceiling above which no further
// completion calls are made for the conversation.
func WithSpendCeiling(ceiling int) Option {
	return func(o *processorOptions) {
		if ceiling > 0 {
			o.spendCeiling = ceiling
		}
	}
}

// WithResumeMaxTokens bounds the output size of the resume-synthesis call,
// which needs far more room than the other stages.
func WithResumeMaxTokens(maxTokens int) Option {
	return func(o *processorOptions) {
		if maxTokens > 0 {
			o.resumeMaxTokens = maxTokens
		}
	}
}

// Processor drives one interview turn at a time against a tool-calling chat
// model. It mutates only the Conversation passed in; persistence, rendering
// and artifact storage happen in the caller, steered by the returned
// instructions.
type Processor struct {
	chatModel model.ToolCallingChatModel
	tools     stageTools
	opts      processorOptions
}

func NewProcessor(chatModel model.ToolCallingChatModel, opts ...Option) (*Processor, error) {
	options := processorOptions{
		prompts:         DefaultPrompts(),
		historyBudget:   DefaultHistoryBudget,
		spendCeiling:    DefaultSpendCeiling,
		resumeMaxTokens: DefaultResumeMaxTokens,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&options)
		}
	}
	tools, err := newStageTools()
	if err != nil {
		return nil, err
	}
	return &Processor{chatModel: chatModel, tools: tools, opts: options}, nil
}

// ProcessTurn runs exactly one turn. An empty input means the caller is
// re-driving the loop after a Continue outcome. Errors leave the
// conversation consistent: a transport failure charges and mutates nothing,
// a malformed result has charged its usage but written no fields.
func (p *Processor) ProcessTurn(ctx context.Context, conv *Conversation, input string) (Outcome, []Instruction, error) {
	if input == CommandReset {
		var instructions []Instruction
		if conv.Artifact != nil {
			instructions = append(instructions, Instruction{Kind: InstructionDeleteArtifact, Text: *conv.Artifact})
		}
		conv.Reset()
		return userFacing(ReplyReset), instructions, nil
	}

	if conv.Need() == NeedNone && input == CommandResume {
		return userFacing(*conv.Resume), nil, nil
	}

	if input != "" {
		conv.Append(schema.UserMessage(input))
	}

	need := conv.Need()
	if need == NeedNone {
		return userFacing(ReplyFinished), nil, nil
	}

	if conv.TokensSpent >= p.opts.spendCeiling {
		return userFacing(ReplyLimitExceeded), nil, nil
	}

	response, err := p.chatModel.Generate(ctx, p.buildMessages(conv, need), p.callOptions(need)...)
	if err != nil {
		return Outcome{}, nil, &TransportError{Stage: need, Err: err}
	}
	conv.TokensSpent += usageTotal(response)

	if need == NeedAnswers {
		return p.applyAnswers(conv, response)
	}
	return p.applySingle(conv, need, response)
}

// buildMessages assembles the outbound request: the stage prompt, the
// question-state payload for the stages that depend on it, then the windowed
// transcript.
func (p *Processor) buildMessages(conv *Conversation, need Need) []*schema.Message {
	window := windowMessages(conv.Transcript, p.opts.historyBudget)
	messages := make([]*schema.Message, 0, len(window)+2)
	messages = append(messages, schema.SystemMessage(p.opts.prompts.forStage(need)))
	if need == NeedAnswers || need == NeedResume {
		if state, ok := conv.questionStateJSON(); ok {
			messages = append(messages, schema.SystemMessage(state))
		}
	}
	return append(messages, window...)
}

func (p *Processor) callOptions(need Need) []model.Option {
	options := []model.Option{
		model.WithTools([]*schema.ToolInfo{p.tools[need]}),
	}
	if need == NeedResume {
		options = append(options, model.WithMaxTokens(p.opts.resumeMaxTokens))
	}
	return options
}

// applySingle handles the single-result stages (Profession, Questions,
// Resume): only the first invocation counts, a decode failure is fatal for
// the turn, and free text is relayed to the user without advancing.
func (p *Processor) applySingle(conv *Conversation, need Need, response *schema.Message) (Outcome, []Instruction, error) {
	if len(response.ToolCalls) == 0 {
		if response.Content == "" {
			return Outcome{}, nil, &MalformedResultError{Stage: need, Err: errEmptyResponse}
		}
		conv.Append(schema.AssistantMessage(response.Content, nil))
		return userFacing(response.Content), nil, nil
	}

	call := response.ToolCalls[0]
	var instructions []Instruction
	apply := func() error {
		switch need {
		case NeedProfession:
			profession, err := decodeProfession(call.Function.Arguments)
			if err != nil {
				return err
			}
			conv.SetProfession(profession)
		case NeedQuestions:
			questions, err := decodeQuestions(call.Function.Arguments)
			if err != nil {
				return err
			}
			conv.SetQuestions(questions)
		case NeedResume:
			resume, err := decodeResume(call.Function.Arguments)
			if err != nil {
				return err
			}
			conv.SetResume(resume)
			instructions = append(instructions, Instruction{Kind: InstructionRenderResume, Text: resume})
		}
		return nil
	}
	if err := apply(); err != nil {
		return Outcome{}, nil, &MalformedResultError{
			Stage:     need,
			Calls:     len(response.ToolCalls),
			Arguments: call.Function.Arguments,
			Err:       err,
		}
	}

	conv.Append(schema.AssistantMessage(response.Content, response.ToolCalls))
	conv.appendToolSuccess(call.ID)
	return stepAgain(), instructions, nil
}

// applyAnswers handles the multi-result Answers stage: every invocation in
// the response is considered, bad ones are dropped individually, and the
// turn fails only when nothing at all decoded.
func (p *Processor) applyAnswers(conv *Conversation, response *schema.Message) (Outcome, []Instruction, error) {
	if len(response.ToolCalls) == 0 {
		if response.Content == "" {
			return Outcome{}, nil, &MalformedResultError{Stage: NeedAnswers, Err: errEmptyResponse}
		}
		conv.Append(schema.AssistantMessage(response.Content, nil))
		return userFacing(response.Content), nil, nil
	}

	type decoded struct {
		callID string
		index  int
		answer string
	}
	applicable := make([]decoded, 0, len(response.ToolCalls))
	for _, call := range response.ToolCalls {
		index, answer, err := decodeAnswer(call.Function.Arguments)
		if err != nil {
			slog.Debug("dropping undecodable answer invocation", "call_id", call.ID, "err", err)
			continue
		}
		if conv.Questions == nil || index >= len(conv.Questions) {
			slog.Debug("dropping out-of-range answer invocation", "call_id", call.ID, "index", index)
			continue
		}
		applicable = append(applicable, decoded{callID: call.ID, index: index, answer: answer})
	}
	if len(applicable) == 0 {
		return Outcome{}, nil, &MalformedResultError{
			Stage:     NeedAnswers,
			Calls:     len(response.ToolCalls),
			Arguments: response.ToolCalls[0].Function.Arguments,
			Err:       errNoDecodableCalls,
		}
	}

	conv.Append(schema.AssistantMessage(response.Content, response.ToolCalls))
	for _, d := range applicable {
		conv.appendToolSuccess(d.callID)
		// Range was validated above; SetAnswer cannot fail here.
		_ = conv.SetAnswer(d.index, d.answer)
	}
	return stepAgain(), nil, nil
}

func usageTotal(m *schema.Message) int {
	if m.ResponseMeta != nil && m.ResponseMeta.Usage != nil {
		return m.ResponseMeta.Usage.TotalTokens
	}
	return 0
}
