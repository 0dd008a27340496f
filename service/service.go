// Package service owns the driving loop around the turn processor: it loads
// the conversation, steps the interview until a user-facing outcome, executes
// the emitted side-effect instructions and commits the conversation exactly
// once per externally-visible turn.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/digitalscyther/ai-cv-creator/artifact"
	"github.com/digitalscyther/ai-cv-creator/interview"
	"github.com/digitalscyther/ai-cv-creator/render"
	"github.com/digitalscyther/ai-cv-creator/store"
)

const (
	ReplyTooLong = "Invalid message (too long)"

	DefaultMaxMessageLength = 4096
	// DefaultStepCap bounds the Continue loop. The interview advances a
	// finite stage chain, so hitting the cap means the backend is looping on
	// answers without filling anything new.
	DefaultStepCap = 16
)

// ErrNoArtifact is returned when a resume document is requested before one
// has been rendered and stored.
var ErrNoArtifact = errors.New("no resume artifact for conversation")

// MessageRequest is the service-facing turn input.
type MessageRequest struct {
	Text   string           `json:"text"`
	OpenAI *OpenAIOverrides `json:"open_ai,omitempty"`
	// MaxHistory overrides the history byte budget for this turn.
	MaxHistory int `json:"max_history,omitempty"`
	// MaxTokens overrides the spend ceiling for this turn.
	MaxTokens int `json:"max_tokens,omitempty"`
}

type OpenAIOverrides struct {
	APIKey    string `json:"api_key,omitempty"`
	MaxTokens int    `json:"max_tokens,omitempty"`
	Model     string `json:"model,omitempty"`
}

type serviceOptions struct {
	maxMessageLength int
	stepCap          int
	historyBudget    int
	spendCeiling     int
}

type Option func(*serviceOptions)

func WithMaxMessageLength(n int) Option {
	return func(o *serviceOptions) {
		if n > 0 {
			o.maxMessageLength = n
		}
	}
}

func WithStepCap(n int) Option {
	return func(o *serviceOptions) {
		if n > 0 {
			o.stepCap = n
		}
	}
}

// WithHistoryBudget sets the default history byte budget for turns that do
// not override it.
func WithHistoryBudget(n int) Option {
	return func(o *serviceOptions) {
		if n > 0 {
			o.historyBudget = n
		}
	}
}

// WithSpendCeiling sets the default spend ceiling for turns that do not
// override it.
func WithSpendCeiling(n int) Option {
	return func(o *serviceOptions) {
		if n > 0 {
			o.spendCeiling = n
		}
	}
}

type Service struct {
	conversations store.Store
	artifacts     artifact.Store
	renderer      render.Renderer
	models        ModelProvider
	opts          serviceOptions
}

func New(conversations store.Store, artifacts artifact.Store, renderer render.Renderer, models ModelProvider, opts ...Option) *Service {
	options := serviceOptions{
		maxMessageLength: DefaultMaxMessageLength,
		stepCap:          DefaultStepCap,
		historyBudget:    interview.DefaultHistoryBudget,
		spendCeiling:     interview.DefaultSpendCeiling,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&options)
		}
	}
	return &Service{
		conversations: conversations,
		artifacts:     artifacts,
		renderer:      renderer,
		models:        models,
		opts:          options,
	}
}

func (s *Service) Create(ctx context.Context) (int64, error) {
	return s.conversations.Create(ctx)
}

func (s *Service) Get(ctx context.Context, id int64) (*interview.Conversation, error) {
	return s.conversations.Load(ctx, id)
}

// ResumeDocument returns the rendered resume bytes for the conversation.
func (s *Service) ResumeDocument(ctx context.Context, id int64) ([]byte, error) {
	conv, err := s.conversations.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	if conv.Artifact == nil {
		return nil, ErrNoArtifact
	}
	return s.artifacts.Get(ctx, *conv.Artifact)
}

// Message runs one externally-visible turn: it drives ProcessTurn until the
// outcome stops asking to continue, performs the emitted instructions and
// commits the conversation. On an error before any instruction ran, nothing
// is persisted and the caller may retry the whole turn.
func (s *Service) Message(ctx context.Context, id int64, req MessageRequest) (string, error) {
	text := strings.TrimSpace(req.Text)
	if len(text) > s.opts.maxMessageLength {
		return ReplyTooLong, nil
	}

	conv, err := s.conversations.Load(ctx, id)
	if err != nil {
		return "", err
	}

	processor, err := s.processorFor(ctx, req)
	if err != nil {
		return "", fmt.Errorf("build processor: %w", err)
	}

	outcome, instructions, err := s.drive(ctx, processor, conv, text)
	if err != nil {
		return "", err
	}

	if err := s.execute(ctx, conv, instructions); err != nil {
		// The model-side work is done; commit it before escalating so it is
		// not repeated because rendering or storage failed.
		if saveErr := s.conversations.Save(ctx, conv); saveErr != nil {
			slog.Error("commit after failed instruction", "id", id, "err", saveErr)
		}
		return "", err
	}

	if err := s.conversations.Save(ctx, conv); err != nil {
		return "", fmt.Errorf("persist conversation %d: %w", id, err)
	}
	return outcome.Reply, nil
}

func (s *Service) processorFor(ctx context.Context, req MessageRequest) (*interview.Processor, error) {
	overrides := ModelOverrides{}
	if req.OpenAI != nil {
		overrides = ModelOverrides{
			APIKey:    req.OpenAI.APIKey,
			Model:     req.OpenAI.Model,
			MaxTokens: req.OpenAI.MaxTokens,
		}
	}
	chatModel, err := s.models.ChatModel(ctx, overrides)
	if err != nil {
		return nil, err
	}

	historyBudget := s.opts.historyBudget
	if req.MaxHistory > 0 {
		historyBudget = req.MaxHistory
	}
	spendCeiling := s.opts.spendCeiling
	if req.MaxTokens > 0 {
		spendCeiling = req.MaxTokens
	}
	return interview.NewProcessor(chatModel,
		interview.WithHistoryBudget(historyBudget),
		interview.WithSpendCeiling(spendCeiling),
	)
}

// drive is the Continue trampoline: first invocation carries the user input,
// every re-invocation carries none.
func (s *Service) drive(ctx context.Context, processor *interview.Processor, conv *interview.Conversation, input string) (interview.Outcome, []interview.Instruction, error) {
	var pending []interview.Instruction
	for step := 0; step < s.opts.stepCap; step++ {
		outcome, instructions, err := processor.ProcessTurn(ctx, conv, input)
		if err != nil {
			return interview.Outcome{}, nil, err
		}
		pending = append(pending, instructions...)
		if !outcome.Continue {
			return outcome, pending, nil
		}
		input = ""
	}
	return interview.Outcome{}, nil, fmt.Errorf("turn did not settle within %d steps", s.opts.stepCap)
}

func (s *Service) execute(ctx context.Context, conv *interview.Conversation, instructions []interview.Instruction) error {
	for _, instruction := range instructions {
		switch instruction.Kind {
		case interview.InstructionDeleteArtifact:
			if err := s.artifacts.Delete(ctx, instruction.Text); err != nil {
				return fmt.Errorf("delete artifact %q: %w", instruction.Text, err)
			}
		case interview.InstructionRenderResume:
			data, err := s.renderer.Render(ctx, instruction.Text)
			if err != nil {
				return fmt.Errorf("render resume: %w", err)
			}
			name := uuid.NewString() + ".pdf"
			if err := s.artifacts.Put(ctx, name, data); err != nil {
				return fmt.Errorf("store artifact %q: %w", name, err)
			}
			conv.SetArtifact(name)
			slog.Info("resume rendered", "conversation", conv.ID, "artifact", name, "bytes", len(data))
		default:
			return fmt.Errorf("unknown instruction kind %q", instruction.Kind)
		}
	}
	return nil
}
