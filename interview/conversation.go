package interview

import (
	"fmt"

	"github.com/bytedance/sonic"
	"github.com/cloudwego/eino/schema"
)

// Need is the next piece of information the interview is missing. It is a
// pure projection of the conversation fields and is never stored.
type Need string

const (
	NeedProfession Need = "profession"
	NeedQuestions  Need = "questions"
	NeedAnswers    Need = "answers"
	NeedResume     Need = "resume"
	// NeedNone means the interview is finished: the resume text is set.
	NeedNone Need = "none"
)

// Question is one interview question. Index and Question are fixed at
// creation; only Answer mutates.
type Question struct {
	Index    int     `json:"index"`
	Question string  `json:"question"`
	Answer   *string `json:"answer"`
}

// Conversation is the persisted per-user interview state plus transcript.
type Conversation struct {
	ID         int64      `json:"id"`
	Profession *string    `json:"profession,omitempty"`
	Questions  []Question `json:"questions,omitempty"`
	// Resume is the synthesized resume body, terminal once set.
	Resume *string `json:"resume,omitempty"`
	// Artifact is the object-storage name of the rendered resume. It is
	// recorded by the caller after rendering succeeds, not by ProcessTurn.
	Artifact   *string           `json:"artifact,omitempty"`
	Transcript []*schema.Message `json:"transcript,omitempty"`
	// TokensSpent accumulates usage units across every completion call made
	// on behalf of this conversation. It survives Reset.
	TokensSpent int `json:"tokens_spent"`
}

func NewConversation(id int64) *Conversation {
	return &Conversation{ID: id}
}

// Need derives the required next action from the current fields.
func (c *Conversation) Need() Need {
	if c.Resume != nil {
		return NeedNone
	}
	if c.Questions != nil {
		for _, q := range c.Questions {
			if q.Answer == nil {
				return NeedAnswers
			}
		}
		return NeedResume
	}
	if c.Profession != nil {
		return NeedQuestions
	}
	return NeedProfession
}

// Reset wipes the interview while preserving the identity and the
// cumulative spend, which belongs to the owning user rather than to one
// interview run.
func (c *Conversation) Reset() {
	*c = Conversation{ID: c.ID, TokensSpent: c.TokensSpent}
}

func (c *Conversation) SetProfession(profession string) {
	c.Profession = &profession
}

// SetQuestions fixes the question list. Indexes are assigned by position and
// never change afterwards.
func (c *Conversation) SetQuestions(questions []string) {
	list := make([]Question, len(questions))
	for i, q := range questions {
		list[i] = Question{Index: i, Question: q}
	}
	c.Questions = list
}

// SetAnswer records the answer for the question at index. Out-of-range
// indexes and unset question lists are reported, not applied.
func (c *Conversation) SetAnswer(index int, answer string) error {
	if c.Questions == nil {
		return fmt.Errorf("no questions to answer")
	}
	if index < 0 || index >= len(c.Questions) {
		return fmt.Errorf("question index %d out of range [0,%d)", index, len(c.Questions))
	}
	c.Questions[index].Answer = &answer
	return nil
}

func (c *Conversation) SetResume(resume string) {
	c.Resume = &resume
}

func (c *Conversation) SetArtifact(name string) {
	c.Artifact = &name
}

// Append adds messages to the persisted transcript. Windowing never touches
// the stored transcript; it only shapes outbound requests.
func (c *Conversation) Append(msgs ...*schema.Message) {
	for _, m := range msgs {
		if m != nil {
			c.Transcript = append(c.Transcript, m)
		}
	}
}

// appendToolSuccess acknowledges a tool invocation in the transcript so the
// model sees its call as completed on the next request.
func (c *Conversation) appendToolSuccess(callID string) {
	c.Append(schema.ToolMessage("success", callID))
}

// questionStateJSON serializes the current question/answer list. It is sent
// as ground truth ahead of the windowed transcript, since free-text recall
// from a trimmed history is unreliable.
func (c *Conversation) questionStateJSON() (string, bool) {
	if c.Questions == nil {
		return "", false
	}
	s, err := sonic.MarshalString(c.Questions)
	if err != nil {
		return "", false
	}
	return s, true
}
