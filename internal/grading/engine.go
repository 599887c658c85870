package grading

import (
	"errors"
	"fmt"

	"github.com/teacherpk/assessment/internal/bank"
	"github.com/teacherpk/assessment/internal/compose"
)

// ItemResult is the outcome of grading a single question.
type ItemResult struct {
	QuestionID string  `json:"question_id"`
	Awarded    float64 `json:"awarded"`
	Max        int     `json:"max"`
	Pending    bool    `json:"pending,omitempty"` // needs a manual score
}

// GradedResult aggregates per-question results. Passed is nil when the
// composition configures no passing score, and nil while manual items are
// outstanding.
type GradedResult struct {
	Score    float64      `json:"score"`
	MaxScore int          `json:"max_score"`
	Passed   *bool        `json:"passed,omitempty"`
	Items    []ItemResult `json:"items"`
	Pending  []string     `json:"pending,omitempty"`
}

// Strategy grades a single question against a learner response.
type Strategy interface {
	Grade(q bank.Question, resp bank.Response) (ItemResult, error)
}

type Option func(*config)

type config struct {
	PartialCredit bool // partial credit for set/sequence types
}

// WithPartialCredit enables proportional scoring for MCQ_MULTIPLE, MATCHING
// and SEQUENCE. The default is all-or-nothing per question.
func WithPartialCredit(b bool) Option { return func(c *config) { c.PartialCredit = b } }

// Grader routes by question type to the matching strategy. Grading is pure:
// the same inputs always produce the same result.
type Grader struct {
	strategies map[bank.QuestionType]Strategy
}

func New(opts ...Option) *Grader {
	cfg := &config{}
	for _, o := range opts {
		o(cfg)
	}
	text := textStrategy{}
	set := setStrategy{allowPartial: cfg.PartialCredit}
	return &Grader{
		strategies: map[bank.QuestionType]Strategy{
			bank.MCQSingle:   text,
			bank.TrueFalse:   text,
			bank.FillBlank:   text,
			bank.ShortAnswer: text,
			bank.Numeric:     numericStrategy{},
			bank.MCQMultiple: set,
			bank.Matching:    set,
			bank.Sequence:    sequenceStrategy{allowPartial: cfg.PartialCredit},
			bank.LongAnswer:  manualStrategy{},
		},
	}
}

// GradeQuestion scores one question. An unknown type is an error: the bank
// validates types on the way in, so hitting this means corrupt data.
func (g *Grader) GradeQuestion(q bank.Question, resp bank.Response) (ItemResult, error) {
	s, ok := g.strategies[q.Type]
	if !ok {
		return ItemResult{}, fmt.Errorf("no grading strategy for type %q", q.Type)
	}
	return s.Grade(q, resp)
}

// Grade scores a full submission against a composition. The questions slice
// must hold the resolved bank entries in composition order. A question absent
// from answers scores zero without error. Long-answer items are marked
// pending and contribute zero until a manual score arrives.
func (g *Grader) Grade(comp compose.Composition, questions []bank.Question, answers map[string]bank.Response) (GradedResult, error) {
	if len(questions) != len(comp.QuestionIDs) {
		return GradedResult{}, errors.New("questions do not match composition")
	}
	out := GradedResult{Items: make([]ItemResult, 0, len(questions))}
	for _, q := range questions {
		out.MaxScore += q.Marks
		resp, answered := answers[q.ID]
		if !answered {
			out.Items = append(out.Items, ItemResult{QuestionID: q.ID, Max: q.Marks})
			continue
		}
		item, err := g.GradeQuestion(q, resp)
		if err != nil {
			return GradedResult{}, fmt.Errorf("question %s: %w", q.ID, err)
		}
		out.Items = append(out.Items, item)
		out.Score += item.Awarded
		if item.Pending {
			out.Pending = append(out.Pending, q.ID)
		}
	}
	finalize(&out, comp.PassingScore)
	return out, nil
}

// ApplyManual records a grader-supplied score for a pending item and
// recomputes the aggregate. The score is clamped to [0, max].
func ApplyManual(res *GradedResult, questionID string, awarded float64, passingScore *int) error {
	idx := -1
	for i := range res.Items {
		if res.Items[i].QuestionID == questionID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return fmt.Errorf("question %s not part of the graded result", questionID)
	}
	item := &res.Items[idx]
	if !item.Pending {
		return fmt.Errorf("question %s does not need a manual score", questionID)
	}
	if awarded < 0 {
		awarded = 0
	}
	if max := float64(item.Max); awarded > max {
		awarded = max
	}
	item.Awarded = awarded
	item.Pending = false

	res.Score = 0
	res.Pending = res.Pending[:0]
	for _, it := range res.Items {
		res.Score += it.Awarded
		if it.Pending {
			res.Pending = append(res.Pending, it.QuestionID)
		}
	}
	if len(res.Pending) == 0 {
		res.Pending = nil
	}
	finalize(res, passingScore)
	return nil
}

func finalize(res *GradedResult, passingScore *int) {
	res.Passed = nil
	if passingScore == nil || len(res.Pending) > 0 {
		return
	}
	passed := res.Score >= float64(*passingScore)
	res.Passed = &passed
}
