package bank

import "time"

type QuestionType string

const (
	MCQSingle   QuestionType = "MCQ_SINGLE"
	MCQMultiple QuestionType = "MCQ_MULTIPLE"
	TrueFalse   QuestionType = "TRUE_FALSE"
	FillBlank   QuestionType = "FILL_BLANK"
	ShortAnswer QuestionType = "SHORT_ANSWER"
	LongAnswer  QuestionType = "LONG_ANSWER"
	Numeric     QuestionType = "NUMERIC"
	Matching    QuestionType = "MATCHING"
	Sequence    QuestionType = "SEQUENCE"
)

type Difficulty string

const (
	Easy   Difficulty = "EASY"
	Medium Difficulty = "MEDIUM"
	Hard   Difficulty = "HARD"
)

// HasOptions reports whether the type carries a non-empty options list.
func (t QuestionType) HasOptions() bool {
	switch t {
	case MCQSingle, MCQMultiple, Matching, Sequence:
		return true
	}
	return false
}

// AutoGradable reports whether the engine can score the type without a human.
func (t QuestionType) AutoGradable() bool {
	return t != LongAnswer
}

func (t QuestionType) Valid() bool {
	switch t {
	case MCQSingle, MCQMultiple, TrueFalse, FillBlank, ShortAnswer,
		LongAnswer, Numeric, Matching, Sequence:
		return true
	}
	return false
}

type Question struct {
	ID          string       `json:"id"`
	Type        QuestionType `json:"type"`
	Text        string       `json:"text"`
	Options     []string     `json:"options,omitempty"`
	Answer      AnswerKey    `json:"answer_key"`
	Explanation string       `json:"explanation,omitempty"`
	Marks       int          `json:"marks"`
	Difficulty  Difficulty   `json:"difficulty"`
	Subject     string       `json:"subject"`
	Topic       string       `json:"topic,omitempty"`
	Tags        []string     `json:"tags,omitempty"`
	CreatedBy   string       `json:"created_by,omitempty"`
	CreatedAt   time.Time    `json:"created_at,omitempty"`
	UpdatedAt   time.Time    `json:"updated_at,omitempty"`
}
