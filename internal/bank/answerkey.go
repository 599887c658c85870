package bank

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// AnswerKind discriminates the shape of an answer key. The set is closed:
// every question type maps to exactly one kind (see ExpectedKind).
type AnswerKind string

const (
	KindNone     AnswerKind = ""         // LONG_ANSWER: no machine-checkable key
	KindText     AnswerKind = "text"     // single string
	KindSet      AnswerKind = "set"      // unordered strings
	KindSequence AnswerKind = "sequence" // ordered strings
	KindNumeric  AnswerKind = "numeric"  // value with optional absolute tolerance
)

// AnswerKey is the correct-answer spec for a question. Which fields are
// meaningful depends on Kind; constructors below keep the pairing straight.
type AnswerKey struct {
	Kind      AnswerKind
	Text      string
	Values    []string
	Value     float64
	Tolerance float64
}

func TextAnswer(s string) AnswerKey         { return AnswerKey{Kind: KindText, Text: s} }
func SetAnswer(vs ...string) AnswerKey      { return AnswerKey{Kind: KindSet, Values: vs} }
func SequenceAnswer(vs ...string) AnswerKey { return AnswerKey{Kind: KindSequence, Values: vs} }
func NumericAnswer(v, tol float64) AnswerKey {
	return AnswerKey{Kind: KindNumeric, Value: v, Tolerance: tol}
}

// ExpectedKind returns the answer-key kind a question type requires.
func ExpectedKind(t QuestionType) AnswerKind {
	switch t {
	case MCQSingle, TrueFalse, FillBlank, ShortAnswer:
		return KindText
	case MCQMultiple, Matching:
		return KindSet
	case Sequence:
		return KindSequence
	case Numeric:
		return KindNumeric
	default:
		return KindNone
	}
}

type answerKeyJSON struct {
	Kind      AnswerKind `json:"kind"`
	Text      string     `json:"text,omitempty"`
	Values    []string   `json:"values,omitempty"`
	Value     *float64   `json:"value,omitempty"`
	Tolerance float64    `json:"tolerance,omitempty"`
}

func (k AnswerKey) MarshalJSON() ([]byte, error) {
	if k.Kind == KindNone {
		return []byte("null"), nil
	}
	env := answerKeyJSON{Kind: k.Kind}
	switch k.Kind {
	case KindText:
		env.Text = k.Text
	case KindSet, KindSequence:
		env.Values = k.Values
	case KindNumeric:
		v := k.Value
		env.Value = &v
		env.Tolerance = k.Tolerance
	default:
		return nil, fmt.Errorf("answer key: unknown kind %q", k.Kind)
	}
	return json.Marshal(env)
}

func (k *AnswerKey) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*k = AnswerKey{}
		return nil
	}
	var env answerKeyJSON
	if err := json.Unmarshal(data, &env); err != nil {
		return err
	}
	switch env.Kind {
	case KindText:
		*k = TextAnswer(env.Text)
	case KindSet:
		*k = AnswerKey{Kind: KindSet, Values: env.Values}
	case KindSequence:
		*k = AnswerKey{Kind: KindSequence, Values: env.Values}
	case KindNumeric:
		if env.Value == nil {
			return fmt.Errorf("answer key: numeric kind requires a value")
		}
		*k = NumericAnswer(*env.Value, env.Tolerance)
	default:
		return fmt.Errorf("answer key: unknown kind %q", env.Kind)
	}
	return nil
}

// Response is a learner's answer to one question. Text carries single-valued
// responses (including numeric, which arrives as typed text); Values carries
// multi-valued responses for set and sequence shapes.
type Response struct {
	Text   string   `json:"text,omitempty"`
	Values []string `json:"values,omitempty"`
}
