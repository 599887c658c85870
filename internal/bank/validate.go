package bank

import "fmt"

// Validation error codes.
const (
	CodeSchemaMismatch = "SchemaMismatch"
	CodeEmptyOptions   = "EmptyOptions"
	CodeInvalidMarks   = "InvalidMarks"
	CodeOptionMismatch = "OptionMismatch"
)

type ValidationError struct {
	Code  string
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (%s)", e.Code, e.Msg, e.Field)
}

func invalid(code, field, format string, args ...any) *ValidationError {
	return &ValidationError{Code: code, Field: field, Msg: fmt.Sprintf(format, args...)}
}

// Validate checks the structural invariants of a question: the type is known,
// marks are positive, choice types carry options, and the answer key's shape
// matches the type. Choice answers must reference existing options.
func Validate(q Question) error {
	if !q.Type.Valid() {
		return invalid(CodeSchemaMismatch, "type", "unknown question type %q", q.Type)
	}
	if q.Marks <= 0 {
		return invalid(CodeInvalidMarks, "marks", "marks must be positive, got %d", q.Marks)
	}
	if q.Type.HasOptions() {
		if len(q.Options) == 0 {
			return invalid(CodeEmptyOptions, "options", "type %s requires options", q.Type)
		}
	} else if len(q.Options) > 0 {
		return invalid(CodeSchemaMismatch, "options", "type %s must not carry options", q.Type)
	}

	want := ExpectedKind(q.Type)
	if q.Answer.Kind != want {
		return invalid(CodeSchemaMismatch, "answer_key",
			"type %s requires answer kind %q, got %q", q.Type, want, q.Answer.Kind)
	}

	switch q.Answer.Kind {
	case KindText:
		if q.Answer.Text == "" {
			return invalid(CodeSchemaMismatch, "answer_key", "empty answer text")
		}
		if q.Type == MCQSingle && !containsOption(q.Options, q.Answer.Text) {
			return invalid(CodeOptionMismatch, "answer_key",
				"answer %q is not one of the options", q.Answer.Text)
		}
	case KindSet, KindSequence:
		if len(q.Answer.Values) == 0 {
			return invalid(CodeSchemaMismatch, "answer_key", "empty answer values")
		}
		if q.Type == MCQMultiple || q.Type == Sequence {
			for _, v := range q.Answer.Values {
				if !containsOption(q.Options, v) {
					return invalid(CodeOptionMismatch, "answer_key",
						"answer value %q is not one of the options", v)
				}
			}
		}
	case KindNumeric:
		if q.Answer.Tolerance < 0 {
			return invalid(CodeSchemaMismatch, "answer_key",
				"tolerance must be non-negative, got %g", q.Answer.Tolerance)
		}
	}
	return nil
}

func containsOption(opts []string, v string) bool {
	for _, o := range opts {
		if o == v {
			return true
		}
	}
	return false
}
