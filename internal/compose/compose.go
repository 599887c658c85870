package compose

import (
	"context"
	"errors"
	"fmt"

	"github.com/teacherpk/assessment/internal/bank"
)

var (
	ErrEmptyComposition = errors.New("composition references no questions")
	ErrDurationRequired = errors.New("a positive duration is required")
	ErrImmutable        = errors.New("published composition is immutable")
)

// UnknownQuestionError reports a question id that did not resolve against the
// bank.
type UnknownQuestionError struct{ ID string }

func (e *UnknownQuestionError) Error() string {
	return fmt.Sprintf("unknown question %q", e.ID)
}

// MarksMismatchError reports a stored composition whose total marks drifted
// from the marks derived from the bank.
type MarksMismatchError struct{ Declared, Derived int }

func (e *MarksMismatchError) Error() string {
	return fmt.Sprintf("total marks %d do not match derived %d", e.Declared, e.Derived)
}

// Constraints are the caller-supplied parts of a composition. TotalMarks is
// deliberately absent: it is always derived.
type Constraints struct {
	Kind               Kind
	Title              string
	DurationMinutes    int
	ShuffleQuestions   bool
	ShuffleOptions     bool
	ShowCorrectAnswers bool
	MaxAttempts        int
	PassingScore       *int
	PaperType          PaperType
	Year               int
	Session            string
	Board              string
	Level              string
	Subject            string
}

// Compose resolves every question id against the bank, derives total marks,
// and returns a validated composition. Papers always require timing; quizzes
// are untimed unless a duration is given.
func Compose(ctx context.Context, store bank.Store, id string, questionIDs []string, c Constraints) (Composition, error) {
	comp := Composition{
		ID:                 id,
		Kind:               c.Kind,
		Title:              c.Title,
		QuestionIDs:        questionIDs,
		DurationMinutes:    c.DurationMinutes,
		ShuffleQuestions:   c.ShuffleQuestions,
		ShuffleOptions:     c.ShuffleOptions,
		ShowCorrectAnswers: c.ShowCorrectAnswers,
		MaxAttempts:        c.MaxAttempts,
		PassingScore:       c.PassingScore,
		PaperType:          c.PaperType,
		Year:               c.Year,
		Session:            c.Session,
		Board:              c.Board,
		Level:              c.Level,
		Subject:            c.Subject,
	}
	if comp.Kind == KindPaper {
		comp.Status = StatusDraft
	}
	total, err := derivedMarks(ctx, store, questionIDs)
	if err != nil {
		return Composition{}, err
	}
	comp.TotalMarks = total
	if err := validate(comp); err != nil {
		return Composition{}, err
	}
	return comp, nil
}

// Revalidate recomputes total marks for an existing composition and re-checks
// its constraints. Rejected outright when the composition is frozen.
func Revalidate(ctx context.Context, store bank.Store, comp *Composition) error {
	if !comp.Mutable() {
		return ErrImmutable
	}
	total, err := derivedMarks(ctx, store, comp.QuestionIDs)
	if err != nil {
		return err
	}
	comp.TotalMarks = total
	return validate(*comp)
}

// Validate is the pre-review gate: a paper must pass it before entering
// UNDER_REVIEW.
func Validate(ctx context.Context, store bank.Store, comp Composition) error {
	total, err := derivedMarks(ctx, store, comp.QuestionIDs)
	if err != nil {
		return err
	}
	if total != comp.TotalMarks {
		return &MarksMismatchError{Declared: comp.TotalMarks, Derived: total}
	}
	return validate(comp)
}

func derivedMarks(ctx context.Context, store bank.Store, ids []string) (int, error) {
	if len(ids) == 0 {
		return 0, ErrEmptyComposition
	}
	total := 0
	for _, id := range ids {
		q, err := store.Get(ctx, id)
		if errors.Is(err, bank.ErrNotFound) {
			return 0, &UnknownQuestionError{ID: id}
		}
		if err != nil {
			return 0, err
		}
		total += q.Marks
	}
	return total, nil
}

func validate(comp Composition) error {
	if len(comp.QuestionIDs) == 0 {
		return ErrEmptyComposition
	}
	timed := comp.Kind == KindPaper || comp.DurationMinutes != 0
	if timed && comp.DurationMinutes <= 0 {
		return ErrDurationRequired
	}
	if comp.PassingScore != nil && (*comp.PassingScore < 0 || *comp.PassingScore > comp.TotalMarks) {
		return fmt.Errorf("passing score %d outside [0,%d]", *comp.PassingScore, comp.TotalMarks)
	}
	if comp.MaxAttempts < 0 {
		return fmt.Errorf("max attempts must be non-negative, got %d", comp.MaxAttempts)
	}
	return nil
}
