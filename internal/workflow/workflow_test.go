package workflow

import (
	"context"
	"errors"
	"testing"

	"github.com/teacherpk/assessment/internal/bank"
	"github.com/teacherpk/assessment/internal/compose"
	"github.com/teacherpk/assessment/internal/rbac"
)

var (
	author   = Actor{ID: "u-author", Role: "content_author"}
	reviewer = Actor{ID: "u-reviewer", Role: "reviewer"}
	student  = Actor{ID: "u-student", Role: "student"}
	teacher  = Actor{ID: "u-teacher", Role: "teacher"}
	admin    = Actor{ID: "u-admin", Role: "admin"}
)

func paperFixture(t *testing.T) (bank.Store, compose.Composition) {
	t.Helper()
	ctx := context.Background()
	store := bank.NewInMemoryStore()
	ids := []string{"q1", "q2"}
	for _, id := range ids {
		err := store.Put(ctx, bank.Question{
			ID:      id,
			Type:    bank.MCQSingle,
			Text:    "pick one",
			Options: []string{"A", "B"},
			Answer:  bank.TextAnswer("A"),
			Marks:   5,
		})
		if err != nil {
			t.Fatalf("seed question %s: %v", id, err)
		}
	}
	comp, err := compose.Compose(ctx, store, "p1", ids, compose.Constraints{
		Kind:            compose.KindPaper,
		Title:           "Physics 2024",
		DurationMinutes: 90,
	})
	if err != nil {
		t.Fatalf("compose: %v", err)
	}
	return store, comp
}

func TestPaperHappyPath(t *testing.T) {
	ctx := context.Background()
	store, comp := paperFixture(t)
	m := NewPaperMachine(store, nil, nil)

	steps := []struct {
		action PaperAction
		actor  Actor
		note   string
		want   compose.PaperStatus
	}{
		{PaperSubmitReview, author, "", compose.StatusUnderReview},
		{PaperApprove, reviewer, "", compose.StatusPublished},
		{PaperArchive, admin, "", compose.StatusArchived},
	}
	for _, s := range steps {
		if err := m.Transition(ctx, &comp, s.action, s.actor, s.note); err != nil {
			t.Fatalf("%s: %v", s.action, err)
		}
		if comp.Status != s.want {
			t.Fatalf("%s: status = %s, want %s", s.action, comp.Status, s.want)
		}
	}
	if comp.PublishedAt == nil {
		t.Fatal("approval must stamp PublishedAt")
	}
	if comp.ReviewedBy != reviewer.ID {
		t.Fatalf("ReviewedBy = %q, want %q", comp.ReviewedBy, reviewer.ID)
	}
}

func TestPaperIllegalTransitions(t *testing.T) {
	ctx := context.Background()
	store, comp := paperFixture(t)
	m := NewPaperMachine(store, nil, nil)

	cases := []struct {
		name   string
		status compose.PaperStatus
		action PaperAction
	}{
		{"approve from draft", compose.StatusDraft, PaperApprove},
		{"archive from draft", compose.StatusDraft, PaperArchive},
		{"submit review twice", compose.StatusUnderReview, PaperSubmitReview},
		{"reject published", compose.StatusPublished, PaperReject},
		{"revive archived", compose.StatusArchived, PaperSubmitReview},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := comp
			c.Status = tc.status
			err := m.Transition(ctx, &c, tc.action, admin, "note")
			var ite *IllegalTransitionError
			if !errors.As(err, &ite) {
				t.Fatalf("err = %v, want IllegalTransitionError", err)
			}
			if c.Status != tc.status {
				t.Fatal("status must not change on a failed transition")
			}
		})
	}
}

func TestPaperTransitionOnQuizRejected(t *testing.T) {
	store, comp := paperFixture(t)
	comp.Kind = compose.KindQuiz
	m := NewPaperMachine(store, nil, nil)
	var ite *IllegalTransitionError
	if err := m.Transition(context.Background(), &comp, PaperSubmitReview, author, ""); !errors.As(err, &ite) {
		t.Fatalf("err = %v, want IllegalTransitionError", err)
	}
}

func TestPaperRoleGuards(t *testing.T) {
	ctx := context.Background()
	store, comp := paperFixture(t)
	m := NewPaperMachine(store, nil, nil)

	var fe *ForbiddenError
	if err := m.Transition(ctx, &comp, PaperSubmitReview, student, ""); !errors.As(err, &fe) {
		t.Fatalf("student submit-review: err = %v, want ForbiddenError", err)
	}
	if err := m.Transition(ctx, &comp, PaperSubmitReview, author, ""); err != nil {
		t.Fatalf("author submit-review: %v", err)
	}
	if err := m.Transition(ctx, &comp, PaperApprove, author, ""); !errors.As(err, &fe) {
		t.Fatalf("author approve: err = %v, want ForbiddenError", err)
	}
}

func TestPaperRejectRequiresNote(t *testing.T) {
	ctx := context.Background()
	store, comp := paperFixture(t)
	m := NewPaperMachine(store, nil, nil)
	if err := m.Transition(ctx, &comp, PaperSubmitReview, author, ""); err != nil {
		t.Fatal(err)
	}

	if err := m.Transition(ctx, &comp, PaperReject, reviewer, ""); !errors.Is(err, ErrFeedbackRequired) {
		t.Fatalf("err = %v, want ErrFeedbackRequired", err)
	}
	if err := m.Transition(ctx, &comp, PaperReject, reviewer, "fix Q2 options"); err != nil {
		t.Fatal(err)
	}
	if comp.Status != compose.StatusDraft {
		t.Fatalf("status = %s, want DRAFT", comp.Status)
	}
	if comp.ReviewNote != "fix Q2 options" || comp.ReviewedBy != reviewer.ID {
		t.Fatalf("review note/by not recorded: %+v", comp)
	}
}

func TestPaperApproveLocksQuestions(t *testing.T) {
	ctx := context.Background()
	store, comp := paperFixture(t)
	m := NewPaperMachine(store, nil, nil)
	if err := m.Transition(ctx, &comp, PaperSubmitReview, author, ""); err != nil {
		t.Fatal(err)
	}
	if err := m.Transition(ctx, &comp, PaperApprove, reviewer, ""); err != nil {
		t.Fatal(err)
	}

	q, err := store.Get(ctx, "q1")
	if err != nil {
		t.Fatal(err)
	}
	q.Marks = 10
	if err := store.Put(ctx, q); !errors.Is(err, bank.ErrQuestionLocked) {
		t.Fatalf("editing a locked question's marks: err = %v, want ErrQuestionLocked", err)
	}
}

func TestPaperSubmitReviewValidates(t *testing.T) {
	ctx := context.Background()
	store, comp := paperFixture(t)
	comp.TotalMarks = 999 // drifted from the bank
	m := NewPaperMachine(store, nil, nil)
	var mm *compose.MarksMismatchError
	if err := m.Transition(ctx, &comp, PaperSubmitReview, author, ""); !errors.As(err, &mm) {
		t.Fatalf("stale total marks: err = %v, want MarksMismatchError", err)
	}
	if comp.Status != compose.StatusDraft {
		t.Fatal("status must not change when validation fails")
	}
}

func TestPaperAuditTrail(t *testing.T) {
	ctx := context.Background()
	store, comp := paperFixture(t)
	log := &captureLog{}
	m := NewPaperMachine(store, nil, log)
	if err := m.Transition(ctx, &comp, PaperSubmitReview, author, ""); err != nil {
		t.Fatal(err)
	}
	if len(log.events) != 1 {
		t.Fatalf("events = %d, want 1", len(log.events))
	}
	e := log.events[0]
	if e.Type != "paper.SUBMIT_REVIEW" || e.Key != comp.ID || e.ActorID != author.ID {
		t.Fatalf("unexpected event: %+v", e)
	}
	if e.From != string(compose.StatusDraft) || e.To != string(compose.StatusUnderReview) {
		t.Fatalf("event states = %s -> %s", e.From, e.To)
	}
}

type captureLog struct{ events []Event }

func (c *captureLog) Append(_ context.Context, e Event) error {
	c.events = append(c.events, e)
	return nil
}

func TestSubmissionTransitions(t *testing.T) {
	checker := rbac.NewChecker(nil)

	next, err := TransitionSubmission(StatusSubmitted, SubmissionGrade, teacher, checker, SubmissionGuards{})
	if err != nil {
		t.Fatal(err)
	}
	if next != StatusGraded {
		t.Fatalf("next = %s, want GRADED", next)
	}

	next, err = TransitionSubmission(StatusGraded, SubmissionReturn, teacher, checker, SubmissionGuards{Feedback: "well done"})
	if err != nil {
		t.Fatal(err)
	}
	if next != StatusReturned {
		t.Fatalf("next = %s, want RETURNED", next)
	}
}

func TestSubmissionMonotonic(t *testing.T) {
	checker := rbac.NewChecker(nil)
	cases := []struct {
		name   string
		from   SubmissionStatus
		action SubmissionAction
	}{
		{"return before grading", StatusSubmitted, SubmissionReturn},
		{"regrade after grading", StatusGraded, SubmissionGrade},
		{"grade after return", StatusReturned, SubmissionGrade},
		{"return twice", StatusReturned, SubmissionReturn},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := TransitionSubmission(tc.from, tc.action, teacher, checker, SubmissionGuards{Feedback: "x"})
			var ite *IllegalTransitionError
			if !errors.As(err, &ite) {
				t.Fatalf("err = %v, want IllegalTransitionError", err)
			}
			if got != tc.from {
				t.Fatal("status must not change")
			}
		})
	}
}

func TestSubmissionGuards(t *testing.T) {
	checker := rbac.NewChecker(nil)

	if _, err := TransitionSubmission(StatusSubmitted, SubmissionGrade, teacher, checker, SubmissionGuards{PendingManual: 2}); !errors.Is(err, ErrPendingManual) {
		t.Fatalf("err = %v, want ErrPendingManual", err)
	}
	if _, err := TransitionSubmission(StatusGraded, SubmissionReturn, teacher, checker, SubmissionGuards{}); !errors.Is(err, ErrFeedbackRequired) {
		t.Fatalf("err = %v, want ErrFeedbackRequired", err)
	}
	var fe *ForbiddenError
	if _, err := TransitionSubmission(StatusSubmitted, SubmissionGrade, student, checker, SubmissionGuards{}); !errors.As(err, &fe) {
		t.Fatalf("student grading: err = %v, want ForbiddenError", err)
	}
}
