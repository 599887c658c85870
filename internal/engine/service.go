// Package engine wires the question bank, composition engine, randomizer,
// grading engine and workflow machines into the operation surface the API
// layer calls. Every method is request-scoped; shared state lives in the
// stores.
package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/teacherpk/assessment/internal/bank"
	"github.com/teacherpk/assessment/internal/compose"
	"github.com/teacherpk/assessment/internal/deliver"
	"github.com/teacherpk/assessment/internal/grading"
	"github.com/teacherpk/assessment/internal/rbac"
	"github.com/teacherpk/assessment/internal/submit"
	"github.com/teacherpk/assessment/internal/workflow"
)

var (
	ErrNotAttemptable    = errors.New("composition is not open for attempts")
	ErrAttemptsExhausted = errors.New("maximum attempts reached")
)

type Service struct {
	bank    bank.Store
	comps   compose.Store
	subs    submit.Store
	grader  *grading.Grader
	papers  *workflow.PaperMachine
	checker *rbac.Checker
	log     zerolog.Logger
}

type Deps struct {
	Bank    bank.Store
	Comps   compose.Store
	Subs    submit.Store
	Grader  *grading.Grader
	Checker *rbac.Checker
	Audit   workflow.EventLog
	Logger  zerolog.Logger
}

func NewService(d Deps) *Service {
	if d.Grader == nil {
		d.Grader = grading.New()
	}
	if d.Checker == nil {
		d.Checker = rbac.NewChecker(nil)
	}
	if d.Audit == nil {
		d.Audit = workflow.NopLog{}
	}
	return &Service{
		bank:    d.Bank,
		comps:   d.Comps,
		subs:    d.Subs,
		grader:  d.Grader,
		papers:  workflow.NewPaperMachine(d.Bank, d.Checker, d.Audit),
		checker: d.Checker,
		log:     d.Logger,
	}
}

// CreateComposition assembles and persists a new quiz or paper and records
// its question references in the bank.
func (s *Service) CreateComposition(ctx context.Context, questionIDs []string, c compose.Constraints, actor workflow.Actor) (compose.Composition, error) {
	id := uuid.NewString()
	comp, err := compose.Compose(ctx, s.bank, id, questionIDs, c)
	if err != nil {
		return compose.Composition{}, err
	}
	comp.CreatedBy = actor.ID
	comp.CreatedAt = time.Now()
	saved, err := s.comps.Save(ctx, comp)
	if err != nil {
		return compose.Composition{}, err
	}
	if err := s.bank.AddReferences(ctx, saved.ID, saved.QuestionIDs); err != nil {
		return compose.Composition{}, err
	}
	s.log.Info().Str("composition", saved.ID).Str("kind", string(saved.Kind)).
		Int("questions", len(saved.QuestionIDs)).Int("total_marks", saved.TotalMarks).
		Msg("composition created")
	return saved, nil
}

// ReplaceQuestions swaps a composition's question list and re-derives total
// marks. Only draft and under-review papers (and any quiz) may change.
func (s *Service) ReplaceQuestions(ctx context.Context, compositionID string, questionIDs []string) (compose.Composition, error) {
	comp, err := s.comps.Load(ctx, compositionID)
	if err != nil {
		return compose.Composition{}, err
	}
	comp.QuestionIDs = questionIDs
	if err := compose.Revalidate(ctx, s.bank, &comp); err != nil {
		return compose.Composition{}, err
	}
	saved, err := s.comps.Save(ctx, comp)
	if err != nil {
		return compose.Composition{}, err
	}
	if err := s.bank.RemoveReferences(ctx, saved.ID); err != nil {
		return compose.Composition{}, err
	}
	if err := s.bank.AddReferences(ctx, saved.ID, saved.QuestionIDs); err != nil {
		return compose.Composition{}, err
	}
	return saved, nil
}

// ComposeValidate re-checks a stored composition against the bank.
func (s *Service) ComposeValidate(ctx context.Context, compositionID string) error {
	comp, err := s.comps.Load(ctx, compositionID)
	if err != nil {
		return err
	}
	return compose.Validate(ctx, s.bank, comp)
}

// StartAttempt opens a delivery instance for a learner and renders it. The
// attempt carries the seed that makes the rendering reproducible.
func (s *Service) StartAttempt(ctx context.Context, learnerID, compositionID string) (deliver.Attempt, deliver.Presentation, error) {
	comp, err := s.comps.Load(ctx, compositionID)
	if err != nil {
		return deliver.Attempt{}, deliver.Presentation{}, err
	}
	if comp.Kind == compose.KindPaper && comp.Status != compose.StatusPublished {
		return deliver.Attempt{}, deliver.Presentation{}, ErrNotAttemptable
	}
	prior, err := s.subs.CountForLearner(ctx, learnerID, compositionID)
	if err != nil {
		return deliver.Attempt{}, deliver.Presentation{}, err
	}
	if !comp.AttemptAllowed(prior) {
		return deliver.Attempt{}, deliver.Presentation{}, ErrAttemptsExhausted
	}
	questions, err := s.resolve(ctx, comp)
	if err != nil {
		return deliver.Attempt{}, deliver.Presentation{}, err
	}
	att := deliver.NewAttempt(compositionID, learnerID)
	// Learner-facing rendering never reveals keys mid-attempt.
	masked := comp
	masked.ShowCorrectAnswers = false
	return att, deliver.Render(masked, questions, att.Seed), nil
}

// Render reproduces the presentation for a known seed, e.g. when resuming a
// suspended attempt or re-checking a grading dispute.
func (s *Service) Render(ctx context.Context, compositionID string, seed int64) (deliver.Presentation, error) {
	comp, err := s.comps.Load(ctx, compositionID)
	if err != nil {
		return deliver.Presentation{}, err
	}
	questions, err := s.resolve(ctx, comp)
	if err != nil {
		return deliver.Presentation{}, err
	}
	return deliver.Render(comp, questions, seed), nil
}

// Submit records a learner's answers against a composition.
func (s *Service) Submit(ctx context.Context, learnerID, compositionID string, answers map[string]bank.Response) (submit.Submission, error) {
	comp, err := s.comps.Load(ctx, compositionID)
	if err != nil {
		return submit.Submission{}, err
	}
	if comp.Kind == compose.KindPaper && comp.Status != compose.StatusPublished {
		return submit.Submission{}, ErrNotAttemptable
	}
	prior, err := s.subs.CountForLearner(ctx, learnerID, compositionID)
	if err != nil {
		return submit.Submission{}, err
	}
	if !comp.AttemptAllowed(prior) {
		return submit.Submission{}, ErrAttemptsExhausted
	}
	sub := submit.Submission{
		ID:          uuid.NewString(),
		LearnerID:   learnerID,
		Answers:     answers,
		MaxScore:    comp.TotalMarks,
		Status:      workflow.StatusSubmitted,
		SubmittedAt: time.Now(),
	}
	if comp.Kind == compose.KindPaper {
		sub.PaperID = comp.ID
	} else {
		sub.QuizID = comp.ID
	}
	if err := s.subs.Put(ctx, sub); err != nil {
		return submit.Submission{}, err
	}
	s.log.Info().Str("submission", sub.ID).Str("composition", comp.ID).
		Str("learner", learnerID).Msg("submission received")
	return sub, nil
}

// Grade scores a submission and, when nothing is left pending, moves it to
// GRADED. With manual items outstanding it persists the per-question
// breakdown and reports ErrPendingManual so a human workflow can pick it up.
func (s *Service) Grade(ctx context.Context, submissionID string, actor workflow.Actor) (submit.Submission, grading.GradedResult, error) {
	sub, err := s.subs.Get(ctx, submissionID)
	if err != nil {
		return submit.Submission{}, grading.GradedResult{}, err
	}
	comp, questions, err := s.loadFor(ctx, sub)
	if err != nil {
		return submit.Submission{}, grading.GradedResult{}, err
	}

	result, err := s.grader.Grade(comp, questions, sub.Answers)
	if err != nil {
		return submit.Submission{}, grading.GradedResult{}, err
	}
	// Re-grading must not discard manual scores already applied.
	for _, old := range sub.Items {
		if old.Pending {
			continue
		}
		for _, item := range result.Items {
			if item.QuestionID == old.QuestionID && item.Pending {
				if err := grading.ApplyManual(&result, old.QuestionID, old.Awarded, comp.PassingScore); err != nil {
					return submit.Submission{}, grading.GradedResult{}, err
				}
				break
			}
		}
	}
	sub.Items = result.Items

	next, terr := workflow.TransitionSubmission(sub.Status, workflow.SubmissionGrade, actor, s.checker,
		workflow.SubmissionGuards{PendingManual: len(result.Pending)})
	if terr != nil {
		// Keep the breakdown so graders see what is pending.
		if errors.Is(terr, workflow.ErrPendingManual) {
			if err := s.subs.Put(ctx, sub); err != nil {
				return submit.Submission{}, grading.GradedResult{}, err
			}
		}
		return sub, result, terr
	}

	now := time.Now()
	sub.Status = next
	sub.Score = &result.Score
	sub.GradedBy = actor.ID
	sub.GradedAt = &now
	if err := s.subs.Put(ctx, sub); err != nil {
		return submit.Submission{}, grading.GradedResult{}, err
	}
	s.log.Info().Str("submission", sub.ID).Float64("score", result.Score).
		Int("max_score", result.MaxScore).Msg("submission graded")
	return sub, result, nil
}

// ApplyManualGrades records grader-supplied scores for pending items, then
// re-runs Grade so the submission can reach GRADED once nothing is pending.
func (s *Service) ApplyManualGrades(ctx context.Context, submissionID string, scores map[string]float64, actor workflow.Actor) (submit.Submission, error) {
	sub, err := s.subs.Get(ctx, submissionID)
	if err != nil {
		return submit.Submission{}, err
	}
	if sub.Status != workflow.StatusSubmitted {
		return submit.Submission{}, &workflow.IllegalTransitionError{
			Entity: "submission", From: string(sub.Status), Action: "APPLY_MANUAL",
		}
	}
	if !s.checker.Has(actor.Role, "submission:grade") {
		return submit.Submission{}, &workflow.ForbiddenError{Role: actor.Role, Action: "APPLY_MANUAL"}
	}
	if len(sub.Items) == 0 {
		return submit.Submission{}, fmt.Errorf("submission %s has not been auto-graded yet", submissionID)
	}
	comp, _, err := s.loadFor(ctx, sub)
	if err != nil {
		return submit.Submission{}, err
	}

	result := resultFromItems(sub.Items, sub.MaxScore)
	for qid, awarded := range scores {
		if err := grading.ApplyManual(&result, qid, awarded, comp.PassingScore); err != nil {
			return submit.Submission{}, err
		}
	}
	sub.Items = result.Items
	sub.GradedBy = actor.ID
	if err := s.subs.Put(ctx, sub); err != nil {
		return submit.Submission{}, err
	}
	if len(result.Pending) > 0 {
		return sub, nil
	}
	graded, _, err := s.Grade(ctx, submissionID, actor)
	return graded, err
}

// ReturnSubmission hands a graded submission back to the learner with
// feedback. Terminal.
func (s *Service) ReturnSubmission(ctx context.Context, submissionID, feedback string, actor workflow.Actor) (submit.Submission, error) {
	sub, err := s.subs.Get(ctx, submissionID)
	if err != nil {
		return submit.Submission{}, err
	}
	next, err := workflow.TransitionSubmission(sub.Status, workflow.SubmissionReturn, actor, s.checker,
		workflow.SubmissionGuards{Feedback: feedback})
	if err != nil {
		return submit.Submission{}, err
	}
	sub.Status = next
	sub.Feedback = feedback
	if err := s.subs.Put(ctx, sub); err != nil {
		return submit.Submission{}, err
	}
	return sub, nil
}

// TransitionPaper applies a lifecycle action to a paper and persists it.
func (s *Service) TransitionPaper(ctx context.Context, paperID string, action workflow.PaperAction, actor workflow.Actor, note string) (compose.Composition, error) {
	comp, err := s.comps.Load(ctx, paperID)
	if err != nil {
		return compose.Composition{}, err
	}
	if err := s.papers.Transition(ctx, &comp, action, actor, note); err != nil {
		return compose.Composition{}, err
	}
	saved, err := s.comps.Save(ctx, comp)
	if err != nil {
		return compose.Composition{}, err
	}
	s.log.Info().Str("paper", saved.ID).Str("action", string(action)).
		Str("status", string(saved.Status)).Msg("paper transitioned")
	return saved, nil
}

func (s *Service) resolve(ctx context.Context, comp compose.Composition) ([]bank.Question, error) {
	questions := make([]bank.Question, 0, len(comp.QuestionIDs))
	for _, id := range comp.QuestionIDs {
		q, err := s.bank.Get(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("resolve question %s: %w", id, err)
		}
		questions = append(questions, q)
	}
	return questions, nil
}

func (s *Service) loadFor(ctx context.Context, sub submit.Submission) (compose.Composition, []bank.Question, error) {
	ref, err := sub.CompositionRef()
	if err != nil {
		return compose.Composition{}, nil, err
	}
	comp, err := s.comps.Load(ctx, ref)
	if err != nil {
		return compose.Composition{}, nil, err
	}
	questions, err := s.resolve(ctx, comp)
	if err != nil {
		return compose.Composition{}, nil, err
	}
	return comp, questions, nil
}

func resultFromItems(items []grading.ItemResult, maxScore int) grading.GradedResult {
	res := grading.GradedResult{MaxScore: maxScore, Items: make([]grading.ItemResult, len(items))}
	copy(res.Items, items)
	for _, it := range res.Items {
		res.Score += it.Awarded
		if it.Pending {
			res.Pending = append(res.Pending, it.QuestionID)
		}
	}
	return res
}
