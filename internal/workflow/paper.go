package workflow

import (
	"context"
	"time"

	"github.com/teacherpk/assessment/internal/bank"
	"github.com/teacherpk/assessment/internal/compose"
	"github.com/teacherpk/assessment/internal/rbac"
)

type PaperAction string

const (
	PaperSubmitReview PaperAction = "SUBMIT_REVIEW"
	PaperReject       PaperAction = "REJECT"
	PaperApprove      PaperAction = "APPROVE"
	PaperArchive      PaperAction = "ARCHIVE"
)

var paperTransitions = map[compose.PaperStatus]map[PaperAction]compose.PaperStatus{
	compose.StatusDraft: {
		PaperSubmitReview: compose.StatusUnderReview,
	},
	compose.StatusUnderReview: {
		PaperReject:  compose.StatusDraft,
		PaperApprove: compose.StatusPublished,
	},
	compose.StatusPublished: {
		PaperArchive: compose.StatusArchived,
	},
}

var paperActionPerm = map[PaperAction]string{
	PaperSubmitReview: "paper:submit_review",
	PaperReject:       "paper:review",
	PaperApprove:      "paper:review",
	PaperArchive:      "paper:archive",
}

// PaperMachine runs the paper lifecycle. Approving a paper freezes its
// questions in the bank so concurrent grading observes one immutable snapshot.
type PaperMachine struct {
	bank    bank.Store
	checker *rbac.Checker
	log     EventLog
}

func NewPaperMachine(b bank.Store, checker *rbac.Checker, log EventLog) *PaperMachine {
	if checker == nil {
		checker = rbac.NewChecker(nil)
	}
	if log == nil {
		log = NopLog{}
	}
	return &PaperMachine{bank: b, checker: checker, log: log}
}

// Transition applies one action to a paper in place. note carries reviewer
// feedback and is mandatory on rejection.
func (m *PaperMachine) Transition(ctx context.Context, comp *compose.Composition, action PaperAction, actor Actor, note string) error {
	if comp.Kind != compose.KindPaper {
		return &IllegalTransitionError{Entity: "paper", From: string(comp.Kind), Action: string(action)}
	}
	next, ok := paperTransitions[comp.Status][action]
	if !ok {
		return &IllegalTransitionError{Entity: "paper", From: string(comp.Status), Action: string(action)}
	}
	if perm := paperActionPerm[action]; !m.checker.Has(actor.Role, perm) {
		return &ForbiddenError{Role: actor.Role, Action: string(action)}
	}

	switch action {
	case PaperSubmitReview:
		if err := compose.Validate(ctx, m.bank, *comp); err != nil {
			return err
		}
	case PaperReject:
		if note == "" {
			return ErrFeedbackRequired
		}
		comp.ReviewNote = note
		comp.ReviewedBy = actor.ID
	case PaperApprove:
		now := time.Now()
		comp.PublishedAt = &now
		comp.ReviewedBy = actor.ID
		if err := m.bank.Lock(ctx, comp.QuestionIDs); err != nil {
			return err
		}
	}

	from := comp.Status
	comp.Status = next
	m.append(ctx, "paper."+string(action), comp.ID, actor, string(from), string(next))
	return nil
}

func (m *PaperMachine) append(ctx context.Context, typ, key string, actor Actor, from, to string) {
	_ = m.log.Append(ctx, Event{
		Type:      typ,
		Key:       key,
		ActorID:   actor.ID,
		ActorRole: actor.Role,
		From:      from,
		To:        to,
		At:        time.Now().Unix(),
	})
}
