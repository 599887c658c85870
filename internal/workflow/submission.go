package workflow

import "github.com/teacherpk/assessment/internal/rbac"

type SubmissionStatus string

const (
	StatusSubmitted SubmissionStatus = "SUBMITTED"
	StatusGraded    SubmissionStatus = "GRADED"
	StatusReturned  SubmissionStatus = "RETURNED"
)

type SubmissionAction string

const (
	SubmissionGrade  SubmissionAction = "GRADE"
	SubmissionReturn SubmissionAction = "RETURN"
)

var submissionTransitions = map[SubmissionStatus]map[SubmissionAction]SubmissionStatus{
	StatusSubmitted: {SubmissionGrade: StatusGraded},
	StatusGraded:    {SubmissionReturn: StatusReturned},
}

var submissionActionPerm = map[SubmissionAction]string{
	SubmissionGrade:  "submission:grade",
	SubmissionReturn: "submission:return",
}

// SubmissionGuards carries the facts the machine checks before moving.
type SubmissionGuards struct {
	PendingManual int    // unscored manual items; blocks GRADE
	Feedback      string // required for RETURN
}

// TransitionSubmission returns the next status for an action, or a typed
// error. Statuses are monotonic: there is no path back from GRADED.
func TransitionSubmission(cur SubmissionStatus, action SubmissionAction, actor Actor, checker *rbac.Checker, g SubmissionGuards) (SubmissionStatus, error) {
	if checker == nil {
		checker = rbac.NewChecker(nil)
	}
	next, ok := submissionTransitions[cur][action]
	if !ok {
		return cur, &IllegalTransitionError{Entity: "submission", From: string(cur), Action: string(action)}
	}
	if perm := submissionActionPerm[action]; !checker.Has(actor.Role, perm) {
		return cur, &ForbiddenError{Role: actor.Role, Action: string(action)}
	}
	switch action {
	case SubmissionGrade:
		if g.PendingManual > 0 {
			return cur, ErrPendingManual
		}
	case SubmissionReturn:
		if g.Feedback == "" {
			return cur, ErrFeedbackRequired
		}
	}
	return next, nil
}
