package submit

import (
	"errors"
	"time"

	"github.com/teacherpk/assessment/internal/bank"
	"github.com/teacherpk/assessment/internal/grading"
	"github.com/teacherpk/assessment/internal/workflow"
)

var ErrAmbiguousRef = errors.New("submission must reference exactly one of quiz, assignment or paper")

// Submission is a learner's answer set for one composition. Score stays nil
// until the GRADE transition succeeds; Items holds the per-question breakdown
// (including pending manual items) from the moment grading first runs.
type Submission struct {
	ID           string                    `json:"id"`
	LearnerID    string                    `json:"learner_id"`
	QuizID       string                    `json:"quiz_id,omitempty"`
	AssignmentID string                    `json:"assignment_id,omitempty"`
	PaperID      string                    `json:"paper_id,omitempty"`
	Answers      map[string]bank.Response  `json:"answers"`
	Score        *float64                  `json:"score,omitempty"`
	MaxScore     int                       `json:"max_score"`
	Status       workflow.SubmissionStatus `json:"status"`
	Items        []grading.ItemResult      `json:"items,omitempty"`
	Feedback     string                    `json:"feedback,omitempty"`
	GradedBy     string                    `json:"graded_by,omitempty"`
	SubmittedAt  time.Time                 `json:"submitted_at"`
	GradedAt     *time.Time                `json:"graded_at,omitempty"`
}

// CompositionRef returns the single composition id the submission targets.
func (s Submission) CompositionRef() (string, error) {
	var ref string
	n := 0
	for _, id := range []string{s.QuizID, s.AssignmentID, s.PaperID} {
		if id != "" {
			ref = id
			n++
		}
	}
	if n != 1 {
		return "", ErrAmbiguousRef
	}
	return ref, nil
}

// PendingManual counts items still awaiting a manual score.
func (s Submission) PendingManual() int {
	n := 0
	for _, it := range s.Items {
		if it.Pending {
			n++
		}
	}
	return n
}
