package submit

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/teacherpk/assessment/internal/bank"
	"github.com/teacherpk/assessment/internal/workflow"
)

type SQLStore struct {
	db *sql.DB
}

func NewSQLStore(db *sql.DB) *SQLStore { return &SQLStore{db: db} }

func (s *SQLStore) Get(ctx context.Context, id string) (Submission, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id,learner_id,quiz_id,assignment_id,paper_id,answers_json,score,max_score,status,items_json,feedback,graded_by,submitted_at,graded_at
		   FROM submissions WHERE id=$1`, id)
	var sub Submission
	var aj, ij, status string
	var score sql.NullFloat64
	var submittedAt int64
	var gradedAt sql.NullInt64
	err := row.Scan(&sub.ID, &sub.LearnerID, &sub.QuizID, &sub.AssignmentID, &sub.PaperID,
		&aj, &score, &sub.MaxScore, &status, &ij, &sub.Feedback, &sub.GradedBy,
		&submittedAt, &gradedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Submission{}, ErrNotFound
	}
	if err != nil {
		return Submission{}, err
	}
	sub.Status = workflow.SubmissionStatus(status)
	sub.SubmittedAt = time.Unix(submittedAt, 0)
	if score.Valid {
		v := score.Float64
		sub.Score = &v
	}
	if gradedAt.Valid {
		t := time.Unix(gradedAt.Int64, 0)
		sub.GradedAt = &t
	}
	if err := json.Unmarshal([]byte(aj), &sub.Answers); err != nil {
		sub.Answers = map[string]bank.Response{}
	}
	if ij != "" {
		if err := json.Unmarshal([]byte(ij), &sub.Items); err != nil {
			sub.Items = nil
		}
	}
	return sub, nil
}

func (s *SQLStore) Put(ctx context.Context, sub Submission) error {
	aj, err := json.Marshal(sub.Answers)
	if err != nil {
		return err
	}
	var ij []byte
	if sub.Items != nil {
		if ij, err = json.Marshal(sub.Items); err != nil {
			return err
		}
	}
	var score any
	if sub.Score != nil {
		score = *sub.Score
	}
	var gradedAt any
	if sub.GradedAt != nil {
		gradedAt = sub.GradedAt.Unix()
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO submissions (id,learner_id,quiz_id,assignment_id,paper_id,answers_json,score,max_score,status,items_json,feedback,graded_by,submitted_at,graded_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
		 ON CONFLICT (id) DO UPDATE SET
		   score=EXCLUDED.score, status=EXCLUDED.status, items_json=EXCLUDED.items_json,
		   feedback=EXCLUDED.feedback, graded_by=EXCLUDED.graded_by, graded_at=EXCLUDED.graded_at`,
		sub.ID, sub.LearnerID, sub.QuizID, sub.AssignmentID, sub.PaperID,
		string(aj), score, sub.MaxScore, string(sub.Status), string(ij),
		sub.Feedback, sub.GradedBy, sub.SubmittedAt.Unix(), gradedAt)
	return err
}

func (s *SQLStore) CountForLearner(ctx context.Context, learnerID, compositionID string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM submissions
		  WHERE learner_id=$1 AND (quiz_id=$2 OR assignment_id=$3 OR paper_id=$4)`,
		learnerID, compositionID, compositionID, compositionID).Scan(&n)
	return n, err
}
