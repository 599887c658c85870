package bank

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

type SQLStore struct {
	db *sql.DB
}

func NewSQLStore(db *sql.DB) *SQLStore { return &SQLStore{db: db} }

func (s *SQLStore) Get(ctx context.Context, id string) (Question, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id,type,text,options_json,answer_json,explanation,marks,difficulty,subject,topic,tags_json,created_by,created_at,updated_at
		   FROM questions WHERE id=$1`, id)
	return scanQuestion(row)
}

func (s *SQLStore) Exists(ctx context.Context, id string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM questions WHERE id=$1`, id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *SQLStore) Put(ctx context.Context, q Question) error {
	if err := Validate(q); err != nil {
		return err
	}
	var locked bool
	err := s.db.QueryRowContext(ctx, `SELECT locked FROM questions WHERE id=$1`, q.ID).Scan(&locked)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return err
	}
	if locked {
		old, err := s.Get(ctx, q.ID)
		if err != nil {
			return err
		}
		if gradingFieldsChanged(old, q) {
			return ErrQuestionLocked
		}
	}

	oj, err := json.Marshal(q.Options)
	if err != nil {
		return err
	}
	aj, err := json.Marshal(q.Answer)
	if err != nil {
		return err
	}
	tj, err := json.Marshal(q.Tags)
	if err != nil {
		return err
	}
	now := time.Now().Unix()
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO questions (id,type,text,options_json,answer_json,explanation,marks,difficulty,subject,topic,tags_json,created_by,created_at,updated_at,locked)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,FALSE)
		 ON CONFLICT (id) DO UPDATE SET
		   type=EXCLUDED.type, text=EXCLUDED.text, options_json=EXCLUDED.options_json,
		   answer_json=EXCLUDED.answer_json, explanation=EXCLUDED.explanation,
		   marks=EXCLUDED.marks, difficulty=EXCLUDED.difficulty, subject=EXCLUDED.subject,
		   topic=EXCLUDED.topic, tags_json=EXCLUDED.tags_json, updated_at=EXCLUDED.updated_at`,
		q.ID, string(q.Type), q.Text, string(oj), string(aj), q.Explanation,
		q.Marks, string(q.Difficulty), q.Subject, q.Topic, string(tj), q.CreatedBy, now, now)
	return err
}

func (s *SQLStore) Delete(ctx context.Context, id string) error {
	var refs int
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM question_refs WHERE question_id=$1`, id).Scan(&refs); err != nil {
		return err
	}
	if refs > 0 {
		return ErrQuestionInUse
	}
	res, err := s.db.ExecContext(ctx, `DELETE FROM questions WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLStore) AddReferences(ctx context.Context, compositionID string, questionIDs []string) error {
	for _, qid := range questionIDs {
		if _, err := s.db.ExecContext(ctx,
			`INSERT INTO question_refs (composition_id, question_id) VALUES ($1,$2)
			 ON CONFLICT (composition_id, question_id) DO NOTHING`, compositionID, qid); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLStore) RemoveReferences(ctx context.Context, compositionID string) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM question_refs WHERE composition_id=$1`, compositionID)
	return err
}

func (s *SQLStore) Lock(ctx context.Context, questionIDs []string) error {
	if len(questionIDs) == 0 {
		return nil
	}
	args := make([]any, len(questionIDs))
	ph := make([]string, len(questionIDs))
	for i, qid := range questionIDs {
		args[i] = qid
		ph[i] = fmt.Sprintf("$%d", i+1)
	}
	_, err := s.db.ExecContext(ctx,
		`UPDATE questions SET locked=TRUE WHERE id IN (`+strings.Join(ph, ",")+`)`, args...)
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanQuestion(row rowScanner) (Question, error) {
	var q Question
	var typ, diff, oj, aj, tj string
	var createdAt, updatedAt int64
	err := row.Scan(&q.ID, &typ, &q.Text, &oj, &aj, &q.Explanation, &q.Marks,
		&diff, &q.Subject, &q.Topic, &tj, &q.CreatedBy, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Question{}, ErrNotFound
	}
	if err != nil {
		return Question{}, err
	}
	q.Type = QuestionType(typ)
	q.Difficulty = Difficulty(diff)
	q.CreatedAt = time.Unix(createdAt, 0)
	q.UpdatedAt = time.Unix(updatedAt, 0)
	if err := json.Unmarshal([]byte(oj), &q.Options); err != nil {
		return Question{}, err
	}
	if err := json.Unmarshal([]byte(aj), &q.Answer); err != nil {
		return Question{}, err
	}
	if err := json.Unmarshal([]byte(tj), &q.Tags); err != nil {
		return Question{}, err
	}
	return q, nil
}
