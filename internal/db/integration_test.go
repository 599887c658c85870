package db_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/teacherpk/assessment/internal/bank"
	"github.com/teacherpk/assessment/internal/compose"
	"github.com/teacherpk/assessment/internal/db"
	"github.com/teacherpk/assessment/internal/grading"
	"github.com/teacherpk/assessment/internal/submit"
	"github.com/teacherpk/assessment/internal/workflow"
)

func TestQuestionStoreSQLite(t *testing.T) {
	ctx := context.Background()
	h, err := db.Open(ctx, db.DriverSQLite, "file:bankstore?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	defer h.Close()
	store := bank.NewSQLStore(h)

	q := bank.Question{
		ID:          "q1",
		Type:        bank.MCQSingle,
		Text:        "Which gas do plants absorb?",
		Options:     []string{"Oxygen", "Carbon dioxide"},
		Answer:      bank.TextAnswer("Carbon dioxide"),
		Explanation: "photosynthesis input",
		Marks:       5,
		Difficulty:  bank.Easy,
		Subject:     "Biology",
		Topic:       "Photosynthesis",
		Tags:        []string{"class-9"},
		CreatedBy:   "u-author",
	}
	if err := store.Put(ctx, q); err != nil {
		t.Fatalf("put: %v", err)
	}

	got, err := store.Get(ctx, "q1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Text != q.Text || got.Marks != q.Marks || got.Subject != q.Subject {
		t.Fatalf("round trip lost fields: %+v", got)
	}
	if got.Answer.Kind != bank.KindText || got.Answer.Text != "Carbon dioxide" {
		t.Fatalf("answer key did not survive: %+v", got.Answer)
	}
	if len(got.Options) != 2 || len(got.Tags) != 1 {
		t.Fatalf("options/tags did not survive: %+v", got)
	}

	ok, err := store.Exists(ctx, "q1")
	if err != nil || !ok {
		t.Fatalf("exists(q1) = %v, %v", ok, err)
	}
	if ok, _ := store.Exists(ctx, "ghost"); ok {
		t.Fatal("exists(ghost) = true")
	}
	if _, err := store.Get(ctx, "ghost"); !errors.Is(err, bank.ErrNotFound) {
		t.Fatalf("get(ghost): err = %v, want ErrNotFound", err)
	}

	// Referenced questions refuse deletion until the reference is released.
	if err := store.AddReferences(ctx, "quiz-1", []string{"q1"}); err != nil {
		t.Fatalf("add refs: %v", err)
	}
	if err := store.Delete(ctx, "q1"); !errors.Is(err, bank.ErrQuestionInUse) {
		t.Fatalf("delete referenced: err = %v, want ErrQuestionInUse", err)
	}
	if err := store.RemoveReferences(ctx, "quiz-1"); err != nil {
		t.Fatalf("remove refs: %v", err)
	}

	// Locking freezes grading fields but still allows cosmetic edits.
	if err := store.Lock(ctx, []string{"q1"}); err != nil {
		t.Fatalf("lock: %v", err)
	}
	locked := got
	locked.Marks = 10
	if err := store.Put(ctx, locked); !errors.Is(err, bank.ErrQuestionLocked) {
		t.Fatalf("marks edit on locked question: err = %v, want ErrQuestionLocked", err)
	}
	cosmetic := got
	cosmetic.Explanation = "CO2 is fixed into glucose"
	if err := store.Put(ctx, cosmetic); err != nil {
		t.Fatalf("cosmetic edit on locked question: %v", err)
	}
}

func TestCompositionStoreSQLite(t *testing.T) {
	ctx := context.Background()
	h, err := db.Open(ctx, db.DriverSQLite, "file:compstore?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	defer h.Close()
	store := compose.NewSQLStore(h)

	comp := compose.Composition{
		ID:              "p1",
		Kind:            compose.KindPaper,
		Title:           "Physics 2024",
		QuestionIDs:     []string{"q1", "q2"},
		TotalMarks:      10,
		DurationMinutes: 90,
		Status:          compose.StatusDraft,
		PaperType:       compose.PastPaper,
		Year:            2024,
		Board:           "Karachi",
	}
	saved, err := store.Save(ctx, comp)
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if saved.Version != 1 {
		t.Fatalf("version after insert = %d, want 1", saved.Version)
	}

	loaded, err := store.Load(ctx, "p1")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.Title != comp.Title || loaded.TotalMarks != 10 || loaded.Board != "Karachi" {
		t.Fatalf("round trip lost fields: %+v", loaded)
	}
	if len(loaded.QuestionIDs) != 2 {
		t.Fatalf("question ids did not survive: %v", loaded.QuestionIDs)
	}

	loaded.Status = compose.StatusUnderReview
	if _, err := store.Save(ctx, loaded); err != nil {
		t.Fatalf("update: %v", err)
	}
	// A writer holding the old version loses.
	if _, err := store.Save(ctx, saved); !errors.Is(err, compose.ErrVersionConflict) {
		t.Fatalf("stale save: err = %v, want ErrVersionConflict", err)
	}
	if _, err := store.Load(ctx, "ghost"); !errors.Is(err, compose.ErrNotFound) {
		t.Fatalf("load(ghost): err = %v, want ErrNotFound", err)
	}
}

func TestSubmissionStoreSQLite(t *testing.T) {
	ctx := context.Background()
	h, err := db.Open(ctx, db.DriverSQLite, "file:substore?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	defer h.Close()
	store := submit.NewSQLStore(h)

	sub := submit.Submission{
		ID:        "s1",
		LearnerID: "learner1",
		QuizID:    "quiz-1",
		Answers: map[string]bank.Response{
			"q1": {Text: "Carbon dioxide"},
			"q2": {Values: []string{"A", "C"}},
		},
		MaxScore:    10,
		Status:      workflow.StatusSubmitted,
		SubmittedAt: time.Now(),
	}
	if err := store.Put(ctx, sub); err != nil {
		t.Fatalf("put: %v", err)
	}

	got, err := store.Get(ctx, "s1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Score != nil {
		t.Fatal("score must stay absent until graded")
	}
	if got.Answers["q1"].Text != "Carbon dioxide" || len(got.Answers["q2"].Values) != 2 {
		t.Fatalf("answers did not survive: %+v", got.Answers)
	}

	// Grading updates land on the same row.
	score := 7.5
	now := time.Now()
	got.Score = &score
	got.Status = workflow.StatusGraded
	got.GradedBy = "u-teacher"
	got.GradedAt = &now
	got.Items = []grading.ItemResult{{QuestionID: "q1", Awarded: 5, Max: 5}}
	if err := store.Put(ctx, got); err != nil {
		t.Fatalf("update: %v", err)
	}
	regot, err := store.Get(ctx, "s1")
	if err != nil {
		t.Fatalf("get after update: %v", err)
	}
	if regot.Score == nil || *regot.Score != 7.5 || regot.Status != workflow.StatusGraded {
		t.Fatalf("graded fields did not survive: %+v", regot)
	}
	if len(regot.Items) != 1 || regot.Items[0].Awarded != 5 {
		t.Fatalf("items did not survive: %+v", regot.Items)
	}

	// Attempt counting scopes by learner and composition.
	second := sub
	second.ID = "s2"
	if err := store.Put(ctx, second); err != nil {
		t.Fatalf("put second: %v", err)
	}
	n, err := store.CountForLearner(ctx, "learner1", "quiz-1")
	if err != nil || n != 2 {
		t.Fatalf("count(learner1) = %d, %v, want 2", n, err)
	}
	if n, _ := store.CountForLearner(ctx, "learner2", "quiz-1"); n != 0 {
		t.Fatalf("count(learner2) = %d, want 0", n)
	}
	if _, err := store.Get(ctx, "ghost"); !errors.Is(err, submit.ErrNotFound) {
		t.Fatalf("get(ghost): err = %v, want ErrNotFound", err)
	}
}

func TestEventLogSQLite(t *testing.T) {
	ctx := context.Background()
	h, err := db.Open(ctx, db.DriverSQLite, "file:eventlog?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	defer h.Close()
	log := workflow.NewSQLEventLog(h)

	events := []workflow.Event{
		{Type: "paper.SUBMIT_REVIEW", Key: "p1", ActorID: "u-author", ActorRole: "content_author", From: "DRAFT", To: "UNDER_REVIEW", At: time.Now().Unix()},
		{Type: "paper.APPROVE", Key: "p1", ActorID: "u-reviewer", ActorRole: "reviewer", From: "UNDER_REVIEW", To: "PUBLISHED", At: time.Now().Unix()},
	}
	for _, e := range events {
		if err := log.Append(ctx, e); err != nil {
			t.Fatalf("append %s: %v", e.Type, err)
		}
	}

	var n int
	if err := h.QueryRowContext(ctx, `SELECT COUNT(*) FROM event_log WHERE key='p1'`).Scan(&n); err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 2 {
		t.Fatalf("event rows = %d, want 2", n)
	}
	var typ, to string
	if err := h.QueryRowContext(ctx,
		`SELECT typ, to_state FROM event_log ORDER BY seq DESC LIMIT 1`).Scan(&typ, &to); err != nil {
		t.Fatalf("latest: %v", err)
	}
	if typ != "paper.APPROVE" || to != "PUBLISHED" {
		t.Fatalf("latest event = %s -> %s", typ, to)
	}
}
