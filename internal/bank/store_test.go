package bank

import (
	"context"
	"errors"
	"testing"
)

func TestMemoryStorePutGet(t *testing.T) {
	ctx := context.Background()
	s := NewInMemoryStore()
	q := validMCQ()
	if err := s.Put(ctx, q); err != nil {
		t.Fatalf("put: %v", err)
	}
	got, err := s.Get(ctx, q.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Text != q.Text || got.Answer.Text != "Islamabad" {
		t.Fatalf("got %+v", got)
	}
	ok, err := s.Exists(ctx, q.ID)
	if err != nil || !ok {
		t.Fatalf("exists = %v, %v", ok, err)
	}
	if _, err := s.Get(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestMemoryStorePutRejectsInvalid(t *testing.T) {
	s := NewInMemoryStore()
	q := validMCQ()
	q.Marks = 0
	var vErr *ValidationError
	if err := s.Put(context.Background(), q); !errors.As(err, &vErr) {
		t.Fatalf("want ValidationError, got %v", err)
	}
}

func TestDeleteBlockedWhileReferenced(t *testing.T) {
	ctx := context.Background()
	s := NewInMemoryStore()
	q := validMCQ()
	if err := s.Put(ctx, q); err != nil {
		t.Fatal(err)
	}
	if err := s.AddReferences(ctx, "quiz-1", []string{q.ID}); err != nil {
		t.Fatal(err)
	}
	if err := s.Delete(ctx, q.ID); !errors.Is(err, ErrQuestionInUse) {
		t.Fatalf("want ErrQuestionInUse, got %v", err)
	}
	if err := s.RemoveReferences(ctx, "quiz-1"); err != nil {
		t.Fatal(err)
	}
	if err := s.Delete(ctx, q.ID); err != nil {
		t.Fatalf("delete after unref: %v", err)
	}
}

func TestLockFreezesGradingFields(t *testing.T) {
	ctx := context.Background()
	s := NewInMemoryStore()
	q := validMCQ()
	if err := s.Put(ctx, q); err != nil {
		t.Fatal(err)
	}
	if err := s.Lock(ctx, []string{q.ID}); err != nil {
		t.Fatal(err)
	}

	// Cosmetic edits stay allowed.
	q.Explanation = "Islamabad has been the capital since 1967."
	if err := s.Put(ctx, q); err != nil {
		t.Fatalf("cosmetic edit rejected: %v", err)
	}

	// Answer-key changes are not.
	q2 := q
	q2.Answer = TextAnswer("Lahore")
	if err := s.Put(ctx, q2); !errors.Is(err, ErrQuestionLocked) {
		t.Fatalf("want ErrQuestionLocked, got %v", err)
	}
	q3 := q
	q3.Marks = 50
	if err := s.Put(ctx, q3); !errors.Is(err, ErrQuestionLocked) {
		t.Fatalf("want ErrQuestionLocked for marks change, got %v", err)
	}
}
