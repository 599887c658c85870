package bank

import (
	"context"
	"errors"
	"sync"
)

var (
	ErrNotFound       = errors.New("question not found")
	ErrQuestionInUse  = errors.New("question is referenced by a composition")
	ErrQuestionLocked = errors.New("question is locked by a published composition")
)

// Store is the question lookup capability the engine consumes. Reference
// bookkeeping (question id -> referencing composition ids) lives here so that
// deletion checks and post-publication locking have one source of truth.
type Store interface {
	Get(ctx context.Context, id string) (Question, error)
	Exists(ctx context.Context, id string) (bool, error)
	Put(ctx context.Context, q Question) error
	Delete(ctx context.Context, id string) error

	// AddReferences records that a composition references the given questions;
	// RemoveReferences drops all references held by a composition.
	AddReferences(ctx context.Context, compositionID string, questionIDs []string) error
	RemoveReferences(ctx context.Context, compositionID string) error

	// Lock freezes the grading-relevant fields of the given questions. Called
	// when a referencing composition is published.
	Lock(ctx context.Context, questionIDs []string) error
}

type memoryStore struct {
	mu        sync.RWMutex
	questions map[string]Question
	refs      map[string]map[string]struct{} // question id -> composition ids
	locked    map[string]bool
}

func NewInMemoryStore() Store {
	return &memoryStore{
		questions: map[string]Question{},
		refs:      map[string]map[string]struct{}{},
		locked:    map[string]bool{},
	}
}

func (m *memoryStore) Get(_ context.Context, id string) (Question, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	q, ok := m.questions[id]
	if !ok {
		return Question{}, ErrNotFound
	}
	return q, nil
}

func (m *memoryStore) Exists(_ context.Context, id string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.questions[id]
	return ok, nil
}

func (m *memoryStore) Put(_ context.Context, q Question) error {
	if err := Validate(q); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.locked[q.ID] {
		old := m.questions[q.ID]
		if gradingFieldsChanged(old, q) {
			return ErrQuestionLocked
		}
	}
	m.questions[q.ID] = q
	return nil
}

func (m *memoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.questions[id]; !ok {
		return ErrNotFound
	}
	if len(m.refs[id]) > 0 {
		return ErrQuestionInUse
	}
	delete(m.questions, id)
	delete(m.locked, id)
	return nil
}

func (m *memoryStore) AddReferences(_ context.Context, compositionID string, questionIDs []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, qid := range questionIDs {
		if m.refs[qid] == nil {
			m.refs[qid] = map[string]struct{}{}
		}
		m.refs[qid][compositionID] = struct{}{}
	}
	return nil
}

func (m *memoryStore) RemoveReferences(_ context.Context, compositionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for qid, comps := range m.refs {
		delete(comps, compositionID)
		if len(comps) == 0 {
			delete(m.refs, qid)
		}
	}
	return nil
}

func (m *memoryStore) Lock(_ context.Context, questionIDs []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, qid := range questionIDs {
		m.locked[qid] = true
	}
	return nil
}

// gradingFieldsChanged reports whether an update would alter the fields that
// determine how the question is scored.
func gradingFieldsChanged(old, next Question) bool {
	if old.Type != next.Type || old.Marks != next.Marks {
		return true
	}
	if len(old.Options) != len(next.Options) {
		return true
	}
	for i := range old.Options {
		if old.Options[i] != next.Options[i] {
			return true
		}
	}
	a, b := old.Answer, next.Answer
	if a.Kind != b.Kind || a.Text != b.Text || a.Value != b.Value || a.Tolerance != b.Tolerance {
		return true
	}
	if len(a.Values) != len(b.Values) {
		return true
	}
	for i := range a.Values {
		if a.Values[i] != b.Values[i] {
			return true
		}
	}
	return false
}
