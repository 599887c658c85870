package submit

import (
	"context"
	"errors"
	"sync"
)

var ErrNotFound = errors.New("submission not found")

type Store interface {
	Get(ctx context.Context, id string) (Submission, error)
	Put(ctx context.Context, s Submission) error
	// CountForLearner counts a learner's submissions against one composition,
	// for max-attempt enforcement.
	CountForLearner(ctx context.Context, learnerID, compositionID string) (int, error)
}

type memoryStore struct {
	mu   sync.RWMutex
	subs map[string]Submission
}

func NewInMemoryStore() Store {
	return &memoryStore{subs: map[string]Submission{}}
}

func (m *memoryStore) Get(_ context.Context, id string) (Submission, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.subs[id]
	if !ok {
		return Submission{}, ErrNotFound
	}
	return s, nil
}

func (m *memoryStore) Put(_ context.Context, s Submission) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subs[s.ID] = s
	return nil
}

func (m *memoryStore) CountForLearner(_ context.Context, learnerID, compositionID string) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for _, s := range m.subs {
		if s.LearnerID != learnerID {
			continue
		}
		if s.QuizID == compositionID || s.AssignmentID == compositionID || s.PaperID == compositionID {
			n++
		}
	}
	return n, nil
}
