package deliver

import (
	"time"

	"github.com/google/uuid"
)

// Attempt ties a learner and a composition to a render seed. It is ephemeral:
// once the learner submits, only the submission survives.
type Attempt struct {
	ID            string    `json:"id"`
	CompositionID string    `json:"composition_id"`
	LearnerID     string    `json:"learner_id"`
	Seed          int64     `json:"seed"`
	StartedAt     time.Time `json:"started_at"`
}

func NewAttempt(compositionID, learnerID string) Attempt {
	id := uuid.NewString()
	return Attempt{
		ID:            id,
		CompositionID: compositionID,
		LearnerID:     learnerID,
		Seed:          SeedFromAttempt(id),
		StartedAt:     time.Now(),
	}
}
