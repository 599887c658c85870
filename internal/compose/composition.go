package compose

import "time"

type Kind string

const (
	KindQuiz  Kind = "QUIZ"
	KindPaper Kind = "PAPER"
)

type PaperStatus string

const (
	StatusDraft       PaperStatus = "DRAFT"
	StatusUnderReview PaperStatus = "UNDER_REVIEW"
	StatusPublished   PaperStatus = "PUBLISHED"
	StatusArchived    PaperStatus = "ARCHIVED"
)

type PaperType string

const (
	PastPaper  PaperType = "PAST_PAPER"
	GuessPaper PaperType = "GUESS_PAPER"
	MockExam   PaperType = "MOCK_EXAM"
)

// Composition is an ordered collection of question references plus the
// delivery and grading constraints of a quiz or paper. TotalMarks is always
// derived from the referenced questions, never accepted from input.
type Composition struct {
	ID                 string   `json:"id"`
	Kind               Kind     `json:"kind"`
	Title              string   `json:"title"`
	QuestionIDs        []string `json:"question_ids"`
	TotalMarks         int      `json:"total_marks"`
	DurationMinutes    int      `json:"duration_minutes,omitempty"`
	ShuffleQuestions   bool     `json:"shuffle_questions,omitempty"`
	ShuffleOptions     bool     `json:"shuffle_options,omitempty"`
	ShowCorrectAnswers bool     `json:"show_correct_answers,omitempty"`
	MaxAttempts        int      `json:"max_attempts,omitempty"` // 0 = unlimited
	PassingScore       *int     `json:"passing_score,omitempty"`

	// Paper-only fields.
	Status      PaperStatus `json:"status,omitempty"`
	PaperType   PaperType   `json:"paper_type,omitempty"`
	Year        int         `json:"year,omitempty"`
	Session     string      `json:"session,omitempty"`
	Board       string      `json:"board,omitempty"`
	Level       string      `json:"level,omitempty"`
	Subject     string      `json:"subject,omitempty"`
	ReviewNote  string      `json:"review_note,omitempty"`
	ReviewedBy  string      `json:"reviewed_by,omitempty"`
	PublishedAt *time.Time  `json:"published_at,omitempty"`

	CreatedBy string    `json:"created_by,omitempty"`
	CreatedAt time.Time `json:"created_at,omitempty"`
	UpdatedAt time.Time `json:"updated_at,omitempty"`

	// Version supports optimistic concurrency in the store.
	Version int `json:"version"`
}

// Mutable reports whether the question list may still change. Published and
// archived papers are frozen except for status transitions.
func (c Composition) Mutable() bool {
	if c.Kind != KindPaper {
		return true
	}
	return c.Status == StatusDraft || c.Status == StatusUnderReview
}

// AttemptAllowed reports whether a learner with the given number of prior
// attempts may start another one.
func (c Composition) AttemptAllowed(priorAttempts int) bool {
	return c.MaxAttempts == 0 || priorAttempts < c.MaxAttempts
}
