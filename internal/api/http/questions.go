package http

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	authmw "github.com/teacherpk/assessment/internal/auth/middleware"
	"github.com/teacherpk/assessment/internal/bank"
)

type questionReq struct {
	Type        string          `json:"type" validate:"required"`
	Text        string          `json:"text" validate:"required"`
	Options     []string        `json:"options,omitempty"`
	AnswerKey   *bank.AnswerKey `json:"answer_key,omitempty"`
	Explanation string          `json:"explanation,omitempty"`
	Marks       int             `json:"marks" validate:"required,gt=0"`
	Difficulty  string          `json:"difficulty" validate:"omitempty,oneof=EASY MEDIUM HARD"`
	Subject     string          `json:"subject" validate:"required"`
	Topic       string          `json:"topic,omitempty"`
	Tags        []string        `json:"tags,omitempty"`
}

func (r questionReq) toQuestion(id, author string) bank.Question {
	q := bank.Question{
		ID:          id,
		Type:        bank.QuestionType(r.Type),
		Text:        r.Text,
		Options:     r.Options,
		Explanation: r.Explanation,
		Marks:       r.Marks,
		Difficulty:  bank.Difficulty(r.Difficulty),
		Subject:     r.Subject,
		Topic:       r.Topic,
		Tags:        r.Tags,
		CreatedBy:   author,
	}
	if q.Difficulty == "" {
		q.Difficulty = bank.Medium
	}
	if r.AnswerKey != nil {
		q.Answer = *r.AnswerKey
	}
	return q
}

// POST /questions
func CreateQuestionHandler(store bank.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req questionReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json: "+err.Error(), http.StatusBadRequest)
			return
		}
		if err := validate.Struct(req); err != nil {
			http.Error(w, "invalid request: "+err.Error(), http.StatusBadRequest)
			return
		}
		q := req.toQuestion(uuid.NewString(), authmw.SubjectFromContext(r.Context()))
		if err := store.Put(r.Context(), q); err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, q)
	}
}

// PUT /questions/{questionID}
func UpdateQuestionHandler(store bank.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(chi.URLParam(r, "questionID"))
		if id == "" {
			http.Error(w, "questionID required", http.StatusBadRequest)
			return
		}
		existing, err := store.Get(r.Context(), id)
		if err != nil {
			writeErr(w, err)
			return
		}
		var req questionReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json: "+err.Error(), http.StatusBadRequest)
			return
		}
		if err := validate.Struct(req); err != nil {
			http.Error(w, "invalid request: "+err.Error(), http.StatusBadRequest)
			return
		}
		q := req.toQuestion(id, existing.CreatedBy)
		q.CreatedAt = existing.CreatedAt
		if err := store.Put(r.Context(), q); err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, q)
	}
}

// GET /questions/{questionID}
func GetQuestionHandler(store bank.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(chi.URLParam(r, "questionID"))
		q, err := store.Get(r.Context(), id)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, q)
	}
}

// DELETE /questions/{questionID}
func DeleteQuestionHandler(store bank.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(chi.URLParam(r, "questionID"))
		if err := store.Delete(r.Context(), id); err != nil {
			writeErr(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
