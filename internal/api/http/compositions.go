package http

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	authmw "github.com/teacherpk/assessment/internal/auth/middleware"
	"github.com/teacherpk/assessment/internal/compose"
	"github.com/teacherpk/assessment/internal/engine"
	"github.com/teacherpk/assessment/internal/rbac"
	"github.com/teacherpk/assessment/internal/workflow"
)

type compositionReq struct {
	Kind               string   `json:"kind" validate:"required,oneof=QUIZ PAPER"`
	Title              string   `json:"title" validate:"required"`
	QuestionIDs        []string `json:"question_ids" validate:"required,min=1"`
	DurationMinutes    int      `json:"duration_minutes,omitempty"`
	ShuffleQuestions   bool     `json:"shuffle_questions,omitempty"`
	ShuffleOptions     bool     `json:"shuffle_options,omitempty"`
	ShowCorrectAnswers bool     `json:"show_correct_answers,omitempty"`
	MaxAttempts        int      `json:"max_attempts,omitempty"`
	PassingScore       *int     `json:"passing_score,omitempty"`
	PaperType          string   `json:"paper_type,omitempty" validate:"omitempty,oneof=PAST_PAPER GUESS_PAPER MOCK_EXAM"`
	Year               int      `json:"year,omitempty"`
	Session            string   `json:"session,omitempty"`
	Board              string   `json:"board,omitempty"`
	Level              string   `json:"level,omitempty"`
	Subject            string   `json:"subject,omitempty"`
}

// POST /compositions
func CreateCompositionHandler(svc *engine.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req compositionReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json: "+err.Error(), http.StatusBadRequest)
			return
		}
		if err := validate.Struct(req); err != nil {
			http.Error(w, "invalid request: "+err.Error(), http.StatusBadRequest)
			return
		}
		actor := actorFrom(r)
		comp, err := svc.CreateComposition(r.Context(), req.QuestionIDs, compose.Constraints{
			Kind:               compose.Kind(req.Kind),
			Title:              req.Title,
			DurationMinutes:    req.DurationMinutes,
			ShuffleQuestions:   req.ShuffleQuestions,
			ShuffleOptions:     req.ShuffleOptions,
			ShowCorrectAnswers: req.ShowCorrectAnswers,
			MaxAttempts:        req.MaxAttempts,
			PassingScore:       req.PassingScore,
			PaperType:          compose.PaperType(req.PaperType),
			Year:               req.Year,
			Session:            req.Session,
			Board:              req.Board,
			Level:              req.Level,
			Subject:            req.Subject,
		}, actor)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, comp)
	}
}

// PUT /compositions/{compositionID}/questions
func ReplaceQuestionsHandler(svc *engine.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(chi.URLParam(r, "compositionID"))
		var req struct {
			QuestionIDs []string `json:"question_ids" validate:"required,min=1"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json: "+err.Error(), http.StatusBadRequest)
			return
		}
		if err := validate.Struct(req); err != nil {
			http.Error(w, "invalid request: "+err.Error(), http.StatusBadRequest)
			return
		}
		comp, err := svc.ReplaceQuestions(r.Context(), id, req.QuestionIDs)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, comp)
	}
}

// GET /compositions/{compositionID}
func GetCompositionHandler(comps compose.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(chi.URLParam(r, "compositionID"))
		comp, err := comps.Load(r.Context(), id)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, comp)
	}
}

// POST /compositions/{compositionID}/transition  { "action": "...", "note": "..." }
func TransitionPaperHandler(svc *engine.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(chi.URLParam(r, "compositionID"))
		var req struct {
			Action string `json:"action" validate:"required,oneof=SUBMIT_REVIEW REJECT APPROVE ARCHIVE"`
			Note   string `json:"note,omitempty"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json: "+err.Error(), http.StatusBadRequest)
			return
		}
		if err := validate.Struct(req); err != nil {
			http.Error(w, "invalid request: "+err.Error(), http.StatusBadRequest)
			return
		}
		comp, err := svc.TransitionPaper(r.Context(), id, workflow.PaperAction(req.Action), actorFrom(r), req.Note)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, comp)
	}
}

func actorFrom(r *http.Request) workflow.Actor {
	return workflow.Actor{
		ID:   authmw.SubjectFromContext(r.Context()),
		Role: rbac.RoleFromContext(r.Context()),
	}
}
