package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	authmw "github.com/teacherpk/assessment/internal/auth/middleware"
	"github.com/teacherpk/assessment/internal/bank"
	"github.com/teacherpk/assessment/internal/engine"
	"github.com/teacherpk/assessment/internal/submit"
	"github.com/teacherpk/assessment/internal/workflow"
)

// POST /compositions/{compositionID}/attempts
func StartAttemptHandler(svc *engine.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		compID := strings.TrimSpace(chi.URLParam(r, "compositionID"))
		learner := authmw.SubjectFromContext(r.Context())
		att, pres, err := svc.StartAttempt(r.Context(), learner, compID)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{
			"attempt":      att,
			"presentation": pres,
		})
	}
}

// GET /compositions/{compositionID}/render?seed=N
func RenderHandler(svc *engine.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		compID := strings.TrimSpace(chi.URLParam(r, "compositionID"))
		seed, err := strconv.ParseInt(r.URL.Query().Get("seed"), 10, 64)
		if err != nil {
			http.Error(w, "seed required", http.StatusBadRequest)
			return
		}
		pres, err := svc.Render(r.Context(), compID, seed)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, pres)
	}
}

// POST /compositions/{compositionID}/submissions
func CreateSubmissionHandler(svc *engine.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		compID := strings.TrimSpace(chi.URLParam(r, "compositionID"))
		var req struct {
			Answers map[string]bank.Response `json:"answers"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json: "+err.Error(), http.StatusBadRequest)
			return
		}
		learner := authmw.SubjectFromContext(r.Context())
		sub, err := svc.Submit(r.Context(), learner, compID, req.Answers)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, sub)
	}
}

// GET /submissions/{submissionID}
func GetSubmissionHandler(subs submit.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(chi.URLParam(r, "submissionID"))
		sub, err := subs.Get(r.Context(), id)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, sub)
	}
}

// POST /submissions/{submissionID}/grade
func GradeSubmissionHandler(svc *engine.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(chi.URLParam(r, "submissionID"))
		sub, result, err := svc.Grade(r.Context(), id, actorFrom(r))
		if err != nil {
			// Pending manual items still return the breakdown alongside the
			// conflict so the grader UI can show what is outstanding.
			if errors.Is(err, workflow.ErrPendingManual) {
				writeJSON(w, http.StatusConflict, map[string]any{
					"code":       "PendingManualGrade",
					"submission": sub,
					"result":     result,
				})
				return
			}
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"submission": sub,
			"result":     result,
		})
	}
}

// POST /submissions/{submissionID}/manual-grades  { "scores": {"q1": 7.5} }
func ApplyManualGradesHandler(svc *engine.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(chi.URLParam(r, "submissionID"))
		var req struct {
			Scores map[string]float64 `json:"scores" validate:"required,min=1"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json: "+err.Error(), http.StatusBadRequest)
			return
		}
		if err := validate.Struct(req); err != nil {
			http.Error(w, "invalid request: "+err.Error(), http.StatusBadRequest)
			return
		}
		sub, err := svc.ApplyManualGrades(r.Context(), id, req.Scores, actorFrom(r))
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, sub)
	}
}

// POST /submissions/{submissionID}/return  { "feedback": "..." }
func ReturnSubmissionHandler(svc *engine.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(chi.URLParam(r, "submissionID"))
		var req struct {
			Feedback string `json:"feedback" validate:"required"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json: "+err.Error(), http.StatusBadRequest)
			return
		}
		if err := validate.Struct(req); err != nil {
			http.Error(w, "invalid request: "+err.Error(), http.StatusBadRequest)
			return
		}
		sub, err := svc.ReturnSubmission(r.Context(), id, req.Feedback, actorFrom(r))
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, sub)
	}
}
