package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/teacherpk/assessment/internal/bank"
	"github.com/teacherpk/assessment/internal/compose"
	"github.com/teacherpk/assessment/internal/engine"
	"github.com/teacherpk/assessment/internal/submit"
	"github.com/teacherpk/assessment/internal/workflow"
)

var validate = validator.New()

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type errBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// writeErr maps engine errors onto HTTP statuses. Validation problems are the
// caller's fault; conflicts report workflow and versioning collisions.
func writeErr(w http.ResponseWriter, err error) {
	var (
		vErr *bank.ValidationError
		uErr *compose.UnknownQuestionError
		mErr *compose.MarksMismatchError
		iErr *workflow.IllegalTransitionError
		fErr *workflow.ForbiddenError
	)
	switch {
	case errors.As(err, &vErr):
		writeJSON(w, http.StatusUnprocessableEntity, errBody{Code: vErr.Code, Message: vErr.Error()})
	case errors.As(err, &uErr):
		writeJSON(w, http.StatusUnprocessableEntity, errBody{Code: "UnknownQuestion", Message: err.Error()})
	case errors.As(err, &mErr):
		writeJSON(w, http.StatusUnprocessableEntity, errBody{Code: "MarksMismatch", Message: err.Error()})
	case errors.Is(err, compose.ErrEmptyComposition),
		errors.Is(err, compose.ErrDurationRequired),
		errors.Is(err, submit.ErrAmbiguousRef):
		writeJSON(w, http.StatusUnprocessableEntity, errBody{Code: "ValidationError", Message: err.Error()})
	case errors.Is(err, bank.ErrNotFound),
		errors.Is(err, compose.ErrNotFound),
		errors.Is(err, submit.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errBody{Code: "NotFound", Message: err.Error()})
	case errors.As(err, &fErr):
		writeJSON(w, http.StatusForbidden, errBody{Code: "Forbidden", Message: err.Error()})
	case errors.As(err, &iErr):
		writeJSON(w, http.StatusConflict, errBody{Code: "IllegalTransition", Message: err.Error()})
	case errors.Is(err, workflow.ErrPendingManual):
		writeJSON(w, http.StatusConflict, errBody{Code: "PendingManualGrade", Message: err.Error()})
	case errors.Is(err, workflow.ErrFeedbackRequired):
		writeJSON(w, http.StatusUnprocessableEntity, errBody{Code: "FeedbackRequired", Message: err.Error()})
	case errors.Is(err, compose.ErrImmutable):
		writeJSON(w, http.StatusConflict, errBody{Code: "Immutable", Message: err.Error()})
	case errors.Is(err, compose.ErrVersionConflict):
		writeJSON(w, http.StatusConflict, errBody{Code: "VersionConflict", Message: err.Error()})
	case errors.Is(err, bank.ErrQuestionInUse),
		errors.Is(err, bank.ErrQuestionLocked):
		writeJSON(w, http.StatusConflict, errBody{Code: "QuestionLocked", Message: err.Error()})
	case errors.Is(err, engine.ErrNotAttemptable),
		errors.Is(err, engine.ErrAttemptsExhausted):
		writeJSON(w, http.StatusConflict, errBody{Code: "NotAttemptable", Message: err.Error()})
	default:
		writeJSON(w, http.StatusInternalServerError, errBody{Code: "Internal", Message: err.Error()})
	}
}
