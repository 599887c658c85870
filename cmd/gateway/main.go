package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	api "github.com/teacherpk/assessment/internal/api/http"
	authmw "github.com/teacherpk/assessment/internal/auth/middleware"
	"github.com/teacherpk/assessment/internal/bank"
	"github.com/teacherpk/assessment/internal/compose"
	"github.com/teacherpk/assessment/internal/config"
	"github.com/teacherpk/assessment/internal/db"
	"github.com/teacherpk/assessment/internal/engine"
	"github.com/teacherpk/assessment/internal/grading"
	"github.com/teacherpk/assessment/internal/rbac"
	"github.com/teacherpk/assessment/internal/submit"
	"github.com/teacherpk/assessment/internal/workflow"
)

func main() {
	cfg := config.FromEnv()

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	logger := zerolog.New(os.Stderr).Level(level).With().Timestamp().Logger()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	dbh, err := db.Open(ctx, db.Driver(cfg.DBDriver), cfg.DBDSN)
	if err != nil {
		logger.Fatal().Err(err).Msg("db open failed")
	}

	questionStore := bank.NewSQLStore(dbh)
	compStore := compose.NewSQLStore(dbh)
	subStore := submit.NewSQLStore(dbh)

	var gradeOpts []grading.Option
	if cfg.PartialCredit {
		gradeOpts = append(gradeOpts, grading.WithPartialCredit(true))
	}

	checker := rbac.NewChecker(nil)
	svc := engine.NewService(engine.Deps{
		Bank:    questionStore,
		Comps:   compStore,
		Subs:    subStore,
		Grader:  grading.New(gradeOpts...),
		Checker: checker,
		Audit:   workflow.NewSQLEventLog(dbh),
		Logger:  logger,
	})

	authSvc := authmw.NewAuthService(cfg.AuthSecret, cfg.AdminUser, cfg.AdminPassHash)

	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Logger, middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Post("/auth/login", authmw.LoginHandler(authSvc))

	r.Group(func(pr chi.Router) {
		pr.Use(authmw.JWTMiddleware(authSvc))

		// Question bank (content authors)
		pr.With(checker.Require("question:create")).
			Post("/questions", api.CreateQuestionHandler(questionStore))
		pr.With(checker.Require("question:edit")).
			Put("/questions/{questionID}", api.UpdateQuestionHandler(questionStore))
		pr.With(checker.RequireAny("question:view", "quiz:create")).
			Get("/questions/{questionID}", api.GetQuestionHandler(questionStore))
		pr.With(checker.Require("question:delete")).
			Delete("/questions/{questionID}", api.DeleteQuestionHandler(questionStore))

		// Compositions
		pr.With(checker.RequireAny("quiz:create", "paper:create")).
			Post("/compositions", api.CreateCompositionHandler(svc))
		pr.With(checker.RequireAny("quiz:edit", "paper:edit")).
			Put("/compositions/{compositionID}/questions", api.ReplaceQuestionsHandler(svc))
		pr.With(checker.RequireAny("quiz:view", "paper:view")).
			Get("/compositions/{compositionID}", api.GetCompositionHandler(compStore))
		pr.With(checker.RequireAny("paper:submit_review", "paper:review", "paper:archive")).
			Post("/compositions/{compositionID}/transition", api.TransitionPaperHandler(svc))

		// Learner flow
		pr.With(checker.Require("attempt:create")).
			Post("/compositions/{compositionID}/attempts", api.StartAttemptHandler(svc))
		pr.With(checker.RequireAny("attempt:create", "submission:grade")).
			Get("/compositions/{compositionID}/render", api.RenderHandler(svc))
		pr.With(checker.Require("submission:create")).
			Post("/compositions/{compositionID}/submissions", api.CreateSubmissionHandler(svc))
		pr.With(checker.RequireAny("submission:view-own", "submission:view-all")).
			Get("/submissions/{submissionID}", api.GetSubmissionHandler(subStore))

		// Grading flow (teachers)
		pr.With(checker.Require("submission:grade")).
			Post("/submissions/{submissionID}/grade", api.GradeSubmissionHandler(svc))
		pr.With(checker.Require("submission:grade")).
			Post("/submissions/{submissionID}/manual-grades", api.ApplyManualGradesHandler(svc))
		pr.With(checker.Require("submission:return")).
			Post("/submissions/{submissionID}/return", api.ReturnSubmissionHandler(svc))
	})

	logger.Info().Str("addr", cfg.HTTPAddr).Msg("assessment gateway listening")
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}
	if err := srv.ListenAndServe(); err != nil {
		logger.Fatal().Err(err).Msg("server stopped")
	}
}
