// Package http wires the REST surface: thin chi handlers over the store, the
// grading service, the report renderers, and the roster syncer.
package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/classworks/gradekeeper/internal/auth"
	"github.com/classworks/gradekeeper/internal/grader"
	"github.com/classworks/gradekeeper/internal/rbac"
	"github.com/classworks/gradekeeper/internal/roster"
	"github.com/classworks/gradekeeper/internal/store"
)

type Deps struct {
	Store   store.Store
	Grader  *grader.Service
	Syncer  *roster.Syncer // nil when roster sync is disabled
	Auth    *auth.AuthService
	Origins []string
}

func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID, chimw.RealIP, chimw.Logger, chimw.Recoverer)
	r.Use(chimw.Timeout(60 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   d.Origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })

	r.Post("/auth/login", auth.LoginHandler(d.Auth, d.Store))

	r.Group(func(r chi.Router) {
		r.Use(auth.JWTMiddleware(d.Auth))

		r.Route("/submissions", func(r chi.Router) {
			r.With(rbac.Require("submission:create")).Post("/", CreateSubmissionHandler(d.Store))
			r.With(rbac.Require("submission:view-all")).Get("/", ListSubmissionsHandler(d.Store))
			r.With(rbac.RequireOwnerOr("submission:view-all", ownsSubmission(d.Store))).
				Get("/{submissionID}", GetSubmissionHandler(d.Store))
			r.With(rbac.Require("grade:run")).Post("/{submissionID}/grade", GradeSubmissionHandler(d.Grader))
			r.With(rbac.RequireOwnerOr("submission:view-all", ownsSubmission(d.Store))).
				Get("/{submissionID}/rubric.html", RubricHTMLHandler(d.Store))
			r.With(rbac.RequireOwnerOr("submission:view-all", ownsSubmission(d.Store))).
				Get("/{submissionID}/rubric.md", RubricMarkdownHandler(d.Store))
			if d.Syncer != nil {
				r.With(rbac.Require("roster:sync")).Post("/{submissionID}/sync", SyncSubmissionHandler(d.Syncer))
			}
		})

		r.Route("/problemsets", func(r chi.Router) {
			r.Get("/", ListProblemSetsHandler(d.Store))
			r.Get("/{problemSetID}", GetProblemSetHandler(d.Store))
			r.With(rbac.Require("problemset:edit")).Put("/{problemSetID}", PutProblemSetHandler(d.Store))
		})

		r.Route("/problems", func(r chi.Router) {
			r.Get("/{problemID}", GetProblemHandler(d.Store))
			r.With(rbac.Require("problem:edit")).Put("/{problemID}", PutProblemHandler(d.Store))
		})

		r.With(rbac.Require("students:list")).Get("/students", ListStudentsHandler(d.Store))

		r.Route("/reports", func(r chi.Router) {
			r.With(rbac.Require("report:export")).Get("/sections/{sectionID}.csv", SectionCSVHandler(d.Store))
			r.With(rbac.RequireOwnerOr("report:export", ownStudentParam)).
				Get("/students/{studentID}.csv", StudentCSVHandler(d.Store))
		})

		if d.Syncer != nil {
			r.With(rbac.Require("roster:sync")).Post("/sync/pending", SyncPendingHandler(d.Syncer))
		}
	})

	return r
}

// ownsSubmission reports whether the caller is the student on the submission.
func ownsSubmission(st store.Store) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		sub, err := st.GetSubmission(r.Context(), chi.URLParam(r, "submissionID"))
		if err != nil {
			return false
		}
		return sub.StudentID == rbac.SubjectFromContext(r.Context())
	}
}

func ownStudentParam(r *http.Request) bool {
	return chi.URLParam(r, "studentID") == rbac.SubjectFromContext(r.Context())
}
