package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/classworks/gradekeeper/internal/grader"
	"github.com/classworks/gradekeeper/internal/rbac"
	"github.com/classworks/gradekeeper/internal/store"
)

// Narrow views of the roster syncer so handlers stay testable with fakes.
type SubmissionSyncer interface {
	SyncSubmission(ctx context.Context, submissionID string) error
}

type PendingSyncer interface {
	SyncPending(ctx context.Context) (int, error)
}

// POST /submissions
// Students submit for themselves; a teacher may submit on a student's behalf
// by naming student_id.
func CreateSubmissionHandler(st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			StudentID    string `json:"student_id"`
			ProblemSetID string `json:"problem_set_id"`
			RepoURL      string `json:"repo_url"`
			SiteURL      string `json:"site_url"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		if req.StudentID == "" {
			req.StudentID = rbac.SubjectFromContext(r.Context())
		}
		if req.StudentID != rbac.SubjectFromContext(r.Context()) &&
			rbac.RoleFromContext(r.Context()) == "student" {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
		if req.ProblemSetID == "" {
			http.Error(w, "problem_set_id required", http.StatusBadRequest)
			return
		}
		if _, err := st.GetProblemSet(r.Context(), req.ProblemSetID); err != nil {
			http.Error(w, "unknown problem set", http.StatusBadRequest)
			return
		}
		sub := store.Submission{
			ID:           "sub-" + uuid.NewString(),
			StudentID:    req.StudentID,
			ProblemSetID: req.ProblemSetID,
			RepoURL:      req.RepoURL,
			SiteURL:      req.SiteURL,
			CreatedAt:    time.Now().Unix(),
		}
		if err := st.PutSubmission(r.Context(), sub); err != nil {
			http.Error(w, "save submission: "+err.Error(), http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(sub)
	}
}

// GET /submissions?student_id=&problem_set_id=&sync_state=&limit=&offset=
func ListSubmissionsHandler(st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		limit, _ := strconv.Atoi(q.Get("limit"))
		offset, _ := strconv.Atoi(q.Get("offset"))
		subs, err := st.ListSubmissions(r.Context(), store.ListSubmissionsOpts{
			StudentID:    q.Get("student_id"),
			ProblemSetID: q.Get("problem_set_id"),
			SyncState:    q.Get("sync_state"),
			Limit:        limit,
			Offset:       offset,
		})
		if err != nil {
			http.Error(w, "list submissions: "+err.Error(), http.StatusInternalServerError)
			return
		}
		_ = json.NewEncoder(w).Encode(subs)
	}
}

// GET /submissions/{submissionID}
func GetSubmissionHandler(st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sub, err := st.GetSubmission(r.Context(), chi.URLParam(r, "submissionID"))
		if errors.Is(err, store.ErrNotFound) {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		_ = json.NewEncoder(w).Encode(sub)
	}
}

// POST /submissions/{submissionID}/grade?force=1
func GradeSubmissionHandler(svc *grader.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "submissionID")
		force := r.URL.Query().Get("force") == "1"
		rub, err := svc.GradeSubmission(r.Context(), id, force)
		if errors.Is(err, store.ErrNotFound) {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		if err != nil {
			http.Error(w, "grade: "+err.Error(), http.StatusInternalServerError)
			return
		}
		_ = json.NewEncoder(w).Encode(rub)
	}
}

// POST /submissions/{submissionID}/sync
func SyncSubmissionHandler(s SubmissionSyncer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := s.SyncSubmission(r.Context(), chi.URLParam(r, "submissionID")); err != nil {
			http.Error(w, "sync: "+err.Error(), http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// POST /sync/pending
func SyncPendingHandler(s PendingSyncer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		n, err := s.SyncPending(r.Context())
		if err != nil {
			http.Error(w, "sync pending: "+err.Error(), http.StatusInternalServerError)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]int{"synced": n})
	}
}
