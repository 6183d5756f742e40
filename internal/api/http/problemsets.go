package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/classworks/gradekeeper/internal/store"
)

// GET /problemsets
func ListProblemSetsHandler(st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sets, err := st.ListProblemSets(r.Context())
		if err != nil {
			http.Error(w, "list problem sets: "+err.Error(), http.StatusInternalServerError)
			return
		}
		_ = json.NewEncoder(w).Encode(sets)
	}
}

// GET /problemsets/{problemSetID}
func GetProblemSetHandler(st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ps, err := st.GetProblemSet(r.Context(), chi.URLParam(r, "problemSetID"))
		if errors.Is(err, store.ErrNotFound) {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		_ = json.NewEncoder(w).Encode(ps)
	}
}

// PUT /problemsets/{problemSetID}
// The body's id must match the path; the store normalizes item sequences.
func PutProblemSetHandler(st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var ps store.ProblemSet
		if err := json.NewDecoder(r.Body).Decode(&ps); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		if ps.ID != chi.URLParam(r, "problemSetID") {
			http.Error(w, "id mismatch", http.StatusBadRequest)
			return
		}
		if err := st.PutProblemSet(r.Context(), ps); err != nil {
			http.Error(w, "save problem set: "+err.Error(), http.StatusInternalServerError)
			return
		}
		saved, err := st.GetProblemSet(r.Context(), ps.ID)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		_ = json.NewEncoder(w).Encode(saved)
	}
}

// GET /problems/{problemID}
func GetProblemHandler(st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := st.GetProblem(r.Context(), chi.URLParam(r, "problemID"))
		if errors.Is(err, store.ErrNotFound) {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		_ = json.NewEncoder(w).Encode(p)
	}
}

// PUT /problems/{problemID}
func PutProblemHandler(st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var p store.Problem
		if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		if p.ID != chi.URLParam(r, "problemID") {
			http.Error(w, "id mismatch", http.StatusBadRequest)
			return
		}
		if err := st.PutProblem(r.Context(), p); err != nil {
			http.Error(w, "save problem: "+err.Error(), http.StatusInternalServerError)
			return
		}
		_ = json.NewEncoder(w).Encode(p)
	}
}

// GET /students?section=
func ListStudentsHandler(st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		students, err := st.ListStudents(r.Context(), r.URL.Query().Get("section"))
		if err != nil {
			http.Error(w, "list students: "+err.Error(), http.StatusInternalServerError)
			return
		}
		_ = json.NewEncoder(w).Encode(students)
	}
}
