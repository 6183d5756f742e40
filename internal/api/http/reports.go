package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/classworks/gradekeeper/internal/report"
	"github.com/classworks/gradekeeper/internal/rubric"
	"github.com/classworks/gradekeeper/internal/store"
)

func loadRubric(w http.ResponseWriter, r *http.Request, st store.Store) (*rubric.Rubric, bool) {
	sub, err := st.GetSubmission(r.Context(), chi.URLParam(r, "submissionID"))
	if errors.Is(err, store.ErrNotFound) {
		http.Error(w, "not found", http.StatusNotFound)
		return nil, false
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return nil, false
	}
	if sub.RubricJSON == "" {
		http.Error(w, "submission not graded", http.StatusConflict)
		return nil, false
	}
	var rub rubric.Rubric
	if err := json.Unmarshal([]byte(sub.RubricJSON), &rub); err != nil {
		http.Error(w, "stored rubric unreadable", http.StatusInternalServerError)
		return nil, false
	}
	rub.TotalScores(false)
	return &rub, true
}

// GET /submissions/{submissionID}/rubric.html
func RubricHTMLHandler(st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rub, ok := loadRubric(w, r, st)
		if !ok {
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := report.RenderHTML(w, rub); err != nil {
			http.Error(w, "render: "+err.Error(), http.StatusInternalServerError)
		}
	}
}

// GET /submissions/{submissionID}/rubric.md
func RubricMarkdownHandler(st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rub, ok := loadRubric(w, r, st)
		if !ok {
			return
		}
		w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
		if err := report.RenderMarkdown(w, rub); err != nil {
			http.Error(w, "render: "+err.Error(), http.StatusInternalServerError)
		}
	}
}

// GET /reports/sections/{sectionID}.csv
func SectionCSVHandler(st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/csv")
		if err := report.WriteSectionCSV(r.Context(), w, st, chi.URLParam(r, "sectionID")); err != nil {
			http.Error(w, "export: "+err.Error(), http.StatusInternalServerError)
		}
	}
}

// GET /reports/students/{studentID}.csv
func StudentCSVHandler(st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/csv")
		if err := report.WriteStudentCSV(r.Context(), w, st, chi.URLParam(r, "studentID")); err != nil {
			http.Error(w, "export: "+err.Error(), http.StatusInternalServerError)
		}
	}
}
