package report

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/classworks/gradekeeper/internal/rubric"
	"github.com/classworks/gradekeeper/internal/store"
)

// WriteSectionCSV exports one row per student in the section with the scaled
// composite grade of each assignment. Ungraded or missing work is left blank.
func WriteSectionCSV(ctx context.Context, w io.Writer, st store.Store, sectionID string) error {
	students, err := st.ListStudents(ctx, sectionID)
	if err != nil {
		return err
	}
	sets, err := st.ListProblemSets(ctx)
	if err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	header := []string{"Student ID", "Student Name"}
	for _, ps := range sets {
		header = append(header, ps.Title)
	}
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, s := range students {
		row := []string{s.ID, s.Name}
		for _, ps := range sets {
			cell := ""
			sub, err := st.LatestSubmission(ctx, s.ID, ps.ID)
			if err == nil && sub.GradedAt > 0 {
				cell = fmt.Sprint(sub.Grade)
			} else if err != nil && !errors.Is(err, store.ErrNotFound) {
				return err
			}
			row = append(row, cell)
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteStudentCSV exports one row per assignment for one student, with the
// per-category consensus grades and the scaled composite.
func WriteStudentCSV(ctx context.Context, w io.Writer, st store.Store, studentID string) error {
	sets, err := st.ListProblemSets(ctx)
	if err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	header := []string{"Assignment"}
	for _, cat := range rubric.Categories {
		header = append(header, string(cat))
	}
	header = append(header, "Scaled")
	if err := cw.Write(header); err != nil {
		return err
	}

	for _, ps := range sets {
		sub, err := st.LatestSubmission(ctx, studentID, ps.ID)
		if errors.Is(err, store.ErrNotFound) {
			continue
		}
		if err != nil {
			return err
		}
		if sub.GradedAt == 0 || sub.RubricJSON == "" {
			continue
		}
		var r rubric.Rubric
		if err := json.Unmarshal([]byte(sub.RubricJSON), &r); err != nil {
			continue
		}
		r.TotalScores(false)
		row := []string{ps.Title}
		for _, cat := range rubric.Categories {
			cell := ""
			if g, ok := r.Root.Overall[cat]; ok {
				cell = fmt.Sprint(g)
			}
			row = append(row, cell)
		}
		row = append(row, fmt.Sprint(sub.Grade))
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
