// Package roster posts computed grades to the upstream classroom service and
// tracks per-submission sync state.
package roster

import (
	"context"
	"time"
)

// Assignment is the upstream gradebook column a problem set's grades land in.
type Assignment struct {
	ID           string  `json:"id"`
	Label        string  `json:"label"`
	ScoreMaximum float64 `json:"score_maximum"`
	ResourceID   string  `json:"resource_id"`
}

// CreateAssignmentReq is the payload for registering a new gradebook column.
type CreateAssignmentReq struct {
	Label        string  `json:"label"`
	ScoreMaximum float64 `json:"score_maximum"`
	ResourceID   string  `json:"resource_id"`
}

// Score is one grade posting for one student.
type Score struct {
	UserID           string    `json:"user_id"`
	ScoreGiven       float64   `json:"score_given"`
	ScoreMaximum     float64   `json:"score_maximum"`
	ActivityProgress string    `json:"activity_progress"`
	GradingProgress  string    `json:"grading_progress"`
	Timestamp        time.Time `json:"timestamp"`
}

// Classroom is the upstream grade-posting API.
type Classroom interface {
	ListAssignments(ctx context.Context, resourceID string) ([]Assignment, error)
	CreateAssignment(ctx context.Context, req CreateAssignmentReq) (Assignment, error)
	PostScore(ctx context.Context, assignmentID string, s Score) error
}
