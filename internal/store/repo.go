package store

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("not found")

type ListSubmissionsOpts struct {
	StudentID    string
	ProblemSetID string
	SyncState    string
	Limit        int
	Offset       int
}

type Store interface {
	PutStudent(ctx context.Context, s Student) error
	GetStudent(ctx context.Context, id string) (Student, error)
	GetStudentByUsername(ctx context.Context, username string) (Student, error)
	ListStudents(ctx context.Context, sectionID string) ([]Student, error)

	PutProblem(ctx context.Context, p Problem) error
	GetProblem(ctx context.Context, id string) (Problem, error)

	PutProblemSet(ctx context.Context, ps ProblemSet) error
	GetProblemSet(ctx context.Context, id string) (ProblemSet, error)
	ListProblemSets(ctx context.Context) ([]ProblemSet, error)

	PutSubmission(ctx context.Context, sub Submission) error
	GetSubmission(ctx context.Context, id string) (Submission, error)
	LatestSubmission(ctx context.Context, studentID, problemSetID string) (Submission, error)
	ListSubmissions(ctx context.Context, opts ListSubmissionsOpts) ([]Submission, error)
	SaveGrade(ctx context.Context, submissionID, rubricJSON string, grade int, gradedAt int64) error
	SetSyncState(ctx context.Context, submissionID, state, message string) error

	PutJudgeResult(ctx context.Context, jr JudgeResult) error
	GetJudgeResult(ctx context.Context, submissionID, problemID string) (JudgeResult, error)
}
