package grader

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"

	"github.com/classworks/gradekeeper/internal/inspect"
	"github.com/classworks/gradekeeper/internal/rubric"
	"github.com/classworks/gradekeeper/internal/store"
)

func testService(t *testing.T, st store.Store, reg *Registry) *Service {
	t.Helper()
	cache := inspect.NewURLCache(filepath.Join(t.TempDir(), "targets.json"))
	return NewService(st, reg, cache,
		WithWorkDir(t.TempDir()),
		WithLogger(func(string, ...interface{}) {}),
	)
}

func seedJudgeWorld(t *testing.T, st *store.MemStore) {
	t.Helper()
	ctx := context.Background()
	if err := st.PutStudent(ctx, store.Student{ID: "stu-1", Username: "octocat", GithubUser: "octocat"}); err != nil {
		t.Fatal(err)
	}
	if err := st.PutProblem(ctx, store.Problem{ID: "prob-mario", Title: "mario", Strategy: "judge_import"}); err != nil {
		t.Fatal(err)
	}
	if err := st.PutProblemSet(ctx, store.ProblemSet{
		ID: "ps-week1", Title: "Week 1",
		Items: []store.ProblemSetItem{{TargetID: "prob-mario", Title: "mario", Sequence: 1}},
	}); err != nil {
		t.Fatal(err)
	}
	if err := st.PutSubmission(ctx, store.Submission{
		ID: "sub-1", StudentID: "stu-1", ProblemSetID: "ps-week1", CreatedAt: 100,
	}); err != nil {
		t.Fatal(err)
	}
}

func TestGradeSubmissionJudgeProblem(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemStore()
	seedJudgeWorld(t, st)
	if err := st.PutJudgeResult(ctx, store.JudgeResult{
		SubmissionID: "sub-1", ProblemID: "prob-mario",
		ChecksPassed: 10, ChecksRun: 10, StyleScore: 100,
	}); err != nil {
		t.Fatal(err)
	}

	svc := testService(t, st, DefaultRegistry())
	r, err := svc.GradeSubmission(ctx, "sub-1", false)
	if err != nil {
		t.Fatal(err)
	}
	if got := r.Root.Overall[rubric.CategoryProduct]; got != 8 {
		t.Fatalf("product = %d, want 8", got)
	}
	if got := r.Root.Overall[rubric.CategoryExpertise]; got != 8 {
		t.Fatalf("expertise = %d, want 8", got)
	}

	sub, _ := st.GetSubmission(ctx, "sub-1")
	if sub.Grade != rubric.ScaledGrade(r.Root.Overall) || sub.RubricJSON == "" {
		t.Fatalf("persisted submission: %+v", sub)
	}
	if sub.SyncState != store.SyncPending {
		t.Fatalf("sync state %q", sub.SyncState)
	}
}

func TestGradeSubmissionNoJudgeRecordScoresZero(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemStore()
	seedJudgeWorld(t, st)

	svc := testService(t, st, DefaultRegistry())
	r, err := svc.GradeSubmission(ctx, "sub-1", false)
	if err != nil {
		t.Fatal(err)
	}
	// Criteria exist and score zero; consensus over all-zero input is 0.
	if got := r.Root.Overall[rubric.CategoryProduct]; got != 0 {
		t.Fatalf("product = %d, want 0", got)
	}
	sub, _ := st.GetSubmission(ctx, "sub-1")
	if sub.Grade != 1000 {
		t.Fatalf("scaled grade = %d, want floor 1000", sub.Grade)
	}
}

func TestGradeSubmissionPreservesManualScores(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemStore()
	seedJudgeWorld(t, st)

	svc := testService(t, st, DefaultRegistry())
	if _, err := svc.GradeSubmission(ctx, "sub-1", false); err != nil {
		t.Fatal(err)
	}

	// A teacher overrides style by hand.
	sub, _ := st.GetSubmission(ctx, "sub-1")
	var r rubric.Rubric
	if err := json.Unmarshal([]byte(sub.RubricJSON), &r); err != nil {
		t.Fatal(err)
	}
	ref := rubric.ItemRef{ID: "prob-mario", Title: "mario", Sequence: 1}
	c := r.At().Problem(&ref).Criterion("style", 100, 0).ScoreManual(90, 100)
	if err := c.Err(); err != nil {
		t.Fatal(err)
	}
	data, _ := json.Marshal(&r)
	if err := st.SaveGrade(ctx, "sub-1", string(data), sub.Grade, sub.GradedAt); err != nil {
		t.Fatal(err)
	}

	regraded, err := svc.GradeSubmission(ctx, "sub-1", false)
	if err != nil {
		t.Fatal(err)
	}
	got := regraded.At().Problem(&ref).Criterion("style", 100, 0).ScoreValue()
	if got != 90 {
		t.Fatalf("manual style score = %d after regrade, want 90", got)
	}
}

type flakyStrategy struct{ calls *int }

func (flakyStrategy) Name() string { return "flaky" }
func (f flakyStrategy) Grade(_ context.Context, c *rubric.Cursor, _ *Target) error {
	*f.calls++
	if *f.calls == 1 {
		return errors.New("transient inspector failure")
	}
	c.Criterion("done", 1, 0).Category("process").Score(1, 1)
	return c.Err()
}

func TestGradeSubmissionRetriesFromBlankRubric(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemStore()
	seedJudgeWorld(t, st)
	if err := st.PutProblem(ctx, store.Problem{ID: "prob-mario", Title: "mario", Strategy: "flaky"}); err != nil {
		t.Fatal(err)
	}

	calls := 0
	svc := testService(t, st, NewRegistry(flakyStrategy{calls: &calls}))
	r, err := svc.GradeSubmission(ctx, "sub-1", false)
	if err != nil {
		t.Fatal(err)
	}
	if calls != 2 {
		t.Fatalf("strategy calls = %d, want 2", calls)
	}
	if got := r.Root.Overall[rubric.CategoryProcess]; got != 8 {
		t.Fatalf("process = %d, want 8", got)
	}
}

func TestGradeSubmissionUnknownStrategyIsNoop(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemStore()
	seedJudgeWorld(t, st)
	if err := st.PutProblem(ctx, store.Problem{ID: "prob-mario", Title: "mario", Strategy: "does_not_exist"}); err != nil {
		t.Fatal(err)
	}

	svc := testService(t, st, DefaultRegistry())
	r, err := svc.GradeSubmission(ctx, "sub-1", false)
	if err != nil {
		t.Fatal(err)
	}
	p := r.At().Problem(&rubric.ItemRef{ID: "prob-mario", Sequence: 1}).CurrentProblem()
	if len(p.Criteria) != 0 {
		t.Fatalf("noop strategy created criteria: %+v", p.Criteria)
	}
}

type fixedStrategy struct {
	name   string
	earned int
}

func (s fixedStrategy) Name() string { return s.name }
func (s fixedStrategy) Grade(_ context.Context, c *rubric.Cursor, _ *Target) error {
	c.Criterion("result", 8, 0).Category("product").Score(s.earned, 8)
	return c.Err()
}

func seedPairWorld(t *testing.T, st *store.MemStore, numRequired int) {
	t.Helper()
	ctx := context.Background()
	if err := st.PutStudent(ctx, store.Student{ID: "stu-1", Username: "octocat"}); err != nil {
		t.Fatal(err)
	}
	if err := st.PutProblem(ctx, store.Problem{ID: "prob-lo", Title: "lo", Strategy: "half"}); err != nil {
		t.Fatal(err)
	}
	if err := st.PutProblem(ctx, store.Problem{ID: "prob-hi", Title: "hi", Strategy: "full"}); err != nil {
		t.Fatal(err)
	}
	if err := st.PutProblemSet(ctx, store.ProblemSet{
		ID: "ps-pair", Title: "Pair", NumRequired: numRequired,
		Items: []store.ProblemSetItem{
			{TargetID: "prob-lo", Title: "lo", Sequence: 1},
			{TargetID: "prob-hi", Title: "hi", Sequence: 2},
		},
	}); err != nil {
		t.Fatal(err)
	}
}

func TestGradeSubmissionKeepsAllRequiredGrades(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemStore()
	// num_required understates the two required problems; storing the set
	// raises it so the consensus trim cannot discard the weaker grade.
	seedPairWorld(t, st, 1)
	if err := st.PutSubmission(ctx, store.Submission{
		ID: "sub-pair", StudentID: "stu-1", ProblemSetID: "ps-pair", CreatedAt: 100,
	}); err != nil {
		t.Fatal(err)
	}

	svc := testService(t, st, NewRegistry(fixedStrategy{"half", 4}, fixedStrategy{"full", 8}))
	r, err := svc.GradeSubmission(ctx, "sub-pair", false)
	if err != nil {
		t.Fatal(err)
	}
	if got := len(r.Root.Grades[rubric.CategoryProduct]); got != 2 {
		t.Fatalf("merged %d grades, want both required problems", got)
	}
	// A 4 and an 8 settle at 5; an 8 alone would mean the 4 was trimmed away.
	if got := r.Root.Overall[rubric.CategoryProduct]; got != 5 {
		t.Fatalf("product = %d, want 5", got)
	}
}

func TestGradeSubmissionNestedSetRequirementFloor(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemStore()
	seedPairWorld(t, st, 0)
	// The wrapper's item-level override understates the nested pair.
	if err := st.PutProblemSet(ctx, store.ProblemSet{
		ID: "ps-term", Title: "Term",
		Items: []store.ProblemSetItem{{TargetID: "ps-pair", Title: "pair", Sequence: 1, NumRequired: 1}},
	}); err != nil {
		t.Fatal(err)
	}
	if err := st.PutSubmission(ctx, store.Submission{
		ID: "sub-term", StudentID: "stu-1", ProblemSetID: "ps-term", CreatedAt: 100,
	}); err != nil {
		t.Fatal(err)
	}

	svc := testService(t, st, NewRegistry(fixedStrategy{"half", 4}, fixedStrategy{"full", 8}))
	r, err := svc.GradeSubmission(ctx, "sub-term", false)
	if err != nil {
		t.Fatal(err)
	}
	if got := r.Root.Overall[rubric.CategoryProduct]; got != 5 {
		t.Fatalf("product = %d, want the nested consensus of 5", got)
	}
}

func TestGradeSubmissionImportsCoursework(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemStore()
	seedJudgeWorld(t, st)
	if err := st.PutJudgeResult(ctx, store.JudgeResult{
		SubmissionID: "sub-1", ProblemID: "prob-mario",
		ChecksPassed: 10, ChecksRun: 10, StyleScore: 100,
	}); err != nil {
		t.Fatal(err)
	}

	svc := testService(t, st, DefaultRegistry())
	if _, err := svc.GradeSubmission(ctx, "sub-1", false); err != nil {
		t.Fatal(err)
	}

	// A wrapper set pulls week1's computed grades in by reference.
	if err := st.PutProblemSet(ctx, store.ProblemSet{
		ID: "ps-term", Title: "Term",
		Items: []store.ProblemSetItem{{TargetID: "cw-week1", Title: "Week 1 grade", Sequence: 1}},
	}); err != nil {
		t.Fatal(err)
	}
	if err := st.PutSubmission(ctx, store.Submission{
		ID: "sub-term", StudentID: "stu-1", ProblemSetID: "ps-term", CreatedAt: 200,
	}); err != nil {
		t.Fatal(err)
	}

	r, err := svc.GradeSubmission(ctx, "sub-term", false)
	if err != nil {
		t.Fatal(err)
	}
	if got := r.Root.Overall[rubric.CategoryExpertise]; got != 8 {
		t.Fatalf("imported expertise = %d, want 8", got)
	}
}
