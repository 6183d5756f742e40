package store

import (
	"context"
	"errors"
	"testing"

	"github.com/classworks/gradekeeper/internal/rubric"
)

func TestNormalizeRenumbersAndFloorsRequirement(t *testing.T) {
	ps := ProblemSet{
		ID:          "ps-1",
		NumRequired: 1,
		Items: []ProblemSetItem{
			{TargetID: "prob-b", Sequence: 7},
			{TargetID: "prob-a", Sequence: 2},
			{TargetID: "prob-c", Sequence: 8, Requirement: rubric.Choice},
			{TargetID: "prob-x", Sequence: 9, Requirement: rubric.Optional},
		},
	}
	ps.Normalize()
	if ps.Items[0].TargetID != "prob-a" || ps.Items[0].Sequence != 1 {
		t.Fatalf("items[0] = %+v", ps.Items[0])
	}
	if ps.Items[1].TargetID != "prob-b" || ps.Items[1].Sequence != 2 {
		t.Fatalf("items[1] = %+v", ps.Items[1])
	}
	// Raised to the REQUIRED+CHOICE count; optional work never counts.
	if ps.NumRequired != 3 {
		t.Fatalf("num_required = %d, want 3", ps.NumRequired)
	}

	// A value above the count is a configuration problem the grading pass
	// reports; normalization keeps it.
	over := ProblemSet{
		ID:          "ps-2",
		NumRequired: 5,
		Items:       []ProblemSetItem{{TargetID: "prob-a", Sequence: 1}},
	}
	over.Normalize()
	if over.NumRequired != 5 {
		t.Fatalf("num_required = %d, want 5 kept", over.NumRequired)
	}
}

func TestMemStoreSubmissionLifecycle(t *testing.T) {
	ctx := context.Background()
	m := NewMemStore()

	if err := m.PutSubmission(ctx, Submission{
		ID: "sub-1", StudentID: "stu-1", ProblemSetID: "ps-1", CreatedAt: 100, SyncState: SyncPending,
	}); err != nil {
		t.Fatal(err)
	}
	if err := m.PutSubmission(ctx, Submission{
		ID: "sub-2", StudentID: "stu-1", ProblemSetID: "ps-1", CreatedAt: 200, SyncState: SyncPending,
	}); err != nil {
		t.Fatal(err)
	}

	latest, err := m.LatestSubmission(ctx, "stu-1", "ps-1")
	if err != nil || latest.ID != "sub-2" {
		t.Fatalf("latest = %+v, %v", latest, err)
	}

	if err := m.SaveGrade(ctx, "sub-2", `{"item_id":"ps-1"}`, 7685, 250); err != nil {
		t.Fatal(err)
	}
	sub, _ := m.GetSubmission(ctx, "sub-2")
	if sub.Grade != 7685 || sub.SyncState != SyncPending || sub.RubricJSON == "" {
		t.Fatalf("after grade: %+v", sub)
	}

	if err := m.SetSyncState(ctx, "sub-2", SyncOK, ""); err != nil {
		t.Fatal(err)
	}
	pending, _ := m.ListSubmissions(ctx, ListSubmissionsOpts{SyncState: SyncPending})
	if len(pending) != 1 || pending[0].ID != "sub-1" {
		t.Fatalf("pending = %+v", pending)
	}

	if _, err := m.GetSubmission(ctx, "nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestItemRefRoundTrip(t *testing.T) {
	it := ProblemSetItem{
		TargetID: "ps-2", Title: "unit", Sequence: 3,
		Requirement: rubric.Choice, Comfort: rubric.ComfortMore,
		AvgMethod: rubric.AvgMean, NumRequired: 2,
	}
	ref := it.Ref()
	if ref.ID != "ps-2" || ref.Sequence != 3 || ref.Requirement != rubric.Choice ||
		ref.Comfort != rubric.ComfortMore || ref.AvgMethod != rubric.AvgMean || ref.NumRequired != 2 {
		t.Fatalf("ref = %+v", ref)
	}
}
