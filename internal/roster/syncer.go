package roster

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/classworks/gradekeeper/internal/store"
)

// scoreMaximum is the top of the scaled composite grade: an all-8 rubric.
const scoreMaximum = 8888

type Clock func() time.Time

// Syncer pushes graded submissions upstream. Assignments are resolved against
// the classroom service itself (list, then create), so the mapping survives
// restarts without local bookkeeping; a per-process memo avoids re-listing on
// every score.
type Syncer struct {
	store     store.Store
	classroom Classroom
	now       Clock
	logf      func(format string, args ...interface{})

	mu   sync.Mutex
	memo map[string]Assignment // problem set id -> assignment
}

func NewSyncer(st store.Store, classroom Classroom, now Clock) *Syncer {
	if now == nil {
		now = time.Now
	}
	return &Syncer{
		store:     st,
		classroom: classroom,
		now:       now,
		logf:      log.Printf,
		memo:      map[string]Assignment{},
	}
}

// SetLogger replaces the warning sink, mainly for tests.
func (s *Syncer) SetLogger(f func(string, ...interface{})) { s.logf = f }

// EnsureAssignment finds or creates the gradebook column for a problem set.
func (s *Syncer) EnsureAssignment(ctx context.Context, ps store.ProblemSet) (Assignment, error) {
	s.mu.Lock()
	a, ok := s.memo[ps.ID]
	s.mu.Unlock()
	if ok {
		return a, nil
	}

	items, err := s.classroom.ListAssignments(ctx, ps.ID)
	if err == nil {
		for _, it := range items {
			if it.ResourceID == ps.ID {
				s.remember(ps.ID, it)
				return it, nil
			}
		}
	}
	created, err := s.classroom.CreateAssignment(ctx, CreateAssignmentReq{
		Label:        ps.Title,
		ScoreMaximum: scoreMaximum,
		ResourceID:   ps.ID,
	})
	if err != nil {
		return Assignment{}, fmt.Errorf("create assignment for %s: %w", ps.ID, err)
	}
	s.remember(ps.ID, created)
	return created, nil
}

func (s *Syncer) remember(psID string, a Assignment) {
	s.mu.Lock()
	s.memo[psID] = a
	s.mu.Unlock()
}

// SyncSubmission posts one graded submission's scaled grade upstream and
// records the outcome in the submission's sync state.
func (s *Syncer) SyncSubmission(ctx context.Context, submissionID string) error {
	sub, err := s.store.GetSubmission(ctx, submissionID)
	if err != nil {
		return err
	}
	if sub.GradedAt == 0 {
		return errors.New("submission not graded")
	}
	_ = s.store.SetSyncState(ctx, sub.ID, store.SyncPending, "")

	ps, err := s.store.GetProblemSet(ctx, sub.ProblemSetID)
	if err != nil {
		return s.fail(ctx, sub.ID, err)
	}
	a, err := s.EnsureAssignment(ctx, ps)
	if err != nil {
		return s.fail(ctx, sub.ID, err)
	}

	student, err := s.store.GetStudent(ctx, sub.StudentID)
	if err != nil {
		return s.fail(ctx, sub.ID, err)
	}
	if student.Username == "" {
		err := fmt.Errorf("no roster mapping for student %s", sub.StudentID)
		return s.fail(ctx, sub.ID, err)
	}

	if err := s.classroom.PostScore(ctx, a.ID, Score{
		UserID:           student.Username,
		ScoreGiven:       float64(sub.Grade),
		ScoreMaximum:     scoreMaximum,
		ActivityProgress: "Completed",
		GradingProgress:  "FullyGraded",
		Timestamp:        s.now(),
	}); err != nil {
		return s.fail(ctx, sub.ID, err)
	}
	return s.store.SetSyncState(ctx, sub.ID, store.SyncOK, "")
}

func (s *Syncer) fail(ctx context.Context, submissionID string, err error) error {
	_ = s.store.SetSyncState(ctx, submissionID, store.SyncFailed, err.Error())
	return err
}

// SyncPending sweeps every submission waiting on a grade post. Failures are
// logged and left in the failed state for the next sweep; one bad submission
// never blocks the rest.
func (s *Syncer) SyncPending(ctx context.Context) (int, error) {
	subs, err := s.store.ListSubmissions(ctx, store.ListSubmissionsOpts{SyncState: store.SyncPending})
	if err != nil {
		return 0, err
	}
	synced := 0
	for _, sub := range subs {
		if err := ctx.Err(); err != nil {
			return synced, err
		}
		if err := s.SyncSubmission(ctx, sub.ID); err != nil {
			s.logf("sync submission %s: %v", sub.ID, err)
			continue
		}
		synced++
	}
	return synced, nil
}

// Run sweeps on an interval until the context ends. The first sweep happens
// immediately.
func (s *Syncer) Run(ctx context.Context, interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		if n, err := s.SyncPending(ctx); err == nil && n > 0 {
			s.logf("posted %d grade(s) upstream", n)
		}
		select {
		case <-ctx.Done():
			return
		case <-t.C:
		}
	}
}
