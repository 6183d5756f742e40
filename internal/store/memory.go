package store

import (
	"context"
	"sort"
	"sync"
)

// MemStore is the in-memory Store used by tests and by offline single-teacher
// runs seeded from YAML.
type MemStore struct {
	mu          sync.RWMutex
	students    map[string]Student
	problems    map[string]Problem
	problemSets map[string]ProblemSet
	submissions map[string]Submission
	judge       map[string]JudgeResult // submissionID+"/"+problemID
}

func NewMemStore() *MemStore {
	return &MemStore{
		students:    map[string]Student{},
		problems:    map[string]Problem{},
		problemSets: map[string]ProblemSet{},
		submissions: map[string]Submission{},
		judge:       map[string]JudgeResult{},
	}
}

func (m *MemStore) PutStudent(_ context.Context, s Student) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.students[s.ID] = s
	return nil
}

func (m *MemStore) GetStudent(_ context.Context, id string) (Student, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.students[id]
	if !ok {
		return Student{}, ErrNotFound
	}
	return s, nil
}

func (m *MemStore) GetStudentByUsername(_ context.Context, username string) (Student, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, s := range m.students {
		if s.Username == username {
			return s, nil
		}
	}
	return Student{}, ErrNotFound
}

func (m *MemStore) ListStudents(_ context.Context, sectionID string) ([]Student, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []Student
	for _, s := range m.students {
		if sectionID == "" || s.SectionID == sectionID {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out, nil
}

func (m *MemStore) PutProblem(_ context.Context, p Problem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.problems[p.ID] = p
	return nil
}

func (m *MemStore) GetProblem(_ context.Context, id string) (Problem, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.problems[id]
	if !ok {
		return Problem{}, ErrNotFound
	}
	return p, nil
}

func (m *MemStore) PutProblemSet(_ context.Context, ps ProblemSet) error {
	ps.Normalize()
	m.mu.Lock()
	defer m.mu.Unlock()
	m.problemSets[ps.ID] = ps
	return nil
}

func (m *MemStore) GetProblemSet(_ context.Context, id string) (ProblemSet, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ps, ok := m.problemSets[id]
	if !ok {
		return ProblemSet{}, ErrNotFound
	}
	return ps, nil
}

func (m *MemStore) ListProblemSets(_ context.Context) ([]ProblemSet, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []ProblemSet
	for _, ps := range m.problemSets {
		out = append(out, ps)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *MemStore) PutSubmission(_ context.Context, sub Submission) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.submissions[sub.ID] = sub
	return nil
}

func (m *MemStore) GetSubmission(_ context.Context, id string) (Submission, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	sub, ok := m.submissions[id]
	if !ok {
		return Submission{}, ErrNotFound
	}
	return sub, nil
}

func (m *MemStore) LatestSubmission(_ context.Context, studentID, problemSetID string) (Submission, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var best Submission
	found := false
	for _, sub := range m.submissions {
		if sub.StudentID != studentID || sub.ProblemSetID != problemSetID {
			continue
		}
		if !found || sub.CreatedAt > best.CreatedAt {
			best = sub
			found = true
		}
	}
	if !found {
		return Submission{}, ErrNotFound
	}
	return best, nil
}

func (m *MemStore) ListSubmissions(_ context.Context, opts ListSubmissionsOpts) ([]Submission, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []Submission
	for _, sub := range m.submissions {
		if opts.StudentID != "" && sub.StudentID != opts.StudentID {
			continue
		}
		if opts.ProblemSetID != "" && sub.ProblemSetID != opts.ProblemSetID {
			continue
		}
		if opts.SyncState != "" && sub.SyncState != opts.SyncState {
			continue
		}
		out = append(out, sub)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt > out[j].CreatedAt })
	out = window(out, opts.Offset, opts.Limit)
	return out, nil
}

func (m *MemStore) SaveGrade(_ context.Context, submissionID, rubricJSON string, grade int, gradedAt int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	sub, ok := m.submissions[submissionID]
	if !ok {
		return ErrNotFound
	}
	sub.RubricJSON = rubricJSON
	sub.Grade = grade
	sub.GradedAt = gradedAt
	sub.SyncState = SyncPending
	m.submissions[submissionID] = sub
	return nil
}

func (m *MemStore) SetSyncState(_ context.Context, submissionID, state, message string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	sub, ok := m.submissions[submissionID]
	if !ok {
		return ErrNotFound
	}
	sub.SyncState = state
	sub.SyncMessage = message
	m.submissions[submissionID] = sub
	return nil
}

func (m *MemStore) PutJudgeResult(_ context.Context, jr JudgeResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.judge[jr.SubmissionID+"/"+jr.ProblemID] = jr
	return nil
}

func (m *MemStore) GetJudgeResult(_ context.Context, submissionID, problemID string) (JudgeResult, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	jr, ok := m.judge[submissionID+"/"+problemID]
	if !ok {
		return JudgeResult{}, ErrNotFound
	}
	return jr, nil
}

func window[T any](in []T, offset, limit int) []T {
	if offset > len(in) {
		return nil
	}
	in = in[offset:]
	if limit > 0 && limit < len(in) {
		in = in[:limit]
	}
	return in
}
