package grader

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/classworks/gradekeeper/internal/inspect"
	"github.com/classworks/gradekeeper/internal/judge"
	"github.com/classworks/gradekeeper/internal/rubric"
	"github.com/classworks/gradekeeper/internal/store"
)

// Service grades submissions end to end: rehydrate the stored rubric, walk
// the problem set, dispatch strategies, aggregate, persist.
type Service struct {
	store         store.Store
	reg           *Registry
	cache         *inspect.URLCache
	judgeClient   *judge.Client
	workDir       string
	classroomHost string
	logf          func(format string, args ...interface{})
}

type Option func(*Service)

func WithJudge(c *judge.Client) Option         { return func(s *Service) { s.judgeClient = c } }
func WithWorkDir(dir string) Option            { return func(s *Service) { s.workDir = dir } }
func WithClassroomHost(host string) Option     { return func(s *Service) { s.classroomHost = host } }
func WithLogger(f func(string, ...interface{})) Option {
	return func(s *Service) { s.logf = f }
}

func NewService(st store.Store, reg *Registry, cache *inspect.URLCache, opts ...Option) *Service {
	s := &Service{
		store:   st,
		reg:     reg,
		cache:   cache,
		workDir: "studentwork",
		logf:    log.Printf,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// GradeSubmission runs one full grading pass. A strategy failure discards the
// partly-mutated tree and retries once from a blank rubric; a second failure
// surfaces, and nothing is persisted. Manual scores survive the normal path
// because they ride in on the rehydrated tree and automated scoring never
// overwrites them.
func (s *Service) GradeSubmission(ctx context.Context, submissionID string, force bool) (*rubric.Rubric, error) {
	sub, err := s.store.GetSubmission(ctx, submissionID)
	if err != nil {
		return nil, fmt.Errorf("load submission %s: %w", submissionID, err)
	}
	student, err := s.store.GetStudent(ctx, sub.StudentID)
	if err != nil {
		return nil, fmt.Errorf("load student %s: %w", sub.StudentID, err)
	}
	ps, err := s.store.GetProblemSet(ctx, sub.ProblemSetID)
	if err != nil {
		return nil, fmt.Errorf("load problem set %s: %w", sub.ProblemSetID, err)
	}

	r := s.rehydrate(sub, ps)
	if err := s.gradePass(ctx, r, sub, student, ps, force); err != nil {
		s.logf("grading %s failed (%v), retrying from a blank rubric", sub.ID, err)
		r = s.blank(ps)
		if err := s.gradePass(ctx, r, sub, student, ps, force); err != nil {
			return nil, fmt.Errorf("grade submission %s: %w", sub.ID, err)
		}
	}

	r.TotalScores(true)
	scaled := rubric.ScaledGrade(r.Root.Overall)
	data, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("encode rubric for %s: %w", sub.ID, err)
	}
	if err := s.store.SaveGrade(ctx, sub.ID, string(data), scaled, time.Now().Unix()); err != nil {
		return nil, fmt.Errorf("persist grade for %s: %w", sub.ID, err)
	}
	if err := s.cache.Save(); err != nil {
		s.logf("persist url cache: %v", err)
	}
	return r, nil
}

// rehydrate restores the stored tree so manual scores carry over. Unreadable
// JSON is never fatal: grading restarts from a blank rubric.
func (s *Service) rehydrate(sub store.Submission, ps store.ProblemSet) *rubric.Rubric {
	if sub.RubricJSON == "" {
		return s.blank(ps)
	}
	var r rubric.Rubric
	if err := json.Unmarshal([]byte(sub.RubricJSON), &r); err != nil {
		s.logf("stored rubric for %s unreadable (%v), starting blank", sub.ID, err)
		return s.blank(ps)
	}
	r.SetWarnFunc(s.logf)
	return &r
}

func (s *Service) blank(ps store.ProblemSet) *rubric.Rubric {
	r := rubric.New(rubric.ItemRef{
		ID:          ps.ID,
		Title:       ps.Title,
		Requirement: ps.Requirement,
		AvgMethod:   ps.AvgMethod,
		NumRequired: ps.NumRequired,
	})
	r.SetWarnFunc(s.logf)
	return r
}

func (s *Service) gradePass(ctx context.Context, r *rubric.Rubric, sub store.Submission, student store.Student, ps store.ProblemSet, force bool) error {
	var urls []string
	if sub.RepoURL != "" {
		urls = append(urls, sub.RepoURL)
	}
	if sub.SiteURL != "" {
		urls = append(urls, sub.SiteURL)
	}
	t := &Target{
		Student:    student,
		Submission: sub,
		URLs:       urls,
		Links:      inspect.ParseGitHubURLs(urls, s.classroomHost),
		cache:      s.cache,
		workDir:    s.workDir,
		force:      force,
		judge:      &storedJudge{store: s.store, client: s.judgeClient, logf: s.logf},
	}
	return s.walkSet(ctx, r.At(), ps, t, map[string]bool{ps.ID: true})
}

func (s *Service) walkSet(ctx context.Context, c *rubric.Cursor, ps store.ProblemSet, t *Target, visited map[string]bool) error {
	for _, item := range ps.Items {
		ref := item.Ref()
		switch {
		case rubric.IsProblemSetID(ref.ID):
			if visited[ref.ID] {
				s.logf("problem set %s references %s cyclically, skipping", ps.ID, ref.ID)
				continue
			}
			child, err := s.store.GetProblemSet(ctx, ref.ID)
			if err != nil {
				s.logf("problem set %s references missing set %s, skipping", ps.ID, ref.ID)
				continue
			}
			// An item-level override may raise the child's requirement count,
			// never lower it below the set's own normalized value.
			if ref.NumRequired < child.NumRequired {
				ref.NumRequired = child.NumRequired
			}
			visited[ref.ID] = true
			sub := c.Problem(&ref)
			if err := s.walkSet(ctx, sub, child, t, visited); err != nil {
				return err
			}
		case rubric.IsCourseworkID(ref.ID):
			if err := s.importCoursework(ctx, c, ref, t); err != nil {
				return err
			}
		default:
			p, err := s.store.GetProblem(ctx, ref.ID)
			if err != nil {
				s.logf("problem set %s references missing problem %s, skipping", ps.ID, ref.ID)
				continue
			}
			t.Problem = p
			cur := c.Problem(&ref)
			if err := s.reg.Resolve(p.Strategy).Grade(ctx, cur, t); err != nil {
				return fmt.Errorf("strategy %s on %s: %w", p.Strategy, p.ID, err)
			}
			if err := cur.Err(); err != nil {
				return err
			}
		}
	}
	return c.Err()
}

// importCoursework links another assignment's computed grades into this tree
// by reference. The coursework slot cw-<set> imports the student's latest
// graded submission for ps-<set>.
func (s *Service) importCoursework(ctx context.Context, c *rubric.Cursor, ref rubric.ItemRef, t *Target) error {
	targetSet := rubric.ProblemSetTag + strings.TrimPrefix(ref.ID, rubric.CourseworkTag)
	cur := c.Problem(&ref)
	imported, err := s.store.LatestSubmission(ctx, t.Student.ID, targetSet)
	if err != nil || imported.RubricJSON == "" {
		s.logf("no graded work to import for %s (%s)", ref.ID, t.Student.ID)
		return cur.Err()
	}
	var other rubric.Rubric
	if err := json.Unmarshal([]byte(imported.RubricJSON), &other); err != nil {
		s.logf("imported rubric for %s unreadable: %v", imported.ID, err)
		return cur.Err()
	}
	return cur.Coursework(&other).Err()
}

// storedJudge serves judge numbers from the local cache first and falls back
// to the live judge, persisting what it fetches.
type storedJudge struct {
	store  store.Store
	client *judge.Client
	logf   func(format string, args ...interface{})
}

func (j *storedJudge) Result(ctx context.Context, t *Target, slug string) (judge.Result, bool) {
	if jr, err := j.store.GetJudgeResult(ctx, t.Submission.ID, t.Problem.ID); err == nil {
		return judge.Result{ChecksPassed: jr.ChecksPassed, ChecksRun: jr.ChecksRun, StyleScore: jr.StyleScore}, true
	}
	if j.client == nil {
		return judge.Result{}, false
	}
	user := t.Student.GithubUser
	if user == "" {
		user = t.Student.Username
	}
	res, err := j.client.Results(ctx, slug, user)
	if err != nil {
		// The judge being down must not sink the grading pass.
		j.logf("judge lookup %s/%s: %v", slug, user, err)
		return judge.Result{}, false
	}
	if err := j.store.PutJudgeResult(ctx, store.JudgeResult{
		SubmissionID: t.Submission.ID,
		ProblemID:    t.Problem.ID,
		ChecksPassed: res.ChecksPassed,
		ChecksRun:    res.ChecksRun,
		StyleScore:   res.StyleScore,
	}); err != nil {
		j.logf("cache judge result %s/%s: %v", slug, user, err)
	}
	return res, true
}
