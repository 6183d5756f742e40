package store

import (
	"sort"

	"github.com/classworks/gradekeeper/internal/rubric"
)

// Student is one enrolled account. GithubUser feeds the repository inspector;
// PasswordHash is only set for staff accounts that log in directly.
type Student struct {
	ID           string `json:"id"`
	Username     string `json:"username"`
	Name         string `json:"name"`
	Role         string `json:"role"` // student|teacher|admin
	SectionID    string `json:"section_id,omitempty"`
	GithubUser   string `json:"github_user,omitempty"`
	PasswordHash string `json:"-"`
}

// Problem is one gradable assignment. Strategy names the automated scoring
// routine; empty or unknown names leave the problem manual-only.
type Problem struct {
	ID       string         `json:"id"`
	Title    string         `json:"title"`
	Strategy string         `json:"strategy,omitempty"`
	Params   map[string]any `json:"params,omitempty"` // strategy knobs (required files, judge slug, ...)
}

// ProblemSet groups items into one rubric node.
type ProblemSet struct {
	ID          string                 `json:"id"`
	Title       string                 `json:"title"`
	NumRequired int                    `json:"num_required"`
	AvgMethod   rubric.AvgMethod       `json:"avg_method,omitempty"`
	Requirement rubric.RequirementType `json:"requirement,omitempty"`
	Items       []ProblemSetItem       `json:"items"`
}

// ProblemSetItem is one ordered slot in a set: a problem, a nested set, or a
// coursework import, discriminated by the target id's tag prefix.
type ProblemSetItem struct {
	TargetID    string                 `json:"target_id"`
	Title       string                 `json:"title,omitempty"`
	Sequence    int                    `json:"sequence"`
	Requirement rubric.RequirementType `json:"requirement,omitempty"`
	Comfort     rubric.ComfortLevel    `json:"comfort,omitempty"`
	AvgMethod   rubric.AvgMethod       `json:"avg_method,omitempty"`
	NumRequired int                    `json:"num_required,omitempty"` // nested sets only
}

// Ref converts a stored item to the form the rubric cursor consumes.
func (it ProblemSetItem) Ref() rubric.ItemRef {
	return rubric.ItemRef{
		ID:          it.TargetID,
		Title:       it.Title,
		Sequence:    it.Sequence,
		Requirement: it.Requirement,
		Comfort:     it.Comfort,
		AvgMethod:   it.AvgMethod,
		NumRequired: it.NumRequired,
	}
}

// Submission is one student's graded state for one problem set. RubricJSON is
// the persisted tree; Grade is the scaled composite posted upstream.
type Submission struct {
	ID           string `json:"id"`
	StudentID    string `json:"student_id"`
	ProblemSetID string `json:"problem_set_id"`
	RepoURL      string `json:"repo_url,omitempty"`
	SiteURL      string `json:"site_url,omitempty"`
	RubricJSON   string `json:"-"`
	Grade        int    `json:"grade"`
	SyncState    string `json:"sync_state"` // pending|ok|failed
	SyncMessage  string `json:"sync_message,omitempty"`
	CreatedAt    int64  `json:"created_at"`
	GradedAt     int64  `json:"graded_at,omitempty"`
}

// Sync states for the roster syncer.
const (
	SyncPending = "pending"
	SyncOK      = "ok"
	SyncFailed  = "failed"
)

// JudgeResult caches the external judge's numbers for one student+problem so
// grading passes work offline between refreshes.
type JudgeResult struct {
	SubmissionID string `json:"submission_id"`
	ProblemID    string `json:"problem_id"`
	ChecksPassed int    `json:"checks_passed"`
	ChecksRun    int    `json:"checks_run"`
	StyleScore   int    `json:"style_score"` // percent, 0..100
}

func avgMethod(s string) rubric.AvgMethod {
	if s == "" {
		return rubric.AvgBool
	}
	return rubric.AvgMethod(s)
}

func requirement(s string) rubric.RequirementType {
	if s == "" {
		return rubric.Required
	}
	return rubric.RequirementType(s)
}

// Normalize repairs a set after item edits: sequences become a dense 1..n run
// in stored order, and num_required is raised to the REQUIRED+CHOICE item
// count when stored below it. A num_required that trails the countable items
// would let the consensus trim discard real children's grades; a value above
// the count is kept and surfaces as a pool-exhausted warning at grade time.
func (ps *ProblemSet) Normalize() {
	sort.SliceStable(ps.Items, func(i, j int) bool {
		return ps.Items[i].Sequence < ps.Items[j].Sequence
	})
	countable := 0
	for i := range ps.Items {
		ps.Items[i].Sequence = i + 1
		if ps.Items[i].Requirement != rubric.Optional {
			countable++
		}
	}
	if ps.NumRequired < countable {
		ps.NumRequired = countable
	}
}
