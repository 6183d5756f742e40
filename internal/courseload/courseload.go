// Package courseload seeds the store from YAML course definitions so a fresh
// or offline install starts with its roster, problems, and problem sets in
// place.
package courseload

import (
	"context"
	"fmt"
	"os"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"

	"github.com/classworks/gradekeeper/internal/rubric"
	"github.com/classworks/gradekeeper/internal/store"
)

// Courseload is one seed file. Problem-set items reference problems, nested
// sets, or coursework imports by tagged id.
type Courseload struct {
	Students    []StudentSeed    `yaml:"students"`
	Problems    []ProblemSeed    `yaml:"problems"`
	ProblemSets []ProblemSetSeed `yaml:"problem_sets"`
}

type StudentSeed struct {
	ID         string `yaml:"id"`
	Username   string `yaml:"username"`
	Name       string `yaml:"name"`
	Role       string `yaml:"role"`
	Section    string `yaml:"section"`
	GithubUser string `yaml:"github_user"`
	Password   string `yaml:"password"` // hashed before storage, staff only
}

type ProblemSeed struct {
	ID       string         `yaml:"id"`
	Title    string         `yaml:"title"`
	Strategy string         `yaml:"strategy"`
	Params   map[string]any `yaml:"params"`
}

type ProblemSetSeed struct {
	ID          string     `yaml:"id"`
	Title       string     `yaml:"title"`
	NumRequired int        `yaml:"num_required"`
	AvgMethod   string     `yaml:"avg_method"`
	Requirement string     `yaml:"requirement"`
	Items       []ItemSeed `yaml:"items"`
}

type ItemSeed struct {
	Target      string `yaml:"target"`
	Title       string `yaml:"title"`
	Sequence    int    `yaml:"sequence"`
	Requirement string `yaml:"requirement"`
	Comfort     string `yaml:"comfort"`
	AvgMethod   string `yaml:"avg_method"`
	NumRequired int    `yaml:"num_required"`
}

// Load reads and validates one seed file.
func Load(path string) (*Courseload, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cl Courseload
	if err := yaml.Unmarshal(data, &cl); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := cl.validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &cl, nil
}

func (cl *Courseload) validate() error {
	problems := map[string]bool{}
	for _, p := range cl.Problems {
		if !rubric.IsProblemID(p.ID) {
			return fmt.Errorf("problem id %q must start with %q", p.ID, rubric.ProblemTag)
		}
		if problems[p.ID] {
			return fmt.Errorf("duplicate problem id %q", p.ID)
		}
		problems[p.ID] = true
	}
	sets := map[string]bool{}
	for _, ps := range cl.ProblemSets {
		if !rubric.IsProblemSetID(ps.ID) {
			return fmt.Errorf("problem set id %q must start with %q", ps.ID, rubric.ProblemSetTag)
		}
		if sets[ps.ID] {
			return fmt.Errorf("duplicate problem set id %q", ps.ID)
		}
		sets[ps.ID] = true
	}
	for _, ps := range cl.ProblemSets {
		for _, it := range ps.Items {
			switch {
			case rubric.IsProblemID(it.Target):
				if !problems[it.Target] {
					return fmt.Errorf("set %s references unknown problem %q", ps.ID, it.Target)
				}
			case rubric.IsProblemSetID(it.Target):
				if !sets[it.Target] {
					return fmt.Errorf("set %s references unknown set %q", ps.ID, it.Target)
				}
			case rubric.IsCourseworkID(it.Target):
				// Resolved against the referenced set's submissions at grading
				// time; the set itself may be seeded elsewhere.
				suffix := strings.TrimPrefix(it.Target, rubric.CourseworkTag)
				if suffix == "" {
					return fmt.Errorf("set %s has empty coursework target", ps.ID)
				}
			default:
				return fmt.Errorf("set %s item target %q has no recognized tag", ps.ID, it.Target)
			}
		}
	}
	for _, s := range cl.Students {
		if s.ID == "" || s.Username == "" {
			return fmt.Errorf("student %q needs both id and username", s.ID+s.Username)
		}
	}
	return nil
}

// Apply upserts everything in the seed into the store. Problem sets pass
// through Normalize inside the store layer, so seed files may use sparse
// sequence numbers.
func (cl *Courseload) Apply(ctx context.Context, st store.Store) error {
	for _, s := range cl.Students {
		stu := store.Student{
			ID:         s.ID,
			Username:   s.Username,
			Name:       s.Name,
			Role:       s.Role,
			SectionID:  s.Section,
			GithubUser: s.GithubUser,
		}
		if stu.Role == "" {
			stu.Role = "student"
		}
		if s.Password != "" {
			hash, err := bcrypt.GenerateFromPassword([]byte(s.Password), bcrypt.DefaultCost)
			if err != nil {
				return fmt.Errorf("hash password for %s: %w", s.ID, err)
			}
			stu.PasswordHash = string(hash)
		}
		if err := st.PutStudent(ctx, stu); err != nil {
			return fmt.Errorf("seed student %s: %w", s.ID, err)
		}
	}
	for _, p := range cl.Problems {
		if err := st.PutProblem(ctx, store.Problem{
			ID:       p.ID,
			Title:    p.Title,
			Strategy: p.Strategy,
			Params:   p.Params,
		}); err != nil {
			return fmt.Errorf("seed problem %s: %w", p.ID, err)
		}
	}
	for _, ps := range cl.ProblemSets {
		set := store.ProblemSet{
			ID:          ps.ID,
			Title:       ps.Title,
			NumRequired: ps.NumRequired,
			AvgMethod:   rubric.AvgMethod(ps.AvgMethod),
			Requirement: rubric.RequirementType(ps.Requirement),
		}
		for _, it := range ps.Items {
			set.Items = append(set.Items, store.ProblemSetItem{
				TargetID:    it.Target,
				Title:       it.Title,
				Sequence:    it.Sequence,
				Requirement: rubric.RequirementType(it.Requirement),
				Comfort:     rubric.ComfortLevel(it.Comfort),
				AvgMethod:   rubric.AvgMethod(it.AvgMethod),
				NumRequired: it.NumRequired,
			})
		}
		if err := st.PutProblemSet(ctx, set); err != nil {
			return fmt.Errorf("seed problem set %s: %w", ps.ID, err)
		}
	}
	return nil
}
