package courseload

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/classworks/gradekeeper/internal/rubric"
	"github.com/classworks/gradekeeper/internal/store"
)

const seedYAML = `
students:
  - id: stu-1
    username: ada
    name: "Lovelace, Ada"
    section: sec-1
    github_user: ada
  - id: stu-t
    username: teach
    role: teacher
    password: swordfish

problems:
  - id: prob-mario
    title: mario
    strategy: judge_import
    params:
      slug: problems/mario
  - id: prob-site
    title: personal site
    strategy: multipage_website

problem_sets:
  - id: ps-week1
    title: Week 1
    num_required: 1
    items:
      - target: prob-mario
        title: mario
        sequence: 10
        requirement: CHOICE
      - target: prob-site
        title: personal site
        sequence: 20
        requirement: CHOICE
        comfort: MORE
  - id: ps-term
    title: Term
    items:
      - target: ps-week1
        title: Week 1
        sequence: 1
      - target: cw-week1
        title: Week 1 grade
        sequence: 2
`

func writeSeed(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "course.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadAndApply(t *testing.T) {
	ctx := context.Background()
	cl, err := Load(writeSeed(t, seedYAML))
	if err != nil {
		t.Fatal(err)
	}

	st := store.NewMemStore()
	if err := cl.Apply(ctx, st); err != nil {
		t.Fatal(err)
	}

	stu, err := st.GetStudent(ctx, "stu-1")
	if err != nil {
		t.Fatal(err)
	}
	if stu.Role != "student" || stu.SectionID != "sec-1" {
		t.Fatalf("student %+v", stu)
	}

	teacher, err := st.GetStudent(ctx, "stu-t")
	if err != nil {
		t.Fatal(err)
	}
	if teacher.Role != "teacher" {
		t.Fatalf("teacher role %q", teacher.Role)
	}
	if bcrypt.CompareHashAndPassword([]byte(teacher.PasswordHash), []byte("swordfish")) != nil {
		t.Fatal("password hash does not verify")
	}

	p, err := st.GetProblem(ctx, "prob-mario")
	if err != nil {
		t.Fatal(err)
	}
	if p.Strategy != "judge_import" || p.Params["slug"] != "problems/mario" {
		t.Fatalf("problem %+v", p)
	}

	// Sparse seed sequences come back normalized to a dense run.
	ps, err := st.GetProblemSet(ctx, "ps-week1")
	if err != nil {
		t.Fatal(err)
	}
	if ps.Items[0].Sequence != 1 || ps.Items[1].Sequence != 2 {
		t.Fatalf("sequences %d, %d", ps.Items[0].Sequence, ps.Items[1].Sequence)
	}
	if ps.Items[1].Comfort != rubric.ComfortMore {
		t.Fatalf("comfort %q", ps.Items[1].Comfort)
	}
}

func TestLoadRejectsBadReferences(t *testing.T) {
	cases := []struct {
		name string
		body string
		want string
	}{
		{
			"unknown problem",
			"problem_sets:\n  - id: ps-a\n    title: A\n    items:\n      - target: prob-ghost\n        sequence: 1\n",
			"unknown problem",
		},
		{
			"untagged target",
			"problem_sets:\n  - id: ps-a\n    title: A\n    items:\n      - target: mario\n        sequence: 1\n",
			"no recognized tag",
		},
		{
			"bad set id",
			"problem_sets:\n  - id: week1\n    title: A\n",
			"must start with",
		},
		{
			"duplicate problem",
			"problems:\n  - id: prob-a\n    title: a\n  - id: prob-a\n    title: again\n",
			"duplicate problem id",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(writeSeed(t, tc.body))
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("err = %v, want substring %q", err, tc.want)
			}
		})
	}
}
