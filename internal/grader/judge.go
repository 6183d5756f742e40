package grader

import (
	"context"

	"github.com/classworks/gradekeeper/internal/rubric"
)

// judgeImport pulls correctness and style numbers from the external judge.
// Both criteria start at zero so a student with no judge record still has a
// complete rubric.
type judgeImport struct{}

func (judgeImport) Name() string { return "judge_import" }

func (judgeImport) Grade(ctx context.Context, c *rubric.Cursor, t *Target) error {
	c.Criterion("style", 100, 0).Category("PRODUCT").Score(0, 100)
	c.Criterion("checks passed", 1, 0).Category("EXPERTISE").Score(0, 1)
	if err := c.Err(); err != nil {
		return err
	}
	if t.judge == nil {
		return nil
	}

	slug, _ := t.Problem.Params["slug"].(string)
	if slug == "" {
		slug = t.Problem.ID
	}
	res, ok := t.judge.Result(ctx, t, slug)
	if !ok {
		return nil
	}
	c.Criterion("style", 100, 0).Score(res.StyleScore, 100)
	if res.ChecksRun > 0 {
		c.Criterion("checks passed", 1, 0).Score(res.ChecksPassed, res.ChecksRun)
	}
	return c.Err()
}
