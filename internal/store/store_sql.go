package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
)

// SQLStore backs the Store interface with database/sql. Nested collections
// (set items, strategy params) ride as JSON columns, matching how the schema
// stores the rubric tree itself.
type SQLStore struct {
	db *sql.DB
}

func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db}
}

func (s *SQLStore) PutStudent(ctx context.Context, st Student) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO students (id,username,name,role,section_id,github_user,password_hash)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		ON CONFLICT (id) DO UPDATE SET username=EXCLUDED.username, name=EXCLUDED.name, role=EXCLUDED.role,
			section_id=EXCLUDED.section_id, github_user=EXCLUDED.github_user, password_hash=EXCLUDED.password_hash`,
		st.ID, st.Username, st.Name, st.Role, st.SectionID, st.GithubUser, st.PasswordHash)
	return err
}

const studentCols = `id,username,name,role,section_id,github_user,password_hash`

func scanStudent(row *sql.Row) (Student, error) {
	var st Student
	err := row.Scan(&st.ID, &st.Username, &st.Name, &st.Role, &st.SectionID, &st.GithubUser, &st.PasswordHash)
	if errors.Is(err, sql.ErrNoRows) {
		return Student{}, ErrNotFound
	}
	return st, err
}

func (s *SQLStore) GetStudent(ctx context.Context, id string) (Student, error) {
	return scanStudent(s.db.QueryRowContext(ctx, `SELECT `+studentCols+` FROM students WHERE id=$1`, id))
}

func (s *SQLStore) GetStudentByUsername(ctx context.Context, username string) (Student, error) {
	return scanStudent(s.db.QueryRowContext(ctx, `SELECT `+studentCols+` FROM students WHERE username=$1`, username))
}

func (s *SQLStore) ListStudents(ctx context.Context, sectionID string) ([]Student, error) {
	q := `SELECT ` + studentCols + ` FROM students ORDER BY username`
	args := []any{}
	if sectionID != "" {
		q = `SELECT ` + studentCols + ` FROM students WHERE section_id=$1 ORDER BY username`
		args = append(args, sectionID)
	}
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Student
	for rows.Next() {
		var st Student
		if err := rows.Scan(&st.ID, &st.Username, &st.Name, &st.Role, &st.SectionID, &st.GithubUser, &st.PasswordHash); err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	return out, rows.Err()
}

func (s *SQLStore) PutProblem(ctx context.Context, p Problem) error {
	params, err := json.Marshal(p.Params)
	if err != nil {
		return fmt.Errorf("encode problem params: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO problems (id,title,strategy,params_json)
		VALUES ($1,$2,$3,$4)
		ON CONFLICT (id) DO UPDATE SET title=EXCLUDED.title, strategy=EXCLUDED.strategy, params_json=EXCLUDED.params_json`,
		p.ID, p.Title, p.Strategy, string(params))
	return err
}

func (s *SQLStore) GetProblem(ctx context.Context, id string) (Problem, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id,title,strategy,params_json FROM problems WHERE id=$1`, id)
	var p Problem
	var params string
	if err := row.Scan(&p.ID, &p.Title, &p.Strategy, &params); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Problem{}, ErrNotFound
		}
		return Problem{}, err
	}
	if params != "" {
		if err := json.Unmarshal([]byte(params), &p.Params); err != nil {
			return Problem{}, fmt.Errorf("decode problem params: %w", err)
		}
	}
	return p, nil
}

func (s *SQLStore) PutProblemSet(ctx context.Context, ps ProblemSet) error {
	ps.Normalize()
	items, err := json.Marshal(ps.Items)
	if err != nil {
		return fmt.Errorf("encode set items: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO problem_sets (id,title,num_required,avg_method,requirement,items_json)
		VALUES ($1,$2,$3,$4,$5,$6)
		ON CONFLICT (id) DO UPDATE SET title=EXCLUDED.title, num_required=EXCLUDED.num_required,
			avg_method=EXCLUDED.avg_method, requirement=EXCLUDED.requirement, items_json=EXCLUDED.items_json`,
		ps.ID, ps.Title, ps.NumRequired, string(ps.AvgMethod), string(ps.Requirement), string(items))
	return err
}

func (s *SQLStore) GetProblemSet(ctx context.Context, id string) (ProblemSet, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id,title,num_required,avg_method,requirement,items_json FROM problem_sets WHERE id=$1`, id)
	return scanProblemSet(row)
}

func scanProblemSet(row *sql.Row) (ProblemSet, error) {
	var ps ProblemSet
	var avg, req, items string
	if err := row.Scan(&ps.ID, &ps.Title, &ps.NumRequired, &avg, &req, &items); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ProblemSet{}, ErrNotFound
		}
		return ProblemSet{}, err
	}
	ps.AvgMethod = avgMethod(avg)
	ps.Requirement = requirement(req)
	if err := json.Unmarshal([]byte(items), &ps.Items); err != nil {
		return ProblemSet{}, fmt.Errorf("decode set items: %w", err)
	}
	return ps, nil
}

func (s *SQLStore) ListProblemSets(ctx context.Context) ([]ProblemSet, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id,title,num_required,avg_method,requirement,items_json FROM problem_sets ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []ProblemSet
	for rows.Next() {
		var ps ProblemSet
		var avg, req, items string
		if err := rows.Scan(&ps.ID, &ps.Title, &ps.NumRequired, &avg, &req, &items); err != nil {
			return nil, err
		}
		ps.AvgMethod = avgMethod(avg)
		ps.Requirement = requirement(req)
		if err := json.Unmarshal([]byte(items), &ps.Items); err != nil {
			return nil, fmt.Errorf("decode set items: %w", err)
		}
		out = append(out, ps)
	}
	return out, rows.Err()
}

func (s *SQLStore) PutSubmission(ctx context.Context, sub Submission) error {
	if sub.SyncState == "" {
		sub.SyncState = SyncPending
	}
	_, err := s.db.ExecContext(ctx, `INSERT INTO submissions (id,student_id,problem_set_id,repo_url,site_url,rubric_json,grade,sync_state,sync_message,created_at,graded_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
		ON CONFLICT (id) DO UPDATE SET repo_url=EXCLUDED.repo_url, site_url=EXCLUDED.site_url`,
		sub.ID, sub.StudentID, sub.ProblemSetID, sub.RepoURL, sub.SiteURL, sub.RubricJSON,
		sub.Grade, sub.SyncState, sub.SyncMessage, sub.CreatedAt, sub.GradedAt)
	return err
}

const submissionCols = `id,student_id,problem_set_id,repo_url,site_url,rubric_json,grade,sync_state,sync_message,created_at,graded_at`

func scanSubmission(scan func(dest ...any) error) (Submission, error) {
	var sub Submission
	var gradedAt sql.NullInt64
	err := scan(&sub.ID, &sub.StudentID, &sub.ProblemSetID, &sub.RepoURL, &sub.SiteURL,
		&sub.RubricJSON, &sub.Grade, &sub.SyncState, &sub.SyncMessage, &sub.CreatedAt, &gradedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Submission{}, ErrNotFound
	}
	sub.GradedAt = gradedAt.Int64
	return sub, err
}

func (s *SQLStore) GetSubmission(ctx context.Context, id string) (Submission, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+submissionCols+` FROM submissions WHERE id=$1`, id)
	return scanSubmission(row.Scan)
}

func (s *SQLStore) LatestSubmission(ctx context.Context, studentID, problemSetID string) (Submission, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+submissionCols+` FROM submissions
		WHERE student_id=$1 AND problem_set_id=$2 ORDER BY created_at DESC LIMIT 1`, studentID, problemSetID)
	return scanSubmission(row.Scan)
}

func (s *SQLStore) ListSubmissions(ctx context.Context, opts ListSubmissionsOpts) ([]Submission, error) {
	q := `SELECT ` + submissionCols + ` FROM submissions WHERE 1=1`
	var args []any
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}
	if opts.StudentID != "" {
		q += ` AND student_id=` + arg(opts.StudentID)
	}
	if opts.ProblemSetID != "" {
		q += ` AND problem_set_id=` + arg(opts.ProblemSetID)
	}
	if opts.SyncState != "" {
		q += ` AND sync_state=` + arg(opts.SyncState)
	}
	q += ` ORDER BY created_at DESC`
	if opts.Limit > 0 {
		q += ` LIMIT ` + arg(opts.Limit)
	}
	if opts.Offset > 0 {
		q += ` OFFSET ` + arg(opts.Offset)
	}
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Submission
	for rows.Next() {
		sub, err := scanSubmission(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, sub)
	}
	return out, rows.Err()
}

func (s *SQLStore) SaveGrade(ctx context.Context, submissionID, rubricJSON string, grade int, gradedAt int64) error {
	res, err := s.db.ExecContext(ctx, `UPDATE submissions SET rubric_json=$1, grade=$2, graded_at=$3, sync_state=$4 WHERE id=$5`,
		rubricJSON, grade, gradedAt, SyncPending, submissionID)
	if err != nil {
		return err
	}
	return oneRow(res)
}

func (s *SQLStore) SetSyncState(ctx context.Context, submissionID, state, message string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE submissions SET sync_state=$1, sync_message=$2 WHERE id=$3`,
		state, message, submissionID)
	if err != nil {
		return err
	}
	return oneRow(res)
}

func (s *SQLStore) PutJudgeResult(ctx context.Context, jr JudgeResult) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO judge_results (submission_id,problem_id,checks_passed,checks_run,style_score)
		VALUES ($1,$2,$3,$4,$5)
		ON CONFLICT (submission_id,problem_id) DO UPDATE SET checks_passed=EXCLUDED.checks_passed,
			checks_run=EXCLUDED.checks_run, style_score=EXCLUDED.style_score`,
		jr.SubmissionID, jr.ProblemID, jr.ChecksPassed, jr.ChecksRun, jr.StyleScore)
	return err
}

func (s *SQLStore) GetJudgeResult(ctx context.Context, submissionID, problemID string) (JudgeResult, error) {
	row := s.db.QueryRowContext(ctx, `SELECT submission_id,problem_id,checks_passed,checks_run,style_score
		FROM judge_results WHERE submission_id=$1 AND problem_id=$2`, submissionID, problemID)
	var jr JudgeResult
	err := row.Scan(&jr.SubmissionID, &jr.ProblemID, &jr.ChecksPassed, &jr.ChecksRun, &jr.StyleScore)
	if errors.Is(err, sql.ErrNoRows) {
		return JudgeResult{}, ErrNotFound
	}
	return jr, err
}

func oneRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err == nil && n == 0 {
		return ErrNotFound
	}
	return err
}
