package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/oerms/oerms-backend/internal/model"
)

const resultColumns = `id, student_id, exam_id, institution_id, scores, grade, status, remarks, is_published, published_at,
	uploaded_by, created_at, updated_at`

// ResultRepository handles result and publication data access.
type ResultRepository struct {
	pool *pgxpool.Pool
}

// NewResultRepository creates a new ResultRepository.
func NewResultRepository(pool *pgxpool.Pool) *ResultRepository {
	return &ResultRepository{pool: pool}
}

func scanResult(row pgx.Row, r *model.Result) error {
	return row.Scan(&r.ID, &r.StudentID, &r.ExamID, &r.InstitutionID, &r.Scores, &r.Grade, &r.Status, &r.Remarks,
		&r.IsPublished, &r.PublishedAt, &r.UploadedBy, &r.CreatedAt, &r.UpdatedAt)
}

// GetByID retrieves a result by ID.
func (r *ResultRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Result, error) {
	res := &model.Result{}
	if err := scanResult(r.pool.QueryRow(ctx, `SELECT `+resultColumns+` FROM results WHERE id = $1`, id), res); err != nil {
		return nil, mapError(err)
	}
	return res, nil
}

// ListPaginated retrieves results matching f.
func (r *ResultRepository) ListPaginated(ctx context.Context, f model.ResultFilter, limit, offset int) ([]model.Result, int, error) {
	var w where
	if f.StudentID != nil {
		w.add("student_id = ?", *f.StudentID)
	}
	if f.ExamID != nil {
		w.add("exam_id = ?", *f.ExamID)
	}
	if f.InstitutionID != nil {
		w.add("institution_id = ?", *f.InstitutionID)
	}
	if f.PublishedOnly {
		w.raw("is_published")
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM results`+w.String(), w.args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	clause, args := w.page(limit, offset)
	rows, err := r.pool.Query(ctx, `SELECT `+resultColumns+` FROM results`+w.String()+` ORDER BY created_at DESC`+clause, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []model.Result
	for rows.Next() {
		var res model.Result
		if err := scanResult(rows, &res); err != nil {
			return nil, 0, err
		}
		out = append(out, res)
	}
	return out, total, rows.Err()
}

// Create inserts an unpublished result.
func (r *ResultRepository) Create(ctx context.Context, res *model.Result) error {
	if res.Scores == nil {
		res.Scores = map[string]float64{}
	}
	err := r.pool.QueryRow(ctx,
		`INSERT INTO results (student_id, exam_id, institution_id, scores, grade, status, remarks, uploaded_by)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING id, is_published, created_at, updated_at`,
		res.StudentID, res.ExamID, res.InstitutionID, res.Scores, res.Grade, string(res.Status), res.Remarks, res.UploadedBy,
	).Scan(&res.ID, &res.IsPublished, &res.CreatedAt, &res.UpdatedAt)
	return mapError(err)
}

// Update amends a result's outcome fields.
func (r *ResultRepository) Update(ctx context.Context, res *model.Result) error {
	if res.Scores == nil {
		res.Scores = map[string]float64{}
	}
	return expectOne(r.pool.Exec(ctx,
		`UPDATE results SET scores = $1, grade = $2, status = $3, remarks = $4, uploaded_by = $5, updated_at = CURRENT_TIMESTAMP
		 WHERE id = $6`,
		res.Scores, res.Grade, string(res.Status), res.Remarks, res.UploadedBy, res.ID,
	))
}

// PublishOne publishes a single result. changed is false when it was
// already published.
func (r *ResultRepository) PublishOne(ctx context.Context, id uuid.UUID, at time.Time) (bool, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE results SET is_published = TRUE, published_at = $1, updated_at = CURRENT_TIMESTAMP
		 WHERE id = $2 AND NOT is_published`, at, id)
	if err != nil {
		return false, err
	}
	if tag.RowsAffected() == 1 {
		return true, nil
	}
	if _, err := r.GetByID(ctx, id); err != nil {
		return false, err
	}
	return false, nil
}

// PublishExam publishes every unpublished result of an exam and records the
// publication in one transaction. It returns the publication and the
// students whose results were newly published.
func (r *ResultRepository) PublishExam(ctx context.Context, examID, by uuid.UUID, notes string, at time.Time) (*model.Publication, []uuid.UUID, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, nil, err
	}
	defer tx.Rollback(ctx)

	rows, err := tx.Query(ctx,
		`UPDATE results SET is_published = TRUE, published_at = $1, updated_at = CURRENT_TIMESTAMP
		 WHERE exam_id = $2 AND NOT is_published
		 RETURNING student_id`, at, examID)
	if err != nil {
		return nil, nil, fmt.Errorf("publish results: %w", err)
	}
	students, err := pgx.CollectRows(rows, pgx.RowTo[uuid.UUID])
	if err != nil {
		return nil, nil, fmt.Errorf("collect students: %w", err)
	}

	pub := &model.Publication{ExamID: examID, PublishedBy: by, TotalResults: len(students), Notes: notes}
	if err := tx.QueryRow(ctx,
		`INSERT INTO result_publications (exam_id, published_by, total_results, notes, published_at)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, published_at`,
		examID, by, pub.TotalResults, notes, at,
	).Scan(&pub.ID, &pub.PublishedAt); err != nil {
		return nil, nil, fmt.Errorf("record publication: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, nil, err
	}
	return pub, students, nil
}

// ListPublications lists the publication records of an exam.
func (r *ResultRepository) ListPublications(ctx context.Context, examID uuid.UUID) ([]model.Publication, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, exam_id, published_by, total_results, notes, published_at
		 FROM result_publications WHERE exam_id = $1 ORDER BY published_at DESC`, examID)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.Publication, error) {
		var p model.Publication
		err := row.Scan(&p.ID, &p.ExamID, &p.PublishedBy, &p.TotalResults, &p.Notes, &p.PublishedAt)
		return p, err
	})
}

// SearchPublished looks published results up by the public keys in q.
func (r *ResultRepository) SearchPublished(ctx context.Context, q model.PublicSearchQuery, limit int) ([]model.PublicResult, error) {
	var w where
	w.raw("r.is_published")
	if q.CandidateNumber != "" {
		w.add("g.candidate_number = ?", q.CandidateNumber)
	}
	if q.StudentNumber != "" {
		w.add("s.student_number = ?", q.StudentNumber)
	}
	if q.ExamID != "" {
		w.add("r.exam_id = ?", q.ExamID)
	}
	w.args = append(w.args, limit)

	rows, err := r.pool.Query(ctx,
		`SELECT COALESCE(g.candidate_number, ''), s.student_number, s.first_name || ' ' || s.last_name,
		        i.name, e.code, e.title, r.grade, r.status, r.published_at
		 FROM results r
		 JOIN students s ON s.id = r.student_id
		 JOIN institutions i ON i.id = r.institution_id
		 JOIN exams e ON e.id = r.exam_id
		 LEFT JOIN registrations g ON g.student_id = r.student_id AND g.exam_id = r.exam_id`+
			w.String()+` ORDER BY r.published_at DESC LIMIT $`+fmt.Sprint(len(w.args)),
		w.args...)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.PublicResult, error) {
		var p model.PublicResult
		err := row.Scan(&p.CandidateNumber, &p.StudentNumber, &p.StudentName, &p.InstitutionName,
			&p.ExamCode, &p.ExamTitle, &p.Grade, &p.Status, &p.PublishedAt)
		return p, err
	})
}

// CountPublished counts published results.
func (r *ResultRepository) CountPublished(ctx context.Context) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM results WHERE is_published`).Scan(&n)
	return n, err
}

// Summary counts the results matching f by status. PassRate is left to the
// caller.
func (r *ResultRepository) Summary(ctx context.Context, f model.ResultFilter) (*model.ResultSummary, error) {
	var w where
	if f.ExamID != nil {
		w.add("exam_id = ?", *f.ExamID)
	}
	if f.InstitutionID != nil {
		w.add("institution_id = ?", *f.InstitutionID)
	}
	if f.StudentID != nil {
		w.add("student_id = ?", *f.StudentID)
	}
	if f.PublishedOnly {
		w.raw("is_published")
	}

	sum := &model.ResultSummary{}
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*),
		        COUNT(*) FILTER (WHERE status = 'pass'),
		        COUNT(*) FILTER (WHERE status = 'fail'),
		        COUNT(*) FILTER (WHERE status = 'absent'),
		        COUNT(*) FILTER (WHERE status = 'pending'),
		        COUNT(*) FILTER (WHERE is_published)
		 FROM results`+w.String(), w.args...,
	).Scan(&sum.Total, &sum.Passed, &sum.Failed, &sum.Absent, &sum.Pending, &sum.Published)
	if err != nil {
		return nil, err
	}
	return sum, nil
}

// InstitutionBreakdown counts an exam's results per institution, largest first.
func (r *ResultRepository) InstitutionBreakdown(ctx context.Context, examID uuid.UUID) ([]model.InstitutionCount, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT i.id, i.name, COUNT(*), COUNT(*) FILTER (WHERE res.status = 'pass')
		 FROM results res
		 JOIN institutions i ON i.id = res.institution_id
		 WHERE res.exam_id = $1
		 GROUP BY i.id, i.name
		 ORDER BY COUNT(*) DESC, i.name`, examID)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.InstitutionCount, error) {
		var c model.InstitutionCount
		err := row.Scan(&c.InstitutionID, &c.InstitutionName, &c.Count, &c.Passed)
		return c, err
	})
}
