package photo

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/staffphoto/service/internal/db"
	"github.com/staffphoto/service/internal/employee"
)

// CreateInput holds the columns written when a photo is recorded.
type CreateInput struct {
	URL        string
	Key        string
	EmployeeID string // internal employee id
	Status     Status
}

// Repository handles all photo database operations.
type Repository struct {
	db db.Queryer
}

// NewRepository creates a new Repository. Calls use the transaction in ctx when present.
func NewRepository(q db.Queryer) *Repository {
	return &Repository{db: q}
}

const photoColumns = `id, url, key, employee_id, status, created_at`

// Create inserts a photo row. An empty status is stored as unprocessed.
func (r *Repository) Create(ctx context.Context, in CreateInput) (*Photo, error) {
	if in.Status == "" {
		in.Status = StatusUnprocessed
	}
	q := db.QueryerFromContext(ctx, r.db)

	p := &Photo{}
	var status string
	err := q.QueryRow(ctx,
		`INSERT INTO photos (url, key, employee_id, status)
		 VALUES ($1, $2, $3, $4)
		 RETURNING `+photoColumns,
		in.URL, in.Key, in.EmployeeID, string(in.Status),
	).Scan(&p.ID, &p.URL, &p.Key, &p.EmployeeID, &status, &p.CreatedAt)
	if err != nil {
		return nil, translate("create photo", err)
	}
	p.Status = Status(status)
	return p, nil
}

// List returns one page of photos with their employees, newest first.
func (r *Repository) List(ctx context.Context, page, pageSize int, f Filter) ([]Photo, error) {
	where, args := f.where()
	args = append(args, pageSize, (page-1)*pageSize)
	q := db.QueryerFromContext(ctx, r.db)

	rows, err := q.Query(ctx,
		`SELECT p.id, p.url, p.key, p.employee_id, p.status, p.created_at,
		        e.id, e.employee_id, e.name, e.phone, e.department, e.created_at
		 FROM photos p JOIN employees e ON e.id = p.employee_id`+where+`
		 ORDER BY p.created_at DESC, p.id DESC
		 LIMIT $`+fmt.Sprint(len(args)-1)+` OFFSET $`+fmt.Sprint(len(args)),
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("list photos: %w", err)
	}
	defer rows.Close()

	photos := make([]Photo, 0, pageSize)
	for rows.Next() {
		var (
			p      Photo
			e      employee.Employee
			status string
		)
		if err := rows.Scan(
			&p.ID, &p.URL, &p.Key, &p.EmployeeID, &status, &p.CreatedAt,
			&e.ID, &e.EmployeeID, &e.Name, &e.Phone, &e.Department, &e.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan photo: %w", err)
		}
		p.Status = Status(status)
		p.Employee = &e
		photos = append(photos, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list photos: %w", err)
	}
	return photos, nil
}

// Count returns the number of photos matching f.
func (r *Repository) Count(ctx context.Context, f Filter) (int, error) {
	where, args := f.where()
	q := db.QueryerFromContext(ctx, r.db)

	var total int64
	err := q.QueryRow(ctx,
		`SELECT count(*) FROM photos p JOIN employees e ON e.id = p.employee_id`+where,
		args...,
	).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("count photos: %w", err)
	}
	return int(total), nil
}

// GetByID fetches a photo by its UUID.
func (r *Repository) GetByID(ctx context.Context, id string) (*Photo, error) {
	q := db.QueryerFromContext(ctx, r.db)

	p := &Photo{}
	var status string
	err := q.QueryRow(ctx,
		`SELECT `+photoColumns+` FROM photos WHERE id = $1`,
		id,
	).Scan(&p.ID, &p.URL, &p.Key, &p.EmployeeID, &status, &p.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get photo by id: %w", err)
	}
	p.Status = Status(status)
	return p, nil
}

// UpdateStatus sets the status of the photo with id.
func (r *Repository) UpdateStatus(ctx context.Context, id string, status Status) error {
	q := db.QueryerFromContext(ctx, r.db)

	tag, err := q.Exec(ctx, `UPDATE photos SET status = $1 WHERE id = $2`, string(status), id)
	if err != nil {
		return translate("update photo status", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes the photo row with id.
func (r *Repository) Delete(ctx context.Context, id string) error {
	q := db.QueryerFromContext(ctx, r.db)

	tag, err := q.Exec(ctx, `DELETE FROM photos WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete photo: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// where renders f as a SQL condition over photos p joined with employees e.
func (f Filter) where() (string, []any) {
	var (
		conds []string
		args  []any
	)
	if f.Search != "" {
		args = append(args, f.Search)
		n := len(args)
		conds = append(conds, fmt.Sprintf("(strpos(e.name, $%d) > 0 OR strpos(e.employee_id, $%d) > 0)", n, n))
	}
	if f.Department != "" {
		args = append(args, f.Department)
		conds = append(conds, fmt.Sprintf("e.department = $%d", len(args)))
	}
	if f.Status != "" {
		args = append(args, string(f.Status))
		conds = append(conds, fmt.Sprintf("p.status = $%d", len(args)))
	}
	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func translate(op string, err error) error {
	switch {
	case db.IsForeignKeyViolation(err):
		return ErrEmployeeNotFound
	case db.IsCheckViolation(err):
		return ErrInvalidStatus
	case db.IsUniqueViolation(err):
		return ErrAlreadyRecorded
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}
