// Package employee manages employee records and their persistence.
package employee

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/staffphoto/service/internal/db"
)

// NotProvided is stored for optional fields the uploader left empty.
const NotProvided = "未提供"

// Employee is a person whose photo is collected, identified externally by EmployeeID.
type Employee struct {
	ID         string    `json:"id"`
	EmployeeID string    `json:"employeeId"`
	Name       string    `json:"name"`
	Phone      string    `json:"phone"`
	Department string    `json:"department"`
	CreatedAt  time.Time `json:"createdAt"`
}

// UpsertInput holds the fields written on create and on overwrite.
type UpsertInput struct {
	EmployeeID string
	Name       string
	Phone      string
	Department string
}

// Normalize trims every field and fills empty Name/Phone with NotProvided.
func (in UpsertInput) Normalize() UpsertInput {
	in.EmployeeID = strings.TrimSpace(in.EmployeeID)
	in.Department = strings.TrimSpace(in.Department)
	in.Name = orNotProvided(in.Name)
	in.Phone = orNotProvided(in.Phone)
	return in
}

func orNotProvided(s string) string {
	if s = strings.TrimSpace(s); s == "" {
		return NotProvided
	}
	return s
}

// ErrNotFound is returned when an employee does not exist.
var ErrNotFound = errors.New("employee not found")

// Repository handles all employee database operations.
type Repository struct {
	db db.Queryer
}

// NewRepository creates a new Repository. Calls use the transaction in ctx when present.
func NewRepository(q db.Queryer) *Repository {
	return &Repository{db: q}
}

const employeeColumns = `id, employee_id, name, phone, department, created_at`

// Upsert creates the employee when EmployeeID is unseen and otherwise overwrites
// name, phone and department. Concurrent calls rely on the unique constraint.
func (r *Repository) Upsert(ctx context.Context, in UpsertInput) (*Employee, error) {
	q := db.QueryerFromContext(ctx, r.db)

	e := &Employee{}
	err := q.QueryRow(ctx,
		`INSERT INTO employees (employee_id, name, phone, department)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (employee_id) DO UPDATE
		 SET name = EXCLUDED.name, phone = EXCLUDED.phone, department = EXCLUDED.department
		 RETURNING `+employeeColumns,
		in.EmployeeID, in.Name, in.Phone, in.Department,
	).Scan(&e.ID, &e.EmployeeID, &e.Name, &e.Phone, &e.Department, &e.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("upsert employee %q: %w", in.EmployeeID, err)
	}
	return e, nil
}

// GetByEmployeeID fetches an employee by the external employee number.
func (r *Repository) GetByEmployeeID(ctx context.Context, employeeID string) (*Employee, error) {
	q := db.QueryerFromContext(ctx, r.db)

	e := &Employee{}
	err := q.QueryRow(ctx,
		`SELECT `+employeeColumns+` FROM employees WHERE employee_id = $1`,
		employeeID,
	).Scan(&e.ID, &e.EmployeeID, &e.Name, &e.Phone, &e.Department, &e.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get employee %q: %w", employeeID, err)
	}
	return e, nil
}
