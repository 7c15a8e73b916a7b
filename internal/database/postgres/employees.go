package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/kozaktomas/face-attendance/internal/database"
)

// Create inserts a new employee. Returns database.ErrDuplicateEmployee if
// the id is already taken; the existing row is left untouched.
func (p *Pool) Create(ctx context.Context, emp database.Employee) error {
	createdAt := emp.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	res, err := p.db.ExecContext(ctx, `
		INSERT INTO employees (employee_id, name, created_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (employee_id) DO NOTHING
	`, emp.ID, emp.Name, createdAt)
	if err != nil {
		return fmt.Errorf("inserting employee: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking insert result: %w", err)
	}
	if affected == 0 {
		return database.ErrDuplicateEmployee
	}
	return nil
}

// Get retrieves an employee by id, returns nil if not found.
func (p *Pool) Get(ctx context.Context, id string) (*database.Employee, error) {
	var emp database.Employee
	err := p.db.QueryRowContext(ctx, `
		SELECT employee_id, name, created_at
		FROM employees
		WHERE employee_id = $1
	`, id).Scan(&emp.ID, &emp.Name, &emp.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying employee: %w", err)
	}
	return &emp, nil
}

// List returns all employees ordered by creation time, newest first.
func (p *Pool) List(ctx context.Context) ([]database.Employee, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT employee_id, name, created_at
		FROM employees
		ORDER BY created_at DESC, employee_id
	`)
	if err != nil {
		return nil, fmt.Errorf("querying employees: %w", err)
	}
	defer rows.Close()

	var employees []database.Employee
	for rows.Next() {
		var emp database.Employee
		if err := rows.Scan(&emp.ID, &emp.Name, &emp.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning employee: %w", err)
		}
		employees = append(employees, emp)
	}
	return employees, rows.Err()
}

// Delete removes an employee; attendance records follow via the cascading
// foreign key. No-op if the employee does not exist.
func (p *Pool) Delete(ctx context.Context, id string) error {
	if _, err := p.db.ExecContext(ctx, "DELETE FROM employees WHERE employee_id = $1", id); err != nil {
		return fmt.Errorf("deleting employee: %w", err)
	}
	return nil
}
