package employee

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"golang.org/x/sync/errgroup"
)

var (
	ErrNotFound            = errors.New("employee not found")
	ErrDuplicateEmail      = errors.New("duplicate active employee email")
	ErrDuplicateEmployeeID = errors.New("duplicate employee id")
)

const (
	uniqueViolation       = "23505"
	employeeIDConstraint  = "employees_employee_id_key"
	activeEmailConstraint = "employees_active_email_idx"
	employeeColumns       = `id, employee_id, first_name, last_name, email, phone, date_of_birth, address, department, position, level, manager_id, start_date, end_date, employment_type, status, salary, currency, pay_frequency, benefits, rating, last_review_date, goals, documents, is_active, created_at, updated_at`
)

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEmployee(row rowScanner) (Employee, error) {
	var (
		e                                   Employee
		dateOfBirth, startDate              time.Time
		endDate, lastReviewDate             sql.NullTime
		managerID                           sql.NullString
		salary                              float64
		rating                              sql.NullFloat64
		address, benefits, goals, documents []byte
	)
	err := row.Scan(
		&e.ID, &e.EmployeeID, &e.PersonalInfo.FirstName, &e.PersonalInfo.LastName, &e.PersonalInfo.Email,
		&e.PersonalInfo.Phone, &dateOfBirth, &address, &e.Employment.Department, &e.Employment.Position,
		&e.Employment.Level, &managerID, &startDate, &endDate, &e.Employment.EmploymentType, &e.Employment.Status,
		&salary, &e.Compensation.Currency, &e.Compensation.PayFrequency, &benefits, &rating, &lastReviewDate,
		&goals, &documents, &e.IsActive, &e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		return Employee{}, err
	}

	e.PersonalInfo.DateOfBirth = NewDate(dateOfBirth)
	e.Employment.StartDate = NewDate(startDate)
	if endDate.Valid {
		e.Employment.EndDate = NewDate(endDate.Time)
	}
	if managerID.Valid {
		e.Employment.ManagerID = managerID.String
	}
	e.Compensation.Salary = &salary
	if rating.Valid {
		value := rating.Float64
		e.Performance.Rating = &value
	}
	if lastReviewDate.Valid {
		e.Performance.LastReviewDate = NewDate(lastReviewDate.Time)
	}
	e.CreatedAt = e.CreatedAt.UTC()
	e.UpdatedAt = e.UpdatedAt.UTC()

	for _, doc := range []struct {
		name string
		raw  []byte
		dst  any
	}{
		{"address", address, &e.PersonalInfo.Address},
		{"benefits", benefits, &e.Compensation.Benefits},
		{"goals", goals, &e.Performance.Goals},
		{"documents", documents, &e.Documents},
	} {
		if len(doc.raw) == 0 {
			continue
		}
		if err := json.Unmarshal(doc.raw, doc.dst); err != nil {
			return Employee{}, fmt.Errorf("decode %s: %w", doc.name, err)
		}
	}
	return e, nil
}

// columnValues returns the mutable column values in employeeColumns order,
// starting at first_name.
func columnValues(e Employee) ([]any, error) {
	address, err := json.Marshal(e.PersonalInfo.Address)
	if err != nil {
		return nil, fmt.Errorf("encode address: %w", err)
	}
	benefits, err := json.Marshal(e.Compensation.Benefits)
	if err != nil {
		return nil, fmt.Errorf("encode benefits: %w", err)
	}
	goals := e.Performance.Goals
	if goals == nil {
		goals = []Goal{}
	}
	goalsJSON, err := json.Marshal(goals)
	if err != nil {
		return nil, fmt.Errorf("encode goals: %w", err)
	}
	documents := e.Documents
	if documents == nil {
		documents = []Document{}
	}
	documentsJSON, err := json.Marshal(documents)
	if err != nil {
		return nil, fmt.Errorf("encode documents: %w", err)
	}

	var managerID, salary, rating any
	if e.Employment.ManagerID != "" {
		managerID = e.Employment.ManagerID
	}
	if e.Compensation.Salary != nil {
		salary = *e.Compensation.Salary
	}
	if e.Performance.Rating != nil {
		rating = *e.Performance.Rating
	}

	return []any{
		e.PersonalInfo.FirstName, e.PersonalInfo.LastName, e.PersonalInfo.Email, e.PersonalInfo.Phone,
		e.PersonalInfo.DateOfBirth.Ptr(), string(address), e.Employment.Department, e.Employment.Position,
		e.Employment.Level, managerID, e.Employment.StartDate.Ptr(), e.Employment.EndDate.Ptr(),
		e.Employment.EmploymentType, e.Employment.Status, salary, e.Compensation.Currency,
		e.Compensation.PayFrequency, string(benefits), rating, e.Performance.LastReviewDate.Ptr(),
		string(goalsJSON), string(documentsJSON),
	}, nil
}

// Count includes soft-deleted rows; the employee id sequence is derived from it.
func (r *Repository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM employees`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count employees: %w", err)
	}
	return n, nil
}

func (r *Repository) EmailTaken(ctx context.Context, email, excludeID string) (bool, error) {
	var taken bool
	err := r.db.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM employees
			WHERE lower(email) = lower($1) AND is_active = TRUE AND ($2 = '' OR id::text <> $2)
		)
	`, email, excludeID).Scan(&taken)
	if err != nil {
		return false, fmt.Errorf("check employee email: %w", err)
	}
	return taken, nil
}

func (r *Repository) Insert(ctx context.Context, e Employee) error {
	values, err := columnValues(e)
	if err != nil {
		return err
	}
	args := append([]any{e.ID, e.EmployeeID}, values...)
	args = append(args, e.IsActive, e.CreatedAt, e.UpdatedAt)

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO employees (`+employeeColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23, $24, $25, $26, $27)
	`, args...)
	if err != nil {
		if mapped := mapUniqueViolation(err); mapped != nil {
			return mapped
		}
		return fmt.Errorf("insert employee: %w", err)
	}
	return nil
}

func (r *Repository) Get(ctx context.Context, id string) (Employee, error) {
	e, err := scanEmployee(r.db.QueryRowContext(ctx, `
		SELECT `+employeeColumns+`
		FROM employees
		WHERE id = $1 AND is_active = TRUE
	`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Employee{}, ErrNotFound
		}
		return Employee{}, fmt.Errorf("query employee: %w", err)
	}
	return e, nil
}

func (r *Repository) Update(ctx context.Context, e Employee) (Employee, error) {
	values, err := columnValues(e)
	if err != nil {
		return Employee{}, err
	}
	args := append([]any{e.ID}, values...)
	args = append(args, e.UpdatedAt)

	updated, err := scanEmployee(r.db.QueryRowContext(ctx, `
		UPDATE employees
		SET first_name = $2, last_name = $3, email = $4, phone = $5, date_of_birth = $6, address = $7,
			department = $8, position = $9, level = $10, manager_id = $11, start_date = $12, end_date = $13,
			employment_type = $14, status = $15, salary = $16, currency = $17, pay_frequency = $18,
			benefits = $19, rating = $20, last_review_date = $21, goals = $22, documents = $23, updated_at = $24
		WHERE id = $1 AND is_active = TRUE
		RETURNING `+employeeColumns+`
	`, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Employee{}, ErrNotFound
		}
		if mapped := mapUniqueViolation(err); mapped != nil {
			return Employee{}, mapped
		}
		return Employee{}, fmt.Errorf("update employee: %w", err)
	}
	return updated, nil
}

func (r *Repository) SoftDelete(ctx context.Context, id string, now time.Time) (Employee, error) {
	e, err := scanEmployee(r.db.QueryRowContext(ctx, `
		UPDATE employees
		SET is_active = FALSE, status = $2, end_date = $3, updated_at = $3
		WHERE id = $1 AND is_active = TRUE
		RETURNING `+employeeColumns+`
	`, id, StatusTerminated, now))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Employee{}, ErrNotFound
		}
		return Employee{}, fmt.Errorf("soft delete employee: %w", err)
	}
	return e, nil
}

// List runs the count and page queries concurrently over the same filter.
func (r *Repository) List(ctx context.Context, q ListQuery) ([]Employee, int, error) {
	where, args := q.whereClause()

	var (
		total     int
		employees []Employee
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := r.db.QueryRowContext(gctx, `SELECT COUNT(*) FROM employees`+where, args...).Scan(&total); err != nil {
			return fmt.Errorf("count employees: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		pageArgs := append(append([]any{}, args...), q.Limit, q.Offset())
		query := `SELECT ` + employeeColumns + ` FROM employees` + where + q.orderClause() +
			fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)

		rows, err := r.db.QueryContext(gctx, query, pageArgs...)
		if err != nil {
			return fmt.Errorf("query employees: %w", err)
		}
		defer rows.Close()

		employees = make([]Employee, 0, q.Limit)
		for rows.Next() {
			e, err := scanEmployee(rows)
			if err != nil {
				return fmt.Errorf("scan employee: %w", err)
			}
			employees = append(employees, e)
		}
		if err := rows.Err(); err != nil {
			return fmt.Errorf("iterate employees: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, 0, err
	}
	return employees, total, nil
}

// Managers resolves display references for the given ids. Inactive managers
// are still resolved since the reference is weak.
func (r *Repository) Managers(ctx context.Context, ids []string) (map[string]ManagerRef, error) {
	out := make(map[string]ManagerRef, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, employee_id, first_name, last_name, email, position
		FROM employees
		WHERE id = ANY($1::uuid[])
	`, ids)
	if err != nil {
		return nil, fmt.Errorf("query managers: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var m ManagerRef
		if err := rows.Scan(&m.ID, &m.EmployeeID, &m.FirstName, &m.LastName, &m.Email, &m.Position); err != nil {
			return nil, fmt.Errorf("scan manager: %w", err)
		}
		out[m.ID] = m
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate managers: %w", err)
	}
	return out, nil
}

func (r *Repository) DepartmentCounts(ctx context.Context) ([]DepartmentCount, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT department, COUNT(*)
		FROM employees
		WHERE is_active = TRUE
		GROUP BY department
		ORDER BY department
	`)
	if err != nil {
		return nil, fmt.Errorf("query department counts: %w", err)
	}
	defer rows.Close()

	counts := make([]DepartmentCount, 0, len(Departments))
	for rows.Next() {
		var c DepartmentCount
		if err := rows.Scan(&c.Department, &c.Count); err != nil {
			return nil, fmt.Errorf("scan department count: %w", err)
		}
		counts = append(counts, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate department counts: %w", err)
	}
	return counts, nil
}

func mapUniqueViolation(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != uniqueViolation {
		return nil
	}
	switch pgErr.ConstraintName {
	case employeeIDConstraint:
		return fmt.Errorf("%w: %s", ErrDuplicateEmployeeID, pgErr.Detail)
	case activeEmailConstraint:
		return fmt.Errorf("%w: %s", ErrDuplicateEmail, pgErr.Detail)
	}
	return nil
}
