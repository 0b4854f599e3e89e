package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"pulsehr-backend/internal/models"
)

type EmployeeRepo struct {
	pool *pgxpool.Pool
}

func NewEmployeeRepo(pool *pgxpool.Pool) *EmployeeRepo {
	return &EmployeeRepo{pool: pool}
}

const employeeColumns = `e.id, e.email, e.password_hash, e.full_name, e.avatar_url, e.department,
	e.position, e.hourly_rate, e.manager_id, COALESCE(r.role, 'employee'), e.is_active,
	e.hired_at, e.created_at, e.last_login_at`

func scanEmployee(row interface{ Scan(...any) error }) (*models.Employee, error) {
	e := &models.Employee{}
	err := row.Scan(
		&e.ID, &e.Email, &e.PasswordHash, &e.FullName, &e.AvatarURL, &e.Department,
		&e.Position, &e.HourlyRate, &e.ManagerID, &e.Role, &e.IsActive,
		&e.HiredAt, &e.CreatedAt, &e.LastLoginAt,
	)
	if err != nil {
		return nil, err
	}
	return e, nil
}

func (r *EmployeeRepo) Create(ctx context.Context, e *models.Employee) error {
	e.ID = uuid.New()
	e.IsActive = true

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx, `
		INSERT INTO employees (id, email, password_hash, full_name, department, position, hourly_rate, manager_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING hired_at, created_at`,
		e.ID, e.Email, e.PasswordHash, e.FullName, e.Department, e.Position, e.HourlyRate, e.ManagerID,
	).Scan(&e.HiredAt, &e.CreatedAt)
	if err != nil {
		return err
	}

	if e.Role == "" {
		e.Role = "employee"
	}
	if _, err := tx.Exec(ctx, `INSERT INTO employee_roles (employee_id, role) VALUES ($1, $2)`, e.ID, e.Role); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (r *EmployeeRepo) GetByEmail(ctx context.Context, email string) (*models.Employee, error) {
	row := r.pool.QueryRow(ctx, fmt.Sprintf(`
		SELECT %s FROM employees e
		LEFT JOIN employee_roles r ON r.employee_id = e.id
		WHERE e.email = $1`, employeeColumns), email)
	return scanEmployee(row)
}

func (r *EmployeeRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Employee, error) {
	row := r.pool.QueryRow(ctx, fmt.Sprintf(`
		SELECT %s FROM employees e
		LEFT JOIN employee_roles r ON r.employee_id = e.id
		WHERE e.id = $1`, employeeColumns), id)
	return scanEmployee(row)
}

func (r *EmployeeRepo) List(ctx context.Context) ([]*models.Employee, error) {
	rows, err := r.pool.Query(ctx, fmt.Sprintf(`
		SELECT %s FROM employees e
		LEFT JOIN employee_roles r ON r.employee_id = e.id
		ORDER BY e.full_name`, employeeColumns))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	employees := make([]*models.Employee, 0)
	for rows.Next() {
		e, err := scanEmployee(rows)
		if err != nil {
			return nil, err
		}
		employees = append(employees, e)
	}
	return employees, rows.Err()
}

func (r *EmployeeRepo) Update(ctx context.Context, e *models.Employee) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		UPDATE employees
		SET full_name = $1, department = $2, position = $3, hourly_rate = $4,
		    manager_id = $5, is_active = $6, avatar_url = $7
		WHERE id = $8`,
		e.FullName, e.Department, e.Position, e.HourlyRate, e.ManagerID, e.IsActive, e.AvatarURL, e.ID,
	)
	if err != nil {
		return err
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO employee_roles (employee_id, role) VALUES ($1, $2)
		ON CONFLICT (employee_id) DO UPDATE SET role = EXCLUDED.role`,
		e.ID, e.Role,
	)
	if err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (r *EmployeeRepo) UpdatePassword(ctx context.Context, employeeID uuid.UUID, passwordHash string) error {
	_, err := r.pool.Exec(ctx, "UPDATE employees SET password_hash = $1 WHERE id = $2", passwordHash, employeeID)
	return err
}

func (r *EmployeeRepo) UpdateLastLogin(ctx context.Context, employeeID uuid.UUID) error {
	_, err := r.pool.Exec(ctx, "UPDATE employees SET last_login_at = $1 WHERE id = $2", time.Now(), employeeID)
	return err
}

// DeleteCascade removes an employee and every dependent row in one
// transaction, in a fixed order: evaluations, schedules, payroll, captures,
// attendance, role, profile. Either everything goes or nothing does.
func (r *EmployeeRepo) DeleteCascade(ctx context.Context, employeeID uuid.UUID) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	steps := []string{
		`DELETE FROM evaluations WHERE employee_id = $1 OR reviewer_id = $1`,
		`DELETE FROM schedules WHERE employee_id = $1`,
		`DELETE FROM payroll_records WHERE employee_id = $1`,
		`DELETE FROM captures WHERE employee_id = $1`,
		`DELETE FROM attendance WHERE employee_id = $1`,
		`DELETE FROM memos WHERE original_memo_id IN (SELECT id FROM memos WHERE sender_id = $1 OR recipient_id = $1)`,
		`DELETE FROM memos WHERE sender_id = $1 OR recipient_id = $1`,
		`DELETE FROM shoutouts WHERE from_id = $1 OR to_id = $1`,
		`DELETE FROM announcement_reactions WHERE employee_id = $1`,
		`DELETE FROM announcement_comments WHERE employee_id = $1`,
		`DELETE FROM announcements WHERE author_id = $1`,
		`DELETE FROM secret_santa_assignments WHERE giver_id = $1 OR receiver_id = $1`,
		`DELETE FROM secret_santa_participants WHERE employee_id = $1`,
		`DELETE FROM secret_santa_events WHERE created_by = $1`,
		`DELETE FROM jobs WHERE requested_by = $1`,
		`UPDATE employees SET manager_id = NULL WHERE manager_id = $1`,
		`DELETE FROM employee_roles WHERE employee_id = $1`,
	}

	for _, step := range steps {
		if _, err := tx.Exec(ctx, step, employeeID); err != nil {
			return fmt.Errorf("delete cascade failed at %q: %w", step, err)
		}
	}

	tag, err := tx.Exec(ctx, `DELETE FROM employees WHERE id = $1`, employeeID)
	if err != nil {
		return fmt.Errorf("delete cascade failed at employees: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}

	return tx.Commit(ctx)
}

// OrgChart builds the manager tree from the flat employee list. Employees
// without a manager (or whose manager is missing) become roots.
func (r *EmployeeRepo) OrgChart(ctx context.Context) ([]*models.OrgChartNode, error) {
	employees, err := r.List(ctx)
	if err != nil {
		return nil, err
	}

	nodes := make(map[uuid.UUID]*models.OrgChartNode, len(employees))
	for _, e := range employees {
		nodes[e.ID] = &models.OrgChartNode{Employee: *e, Reports: []*models.OrgChartNode{}}
	}

	roots := make([]*models.OrgChartNode, 0)
	for _, e := range employees {
		node := nodes[e.ID]
		if e.ManagerID != nil {
			if parent, ok := nodes[*e.ManagerID]; ok {
				parent.Reports = append(parent.Reports, node)
				continue
			}
		}
		roots = append(roots, node)
	}

	return roots, nil
}
