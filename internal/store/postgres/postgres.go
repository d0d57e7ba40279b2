package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/scholarline/scholarline/engine/internal/store"
)

type PostgresStore struct {
	db *sql.DB
}

var openDB = sql.Open

func New(conn string) (*PostgresStore, error) {
	db, err := openDB("pgx", conn)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := verifySchema(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &PostgresStore{db: db}, nil
}

func verifySchema(ctx context.Context, db *sql.DB) error {
	required := []string{
		"scholarships",
		"scholarship_applications",
		"scholarship_application_tasks",
	}
	for _, table := range required {
		var regclass sql.NullString
		if err := db.QueryRowContext(ctx, "SELECT to_regclass($1)", fmt.Sprintf("public.%s", table)).Scan(&regclass); err != nil {
			return err
		}
		if !regclass.Valid {
			return fmt.Errorf("database schema missing: %s table not found (run migrations/001_init.sql)", table)
		}
	}
	return nil
}

func (p *PostgresStore) ListScholarships(ctx context.Context, limit int) ([]store.Scholarship, error) {
	if limit <= 0 {
		limit = 100
	}
	const query = `
		SELECT id, name, description, deadline, location, university, degree,
			fields, tags, url, requires_test_score, requires_essay, embedding
		FROM scholarships
		ORDER BY id
		LIMIT $1
	`
	rows, err := p.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	scholarships := []store.Scholarship{}
	for rows.Next() {
		scholarship, err := scanScholarship(rows)
		if err != nil {
			return nil, err
		}
		scholarships = append(scholarships, *scholarship)
	}
	return scholarships, rows.Err()
}

func (p *PostgresStore) GetScholarship(ctx context.Context, id string) (*store.Scholarship, error) {
	const query = `
		SELECT id, name, description, deadline, location, university, degree,
			fields, tags, url, requires_test_score, requires_essay, embedding
		FROM scholarships
		WHERE id = $1
	`
	row := p.db.QueryRowContext(ctx, query, id)
	scholarship, err := scanScholarship(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return scholarship, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanScholarship(row rowScanner) (*store.Scholarship, error) {
	var scholarship store.Scholarship
	var deadline, location, university, degree, url sql.NullString
	var fieldsBytes, tagsBytes, embeddingBytes []byte
	if err := row.Scan(
		&scholarship.ID,
		&scholarship.Name,
		&scholarship.Description,
		&deadline,
		&location,
		&university,
		&degree,
		&fieldsBytes,
		&tagsBytes,
		&url,
		&scholarship.RequiresTestScore,
		&scholarship.RequiresEssay,
		&embeddingBytes,
	); err != nil {
		return nil, err
	}
	scholarship.Deadline = deadline.String
	scholarship.Location = location.String
	scholarship.University = university.String
	scholarship.Degree = degree.String
	scholarship.URL = url.String
	if len(fieldsBytes) > 0 {
		if err := json.Unmarshal(fieldsBytes, &scholarship.Fields); err != nil {
			return nil, err
		}
	}
	if len(tagsBytes) > 0 {
		if err := json.Unmarshal(tagsBytes, &scholarship.Tags); err != nil {
			return nil, err
		}
	}
	if len(embeddingBytes) > 0 {
		if err := json.Unmarshal(embeddingBytes, &scholarship.Embedding); err != nil {
			return nil, err
		}
	}
	return &scholarship, nil
}

func (p *PostgresStore) CreateApplication(ctx context.Context, application store.Application) error {
	status := strings.TrimSpace(application.Status)
	if status == "" {
		status = "Pending"
	}
	const query = `
		INSERT INTO scholarship_applications (
			id, scholarship_id, applicant_name, email, essay, gpa, status, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := p.db.ExecContext(
		ctx,
		query,
		application.ID,
		application.ScholarshipID,
		application.ApplicantName,
		application.Email,
		application.Essay,
		application.GPA,
		status,
		application.CreatedAt,
	)
	return err
}

func (p *PostgresStore) GetApplication(ctx context.Context, id string) (*store.Application, error) {
	const query = `
		SELECT id, scholarship_id, applicant_name, email, essay, gpa, status, created_at
		FROM scholarship_applications
		WHERE id = $1
	`
	var application store.Application
	err := p.db.QueryRowContext(ctx, query, id).Scan(
		&application.ID,
		&application.ScholarshipID,
		&application.ApplicantName,
		&application.Email,
		&application.Essay,
		&application.GPA,
		&application.Status,
		&application.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &application, nil
}

func (p *PostgresStore) ListApplications(ctx context.Context) ([]store.Application, error) {
	const query = `
		SELECT id, scholarship_id, applicant_name, email, essay, gpa, status, created_at
		FROM scholarship_applications
		ORDER BY created_at DESC
	`
	rows, err := p.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	applications := []store.Application{}
	for rows.Next() {
		var application store.Application
		if err := rows.Scan(
			&application.ID,
			&application.ScholarshipID,
			&application.ApplicantName,
			&application.Email,
			&application.Essay,
			&application.GPA,
			&application.Status,
			&application.CreatedAt,
		); err != nil {
			return nil, err
		}
		applications = append(applications, application)
	}
	return applications, rows.Err()
}

func (p *PostgresStore) CreateTask(ctx context.Context, task store.Task) error {
	status := strings.TrimSpace(task.Status)
	if status == "" {
		status = "pending"
	}
	const query = `
		INSERT INTO scholarship_application_tasks (
			id, application_id, title, description, priority, due_date, status, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := p.db.ExecContext(
		ctx,
		query,
		task.ID,
		task.ApplicationID,
		task.Title,
		nullString(task.Description),
		task.Priority,
		nullString(task.DueDate),
		status,
		task.CreatedAt,
	)
	return err
}

func (p *PostgresStore) GetTask(ctx context.Context, id string) (*store.Task, error) {
	const query = `
		SELECT id, application_id, title, description, priority, due_date, status, created_at
		FROM scholarship_application_tasks
		WHERE id = $1
	`
	row := p.db.QueryRowContext(ctx, query, id)
	task, err := scanTask(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return task, nil
}

func (p *PostgresStore) ListTasksByApplication(ctx context.Context, applicationID string) ([]store.Task, error) {
	const query = `
		SELECT id, application_id, title, description, priority, due_date, status, created_at
		FROM scholarship_application_tasks
		WHERE application_id = $1
		ORDER BY created_at, id
	`
	rows, err := p.db.QueryContext(ctx, query, applicationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tasks := []store.Task{}
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, *task)
	}
	return tasks, rows.Err()
}

func scanTask(row rowScanner) (*store.Task, error) {
	var task store.Task
	var description, dueDate sql.NullString
	if err := row.Scan(
		&task.ID,
		&task.ApplicationID,
		&task.Title,
		&description,
		&task.Priority,
		&dueDate,
		&task.Status,
		&task.CreatedAt,
	); err != nil {
		return nil, err
	}
	task.Description = description.String
	task.DueDate = dueDate.String
	return &task, nil
}

func nullString(value string) any {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	return value
}

func (p *PostgresStore) Close() error {
	return p.db.Close()
}
