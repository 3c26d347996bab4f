// Package history is an optional audit log over SQLite: every classifier
// decision and task outcome can be recorded for later inspection. The
// engine never reads it on the hot path.
package history

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// ClassificationRecord is one classifier decision.
type ClassificationRecord struct {
	ID        int64
	Request   string
	Shape     string
	Timestamp time.Time
}

// TaskExecutionRecord is one task outcome: a task that settled (completed,
// failed, cancelled or blocked) during a run.
type TaskExecutionRecord struct {
	ID           int64
	WorkflowID   string
	TaskID       string
	Description  string
	TaskType     string
	State        string
	Success      bool
	ErrorMessage string
	DurationSecs int64
	Timestamp    time.Time
}

// Store manages the SQLite history database.
type Store struct {
	db     *sql.DB
	dbPath string
}

// NewStore opens (creating if needed) the history database at dbPath.
// ":memory:" is accepted for tests.
func NewStore(dbPath string) (*Store, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	s := &Store{db: db, dbPath: dbPath}
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// RecordClassification records one classifier decision.
func (s *Store) RecordClassification(ctx context.Context, rec *ClassificationRecord) error {
	result, err := s.db.ExecContext(ctx,
		`INSERT INTO classifications (request, shape) VALUES (?, ?)`,
		rec.Request, rec.Shape)
	if err != nil {
		return fmt.Errorf("insert classification: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("get last insert id: %w", err)
	}
	rec.ID = id
	return nil
}

// RecordTaskExecution records one task outcome.
func (s *Store) RecordTaskExecution(ctx context.Context, rec *TaskExecutionRecord) error {
	result, err := s.db.ExecContext(ctx,
		`INSERT INTO task_executions
			(workflow_id, task_id, description, task_type, state, success, error_message, duration_seconds)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.WorkflowID, rec.TaskID, rec.Description, rec.TaskType, rec.State,
		rec.Success, rec.ErrorMessage, rec.DurationSecs)
	if err != nil {
		return fmt.Errorf("insert task execution: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("get last insert id: %w", err)
	}
	rec.ID = id
	return nil
}

// GetTaskExecutions retrieves all recorded outcomes for a workflow,
// most recent first.
func (s *Store) GetTaskExecutions(ctx context.Context, workflowID string) ([]*TaskExecutionRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, workflow_id, task_id, description, task_type, state, success, error_message, duration_seconds, timestamp
			FROM task_executions WHERE workflow_id = ? ORDER BY id DESC`,
		workflowID)
	if err != nil {
		return nil, fmt.Errorf("query task executions: %w", err)
	}
	defer rows.Close()

	var records []*TaskExecutionRecord
	for rows.Next() {
		rec := &TaskExecutionRecord{}
		var description, errorMessage sql.NullString
		if err := rows.Scan(
			&rec.ID, &rec.WorkflowID, &rec.TaskID, &description, &rec.TaskType,
			&rec.State, &rec.Success, &errorMessage, &rec.DurationSecs, &rec.Timestamp,
		); err != nil {
			return nil, fmt.Errorf("scan task execution row: %w", err)
		}
		if description.Valid {
			rec.Description = description.String
		}
		if errorMessage.Valid {
			rec.ErrorMessage = errorMessage.String
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate task execution rows: %w", err)
	}
	return records, nil
}

// GetRecentClassifications retrieves up to limit classifier decisions,
// most recent first.
func (s *Store) GetRecentClassifications(ctx context.Context, limit int) ([]*ClassificationRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, request, shape, timestamp FROM classifications ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query classifications: %w", err)
	}
	defer rows.Close()

	var records []*ClassificationRecord
	for rows.Next() {
		rec := &ClassificationRecord{}
		if err := rows.Scan(&rec.ID, &rec.Request, &rec.Shape, &rec.Timestamp); err != nil {
			return nil, fmt.Errorf("scan classification row: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate classification rows: %w", err)
	}
	return records, nil
}
