// File path: internal/sqlite/executions.go
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// CreateExecution inserts a running-status execution row and returns its id.
// Only TaskName, ClassName, Tipo, PromptID and PromptText are taken from the
// argument; start_time, status and progress are set here.
func (s *Store) CreateExecution(ctx context.Context, ex Execution) (int64, error) {
	if err := s.ensureReady(); err != nil {
		return 0, err
	}
	if strings.TrimSpace(ex.TaskName) == "" {
		return 0, errors.New("execution task name required")
	}
	if strings.TrimSpace(ex.ClassName) == "" {
		return 0, errors.New("execution class name required")
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO executions (task_name, class_name, tipo, prompt_id, prompt_text, start_time, status, progress)
                VALUES (?, ?, ?, ?, ?, ?, 'running', 0.0)`,
		ex.TaskName, ex.ClassName, ex.Tipo, ex.PromptID, ex.PromptText, time.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("insert execution: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("execution insert id: %w", err)
	}
	return id, nil
}

// GetExecution returns an execution by id, or ErrNotFound.
func (s *Store) GetExecution(ctx context.Context, id int64) (*Execution, error) {
	if err := s.ensureReady(); err != nil {
		return nil, err
	}
	var row Execution
	if err := s.db.GetContext(ctx, &row, `SELECT * FROM executions WHERE id = ?`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("select execution: %w", err)
	}
	return &row, nil
}

// UpdateExecution applies the non-nil fields of upd to an execution row.
// Updates against missing rows are ignored, matching the tracker contract of
// tolerating a finished-and-cleared run.
func (s *Store) UpdateExecution(ctx context.Context, id int64, upd ExecutionUpdate) error {
	if err := s.ensureReady(); err != nil {
		return err
	}
	assignments := make([]string, 0, 4)
	args := make([]interface{}, 0, 5)
	if upd.Progress != nil {
		assignments = append(assignments, "progress = ?")
		args = append(args, *upd.Progress)
	}
	if upd.Status != nil {
		assignments = append(assignments, "status = ?")
		args = append(args, *upd.Status)
	}
	if upd.EndTime != nil {
		assignments = append(assignments, "end_time = ?")
		args = append(args, upd.EndTime.UTC())
	}
	if upd.Message != nil {
		assignments = append(assignments, "message = ?")
		args = append(args, *upd.Message)
	}
	if len(assignments) == 0 {
		return nil
	}
	args = append(args, id)
	if _, err := s.db.ExecContext(ctx,
		`UPDATE executions SET `+strings.Join(assignments, ", ")+` WHERE id = ?`, args...); err != nil {
		return fmt.Errorf("update execution: %w", err)
	}
	return nil
}

// ListExecutions returns executions ordered by start time, optionally
// filtered by status and start-time window.
func (s *Store) ListExecutions(ctx context.Context, status *string, start, end *time.Time) ([]Execution, error) {
	if err := s.ensureReady(); err != nil {
		return nil, err
	}
	filters := []string{}
	args := []interface{}{}
	if status != nil && strings.TrimSpace(*status) != "" {
		filters = append(filters, "status = ?")
		args = append(args, strings.TrimSpace(*status))
	}
	if start != nil {
		filters = append(filters, "start_time >= ?")
		args = append(args, start.UTC())
	}
	if end != nil {
		filters = append(filters, "start_time <= ?")
		args = append(args, end.UTC())
	}
	query := `SELECT * FROM executions`
	if len(filters) > 0 {
		query += ` WHERE ` + strings.Join(filters, " AND ")
	}
	query += ` ORDER BY start_time, id`
	rows := []Execution{}
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select executions: %w", err)
	}
	return rows, nil
}

// ClearExecutions removes every execution row (results cascade).
func (s *Store) ClearExecutions(ctx context.Context) error {
	if err := s.ensureReady(); err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM executions`); err != nil {
		return fmt.Errorf("clear executions: %w", err)
	}
	return nil
}

// AddExecutionResult records the model output for one contract within an
// execution and returns the result id.
func (s *Store) AddExecutionResult(ctx context.Context, result ExecutionResult) (int64, error) {
	if err := s.ensureReady(); err != nil {
		return 0, err
	}
	if result.ExecutionID == 0 {
		return 0, errors.New("execution id required")
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO execution_results (execution_id, contract_id, resposta_completa, resposta_simples, confianca)
                VALUES (?, ?, ?, ?, ?)`,
		result.ExecutionID, result.ContractID, result.RespostaCompleta, result.RespostaSimples, result.Confianca)
	if err != nil {
		return 0, fmt.Errorf("insert execution result: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("execution result insert id: %w", err)
	}
	return id, nil
}

// ResultsForExecution returns the stored results for an execution ordered by
// insertion.
func (s *Store) ResultsForExecution(ctx context.Context, executionID int64) ([]ExecutionResult, error) {
	if err := s.ensureReady(); err != nil {
		return nil, err
	}
	rows := []ExecutionResult{}
	if err := s.db.SelectContext(ctx, &rows,
		`SELECT * FROM execution_results WHERE execution_id = ? ORDER BY id`, executionID); err != nil {
		return nil, fmt.Errorf("select execution results: %w", err)
	}
	return rows, nil
}
