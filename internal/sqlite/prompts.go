// File path: internal/sqlite/prompts.go
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

// AddPrompt inserts a reusable prompt and returns its id.
func (s *Store) AddPrompt(ctx context.Context, nome, texto string, periodicidade *string) (int64, error) {
	if err := s.ensureReady(); err != nil {
		return 0, err
	}
	if strings.TrimSpace(nome) == "" {
		return 0, errors.New("prompt name required")
	}
	if strings.TrimSpace(texto) == "" {
		return 0, errors.New("prompt text required")
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO prompts (nome, texto, periodicidade) VALUES (?, ?, ?)`,
		nome, texto, periodicidade)
	if err != nil {
		return 0, fmt.Errorf("insert prompt: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("prompt insert id: %w", err)
	}
	return id, nil
}

// ListPrompts returns every registered prompt ordered by id.
func (s *Store) ListPrompts(ctx context.Context) ([]Prompt, error) {
	if err := s.ensureReady(); err != nil {
		return nil, err
	}
	rows := []Prompt{}
	if err := s.db.SelectContext(ctx, &rows, `SELECT * FROM prompts ORDER BY id`); err != nil {
		return nil, fmt.Errorf("select prompts: %w", err)
	}
	return rows, nil
}

// GetPrompt returns a prompt by id, or ErrNotFound.
func (s *Store) GetPrompt(ctx context.Context, id int64) (*Prompt, error) {
	if err := s.ensureReady(); err != nil {
		return nil, err
	}
	var row Prompt
	if err := s.db.GetContext(ctx, &row, `SELECT * FROM prompts WHERE id = ?`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("select prompt: %w", err)
	}
	return &row, nil
}

// UpdatePrompt applies the non-nil fields to an existing prompt. Updating a
// missing prompt returns ErrNotFound.
func (s *Store) UpdatePrompt(ctx context.Context, id int64, nome, texto, periodicidade *string) error {
	if err := s.ensureReady(); err != nil {
		return err
	}
	assignments := make([]string, 0, 3)
	args := make([]interface{}, 0, 4)
	if nome != nil {
		assignments = append(assignments, "nome = ?")
		args = append(args, *nome)
	}
	if texto != nil {
		assignments = append(assignments, "texto = ?")
		args = append(args, *texto)
	}
	if periodicidade != nil {
		assignments = append(assignments, "periodicidade = ?")
		args = append(args, *periodicidade)
	}
	if len(assignments) == 0 {
		return nil
	}
	args = append(args, id)
	res, err := s.db.ExecContext(ctx,
		`UPDATE prompts SET `+strings.Join(assignments, ", ")+` WHERE id = ?`, args...)
	if err != nil {
		return fmt.Errorf("update prompt: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update prompt rows: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeletePrompt removes a prompt by id. Deleting a missing prompt returns
// ErrNotFound.
func (s *Store) DeletePrompt(ctx context.Context, id int64) error {
	if err := s.ensureReady(); err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, `DELETE FROM prompts WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete prompt: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete prompt rows: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
