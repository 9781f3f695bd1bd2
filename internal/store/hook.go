package store

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// Hook is a local command run whenever the overlay color changes.
type Hook struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Command   string    `json:"command"`
	Args      []string  `json:"args"`
	Enabled   bool      `json:"enabled"`
	CreatedAt time.Time `json:"created_at"`
}

// HookRepository provides CRUD operations for hooks.
type HookRepository struct {
	db *sql.DB
}

// Hooks returns the hook repository for this store.
func (s *Store) Hooks() *HookRepository {
	return &HookRepository{db: s.db}
}

// Create inserts a new hook. An empty ID is filled with a new UUID.
func (r *HookRepository) Create(h *Hook) error {
	if h.ID == "" {
		h.ID = uuid.NewString()
	}
	h.CreatedAt = time.Now()

	args, err := encodeArgs(h.Args)
	if err != nil {
		return err
	}

	_, err = r.db.Exec(
		`INSERT INTO hooks (id, name, command, args, enabled, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		h.ID, h.Name, h.Command, args, h.Enabled, h.CreatedAt,
	)
	return err
}

// GetByID retrieves a hook by its ID.
func (r *HookRepository) GetByID(id string) (*Hook, error) {
	row := r.db.QueryRow(
		`SELECT id, name, command, args, enabled, created_at
		 FROM hooks WHERE id = ?`,
		id,
	)

	h, err := scanHook(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return h, nil
}

// List retrieves all hooks, oldest first.
func (r *HookRepository) List() ([]*Hook, error) {
	return r.query(`SELECT id, name, command, args, enabled, created_at
		FROM hooks ORDER BY created_at ASC`)
}

// ListEnabled retrieves the hooks that should run, oldest first.
func (r *HookRepository) ListEnabled() ([]*Hook, error) {
	return r.query(`SELECT id, name, command, args, enabled, created_at
		FROM hooks WHERE enabled = 1 ORDER BY created_at ASC`)
}

func (r *HookRepository) query(q string) ([]*Hook, error) {
	rows, err := r.db.Query(q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var hooks []*Hook
	for rows.Next() {
		h, err := scanHook(rows)
		if err != nil {
			return nil, err
		}
		hooks = append(hooks, h)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return hooks, nil
}

// Update updates an existing hook in the database.
func (r *HookRepository) Update(h *Hook) error {
	args, err := encodeArgs(h.Args)
	if err != nil {
		return err
	}

	enabled := 0
	if h.Enabled {
		enabled = 1
	}

	result, err := r.db.Exec(
		`UPDATE hooks SET name = ?, command = ?, args = ?, enabled = ?
		 WHERE id = ?`,
		h.Name, h.Command, args, enabled, h.ID,
	)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

// Delete removes a hook from the database by its ID.
func (r *HookRepository) Delete(id string) error {
	result, err := r.db.Exec(`DELETE FROM hooks WHERE id = ?`, id)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanHook(s scanner) (*Hook, error) {
	h := &Hook{}
	var args string
	var enabled int

	if err := s.Scan(&h.ID, &h.Name, &h.Command, &args, &enabled, &h.CreatedAt); err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(args), &h.Args); err != nil {
		return nil, err
	}
	h.Enabled = enabled != 0
	return h, nil
}

func encodeArgs(args []string) (string, error) {
	if args == nil {
		args = []string{}
	}
	b, err := json.Marshal(args)
	return string(b), err
}
