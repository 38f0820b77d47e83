package store

import (
	"context"
	"database/sql"
	"fmt"
)

// AppendKeys appends tokens to the session journal in order.
func (s *Store) AppendKeys(ctx context.Context, id string, tokens []string) error {
	if len(tokens) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("append keys: %w", err)
	}
	defer tx.Rollback()

	if err := sessionExists(ctx, tx, id); err != nil {
		return fmt.Errorf("append keys: %w", err)
	}

	var next int64
	if err := tx.QueryRowContext(ctx, `
		SELECT COALESCE(MAX(seq), 0) + 1 FROM keystrokes WHERE session_id = ?
	`, id).Scan(&next); err != nil {
		return fmt.Errorf("append keys: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO keystrokes (session_id, seq, token) VALUES (?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("append keys: %w", err)
	}
	defer stmt.Close()

	for i, tok := range tokens {
		if _, err := stmt.ExecContext(ctx, id, next+int64(i), tok); err != nil {
			return fmt.Errorf("append keys: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("append keys: %w", err)
	}
	return nil
}

// Keys returns the session journal in seq order.
func (s *Store) Keys(ctx context.Context, id string) ([]string, error) {
	if err := sessionExists(ctx, s.db, id); err != nil {
		return nil, fmt.Errorf("keys: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT token FROM keystrokes WHERE session_id = ? ORDER BY seq ASC
	`, id)
	if err != nil {
		return nil, fmt.Errorf("keys: %w", err)
	}
	defer rows.Close()

	tokens := []string{}
	for rows.Next() {
		var tok string
		if err := rows.Scan(&tok); err != nil {
			return nil, fmt.Errorf("keys: %w", err)
		}
		tokens = append(tokens, tok)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("keys: %w", err)
	}
	return tokens, nil
}

// DropLastKey removes the newest keystroke. It reports false when the
// journal is already empty.
func (s *Store) DropLastKey(ctx context.Context, id string) (bool, error) {
	if err := sessionExists(ctx, s.db, id); err != nil {
		return false, fmt.Errorf("drop last key: %w", err)
	}

	res, err := s.db.ExecContext(ctx, `
		DELETE FROM keystrokes
		WHERE session_id = ?
		  AND seq = (SELECT MAX(seq) FROM keystrokes WHERE session_id = ?)
	`, id, id)
	if err != nil {
		return false, fmt.Errorf("drop last key: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("drop last key: %w", err)
	}
	return n > 0, nil
}

type queryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func sessionExists(ctx context.Context, q queryRower, id string) error {
	var one int
	err := q.QueryRowContext(ctx, `SELECT 1 FROM sessions WHERE id = ?`, id).Scan(&one)
	if err == sql.ErrNoRows {
		return fmt.Errorf("session %s: %w", id, ErrSessionNotFound)
	}
	return err
}
