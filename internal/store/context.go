// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"database/sql"
	"fmt"

	"quizbank/internal/models"
)

// ContextStore manages permission contexts in the database.
type ContextStore struct {
	db *sql.DB
}

// NewContextStore returns a new ContextStore.
func NewContextStore(db *sql.DB) *ContextStore {
	return &ContextStore{db: db}
}

const contextColumns = `id, level, instance_id, COALESCE(parent_id, 0), name`

func scanContext(scanner interface{ Scan(...any) error }) (*models.Context, error) {
	var c models.Context
	if err := scanner.Scan(&c.ID, &c.Level, &c.InstanceID, &c.ParentID, &c.Name); err != nil {
		return nil, err
	}
	return &c, nil
}

// Create inserts a context, or returns the existing one for the same level
// and instance.
func (s *ContextStore) Create(ctx context.Context, c *models.Context) (*models.Context, error) {
	var parent any
	if c.ParentID != 0 {
		parent = c.ParentID
	}
	row := s.db.QueryRowContext(ctx, `
		INSERT INTO contexts (level, instance_id, parent_id, name)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (level, instance_id) DO UPDATE SET name = EXCLUDED.name
		RETURNING `+contextColumns,
		c.Level, c.InstanceID, parent, c.Name,
	)
	result, err := scanContext(row)
	if err != nil {
		return nil, fmt.Errorf("create context: %w", err)
	}
	return result, nil
}

// FindByID retrieves a context by ID. Returns nil if not found.
func (s *ContextStore) FindByID(ctx context.Context, id int64) (*models.Context, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+contextColumns+` FROM contexts WHERE id = $1`, id)
	c, err := scanContext(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find context by id: %w", err)
	}
	return c, nil
}

// ListByIDs returns the contexts with the given ids in the order the ids
// were given. Unknown ids are skipped.
func (s *ContextStore) ListByIDs(ctx context.Context, ids []int64) ([]models.Context, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	rows, err := s.db.QueryContext(ctx, `SELECT `+contextColumns+` FROM contexts WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, fmt.Errorf("list contexts: %w", err)
	}
	defer rows.Close()

	byID := make(map[int64]models.Context, len(ids))
	for rows.Next() {
		c, err := scanContext(rows)
		if err != nil {
			return nil, fmt.Errorf("scan context: %w", err)
		}
		byID[c.ID] = *c
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	items := make([]models.Context, 0, len(byID))
	seen := make(map[int64]bool, len(ids))
	for _, id := range ids {
		if c, ok := byID[id]; ok && !seen[id] {
			seen[id] = true
			items = append(items, c)
		}
	}
	return items, nil
}

// Ancestors returns the id of the context followed by the ids of its
// parents up to the system context.
func (s *ContextStore) Ancestors(ctx context.Context, id int64) ([]int64, error) {
	rows, err := s.db.QueryContext(ctx, `
		WITH RECURSIVE chain AS (
			SELECT id, parent_id, 0 AS depth FROM contexts WHERE id = $1
			UNION ALL
			SELECT c.id, c.parent_id, chain.depth + 1
			FROM contexts c JOIN chain ON c.id = chain.parent_id
			WHERE chain.depth < 32
		)
		SELECT id FROM chain ORDER BY depth
	`, id)
	if err != nil {
		return nil, fmt.Errorf("context ancestors: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var cid int64
		if err := rows.Scan(&cid); err != nil {
			return nil, fmt.Errorf("scan context id: %w", err)
		}
		ids = append(ids, cid)
	}
	return ids, rows.Err()
}
