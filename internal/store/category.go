// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"quizbank/internal/models"
)

// ErrParentContext is returned when a category's parent lives in another
// context than the category itself.
var ErrParentContext = errors.New("parent category belongs to another context")

// ErrMoveIntoSubtree is returned when a category would become a descendant
// of itself.
var ErrMoveIntoSubtree = errors.New("cannot move a category into its own subtree")

// ErrTopCategory is returned when an operation would move or remove a top
// category.
var ErrTopCategory = errors.New("top categories cannot be moved or deleted")

// CategoryStore manages question categories in the database.
type CategoryStore struct {
	db *sql.DB
}

// NewCategoryStore returns a new CategoryStore.
func NewCategoryStore(db *sql.DB) *CategoryStore {
	return &CategoryStore{db: db}
}

const categoryColumns = `id, name, info, context_id, parent_id, sort_order, stamp, created_at, updated_at`

// scanCategory scans a row into a Category struct.
func scanCategory(scanner interface{ Scan(...any) error }) (*models.Category, error) {
	var c models.Category
	err := scanner.Scan(
		&c.ID, &c.Name, &c.Info, &c.ContextID, &c.ParentID,
		&c.SortOrder, &c.Stamp, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// TopForContext returns the top category of a context, creating it if the
// context has none yet.
func (s *CategoryStore) TopForContext(ctx context.Context, contextID int64) (*models.Category, error) {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO question_categories (name, context_id, parent_id, sort_order)
		VALUES ($1, $2, 0, 0)
		ON CONFLICT (context_id) WHERE parent_id = 0 DO NOTHING
	`, models.TopCategoryName, contextID)
	if err != nil {
		return nil, fmt.Errorf("ensure top category: %w", err)
	}

	row := s.db.QueryRowContext(ctx,
		`SELECT `+categoryColumns+` FROM question_categories WHERE context_id = $1 AND parent_id = 0`,
		contextID,
	)
	c, err := scanCategory(row)
	if err != nil {
		return nil, fmt.Errorf("find top category: %w", err)
	}
	return c, nil
}

// Create inserts a new category and returns it. A zero ParentID places the
// category directly under its context's top category.
func (s *CategoryStore) Create(ctx context.Context, c *models.Category) (*models.Category, error) {
	parentID := c.ParentID
	if parentID == 0 {
		top, err := s.TopForContext(ctx, c.ContextID)
		if err != nil {
			return nil, err
		}
		parentID = top.ID
	} else {
		parent, err := s.FindByID(ctx, parentID)
		if err != nil {
			return nil, err
		}
		if parent == nil || parent.ContextID != c.ContextID {
			return nil, fmt.Errorf("create category: %w", ErrParentContext)
		}
	}

	sortOrder := c.SortOrder
	if sortOrder == 0 {
		sortOrder = 999
	}

	row := s.db.QueryRowContext(ctx, `
		INSERT INTO question_categories (name, info, context_id, parent_id, sort_order)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+categoryColumns,
		c.Name, c.Info, c.ContextID, parentID, sortOrder,
	)
	result, err := scanCategory(row)
	if err != nil {
		return nil, fmt.Errorf("create category: %w", err)
	}
	return result, nil
}

// FindByID retrieves a category by ID. Returns nil if not found.
func (s *CategoryStore) FindByID(ctx context.Context, id int64) (*models.Category, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+categoryColumns+` FROM question_categories WHERE id = $1`, id)
	c, err := scanCategory(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find category by id: %w", err)
	}
	return c, nil
}

// CountChildren returns the number of categories whose parent is parentID.
func (s *CategoryStore) CountChildren(ctx context.Context, parentID int64) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM question_categories WHERE parent_id = $1 AND id <> $1`,
		parentID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count child categories: %w", err)
	}
	return n, nil
}

// ListByContexts returns every category of the given contexts, top
// categories included, with question counts.
func (s *CategoryStore) ListByContexts(ctx context.Context, contextIDs []int64) ([]models.Category, error) {
	if len(contextIDs) == 0 {
		return nil, nil
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT c.id, c.name, c.info, c.context_id, c.parent_id, c.sort_order, c.stamp,
		       c.created_at, c.updated_at,
		       COUNT(q.id) AS question_count
		FROM question_categories c
		LEFT JOIN questions q ON q.category_id = c.id
		WHERE c.context_id = ANY($1)
		GROUP BY c.id
		ORDER BY c.context_id, c.id
	`, contextIDs)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var items []models.Category
	for rows.Next() {
		var c models.Category
		err := rows.Scan(
			&c.ID, &c.Name, &c.Info, &c.ContextID, &c.ParentID,
			&c.SortOrder, &c.Stamp, &c.CreatedAt, &c.UpdatedAt,
			&c.QuestionCount,
		)
		if err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		items = append(items, c)
	}
	return items, rows.Err()
}

// Update modifies the name and info of an existing category.
func (s *CategoryStore) Update(ctx context.Context, c *models.Category) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE question_categories SET name = $1, info = $2, updated_at = NOW()
		WHERE id = $3
	`, c.Name, c.Info, c.ID)
	if err != nil {
		return fmt.Errorf("update category: %w", err)
	}
	return nil
}

// Delete removes a category. Its subcategories and questions move to the
// deleted category's parent in the same transaction. Callers check the
// deletion policy first; top categories are never deleted here.
func (s *CategoryStore) Delete(ctx context.Context, id int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var parentID int64
	err = tx.QueryRowContext(ctx,
		`SELECT parent_id FROM question_categories WHERE id = $1 FOR UPDATE`, id,
	).Scan(&parentID)
	if err == sql.ErrNoRows {
		return nil
	}
	if err != nil {
		return fmt.Errorf("lock category: %w", err)
	}
	if parentID == 0 {
		return fmt.Errorf("delete category %d: %w", id, ErrTopCategory)
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE question_categories SET parent_id = $1, updated_at = NOW() WHERE parent_id = $2`,
		parentID, id,
	); err != nil {
		return fmt.Errorf("move subcategories: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE questions SET category_id = $1 WHERE category_id = $2`, parentID, id,
	); err != nil {
		return fmt.Errorf("move questions: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM question_categories WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete category: %w", err)
	}

	return tx.Commit()
}

// SetParent moves a category under newParentID within its context. A zero
// newParentID moves it directly under the context's top category.
func (s *CategoryStore) SetParent(ctx context.Context, id, newParentID int64) error {
	cat, err := s.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if cat == nil {
		return fmt.Errorf("move category %d: %w", id, sql.ErrNoRows)
	}
	if cat.IsTop() {
		return fmt.Errorf("move category %d: %w", id, ErrTopCategory)
	}
	if newParentID == 0 {
		top, err := s.TopForContext(ctx, cat.ContextID)
		if err != nil {
			return err
		}
		newParentID = top.ID
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var parentContext int64
	err = tx.QueryRowContext(ctx,
		`SELECT context_id FROM question_categories WHERE id = $1 FOR UPDATE`, newParentID,
	).Scan(&parentContext)
	if err == sql.ErrNoRows || (err == nil && parentContext != cat.ContextID) {
		return fmt.Errorf("move category %d: %w", id, ErrParentContext)
	}
	if err != nil {
		return fmt.Errorf("lock parent: %w", err)
	}

	var inSubtree bool
	err = tx.QueryRowContext(ctx, `
		WITH RECURSIVE subtree(id) AS (
			SELECT id FROM question_categories WHERE id = $1
			UNION
			SELECT c.id FROM question_categories c JOIN subtree s ON c.parent_id = s.id
		)
		SELECT EXISTS (SELECT 1 FROM subtree WHERE id = $2)
	`, id, newParentID).Scan(&inSubtree)
	if err != nil {
		return fmt.Errorf("check subtree: %w", err)
	}
	if inSubtree {
		return fmt.Errorf("move category %d: %w", id, ErrMoveIntoSubtree)
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE question_categories SET parent_id = $1, updated_at = NOW() WHERE id = $2`,
		newParentID, id,
	); err != nil {
		return fmt.Errorf("set parent: %w", err)
	}

	return tx.Commit()
}
