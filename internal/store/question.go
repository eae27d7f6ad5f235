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

// QuestionStore manages questions in the database.
type QuestionStore struct {
	db *sql.DB
}

// NewQuestionStore returns a new QuestionStore.
func NewQuestionStore(db *sql.DB) *QuestionStore {
	return &QuestionStore{db: db}
}

const questionColumns = `id, category_id, name, question_text, qtype, hidden, created_at`

func scanQuestion(scanner interface{ Scan(...any) error }) (*models.Question, error) {
	var q models.Question
	err := scanner.Scan(&q.ID, &q.CategoryID, &q.Name, &q.QuestionText, &q.QType, &q.Hidden, &q.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &q, nil
}

// Create inserts a new question and returns it.
func (s *QuestionStore) Create(ctx context.Context, q *models.Question) (*models.Question, error) {
	row := s.db.QueryRowContext(ctx, `
		INSERT INTO questions (category_id, name, question_text, qtype, hidden)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+questionColumns,
		q.CategoryID, q.Name, q.QuestionText, q.QType, q.Hidden,
	)
	result, err := scanQuestion(row)
	if err != nil {
		return nil, fmt.Errorf("create question: %w", err)
	}
	return result, nil
}

// FindByID retrieves a question by ID. Returns nil if not found.
func (s *QuestionStore) FindByID(ctx context.Context, id int64) (*models.Question, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+questionColumns+` FROM questions WHERE id = $1`, id)
	q, err := scanQuestion(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find question by id: %w", err)
	}
	return q, nil
}

// ListByCategory returns the questions of a category ordered by id.
func (s *QuestionStore) ListByCategory(ctx context.Context, categoryID int64) ([]models.Question, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+questionColumns+` FROM questions WHERE category_id = $1 ORDER BY id`,
		categoryID,
	)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	defer rows.Close()

	var items []models.Question
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, fmt.Errorf("scan question: %w", err)
		}
		items = append(items, *q)
	}
	return items, rows.Err()
}

// CountByCategory returns the number of questions in a category.
func (s *QuestionStore) CountByCategory(ctx context.Context, categoryID int64) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM questions WHERE category_id = $1`, categoryID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count questions: %w", err)
	}
	return n, nil
}

// Exists reports whether a question with the given id exists.
func (s *QuestionStore) Exists(ctx context.Context, id int64) (bool, error) {
	var ok bool
	err := s.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM questions WHERE id = $1)`, id).Scan(&ok)
	if err != nil {
		return false, fmt.Errorf("question exists: %w", err)
	}
	return ok, nil
}

// SetHidden toggles the hidden flag of a question.
func (s *QuestionStore) SetHidden(ctx context.Context, id int64, hidden bool) error {
	_, err := s.db.ExecContext(ctx, `UPDATE questions SET hidden = $1 WHERE id = $2`, hidden, id)
	if err != nil {
		return fmt.Errorf("set question hidden: %w", err)
	}
	return nil
}

// InUse reports whether any quiz slot references the question.
func (s *QuestionStore) InUse(ctx context.Context, id int64) (bool, error) {
	var used bool
	err := s.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM quiz_slots WHERE question_id = $1)`, id).Scan(&used)
	if err != nil {
		return false, fmt.Errorf("question in use: %w", err)
	}
	return used, nil
}

// DeleteIfUnused deletes the question unless a quiz slot references it. The
// check and the delete are one statement, so a question is either fully
// removed or left untouched.
func (s *QuestionStore) DeleteIfUnused(ctx context.Context, id int64) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM questions q
		WHERE q.id = $1
		  AND NOT EXISTS (SELECT 1 FROM quiz_slots s WHERE s.question_id = q.id)
	`, id)
	if err != nil {
		return false, fmt.Errorf("delete question: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete question rows: %w", err)
	}
	return n > 0, nil
}
