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

// QuizStore manages quizzes and their slots.
type QuizStore struct {
	db *sql.DB
}

// NewQuizStore returns a new QuizStore.
func NewQuizStore(db *sql.DB) *QuizStore {
	return &QuizStore{db: db}
}

// Create inserts a new quiz and returns it.
func (s *QuizStore) Create(ctx context.Context, q *models.Quiz) (*models.Quiz, error) {
	var result models.Quiz
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO quizzes (context_id, name) VALUES ($1, $2)
		RETURNING id, context_id, name, created_at
	`, q.ContextID, q.Name).Scan(&result.ID, &result.ContextID, &result.Name, &result.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("create quiz: %w", err)
	}
	return &result, nil
}

// AddQuestion places a question in the next free slot of a quiz.
func (s *QuizStore) AddQuestion(ctx context.Context, quizID, questionID int64) (*models.QuizSlot, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	slot, err := addSlot(ctx, tx, quizID, questionID)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit slot: %w", err)
	}
	return slot, nil
}

// AddRandomQuestions creates n random selector questions drawing from
// categoryID and places each in a new slot of the quiz.
func (s *QuizStore) AddRandomQuestions(ctx context.Context, quizID, categoryID int64, n int) ([]models.QuizSlot, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var catName string
	if err := tx.QueryRowContext(ctx,
		`SELECT name FROM question_categories WHERE id = $1`, categoryID,
	).Scan(&catName); err != nil {
		return nil, fmt.Errorf("random question category: %w", err)
	}

	slots := make([]models.QuizSlot, 0, n)
	for i := 0; i < n; i++ {
		var questionID int64
		err := tx.QueryRowContext(ctx, `
			INSERT INTO questions (category_id, name, qtype, hidden)
			VALUES ($1, $2, $3, TRUE)
			RETURNING id
		`, categoryID, "Random ("+catName+")", models.QTypeRandom).Scan(&questionID)
		if err != nil {
			return nil, fmt.Errorf("create random question: %w", err)
		}

		slot, err := addSlot(ctx, tx, quizID, questionID)
		if err != nil {
			return nil, err
		}
		slots = append(slots, *slot)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit random slots: %w", err)
	}
	return slots, nil
}

// Slots returns the slots of a quiz in order.
func (s *QuizStore) Slots(ctx context.Context, quizID int64) ([]models.QuizSlot, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, quiz_id, slot, question_id FROM quiz_slots WHERE quiz_id = $1 ORDER BY slot`,
		quizID,
	)
	if err != nil {
		return nil, fmt.Errorf("list quiz slots: %w", err)
	}
	defer rows.Close()

	var items []models.QuizSlot
	for rows.Next() {
		var sl models.QuizSlot
		if err := rows.Scan(&sl.ID, &sl.QuizID, &sl.Slot, &sl.QuestionID); err != nil {
			return nil, fmt.Errorf("scan quiz slot: %w", err)
		}
		items = append(items, sl)
	}
	return items, rows.Err()
}

func addSlot(ctx context.Context, tx *sql.Tx, quizID, questionID int64) (*models.QuizSlot, error) {
	var sl models.QuizSlot
	err := tx.QueryRowContext(ctx, `
		INSERT INTO quiz_slots (quiz_id, slot, question_id)
		SELECT $1, COALESCE(MAX(slot), 0) + 1, $2 FROM quiz_slots WHERE quiz_id = $1
		RETURNING id, quiz_id, slot, question_id
	`, quizID, questionID).Scan(&sl.ID, &sl.QuizID, &sl.Slot, &sl.QuestionID)
	if err != nil {
		return nil, fmt.Errorf("add quiz slot: %w", err)
	}
	return &sl, nil
}
