// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package qbank

import (
	"context"
	"log/slog"

	"quizbank/internal/models"
)

// QuestionRepository is the question storage the pruner works against.
type QuestionRepository interface {
	ListByCategory(ctx context.Context, categoryID int64) ([]models.Question, error)

	// DeleteIfUnused removes the question in a single atomic step unless a
	// quiz slot references it. It reports whether the question was removed.
	DeleteIfUnused(ctx context.Context, questionID int64) (bool, error)
}

// Pruner removes stale questions from categories.
type Pruner struct {
	categories CategoryReader
	questions  QuestionRepository
}

// NewPruner returns a Pruner over the given repositories.
func NewPruner(categories CategoryReader, questions QuestionRepository) *Pruner {
	return &Pruner{categories: categories, questions: questions}
}

// PruneCategory removes every question in the category that no quiz slot
// references, hidden or not. Random selector questions follow the same rule.
// An unknown category is a no-op. The sweep is not transactional: on error
// the questions removed so far stay removed and their count is returned.
func (p *Pruner) PruneCategory(ctx context.Context, categoryID int64) (int, error) {
	cat, err := p.categories.FindByID(ctx, categoryID)
	if err != nil {
		return 0, err
	}
	if cat == nil {
		return 0, nil
	}

	questions, err := p.questions.ListByCategory(ctx, categoryID)
	if err != nil {
		return 0, err
	}

	removed := 0
	for _, q := range questions {
		ok, err := p.questions.DeleteIfUnused(ctx, q.ID)
		if err != nil {
			return removed, err
		}
		if ok {
			removed++
		}
	}

	if removed > 0 {
		slog.Info("stale questions pruned",
			"category_id", categoryID,
			"removed", removed,
			"kept", len(questions)-removed,
		)
	}
	return removed, nil
}
