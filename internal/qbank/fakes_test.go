// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package qbank

import (
	"context"
	"errors"
	"sort"

	"quizbank/internal/models"
)

// memBank is an in-memory category and question store used by the guard
// and pruner tests.
type memBank struct {
	categories map[int64]models.Category
	questions  map[int64]models.Question
	slots      map[int64]int // question id -> number of quiz slots
	nextID     int64

	failDelete int64 // DeleteIfUnused fails for this question id
}

func newMemBank() *memBank {
	return &memBank{
		categories: make(map[int64]models.Category),
		questions:  make(map[int64]models.Question),
		slots:      make(map[int64]int),
		nextID:     100,
	}
}

func (b *memBank) id() int64 {
	b.nextID++
	return b.nextID
}

// addTop creates the top category of a context.
func (b *memBank) addTop(contextID int64) models.Category {
	c := models.Category{ID: b.id(), Name: models.TopCategoryName, ContextID: contextID}
	b.categories[c.ID] = c
	return c
}

func (b *memBank) addCategory(name string, parent models.Category) models.Category {
	c := models.Category{ID: b.id(), Name: name, ContextID: parent.ContextID, ParentID: parent.ID}
	b.categories[c.ID] = c
	return c
}

func (b *memBank) addQuestion(cat models.Category, qtype models.QType, hidden bool) models.Question {
	q := models.Question{ID: b.id(), CategoryID: cat.ID, QType: qtype, Hidden: hidden}
	b.questions[q.ID] = q
	return q
}

// useInQuiz adds a quiz slot referencing q.
func (b *memBank) useInQuiz(q models.Question) {
	b.slots[q.ID]++
}

func (b *memBank) countInCategory(categoryID int64) int {
	n := 0
	for _, q := range b.questions {
		if q.CategoryID == categoryID {
			n++
		}
	}
	return n
}

func (b *memBank) exists(questionID int64) bool {
	_, ok := b.questions[questionID]
	return ok
}

func (b *memBank) FindByID(_ context.Context, id int64) (*models.Category, error) {
	c, ok := b.categories[id]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

func (b *memBank) CountChildren(_ context.Context, parentID int64) (int, error) {
	n := 0
	for _, c := range b.categories {
		if c.ParentID == parentID && c.ID != parentID {
			n++
		}
	}
	return n, nil
}

func (b *memBank) ListByCategory(_ context.Context, categoryID int64) ([]models.Question, error) {
	var out []models.Question
	for _, q := range b.questions {
		if q.CategoryID == categoryID {
			out = append(out, q)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

var errStorage = errors.New("storage unavailable")

func (b *memBank) DeleteIfUnused(_ context.Context, questionID int64) (bool, error) {
	if questionID == b.failDelete {
		return false, errStorage
	}
	if b.slots[questionID] > 0 {
		return false, nil
	}
	if _, ok := b.questions[questionID]; !ok {
		return false, nil
	}
	delete(b.questions, questionID)
	return true, nil
}

// capSet grants capabilities per context. Site admins bypass it.
type capSet struct {
	grants map[int64][]models.Capability
	err    error
	calls  int
}

func (c *capSet) HasCapability(_ context.Context, p Principal, capability models.Capability, contextID int64) (bool, error) {
	c.calls++
	if c.err != nil {
		return false, c.err
	}
	if p.IsSiteAdmin() {
		return true, nil
	}
	for _, g := range c.grants[contextID] {
		if g == capability {
			return true, nil
		}
	}
	return false, nil
}
