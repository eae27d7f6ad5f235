// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import "time"

// QType identifies the question type.
type QType string

const (
	QTypeShortAnswer QType = "shortanswer"
	QTypeMultiChoice QType = "multichoice"
	QTypeTrueFalse   QType = "truefalse"
	QTypeRandom      QType = "random"
)

// Question is a single question stored in a category.
type Question struct {
	ID           int64     `json:"id"`
	CategoryID   int64     `json:"category_id"`
	Name         string    `json:"name"`
	QuestionText string    `json:"question_text"`
	QType        QType     `json:"qtype"`
	Hidden       bool      `json:"hidden"`
	CreatedAt    time.Time `json:"created_at"`
}

// IsRandom reports whether q is a random selector placeholder rather than
// fixed content.
func (q *Question) IsRandom() bool {
	return q.QType == QTypeRandom
}

// Quiz is an assessment built from slots.
type Quiz struct {
	ID        int64     `json:"id"`
	ContextID int64     `json:"context_id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// QuizSlot places a question at a position in a quiz. A slot is the usage
// reference that keeps a question from being pruned.
type QuizSlot struct {
	ID         int64 `json:"id"`
	QuizID     int64 `json:"quiz_id"`
	Slot       int   `json:"slot"`
	QuestionID int64 `json:"question_id"`
}
