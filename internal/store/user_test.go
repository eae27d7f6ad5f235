// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"quizbank/internal/models"
)

func TestUserStoreCreate(t *testing.T) {
	db := testDB(t)
	s := NewUserStore(db)
	ctx := context.Background()

	email := "test-create@store-test.local"
	t.Cleanup(func() { cleanUsers(t, db, email) })

	user, err := s.Create(ctx, email, "testpass123", "Test User", models.RoleTeacher)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if user.ID == uuid.Nil {
		t.Error("expected non-nil UUID")
	}
	if user.Email != email {
		t.Errorf("email = %q, want %q", user.Email, email)
	}
	if user.Role != models.RoleTeacher {
		t.Errorf("role = %q, want %q", user.Role, models.RoleTeacher)
	}
	if user.PasswordHash == "testpass123" {
		t.Error("password stored in plaintext")
	}
}

func TestUserStoreFind(t *testing.T) {
	db := testDB(t)
	s := NewUserStore(db)
	ctx := context.Background()

	email := "test-find@store-test.local"
	t.Cleanup(func() { cleanUsers(t, db, email) })

	created, err := s.Create(ctx, email, "testpass123", "Find Me", models.RoleStudent)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	byEmail, err := s.FindByEmail(ctx, email)
	if err != nil {
		t.Fatalf("FindByEmail: %v", err)
	}
	if byEmail == nil || byEmail.ID != created.ID {
		t.Fatalf("FindByEmail = %+v, want id %s", byEmail, created.ID)
	}

	byID, err := s.FindByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if byID == nil || byID.Email != email {
		t.Fatalf("FindByID = %+v, want email %q", byID, email)
	}

	missing, err := s.FindByEmail(ctx, "nobody@store-test.local")
	if err != nil {
		t.Fatalf("FindByEmail (missing): %v", err)
	}
	if missing != nil {
		t.Error("expected nil for unknown email")
	}

	missing, err = s.FindByID(ctx, uuid.New())
	if err != nil {
		t.Fatalf("FindByID (missing): %v", err)
	}
	if missing != nil {
		t.Error("expected nil for unknown id")
	}
}

func TestUserStoreCheckPassword(t *testing.T) {
	db := testDB(t)
	s := NewUserStore(db)

	email := "test-password@store-test.local"
	t.Cleanup(func() { cleanUsers(t, db, email) })

	user, err := s.Create(context.Background(), email, "correct-horse", "Pw", models.RoleStudent)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if !s.CheckPassword(user, "correct-horse") {
		t.Error("expected correct password to match")
	}
	if s.CheckPassword(user, "wrong") {
		t.Error("expected wrong password to fail")
	}
}

func TestUserStoreAssignRole(t *testing.T) {
	db := testDB(t)
	s := NewUserStore(db)
	ctx := context.Background()

	email := "test-role@store-test.local"
	t.Cleanup(func() { cleanUsers(t, db, email) })

	user, err := s.Create(ctx, email, "testpass123", "Role", models.RoleStudent)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	c := testContext(t, db)

	for i := 0; i < 2; i++ {
		if err := s.AssignRole(ctx, user.ID, c.ID, models.RoleEditingTeacher); err != nil {
			t.Fatalf("AssignRole #%d: %v", i+1, err)
		}
	}

	var n int
	if err := db.QueryRow(`SELECT COUNT(*) FROM role_assignments WHERE user_id = $1 AND context_id = $2`,
		user.ID, c.ID).Scan(&n); err != nil {
		t.Fatalf("count assignments: %v", err)
	}
	if n != 1 {
		t.Errorf("assignments = %d, want 1", n)
	}
}

func TestUserStoreDelete(t *testing.T) {
	db := testDB(t)
	s := NewUserStore(db)
	ctx := context.Background()

	email := "test-delete@store-test.local"
	t.Cleanup(func() { cleanUsers(t, db, email) })

	user, err := s.Create(ctx, email, "testpass123", "Gone", models.RoleStudent)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := s.Delete(ctx, user.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	found, err := s.FindByID(ctx, user.ID)
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if found != nil {
		t.Error("expected user to be gone")
	}
}

func TestUserStoreDuplicateEmail(t *testing.T) {
	db := testDB(t)
	s := NewUserStore(db)
	ctx := context.Background()

	email := "test-dup@store-test.local"
	t.Cleanup(func() { cleanUsers(t, db, email) })

	if _, err := s.Create(ctx, email, "testpass123", "First", models.RoleStudent); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := s.Create(ctx, email, "testpass123", "Second", models.RoleStudent); err == nil {
		t.Error("expected error for duplicate email")
	}
}
