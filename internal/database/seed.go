package database

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"golang.org/x/crypto/bcrypt"
)

// Seed accounts created in development.
const (
	SeedAdminEmail   = "admin@quizbank.local"
	SeedTeacherEmail = "teacher@quizbank.local"
	seedPassword     = "admin"
)

// seedContext describes one context created by Seed.
type seedContext struct {
	level    string
	instance int64
	name     string
}

// seedContexts form a chain: each context's parent is the one before it.
var seedContexts = []seedContext{
	{"system", 0, "System"},
	{"course", 1, "Sample course"},
	{"module", 1, "Sample quiz"},
}

// Seed populates the database with initial development data: an admin, an
// editing teacher in the sample course, and a system > course > quiz
// context chain where every context has its top category and a default
// category. It does nothing once any user exists.
func Seed(ctx context.Context, db *sql.DB) error {
	var count int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM users").Scan(&count); err != nil {
		return fmt.Errorf("seed check users: %w", err)
	}

	if count > 0 {
		slog.Info("database already seeded, skipping")
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(seedPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("seed bcrypt: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("seed begin: %w", err)
	}
	defer tx.Rollback()

	var parent any
	var courseID int64
	for _, sc := range seedContexts {
		var id int64
		err := tx.QueryRowContext(ctx, `
			INSERT INTO contexts (level, instance_id, parent_id, name)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (level, instance_id) DO UPDATE SET name = EXCLUDED.name
			RETURNING id
		`, sc.level, sc.instance, parent, sc.name).Scan(&id)
		if err != nil {
			return fmt.Errorf("seed context %s: %w", sc.name, err)
		}
		if err := seedCategories(ctx, tx, id, sc.name); err != nil {
			return err
		}
		if sc.level == "course" {
			courseID = id
		}
		parent = id
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO users (email, password_hash, display_name, role)
		VALUES ($1, $2, 'Admin', 'admin'), ($3, $2, 'Teacher', 'editingteacher')
	`, SeedAdminEmail, string(hash), SeedTeacherEmail)
	if err != nil {
		return fmt.Errorf("seed insert users: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO role_assignments (user_id, context_id, role)
		SELECT id, $1, 'editingteacher' FROM users WHERE email = $2
		ON CONFLICT DO NOTHING
	`, courseID, SeedTeacherEmail)
	if err != nil {
		return fmt.Errorf("seed assign teacher: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("seed commit: %w", err)
	}

	slog.Info("database seeded",
		"admin", SeedAdminEmail,
		"teacher", SeedTeacherEmail,
		"password", seedPassword,
	)
	return nil
}

// seedCategories creates a context's top category and its default category.
func seedCategories(ctx context.Context, tx *sql.Tx, contextID int64, name string) error {
	var topID int64
	err := tx.QueryRowContext(ctx, `
		INSERT INTO question_categories (name, context_id, parent_id, sort_order)
		VALUES ('top', $1, 0, 0)
		ON CONFLICT (context_id) WHERE parent_id = 0 DO UPDATE SET name = EXCLUDED.name
		RETURNING id
	`, contextID).Scan(&topID)
	if err != nil {
		return fmt.Errorf("seed top category for %s: %w", name, err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO question_categories (name, info, context_id, parent_id)
		VALUES ($1, $2, $3, $4)
	`, "Default for "+name, "The default category for questions shared in context '"+name+"'.", contextID, topID)
	if err != nil {
		return fmt.Errorf("seed default category for %s: %w", name, err)
	}
	return nil
}
