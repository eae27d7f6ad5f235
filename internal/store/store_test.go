// store_test.go provides a shared test database helper for all store
// integration tests. Tests are skipped if PostgreSQL is not available.
package store

import (
	"context"
	"database/sql"
	"os"
	"sync/atomic"
	"testing"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"quizbank/internal/database"
	"quizbank/internal/models"
)

// testDSN returns the PostgreSQL connection string for testing.
// Uses environment variables with defaults matching docker-compose.yml.
func testDSN() string {
	host := envOr("POSTGRES_HOST", "localhost")
	port := envOr("POSTGRES_PORT", "5432")
	user := envOr("POSTGRES_USER", "quizbank")
	pass := envOr("POSTGRES_PASSWORD", "changeme")
	name := envOr("POSTGRES_DB", "quizbank")
	return "postgres://" + user + ":" + pass + "@" + host + ":" + port + "/" + name + "?sslmode=disable&connect_timeout=2"
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// testDB opens a connection to the test database and runs migrations.
// If the database is unavailable, the test is skipped. A cleanup
// function is registered to close the connection when the test finishes.
func testDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("pgx", testDSN())
	if err != nil {
		t.Skipf("skipping integration test: cannot open DB: %v", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		t.Skipf("skipping integration test: DB not reachable: %v", err)
	}

	// Run migrations to ensure the schema is current.
	if err := database.Migrate(db); err != nil {
		db.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	// Downgrade goose global state.
	goose.SetBaseFS(nil)

	t.Cleanup(func() { db.Close() })
	return db
}

var instanceSeq atomic.Int64

// testContext creates a module context with a unique instance id and
// removes it with everything it owns when the test finishes.
func testContext(t *testing.T, db *sql.DB) *models.Context {
	t.Helper()

	instance := time.Now().UnixNano() + instanceSeq.Add(1)
	c, err := NewContextStore(db).Create(context.Background(), &models.Context{
		Level:      models.ContextLevelModule,
		InstanceID: instance,
		Name:       "Test quiz",
	})
	if err != nil {
		t.Fatalf("create test context: %v", err)
	}
	t.Cleanup(func() { cleanContext(t, db, c.ID) })
	return c
}

// cleanContext removes a context with its quizzes, questions and categories.
func cleanContext(t *testing.T, db *sql.DB, contextID int64) {
	t.Helper()
	db.Exec(`DELETE FROM quiz_slots WHERE quiz_id IN (SELECT id FROM quizzes WHERE context_id = $1)`, contextID)
	db.Exec(`DELETE FROM quiz_slots WHERE question_id IN (
		SELECT q.id FROM questions q JOIN question_categories c ON c.id = q.category_id WHERE c.context_id = $1)`, contextID)
	db.Exec(`DELETE FROM questions WHERE category_id IN (SELECT id FROM question_categories WHERE context_id = $1)`, contextID)
	db.Exec(`DELETE FROM contexts WHERE id = $1`, contextID)
}

// cleanUsers removes test users by email. Call in t.Cleanup().
func cleanUsers(t *testing.T, db *sql.DB, emails ...string) {
	t.Helper()
	for _, email := range emails {
		db.Exec("DELETE FROM users WHERE email = $1", email)
	}
}

func mustCategory(t *testing.T, s *CategoryStore, c *models.Category) *models.Category {
	t.Helper()
	created, err := s.Create(context.Background(), c)
	if err != nil {
		t.Fatalf("create category %q: %v", c.Name, err)
	}
	return created
}

func mustQuestion(t *testing.T, s *QuestionStore, categoryID int64, qtype models.QType) *models.Question {
	t.Helper()
	q, err := s.Create(context.Background(), &models.Question{
		CategoryID:   categoryID,
		Name:         "Question",
		QuestionText: "What is the answer?",
		QType:        qtype,
	})
	if err != nil {
		t.Fatalf("create question: %v", err)
	}
	return q
}
