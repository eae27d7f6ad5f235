package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"quizbank/internal/models"
	"quizbank/internal/session"
)

// newTestSession creates a session.Data value suitable for testing.
func newTestSession(role models.Role) *session.Data {
	return &session.Data{
		UserID:      uuid.New(),
		Email:       "test@quizbank.local",
		DisplayName: "Test User",
		Role:        string(role),
	}
}

// ctxWithSession returns a context carrying the given session data under
// the key LoadSession uses.
func ctxWithSession(ctx context.Context, data *session.Data) context.Context {
	return context.WithValue(ctx, SessionKey, data)
}

// okHandler is a simple handler that records whether it was invoked.
func okHandler() (http.Handler, *bool) {
	var called bool
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
	})
	return h, &called
}

// stubLoader is a SessionLoader returning fixed values.
type stubLoader struct {
	data *session.Data
	err  error
}

func (s stubLoader) Get(context.Context, *http.Request) (*session.Data, error) {
	return s.data, s.err
}

// ---------- SessionFromCtx ----------

func TestSessionFromCtx(t *testing.T) {
	t.Run("returns session when present", func(t *testing.T) {
		sess := newTestSession(models.RoleEditingTeacher)
		got := SessionFromCtx(ctxWithSession(context.Background(), sess))
		if got == nil {
			t.Fatal("expected non-nil session, got nil")
		}
		if got.Email != sess.Email {
			t.Errorf("Email: got %q, want %q", got.Email, sess.Email)
		}
	})

	t.Run("returns nil when not present", func(t *testing.T) {
		if got := SessionFromCtx(context.Background()); got != nil {
			t.Errorf("expected nil session, got %+v", got)
		}
	})

	t.Run("returns nil for wrong type in context", func(t *testing.T) {
		ctx := context.WithValue(context.Background(), SessionKey, "not-a-session")
		if got := SessionFromCtx(ctx); got != nil {
			t.Errorf("expected nil for wrong type, got %+v", got)
		}
	})
}

func TestPrincipalFromCtx(t *testing.T) {
	sess := newTestSession(models.RoleAdmin)
	p, ok := PrincipalFromCtx(ctxWithSession(context.Background(), sess))
	if !ok {
		t.Fatal("expected a principal")
	}
	if p.UserID != sess.UserID || !p.IsSiteAdmin() {
		t.Errorf("principal: got %+v", p)
	}

	if _, ok := PrincipalFromCtx(context.Background()); ok {
		t.Error("anonymous context should have no principal")
	}
}

// ---------- LoadSession ----------

func TestLoadSession(t *testing.T) {
	tests := []struct {
		name    string
		loader  stubLoader
		wantHas bool
	}{
		{"session found", stubLoader{data: newTestSession(models.RoleTeacher)}, true},
		{"no session", stubLoader{}, false},
		{"store error", stubLoader{err: errors.New("valkey down")}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got *session.Data
			var called bool
			inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				called = true
				got = SessionFromCtx(r.Context())
			})

			req := httptest.NewRequest(http.MethodGet, "/api/categories/options", nil)
			rr := httptest.NewRecorder()
			LoadSession(tt.loader)(inner).ServeHTTP(rr, req)

			if !called {
				t.Fatal("next handler should always be called")
			}
			if (got != nil) != tt.wantHas {
				t.Errorf("session in context: got %v, want %v", got != nil, tt.wantHas)
			}
		})
	}
}

// ---------- RequireAuth ----------

func TestRequireAuth(t *testing.T) {
	t.Run("401 when no session", func(t *testing.T) {
		inner, called := okHandler()
		req := httptest.NewRequest(http.MethodGet, "/api/categories/options", nil)
		rr := httptest.NewRecorder()
		RequireAuth(inner).ServeHTTP(rr, req)

		if *called {
			t.Error("next handler should NOT have been called")
		}
		if rr.Code != http.StatusUnauthorized {
			t.Errorf("status: got %d, want %d", rr.Code, http.StatusUnauthorized)
		}
		if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
			t.Errorf("Content-Type: got %q", ct)
		}
	})

	t.Run("passes through when session exists", func(t *testing.T) {
		inner, called := okHandler()
		req := httptest.NewRequest(http.MethodGet, "/api/categories/options", nil)
		req = req.WithContext(ctxWithSession(req.Context(), newTestSession(models.RoleStudent)))
		rr := httptest.NewRecorder()
		RequireAuth(inner).ServeHTTP(rr, req)

		if !*called {
			t.Error("next handler should have been called")
		}
		if rr.Code != http.StatusOK {
			t.Errorf("status: got %d, want 200", rr.Code)
		}
	})
}
