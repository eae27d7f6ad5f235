// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// handler_test.go provides shared test infrastructure: an in-memory
// question bank, a capability table, and a chi router wired like the real
// one but without session storage.
package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"sort"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"quizbank/internal/cache"
	"quizbank/internal/middleware"
	"quizbank/internal/models"
	"quizbank/internal/qbank"
	"quizbank/internal/session"
	"quizbank/internal/store"
)

var errBackend = errors.New("backend unavailable")

// memBank implements ContextLister, CategoryRepository and
// qbank.QuestionRepository in memory.
type memBank struct {
	contexts   map[int64]models.Context
	categories map[int64]models.Category
	questions  map[int64]models.Question
	used       map[int64]bool
	nextID     int64

	listCalls int
	failList  bool
}

func newMemBank() *memBank {
	return &memBank{
		contexts:   map[int64]models.Context{},
		categories: map[int64]models.Category{},
		questions:  map[int64]models.Question{},
		used:       map[int64]bool{},
		nextID:     100,
	}
}

func (b *memBank) id() int64 {
	b.nextID++
	return b.nextID
}

// addContext creates a context with its top category.
func (b *memBank) addContext(id int64, name string) models.Category {
	b.contexts[id] = models.Context{ID: id, Level: models.ContextLevelModule, Name: name}
	top := models.Category{ID: b.id(), Name: models.TopCategoryName, ContextID: id}
	b.categories[top.ID] = top
	return top
}

// addBareContext creates a context without any category.
func (b *memBank) addBareContext(id int64, name string) {
	b.contexts[id] = models.Context{ID: id, Level: models.ContextLevelModule, Name: name}
}

func (b *memBank) addCategory(name string, parent models.Category) models.Category {
	c := models.Category{ID: b.id(), Name: name, ContextID: parent.ContextID, ParentID: parent.ID}
	b.categories[c.ID] = c
	return c
}

func (b *memBank) addQuestion(cat models.Category, used bool) models.Question {
	q := models.Question{ID: b.id(), CategoryID: cat.ID, QType: models.QTypeShortAnswer}
	b.questions[q.ID] = q
	b.used[q.ID] = used
	return q
}

func (b *memBank) ListByIDs(_ context.Context, ids []int64) ([]models.Context, error) {
	var out []models.Context
	for _, id := range ids {
		if c, ok := b.contexts[id]; ok {
			out = append(out, c)
		}
	}
	return out, nil
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
		if c.ParentID == parentID {
			n++
		}
	}
	return n, nil
}

func (b *memBank) TopForContext(_ context.Context, contextID int64) (*models.Category, error) {
	for _, c := range b.categories {
		if c.ContextID == contextID && c.IsTop() {
			return &c, nil
		}
	}
	top := models.Category{ID: b.id(), Name: models.TopCategoryName, ContextID: contextID}
	b.categories[top.ID] = top
	return &top, nil
}

func (b *memBank) Update(_ context.Context, c *models.Category) error {
	existing, ok := b.categories[c.ID]
	if !ok {
		return nil
	}
	existing.Name = c.Name
	existing.Info = c.Info
	b.categories[c.ID] = existing
	return nil
}

func (b *memBank) ListByContexts(_ context.Context, contextIDs []int64) ([]models.Category, error) {
	b.listCalls++
	if b.failList {
		return nil, errBackend
	}
	want := map[int64]bool{}
	for _, id := range contextIDs {
		want[id] = true
	}
	var out []models.Category
	for _, c := range b.categories {
		if want[c.ContextID] {
			for _, q := range b.questions {
				if q.CategoryID == c.ID {
					c.QuestionCount++
				}
			}
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (b *memBank) Create(_ context.Context, c *models.Category) (*models.Category, error) {
	if c.ParentID == 0 {
		for _, existing := range b.categories {
			if existing.ContextID == c.ContextID && existing.IsTop() {
				c.ParentID = existing.ID
			}
		}
	} else if p, ok := b.categories[c.ParentID]; !ok || p.ContextID != c.ContextID {
		return nil, store.ErrParentContext
	}
	created := *c
	created.ID = b.id()
	b.categories[created.ID] = created
	return &created, nil
}

func (b *memBank) Delete(_ context.Context, id int64) error {
	cat, ok := b.categories[id]
	if !ok {
		return nil
	}
	for cid, c := range b.categories {
		if c.ParentID == id {
			c.ParentID = cat.ParentID
			b.categories[cid] = c
		}
	}
	for qid, q := range b.questions {
		if q.CategoryID == id {
			q.CategoryID = cat.ParentID
			b.questions[qid] = q
		}
	}
	delete(b.categories, id)
	return nil
}

func (b *memBank) SetParent(_ context.Context, id, newParentID int64) error {
	cat := b.categories[id]
	if cat.IsTop() {
		return store.ErrTopCategory
	}
	if p, ok := b.categories[newParentID]; !ok || p.ContextID != cat.ContextID {
		return store.ErrParentContext
	}
	for cur := newParentID; cur != 0; cur = b.categories[cur].ParentID {
		if cur == id {
			return store.ErrMoveIntoSubtree
		}
	}
	cat.ParentID = newParentID
	b.categories[id] = cat
	return nil
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

func (b *memBank) DeleteIfUnused(_ context.Context, id int64) (bool, error) {
	if b.used[id] {
		return false, nil
	}
	delete(b.questions, id)
	return true, nil
}

// grants is a capability table keyed by context. Site admins bypass it.
type grants map[int64][]models.Capability

func (g grants) HasCapability(_ context.Context, p qbank.Principal, capability models.Capability, contextID int64) (bool, error) {
	if p.IsSiteAdmin() {
		return true, nil
	}
	for _, c := range g[contextID] {
		if c == capability {
			return true, nil
		}
	}
	return false, nil
}

// testAPI bundles the category handlers with their fakes.
type testAPI struct {
	bank   *memBank
	grants grants
	cache  *cache.OptionCache
	mr     *miniredis.Miniredis
	router chi.Router
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	api := &testAPI{
		bank:   newMemBank(),
		grants: grants{},
		cache:  cache.NewOptionCache(client, 0),
		mr:     mr,
	}
	h := NewCategories(CategoriesConfig{
		Contexts:   api.bank,
		Categories: api.bank,
		Questions:  api.bank,
		Auth:       api.grants,
		Cache:      api.cache,
		Indent:     "-",
	})

	r := chi.NewRouter()
	r.Route("/api/categories", func(r chi.Router) {
		r.Use(middleware.RequireAuth)
		r.Get("/options", h.Options)
		r.Post("/", h.Create)
		r.Put("/{id}", h.Update)
		r.Get("/{id}/can-delete", h.CanDelete)
		r.Delete("/{id}", h.Delete)
		r.Post("/{id}/prune", h.Prune)
		r.Post("/{id}/move", h.Move)
	})
	api.router = r
	return api
}

// do performs a request as the given role; an empty role is anonymous.
func (api *testAPI) do(t *testing.T, role models.Role, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var rd io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		rd = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, target, rd)
	if role != "" {
		req = req.WithContext(ctxWithSession(req.Context(), &session.Data{
			UserID: uuid.New(),
			Email:  string(role) + "@quizbank.local",
			Role:   string(role),
		}))
	}
	rr := httptest.NewRecorder()
	api.router.ServeHTTP(rr, req)
	return rr
}

// ctxWithSession adds session data to a context using the middleware key.
func ctxWithSession(ctx context.Context, data *session.Data) context.Context {
	return context.WithValue(ctx, middleware.SessionKey, data)
}

// decodeBody unmarshals a JSON response body.
func decodeBody(t *testing.T, rr *httptest.ResponseRecorder, dst any) {
	t.Helper()
	if err := json.Unmarshal(rr.Body.Bytes(), dst); err != nil {
		t.Fatalf("decode body %q: %v", rr.Body.String(), err)
	}
}

// assertStatus fails the test when the response code differs.
func assertStatus(t *testing.T, rr *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rr.Code != want {
		t.Fatalf("status: got %d, want %d (body %s)", rr.Code, want, rr.Body.String())
	}
}

// assertErrorKey checks a policy error response carries the message key.
func assertErrorKey(t *testing.T, rr *httptest.ResponseRecorder, want string) {
	t.Helper()
	var body errorBody
	decodeBody(t, rr, &body)
	if body.Key != want {
		t.Errorf("error key: got %q, want %q (error %q)", body.Key, want, body.Error)
	}
}
