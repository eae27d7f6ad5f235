// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"quizbank/internal/cache"
	"quizbank/internal/middleware"
	"quizbank/internal/models"
	"quizbank/internal/qbank"
	"quizbank/internal/store"
)

// ContextLister loads permission contexts.
type ContextLister interface {
	ListByIDs(ctx context.Context, ids []int64) ([]models.Context, error)
}

// CategoryRepository is the category storage the API works against.
type CategoryRepository interface {
	qbank.CategoryReader
	TopForContext(ctx context.Context, contextID int64) (*models.Category, error)
	ListByContexts(ctx context.Context, contextIDs []int64) ([]models.Category, error)
	Create(ctx context.Context, c *models.Category) (*models.Category, error)
	Update(ctx context.Context, c *models.Category) error
	Delete(ctx context.Context, id int64) error
	SetParent(ctx context.Context, id, newParentID int64) error
}

// OptionCache stores built option lists. *cache.OptionCache implements it.
type OptionCache interface {
	Get(ctx context.Context, key string) ([]qbank.ContextOptions, bool)
	Set(ctx context.Context, key string, contextIDs []int64, grouped []qbank.ContextOptions)
	InvalidateContext(ctx context.Context, contextID int64)
}

// Categories groups the question category API handlers.
type Categories struct {
	contexts   ContextLister
	categories CategoryRepository
	auth       qbank.Authorizer
	guard      *qbank.Guard
	pruner     *qbank.Pruner
	cache      OptionCache
	indent     string
}

// CategoriesConfig holds the dependencies of the category handlers.
type CategoriesConfig struct {
	Contexts   ContextLister
	Categories CategoryRepository
	Questions  qbank.QuestionRepository
	Auth       qbank.Authorizer
	Cache      OptionCache
	Indent     string
}

// NewCategories creates the category handler group.
func NewCategories(cfg CategoriesConfig) *Categories {
	return &Categories{
		contexts:   cfg.Contexts,
		categories: cfg.Categories,
		auth:       cfg.Auth,
		guard:      qbank.NewGuard(cfg.Categories),
		pruner:     qbank.NewPruner(cfg.Categories, cfg.Questions),
		cache:      cfg.Cache,
		indent:     cfg.Indent,
	}
}

// Options returns the selectable category options of the requested
// contexts, restricted to contexts where the user may add questions.
//
//	GET /api/categories/options?context=ID&context=ID&top=1&enriched=1&exclude=ID
func (h *Categories) Options(w http.ResponseWriter, r *http.Request) {
	p, ok := middleware.PrincipalFromCtx(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	q := r.URL.Query()
	contextIDs, err := parseIDs(q["context"])
	if err != nil || len(contextIDs) == 0 {
		writeError(w, http.StatusBadRequest, "at least one valid context id is required")
		return
	}
	cfg := qbank.OptionsConfig{
		IncludeTop: parseFlag(q.Get("top")),
		Enriched:   parseFlag(q.Get("enriched")),
		Indent:     h.indent,
	}
	if ex := q.Get("exclude"); ex != "" {
		cfg.ExcludeSubtreeOf, err = strconv.ParseInt(ex, 10, 64)
		if err != nil || cfg.ExcludeSubtreeOf <= 0 {
			writeError(w, http.StatusBadRequest, "exclude must be a category id")
			return
		}
	}

	allowed, err := qbank.ContextsHaving(r.Context(), h.auth, p, models.CapAddQuestion, contextIDs)
	if err != nil {
		writeServiceError(w, r, "capability lookup", err)
		return
	}
	if len(allowed) == 0 {
		writeJSON(w, http.StatusOK, map[string]any{"contexts": []qbank.ContextOptions{}})
		return
	}

	key := cache.OptionsKey(allowed, cfg)
	if grouped, hit := h.cache.Get(r.Context(), key); hit {
		writeJSON(w, http.StatusOK, map[string]any{"contexts": grouped})
		return
	}

	contexts, err := h.contexts.ListByIDs(r.Context(), allowed)
	if err != nil {
		writeServiceError(w, r, "list contexts", err)
		return
	}
	// Every listed context gets a top category, even one nobody has
	// created categories in yet.
	for _, c := range contexts {
		if _, err := h.categories.TopForContext(r.Context(), c.ID); err != nil {
			writeServiceError(w, r, "ensure top category", err)
			return
		}
	}
	cats, err := h.categories.ListByContexts(r.Context(), allowed)
	if err != nil {
		writeServiceError(w, r, "list categories", err)
		return
	}

	grouped := qbank.BuildOptions(qbank.GroupByContext(contexts, cats), cfg)
	h.cache.Set(r.Context(), key, allowed, grouped)

	writeJSON(w, http.StatusOK, map[string]any{"contexts": grouped})
}

type createCategoryRequest struct {
	Name      string `json:"name" validate:"required,max=255"`
	Info      string `json:"info" validate:"max=10000"`
	ContextID int64  `json:"context_id" validate:"required,gt=0"`
	ParentID  int64  `json:"parent_id" validate:"gte=0"`
}

// Create adds a category. A zero parent_id places it under the context's
// top category.
func (h *Categories) Create(w http.ResponseWriter, r *http.Request) {
	p, ok := middleware.PrincipalFromCtx(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var req createCategoryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := qbank.RequireCapability(r.Context(), h.auth, p, models.CapManageCategory, req.ContextID); err != nil {
		writeServiceError(w, r, "create category", err)
		return
	}

	cat, err := h.categories.Create(r.Context(), &models.Category{
		Name:      req.Name,
		Info:      req.Info,
		ContextID: req.ContextID,
		ParentID:  req.ParentID,
	})
	if errors.Is(err, store.ErrParentContext) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		writeServiceError(w, r, "create category", err)
		return
	}

	h.cache.InvalidateContext(r.Context(), cat.ContextID)
	slog.Info("category created", "category_id", cat.ID, "context_id", cat.ContextID, "user", p.UserID)
	writeJSON(w, http.StatusCreated, cat)
}

type updateCategoryRequest struct {
	Name string `json:"name" validate:"required,max=255"`
	Info string `json:"info" validate:"max=10000"`
}

// Update renames a category and replaces its description.
func (h *Categories) Update(w http.ResponseWriter, r *http.Request) {
	p, cat, ok := h.managedCategory(w, r)
	if !ok {
		return
	}

	var req updateCategoryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	cat.Name = req.Name
	cat.Info = req.Info
	if err := h.categories.Update(r.Context(), cat); err != nil {
		writeServiceError(w, r, "update category", err)
		return
	}

	h.cache.InvalidateContext(r.Context(), cat.ContextID)
	slog.Info("category updated", "category_id", cat.ID, "user", p.UserID)
	writeJSON(w, http.StatusOK, cat)
}

// CanDelete answers 204 when the category may be deleted, or the policy
// failure that forbids it.
func (h *Categories) CanDelete(w http.ResponseWriter, r *http.Request) {
	p, id, ok := h.principalAndID(w, r)
	if !ok {
		return
	}

	if err := h.guard.CanDelete(r.Context(), h.auth, p, id); err != nil {
		writeServiceError(w, r, "check category deletion", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Delete removes a category after the deletion policy allows it. Its
// subcategories and questions move to its parent.
func (h *Categories) Delete(w http.ResponseWriter, r *http.Request) {
	p, id, ok := h.principalAndID(w, r)
	if !ok {
		return
	}

	if err := h.guard.CanDelete(r.Context(), h.auth, p, id); err != nil {
		writeServiceError(w, r, "check category deletion", err)
		return
	}

	// The guard has just confirmed the category exists.
	cat, err := h.categories.FindByID(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, "delete category", err)
		return
	}
	if cat == nil {
		writeServiceError(w, r, "delete category", notFound(id))
		return
	}

	if err := h.categories.Delete(r.Context(), id); err != nil {
		writeServiceError(w, r, "delete category", err)
		return
	}

	h.cache.InvalidateContext(r.Context(), cat.ContextID)
	slog.Info("category deleted", "category_id", id, "context_id", cat.ContextID, "user", p.UserID)
	w.WriteHeader(http.StatusNoContent)
}

// Prune removes the category's questions that no quiz uses.
func (h *Categories) Prune(w http.ResponseWriter, r *http.Request) {
	p, cat, ok := h.managedCategory(w, r)
	if !ok {
		return
	}

	removed, err := h.pruner.PruneCategory(r.Context(), cat.ID)
	if removed > 0 {
		h.cache.InvalidateContext(r.Context(), cat.ContextID)
	}
	if err != nil {
		slog.Error("prune interrupted", "category_id", cat.ID, "removed", removed, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]any{
			"error":   "prune interrupted",
			"removed": removed,
		})
		return
	}

	slog.Info("category pruned", "category_id", cat.ID, "removed", removed, "user", p.UserID)
	writeJSON(w, http.StatusOK, map[string]int{"removed": removed})
}

type moveCategoryRequest struct {
	ParentID int64 `json:"parent_id" validate:"gte=0"`
}

// Move reparents a category within its context. A zero parent_id moves
// it directly under the top category.
func (h *Categories) Move(w http.ResponseWriter, r *http.Request) {
	p, cat, ok := h.managedCategory(w, r)
	if !ok {
		return
	}

	var req moveCategoryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	err := h.categories.SetParent(r.Context(), cat.ID, req.ParentID)
	switch {
	case errors.Is(err, store.ErrMoveIntoSubtree), errors.Is(err, store.ErrParentContext):
		writeError(w, http.StatusBadRequest, err.Error())
		return
	case errors.Is(err, store.ErrTopCategory):
		writeJSON(w, http.StatusConflict, errorBody{Error: err.Error(), Key: qbank.MsgCannotDeleteTopCat})
		return
	case err != nil:
		writeServiceError(w, r, "move category", err)
		return
	}

	h.cache.InvalidateContext(r.Context(), cat.ContextID)
	slog.Info("category moved", "category_id", cat.ID, "parent_id", req.ParentID, "user", p.UserID)
	w.WriteHeader(http.StatusNoContent)
}

// principalAndID extracts the acting principal and the {id} URL parameter,
// answering the request itself when either is missing.
func (h *Categories) principalAndID(w http.ResponseWriter, r *http.Request) (qbank.Principal, int64, bool) {
	p, ok := middleware.PrincipalFromCtx(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return p, 0, false
	}
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid category id")
		return p, 0, false
	}
	return p, id, true
}

// managedCategory loads the {id} category and checks the principal may
// manage categories in its context.
func (h *Categories) managedCategory(w http.ResponseWriter, r *http.Request) (qbank.Principal, *models.Category, bool) {
	p, id, ok := h.principalAndID(w, r)
	if !ok {
		return p, nil, false
	}

	cat, err := h.categories.FindByID(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, "load category", err)
		return p, nil, false
	}
	if cat == nil {
		writeServiceError(w, r, "load category", notFound(id))
		return p, nil, false
	}

	if err := qbank.RequireCapability(r.Context(), h.auth, p, models.CapManageCategory, cat.ContextID); err != nil {
		var pe *qbank.PolicyError
		if errors.As(err, &pe) {
			pe.CategoryID = id
		}
		writeServiceError(w, r, "authorize category", err)
		return p, nil, false
	}
	return p, cat, true
}

func notFound(id int64) *qbank.PolicyError {
	return &qbank.PolicyError{Kind: qbank.ErrCategoryNotFound, MessageKey: qbank.MsgUnknownCategory, CategoryID: id}
}

// parseIDs parses positive integer ids, dropping duplicates.
func parseIDs(raw []string) ([]int64, error) {
	seen := make(map[int64]bool, len(raw))
	ids := make([]int64, 0, len(raw))
	for _, s := range raw {
		id, err := strconv.ParseInt(s, 10, 64)
		if err != nil || id <= 0 {
			return nil, errors.New("invalid id " + strconv.Quote(s))
		}
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// parseFlag accepts 1/true/yes/on as true.
func parseFlag(s string) bool {
	switch s {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}
