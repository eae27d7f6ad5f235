// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package qbank holds the question bank category rules: building indented
// category option lists, deciding whether a category may be deleted, and
// pruning questions no quiz uses.
package qbank

import (
	"fmt"
	"sort"
	"strings"

	"quizbank/internal/models"
)

// DefaultIndent is prefixed once per depth level to option labels.
const DefaultIndent = "\u00a0\u00a0\u00a0"

// ContextCategories is the input for one context: the context itself and
// every category of it the principal may see, top category included.
type ContextCategories struct {
	Context    models.Context
	Categories []models.Category
}

// OptionsConfig controls how option lists are built.
type OptionsConfig struct {
	// IncludeTop emits each context's top category as the first option.
	IncludeTop bool

	// Enriched adds the question count to every option.
	Enriched bool

	// ExcludeSubtreeOf omits this category and all its descendants.
	// Zero disables it.
	ExcludeSubtreeOf int64

	// Indent overrides DefaultIndent when non-empty.
	Indent string
}

// Option is one selectable category.
type Option struct {
	Key        string `json:"key"`
	Label      string `json:"label"`
	CategoryID int64  `json:"category_id"`
	ContextID  int64  `json:"context_id"`
	Depth      int    `json:"depth"`

	// QuestionCount is only set on enriched options.
	QuestionCount *int `json:"question_count,omitempty"`
}

// FieldCount returns the number of descriptive fields the option exposes:
// key and label, plus the question count when enriched.
func (o Option) FieldCount() int {
	n := 2
	if o.QuestionCount != nil {
		n++
	}
	return n
}

// ContextOptions is the ordered option list of one context.
type ContextOptions struct {
	ContextID   int64    `json:"context_id"`
	ContextName string   `json:"context_name"`
	Options     []Option `json:"options"`
}

// OptionKey returns the composite key used for a category option.
func OptionKey(categoryID, contextID int64) string {
	return fmt.Sprintf("%d,%d", categoryID, contextID)
}

// TopLabel returns the display label of a context's top category.
func TopLabel(ctx models.Context) string {
	return "Top for " + ctx.DisplayName()
}

// BuildOptions flattens each context's category tree into an indented,
// depth-first option list. Siblings are ordered by case-insensitive name,
// then id. Results keep the order of sets.
func BuildOptions(sets []ContextCategories, cfg OptionsConfig) []ContextOptions {
	indent := cfg.Indent
	if indent == "" {
		indent = DefaultIndent
	}

	result := make([]ContextOptions, 0, len(sets))
	for _, set := range sets {
		a := newArena(set.Context.ID, set.Categories)
		w := &walker{arena: a, cfg: cfg, indent: indent, ctx: set.Context}
		w.walk()
		result = append(result, ContextOptions{
			ContextID:   set.Context.ID,
			ContextName: set.Context.DisplayName(),
			Options:     w.out,
		})
	}
	return result
}

// OptionsMap indexes grouped options by context id.
func OptionsMap(grouped []ContextOptions) map[int64][]Option {
	m := make(map[int64][]Option, len(grouped))
	for _, g := range grouped {
		m[g.ContextID] = g.Options
	}
	return m
}

// arena holds one context's categories by index. parent is -1 for nodes at
// root level (the top category, or every root when no top exists).
type arena struct {
	nodes    []models.Category
	parent   []int
	children [][]int
	top      int
}

// newArena indexes cats and repairs the hierarchy so that every node is
// reachable exactly once from the root level. Categories of other contexts
// and duplicate ids are ignored.
func newArena(contextID int64, cats []models.Category) *arena {
	nodes := make([]models.Category, 0, len(cats))
	seen := make(map[int64]bool, len(cats))
	for _, c := range cats {
		if c.ContextID != contextID || seen[c.ID] {
			continue
		}
		seen[c.ID] = true
		nodes = append(nodes, c)
	}
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].ID < nodes[j].ID })

	a := &arena{
		nodes:    nodes,
		parent:   make([]int, len(nodes)),
		children: make([][]int, len(nodes)),
		top:      -1,
	}

	index := make(map[int64]int, len(nodes))
	for i, c := range nodes {
		index[c.ID] = i
		if a.top < 0 && c.ParentID == 0 {
			a.top = i
		}
	}

	for i, c := range nodes {
		if i == a.top {
			a.parent[i] = -1
			continue
		}
		p, ok := index[c.ParentID]
		if c.ParentID == 0 || !ok || p == i {
			p = a.top
		}
		a.parent[i] = p
	}

	a.breakCycles()

	for i, p := range a.parent {
		if p >= 0 {
			a.children[p] = append(a.children[p], i)
		}
	}
	for i := range a.children {
		a.sortSiblings(a.children[i])
	}
	return a
}

// breakCycles reattaches nodes that cannot reach the root level. The
// lowest-index unreachable node is moved under the top category (or to the
// root level) until every node is reachable.
func (a *arena) breakCycles() {
	n := len(a.nodes)
	reachable := make([]bool, n)
	kids := make([][]int, n)
	for i, p := range a.parent {
		if p >= 0 {
			kids[p] = append(kids[p], i)
		}
	}

	mark := func(start int) {
		stack := []int{start}
		for len(stack) > 0 {
			i := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if reachable[i] {
				continue
			}
			reachable[i] = true
			stack = append(stack, kids[i]...)
		}
	}

	for i, p := range a.parent {
		if p < 0 {
			mark(i)
		}
	}

	for i := 0; i < n; i++ {
		if reachable[i] {
			continue
		}
		a.parent[i] = a.top
		if a.top >= 0 {
			kids[a.top] = append(kids[a.top], i)
		}
		mark(i)
	}
}

func (a *arena) sortSiblings(ids []int) {
	sort.SliceStable(ids, func(i, j int) bool {
		ni, nj := strings.ToLower(a.nodes[ids[i]].Name), strings.ToLower(a.nodes[ids[j]].Name)
		if ni != nj {
			return ni < nj
		}
		return a.nodes[ids[i]].ID < a.nodes[ids[j]].ID
	})
}

// roots returns the nodes at root level in sibling order.
func (a *arena) roots() []int {
	var r []int
	for i, p := range a.parent {
		if p < 0 {
			r = append(r, i)
		}
	}
	a.sortSiblings(r)
	return r
}

type walker struct {
	arena  *arena
	cfg    OptionsConfig
	indent string
	ctx    models.Context
	out    []Option
}

func (w *walker) walk() {
	a := w.arena
	if a.top < 0 {
		for _, i := range a.roots() {
			w.visit(i, 0)
		}
		return
	}

	top := a.nodes[a.top]
	if top.ID == w.cfg.ExcludeSubtreeOf {
		return
	}
	depth := 0
	if w.cfg.IncludeTop {
		opt := w.option(top, 0)
		opt.Label = TopLabel(w.ctx)
		w.out = append(w.out, opt)
		depth = 1
	}
	for _, c := range a.children[a.top] {
		w.visit(c, depth)
	}
}

func (w *walker) visit(i, depth int) {
	cat := w.arena.nodes[i]
	if w.cfg.ExcludeSubtreeOf != 0 && cat.ID == w.cfg.ExcludeSubtreeOf {
		return
	}
	opt := w.option(cat, depth)
	opt.Label = strings.Repeat(w.indent, depth) + cat.Name
	w.out = append(w.out, opt)
	for _, c := range w.arena.children[i] {
		w.visit(c, depth+1)
	}
}

func (w *walker) option(cat models.Category, depth int) Option {
	opt := Option{
		Key:        OptionKey(cat.ID, cat.ContextID),
		CategoryID: cat.ID,
		ContextID:  cat.ContextID,
		Depth:      depth,
	}
	if w.cfg.Enriched {
		count := cat.QuestionCount
		opt.QuestionCount = &count
	}
	return opt
}

// GroupByContext splits a flat category list into per-context inputs for
// BuildOptions, in the order of contexts. Categories of other contexts are
// dropped.
func GroupByContext(contexts []models.Context, cats []models.Category) []ContextCategories {
	byContext := make(map[int64][]models.Category, len(contexts))
	for _, c := range cats {
		byContext[c.ContextID] = append(byContext[c.ContextID], c)
	}

	sets := make([]ContextCategories, 0, len(contexts))
	for _, ctx := range contexts {
		sets = append(sets, ContextCategories{Context: ctx, Categories: byContext[ctx.ID]})
	}
	return sets
}
