// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// options.go provides a Valkey-backed cache of built category option
// lists. Entries are indexed per context so a change to one context's
// categories drops every list that includes it.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"quizbank/internal/qbank"
)

const (
	// optionsKeyPrefix is the Valkey key prefix for cached option lists.
	optionsKeyPrefix = "qbank:options:"

	// contextIndexPrefix prefixes the set of option keys built from a context.
	contextIndexPrefix = "qbank:options-index:"

	// DefaultOptionsTTL is how long a built option list stays cached.
	DefaultOptionsTTL = 5 * time.Minute
)

// OptionCache caches category option lists in Valkey.
type OptionCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewOptionCache creates an option cache backed by the given Valkey client.
func NewOptionCache(client *redis.Client, ttl time.Duration) *OptionCache {
	if ttl == 0 {
		ttl = DefaultOptionsTTL
	}
	return &OptionCache{client: client, ttl: ttl}
}

// OptionsKey returns the cache key for an option list request. Context
// order is preserved because it decides the output order.
func OptionsKey(contextIDs []int64, cfg qbank.OptionsConfig) string {
	ids := make([]string, len(contextIDs))
	for i, id := range contextIDs {
		ids[i] = strconv.FormatInt(id, 10)
	}
	return fmt.Sprintf("%sctx=%s|top=%t|enriched=%t|exclude=%d",
		optionsKeyPrefix, strings.Join(ids, ","), cfg.IncludeTop, cfg.Enriched, cfg.ExcludeSubtreeOf)
}

// Get returns the cached option list for key. Errors are logged and
// reported as a miss.
func (oc *OptionCache) Get(ctx context.Context, key string) ([]qbank.ContextOptions, bool) {
	val, err := oc.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		slog.Warn("option cache get error", "key", key, "error", err)
		return nil, false
	}

	var grouped []qbank.ContextOptions
	if err := json.Unmarshal(val, &grouped); err != nil {
		slog.Warn("option cache decode error", "key", key, "error", err)
		return nil, false
	}
	slog.Debug("option cache hit", "key", key)
	return grouped, true
}

// Set stores an option list under key and records the key in the index of
// every context it was built from.
func (oc *OptionCache) Set(ctx context.Context, key string, contextIDs []int64, grouped []qbank.ContextOptions) {
	payload, err := json.Marshal(grouped)
	if err != nil {
		slog.Warn("option cache encode error", "key", key, "error", err)
		return
	}

	pipe := oc.client.TxPipeline()
	pipe.Set(ctx, key, payload, oc.ttl)
	for _, id := range contextIDs {
		idx := contextIndexKey(id)
		pipe.SAdd(ctx, idx, key)
		pipe.Expire(ctx, idx, oc.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		slog.Warn("option cache set error", "key", key, "error", err)
	}
}

// InvalidateContext removes every cached option list built from the
// context.
func (oc *OptionCache) InvalidateContext(ctx context.Context, contextID int64) {
	idx := contextIndexKey(contextID)
	keys, err := oc.client.SMembers(ctx, idx).Result()
	if err != nil {
		slog.Warn("option cache index error", "context_id", contextID, "error", err)
		return
	}
	sort.Strings(keys)

	if err := oc.client.Del(ctx, append(keys, idx)...).Err(); err != nil {
		slog.Warn("option cache invalidate error", "context_id", contextID, "error", err)
		return
	}
	slog.Debug("option cache invalidated", "context_id", contextID, "keys", len(keys))
}

// InvalidateAll removes all cached option lists by scanning for the prefixes.
func (oc *OptionCache) InvalidateAll(ctx context.Context) {
	var deleted int
	for _, prefix := range []string{optionsKeyPrefix, contextIndexPrefix} {
		var cursor uint64
		for {
			keys, nextCursor, err := oc.client.Scan(ctx, cursor, prefix+"*", 100).Result()
			if err != nil {
				slog.Warn("option cache scan error", "error", err)
				return
			}
			if len(keys) > 0 {
				if err := oc.client.Del(ctx, keys...).Err(); err != nil {
					slog.Warn("option cache bulk delete error", "error", err)
				}
				deleted += len(keys)
			}
			cursor = nextCursor
			if cursor == 0 {
				break
			}
		}
	}
	if deleted > 0 {
		slog.Info("option cache fully cleared", "deleted", deleted)
	}
}

func contextIndexKey(contextID int64) string {
	return contextIndexPrefix + strconv.FormatInt(contextID, 10)
}
