package services

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/jupiterclapton/cheffy/internal/core/domain"
	"github.com/jupiterclapton/cheffy/internal/core/ports"
)

const usersKey = "users:all"

func userKey(id string) string   { return "user:" + id }
func recipeKey(id string) string { return "recipe:" + id }

// readThrough enveloppe le QueryCache : une panne du cache ne fait jamais échouer une requête.
// Un cache nil est un no-op.
type readThrough struct {
	cache ports.QueryCache
	ttl   time.Duration
}

func newReadThrough(cache ports.QueryCache, ttl time.Duration) *readThrough {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &readThrough{cache: cache, ttl: ttl}
}

// cachedLoad lit key dans le cache, sinon appelle load et mémorise le résultat.
func cachedLoad[T any](ctx context.Context, c *readThrough, key string, load func(context.Context) (T, error)) (T, error) {
	if c.cache != nil {
		raw, ok, err := c.cache.Get(ctx, key)
		switch {
		case err != nil:
			slog.WarnContext(ctx, "cache read failed", "key", key, "error", err)
		case ok:
			var v T
			if err := json.Unmarshal(raw, &v); err == nil {
				return v, nil
			}
			slog.WarnContext(ctx, "cache entry unreadable, reloading", "key", key)
		}
	}

	v, err := load(ctx)
	if err != nil {
		return v, err
	}
	c.store(ctx, key, v)
	return v, nil
}

func (c *readThrough) store(ctx context.Context, key string, v any) {
	if c.cache == nil {
		return
	}
	raw, err := json.Marshal(v)
	if err != nil {
		slog.WarnContext(ctx, "cache encode failed", "key", key, "error", err)
		return
	}
	if err := c.cache.Set(ctx, key, raw, c.ttl); err != nil {
		slog.WarnContext(ctx, "cache write failed", "key", key, "error", err)
	}
}

func (c *readThrough) invalidate(ctx context.Context, keys ...string) {
	if c.cache == nil || len(keys) == 0 {
		return
	}
	if err := c.cache.Delete(ctx, keys...); err != nil {
		slog.WarnContext(ctx, "cache invalidation failed", "keys", keys, "error", err)
	}
}

// publish est best effort : l'action utilisateur est déjà confirmée par le backend.
func publish(ctx context.Context, events ports.EventPublisher, ev domain.EngagementEvent) {
	if events == nil {
		return
	}
	if err := events.PublishEngagement(ctx, ev); err != nil {
		slog.WarnContext(ctx, "engagement event not published", "type", ev.Type, "target", ev.TargetID, "error", err)
	}
}

// requireViewer : seul un compte connecté et actif peut agir.
func requireViewer(viewer *domain.Identity) error {
	if viewer == nil {
		return domain.ErrUnauthenticated
	}
	if viewer.IsBlocked() {
		return domain.ErrBlocked
	}
	return nil
}
