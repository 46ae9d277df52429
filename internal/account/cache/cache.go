// Package cache invalidates cached account views after moderation writes.
// The web tier caches rendered account state under account:view:<id>; a
// moderation decision must not keep serving the stale view.
package cache

import (
	"context"
	"fmt"

	"gavel/internal/platform/redis"
	"gavel/pkg/domain"
)

// ViewCache drops cached views for an account. Invalidation failures are the
// caller's to log; they never fail the moderation operation.
type ViewCache struct {
	client *redis.Client
}

func NewViewCache(client *redis.Client) *ViewCache {
	return &ViewCache{client: client}
}

func key(accountID domain.AccountID) string {
	return "account:view:" + accountID.String()
}

// Invalidate removes the cached view for one account.
func (c *ViewCache) Invalidate(ctx context.Context, accountID domain.AccountID) error {
	if c == nil || c.client == nil {
		return nil
	}
	if err := c.client.Del(ctx, key(accountID)).Err(); err != nil {
		return fmt.Errorf("invalidate account view %s: %w", accountID, err)
	}
	return nil
}
