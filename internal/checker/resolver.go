package checker

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"tg-bgcheck/internal/logger"
	"tg-bgcheck/internal/models"
	"tg-bgcheck/internal/roblox"
)

// ErrNotFound means the query did not resolve to any identity. Terminal for
// the whole request and the only user-visible resolution failure.
var ErrNotFound = errors.New("checker: identity not found")

// Resolver turns a free-text query into a canonical identity via a cascade
// of directory lookups, short-circuiting on the first match.
type Resolver struct {
	client *roblox.Client
}

// NewResolver builds a Resolver over the directory client.
func NewResolver(client *roblox.Client) *Resolver {
	return &Resolver{client: client}
}

// Resolve runs the cascade: numeric id first (so a digit-string handle never
// triggers an accidental keyword search), then exact handle (the batch
// endpoint matches logins precisely), then the loose keyword search. A step
// that errors or comes back empty falls through to the next.
func (r *Resolver) Resolve(ctx context.Context, query string) (*models.Identity, error) {
	q := strings.TrimSpace(query)
	handle := strings.TrimPrefix(q, "@")

	if isDecimal(handle) {
		if id, err := strconv.ParseInt(handle, 10, 64); err == nil {
			ident, err := r.client.GetUser(ctx, id)
			if err == nil {
				return ident, nil
			}
			if !errors.Is(err, roblox.ErrUserNotFound) {
				logger.Warningf("Direct id lookup for %q failed: %v", q, err)
			}
		}
	}

	if handle != "" {
		matches, err := r.client.GetUsersByHandles(ctx, []string{handle})
		if err != nil {
			logger.Warningf("Exact handle lookup for %q failed: %v", handle, err)
		} else if len(matches) > 0 {
			if ident, err := r.client.GetUser(ctx, matches[0].ID); err == nil {
				return ident, nil
			}
		}
	}

	results, err := r.client.SearchUsers(ctx, q)
	if err != nil {
		logger.Warningf("Keyword search for %q failed: %v", q, err)
	} else if len(results) > 0 {
		if ident, err := r.client.GetUser(ctx, results[0].ID); err == nil {
			return ident, nil
		}
	}

	return nil, ErrNotFound
}

func isDecimal(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
