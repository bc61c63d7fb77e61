package checker

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"tg-bgcheck/internal/blacklist"
	"tg-bgcheck/internal/config"
	"tg-bgcheck/internal/models"
	"tg-bgcheck/internal/roblox"
)

// ErrFetchFailed means the associate scan could not retrieve the friend
// list; unlike per-signal degradation this aborts the scan, because there
// is nothing left to evaluate.
var ErrFetchFailed = errors.New("checker: could not fetch associates")

// Checker is the background-check service: it resolves queries, gathers
// evidence, and applies the configured decision policy. It owns no state of
// its own — the registry holds the only shared snapshots.
type Checker struct {
	client    *roblox.Client
	registry  *blacklist.Registry
	refresher *blacklist.Refresher
	resolver  *Resolver
	policy    DecisionPolicy
	cfg       config.CheckerConfig
}

// New wires the checker over its collaborators.
func New(cfg *config.Config, client *roblox.Client, registry *blacklist.Registry, refresher *blacklist.Refresher) *Checker {
	return &Checker{
		client:    client,
		registry:  registry,
		refresher: refresher,
		resolver:  NewResolver(client),
		policy:    PolicyFromConfig(cfg.Checker),
		cfg:       cfg.Checker,
	}
}

// Report is the full result of one background check.
type Report struct {
	Identity models.Identity
	Verdict  models.Verdict
}

// ResolveAndEvaluate resolves the query to a canonical identity, gathers
// all evidence, and evaluates it. Returns ErrNotFound when the query
// resolves to nothing; any other signal failure degrades to Unknown inside
// the verdict instead of erroring.
func (c *Checker) ResolveAndEvaluate(ctx context.Context, query string) (*Report, error) {
	ident, err := c.resolver.Resolve(ctx, query)
	if err != nil {
		return nil, err
	}

	ev := c.gatherEvidence(ctx, *ident)
	return &Report{
		Identity: *ident,
		Verdict:  c.policy.Evaluate(ev),
	}, nil
}

// FlaggedAssociate is one friend of the subject with blacklist hits.
type FlaggedAssociate struct {
	Identity models.Identity
	Hits     []string
}

// ScanReport summarizes an associate scan.
type ScanReport struct {
	Identity models.Identity
	Scanned  int
	Flagged  []FlaggedAssociate
}

// ScanAssociates resolves the query, fetches the subject's friends, and
// checks every friend against all tabular sources. Retracted entries do not
// flag an associate.
func (c *Checker) ScanAssociates(ctx context.Context, query string) (*ScanReport, error) {
	ident, err := c.resolver.Resolve(ctx, query)
	if err != nil {
		return nil, err
	}

	friends, err := c.client.GetFriends(ctx, ident.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetchFailed, err)
	}

	report := &ScanReport{Identity: *ident, Scanned: len(friends)}
	for _, friend := range friends {
		var hits []string
		for _, hit := range c.registry.LookupAll(strconv.FormatInt(friend.ID, 10), friend.Handle) {
			if hit.Record != nil && !hit.Record.Retracted {
				hits = append(hits, hit.SourceName)
			}
		}
		if len(hits) > 0 {
			report.Flagged = append(report.Flagged, FlaggedAssociate{Identity: friend, Hits: hits})
		}
	}
	return report, nil
}

// RefreshAll rebuilds every source index. Safe to call concurrently with
// lookups and with itself.
func (c *Checker) RefreshAll(ctx context.Context) []blacklist.SourceResult {
	return c.refresher.RefreshAll(ctx)
}
