package checker

import (
	"context"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"

	"tg-bgcheck/internal/blacklist"
	"tg-bgcheck/internal/logger"
	"tg-bgcheck/internal/models"
)

// evidenceTimeout bounds the whole per-request evidence fan-out.
const evidenceTimeout = 20 * time.Second

// daysPerMonth is the average month length used for age calculations.
const daysPerMonth = 30.44

// TenureEvidence is the subject's standing in the designated tenure group.
type TenureEvidence struct {
	Member     bool
	Membership models.GroupMembership
	Months     models.MonthsSignal
}

// Evidence is everything the decision policy evaluates for one subject.
// Signals an upstream call could not produce stay unknown; they never abort
// the evaluation.
type Evidence struct {
	Identity    models.Identity
	Friends     models.IntSignal
	Badges      models.IntSignal
	GroupsKnown bool
	Groups      []models.GroupMembership
	Blacklisted []models.GroupMembership
	SourceHits  []blacklist.SourceHit
	Similar     []models.Identity
	AgeMonths   models.MonthsSignal
	Tenure      TenureEvidence
}

// gatherEvidence fans out the independent outbound fetches for one subject
// and joins them before the decision policy runs. Every fetch degrades its
// own signal to unknown on failure, so the group never aborts early.
func (c *Checker) gatherEvidence(ctx context.Context, ident models.Identity) *Evidence {
	ctx, cancel := context.WithTimeout(ctx, evidenceTimeout)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)

	ev := &Evidence{Identity: ident}

	g.Go(func() error {
		friends, err := c.client.GetFriends(gctx, ident.ID)
		if err != nil {
			logger.Warningf("Friends lookup for %d failed: %v", ident.ID, err)
			return nil
		}
		ev.Friends = models.KnownInt(len(friends))
		return nil
	})

	g.Go(func() error {
		count, err := c.client.GetBadgeCount(gctx, ident.ID)
		if err != nil {
			logger.Warningf("Badges lookup for %d failed: %v", ident.ID, err)
			return nil
		}
		ev.Badges = models.KnownInt(count)
		return nil
	})

	g.Go(func() error {
		groups, err := c.client.GetGroups(gctx, ident.ID)
		if err != nil {
			logger.Warningf("Groups lookup for %d failed: %v", ident.ID, err)
			return nil
		}
		ev.GroupsKnown = true
		ev.Groups = groups

		// Tenure depends on the membership list, so it stays in this
		// goroutine; an unknown join date is informational, not a failure.
		for _, g := range groups {
			if g.GroupID != c.cfg.TenureGroupID {
				continue
			}
			ev.Tenure.Member = true
			ev.Tenure.Membership = g

			joined, err := c.client.GetGroupJoinDate(gctx, g.GroupID, ident.ID)
			if err != nil {
				logger.Warningf("Tenure join date lookup for %d failed: %v", ident.ID, err)
			} else if joined != nil {
				ev.Tenure.Months = models.KnownMonths(monthsSince(*joined))
			}
			break
		}
		return nil
	})

	g.Go(func() error {
		pool, err := c.client.SearchUsers(gctx, ident.Handle)
		if err != nil {
			logger.Warningf("Similar-handle search for %q failed: %v", ident.Handle, err)
			return nil
		}
		ev.Similar = FindSimilar(ident.Handle, ident.ID, pool)
		return nil
	})

	// Every branch returns nil; Wait is just the join point.
	_ = g.Wait()

	if !ident.CreatedAt.IsZero() {
		ev.AgeMonths = models.KnownMonths(monthsSince(ident.CreatedAt))
	}

	for _, g := range ev.Groups {
		if c.registry.IsGroupBlacklisted(g.GroupID) {
			ev.Blacklisted = append(ev.Blacklisted, g)
		}
	}

	// Pure in-memory reads; no suspension here.
	ev.SourceHits = c.registry.LookupAll(strconv.FormatInt(ident.ID, 10), ident.Handle)

	return ev
}

func monthsSince(t time.Time) float64 {
	return time.Since(t).Hours() / 24 / daysPerMonth
}
