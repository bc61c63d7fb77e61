package blacklist

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"tg-bgcheck/internal/config"
	"tg-bgcheck/internal/logger"
)

// sourceFetchTimeout bounds one outbound source fetch during refresh.
const sourceFetchTimeout = 15 * time.Second

// retryDelay is the pause before the single transport-error retry.
const retryDelay = 500 * time.Millisecond

// SourceResult reports the outcome of one source's refresh.
type SourceResult struct {
	Name  string
	OK    bool
	Count int
	Err   error
}

// Refresher rebuilds source indexes and installs them into the registry.
// Sources refresh independently and concurrently; one source's failure
// leaves every other source, and its own previous index, untouched.
type Refresher struct {
	fetcher  *Fetcher
	registry *Registry
	groupDoc config.GroupDocConfig
	sheets   []config.SheetConfig
}

// NewRefresher builds a Refresher over the configured sources.
func NewRefresher(sources config.SourcesConfig, registry *Registry) *Refresher {
	return &Refresher{
		fetcher:  NewFetcher(sourceFetchTimeout),
		registry: registry,
		groupDoc: sources.GroupDoc,
		sheets:   sources.Sheets,
	}
}

// SheetNames returns the tabular source names in declared order, for
// registry construction.
func SheetNames(sources config.SourcesConfig) []string {
	names := make([]string, 0, len(sources.Sheets))
	for _, s := range sources.Sheets {
		names = append(names, s.Name)
	}
	return names
}

// RefreshAll refreshes every configured source concurrently and returns
// per-source results in declared order: group doc first, then sheets.
func (rf *Refresher) RefreshAll(ctx context.Context) []SourceResult {
	results := make([]SourceResult, 1+len(rf.sheets))

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		results[0] = rf.refreshGroupDoc(ctx)
	}()
	for i, sheet := range rf.sheets {
		wg.Add(1)
		go func(slot int, sc config.SheetConfig) {
			defer wg.Done()
			results[slot] = rf.refreshSheet(ctx, sc)
		}(1+i, sheet)
	}
	wg.Wait()

	for _, res := range results {
		if res.OK {
			logger.Infof("Refreshed source %q: %d entries", res.Name, res.Count)
		} else {
			logger.Warningf("Refresh of source %q failed: %v", res.Name, res.Err)
		}
	}
	return results
}

func (rf *Refresher) refreshGroupDoc(ctx context.Context) SourceResult {
	res := SourceResult{Name: rf.groupDoc.Name}
	data, err := rf.fetchWithRetry(ctx, rf.groupDoc.URL)
	if err != nil {
		res.Err = err
		return res
	}
	ids := ParseGroupDoc(data)
	rf.registry.InstallGroups(ids)
	res.OK = true
	res.Count = len(ids)
	return res
}

// refreshSheet builds and installs a fresh index for one tabular source.
// When the formatting-aware transport is configured it is preferred, and any
// grid failure degrades to the plain CSV transport with retracted=false for
// all rows; only a CSV failure fails the source.
func (rf *Refresher) refreshSheet(ctx context.Context, sc config.SheetConfig) SourceResult {
	res := SourceResult{Name: sc.Name}
	schema := SchemaFromConfig(sc)

	if sc.GridURL != "" && sc.APIKey != "" {
		if parsed, err := rf.fetchGrid(ctx, sc, schema); err == nil {
			rf.install(sc.Name, parsed)
			res.OK = true
			res.Count = len(parsed.Records)
			return res
		} else {
			logger.Warningf("Grid fetch for %q degraded to CSV: %v", sc.Name, err)
		}
	}

	data, err := rf.fetchWithRetry(ctx, sc.CSVURL)
	if err != nil {
		res.Err = err
		return res
	}
	parsed, err := ParseCSV(sc.Name, data, schema)
	if err != nil {
		res.Err = err
		return res
	}
	rf.install(sc.Name, parsed)
	res.OK = true
	res.Count = len(parsed.Records)
	return res
}

func (rf *Refresher) fetchGrid(ctx context.Context, sc config.SheetConfig, schema Schema) (ParseResult, error) {
	data, err := rf.fetchWithRetry(ctx, gridEndpoint(sc.GridURL, sc.APIKey))
	if err != nil {
		return ParseResult{}, err
	}
	return ParseGrid(sc.Name, data, schema)
}

func (rf *Refresher) install(name string, parsed ParseResult) {
	if parsed.Dropped > 0 {
		logger.Debugf("Source %q: dropped %d unparsable rows", name, parsed.Dropped)
	}
	rf.registry.InstallIndex(name, BuildIndex(name, parsed.Records))
}

// fetchWithRetry does one fetch with a single retry on transport errors.
// HTTP status failures are terminal.
func (rf *Refresher) fetchWithRetry(ctx context.Context, endpoint string) ([]byte, error) {
	fetchCtx, cancel := context.WithTimeout(ctx, sourceFetchTimeout)
	data, err := rf.fetcher.Fetch(fetchCtx, endpoint)
	cancel()
	if err == nil {
		return data, nil
	}

	var fe *FetchError
	if !errors.As(err, &fe) || !fe.Retryable() {
		return nil, err
	}

	select {
	case <-time.After(retryDelay):
	case <-ctx.Done():
		return nil, err
	}

	fetchCtx, cancel = context.WithTimeout(ctx, sourceFetchTimeout)
	defer cancel()
	return rf.fetcher.Fetch(fetchCtx, endpoint)
}

func gridEndpoint(gridURL, apiKey string) string {
	sep := "?"
	if strings.Contains(gridURL, "?") {
		sep = "&"
	}
	return gridURL + sep + "key=" + apiKey
}
