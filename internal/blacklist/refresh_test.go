package blacklist

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tg-bgcheck/internal/config"
)

const testDoc = "Blacklisted groups: 1234567 and 7654321. Ignore 123."

const testCSV = "Header,Name,Col,ID,,,,Length,,,Appealable\n" +
	",Alice,,123456,,,,30 days,,,Yes\n" +
	",Bob,,222222,,,,Permanent,,,No\n"

func testSheetConfig(baseURL string) config.SheetConfig {
	seven, ten := 7, 10
	return config.SheetConfig{
		Name:       "Blacklist Database",
		CSVURL:     baseURL + "/sheet.csv",
		HeaderRows: 1,
		Columns: config.ColumnConfig{
			Handle:     1,
			ID:         3,
			BanLength:  &seven,
			Appealable: &ten,
		},
	}
}

func testSources(baseURL string) config.SourcesConfig {
	return config.SourcesConfig{
		GroupDoc: config.GroupDocConfig{Name: "Group Blacklist", URL: baseURL + "/doc.txt"},
		Sheets:   []config.SheetConfig{testSheetConfig(baseURL)},
	}
}

func TestRefreshAllSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/doc.txt":
			w.Write([]byte(testDoc))
		case "/sheet.csv":
			w.Write([]byte(testCSV))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	sources := testSources(server.URL)
	reg := NewRegistry(SheetNames(sources))
	rf := NewRefresher(sources, reg)

	results := rf.RefreshAll(context.Background())
	require.Len(t, results, 2)

	assert.Equal(t, "Group Blacklist", results[0].Name)
	assert.True(t, results[0].OK)
	assert.Equal(t, 2, results[0].Count)

	assert.Equal(t, "Blacklist Database", results[1].Name)
	assert.True(t, results[1].OK)
	assert.Equal(t, 2, results[1].Count)

	assert.True(t, reg.IsGroupBlacklisted("1234567"))
	rec := reg.Lookup("Blacklist Database", "", "alice")
	require.NotNil(t, rec)
	assert.Equal(t, "30 days", rec.BanLength)
}

func TestRefreshPartialFailureKeepsPreviousIndex(t *testing.T) {
	var sheetDown atomic.Bool
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/doc.txt":
			w.Write([]byte(testDoc))
		case "/sheet.csv":
			if sheetDown.Load() {
				w.WriteHeader(http.StatusForbidden)
				return
			}
			w.Write([]byte(testCSV))
		}
	}))
	defer server.Close()

	sources := testSources(server.URL)
	reg := NewRegistry(SheetNames(sources))
	rf := NewRefresher(sources, reg)

	rf.RefreshAll(context.Background())
	require.NotNil(t, reg.Lookup("Blacklist Database", "123456", ""))

	sheetDown.Store(true)
	results := rf.RefreshAll(context.Background())

	// The sheet failed but the doc refreshed; the sheet's previous index
	// is still live.
	assert.True(t, results[0].OK)
	assert.False(t, results[1].OK)
	assert.Error(t, results[1].Err)
	assert.NotNil(t, reg.Lookup("Blacklist Database", "123456", ""))
}

func TestRefreshIdempotent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/doc.txt":
			w.Write([]byte(testDoc))
		case "/sheet.csv":
			w.Write([]byte(testCSV))
		}
	}))
	defer server.Close()

	sources := testSources(server.URL)
	reg := NewRegistry(SheetNames(sources))
	rf := NewRefresher(sources, reg)

	rf.RefreshAll(context.Background())
	first := reg.Snapshot("Blacklist Database").Records()

	rf.RefreshAll(context.Background())
	second := reg.Snapshot("Blacklist Database").Records()

	assert.ElementsMatch(t, first, second)
}

func TestRefreshPrefersGridWhenConfigured(t *testing.T) {
	var sawKey atomic.Bool
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/doc.txt":
			w.Write([]byte(testDoc))
		case "/grid":
			if r.URL.Query().Get("key") == "test-key" {
				sawKey.Store(true)
			}
			w.Write([]byte(sampleGrid))
		case "/sheet.csv":
			t.Error("CSV transport used although the grid fetch succeeded")
		}
	}))
	defer server.Close()

	sources := testSources(server.URL)
	sources.Sheets[0].GridURL = server.URL + "/grid"
	sources.Sheets[0].APIKey = "test-key"

	reg := NewRegistry(SheetNames(sources))
	rf := NewRefresher(sources, reg)
	results := rf.RefreshAll(context.Background())

	assert.True(t, results[1].OK)
	assert.True(t, sawKey.Load())

	rec := reg.Lookup("Blacklist Database", "222222", "")
	require.NotNil(t, rec)
	assert.True(t, rec.Retracted)
}

func TestRefreshGridFailureDegradesToCSV(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/doc.txt":
			w.Write([]byte(testDoc))
		case "/grid":
			w.WriteHeader(http.StatusForbidden)
		case "/sheet.csv":
			w.Write([]byte(testCSV))
		}
	}))
	defer server.Close()

	sources := testSources(server.URL)
	sources.Sheets[0].GridURL = server.URL + "/grid"
	sources.Sheets[0].APIKey = "test-key"

	reg := NewRegistry(SheetNames(sources))
	rf := NewRefresher(sources, reg)
	results := rf.RefreshAll(context.Background())

	// The capability degraded, the refresh did not fail, and without
	// formatting metadata nothing is retracted.
	assert.True(t, results[1].OK)
	rec := reg.Lookup("Blacklist Database", "222222", "")
	require.NotNil(t, rec)
	assert.False(t, rec.Retracted)
}

func TestFetcherClassifiesFailures(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	f := NewFetcher(0)
	_, err := f.Fetch(context.Background(), server.URL)

	var fe *FetchError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, FetchHTTPStatus, fe.Kind)
	assert.Equal(t, http.StatusForbidden, fe.Status)
	assert.False(t, fe.Retryable())

	// A connection to a closed server is a retryable network failure.
	closed := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	closedURL := closed.URL
	closed.Close()

	_, err = f.Fetch(context.Background(), closedURL)
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, FetchNetwork, fe.Kind)
	assert.True(t, fe.Retryable())
}
