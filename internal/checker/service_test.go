package checker

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tg-bgcheck/internal/blacklist"
	"tg-bgcheck/internal/config"
	"tg-bgcheck/internal/models"
	"tg-bgcheck/internal/roblox"
)

// fakeRoblox serves every directory endpoint the checker touches for one
// subject with a configurable friend list.
func fakeRoblox(t *testing.T, friends []fakeUser, friendsStatus int) *httptest.Server {
	t.Helper()
	subject := fakeUser{ID: 42, Name: "builderman", Display: "Builderman", Created: "2018-01-01T00:00:00Z"}

	mux := http.NewServeMux()
	mux.HandleFunc("/v1/users/", func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasSuffix(r.URL.Path, "/friends"):
			if friendsStatus != http.StatusOK {
				w.WriteHeader(friendsStatus)
				return
			}
			json.NewEncoder(w).Encode(map[string]interface{}{"data": friends})
		case strings.HasSuffix(r.URL.Path, "/badges"):
			json.NewEncoder(w).Encode(map[string]interface{}{
				"data": []map[string]interface{}{{"id": 1}, {"id": 2}},
			})
		default:
			var id int64
			fmt.Sscanf(r.URL.Path, "/v1/users/%d", &id)
			if id != subject.ID {
				json.NewEncoder(w).Encode(map[string]interface{}{
					"errors": []map[string]interface{}{{"code": 3, "message": "user not found"}},
				})
				return
			}
			json.NewEncoder(w).Encode(subject)
		}
	})
	mux.HandleFunc("/v1/users/search", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{"data": []fakeUser{}})
	})
	mux.HandleFunc("/v1/usernames/users", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Usernames []string `json:"usernames"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		var data []fakeUser
		for _, h := range req.Usernames {
			if h == subject.Name {
				data = append(data, subject)
			}
		}
		json.NewEncoder(w).Encode(map[string]interface{}{"data": data})
	})
	mux.HandleFunc("/v2/users/", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"data": []map[string]interface{}{{
				"group": map[string]interface{}{"id": 111, "name": "Harmless Builders"},
				"role":  map[string]interface{}{"name": "Member"},
			}},
		})
	})
	return httptest.NewServer(mux)
}

func manyFriends(listed ...fakeUser) []fakeUser {
	friends := append([]fakeUser(nil), listed...)
	for i := len(friends); i < 20; i++ {
		friends = append(friends, fakeUser{ID: int64(1000 + i), Name: fmt.Sprintf("friend%d", i)})
	}
	return friends
}

func newTestChecker(serverURL string, registry *blacklist.Registry) *Checker {
	cfg := &config.Config{
		Roblox: config.RobloxConfig{
			UsersBaseURL:   serverURL,
			FriendsBaseURL: serverURL,
			GroupsBaseURL:  serverURL,
			BadgesBaseURL:  serverURL,
			TimeoutSeconds: 5,
			SearchLimit:    10,
		},
		Checker: testCheckerConfig(),
	}
	client := roblox.NewClient(cfg.Roblox)
	refresher := blacklist.NewRefresher(config.SourcesConfig{}, registry)
	return New(cfg, client, registry, refresher)
}

func registryWith(records ...models.BlacklistRecord) *blacklist.Registry {
	reg := blacklist.NewRegistry([]string{"Blacklist Database"})
	reg.InstallIndex("Blacklist Database", blacklist.BuildIndex("Blacklist Database", records))
	return reg
}

func TestCheckerCleanSubjectPasses(t *testing.T) {
	server := fakeRoblox(t, manyFriends(), http.StatusOK)
	defer server.Close()

	c := newTestChecker(server.URL, registryWith())
	report, err := c.ResolveAndEvaluate(context.Background(), "builderman")
	require.NoError(t, err)

	assert.Equal(t, int64(42), report.Identity.ID)
	assert.Equal(t, models.OutcomePass, report.Verdict.Outcome)
	assert.Empty(t, report.Verdict.Factors)
	assert.Equal(t, "No", report.Verdict.FieldValue("Blacklisted (Blacklist Database)"))
	assert.Equal(t, "Yes (20)", report.Verdict.FieldValue("Friends ≥ 15"))
	assert.Equal(t, "2", report.Verdict.FieldValue("Badges"))
}

func TestCheckerListedSubjectFails(t *testing.T) {
	server := fakeRoblox(t, manyFriends(), http.StatusOK)
	defer server.Close()

	reg := registryWith(models.BlacklistRecord{
		SourceName:    "Blacklist Database",
		SubjectHandle: "builderman",
		SubjectID:     "42",
		BanLength:     "Permanent",
		Appealable:    models.AppealableNo,
	})

	c := newTestChecker(server.URL, reg)
	report, err := c.ResolveAndEvaluate(context.Background(), "42")
	require.NoError(t, err)

	assert.Equal(t, models.OutcomeFail, report.Verdict.Outcome)
	assert.Contains(t, report.Verdict.Factors, "Found in Blacklist Database")
}

func TestScanAssociatesFlagsListedFriends(t *testing.T) {
	server := fakeRoblox(t, manyFriends(fakeUser{ID: 666, Name: "mallory"}), http.StatusOK)
	defer server.Close()

	reg := registryWith(models.BlacklistRecord{
		SourceName:    "Blacklist Database",
		SubjectHandle: "mallory",
		SubjectID:     "666",
	})

	c := newTestChecker(server.URL, reg)
	report, err := c.ScanAssociates(context.Background(), "builderman")
	require.NoError(t, err)

	assert.Equal(t, 20, report.Scanned)
	require.Len(t, report.Flagged, 1)
	assert.Equal(t, int64(666), report.Flagged[0].Identity.ID)
	assert.Equal(t, []string{"Blacklist Database"}, report.Flagged[0].Hits)
}

func TestScanAssociatesIgnoresRetractedEntries(t *testing.T) {
	server := fakeRoblox(t, manyFriends(fakeUser{ID: 666, Name: "mallory"}), http.StatusOK)
	defer server.Close()

	reg := registryWith(models.BlacklistRecord{
		SourceName: "Blacklist Database",
		SubjectID:  "666",
		Retracted:  true,
	})

	c := newTestChecker(server.URL, reg)
	report, err := c.ScanAssociates(context.Background(), "builderman")
	require.NoError(t, err)
	assert.Empty(t, report.Flagged)
}

func TestScanAssociatesFriendsFetchFailure(t *testing.T) {
	server := fakeRoblox(t, nil, http.StatusInternalServerError)
	defer server.Close()

	c := newTestChecker(server.URL, registryWith())
	_, err := c.ScanAssociates(context.Background(), "builderman")
	assert.ErrorIs(t, err, ErrFetchFailed)
}
