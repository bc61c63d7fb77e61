package roblox

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"tg-bgcheck/internal/config"
	"tg-bgcheck/internal/models"
)

// ErrUserNotFound is returned when the directory service reports an error
// payload for a user lookup instead of an identity.
var ErrUserNotFound = errors.New("roblox: user not found")

// Client talks to the Roblox web APIs. All methods honor the passed context
// plus the configured request timeout, and degrade cleanly: callers decide
// whether a failed call is fatal or just an unknown signal.
type Client struct {
	http        *http.Client
	usersBase   string
	friendsBase string
	groupsBase  string
	badgesBase  string
	searchLimit int
}

// NewClient builds a Client from configuration.
func NewClient(cfg config.RobloxConfig) *Client {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	limit := cfg.SearchLimit
	if limit <= 0 {
		limit = 100
	}
	return &Client{
		http:        &http.Client{Timeout: timeout},
		usersBase:   cfg.UsersBaseURL,
		friendsBase: cfg.FriendsBaseURL,
		groupsBase:  cfg.GroupsBaseURL,
		badgesBase:  cfg.BadgesBaseURL,
		searchLimit: limit,
	}
}

type userPayload struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	DisplayName string `json:"displayName"`
	Created     string `json:"created"`
	Errors      []struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"errors"`
}

func (p *userPayload) identity() models.Identity {
	ident := models.Identity{
		ID:          p.ID,
		Handle:      p.Name,
		DisplayName: p.DisplayName,
	}
	// Leave CreatedAt zero when the timestamp is absent or malformed; the
	// checker reports account age as Unknown in that case.
	if t, err := time.Parse(time.RFC3339, p.Created); err == nil {
		ident.CreatedAt = t
	}
	return ident
}

// GetUser fetches the full identity record for an id. A 404 or an error
// payload yields ErrUserNotFound.
func (c *Client) GetUser(ctx context.Context, id int64) (*models.Identity, error) {
	var payload userPayload
	status, err := c.getJSON(ctx, fmt.Sprintf("%s/v1/users/%d", c.usersBase, id), &payload)
	if err != nil {
		return nil, err
	}
	if status == http.StatusNotFound || len(payload.Errors) > 0 || payload.ID == 0 {
		return nil, ErrUserNotFound
	}
	ident := payload.identity()
	return &ident, nil
}

// GetUsersByHandles does the exact-handle batch lookup. Only ids and handles
// are filled; callers re-fetch the full record.
func (c *Client) GetUsersByHandles(ctx context.Context, handles []string) ([]models.Identity, error) {
	body := map[string]interface{}{
		"usernames":          handles,
		"excludeBannedUsers": false,
	}
	var payload struct {
		Data []struct {
			ID   int64  `json:"id"`
			Name string `json:"name"`
		} `json:"data"`
	}
	if err := c.postJSON(ctx, c.usersBase+"/v1/usernames/users", body, &payload); err != nil {
		return nil, err
	}
	idents := make([]models.Identity, 0, len(payload.Data))
	for _, u := range payload.Data {
		idents = append(idents, models.Identity{ID: u.ID, Handle: u.Name})
	}
	return idents, nil
}

// SearchUsers runs the loose keyword search over display names and handles.
func (c *Client) SearchUsers(ctx context.Context, keyword string) ([]models.Identity, error) {
	endpoint := fmt.Sprintf("%s/v1/users/search?keyword=%s&limit=%d",
		c.usersBase, url.QueryEscape(keyword), c.searchLimit)
	var payload struct {
		Data []struct {
			ID   int64  `json:"id"`
			Name string `json:"name"`
		} `json:"data"`
	}
	status, err := c.getJSON(ctx, endpoint, &payload)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("user search returned status %d", status)
	}
	idents := make([]models.Identity, 0, len(payload.Data))
	for _, u := range payload.Data {
		idents = append(idents, models.Identity{ID: u.ID, Handle: u.Name})
	}
	return idents, nil
}

// GetFriends returns the subject's friend list.
func (c *Client) GetFriends(ctx context.Context, id int64) ([]models.Identity, error) {
	var payload struct {
		Data []struct {
			ID   int64  `json:"id"`
			Name string `json:"name"`
		} `json:"data"`
	}
	status, err := c.getJSON(ctx, fmt.Sprintf("%s/v1/users/%d/friends", c.friendsBase, id), &payload)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("friends lookup returned status %d", status)
	}
	friends := make([]models.Identity, 0, len(payload.Data))
	for _, u := range payload.Data {
		friends = append(friends, models.Identity{ID: u.ID, Handle: u.Name})
	}
	return friends, nil
}

// GetGroups returns the subject's group memberships with role names. Join
// dates are not part of this endpoint; see GetGroupJoinDate.
func (c *Client) GetGroups(ctx context.Context, id int64) ([]models.GroupMembership, error) {
	var payload struct {
		Data []struct {
			Group struct {
				ID   int64  `json:"id"`
				Name string `json:"name"`
			} `json:"group"`
			Role struct {
				Name string `json:"name"`
			} `json:"role"`
		} `json:"data"`
	}
	status, err := c.getJSON(ctx, fmt.Sprintf("%s/v2/users/%d/groups/roles", c.groupsBase, id), &payload)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("groups lookup returned status %d", status)
	}
	groups := make([]models.GroupMembership, 0, len(payload.Data))
	for _, g := range payload.Data {
		groups = append(groups, models.GroupMembership{
			GroupID:   fmt.Sprintf("%d", g.Group.ID),
			GroupName: g.Group.Name,
			Role:      g.Role.Name,
		})
	}
	return groups, nil
}

// GetGroupJoinDate scans the first member page of a group for the subject
// and returns their join date. Returns nil when the subject is not on the
// page or the date is missing; one page is acceptable for tenure lookups.
func (c *Client) GetGroupJoinDate(ctx context.Context, groupID string, userID int64) (*time.Time, error) {
	var payload struct {
		Data []struct {
			UserID     int64  `json:"userId"`
			JoinedDate string `json:"joinedDate"`
			Created    string `json:"created"`
		} `json:"data"`
	}
	endpoint := fmt.Sprintf("%s/v1/groups/%s/users?limit=100", c.groupsBase, groupID)
	status, err := c.getJSON(ctx, endpoint, &payload)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("group members lookup returned status %d", status)
	}
	for _, m := range payload.Data {
		if m.UserID != userID {
			continue
		}
		raw := m.JoinedDate
		if raw == "" {
			raw = m.Created
		}
		if raw == "" {
			return nil, nil
		}
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return nil, nil
		}
		return &t, nil
	}
	return nil, nil
}

// GetBadgeCount returns how many badges the subject holds.
func (c *Client) GetBadgeCount(ctx context.Context, id int64) (int, error) {
	var payload struct {
		Data []json.RawMessage `json:"data"`
	}
	status, err := c.getJSON(ctx, fmt.Sprintf("%s/v1/users/%d/badges", c.badgesBase, id), &payload)
	if err != nil {
		return 0, err
	}
	if status != http.StatusOK {
		return 0, fmt.Errorf("badges lookup returned status %d", status)
	}
	return len(payload.Data), nil
}

func (c *Client) getJSON(ctx context.Context, endpoint string, out interface{}) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return 0, fmt.Errorf("building request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return 0, fmt.Errorf("request to %s failed: %w", endpoint, err)
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil && err != io.EOF {
		return resp.StatusCode, fmt.Errorf("decoding response from %s: %w", endpoint, err)
	}
	return resp.StatusCode, nil
}

func (c *Client) postJSON(ctx context.Context, endpoint string, body, out interface{}) error {
	raw, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request to %s failed: %w", endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBytes, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("%s returned status %d: %s", endpoint, resp.StatusCode, string(respBytes))
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
