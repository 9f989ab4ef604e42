package httpserver

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	accountservice "agora/contexts/identity-access/account-service"
	polllifecycle "agora/contexts/voting/poll-lifecycle"
)

func newTestServer() *Server {
	voting := polllifecycle.NewInMemoryModule(nil, nil)
	accounts := accountservice.NewInMemoryModule(nil)
	return New(voting, accounts, nil, ":0")
}

func doJSON(t *testing.T, server *Server, method, path, token string, payload any) *httptest.ResponseRecorder {
	t.Helper()
	var body *bytes.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("marshal request: %v", err)
		}
		body = bytes.NewReader(raw)
	} else {
		body = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	server.mux.ServeHTTP(rr, req)
	return rr
}

func registerUser(t *testing.T, server *Server, email string) (token string, userID string) {
	t.Helper()
	rr := doJSON(t, server, http.MethodPost, "/api/auth/register", "", map[string]string{
		"email":    email,
		"password": "s3cret-pass",
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("register: expected 201, got %d body=%s", rr.Code, rr.Body.String())
	}
	var resp struct {
		AuthToken string `json:"auth_token"`
		UserID    string `json:"user_id"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode register response: %v", err)
	}
	return resp.AuthToken, resp.UserID
}

func TestAuthLifecycle(t *testing.T) {
	server := newTestServer()

	rr := doJSON(t, server, http.MethodPost, "/api/auth/register", "", map[string]string{
		"email":    "user@example.com",
		"password": "s3cret-pass",
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("register: expected 201, got %d body=%s", rr.Code, rr.Body.String())
	}
	var registered struct {
		AuthToken    string `json:"auth_token"`
		RefreshToken string `json:"refresh_token"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &registered); err != nil {
		t.Fatalf("decode register: %v", err)
	}

	rr = doJSON(t, server, http.MethodGet, "/api/auth/me", registered.AuthToken, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("me: expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}
	var me struct {
		Email string `json:"email"`
		Role  string `json:"role"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &me); err != nil {
		t.Fatalf("decode me: %v", err)
	}
	if me.Email != "user@example.com" || me.Role != "admin" {
		t.Fatalf("unexpected account %+v", me)
	}

	rr = doJSON(t, server, http.MethodPost, "/api/auth/refresh", "", map[string]string{
		"refresh_token": registered.RefreshToken,
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("refresh: expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}
	var rotated struct {
		AuthToken string `json:"auth_token"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &rotated); err != nil {
		t.Fatalf("decode refresh: %v", err)
	}

	rr = doJSON(t, server, http.MethodPost, "/api/auth/logout", rotated.AuthToken, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("logout: expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}
	rr = doJSON(t, server, http.MethodGet, "/api/auth/me", rotated.AuthToken, nil)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("me after logout: expected 401, got %d body=%s", rr.Code, rr.Body.String())
	}

	rr = doJSON(t, server, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email":    "user@example.com",
		"password": "wrong-pass",
	})
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("bad login: expected 401, got %d body=%s", rr.Code, rr.Body.String())
	}
}

func TestVoteEndpointsRequireAuthorization(t *testing.T) {
	server := newTestServer()

	rr := doJSON(t, server, http.MethodGet, "/api/votes/active", "", nil)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d body=%s", rr.Code, rr.Body.String())
	}

	rr = doJSON(t, server, http.MethodPost, "/api/votes/create", "bogus-token", map[string]any{})
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for unknown token, got %d body=%s", rr.Code, rr.Body.String())
	}
}

func TestCreateVoteAndResultsFlow(t *testing.T) {
	server := newTestServer()
	ownerToken, _ := registerUser(t, server, "owner@example.com")
	voterToken, _ := registerUser(t, server, "voter@example.com")

	now := time.Now().UTC()
	rr := doJSON(t, server, http.MethodPost, "/api/votes/create", ownerToken, map[string]any{
		"question":   "favorite color",
		"start_date": now.Add(-24 * time.Hour),
		"end_date":   now.Add(24 * time.Hour),
		"min_votes":  1,
		"max_votes":  1,
		"options":    []string{"Red", "Green", "Blue"},
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d body=%s", rr.Code, rr.Body.String())
	}
	var created struct {
		ID      string `json:"id"`
		Options []struct {
			ID   string `json:"id"`
			Text string `json:"text"`
		} `json:"options"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode create response: %v", err)
	}
	if len(created.Options) != 3 {
		t.Fatalf("expected 3 options, got %d", len(created.Options))
	}
	var redOption string
	for _, option := range created.Options {
		if option.Text == "Red" {
			redOption = option.ID
		}
	}
	if redOption == "" {
		t.Fatal("no option named Red in create response")
	}

	rr = doJSON(t, server, http.MethodPost, "/api/votes/submit-vote", voterToken, map[string]any{
		"poll_option_ids": []string{redOption},
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("submit: expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}
	var submitted struct {
		Submitted bool `json:"submitted"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &submitted); err != nil {
		t.Fatalf("decode submit response: %v", err)
	}
	if !submitted.Submitted {
		t.Fatal("expected submitted=true")
	}

	rr = doJSON(t, server, http.MethodPost, "/api/votes/submit-vote", voterToken, map[string]any{
		"poll_option_ids": []string{redOption},
	})
	if rr.Code != http.StatusConflict {
		t.Fatalf("repeat submit: expected 409, got %d body=%s", rr.Code, rr.Body.String())
	}

	rr = doJSON(t, server, http.MethodGet, "/api/votes/"+created.ID+"/results", "", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("results: expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}
	var results struct {
		Options []struct {
			Text      string `json:"text"`
			VoteCount int    `json:"vote_count"`
		} `json:"options"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &results); err != nil {
		t.Fatalf("decode results: %v", err)
	}
	counts := map[string]int{}
	for _, option := range results.Options {
		counts[option.Text] = option.VoteCount
	}
	if counts["Red"] != 1 || counts["Green"] != 0 || counts["Blue"] != 0 {
		t.Fatalf("unexpected tallies %v", counts)
	}

	rr = doJSON(t, server, http.MethodGet, "/api/votes/active", voterToken, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("active: expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}
	var active struct {
		Items []struct {
			ID       string `json:"id"`
			HasVoted bool   `json:"has_voted"`
		} `json:"items"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &active); err != nil {
		t.Fatalf("decode active: %v", err)
	}
	if len(active.Items) != 1 || !active.Items[0].HasVoted {
		t.Fatalf("expected the voted flag on the active poll, got %+v", active.Items)
	}
}

func TestAllPollsIsPublicAndListsEveryPhase(t *testing.T) {
	server := newTestServer()
	token, _ := registerUser(t, server, "owner@example.com")

	now := time.Now().UTC()
	// One poll in each phase: closed, open, scheduled.
	windows := [][2]time.Time{
		{now.Add(-24 * time.Hour), now.Add(-time.Hour)},
		{now.Add(-time.Hour), now.Add(24 * time.Hour)},
		{now.Add(24 * time.Hour), now.Add(48 * time.Hour)},
	}
	for i, window := range windows {
		rr := doJSON(t, server, http.MethodPost, "/api/votes/create", token, map[string]any{
			"question":   "poll number " + string(rune('A'+i)),
			"start_date": window[0],
			"end_date":   window[1],
			"min_votes":  1,
			"max_votes":  1,
			"options":    []string{"Yes", "No"},
		})
		if rr.Code != http.StatusCreated {
			t.Fatalf("create %d: expected 201, got %d body=%s", i, rr.Code, rr.Body.String())
		}
	}

	rr := doJSON(t, server, http.MethodGet, "/api/votes/all", "", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("all: expected 200 without a token, got %d body=%s", rr.Code, rr.Body.String())
	}
	var all struct {
		Items []struct {
			ID      string `json:"id"`
			Options []struct {
				ID        string `json:"id"`
				VoteCount *int   `json:"vote_count"`
			} `json:"options"`
		} `json:"items"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &all); err != nil {
		t.Fatalf("decode all: %v", err)
	}
	if len(all.Items) != 3 {
		t.Fatalf("expected polls from every phase, got %d", len(all.Items))
	}
	for _, item := range all.Items {
		if len(item.Options) != 2 {
			t.Fatalf("poll %s listed without options", item.ID)
		}
		for _, option := range item.Options {
			if option.VoteCount != nil {
				t.Fatalf("public listing must not carry vote counts, got %v", *option.VoteCount)
			}
		}
	}
}

func TestSubmitInvalidSelection(t *testing.T) {
	server := newTestServer()
	token, _ := registerUser(t, server, "user@example.com")

	rr := doJSON(t, server, http.MethodPost, "/api/votes/submit-vote", token, map[string]any{
		"poll_option_ids": []string{},
	})
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for empty selection, got %d body=%s", rr.Code, rr.Body.String())
	}

	rr = doJSON(t, server, http.MethodPost, "/api/votes/submit-vote", token, map[string]any{
		"poll_option_ids": []string{"opt_unknown"},
	})
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown option, got %d body=%s", rr.Code, rr.Body.String())
	}
}

func TestClosedPollsFilterValidation(t *testing.T) {
	server := newTestServer()
	token, _ := registerUser(t, server, "user@example.com")

	rr := doJSON(t, server, http.MethodGet, "/api/votes/closed-polls?startDate=not-a-date", token, nil)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad date, got %d body=%s", rr.Code, rr.Body.String())
	}

	rr = doJSON(t, server, http.MethodGet, "/api/votes/closed-polls?questionText=lunch", token, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}
}

func TestPurgeRequiresAdminRole(t *testing.T) {
	server := newTestServer()
	// Registration order decides the admin: the first account wins.
	adminToken, _ := registerUser(t, server, "admin@example.com")
	voterToken, _ := registerUser(t, server, "voter@example.com")

	rr := doJSON(t, server, http.MethodDelete, "/api/votes/delete-all", voterToken, nil)
	if rr.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for non-admin, got %d body=%s", rr.Code, rr.Body.String())
	}

	rr = doJSON(t, server, http.MethodDelete, "/api/votes/delete-all", adminToken, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 for admin, got %d body=%s", rr.Code, rr.Body.String())
	}
}

func TestUpdatePollEndpointStateMachine(t *testing.T) {
	server := newTestServer()
	token, _ := registerUser(t, server, "owner@example.com")

	now := time.Now().UTC()
	start := now.Add(-time.Hour)
	end := now.Add(24 * time.Hour)
	rr := doJSON(t, server, http.MethodPost, "/api/votes/create", token, map[string]any{
		"question":   "team lunch",
		"start_date": start,
		"end_date":   end,
		"min_votes":  1,
		"max_votes":  1,
		"options":    []string{"Sushi", "Pizza"},
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d body=%s", rr.Code, rr.Body.String())
	}
	var created struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode create response: %v", err)
	}

	// The poll has started, so a question rewrite must be rejected.
	rr = doJSON(t, server, http.MethodPut, "/api/votes/"+created.ID, token, map[string]any{
		"question":   "team dinner",
		"start_date": start,
		"end_date":   end,
		"min_votes":  1,
		"max_votes":  1,
		"options":    []string{"Sushi", "Pizza"},
	})
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("frozen edit: expected 400, got %d body=%s", rr.Code, rr.Body.String())
	}

	rr = doJSON(t, server, http.MethodPut, "/api/votes/"+created.ID, token, map[string]any{
		"question":   "team lunch",
		"start_date": start,
		"end_date":   end.Add(24 * time.Hour),
		"min_votes":  1,
		"max_votes":  1,
		"options":    []string{"Sushi", "Pizza"},
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("extension: expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}
	var updated struct {
		EndDate time.Time `json:"end_date"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &updated); err != nil {
		t.Fatalf("decode update response: %v", err)
	}
	if !updated.EndDate.Equal(end.Add(24 * time.Hour)) {
		t.Fatalf("end date not extended: %v", updated.EndDate)
	}
}
