package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"viralstudio/internal/app"
	"viralstudio/pkg/ai"
	"viralstudio/pkg/domain"
	"viralstudio/pkg/store"
)

type staticGenerator struct {
	text string
	err  error
}

func (g *staticGenerator) GenerateText(context.Context, string, string) (string, error) {
	if g.err != nil {
		return "", g.err
	}
	return g.text, nil
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	gen := &staticGenerator{text: `{"content":"post body","captions":["c1","c2","c3"],"hashtags":["#go"],"tone_used":"modern viral fomo"}`}
	a, err := app.New(app.Config{
		JWTSecret:     "test-secret",
		EncryptionKey: "test-encryption-key",
		Store:         store.NewMemoryStore(),
		Generator: ai.NewContentGeneratorWithFactory(func(string) (ai.TextGenerator, error) {
			return gen, nil
		}),
	})
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	srv := httptest.NewServer(New(Config{App: a}).Router())
	t.Cleanup(srv.Close)
	return srv
}

func postJSON(t *testing.T, url, token string, payload any) *http.Response {
	t.Helper()
	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	return resp
}

func doRequest(t *testing.T, method, url, token string, payload any) *http.Response {
	t.Helper()
	var body *bytes.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("marshal payload: %v", err)
		}
		body = bytes.NewReader(raw)
	} else {
		body = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, url, body)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, out any) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

type sessionResponse struct {
	User         domain.User        `json:"user"`
	Profile      domain.UserProfile `json:"profile"`
	Token        string             `json:"token"`
	RefreshToken string             `json:"refreshToken"`
}

func signUp(t *testing.T, srv *httptest.Server, email string) sessionResponse {
	t.Helper()
	resp := postJSON(t, srv.URL+"/auth/signup", "", map[string]string{
		"email":    email,
		"password": "viral2024pass",
		"fullname": "Test Creator",
		"apikey":   "gm-key",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("signup status = %d", resp.StatusCode)
	}
	var sess sessionResponse
	decodeBody(t, resp, &sess)
	return sess
}

func TestHealthEndpoint(t *testing.T) {
	srv := newTestServer(t)
	resp, err := http.Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatalf("get health: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("health status = %d", resp.StatusCode)
	}
}

func TestSignupLoginFlow(t *testing.T) {
	srv := newTestServer(t)
	sess := signUp(t, srv, "creator@example.com")
	if sess.Token == "" || sess.RefreshToken == "" {
		t.Fatalf("missing tokens in signup response: %+v", sess)
	}
	if sess.Profile.Fullname != "Test Creator" {
		t.Fatalf("profile fullname = %q", sess.Profile.Fullname)
	}

	// Duplicate email conflicts.
	resp := postJSON(t, srv.URL+"/auth/signup", "", map[string]string{
		"email": "creator@example.com", "password": "viral2024pass",
	})
	var errBody struct {
		Error     string `json:"error"`
		Code      string `json:"code"`
		RequestID string `json:"requestId"`
	}
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("duplicate signup status = %d", resp.StatusCode)
	}
	decodeBody(t, resp, &errBody)
	if errBody.Code != "AUTH_EMAIL_EXISTS" {
		t.Fatalf("duplicate signup code = %q", errBody.Code)
	}
	if errBody.RequestID == "" {
		t.Fatalf("error payload missing request id")
	}

	// Wrong password.
	resp = postJSON(t, srv.URL+"/auth/login", "", map[string]string{
		"email": "creator@example.com", "password": "wrong-pass1",
	})
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("bad login status = %d", resp.StatusCode)
	}
	decodeBody(t, resp, &errBody)
	if errBody.Code != "AUTH_INVALID_CREDENTIALS" {
		t.Fatalf("bad login code = %q", errBody.Code)
	}

	// Correct credentials.
	resp = postJSON(t, srv.URL+"/auth/login", "", map[string]string{
		"email": "creator@example.com", "password": "viral2024pass",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login status = %d", resp.StatusCode)
	}
	var login sessionResponse
	decodeBody(t, resp, &login)

	// /auth/me returns the user with a synced profile.
	resp = doRequest(t, http.MethodGet, srv.URL+"/auth/me", login.Token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("me status = %d", resp.StatusCode)
	}
	var me struct {
		User    domain.User        `json:"user"`
		Profile domain.UserProfile `json:"profile"`
	}
	decodeBody(t, resp, &me)
	if me.User.Email != "creator@example.com" || me.Profile.Fullname != "Test Creator" {
		t.Fatalf("me = %+v", me)
	}
}

func TestRefreshAndLogout(t *testing.T) {
	srv := newTestServer(t)
	sess := signUp(t, srv, "creator@example.com")

	resp := postJSON(t, srv.URL+"/auth/refresh", "", map[string]string{"refreshToken": sess.RefreshToken})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("refresh status = %d", resp.StatusCode)
	}
	var next sessionResponse
	decodeBody(t, resp, &next)
	if next.RefreshToken == sess.RefreshToken {
		t.Fatalf("refresh token not rotated")
	}

	// Replaying the consumed token fails.
	resp = postJSON(t, srv.URL+"/auth/refresh", "", map[string]string{"refreshToken": sess.RefreshToken})
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("replayed refresh status = %d", resp.StatusCode)
	}

	resp = postJSON(t, srv.URL+"/auth/logout", next.Token, map[string]string{"refreshToken": next.RefreshToken})
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("logout status = %d", resp.StatusCode)
	}
	resp = doRequest(t, http.MethodGet, srv.URL+"/auth/me", next.Token, nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("me after logout status = %d", resp.StatusCode)
	}
}

func TestGenerateEndpoint(t *testing.T) {
	srv := newTestServer(t)
	sess := signUp(t, srv, "creator@example.com")

	resp := postJSON(t, srv.URL+"/generate", sess.Token, map[string]any{
		"topic": "hidden cafes in Da Lat", "length": "short", "save": true,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("generate status = %d", resp.StatusCode)
	}
	var out struct {
		Topic   string                  `json:"topic"`
		Content domain.GeneratedContent `json:"content"`
		Saved   *domain.ContentItem     `json:"saved"`
	}
	decodeBody(t, resp, &out)
	if out.Content.Content != "post body" || len(out.Content.Captions) != 3 {
		t.Fatalf("generated content = %+v", out.Content)
	}
	if out.Saved == nil || out.Saved.Topic != "hidden cafes in Da Lat" {
		t.Fatalf("saved item = %+v", out.Saved)
	}

	// Topic is required.
	resp = postJSON(t, srv.URL+"/generate", sess.Token, map[string]string{"topic": "  "})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("empty topic status = %d", resp.StatusCode)
	}
	var errBody struct {
		Code string `json:"code"`
	}
	decodeBody(t, resp, &errBody)
	if errBody.Code != "GENERATE_TOPIC_REQUIRED" {
		t.Fatalf("empty topic code = %q", errBody.Code)
	}

	// No token.
	resp = postJSON(t, srv.URL+"/generate", "", map[string]string{"topic": "t"})
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("anonymous generate status = %d", resp.StatusCode)
	}
}

func TestContentCRUD(t *testing.T) {
	srv := newTestServer(t)
	owner := signUp(t, srv, "owner@example.com")
	other := signUp(t, srv, "other@example.com")

	data := domain.GeneratedContent{Content: "v1", Captions: []string{"a", "b", "c"}, Hashtags: []string{"#x"}, ToneUsed: "t"}
	resp := postJSON(t, srv.URL+"/contents", owner.Token, map[string]any{"topic": "street food", "data": data})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("save status = %d", resp.StatusCode)
	}
	var saved domain.ContentItem
	decodeBody(t, resp, &saved)
	if saved.ID == 0 || saved.UserID != owner.User.ID {
		t.Fatalf("saved = %+v", saved)
	}

	// Listing is scoped to the caller.
	resp = doRequest(t, http.MethodGet, srv.URL+"/contents", other.Token, nil)
	var list struct {
		Items []domain.ContentItem `json:"items"`
		Count int                  `json:"count"`
	}
	decodeBody(t, resp, &list)
	if list.Count != 0 {
		t.Fatalf("foreign list count = %d", list.Count)
	}
	resp = doRequest(t, http.MethodGet, srv.URL+"/contents", owner.Token, nil)
	decodeBody(t, resp, &list)
	if list.Count != 1 || list.Items[0].ID != saved.ID {
		t.Fatalf("owner list = %+v", list)
	}

	itemURL := fmt.Sprintf("%s/contents/%d", srv.URL, saved.ID)

	// A foreign caller cannot see or touch the row.
	resp = doRequest(t, http.MethodGet, itemURL, other.Token, nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("foreign get status = %d", resp.StatusCode)
	}
	resp = doRequest(t, http.MethodDelete, itemURL, other.Token, nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("foreign delete status = %d", resp.StatusCode)
	}

	// Owner updates and reads back.
	updated := data
	updated.Content = "v2"
	resp = doRequest(t, http.MethodPut, itemURL, owner.Token, map[string]any{"data": updated})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("update status = %d", resp.StatusCode)
	}
	var item domain.ContentItem
	decodeBody(t, resp, &item)
	if item.Data.Content != "v2" {
		t.Fatalf("updated item = %+v", item)
	}

	resp = doRequest(t, http.MethodDelete, itemURL, owner.Token, nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("delete status = %d", resp.StatusCode)
	}
	resp = doRequest(t, http.MethodGet, itemURL, owner.Token, nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("get deleted status = %d", resp.StatusCode)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	srv := newTestServer(t)
	resp, err := http.Get(srv.URL + "/auth/signup")
	if err != nil {
		t.Fatalf("get signup: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d", resp.StatusCode)
	}
}
