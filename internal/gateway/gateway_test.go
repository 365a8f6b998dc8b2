// ABOUTME: End-to-end tests for the HTTP API over an in-memory store
// ABOUTME: Drives real requests with cookie-carrying clients and checks shutdown leaves no goroutines

package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/2389/folio/internal/config"
	"github.com/2389/folio/internal/docstore"
)

// testConfig creates a minimal config for testing.
func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Server.HTTPAddr = "127.0.0.1:0"
	cfg.Database.Driver = "memory"
	cfg.Auth.SessionSecret = "gateway-test-secret-0123456789abcdef"
	return cfg
}

// testLogger creates a silent logger for tests.
func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestGateway(t *testing.T) *Gateway {
	t.Helper()
	gw, err := New(context.Background(), testConfig(), docstore.NewMemoryDriver(), testLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = gw.Close() })
	return gw
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(newTestGateway(t).Handler())
	t.Cleanup(srv.Close)
	return srv
}

// apiClient is one browser: its own cookie jar.
type apiClient struct {
	t    *testing.T
	base string
	http *http.Client
}

func newClient(t *testing.T, srv *httptest.Server) *apiClient {
	t.Helper()
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &apiClient{t: t, base: srv.URL, http: &http.Client{Jar: jar}}
}

// call sends body as JSON and decodes the reply into out when non-nil.
func (c *apiClient) call(method, path string, body, out any) int {
	c.t.Helper()
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(c.t, err)
		reader = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, c.base+path, reader)
	require.NoError(c.t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	require.NoError(c.t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(c.t, err)
	if out != nil {
		require.NoError(c.t, json.Unmarshal(raw, out), "body: %s", raw)
	}
	return resp.StatusCode
}

type message struct {
	Msg     string `json:"msg"`
	Message string `json:"message"`
}

// signUp registers and logs in username on a fresh client.
func signUp(t *testing.T, srv *httptest.Server, username string) *apiClient {
	t.Helper()
	c := newClient(t, srv)
	creds := map[string]string{"username": username, "password": "pw-" + username}
	require.Equal(t, http.StatusOK, c.call(http.MethodPost, "/api/users", creds, nil))
	require.Equal(t, http.StatusOK, c.call(http.MethodPost, "/api/login", creds, nil))
	return c
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t)

	for _, path := range []string{"/health", "/health/ready"} {
		resp, err := http.Get(srv.URL + path)
		require.NoError(t, err)
		_ = resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode, path)
	}
}

func TestJournalScenario(t *testing.T) {
	srv := newTestServer(t)
	alice := signUp(t, srv, "alice")

	var me struct {
		Username string `json:"username"`
	}
	require.Equal(t, http.StatusOK, alice.call(http.MethodGet, "/api/session", nil, &me))
	assert.Equal(t, "alice", me.Username)

	var created struct {
		Msg     string `json:"msg"`
		Journal struct {
			ID     string   `json:"_id"`
			Author string   `json:"author"`
			Items  []string `json:"items"`
		} `json:"journal"`
	}
	require.Equal(t, http.StatusOK, alice.call(http.MethodPost, "/api/journals",
		map[string]any{"name": "diary", "privacy": false}, &created))
	journalID := created.Journal.ID
	assert.Equal(t, "alice", created.Journal.Author)

	var post struct {
		Post struct {
			ID          string `json:"_id"`
			ContentHTML string `json:"contentHtml"`
		} `json:"post"`
	}
	require.Equal(t, http.StatusOK, alice.call(http.MethodPost, "/api/posts",
		map[string]any{"journalid": journalID, "content": "# Day one"}, &post))
	assert.Contains(t, post.Post.ContentHTML, "<h1>Day one</h1>")

	var journal struct {
		Items []string `json:"items"`
	}
	require.Equal(t, http.StatusOK, alice.call(http.MethodGet, "/api/journals/"+journalID, nil, &journal))
	assert.Equal(t, []string{post.Post.ID}, journal.Items)

	var ack message
	require.Equal(t, http.StatusOK, alice.call(http.MethodDelete, "/api/journals",
		map[string]any{"journalid": journalID}, &ack))
	assert.Equal(t, "Journal deleted successfully!", ack.Msg)

	var missing message
	assert.Equal(t, http.StatusNotFound, alice.call(http.MethodGet, "/api/journals/"+journalID, nil, &missing))
	assert.Equal(t, fmt.Sprintf("Journal %s does not exist!", journalID), missing.Message)

	var posts []map[string]any
	require.Equal(t, http.StatusOK, alice.call(http.MethodGet, "/api/posts?author=alice", nil, &posts))
	assert.Empty(t, posts)
}

func TestOwnershipOverHTTP(t *testing.T) {
	srv := newTestServer(t)
	alice := signUp(t, srv, "alice")
	bob := signUp(t, srv, "bob")

	var created struct {
		Journal struct {
			ID string `json:"_id"`
		} `json:"journal"`
	}
	require.Equal(t, http.StatusOK, alice.call(http.MethodPost, "/api/journals",
		map[string]any{"name": "diary"}, &created))

	var denied message
	assert.Equal(t, http.StatusForbidden, bob.call(http.MethodPatch, "/api/journals",
		map[string]any{"journalid": created.Journal.ID, "name": "mine now"}, &denied))
	assert.Equal(t, fmt.Sprintf("bob is not the author of journal %s!", created.Journal.ID), denied.Message)

	var journal struct {
		Name string `json:"name"`
	}
	require.Equal(t, http.StatusOK, bob.call(http.MethodGet, "/api/journals/"+created.Journal.ID, nil, &journal))
	assert.Equal(t, "diary", journal.Name)
}

func TestPrivatePostsHiddenOverHTTP(t *testing.T) {
	srv := newTestServer(t)
	alice := signUp(t, srv, "alice")
	bob := signUp(t, srv, "bob")

	var created struct {
		Journal struct {
			ID string `json:"_id"`
		} `json:"journal"`
	}
	require.Equal(t, http.StatusOK, alice.call(http.MethodPost, "/api/journals",
		map[string]any{"name": "secret", "privacy": true}, &created))
	require.Equal(t, http.StatusOK, alice.call(http.MethodPost, "/api/posts",
		map[string]any{"journalid": created.Journal.ID, "content": "my secret"}, nil))

	var posts []map[string]any
	require.Equal(t, http.StatusOK, bob.call(http.MethodGet, "/api/posts?author=alice", nil, &posts))
	assert.Empty(t, posts)
	require.Equal(t, http.StatusOK, newClient(t, srv).call(http.MethodGet, "/api/posts", nil, &posts))
	assert.Empty(t, posts)

	require.Equal(t, http.StatusOK, alice.call(http.MethodGet, "/api/posts?author=alice", nil, &posts))
	assert.Len(t, posts, 1)
}

func TestErrorResponses(t *testing.T) {
	srv := newTestServer(t)
	anon := newClient(t, srv)

	tests := []struct {
		name       string
		method     string
		path       string
		body       any
		wantStatus int
		wantMsg    string
	}{
		{"not logged in", http.MethodPost, "/api/journals", map[string]any{"name": "x"}, http.StatusUnauthorized, "Must be logged in!"},
		{"unknown user", http.MethodGet, "/api/users/nobody", nil, http.StatusNotFound, "User nobody does not exist!"},
		{"bad journal id", http.MethodGet, "/api/journals/not-an-id", nil, http.StatusBadRequest, ""},
		{"bad privacy", http.MethodPost, "/api/journals", map[string]any{"name": "x", "privacy": "maybe"}, http.StatusBadRequest, ""},
		{"logout when logged out", http.MethodPost, "/api/logout", nil, http.StatusForbidden, "Already logged out!"},
		{"bad credentials", http.MethodPost, "/api/login", map[string]any{"username": "ghost", "password": "x"}, http.StatusUnauthorized, "Username or password is incorrect."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got message
			assert.Equal(t, tt.wantStatus, anon.call(tt.method, tt.path, tt.body, &got))
			assert.NotEmpty(t, got.Message)
			if tt.wantMsg != "" {
				assert.Equal(t, tt.wantMsg, got.Message)
			}
		})
	}
}

func TestMalformedBody(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Post(srv.URL+"/api/users", "application/json", bytes.NewReader([]byte("{not json")))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	var got message
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Contains(t, got.Message, "body")
}

func TestFriendScenarioOverHTTP(t *testing.T) {
	srv := newTestServer(t)
	alice := signUp(t, srv, "alice")
	bob := signUp(t, srv, "bob")

	require.Equal(t, http.StatusOK, alice.call(http.MethodPost, "/api/friend/requests/bob", nil, nil))

	var dup message
	assert.Equal(t, http.StatusConflict, alice.call(http.MethodPost, "/api/friend/requests/bob", nil, &dup))
	assert.Equal(t, "Friend request between alice and bob already exists!", dup.Message)

	require.Equal(t, http.StatusOK, bob.call(http.MethodPut, "/api/friend/accept/alice", nil, nil))

	var friends []string
	require.Equal(t, http.StatusOK, alice.call(http.MethodGet, "/api/friends", nil, &friends))
	assert.Equal(t, []string{"bob"}, friends)
	require.Equal(t, http.StatusOK, bob.call(http.MethodGet, "/api/friends", nil, &friends))
	assert.Equal(t, []string{"alice"}, friends)

	var again message
	assert.Equal(t, http.StatusConflict, bob.call(http.MethodPost, "/api/friend/requests/alice", nil, &again))
	assert.Equal(t, "bob and alice are already friends!", again.Message)
}

func TestLogoutEndsSession(t *testing.T) {
	srv := newTestServer(t)
	alice := signUp(t, srv, "alice")

	u, err := url.Parse(srv.URL)
	require.NoError(t, err)
	stolen := alice.http.Jar.Cookies(u)
	require.NotEmpty(t, stolen)

	require.Equal(t, http.StatusOK, alice.call(http.MethodPost, "/api/logout", nil, nil))
	assert.Equal(t, http.StatusUnauthorized, alice.call(http.MethodGet, "/api/session", nil, nil))

	// replaying the old cookie finds no live session
	replay := newClient(t, srv)
	replay.http.Jar.SetCookies(u, stolen)
	assert.Equal(t, http.StatusUnauthorized, replay.call(http.MethodGet, "/api/session", nil, nil))
}

func TestServe_StopsCleanly(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	gw, err := New(context.Background(), testConfig(), docstore.NewMemoryDriver(), testLogger())
	require.NoError(t, err)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- gw.Serve(ctx, ln) }()

	client := &http.Client{Transport: &http.Transport{DisableKeepAlives: true}}
	require.Eventually(t, func() bool {
		resp, err := client.Get("http://" + ln.Addr().String() + "/health")
		if err != nil {
			return false
		}
		_ = resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
	require.NoError(t, gw.Close())
}
