package service

import (
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/zfogg/chirp/cli/pkg/api"
	"github.com/zfogg/chirp/cli/pkg/client"
	"github.com/zfogg/chirp/cli/pkg/config"
	"github.com/zfogg/chirp/cli/pkg/credentials"
	clierrors "github.com/zfogg/chirp/cli/pkg/errors"
)

func fakeJWT(exp time.Time) string {
	enc := base64.RawURLEncoding
	return enc.EncodeToString([]byte(`{"alg":"HS256","typ":"JWT"}`)) + "." +
		enc.EncodeToString([]byte(fmt.Sprintf(`{"sub":"u1","exp":%d}`, exp.Unix()))) + ".c2ln"
}

type recorded struct {
	method string
	path   string
	query  string
	auth   string
	body   string
}

// setup points config and the HTTP client at handler, with credentials in a temp dir
func setup(t *testing.T, handler http.HandlerFunc) *[]recorded {
	t.Helper()
	var mu sync.Mutex
	calls := []recorded{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		mu.Lock()
		calls = append(calls, recorded{r.Method, r.URL.Path, r.URL.RawQuery, r.Header.Get("Authorization"), string(body)})
		mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		handler(w, r)
	}))
	t.Cleanup(srv.Close)

	if err := config.Init(filepath.Join(t.TempDir(), "config.toml")); err != nil {
		t.Fatalf("config.Init failed: %v", err)
	}
	config.Set("api.base_url", srv.URL)
	config.Set("output.format", "json")
	client.Init()
	return &calls
}

func saveCreds(t *testing.T, exp time.Time, refreshToken string) {
	t.Helper()
	err := credentials.Save(&credentials.Credentials{
		AccessToken:  fakeJWT(exp),
		RefreshToken: refreshToken,
		ExpiresAt:    exp,
		UserID:       "u1",
		Username:     "alice",
	})
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
}

func envelope(w http.ResponseWriter, status int, data string) {
	w.WriteHeader(status)
	fmt.Fprintf(w, `{"status":%d,"data":%s,"message":"ok"}`, status, data)
}

func TestRequireSessionNotLoggedIn(t *testing.T) {
	setup(t, func(w http.ResponseWriter, r *http.Request) {})

	_, err := RequireSession()
	var cliErr *clierrors.CLIError
	if !errors.As(err, &cliErr) || cliErr.Type != clierrors.ErrorTypeAuth {
		t.Fatalf("Expected auth error, got %v", err)
	}
}

func TestRequireSessionValidTokenSkipsRefresh(t *testing.T) {
	calls := setup(t, func(w http.ResponseWriter, r *http.Request) {})
	saveCreds(t, time.Now().Add(time.Hour), "refresh")

	creds, err := RequireSession()
	if err != nil {
		t.Fatalf("RequireSession failed: %v", err)
	}
	if creds.Username != "alice" {
		t.Errorf("Expected alice, got %s", creds.Username)
	}
	if len(*calls) != 0 {
		t.Errorf("Expected no requests, got %d", len(*calls))
	}
}

func TestRequireSessionRefreshesExpiringToken(t *testing.T) {
	newExp := time.Now().Add(15 * time.Minute).Truncate(time.Second)
	newAccess := fakeJWT(newExp)
	calls := setup(t, func(w http.ResponseWriter, r *http.Request) {
		envelope(w, http.StatusOK, fmt.Sprintf(`{"accessToken":%q,"refreshToken":"rotated"}`, newAccess))
	})
	saveCreds(t, time.Now().Add(10*time.Second), "old-refresh")

	creds, err := RequireSession()
	if err != nil {
		t.Fatalf("RequireSession failed: %v", err)
	}

	if len(*calls) != 1 || (*calls)[0].path != "/api/v1/users/refresh-token" {
		t.Fatalf("Expected one refresh call, got %+v", *calls)
	}
	if !strings.Contains((*calls)[0].body, "old-refresh") {
		t.Errorf("Refresh body missing token: %s", (*calls)[0].body)
	}

	saved, err := credentials.Load()
	if err != nil || saved == nil {
		t.Fatalf("Load failed: %v", err)
	}
	if saved.AccessToken != newAccess || saved.RefreshToken != "rotated" {
		t.Errorf("Tokens not rotated: %+v", saved)
	}
	if !saved.ExpiresAt.Equal(newExp) {
		t.Errorf("Expected expiry %v from token, got %v", newExp, saved.ExpiresAt)
	}
	if saved.Username != "alice" {
		t.Error("Refresh should keep the saved user")
	}
	if creds.AccessToken != newAccess {
		t.Error("Returned credentials should carry the new token")
	}
}

func TestRequireSessionRefreshRejected(t *testing.T) {
	setup(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"status":401,"data":null,"message":"Refresh token revoked","code":"UNAUTHORIZED"}`)
	})
	saveCreds(t, time.Now().Add(-time.Minute), "revoked")

	_, err := RequireSession()
	var cliErr *clierrors.CLIError
	if !errors.As(err, &cliErr) || cliErr.Type != clierrors.ErrorTypeSessionExpired {
		t.Fatalf("Expected session expired, got %v", err)
	}
	if creds, _ := credentials.Load(); creds != nil {
		t.Error("Credentials should be removed after a rejected refresh")
	}
}

func TestFollowResolvesUsername(t *testing.T) {
	calls := setup(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/api/v1/users/search":
			envelope(w, http.StatusOK, `{"users":[{"id":"u7","username":"Bobby"},{"id":"u2","username":"bob"}],"pagination":{}}`)
		case r.Method == http.MethodPost && r.URL.Path == "/api/v1/follows/u2":
			envelope(w, http.StatusCreated, `null`)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})
	saveCreds(t, time.Now().Add(time.Hour), "refresh")

	if err := NewSocialService().Follow("@BOB", false); err != nil {
		t.Fatalf("Follow failed: %v", err)
	}

	got := *calls
	if len(got) != 2 {
		t.Fatalf("Expected search then follow, got %+v", got)
	}
	if !strings.Contains(got[0].query, "q=BOB") {
		t.Errorf("Search query not sent: %s", got[0].query)
	}
	if got[1].path != "/api/v1/follows/u2" {
		t.Errorf("Followed the wrong user: %s", got[1].path)
	}
	if !strings.HasPrefix(got[1].auth, "Bearer ") {
		t.Errorf("Missing bearer token: %q", got[1].auth)
	}
}

func TestPostRejectsLongTweetLocally(t *testing.T) {
	calls := setup(t, func(w http.ResponseWriter, r *http.Request) {})
	saveCreds(t, time.Now().Add(time.Hour), "refresh")

	err := NewTweetService().Post(api.TweetInput{Content: strings.Repeat("é", MaxTweetLength+1)})
	var cliErr *clierrors.CLIError
	if !errors.As(err, &cliErr) || cliErr.Type != clierrors.ErrorTypeContentLength {
		t.Fatalf("Expected content length error, got %v", err)
	}
	if len(*calls) != 0 {
		t.Error("No request should be sent for an oversized tweet")
	}

	if err := NewTweetService().Post(api.TweetInput{}); err == nil {
		t.Error("Expected error for an empty tweet without files")
	}
}

func TestPostRejectsMissingAttachment(t *testing.T) {
	calls := setup(t, func(w http.ResponseWriter, r *http.Request) {})
	saveCreds(t, time.Now().Add(time.Hour), "refresh")

	missing := filepath.Join(t.TempDir(), "nope.png")
	err := NewTweetService().Post(api.TweetInput{Files: []string{missing}})
	var cliErr *clierrors.CLIError
	if !errors.As(err, &cliErr) || cliErr.Type != clierrors.ErrorTypeFileNotFound {
		t.Fatalf("Expected file not found error, got %v", err)
	}
	if err := NewTweetService().Post(api.TweetInput{Files: []string{t.TempDir()}}); err == nil {
		t.Error("Expected error for a directory attachment")
	}
	if len(*calls) != 0 {
		t.Error("No request should be sent for a missing attachment")
	}
}

func TestTimelineSendsPageSize(t *testing.T) {
	calls := setup(t, func(w http.ResponseWriter, r *http.Request) {
		envelope(w, http.StatusOK, `{"tweets":[],"pagination":{"currentPage":2,"totalPages":2}}`)
	})
	saveCreds(t, time.Now().Add(time.Hour), "refresh")
	config.Set("feed.page_size", 5)

	if err := NewTweetService().Timeline(2); err != nil {
		t.Fatalf("Timeline failed: %v", err)
	}
	got := (*calls)[0]
	if got.path != "/api/v1/tweets/timeline" || !strings.Contains(got.query, "limit=5") || !strings.Contains(got.query, "page=2") {
		t.Errorf("Unexpected request: %+v", got)
	}
}

func TestServerErrorsSurfaceStatus(t *testing.T) {
	setup(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"status":404,"data":null,"message":"Tweet not found","code":"NOT_FOUND"}`)
	})
	saveCreds(t, time.Now().Add(time.Hour), "refresh")

	err := NewTweetService().Show("missing", false)
	if err == nil {
		t.Fatal("Expected error")
	}
	if cliErr := clierrors.CategorizeError(err); cliErr.Type != clierrors.ErrorTypeNotFound {
		t.Errorf("Expected not found, got %s", cliErr.Type)
	}
}

func TestAgo(t *testing.T) {
	now := time.Now()
	testCases := map[time.Duration]string{
		10 * time.Second: "now",
		5 * time.Minute:  "5m",
		3 * time.Hour:    "3h",
		48 * time.Hour:   "2d",
	}
	for d, want := range testCases {
		if got := Ago(now.Add(-d)); got != want {
			t.Errorf("Ago(-%v) = %s, want %s", d, got, want)
		}
	}
}

func TestPreview(t *testing.T) {
	if got := preview("short", 10); got != "short" {
		t.Errorf("Unexpected truncation: %s", got)
	}
	if got := preview("a long message here", 6); got != "a lon…" {
		t.Errorf("Expected rune-safe truncation, got %q", got)
	}
}
