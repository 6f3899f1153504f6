package web

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/devtv/devtv/internal/common"
	"github.com/devtv/devtv/internal/logging"
	"github.com/devtv/devtv/internal/server/adapter"
	"github.com/devtv/devtv/internal/server/auth"
	"github.com/devtv/devtv/internal/server/config"
	"github.com/devtv/devtv/internal/server/models"
	"github.com/devtv/devtv/internal/server/repositories/repomanager"
	"github.com/devtv/devtv/internal/server/services"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const testSecret = "test-secret"

type fakeAvatars struct {
	mu       sync.Mutex
	images   map[string]string
	uploaded map[string]bool
}

func (f *fakeAvatars) BeginUpload(_ context.Context, userID string) (*services.AvatarUpload, error) {
	key := "avatars/" + userID + "/k"
	return &services.AvatarUpload{Key: key, URL: "http://s3/put/" + key}, nil
}

// upload marks key as present in the bucket.
func (f *fakeAvatars) upload(key string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.uploaded[key] = true
}

func (f *fakeAvatars) CompleteUpload(_ context.Context, userID, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !strings.HasPrefix(key, "avatars/"+userID+"/") {
		return services.ErrInvalidAvatarKey
	}
	if !f.uploaded[key] {
		return services.ErrUploadNotFound
	}
	f.images[userID] = key
	return nil
}

func (f *fakeAvatars) DownloadURL(_ context.Context, userID string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key, ok := f.images[userID]
	if !ok {
		return "", services.ErrNoAvatar
	}
	return "http://s3/get/" + key, nil
}

// countingRegistrar records calls and delegates to next unless err is set.
type countingRegistrar struct {
	mu    sync.Mutex
	calls int
	next  Registrar
	err   error
}

func (r *countingRegistrar) Register(ctx context.Context, name, email, password string) (*models.User, error) {
	r.mu.Lock()
	r.calls++
	r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	return r.next.Register(ctx, name, email, password)
}

func (r *countingRegistrar) Calls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

type testEnv struct {
	e         *echo.Echo
	store     *adapter.Store
	registrar *countingRegistrar
	avatars   *fakeAvatars
}

func testConfig() *config.Config {
	return &config.Config{
		SecretKey:                  testSecret,
		BcryptCost:                 bcrypt.MinCost,
		MarkSelfRegisteredVerified: true,
		SessionMaxAge:              30 * 24 * time.Hour,
		SessionUpdateAge:           24 * time.Hour,
	}
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	return newTestEnvWithHealth(t, nil)
}

func newTestEnvWithHealth(t *testing.T, health func(context.Context) error) *testEnv {
	t.Helper()
	cfg := testConfig()
	m := repomanager.NewInMemoryRepositoryManager()
	store := adapter.NewStore(nil, m)
	creds := services.NewCredentialService(nil, m, cfg)
	registrar := &countingRegistrar{next: creds}
	avatars := &fakeAvatars{images: map[string]string{}, uploaded: map[string]bool{}}

	e, err := NewRouter(cfg, Deps{
		Registrar:   registrar,
		Sessions:    auth.NewManager(store, creds, cfg, logging.Nop()),
		Avatars:     avatars,
		Logger:      logging.Nop(),
		HealthCheck: health,
	})
	require.NoError(t, err)

	return &testEnv{e: e, store: store, registrar: registrar, avatars: avatars}
}

func (env *testEnv) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	env.e.ServeHTTP(rec, req)
	return rec
}

func jsonRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	return req
}

func formRequest(target string, values url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(values.Encode()))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	return req
}

// csrfPair is a CSRF token together with the nonce cookie it is bound to.
type csrfPair struct {
	token  string
	cookie *http.Cookie
}

// attach sends the nonce cookie with req.
func (p csrfPair) attach(req *http.Request) *http.Request {
	req.AddCookie(p.cookie)
	return req
}

// csrf fetches a token the way a browser does.
func (env *testEnv) csrf(t *testing.T) csrfPair {
	t.Helper()
	rec := env.do(httpGet("/api/auth/csrf"))
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.NotEmpty(t, body["csrfToken"])

	cookie := findCookie(rec, common.CSRFCookieName)
	require.NotNil(t, cookie, "nonce cookie is set")
	return csrfPair{token: body["csrfToken"], cookie: cookie}
}

func findCookie(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func sessionCookie(rec *httptest.ResponseRecorder) *http.Cookie {
	return findCookie(rec, common.SessionCookieName)
}

var errStorageDown = errors.New("storage down")

func httpGet(target string) *http.Request {
	return httptest.NewRequest(http.MethodGet, target, nil)
}
