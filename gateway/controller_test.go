package gateway

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tripgate/tripgate/database/model"
	"github.com/tripgate/tripgate/entity"
	"github.com/tripgate/tripgate/token"
)

func newTestRouter(t *testing.T, identityURL, destinationURL string) (*gin.Engine, *token.Codec) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	codec := token.NewCodec("test-secret", time.Hour)
	relay := NewRelay(identityURL, destinationURL, 2*time.Second)
	health := NewHealthJob(map[string]string{
		"identity":    identityURL,
		"destination": destinationURL,
	}, 2*time.Second)

	engine := gin.New()
	NewController(engine.Group("/"), relay, health, codec)
	return engine, codec
}

func doGet(engine *gin.Engine, path, bearer string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func decodeMsg(t *testing.T, w *httptest.ResponseRecorder) entity.Msg {
	t.Helper()
	var m entity.Msg
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &m))
	return m
}

func TestAuthenticationFailuresStayDistinct(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer backend.Close()

	engine, _ := newTestRouter(t, backend.URL, backend.URL)

	expired, err := token.NewCodec("test-secret", -time.Minute).Sign("a@x.com", model.RoleUser)
	require.NoError(t, err)

	tests := []struct {
		name    string
		bearer  string
		wantMsg string
	}{
		{"missing", "", "token is missing"},
		{"malformed", "garbage", "invalid token"},
		{"expired", expired, "token has expired"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doGet(engine, "/profile", tt.bearer)
			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.Equal(t, tt.wantMsg, decodeMsg(t, w).Msg)
		})
	}
}

func TestDestinationsRoleGate(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[]`))
	}))
	defer backend.Close()

	engine, codec := newTestRouter(t, backend.URL, backend.URL)

	// A verified token with a role outside the allow-list is Forbidden,
	// not Unauthenticated.
	ghost, err := codec.Sign("g@x.com", "Ghost")
	require.NoError(t, err)

	w := doGet(engine, "/destinations", ghost)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "insufficient role", decodeMsg(t, w).Msg)

	user, err := codec.Sign("a@x.com", model.RoleUser)
	require.NoError(t, err)

	w = doGet(engine, "/destinations", user)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRelayPassesStatusAndBodyVerbatim(t *testing.T) {
	var sawAuth string
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sawAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"name":"A","email":"a@x.com","role":"User"}`))
	}))
	defer backend.Close()

	engine, codec := newTestRouter(t, backend.URL, backend.URL)

	tok, err := codec.Sign("a@x.com", model.RoleUser)
	require.NoError(t, err)

	w := doGet(engine, "/profile", tok)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"name":"A","email":"a@x.com","role":"User"}`, w.Body.String())
	// The bearer travels with the forwarded request so the backend can
	// run its own check.
	assert.Equal(t, "Bearer "+tok, sawAuth)
	assert.NotEmpty(t, w.Header().Get("X-Request-Id"))
}

func TestRelayNotFoundPassesThrough(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"success":false,"msg":"user not found"}`))
	}))
	defer backend.Close()

	engine, codec := newTestRouter(t, backend.URL, backend.URL)

	tok, err := codec.Sign("ghost@x.com", model.RoleUser)
	require.NoError(t, err)

	w := doGet(engine, "/profile", tok)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "user not found", decodeMsg(t, w).Msg)
}

func TestUpstreamUnavailable(t *testing.T) {
	dead := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	dead.Close()

	engine, codec := newTestRouter(t, dead.URL, dead.URL)

	tok, err := codec.Sign("a@x.com", model.RoleUser)
	require.NoError(t, err)

	w := doGet(engine, "/profile", tok)
	assert.Equal(t, http.StatusBadGateway, w.Code)
	m := decodeMsg(t, w)
	assert.Equal(t, "upstream service unavailable", m.Msg)
	// No transport error text may leak into the body.
	assert.NotContains(t, w.Body.String(), "connection refused")
}

func TestBackendAuthDisagreementIsUpstreamFault(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"success":false,"msg":"admin token required"}`))
	}))
	defer backend.Close()

	engine, codec := newTestRouter(t, backend.URL, backend.URL)

	tok, err := codec.Sign("a@x.com", model.RoleUser)
	require.NoError(t, err)

	w := doGet(engine, "/destinations", tok)
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Equal(t, "upstream service unavailable", decodeMsg(t, w).Msg)
}

func TestHealthJob(t *testing.T) {
	up := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/healthz" {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer up.Close()

	down := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	down.Close()

	job := NewHealthJob(map[string]string{"up": up.URL, "down": down.URL}, time.Second)
	job.Run()

	snapshot := job.Snapshot()
	require.Len(t, snapshot, 2)
	assert.True(t, snapshot["up"].Up)
	assert.False(t, snapshot["down"].Up)
}
