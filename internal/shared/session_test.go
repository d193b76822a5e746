package shared

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newTestSessionManager(t *testing.T) *SessionManager {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return NewSessionManager(client, "konta_session", "test-secret", time.Hour, false)
}

func commitSession(t *testing.T, sm *SessionManager, sess *Session) *http.Cookie {
	t.Helper()
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	require.NoError(t, sm.Commit(context.Background(), rec, req, sess))
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	return cookies[0]
}

func TestSessionRoundTrip(t *testing.T) {
	sm := newTestSessionManager(t)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	sess, err := sm.Load(context.Background(), req)
	require.NoError(t, err)
	sess.SetUser(7, "seller")

	cookie := commitSession(t, sm, sess)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookie)
	loaded, err := sm.Load(context.Background(), req)
	require.NoError(t, err)
	require.Equal(t, sess.ID, loaded.ID)
	require.EqualValues(t, 7, loaded.UserID())
	require.Equal(t, "seller", loaded.Role())
}

func TestSessionCookieIsSigned(t *testing.T) {
	sm := newTestSessionManager(t)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	sess, err := sm.Load(context.Background(), req)
	require.NoError(t, err)
	sess.SetUser(7, "admin")

	cookie := commitSession(t, sm, sess)
	id, sig, ok := strings.Cut(cookie.Value, ".")
	require.True(t, ok)
	require.Equal(t, sess.ID, id)
	require.NotEmpty(t, sig)
}

func TestSessionRejectsTamperedCookie(t *testing.T) {
	sm := newTestSessionManager(t)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	sess, err := sm.Load(context.Background(), req)
	require.NoError(t, err)
	sess.SetUser(7, "admin")
	cookie := commitSession(t, sm, sess)

	for _, value := range []string{
		sess.ID,                       // signature stripped
		"forged-id." + "Zm9yZ2Vk",     // wrong signature
		strings.ToUpper(cookie.Value), // id no longer matches the mac
	} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: "konta_session", Value: value})
		loaded, err := sm.Load(context.Background(), req)
		require.NoError(t, err)
		require.EqualValues(t, 0, loaded.UserID(), "cookie %q must not restore the session", value)
	}
}
