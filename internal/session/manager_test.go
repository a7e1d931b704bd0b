package session

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gorilla/sessions"
	"github.com/isdelr/ender-auth-be/internal/database"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testKey = []byte("0123456789abcdef0123456789abcdef")

func newSQLiteStore(t *testing.T) (*ServerStore, *SQLiteBackend) {
	t.Helper()
	db, err := database.Open(context.Background(), filepath.Join(t.TempDir(), "auth.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	backend := NewSQLiteBackend(db)
	store := NewServerStore(backend, testKey)
	Configure(store, DefaultOptions(86400, false))
	return store, backend
}

func newRedisStore(t *testing.T) (*ServerStore, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		_ = rdb.Close()
		mr.Close()
	})
	store := NewServerStore(NewRedisBackend(rdb, ""), testKey)
	Configure(store, DefaultOptions(86400, false))
	return store, mr
}

func newCookieStore() *sessions.CookieStore {
	store := sessions.NewCookieStore(testKey)
	Configure(store, DefaultOptions(86400, false))
	return store
}

// request builds a request carrying the cookies from a previous response.
func request(prev *httptest.ResponseRecorder) *http.Request {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	if prev != nil {
		for _, c := range prev.Result().Cookies() {
			r.AddCookie(c)
		}
	}
	return r
}

func sessionCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == CookieName {
			return c
		}
	}
	t.Fatalf("no %s cookie in response", CookieName)
	return nil
}

func stores(t *testing.T) map[string]sessions.Store {
	t.Helper()
	sqliteStore, _ := newSQLiteStore(t)
	redisStore, _ := newRedisStore(t)
	return map[string]sessions.Store{
		"cookie": newCookieStore(),
		"sqlite": sqliteStore,
		"redis":  redisStore,
	}
}

func TestManager_Lifecycle(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			m := NewManager(store)

			id, err := m.UserID(request(nil))
			require.NoError(t, err)
			assert.Empty(t, id)

			login := httptest.NewRecorder()
			require.NoError(t, m.Establish(login, request(nil), "user-1"))
			sessionCookie(t, login)

			id, err = m.UserID(request(login))
			require.NoError(t, err)
			assert.Equal(t, "user-1", id)

			logout := httptest.NewRecorder()
			require.NoError(t, m.Destroy(logout, request(login)))
			c := sessionCookie(t, logout)
			assert.True(t, c.MaxAge < 0, "cookie should be expired")

			// The browser drops the expired cookie; a replay of the old one
			// must not resurrect a server-side session.
			id, err = m.UserID(request(nil))
			require.NoError(t, err)
			assert.Empty(t, id)
		})
	}
}

func TestManager_ReplayAfterDestroy(t *testing.T) {
	for _, name := range []string{"sqlite", "redis"} {
		store := stores(t)[name]
		t.Run(name, func(t *testing.T) {
			m := NewManager(store)

			login := httptest.NewRecorder()
			require.NoError(t, m.Establish(login, request(nil), "user-1"))
			require.NoError(t, m.Destroy(httptest.NewRecorder(), request(login)))

			id, err := m.UserID(request(login))
			require.NoError(t, err)
			assert.Empty(t, id)
		})
	}
}

// Signed cookies carry the values themselves, so a copy taken before logout
// stays valid until it expires.
func TestManager_CookieStoreReplayAfterDestroy(t *testing.T) {
	m := NewManager(newCookieStore())

	login := httptest.NewRecorder()
	require.NoError(t, m.Establish(login, request(nil), "user-1"))
	require.NoError(t, m.Destroy(httptest.NewRecorder(), request(login)))

	id, err := m.UserID(request(login))
	require.NoError(t, err)
	assert.Equal(t, "user-1", id)
}

func TestManager_TamperedCookie(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			m := NewManager(store)
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.AddCookie(&http.Cookie{Name: CookieName, Value: "not-a-valid-cookie"})

			id, err := m.UserID(r)
			require.NoError(t, err)
			assert.Empty(t, id)
		})
	}
}

func TestManager_EstablishRotatesID(t *testing.T) {
	store, _ := newSQLiteStore(t)
	m := NewManager(store)

	first := httptest.NewRecorder()
	require.NoError(t, m.Establish(first, request(nil), "user-1"))
	second := httptest.NewRecorder()
	require.NoError(t, m.Establish(second, request(first), "user-1"))

	assert.NotEqual(t, sessionCookie(t, first).Value, sessionCookie(t, second).Value)
}

func TestManager_EstablishDeletesPreviousRecord(t *testing.T) {
	sqliteStore, backend := newSQLiteStore(t)
	redisStore, mr := newRedisStore(t)

	countRecords := map[string]func() int{
		"sqlite": func() int {
			var n int
			require.NoError(t, backend.db.QueryRow("SELECT COUNT(*) FROM sessions").Scan(&n))
			return n
		},
		"redis": func() int { return len(mr.Keys()) },
	}

	for name, store := range map[string]sessions.Store{"sqlite": sqliteStore, "redis": redisStore} {
		t.Run(name, func(t *testing.T) {
			m := NewManager(store)

			first := httptest.NewRecorder()
			require.NoError(t, m.Establish(first, request(nil), "user-1"))
			second := httptest.NewRecorder()
			require.NoError(t, m.Establish(second, request(first), "user-2"))

			assert.Equal(t, 1, countRecords[name]())

			id, err := m.UserID(request(first))
			require.NoError(t, err)
			assert.Empty(t, id)

			id, err = m.UserID(request(second))
			require.NoError(t, err)
			assert.Equal(t, "user-2", id)
		})
	}
}

func TestDefaultOptions_CookieAttributes(t *testing.T) {
	for _, secure := range []bool{false, true} {
		sqliteStore, _ := newSQLiteStore(t)
		for name, store := range map[string]sessions.Store{
			"cookie": sessions.NewCookieStore(testKey),
			"sqlite": sqliteStore,
		} {
			Configure(store, DefaultOptions(3600, secure))
			m := NewManager(store)

			rec := httptest.NewRecorder()
			require.NoError(t, m.Establish(rec, request(nil), "user-1"))
			c := sessionCookie(t, rec)

			assert.Equal(t, "/", c.Path, name)
			assert.Equal(t, 3600, c.MaxAge, name)
			assert.True(t, c.HttpOnly, name)
			assert.Equal(t, secure, c.Secure, name)
			assert.Equal(t, http.SameSiteLaxMode, c.SameSite, name)
		}
	}
}

func TestConfigure_CopiesOptions(t *testing.T) {
	opts := DefaultOptions(3600, false)
	store := newCookieStore()
	Configure(store, opts)

	store.Options.MaxAge = 60
	assert.Equal(t, 3600, opts.MaxAge)
}

func TestRedisBackend_TTL(t *testing.T) {
	store, mr := newRedisStore(t)
	store.MaxAge(60)
	m := NewManager(store)

	login := httptest.NewRecorder()
	require.NoError(t, m.Establish(login, request(nil), "user-1"))

	keys := mr.Keys()
	require.Len(t, keys, 1)
	assert.Equal(t, 60*time.Second, mr.TTL(keys[0]))

	mr.FastForward(61 * time.Second)
	id, err := m.UserID(request(login))
	require.NoError(t, err)
	assert.Empty(t, id)
}

func TestRedisBackend_Unavailable(t *testing.T) {
	store, mr := newRedisStore(t)
	m := NewManager(store)

	login := httptest.NewRecorder()
	require.NoError(t, m.Establish(login, request(nil), "user-1"))

	mr.Close()
	_, err := m.UserID(request(login))
	require.Error(t, err)
}

func TestSQLiteBackend_DeleteExpired(t *testing.T) {
	_, backend := newSQLiteStore(t)
	ctx := context.Background()

	now := time.Now()
	backend.now = func() time.Time { return now }
	require.NoError(t, backend.Save(ctx, "old", []byte("x"), time.Minute))
	require.NoError(t, backend.Save(ctx, "fresh", []byte("y"), time.Hour))

	now = now.Add(10 * time.Minute)
	_, err := backend.Load(ctx, "old")
	require.ErrorIs(t, err, ErrNotFound)

	n, err := backend.DeleteExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	data, err := backend.Load(ctx, "fresh")
	require.NoError(t, err)
	assert.Equal(t, []byte("y"), data)
}
