package session

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"bitwise74/member-portal/model"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

var dbCounter atomic.Int64

func testStore(t *testing.T) (*Store, *gorm.DB, *gin.Engine) {
	t.Helper()

	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:sess%d?mode=memory&cache=shared", dbCounter.Add(1))))
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(model.User{}, model.Session{}))

	store := NewStore(db)

	r := gin.New()
	r.Use(store.Middleware())

	r.GET("/whoami", func(c *gin.Context) {
		if u := CurrentUser(c); u != nil {
			c.String(http.StatusOK, u.Username)
			return
		}

		c.String(http.StatusOK, "anonymous")
	})
	r.GET("/login", func(c *gin.Context) {
		require.NoError(t, store.Start(c, c.Query("user")))
		c.Status(http.StatusOK)
	})
	r.GET("/logout", func(c *gin.Context) {
		require.NoError(t, store.Destroy(c))
		c.Status(http.StatusOK)
	})
	r.GET("/flash", func(c *gin.Context) {
		store.Flash(c, model.FlashSuccess, "hello")
		c.Status(http.StatusOK)
	})
	r.GET("/notices", func(c *gin.Context) {
		flashes := store.PopFlashes(c)

		out := ""
		for _, f := range flashes {
			out += f.Message + ";"
		}

		c.String(http.StatusOK, out)
	})

	return store, db, r
}

func do(r *gin.Engine, path string, cookie *http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest("GET", path, nil)
	if cookie != nil {
		req.AddCookie(cookie)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	return w
}

func sessionCookie(w *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range w.Result().Cookies() {
		if c.Name == CookieName && c.Value != "" {
			return c
		}
	}

	return nil
}

func TestRestoreResolvesPrincipal(t *testing.T) {
	_, db, r := testStore(t)

	require.NoError(t, db.Create(&model.User{
		ID: "u1", Username: "alice", Email: "a@example.com", PasswordHash: "x",
	}).Error)

	w := do(r, "/login?user=u1", nil)
	cookie := sessionCookie(w)
	require.NotNil(t, cookie)

	w = do(r, "/whoami", cookie)
	assert.Equal(t, "alice", w.Body.String())

	w = do(r, "/whoami", nil)
	assert.Equal(t, "anonymous", w.Body.String())
}

func TestExpiredSessionIsDropped(t *testing.T) {
	_, db, r := testStore(t)

	require.NoError(t, db.Create(&model.Session{
		ID: "stale", UserID: "u1", ExpiresAt: time.Now().Add(-time.Minute),
	}).Error)

	w := do(r, "/whoami", &http.Cookie{Name: CookieName, Value: "stale"})
	assert.Equal(t, "anonymous", w.Body.String())

	var count int64
	require.NoError(t, db.Model(&model.Session{}).Where("id = ?", "stale").Count(&count).Error)
	assert.EqualValues(t, 0, count)
}

func TestStartDiscardsPreLoginSession(t *testing.T) {
	_, db, r := testStore(t)

	require.NoError(t, db.Create(&model.User{
		ID: "u1", Username: "alice", Email: "a@example.com", PasswordHash: "x",
	}).Error)

	// An anonymous session from a pre-login flash
	w := do(r, "/flash", nil)
	anon := sessionCookie(w)
	require.NotNil(t, anon)

	w = do(r, "/login?user=u1", anon)
	authed := sessionCookie(w)
	require.NotNil(t, authed)
	assert.NotEqual(t, anon.Value, authed.Value)

	var count int64
	require.NoError(t, db.Model(&model.Session{}).Where("id = ?", anon.Value).Count(&count).Error)
	assert.EqualValues(t, 0, count)
}

func TestFlashDrainsOnce(t *testing.T) {
	_, _, r := testStore(t)

	w := do(r, "/flash", nil)
	cookie := sessionCookie(w)
	require.NotNil(t, cookie)

	w = do(r, "/notices", cookie)
	assert.Equal(t, "hello;", w.Body.String())

	w = do(r, "/notices", cookie)
	assert.Equal(t, "", w.Body.String())
}

func TestDestroyRemovesRow(t *testing.T) {
	_, db, r := testStore(t)

	require.NoError(t, db.Create(&model.User{
		ID: "u1", Username: "alice", Email: "a@example.com", PasswordHash: "x",
	}).Error)

	w := do(r, "/login?user=u1", nil)
	cookie := sessionCookie(w)
	require.NotNil(t, cookie)

	do(r, "/logout", cookie)

	var count int64
	require.NoError(t, db.Model(&model.Session{}).Count(&count).Error)
	assert.EqualValues(t, 0, count)

	w = do(r, "/whoami", cookie)
	assert.Equal(t, "anonymous", w.Body.String())
}
