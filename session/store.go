// Package session implements cookie-bound, database-backed sessions and
// the one-shot flash notices they carry.
package session

import (
	"strings"
	"time"

	"bitwise74/member-portal/model"
	"bitwise74/member-portal/util"

	"github.com/gin-gonic/gin"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	CookieName = "portal_session"

	ctxSessionID = "sessionID"
	ctxUser      = "currentUser"

	// Anonymous sessions only exist to carry flashes across a redirect,
	// no reason to keep them around for long
	anonTTL = 30 * time.Minute
)

type Store struct {
	DB *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{DB: db}
}

func maxAge() time.Duration {
	if v := viper.GetInt("session.max_age"); v > 0 {
		return time.Duration(v) * time.Second
	}

	return 24 * time.Hour
}

func secureCookies() bool {
	return strings.HasPrefix(viper.GetString("host.base_url"), "https://")
}

// Middleware restores the principal bound to the session cookie, if any.
// It never blocks a request. Guards decide access, this only resolves
// who is asking.
func (s *Store) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		sid, err := c.Cookie(CookieName)
		if err != nil || sid == "" {
			c.Next()
			return
		}

		var sess model.Session

		if err := s.DB.Where("id = ?", sid).First(&sess).Error; err != nil {
			if err != gorm.ErrRecordNotFound {
				zap.L().Error("Failed to load session", zap.Error(err))
			}

			c.SetCookie(CookieName, "", -1, "/", "", secureCookies(), true)
			c.Next()
			return
		}

		if sess.ExpiresAt.Before(time.Now()) {
			if err := s.DB.Delete(&model.Session{}, "id = ?", sid).Error; err != nil {
				zap.L().Error("Failed to delete expired session", zap.Error(err))
			}

			c.SetCookie(CookieName, "", -1, "/", "", secureCookies(), true)
			c.Next()
			return
		}

		c.Set(ctxSessionID, sess.ID)

		if sess.UserID == "" {
			c.Next()
			return
		}

		var user model.User

		if err := s.DB.Where("id = ?", sess.UserID).First(&user).Error; err != nil {
			// Session points at a user that no longer resolves, treat
			// the visitor as anonymous
			if err != gorm.ErrRecordNotFound {
				zap.L().Error("Failed to resolve session user", zap.Error(err))
			}

			c.Next()
			return
		}

		c.Set(ctxUser, &user)
		c.Next()
	}
}

// Start logs userID in on this connection. Any session the browser
// already held is discarded and a fresh id issued, so a pre-login
// cookie can never be promoted to an authenticated one.
func (s *Store) Start(c *gin.Context, userID string) error {
	if old, ok := c.Get(ctxSessionID); ok {
		if err := s.DB.Delete(&model.Session{}, "id = ?", old.(string)).Error; err != nil {
			zap.L().Error("Failed to discard pre-login session", zap.Error(err))
		}
	}

	id, err := util.GenerateToken(32)
	if err != nil {
		return err
	}

	ttl := maxAge()

	sess := model.Session{
		ID:        id,
		UserID:    userID,
		ExpiresAt: time.Now().Add(ttl),
	}

	if err := s.DB.Create(&sess).Error; err != nil {
		return err
	}

	c.Set(ctxSessionID, id)
	c.Set(ctxUser, nil)
	c.SetCookie(CookieName, id, int(ttl.Seconds()), "/", "", secureCookies(), true)

	return nil
}

// Destroy ends the current session and clears the cookie
func (s *Store) Destroy(c *gin.Context) error {
	sid, ok := c.Get(ctxSessionID)
	if ok {
		if err := s.DB.Delete(&model.Session{}, "id = ?", sid.(string)).Error; err != nil {
			return err
		}
	}

	c.Set(ctxSessionID, nil)
	c.Set(ctxUser, nil)
	c.SetCookie(CookieName, "", -1, "/", "", secureCookies(), true)

	return nil
}

// Flash queues a notice for the next rendered page. Anonymous visitors
// get a short-lived session row so the notice survives the redirect.
func (s *Store) Flash(c *gin.Context, kind, message string) {
	sid := s.currentID(c)
	if sid == "" {
		id, err := util.GenerateToken(32)
		if err != nil {
			zap.L().Error("Failed to generate session id for flash", zap.Error(err))
			return
		}

		sess := model.Session{
			ID:        id,
			ExpiresAt: time.Now().Add(anonTTL),
			Flashes:   model.FlashList{{Kind: kind, Message: message}},
		}

		if err := s.DB.Create(&sess).Error; err != nil {
			zap.L().Error("Failed to create flash session", zap.Error(err))
			return
		}

		c.Set(ctxSessionID, id)
		c.SetCookie(CookieName, id, int(anonTTL.Seconds()), "/", "", secureCookies(), true)
		return
	}

	var sess model.Session

	if err := s.DB.Where("id = ?", sid).First(&sess).Error; err != nil {
		zap.L().Error("Failed to load session for flash", zap.Error(err))
		return
	}

	sess.Flashes = append(sess.Flashes, model.Flash{Kind: kind, Message: message})

	if err := s.DB.Model(&model.Session{}).Where("id = ?", sid).Update("flashes", sess.Flashes).Error; err != nil {
		zap.L().Error("Failed to store flash", zap.Error(err))
	}
}

// PopFlashes drains the queued notices. They render once and are gone.
func (s *Store) PopFlashes(c *gin.Context) model.FlashList {
	sid := s.currentID(c)
	if sid == "" {
		return nil
	}

	var sess model.Session

	if err := s.DB.Where("id = ?", sid).First(&sess).Error; err != nil {
		return nil
	}

	if len(sess.Flashes) == 0 {
		return nil
	}

	if err := s.DB.Model(&model.Session{}).Where("id = ?", sid).Update("flashes", model.FlashList{}).Error; err != nil {
		zap.L().Error("Failed to clear flashes", zap.Error(err))
	}

	return sess.Flashes
}

func (s *Store) currentID(c *gin.Context) string {
	v, ok := c.Get(ctxSessionID)
	if !ok || v == nil {
		return ""
	}

	sid, _ := v.(string)
	return sid
}

// CurrentUser returns the principal restored by the middleware, or nil
// for anonymous visitors
func CurrentUser(c *gin.Context) *model.User {
	v, ok := c.Get(ctxUser)
	if !ok || v == nil {
		return nil
	}

	u, _ := v.(*model.User)
	return u
}
