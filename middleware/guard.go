// Package middleware contains any custom middleware used in the app
package middleware

import (
	"net/http"
	"net/url"

	"bitwise74/member-portal/model"
	"bitwise74/member-portal/session"

	"github.com/gin-gonic/gin"
)

// DashboardPath maps a role to its landing page
func DashboardPath(role string) string {
	if role == model.RoleAdmin {
		return "/admin/dashboard"
	}

	return "/user/dashboard"
}

// EnsureAuthenticated redirects anonymous visitors to the login page,
// keeping the requested path so login can send them back
func EnsureAuthenticated(s *session.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		if session.CurrentUser(c) != nil {
			c.Next()
			return
		}

		s.Flash(c, model.FlashError, "Please log in to view that page")
		c.Redirect(http.StatusFound, "/auth/login?next="+url.QueryEscape(c.Request.URL.Path))
		c.Abort()
	}
}

// ForwardAuthenticated keeps logged-in users away from anonymous-only
// pages like the welcome and login forms
func ForwardAuthenticated() gin.HandlerFunc {
	return func(c *gin.Context) {
		if user := session.CurrentUser(c); user != nil {
			c.Redirect(http.StatusFound, DashboardPath(user.Role))
			c.Abort()
			return
		}

		c.Next()
	}
}

// EnsureRole gates a route group on an exact role. Anonymous visitors
// go to login, authenticated users with the wrong role get a 403 page.
func EnsureRole(s *session.Store, role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := session.CurrentUser(c)
		if user == nil {
			s.Flash(c, model.FlashError, "Please log in to view that page")
			c.Redirect(http.StatusFound, "/auth/login?next="+url.QueryEscape(c.Request.URL.Path))
			c.Abort()
			return
		}

		if user.Role != role {
			c.HTML(http.StatusForbidden, "error.tmpl", gin.H{
				"title":   "Forbidden",
				"message": "You don't have permission to view that page",
			})
			c.Abort()
			return
		}

		c.Next()
	}
}
