package api

import (
	"net/http"

	"bitwise74/member-portal/middleware"
	"bitwise74/member-portal/session"

	"github.com/gin-gonic/gin"
)

func (a *API) Welcome(c *gin.Context) {
	a.render(c, http.StatusOK, "index.tmpl", gin.H{"title": "Welcome"})
}

// Dashboard sends a logged-in user to the right area. The guard
// guarantees a principal is present.
func (a *API) Dashboard(c *gin.Context) {
	user := session.CurrentUser(c)
	c.Redirect(http.StatusFound, middleware.DashboardPath(user.Role))
}
