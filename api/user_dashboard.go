package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (a *API) UserDashboard(c *gin.Context) {
	a.render(c, http.StatusOK, "dashboard_user.tmpl", gin.H{"title": "Dashboard"})
}
