package api

import (
	"net/http"

	"bitwise74/member-portal/model"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func (a *API) Logout(c *gin.Context) {
	requestID := c.MustGet("requestID").(string)

	if err := a.Sessions.Destroy(c); err != nil {
		zap.L().Error("Failed to destroy session", zap.Error(err), zap.String("requestID", requestID))
	}

	a.Sessions.Flash(c, model.FlashSuccess, "You are logged out")
	c.Redirect(http.StatusFound, "/auth/login")
}
