package api

import (
	"net/http"

	"bitwise74/member-portal/model"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func (a *API) AdminDashboard(c *gin.Context) {
	requestID := c.MustGet("requestID").(string)

	var userCount int64

	if err := a.DB.Model(model.User{}).Count(&userCount).Error; err != nil {
		zap.L().Error("Failed to count users", zap.Error(err), zap.String("requestID", requestID))
	}

	a.render(c, http.StatusOK, "dashboard_admin.tmpl", gin.H{
		"title":     "Admin Dashboard",
		"userCount": userCount,
	})
}

// AdminUsers lists the most recently registered accounts
func (a *API) AdminUsers(c *gin.Context) {
	requestID := c.MustGet("requestID").(string)

	var users []model.User

	err := a.DB.
		Order("created_at desc").
		Limit(50).
		Find(&users).
		Error
	if err != nil {
		zap.L().Error("Failed to fetch users", zap.Error(err), zap.String("requestID", requestID))

		a.render(c, http.StatusInternalServerError, "error.tmpl", gin.H{
			"title":   "Error",
			"message": "Something went wrong!",
		})
		return
	}

	a.render(c, http.StatusOK, "admin_users.tmpl", gin.H{
		"title": "Users",
		"users": users,
	})
}
