package api

import (
	"net/http"
	"net/url"
	"strings"

	"bitwise74/member-portal/middleware"
	"bitwise74/member-portal/model"
	"bitwise74/member-portal/validators"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type loginForm struct {
	Email    string `form:"email"`
	Password string `form:"password"`
	Next     string `form:"next"`
}

func (a *API) LoginPage(c *gin.Context) {
	a.render(c, http.StatusOK, "login.tmpl", gin.H{
		"title": "Login",
		"email": "",
		"next":  c.Query("next"),
	})
}

func (a *API) Login(c *gin.Context) {
	requestID := c.MustGet("requestID").(string)

	var data loginForm
	if err := c.ShouldBind(&data); err != nil {
		zap.L().Error("Can't bind login form", zap.Error(err), zap.String("requestID", requestID))

		a.Sessions.Flash(c, model.FlashError, "Something went wrong. Please try again.")
		c.Redirect(http.StatusFound, "/auth/login")
		return
	}

	failLogin := func() {
		// One message for every credential failure so the form doesn't
		// reveal which half was wrong
		a.Sessions.Flash(c, model.FlashError, "Invalid email or password")
		c.Redirect(http.StatusFound, loginPath(data.Next))
	}

	if data.Email == "" || data.Password == "" {
		failLogin()
		return
	}

	var user model.User

	if err := a.DB.Where("email = ?", validators.NormalizeEmail(data.Email)).First(&user).Error; err != nil {
		if err != gorm.ErrRecordNotFound {
			zap.L().Error("Failed to look up user", zap.Error(err), zap.String("requestID", requestID))
		}

		failLogin()
		return
	}

	ok, err := a.Hasher.Compare(data.Password, user.PasswordHash)
	if err != nil {
		zap.L().Error("Failed to verify password", zap.Error(err), zap.String("requestID", requestID))

		failLogin()
		return
	}

	if !ok {
		failLogin()
		return
	}

	if err := a.Sessions.Start(c, user.ID); err != nil {
		zap.L().Error("Failed to start session", zap.Error(err), zap.String("requestID", requestID))

		a.Sessions.Flash(c, model.FlashError, "Something went wrong. Please try again.")
		c.Redirect(http.StatusFound, "/auth/login")
		return
	}

	c.Redirect(http.StatusFound, postLoginTarget(data.Next, user.Role))
}

func loginPath(next string) string {
	if next == "" {
		return "/auth/login"
	}

	return "/auth/login?next=" + url.QueryEscape(next)
}

// postLoginTarget honors the preserved pre-login path but only for
// local targets, anything else would be an open redirect
func postLoginTarget(next, role string) string {
	if strings.HasPrefix(next, "/") && !strings.HasPrefix(next, "//") {
		return next
	}

	return middleware.DashboardPath(role)
}
