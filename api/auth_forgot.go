package api

import (
	"net/http"

	"bitwise74/member-portal/model"
	"bitwise74/member-portal/validators"

	"github.com/gin-gonic/gin"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type forgotForm struct {
	Email string `form:"email"`
}

func (a *API) ForgotPasswordPage(c *gin.Context) {
	a.render(c, http.StatusOK, "forgot_password.tmpl", gin.H{
		"title": "Forgot Password",
		"email": "",
	})
}

func (a *API) ForgotPassword(c *gin.Context) {
	requestID := c.MustGet("requestID").(string)

	var data forgotForm
	if err := c.ShouldBind(&data); err != nil {
		zap.L().Error("Can't bind forgot-password form", zap.Error(err), zap.String("requestID", requestID))

		a.Sessions.Flash(c, model.FlashError, "Something went wrong. Please try again.")
		c.Redirect(http.StatusFound, "/auth/forgot-password")
		return
	}

	email := validators.NormalizeEmail(data.Email)

	if err := validators.EmailValidator(email); err != nil {
		a.render(c, http.StatusUnprocessableEntity, "forgot_password.tmpl", gin.H{
			"title":  "Forgot Password",
			"errors": []string{err.Error()},
			"email":  data.Email,
		})
		return
	}

	var user model.User

	if err := a.DB.Where("email = ?", email).First(&user).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			a.Sessions.Flash(c, model.FlashError, "No user found with that email address.")
			c.Redirect(http.StatusFound, "/auth/forgot-password")
			return
		}

		zap.L().Error("Failed to look up user", zap.Error(err), zap.String("requestID", requestID))

		a.Sessions.Flash(c, model.FlashError, "Something went wrong. Please try again.")
		c.Redirect(http.StatusFound, "/auth/forgot-password")
		return
	}

	token, err := a.Tokens.Issue(user.ID)
	if err != nil {
		zap.L().Error("Failed to issue reset token", zap.Error(err), zap.String("requestID", requestID))

		a.Sessions.Flash(c, model.FlashError, "Something went wrong. Please try again.")
		c.Redirect(http.StatusFound, "/auth/forgot-password")
		return
	}

	link := viper.GetString("host.base_url") + "/auth/reset-password/" + token

	if err := a.Mailer.SendResetMail(user.Email, link); err != nil {
		zap.L().Error("Failed to send reset mail", zap.Error(err), zap.String("requestID", requestID))

		a.Sessions.Flash(c, model.FlashError, "Could not send password reset email. Please try again later.")
		c.Redirect(http.StatusFound, "/auth/forgot-password")
		return
	}

	a.Sessions.Flash(c, model.FlashSuccess, "Password reset link sent to your email. Please check your inbox (and spam folder).")
	c.Redirect(http.StatusFound, "/auth/forgot-password")
}
