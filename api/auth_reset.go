package api

import (
	"net/http"

	"bitwise74/member-portal/internal/service"
	"bitwise74/member-portal/model"
	"bitwise74/member-portal/validators"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type resetForm struct {
	Password        string `form:"password"`
	ConfirmPassword string `form:"confirm_password"`
}

func (a *API) ResetPasswordPage(c *gin.Context) {
	token := c.Param("token")

	if _, err := a.Tokens.Validate(token); err != nil {
		switch err {
		case service.ErrTokenNotFound, service.ErrTokenExpired:
			a.Sessions.Flash(c, model.FlashError, "Password reset token is invalid or has expired.")
		default:
			zap.L().Error("Failed to validate reset token", zap.Error(err))
			a.Sessions.Flash(c, model.FlashError, "Something went wrong.")
		}

		c.Redirect(http.StatusFound, "/auth/forgot-password")
		return
	}

	a.render(c, http.StatusOK, "reset_password.tmpl", gin.H{
		"title": "Reset Password",
		"token": token,
	})
}

func (a *API) ResetPassword(c *gin.Context) {
	requestID := c.MustGet("requestID").(string)
	token := c.Param("token")

	var data resetForm
	if err := c.ShouldBind(&data); err != nil {
		zap.L().Error("Can't bind reset form", zap.Error(err), zap.String("requestID", requestID))

		a.Sessions.Flash(c, model.FlashError, "Something went wrong. Please try again.")
		c.Redirect(http.StatusFound, "/auth/reset-password/"+token)
		return
	}

	if err := validators.PasswordPairValidator(data.Password, data.ConfirmPassword); err != nil {
		a.render(c, http.StatusUnprocessableEntity, "reset_password.tmpl", gin.H{
			"title":  "Reset Password",
			"token":  token,
			"errors": []string{err.Error()},
		})
		return
	}

	if err := a.Tokens.Consume(token, data.Password); err != nil {
		switch err {
		case service.ErrTokenNotFound, service.ErrTokenExpired:
			a.Sessions.Flash(c, model.FlashError, "Password reset token is invalid or has expired.")
			c.Redirect(http.StatusFound, "/auth/forgot-password")
		case service.ErrUserNotFound:
			a.Sessions.Flash(c, model.FlashError, "User not found.")
			c.Redirect(http.StatusFound, "/auth/forgot-password")
		default:
			zap.L().Error("Failed to consume reset token", zap.Error(err), zap.String("requestID", requestID))

			a.Sessions.Flash(c, model.FlashError, "Something went wrong. Please try again.")
			c.Redirect(http.StatusFound, "/auth/reset-password/"+token)
		}
		return
	}

	a.Sessions.Flash(c, model.FlashSuccess, "Password has been reset successfully. You can now log in.")
	c.Redirect(http.StatusFound, "/auth/login")
}
