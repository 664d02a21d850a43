package api

import (
	"net/http"

	"bitwise74/member-portal/model"
	"bitwise74/member-portal/validators"

	"github.com/gin-gonic/gin"
	gonanoid "github.com/matoous/go-nanoid/v2"
	"go.uber.org/zap"
)

const userIDAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"

type registerForm struct {
	Username        string `form:"username"`
	Email           string `form:"email"`
	Password        string `form:"password"`
	ConfirmPassword string `form:"confirm_password"`
}

func (a *API) RegisterPage(c *gin.Context) {
	a.render(c, http.StatusOK, "register.tmpl", gin.H{
		"title":    "Register",
		"username": "",
		"email":    "",
	})
}

func (a *API) Register(c *gin.Context) {
	requestID := c.MustGet("requestID").(string)

	var data registerForm
	if err := c.ShouldBind(&data); err != nil {
		zap.L().Error("Can't bind register form", zap.Error(err), zap.String("requestID", requestID))

		a.Sessions.Flash(c, model.FlashError, "Something went wrong. Please try again.")
		c.Redirect(http.StatusFound, "/auth/register")
		return
	}

	email := validators.NormalizeEmail(data.Email)

	var fieldErrors []string

	if err := validators.UsernameValidator(data.Username); err != nil {
		fieldErrors = append(fieldErrors, err.Error())
	}

	if err := validators.EmailValidator(email); err != nil {
		fieldErrors = append(fieldErrors, err.Error())
	}

	if err := validators.PasswordPairValidator(data.Password, data.ConfirmPassword); err != nil {
		fieldErrors = append(fieldErrors, err.Error())
	}

	if len(fieldErrors) > 0 {
		// Re-render the form, keeping everything but the password
		a.render(c, http.StatusUnprocessableEntity, "register.tmpl", gin.H{
			"title":    "Register",
			"errors":   fieldErrors,
			"username": data.Username,
			"email":    data.Email,
		})
		return
	}

	var emailTaken bool

	r := a.DB.Model(model.User{}).
		Select("count(*) > 0").
		Where("email = ?", email).
		Find(&emailTaken)
	if r.Error != nil {
		zap.L().Error("Failed to check if email is registered", zap.Error(r.Error), zap.String("requestID", requestID))

		a.Sessions.Flash(c, model.FlashError, "Something went wrong. Please try again.")
		c.Redirect(http.StatusFound, "/auth/register")
		return
	}

	if emailTaken {
		a.render(c, http.StatusOK, "register.tmpl", gin.H{
			"title":    "Register",
			"errors":   []string{"Email already exists"},
			"username": data.Username,
			"email":    data.Email,
		})
		return
	}

	var usernameTaken bool

	r = a.DB.Model(model.User{}).
		Select("count(*) > 0").
		Where("username = ?", data.Username).
		Find(&usernameTaken)
	if r.Error != nil {
		zap.L().Error("Failed to check if username is taken", zap.Error(r.Error), zap.String("requestID", requestID))

		a.Sessions.Flash(c, model.FlashError, "Something went wrong. Please try again.")
		c.Redirect(http.StatusFound, "/auth/register")
		return
	}

	if usernameTaken {
		a.render(c, http.StatusOK, "register.tmpl", gin.H{
			"title":    "Register",
			"errors":   []string{"Username already taken"},
			"username": data.Username,
			"email":    data.Email,
		})
		return
	}

	hash, err := a.Hasher.Hash(data.Password)
	if err != nil {
		zap.L().Error("Failed to hash password", zap.Error(err), zap.String("requestID", requestID))

		a.Sessions.Flash(c, model.FlashError, "Something went wrong. Please try again.")
		c.Redirect(http.StatusFound, "/auth/register")
		return
	}

	userID, err := gonanoid.Generate(userIDAlphabet, 16)
	if err != nil {
		zap.L().Error("Failed to generate user ID", zap.Error(err), zap.String("requestID", requestID))

		a.Sessions.Flash(c, model.FlashError, "Something went wrong. Please try again.")
		c.Redirect(http.StatusFound, "/auth/register")
		return
	}

	if err := a.DB.Create(&model.User{
		ID:           userID,
		Username:     data.Username,
		Email:        email,
		PasswordHash: hash,
		Role:         model.RoleUser,
	}).Error; err != nil {
		zap.L().Error("Failed to create user", zap.Error(err), zap.String("requestID", requestID))

		a.Sessions.Flash(c, model.FlashError, "Something went wrong. Please try again.")
		c.Redirect(http.StatusFound, "/auth/register")
		return
	}

	a.Sessions.Flash(c, model.FlashSuccess, "You are now registered and can log in")
	c.Redirect(http.StatusFound, "/auth/login")
}
