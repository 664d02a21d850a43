// Package api contains all routes and handlers of the portal
package api

import (
	"fmt"
	"net/http"
	"time"

	"bitwise74/member-portal/db"
	"bitwise74/member-portal/internal/service"
	"bitwise74/member-portal/middleware"
	"bitwise74/member-portal/model"
	"bitwise74/member-portal/pkg/security"
	"bitwise74/member-portal/session"

	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gorm.io/gorm"
)

const (
	gray  = "\x1b[90m"
	reset = "\x1b[0m"
)

type API struct {
	DB       *gorm.DB
	Router   *gin.Engine
	Hasher   *security.Hasher
	Sessions *session.Store
	Tokens   *service.ResetTokens
	Mailer   service.Mailer
}

func NewRouter() (*API, error) {
	makeLogger()

	a := &API{
		Hasher: security.NewHasher(),
		Mailer: service.SMTPMailer{},
	}

	database, err := db.New()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize the database, %w", err)
	}

	a.DB = database
	a.Sessions = session.NewStore(database)
	a.Tokens = service.NewResetTokens(database, a.Hasher)

	router := gin.New()
	a.Router = router

	router.Use(
		gin.CustomRecovery(a.recovered),
		middleware.NewRequestIDMiddleware(),
		ginzap.GinzapWithConfig(zap.L(), &ginzap.Config{
			TimeFormat: "15:04:05.000",
			UTC:        true,
			Context: func(c *gin.Context) []zapcore.Field {
				fields := []zapcore.Field{}

				if v := c.GetString("requestID"); v != "" {
					fields = append(fields, zap.String("request_id", v))
				}

				if u := session.CurrentUser(c); u != nil {
					fields = append(fields, zap.String("userID", u.ID))
				}

				return fields
			},
		}),
		a.Sessions.Middleware(),
	)

	router.HandleMethodNotAllowed = true
	router.RedirectFixedPath = true
	router.LoadHTMLGlob(viper.GetString("app.templates"))
	router.Static("/static", "./web/static")

	router.NoRoute(func(c *gin.Context) {
		c.HTML(http.StatusNotFound, "404.tmpl", gin.H{"title": "Page Not Found"})
	})
	router.NoMethod(func(c *gin.Context) {
		c.HTML(http.StatusNotFound, "404.tmpl", gin.H{"title": "Page Not Found"})
	})

	rl := middleware.NewRateLimiter(1, 5)

	// GET /			-> Welcome page, logged-in users go to their dashboard
	router.GET("/", middleware.ForwardAuthenticated(), a.Welcome)

	// GET /dashboard		-> Redirects to the role-appropriate dashboard
	router.GET("/dashboard", middleware.EnsureAuthenticated(a.Sessions), a.Dashboard)

	auth := router.Group("/auth", middleware.BodySizeLimiter(1<<20))
	{
		// GET|POST /auth/register	-> Account creation
		auth.GET("/register", middleware.ForwardAuthenticated(), a.RegisterPage)
		auth.POST("/register", a.Register)

		// GET|POST /auth/login		-> Credential check and session start
		auth.GET("/login", middleware.ForwardAuthenticated(), a.LoginPage)
		auth.POST("/login", rl.Middleware(), a.Login)

		// GET /auth/logout		-> Session teardown
		auth.GET("/logout", a.Logout)

		// GET|POST /auth/forgot-password	-> Reset link issuance
		auth.GET("/forgot-password", a.ForgotPasswordPage)
		auth.POST("/forgot-password", rl.Middleware(), a.ForgotPassword)

		// GET|POST /auth/reset-password/:token	-> Token redemption
		auth.GET("/reset-password/:token", a.ResetPasswordPage)
		auth.POST("/reset-password/:token", a.ResetPassword)
	}

	user := router.Group("/user", middleware.EnsureAuthenticated(a.Sessions))
	{
		// GET /user/dashboard		-> Member landing page
		user.GET("/dashboard", a.UserDashboard)
	}

	admin := router.Group("/admin", middleware.EnsureRole(a.Sessions, model.RoleAdmin))
	{
		// GET /admin/dashboard		-> Admin landing page
		admin.GET("/dashboard", a.AdminDashboard)

		// GET /admin/users		-> Account listing
		admin.GET("/users", a.AdminUsers)
	}

	return a, nil
}

// recovered is the last line of defense for panics that escape a
// handler. Detail is only shown outside release mode.
func (a *API) recovered(c *gin.Context, err any) {
	requestID := c.GetString("requestID")

	zap.L().Error("Unhandled panic in handler",
		zap.Any("error", err),
		zap.String("request_id", requestID))

	message := "Something went wrong!"
	if gin.Mode() != gin.ReleaseMode {
		message = fmt.Sprintf("%v", err)
	}

	c.HTML(http.StatusInternalServerError, "error.tmpl", gin.H{
		"title":     "Error",
		"message":   message,
		"requestID": requestID,
	})
}

func makeLogger() {
	cfg := zap.NewDevelopmentConfig()
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	cfg.EncoderConfig.EncodeTime = func(t time.Time, pae zapcore.PrimitiveArrayEncoder) {
		pae.AppendString(gray + t.Format("15:04:05.000") + reset)
	}
	cfg.EncoderConfig.EncodeCaller = func(ec zapcore.EntryCaller, pae zapcore.PrimitiveArrayEncoder) {
		pae.AppendString(gray + ec.TrimmedPath() + reset)
	}

	if lvl, err := zapcore.ParseLevel(viper.GetString("app.log_level")); err == nil {
		cfg.Level = zap.NewAtomicLevelAt(lvl)
	}

	cfg.DisableStacktrace = true

	log, _ := cfg.Build()
	zap.ReplaceGlobals(log)
}
