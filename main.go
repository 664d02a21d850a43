package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"bitwise74/member-portal/api"
	"bitwise74/member-portal/config"
	"bitwise74/member-portal/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/csrf"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

func main() {
	err := config.Setup()
	if err != nil {
		panic(err)
	}

	if viper.GetString("app.env") == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	a, err := api.NewRouter()
	if err != nil {
		panic(err)
	}

	if err := service.AdminBootstrap(a.DB, a.Hasher); err != nil {
		panic(err)
	}

	service.Sweep(time.Hour, a.DB)

	protect := csrf.Protect(
		[]byte(viper.GetString("session.secret")),
		csrf.Secure(strings.HasPrefix(viper.GetString("host.base_url"), "https://")),
		csrf.FieldName("csrf_token"),
	)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", viper.GetInt("host.port")),
		Handler: protect(a.Router),
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		zap.L().Info("Server starting", zap.String("addr", srv.Addr))

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zap.L().Fatal("Server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	zap.L().Info("Shutting down, draining connections")

	drainCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(drainCtx); err != nil {
		zap.L().Error("Forced shutdown, drain timeout exceeded", zap.Error(err))
	}

	if sqlDB, err := a.DB.DB(); err == nil {
		sqlDB.Close()
	}

	zap.L().Info("Server stopped")
}
