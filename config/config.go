// Package config contains code to set the default values and read
// config files to be used throughout the whole application
package config

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"slices"

	"github.com/spf13/pflag"
	v "github.com/spf13/viper"
)

var (
	validLogLevels = []string{"debug", "info", "warn", "error", "fatal"}
	validEnvs      = []string{"release", "debug"}
	validDrivers   = []string{"sqlite", "postgres"}
)

func genSecret() string {
	b := make([]byte, 64)
	rand.Read(b)
	return hex.EncodeToString(b)
}

// Setup prepares everything config-related so that the app can
// start working. Function will return an error if something
// is critically wrong and the application can't run because of
// that.
func Setup() error {
	pflag.Parse()
	v.BindPFlags(pflag.CommandLine)

	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")

	v.AutomaticEnv()

	//
	// ENVS
	//
	v.BindEnv("app.env", "app_env")
	v.BindEnv("app.log_level", "app_log_level")

	v.BindEnv("host.port", "host_port")
	v.BindEnv("host.base_url", "host_base_url")

	v.BindEnv("database.driver", "database_driver")
	v.BindEnv("database.dsn", "database_dsn")

	v.BindEnv("session.secret", "session_secret")
	v.BindEnv("session.max_age", "session_max_age")

	v.BindEnv("mail.host", "mail_host")
	v.BindEnv("mail.port", "mail_port")
	v.BindEnv("mail.sender", "mail_sender")
	v.BindEnv("mail.password", "mail_password")

	v.BindEnv("admin.email", "first_admin_email")
	v.BindEnv("admin.username", "first_admin_username")
	v.BindEnv("admin.password", "first_admin_password")

	//
	// Defaults
	//
	v.SetDefault("app.env", "release")
	v.SetDefault("app.log_level", "info")

	v.SetDefault("host.port", 3000)

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "database.db")

	v.SetDefault("session.max_age", 60*60*24)

	v.SetDefault("app.templates", "web/templates/*.tmpl")

	if err := v.ReadInConfig(); err != nil {
		// Config can come entirely from the environment, only a broken
		// file is fatal
		if _, ok := err.(v.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("failed to read config file, %w", err)
		}
	}

	if !slices.Contains(validEnvs, v.GetString("app.env")) {
		return errors.New("invalid app environment provided, must be release or debug")
	}

	if !slices.Contains(validLogLevels, v.GetString("app.log_level")) {
		return errors.New("invalid log level provided")
	}

	if v.GetInt("host.port") <= 0 {
		return errors.New("invalid port provided")
	}

	if !slices.Contains(validDrivers, v.GetString("database.driver")) {
		return errors.New("invalid database driver provided")
	}

	if v.GetString("database.dsn") == "" {
		return errors.New("no database dsn provided")
	}

	if v.GetInt("session.max_age") <= 0 {
		return errors.New("session.max_age must be bigger than 0")
	}

	if v.GetString("session.secret") == "" {
		fmt.Println("WARNING: You haven't set a session secret, so one has been generated for you. Please set it as an environment variable or in the config.toml file.\nYour random session secret:\n\n" + genSecret() + "\n\nPaste it into your config.toml file.")
		os.Exit(0)
	}

	if v.GetString("host.base_url") == "" {
		v.Set("host.base_url", fmt.Sprintf("http://localhost:%d", v.GetInt("host.port")))
	}

	if v.GetString("mail.host") == "" || v.GetString("mail.sender") == "" {
		fmt.Println("[WARNING]: Mail settings are incomplete. Password reset emails will fail to send")
	}

	return nil
}
