// Package config handles input from etc/main.toml and the environment.
package config

import (
	"bytes"
	"encoding/json"
	"net/url"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

const (
	// JSONOverrideEnv holds an optional JSON document merged over the file config.
	JSONOverrideEnv = "TENANTGATE_CONFIG_JSON"

	defaultShutDownTime     = 5
	defaultSessionExpiry    = 7 * 24 * time.Hour
	defaultInvitationExpiry = 48 * time.Hour
	defaultMembershipLimit  = 100
	defaultRateLimit        = 100
	defaultRateWindow       = 10
)

// envBindings maps config keys to the environment variables overriding them.
var envBindings = map[string]string{ //nolint:gochecknoglobals
	"DB.URL":                   "DATABASE_URL",
	"AppURL":                   "NEXT_PUBLIC_APP_URL",
	"FrontendURL":              "NEXT_PUBLIC_FRONTEND_URL",
	"Auth.Google.ClientID":     "GOOGLE_CLIENT_ID",
	"Auth.Google.ClientSecret": "GOOGLE_CLIENT_SECRET",
	"Auth.GitHub.ClientID":     "GITHUB_CLIENT_ID",
	"Auth.GitHub.ClientSecret": "GITHUB_CLIENT_SECRET",
	"Mail.From":                "MAIL_FROM",
	"Mail.SMTP.Host":           "SMTP_HOST",
	"Mail.SMTP.Port":           "SMTP_PORT",
	"Mail.SMTP.Username":       "SMTP_USERNAME",
	"Mail.SMTP.Password":       "SMTP_PASSWORD",
}

// ReadConfig from config file.
func ReadConfig(path string) (Config, error) {
	var (
		c   Config
		err error
	)

	if path == "" {
		path = "./etc/"
	}

	v := viper.New()
	v.SetConfigFile(path + "main.toml")
	v.SetConfigType("toml")

	for key, env := range envBindings {
		if err = v.BindEnv(key, env); err != nil {
			return Config{}, errors.Wrap(err, "failed to bind env "+env)
		}
	}

	if err = v.ReadInConfig(); err != nil {
		return Config{}, errors.Wrap(err, "failed to read main config file")
	}

	if err = v.Unmarshal(&c); err != nil {
		return Config{}, errors.Wrap(err, "failed to decode main config file")
	}

	// override it from env
	if configAsJSON := os.Getenv(JSONOverrideEnv); configAsJSON != "" {
		c, err = decodeAndMergeConfig(c, configAsJSON)
		if err != nil {
			return c, err
		}
	}

	setDefaults(&c)

	return c, validate(&c)
}

func decodeAndMergeConfig(c Config, configAsJSON string) (Config, error) {
	err := json.Unmarshal([]byte(configAsJSON), &c)
	if err != nil {
		return Config{}, errors.Wrap(err, "failed to read json config override")
	}

	return c, nil
}

// DumpConfig config as TOML String.
func DumpConfig(c *Config) (string, error) {
	var buffer bytes.Buffer

	if err := toml.NewEncoder(&buffer).Encode(c); err != nil {
		return "", err //nolint: wrapcheck
	}

	return buffer.String(), nil
}

// DumpConfigJSON config as JSON String.
func DumpConfigJSON(c *Config) (string, error) {
	var buffer bytes.Buffer
	j := json.NewEncoder(&buffer)
	j.SetIndent("", "  ")

	if err := j.Encode(c); err != nil {
		return "", err //nolint: wrapcheck
	}

	return buffer.String(), nil
}

func setDefaults(c *Config) {
	if c.Title == "" {
		c.Title = "TenantGate"
	}

	if c.DB.Engine == "" {
		c.DB.Engine = "postgres"
	}

	if c.Mail.Driver == "" {
		c.Mail.Driver = "log"
	}

	if c.Mail.Language == "" {
		c.Mail.Language = "en"
	}

	if c.Webserver.ShutDownTime == 0 {
		c.Webserver.ShutDownTime = defaultShutDownTime
	}

	if c.Webserver.Session.ExpiryTime == 0 {
		c.Webserver.Session.ExpiryTime = defaultSessionExpiry
	}

	if c.Webserver.RateLimit == 0 {
		c.Webserver.RateLimit = defaultRateLimit
	}

	if c.Webserver.RateWindow == 0 {
		c.Webserver.RateWindow = defaultRateWindow
	}

	if c.Organization.InvitationExpiry == 0 {
		c.Organization.InvitationExpiry = defaultInvitationExpiry
	}

	if c.Organization.MembershipLimit == 0 {
		c.Organization.MembershipLimit = defaultMembershipLimit
	}
}

// validate the settings the service can not start without.
func validate(c *Config) error {
	invalidErrMessage := "invalid config"

	if c.Webserver.Port == 0 {
		return errors.Wrap(ErrWebServerPortCanNotBeZero, invalidErrMessage)
	}

	if c.AppURL == "" {
		return errors.Wrap(ErrEmptyAppURL, invalidErrMessage)
	}

	if u, err := url.Parse(c.AppURL); err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return errors.Wrap(ErrInvalidAppURL, invalidErrMessage)
	}

	switch c.DB.Engine {
	case "postgres":
		if c.DB.URL == "" {
			return errors.Wrap(ErrEmptyDatabaseURL, invalidErrMessage)
		}
	case "mysql", "sqlite":
	default:
		return errors.Wrap(ErrUnknownDBEngine, invalidErrMessage)
	}

	for name, client := range map[string]OAuthClient{"google": c.Auth.Google, "github": c.Auth.GitHub} {
		if (client.ClientID == "") != (client.ClientSecret == "") {
			return errors.Wrap(ErrIncompleteOAuthClient, invalidErrMessage+": "+name)
		}
	}

	if c.Mail.Driver != "smtp" && c.Mail.Driver != "log" {
		return errors.Wrap(ErrUnknownMailDriver, invalidErrMessage)
	}

	return nil
}
