package config

import (
	"errors"
)

var (
	// ErrEmptyAppURL error if the public app url is not configured.
	ErrEmptyAppURL = errors.New("config AppURL (NEXT_PUBLIC_APP_URL) can not be empty")

	// ErrInvalidAppURL error if the public app url is not an absolute url.
	ErrInvalidAppURL = errors.New("config AppURL must be an absolute http(s) url")

	// ErrWebServerPortCanNotBeZero error if config webserver listening port is 0.
	ErrWebServerPortCanNotBeZero = errors.New("config webserver.port listening port can not be 0")

	// ErrEmptyDatabaseURL error if postgres is selected without DATABASE_URL.
	ErrEmptyDatabaseURL = errors.New("config DB.URL (DATABASE_URL) can not be empty for postgres")

	// ErrUnknownDBEngine error if DB.Engine is not supported.
	ErrUnknownDBEngine = errors.New("config DB.Engine must be postgres, mysql or sqlite")

	// ErrIncompleteOAuthClient error if only one half of a provider credential pair is set.
	ErrIncompleteOAuthClient = errors.New("social provider needs both client id and client secret")

	// ErrUnknownMailDriver error if Mail.Driver is not supported.
	ErrUnknownMailDriver = errors.New("config Mail.Driver must be smtp or log")
)
