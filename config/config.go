// Package config exposes process configuration for the tripgate services.
// Everything is read from the environment once at wiring time; components
// receive the values they need at construction and never reach back here.
package config

import (
	_ "embed"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

//go:embed version
var version string

//go:embed name
var name string

type LogLevel string

const (
	Debug  LogLevel = "debug"
	Info   LogLevel = "info"
	Notice LogLevel = "notice"
	Warn   LogLevel = "warn"
	Error  LogLevel = "error"
)

func GetVersion() string {
	return strings.TrimSpace(version)
}

func GetName() string {
	return strings.TrimSpace(name)
}

func GetLogLevel() LogLevel {
	if IsDebug() {
		return Debug
	}
	logLevel := os.Getenv("TG_LOG_LEVEL")
	if logLevel == "" {
		return Info
	}
	return LogLevel(logLevel)
}

func IsDebug() bool {
	return os.Getenv("TG_DEBUG") == "true"
}

// GetJWTSecret returns the symmetric signing secret shared by every token
// verification point. Empty means the operator has not configured the
// process; callers must treat that as a startup error.
func GetJWTSecret() string {
	return os.Getenv("TG_JWT_SECRET")
}

// GetAdminSecret returns the provisioning secret required to register an
// Admin account.
func GetAdminSecret() string {
	return os.Getenv("TG_ADMIN_SECRET")
}

func GetDBFolderPath() string {
	dbFolderPath := os.Getenv("TG_DB_FOLDER")
	if dbFolderPath == "" {
		dbFolderPath = "/etc/tripgate"
	}
	return dbFolderPath
}

func GetDBPath() string {
	return fmt.Sprintf("%s/%s.db", GetDBFolderPath(), GetName())
}

func GetLogFolder() string {
	logFolderPath := os.Getenv("TG_LOG_FOLDER")
	if logFolderPath == "" {
		logFolderPath = "/var/log"
	}
	return logFolderPath
}

func GetIdentityAddr() string {
	return getenv("TG_IDENTITY_ADDR", ":5001")
}

func GetDestinationAddr() string {
	return getenv("TG_DESTINATION_ADDR", ":5002")
}

func GetGatewayAddr() string {
	return getenv("TG_GATEWAY_ADDR", ":5003")
}

// GetIdentityURL is the base URL the gateway uses to reach the identity
// service.
func GetIdentityURL() string {
	return getenv("TG_IDENTITY_URL", "http://localhost:5001")
}

// GetDestinationURL is the base URL the gateway uses to reach the
// destination service.
func GetDestinationURL() string {
	return getenv("TG_DESTINATION_URL", "http://localhost:5002")
}

// GetTokenTTL returns the access token lifetime. Defaults to one hour.
func GetTokenTTL() time.Duration {
	return time.Duration(getint("TG_TOKEN_TTL_MINUTES", 60)) * time.Minute
}

// GetUpstreamTimeout bounds every gateway call to a backend service.
func GetUpstreamTimeout() time.Duration {
	return time.Duration(getint("TG_UPSTREAM_TIMEOUT_SECONDS", 10)) * time.Second
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getint(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return def
	}
	return n
}
