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
	logLevel := os.Getenv("CUI_LOG_LEVEL")
	if logLevel == "" {
		return Info
	}
	return LogLevel(logLevel)
}

func IsDebug() bool {
	return os.Getenv("CUI_DEBUG") == "true"
}

func GetListenAddr() string {
	addr := os.Getenv("CUI_LISTEN")
	if addr == "" {
		addr = ":8080"
	}
	return addr
}

func GetDBFolderPath() string {
	dbFolderPath := os.Getenv("CUI_DB_FOLDER")
	if dbFolderPath == "" {
		dbFolderPath = "/etc/coupon-ui"
	}
	return dbFolderPath
}

func GetDBPath() string {
	return fmt.Sprintf("%s/%s.db", GetDBFolderPath(), GetName())
}

func GetLogFolder() string {
	logFolderPath := os.Getenv("CUI_LOG_FOLDER")
	if logFolderPath == "" {
		logFolderPath = "/var/log"
	}
	return logFolderPath
}

// GetPanelDomain restricts the panel to one Host header when set.
func GetPanelDomain() string {
	return os.Getenv("CUI_DOMAIN")
}

func GetSessionSecret() string {
	secret := os.Getenv("CUI_SESSION_SECRET")
	if secret == "" {
		secret = "change-me-before-deploy"
	}
	return secret
}

func GetDefaultTenantSlug() string {
	slug := os.Getenv("CUI_DEFAULT_TENANT_SLUG")
	if slug == "" {
		slug = "default"
	}
	return slug
}

func GetDefaultTenantName() string {
	displayName := os.Getenv("CUI_DEFAULT_TENANT_NAME")
	if displayName == "" {
		displayName = "Default"
	}
	return displayName
}

// LoginWindow is the sliding window over which failed login attempts accumulate.
func LoginWindow() time.Duration {
	return minutesEnv("CUI_LOGIN_WINDOW_MINUTES", 10)
}

func LoginMaxAttempts() int {
	return intEnv("CUI_LOGIN_MAX_ATTEMPTS", 5)
}

func LoginLock() time.Duration {
	return minutesEnv("CUI_LOGIN_LOCK_MINUTES", 15)
}

// SubmitWindow is the sliding window for public submissions (signup, coupon claim).
func SubmitWindow() time.Duration {
	return minutesEnv("CUI_SUBMIT_WINDOW_MINUTES", 10)
}

func SubmitMaxPerOrigin() int {
	return intEnv("CUI_SUBMIT_MAX_PER_IP", 20)
}

func SubmitMaxPerIdentity() int {
	return intEnv("CUI_SUBMIT_MAX_PER_EMAIL", 5)
}

func SubmitLock() time.Duration {
	return minutesEnv("CUI_SUBMIT_LOCK_MINUTES", 30)
}

// SubmitDailyCap bounds submissions per identity over a 24h window, independent
// of the short burst window.
func SubmitDailyCap() int {
	return intEnv("CUI_SUBMIT_DAILY_CAP", 50)
}

func intEnv(key string, def int) int {
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

func minutesEnv(key string, def int) time.Duration {
	return time.Duration(intEnv(key, def)) * time.Minute
}
