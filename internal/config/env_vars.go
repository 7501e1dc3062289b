package config

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	portEnvVar      = "PORT"
	appNameVar      = "APP_NAME"
	dbPathVar       = "DATABASE_PATH"
	serverURLVar    = "MODERNNAV_SERVER_URL"
	stateDirVar     = "MODERNNAV_STATE_DIR"
	defaultCodeVar  = "DEFAULT_ACCESS_CODE"
	defaultCodeName = "admin"
)

type EnvVars struct{}

var _ ServerConfig = EnvVars{}
var _ AuthConfig = EnvVars{}
var _ ClientConfig = EnvVars{}

func (EnvVars) GetPort() string {
	port := GetEnv(portEnvVar, "8080")
	if port[0] != ':' {
		port = fmt.Sprintf(":%s", port)
	}
	return port
}

func (EnvVars) GetAppName() string {
	return GetEnv(appNameVar, "ModernNav")
}

func (EnvVars) GetDatabasePath() string {
	return GetEnv(dbPathVar, "./data/modernnav.db")
}

func (EnvVars) GetEnv() string {
	env := os.Getenv("ENV")
	if env == "" {
		return "DEV"
	}
	return env
}

// GetDefaultAccessCode is the code accepted before a custom one has been set.
func (EnvVars) GetDefaultAccessCode() string {
	return GetEnv(defaultCodeVar, defaultCodeName)
}

func (EnvVars) GetServerURL() string {
	return GetEnv(serverURLVar, "http://localhost:8080")
}

func (EnvVars) GetStateDir() string {
	if dir := os.Getenv(stateDirVar); dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".modernnav"
	}
	return filepath.Join(home, ".modernnav")
}

func GetEnv(envVar, defaultValue string) string {
	value := os.Getenv(envVar)
	if value == "" {
		return defaultValue
	}
	return value
}
