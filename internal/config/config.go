package config

type Config interface {
	ServerConfig
	AuthConfig
	ClientConfig
}

type ServerConfig interface {
	GetPort() string
	GetAppName() string
	GetDatabasePath() string
	GetEnv() string
}

type AuthConfig interface {
	GetDefaultAccessCode() string
}

type ClientConfig interface {
	GetServerURL() string
	GetStateDir() string
}

type mainConfig struct {
	EnvVars
}

func New() Config {
	return mainConfig{}
}
