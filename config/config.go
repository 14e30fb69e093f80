package config

import "os"

type Config struct {
	ServerPort      string
	DBPath          string
	RuleCatalogPath string
	MaxFileSize     int64
}

func LoadConfig() *Config {
	serverPort := os.Getenv("SERVER_PORT")
	if serverPort == "" {
		serverPort = "8080"
	}

	dbPath := os.Getenv("SCRUTINY_DB_PATH")
	if dbPath == "" {
		dbPath = "scrutiny.db"
	}

	// Empty means the embedded default catalog is used.
	ruleCatalogPath := os.Getenv("RULE_CATALOG_PATH")

	return &Config{
		ServerPort:      serverPort,
		DBPath:          dbPath,
		RuleCatalogPath: ruleCatalogPath,
		MaxFileSize:     10 * 1024 * 1024, // 10 MB
	}
}
