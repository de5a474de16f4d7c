// internal/config/config.go
package config

import (
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
)

// Config holds the application configuration.
type Config struct {
	Port      string
	DataDir   string
	StaticDir string
	DebugMode bool

	// Remote generation/processing service
	GenerationAPIURL string
	GenerationAPIKey string

	// Object storage (video bucket)
	StorageAPIURL string
	StorageAPIKey string
	StorageBucket string

	// Persisted-asset database
	AssetDBPath string
}

// Load reads configuration from the environment. A .env file is loaded
// first when present.
func Load() (*Config, error) {
	godotenv.Load()

	config := &Config{
		Port:             getEnv("PORT", "8080"),
		DataDir:          getEnvPath("DATA_DIR", "data"),
		StaticDir:        getEnv("STATIC_DIR", "static"),
		DebugMode:        getEnvBool("DEBUG_MODE", true),
		GenerationAPIURL: getEnv("GENERATION_API_URL", "http://localhost:8000"),
		GenerationAPIKey: getEnv("GENERATION_API_KEY", ""),
		StorageAPIURL:    getEnv("STORAGE_API_URL", ""),
		StorageAPIKey:    getEnv("STORAGE_API_KEY", ""),
		StorageBucket:    getEnv("STORAGE_BUCKET", "videos"),
		AssetDBPath:      getEnv("ASSETDB_PATH", "data/assets.db"),
	}

	if config.GenerationAPIKey == "" {
		// Warn only; the key can be supplied later without blocking startup.
		log.Println("warning: GENERATION_API_KEY is not set, generation calls will be rejected by the service")
	}

	return config, nil
}

// getEnv returns the environment variable or the default when unset.
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// getEnvPath returns a directory path from the environment, creating the
// directory when it does not exist.
func getEnvPath(key, defaultValue string) string {
	path := getEnv(key, defaultValue)

	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := os.MkdirAll(path, 0755); err != nil {
			fmt.Printf("warning: failed to create directory %s: %v\n", path, err)
		}
	}

	return path
}

// getEnvBool returns a boolean environment variable.
func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	return value == "true" || value == "1" || value == "yes"
}
