package config

import (
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Label reader backends
const (
	OCRBackendNone        = "none"
	OCRBackendRekognition = "rekognition"
)

// Config holds all configuration for the scanner commands
type Config struct {
	Environment string

	// Auth
	AuthToken string // bearer token for the MCP server over HTTP
	APIToken  string // bearer token for /api/*; empty leaves the API open

	// Model and food database
	ModelDir         string
	FoodDatabasePath string

	// Artifact fetch
	ArtifactBaseURL    string
	DataDir            string
	MetadataPath       string
	LockFile           string
	DisableRemoteCheck bool
	IgnoreLock         bool

	// Label reader
	OCRBackend       string
	AWSRegion        string
	OCRMinConfidence float64

	// Server
	Port               string
	CORSAllowedOrigins []string
}

// FileReader abstracts the filesystem reads needed to load a .env file
type FileReader interface {
	Open(name string) (io.ReadCloser, error)
	Stat(name string) (os.FileInfo, error)
}

type osFileReader struct{}

func (osFileReader) Open(name string) (io.ReadCloser, error) { return os.Open(name) }

func (osFileReader) Stat(name string) (os.FileInfo, error) { return os.Stat(name) }

// Load reads configuration from a .env file in the working directory, if
// present, and from environment variables
func Load() *Config {
	return LoadWithFileReader(osFileReader{})
}

// LoadWithFileReader is Load with an injectable filesystem
func LoadWithFileReader(reader FileReader) *Config {
	loadEnvFileWithReader(reader)

	dataDir := getEnv("DATA_DIR", "./data")

	return &Config{
		Environment:        getEnv("ENV", "production"),
		AuthToken:          getEnv("AUTH_TOKEN", "super-secret-token"),
		APIToken:           os.Getenv("API_TOKEN"),
		ModelDir:           getEnv("MODEL_DIR", filepath.Join(dataDir, "models")),
		FoodDatabasePath:   getEnv("FOOD_DATABASE_PATH", filepath.Join(dataDir, "food_database.csv")),
		ArtifactBaseURL:    os.Getenv("ARTIFACT_BASE_URL"),
		DataDir:            dataDir,
		MetadataPath:       getEnv("METADATA_PATH", filepath.Join(dataDir, "metadata.json")),
		LockFile:           getEnv("LOCK_FILE", filepath.Join(dataDir, "fetch.lock")),
		DisableRemoteCheck: getBool("DISABLE_REMOTE_CHECK"),
		IgnoreLock:         getBool("IGNORE_LOCK"),
		OCRBackend:         strings.ToLower(getEnv("OCR_BACKEND", OCRBackendNone)),
		AWSRegion:          getEnv("AWS_REGION", "us-east-1"),
		OCRMinConfidence:   getFloat("OCR_MIN_CONFIDENCE", 80),
		Port:               getEnv("PORT", "8080"),
		CORSAllowedOrigins: getList("CORS_ALLOWED_ORIGINS", []string{"*"}),
	}
}

// IsDevelopment reports whether detailed errors may be returned to clients
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// loadEnvFileWithReader copies .env entries into the environment. Variables
// that are already set win, so flags and the shell override the file.
func loadEnvFileWithReader(reader FileReader) {
	if _, err := reader.Stat(".env"); err != nil {
		return
	}
	f, err := reader.Open(".env")
	if err != nil {
		return
	}
	defer f.Close()

	values, err := godotenv.Parse(f)
	if err != nil {
		return
	}
	for key, value := range values {
		if _, exists := os.LookupEnv(key); !exists {
			os.Setenv(key, value)
		}
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getBool(key string) bool {
	v, err := strconv.ParseBool(os.Getenv(key))
	return err == nil && v
}

func getFloat(key string, defaultValue float64) float64 {
	if v, err := strconv.ParseFloat(os.Getenv(key), 64); err == nil {
		return v
	}
	return defaultValue
}

func getList(key string, defaultValue []string) []string {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	var out []string
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
