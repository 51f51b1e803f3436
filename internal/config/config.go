package config

import (
	_ "embed"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	Gallery    GalleryConfig    `yaml:"gallery"`
	Clustering ClusteringConfig `yaml:"clustering"`
	Storage    StorageConfig
	Auth       AuthConfig
	Log        LogConfig
}

type ServerConfig struct {
	Host           string
	Port           int
	AllowedOrigins []string
}

type DatabaseConfig struct {
	URL          string // PostgreSQL connection URL
	MaxOpenConns int    // Maximum open connections (default 25)
	MaxIdleConns int    // Maximum idle connections (default 5)
}

// GalleryConfig controls pagination of the public photo listing.
type GalleryConfig struct {
	DefaultLimit int `yaml:"default_limit"`
	MaxLimit     int `yaml:"max_limit"`
}

type ClusteringConfig struct {
	NearDuplicate NearDuplicateConfig `yaml:"near_duplicate"`
	Scene         SceneConfig         `yaml:"scene"`
}

type NearDuplicateConfig struct {
	HashThreshold int `yaml:"hash_threshold"` // max Hamming distance of pHash or dHash
}

type SceneConfig struct {
	SimilarityThreshold float64 `yaml:"similarity_threshold"` // min cosine similarity for the same scene
	MaxNeighbors        int     `yaml:"max_neighbors"`        // HNSW candidates per photo
}

// StorageConfig describes the S3-compatible bucket holding photo media.
type StorageConfig struct {
	Bucket    string
	Region    string
	Endpoint  string // custom endpoint for non-AWS providers (empty = AWS)
	AccessKey string
	SecretKey string
	PublicURL string // prefix of stored photo URLs, stripped to get object keys
}

type AuthConfig struct {
	AdminJWTSecret string
}

type LogConfig struct {
	Level  string
	Format string // console or json
}

// envInt reads an environment variable and parses it as a positive integer.
// Returns the default value if the env var is unset, empty, or invalid.
func envInt(key string, defaultVal int) int {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return n
	}
	return defaultVal
}

func envString(key, defaultVal string) string {
	if s := os.Getenv(key); s != "" {
		return s
	}
	return defaultVal
}

// envList splits a comma-separated environment variable, dropping empty entries.
func envList(key string) []string {
	var out []string
	for item := range strings.SplitSeq(os.Getenv(key), ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func Load() *Config {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		// This is an embedded file so this error should never happen in practice
		panic("failed to unmarshal embedded defaults.yaml: " + err.Error())
	}

	cfg.Server = ServerConfig{
		Host:           envString("WEB_HOST", "0.0.0.0"),
		Port:           envInt("WEB_PORT", 8080),
		AllowedOrigins: envList("WEB_ALLOWED_ORIGINS"),
	}
	cfg.Database = DatabaseConfig{
		URL:          os.Getenv("DATABASE_URL"),
		MaxOpenConns: envInt("DATABASE_MAX_OPEN_CONNS", 25),
		MaxIdleConns: envInt("DATABASE_MAX_IDLE_CONNS", 5),
	}
	cfg.Gallery.DefaultLimit = envInt("GALLERY_DEFAULT_LIMIT", cfg.Gallery.DefaultLimit)
	cfg.Gallery.MaxLimit = envInt("GALLERY_MAX_LIMIT", cfg.Gallery.MaxLimit)
	if cfg.Gallery.MaxLimit < cfg.Gallery.DefaultLimit {
		cfg.Gallery.MaxLimit = cfg.Gallery.DefaultLimit
	}
	cfg.Storage = StorageConfig{
		Bucket:    os.Getenv("S3_BUCKET"),
		Region:    envString("S3_REGION", "us-east-1"),
		Endpoint:  os.Getenv("S3_ENDPOINT"),
		AccessKey: os.Getenv("S3_ACCESS_KEY"),
		SecretKey: os.Getenv("S3_SECRET_KEY"),
		PublicURL: os.Getenv("S3_PUBLIC_URL"),
	}
	cfg.Auth = AuthConfig{
		AdminJWTSecret: os.Getenv("ADMIN_JWT_SECRET"),
	}
	cfg.Log = LogConfig{
		Level:  envString("LOG_LEVEL", "info"),
		Format: envString("LOG_FORMAT", "console"),
	}
	return cfg
}

// ObjectKey converts a stored photo URL into a bucket object key.
// URLs outside PublicURL are returned with only the leading slash trimmed.
func (c *StorageConfig) ObjectKey(url string) string {
	if c.PublicURL != "" {
		prefix := strings.TrimSuffix(c.PublicURL, "/") + "/"
		if key, ok := strings.CutPrefix(url, prefix); ok {
			return key
		}
	}
	return strings.TrimPrefix(url, "/")
}
