package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// EnvPrefix prefixes every environment override, e.g. SOUK_DATABASE_URL.
const EnvPrefix = "SOUK"

type Config struct {
	Server struct {
		Address         string        `yaml:"address" envconfig:"ADDRESS"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT"`
	} `yaml:"server" envconfig:"SERVER"`
	Database struct {
		Driver string `yaml:"driver" envconfig:"DRIVER"`
		URL    string `yaml:"url" envconfig:"URL"`
	} `yaml:"database" envconfig:"DATABASE"`
	Redis struct {
		Addr        string        `yaml:"addr" envconfig:"ADDR"`
		Password    string        `yaml:"password" envconfig:"PASSWORD"`
		DB          int           `yaml:"db" envconfig:"DB"`
		SnapshotTTL time.Duration `yaml:"snapshot_ttl" envconfig:"SNAPSHOT_TTL"`
	} `yaml:"redis" envconfig:"REDIS"`
	Storage struct {
		// Driver is "local" or "s3".
		Driver        string `yaml:"driver" envconfig:"DRIVER"`
		LocalDir      string `yaml:"local_dir" envconfig:"LOCAL_DIR"`
		PublicBaseURL string `yaml:"public_base_url" envconfig:"PUBLIC_BASE_URL"`
		Endpoint      string `yaml:"endpoint" envconfig:"ENDPOINT"`
		Region        string `yaml:"region" envconfig:"REGION"`
		AccessKey     string `yaml:"access_key" envconfig:"ACCESS_KEY"`
		SecretKey     string `yaml:"secret_key" envconfig:"SECRET_KEY"`
		UploadWorkers int    `yaml:"upload_workers" envconfig:"UPLOAD_WORKERS"`
	} `yaml:"storage" envconfig:"STORAGE"`
	Auth struct {
		SigningKey string        `yaml:"signing_key" envconfig:"SIGNING_KEY"`
		AccessTTL  time.Duration `yaml:"access_ttl" envconfig:"ACCESS_TTL"`
		RefreshTTL time.Duration `yaml:"refresh_ttl" envconfig:"REFRESH_TTL"`
	} `yaml:"auth" envconfig:"AUTH"`
	Firebase struct {
		CredentialsFile string `yaml:"credentials_file" envconfig:"CREDENTIALS_FILE"`
	} `yaml:"firebase" envconfig:"FIREBASE"`
	CORS struct {
		AllowedOrigins []string `yaml:"allowed_origins" envconfig:"ALLOWED_ORIGINS"`
	} `yaml:"cors" envconfig:"CORS"`
}

// Default returns a configuration that runs locally on SQLite with files
// served from ./uploads.
func Default() Config {
	var cfg Config
	cfg.Server.Address = ":4000"
	cfg.Server.ShutdownTimeout = 10 * time.Second
	cfg.Database.Driver = "sqlite"
	cfg.Database.URL = "file:souk.db?_pragma=busy_timeout(5000)"
	cfg.Redis.SnapshotTTL = 24 * time.Hour
	cfg.Storage.Driver = "local"
	cfg.Storage.LocalDir = "uploads"
	cfg.Storage.PublicBaseURL = "http://localhost:4000/uploads"
	cfg.Storage.UploadWorkers = 4
	cfg.Auth.AccessTTL = 15 * time.Minute
	cfg.Auth.RefreshTTL = 60 * 24 * time.Hour
	cfg.CORS.AllowedOrigins = []string{"*"}
	return cfg
}

// Load reads .env (if present), then the YAML file at path (if non-empty),
// then SOUK_* environment overrides. PORT, when set, replaces the listen
// address.
func Load(path string) (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return Config{}, fmt.Errorf("environment overrides: %w", err)
	}
	if port := os.Getenv("PORT"); port != "" {
		cfg.Server.Address = ":" + port
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	var problems []string
	switch c.Database.Driver {
	case "mysql", "pgx", "postgres", "sqlite":
	default:
		problems = append(problems, fmt.Sprintf("database.driver %q is not supported", c.Database.Driver))
	}
	if c.Database.URL == "" {
		problems = append(problems, "database.url is required")
	}
	switch c.Storage.Driver {
	case "local":
		if c.Storage.LocalDir == "" {
			problems = append(problems, "storage.local_dir is required for local storage")
		}
	case "s3":
		if c.Storage.Endpoint == "" || c.Storage.Region == "" {
			problems = append(problems, "storage.endpoint and storage.region are required for s3")
		}
	default:
		problems = append(problems, fmt.Sprintf("storage.driver %q is not supported", c.Storage.Driver))
	}
	if c.Auth.SigningKey == "" {
		problems = append(problems, "auth.signing_key is required")
	}
	if c.Auth.AccessTTL <= 0 || c.Auth.RefreshTTL <= 0 {
		problems = append(problems, "auth token ttls must be positive")
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid config: %s", strings.Join(problems, "; "))
	}
	return nil
}
