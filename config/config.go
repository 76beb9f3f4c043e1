package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"

	BackendGorm     = "gorm"
	BackendSupabase = "supabase"
	BackendLocal    = "local"
	BackendDisk     = "disk"

	RealtimeLocal  = "local"
	RealtimeListen = "listen"

	defaultJWTSecret = "your-super-secret-key-change-in-production"
)

type Config struct {
	DatabaseDriver string
	DatabaseURL    string

	StoreBackend    string
	AuthBackend     string
	BlobBackend     string
	BlobDir         string
	DocumentsBucket string
	RealtimeSource  string

	SupabaseURL string
	SupabaseKey string

	JWTSecret     string
	JWTExpiration time.Duration
	ServerPort    string
	Environment   string

	AdminEmail    string
	AdminPassword string
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file loaded: %v", err)
	}

	driver := getEnv("DATABASE_DRIVER", DriverPostgres)
	defaultDSN := "postgresql://postgres@localhost:5432/hrportal"
	if driver == DriverSQLite {
		defaultDSN = "hrportal.db"
	}
	defaultRealtime := RealtimeLocal
	if driver == DriverPostgres {
		defaultRealtime = RealtimeListen
	}

	return &Config{
		DatabaseDriver:  driver,
		DatabaseURL:     getEnv("DATABASE_URL", defaultDSN),
		StoreBackend:    getEnv("STORE_BACKEND", BackendGorm),
		AuthBackend:     getEnv("AUTH_BACKEND", BackendLocal),
		BlobBackend:     getEnv("BLOB_BACKEND", BackendDisk),
		BlobDir:         getEnv("BLOB_DIR", "uploads"),
		DocumentsBucket: getEnv("DOCUMENTS_BUCKET", "employee_documents"),
		RealtimeSource:  getEnv("REALTIME_SOURCE", defaultRealtime),
		SupabaseURL:     getEnv("SUPABASE_URL", ""),
		SupabaseKey:     getEnv("SUPABASE_SERVICE_ROLE_KEY", ""),
		JWTSecret:       getEnv("JWT_SECRET", defaultJWTSecret),
		JWTExpiration:   getDuration("JWT_EXPIRATION", 24*time.Hour),
		ServerPort:      getEnv("SERVER_PORT", "8080"),
		Environment:     getEnv("ENVIRONMENT", "development"),
		AdminEmail:      getEnv("ADMIN_EMAIL", "admin@example.com"),
		AdminPassword:   getEnv("ADMIN_PASSWORD", "admin123"),
	}
}

// Validate rejects combinations main cannot wire.
func (c *Config) Validate() error {
	var errs []error
	if c.DatabaseDriver != DriverPostgres && c.DatabaseDriver != DriverSQLite {
		errs = append(errs, fmt.Errorf("DATABASE_DRIVER must be %s or %s, got %q", DriverPostgres, DriverSQLite, c.DatabaseDriver))
	}
	if c.StoreBackend != BackendGorm && c.StoreBackend != BackendSupabase {
		errs = append(errs, fmt.Errorf("STORE_BACKEND must be %s or %s, got %q", BackendGorm, BackendSupabase, c.StoreBackend))
	}
	if c.AuthBackend != BackendLocal && c.AuthBackend != BackendSupabase {
		errs = append(errs, fmt.Errorf("AUTH_BACKEND must be %s or %s, got %q", BackendLocal, BackendSupabase, c.AuthBackend))
	}
	if c.BlobBackend != BackendDisk && c.BlobBackend != BackendSupabase {
		errs = append(errs, fmt.Errorf("BLOB_BACKEND must be %s or %s, got %q", BackendDisk, BackendSupabase, c.BlobBackend))
	}
	if c.RealtimeSource != RealtimeLocal && c.RealtimeSource != RealtimeListen {
		errs = append(errs, fmt.Errorf("REALTIME_SOURCE must be %s or %s, got %q", RealtimeLocal, RealtimeListen, c.RealtimeSource))
	}
	if c.RealtimeSource == RealtimeListen && c.DatabaseDriver != DriverPostgres {
		errs = append(errs, errors.New("REALTIME_SOURCE=listen requires DATABASE_DRIVER=postgres"))
	}
	if c.UsesSupabase() && (c.SupabaseURL == "" || c.SupabaseKey == "") {
		errs = append(errs, errors.New("SUPABASE_URL and SUPABASE_SERVICE_ROLE_KEY are required for supabase backends"))
	}
	if c.AuthBackend == BackendLocal && c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required for local auth"))
	}
	if c.AuthBackend == BackendLocal && c.IsProduction() && c.JWTSecret == defaultJWTSecret {
		errs = append(errs, errors.New("JWT_SECRET must be set in production"))
	}
	if c.JWTExpiration <= 0 {
		errs = append(errs, errors.New("JWT_EXPIRATION must be positive"))
	}
	return errors.Join(errs...)
}

func (c *Config) UsesSupabase() bool {
	return c.StoreBackend == BackendSupabase || c.AuthBackend == BackendSupabase || c.BlobBackend == BackendSupabase
}

// NeedsDatabase reports whether a gorm connection has to be opened.
func (c *Config) NeedsDatabase() bool {
	return c.StoreBackend == BackendGorm || c.AuthBackend == BackendLocal
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		log.Printf("Invalid %s %q, using %s", key, value, defaultValue)
		return defaultValue
	}
	return d
}
