package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"

	"github.com/nkiryanov/festival/internal/apperrors"
	"github.com/nkiryanov/festival/internal/logger"
)

const (
	StorageLocal = "local"
	StorageMinio = "minio"
)

const (
	defaultListenAddr     = "localhost:8000"
	defaultLoggingLevel   = logger.LevelInfo
	defaultEnvironment    = logger.EnvProduction
	defaultUploadsDir     = "uploads"
	defaultStorageBackend = StorageLocal
	defaultS3Bucket       = "festival-uploads"
	defaultLoginRateLimit = 10
)

type Config struct {
	// Default logging level
	LogLevel string

	// Address on which the festival service will be run
	ListenAddr string

	// Postgres with user accounts
	DatabaseDSN string

	// MongoDB with content documents, database name is taken from the path
	MongoURI string

	// Secrets to sign access and refresh tokens. Both required
	AccessSecret  string
	RefreshSecret string

	// Accept only the latest issued refresh token
	StrictRefresh bool

	// Environment
	Environment string

	// Where uploaded images are kept: local directory or minio bucket
	StorageBackend string
	UploadsDir     string

	S3Endpoint  string
	S3AccessKey string
	S3SecretKey string
	S3Bucket    string

	// Redis for login rate limiting, no limits if empty
	RedisAddr string

	// Login attempts per minute from one IP
	LoginRateLimit int

	// Admin account created on start unless it exists
	AdminEmail    string
	AdminPassword string
}

func NewConfig() *Config {
	return &Config{
		LogLevel:       defaultLoggingLevel,
		ListenAddr:     defaultListenAddr,
		Environment:    defaultEnvironment,
		UploadsDir:     defaultUploadsDir,
		StorageBackend: defaultStorageBackend,
		S3Bucket:       defaultS3Bucket,
		LoginRateLimit: defaultLoginRateLimit,
	}
}

// Load variable from '.env' file (should be located at working directory)
func (c *Config) LoadDotEnv(getwd func() (string, error)) error {
	wd, err := getwd()
	if err != nil {
		return err
	}

	envMap, err := godotenv.Read(filepath.Join(wd, ".env"))

	switch {
	case err == nil:
		return c.LoadEnv(func(key string) string {
			return envMap[key]
		})
	case errors.Is(err, os.ErrNotExist):
		return nil
	default:
		return err
	}
}

func (c *Config) LoadEnv(getenv func(string) string) error {
	// Set option to value if it not empty
	setString := func(o *string) func(value string) error {
		return func(value string) error {
			if value != "" {
				*o = value
			}
			return nil
		}
	}
	setInt := func(o *int) func(value string) error {
		return func(value string) error {
			if value == "" {
				return nil
			}
			n, err := strconv.Atoi(value)
			if err != nil {
				return err
			}
			*o = n
			return nil
		}
	}
	setBool := func(o *bool) func(value string) error {
		return func(value string) error {
			if value == "" {
				return nil
			}
			b, err := strconv.ParseBool(value)
			if err != nil {
				return err
			}
			*o = b
			return nil
		}
	}

	envMap := map[string]func(string) error{
		"RUN_ADDRESS":          setString(&c.ListenAddr),
		"DATABASE_URI":         setString(&c.DatabaseDSN),
		"MONGO_URI":            setString(&c.MongoURI),
		"ACCESS_TOKEN_SECRET":  setString(&c.AccessSecret),
		"REFRESH_TOKEN_SECRET": setString(&c.RefreshSecret),
		"STRICT_REFRESH":       setBool(&c.StrictRefresh),
		"LOG_LEVEL":            setString(&c.LogLevel),
		"ENVIRONMENT":          setString(&c.Environment),
		"UPLOADS_DIR":          setString(&c.UploadsDir),
		"STORAGE_BACKEND":      setString(&c.StorageBackend),
		"S3_ENDPOINT":          setString(&c.S3Endpoint),
		"S3_ACCESS_KEY":        setString(&c.S3AccessKey),
		"S3_SECRET_KEY":        setString(&c.S3SecretKey),
		"S3_BUCKET":            setString(&c.S3Bucket),
		"REDIS_ADDR":           setString(&c.RedisAddr),
		"LOGIN_RATE_LIMIT":     setInt(&c.LoginRateLimit),
		"ADMIN_EMAIL":          setString(&c.AdminEmail),
		"ADMIN_PASSWORD":       setString(&c.AdminPassword),
	}

	for key, parseFn := range envMap {
		if err := parseFn(getenv(key)); err != nil {
			return fmt.Errorf("invalid %s. Err: %w", key, err)
		}
	}

	return nil
}

func (c *Config) ParseFlags(args []string) error {
	fs := pflag.NewFlagSet("festival", pflag.ContinueOnError)

	fs.StringVarP(&c.ListenAddr, "address", "a", c.ListenAddr, "Server listen address")
	fs.StringVarP(&c.DatabaseDSN, "database", "d", c.DatabaseDSN, "Postgres connection string")
	fs.StringVarP(&c.MongoURI, "mongo", "m", c.MongoURI, "MongoDB connection string")
	fs.StringVar(&c.AccessSecret, "access-secret", c.AccessSecret, "Access token signing secret")
	fs.StringVar(&c.RefreshSecret, "refresh-secret", c.RefreshSecret, "Refresh token signing secret")
	fs.BoolVar(&c.StrictRefresh, "strict-refresh", c.StrictRefresh, "Accept only the latest refresh token of the user")
	fs.StringVarP(&c.LogLevel, "log-level", "l", c.LogLevel, "Logging level (debug, info, warn, error)")
	fs.StringVarP(&c.Environment, "environment", "e", c.Environment, "Environment (dev, prod)")
	fs.StringVar(&c.StorageBackend, "storage", c.StorageBackend, "Uploads storage backend (local, minio)")
	fs.StringVarP(&c.UploadsDir, "uploads-dir", "u", c.UploadsDir, "Directory for uploads with local storage")
	fs.StringVar(&c.S3Endpoint, "s3-endpoint", c.S3Endpoint, "S3 endpoint with minio storage")
	fs.StringVar(&c.S3AccessKey, "s3-access-key", c.S3AccessKey, "S3 access key")
	fs.StringVar(&c.S3SecretKey, "s3-secret-key", c.S3SecretKey, "S3 secret key")
	fs.StringVar(&c.S3Bucket, "s3-bucket", c.S3Bucket, "S3 bucket")
	fs.StringVarP(&c.RedisAddr, "redis", "r", c.RedisAddr, "Redis address for login rate limiting")
	fs.IntVar(&c.LoginRateLimit, "login-rate-limit", c.LoginRateLimit, "Login attempts per minute from one IP")
	fs.StringVar(&c.AdminEmail, "admin-email", c.AdminEmail, "Bootstrap admin email")
	fs.StringVar(&c.AdminPassword, "admin-password", c.AdminPassword, "Bootstrap admin password")

	return fs.Parse(args)
}

// Validate reports configuration the service can't start with
func (c *Config) Validate() error {
	var errs []error

	if c.AccessSecret == "" || c.RefreshSecret == "" {
		errs = append(errs, fmt.Errorf("%w: set ACCESS_TOKEN_SECRET and REFRESH_TOKEN_SECRET", apperrors.ErrSecretNotConfigured))
	}
	if c.DatabaseDSN == "" {
		errs = append(errs, errors.New("database connection string is required"))
	}
	if c.MongoURI == "" {
		errs = append(errs, errors.New("mongo connection string is required"))
	}

	switch c.StorageBackend {
	case StorageLocal:
		if c.UploadsDir == "" {
			errs = append(errs, errors.New("uploads directory is required with local storage"))
		}
	case StorageMinio:
		if c.S3Endpoint == "" || c.S3Bucket == "" {
			errs = append(errs, errors.New("s3 endpoint and bucket are required with minio storage"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown storage backend %q, expected %s or %s", c.StorageBackend, StorageLocal, StorageMinio))
	}

	if c.RedisAddr != "" && c.LoginRateLimit <= 0 {
		errs = append(errs, errors.New("login rate limit must be positive"))
	}
	if (c.AdminEmail == "") != (c.AdminPassword == "") {
		errs = append(errs, errors.New("admin email and password must be set together"))
	}

	return errors.Join(errs...)
}
