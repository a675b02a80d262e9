package main

import (
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"

	"github.com/mojoplatform/mojoauth/internal/logger"
)

const (
	defaultListenAddr   = "localhost:8000"
	defaultLoggingLevel = logger.LevelInfo
	defaultEnvironment  = "prod"
)

type Config struct {
	// Default logging level
	LogLevel string

	// Address on which the auth service will be run
	ListenAddr string

	// Database to connect to
	DatabaseDSN string

	// Secret key
	// JWT tokens are signed with symmetric encryption, so this key is used for that purpose
	SecretKey string

	// Environment (dev, prod). Prod logs json
	Environment string

	// Token lifetimes. Zero means service defaults
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration

	// When set, login answers with a pending step and emails a code
	RequireEmailVerification bool

	// SMTP relay for verification codes
	SMTPHost     string
	SMTPPort     string
	SMTPUsername string
	SMTPPassword string
	SMTPFrom     string
}

func NewConfig() *Config {
	return &Config{
		LogLevel:    defaultLoggingLevel,
		ListenAddr:  defaultListenAddr,
		Environment: defaultEnvironment,
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
		c.LoadEnv(func(key string) string {
			return envMap[key]
		})
		return nil
	case errors.Is(err, os.ErrNotExist):
		return nil
	default:
		return err
	}
}

func (c *Config) LoadEnv(getenv func(string) string) {
	// Set option to value if it not empty
	setString := func(o *string) func(value string) {
		return func(value string) {
			if value != "" {
				*o = value
			}
		}
	}
	setDuration := func(o *time.Duration) func(value string) {
		return func(value string) {
			if d, err := time.ParseDuration(value); err == nil {
				*o = d
			}
		}
	}
	setBool := func(o *bool) func(value string) {
		return func(value string) {
			if value != "" {
				*o = value == "true" || value == "1"
			}
		}
	}

	envMap := map[string]func(string){
		"RUN_ADDRESS":                setString(&c.ListenAddr),
		"DATABASE_URI":               setString(&c.DatabaseDSN),
		"SECRET_KEY":                 setString(&c.SecretKey),
		"LOG_LEVEL":                  setString(&c.LogLevel),
		"ENVIRONMENT":                setString(&c.Environment),
		"ACCESS_TOKEN_TTL":           setDuration(&c.AccessTokenTTL),
		"REFRESH_TOKEN_TTL":          setDuration(&c.RefreshTokenTTL),
		"REQUIRE_EMAIL_VERIFICATION": setBool(&c.RequireEmailVerification),
		"SMTP_HOST":                  setString(&c.SMTPHost),
		"SMTP_PORT":                  setString(&c.SMTPPort),
		"SMTP_USERNAME":              setString(&c.SMTPUsername),
		"SMTP_PASSWORD":              setString(&c.SMTPPassword),
		"SMTP_FROM":                  setString(&c.SMTPFrom),
	}

	for key, parseFn := range envMap {
		parseFn(getenv(key))
	}
}

func (c *Config) ParseFlags(args []string) error {
	fs := pflag.NewFlagSet("mojoauth", pflag.ContinueOnError)

	fs.StringVarP(&c.ListenAddr, "address", "a", c.ListenAddr, "Server listen address")
	fs.StringVarP(&c.DatabaseDSN, "database", "d", c.DatabaseDSN, "Database connection string")
	fs.StringVarP(&c.SecretKey, "secret-key", "s", c.SecretKey, "Secret key")
	fs.StringVarP(&c.LogLevel, "log-level", "l", c.LogLevel, "Logging level (debug, info, warn, error)")
	fs.StringVarP(&c.Environment, "environment", "e", c.Environment, "Environment (dev, prod)")
	fs.DurationVar(&c.AccessTokenTTL, "access-ttl", c.AccessTokenTTL, "Access token lifetime")
	fs.DurationVar(&c.RefreshTokenTTL, "refresh-ttl", c.RefreshTokenTTL, "Refresh token lifetime")
	fs.BoolVar(&c.RequireEmailVerification, "require-email-verification", c.RequireEmailVerification, "Require emailed code on login")
	fs.StringVar(&c.SMTPHost, "smtp-host", c.SMTPHost, "SMTP relay host")
	fs.StringVar(&c.SMTPPort, "smtp-port", c.SMTPPort, "SMTP relay port")
	fs.StringVar(&c.SMTPUsername, "smtp-username", c.SMTPUsername, "SMTP username")
	fs.StringVar(&c.SMTPPassword, "smtp-password", c.SMTPPassword, "SMTP password")
	fs.StringVar(&c.SMTPFrom, "smtp-from", c.SMTPFrom, "From address for verification emails")

	return fs.Parse(args)
}
