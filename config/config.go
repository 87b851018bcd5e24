package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

const minSigningKeyBytes = 32

var (
	ErrMissingSigningKey = errors.New("JWT_KEY is required")
	ErrWeakSigningKey    = fmt.Errorf("JWT_KEY must be at least %d bytes", minSigningKeyBytes)
	ErrMissingIssuer     = errors.New("JWT_ISSUER is required")
	ErrMissingAudience   = errors.New("JWT_AUDIENCE is required")
	ErrInvalidTokenTTL   = errors.New("JWT_EXPIRATION_MINUTES must be at least 1")
)

type Config struct {
	ServerPort int
	Database   DatabaseConfig
	JWT        JWTConfig
	CORS       CORSConfig
	Cookies    CookieConfig
	Log        LogConfig
	MQ         MQConfig
	Storage    StorageConfig
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	UseSSL   bool
}

// JWTConfig holds the token signing material. It is read once at startup
// and never mutated afterwards.
type JWTConfig struct {
	Key               string
	Issuer            string
	Audience          string
	ExpirationMinutes int
}

type CORSConfig struct {
	AllowedOrigins []string
}

type CookieConfig struct {
	// Secure marks auth cookies Secure. Only disable for plain-HTTP local development.
	Secure bool
}

type LogConfig struct {
	Level  string
	Format string
}

type MQConfig struct {
	// Backend is one of "none", "rabbitmq" or "pubsub".
	Backend  string
	Channel  string
	RabbitMQ RabbitMQConfig
	PubSub   PubSubConfig
}

type RabbitMQConfig struct {
	URL             string
	PrefetchCount   int
	QueueDurable    bool
	QueueAutoDelete bool
}

type PubSubConfig struct {
	ProjectID          string
	CredentialsFile    string
	SubscriptionSuffix string
}

type StorageConfig struct {
	// Backend is one of "none", "minio" or "gcs".
	Backend string
	Minio   MinioConfig
	GCS     GCSConfig
}

type MinioConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

type GCSConfig struct {
	Bucket          string
	ProjectID       string
	CredentialsFile string
}

func LoadConfig() Config {
	if os.Getenv("ENV") == "dev" {
		godotenv.Load()
	}

	dbConfig := DatabaseConfig{
		Host:     getEnv("DB_HOST", "localhost"),
		Port:     getEnvInt("DB_PORT", 5432),
		User:     getEnv("DB_USER", "motorpool"),
		Password: getEnv("DB_PASSWORD", "password"),
		DBName:   getEnv("DB_NAME", "motorpool_db"),
		UseSSL:   getEnvBool("DB_USE_SSL", false),
	}

	jwtConfig := JWTConfig{
		Key:               strings.TrimSpace(getEnv("JWT_KEY", "")),
		Issuer:            getEnv("JWT_ISSUER", "motorpool"),
		Audience:          getEnv("JWT_AUDIENCE", "motorpool"),
		ExpirationMinutes: getEnvInt("JWT_EXPIRATION_MINUTES", 60),
	}

	mqConfig := MQConfig{
		Backend: strings.ToLower(getEnv("MQ_BACKEND", "none")),
		Channel: getEnv("MQ_CHANNEL", "account-events"),
		RabbitMQ: RabbitMQConfig{
			URL:             getEnv("RABBITMQ_URL", ""),
			PrefetchCount:   getEnvInt("RABBITMQ_PREFETCH", 0),
			QueueDurable:    getEnvBool("RABBITMQ_QUEUE_DURABLE", true),
			QueueAutoDelete: getEnvBool("RABBITMQ_QUEUE_AUTO_DELETE", false),
		},
		PubSub: PubSubConfig{
			ProjectID:          getEnv("PUBSUB_PROJECT_ID", ""),
			CredentialsFile:    getEnv("PUBSUB_CREDENTIALS_FILE", ""),
			SubscriptionSuffix: getEnv("PUBSUB_SUBSCRIPTION_SUFFIX", "-sub"),
		},
	}

	storageConfig := StorageConfig{
		Backend: strings.ToLower(getEnv("STORAGE_BACKEND", "none")),
		Minio: MinioConfig{
			Endpoint:  getEnv("MINIO_ENDPOINT", "localhost:9000"),
			AccessKey: getEnv("MINIO_ACCESS_KEY", ""),
			SecretKey: getEnv("MINIO_SECRET_KEY", ""),
			Bucket:    getEnv("MINIO_BUCKET", "motorpool"),
			UseSSL:    getEnvBool("MINIO_USE_SSL", false),
		},
		GCS: GCSConfig{
			Bucket:          getEnv("GCS_BUCKET", ""),
			ProjectID:       getEnv("GCS_PROJECT_ID", ""),
			CredentialsFile: getEnv("GCS_CREDENTIALS_FILE", ""),
		},
	}

	return Config{
		ServerPort: getEnvInt("SERVER_PORT", 8080),
		Database:   dbConfig,
		JWT:        jwtConfig,
		CORS: CORSConfig{
			AllowedOrigins: getEnvList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000", "https://localhost:7082"}),
		},
		Cookies: CookieConfig{
			Secure: getEnvBool("COOKIE_SECURE", true),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		MQ:      mqConfig,
		Storage: storageConfig,
	}
}

// Validate reports configuration that must stop the process from starting.
func (c Config) Validate() error {
	return c.JWT.Validate()
}

// Validate checks the signing configuration.
func (c JWTConfig) Validate() error {
	switch {
	case c.Key == "":
		return ErrMissingSigningKey
	case len(c.Key) < minSigningKeyBytes:
		return ErrWeakSigningKey
	case strings.TrimSpace(c.Issuer) == "":
		return ErrMissingIssuer
	case strings.TrimSpace(c.Audience) == "":
		return ErrMissingAudience
	case c.ExpirationMinutes < 1:
		return ErrInvalidTokenTTL
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if valueStr, exists := os.LookupEnv(key); exists {
		value, err := strconv.Atoi(strings.TrimSpace(valueStr))
		if err != nil {
			return defaultValue
		}
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if valueStr, exists := os.LookupEnv(key); exists {
		value, err := strconv.ParseBool(strings.TrimSpace(valueStr))
		if err != nil {
			return defaultValue
		}
		return value
	}
	return defaultValue
}

func getEnvList(key string, defaultValue []string) []string {
	valueStr, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	var values []string
	for _, part := range strings.Split(valueStr, ",") {
		if part = strings.TrimSpace(part); part != "" {
			values = append(values, part)
		}
	}
	return values
}
